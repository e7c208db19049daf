package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vsinha/lineage/pkg/application/services/batch"
	"github.com/vsinha/lineage/pkg/application/services/lineage"
	"github.com/vsinha/lineage/pkg/interfaces/httpapi"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the lineage pipeline over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = a.config.HTTP.Addr
			}
			return serve(cmd.Context(), addr, a.config.Engine, a.config.Batch.Workers, a.logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	return cmd
}

// serve runs the HTTP API until ctx is cancelled, then drains in-flight requests
func serve(ctx context.Context, addr string, engine lineage.Config, workers int, logger *zap.Logger) error {
	svc, err := lineage.NewService(engine, logger.Named("lineage"))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	handler := httpapi.NewServer(svc, batch.NewRunner(svc, workers, logger.Named("batch")), logger.Named("http"))

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Info("shutting down")
	return server.Shutdown(shutdownCtx)
}
