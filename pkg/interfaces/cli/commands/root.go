package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vsinha/lineage/pkg/infrastructure/config"
	"github.com/vsinha/lineage/pkg/infrastructure/logging"
)

// app carries what every subcommand needs once flags are parsed
type app struct {
	configPath string
	logLevel   string
	logFormat  string

	config *config.Config
	logger *zap.Logger
}

// NewRootCommand builds the lineage command tree
func NewRootCommand(version string) *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "lineage",
		Short: "Resolve replacement lineage for serialized units under care agreements",
		Long: `lineage reconstructs which shipped unit replaced which returned unit,
how much replacement capacity each agreement cohort has left, and which
orphan replacements belong to which cohort.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Path to YAML configuration file")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&a.logFormat, "log-format", "", "Log format: console, json")

	root.AddCommand(
		newResolveCommand(a),
		newBatchCommand(a),
		newServeCommand(a),
	)
	return root
}

func (a *app) load() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.config = cfg
	a.logger = logger
	return nil
}
