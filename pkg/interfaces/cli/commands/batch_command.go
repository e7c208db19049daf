package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vsinha/lineage/pkg/application/dto"
	"github.com/vsinha/lineage/pkg/application/services/batch"
	"github.com/vsinha/lineage/pkg/application/services/lineage"
	"github.com/vsinha/lineage/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/lineage/pkg/infrastructure/repositories/jsonfile"
	"github.com/vsinha/lineage/pkg/interfaces/cli/output"
)

// BatchConfig holds the flags of the batch command
type BatchConfig struct {
	InputFile    string
	ScenariosDir string
	OutputDir    string
	Format       string
	Verbose      bool
	Workers      int
}

// BatchCommand resolves several independent customer groups concurrently
type BatchCommand struct {
	config BatchConfig
	engine lineage.Config
	logger *zap.Logger
}

// NewBatchCommand creates a batch command
func NewBatchCommand(config BatchConfig, engine lineage.Config, logger *zap.Logger) *BatchCommand {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchCommand{config: config, engine: engine, logger: logger}
}

func newBatchCommand(a *app) *cobra.Command {
	var (
		cfg    BatchConfig
		engine ResolveConfig
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Resolve many customer groups concurrently",
		Example: `  lineage batch --input groups.json --workers 8
  lineage batch --scenarios scenarios/ --format csv --output results/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("workers") {
				cfg.Workers = a.config.Batch.Workers
			}
			merged := applyEngineFlags(cmd, a.config.Engine, engine)
			return NewBatchCommand(cfg, merged, a.logger).Execute(cmd.Context(), cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&cfg.InputFile, "input", "i", "", "Path to a JSON or YAML file holding a list of groups")
	f.StringVar(&cfg.ScenariosDir, "scenarios", "", "Directory whose subdirectories are CSV scenarios")
	f.IntVarP(&cfg.Workers, "workers", "w", 4, "Maximum number of groups resolved at once")
	addOutputFlags(cmd, &cfg.OutputDir, &cfg.Format, &cfg.Verbose)
	addEngineFlags(cmd, &engine)
	cmd.MarkFlagsMutuallyExclusive("input", "scenarios")
	cmd.MarkFlagsOneRequired("input", "scenarios")
	return cmd
}

// Execute resolves every group and writes one report per successful group.
// It fails when any group failed, after reporting all of them.
func (c *BatchCommand) Execute(ctx context.Context, w io.Writer) error {
	svc, err := lineage.NewService(c.engine, c.logger)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	groups, err := c.loadGroups()
	if err != nil {
		return fmt.Errorf("error loading input: %w", err)
	}

	results, err := batch.NewRunner(svc, c.config.Workers, c.logger).Run(ctx, groups)
	if err != nil {
		return fmt.Errorf("batch interrupted: %w", err)
	}

	failed := 0
	for _, gr := range results {
		if gr.Err != nil {
			failed++
			fmt.Fprintf(w, "❌ %s (run %s): %s\n", gr.GroupID, gr.RunID, gr.Error)
			continue
		}
		if c.config.Format == output.FormatText && c.config.OutputDir == "" {
			fmt.Fprintf(w, "=== %s (run %s) ===\n", gr.GroupID, gr.RunID)
		}
		err := output.Generate(gr.Result, output.Config{
			Format:    c.config.Format,
			OutputDir: c.config.OutputDir,
			Verbose:   c.config.Verbose,
			Name:      gr.GroupID,
		}, w)
		if err != nil {
			return fmt.Errorf("error generating output for %s: %w", gr.GroupID, err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d groups failed", failed, len(results))
	}
	return nil
}

func (c *BatchCommand) loadGroups() ([]dto.BatchInput, error) {
	if c.config.InputFile != "" {
		return jsonfile.NewLoader().LoadBatch(c.config.InputFile)
	}
	if c.config.ScenariosDir == "" {
		return nil, fmt.Errorf("must specify either --input file or --scenarios directory")
	}

	entries, err := os.ReadDir(c.config.ScenariosDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", c.config.ScenariosDir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	loader := csv.NewLoader()
	var groups []dto.BatchInput
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		input, err := loader.LoadScenario(filepath.Join(c.config.ScenariosDir, entry.Name()))
		if err != nil {
			return nil, err
		}
		groups = append(groups, input)
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("no scenario directories found in %s", c.config.ScenariosDir)
	}
	return groups, nil
}
