package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vsinha/lineage/pkg/application/dto"
	"github.com/vsinha/lineage/pkg/application/services/lineage"
	"github.com/vsinha/lineage/pkg/application/services/matching"
	"github.com/vsinha/lineage/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/lineage/pkg/infrastructure/repositories/jsonfile"
	"github.com/vsinha/lineage/pkg/interfaces/cli/output"
)

// ResolveConfig holds the flags of the resolve command
type ResolveConfig struct {
	InputFile    string
	ScenarioDir  string
	OutputDir    string
	Format       string
	Verbose      bool
	Strategy     string
	WindowDays   int
	GraceDays    int
	GraceAllHops bool
	AsOf         string
}

// ResolveCommand resolves one customer group and writes the report
type ResolveCommand struct {
	config ResolveConfig
	engine lineage.Config
	logger *zap.Logger
}

// NewResolveCommand creates a resolve command for the given engine configuration
func NewResolveCommand(config ResolveConfig, engine lineage.Config, logger *zap.Logger) *ResolveCommand {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResolveCommand{config: config, engine: engine, logger: logger}
}

func newResolveCommand(a *app) *cobra.Command {
	var cfg ResolveConfig

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve one customer group from a JSON/YAML file or a CSV scenario directory",
		Example: `  lineage resolve --input group.json
  lineage resolve --scenario scenarios/acme --format xlsx --output results/
  lineage resolve --input group.yaml --strategy greedy --window-days 45`,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine := applyEngineFlags(cmd, a.config.Engine, cfg)
			return NewResolveCommand(cfg, engine, a.logger).Execute(cmd.Context(), cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&cfg.InputFile, "input", "i", "", "Path to a JSON or YAML batch input file")
	f.StringVarP(&cfg.ScenarioDir, "scenario", "s", "", "Path to a scenario directory of CSV files")
	addOutputFlags(cmd, &cfg.OutputDir, &cfg.Format, &cfg.Verbose)
	addEngineFlags(cmd, &cfg)
	cmd.MarkFlagsMutuallyExclusive("input", "scenario")
	cmd.MarkFlagsOneRequired("input", "scenario")
	return cmd
}

func addOutputFlags(cmd *cobra.Command, outputDir, format *string, verbose *bool) {
	f := cmd.Flags()
	f.StringVarP(outputDir, "output", "o", "", "Output directory for results (required for csv and xlsx)")
	f.StringVarP(format, "format", "f", output.FormatText, "Output format: text, json, csv, xlsx")
	f.BoolVarP(verbose, "verbose", "v", false, "Enable verbose output")
}

func addEngineFlags(cmd *cobra.Command, cfg *ResolveConfig) {
	f := cmd.Flags()
	f.StringVar(&cfg.Strategy, "strategy", "", "Orphan matching strategy: optimal, greedy")
	f.IntVar(&cfg.WindowDays, "window-days", 0, "Replacement window in days")
	f.IntVar(&cfg.GraceDays, "grace-days", 0, "Grace days added to the first-hop window")
	f.BoolVar(&cfg.GraceAllHops, "grace-all-hops", false, "Apply the grace days to every hop")
	f.StringVar(&cfg.AsOf, "as-of", "", "Reporting date for metrics (YYYY-MM-DD)")
}

// applyEngineFlags overlays the flags the user actually set on the loaded config
func applyEngineFlags(cmd *cobra.Command, engine lineage.Config, cfg ResolveConfig) lineage.Config {
	f := cmd.Flags()
	if f.Changed("strategy") {
		engine.Matching.Strategy = matching.Strategy(cfg.Strategy)
	}
	if f.Changed("window-days") {
		engine.Matching.WindowDays = cfg.WindowDays
	}
	if f.Changed("grace-days") {
		engine.Matching.GraceDays = cfg.GraceDays
	}
	if f.Changed("grace-all-hops") {
		engine.Matching.GraceAllHops = cfg.GraceAllHops
	}
	if f.Changed("as-of") {
		engine.Metrics.AsOf = cfg.AsOf
	}
	return engine
}

// Execute loads the input, runs the pipeline and writes the report to w
func (c *ResolveCommand) Execute(ctx context.Context, w io.Writer) error {
	svc, err := lineage.NewService(c.engine, c.logger)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	input, err := c.loadInput()
	if err != nil {
		return fmt.Errorf("error loading input: %w", err)
	}

	if c.config.Verbose {
		fmt.Fprintf(w, "🚀 Resolving %s: %d orders, %d returns\n\n", input.GroupID, len(input.Orders), len(input.Returns))
	}

	start := time.Now()
	result, err := svc.Resolve(ctx, input)
	if err != nil {
		return fmt.Errorf("error resolving lineage: %w", err)
	}
	elapsed := time.Since(start)

	err = output.Generate(result, output.Config{
		Format:      c.config.Format,
		OutputDir:   c.config.OutputDir,
		Verbose:     c.config.Verbose,
		ResolveTime: elapsed,
		Name:        input.GroupID,
	}, w)
	if err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}
	return nil
}

func (c *ResolveCommand) loadInput() (dto.BatchInput, error) {
	switch {
	case c.config.ScenarioDir != "":
		return csv.NewLoader().LoadScenario(c.config.ScenarioDir)
	case c.config.InputFile != "":
		return jsonfile.NewLoader().LoadInput(c.config.InputFile)
	default:
		return dto.BatchInput{}, fmt.Errorf("must specify either --input file or --scenario directory")
	}
}
