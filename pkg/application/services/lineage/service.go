package lineage

import (
	"context"

	"go.uber.org/zap"

	"github.com/vsinha/lineage/pkg/application/dto"
	"github.com/vsinha/lineage/pkg/application/services/aggregate"
	"github.com/vsinha/lineage/pkg/application/services/chain"
	"github.com/vsinha/lineage/pkg/application/services/cohort"
	"github.com/vsinha/lineage/pkg/application/services/matching"
	"github.com/vsinha/lineage/pkg/application/services/orphan"
	"github.com/vsinha/lineage/pkg/application/services/shared"
	"github.com/vsinha/lineage/pkg/domain/entities"
	apperrors "github.com/vsinha/lineage/pkg/domain/errors"
	"github.com/vsinha/lineage/pkg/infrastructure/events"
	"github.com/vsinha/lineage/pkg/infrastructure/repositories/memory"
)

// Service runs the lineage pipeline over one materialized input:
// cohorts, return processing, chain assembly, orphan chains, association and
// aggregation, in that order. A Service holds no per-run state and may be
// shared by concurrent callers; each Resolve works on its own tables.
type Service struct {
	config     Config
	builder    *cohort.Builder
	engine     *matching.Engine
	assembler  *chain.Assembler
	orphans    *orphan.Builder
	resolver   *orphan.Resolver
	aggregator *aggregate.Aggregator
	logger     *zap.Logger
}

// NewService validates config and wires the pipeline stages
func NewService(config Config, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	matcher, err := matching.NewMatcher(config.Matching, logger.Named("matcher"))
	if err != nil {
		return nil, err
	}
	assembler := chain.NewAssembler(logger.Named("chain"))

	return &Service{
		config:     config,
		builder:    cohort.NewBuilder(config.Agreement, config.Tracking, logger.Named("cohort")),
		engine:     matching.NewEngine(logger.Named("engine")),
		assembler:  assembler,
		orphans:    orphan.NewBuilder(matcher, assembler, logger.Named("orphan")),
		resolver:   orphan.NewResolver(logger.Named("association")),
		aggregator: aggregate.NewAggregator(config.Metrics, logger.Named("aggregate")),
		logger:     logger,
	}, nil
}

// Config returns the configuration the service was built with
func (s *Service) Config() Config {
	return s.config
}

// Resolve reconstructs replacement chains for input. Data problems are
// reported as diagnostics in the result; only empty input or a cancelled
// context return an error.
func (s *Service) Resolve(ctx context.Context, input dto.BatchInput) (*dto.LineageResult, error) {
	if input.IsEmpty() {
		return nil, apperrors.InvalidInput("input contains no orders and no returns")
	}
	if len(input.Orders) == 0 {
		return nil, apperrors.InvalidInput("input contains %d return(s) but no orders", len(input.Returns))
	}

	instances := memory.NewInstanceRepository(estimateInstances(input))
	cohorts := memory.NewCohortRepository(len(input.Orders))
	diags := shared.NewDiagnostics(s.logger)
	journal := events.NewJournal(nil)

	built, err := s.builder.Build(ctx, input, instances, cohorts, diags, journal)
	if err != nil {
		return nil, apperrors.Wrap(err, "building cohorts")
	}

	outcome, err := s.engine.Process(ctx, built.Returns, instances, cohorts, diags, journal)
	if err != nil {
		return nil, apperrors.Wrap(err, "processing returns")
	}

	validated := make(map[entities.OrderID][]entities.Chain, cohorts.Len())
	for _, c := range cohorts.All() {
		validated[c.OrderID] = s.assembler.CohortChains(c, instances, diags)
	}

	orphanChains, err := s.orphans.Build(ctx, instances, built.AgreementOrders, built.FreeText, diags, journal)
	if err != nil {
		return nil, apperrors.Wrap(err, "building orphan chains")
	}
	orphanChains, violations := s.resolver.Resolve(orphanChains, instances, cohorts, diags, journal)

	asOf, err := s.config.Metrics.AsOfDate(built.LatestEventDate)
	if err != nil {
		return nil, err
	}

	result := s.aggregator.Aggregate(aggregate.Input{
		Instances:    instances,
		Cohorts:      cohorts,
		Validated:    validated,
		OrphanChains: orphanChains,
		Violations:   violations,
		Pricing:      built.Pricing,
		Diagnostics:  diags,
		Journal:      journal,
		AsOf:         asOf,
	})

	s.logger.Info("lineage resolved",
		zap.Int("instances", instances.Len()),
		zap.Int("cohorts", cohorts.Len()),
		zap.Int("returns_processed", outcome.Processed),
		zap.Int("replaced", outcome.Replaced),
		zap.Int("orphan_chains", len(orphanChains)),
		zap.Int("isolation_violations", len(violations)),
		zap.Int("diagnostics", diags.Len()),
		zap.Int("cycles", diags.Count(apperrors.CodeCycleDetected)),
		zap.Int("missing_dates", diags.Count(apperrors.CodeMissingDate)),
	)
	return result, nil
}

func estimateInstances(input dto.BatchInput) int {
	n := 0
	for _, order := range input.Orders {
		for _, pkg := range order.Packages {
			for _, line := range pkg.LineItems {
				n += len(line.Serials)
			}
		}
	}
	return n
}
