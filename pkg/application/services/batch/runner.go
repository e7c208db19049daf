package batch

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vsinha/lineage/pkg/application/dto"
)

// Resolver resolves one customer group
type Resolver interface {
	Resolve(ctx context.Context, input dto.BatchInput) (*dto.LineageResult, error)
}

// GroupResult is the outcome of one group. A failed group carries its error
// and leaves Result nil; other groups are unaffected.
type GroupResult struct {
	GroupID string             `json:"groupId"`
	RunID   string             `json:"runId"`
	Result  *dto.LineageResult `json:"result,omitempty"`
	Error   string             `json:"error,omitempty"`
	Err     error              `json:"-"`
}

// Runner resolves independent customer groups concurrently. Groups share no
// state, so each gets its own pipeline run.
type Runner struct {
	resolver Resolver
	workers  int
	newRunID func() string
	logger   *zap.Logger
}

// NewRunner creates a runner with at most workers concurrent groups
func NewRunner(resolver Resolver, workers int, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers <= 0 {
		workers = 1
	}
	return &Runner{
		resolver: resolver,
		workers:  workers,
		newRunID: func() string { return uuid.New().String() },
		logger:   logger,
	}
}

// Run resolves every group and returns results in input order. It only fails
// when ctx is done before all groups finished.
func (r *Runner) Run(ctx context.Context, groups []dto.BatchInput) ([]GroupResult, error) {
	results := make([]GroupResult, len(groups))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i := range groups {
		i := i
		groupID := strings.TrimSpace(groups[i].GroupID)
		if groupID == "" {
			groupID = fmt.Sprintf("group-%d", i+1)
		}
		results[i] = GroupResult{GroupID: groupID, RunID: r.newRunID()}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			log := r.logger.With(zap.String("group", results[i].GroupID), zap.String("run_id", results[i].RunID))

			result, err := r.resolver.Resolve(gctx, groups[i])
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				log.Warn("group failed", zap.Error(err))
				results[i].Err = err
				results[i].Error = err.Error()
				return nil
			}
			results[i].Result = result
			log.Debug("group resolved", zap.Int("chains", len(result.Chains)))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
