package matching

import (
	"context"

	"go.uber.org/zap"

	"github.com/vsinha/lineage/pkg/domain/entities"
	apperrors "github.com/vsinha/lineage/pkg/domain/errors"
	"github.com/vsinha/lineage/pkg/domain/services"
)

// Pair is a proposed handoff from a returned instance to its replacement
type Pair struct {
	Returned    entities.InstanceKey
	Replacement entities.InstanceKey
	GapDays     int
}

// Matcher proposes handoffs between returned instances and replacement
// candidates. It never mutates the instances it is given; callers commit the
// returned pairs themselves.
type Matcher interface {
	Name() string
	Match(ctx context.Context, returned, candidates []*entities.ShipmentInstance) ([]Pair, error)
}

// NewMatcher builds the matcher selected by cfg.Strategy
func NewMatcher(cfg Config, logger *zap.Logger) (Matcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Strategy {
	case StrategyOptimal:
		return NewBipartiteMatcher(cfg, logger), nil
	case StrategyGreedy:
		return NewGreedyMatcher(cfg.Window()), nil
	default:
		return nil, apperrors.ConfigInvalid("matching: unknown strategy %q", cfg.Strategy)
	}
}

// eligibleRows returns returned instances without a forward link, by return date
func eligibleRows(sc *services.SerialComparator, returned []*entities.ShipmentInstance) []*entities.ShipmentInstance {
	rows := make([]*entities.ShipmentInstance, 0, len(returned))
	for _, instance := range returned {
		if instance.HasReturnDate() && instance.ReplacedBy.IsZero() {
			rows = append(rows, instance)
		}
	}
	sc.SortByReturnDate(rows)
	return rows
}

// eligibleColumns returns dated candidates without a backward link, FIFO
func eligibleColumns(sc *services.SerialComparator, candidates []*entities.ShipmentInstance) []*entities.ShipmentInstance {
	cols := make([]*entities.ShipmentInstance, 0, len(candidates))
	for _, instance := range candidates {
		if instance.HasShipDate() && instance.Replaced.IsZero() {
			cols = append(cols, instance)
		}
	}
	sc.SortByShipDate(cols)
	return cols
}
