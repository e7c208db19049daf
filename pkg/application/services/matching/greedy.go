package matching

import (
	"context"

	"github.com/vsinha/lineage/pkg/application/services/shared"
	"github.com/vsinha/lineage/pkg/domain/entities"
	"github.com/vsinha/lineage/pkg/domain/services"
)

// GreedyMatcher walks returns in return-date order and gives each the first
// feasible unused candidate in ship-date order
type GreedyMatcher struct {
	window     Window
	comparator *services.SerialComparator
}

// NewGreedyMatcher creates a greedy matcher over window
func NewGreedyMatcher(window Window) *GreedyMatcher {
	return &GreedyMatcher{
		window:     window,
		comparator: services.NewSerialComparator(),
	}
}

var _ Matcher = (*GreedyMatcher)(nil)

func (m *GreedyMatcher) Name() string {
	return string(StrategyGreedy)
}

// Match pairs returns with candidates. A return counts as a first hop when it
// has no backward link, including links proposed earlier in this pass.
func (m *GreedyMatcher) Match(
	ctx context.Context,
	returned, candidates []*entities.ShipmentInstance,
) ([]Pair, error) {
	rows := eligibleRows(m.comparator, returned)
	cols := eligibleColumns(m.comparator, candidates)

	used := shared.NewKeySet()
	var pairs []Pair
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		firstHop := row.Replaced.IsZero() && !used.Has(row.Key)
		for _, col := range cols {
			if used.Has(col.Key) || !m.window.Feasible(row, col, firstHop) {
				continue
			}
			used.Add(col.Key)
			pairs = append(pairs, Pair{
				Returned:    row.Key,
				Replacement: col.Key,
				GapDays:     Gap(row, col),
			})
			break
		}
	}
	return pairs, nil
}
