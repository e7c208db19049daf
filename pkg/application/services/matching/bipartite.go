package matching

import (
	"context"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/vsinha/lineage/pkg/domain/entities"
	"github.com/vsinha/lineage/pkg/domain/services"
)

// Infeasible is the cost of a pair that must never be matched; any solved
// assignment at or above it is discarded
const Infeasible = 1e9

// BipartiteMatcher solves a minimum-cost assignment between returns and
// candidates over a square-padded dense cost matrix
type BipartiteMatcher struct {
	cfg        Config
	window     Window
	fallback   *GreedyMatcher
	comparator *services.SerialComparator
	logger     *zap.Logger
}

// NewBipartiteMatcher creates an optimal matcher
func NewBipartiteMatcher(cfg Config, logger *zap.Logger) *BipartiteMatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BipartiteMatcher{
		cfg:        cfg,
		window:     cfg.Window(),
		fallback:   NewGreedyMatcher(cfg.Window()),
		comparator: services.NewSerialComparator(),
		logger:     logger,
	}
}

var _ Matcher = (*BipartiteMatcher)(nil)

func (m *BipartiteMatcher) Name() string {
	return string(StrategyOptimal)
}

// Match returns the globally cheapest set of feasible pairs. Degenerate inputs
// (no rows, no columns) and matrices beyond MaxMatrixSize go to the greedy
// matcher instead.
func (m *BipartiteMatcher) Match(
	ctx context.Context,
	returned, candidates []*entities.ShipmentInstance,
) ([]Pair, error) {
	rows := eligibleRows(m.comparator, returned)
	cols := eligibleColumns(m.comparator, candidates)

	if len(rows) == 0 || len(cols) == 0 {
		return m.fallback.Match(ctx, returned, candidates)
	}
	n := len(rows)
	if len(cols) > n {
		n = len(cols)
	}
	if n > m.cfg.MaxMatrixSize {
		m.logger.Info("assignment matrix too large, using greedy matcher",
			zap.Int("rows", len(rows)),
			zap.Int("columns", len(cols)),
			zap.Int("max", m.cfg.MaxMatrixSize),
		)
		return m.fallback.Match(ctx, returned, candidates)
	}

	cost := m.costMatrix(rows, cols, n)
	assignment, err := solveAssignment(ctx, cost)
	if err != nil {
		return nil, err
	}

	var pairs []Pair
	for i, row := range rows {
		j := assignment[i]
		if j >= len(cols) || cost.At(i, j) >= Infeasible {
			continue
		}
		pairs = append(pairs, Pair{
			Returned:    row.Key,
			Replacement: cols[j].Key,
			GapDays:     Gap(row, cols[j]),
		})
	}

	m.logger.Debug("bipartite assignment solved",
		zap.Int("rows", len(rows)),
		zap.Int("columns", len(cols)),
		zap.Int("pairs", len(pairs)),
	)
	return pairs, nil
}

// costMatrix fills an n×n matrix. Padding and infeasible cells hold
// Infeasible. A row is a first hop when it has no backward link when the
// matrix is built.
func (m *BipartiteMatcher) costMatrix(rows, cols []*entities.ShipmentInstance, n int) *mat.Dense {
	data := make([]float64, n*n)
	for k := range data {
		data[k] = Infeasible
	}
	cost := mat.NewDense(n, n, data)

	nr, nc := float64(len(rows)), float64(len(cols))
	for i, row := range rows {
		firstHop := row.Replaced.IsZero()
		for j, col := range cols {
			if !m.window.Feasible(row, col, firstHop) {
				continue
			}
			gap := math.Abs(float64(Gap(row, col)))
			position := (float64(i)/nr + float64(j)/nc) / 2
			tieBreak := float64(i*len(cols)+j) / (nr * nc)
			cost.Set(i, j, m.cfg.GapWeight*gap+m.cfg.PositionWeight*position+m.cfg.TieBreakWeight*tieBreak)
		}
	}
	return cost
}
