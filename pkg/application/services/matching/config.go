package matching

import (
	apperrors "github.com/vsinha/lineage/pkg/domain/errors"
)

// Strategy names the population matcher used for orphan window matching
type Strategy string

const (
	StrategyOptimal Strategy = "optimal"
	StrategyGreedy  Strategy = "greedy"
)

// Config controls replacement windows and the assignment cost model
type Config struct {
	Strategy       Strategy `yaml:"strategy"`
	WindowDays     int      `yaml:"windowDays"`
	GraceDays      int      `yaml:"graceDays"`
	GraceAllHops   bool     `yaml:"graceAllHops"`
	MaxMatrixSize  int      `yaml:"maxMatrixSize"`
	GapWeight      float64  `yaml:"gapWeight"`
	PositionWeight float64  `yaml:"positionWeight"`
	TieBreakWeight float64  `yaml:"tieBreakWeight"`
}

// DefaultConfig returns the stock matching parameters
func DefaultConfig() Config {
	return Config{
		Strategy:       StrategyOptimal,
		WindowDays:     30,
		GraceDays:      0,
		GraceAllHops:   false,
		MaxMatrixSize:  400,
		GapWeight:      1.0,
		PositionWeight: 0.001,
		TieBreakWeight: 0.000001,
	}
}

// Validate checks the matching parameters
func (c Config) Validate() error {
	switch c.Strategy {
	case StrategyOptimal, StrategyGreedy:
	default:
		return apperrors.ConfigInvalid("matching: unknown strategy %q", c.Strategy)
	}
	if c.WindowDays <= 0 {
		return apperrors.ConfigInvalid("matching: windowDays must be positive, got %d", c.WindowDays)
	}
	if c.GraceDays < 0 {
		return apperrors.ConfigInvalid("matching: graceDays cannot be negative, got %d", c.GraceDays)
	}
	if c.MaxMatrixSize <= 0 {
		return apperrors.ConfigInvalid("matching: maxMatrixSize must be positive, got %d", c.MaxMatrixSize)
	}
	if c.GapWeight < 0 || c.PositionWeight < 0 || c.TieBreakWeight < 0 {
		return apperrors.ConfigInvalid("matching: cost weights cannot be negative")
	}
	return nil
}

// Window returns the replacement window described by the config
func (c Config) Window() Window {
	return Window{Days: c.WindowDays, GraceDays: c.GraceDays, GraceAllHops: c.GraceAllHops}
}
