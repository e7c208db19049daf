package aggregate

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/vsinha/lineage/pkg/domain/errors"
	"github.com/vsinha/lineage/pkg/domain/services"
)

// Config controls the performance metrics
type Config struct {
	ReturnPrice decimal.Decimal `yaml:"returnPrice"`
	// AsOf is the reporting date (YYYY-MM-DD). Empty means the latest event
	// date found in the input.
	AsOf string `yaml:"asOf"`
}

// DefaultConfig returns the stock metric parameters
func DefaultConfig() Config {
	return Config{ReturnPrice: decimal.NewFromInt(1200)}
}

// Validate checks the metric parameters
func (c Config) Validate() error {
	if c.ReturnPrice.IsNegative() {
		return apperrors.ConfigInvalid("metrics: returnPrice cannot be negative, got %s", c.ReturnPrice)
	}
	if _, err := c.asOf(); err != nil {
		return err
	}
	return nil
}

// AsOfDate returns the configured reporting date, or fallback when none is set
func (c Config) AsOfDate(fallback time.Time) (time.Time, error) {
	date, err := c.asOf()
	if err != nil {
		return time.Time{}, err
	}
	if date.IsZero() {
		return services.Day(fallback), nil
	}
	return date, nil
}

func (c Config) asOf() (time.Time, error) {
	raw := strings.TrimSpace(c.AsOf)
	if raw == "" {
		return time.Time{}, nil
	}
	date, err := services.ParseFlexibleDate(raw)
	if err != nil {
		return time.Time{}, apperrors.ConfigInvalid("metrics: asOf %q is not a date", c.AsOf)
	}
	return date, nil
}
