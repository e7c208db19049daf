package lineage

import (
	"github.com/vsinha/lineage/pkg/application/services/aggregate"
	"github.com/vsinha/lineage/pkg/application/services/cohort"
	"github.com/vsinha/lineage/pkg/application/services/matching"
)

// Config gathers the tunables of every pipeline stage
type Config struct {
	Agreement cohort.AgreementConfig `yaml:"agreement"`
	Tracking  cohort.TrackingConfig  `yaml:"tracking"`
	Matching  matching.Config        `yaml:"matching"`
	Metrics   aggregate.Config       `yaml:"metrics"`
}

// DefaultConfig returns the stock pipeline configuration
func DefaultConfig() Config {
	return Config{
		Agreement: cohort.DefaultAgreementConfig(),
		Matching:  matching.DefaultConfig(),
		Metrics:   aggregate.DefaultConfig(),
	}
}

// Validate checks every stage's configuration
func (c Config) Validate() error {
	if err := c.Agreement.Validate(); err != nil {
		return err
	}
	if err := c.Matching.Validate(); err != nil {
		return err
	}
	return c.Metrics.Validate()
}
