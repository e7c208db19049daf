package cohort

import (
	apperrors "github.com/vsinha/lineage/pkg/domain/errors"
)

// AgreementConfig controls how agreement orders are recognized and sized
type AgreementConfig struct {
	SKUKeywords       []string `yaml:"skuKeywords"`
	NameKeywords      []string `yaml:"nameKeywords"`
	CapacityPerMember int      `yaml:"capacityPerMember"`
	WarningDays       int      `yaml:"warningDays"`
}

// TrackingConfig selects which SKUs become shipment instances.
// An empty TargetSKUs tracks every serialized SKU.
type TrackingConfig struct {
	TargetSKUs []string `yaml:"targetSkus"`
}

// DefaultAgreementConfig returns the stock agreement recognition rules
func DefaultAgreementConfig() AgreementConfig {
	return AgreementConfig{
		SKUKeywords:       []string{"hifcsa-1yr", "hifcsa-2yr", "hifcsa-m2m"},
		NameKeywords:      []string{"csa", "prepaid"},
		CapacityPerMember: 4,
		WarningDays:       60,
	}
}

// Validate checks the agreement rules
func (c AgreementConfig) Validate() error {
	if len(c.SKUKeywords) == 0 && len(c.NameKeywords) == 0 {
		return apperrors.ConfigInvalid("agreement: at least one sku or name keyword is required")
	}
	if c.CapacityPerMember <= 0 {
		return apperrors.ConfigInvalid("agreement: capacityPerMember must be positive, got %d", c.CapacityPerMember)
	}
	if c.WarningDays < 0 {
		return apperrors.ConfigInvalid("agreement: warningDays cannot be negative, got %d", c.WarningDays)
	}
	return nil
}
