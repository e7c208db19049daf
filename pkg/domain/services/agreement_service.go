package services

import (
	"regexp"
	"strings"

	"github.com/vsinha/lineage/pkg/domain/entities"
)

var (
	nameTwoYear = regexp.MustCompile(`(?i)\b2[\s-]*year`)
	nameOneYear = regexp.MustCompile(`(?i)\b1[\s-]*year`)
	skuTwoYear  = regexp.MustCompile(`(?i)2[\s-]*yr`)
	skuOneYear  = regexp.MustCompile(`(?i)1[\s-]*yr`)
)

// AgreementLine is the part of an order line item agreement detection looks at
type AgreementLine struct {
	SKU  string
	Name string
}

// AgreementDetector recognizes agreement line items and their term
type AgreementDetector struct {
	skuKeywords  []string
	nameKeywords []string
}

// NewAgreementDetector creates a detector. A line is an agreement line when its
// SKU contains any SKU keyword, or its name contains every name keyword.
// Matching is case-insensitive.
func NewAgreementDetector(skuKeywords, nameKeywords []string) *AgreementDetector {
	return &AgreementDetector{
		skuKeywords:  lowerAll(skuKeywords),
		nameKeywords: lowerAll(nameKeywords),
	}
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// IsAgreementLine reports whether the line item carries an agreement
func (d *AgreementDetector) IsAgreementLine(line AgreementLine) bool {
	sku := strings.ToLower(line.SKU)
	for _, kw := range d.skuKeywords {
		if strings.Contains(sku, kw) {
			return true
		}
	}

	if len(d.nameKeywords) == 0 {
		return false
	}
	name := strings.ToLower(line.Name)
	for _, kw := range d.nameKeywords {
		if !strings.Contains(name, kw) {
			return false
		}
	}
	return true
}

// HasAgreement reports whether any line qualifies the order as a cohort
func (d *AgreementDetector) HasAgreement(lines []AgreementLine) bool {
	for _, line := range lines {
		if d.IsAgreementLine(line) {
			return true
		}
	}
	return false
}

// DetectLength derives the agreement term from the agreement lines. Names win
// over SKUs; within each source a two-year match wins over a one-year match.
func (d *AgreementDetector) DetectLength(lines []AgreementLine) entities.AgreementLength {
	fromName := entities.LengthUnknown
	fromSKU := entities.LengthUnknown

	for _, line := range lines {
		if !d.IsAgreementLine(line) {
			continue
		}
		switch {
		case nameTwoYear.MatchString(line.Name):
			fromName = entities.TwoYear
		case nameOneYear.MatchString(line.Name) && fromName != entities.TwoYear:
			fromName = entities.OneYear
		}
		switch {
		case skuTwoYear.MatchString(line.SKU):
			fromSKU = entities.TwoYear
		case skuOneYear.MatchString(line.SKU) && fromSKU != entities.TwoYear:
			fromSKU = entities.OneYear
		}
	}

	if fromName != entities.LengthUnknown {
		return fromName
	}
	return fromSKU
}
