package aggregate

import (
	"time"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"

	"github.com/vsinha/lineage/pkg/application/dto"
	"github.com/vsinha/lineage/pkg/domain/entities"
	"github.com/vsinha/lineage/pkg/domain/services"
)

// Extension pricing curve: a·r² − b·r + floor, clamped to [floor, ceiling]
var (
	extensionA       = decimal.RequireFromString("258.3333")
	extensionB       = decimal.RequireFromString("58.3333")
	extensionFloor   = decimal.NewFromInt(900)
	extensionCeiling = decimal.NewFromInt(4800)
)

// AccruedYears returns the agreement years a cohort has used up by asOf.
// A finished agreement counts in full; a running one counts pro rata.
func AccruedYears(cohort *entities.Cohort, asOf time.Time) decimal.Decimal {
	years := cohort.Length.Years()
	if years == 0 || !cohort.HasPeriod() {
		return decimal.Zero
	}
	total := services.DaysBetween(cohort.StartDate, cohort.EndDate)
	if total <= 0 {
		return decimal.Zero
	}
	if !cohort.EndDate.After(asOf) {
		return decimal.NewFromInt(int64(years))
	}
	if !cohort.StartDate.Before(asOf) {
		return decimal.Zero
	}
	active := services.DaysBetween(cohort.StartDate, asOf)
	return decimal.NewFromInt(int64(years * active)).Div(decimal.NewFromInt(int64(total)))
}

// BreakRate is returns per accrued agreement year, zero when nothing accrued
func BreakRate(returns int, accrued decimal.Decimal) decimal.Decimal {
	if !accrued.IsPositive() {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(returns)).Div(accrued)
}

// ExtensionCost prices a one-year extension for a given break rate
func ExtensionCost(breakRate decimal.Decimal) decimal.Decimal {
	cost := extensionA.Mul(breakRate).Mul(breakRate).
		Sub(extensionB.Mul(breakRate)).
		Add(extensionFloor)
	if cost.LessThan(extensionFloor) {
		return extensionFloor
	}
	if cost.GreaterThan(extensionCeiling) {
		return extensionCeiling
	}
	return cost
}

// metrics assembles rounded metrics from raw totals
func metrics(accrued decimal.Decimal, returns int, returnPrice, averagePrice decimal.Decimal, gaps []float64) dto.CohortMetrics {
	rate := BreakRate(returns, accrued)
	return dto.CohortMetrics{
		AccruedYears:     accrued.Round(2),
		TotalReturns:     returns,
		BreakRate:        rate.Round(2),
		Savings:          returnPrice.Mul(decimal.NewFromInt(int64(returns))).Round(2),
		ExtensionCost:    ExtensionCost(rate).Round(2),
		AverageItemPrice: averagePrice.Round(2),
		Gaps:             GapSummary(gaps),
	}
}

// GapSummary describes handoff gaps in days
func GapSummary(gaps []float64) dto.GapStats {
	summary := dto.GapStats{Count: len(gaps)}
	if len(gaps) == 0 {
		return summary
	}
	data := stats.Float64Data(gaps)
	if mean, err := data.Mean(); err == nil {
		summary.MeanDays, _ = stats.Round(mean, 2)
	}
	if median, err := data.Median(); err == nil {
		summary.MedianDays, _ = stats.Round(median, 2)
	}
	if longest, err := data.Max(); err == nil {
		summary.MaxDays = longest
	}
	return summary
}
