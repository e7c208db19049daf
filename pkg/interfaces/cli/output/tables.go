package output

import (
	"strconv"
	"strings"

	"github.com/vsinha/lineage/pkg/application/dto"
)

// table is one flat sheet of the report
type table struct {
	name   string
	header []string
	rows   [][]string
}

// buildTables flattens a result into the sheets shared by the CSV and XLSX
// writers. The order of tables and rows is fixed.
func buildTables(result *dto.LineageResult) []table {
	cohorts := table{
		name: "cohorts",
		header: []string{
			"order_id", "start_date", "end_date", "warning_date", "start_source", "agreement_length",
			"members", "capacity_total", "capacity_remaining", "validated_in_field", "assigned_orphans",
			"failed", "accrued_years", "total_returns", "break_rate", "savings", "extension_cost",
			"average_item_price", "gap_count", "gap_mean_days", "gap_median_days", "gap_max_days",
		},
	}
	for _, c := range result.Cohorts {
		m := c.Metrics
		cohorts.rows = append(cohorts.rows, []string{
			c.OrderID, c.StartDate, c.EndDate, c.WarningDate, c.StartSource, c.AgreementLength,
			itoa(c.MemberCount), itoa(c.CapacityTotal), itoa(c.CapacityRemaining),
			itoa(c.ValidatedInFieldCount), itoa(c.AssignedOrphanCount), strconv.FormatBool(c.Failed),
			m.AccruedYears.String(), itoa(m.TotalReturns), m.BreakRate.String(), m.Savings.String(),
			m.ExtensionCost.String(), m.AverageItemPrice.String(), itoa(m.Gaps.Count),
			ftoa(m.Gaps.MeanDays), ftoa(m.Gaps.MedianDays), ftoa(m.Gaps.MaxDays),
		})
	}

	chains := table{
		name:   "chains",
		header: []string{"cohort_id", "serials", "keys", "handoffs", "final_status", "final_description"},
	}
	for _, c := range result.Chains {
		chains.rows = append(chains.rows, []string{
			c.CohortID, join(c.Serials), join(c.Keys), strings.Join(c.Handoffs, "; "), c.FinalStatus, c.FinalDescription,
		})
	}

	orphans := table{
		name:   "orphan_chains",
		header: []string{"serials", "keys", "evidence", "final_status", "assigned_cohort", "reason", "reason_detail"},
	}
	for _, oc := range result.OrphanChains {
		orphans.rows = append(orphans.rows, []string{
			join(oc.Serials), join(oc.Keys), join(oc.Evidence), oc.FinalStatus, oc.AssignedCohort, oc.Reason, oc.ReasonDetail,
		})
	}

	violations := table{
		name:   "isolation_violations",
		header: []string{"serial", "original_cohort", "assigned_cohort", "reason"},
	}
	for _, v := range result.IsolationViolations {
		violations.rows = append(violations.rows, []string{v.Serial, v.OriginalCohort, v.AssignedCohort, v.Reason})
	}

	diagnostics := table{
		name:   "diagnostics",
		header: []string{"code", "message", "key", "cohort"},
	}
	for _, d := range result.Diagnostics {
		diagnostics.rows = append(diagnostics.rows, []string{d.Code, d.Message, d.Key, d.Cohort})
	}

	return []table{cohorts, chains, orphans, violations, diagnostics}
}

func join(values []string) string {
	return strings.Join(values, " > ")
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
