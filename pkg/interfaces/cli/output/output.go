package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vsinha/lineage/pkg/application/dto"
)

// Supported formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Config holds configuration for output generation
type Config struct {
	Format      string
	OutputDir   string
	Verbose     bool
	ResolveTime time.Duration
	// Name prefixes written files; it is usually the group id
	Name string
}

// Generate writes result in the configured format. Text and JSON go to w
// unless an output directory is set; CSV and XLSX always need one.
func Generate(result *dto.LineageResult, config Config, w io.Writer) error {
	switch config.Format {
	case FormatText, "":
		return generateTextOutput(result, config, w)
	case FormatJSON:
		return generateJSONOutput(result, config, w)
	case FormatCSV:
		return generateCSVOutput(result, config, w)
	case FormatXLSX:
		return generateXLSXOutput(result, config, w)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

func (c Config) fileName(suffix string) string {
	if c.Name == "" {
		return "lineage" + suffix
	}
	return c.Name + "_lineage" + suffix
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// generateTextOutput creates human-readable text output
func generateTextOutput(result *dto.LineageResult, config Config, w io.Writer) error {
	if config.OutputDir != "" {
		if err := ensureDir(config.OutputDir); err != nil {
			return err
		}
		filename := filepath.Join(config.OutputDir, config.fileName(".txt"))
		file, err := os.Create(filename)
		if err != nil {
			return fmt.Errorf("failed to create text file: %w", err)
		}
		defer file.Close()
		if err := WriteText(file, result, config); err != nil {
			return err
		}
		if config.Verbose {
			fmt.Fprintf(w, "💾 Results saved to: %s\n", filename)
		}
		return nil
	}
	return WriteText(w, result, config)
}

// WriteText renders the summary report
func WriteText(w io.Writer, result *dto.LineageResult, config Config) error {
	s := result.Summary
	p := &printer{w: w}

	p.printf("📊 Lineage Results Summary\n")
	p.printf("==========================\n\n")
	p.printf("As Of: %s\n", s.AsOf)
	p.printf("Shipped Instances: %d\n", s.TotalShipped)
	p.printf("Returned Instances: %d\n", s.TotalReturned)
	p.printf("Cohorts: %d\n", s.CohortCount)
	p.printf("Orphan Chains: %d\n", s.OrphanChainCount)
	if config.ResolveTime > 0 {
		p.printf("Resolve Time: %v\n", config.ResolveTime)
	}
	p.printf("\n")

	if len(result.Cohorts) > 0 {
		p.printf("📋 Cohorts:\n")
		p.printf("%-12s %-12s %-12s %-10s %-10s %-10s %-10s %-10s\n",
			"Order", "Start", "End", "Capacity", "Remaining", "In Field", "Orphans", "Returns")
		p.printf("%-12s %-12s %-12s %-10s %-10s %-10s %-10s %-10s\n",
			"------------", "------------", "------------", "----------", "----------", "----------", "----------", "----------")
		for _, c := range result.Cohorts {
			p.printf("%-12s %-12s %-12s %-10d %-10d %-10d %-10d %-10d\n",
				c.OrderID, c.StartDate, c.EndDate, c.CapacityTotal, c.CapacityRemaining,
				c.ValidatedInFieldCount, c.AssignedOrphanCount, c.Metrics.TotalReturns)
			if c.Failed {
				p.printf("  ❌ failed: %s\n", c.FailureReason)
			}
		}
		p.printf("\n")
	}

	if len(result.Chains) > 0 {
		p.printf("🔗 Validated Chains:\n")
		for _, chain := range result.Chains {
			p.printf("  [%s] %s → %s\n", chain.CohortID, strings.Join(chain.Serials, " → "), chain.FinalDescription)
			if config.Verbose {
				for _, h := range chain.Handoffs {
					p.printf("      %s\n", h)
				}
			}
		}
		p.printf("\n")
	}

	if len(result.OrphanChains) > 0 {
		p.printf("🧩 Orphan Chains:\n")
		for _, oc := range result.OrphanChains {
			p.printf("  %s → %s (cohort: %s, reason: %s)\n",
				strings.Join(oc.Serials, " → "), oc.FinalDescription, oc.AssignedCohort, oc.Reason)
		}
		p.printf("\n")
	}

	m := s.Metrics
	p.printf("💰 Metrics:\n")
	p.printf("  Accrued Years: %s\n", m.AccruedYears)
	p.printf("  Total Returns: %d\n", m.TotalReturns)
	p.printf("  Break Rate: %s\n", m.BreakRate)
	p.printf("  Savings: %s\n", m.Savings)
	p.printf("  Extension Cost: %s\n", m.ExtensionCost)
	p.printf("  Average Item Price: %s\n", m.AverageItemPrice)
	p.printf("  Handoff Gaps: %d (mean %.2f, median %.2f, max %.2f days)\n\n",
		m.Gaps.Count, m.Gaps.MeanDays, m.Gaps.MedianDays, m.Gaps.MaxDays)

	p.printf("Suspected In Field: %s\n", joinOrNone(s.SuspectedInField))
	p.printf("Unassigned In Field: %s\n", joinOrNone(s.UnassignedInField))

	if len(result.IsolationViolations) > 0 {
		p.printf("\n⚠️  Isolation Violations:\n")
		for _, v := range result.IsolationViolations {
			p.printf("  %s: %s → %s (%s)\n", v.Serial, v.OriginalCohort, v.AssignedCohort, v.Reason)
		}
	}

	if len(result.Diagnostics) > 0 {
		p.printf("\n⚠️  Diagnostics:\n")
		for _, d := range result.Diagnostics {
			p.printf("  [%s] %s\n", d.Code, d.Message)
		}
	}
	return p.err
}

// printer remembers the first write error so the report can be written
// without checking every line
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	return strings.Join(values, ", ")
}

// generateJSONOutput creates JSON output
func generateJSONOutput(result *dto.LineageResult, config Config, w io.Writer) error {
	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputDir == "" {
		_, err = fmt.Fprintln(w, string(jsonData))
		return err
	}

	if err := ensureDir(config.OutputDir); err != nil {
		return err
	}
	filename := filepath.Join(config.OutputDir, config.fileName(".json"))
	if err := os.WriteFile(filename, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(w, "💾 JSON results saved to: %s\n", filename)
	}
	return nil
}
