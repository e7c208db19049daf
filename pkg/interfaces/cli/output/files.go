package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/vsinha/lineage/pkg/application/dto"
)

// generateCSVOutput writes one CSV file per report table
func generateCSVOutput(result *dto.LineageResult, config Config, w io.Writer) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for CSV format")
	}
	if err := ensureDir(config.OutputDir); err != nil {
		return err
	}

	for _, t := range buildTables(result) {
		filename := filepath.Join(config.OutputDir, config.fileName("_"+t.name+".csv"))
		if err := writeCSV(filename, t); err != nil {
			return fmt.Errorf("failed to write %s CSV: %w", t.name, err)
		}
		if config.Verbose {
			fmt.Fprintf(w, "💾 %s: %s\n", t.name, filename)
		}
	}
	return nil
}

func writeCSV(filename string, t table) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(t.header); err != nil {
		return err
	}
	if err := writer.WriteAll(t.rows); err != nil {
		return err
	}
	return file.Close()
}

// generateXLSXOutput writes every report table as a sheet of one workbook
func generateXLSXOutput(result *dto.LineageResult, config Config, w io.Writer) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for XLSX format")
	}
	if err := ensureDir(config.OutputDir); err != nil {
		return err
	}

	filename := filepath.Join(config.OutputDir, config.fileName(".xlsx"))
	if err := WriteXLSX(filename, result); err != nil {
		return fmt.Errorf("failed to write XLSX file: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(w, "💾 XLSX results saved to: %s\n", filename)
	}
	return nil
}

// WriteXLSX saves the report tables to a workbook at path
func WriteXLSX(path string, result *dto.LineageResult) error {
	f := excelize.NewFile()
	defer f.Close()

	tables := buildTables(result)
	for i, t := range tables {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", t.name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(t.name); err != nil {
			return err
		}

		if err := setRow(f, t.name, 1, t.header); err != nil {
			return err
		}
		for r, row := range t.rows {
			if err := setRow(f, t.name, r+2, row); err != nil {
				return err
			}
		}
	}
	f.SetActiveSheet(0)

	return f.SaveAs(path)
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return f.SetSheetRow(sheet, cell, &cells)
}
