package services

import (
	"testing"
	"time"

	apperrors "github.com/vsinha/lineage/pkg/domain/errors"
)

func TestParseFlexibleDate(t *testing.T) {
	want := time.Date(2023, 10, 26, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input string
	}{
		{"iso_date", "2023-10-26"},
		{"us_long_year", "10/26/2023"},
		{"us_short_year", "10/26/23"},
		{"iso_datetime", "2023-10-26T14:30:00"},
		{"datetime_seconds", "2023-10-26 14:30:00"},
		{"datetime_minutes", "2023-10-26 14:30"},
		{"month_name", "Oct 26, 2023"},
		{"day_month_year", "26-Oct-2023"},
		{"surrounding_space", "  2023-10-26 "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFlexibleDate(tt.input)
			if err != nil {
				t.Fatalf("ParseFlexibleDate(%q) failed: %v", tt.input, err)
			}
			if !got.Equal(want) {
				t.Errorf("ParseFlexibleDate(%q) = %v, want %v", tt.input, got, want)
			}
		})
	}
}

func TestParseFlexibleDate_Missing(t *testing.T) {
	for _, input := range []string{"", "   ", "Not Shipped", "not recorded", "N/A", "yesterday", "2023-13-45"} {
		t.Run(input, func(t *testing.T) {
			got, err := ParseFlexibleDate(input)
			if err == nil {
				t.Fatalf("expected error for %q, got %v", input, got)
			}
			if !apperrors.HasCode(err, apperrors.CodeMissingDate) {
				t.Errorf("expected MISSING_DATE code, got %s", apperrors.GetCode(err))
			}
			if !got.IsZero() {
				t.Errorf("expected zero time, got %v", got)
			}
		})
	}
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2023, 5, 1, 23, 0, 0, 0, time.UTC)
	b := time.Date(2023, 5, 4, 1, 0, 0, 0, time.UTC)

	if got := DaysBetween(a, b); got != 3 {
		t.Errorf("DaysBetween = %d, want 3", got)
	}
	if got := DaysBetween(b, a); got != -3 {
		t.Errorf("DaysBetween reversed = %d, want -3", got)
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate(time.Time{}); got != "N/A" {
		t.Errorf("expected N/A, got %s", got)
	}
	if got := FormatDate(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)); got != "2024-01-01" {
		t.Errorf("expected 2024-01-01, got %s", got)
	}
}
