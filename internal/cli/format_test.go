package cli

import (
	"strings"
	"testing"
	"time"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-4200, "-4,200"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatLiters(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1234.4, "1,234 L"},
		{100, "100 L"},
		{12.34, "12.3 L"},
		{0, "0.0 L"},
	}
	for _, tt := range tests {
		if got := FormatLiters(tt.in); got != tt.want {
			t.Errorf("FormatLiters(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := FormatOptionalLiters(nil); got != Placeholder {
		t.Errorf("FormatOptionalLiters(nil) = %q", got)
	}
}

func TestFormatDelta(t *testing.T) {
	if got := FormatDelta(120, 100, FormatLiters); got != "+20.0 L" {
		t.Errorf("positive delta = %q", got)
	}
	if got := FormatDelta(100, 350, FormatLiters); got != "-250 L" {
		t.Errorf("negative delta = %q", got)
	}
}

func TestFormatOutlook(t *testing.T) {
	d := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	if got := FormatOutlook(d, 4, true, "none"); got != "2024-03-05 (in 4 days)" {
		t.Errorf("FormatOutlook = %q", got)
	}
	if got := FormatOutlook(time.Time{}, 0, false, "not within horizon"); got != "not within horizon" {
		t.Errorf("FormatOutlook absent = %q", got)
	}
	if got := FormatDays(1); got != "1 day" {
		t.Errorf("FormatDays(1) = %q", got)
	}
}

func TestRenderTableSeparatorAndAlignment(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Tank", "Füllstand"},
		Rows:    [][]string{{"1", "900 L"}, {"---"}, {"Total", "900 L"}},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 7 {
		t.Fatalf("lines = %d, want 7:\n%s", len(lines), out)
	}
	if !strings.Contains(out, "Füllstand") {
		t.Error("header missing")
	}
}

func TestRenderSparkline(t *testing.T) {
	if got := RenderSparkline([]float64{0, 1, -5}); got != "▁█▁" {
		t.Errorf("RenderSparkline = %q", got)
	}
	if RenderSparkline(nil) != "" {
		t.Error("expected empty sparkline")
	}
}
