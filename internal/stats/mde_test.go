package stats_test

import (
	"errors"
	"testing"

	"github.com/gkobilansky/sample-goat/internal/stats"
)

func TestParseMDEList(t *testing.T) {
	tests := []struct {
		input string
		want  []float64
	}{
		{"5,10,20", []float64{5, 10, 20}},
		{" 0.02 , 0.05 ", []float64{0.02, 0.05}},
		{"0.2,,0.4,", []float64{0.2, 0.4}},
		{"1e-3", []float64{0.001}},
		{"", []float64{}},
		{" , ,", []float64{}},
	}

	for _, tt := range tests {
		got, err := stats.ParseMDEList(tt.input)
		if err != nil {
			t.Errorf("ParseMDEList(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if got == nil {
			t.Errorf("ParseMDEList(%q) returned nil, want a non-nil slice", tt.input)
			continue
		}
		if len(got) != len(tt.want) {
			t.Errorf("ParseMDEList(%q) = %v, want %v", tt.input, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("ParseMDEList(%q)[%d] = %f, want %f", tt.input, i, got[i], tt.want[i])
			}
		}
	}
}

func TestParseMDEList_NonNumeric(t *testing.T) {
	_, err := stats.ParseMDEList("5, ten, 20")
	if !errors.Is(err, stats.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}

	var pe *stats.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %T", err)
	}
	if pe.Token != "ten" || pe.Position != 2 {
		t.Errorf("got token %q at %d, want \"ten\" at 2", pe.Token, pe.Position)
	}
}

func TestParseMDEList_RejectsNaNAndInf(t *testing.T) {
	for _, input := range []string{"NaN", "inf", "-Inf"} {
		if _, err := stats.ParseMDEList(input); !errors.Is(err, stats.ErrParse) {
			t.Errorf("ParseMDEList(%q): expected ErrParse, got %v", input, err)
		}
	}
}

func TestParseMDEList_NonPositive(t *testing.T) {
	_, err := stats.ParseMDEList("5,0,-1")
	if !errors.Is(err, stats.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
	if fields := stats.Fields(err); len(fields) != 2 {
		t.Errorf("expected two rejected values, got %v", fields)
	}
}

func TestFormatMDEList(t *testing.T) {
	if got := stats.FormatMDEList([]float64{0.02, 0.05, 10}); got != "0.02,0.05,10" {
		t.Errorf("FormatMDEList = %q", got)
	}
}
