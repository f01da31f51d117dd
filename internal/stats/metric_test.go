package stats_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/gkobilansky/sample-goat/internal/stats"
)

func TestParseFamily(t *testing.T) {
	tests := map[string]stats.Family{
		"continuous": stats.FamilyContinuous,
		"Mean":       stats.FamilyContinuous,
		"binomial":   stats.FamilyBinomial,
		"conversion": stats.FamilyBinomial,
		" ratio ":    stats.FamilyRatio,
	}
	for input, want := range tests {
		got, err := stats.ParseFamily(input)
		if err != nil {
			t.Errorf("ParseFamily(%q) unexpected error: %v", input, err)
			continue
		}
		if got != want {
			t.Errorf("ParseFamily(%q) = %s, want %s", input, got, want)
		}
	}

	if _, err := stats.ParseFamily("median"); err == nil {
		t.Error("expected an error for an unknown family")
	}
}

func TestDecodeMetric_FillsDefaults(t *testing.T) {
	raw := []byte(`{"y_mean": 50}`)
	m, err := stats.DecodeMetric(stats.FamilyRatio, func(v any) error { return json.Unmarshal(raw, v) })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r, ok := m.(stats.Ratio)
	if !ok {
		t.Fatalf("expected Ratio, got %T", m)
	}
	want := stats.Ratio{XMean: 200, XStd: 50, YMean: 50, YStd: 20}
	if r != want {
		t.Errorf("got %+v, want %+v", r, want)
	}
}

func TestDecodeMetric_UnknownFamily(t *testing.T) {
	_, err := stats.DecodeMetric("median", func(any) error { return nil })
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestDecodeMetric_PropagatesDecodeError(t *testing.T) {
	boom := errors.New("boom")
	_, err := stats.DecodeMetric(stats.FamilyBinomial, func(any) error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped decode error, got %v", err)
	}
}

func TestMetricValidate(t *testing.T) {
	if err := stats.DefaultContinuous().Validate(); err != nil {
		t.Errorf("default continuous invalid: %v", err)
	}
	if err := stats.DefaultBinomial().Validate(); err != nil {
		t.Errorf("default binomial invalid: %v", err)
	}
	if err := stats.DefaultRatio().Validate(); err != nil {
		t.Errorf("default ratio invalid: %v", err)
	}

	if err := (stats.Continuous{Mean: 1, Std: -1}).Validate(); !errors.Is(err, stats.ErrInvalidParameter) {
		t.Errorf("negative std: got %v", err)
	}
	if err := (stats.Binomial{P: 1.01}).Validate(); !errors.Is(err, stats.ErrInvalidParameter) {
		t.Errorf("p above one: got %v", err)
	}
}

func TestDescribe(t *testing.T) {
	if got := stats.Describe(stats.DefaultBinomial()); got != "p=0.1" {
		t.Errorf("Describe = %q", got)
	}
}
