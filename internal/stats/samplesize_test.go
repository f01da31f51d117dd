package stats_test

import (
	"errors"
	"math"
	"testing"

	"github.com/gkobilansky/sample-goat/internal/stats"
)

func defaultCV(t *testing.T) stats.CriticalValues {
	t.Helper()
	cv, err := stats.ComputeCriticalValues(stats.DefaultTestParameters())
	if err != nil {
		t.Fatalf("failed to compute critical values: %v", err)
	}
	return cv
}

func TestContinuousSampleSize_ReferenceScenario(t *testing.T) {
	est, err := stats.ContinuousSampleSize(100, 15, 5, defaultCV(t), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(est.PerGroupRaw-141.2798) > 1e-3 {
		t.Errorf("raw per group = %f, want ~141.2798", est.PerGroupRaw)
	}
	if est.PerGroup != 142 {
		t.Errorf("per group = %d, want 142", est.PerGroup)
	}
	if est.Total != 283 {
		t.Errorf("total = %d, want 283", est.Total)
	}
	if est.Relative.String() != "5.00" {
		t.Errorf("relative = %s, want 5.00", est.Relative)
	}
}

func TestContinuousSampleSize_TotalUsesRawValue(t *testing.T) {
	cv, err := stats.ComputeCriticalValues(stats.TestParameters{Alpha: 0.05, Power: 0.8, GroupCount: 5})
	if err != nil {
		t.Fatal(err)
	}

	est, err := stats.ContinuousSampleSize(100, 15, 5, cv, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// raw ~200.72: ceil(200.72*5) = 1004 while 201*5 = 1005
	if est.PerGroup != 201 {
		t.Errorf("per group = %d, want 201", est.PerGroup)
	}
	if est.Total != 1004 {
		t.Errorf("total = %d, want 1004", est.Total)
	}
	if est.Total >= est.PerGroup*5 {
		t.Errorf("total %d should be below per group * groups (%d)", est.Total, est.PerGroup*5)
	}
}

func TestContinuousSampleSize_DecreasesWithDelta(t *testing.T) {
	cv := defaultCV(t)
	prev := math.Inf(1)
	for _, delta := range []float64{1, 2, 5, 10, 20, 50} {
		est, err := stats.ContinuousSampleSize(100, 15, delta, cv, 2)
		if err != nil {
			t.Fatalf("delta=%f: %v", delta, err)
		}
		if est.PerGroupRaw >= prev {
			t.Errorf("delta=%f: raw %f did not decrease (prev %f)", delta, est.PerGroupRaw, prev)
		}
		prev = est.PerGroupRaw
	}
}

func TestContinuousSampleSize_QuadraticInStd(t *testing.T) {
	cv := defaultCV(t)

	single, err := stats.ContinuousSampleSize(100, 15, 5, cv, 2)
	if err != nil {
		t.Fatal(err)
	}
	double, err := stats.ContinuousSampleSize(100, 30, 5, cv, 2)
	if err != nil {
		t.Fatal(err)
	}

	ratio := double.PerGroupRaw / single.PerGroupRaw
	if math.Abs(ratio-4) > 1e-9 {
		t.Errorf("doubling std scaled raw size by %f, want 4", ratio)
	}
}

func TestContinuousSampleSize_ZeroMean(t *testing.T) {
	est, err := stats.ContinuousSampleSize(0, 15, 5, defaultCV(t), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if est.Relative.Valid {
		t.Errorf("expected relative effect to be not applicable, got %f", est.Relative.Percent)
	}
	if est.Relative.String() != "N/A" {
		t.Errorf("expected N/A, got %s", est.Relative)
	}
	if est.PerGroup != 142 {
		t.Errorf("per group = %d, want 142", est.PerGroup)
	}
}

func TestContinuousSampleSize_ZeroStd(t *testing.T) {
	est, err := stats.ContinuousSampleSize(100, 0, 5, defaultCV(t), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if est.PerGroup != 0 || est.Total != 0 {
		t.Errorf("expected zero sizes for zero std, got %d/%d", est.PerGroup, est.Total)
	}
}

func TestContinuousSampleSize_Invalid(t *testing.T) {
	cv := defaultCV(t)

	tests := []struct {
		name  string
		std   float64
		delta float64
		field string
	}{
		{"zero delta", 15, 0, "mde"},
		{"negative delta", 15, -5, "mde"},
		{"negative std", -1, 5, "std"},
		{"infinite std", math.Inf(1), 5, "std"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := stats.ContinuousSampleSize(100, tt.std, tt.delta, cv, 2)

			var pe *stats.ParameterError
			if !errors.As(err, &pe) {
				t.Fatalf("expected ParameterError, got %v", err)
			}
			if pe.Field != tt.field {
				t.Errorf("field = %s, want %s", pe.Field, tt.field)
			}
		})
	}
}

func TestBinomialSampleSize_ReferenceScenario(t *testing.T) {
	est, err := stats.BinomialSampleSize(0.1, 0.02, defaultCV(t), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// numerator = 1.959964*sqrt(2*0.11*0.89) + 0.841621*sqrt(0.09+0.1056) ~ 1.239491
	if math.Abs(est.PerGroupRaw-7681.695) > 0.01 {
		t.Errorf("raw per group = %f, want ~7681.695", est.PerGroupRaw)
	}
	if est.PerGroup != 7682 {
		t.Errorf("per group = %d, want 7682", est.PerGroup)
	}
	if est.Total != 15364 {
		t.Errorf("total = %d, want 15364", est.Total)
	}
	if est.Relative.String() != "20.00" {
		t.Errorf("relative = %s, want 20.00", est.Relative)
	}
}

func TestBinomialSampleSize_ZeroBaseline(t *testing.T) {
	est, err := stats.BinomialSampleSize(0, 0.02, defaultCV(t), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if est.Relative.Valid {
		t.Error("relative effect against a zero rate should be not applicable")
	}
	if est.PerGroup != 775 {
		t.Errorf("per group = %d, want 775", est.PerGroup)
	}
}

func TestBinomialSampleSize_TinyDelta(t *testing.T) {
	est, err := stats.BinomialSampleSize(0.1, 1e-6, defaultCV(t), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if est.PerGroup < 1_000_000_000 {
		t.Errorf("expected a very large sample size, got %d", est.PerGroup)
	}
	if est.Total < est.PerGroup {
		t.Errorf("total %d below per group %d", est.Total, est.PerGroup)
	}
}

func TestBinomialSampleSize_TreatmentAboveOne(t *testing.T) {
	// p+delta = 1.01 is not clamped and both variance terms stay non-negative.
	est, err := stats.BinomialSampleSize(0.95, 0.06, defaultCV(t), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.IsNaN(est.PerGroupRaw) || est.PerGroup <= 0 {
		t.Errorf("expected a finite positive size, got raw=%f per=%d", est.PerGroupRaw, est.PerGroup)
	}
}

func TestBinomialSampleSize_NegativeVariance(t *testing.T) {
	cv := defaultCV(t)
	for _, tc := range []struct{ p, delta float64 }{{0.9, 0.2}, {1, 0.5}} {
		_, err := stats.BinomialSampleSize(tc.p, tc.delta, cv, 2)
		if !errors.Is(err, stats.ErrInvalidParameter) {
			t.Errorf("p=%f delta=%f: expected ErrInvalidParameter, got %v", tc.p, tc.delta, err)
		}
	}
}

func TestBinomialSampleSize_Invalid(t *testing.T) {
	cv := defaultCV(t)

	if _, err := stats.BinomialSampleSize(0.1, 0, cv, 2); !errors.Is(err, stats.ErrInvalidParameter) {
		t.Errorf("zero delta: expected ErrInvalidParameter, got %v", err)
	}
	if _, err := stats.BinomialSampleSize(1.5, 0.02, cv, 2); !errors.Is(err, stats.ErrInvalidParameter) {
		t.Errorf("p above one: expected ErrInvalidParameter, got %v", err)
	}
	if _, err := stats.BinomialSampleSize(-0.1, 0.02, cv, 2); !errors.Is(err, stats.ErrInvalidParameter) {
		t.Errorf("negative p: expected ErrInvalidParameter, got %v", err)
	}
}

func TestRatioSampleSize_ReferenceScenario(t *testing.T) {
	est, r0, err := stats.RatioSampleSize(200, 50, 100, 20, 0.2, defaultCV(t), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if r0 != 2 {
		t.Errorf("R0 = %f, want 2", r0)
	}
	if est.PerGroup != 161 {
		t.Errorf("per group = %d, want 161", est.PerGroup)
	}
	if est.Total != 322 {
		t.Errorf("total = %d, want 322", est.Total)
	}
	if est.Relative.String() != "10.00" {
		t.Errorf("relative = %s, want 10.00", est.Relative)
	}
}

func TestRatioSampleSize_ZeroVariance(t *testing.T) {
	for _, delta := range []float64{0.01, 0.5, 3} {
		est, _, err := stats.RatioSampleSize(200, 0, 100, 0, delta, defaultCV(t), 2)
		if err != nil {
			t.Fatalf("delta=%f: %v", delta, err)
		}
		if est.PerGroupRaw != 0 || est.PerGroup != 0 || est.Total != 0 {
			t.Errorf("delta=%f: expected zero sizes, got raw=%f per=%d total=%d", delta, est.PerGroupRaw, est.PerGroup, est.Total)
		}
	}
}

func TestContinuousSampleSize_NonFiniteMean(t *testing.T) {
	cv := defaultCV(t)

	for _, mean := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		est, err := stats.ContinuousSampleSize(mean, 15, 5, cv, 2)
		var pe *stats.ParameterError
		if !errors.As(err, &pe) || pe.Field != "mean" {
			t.Errorf("mean %f: expected mean error, got %v", mean, err)
		}
		if math.IsNaN(est.Relative.Percent) {
			t.Errorf("mean %f: relative effect is NaN", mean)
		}
	}
}

func TestRatioMoments_NonFinite(t *testing.T) {
	tests := []struct {
		name                     string
		xMean, xStd, yMean, yStd float64
		field                    string
	}{
		{"infinite x std", 200, math.Inf(1), 100, 20, "x_std"},
		{"infinite y std", 200, 50, 100, math.Inf(1), "y_std"},
		{"NaN x mean", math.NaN(), 50, 100, 20, "x_mean"},
		{"infinite y mean", 200, 50, math.Inf(1), 20, "y_mean"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := stats.RatioMoments(tt.xMean, tt.xStd, tt.yMean, tt.yStd)
			fields := stats.Fields(err)
			if len(fields) != 1 || fields[0] != tt.field {
				t.Errorf("fields = %v, want [%s]", fields, tt.field)
			}
		})
	}
}

func TestRatioSampleSize_ZeroMeans(t *testing.T) {
	cv := defaultCV(t)

	_, _, err := stats.RatioSampleSize(200, 50, 0, 20, 0.2, cv, 2)
	var pe *stats.ParameterError
	if !errors.As(err, &pe) || pe.Field != "y_mean" {
		t.Errorf("zero denominator mean: expected y_mean error, got %v", err)
	}

	_, _, err = stats.RatioSampleSize(0, 50, 100, 20, 0.2, cv, 2)
	if !errors.As(err, &pe) || pe.Field != "x_mean" {
		t.Errorf("zero numerator mean: expected x_mean error, got %v", err)
	}
}

func TestEstimatedDuration(t *testing.T) {
	days, err := stats.EstimatedDuration(283, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(days-0.283) > 1e-12 {
		t.Errorf("days = %f, want 0.283", days)
	}

	for _, users := range []float64{0, -10, math.NaN()} {
		if _, err := stats.EstimatedDuration(283, users); !errors.Is(err, stats.ErrInvalidParameter) {
			t.Errorf("daily users %f: expected ErrInvalidParameter, got %v", users, err)
		}
	}
}

func TestRelativeEffect_JSON(t *testing.T) {
	b, err := stats.NotApplicable.MarshalJSON()
	if err != nil || string(b) != "null" {
		t.Errorf("not applicable marshals to %s (%v), want null", b, err)
	}

	var r stats.RelativeEffect
	if err := r.UnmarshalJSON([]byte("12.5")); err != nil {
		t.Fatal(err)
	}
	if !r.Valid || r.Percent != 12.5 {
		t.Errorf("unmarshal 12.5 gave %+v", r)
	}
}
