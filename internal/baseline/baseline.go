// Package baseline estimates metric inputs from historical data so the
// calculator can be fed with observed numbers instead of guesses.
package baseline

import (
	"errors"
	"fmt"

	mstats "github.com/montanaflynn/stats"

	"github.com/gkobilansky/sample-goat/internal/stats"
)

// ErrNotEnoughData is returned when a standard deviation cannot be estimated.
var ErrNotEnoughData = errors.New("need at least 2 observations")

// Summary describes one column of observations.
type Summary struct {
	Count  int
	Mean   float64
	Std    float64
	Median float64
	Min    float64
	Max    float64
}

// Summarize computes mean, sample standard deviation and range.
func Summarize(values []float64) (Summary, error) {
	if len(values) < 2 {
		return Summary{}, ErrNotEnoughData
	}

	data := mstats.Float64Data(values)

	mean, err := mstats.Mean(data)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to compute mean: %w", err)
	}
	std, err := mstats.StandardDeviationSample(data)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to compute standard deviation: %w", err)
	}
	median, err := mstats.Median(data)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to compute median: %w", err)
	}
	min, err := mstats.Min(data)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to compute min: %w", err)
	}
	max, err := mstats.Max(data)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to compute max: %w", err)
	}

	return Summary{
		Count:  len(values),
		Mean:   mean,
		Std:    std,
		Median: median,
		Min:    min,
		Max:    max,
	}, nil
}

// FromSamples estimates a continuous baseline from per-user values.
func FromSamples(values []float64) (stats.Continuous, Summary, error) {
	s, err := Summarize(values)
	if err != nil {
		return stats.Continuous{}, Summary{}, err
	}
	return stats.Continuous{Mean: s.Mean, Std: s.Std}, s, nil
}

// FromRatioSamples estimates a ratio baseline from paired per-user numerator
// and denominator values.
func FromRatioSamples(x, y []float64) (stats.Ratio, error) {
	if len(x) != len(y) {
		return stats.Ratio{}, fmt.Errorf("numerator has %d values but denominator has %d", len(x), len(y))
	}

	xs, err := Summarize(x)
	if err != nil {
		return stats.Ratio{}, fmt.Errorf("numerator: %w", err)
	}
	ys, err := Summarize(y)
	if err != nil {
		return stats.Ratio{}, fmt.Errorf("denominator: %w", err)
	}

	m := stats.Ratio{XMean: xs.Mean, XStd: xs.Std, YMean: ys.Mean, YStd: ys.Std}
	if err := m.Validate(); err != nil {
		return stats.Ratio{}, err
	}
	return m, nil
}

// BinomialEstimate is an observed conversion rate with its Wilson interval.
type BinomialEstimate struct {
	Metric      stats.Binomial
	Conversions int
	Visitors    int
	Confidence  float64
	CILower     float64
	CIUpper     float64
}

// FromCounts estimates a conversion-rate baseline from observed counts.
func FromCounts(conversions, visitors int, confidence float64) (BinomialEstimate, error) {
	if visitors <= 0 {
		return BinomialEstimate{}, fmt.Errorf("visitors must be positive, got %d", visitors)
	}
	if conversions < 0 || conversions > visitors {
		return BinomialEstimate{}, fmt.Errorf("conversions must be between 0 and %d, got %d", visitors, conversions)
	}
	if !(confidence > 0 && confidence < 1) {
		return BinomialEstimate{}, fmt.Errorf("confidence must be between 0 and 1 (exclusive), got %g", confidence)
	}

	lower, upper := stats.WilsonInterval(conversions, visitors, confidence)

	return BinomialEstimate{
		Metric:      stats.Binomial{P: float64(conversions) / float64(visitors)},
		Conversions: conversions,
		Visitors:    visitors,
		Confidence:  confidence,
		CILower:     lower,
		CIUpper:     upper,
	}, nil
}
