package stats

import (
	"errors"

	"gonum.org/v1/gonum/stat/distuv"
)

// Defaults used by the CLI and the calculator form.
const (
	DefaultAlpha      = 0.05
	DefaultPower      = 0.8
	DefaultGroupCount = 2
	DefaultDailyUsers = 1000.0
)

// TestParameters are the knobs of the hypothesis test itself.
type TestParameters struct {
	Alpha      float64 `json:"alpha" yaml:"alpha"`
	Power      float64 `json:"power" yaml:"power"`
	GroupCount int     `json:"groups" yaml:"groups"`
}

// DefaultTestParameters returns alpha 0.05, power 0.8 and two groups.
func DefaultTestParameters() TestParameters {
	return TestParameters{Alpha: DefaultAlpha, Power: DefaultPower, GroupCount: DefaultGroupCount}
}

// Validate reports every out-of-range field.
func (p TestParameters) Validate() error {
	var errs []error
	if !(p.Alpha > 0 && p.Alpha < 1) {
		errs = append(errs, invalid("alpha", p.Alpha, "must be between 0 and 1 (exclusive)"))
	}
	if !(p.Power > 0 && p.Power < 1) {
		errs = append(errs, invalid("power", p.Power, "must be between 0 and 1 (exclusive)"))
	}
	if p.GroupCount < 2 {
		errs = append(errs, invalid("groups", float64(p.GroupCount), "need at least 2 groups including control"))
	}
	return errors.Join(errs...)
}

// Comparisons is the number of treatment-vs-control comparisons.
func (p TestParameters) Comparisons() int {
	return p.GroupCount - 1
}

// CorrectedAlpha applies the Bonferroni correction when more than one
// treatment is compared against control.
func (p TestParameters) CorrectedAlpha() float64 {
	if c := p.Comparisons(); c > 1 {
		return p.Alpha / float64(c)
	}
	return p.Alpha
}

// CriticalValues are the two-sided significance quantile and the power quantile.
type CriticalValues struct {
	Comparisons    int     `json:"comparisons"`
	CorrectedAlpha float64 `json:"corrected_alpha"`
	ZAlpha         float64 `json:"z_alpha"`
	ZBeta          float64 `json:"z_beta"`
}

// Bonferroni reports whether the significance level was divided.
func (c CriticalValues) Bonferroni() bool {
	return c.Comparisons > 1
}

// ComputeCriticalValues derives zAlpha and zBeta from the test parameters.
// Parameters are validated first so the quantile never sees 0 or 1.
func ComputeCriticalValues(p TestParameters) (CriticalValues, error) {
	if err := p.Validate(); err != nil {
		return CriticalValues{}, err
	}

	alpha := p.CorrectedAlpha()
	beta := 1 - p.Power

	return CriticalValues{
		Comparisons:    p.Comparisons(),
		CorrectedAlpha: alpha,
		ZAlpha:         NormalQuantile(1 - alpha/2),
		ZBeta:          NormalQuantile(1 - beta),
	}, nil
}

// NormalQuantile is the inverse CDF of the standard normal distribution.
func NormalQuantile(p float64) float64 {
	return distuv.UnitNormal.Quantile(p)
}
