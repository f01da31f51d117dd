package stats

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Family names a metric family.
type Family string

const (
	FamilyContinuous Family = "continuous"
	FamilyBinomial   Family = "binomial"
	FamilyRatio      Family = "ratio"
)

// Families lists every family in display order.
var Families = []Family{FamilyContinuous, FamilyBinomial, FamilyRatio}

// ParseFamily accepts a family name or one of its common aliases.
func ParseFamily(s string) (Family, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "continuous", "mean":
		return FamilyContinuous, nil
	case "binomial", "conversion", "proportion":
		return FamilyBinomial, nil
	case "ratio":
		return FamilyRatio, nil
	}
	return "", fmt.Errorf("unknown metric family %q (want continuous, binomial or ratio)", s)
}

// Label is the human readable family name.
func (f Family) Label() string {
	switch f {
	case FamilyContinuous:
		return "Continuous metric"
	case FamilyBinomial:
		return "Conversion (binomial)"
	case FamilyRatio:
		return "Ratio metric"
	}
	return string(f)
}

// DefaultMDEs is the suggested MDE list for the family.
func (f Family) DefaultMDEs() string {
	switch f {
	case FamilyBinomial:
		return "0.02,0.05"
	case FamilyRatio:
		return "0.2,0.4"
	}
	return "5,10,20"
}

// Metric is the baseline input of one family. The concrete types are
// Continuous, Binomial and Ratio.
type Metric interface {
	Family() Family
	Validate() error
	isMetric()
}

// Continuous is a mean-based metric such as revenue per user.
type Continuous struct {
	Mean float64 `json:"mean" yaml:"mean"`
	Std  float64 `json:"std" yaml:"std"`
}

// Binomial is a conversion rate.
type Binomial struct {
	P float64 `json:"p" yaml:"p"`
}

// Ratio is a ratio of two per-user means, e.g. clicks per session.
type Ratio struct {
	XMean float64 `json:"x_mean" yaml:"x_mean"`
	XStd  float64 `json:"x_std" yaml:"x_std"`
	YMean float64 `json:"y_mean" yaml:"y_mean"`
	YStd  float64 `json:"y_std" yaml:"y_std"`
}

func DefaultContinuous() Continuous { return Continuous{Mean: 100, Std: 15} }
func DefaultBinomial() Binomial     { return Binomial{P: 0.1} }
func DefaultRatio() Ratio           { return Ratio{XMean: 200, XStd: 50, YMean: 100, YStd: 20} }

func (Continuous) Family() Family { return FamilyContinuous }
func (Binomial) Family() Family   { return FamilyBinomial }
func (Ratio) Family() Family      { return FamilyRatio }

func (Continuous) isMetric() {}
func (Binomial) isMetric()   {}
func (Ratio) isMetric()      {}

func (m Continuous) Validate() error {
	var errs []error
	if math.IsNaN(m.Mean) || math.IsInf(m.Mean, 0) {
		errs = append(errs, invalid("mean", m.Mean, "must be a finite number"))
	}
	if !(m.Std >= 0) || math.IsInf(m.Std, 0) {
		errs = append(errs, invalid("std", m.Std, "must be zero or positive"))
	}
	return errors.Join(errs...)
}

func (m Binomial) Validate() error {
	if !(m.P >= 0 && m.P <= 1) {
		return invalid("p", m.P, "baseline rate must be between 0 and 1")
	}
	return nil
}

func (m Ratio) Validate() error {
	var errs []error
	if m.XMean == 0 || math.IsNaN(m.XMean) || math.IsInf(m.XMean, 0) {
		errs = append(errs, invalid("x_mean", m.XMean, "numerator mean must be a non-zero number"))
	}
	if !(m.XStd >= 0) || math.IsInf(m.XStd, 0) {
		errs = append(errs, invalid("x_std", m.XStd, "must be zero or positive"))
	}
	if m.YMean == 0 || math.IsNaN(m.YMean) || math.IsInf(m.YMean, 0) {
		errs = append(errs, invalid("y_mean", m.YMean, "denominator mean must be a non-zero number"))
	}
	if !(m.YStd >= 0) || math.IsInf(m.YStd, 0) {
		errs = append(errs, invalid("y_std", m.YStd, "must be zero or positive"))
	}
	return errors.Join(errs...)
}

// DefaultMetric returns the suggested baseline for f.
func DefaultMetric(f Family) (Metric, error) {
	switch f {
	case FamilyContinuous:
		return DefaultContinuous(), nil
	case FamilyBinomial:
		return DefaultBinomial(), nil
	case FamilyRatio:
		return DefaultRatio(), nil
	}
	return nil, fmt.Errorf("unknown metric family %q", f)
}

// DecodeMetric builds the family's metric by letting decode fill a value that
// starts out at the family defaults. decode is typically json.Unmarshal or
// yaml.Node.Decode bound to the raw parameters.
func DecodeMetric(f Family, decode func(v any) error) (Metric, error) {
	switch f {
	case FamilyContinuous:
		m := DefaultContinuous()
		if err := decode(&m); err != nil {
			return nil, fmt.Errorf("failed to decode continuous parameters: %w", err)
		}
		return m, nil
	case FamilyBinomial:
		m := DefaultBinomial()
		if err := decode(&m); err != nil {
			return nil, fmt.Errorf("failed to decode binomial parameters: %w", err)
		}
		return m, nil
	case FamilyRatio:
		m := DefaultRatio()
		if err := decode(&m); err != nil {
			return nil, fmt.Errorf("failed to decode ratio parameters: %w", err)
		}
		return m, nil
	}
	return nil, fmt.Errorf("unknown metric family %q", f)
}

// Describe renders the metric parameters on one line.
func Describe(m Metric) string {
	switch m := m.(type) {
	case Continuous:
		return fmt.Sprintf("mean=%g std=%g", m.Mean, m.Std)
	case Binomial:
		return fmt.Sprintf("p=%g", m.P)
	case Ratio:
		return fmt.Sprintf("x_mean=%g x_std=%g y_mean=%g y_std=%g", m.XMean, m.XStd, m.YMean, m.YStd)
	}
	return ""
}
