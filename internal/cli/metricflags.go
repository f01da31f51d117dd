package cli

import (
	"github.com/spf13/pflag"

	"github.com/gkobilansky/sample-goat/internal/stats"
)

// metricFlags are the baseline parameters shared by calc and preset save.
type metricFlags struct {
	mean, std   float64
	p           float64
	xMean, xStd float64
	yMean, yStd float64
}

func (m *metricFlags) register(fs *pflag.FlagSet) {
	c, b, r := stats.DefaultContinuous(), stats.DefaultBinomial(), stats.DefaultRatio()

	fs.Float64Var(&m.mean, "mean", c.Mean, "continuous: baseline mean")
	fs.Float64Var(&m.std, "std", c.Std, "continuous: baseline standard deviation")
	fs.Float64Var(&m.p, "p", b.P, "binomial: baseline conversion rate")
	fs.Float64Var(&m.xMean, "x-mean", r.XMean, "ratio: numerator mean")
	fs.Float64Var(&m.xStd, "x-std", r.XStd, "ratio: numerator standard deviation")
	fs.Float64Var(&m.yMean, "y-mean", r.YMean, "ratio: denominator mean")
	fs.Float64Var(&m.yStd, "y-std", r.YStd, "ratio: denominator standard deviation")
}

// apply overrides the parameters of m that were set on the command line.
func (m *metricFlags) apply(fs *pflag.FlagSet, metric stats.Metric) stats.Metric {
	set := func(name string, dst *float64, v float64) {
		if fs.Changed(name) {
			*dst = v
		}
	}

	switch metric := metric.(type) {
	case stats.Continuous:
		set("mean", &metric.Mean, m.mean)
		set("std", &metric.Std, m.std)
		return metric
	case stats.Binomial:
		set("p", &metric.P, m.p)
		return metric
	case stats.Ratio:
		set("x-mean", &metric.XMean, m.xMean)
		set("x-std", &metric.XStd, m.xStd)
		set("y-mean", &metric.YMean, m.yMean)
		set("y-std", &metric.YStd, m.yStd)
		return metric
	}
	return metric
}
