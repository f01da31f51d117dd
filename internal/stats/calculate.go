package stats

import (
	"errors"
	"fmt"
	"math"
)

// Request is everything needed for one calculation.
type Request struct {
	Params     TestParameters
	Metric     Metric
	MDEs       []float64
	DailyUsers float64
}

// Row is the result for a single MDE.
type Row struct {
	MDE          float64        `json:"mde_absolute"`
	Relative     RelativeEffect `json:"mde_relative_percent"`
	Total        int64          `json:"total_sample_size"`
	PerGroup     int64          `json:"per_group_sample_size"`
	PerGroupRaw  float64        `json:"per_group_raw"`
	DurationDays float64        `json:"duration_days"`
}

// Plan is the full result of a calculation.
type Plan struct {
	Family     Family         `json:"metric"`
	Params     TestParameters `json:"parameters"`
	Critical   CriticalValues `json:"critical_values"`
	Baseline   float64        `json:"baseline"` // mean, p or R0
	DailyUsers float64        `json:"daily_users"`
	Rows       []Row          `json:"rows"`
}

// Validate checks every field of the request and reports all problems at once.
func (r Request) Validate() error {
	var errs []error

	if err := r.Params.Validate(); err != nil {
		errs = append(errs, err)
	}

	if r.Metric == nil {
		errs = append(errs, errors.New("metric is required"))
	} else if err := r.Metric.Validate(); err != nil {
		errs = append(errs, err)
	}

	if len(r.MDEs) == 0 {
		errs = append(errs, invalid("mde", 0, "at least one MDE value is required"))
	}
	for _, d := range r.MDEs {
		if !(d > 0) || math.IsInf(d, 0) {
			errs = append(errs, invalid("mde", d, "must be a positive number"))
		}
	}

	if !(r.DailyUsers > 0) || math.IsInf(r.DailyUsers, 0) {
		errs = append(errs, invalid("daily_users", r.DailyUsers, "must be a positive number"))
	}

	return errors.Join(errs...)
}

// Calculate validates the request and evaluates the family formula once per MDE.
// Nothing is computed unless the whole request is valid.
func Calculate(req Request) (*Plan, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cv, err := ComputeCriticalValues(req.Params)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Family:     req.Metric.Family(),
		Params:     req.Params,
		Critical:   cv,
		DailyUsers: req.DailyUsers,
		Rows:       make([]Row, 0, len(req.MDEs)),
	}

	groups := req.Params.GroupCount
	for _, delta := range req.MDEs {
		var est Estimate

		switch m := req.Metric.(type) {
		case Continuous:
			plan.Baseline = m.Mean
			est, err = ContinuousSampleSize(m.Mean, m.Std, delta, cv, groups)
		case Binomial:
			plan.Baseline = m.P
			est, err = BinomialSampleSize(m.P, delta, cv, groups)
		case Ratio:
			est, plan.Baseline, err = RatioSampleSize(m.XMean, m.XStd, m.YMean, m.YStd, delta, cv, groups)
		default:
			return nil, fmt.Errorf("unsupported metric type %T", req.Metric)
		}
		if err != nil {
			return nil, err
		}

		days, err := EstimatedDuration(est.Total, req.DailyUsers)
		if err != nil {
			return nil, err
		}

		plan.Rows = append(plan.Rows, Row{
			MDE:          delta,
			Relative:     est.Relative,
			Total:        est.Total,
			PerGroup:     est.PerGroup,
			PerGroupRaw:  est.PerGroupRaw,
			DurationDays: days,
		})
	}

	return plan, nil
}
