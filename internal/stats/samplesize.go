package stats

import (
	"encoding/json"
	"fmt"
	"math"
)

// maxSampleSize keeps ceil() results representable as int64.
const maxSampleSize = 1 << 62

// RelativeEffect is the MDE as a percentage of the baseline. It is not
// applicable when the baseline is zero.
type RelativeEffect struct {
	Percent float64
	Valid   bool
}

// NotApplicable is the relative effect against a zero baseline.
var NotApplicable = RelativeEffect{}

func relativeTo(delta, baseline float64) RelativeEffect {
	if baseline == 0 {
		return NotApplicable
	}
	return RelativeEffect{Percent: delta / baseline * 100, Valid: true}
}

func (r RelativeEffect) String() string {
	if !r.Valid {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", r.Percent)
}

func (r RelativeEffect) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(r.Percent)
}

func (r *RelativeEffect) UnmarshalJSON(data []byte) error {
	var pct *float64
	if err := json.Unmarshal(data, &pct); err != nil {
		return err
	}
	if pct == nil {
		*r = NotApplicable
		return nil
	}
	*r = RelativeEffect{Percent: *pct, Valid: true}
	return nil
}

// Estimate is the outcome of one sample size formula for one MDE.
//
// Total is ceil(PerGroupRaw * groups), not PerGroup * groups, so it can be
// slightly smaller than the product of the rounded per-group size.
type Estimate struct {
	PerGroupRaw float64
	PerGroup    int64
	Total       int64
	Relative    RelativeEffect
}

func estimateFromRaw(raw float64, groups int) (Estimate, error) {
	total := raw * float64(groups)
	if math.IsNaN(raw) || math.IsInf(total, 0) || total > maxSampleSize {
		return Estimate{}, invalid("mde", raw, "required sample size is too large to represent")
	}
	return Estimate{
		PerGroupRaw: raw,
		PerGroup:    int64(math.Ceil(raw)),
		Total:       int64(math.Ceil(total)),
	}, nil
}

func checkCommon(delta float64, groups int) error {
	if !(delta > 0) || math.IsInf(delta, 0) {
		return invalid("mde", delta, "must be a positive number")
	}
	if groups < 2 {
		return invalid("groups", float64(groups), "need at least 2 groups including control")
	}
	return nil
}

// ContinuousSampleSize sizes a test on a mean with baseline mean and std.
func ContinuousSampleSize(mean, std, delta float64, cv CriticalValues, groups int) (Estimate, error) {
	if err := checkCommon(delta, groups); err != nil {
		return Estimate{}, err
	}
	if err := (Continuous{Mean: mean, Std: std}).Validate(); err != nil {
		return Estimate{}, err
	}

	raw := 2 * math.Pow((cv.ZAlpha+cv.ZBeta)*std/delta, 2)
	est, err := estimateFromRaw(raw, groups)
	if err != nil {
		return Estimate{}, err
	}
	est.Relative = relativeTo(delta, mean)
	return est, nil
}

// BinomialSampleSize sizes a test on a conversion rate p. The treatment rate
// p+delta is not clamped to [0, 1].
func BinomialSampleSize(p, delta float64, cv CriticalValues, groups int) (Estimate, error) {
	if err := checkCommon(delta, groups); err != nil {
		return Estimate{}, err
	}
	if !(p >= 0 && p <= 1) {
		return Estimate{}, invalid("p", p, "baseline rate must be between 0 and 1")
	}

	pTreatment := p + delta
	pPooled := (p + pTreatment) / 2

	pooledVar := 2 * pPooled * (1 - pPooled)
	unpooledVar := p*(1-p) + pTreatment*(1-pTreatment)
	if pooledVar < 0 || unpooledVar < 0 {
		return Estimate{}, invalid("mde", delta, fmt.Sprintf("treatment rate %g leaves no valid variance", pTreatment))
	}

	numerator := cv.ZAlpha*math.Sqrt(pooledVar) + cv.ZBeta*math.Sqrt(unpooledVar)
	raw := 2 * math.Pow(numerator/delta, 2)

	est, err := estimateFromRaw(raw, groups)
	if err != nil {
		return Estimate{}, err
	}
	est.Relative = relativeTo(delta, p)
	return est, nil
}

// RatioMoments returns the baseline ratio R0 = xMean/yMean and its
// delta-method standard deviation.
func RatioMoments(xMean, xStd, yMean, yStd float64) (r0, sigma float64, err error) {
	if err := (Ratio{XMean: xMean, XStd: xStd, YMean: yMean, YStd: yStd}).Validate(); err != nil {
		return 0, 0, err
	}

	r0 = xMean / yMean
	varR := r0 * r0 * (xStd*xStd/(xMean*xMean) + yStd*yStd/(yMean*yMean))
	return r0, math.Sqrt(varR), nil
}

// RatioSampleSize sizes a test on the ratio of two means and also returns R0.
func RatioSampleSize(xMean, xStd, yMean, yStd, delta float64, cv CriticalValues, groups int) (Estimate, float64, error) {
	if err := checkCommon(delta, groups); err != nil {
		return Estimate{}, 0, err
	}
	r0, sigma, err := RatioMoments(xMean, xStd, yMean, yStd)
	if err != nil {
		return Estimate{}, 0, err
	}

	raw := 2 * math.Pow((cv.ZAlpha+cv.ZBeta)*sigma/delta, 2)
	est, err := estimateFromRaw(raw, groups)
	if err != nil {
		return Estimate{}, 0, err
	}
	est.Relative = relativeTo(delta, r0)
	return est, r0, nil
}

// EstimatedDuration is the number of days needed to enrol total users.
func EstimatedDuration(total int64, dailyUsers float64) (float64, error) {
	if !(dailyUsers > 0) || math.IsInf(dailyUsers, 0) {
		return 0, invalid("daily_users", dailyUsers, "must be a positive number")
	}
	return float64(total) / dailyUsers, nil
}
