package stats

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// ParseMDEList parses a comma separated list of effect sizes. Empty entries
// are skipped; anything that is not a finite decimal is a ParseError and
// values that are not positive are a ParameterError. Blank input gives an
// empty, non-nil slice so callers can tell it apart from a missing list.
func ParseMDEList(s string) ([]float64, error) {
	var (
		values = []float64{}
		errs   []error
		pos    int
	)
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		pos++

		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			errs = append(errs, &ParseError{Position: pos, Token: tok, Err: err})
			continue
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			errs = append(errs, &ParseError{Position: pos, Token: tok})
			continue
		}
		if v <= 0 {
			errs = append(errs, invalid("mde", v, "must be a positive number"))
			continue
		}
		values = append(values, v)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return values, nil
}

// FormatMDEList is the inverse of ParseMDEList.
func FormatMDEList(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}
