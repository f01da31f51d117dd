package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gkobilansky/sample-goat/internal/stats"
	"github.com/gkobilansky/sample-goat/internal/store"
)

// CalculateRequest is the JSON body of POST /api/calculate.
//
// mde may be a comma separated string ("5,10") or an array of numbers.
// Missing test parameters take the calculator defaults; missing metric
// parameters take the family defaults. A preset replaces metric and params.
type CalculateRequest struct {
	Metric     string          `json:"metric,omitempty"`
	Preset     string          `json:"preset,omitempty"`
	Params     json.RawMessage `json:"params,omitempty"`
	Alpha      *float64        `json:"alpha,omitempty"`
	Power      *float64        `json:"power,omitempty"`
	Groups     *int            `json:"groups,omitempty"`
	MDE        json.RawMessage `json:"mde,omitempty"`
	DailyUsers *float64        `json:"daily_users,omitempty"`
}

var errNoMetric = errors.New("metric or preset is required")

// toRequest resolves the body into an engine request. Field-level problems
// are returned joined so the caller can report each one.
func (s *Server) toRequest(ctx context.Context, body CalculateRequest) (stats.Request, error) {
	req := stats.Request{
		Params:     stats.DefaultTestParameters(),
		DailyUsers: stats.DefaultDailyUsers,
	}
	if body.Alpha != nil {
		req.Params.Alpha = *body.Alpha
	}
	if body.Power != nil {
		req.Params.Power = *body.Power
	}
	if body.Groups != nil {
		req.Params.GroupCount = *body.Groups
	}
	if body.DailyUsers != nil {
		req.DailyUsers = *body.DailyUsers
	}

	metric, err := s.resolveMetric(ctx, body)
	if err != nil {
		return req, err
	}
	req.Metric = metric

	mdes, err := decodeMDEs(body.MDE)
	if err != nil {
		return req, err
	}
	if mdes == nil {
		mdes, _ = stats.ParseMDEList(metric.Family().DefaultMDEs())
	}
	req.MDEs = mdes

	return req, nil
}

func (s *Server) resolveMetric(ctx context.Context, body CalculateRequest) (stats.Metric, error) {
	if body.Preset != "" {
		p, err := s.store.GetPreset(ctx, body.Preset)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("preset %q not found", body.Preset)
			}
			return nil, err
		}
		return p.Metric, nil
	}

	if body.Metric == "" {
		return nil, errNoMetric
	}
	family, err := stats.ParseFamily(body.Metric)
	if err != nil {
		return nil, err
	}
	return stats.DecodeMetric(family, func(v any) error {
		if len(body.Params) == 0 {
			return nil
		}
		dec := json.NewDecoder(bytes.NewReader(body.Params))
		dec.DisallowUnknownFields()
		return dec.Decode(v)
	})
}

func decodeMDEs(raw json.RawMessage) ([]float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return stats.ParseMDEList(text)
	}

	var values []float64
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, errors.New("mde must be a comma separated string or an array of numbers")
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return stats.ParseMDEList(strings.Join(parts, ","))
}
