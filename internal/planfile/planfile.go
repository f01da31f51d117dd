// Package planfile reads and writes calculation requests as YAML so a sizing
// can be checked into a repository next to the experiment it describes.
//
//	metric: binomial
//	alpha: 0.05
//	power: 0.8
//	groups: 3
//	daily_users: 5000
//	mde: 0.02, 0.05
//	params:
//	  p: 0.1
//
// A file may name a stored preset instead of metric and params.
package planfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gkobilansky/sample-goat/internal/stats"
)

// File is the YAML document. Pointer fields fall back to the calculator
// defaults when absent.
type File struct {
	Metric     string    `yaml:"metric,omitempty"`
	Preset     string    `yaml:"preset,omitempty"`
	Alpha      *float64  `yaml:"alpha,omitempty"`
	Power      *float64  `yaml:"power,omitempty"`
	Groups     *int      `yaml:"groups,omitempty"`
	DailyUsers *float64  `yaml:"daily_users,omitempty"`
	MDE        yaml.Node `yaml:"mde,omitempty"`
	Params     yaml.Node `yaml:"params,omitempty"`
}

// Plan is a decoded file. Request.Metric is nil when the file only names a preset.
type Plan struct {
	Preset  string
	Request stats.Request
}

// Load reads a plan file from disk.
func Load(path string) (*Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open plan file: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode parses a plan document.
func Decode(r io.Reader) (*Plan, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("plan file is empty")
		}
		return nil, fmt.Errorf("failed to parse plan file: %w", err)
	}

	plan := &Plan{
		Preset: file.Preset,
		Request: stats.Request{
			Params:     stats.DefaultTestParameters(),
			DailyUsers: stats.DefaultDailyUsers,
		},
	}
	if file.Alpha != nil {
		plan.Request.Params.Alpha = *file.Alpha
	}
	if file.Power != nil {
		plan.Request.Params.Power = *file.Power
	}
	if file.Groups != nil {
		plan.Request.Params.GroupCount = *file.Groups
	}
	if file.DailyUsers != nil {
		plan.Request.DailyUsers = *file.DailyUsers
	}

	switch {
	case file.Metric != "":
		family, err := stats.ParseFamily(file.Metric)
		if err != nil {
			return nil, err
		}
		plan.Request.Metric, err = stats.DecodeMetric(family, func(v any) error {
			if file.Params.IsZero() {
				return nil
			}
			return file.Params.Decode(v)
		})
		if err != nil {
			return nil, err
		}
	case file.Preset == "":
		return nil, errors.New("plan file needs a metric or a preset")
	}

	mdes, err := decodeMDEs(&file.MDE)
	if err != nil {
		return nil, err
	}
	if mdes == nil && plan.Request.Metric != nil {
		mdes, err = stats.ParseMDEList(plan.Request.Metric.Family().DefaultMDEs())
		if err != nil {
			return nil, err
		}
	}
	plan.Request.MDEs = mdes

	return plan, nil
}

// decodeMDEs accepts either "0.02, 0.05" or a YAML sequence.
func decodeMDEs(node *yaml.Node) ([]float64, error) {
	if node.IsZero() || node.Tag == "!!null" {
		return nil, nil
	}

	var text string
	switch node.Kind {
	case yaml.ScalarNode:
		text = node.Value
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return nil, fmt.Errorf("failed to decode mde list: %w", err)
		}
		text = strings.Join(items, ",")
	default:
		return nil, fmt.Errorf("mde must be a list or a comma separated string (line %d)", node.Line)
	}

	return stats.ParseMDEList(text)
}

// Encode writes req as a plan document.
func Encode(w io.Writer, req stats.Request) error {
	if req.Metric == nil {
		return errors.New("request has no metric")
	}

	alpha, power, groups, daily := req.Params.Alpha, req.Params.Power, req.Params.GroupCount, req.DailyUsers
	file := File{
		Metric:     string(req.Metric.Family()),
		Alpha:      &alpha,
		Power:      &power,
		Groups:     &groups,
		DailyUsers: &daily,
	}
	if err := file.MDE.Encode(stats.FormatMDEList(req.MDEs)); err != nil {
		return fmt.Errorf("failed to encode mde list: %w", err)
	}
	if err := file.Params.Encode(req.Metric); err != nil {
		return fmt.Errorf("failed to encode params: %w", err)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&file); err != nil {
		return fmt.Errorf("failed to write plan file: %w", err)
	}
	return enc.Close()
}
