package store

import (
	"time"

	"github.com/gkobilansky/sample-goat/internal/stats"
)

// Preset is a named baseline that can be reused across calculations.
type Preset struct {
	ID          int64
	Name        string
	Description string
	Metric      stats.Metric
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Family returns the metric family of the preset.
func (p *Preset) Family() stats.Family {
	if p.Metric == nil {
		return ""
	}
	return p.Metric.Family()
}
