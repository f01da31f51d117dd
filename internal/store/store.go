package store

import (
	"context"

	"github.com/gkobilansky/sample-goat/internal/stats"
)

// Store defines the interface for preset storage operations
type Store interface {
	// Preset operations
	SavePreset(ctx context.Context, name, description string, metric stats.Metric) (*Preset, error)
	GetPreset(ctx context.Context, name string) (*Preset, error)
	ListPresets(ctx context.Context) ([]*Preset, error)
	DeletePreset(ctx context.Context, name string) error

	// Settings
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	// Lifecycle
	Close() error
}
