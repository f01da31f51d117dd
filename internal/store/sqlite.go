package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gkobilansky/sample-goat/internal/stats"
)

var ErrNotFound = errors.New("not found")

type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS presets (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT UNIQUE NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    family TEXT NOT NULL,
    params TEXT NOT NULL,
    created_at INTEGER NOT NULL DEFAULT (unixepoch()),
    updated_at INTEGER NOT NULL DEFAULT (unixepoch())
);

CREATE INDEX IF NOT EXISTS idx_presets_family ON presets(family);

CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Apply schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SavePreset creates the preset or replaces the metric and description of an
// existing one with the same name.
func (s *SQLiteStore) SavePreset(ctx context.Context, name, description string, metric stats.Metric) (*Preset, error) {
	if name == "" {
		return nil, errors.New("preset name is required")
	}
	if metric == nil {
		return nil, errors.New("preset metric is required")
	}
	if err := metric.Validate(); err != nil {
		return nil, err
	}

	params, err := json.Marshal(metric)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}

	now := time.Now().Unix()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO presets (name, description, family, params, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
		   description = excluded.description,
		   family = excluded.family,
		   params = excluded.params,
		   updated_at = excluded.updated_at`,
		name, description, string(metric.Family()), string(params), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save preset: %w", err)
	}

	return s.GetPreset(ctx, name)
}

func (s *SQLiteStore) GetPreset(ctx context.Context, name string) (*Preset, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, family, params, created_at, updated_at
		 FROM presets WHERE name = ?`, name,
	)

	p, err := scanPreset(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preset: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) ListPresets(ctx context.Context) ([]*Preset, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, family, params, created_at, updated_at
		 FROM presets ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list presets: %w", err)
	}
	defer rows.Close()

	var presets []*Preset
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan preset: %w", err)
		}
		presets = append(presets, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list presets: %w", err)
	}

	return presets, nil
}

func (s *SQLiteStore) DeletePreset(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM presets WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete preset: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *SQLiteStore) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting: %w", err)
	}
	return value, nil
}

func (s *SQLiteStore) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to set setting: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPreset(row scanner) (*Preset, error) {
	var p Preset
	var family, params string
	var createdAt, updatedAt int64

	if err := row.Scan(&p.ID, &p.Name, &p.Description, &family, &params, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	f, err := stats.ParseFamily(family)
	if err != nil {
		return nil, err
	}
	p.Metric, err = stats.DecodeMetric(f, func(v any) error {
		return json.Unmarshal([]byte(params), v)
	})
	if err != nil {
		return nil, err
	}

	p.CreatedAt = time.Unix(createdAt, 0)
	p.UpdatedAt = time.Unix(updatedAt, 0)

	return &p, nil
}
