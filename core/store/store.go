// Package store persists per-step component records of simulation runs.
package store

import (
	"context"
	"fmt"

	"github.com/kilianp07/hems/core/model"
)

// Query filters stored records. Zero values match everything; ToStep < 0
// means no upper bound.
type Query struct {
	RunID            string
	Component        string
	FromStep         int
	ToStep           int
	ReplacementsOnly bool
}

// AllSteps matches every step of a run.
func AllSteps(runID string) Query { return Query{RunID: runID, ToStep: -1} }

// Match reports whether rec satisfies q.
func (q Query) Match(rec model.StepRecord) bool {
	if q.RunID != "" && rec.RunID != q.RunID {
		return false
	}
	if q.Component != "" && rec.Component != q.Component {
		return false
	}
	if rec.Step < q.FromStep || (q.ToStep >= 0 && rec.Step > q.ToStep) {
		return false
	}
	return !q.ReplacementsOnly || rec.Replacement
}

// Store persists StepRecords and supports querying.
type Store interface {
	Append(ctx context.Context, recs ...model.StepRecord) error
	Query(ctx context.Context, q Query) ([]model.StepRecord, error)
	Close() error
}

// Config selects the store backend.
type Config struct {
	Backend    string `json:"backend" yaml:"backend"` // jsonl, rotating, sqlite or empty
	Path       string `json:"path" yaml:"path"`
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `json:"max_age_days" yaml:"max_age_days"`
}

// New opens the configured store. An empty backend yields a NopStore.
func New(cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", "none":
		return NopStore{}, nil
	case "jsonl":
		return NewJSONLStore(cfg.Path)
	case "rotating":
		return NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	case "sqlite":
		return NewSQLiteStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// NopStore discards all records.
type NopStore struct{}

func (NopStore) Append(context.Context, ...model.StepRecord) error { return nil }
func (NopStore) Query(context.Context, Query) ([]model.StepRecord, error) {
	return nil, nil
}
func (NopStore) Close() error { return nil }
