package config

import (
	"fmt"

	"github.com/kilianp07/hems/core/store"
)

// OutputConfig defines where run results go.
type OutputConfig struct {
	// Store persists step records: jsonl, rotating, sqlite or empty.
	Store store.Config `json:"store"`
	// Export writes the result table to this path after the run.
	Export string `json:"export"`
	// Format of the export: csv or json.
	Format string `json:"format"`
}

// Validate checks mandatory fields.
func (c OutputConfig) Validate() error {
	switch c.Store.Backend {
	case "", "none", "jsonl", "rotating", "sqlite":
	default:
		return fmt.Errorf("output.store: unknown backend %s", c.Store.Backend)
	}
	if c.Store.Backend != "" && c.Store.Backend != "none" && c.Store.Path == "" {
		return fmt.Errorf("output.store.path is required")
	}
	if c.Format != "csv" && c.Format != "json" {
		return fmt.Errorf("output.format: expected csv or json, got %q", c.Format)
	}
	return nil
}
