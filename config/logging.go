package config

import "fmt"

// LogConfig sets the global log level.
type LogConfig struct {
	Level string `json:"level"`
}

// Validate checks the level name.
func (c LogConfig) Validate() error {
	switch c.Level {
	case "", "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
		return nil
	}
	return fmt.Errorf("log.level: unknown level %q", c.Level)
}
