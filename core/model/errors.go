package model

import "fmt"

// ConfigurationError reports a mode flag or parameter holding a value outside
// its allowed set. It always aborts the run.
type ConfigurationError struct {
	Component string
	Field     string
	Value     any
	Reason    string
}

func (e *ConfigurationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: invalid %s %v", e.Component, e.Field, e.Value)
	}
	return fmt.Sprintf("%s: invalid %s %v: %s", e.Component, e.Field, e.Value, e.Reason)
}

// NewConfigurationError builds a ConfigurationError.
func NewConfigurationError(component, field string, value any, reason string) error {
	return &ConfigurationError{Component: component, Field: field, Value: value, Reason: reason}
}
