package model

import "time"

// ComponentState is the per-step view of a component consumed by result
// tables, stores and metrics sinks.
type ComponentState struct {
	Component          string  `json:"component"`
	Power              float64 `json:"power"`
	StateOfCharge      float64 `json:"state_of_charge"`
	StateOfDestruction float64 `json:"state_of_destruction"`
	Replacement        bool    `json:"replacement"`
}

// StepRecord is a ComponentState bound to a run and a time index.
type StepRecord struct {
	RunID string    `json:"run_id"`
	Step  int       `json:"step"`
	Time  time.Time `json:"time"`
	ComponentState
}

// Replacement marks the end of life of a component at a given step.
type Replacement struct {
	RunID     string    `json:"run_id"`
	Component string    `json:"component"`
	Step      int       `json:"step"`
	Time      time.Time `json:"time"`
}
