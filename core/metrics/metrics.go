package metrics

import (
	"time"

	"github.com/kilianp07/hems/core/model"
)

// StepEvent is the state of a run after one step. Flows holds named bus
// quantities such as grid power or backup heater power.
type StepEvent struct {
	RunID      string
	Step       int
	Time       time.Time
	Components []model.ComponentState
	Flows      map[string]float64
}

// MetricsSink records simulation steps for observability purposes.
type MetricsSink interface {
	RecordStep(ev StepEvent) error
}

// ReplacementRecorder records component end of life events.
type ReplacementRecorder interface {
	RecordReplacement(ev model.Replacement) error
}

// SummaryEvent carries the key figures of a finished run.
type SummaryEvent struct {
	RunID  string
	Mode   string
	Steps  int
	Values map[string]float64
	Time   time.Time
}

// SummaryRecorder records run summaries.
type SummaryRecorder interface {
	RecordSummary(ev SummaryEvent) error
}

// Flusher is implemented by sinks buffering writes.
type Flusher interface {
	Flush() error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordStep(StepEvent) error                { return nil }
func (NopSink) RecordReplacement(model.Replacement) error { return nil }
func (NopSink) RecordSummary(SummaryEvent) error          { return nil }
