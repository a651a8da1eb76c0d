// Package metrics defines the sink interfaces fed by simulation runs.
// Every sink records per-step component states; sinks may also implement
// ReplacementRecorder or SummaryRecorder. Several sinks combine with
// NewMultiSink, and the factory helpers return a MultiSink automatically
// when more than one sink is configured.
package metrics
