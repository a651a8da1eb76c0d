package results

import (
	"context"
	"fmt"

	"github.com/kilianp07/hems/core/logger"
	coremetrics "github.com/kilianp07/hems/core/metrics"
	"github.com/kilianp07/hems/core/model"
	coremon "github.com/kilianp07/hems/core/monitoring"
	"github.com/kilianp07/hems/core/sim"
	"github.com/kilianp07/hems/core/store"
	"github.com/kilianp07/hems/internal/eventbus"
)

// DefaultFlushEvery is the number of steps buffered before records are
// appended to the store.
const DefaultFlushEvery = 96

// Reporter is implemented by every component that appears in the table.
type Reporter interface {
	Report() model.ComponentState
}

// Flow is a named bus quantity read once per step.
type Flow struct {
	Name  string
	Value func() float64
}

// RecorderConfig wires a Recorder. Only Table is required.
type RecorderConfig struct {
	Table      *Table
	Reporters  []Reporter
	Flows      []Flow
	Store      store.Store
	Sink       coremetrics.MetricsSink
	Bus        *eventbus.TypedBus[model.Replacement]
	FlushEvery int
}

// Recorder is the last component of the tree. It copies the reports of the
// step into the table, forwards them to the metrics sink, publishes
// replacements and persists records in batches.
type Recorder struct {
	sim.Base
	ctx     context.Context
	cfg     RecorderConfig
	pending []model.StepRecord
	log     logger.Logger
}

// NewRecorder returns a recorder bound to ctx. ctx is used for store writes.
func NewRecorder(ctx context.Context, name string, cfg RecorderConfig, log logger.Logger) (*Recorder, error) {
	if cfg.Table == nil {
		return nil, fmt.Errorf("%s: result table required", name)
	}
	if cfg.Store == nil {
		cfg.Store = store.NopStore{}
	}
	if cfg.Sink == nil {
		cfg.Sink = coremetrics.NopSink{}
	}
	if cfg.FlushEvery <= 0 {
		cfg.FlushEvery = DefaultFlushEvery
	}
	return &Recorder{Base: sim.Base{ID: name}, ctx: ctx, cfg: cfg, log: log}, nil
}

// Table returns the result table.
func (r *Recorder) Table() *Table { return r.cfg.Table }

// Init drops records buffered by a previous run.
func (r *Recorder) Init(*sim.Context) error {
	r.pending = r.pending[:0]
	return nil
}

// Step records the current step.
func (r *Recorder) Step(sc *sim.Context) error {
	t := r.cfg.Table
	states := make([]model.ComponentState, 0, len(r.cfg.Reporters))
	for _, rep := range r.cfg.Reporters {
		st := rep.Report()
		states = append(states, st)
		t.Set(sc.Time, st)
	}
	flows := make(map[string]float64, len(r.cfg.Flows))
	for _, f := range r.cfg.Flows {
		v := f.Value()
		flows[f.Name] = v
		t.SetFlow(sc.Time, f.Name, v)
	}

	now := t.TimeAt(sc.Time)
	for _, st := range states {
		r.pending = append(r.pending, model.StepRecord{RunID: t.RunID, Step: sc.Time, Time: now, ComponentState: st})
		if st.Replacement && r.cfg.Bus != nil {
			r.cfg.Bus.Publish(model.Replacement{RunID: t.RunID, Component: st.Component, Step: sc.Time, Time: now})
		}
	}

	err := r.cfg.Sink.RecordStep(coremetrics.StepEvent{
		RunID:      t.RunID,
		Step:       sc.Time,
		Time:       now,
		Components: states,
		Flows:      flows,
	})
	if err != nil {
		// metrics are best effort
		if r.log != nil {
			r.log.Warnf("record step %d: %v", sc.Time, err)
		}
		coremon.CaptureStepError(err, t.RunID, r.ID, sc.Time)
	}

	if (sc.Time+1)%r.cfg.FlushEvery == 0 {
		return r.flush()
	}
	return nil
}

// Finish persists the remaining buffered records.
func (r *Recorder) Finish(*sim.Context) error { return r.flush() }

func (r *Recorder) flush() error {
	if len(r.pending) == 0 {
		return nil
	}
	if err := r.cfg.Store.Append(r.ctx, r.pending...); err != nil {
		return fmt.Errorf("persist results: %w", err)
	}
	if r.log != nil {
		r.log.Debugf("persisted %d records", len(r.pending))
	}
	r.pending = r.pending[:0]
	return nil
}
