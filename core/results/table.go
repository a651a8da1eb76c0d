// Package results collects the per-step view of every component over a run
// and derives the run summary from it.
package results

import (
	"sort"
	"time"

	"github.com/kilianp07/hems/core/model"
)

// Series is the full-horizon record of one component.
type Series struct {
	Power              []float64
	StateOfCharge      []float64
	StateOfDestruction []float64
	Replacement        []bool
}

func newSeries(steps int) *Series {
	return &Series{
		Power:              make([]float64, steps),
		StateOfCharge:      make([]float64, steps),
		StateOfDestruction: make([]float64, steps),
		Replacement:        make([]bool, steps),
	}
}

// Table holds the component series and named bus flows of a run.
type Table struct {
	RunID    string
	Origin   time.Time
	Timestep float64 // s
	Steps    int

	order        []string
	components   map[string]*Series
	flows        map[string][]float64
	replacements []model.Replacement
}

// NewTable allocates a table for steps time indices.
func NewTable(runID string, origin time.Time, timestep float64, steps int) *Table {
	return &Table{
		RunID:      runID,
		Origin:     origin,
		Timestep:   timestep,
		Steps:      steps,
		components: make(map[string]*Series),
		flows:      make(map[string][]float64),
	}
}

// Set stores the state of one component at step. Out of range steps are
// ignored.
func (t *Table) Set(step int, st model.ComponentState) {
	if step < 0 || step >= t.Steps {
		return
	}
	s, ok := t.components[st.Component]
	if !ok {
		s = newSeries(t.Steps)
		t.components[st.Component] = s
		t.order = append(t.order, st.Component)
	}
	s.Power[step] = st.Power
	s.StateOfCharge[step] = st.StateOfCharge
	s.StateOfDestruction[step] = st.StateOfDestruction
	s.Replacement[step] = st.Replacement
	if st.Replacement {
		t.replacements = append(t.replacements, model.Replacement{
			RunID:     t.RunID,
			Component: st.Component,
			Step:      step,
			Time:      t.TimeAt(step),
		})
	}
}

// SetFlow stores a named bus quantity at step.
func (t *Table) SetFlow(step int, name string, v float64) {
	if step < 0 || step >= t.Steps {
		return
	}
	f, ok := t.flows[name]
	if !ok {
		f = make([]float64, t.Steps)
		t.flows[name] = f
	}
	f[step] = v
}

// TimeAt returns the wall clock time of step.
func (t *Table) TimeAt(step int) time.Time {
	return t.Origin.Add(time.Duration(float64(step) * t.Timestep * float64(time.Second)))
}

// Components lists the recorded components in first-seen order.
func (t *Table) Components() []string { return append([]string(nil), t.order...) }

// Component returns the series of name, nil when not recorded.
func (t *Table) Component(name string) *Series { return t.components[name] }

// Flow returns the named flow, nil when not recorded.
func (t *Table) Flow(name string) []float64 { return t.flows[name] }

// Flows lists the recorded flow names in lexical order.
func (t *Table) Flows() []string {
	names := make([]string, 0, len(t.flows))
	for k := range t.flows {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Replacements returns the end of life events in step order.
func (t *Table) Replacements() []model.Replacement {
	return append([]model.Replacement(nil), t.replacements...)
}

// Row returns the component states recorded at step, in component order.
func (t *Table) Row(step int) []model.ComponentState {
	if step < 0 || step >= t.Steps {
		return nil
	}
	out := make([]model.ComponentState, 0, len(t.order))
	for _, name := range t.order {
		s := t.components[name]
		out = append(out, model.ComponentState{
			Component:          name,
			Power:              s.Power[step],
			StateOfCharge:      s.StateOfCharge[step],
			StateOfDestruction: s.StateOfDestruction[step],
			Replacement:        s.Replacement[step],
		})
	}
	return out
}

// Records flattens steps [from, to) into step records.
func (t *Table) Records(from, to int) []model.StepRecord {
	from, to = max(from, 0), min(to, t.Steps)
	var out []model.StepRecord
	for step := from; step < to; step++ {
		ts := t.TimeAt(step)
		for _, st := range t.Row(step) {
			out = append(out, model.StepRecord{RunID: t.RunID, Step: step, Time: ts, ComponentState: st})
		}
	}
	return out
}
