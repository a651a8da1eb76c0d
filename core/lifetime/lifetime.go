// Package lifetime tracks the state of destruction of components whose wear
// is driven by elapsed time or by operating steps.
package lifetime

import "github.com/kilianp07/hems/core/sim"

// Basis selects what consumes the end-of-life budget.
type Basis int

const (
	// Calendar wear grows with elapsed time since the last replacement.
	Calendar Basis = iota
	// Operation wear grows with the number of operating steps.
	Operation
)

// Tracker accumulates state of destruction against an end-of-life budget
// expressed in seconds.
type Tracker struct {
	basis        Basis
	endOfLife    float64
	since        int
	operations   int
	sod          float64
	replaced     bool
	replacements int
}

// NewCalendar returns a time based tracker.
func NewCalendar(endOfLife float64) *Tracker {
	return &Tracker{basis: Calendar, endOfLife: endOfLife}
}

// NewOperation returns an operation count based tracker.
func NewOperation(endOfLife float64) *Tracker {
	return &Tracker{basis: Operation, endOfLife: endOfLife}
}

// Reset clears all accumulated wear.
func (t *Tracker) Reset() {
	t.since, t.operations, t.sod, t.replaced, t.replacements = 0, 0, 0, false, 0
}

// Step updates the state of destruction for the current index. operating is
// ignored by calendar trackers.
func (t *Tracker) Step(sc *sim.Context, operating bool) {
	t.replaced = false
	if t.endOfLife <= 0 {
		return
	}
	switch t.basis {
	case Calendar:
		t.sod = float64(sc.Time-t.since) / (t.endOfLife / sc.Timestep)
	case Operation:
		if operating {
			t.operations++
		}
		t.sod = float64(t.operations) * sc.Timestep / t.endOfLife
	}
	if t.sod >= 1 {
		t.replaced = true
		t.replacements++
		t.since = sc.Time
		t.operations = 0
		t.sod = 0
	}
}

// StateOfDestruction returns the consumed share of the budget.
func (t *Tracker) StateOfDestruction() float64 { return t.sod }

// Replaced reports whether the last Step triggered a replacement.
func (t *Tracker) Replaced() bool { return t.replaced }

// Replacements returns the number of replacements so far.
func (t *Tracker) Replacements() int { return t.replacements }
