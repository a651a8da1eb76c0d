package profile

import "github.com/kilianp07/hems/core/sim"

// Feed publishes a source as a non-dispatchable simulation component. The
// whole horizon is sampled once in Init.
type Feed struct {
	sim.Base
	src     Source
	horizon []float64
	value   float64
}

// NewFeed wraps src under the given component name.
func NewFeed(name string, src Source) *Feed {
	if src == nil {
		src = Constant(0)
	}
	return &Feed{Base: sim.Base{ID: name}, src: src}
}

// Init samples the source over the run horizon.
func (f *Feed) Init(sc *sim.Context) error {
	f.horizon = make([]float64, sc.Steps)
	for t := range f.horizon {
		f.horizon[t] = f.src.At(t)
	}
	f.value = 0
	return nil
}

func (f *Feed) Step(sc *sim.Context) error {
	if sc.Time < len(f.horizon) {
		f.value = f.horizon[sc.Time]
	} else {
		f.value = f.src.At(sc.Time)
	}
	return nil
}

// Value returns the value published for the current step.
func (f *Feed) Value() float64 { return f.value }

// At implements Source over the precomputed horizon.
func (f *Feed) At(t int) float64 {
	if t >= 0 && t < len(f.horizon) {
		return f.horizon[t]
	}
	return f.src.At(t)
}
