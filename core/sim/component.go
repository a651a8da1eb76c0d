package sim

// Component is a stepped element of the simulation tree.
type Component interface {
	Name() string
	// Init runs once before the first step and may precompute whole-horizon data.
	Init(sc *Context) error
	// Step advances the component by one time index.
	Step(sc *Context) error
	// Finish runs once after the last step.
	Finish(sc *Context) error
}

// Sized is implemented by components that can be pruned when their sizing
// parameter is zero.
type Sized interface {
	Size() float64
}

// Replayable is implemented by components on the optimized path. Replay
// applies an externally planned power to the component state machine.
type Replayable interface {
	Name() string
	Replay(sc *Context, power float64) error
}

// Base provides a name and no-op lifecycle hooks.
type Base struct {
	ID string
}

func (b Base) Name() string        { return b.ID }
func (Base) Init(*Context) error   { return nil }
func (Base) Step(*Context) error   { return nil }
func (Base) Finish(*Context) error { return nil }

// Prune drops sized components whose size is zero. The relative order of the
// remaining components is preserved.
func Prune(components []Component) []Component {
	out := make([]Component, 0, len(components))
	for _, c := range components {
		if c == nil {
			continue
		}
		if s, ok := c.(Sized); ok && s.Size() == 0 {
			continue
		}
		out = append(out, c)
	}
	return out
}
