package system

import (
	"fmt"

	"github.com/kilianp07/hems/core/logger"
	"github.com/kilianp07/hems/core/plan"
	"github.com/kilianp07/hems/core/sim"
)

// replayer feeds the planned value of every replayable component at the
// current index. Components absent from the plan replay zero.
type replayer struct {
	sim.Base
	plan    plan.Plan
	targets []sim.Replayable
	log     logger.Logger
}

func newReplayer(name string, p plan.Plan, targets []sim.Replayable, log logger.Logger) *replayer {
	return &replayer{Base: sim.Base{ID: name}, plan: p, targets: targets, log: log}
}

func (r *replayer) Init(sc *sim.Context) error {
	if r.log == nil {
		return nil
	}
	known := make(map[string]bool, len(r.targets))
	for _, t := range r.targets {
		known[t.Name()] = true
		if n := len(r.plan[t.Name()]); n > 0 && n < sc.Steps {
			r.log.Warnf("plan for %s covers %d of %d steps, the rest replays zero", t.Name(), n, sc.Steps)
		}
	}
	for _, name := range r.plan.Names() {
		if !known[name] {
			r.log.Warnf("plan entry %s matches no component", name)
		}
	}
	return nil
}

func (r *replayer) Step(sc *sim.Context) error {
	for _, t := range r.targets {
		if err := t.Replay(sc, r.plan.At(t.Name(), sc.Time)); err != nil {
			return fmt.Errorf("replay %s: %w", t.Name(), err)
		}
	}
	return nil
}
