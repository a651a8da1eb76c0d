// Package battery models a lithium-ion battery: power dependent efficiency,
// state of charge with boundary correction, micro-cycle and calendar aging,
// end of life replacement and a lumped thermal model.
//
// Next is a pure function of the persisted State. Battery wraps it for use
// inside a simulation run.
package battery

import (
	"math"

	"github.com/kilianp07/hems/core/logger"
	"github.com/kilianp07/hems/core/model"
	"github.com/kilianp07/hems/core/profile"
	"github.com/kilianp07/hems/core/sim"
)

// Cycle accumulates a running micro-cycle.
type Cycle struct {
	Energy      float64 // Wh throughput
	Duration    int     // steps
	DoD         float64 // summed depth of discharge
	Temperature float64 // summed temperature
}

// State is the persisted battery state plus the outputs of the last step.
type State struct {
	SoC                float64
	SoCOld             float64
	CapacityCurrent    float64
	Temperature        float64
	Cycle              Cycle
	CapacityLoss       float64 // loss of the last step
	CapacityLossTotal  float64
	StateOfHealth      float64
	StateOfDestruction float64
	Replacement        bool
	Replacements       int

	Power      float64 // terminal power, charge positive
	CellPower  float64
	Efficiency float64
	PowerLoss  float64
	Boundary   float64
}

// Input is the request for one step.
type Input struct {
	Requested float64 // W at the terminals, charge positive
	Ambient   float64 // K
	Timestep  float64 // s
	Time      int
}

// InitialState returns the state at construction.
func InitialState(p Params) State {
	return State{
		SoC:             p.InitialSoC,
		SoCOld:          p.InitialSoC,
		CapacityCurrent: p.CapacityNominal,
		Temperature:     p.InitialTemperature,
		StateOfHealth:   1,
	}
}

// Next computes the state after applying in to s. It has no side effects:
// identical inputs always give identical outputs.
func Next(p Params, s State, in Input) (State, error) {
	n := s
	n.Replacement = false
	hours := in.Timestep / 3600

	n.Temperature = nextTemperature(p, s.Temperature, s.PowerLoss, in.Ambient, in.Timestep)

	eff, cell := cellPower(p, in.Requested)
	n.Efficiency = eff
	n.PowerLoss = in.Requested - cell

	n.SoCOld = s.SoC
	soc := s.SoC + cell/s.CapacityCurrent*hours - p.SelfDischargeRate*in.Timestep
	bound, err := p.boundary(cell)
	if err != nil {
		return s, err
	}
	n.Boundary = bound

	switch {
	case cell < 0:
		if soc < bound {
			corrected := cell + (bound-soc)*s.CapacityCurrent/hours
			if corrected > 0 {
				cell, soc = 0, s.SoC
			} else {
				cell, soc = corrected, bound
			}
		}
	case cell > 0:
		if soc > bound {
			corrected := cell - (soc-bound)*s.CapacityCurrent/hours
			if corrected < 0 {
				cell, soc = 0, s.SoC
			} else {
				cell, soc = corrected, bound
			}
		}
	default:
		soc = s.SoC
	}
	n.SoC = soc
	n.CellPower = cell
	switch {
	case cell == 0:
		n.Power = 0
	case cell < 0:
		n.Power = cell * eff
	default:
		n.Power = cell / eff
	}

	if cell != 0 {
		n.Cycle = accumulate(p, n.Cycle, cell, soc, n.Temperature, hours)
		n.CapacityLoss = 0
	} else {
		n.CapacityLoss = calendarLoss(p, n.Temperature, in.Timestep) + cycleLoss(p, n.Cycle)
		n.Cycle = Cycle{}
	}
	n.CapacityCurrent -= n.CapacityLoss
	n.CapacityLossTotal += n.CapacityLoss
	n.StateOfHealth = n.CapacityCurrent / p.CapacityNominal

	eol := p.EndOfLifeCondition * p.CapacityNominal
	n.StateOfDestruction = (p.CapacityNominal - n.CapacityCurrent) / (p.CapacityNominal - eol)
	if n.StateOfDestruction >= 1 {
		n.Replacement = true
		n.Replacements++
		n.StateOfDestruction = 0
		n.CapacityCurrent = p.CapacityNominal
		n.StateOfHealth = 1
	}
	return n, nil
}

// cellPower applies the ohmic efficiency. Discharge power beyond the point
// where efficiency vanishes is infeasible and yields zero.
func cellPower(p Params, requested float64) (eff, cell float64) {
	switch {
	case requested > 0:
		eff = p.ChargeEfficiency.At(requested / p.CapacityNominal)
		if eff <= 0 {
			return 0, 0
		}
		return eff, requested * eff
	case requested < 0:
		eff = p.DischargeEfficiency.At(-requested / p.CapacityNominal)
		if eff <= 0 {
			return 0, 0
		}
		return eff, requested / eff
	}
	return 0, 0
}

// Battery is a battery bound to a simulation run.
type Battery struct {
	sim.Base
	params  Params
	state   State
	ambient profile.Source
	log     logger.Logger
}

// New validates p and returns a battery at its initial state. ambient gives
// the surrounding temperature in K.
func New(name string, p Params, ambient profile.Source, log logger.Logger) (*Battery, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.CapacityNominal == 0 {
		return nil, model.NewConfigurationError(name, "capacity_nominal", 0, "zero sized battery must be pruned")
	}
	if ambient == nil {
		ambient = profile.Constant(p.InitialTemperature)
	}
	b := &Battery{Base: sim.Base{ID: name}, params: p, ambient: ambient, log: log}
	b.state = InitialState(p)
	if log != nil {
		for _, w := range p.Warnings() {
			log.Warnf("%s: %s", name, w)
		}
	}
	return b, nil
}

// Init restores the initial state.
func (b *Battery) Init(*sim.Context) error {
	b.state = InitialState(b.params)
	return nil
}

// Size returns the nominal capacity.
func (b *Battery) Size() float64 { return b.params.CapacityNominal }

// Params returns the battery parameters.
func (b *Battery) Params() Params { return b.params }

// State returns a copy of the current state.
func (b *Battery) State() State { return b.state }

// StateOfCharge returns the current state of charge.
func (b *Battery) StateOfCharge() float64 { return b.state.SoC }

// ChargeOrDischarge requests power at the terminals for the current step and
// returns the terminal power actually exchanged.
func (b *Battery) ChargeOrDischarge(sc *sim.Context, requested float64) (float64, error) {
	next, err := Next(b.params, b.state, Input{
		Requested: requested,
		Ambient:   b.ambient.At(sc.Time),
		Timestep:  sc.Timestep,
		Time:      sc.Time,
	})
	if err != nil {
		return 0, err
	}
	if next.Replacement && b.log != nil {
		b.log.Infof("%s reached end of life at step %d", b.ID, sc.Time)
	}
	b.state = next
	return next.Power, nil
}

// Replay applies a planned terminal power.
func (b *Battery) Replay(sc *sim.Context, power float64) error {
	_, err := b.ChargeOrDischarge(sc, power)
	return err
}

// Report returns the per-step view of the battery.
func (b *Battery) Report() model.ComponentState {
	return model.ComponentState{
		Component:          b.ID,
		Power:              b.state.Power,
		StateOfCharge:      b.state.SoC,
		StateOfDestruction: b.state.StateOfDestruction,
		Replacement:        b.state.Replacement,
	}
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
