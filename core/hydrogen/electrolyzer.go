package hydrogen

import (
	"github.com/kilianp07/hems/core/lifetime"
	"github.com/kilianp07/hems/core/logger"
	"github.com/kilianp07/hems/core/model"
	"github.com/kilianp07/hems/core/sim"
)

// ElectrolyzerOutput is what the electrolyzer publishes for a step.
type ElectrolyzerOutput struct {
	// Power is the electrical input power, positive while running.
	Power float64
	// HydrogenPower is the produced hydrogen power in W.
	HydrogenPower float64
	// HydrogenMass is the production rate in kg/h.
	HydrogenMass float64
	// HydrogenVolume is the production rate in Nm3/h.
	HydrogenVolume    float64
	Heat              float64
	CompressorPower   float64
	Efficiency        float64
	ThermalEfficiency float64
}

// Electrolyzer converts surplus electricity into hydrogen stored in a tank.
type Electrolyzer struct {
	sim.Base
	params  ElectrolyzerParams
	storage *Storage
	out     ElectrolyzerOutput
	life    *lifetime.Tracker
	log     logger.Logger
}

// NewElectrolyzer validates p and binds the electrolyzer to storage.
func NewElectrolyzer(name string, p ElectrolyzerParams, storage *Storage, log logger.Logger) (*Electrolyzer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if storage == nil {
		return nil, model.NewConfigurationError(name, "storage", nil, "hydrogen storage required")
	}
	return &Electrolyzer{
		Base:    sim.Base{ID: name},
		params:  p,
		storage: storage,
		life:    lifetime.NewOperation(p.EndOfLife),
		log:     log,
	}, nil
}

// Init clears the output and restores the lifetime.
func (e *Electrolyzer) Init(*sim.Context) error {
	e.out = ElectrolyzerOutput{}
	e.life.Reset()
	return nil
}

// Size returns the nominal power.
func (e *Electrolyzer) Size() float64 { return e.params.PowerNominal }

// Params returns the electrolyzer parameters.
func (e *Electrolyzer) Params() ElectrolyzerParams { return e.params }

// Output returns the values published for the current step.
func (e *Electrolyzer) Output() ElectrolyzerOutput { return e.out }

// CompressorPowerMax returns the compressor power needed to store a full
// timestep of nominal production.
func (e *Electrolyzer) CompressorPowerMax(sc *sim.Context) float64 {
	h := sc.Hours()
	mass := e.params.PowerNominal * h * e.params.EfficiencyNominal / HeatingValueMass
	return e.params.CompressionEnergy * mass / h
}

// Offer returns the electrical power the electrolyzer accepts out of surplus.
// Below the partial load minimum, or without storage headroom for a full
// timestep at nominal power, the answer is exactly zero.
func (e *Electrolyzer) Offer(sc *sim.Context, surplus float64) float64 {
	pn := e.params.PowerNominal
	if surplus <= 0 || pn <= 0 {
		return 0
	}
	// the compressor runs on top of the stack at full throughput
	compressor := e.CompressorPowerMax(sc)
	if min(surplus, pn)+compressor < e.params.PartialLoadMin*pn+compressor {
		return 0
	}
	if e.storage.StateOfCharge() >= 1-pn*sc.Hours()/e.storage.Capacity() {
		return 0
	}
	return min(surplus, pn)
}

// Dispatch offers surplus and runs the electrolyzer with what it accepts.
func (e *Electrolyzer) Dispatch(sc *sim.Context, surplus float64) ElectrolyzerOutput {
	return e.Operate(sc, e.Offer(sc, surplus))
}

// Operate runs the electrolyzer at power for the current step, charges the
// tank and ages the stack. It must be called once per step.
func (e *Electrolyzer) Operate(sc *sim.Context, power float64) ElectrolyzerOutput {
	out := ElectrolyzerOutput{}
	if power > 0 && e.params.PowerNominal > 0 {
		x := power / e.params.PowerNominal
		out.Power = power
		out.Efficiency = e.params.Efficiency.At(x)
		out.ThermalEfficiency = e.params.ThermalEfficiency.At(x)
		out.HydrogenPower = power * out.Efficiency
		out.HydrogenMass = out.HydrogenPower / HeatingValueMass
		out.HydrogenVolume = out.HydrogenPower / HeatingValueVolume
		out.Heat = power * out.ThermalEfficiency
		out.CompressorPower = e.params.CompressionEnergy * out.HydrogenMass
	}
	e.storage.Exchange(sc, out.HydrogenPower)
	e.life.Step(sc, out.Power != 0)
	if e.life.Replaced() && e.log != nil {
		e.log.Infof("%s reached end of life at step %d", e.ID, sc.Time)
	}
	e.out = out
	return out
}

// Replay runs the electrolyzer at a planned power. Negative or missing
// values are treated as idle.
func (e *Electrolyzer) Replay(sc *sim.Context, power float64) error {
	e.Operate(sc, max(0, power))
	return nil
}

// Report returns the per-step view of the electrolyzer.
func (e *Electrolyzer) Report() model.ComponentState {
	return model.ComponentState{
		Component:          e.ID,
		Power:              e.out.Power,
		StateOfDestruction: e.life.StateOfDestruction(),
		Replacement:        e.life.Replaced(),
	}
}
