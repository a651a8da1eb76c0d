package hydrogen

import (
	"math"

	"github.com/kilianp07/hems/core/lifetime"
	"github.com/kilianp07/hems/core/logger"
	"github.com/kilianp07/hems/core/model"
	"github.com/kilianp07/hems/core/sim"
)

// FuelCellOutput is what the fuel cell publishes for a step. Power is split
// into the share covering the load and the share left for the battery.
type FuelCellOutput struct {
	Power             float64
	ToLoad            float64
	ToBattery         float64
	HydrogenPower     float64 // negative while drawing from the tank
	Heat              float64
	Efficiency        float64
	ThermalEfficiency float64
	// Depleted is set when the tank could not cover the draw.
	Depleted bool
}

// FuelCell covers electricity deficits from a hydrogen tank.
type FuelCell struct {
	sim.Base
	params  FuelCellParams
	storage *Storage
	out     FuelCellOutput
	life    *lifetime.Tracker
	log     logger.Logger
}

// NewFuelCell validates p and binds the fuel cell to storage.
func NewFuelCell(name string, p FuelCellParams, storage *Storage, log logger.Logger) (*FuelCell, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if storage == nil {
		return nil, model.NewConfigurationError(name, "storage", nil, "hydrogen storage required")
	}
	return &FuelCell{
		Base:    sim.Base{ID: name},
		params:  p,
		storage: storage,
		life:    lifetime.NewOperation(p.EndOfLife),
		log:     log,
	}, nil
}

// Init clears the output and restores the lifetime.
func (f *FuelCell) Init(*sim.Context) error {
	f.out = FuelCellOutput{}
	f.life.Reset()
	return nil
}

// Size returns the nominal power.
func (f *FuelCell) Size() float64 { return f.params.PowerNominal }

// Params returns the fuel cell parameters.
func (f *FuelCell) Params() FuelCellParams { return f.params }

// BatterySoCMin returns the battery state of charge above which the battery
// covers deficits before the fuel cell.
func (f *FuelCell) BatterySoCMin() float64 { return f.params.BatterySoCMin }

// Output returns the values published for the current step.
func (f *FuelCell) Output() FuelCellOutput { return f.out }

// Dispatch covers demand (sign ignored). Output is clamped to the range
// between the minimum operating point and nominal power. If the tank runs
// empty the step is undone and the fuel cell stays off.
func (f *FuelCell) Dispatch(sc *sim.Context, demand float64) FuelCellOutput {
	pn := f.params.PowerNominal
	need := math.Abs(demand)
	out := FuelCellOutput{}
	if need > 0 && pn > 0 {
		out.Power = min(max(need, f.params.OperatingPointMin*pn), pn)
		out.ToLoad = min(need, pn)
		out.ToBattery = out.Power - out.ToLoad
	}
	out = f.convert(out)
	f.storage.Exchange(sc, out.HydrogenPower)
	if f.storage.StateOfCharge() < 0 {
		f.storage.Rollback()
		out = FuelCellOutput{Depleted: true}
	}
	f.finish(sc, out)
	return out
}

// Replay runs the fuel cell at a planned power, all of it to the load.
func (f *FuelCell) Replay(sc *sim.Context, power float64) error {
	out := f.convert(FuelCellOutput{Power: max(0, power), ToLoad: max(0, power)})
	f.storage.Exchange(sc, out.HydrogenPower)
	f.finish(sc, out)
	return nil
}

// Report returns the per-step view of the fuel cell.
func (f *FuelCell) Report() model.ComponentState {
	return model.ComponentState{
		Component:          f.ID,
		Power:              f.out.Power,
		StateOfDestruction: f.life.StateOfDestruction(),
		Replacement:        f.life.Replaced(),
	}
}

// convert fills hydrogen draw and heat for out.Power.
func (f *FuelCell) convert(out FuelCellOutput) FuelCellOutput {
	if out.Power == 0 || f.params.PowerNominal <= 0 {
		return FuelCellOutput{}
	}
	x := out.Power / f.params.PowerNominal
	out.Efficiency = f.params.Efficiency.At(x)
	out.ThermalEfficiency = f.params.ThermalEfficiency.At(x)
	if out.Efficiency == 0 {
		return FuelCellOutput{}
	}
	out.HydrogenPower = -out.Power / out.Efficiency
	out.Heat = math.Abs(out.HydrogenPower) * out.ThermalEfficiency
	return out
}

func (f *FuelCell) finish(sc *sim.Context, out FuelCellOutput) {
	f.life.Step(sc, out.Power != 0)
	if f.life.Replaced() && f.log != nil {
		f.log.Infof("%s reached end of life at step %d", f.ID, sc.Time)
	}
	f.out = out
}
