package carrier

import (
	"math"

	"github.com/kilianp07/hems/core/battery"
	"github.com/kilianp07/hems/core/heatpump"
	"github.com/kilianp07/hems/core/hydrogen"
	"github.com/kilianp07/hems/core/power"
	"github.com/kilianp07/hems/core/sim"
	"github.com/kilianp07/hems/core/thermal"
)

// branchEpsilon is the residual below which a bus counts as balanced.
const branchEpsilon = 1e-6

// Flow is a power magnitude published for the current step.
type Flow interface {
	Value() float64
}

// FlowFunc adapts a function to Flow.
type FlowFunc func() float64

func (f FlowFunc) Value() float64 { return f() }

func sum(flows []Flow) float64 {
	var total float64
	for _, f := range flows {
		total += math.Abs(f.Value())
	}
	return total
}

func snap(v float64) float64 {
	if math.Abs(v) < branchEpsilon {
		return 0
	}
	return v
}

// Battery is the electrochemical storage on the electricity bus.
type Battery interface {
	ChargeOrDischarge(sc *sim.Context, requested float64) (float64, error)
	StateOfCharge() float64
}

// Electrolyzer turns surplus into hydrogen.
type Electrolyzer interface {
	Dispatch(sc *sim.Context, surplus float64) hydrogen.ElectrolyzerOutput
	Output() hydrogen.ElectrolyzerOutput
}

// FuelCell covers deficits from hydrogen.
type FuelCell interface {
	Dispatch(sc *sim.Context, demand float64) hydrogen.FuelCellOutput
	Output() hydrogen.FuelCellOutput
	BatterySoCMin() float64
}

// Inverter converts between the DC bus and the AC side.
type Inverter interface {
	ConvertLoad(link float64) power.Conversion
	ConvertGrid(residual float64) power.Conversion
}

// Grid takes the residual.
type Grid interface {
	Settle(acPower float64)
}

// HeatStorage is the thermal buffer of the heat bus.
type HeatStorage interface {
	Temperature() float64
	Full() bool
	BelowMinimum() bool
	Charge(sc *sim.Context, power float64)
	SelfDischarge(sc *sim.Context)
}

// HeatingPump is a heat pump in heating mode.
type HeatingPump interface {
	Heat(sc *sim.Context, storageTemperature float64) (heatpump.Output, error)
}

// CoolingPump is a heat pump in cooling mode.
type CoolingPump interface {
	Cool(sc *sim.Context, demand float64) (heatpump.Output, error)
	CoolRegulated(sc *sim.Context, demand, spaceTemperature float64) (heatpump.Output, error)
}

var (
	_ Battery      = (*battery.Battery)(nil)
	_ Electrolyzer = (*hydrogen.Electrolyzer)(nil)
	_ FuelCell     = (*hydrogen.FuelCell)(nil)
	_ Inverter     = (*power.Inverter)(nil)
	_ Grid         = (*power.Grid)(nil)
	_ HeatStorage  = (*thermal.Storage)(nil)
	_ HeatingPump  = (*heatpump.HeatPump)(nil)
	_ CoolingPump  = (*heatpump.HeatPump)(nil)
)
