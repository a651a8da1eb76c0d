package carrier

import (
	"fmt"

	"github.com/kilianp07/hems/core/logger"
	"github.com/kilianp07/hems/core/sim"
)

// Branch names the dispatch path taken in a step.
type Branch string

const (
	// BranchBalanced means production matched demand and nothing moved.
	BranchBalanced Branch = "balanced"
	// BranchSurplus charges the battery, then feeds the electrolyzer and
	// exports the rest.
	BranchSurplus Branch = "surplus"
	// BranchBatteryFirst covers a deficit from the battery before the fuel
	// cell and the grid.
	BranchBatteryFirst Branch = "battery_first"
	// BranchFuelCellFirst covers a deficit from the fuel cell while the
	// battery is low. The battery takes whatever remains.
	BranchFuelCellFirst Branch = "fuel_cell_first"
)

// Balance is the published view of one electricity step. All values are DC
// bus powers except GridAC and Grid.
type Balance struct {
	Inputs  float64
	Outputs float64 // AC, negative
	// LoadDC is Outputs after the inverter load pass.
	LoadDC         float64
	LoadEfficiency float64
	Power0         float64
	Power1         float64
	Power2         float64
	Battery        float64 // charge positive
	Electrolyzer   float64
	FuelCell       float64
	// FuelCellToBus is the fuel cell power credited to the bus. In the
	// fuel cell first branch this includes the share left for the battery.
	FuelCellToBus float64
	GridAC        float64
	Grid          float64 // import positive
	Branch        Branch
}

// Committed is the DC power taken up by battery, hydrogen path and the grid
// pass. It equals Power0 for every step.
func (b Balance) Committed() float64 {
	return b.Battery + b.Electrolyzer - b.FuelCellToBus + b.Power2
}

// ElectricityConfig wires the electricity bus. Nil components are absent.
type ElectricityConfig struct {
	Inputs       []Flow
	Outputs      []Flow
	Battery      Battery
	Electrolyzer Electrolyzer
	FuelCell     FuelCell
	Inverter     Inverter
	Grid         Grid
}

// Electricity is the electricity bus.
type Electricity struct {
	sim.Base
	cfg     ElectricityConfig
	balance Balance
	log     logger.Logger
}

// NewElectricity returns the electricity carrier.
func NewElectricity(name string, cfg ElectricityConfig, log logger.Logger) *Electricity {
	return &Electricity{Base: sim.Base{ID: name}, cfg: cfg, log: log}
}

// Init clears the balance of a previous run.
func (e *Electricity) Init(*sim.Context) error {
	e.balance = Balance{}
	return nil
}

// Step dispatches the current step.
func (e *Electricity) Step(sc *sim.Context) error {
	b, err := e.Dispatch(sc)
	if err != nil {
		return fmt.Errorf("%s step %d: %w", e.ID, sc.Time, err)
	}
	if e.log != nil {
		e.log.Debugw("electricity dispatched", map[string]any{
			"time":    sc.Time,
			"branch":  string(b.Branch),
			"power_0": b.Power0,
			"battery": b.Battery,
			"grid":    b.Grid,
		})
	}
	return nil
}

// Balance returns the balance of the current step.
func (e *Electricity) Balance() Balance { return e.balance }

// Dispatch balances the bus: battery before the hydrogen path, the hydrogen
// path before the grid. Every flexible component is called exactly once.
func (e *Electricity) Dispatch(sc *sim.Context) (Balance, error) {
	b := Balance{Inputs: sum(e.cfg.Inputs), Outputs: -sum(e.cfg.Outputs)}
	b.LoadDC, b.LoadEfficiency = b.Outputs, 1
	if e.cfg.Inverter != nil && b.Outputs != 0 {
		c := e.cfg.Inverter.ConvertLoad(b.Outputs)
		b.LoadDC, b.LoadEfficiency = c.Power, c.Efficiency
	} else if e.cfg.Inverter != nil {
		e.cfg.Inverter.ConvertLoad(0)
	}
	b.Power0 = b.Inputs + b.LoadDC

	var err error
	switch {
	case snap(b.Power0) > 0:
		b.Branch = BranchSurplus
		if b.Battery, err = e.battery(sc, b.Power0); err != nil {
			return b, err
		}
		b.Power1 = b.Power0 - b.Battery
		b.Electrolyzer = e.electrolyzer(sc, snap(b.Power1))
		b.FuelCell, b.FuelCellToBus = e.fuelCell(sc, 0)
		b.Power2 = b.Power1 + b.FuelCellToBus - b.Electrolyzer

	case snap(b.Power0) < 0 && e.batteryFirst():
		b.Branch = BranchBatteryFirst
		if b.Battery, err = e.battery(sc, b.Power0); err != nil {
			return b, err
		}
		b.Power1 = b.Power0 - b.Battery
		b.FuelCell, b.FuelCellToBus = e.fuelCell(sc, snap(b.Power1))
		b.Electrolyzer = e.electrolyzer(sc, 0)
		b.Power2 = b.Power1 + b.FuelCellToBus - b.Electrolyzer

	case snap(b.Power0) < 0:
		b.Branch = BranchFuelCellFirst
		b.FuelCell, _ = e.fuelCell(sc, b.Power0)
		b.FuelCellToBus = b.FuelCell
		b.Electrolyzer = e.electrolyzer(sc, 0)
		b.Power1 = b.Power0 + b.FuelCellToBus - b.Electrolyzer
		if b.Battery, err = e.battery(sc, snap(b.Power1)); err != nil {
			return b, err
		}
		b.Power2 = b.Power1 - b.Battery

	default:
		b.Branch = BranchBalanced
		if b.Battery, err = e.battery(sc, 0); err != nil {
			return b, err
		}
		b.Electrolyzer = e.electrolyzer(sc, 0)
		b.FuelCell, b.FuelCellToBus = e.fuelCell(sc, 0)
		b.Power1 = b.Power0 - b.Battery
		b.Power2 = b.Power1 + b.FuelCellToBus - b.Electrolyzer
	}

	b.GridAC = b.Power2
	if e.cfg.Inverter != nil {
		b.GridAC = e.cfg.Inverter.ConvertGrid(b.Power2).Power
	} else if b.Power2 < 0 {
		b.GridAC = b.Power2 * b.LoadEfficiency
	}
	b.Grid = -b.GridAC
	if e.cfg.Grid != nil {
		e.cfg.Grid.Settle(b.GridAC)
	}
	e.balance = b
	return b, nil
}

// batteryFirst reports whether the battery is charged enough to cover a
// deficit before the fuel cell.
func (e *Electricity) batteryFirst() bool {
	if e.cfg.FuelCell == nil {
		return true
	}
	if e.cfg.Battery == nil {
		return false
	}
	return e.cfg.Battery.StateOfCharge() >= e.cfg.FuelCell.BatterySoCMin()
}

func (e *Electricity) battery(sc *sim.Context, requested float64) (float64, error) {
	if e.cfg.Battery == nil {
		return 0, nil
	}
	return e.cfg.Battery.ChargeOrDischarge(sc, requested)
}

func (e *Electricity) electrolyzer(sc *sim.Context, surplus float64) float64 {
	if e.cfg.Electrolyzer == nil {
		return 0
	}
	return e.cfg.Electrolyzer.Dispatch(sc, surplus).Power
}

// fuelCell returns the fuel cell power and the share covering the load.
func (e *Electricity) fuelCell(sc *sim.Context, demand float64) (float64, float64) {
	if e.cfg.FuelCell == nil {
		return 0, 0
	}
	out := e.cfg.FuelCell.Dispatch(sc, demand)
	return out.Power, out.ToLoad
}
