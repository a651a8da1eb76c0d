package system

import (
	"errors"
	"fmt"

	"github.com/kilianp07/hems/core/battery"
	"github.com/kilianp07/hems/core/heatpump"
	"github.com/kilianp07/hems/core/hydrogen"
	"github.com/kilianp07/hems/core/params"
	"github.com/kilianp07/hems/core/power"
	"github.com/kilianp07/hems/core/thermal"
)

// Component binds the parameters of one component to an optional datasheet.
// Keys present in the datasheet override the inline parameters.
type Component[P any] struct {
	ParamsFile string `json:"params_file" yaml:"params_file"`
	Params     P      `json:",squash" yaml:",inline"`
}

// Resolve returns the parameters with the datasheet applied.
func (c Component[P]) Resolve() (P, error) {
	p := c.Params
	if c.ParamsFile == "" {
		return p, nil
	}
	if err := params.LoadFile(c.ParamsFile, &p); err != nil {
		return p, err
	}
	return p, nil
}

// Config lists every component of the system. A component whose sizing
// parameter is zero is pruned.
type Config struct {
	Battery         Component[battery.Params]              `json:"battery" yaml:"battery"`
	Electrolyzer    Component[hydrogen.ElectrolyzerParams] `json:"electrolyzer" yaml:"electrolyzer"`
	FuelCell        Component[hydrogen.FuelCellParams]     `json:"fuel_cell" yaml:"fuel_cell"`
	HydrogenStorage Component[hydrogen.StorageParams]      `json:"hydrogen_storage" yaml:"hydrogen_storage"`
	HeatPump        Component[heatpump.Params]             `json:"heat_pump" yaml:"heat_pump"`
	CoolingHeatPump Component[heatpump.Params]             `json:"cooling_heat_pump" yaml:"cooling_heat_pump"`
	HeatStorage     Component[thermal.Params]              `json:"heat_storage" yaml:"heat_storage"`
	Inverter        Component[power.InverterParams]        `json:"inverter" yaml:"inverter"`
}

// DefaultConfig returns unsized defaults for every component.
func DefaultConfig() Config {
	return Config{
		Battery:         Component[battery.Params]{Params: battery.DefaultParams()},
		Electrolyzer:    Component[hydrogen.ElectrolyzerParams]{Params: hydrogen.DefaultElectrolyzerParams()},
		FuelCell:        Component[hydrogen.FuelCellParams]{Params: hydrogen.DefaultFuelCellParams()},
		HydrogenStorage: Component[hydrogen.StorageParams]{Params: hydrogen.DefaultStorageParams()},
		HeatPump:        Component[heatpump.Params]{Params: heatpump.DefaultParams()},
		CoolingHeatPump: Component[heatpump.Params]{Params: heatpump.DefaultParams()},
		HeatStorage:     Component[thermal.Params]{Params: thermal.DefaultParams()},
		Inverter:        Component[power.InverterParams]{Params: power.DefaultInverterParams()},
	}
}

// Resolved is a Config with every datasheet applied.
type Resolved struct {
	Battery         battery.Params
	Electrolyzer    hydrogen.ElectrolyzerParams
	FuelCell        hydrogen.FuelCellParams
	HydrogenStorage hydrogen.StorageParams
	HeatPump        heatpump.Params
	CoolingHeatPump heatpump.Params
	HeatStorage     thermal.Params
	Inverter        power.InverterParams
}

// Resolve applies the datasheets and validates every parameter set. All
// failures are reported together.
func (c Config) Resolve() (Resolved, error) {
	var (
		r    Resolved
		errs []error
	)
	check := func(name string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	var err error
	r.Battery, err = c.Battery.Resolve()
	check("battery", errors.Join(err, r.Battery.Validate()))
	r.Electrolyzer, err = c.Electrolyzer.Resolve()
	check("electrolyzer", errors.Join(err, r.Electrolyzer.Validate()))
	r.FuelCell, err = c.FuelCell.Resolve()
	check("fuel_cell", errors.Join(err, r.FuelCell.Validate()))
	r.HydrogenStorage, err = c.HydrogenStorage.Resolve()
	check("hydrogen_storage", errors.Join(err, r.HydrogenStorage.Validate()))
	r.HeatPump, err = c.HeatPump.Resolve()
	check("heat_pump", errors.Join(err, r.HeatPump.Validate()))
	r.CoolingHeatPump, err = c.CoolingHeatPump.Resolve()
	check("cooling_heat_pump", errors.Join(err, r.CoolingHeatPump.Validate()))
	r.HeatStorage, err = c.HeatStorage.Resolve()
	check("heat_storage", errors.Join(err, r.HeatStorage.Validate()))
	r.Inverter, err = c.Inverter.Resolve()
	check("inverter", errors.Join(err, r.Inverter.Validate()))
	return r, errors.Join(errs...)
}
