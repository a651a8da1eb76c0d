package hydrogen

import (
	"math"

	"github.com/kilianp07/hems/core/model"
)

const (
	// HeatingValueMass is the higher heating value of hydrogen in Wh/kg.
	HeatingValueMass = 33330.0
	// HeatingValueVolume is the higher heating value in Wh/Nm3.
	HeatingValueVolume = 3000.0
)

// DoubleExp is a*exp(b*x) + c*exp(d*x) + e.
type DoubleExp struct {
	A float64 `json:"a" yaml:"a"`
	B float64 `json:"b" yaml:"b"`
	C float64 `json:"c" yaml:"c"`
	D float64 `json:"d" yaml:"d"`
	E float64 `json:"e" yaml:"e"`
}

// At evaluates the function, clamped at zero.
func (f DoubleExp) At(x float64) float64 {
	return math.Max(0, f.A*math.Exp(f.B*x)+f.C*math.Exp(f.D*x)+f.E)
}

// Quadratic is a*x^2 + b*x + c.
type Quadratic struct {
	A float64 `json:"a" yaml:"a"`
	B float64 `json:"b" yaml:"b"`
	C float64 `json:"c" yaml:"c"`
}

// At evaluates the function, clamped at zero.
func (f Quadratic) At(x float64) float64 {
	return math.Max(0, f.A*x*x+f.B*x+f.C)
}

// ElectrolyzerParams describes a PEM electrolyzer. Efficiencies are functions
// of the load ratio power/power_nominal.
type ElectrolyzerParams struct {
	PowerNominal      float64   `json:"power_nominal" yaml:"power_nominal"` // W
	PartialLoadMin    float64   `json:"partial_load_min" yaml:"partial_load_min"`
	EfficiencyNominal float64   `json:"efficiency_nominal" yaml:"efficiency_nominal"`
	Efficiency        DoubleExp `json:"efficiency" yaml:"efficiency"`
	ThermalEfficiency Quadratic `json:"thermal_efficiency" yaml:"thermal_efficiency"`
	CompressionEnergy float64   `json:"compression_energy" yaml:"compression_energy"` // Wh/kg
	EndOfLife         float64   `json:"end_of_life" yaml:"end_of_life"`               // s of operation
}

// DefaultElectrolyzerParams returns an unsized PEM electrolyzer.
func DefaultElectrolyzerParams() ElectrolyzerParams {
	return ElectrolyzerParams{
		PartialLoadMin:    0.0398,
		EfficiencyNominal: 0.6947,
		Efficiency:        DoubleExp{A: 0.732371, B: -0.236654, C: -1.57696, D: -29.832},
		ThermalEfficiency: Quadratic{A: 0.0876978, B: 0.329614, C: -0.00676109},
		CompressionEnergy: 1044,
		EndOfLife:         108000000,
	}
}

// Validate checks the parameters.
func (p ElectrolyzerParams) Validate() error {
	if p.PowerNominal < 0 {
		return model.NewConfigurationError("electrolyzer", "power_nominal", p.PowerNominal, "must not be negative")
	}
	if p.PartialLoadMin < 0 || p.PartialLoadMin > 1 {
		return model.NewConfigurationError("electrolyzer", "partial_load_min", p.PartialLoadMin, "must be within [0,1]")
	}
	if p.EfficiencyNominal <= 0 || p.EfficiencyNominal > 1 {
		return model.NewConfigurationError("electrolyzer", "efficiency_nominal", p.EfficiencyNominal, "must be within (0,1]")
	}
	if p.CompressionEnergy < 0 || p.EndOfLife < 0 {
		return model.NewConfigurationError("electrolyzer", "compression_energy", p.CompressionEnergy, "must not be negative")
	}
	return nil
}

// FuelCellParams describes a PEM fuel cell.
type FuelCellParams struct {
	PowerNominal float64 `json:"power_nominal" yaml:"power_nominal"` // W
	// OperatingPointMin is the lowest load ratio the stack runs at.
	OperatingPointMin float64 `json:"operating_point_min" yaml:"operating_point_min"`
	// BatterySoCMin is the battery state of charge above which the battery,
	// not the fuel cell, covers a deficit first.
	BatterySoCMin     float64   `json:"battery_soc_min" yaml:"battery_soc_min"`
	Efficiency        DoubleExp `json:"efficiency" yaml:"efficiency"`
	ThermalEfficiency DoubleExp `json:"thermal_efficiency" yaml:"thermal_efficiency"`
	EndOfLife         float64   `json:"end_of_life" yaml:"end_of_life"` // s of operation
}

// DefaultFuelCellParams returns an unsized PEM fuel cell.
func DefaultFuelCellParams() FuelCellParams {
	return FuelCellParams{
		OperatingPointMin: 0.3,
		BatterySoCMin:     0.6,
		Efficiency:        DoubleExp{A: 0.780853, B: -0.76438, C: -0.800804, D: -9.55679},
		ThermalEfficiency: DoubleExp{A: 0.291707, B: 0.586111, C: -0.292195, D: -6.57437},
		EndOfLife:         108000000,
	}
}

// Validate checks the parameters.
func (p FuelCellParams) Validate() error {
	if p.PowerNominal < 0 {
		return model.NewConfigurationError("fuel_cell", "power_nominal", p.PowerNominal, "must not be negative")
	}
	if p.OperatingPointMin < 0 || p.OperatingPointMin > 1 {
		return model.NewConfigurationError("fuel_cell", "operating_point_min", p.OperatingPointMin, "must be within [0,1]")
	}
	if p.BatterySoCMin < 0 || p.BatterySoCMin > 1 {
		return model.NewConfigurationError("fuel_cell", "battery_soc_min", p.BatterySoCMin, "must be within [0,1]")
	}
	if p.EndOfLife < 0 {
		return model.NewConfigurationError("fuel_cell", "end_of_life", p.EndOfLife, "must not be negative")
	}
	return nil
}

// StorageParams describes a pressurized hydrogen tank. Capacity is the
// stored energy at full charge in Wh (higher heating value).
type StorageParams struct {
	Capacity   float64 `json:"capacity" yaml:"capacity"`
	InitialSoC float64 `json:"initial_soc" yaml:"initial_soc"`
	EndOfLife  float64 `json:"end_of_life" yaml:"end_of_life"` // s
}

// DefaultStorageParams returns an unsized empty tank.
func DefaultStorageParams() StorageParams {
	return StorageParams{EndOfLife: 946080000}
}

// Validate checks the parameters.
func (p StorageParams) Validate() error {
	if p.Capacity < 0 {
		return model.NewConfigurationError("hydrogen_storage", "capacity", p.Capacity, "must not be negative")
	}
	if p.InitialSoC < 0 || p.InitialSoC > 1 {
		return model.NewConfigurationError("hydrogen_storage", "initial_soc", p.InitialSoC, "must be within [0,1]")
	}
	if p.EndOfLife < 0 {
		return model.NewConfigurationError("hydrogen_storage", "end_of_life", p.EndOfLife, "must not be negative")
	}
	return nil
}
