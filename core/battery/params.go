package battery

import (
	"fmt"

	"github.com/kilianp07/hems/core/model"
)

// BoundaryMode selects how the charge/discharge boundary is computed.
type BoundaryMode string

const (
	// BoundaryPower derives floor and ceiling from linear functions of the
	// cell power relative to nominal capacity.
	BoundaryPower BoundaryMode = "power"
	// BoundaryLinear uses the fixed SoCMin and SoCMax constants.
	BoundaryLinear BoundaryMode = "linear"
)

// Linear is a*x + b.
type Linear struct {
	A float64 `json:"a" yaml:"a"`
	B float64 `json:"b" yaml:"b"`
}

// At evaluates the function.
func (l Linear) At(x float64) float64 { return l.A*x + l.B }

// CycleLife is a quartic in depth of discharge scaled by a linear function of
// the mean cycle temperature.
type CycleLife struct {
	P4                float64 `json:"p4" yaml:"p4"`
	P3                float64 `json:"p3" yaml:"p3"`
	P2                float64 `json:"p2" yaml:"p2"`
	P1                float64 `json:"p1" yaml:"p1"`
	P0                float64 `json:"p0" yaml:"p0"`
	TemperatureSlope  float64 `json:"temperature_slope" yaml:"temperature_slope"`
	TemperatureOffset float64 `json:"temperature_offset" yaml:"temperature_offset"`
}

// At returns the number of full cycles to end of life.
func (c CycleLife) At(dod, temperature float64) float64 {
	d2 := dod * dod
	poly := c.P4*d2*d2 + c.P3*d2*dod + c.P2*d2 + c.P1*dod + c.P0
	return poly * (c.TemperatureSlope*temperature + c.TemperatureOffset)
}

// CalendarLife is an odd polynomial of the temperature giving the float life
// in years.
type CalendarLife struct {
	P5 float64 `json:"p5" yaml:"p5"`
	P3 float64 `json:"p3" yaml:"p3"`
	P1 float64 `json:"p1" yaml:"p1"`
	P0 float64 `json:"p0" yaml:"p0"`
}

// At returns the float life in years.
func (c CalendarLife) At(temperature float64) float64 {
	t2 := temperature * temperature
	return c.P5*t2*t2*temperature + c.P3*t2*temperature + c.P1*temperature + c.P0
}

// Params is the full parameter set of a battery. Energies are in Wh, powers in
// W, temperatures in K.
type Params struct {
	CapacityNominal         float64      `json:"capacity_nominal" yaml:"capacity_nominal"`
	InitialSoC              float64      `json:"initial_soc" yaml:"initial_soc"`
	InitialTemperature      float64      `json:"initial_temperature" yaml:"initial_temperature"`
	SelfDischargeRate       float64      `json:"self_discharge_rate" yaml:"self_discharge_rate"` // 1/s
	ChargeEfficiency        Linear       `json:"charge_efficiency" yaml:"charge_efficiency"`
	DischargeEfficiency     Linear       `json:"discharge_efficiency" yaml:"discharge_efficiency"`
	BoundaryMode            BoundaryMode `json:"boundary_mode" yaml:"boundary_mode"`
	EndOfCharge             Linear       `json:"end_of_charge" yaml:"end_of_charge"`
	EndOfDischarge          Linear       `json:"end_of_discharge" yaml:"end_of_discharge"`
	SoCMin                  float64      `json:"soc_min" yaml:"soc_min"`
	SoCMax                  float64      `json:"soc_max" yaml:"soc_max"`
	EnergyDensityMass       float64      `json:"energy_density_mass" yaml:"energy_density_mass"` // Wh/kg
	EnergyDensityArea       float64      `json:"energy_density_area" yaml:"energy_density_area"` // Wh/m2
	HeatTransferCoefficient float64      `json:"heat_transfer_coefficient" yaml:"heat_transfer_coefficient"`
	HeatCapacity            float64      `json:"heat_capacity" yaml:"heat_capacity"` // J/kgK
	CycleLife               CycleLife    `json:"cycle_life" yaml:"cycle_life"`
	CalendarLife            CalendarLife `json:"calendar_life" yaml:"calendar_life"`
	EndOfLifeCondition      float64      `json:"end_of_life_condition" yaml:"end_of_life_condition"`
}

// DefaultParams returns the parameters of a generic lithium-ion cell. The
// nominal capacity is zero so an unsized battery is pruned.
func DefaultParams() Params {
	return Params{
		InitialSoC:              1.0,
		InitialTemperature:      298.15,
		SelfDischargeRate:       3.8072e-09,
		ChargeEfficiency:        Linear{A: -0.0224, B: 1.0},
		DischargeEfficiency:     Linear{A: -0.0281, B: 1.0},
		BoundaryMode:            BoundaryPower,
		EndOfCharge:             Linear{A: -0.0361, B: 1.1410},
		EndOfDischarge:          Linear{A: 0.0394, B: -0.0211},
		SoCMin:                  0.05,
		SoCMax:                  0.95,
		EnergyDensityMass:       256,
		EnergyDensityArea:       5843,
		HeatTransferCoefficient: 2,
		HeatCapacity:            850,
		CycleLife: CycleLife{
			P4: 0, P3: -19047.619, P2: 47142.8571, P1: -43380.9523, P0: 17285.7142,
			TemperatureSlope: 0, TemperatureOffset: 1,
		},
		EndOfLifeCondition: 0.8,
	}
}

// Validate checks the parameters. Enumerated fields outside their set yield a
// model.ConfigurationError.
func (p Params) Validate() error {
	if p.CapacityNominal < 0 {
		return model.NewConfigurationError("battery", "capacity_nominal", p.CapacityNominal, "must not be negative")
	}
	if p.InitialSoC < 0 || p.InitialSoC > 1 {
		return model.NewConfigurationError("battery", "initial_soc", p.InitialSoC, "must be within [0,1]")
	}
	switch p.BoundaryMode {
	case BoundaryPower:
	case BoundaryLinear:
		if p.SoCMin < 0 || p.SoCMax > 1 || p.SoCMin >= p.SoCMax {
			return model.NewConfigurationError("battery", "soc_min/soc_max", fmt.Sprintf("%v/%v", p.SoCMin, p.SoCMax), "need 0 <= soc_min < soc_max <= 1")
		}
	default:
		return model.NewConfigurationError("battery", "boundary_mode", p.BoundaryMode, "expected power or linear")
	}
	if p.ChargeEfficiency.B <= 0 || p.DischargeEfficiency.B <= 0 {
		return model.NewConfigurationError("battery", "efficiency", p.ChargeEfficiency.B, "idle intercept must be positive")
	}
	if p.SelfDischargeRate < 0 {
		return model.NewConfigurationError("battery", "self_discharge_rate", p.SelfDischargeRate, "must not be negative")
	}
	if p.EnergyDensityMass <= 0 || p.EnergyDensityArea <= 0 || p.HeatCapacity <= 0 {
		return model.NewConfigurationError("battery", "thermal", p.HeatCapacity, "densities and heat capacity must be positive")
	}
	if p.EndOfLifeCondition <= 0 || p.EndOfLifeCondition >= 1 {
		return model.NewConfigurationError("battery", "end_of_life_condition", p.EndOfLifeCondition, "must be within (0,1)")
	}
	return nil
}

// Warnings reports efficiency and boundary curves that disagree within the
// rated power range (C-rate 0 to 1). Such curves make the correction rollback
// reachable.
func (p Params) Warnings() []string {
	var out []string
	var effWarned, boundWarned bool
	for i := 0; i <= 20; i++ {
		x := float64(i) / 20
		if !effWarned && (p.ChargeEfficiency.At(x) <= 0 || p.DischargeEfficiency.At(x) <= 0) {
			out = append(out, fmt.Sprintf("efficiency not positive at C-rate %.2f", x))
			effWarned = true
		}
		if !boundWarned && p.BoundaryMode == BoundaryPower && p.EndOfDischarge.At(x) >= p.EndOfCharge.At(x) {
			out = append(out, fmt.Sprintf("discharge floor above charge ceiling at C-rate %.2f", x))
			boundWarned = true
		}
	}
	return out
}

// boundary returns the SoC floor (cell power < 0) or ceiling (otherwise),
// clamped to [0,1].
func (p Params) boundary(cellPower float64) (float64, error) {
	var b float64
	switch p.BoundaryMode {
	case BoundaryPower:
		if cellPower < 0 {
			b = p.EndOfDischarge.At(-cellPower / p.CapacityNominal)
		} else {
			b = p.EndOfCharge.At(cellPower / p.CapacityNominal)
		}
	case BoundaryLinear:
		if cellPower < 0 {
			b = p.SoCMin
		} else {
			b = p.SoCMax
		}
	default:
		return 0, model.NewConfigurationError("battery", "boundary_mode", p.BoundaryMode, "expected power or linear")
	}
	return clamp01(b), nil
}

// restCeiling is the charge ceiling at zero power, the reference of the depth
// of discharge.
func (p Params) restCeiling() float64 {
	if p.BoundaryMode == BoundaryLinear {
		return p.SoCMax
	}
	return clamp01(p.EndOfCharge.B)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
