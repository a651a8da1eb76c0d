package heatpump

import (
	"fmt"

	"github.com/kilianp07/hems/core/model"
)

// Curve is a biquadratic fit of manufacturer data:
// c0 + c1*te + c2*tc + c3*te*tc + c4*te^2 + c5*tc^2, temperatures in K.
type Curve [6]float64

// At evaluates the curve for evaporator temperature te and condenser
// temperature tc.
func (c Curve) At(te, tc float64) float64 {
	return c[0] + c[1]*te + c[2]*tc + c[3]*te*tc + c[4]*te*te + c[5]*tc*tc
}

// CurveSet holds the heating fits of one compressor speed. Thermal is in kW
// at the reference size.
type CurveSet struct {
	Thermal Curve `json:"thermal" yaml:"thermal"`
	COP     Curve `json:"cop" yaml:"cop"`
}

// CoolingParams configures the cooling mode.
type CoolingParams struct {
	// Target is the space temperature the cooling hysteresis regulates to.
	Target     float64 `json:"target" yaml:"target"`
	Hysteresis float64 `json:"hysteresis" yaml:"hysteresis"`
	// TemperatureFlow is the chilled water temperature.
	TemperatureFlow float64 `json:"temperature_flow" yaml:"temperature_flow"`
	Thermal         Curve   `json:"thermal" yaml:"thermal"`
	EER             Curve   `json:"eer" yaml:"eer"`
}

// Params is the full parameter set of an air source heat pump.
type Params struct {
	PowerThermalPeak      float64             `json:"power_thermal_peak" yaml:"power_thermal_peak"`           // W
	PowerThermalReference float64             `json:"power_thermal_reference" yaml:"power_thermal_reference"` // W at A2/W35
	TemperatureFlow       float64             `json:"temperature_flow" yaml:"temperature_flow"`
	IcingThreshold        float64             `json:"icing_threshold" yaml:"icing_threshold"`
	IcingFactor           float64             `json:"icing_factor" yaml:"icing_factor"`
	Target                float64             `json:"target" yaml:"target"`
	Hysteresis            float64             `json:"hysteresis" yaml:"hysteresis"`
	Speed                 string              `json:"speed" yaml:"speed"`
	Curves                map[string]CurveSet `json:"curves" yaml:"curves"`
	Cooling               CoolingParams       `json:"cooling" yaml:"cooling"`
	EndOfLife             float64             `json:"end_of_life" yaml:"end_of_life"` // s
}

// DefaultParams returns an unsized air/water heat pump.
func DefaultParams() Params {
	return Params{
		PowerThermalReference: 17700,
		TemperatureFlow:       318.15,
		IcingThreshold:        276.15,
		IcingFactor:           0,
		Target:                328.15,
		Hysteresis:            5,
		Speed:                 "speed_100",
		Curves: map[string]CurveSet{
			"speed_100": {
				Thermal: Curve{87.028, 0.933585, -1.44879, -0.001991, 0, 0.003},
				COP:     Curve{64.2319, 0.494216, -0.805786, -0.002182, 0.000502, 0.002091},
			},
		},
		Cooling: CoolingParams{
			Target:          297.15,
			Hysteresis:      2,
			TemperatureFlow: 291.15,
			Thermal:         Curve{1.0, 0.2, -0.15, 0, 0, 0},
			EER:             Curve{11.263, 0.1, -0.12, 0, 0, 0},
		},
		EndOfLife: 473040000,
	}
}

// Validate checks the parameters.
func (p Params) Validate() error {
	if p.PowerThermalPeak < 0 {
		return model.NewConfigurationError("heat_pump", "power_thermal_peak", p.PowerThermalPeak, "must not be negative")
	}
	if p.PowerThermalReference <= 0 {
		return model.NewConfigurationError("heat_pump", "power_thermal_reference", p.PowerThermalReference, "must be positive")
	}
	if p.Hysteresis < 0 || p.Cooling.Hysteresis < 0 {
		return model.NewConfigurationError("heat_pump", "hysteresis", fmt.Sprintf("%v/%v", p.Hysteresis, p.Cooling.Hysteresis), "must not be negative")
	}
	if _, ok := p.Curves[p.Speed]; !ok {
		return model.NewConfigurationError("heat_pump", "speed", p.Speed, "no curve set for this speed")
	}
	if p.IcingFactor < 0 {
		return model.NewConfigurationError("heat_pump", "icing_factor", p.IcingFactor, "must not be negative")
	}
	if p.EndOfLife < 0 {
		return model.NewConfigurationError("heat_pump", "end_of_life", p.EndOfLife, "must not be negative")
	}
	return nil
}

func (p Params) scaling() float64 { return p.PowerThermalPeak / p.PowerThermalReference }
