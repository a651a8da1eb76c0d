package heatpump

import (
	"fmt"

	"github.com/kilianp07/hems/core/model"
)

// Mode is the compressor operation mode.
type Mode int

const (
	Off Mode = iota
	On
)

func (m Mode) String() string {
	switch m {
	case Off:
		return "off"
	case On:
		return "on"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// NextMode applies the heating hysteresis to a storage temperature. The pump
// switches on below target-band and off at target. Any combination outside
// the four defined transitions is reported as a configuration error.
func NextMode(mode Mode, temperature, target, band float64) (Mode, error) {
	switch {
	case mode == Off && temperature < target-band, mode == On && temperature < target:
		return On, nil
	case mode == On && temperature >= target, mode == Off && temperature >= target-band:
		return Off, nil
	}
	return mode, model.NewConfigurationError("heat_pump", "operation_mode", mode,
		fmt.Sprintf("undefined transition at %.2f K (target %.2f K, band %.2f K)", temperature, target, band))
}

// NextCoolingMode is the mirror rule for cooling: on above target+band, off
// at or below target.
func NextCoolingMode(mode Mode, temperature, target, band float64) (Mode, error) {
	switch {
	case mode == Off && temperature > target+band, mode == On && temperature > target:
		return On, nil
	case mode == On && temperature <= target, mode == Off && temperature <= target+band:
		return Off, nil
	}
	return mode, model.NewConfigurationError("heat_pump", "cooling_mode", mode,
		fmt.Sprintf("undefined transition at %.2f K (target %.2f K, band %.2f K)", temperature, target, band))
}
