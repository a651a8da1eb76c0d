// Package profile exposes exogenous time series (PV, wind, demand, ambient
// temperature) as values at the current time index. Powers are in W and
// temperatures in K.
package profile

import "math"

// Well known series names.
const (
	PV                 = "pv"
	Wind               = "wind"
	LoadElectricity    = "load_electricity"
	LoadHeat           = "load_heat"
	LoadCooling        = "load_cooling"
	TemperatureAmbient = "temperature_ambient"
	TemperatureSpace   = "temperature_space"
)

// Source returns a value for a time index.
type Source interface {
	At(t int) float64
}

// Series is a sampled profile. Indices past its length wrap around.
type Series []float64

// At returns the value at t modulo the series length, or 0 for an empty series.
func (s Series) At(t int) float64 {
	if len(s) == 0 || t < 0 {
		return 0
	}
	return s[t%len(s)]
}

// Constant is a source returning the same value at every index.
type Constant float64

func (c Constant) At(int) float64 { return float64(c) }

// Sum returns the sum of the series.
func (s Series) Sum() float64 {
	var total float64
	for _, v := range s {
		total += v
	}
	return total
}

// Scale returns a copy of s multiplied by f.
func (s Series) Scale(f float64) Series {
	out := make(Series, len(s))
	for i, v := range s {
		out[i] = v * f
	}
	return out
}

// Finite reports whether every value is a finite number.
func (s Series) Finite() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
