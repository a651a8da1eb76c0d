package battery

import "math"

// nextTemperature integrates the lumped thermal balance over one step
// (explicit Euler): ohmic loss heats the pack, convection cools it toward
// ambient.
func nextTemperature(p Params, temperature, loss, ambient, timestep float64) float64 {
	mass := p.CapacityNominal / p.EnergyDensityMass
	surface := p.CapacityNominal / p.EnergyDensityArea
	if mass <= 0 {
		return temperature
	}
	convection := p.HeatTransferCoefficient * surface * (temperature - ambient)
	return temperature + (math.Abs(loss)-convection)/(p.HeatCapacity*mass/timestep)
}
