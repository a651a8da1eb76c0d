package battery

import "math"

// accumulate adds one operating step to the running micro-cycle.
func accumulate(p Params, c Cycle, cell, soc, temperature, hours float64) Cycle {
	c.Energy += math.Abs(cell * hours)
	c.Duration++
	c.DoD += p.restCeiling() - soc
	c.Temperature += temperature
	return c
}

// cycleLoss returns the capacity in Wh attributed to a closed micro-cycle. An
// empty cycle, or one whose mean depth or life is not positive, costs nothing.
func cycleLoss(p Params, c Cycle) float64 {
	if c.Duration == 0 {
		return 0
	}
	dod := c.DoD / float64(c.Duration)
	temp := c.Temperature / float64(c.Duration)
	if dod <= 0 {
		return 0
	}
	life := p.CycleLife.At(dod, temp)
	if life <= 0 || !finite(life) {
		return 0
	}
	cycles := c.Energy / (2 * p.CapacityNominal * dod)
	return cycles / life * (p.CapacityNominal - p.EndOfLifeCondition*p.CapacityNominal)
}

// calendarLoss returns the capacity in Wh lost to storage aging during one
// idle step.
func calendarLoss(p Params, temperature, timestep float64) float64 {
	years := p.CalendarLife.At(temperature)
	if years <= 0 || !finite(years) {
		return 0
	}
	stepsPerYear := 365 * 24 * (3600 / timestep)
	return (p.CapacityNominal - p.EndOfLifeCondition*p.CapacityNominal) / (years * stepsPerYear)
}
