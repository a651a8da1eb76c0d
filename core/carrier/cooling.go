package carrier

import (
	"fmt"

	"github.com/kilianp07/hems/core/heatpump"
	"github.com/kilianp07/hems/core/sim"
)

// CoolingConfig wires the cooling bus. Space is optional; when set the
// heat pump follows the cooling hysteresis on the space temperature.
type CoolingConfig struct {
	Loads    []Flow
	HeatPump CoolingPump
	Space    Flow
}

// Cooling is the cooling bus.
type Cooling struct {
	sim.Base
	cfg    CoolingConfig
	demand float64
	out    heatpump.Output
}

// NewCooling returns the cooling carrier.
func NewCooling(name string, cfg CoolingConfig) (*Cooling, error) {
	if cfg.HeatPump == nil {
		return nil, fmt.Errorf("%s: cooling heat pump required", name)
	}
	return &Cooling{Base: sim.Base{ID: name}, cfg: cfg}, nil
}

// Init clears the demand and heat pump output of a previous run.
func (c *Cooling) Init(*sim.Context) error {
	c.demand, c.out = 0, heatpump.Output{}
	return nil
}

// Step serves the cooling demand of the current step.
func (c *Cooling) Step(sc *sim.Context) error {
	c.demand = -sum(c.cfg.Loads)
	var err error
	if c.cfg.Space != nil {
		c.out, err = c.cfg.HeatPump.CoolRegulated(sc, c.demand, c.cfg.Space.Value())
	} else {
		c.out, err = c.cfg.HeatPump.Cool(sc, c.demand)
	}
	if err != nil {
		return fmt.Errorf("%s step %d: %w", c.ID, sc.Time, err)
	}
	return nil
}

// Demand returns the cooling demand of the current step, negative.
func (c *Cooling) Demand() float64 { return c.demand }

// Output returns the heat pump output of the current step.
func (c *Cooling) Output() heatpump.Output { return c.out }
