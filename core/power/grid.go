package power

import (
	"github.com/kilianp07/hems/core/model"
	"github.com/kilianp07/hems/core/sim"
)

// Grid is the public grid connection. Power is positive when drawn from
// the grid and negative when fed in.
type Grid struct {
	sim.Base
	power float64
}

// NewGrid returns a grid connection.
func NewGrid(name string) *Grid {
	return &Grid{Base: sim.Base{ID: name}}
}

// Init clears the settled power.
func (g *Grid) Init(*sim.Context) error {
	g.power = 0
	return nil
}

// Settle books the AC power handed to the grid inverter pass.
func (g *Grid) Settle(acPower float64) {
	g.power = -acPower
}

// Power returns the grid power of the current step.
func (g *Grid) Power() float64 { return g.power }

// Replay sets a planned grid power.
func (g *Grid) Replay(_ *sim.Context, power float64) error {
	g.power = power
	return nil
}

// Report returns the per-step view of the grid.
func (g *Grid) Report() model.ComponentState {
	return model.ComponentState{Component: g.ID, Power: g.power}
}
