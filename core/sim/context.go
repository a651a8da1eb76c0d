package sim

import "time"

// Context carries the time index shared by all components of a run.
type Context struct {
	// Time is the current step index. It is -1 before Start, runs from 0 to
	// Steps-1 and is reset to 0 by End.
	Time int
	// Timestep is the step length in seconds.
	Timestep float64
	// Steps is the run horizon.
	Steps int
	// Origin is the wall-clock instant of step 0.
	Origin time.Time
}

// Hours returns the step length in hours.
func (c *Context) Hours() float64 { return c.Timestep / 3600 }

// Now returns the wall-clock instant of the current step.
func (c *Context) Now() time.Time {
	return c.At(c.Time)
}

// At returns the wall-clock instant of step t.
func (c *Context) At(t int) time.Time {
	return c.Origin.Add(time.Duration(float64(t) * c.Timestep * float64(time.Second)))
}
