package sim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/hems/core/logger"
)

// Clock drives a fixed, ordered list of components through a run.
type Clock struct {
	sc       Context
	children []Component
	log      logger.Logger
}

// NewClock creates a clock for steps of timestep seconds. Zero sized
// components are pruned before anything else happens.
func NewClock(timestep float64, steps int, origin time.Time, log logger.Logger, children ...Component) (*Clock, error) {
	if timestep <= 0 {
		return nil, fmt.Errorf("timestep must be positive, got %v", timestep)
	}
	if steps <= 0 {
		return nil, fmt.Errorf("steps must be positive, got %d", steps)
	}
	pruned := Prune(children)
	if d := len(children) - len(pruned); d > 0 && log != nil {
		log.Infof("pruned %d zero sized components", d)
	}
	return &Clock{
		sc:       Context{Time: -1, Timestep: timestep, Steps: steps, Origin: origin},
		children: pruned,
		log:      log,
	}, nil
}

// Context returns the shared simulation context.
func (c *Clock) Context() *Context { return &c.sc }

// Components returns the ordered component list.
func (c *Clock) Components() []Component { return c.children }

// Start resets the index to 0 and initializes every component in order.
func (c *Clock) Start() error {
	c.sc.Time = 0
	for _, ch := range c.children {
		if err := ch.Init(&c.sc); err != nil {
			return fmt.Errorf("init %s: %w", ch.Name(), err)
		}
	}
	return nil
}

// Update steps every component at the current index, then advances it.
func (c *Clock) Update() error {
	for _, ch := range c.children {
		if err := ch.Step(&c.sc); err != nil {
			return fmt.Errorf("step %d %s: %w", c.sc.Time, ch.Name(), err)
		}
	}
	c.sc.Time++
	return nil
}

// End finishes every component and resets the index to 0.
func (c *Clock) End() error {
	var first error
	for _, ch := range c.children {
		if err := ch.Finish(&c.sc); err != nil && first == nil {
			first = fmt.Errorf("finish %s: %w", ch.Name(), err)
		}
	}
	c.sc.Time = 0
	return first
}

// Run executes Start, one Update per step and End. Cancellation is only
// observed between steps. End also runs when a step fails or the run is
// canceled, so components can flush what they hold.
func (c *Clock) Run(ctx context.Context) error {
	if err := c.Start(); err != nil {
		return err
	}
	for i := 0; i < c.sc.Steps; i++ {
		err := ctx.Err()
		if err == nil {
			err = c.Update()
		}
		if err != nil {
			return errors.Join(err, c.End())
		}
	}
	if c.log != nil {
		c.log.Debugf("run finished after %d steps", c.sc.Steps)
	}
	return c.End()
}
