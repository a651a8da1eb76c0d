package battery

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/hems/core/model"
	"github.com/kilianp07/hems/core/profile"
	"github.com/kilianp07/hems/core/sim"
)

func linearParams(capacity float64) Params {
	p := DefaultParams()
	p.CapacityNominal = capacity
	p.BoundaryMode = BoundaryLinear
	p.SoCMin = 0.1
	p.SoCMax = 0.9
	return p
}

func TestChargeBelowBoundary(t *testing.T) {
	p := linearParams(5000)
	s := InitialState(p)
	s.SoC = 0.5
	n, err := Next(p, s, Input{Requested: 1000, Ambient: 298.15, Timestep: 3600})
	require.NoError(t, err)
	eff := p.ChargeEfficiency.At(1000.0 / 5000)
	assert.InDelta(t, 0.5+1000*eff/5000, n.SoC, 1e-4)
	assert.InDelta(t, 1000.0, n.Power, 1e-9)
	assert.Equal(t, 0.5, n.SoCOld)
}

func TestChargeCorrectedAtBoundary(t *testing.T) {
	p := linearParams(5000)
	s := InitialState(p)
	s.SoC = 0.85
	n, err := Next(p, s, Input{Requested: 1000, Ambient: 298.15, Timestep: 3600})
	require.NoError(t, err)
	assert.Equal(t, 0.9, n.SoC)
	want := (0.9 - 0.85 + p.SelfDischargeRate*3600) * 5000
	assert.InDelta(t, want, n.CellPower, 1e-6)
	assert.InDelta(t, n.CellPower/n.Efficiency, n.Power, 1e-9)
	assert.Less(t, n.Power, 1000.0)
}

func TestDischargeCorrectedAtFloor(t *testing.T) {
	p := linearParams(5000)
	s := InitialState(p)
	s.SoC = 0.15
	n, err := Next(p, s, Input{Requested: -2000, Ambient: 298.15, Timestep: 3600})
	require.NoError(t, err)
	assert.Equal(t, 0.1, n.SoC)
	assert.Less(t, n.Power, 0.0)
	assert.Greater(t, n.Power, -2000.0)
}

func TestDischargeRollbackWhenCorrectionInverts(t *testing.T) {
	p := linearParams(5000)
	s := InitialState(p)
	s.SoC = 0.05 // already below the floor
	n, err := Next(p, s, Input{Requested: -100, Ambient: 298.15, Timestep: 3600})
	require.NoError(t, err)
	assert.Equal(t, 0.0, n.Power)
	assert.Equal(t, 0.0, n.CellPower)
	assert.Equal(t, 0.05, n.SoC)
}

func TestChargeRollbackWhenCorrectionInverts(t *testing.T) {
	p := linearParams(5000)
	s := InitialState(p)
	s.SoC = 0.95 // above the ceiling
	n, err := Next(p, s, Input{Requested: 100, Ambient: 298.15, Timestep: 3600})
	require.NoError(t, err)
	assert.Equal(t, 0.0, n.Power)
	assert.Equal(t, 0.95, n.SoC)
}

func TestIdleKeepsSoC(t *testing.T) {
	p := linearParams(5000)
	s := InitialState(p)
	s.SoC = 0.4
	n, err := Next(p, s, Input{Requested: 0, Ambient: 298.15, Timestep: 900})
	require.NoError(t, err)
	assert.Equal(t, 0.4, n.SoC)
	assert.Equal(t, 0.0, n.Efficiency)
}

func TestNextIsIdempotent(t *testing.T) {
	p := DefaultParams()
	p.CapacityNominal = 10000
	s := InitialState(p)
	s.SoC = 0.6
	s.PowerLoss = 40
	in := Input{Requested: -3000, Ambient: 280, Timestep: 900, Time: 7}
	a, err := Next(p, s, in)
	require.NoError(t, err)
	b, err := Next(p, s, in)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBoundaryNeverCrossed(t *testing.T) {
	p := DefaultParams()
	p.CapacityNominal = 2000
	s := InitialState(p)
	requests := []float64{-1500, -1500, -1500, -1500, 0, 1800, 1800, 1800, 1800, 0, -500}
	for i, r := range requests {
		n, err := Next(p, s, Input{Requested: r, Ambient: 293.15, Timestep: 3600, Time: i})
		require.NoError(t, err)
		if n.CellPower < 0 {
			assert.GreaterOrEqual(t, n.SoC, n.Boundary-1e-12, "step %d", i)
		}
		if n.CellPower > 0 {
			assert.LessOrEqual(t, n.SoC, n.Boundary+1e-12, "step %d", i)
		}
		assert.GreaterOrEqual(t, n.SoC, 0.0)
		assert.LessOrEqual(t, n.SoC, 1.0)
		s = n
	}
}

func TestCapacityMonotoneUntilReplacement(t *testing.T) {
	p := linearParams(1000)
	p.SoCMin = 0
	p.SoCMax = 1
	// an aggressive cycle life so a handful of cycles exhaust the budget
	p.CycleLife = CycleLife{P0: 3, TemperatureOffset: 1}
	s := InitialState(p)
	s.SoC = 1
	replacements := 0
	prev := s.CapacityCurrent
	for i := 0; i < 200; i++ {
		req := -800.0
		switch i % 4 {
		case 1, 3:
			req = 0
		case 2:
			req = 800
		}
		n, err := Next(p, s, Input{Requested: req, Ambient: 298.15, Timestep: 3600, Time: i})
		require.NoError(t, err)
		if n.Replacement {
			replacements++
			assert.Equal(t, p.CapacityNominal, n.CapacityCurrent)
			assert.Equal(t, 0.0, n.StateOfDestruction)
		} else {
			assert.LessOrEqual(t, n.CapacityCurrent, prev, "step %d", i)
		}
		prev = n.CapacityCurrent
		s = n
	}
	assert.Greater(t, replacements, 0)
	assert.Equal(t, replacements, s.Replacements)
}

func TestCycleClosesOnIdle(t *testing.T) {
	p := linearParams(1000)
	s := InitialState(p)
	s.SoC = 0.8
	n, err := Next(p, s, Input{Requested: -200, Ambient: 298.15, Timestep: 3600})
	require.NoError(t, err)
	assert.Equal(t, 1, n.Cycle.Duration)
	assert.Equal(t, 0.0, n.CapacityLoss)
	n, err = Next(p, n, Input{Requested: 0, Ambient: 298.15, Timestep: 3600})
	require.NoError(t, err)
	assert.Equal(t, Cycle{}, n.Cycle)
	assert.Greater(t, n.CapacityLoss, 0.0)
}

func TestTemperatureRelaxesToAmbient(t *testing.T) {
	p := DefaultParams()
	p.CapacityNominal = 10000
	got := nextTemperature(p, 310, 0, 290, 900)
	assert.Less(t, got, 310.0)
	assert.Greater(t, got, 290.0)
	heated := nextTemperature(p, 290, 500, 290, 900)
	assert.Greater(t, heated, 290.0)
}

func TestUnknownBoundaryMode(t *testing.T) {
	p := DefaultParams()
	p.CapacityNominal = 1000
	p.BoundaryMode = "cubic"
	var cfgErr *model.ConfigurationError
	assert.True(t, errors.As(p.Validate(), &cfgErr))
	_, err := Next(p, InitialState(p), Input{Requested: 10, Timestep: 60})
	assert.True(t, errors.As(err, &cfgErr))
}

func TestBatteryWrapper(t *testing.T) {
	p := linearParams(5000)
	b, err := New("battery", p, profile.Constant(293.15), nil)
	require.NoError(t, err)
	sc := &sim.Context{Timestep: 3600, Steps: 2}
	require.NoError(t, b.Init(sc))
	got, err := b.ChargeOrDischarge(sc, -1000)
	require.NoError(t, err)
	assert.InDelta(t, -1000, got, 1e-9)
	rep := b.Report()
	assert.Equal(t, "battery", rep.Component)
	assert.InDelta(t, b.StateOfCharge(), rep.StateOfCharge, 0)
	assert.Equal(t, 5000.0, b.Size())

	_, err = New("battery", DefaultParams(), nil, nil)
	assert.Error(t, err)
}

func TestWarnings(t *testing.T) {
	p := DefaultParams()
	assert.Empty(t, p.Warnings())
	p.DischargeEfficiency = Linear{A: -2, B: 1}
	p.EndOfDischarge = Linear{A: 2, B: 0}
	assert.Len(t, p.Warnings(), 2)
}
