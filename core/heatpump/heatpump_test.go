package heatpump

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/hems/core/model"
	"github.com/kilianp07/hems/core/profile"
	"github.com/kilianp07/hems/core/sim"
)

func TestNextModeTransitions(t *testing.T) {
	const target, band = 328.15, 5.0
	cases := []struct {
		name string
		mode Mode
		temp float64
		want Mode
	}{
		{"off stays off inside band", Off, 325, Off},
		{"off switches on below band", Off, 322, On},
		{"off at lower edge stays off", Off, target - band, Off},
		{"on stays on below target", On, 325, On},
		{"on switches off at target", On, target, Off},
		{"on switches off above target", On, 335, Off},
	}
	for _, tc := range cases {
		got, err := NextMode(tc.mode, tc.temp, target, band)
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.want, got, tc.name)
	}
}

func TestNextModeUndefined(t *testing.T) {
	var cfgErr *model.ConfigurationError
	_, err := NextMode(Mode(3), 300, 328.15, 5)
	assert.True(t, errors.As(err, &cfgErr))
	_, err = NextCoolingMode(Mode(-1), 300, 297.15, 2)
	assert.True(t, errors.As(err, &cfgErr))
}

func TestModeChangesOnlyAtCrossings(t *testing.T) {
	const target, band = 328.15, 5.0
	// falling then rising storage temperature
	temps := []float64{330, 327, 324, 323.2, 323.0, 325, 327, 328.1, 328.15, 327, 324}
	mode := Off
	var changes []int
	for i, temp := range temps {
		next, err := NextMode(mode, temp, target, band)
		require.NoError(t, err)
		if next != mode {
			changes = append(changes, i)
		}
		mode = next
	}
	// on when crossing below 323.15, off when reaching 328.15
	assert.Equal(t, []int{4, 8}, changes)
}

func TestCoolingHysteresis(t *testing.T) {
	mode := Off
	var err error
	for _, step := range []struct {
		temp float64
		want Mode
	}{{298, Off}, {299.2, On}, {298, On}, {297.15, Off}, {298.5, Off}} {
		mode, err = NextCoolingMode(mode, step.temp, 297.15, 2)
		require.NoError(t, err)
		assert.Equal(t, step.want, mode, "temp %v", step.temp)
	}
}

func newPump(t *testing.T, ambient float64) *HeatPump {
	t.Helper()
	p := DefaultParams()
	p.PowerThermalPeak = 17700
	p.IcingFactor = 0.2
	hp, err := New("heat_pump", p, profile.Constant(ambient), nil)
	require.NoError(t, err)
	require.NoError(t, hp.Init(&sim.Context{}))
	return hp
}

func TestHeatOnAndOff(t *testing.T) {
	hp := newPump(t, 283.15)
	sc := &sim.Context{Timestep: 900, Steps: 4}
	out, err := hp.Heat(sc, 320)
	require.NoError(t, err)
	assert.Equal(t, On, out.Mode)
	assert.Greater(t, out.PowerThermal, 0.0)
	assert.InDelta(t, -out.PowerElectric, out.Power, 0)
	assert.InDelta(t, out.PowerThermal/out.PowerElectric, out.COP, 1e-12)
	assert.False(t, out.Icing)

	out, err = hp.Heat(sc, 330)
	require.NoError(t, err)
	assert.Equal(t, Output{Mode: Off}, out)
}

func TestIcingPenalty(t *testing.T) {
	warm := newPump(t, 277.15)
	cold := newPump(t, 275.15)
	sc := &sim.Context{Timestep: 900}
	w, err := warm.Heat(sc, 300)
	require.NoError(t, err)
	c, err := cold.Heat(sc, 300)
	require.NoError(t, err)
	assert.False(t, w.Icing)
	assert.True(t, c.Icing)
	fittedCOP := cold.curves.COP.At(275.15, cold.params.TemperatureFlow)
	assert.InDelta(t, fittedCOP/1.2, c.COP, 1e-9)
}

func TestCoolScalesToDemand(t *testing.T) {
	hp := newPump(t, 303.15)
	sc := &sim.Context{Timestep: 900}
	out, err := hp.Cool(sc, -4000)
	require.NoError(t, err)
	assert.Equal(t, On, out.Mode)
	assert.InDelta(t, 4000, out.PowerThermal, 1e-9)
	assert.InDelta(t, 4000/out.COP, out.PowerElectric, 1e-9)
	assert.Greater(t, out.Adjustment, 1.0)

	out, err = hp.Cool(sc, 0)
	require.NoError(t, err)
	assert.Equal(t, Output{Mode: Off}, out)
}

func TestCoolRegulated(t *testing.T) {
	hp := newPump(t, 303.15)
	sc := &sim.Context{Timestep: 900}
	out, err := hp.CoolRegulated(sc, -2000, 298)
	require.NoError(t, err)
	assert.Equal(t, Off, out.Mode)
	assert.Equal(t, 0.0, out.PowerElectric)
	out, err = hp.CoolRegulated(sc, -2000, 300)
	require.NoError(t, err)
	assert.Equal(t, On, out.Mode)
	assert.InDelta(t, 2000, out.PowerThermal, 1e-9)
}

func TestReplay(t *testing.T) {
	hp := newPump(t, 283.15)
	sc := &sim.Context{Timestep: 900}
	require.NoError(t, hp.Replay(sc, 5000))
	assert.Equal(t, On, hp.Mode())
	assert.InDelta(t, 5000, hp.Output().PowerThermal, 1e-9)
	require.NoError(t, hp.Replay(sc, 0))
	assert.Equal(t, Off, hp.Mode())
	assert.Equal(t, 0.0, hp.Report().Power)
}

func TestValidate(t *testing.T) {
	p := DefaultParams()
	p.Speed = "speed_50"
	var cfgErr *model.ConfigurationError
	assert.True(t, errors.As(p.Validate(), &cfgErr))
	_, err := New("hp", DefaultParams(), nil, nil)
	assert.Error(t, err)
}
