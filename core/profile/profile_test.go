package profile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/hems/core/sim"
)

func TestSeriesWraps(t *testing.T) {
	s := Series{1, 2, 3}
	assert.Equal(t, 1.0, s.At(0))
	assert.Equal(t, 3.0, s.At(2))
	assert.Equal(t, 1.0, s.At(3))
	assert.Equal(t, 2.0, s.At(7))
	assert.Equal(t, 0.0, Series(nil).At(4))
	assert.Equal(t, 0.0, s.At(-1))
}

func TestLoadCSV(t *testing.T) {
	doc := `time,pv_kw,load,t_amb
0,1.5,400,10
1,2.0,500,12
`
	set, err := LoadCSV(strings.NewReader(doc), Options{
		Columns: map[string]string{PV: "pv_kw", LoadElectricity: "load", TemperatureAmbient: "t_amb"},
		Scale:   map[string]float64{PV: 1000},
		Celsius: true,
	})
	require.NoError(t, err)
	assert.True(t, set.Has(PV))
	assert.False(t, set.Has(Wind))
	assert.InDelta(t, 2000.0, set.Source(PV).At(1), 1e-9)
	assert.InDelta(t, 500.0, set.Source(LoadElectricity).At(1), 1e-9)
	assert.InDelta(t, 283.15, set.Source(TemperatureAmbient).At(0), 1e-9)
	assert.Equal(t, 0.0, set.Source(Wind).At(1))
	assert.Equal(t, []string{LoadElectricity, PV, TemperatureAmbient}, set.Names())
}

func TestLoadCSVErrors(t *testing.T) {
	_, err := LoadCSV(strings.NewReader(""), Options{})
	assert.Error(t, err)

	_, err = LoadCSV(strings.NewReader("pv\nabc\n"), Options{})
	assert.Error(t, err)

	_, err = LoadCSV(strings.NewReader("pv\n1\n"), Options{Columns: map[string]string{Wind: "wind_kw"}})
	assert.Error(t, err)
}

func TestFeedPrecomputesHorizon(t *testing.T) {
	f := NewFeed(PV, Series{10, 20})
	sc := &sim.Context{Timestep: 3600, Steps: 3}
	require.NoError(t, f.Init(sc))
	for i, want := range []float64{10, 20, 10} {
		sc.Time = i
		require.NoError(t, f.Step(sc))
		assert.Equal(t, want, f.Value())
	}
	assert.Equal(t, 20.0, f.At(1))
}
