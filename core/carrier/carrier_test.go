package carrier

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/hems/core/battery"
	"github.com/kilianp07/hems/core/heatpump"
	"github.com/kilianp07/hems/core/hydrogen"
	"github.com/kilianp07/hems/core/power"
	"github.com/kilianp07/hems/core/profile"
	"github.com/kilianp07/hems/core/sim"
	"github.com/kilianp07/hems/core/thermal"
)

type value float64

func (v *value) Value() float64 { return float64(*v) }

type fakeBattery struct {
	soc   float64
	limit float64
	calls int
}

func (b *fakeBattery) ChargeOrDischarge(_ *sim.Context, requested float64) (float64, error) {
	b.calls++
	return math.Max(-b.limit, math.Min(b.limit, requested)), nil
}

func (b *fakeBattery) StateOfCharge() float64 { return b.soc }

type bus struct {
	pv, load value
	battery  *battery.Battery
	storage  *hydrogen.Storage
	ely      *hydrogen.Electrolyzer
	fc       *hydrogen.FuelCell
	inv      *power.Inverter
	grid     *power.Grid
	carrier  *Electricity
}

func newBus(t *testing.T, soc, h2 float64) *bus {
	t.Helper()
	b := &bus{}
	bp := battery.DefaultParams()
	bp.CapacityNominal = 10000
	bp.InitialSoC = soc
	var err error
	b.battery, err = battery.New("battery", bp, profile.Constant(298.15), nil)
	require.NoError(t, err)

	sp := hydrogen.DefaultStorageParams()
	sp.Capacity = 50000
	sp.InitialSoC = h2
	b.storage, err = hydrogen.NewStorage("hydrogen_storage", sp, nil)
	require.NoError(t, err)
	ep := hydrogen.DefaultElectrolyzerParams()
	ep.PowerNominal = 2000
	b.ely, err = hydrogen.NewElectrolyzer("electrolyzer", ep, b.storage, nil)
	require.NoError(t, err)
	fp := hydrogen.DefaultFuelCellParams()
	fp.PowerNominal = 1500
	b.fc, err = hydrogen.NewFuelCell("fuel_cell", fp, b.storage, nil)
	require.NoError(t, err)

	ip := power.DefaultInverterParams()
	ip.PowerNominal = 8000
	b.inv, err = power.NewInverter("inverter", ip, nil)
	require.NoError(t, err)
	b.grid = power.NewGrid("grid")

	b.carrier = NewElectricity("electricity", ElectricityConfig{
		Inputs:       []Flow{&b.pv},
		Outputs:      []Flow{&b.load},
		Battery:      b.battery,
		Electrolyzer: b.ely,
		FuelCell:     b.fc,
		Inverter:     b.inv,
		Grid:         b.grid,
	}, nil)
	return b
}

func TestEnergyConservation(t *testing.T) {
	sc := &sim.Context{Timestep: 900, Steps: 2000}
	b := newBus(t, 0.5, 0.3)
	rng := rand.New(rand.NewSource(7))
	branches := map[Branch]int{}
	for i := 0; i < sc.Steps; i++ {
		sc.Time = i
		b.pv = value(rng.Float64() * 6000)
		b.load = value(rng.Float64() * 6000)
		bal, err := b.carrier.Dispatch(sc)
		require.NoError(t, err)
		branches[bal.Branch]++
		if d := math.Abs(bal.Committed() - bal.Power0); d > 1e-6 {
			t.Fatalf("step %d: committed %v != power_0 %v (branch %s)", i, bal.Committed(), bal.Power0, bal.Branch)
		}
		assert.InDelta(t, -bal.GridAC, b.grid.Power(), 1e-12)
	}
	assert.Greater(t, branches[BranchSurplus], 0)
	assert.Greater(t, branches[BranchBatteryFirst]+branches[BranchFuelCellFirst], 0)
}

func TestDispatchIdempotent(t *testing.T) {
	sc := &sim.Context{Timestep: 3600, Steps: 1}
	for _, pv := range []float64{0, 500, 4000} {
		a, b := newBus(t, 0.4, 0.5), newBus(t, 0.4, 0.5)
		a.pv, b.pv = value(pv), value(pv)
		a.load, b.load = 1500, 1500
		ba, err := a.carrier.Dispatch(sc)
		require.NoError(t, err)
		bb, err := b.carrier.Dispatch(sc)
		require.NoError(t, err)
		assert.Equal(t, ba, bb)
		assert.Equal(t, a.battery.State(), b.battery.State())
		assert.Equal(t, a.storage.StateOfCharge(), b.storage.StateOfCharge())
	}
}

func TestSurplusOrder(t *testing.T) {
	sc := &sim.Context{Timestep: 3600, Steps: 1}
	pv := value(3000)
	bat := &fakeBattery{soc: 0.5, limit: 1000}
	sp := hydrogen.DefaultStorageParams()
	sp.Capacity = 50000
	st, err := hydrogen.NewStorage("h2", sp, nil)
	require.NoError(t, err)
	ep := hydrogen.DefaultElectrolyzerParams()
	ep.PowerNominal = 1500
	ely, err := hydrogen.NewElectrolyzer("ely", ep, st, nil)
	require.NoError(t, err)

	c := NewElectricity("electricity", ElectricityConfig{
		Inputs:       []Flow{&pv},
		Battery:      bat,
		Electrolyzer: ely,
	}, nil)
	bal, err := c.Dispatch(sc)
	require.NoError(t, err)
	assert.Equal(t, BranchSurplus, bal.Branch)
	assert.Equal(t, 1000.0, bal.Battery)
	assert.Equal(t, 2000.0, bal.Power1)
	assert.Equal(t, 1500.0, bal.Electrolyzer)
	assert.Equal(t, 500.0, bal.Power2)
	// no inverter: residual exported as is
	assert.Equal(t, -500.0, bal.Grid)
	assert.Equal(t, 1, bat.calls)
}

func TestDeficitOrderFollowsBatterySoC(t *testing.T) {
	sc := &sim.Context{Timestep: 3600, Steps: 1}
	newFC := func() *hydrogen.FuelCell {
		sp := hydrogen.DefaultStorageParams()
		sp.Capacity = 100000
		sp.InitialSoC = 1
		st, err := hydrogen.NewStorage("h2", sp, nil)
		require.NoError(t, err)
		fp := hydrogen.DefaultFuelCellParams()
		fp.PowerNominal = 1000
		fc, err := hydrogen.NewFuelCell("fc", fp, st, nil)
		require.NoError(t, err)
		return fc
	}
	load := value(1500)

	// charged battery covers first, fuel cell the rest
	bat := &fakeBattery{soc: 0.8, limit: 1000}
	c := NewElectricity("electricity", ElectricityConfig{Outputs: []Flow{&load}, Battery: bat, FuelCell: newFC()}, nil)
	bal, err := c.Dispatch(sc)
	require.NoError(t, err)
	assert.Equal(t, BranchBatteryFirst, bal.Branch)
	assert.Equal(t, -1000.0, bal.Battery)
	assert.Equal(t, 500.0, bal.FuelCell)
	assert.Equal(t, 500.0, bal.FuelCellToBus)
	assert.InDelta(t, 0, bal.Power2, 1e-9)

	// depleted battery: fuel cell first at nominal, battery covers the rest
	bat = &fakeBattery{soc: 0.3, limit: 1000}
	c = NewElectricity("electricity", ElectricityConfig{Outputs: []Flow{&load}, Battery: bat, FuelCell: newFC()}, nil)
	bal, err = c.Dispatch(sc)
	require.NoError(t, err)
	assert.Equal(t, BranchFuelCellFirst, bal.Branch)
	assert.Equal(t, 1000.0, bal.FuelCell)
	assert.Equal(t, -500.0, bal.Power1)
	assert.Equal(t, -500.0, bal.Battery)
	assert.InDelta(t, 0, bal.Power2, 1e-9)
}

func TestFuelCellFirstChargesBatteryWithSurplusShare(t *testing.T) {
	sc := &sim.Context{Timestep: 3600, Steps: 1}
	sp := hydrogen.DefaultStorageParams()
	sp.Capacity = 100000
	sp.InitialSoC = 1
	st, err := hydrogen.NewStorage("h2", sp, nil)
	require.NoError(t, err)
	fp := hydrogen.DefaultFuelCellParams()
	fp.PowerNominal = 1000
	fc, err := hydrogen.NewFuelCell("fc", fp, st, nil)
	require.NoError(t, err)

	load := value(100)
	bat := &fakeBattery{soc: 0.2, limit: 1000}
	c := NewElectricity("electricity", ElectricityConfig{Outputs: []Flow{&load}, Battery: bat, FuelCell: fc}, nil)
	bal, err := c.Dispatch(sc)
	require.NoError(t, err)
	// minimum operating point is 300 W, 200 W go to the battery
	assert.Equal(t, 300.0, bal.FuelCell)
	assert.InDelta(t, 200, bal.Battery, 1e-9)
	assert.InDelta(t, 0, bal.Power2, 1e-9)
}

func TestImportScaledByLoadEfficiency(t *testing.T) {
	sc := &sim.Context{Timestep: 3600, Steps: 1}
	ip := power.DefaultInverterParams()
	ip.PowerNominal = 5000
	inv, err := power.NewInverter("inverter", ip, nil)
	require.NoError(t, err)
	grid := power.NewGrid("grid")
	load := value(2000)
	c := NewElectricity("electricity", ElectricityConfig{Outputs: []Flow{&load}, Inverter: inv, Grid: grid}, nil)
	bal, err := c.Dispatch(sc)
	require.NoError(t, err)
	assert.Less(t, bal.LoadDC, -2000.0)
	assert.Equal(t, BranchBatteryFirst, bal.Branch)
	assert.InDelta(t, -bal.LoadDC*bal.LoadEfficiency, bal.Grid, 1e-9)
	assert.InDelta(t, 2000, grid.Power(), 1e-6)
}

func TestBalancedBusStillAges(t *testing.T) {
	sc := &sim.Context{Timestep: 3600, Steps: 1}
	bat := &fakeBattery{soc: 0.5, limit: 1000}
	c := NewElectricity("electricity", ElectricityConfig{Battery: bat}, nil)
	bal, err := c.Dispatch(sc)
	require.NoError(t, err)
	assert.Equal(t, BranchBalanced, bal.Branch)
	assert.Equal(t, 1, bat.calls)
	assert.Zero(t, bal.Grid)
}

func newHeatParts(t *testing.T, temperature, ambient float64) (*thermal.Storage, *heatpump.HeatPump) {
	t.Helper()
	sp := thermal.DefaultParams()
	sp.Volume = 500
	sp.InitialTemperature = temperature
	st, err := thermal.New("heat_storage", sp, nil)
	require.NoError(t, err)
	hp := heatpump.DefaultParams()
	hp.PowerThermalPeak = 8000
	pump, err := heatpump.New("heat_pump", hp, profile.Constant(ambient), nil)
	require.NoError(t, err)
	return st, pump
}

func TestHeatPumpChargesStorage(t *testing.T) {
	sc := &sim.Context{Timestep: 900, Steps: 1}
	st, pump := newHeatParts(t, 320, 283.15)
	load := value(1000)
	h, err := NewHeat("heat", HeatConfig{Loads: []Flow{&load}, Storage: st, HeatPump: pump}, nil)
	require.NoError(t, err)
	bal, err := h.Dispatch(sc)
	require.NoError(t, err)
	assert.Equal(t, -1000.0, bal.Power0)
	assert.Equal(t, heatpump.On, bal.HeatPump.Mode)
	assert.Greater(t, bal.Power1, 0.0)
	assert.Zero(t, bal.Backup)
	assert.InDelta(t, bal.Power0+bal.Power1, st.Power(), 1e-9)
}

func TestBackupHeaterBelowMinimum(t *testing.T) {
	sc := &sim.Context{Timestep: 3600, Steps: 1}
	st, _ := newHeatParts(t, 309, 283.15)
	load := value(5000)
	h, err := NewHeat("heat", HeatConfig{Loads: []Flow{&load}, Storage: st}, nil)
	require.NoError(t, err)
	bal, err := h.Dispatch(sc)
	require.NoError(t, err)
	assert.Equal(t, 5000.0, bal.Backup)
	assert.Equal(t, 5000.0, h.Backup())
	assert.Zero(t, st.Power())
}

func TestFullStorageRefusesCharge(t *testing.T) {
	sc := &sim.Context{Timestep: 3600, Steps: 1}
	st, _ := newHeatParts(t, 360, 283.15)
	waste := value(1000)
	h, err := NewHeat("heat", HeatConfig{WasteHeat: []Flow{&waste}, Storage: st}, nil)
	require.NoError(t, err)
	bal, err := h.Dispatch(sc)
	require.NoError(t, err)
	assert.True(t, bal.Refused)
	assert.InDelta(t, 950, bal.Power0, 1e-9)
	assert.Zero(t, st.Power())
	assert.Less(t, st.Temperature(), 360.0)
}

func TestCoolingFollowsDemand(t *testing.T) {
	sc := &sim.Context{Timestep: 3600, Steps: 1}
	hp := heatpump.DefaultParams()
	hp.PowerThermalPeak = 8000
	pump, err := heatpump.New("heat_pump_cooling", hp, profile.Constant(303.15), nil)
	require.NoError(t, err)
	load := value(2000)
	c, err := NewCooling("cooling", CoolingConfig{Loads: []Flow{&load}, HeatPump: pump})
	require.NoError(t, err)
	require.NoError(t, c.Step(sc))
	assert.Equal(t, -2000.0, c.Demand())
	assert.Equal(t, heatpump.On, c.Output().Mode)
	assert.InDelta(t, 2000, c.Output().PowerThermal, 1e-9)

	load = 0
	require.NoError(t, c.Step(sc))
	assert.Equal(t, heatpump.Off, c.Output().Mode)
	assert.Zero(t, c.Output().PowerElectric)
}

func TestCoolingRegulatedBySpaceTemperature(t *testing.T) {
	sc := &sim.Context{Timestep: 3600, Steps: 1}
	hp := heatpump.DefaultParams()
	hp.PowerThermalPeak = 8000
	pump, err := heatpump.New("heat_pump_cooling", hp, profile.Constant(303.15), nil)
	require.NoError(t, err)
	load, space := value(2000), value(298)
	c, err := NewCooling("cooling", CoolingConfig{Loads: []Flow{&load}, HeatPump: pump, Space: &space})
	require.NoError(t, err)

	// inside the band the pump stays off
	require.NoError(t, c.Step(sc))
	assert.Equal(t, heatpump.Off, c.Output().Mode)
	space = 300
	require.NoError(t, c.Step(sc))
	assert.Equal(t, heatpump.On, c.Output().Mode)
	assert.Greater(t, c.Output().PowerElectric, 0.0)
}

func TestHydrogenStorageReportsStepExchange(t *testing.T) {
	sc := &sim.Context{Timestep: 3600, Steps: 2}

	b := newBus(t, 1.0, 0.5)
	b.pv, b.load = 4000, 0
	require.NoError(t, b.storage.Step(sc))
	bal, err := b.carrier.Dispatch(sc)
	require.NoError(t, err)
	require.Equal(t, BranchSurplus, bal.Branch)
	h2 := b.ely.Output().HydrogenPower
	require.Greater(t, h2, 0.0)
	assert.InDelta(t, h2, b.storage.Report().Power, 1e-9)

	sc.Time = 1
	b = newBus(t, 0.05, 0.5)
	b.pv, b.load = 0, 1000
	require.NoError(t, b.storage.Step(sc))
	_, err = b.carrier.Dispatch(sc)
	require.NoError(t, err)
	draw := b.fc.Output().HydrogenPower
	require.Less(t, draw, 0.0)
	assert.InDelta(t, draw, b.storage.Report().Power, 1e-9)

	// the next step starts from zero
	sc.Time = 2
	require.NoError(t, b.storage.Step(sc))
	assert.Zero(t, b.storage.Report().Power)
}
