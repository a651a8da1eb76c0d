// Package system assembles the component tree of a hybrid energy system and
// runs it, either with the myopic rule based dispatch or by replaying a
// precomputed plan through the same component state machines.
package system

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/kilianp07/hems/core/battery"
	"github.com/kilianp07/hems/core/carrier"
	"github.com/kilianp07/hems/core/heatpump"
	"github.com/kilianp07/hems/core/hydrogen"
	"github.com/kilianp07/hems/core/logger"
	coremetrics "github.com/kilianp07/hems/core/metrics"
	"github.com/kilianp07/hems/core/model"
	"github.com/kilianp07/hems/core/plan"
	"github.com/kilianp07/hems/core/power"
	"github.com/kilianp07/hems/core/profile"
	"github.com/kilianp07/hems/core/results"
	"github.com/kilianp07/hems/core/sim"
	"github.com/kilianp07/hems/core/store"
	"github.com/kilianp07/hems/core/thermal"
	"github.com/kilianp07/hems/internal/eventbus"
)

// Component names used in result tables, plans and metrics.
const (
	NameBattery         = "battery"
	NameElectrolyzer    = "electrolyzer"
	NameFuelCell        = "fuel_cell"
	NameHydrogenStorage = "hydrogen_storage"
	NameHeatPump        = "heat_pump"
	NameCoolingHeatPump = "cooling_heat_pump"
	NameHeatStorage     = "heat_storage"
	NameInverter        = "inverter"
	NameGrid            = "grid"
)

// Mode selects how flexible components are driven.
type Mode string

const (
	ModeMyopic Mode = "myopic"
	ModeReplay Mode = "replay"
)

// ParseMode validates s. An empty string is the myopic mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeMyopic:
		return ModeMyopic, nil
	case ModeReplay:
		return ModeReplay, nil
	}
	return "", model.NewConfigurationError("simulation", "mode", s, "expected myopic or replay")
}

// DefaultAmbientTemperature is used when no ambient temperature series is
// loaded, in K.
const DefaultAmbientTemperature = 283.15

// Options bind a system to one run.
type Options struct {
	RunID    string
	Mode     Mode
	Plan     plan.Plan
	Timestep float64 // s
	Steps    int
	Origin   time.Time

	Store      store.Store
	Sink       coremetrics.MetricsSink
	Bus        *eventbus.TypedBus[model.Replacement]
	FlushEvery int

	// Logger returns the logger of a component. Nil disables logging.
	Logger func(component string) logger.Logger
}

// System is an assembled component tree bound to a clock.
type System struct {
	runID string
	mode  Mode
	clock *sim.Clock
	table *results.Table
	log   logger.Logger

	feeds           map[string]*profile.Feed
	battery         *battery.Battery
	electrolyzer    *hydrogen.Electrolyzer
	fuelCell        *hydrogen.FuelCell
	hydrogenStorage *hydrogen.Storage
	heatPump        *heatpump.HeatPump
	coolingHeatPump *heatpump.HeatPump
	heatStorage     *thermal.Storage
	inverter        *power.Inverter
	grid            *power.Grid

	electricity *carrier.Electricity
	heat        *carrier.Heat
	cooling     *carrier.Cooling
}

// Build resolves cfg and assembles the tree in stepping order: profile
// feeds, leaf components, heat, cooling and electricity carriers, recorder.
// In replay mode the carriers are replaced by a plan replayer. ctx bounds
// store writes of the recorder.
func Build(ctx context.Context, cfg Config, profiles *profile.Set, opts Options) (*System, error) {
	if opts.Mode == "" {
		opts.Mode = ModeMyopic
	}
	if _, err := ParseMode(string(opts.Mode)); err != nil {
		return nil, err
	}
	if opts.Mode == ModeReplay && opts.Plan == nil {
		return nil, model.NewConfigurationError("simulation", "plan", nil, "replay mode requires a plan")
	}
	res, err := cfg.Resolve()
	if err != nil {
		return nil, err
	}
	logFor := func(name string) logger.Logger {
		if opts.Logger == nil {
			return nil
		}
		return opts.Logger(name)
	}

	s := &System{
		runID: opts.RunID,
		mode:  opts.Mode,
		log:   logFor("system"),
		feeds: make(map[string]*profile.Feed),
		table: results.NewTable(opts.RunID, opts.Origin, opts.Timestep, opts.Steps),
	}
	tree := s.buildFeeds(profiles)
	leaves, err := s.buildLeaves(res, logFor)
	if err != nil {
		return nil, err
	}
	tree = append(tree, leaves...)

	switch opts.Mode {
	case ModeReplay:
		tree = append(tree, newReplayer("replayer", opts.Plan, s.replayables(), s.log))
	default:
		carriers, err := s.buildCarriers(profiles, logFor)
		if err != nil {
			return nil, err
		}
		tree = append(tree, carriers...)
	}

	rec, err := results.NewRecorder(ctx, "recorder", results.RecorderConfig{
		Table:      s.table,
		Reporters:  s.reporters(),
		Flows:      s.flows(),
		Store:      opts.Store,
		Sink:       opts.Sink,
		Bus:        opts.Bus,
		FlushEvery: opts.FlushEvery,
	}, logFor("recorder"))
	if err != nil {
		return nil, err
	}
	tree = append(tree, rec)

	s.clock, err = sim.NewClock(opts.Timestep, opts.Steps, opts.Origin, s.log, tree...)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *System) buildFeeds(profiles *profile.Set) []sim.Component {
	var tree []sim.Component
	for _, name := range []string{
		profile.PV, profile.Wind,
		profile.LoadElectricity, profile.LoadHeat, profile.LoadCooling,
		profile.TemperatureAmbient, profile.TemperatureSpace,
	} {
		if !profiles.Has(name) {
			continue
		}
		f := profile.NewFeed(name, profiles.Source(name))
		s.feeds[name] = f
		tree = append(tree, f)
	}
	return tree
}

func (s *System) ambient() profile.Source {
	if f, ok := s.feeds[profile.TemperatureAmbient]; ok {
		return f
	}
	return profile.Constant(DefaultAmbientTemperature)
}

// buildLeaves constructs every sized component. Zero sized ones, and those
// depending on a pruned component, stay nil.
func (s *System) buildLeaves(res Resolved, logFor func(string) logger.Logger) ([]sim.Component, error) {
	var (
		tree []sim.Component
		err  error
	)
	if res.Battery.CapacityNominal > 0 {
		if s.battery, err = battery.New(NameBattery, res.Battery, s.ambient(), logFor(NameBattery)); err != nil {
			return nil, err
		}
		tree = append(tree, s.battery)
	}
	if res.HydrogenStorage.Capacity > 0 {
		if s.hydrogenStorage, err = hydrogen.NewStorage(NameHydrogenStorage, res.HydrogenStorage, logFor(NameHydrogenStorage)); err != nil {
			return nil, err
		}
		tree = append(tree, s.hydrogenStorage)
	}
	if res.Electrolyzer.PowerNominal > 0 || res.FuelCell.PowerNominal > 0 {
		if s.hydrogenStorage == nil {
			s.warnf("hydrogen path pruned: no hydrogen storage sized")
		}
	}
	if res.Electrolyzer.PowerNominal > 0 && s.hydrogenStorage != nil {
		if s.electrolyzer, err = hydrogen.NewElectrolyzer(NameElectrolyzer, res.Electrolyzer, s.hydrogenStorage, logFor(NameElectrolyzer)); err != nil {
			return nil, err
		}
		tree = append(tree, s.electrolyzer)
	}
	if res.FuelCell.PowerNominal > 0 && s.hydrogenStorage != nil {
		if s.fuelCell, err = hydrogen.NewFuelCell(NameFuelCell, res.FuelCell, s.hydrogenStorage, logFor(NameFuelCell)); err != nil {
			return nil, err
		}
		tree = append(tree, s.fuelCell)
	}
	if res.HeatStorage.Volume > 0 {
		if s.heatStorage, err = thermal.New(NameHeatStorage, res.HeatStorage, logFor(NameHeatStorage)); err != nil {
			return nil, err
		}
		tree = append(tree, s.heatStorage)
	}
	if res.HeatPump.PowerThermalPeak > 0 {
		if s.heatStorage == nil {
			s.warnf("heat pump pruned: no heat storage sized")
		} else {
			if s.heatPump, err = heatpump.New(NameHeatPump, res.HeatPump, s.ambient(), logFor(NameHeatPump)); err != nil {
				return nil, err
			}
			tree = append(tree, s.heatPump)
		}
	}
	if res.CoolingHeatPump.PowerThermalPeak > 0 {
		if s.coolingHeatPump, err = heatpump.New(NameCoolingHeatPump, res.CoolingHeatPump, s.ambient(), logFor(NameCoolingHeatPump)); err != nil {
			return nil, err
		}
		tree = append(tree, s.coolingHeatPump)
	}
	if res.Inverter.PowerNominal > 0 {
		if s.inverter, err = power.NewInverter(NameInverter, res.Inverter, logFor(NameInverter)); err != nil {
			return nil, err
		}
		tree = append(tree, s.inverter)
	}
	s.grid = power.NewGrid(NameGrid)
	tree = append(tree, s.grid)
	return tree, nil
}

func (s *System) buildCarriers(profiles *profile.Set, logFor func(string) logger.Logger) ([]sim.Component, error) {
	var tree []sim.Component

	if s.heatStorage != nil {
		cfg := carrier.HeatConfig{Storage: s.heatStorage}
		if s.electrolyzer != nil {
			cfg.WasteHeat = append(cfg.WasteHeat, carrier.FlowFunc(func() float64 { return s.electrolyzer.Output().Heat }))
		}
		if s.fuelCell != nil {
			cfg.WasteHeat = append(cfg.WasteHeat, carrier.FlowFunc(func() float64 { return s.fuelCell.Output().Heat }))
		}
		if f, ok := s.feeds[profile.LoadHeat]; ok {
			cfg.Loads = append(cfg.Loads, f)
		}
		if s.heatPump != nil {
			cfg.HeatPump = s.heatPump
		}
		var err error
		if s.heat, err = carrier.NewHeat("heat", cfg, logFor("heat")); err != nil {
			return nil, err
		}
		tree = append(tree, s.heat)
	} else if profiles.Has(profile.LoadHeat) {
		s.warnf("heat demand ignored: no heat storage sized")
	}

	if s.coolingHeatPump != nil {
		cfg := carrier.CoolingConfig{HeatPump: s.coolingHeatPump}
		if f, ok := s.feeds[profile.LoadCooling]; ok {
			cfg.Loads = append(cfg.Loads, f)
		}
		if f, ok := s.feeds[profile.TemperatureSpace]; ok {
			cfg.Space = f
		}
		var err error
		if s.cooling, err = carrier.NewCooling("cooling", cfg); err != nil {
			return nil, err
		}
		tree = append(tree, s.cooling)
	} else if profiles.Has(profile.LoadCooling) {
		s.warnf("cooling demand ignored: no cooling heat pump sized")
	}

	cfg := carrier.ElectricityConfig{Grid: s.grid}
	for _, name := range []string{profile.PV, profile.Wind} {
		if f, ok := s.feeds[name]; ok {
			cfg.Inputs = append(cfg.Inputs, f)
		}
	}
	if f, ok := s.feeds[profile.LoadElectricity]; ok {
		cfg.Outputs = append(cfg.Outputs, f)
	}
	if s.heatPump != nil {
		cfg.Outputs = append(cfg.Outputs, carrier.FlowFunc(func() float64 { return s.heatPump.Output().PowerElectric }))
	}
	if s.heat != nil {
		cfg.Outputs = append(cfg.Outputs, carrier.FlowFunc(s.heat.Backup))
	}
	if s.cooling != nil {
		cfg.Outputs = append(cfg.Outputs, carrier.FlowFunc(func() float64 { return s.cooling.Output().PowerElectric }))
	}
	// nil pointers must not reach the interfaces
	if s.battery != nil {
		cfg.Battery = s.battery
	}
	if s.electrolyzer != nil {
		cfg.Electrolyzer = s.electrolyzer
	}
	if s.fuelCell != nil {
		cfg.FuelCell = s.fuelCell
	}
	if s.inverter != nil {
		cfg.Inverter = s.inverter
	}
	s.electricity = carrier.NewElectricity("electricity", cfg, logFor("electricity"))
	tree = append(tree, s.electricity)
	return tree, nil
}

func (s *System) reporters() []results.Reporter {
	var out []results.Reporter
	add := func(present bool, r results.Reporter) {
		if present {
			out = append(out, r)
		}
	}
	add(s.battery != nil, s.battery)
	add(s.electrolyzer != nil, s.electrolyzer)
	add(s.fuelCell != nil, s.fuelCell)
	add(s.hydrogenStorage != nil, s.hydrogenStorage)
	add(s.heatPump != nil, s.heatPump)
	add(s.coolingHeatPump != nil, s.coolingHeatPump)
	add(s.heatStorage != nil, s.heatStorage)
	add(s.inverter != nil, s.inverter)
	add(true, s.grid)
	return out
}

func (s *System) flows() []results.Flow {
	var out []results.Flow
	for _, name := range []string{profile.PV, profile.Wind, profile.LoadElectricity} {
		if f, ok := s.feeds[name]; ok {
			out = append(out, results.Flow{Name: name, Value: f.Value})
		}
	}
	out = append(out, results.Flow{Name: results.FlowGrid, Value: s.grid.Power})
	if s.heatPump != nil {
		out = append(out, results.Flow{Name: results.FlowHeatPump, Value: func() float64 { return s.heatPump.Output().PowerElectric }})
	}
	if s.heat != nil {
		out = append(out, results.Flow{Name: results.FlowBackupHeater, Value: s.heat.Backup})
	}
	if s.cooling != nil {
		out = append(out, results.Flow{Name: results.FlowCooling, Value: func() float64 { return s.cooling.Output().PowerElectric }})
	}
	if s.electrolyzer != nil {
		out = append(out, results.Flow{Name: results.FlowHydrogenProduced, Value: func() float64 { return s.electrolyzer.Output().HydrogenPower }})
	}
	if s.fuelCell != nil {
		out = append(out, results.Flow{Name: results.FlowHydrogenConsumed, Value: func() float64 { return math.Abs(s.fuelCell.Output().HydrogenPower) }})
	}
	return out
}

// replayables lists the planned components in replay order.
func (s *System) replayables() []sim.Replayable {
	var out []sim.Replayable
	if s.battery != nil {
		out = append(out, s.battery)
	}
	if s.electrolyzer != nil {
		out = append(out, s.electrolyzer)
	}
	if s.fuelCell != nil {
		out = append(out, s.fuelCell)
	}
	if s.heatPump != nil {
		out = append(out, s.heatPump)
	}
	if s.heatStorage != nil {
		out = append(out, s.heatStorage)
	}
	return append(out, s.grid)
}

func (s *System) warnf(format string, args ...any) {
	if s.log != nil {
		s.log.Warnf(format, args...)
	}
}

// RunID returns the run identifier.
func (s *System) RunID() string { return s.runID }

// Mode returns the run mode.
func (s *System) Mode() Mode { return s.mode }

// Components lists the stepped components in order.
func (s *System) Components() []string {
	names := make([]string, 0, len(s.clock.Components()))
	for _, c := range s.clock.Components() {
		names = append(names, c.Name())
	}
	return names
}

// Table returns the result table.
func (s *System) Table() *results.Table { return s.table }

// Balance returns the electricity balance of the last step, zero in replay
// mode.
func (s *System) Balance() carrier.Balance {
	if s.electricity == nil {
		return carrier.Balance{}
	}
	return s.electricity.Balance()
}

// Run steps the system over the horizon.
func (s *System) Run(ctx context.Context) (*results.Table, error) {
	if err := s.clock.Run(ctx); err != nil {
		return s.table, fmt.Errorf("run %s: %w", s.runID, err)
	}
	return s.table, nil
}

// Summary derives the run summary from the result table.
func (s *System) Summary() results.Summary {
	name := ""
	if s.battery != nil {
		name = NameBattery
	}
	return results.Summarize(s.table, name)
}
