package results

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Flow names recorded by the system and read by Summarize.
const (
	FlowPV               = "pv"
	FlowWind             = "wind"
	FlowLoad             = "load_electricity"
	FlowGrid             = "grid"
	FlowBackupHeater     = "backup_heater"
	FlowHeatPump         = "heat_pump_electric"
	FlowCooling          = "cooling_electric"
	FlowHydrogenProduced = "hydrogen_produced"
	FlowHydrogenConsumed = "hydrogen_consumed"
)

// Summary holds the key figures of a run. Energies are in kWh.
type Summary struct {
	Steps             int
	GridImport        float64
	GridExport        float64
	PV                float64
	Wind              float64
	Demand            float64
	SelfSufficiency   float64
	BatterySoCMean    float64
	BatterySoCStdDev  float64
	BatteryFullCycles float64
	Replacements      int
	BackupHeat        float64
	HydrogenProduced  float64
	HydrogenConsumed  float64
}

// Summarize derives the run summary from the table. battery names the
// battery component, empty when there is none.
func Summarize(t *Table, battery string) Summary {
	h := t.Timestep / 3600
	kwh := func(v []float64) float64 {
		if len(v) == 0 {
			return 0
		}
		return floats.Sum(v) * h / 1000
	}

	s := Summary{Steps: t.Steps, Replacements: len(t.replacements)}
	grid := t.Flow(FlowGrid)
	s.GridImport = kwh(positive(grid))
	s.GridExport = kwh(positive(negate(grid)))
	s.PV = kwh(t.Flow(FlowPV))
	s.Wind = kwh(t.Flow(FlowWind))
	s.Demand = kwh(t.Flow(FlowLoad)) + kwh(t.Flow(FlowHeatPump)) + kwh(t.Flow(FlowCooling)) + kwh(t.Flow(FlowBackupHeater))
	s.BackupHeat = kwh(t.Flow(FlowBackupHeater))
	s.HydrogenProduced = kwh(t.Flow(FlowHydrogenProduced))
	s.HydrogenConsumed = kwh(t.Flow(FlowHydrogenConsumed))
	if s.Demand > 0 {
		s.SelfSufficiency = math.Max(0, math.Min(1, 1-s.GridImport/s.Demand))
	}

	if b := t.Component(battery); b != nil && len(b.StateOfCharge) > 0 {
		s.BatterySoCMean = stat.Mean(b.StateOfCharge, nil)
		if len(b.StateOfCharge) > 1 {
			s.BatterySoCStdDev = stat.StdDev(b.StateOfCharge, nil)
			diff := make([]float64, len(b.StateOfCharge)-1)
			floats.SubTo(diff, b.StateOfCharge[1:], b.StateOfCharge[:len(b.StateOfCharge)-1])
			s.BatteryFullCycles = floats.Norm(diff, 1) / 2
		}
	}
	return s
}

// Values flattens the summary for metrics sinks.
func (s Summary) Values() map[string]float64 {
	return map[string]float64{
		"grid_import_kwh":       s.GridImport,
		"grid_export_kwh":       s.GridExport,
		"pv_kwh":                s.PV,
		"wind_kwh":              s.Wind,
		"demand_kwh":            s.Demand,
		"self_sufficiency":      s.SelfSufficiency,
		"battery_soc_mean":      s.BatterySoCMean,
		"battery_soc_stddev":    s.BatterySoCStdDev,
		"battery_full_cycles":   s.BatteryFullCycles,
		"replacements":          float64(s.Replacements),
		"backup_heat_kwh":       s.BackupHeat,
		"hydrogen_produced_kwh": s.HydrogenProduced,
		"hydrogen_consumed_kwh": s.HydrogenConsumed,
	}
}

func positive(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = math.Max(0, x)
	}
	return out
}

func negate(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	floats.Scale(-1, out)
	return out
}
