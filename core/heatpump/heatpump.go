// Package heatpump models an air source heat pump regulated by a two point
// hysteresis, in heating and cooling mode.
package heatpump

import (
	"math"

	"github.com/kilianp07/hems/core/lifetime"
	"github.com/kilianp07/hems/core/logger"
	"github.com/kilianp07/hems/core/model"
	"github.com/kilianp07/hems/core/profile"
	"github.com/kilianp07/hems/core/sim"
)

// Output is what the heat pump publishes for a step. Power is the electrical
// power seen by the bus and is negative while running.
type Output struct {
	Mode          Mode
	Icing         bool
	PowerThermal  float64
	PowerElectric float64
	Power         float64
	COP           float64
	// Adjustment is the ratio of cooling capacity to cooling demand. Zero in
	// heating mode.
	Adjustment float64
}

// HeatPump is a heat pump bound to a simulation run.
type HeatPump struct {
	sim.Base
	params  Params
	curves  CurveSet
	ambient profile.Source
	mode    Mode
	out     Output
	life    *lifetime.Tracker
	log     logger.Logger
}

// New validates p and returns a heat pump in Off mode. ambient is the primary
// (source air) temperature in K.
func New(name string, p Params, ambient profile.Source, log logger.Logger) (*HeatPump, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if ambient == nil {
		return nil, model.NewConfigurationError(name, "ambient", nil, "ambient temperature source required")
	}
	return &HeatPump{
		Base:    sim.Base{ID: name},
		params:  p,
		curves:  p.Curves[p.Speed],
		ambient: ambient,
		life:    lifetime.NewCalendar(p.EndOfLife),
		log:     log,
	}, nil
}

// Init switches the heat pump off and restores its lifetime.
func (h *HeatPump) Init(*sim.Context) error {
	h.mode = Off
	h.out = Output{}
	h.life.Reset()
	return nil
}

// Step ages the heat pump.
func (h *HeatPump) Step(sc *sim.Context) error {
	h.life.Step(sc, true)
	if h.life.Replaced() && h.log != nil {
		h.log.Infof("%s reached end of life at step %d", h.ID, sc.Time)
	}
	return nil
}

// Size returns the peak thermal power.
func (h *HeatPump) Size() float64 { return h.params.PowerThermalPeak }

// Params returns the heat pump parameters.
func (h *HeatPump) Params() Params { return h.params }

// Mode returns the current operation mode.
func (h *HeatPump) Mode() Mode { return h.mode }

// Output returns the values published for the current step.
func (h *HeatPump) Output() Output { return h.out }

// Heat regulates against the storage temperature and computes the heating
// output for the current step.
func (h *HeatPump) Heat(sc *sim.Context, storageTemperature float64) (Output, error) {
	primary := h.ambient.At(sc.Time)
	mode, err := NextMode(h.mode, storageTemperature, h.params.Target, h.params.Hysteresis)
	if err != nil {
		return h.out, err
	}
	h.mode = mode
	if mode == Off {
		h.out = Output{Mode: Off, Icing: primary < h.params.IcingThreshold}
		return h.out, nil
	}
	h.out = h.heating(primary, -1)
	return h.out, nil
}

// Cool serves a cooling demand (negative W). The pump runs whenever demand is
// negative.
func (h *HeatPump) Cool(sc *sim.Context, demand float64) (Output, error) {
	on := demand < 0
	if on {
		h.mode = On
	} else {
		h.mode = Off
	}
	h.out = h.cooling(h.ambient.At(sc.Time), demand)
	return h.out, nil
}

// CoolRegulated serves a cooling demand only while the cooling hysteresis on
// the space temperature holds the pump on.
func (h *HeatPump) CoolRegulated(sc *sim.Context, demand, spaceTemperature float64) (Output, error) {
	mode, err := NextCoolingMode(h.mode, spaceTemperature, h.params.Cooling.Target, h.params.Cooling.Hysteresis)
	if err != nil {
		return h.out, err
	}
	h.mode = mode
	if mode == Off || demand >= 0 {
		h.out = Output{Mode: mode}
		return h.out, nil
	}
	h.out = h.cooling(h.ambient.At(sc.Time), demand)
	return h.out, nil
}

// Replay applies a planned thermal power in heating mode.
func (h *HeatPump) Replay(sc *sim.Context, power float64) error {
	primary := h.ambient.At(sc.Time)
	if power <= 0 {
		h.mode = Off
		h.out = Output{Mode: Off, Icing: primary < h.params.IcingThreshold}
		return nil
	}
	h.mode = On
	h.out = h.heating(primary, power)
	return nil
}

// Report returns the per-step view of the heat pump.
func (h *HeatPump) Report() model.ComponentState {
	return model.ComponentState{
		Component:          h.ID,
		Power:              h.out.Power,
		StateOfDestruction: h.life.StateOfDestruction(),
		Replacement:        h.life.Replaced(),
	}
}

// heating evaluates the curves at the primary temperature. A non negative
// thermal overrides the fitted thermal power.
func (h *HeatPump) heating(primary, thermal float64) Output {
	out := Output{Mode: On, Icing: primary < h.params.IcingThreshold}
	fitted := h.params.scaling() * 1000 * h.curves.Thermal.At(primary, h.params.TemperatureFlow)
	cop := h.curves.COP.At(primary, h.params.TemperatureFlow)
	if thermal < 0 {
		thermal = fitted
	}
	if thermal <= 0 || cop <= 0 || math.IsNaN(cop) {
		return out
	}
	penalty := 1.0
	if out.Icing {
		penalty += h.params.IcingFactor
	}
	out.PowerThermal = thermal
	out.PowerElectric = penalty * thermal / cop
	out.Power = -out.PowerElectric
	out.COP = out.PowerThermal / out.PowerElectric
	return out
}

// cooling scales the theoretical cooling capacity to the demand.
func (h *HeatPump) cooling(primary, demand float64) Output {
	if demand >= 0 {
		return Output{Mode: Off}
	}
	c := h.params.Cooling
	capacity := h.params.scaling() * 1000 * c.Thermal.At(c.TemperatureFlow, primary)
	eer := c.EER.At(c.TemperatureFlow, primary)
	if capacity <= 0 || eer <= 0 {
		return Output{Mode: On}
	}
	adjustment := capacity / math.Abs(demand)
	electric := capacity / eer / adjustment
	return Output{
		Mode:          On,
		PowerThermal:  capacity / adjustment,
		PowerElectric: electric,
		Power:         -electric,
		COP:           eer,
		Adjustment:    adjustment,
	}
}
