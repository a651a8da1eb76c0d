// Package power models the AC/DC inverter between the DC bus and the AC
// side, and the public grid connection.
package power

import (
	"math"

	"github.com/kilianp07/hems/core/lifetime"
	"github.com/kilianp07/hems/core/logger"
	"github.com/kilianp07/hems/core/model"
	"github.com/kilianp07/hems/core/sim"
)

// InverterParams holds the dimensionless loss model of an inverter.
type InverterParams struct {
	PowerNominal      float64 `json:"power_nominal" yaml:"power_nominal"` // W
	EfficiencyNominal float64 `json:"efficiency_nominal" yaml:"efficiency_nominal"`
	VoltageLoss       float64 `json:"voltage_loss" yaml:"voltage_loss"`
	ResistanceLoss    float64 `json:"resistance_loss" yaml:"resistance_loss"`
	SelfConsumption   float64 `json:"self_consumption" yaml:"self_consumption"`
	EndOfLife         float64 `json:"end_of_life" yaml:"end_of_life"` // s
}

// DefaultInverterParams returns an unsized generic inverter.
func DefaultInverterParams() InverterParams {
	return InverterParams{
		EfficiencyNominal: 0.951,
		VoltageLoss:       0.009737,
		ResistanceLoss:    0.031432,
		SelfConsumption:   0.002671,
		EndOfLife:         315360000,
	}
}

// Validate checks the parameters.
func (p InverterParams) Validate() error {
	switch {
	case p.PowerNominal < 0:
		return model.NewConfigurationError("inverter", "power_nominal", p.PowerNominal, "must not be negative")
	case p.EfficiencyNominal <= 0 || p.EfficiencyNominal > 1:
		return model.NewConfigurationError("inverter", "efficiency_nominal", p.EfficiencyNominal, "must be within (0,1]")
	case p.ResistanceLoss <= 0:
		return model.NewConfigurationError("inverter", "resistance_loss", p.ResistanceLoss, "must be positive")
	case p.VoltageLoss < 0 || p.SelfConsumption < 0:
		return model.NewConfigurationError("inverter", "voltage_loss", p.VoltageLoss, "loss terms must not be negative")
	case p.EndOfLife < 0:
		return model.NewConfigurationError("inverter", "end_of_life", p.EndOfLife, "must not be negative")
	}
	return nil
}

// Conversion is the result of one pass through the inverter.
type Conversion struct {
	Power      float64
	Efficiency float64
}

// Inverter converts between the DC bus and the AC side. It keeps the
// conversion of the load pass and of the grid pass of the current step.
type Inverter struct {
	sim.Base
	params InverterParams
	load   Conversion
	grid   Conversion
	life   *lifetime.Tracker
	log    logger.Logger
}

// NewInverter validates p and returns an inverter.
func NewInverter(name string, p InverterParams, log logger.Logger) (*Inverter, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Inverter{
		Base:   sim.Base{ID: name},
		params: p,
		life:   lifetime.NewCalendar(p.EndOfLife),
		log:    log,
	}, nil
}

// Init clears both conversions and restores the lifetime.
func (i *Inverter) Init(*sim.Context) error {
	i.load, i.grid = Conversion{}, Conversion{}
	i.life.Reset()
	return nil
}

// Step ages the inverter.
func (i *Inverter) Step(sc *sim.Context) error {
	i.life.Step(sc, true)
	if i.life.Replaced() && i.log != nil {
		i.log.Infof("%s reached end of life at step %d", i.ID, sc.Time)
	}
	return nil
}

// Size returns the nominal power.
func (i *Inverter) Size() float64 { return i.params.PowerNominal }

// Params returns the inverter parameters.
func (i *Inverter) Params() InverterParams { return i.params }

// Output converts DC input power into AC output. Input above nominal is
// capped at nominal.
func (i *Inverter) Output(link float64) Conversion {
	pn := i.params.PowerNominal
	if link == 0 || pn <= 0 {
		return Conversion{}
	}
	v := i.params.VoltageLoss
	r := i.params.ResistanceLoss / i.params.EfficiencyNominal
	s := i.params.SelfConsumption * i.params.EfficiencyNominal
	x := math.Min(1, link/pn)
	eta := -(1+v)/(2*r*x) + math.Sqrt(math.Pow(1+v, 2)/math.Pow(2*r*x, 2)+(x-s)/(r*x*x))
	if eta < 0 || math.IsNaN(eta) {
		return Conversion{}
	}
	return Conversion{Power: x * eta * pn, Efficiency: eta}
}

// Input returns the DC power drawn to deliver an AC output of |link|. The
// returned power is negative.
func (i *Inverter) Input(link float64) Conversion {
	pn := i.params.PowerNominal
	if link == 0 || pn <= 0 {
		return Conversion{}
	}
	x := math.Abs(link) / pn
	eta := x / (x + i.params.SelfConsumption + x*i.params.VoltageLoss + x*x*i.params.ResistanceLoss)
	return Conversion{Power: -(x / eta) * pn, Efficiency: eta}
}

// ConvertLoad runs the load pass for the current step.
func (i *Inverter) ConvertLoad(link float64) Conversion {
	i.load = i.Input(link)
	return i.load
}

// ConvertGrid runs the grid pass for the current step. A non negative
// residual is exported through the inverter; a negative one is imported and
// scaled by the efficiency already assumed for the load pass.
func (i *Inverter) ConvertGrid(residual float64) Conversion {
	if residual >= 0 {
		i.grid = i.Output(residual)
		return i.grid
	}
	eff := i.load.Efficiency
	if eff == 0 {
		eff = 1
	}
	i.grid = Conversion{Power: residual * eff, Efficiency: eff}
	return i.grid
}

// Load returns the load pass of the current step.
func (i *Inverter) Load() Conversion { return i.load }

// Grid returns the grid pass of the current step.
func (i *Inverter) Grid() Conversion { return i.grid }

// Report returns the per-step view of the inverter.
func (i *Inverter) Report() model.ComponentState {
	return model.ComponentState{
		Component:          i.ID,
		Power:              i.grid.Power,
		StateOfDestruction: i.life.StateOfDestruction(),
		Replacement:        i.life.Replaced(),
	}
}
