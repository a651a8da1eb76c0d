// Package thermal models a perfectly mixed hot water storage tank.
package thermal

import (
	"math"

	"github.com/kilianp07/hems/core/lifetime"
	"github.com/kilianp07/hems/core/logger"
	"github.com/kilianp07/hems/core/model"
	"github.com/kilianp07/hems/core/sim"
)

// Tank shape ratios in m per m3 of volume.
const (
	heightPerVolume   = 1.9866
	diameterPerVolume = 0.8118
	// sizingReference is the temperature in K the nominal energy is counted from.
	sizingReference = 298.15
)

// Params describes a heat storage tank. Temperatures are in K.
type Params struct {
	Volume                  float64 `json:"volume" yaml:"volume"` // l
	Density                 float64 `json:"density" yaml:"density"`
	SpecificHeat            float64 `json:"specific_heat" yaml:"specific_heat"`
	HeatTransferCoefficient float64 `json:"heat_transfer_coefficient" yaml:"heat_transfer_coefficient"`
	RoomTemperature         float64 `json:"room_temperature" yaml:"room_temperature"`
	InitialTemperature      float64 `json:"initial_temperature" yaml:"initial_temperature"`
	TemperatureMinimum      float64 `json:"temperature_minimum" yaml:"temperature_minimum"`
	TemperatureMaximum      float64 `json:"temperature_maximum" yaml:"temperature_maximum"`
	EndOfLife               float64 `json:"end_of_life" yaml:"end_of_life"` // s
}

// DefaultParams returns an unsized tank filled with a water glycol mix.
func DefaultParams() Params {
	return Params{
		Density:                 1060,
		SpecificHeat:            4182,
		HeatTransferCoefficient: 0.4,
		RoomTemperature:         293.15,
		InitialTemperature:      323.15,
		TemperatureMinimum:      308.15,
		TemperatureMaximum:      358.15,
		EndOfLife:               630720000,
	}
}

// Validate checks the parameters.
func (p Params) Validate() error {
	switch {
	case p.Volume < 0:
		return model.NewConfigurationError("heat_storage", "volume", p.Volume, "must not be negative")
	case p.Density <= 0:
		return model.NewConfigurationError("heat_storage", "density", p.Density, "must be positive")
	case p.SpecificHeat <= 0:
		return model.NewConfigurationError("heat_storage", "specific_heat", p.SpecificHeat, "must be positive")
	case p.HeatTransferCoefficient < 0:
		return model.NewConfigurationError("heat_storage", "heat_transfer_coefficient", p.HeatTransferCoefficient, "must not be negative")
	case p.TemperatureMaximum <= p.TemperatureMinimum:
		return model.NewConfigurationError("heat_storage", "temperature_maximum", p.TemperatureMaximum, "must be above temperature_minimum")
	case p.InitialTemperature <= 0:
		return model.NewConfigurationError("heat_storage", "initial_temperature", p.InitialTemperature, "must be positive (K)")
	case p.EndOfLife < 0:
		return model.NewConfigurationError("heat_storage", "end_of_life", p.EndOfLife, "must not be negative")
	}
	return nil
}

// Geometry is the cylinder derived from the volume.
type Geometry struct {
	Volume   float64 // m3
	Height   float64 // m
	Diameter float64 // m
	Surface  float64 // m2
}

// GeometryOf returns the tank geometry for a volume in litres.
func GeometryOf(litres float64) Geometry {
	v := litres / 1000
	h := v * heightPerVolume
	d := v * diameterPerVolume
	return Geometry{
		Volume:   v,
		Height:   h,
		Diameter: d,
		Surface:  h*math.Pi*d + math.Pi*math.Pow(d/2, 2),
	}
}

// Storage is a heat storage bound to a simulation run. Power is positive
// while charging.
type Storage struct {
	sim.Base
	params      Params
	geometry    Geometry
	temperature float64
	power       float64
	loss        float64
	life        *lifetime.Tracker
	log         logger.Logger
}

// New validates p and returns a tank at its initial temperature.
func New(name string, p Params, log logger.Logger) (*Storage, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Volume == 0 {
		return nil, model.NewConfigurationError(name, "volume", 0, "zero sized storage must be pruned")
	}
	return &Storage{
		Base:        sim.Base{ID: name},
		params:      p,
		geometry:    GeometryOf(p.Volume),
		temperature: p.InitialTemperature,
		life:        lifetime.NewCalendar(p.EndOfLife),
		log:         log,
	}, nil
}

// Init restores the initial temperature.
func (s *Storage) Init(*sim.Context) error {
	s.temperature = s.params.InitialTemperature
	s.power, s.loss = 0, 0
	s.life.Reset()
	return nil
}

// Step ages the tank and clears the power exchanged during the last step.
func (s *Storage) Step(sc *sim.Context) error {
	s.power, s.loss = 0, 0
	s.life.Step(sc, true)
	if s.life.Replaced() && s.log != nil {
		s.log.Infof("%s reached end of life at step %d", s.ID, sc.Time)
	}
	return nil
}

// Size returns the volume in litres.
func (s *Storage) Size() float64 { return s.params.Volume }

// Params returns the storage parameters.
func (s *Storage) Params() Params { return s.params }

// Geometry returns the tank geometry.
func (s *Storage) Geometry() Geometry { return s.geometry }

// Temperature returns the mixed temperature in K.
func (s *Storage) Temperature() float64 { return s.temperature }

// Power returns the net power charged during the current step.
func (s *Storage) Power() float64 { return s.power }

// Loss returns the self discharge power of the current step, negative.
func (s *Storage) Loss() float64 { return s.loss }

// Full reports whether the tank is at or above its maximum temperature.
func (s *Storage) Full() bool { return s.temperature >= s.params.TemperatureMaximum }

// BelowMinimum reports whether the tank is below its minimum temperature.
func (s *Storage) BelowMinimum() bool { return s.temperature < s.params.TemperatureMinimum }

// StateOfCharge maps the temperature onto [0,1] between minimum and maximum.
func (s *Storage) StateOfCharge() float64 {
	p := s.params
	soc := (s.temperature - p.TemperatureMinimum) / (p.TemperatureMaximum - p.TemperatureMinimum)
	return math.Min(1, math.Max(0, soc))
}

// NominalEnergy returns the energy content in Wh between the sizing
// reference and the maximum temperature.
func (s *Storage) NominalEnergy() float64 {
	return s.heatCapacity() * (s.params.TemperatureMaximum - sizingReference) / 3600
}

// Charge adds power (W, discharge negative) for one step.
func (s *Storage) Charge(sc *sim.Context, power float64) {
	s.temperature += power * sc.Timestep / s.heatCapacity()
	s.power += power
}

// SelfDischarge applies the convective loss to the room for one step.
func (s *Storage) SelfDischarge(sc *sim.Context) {
	loss := -s.geometry.Surface * s.params.HeatTransferCoefficient * (s.temperature - s.params.RoomTemperature)
	s.temperature += loss * sc.Timestep / s.heatCapacity()
	s.loss += loss
}

// Replay applies a planned charge power after the self discharge.
func (s *Storage) Replay(sc *sim.Context, power float64) error {
	s.SelfDischarge(sc)
	s.Charge(sc, power)
	return nil
}

// Report returns the per-step view of the tank.
func (s *Storage) Report() model.ComponentState {
	return model.ComponentState{
		Component:          s.ID,
		Power:              s.power,
		StateOfCharge:      s.StateOfCharge(),
		StateOfDestruction: s.life.StateOfDestruction(),
		Replacement:        s.life.Replaced(),
	}
}

// heatCapacity returns the tank heat capacity in J/K.
func (s *Storage) heatCapacity() float64 {
	return s.params.Density * s.geometry.Volume * s.params.SpecificHeat
}
