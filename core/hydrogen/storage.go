package hydrogen

import (
	"github.com/kilianp07/hems/core/lifetime"
	"github.com/kilianp07/hems/core/logger"
	"github.com/kilianp07/hems/core/model"
	"github.com/kilianp07/hems/core/sim"
)

// Storage is a hydrogen tank shared by an electrolyzer and a fuel cell.
type Storage struct {
	sim.Base
	params StorageParams
	soc    float64
	socOld float64
	power  float64
	last   float64
	life   *lifetime.Tracker
	log    logger.Logger
}

// NewStorage validates p and returns a tank at its initial state of charge.
func NewStorage(name string, p StorageParams, log logger.Logger) (*Storage, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Capacity == 0 {
		return nil, model.NewConfigurationError(name, "capacity", 0, "zero sized storage must be pruned")
	}
	return &Storage{
		Base:   sim.Base{ID: name},
		params: p,
		soc:    p.InitialSoC,
		socOld: p.InitialSoC,
		life:   lifetime.NewCalendar(p.EndOfLife),
		log:    log,
	}, nil
}

// Init restores the initial state of charge.
func (s *Storage) Init(*sim.Context) error {
	s.soc, s.socOld = s.params.InitialSoC, s.params.InitialSoC
	s.power, s.last = 0, 0
	s.life.Reset()
	return nil
}

// Step ages the tank and clears the power exchanged during the last step.
func (s *Storage) Step(sc *sim.Context) error {
	s.power, s.last = 0, 0
	s.life.Step(sc, true)
	if s.life.Replaced() && s.log != nil {
		s.log.Infof("%s reached end of life at step %d", s.ID, sc.Time)
	}
	return nil
}

// Size returns the capacity.
func (s *Storage) Size() float64 { return s.params.Capacity }

// Capacity returns the capacity in Wh.
func (s *Storage) Capacity() float64 { return s.params.Capacity }

// StateOfCharge returns the current state of charge. It may be negative
// between a draw and its rollback.
func (s *Storage) StateOfCharge() float64 { return s.soc }

// Power returns the net hydrogen power exchanged during the current step,
// charge positive.
func (s *Storage) Power() float64 { return s.power }

// Exchange moves hydrogen power (W, charge positive) in or out for one step.
func (s *Storage) Exchange(sc *sim.Context, power float64) {
	s.socOld = s.soc
	s.last = power
	s.power += power
	s.soc += power / s.params.Capacity * sc.Hours()
}

// Rollback undoes the last exchange.
func (s *Storage) Rollback() {
	s.soc = s.socOld
	s.power -= s.last
	s.last = 0
}

// Replay sets the state of charge from a planned hydrogen power.
func (s *Storage) Replay(sc *sim.Context, power float64) error {
	s.Exchange(sc, power)
	return nil
}

// Report returns the per-step view of the tank.
func (s *Storage) Report() model.ComponentState {
	return model.ComponentState{
		Component:          s.ID,
		Power:              s.power,
		StateOfCharge:      s.soc,
		StateOfDestruction: s.life.StateOfDestruction(),
		Replacement:        s.life.Replaced(),
	}
}
