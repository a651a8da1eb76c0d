package carrier

import (
	"fmt"
	"math"

	"github.com/kilianp07/hems/core/heatpump"
	"github.com/kilianp07/hems/core/logger"
	"github.com/kilianp07/hems/core/sim"
)

// HeatExchangerEfficiency applies to waste heat recovered from the
// hydrogen path.
const HeatExchangerEfficiency = 0.95

// HeatBalance is the published view of one heat step.
type HeatBalance struct {
	WasteHeat float64
	Load      float64 // negative
	Power0    float64
	// Refused is set when the storage was at its maximum and did not take
	// Power0.
	Refused  bool
	HeatPump heatpump.Output
	Power1   float64
	// Backup is the electric backup heater power, zero unless the storage
	// stayed below its minimum after the heat pump.
	Backup float64
}

// HeatConfig wires the heat bus. Storage is required.
type HeatConfig struct {
	WasteHeat []Flow
	Loads     []Flow
	Storage   HeatStorage
	HeatPump  HeatingPump
}

// Heat is the heat bus.
type Heat struct {
	sim.Base
	cfg     HeatConfig
	balance HeatBalance
	log     logger.Logger
}

// NewHeat returns the heat carrier.
func NewHeat(name string, cfg HeatConfig, log logger.Logger) (*Heat, error) {
	if cfg.Storage == nil {
		return nil, fmt.Errorf("%s: heat storage required", name)
	}
	return &Heat{Base: sim.Base{ID: name}, cfg: cfg, log: log}, nil
}

// Init clears the balance of a previous run.
func (h *Heat) Init(*sim.Context) error {
	h.balance = HeatBalance{}
	return nil
}

// Step dispatches the current step.
func (h *Heat) Step(sc *sim.Context) error {
	b, err := h.Dispatch(sc)
	if err != nil {
		return fmt.Errorf("%s step %d: %w", h.ID, sc.Time, err)
	}
	if b.Backup > 0 && h.log != nil {
		h.log.Debugf("%s: backup heater %.1f W at step %d", h.ID, b.Backup, sc.Time)
	}
	return nil
}

// Balance returns the balance of the current step.
func (h *Heat) Balance() HeatBalance { return h.balance }

// Backup returns the backup heater power of the current step.
func (h *Heat) Backup() float64 { return h.balance.Backup }

// Dispatch charges the storage with the bus residual, runs the heat pump
// against the storage temperature and falls back to the backup heater.
func (h *Heat) Dispatch(sc *sim.Context) (HeatBalance, error) {
	st := h.cfg.Storage
	b := HeatBalance{
		WasteHeat: sum(h.cfg.WasteHeat) * HeatExchangerEfficiency,
		Load:      -sum(h.cfg.Loads),
	}
	b.Power0 = b.WasteHeat + b.Load

	charge := b.Power0
	if st.Full() && charge > 0 {
		b.Refused = true
		charge = 0
	}
	st.SelfDischarge(sc)
	st.Charge(sc, charge)

	if h.cfg.HeatPump != nil {
		out, err := h.cfg.HeatPump.Heat(sc, st.Temperature())
		if err != nil {
			return b, err
		}
		b.HeatPump = out
		b.Power1 = out.PowerThermal
		st.Charge(sc, b.Power1)
	}

	if st.BelowMinimum() {
		b.Backup = math.Abs(b.Power1 + b.Power0)
		st.Charge(sc, b.Backup)
	}
	h.balance = b
	return b, nil
}
