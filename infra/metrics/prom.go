package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/hems/core/metrics"
	"github.com/kilianp07/hems/core/model"
)

// PromSink exposes the latest simulation step as Prometheus gauges.
type PromSink struct {
	power        *prometheus.GaugeVec
	soc          *prometheus.GaugeVec
	sod          *prometheus.GaugeVec
	flows        *prometheus.GaugeVec
	summary      *prometheus.GaugeVec
	replacements *prometheus.CounterVec
	steps        prometheus.Counter
}

// NewPromSink registers simulation metrics on the default Prometheus
// registerer. The HTTP endpoint is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		power: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hems_component_power_watts",
			Help: "Power of a component at the last simulated step, positive when feeding the bus",
		}, []string{"component"}),
		soc: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hems_component_state_of_charge_ratio",
			Help: "State of charge of a storage component",
		}, []string{"component"}),
		sod: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hems_component_state_of_destruction_ratio",
			Help: "Consumed share of a component lifetime",
		}, []string{"component"}),
		flows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hems_bus_flow_watts",
			Help: "Named bus quantities at the last simulated step",
		}, []string{"flow"}),
		summary: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hems_run_summary",
			Help: "Key figures of the last finished run",
		}, []string{"key"}),
		replacements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hems_component_replacements_total",
			Help: "Number of component replacements",
		}, []string{"component"}),
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hems_steps_total",
			Help: "Number of simulated steps",
		}),
	}

	var err error
	if s.power, err = register(reg, s.power); err != nil {
		return nil, err
	}
	if s.soc, err = register(reg, s.soc); err != nil {
		return nil, err
	}
	if s.sod, err = register(reg, s.sod); err != nil {
		return nil, err
	}
	if s.flows, err = register(reg, s.flows); err != nil {
		return nil, err
	}
	if s.summary, err = register(reg, s.summary); err != nil {
		return nil, err
	}
	if s.replacements, err = register(reg, s.replacements); err != nil {
		return nil, err
	}
	if s.steps, err = register(reg, s.steps); err != nil {
		return nil, err
	}
	return s, nil
}

// register adds c to reg, reusing an identical collector registered earlier.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordStep sets the gauges to the state of the step.
func (s *PromSink) RecordStep(ev coremetrics.StepEvent) error {
	for _, c := range ev.Components {
		s.power.WithLabelValues(c.Component).Set(c.Power)
		s.soc.WithLabelValues(c.Component).Set(c.StateOfCharge)
		s.sod.WithLabelValues(c.Component).Set(c.StateOfDestruction)
	}
	for name, v := range ev.Flows {
		s.flows.WithLabelValues(name).Set(v)
	}
	s.steps.Inc()
	return nil
}

// RecordReplacement counts a component replacement.
func (s *PromSink) RecordReplacement(ev model.Replacement) error {
	s.replacements.WithLabelValues(ev.Component).Inc()
	return nil
}

// RecordSummary exposes the figures of a finished run.
func (s *PromSink) RecordSummary(ev coremetrics.SummaryEvent) error {
	for k, v := range ev.Values {
		s.summary.WithLabelValues(k).Set(v)
	}
	return nil
}
