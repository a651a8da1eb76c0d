package metrics

import (
	"strings"
	"time"

	coremetrics "github.com/kilianp07/hems/core/metrics"
	"github.com/kilianp07/hems/core/model"
	coremqtt "github.com/kilianp07/hems/core/mqtt"
)

// StepMessage is the JSON payload published for each simulated step.
type StepMessage struct {
	RunID      string                 `json:"run_id"`
	Step       int                    `json:"step"`
	Time       time.Time              `json:"time"`
	Components []model.ComponentState `json:"components"`
	Flows      map[string]float64     `json:"flows,omitempty"`
}

// SummaryMessage is the JSON payload published when a run finishes.
type SummaryMessage struct {
	RunID  string             `json:"run_id"`
	Mode   string             `json:"mode"`
	Steps  int                `json:"steps"`
	Values map[string]float64 `json:"values"`
	Time   time.Time          `json:"time"`
}

// MQTTSink publishes step snapshots, replacements and run summaries below a
// topic prefix: <prefix>/<run>/state, <prefix>/<run>/replacement and
// <prefix>/<run>/summary.
type MQTTSink struct {
	pub    coremqtt.Publisher
	prefix string
}

// NewMQTTSink wraps pub. An empty prefix defaults to "hems".
func NewMQTTSink(pub coremqtt.Publisher, prefix string) *MQTTSink {
	if prefix == "" {
		prefix = "hems"
	}
	return &MQTTSink{pub: pub, prefix: strings.TrimSuffix(prefix, "/")}
}

func (s *MQTTSink) topic(run, kind string) string {
	if run == "" {
		return s.prefix + "/" + kind
	}
	return s.prefix + "/" + run + "/" + kind
}

func (s *MQTTSink) RecordStep(ev coremetrics.StepEvent) error {
	return s.pub.Publish(s.topic(ev.RunID, "state"), StepMessage{
		RunID:      ev.RunID,
		Step:       ev.Step,
		Time:       ev.Time,
		Components: ev.Components,
		Flows:      ev.Flows,
	})
}

func (s *MQTTSink) RecordReplacement(ev model.Replacement) error {
	return s.pub.Publish(s.topic(ev.RunID, "replacement"), ev)
}

func (s *MQTTSink) RecordSummary(ev coremetrics.SummaryEvent) error {
	return s.pub.Publish(s.topic(ev.RunID, "summary"), SummaryMessage(ev))
}
