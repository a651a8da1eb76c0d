package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	coremetrics "github.com/kilianp07/hems/core/metrics"
	"github.com/kilianp07/hems/core/model"
	"github.com/kilianp07/hems/internal/eventbus"
)

type replacementSink struct {
	coremetrics.NopSink
	mu  sync.Mutex
	got []model.Replacement
}

func (r *replacementSink) RecordReplacement(ev model.Replacement) error {
	r.mu.Lock()
	r.got = append(r.got, ev)
	r.mu.Unlock()
	return nil
}

func (r *replacementSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.got)
}

func TestStartEventCollector(t *testing.T) {
	bus := eventbus.NewTyped[model.Replacement]()
	sink := &replacementSink{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := StartEventCollector(ctx, bus, sink)
	bus.Publish(model.Replacement{RunID: "r", Component: "battery", Step: 4})

	deadline := time.After(time.Second)
	for sink.count() == 0 {
		select {
		case <-deadline:
			t.Fatalf("replacement not recorded")
		case <-time.After(5 * time.Millisecond):
		}
	}
	bus.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("collector did not stop after bus close")
	}
	if sink.got[0].Component != "battery" || sink.got[0].Step != 4 {
		t.Fatalf("unexpected event %+v", sink.got[0])
	}
}

func TestStartEventCollector_NoRecorder(t *testing.T) {
	bus := eventbus.NewTyped[model.Replacement]()
	done := StartEventCollector(context.Background(), bus, noStepsOnly{})
	select {
	case <-done:
	default:
		t.Fatalf("collector should not start for sinks without replacements")
	}
}

type noStepsOnly struct{}

func (noStepsOnly) RecordStep(coremetrics.StepEvent) error { return nil }
