package metrics

import (
	"context"

	coremetrics "github.com/kilianp07/hems/core/metrics"
	"github.com/kilianp07/hems/core/model"
	"github.com/kilianp07/hems/infra/logger"
	"github.com/kilianp07/hems/internal/eventbus"
)

// StartEventCollector subscribes to the replacement bus and forwards events
// to sink when it records replacements. It stops when the context is
// canceled or the bus is closed; the returned channel is closed on exit.
func StartEventCollector(ctx context.Context, bus *eventbus.TypedBus[model.Replacement], sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	rec, ok := sink.(coremetrics.ReplacementRecorder)
	if bus == nil || !ok {
		close(done)
		return done
	}
	log := logger.New("event-collector")
	sub := bus.SubscribeBuffered(64)
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := rec.RecordReplacement(ev); err != nil {
					log.Warnf("record replacement of %s: %v", ev.Component, err)
				}
			}
		}
	}()
	return done
}
