package metrics

import (
	"context"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/hems/core/metrics"
	"github.com/kilianp07/hems/core/model"
	"github.com/kilianp07/hems/infra/logger"
)

// InfluxSink writes simulation steps to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordStep writes one component_state point per component and one
// bus_flow point per flow, in a single request.
func (s *InfluxSink) RecordStep(ev coremetrics.StepEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	points := make([]*write.Point, 0, len(ev.Components)+len(ev.Flows))
	for _, c := range ev.Components {
		points = append(points, write.NewPointWithMeasurement("component_state").
			AddTag("run_id", ev.RunID).
			AddTag("component", c.Component).
			AddField("step", ev.Step).
			AddField("power_w", round3(c.Power)).
			AddField("soc", round3(c.StateOfCharge)).
			AddField("sod", round3(c.StateOfDestruction)).
			AddField("replacement", c.Replacement).
			SetTime(ev.Time))
	}
	names := make([]string, 0, len(ev.Flows))
	for name := range ev.Flows {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		points = append(points, write.NewPointWithMeasurement("bus_flow").
			AddTag("run_id", ev.RunID).
			AddTag("flow", name).
			AddField("power_w", round3(ev.Flows[name])).
			SetTime(ev.Time))
	}
	if len(points) == 0 {
		return nil
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

// RecordReplacement persists a component end of life event.
func (s *InfluxSink) RecordReplacement(ev model.Replacement) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("replacement").
		AddTag("run_id", ev.RunID).
		AddTag("component", ev.Component).
		AddField("step", ev.Step).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSummary writes the key figures of a finished run as one point.
func (s *InfluxSink) RecordSummary(ev coremetrics.SummaryEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("run_summary").
		AddTag("run_id", ev.RunID).
		AddTag("mode", ev.Mode).
		AddField("steps", ev.Steps)
	keys := make([]string, 0, len(ev.Values))
	for k := range ev.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		p = p.AddField(k, round3(ev.Values[k]))
	}
	return s.writeAPI.WritePoint(ctx, p.SetTime(ev.Time))
}

// Flush closes the underlying client.
func (s *InfluxSink) Flush() error {
	s.client.Close()
	return nil
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
