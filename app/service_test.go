package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/hems/config"
	"github.com/kilianp07/hems/core/factory"
	coremetrics "github.com/kilianp07/hems/core/metrics"
	coremqtt "github.com/kilianp07/hems/core/mqtt"
	"github.com/kilianp07/hems/core/system"
	"github.com/kilianp07/hems/infra/mqtt"
)

type captureSink struct {
	mu        sync.Mutex
	steps     int
	summaries []coremetrics.SummaryEvent
}

func (c *captureSink) RecordStep(coremetrics.StepEvent) error {
	c.mu.Lock()
	c.steps++
	c.mu.Unlock()
	return nil
}

func (c *captureSink) RecordSummary(ev coremetrics.SummaryEvent) error {
	c.mu.Lock()
	c.summaries = append(c.summaries, ev)
	c.mu.Unlock()
	return nil
}

var capture = &captureSink{}

func init() {
	_ = coremetrics.RegisterMetricsSink("capture", func(map[string]any) (coremetrics.MetricsSink, error) {
		return capture, nil
	})
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	profiles := filepath.Join(dir, "profiles.csv")
	doc := "pv,load_electricity,temperature_ambient\n0,500,5\n1500,600,8\n3000,400,12\n0,800,6\n"
	require.NoError(t, os.WriteFile(profiles, []byte(doc), 0o644))

	cfg := config.Default()
	cfg.Simulation.RunID = "test-run"
	cfg.Simulation.Timestep = time.Hour
	cfg.Simulation.Steps = 8
	cfg.Simulation.Start = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	cfg.Profiles.Path = profiles
	cfg.Profiles.Celsius = true
	cfg.System.Battery.Params.CapacityNominal = 5000
	cfg.System.Battery.Params.InitialSoC = 0.5
	cfg.System.Inverter.Params.PowerNominal = 4000
	cfg.Output.Store.Backend = "jsonl"
	cfg.Output.Store.Path = filepath.Join(dir, "steps.jsonl")
	cfg.Output.Export = filepath.Join(dir, "result.csv")
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "capture"}}
	cfg.Log.Level = "warn"
	return &cfg
}

func TestServiceRun(t *testing.T) {
	cfg := testConfig(t)
	svc, err := New(cfg)
	require.NoError(t, err)
	defer func() { assert.NoError(t, svc.Close()) }()

	assert.Equal(t, "test-run", svc.System().RunID())
	assert.Contains(t, svc.System().Components(), system.NameBattery)

	require.NoError(t, svc.Run(context.Background()))

	capture.mu.Lock()
	require.NotEmpty(t, capture.summaries)
	ev := capture.summaries[len(capture.summaries)-1]
	capture.mu.Unlock()
	assert.Equal(t, "test-run", ev.RunID)
	assert.Equal(t, "myopic", ev.Mode)
	assert.Equal(t, 8, ev.Steps)
	assert.Contains(t, ev.Values, "grid_import_kwh")
	assert.Equal(t, svc.Summary().GridImport, ev.Values["grid_import_kwh"])

	data, err := os.ReadFile(cfg.Output.Export)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.True(t, strings.HasPrefix(lines[0], "run_id,step,time,component"))
	assert.Greater(t, len(lines), 8)

	stored, err := os.ReadFile(cfg.Output.Store.Path)
	require.NoError(t, err)
	assert.Contains(t, string(stored), `"test-run"`)
}

func TestServiceExportJSON(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.Export = filepath.Join(t.TempDir(), "result.json")
	cfg.Output.Format = "json"
	svc, err := New(cfg)
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()
	require.NoError(t, svc.Run(context.Background()))

	data, err := os.ReadFile(cfg.Output.Export)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(string(data)), "["))
}

func TestServiceCanceled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.Export = ""
	svc, err := New(cfg)
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = svc.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewInvalidSystem(t *testing.T) {
	cfg := testConfig(t)
	cfg.System.Battery.Params.BoundaryMode = "cubic"
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestNewMissingPlan(t *testing.T) {
	cfg := testConfig(t)
	cfg.Simulation.Mode = "replay"
	cfg.Simulation.Plan = filepath.Join(t.TempDir(), "missing.json")
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestStopCommand(t *testing.T) {
	pub := mqtt.NewMockPublisher()
	orig := newControl
	newControl = func(mqtt.Config) (mqtt.Publisher, error) { return pub, nil }
	defer func() { newControl = orig }()

	cfg := testConfig(t)
	cfg.MQTT.Broker = "tcp://localhost:1883"
	cfg.MQTT.ControlTopic = "hems/control"
	svc, err := New(cfg)
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	pub.Send(coremqtt.Command{CommandID: "c1", Command: "pause"})
	pub.Send(coremqtt.Command{CommandID: "c2", Command: coremqtt.CommandStop})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.watchControl(ctx, cancel)

	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.Equal(t, []string{"hems/test-run/ack"}, pub.Topics())
	assert.Contains(t, string(pub.Messages[0].Payload), `"c2"`)
}
