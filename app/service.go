// Package app wires a configured simulation run to its outputs.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/hems/config"
	coremetrics "github.com/kilianp07/hems/core/metrics"
	"github.com/kilianp07/hems/core/model"
	coremon "github.com/kilianp07/hems/core/monitoring"
	coremqtt "github.com/kilianp07/hems/core/mqtt"
	"github.com/kilianp07/hems/core/plan"
	"github.com/kilianp07/hems/core/profile"
	"github.com/kilianp07/hems/core/results"
	"github.com/kilianp07/hems/core/store"
	"github.com/kilianp07/hems/core/system"
	"github.com/kilianp07/hems/infra/logger"
	"github.com/kilianp07/hems/infra/metrics"
	"github.com/kilianp07/hems/infra/monitoring"
	"github.com/kilianp07/hems/infra/mqtt"
	"github.com/kilianp07/hems/internal/eventbus"
	"github.com/kilianp07/hems/pkg/export"
)

var newControl = func(cfg mqtt.Config) (mqtt.Publisher, error) {
	return mqtt.NewPahoClient(cfg)
}

// Service runs one simulation and delivers its results to the configured
// store, metrics sinks and export file.
type Service struct {
	cfg     *config.Config
	log     logger.Logger
	sink    coremetrics.MetricsSink
	store   store.Store
	bus     *eventbus.TypedBus[model.Replacement]
	control mqtt.Publisher
	system  *system.System
	summary results.Summary
}

// New creates a Service from the configuration. The component tree is
// assembled here so configuration errors surface before any output opens.
func New(cfg *config.Config) (*Service, error) {
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		return nil, err
	}
	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	s := &Service{cfg: cfg, log: logger.New("service"), bus: eventbus.NewTyped[model.Replacement]()}
	if s.sink, err = coremetrics.NewMetricsSink(cfg.Metrics.Sinks); err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	if s.store, err = store.New(cfg.Output.Store); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	if s.system, err = Assemble(context.Background(), cfg, s.store, s.sink, s.bus); err != nil {
		_ = s.store.Close()
		return nil, err
	}
	if cfg.MQTT.Broker != "" && cfg.MQTT.ControlTopic != "" {
		ctrl := cfg.MQTT
		if ctrl.ClientID != "" {
			ctrl.ClientID += "-control"
		}
		if s.control, err = newControl(ctrl); err != nil {
			_ = s.store.Close()
			return nil, fmt.Errorf("mqtt control: %w", err)
		}
	}
	return s, nil
}

// Assemble loads the profiles and the plan named by cfg and builds the
// system. Nil outputs are replaced by no-op ones.
func Assemble(ctx context.Context, cfg *config.Config, st store.Store, sink coremetrics.MetricsSink, bus *eventbus.TypedBus[model.Replacement]) (*system.System, error) {
	mode, err := system.ParseMode(cfg.Simulation.Mode)
	if err != nil {
		return nil, err
	}
	profiles := profile.NewSet(nil)
	if cfg.Profiles.Path != "" {
		if profiles, err = profile.LoadFile(cfg.Profiles.Path, cfg.Profiles.Options); err != nil {
			return nil, fmt.Errorf("profiles: %w", err)
		}
	}
	var p plan.Plan
	if mode == system.ModeReplay {
		if p, err = plan.LoadFile(cfg.Simulation.Plan); err != nil {
			return nil, fmt.Errorf("plan: %w", err)
		}
	}
	if st == nil {
		st = store.NopStore{}
	}
	if sink == nil {
		sink = coremetrics.NopSink{}
	}
	runID := cfg.Simulation.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	origin := cfg.Simulation.Start
	if origin.IsZero() {
		origin = time.Now().UTC().Truncate(24 * time.Hour)
	}
	return system.Build(ctx, cfg.System, profiles, system.Options{
		RunID:    runID,
		Mode:     mode,
		Plan:     p,
		Timestep: cfg.Simulation.Timestep.Seconds(),
		Steps:    cfg.Simulation.Steps,
		Origin:   origin,
		Store:    st,
		Sink:     sink,
		Bus:      bus,
		Logger:   logger.New,
	})
}

// System returns the assembled system.
func (s *Service) System() *system.System { return s.system }

// Summary returns the summary of the last completed run.
func (s *Service) Summary() results.Summary { return s.summary }

// Run steps the system over the horizon and delivers the results. A stop
// command on the control topic or a canceled context aborts the run.
func (s *Service) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	collected := metrics.StartEventCollector(ctx, s.bus, s.sink)
	if s.control != nil {
		go s.watchControl(ctx, cancel)
	}

	runID := s.system.RunID()
	s.log.Infof("run %s started: mode=%s steps=%d components=%v", runID, s.system.Mode(), s.cfg.Simulation.Steps, s.system.Components())
	table, err := s.system.Run(ctx)
	s.bus.Close()
	<-collected
	if err != nil {
		coremon.CaptureException(err, map[string]string{"module": "simulation", "run_id": runID})
		return errors.Join(err, s.flush())
	}

	s.summary = s.system.Summary()
	s.log.Infof("run %s done: grid import %.2f kWh, export %.2f kWh, self sufficiency %.3f",
		runID, s.summary.GridImport, s.summary.GridExport, s.summary.SelfSufficiency)
	if rec, ok := s.sink.(coremetrics.SummaryRecorder); ok {
		ev := coremetrics.SummaryEvent{
			RunID:  runID,
			Mode:   string(s.system.Mode()),
			Steps:  table.Steps,
			Values: s.summary.Values(),
			Time:   time.Now(),
		}
		if err := rec.RecordSummary(ev); err != nil {
			s.log.Warnf("record summary: %v", err)
		}
	}
	if err := s.export(table); err != nil {
		return errors.Join(err, s.flush())
	}
	return s.flush()
}

func (s *Service) watchControl(ctx context.Context, cancel context.CancelFunc) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-s.control.Commands():
			if cmd.Command != coremqtt.CommandStop {
				s.log.Warnf("ignoring control command %q", cmd.Command)
				continue
			}
			s.log.Infof("stop requested by command %s", cmd.CommandID)
			ack := map[string]string{"command_id": cmd.CommandID, "status": "stopping"}
			if err := s.control.Publish(s.cfg.MQTT.Topic(s.system.RunID(), "ack"), ack); err != nil {
				s.log.Warnf("ack command %s: %v", cmd.CommandID, err)
			}
			cancel()
			return
		}
	}
}

func (s *Service) export(table *results.Table) error {
	path := s.cfg.Output.Export
	if path == "" {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := export.Write(f, s.cfg.Output.Format, table.Records(0, table.Steps)); err != nil {
		_ = f.Close()
		return fmt.Errorf("export %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	s.log.Infof("results written to %s", path)
	return nil
}

func (s *Service) flush() error {
	if f, ok := s.sink.(coremetrics.Flusher); ok {
		return f.Flush()
	}
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.control != nil {
		s.control.Disconnect()
	}
	coremon.Flush(2 * time.Second)
	return s.store.Close()
}
