package scenarios

import (
	"context"
	"math"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kilianp07/hems/core/plan"
	"github.com/kilianp07/hems/core/profile"
	"github.com/kilianp07/hems/core/results"
	"github.com/kilianp07/hems/core/system"
	"github.com/kilianp07/hems/infra/metrics"
)

// RunScenario builds the scenario system with a Prometheus sink, runs it
// and checks the expectations.
func RunScenario(t *testing.T, sc *Scenario) {
	t.Helper()
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}

	series := make(map[string]profile.Series, len(sc.Profiles))
	for name, v := range sc.Profiles {
		series[name] = v
	}
	mode, err := system.ParseMode(sc.Mode)
	if err != nil {
		t.Fatalf("mode: %v", err)
	}
	s, err := system.Build(context.Background(), sc.System, profile.NewSet(series), system.Options{
		RunID:    sc.Name,
		Mode:     mode,
		Plan:     plan.Plan(sc.Plan),
		Timestep: sc.Timestep,
		Steps:    sc.Steps,
		Origin:   time.Unix(0, 0).UTC(),
		Sink:     sink,
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	tab, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	exp := sc.Expected
	if len(exp.Components) > 0 && !slices.Equal(exp.Components, s.Components()) {
		t.Errorf("components: expected %v, got %v", exp.Components, s.Components())
	}
	if len(exp.Grid) > 0 {
		checkSeries(t, "grid", exp.Grid, tab.Flow(results.FlowGrid), exp.Tolerance)
	}
	if exp.FinalBranch != "" && string(s.Balance().Branch) != exp.FinalBranch {
		t.Errorf("final branch: expected %s, got %s", exp.FinalBranch, s.Balance().Branch)
	}
	values := s.Summary().Values()
	for key, r := range exp.Summary {
		v, ok := values[key]
		if !ok {
			t.Errorf("summary has no %s", key)
			continue
		}
		if !r.Contains(v) {
			t.Errorf("summary %s = %v outside [%v, %v]", key, v, r.Min, r.Max)
		}
	}

	steps := `# HELP hems_steps_total Number of simulated steps
# TYPE hems_steps_total counter
hems_steps_total ` + strconv.Itoa(sc.Steps) + "\n"
	if err := testutil.GatherAndCompare(reg, strings.NewReader(steps), "hems_steps_total"); err != nil {
		t.Errorf("steps counter: %v", err)
	}
}

func checkSeries(t *testing.T, name string, want, got []float64, tol float64) {
	t.Helper()
	if len(got) < len(want) {
		t.Errorf("%s: expected %d values, got %d", name, len(want), len(got))
		return
	}
	for i, w := range want {
		if math.Abs(got[i]-w) > tol {
			t.Errorf("%s[%d]: expected %v, got %v", name, i, w, got[i])
		}
	}
}
