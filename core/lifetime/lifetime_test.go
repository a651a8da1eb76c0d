package lifetime

import (
	"testing"

	"github.com/kilianp07/hems/core/sim"
)

func TestCalendarReplacement(t *testing.T) {
	tr := NewCalendar(4 * 3600)
	sc := &sim.Context{Timestep: 3600}
	var replacedAt []int
	for i := 0; i < 10; i++ {
		sc.Time = i
		tr.Step(sc, false)
		if tr.Replaced() {
			replacedAt = append(replacedAt, i)
			if tr.StateOfDestruction() != 0 {
				t.Fatalf("sod not reset at %d", i)
			}
		}
	}
	if len(replacedAt) != 2 || replacedAt[0] != 4 || replacedAt[1] != 8 {
		t.Fatalf("unexpected replacements %v", replacedAt)
	}
}

func TestOperationCountsOnlyOperatingSteps(t *testing.T) {
	tr := NewOperation(10 * 60)
	sc := &sim.Context{Timestep: 60}
	for i := 0; i < 5; i++ {
		sc.Time = i
		tr.Step(sc, i%2 == 0)
	}
	if got := tr.StateOfDestruction(); got != 0.3 {
		t.Fatalf("expected 0.3 got %v", got)
	}
	if tr.Replacements() != 0 {
		t.Fatalf("unexpected replacement")
	}
}

func TestZeroBudgetNeverWears(t *testing.T) {
	tr := NewCalendar(0)
	sc := &sim.Context{Timestep: 60, Time: 100}
	tr.Step(sc, true)
	if tr.StateOfDestruction() != 0 || tr.Replaced() {
		t.Fatalf("expected no wear")
	}
}
