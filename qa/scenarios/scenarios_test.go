package scenarios

import (
	"os"
	"path/filepath"
	"testing"
)

func TestScenario(t *testing.T) {
	files, err := filepath.Glob("*.yaml")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("no scenarios found")
	}
	for _, f := range files {
		sc, err := Load(f)
		if err != nil {
			t.Fatalf("load %s: %v", f, err)
		}
		t.Run(sc.Name, func(t *testing.T) {
			RunScenario(t, sc)
		})
	}
}

func TestLoadInvalid(t *testing.T) {
	if _, err := Load("no-file.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
	cases := map[string]string{
		"syntax":   ":",
		"unknown":  "name: x\ntimestep: 60\nsteps: 1\nsystem:\n  battery:\n    size: 3\n",
		"nameless": "timestep: 60\nsteps: 1\n",
		"horizon":  "name: x\ntimestep: 0\nsteps: 1\n",
	}
	for name, doc := range cases {
		path := filepath.Join(t.TempDir(), name+".yaml")
		if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	sc, err := Load("battery_absorbs_surplus.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sc.System.Battery.Params.CapacityNominal != 10000 {
		t.Fatalf("capacity not decoded: %v", sc.System.Battery.Params.CapacityNominal)
	}
	if sc.System.Battery.Params.SoCMax != 0.95 {
		t.Fatalf("default soc_max lost: %v", sc.System.Battery.Params.SoCMax)
	}
}

func TestRange(t *testing.T) {
	r := Range{Min: 0, Max: 1}
	if !r.Contains(0) || !r.Contains(1) || r.Contains(1.01) {
		t.Fatal("range bounds are inclusive")
	}
}
