// Package plan holds externally computed dispatch arrays replayed through the
// component state machines.
package plan

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Plan maps a component name to its planned power per step.
type Plan map[string][]float64

// At returns the planned power of name at t. Missing names, indices past the
// end of the array and non finite values read as zero.
func (p Plan) At(name string, t int) float64 {
	values, ok := p[name]
	if !ok || t < 0 || t >= len(values) {
		return 0
	}
	v := values[t]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Names returns the planned components in sorted order.
func (p Plan) Names() []string {
	names := make([]string, 0, len(p))
	for n := range p {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the length of the longest array.
func (p Plan) Len() int {
	var n int
	for _, v := range p {
		n = max(n, len(v))
	}
	return n
}

// LoadFile reads a plan from a .json, .yaml/.yml or .csv file.
func LoadFile(path string) (Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open plan: %w", err)
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return DecodeJSON(f)
	case ".yaml", ".yml":
		return DecodeYAML(f)
	case ".csv":
		return DecodeCSV(f)
	default:
		return nil, fmt.Errorf("unsupported plan format %q", filepath.Ext(path))
	}
}

// DecodeJSON reads {"battery": [...], ...}. Null entries read as zero.
func DecodeJSON(r io.Reader) (Plan, error) {
	var raw map[string][]*float64
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	p := make(Plan, len(raw))
	for name, values := range raw {
		out := make([]float64, len(values))
		for i, v := range values {
			if v != nil {
				out[i] = *v
			}
		}
		p[name] = out
	}
	return p, nil
}

// DecodeYAML reads the same shape as DecodeJSON.
func DecodeYAML(r io.Reader) (Plan, error) {
	var p Plan
	if err := yaml.NewDecoder(r).Decode(&p); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	if p == nil {
		p = Plan{}
	}
	return p, nil
}

// DecodeCSV reads a header row of component names followed by one row per
// step. Empty cells read as zero.
func DecodeCSV(r io.Reader) (Plan, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err == io.EOF {
		return Plan{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read plan header: %w", err)
	}
	p := make(Plan, len(header))
	for _, h := range header {
		p[strings.TrimSpace(h)] = nil
	}
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read plan row %d: %w", row, err)
		}
		for i, cell := range rec {
			name := strings.TrimSpace(header[i])
			var v float64
			if cell = strings.TrimSpace(cell); cell != "" {
				if v, err = strconv.ParseFloat(cell, 64); err != nil {
					return nil, fmt.Errorf("plan row %d column %s: %w", row, name, err)
				}
			}
			p[name] = append(p[name], v)
		}
	}
	return p, nil
}
