package profile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

const kelvinOffset = 273.15

// Options controls how a CSV file is mapped onto named series.
type Options struct {
	// Columns maps a series name to a CSV header. Missing entries default to
	// the series name itself.
	Columns map[string]string `json:"columns"`
	// Scale multiplies a series after loading, e.g. 1000 for kW columns.
	Scale map[string]float64 `json:"scale"`
	// Celsius marks temperature columns given in degrees Celsius.
	Celsius bool `json:"celsius"`
}

// Set is a collection of named series.
type Set struct {
	series map[string]Series
}

// NewSet builds a set from in-memory series.
func NewSet(series map[string]Series) *Set {
	s := &Set{series: make(map[string]Series, len(series))}
	for k, v := range series {
		s.series[k] = v
	}
	return s
}

// Has reports whether the named series exists and is not empty.
func (s *Set) Has(name string) bool {
	return s != nil && len(s.series[name]) > 0
}

// Series returns the named series, nil when absent.
func (s *Set) Series(name string) Series {
	if s == nil {
		return nil
	}
	return s.series[name]
}

// Source returns the named series as a Source. An absent series reads as 0.
func (s *Set) Source(name string) Source {
	return s.Series(name)
}

// Names lists the loaded series in lexical order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.series))
	for k := range s.series {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// LoadFile reads a CSV profile file.
func LoadFile(path string, opts Options) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return LoadCSV(f, opts)
}

// LoadCSV reads a CSV document with a header row. Only columns referenced by a
// known series name are kept.
func LoadCSV(r io.Reader, opts Options) (*Set, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty profile file")
		}
		return nil, err
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}
	wanted := map[string]int{}
	for _, name := range []string{PV, Wind, LoadElectricity, LoadHeat, LoadCooling, TemperatureAmbient, TemperatureSpace} {
		col := name
		if c, ok := opts.Columns[name]; ok && c != "" {
			col = c
		}
		if i, ok := index[col]; ok {
			wanted[name] = i
		} else if _, explicit := opts.Columns[name]; explicit {
			return nil, fmt.Errorf("column %q for %s not found", col, name)
		}
	}
	series := make(map[string]Series, len(wanted))
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		for name, i := range wanted {
			if i >= len(rec) {
				return nil, fmt.Errorf("line %d: missing column for %s", line, name)
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d %s: %w", line, name, err)
			}
			series[name] = append(series[name], v)
		}
	}
	for name, s := range series {
		if f, ok := opts.Scale[name]; ok && f != 0 {
			s = s.Scale(f)
		}
		if opts.Celsius && (name == TemperatureAmbient || name == TemperatureSpace) {
			for i := range s {
				s[i] += kelvinOffset
			}
		}
		if !s.Finite() {
			return nil, fmt.Errorf("series %s contains non finite values", name)
		}
		series[name] = s
	}
	return &Set{series: series}, nil
}
