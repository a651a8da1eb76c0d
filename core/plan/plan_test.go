package plan

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtTolerantOfPlaceholders(t *testing.T) {
	p := Plan{"battery": {1, math.NaN(), 3}, "grid": nil}
	assert.Equal(t, 1.0, p.At("battery", 0))
	assert.Zero(t, p.At("battery", 1))
	assert.Zero(t, p.At("battery", 10))
	assert.Zero(t, p.At("battery", -1))
	assert.Zero(t, p.At("grid", 0))
	assert.Zero(t, p.At("fuel_cell", 0))
	assert.Equal(t, 3, p.Len())
	assert.Equal(t, []string{"battery", "grid"}, p.Names())
}

func TestDecodeJSON(t *testing.T) {
	p, err := DecodeJSON(strings.NewReader(`{"battery":[100,-50,null],"electrolyzer":[]}`))
	require.NoError(t, err)
	assert.Equal(t, []float64{100, -50, 0}, p["battery"])
	assert.Empty(t, p["electrolyzer"])
}

func TestDecodeCSV(t *testing.T) {
	p, err := DecodeCSV(strings.NewReader("battery, grid\n10,\n-5,2\n"))
	require.NoError(t, err)
	assert.Equal(t, []float64{10, -5}, p["battery"])
	assert.Equal(t, []float64{0, 2}, p["grid"])

	_, err = DecodeCSV(strings.NewReader("battery\nabc\n"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte("heat_pump: [0, 1500]\n"), 0o600))
	p, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1500.0, p.At("heat_pump", 1))

	_, err = LoadFile(filepath.Join(dir, "plan.txt"))
	assert.Error(t, err)
}
