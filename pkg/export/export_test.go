package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/hems/core/model"
)

func sample() []model.StepRecord {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []model.StepRecord{
		{RunID: "r", Step: 0, Time: t0, ComponentState: model.ComponentState{Component: "battery", Power: -250.5, StateOfCharge: 0.5}},
		{RunID: "r", Step: 1, Time: t0.Add(15 * time.Minute), ComponentState: model.ComponentState{Component: "battery", Power: 100, StateOfCharge: 0.48, Replacement: true}},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sample()))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{"r", "0", "2024-01-01T00:00:00Z", "battery", "-250.5", "0.5", "0", "false"}, rows[1])
	assert.Equal(t, "true", rows[2][7])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "json", sample()))
	var got []model.StepRecord
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "battery", got[1].Component)
	assert.True(t, got[1].Replacement)

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestWriteUnsupported(t *testing.T) {
	var fe *UnsupportedFormatError
	err := Write(&bytes.Buffer{}, "xlsx", nil)
	assert.True(t, errors.As(err, &fe))
	assert.Equal(t, "xlsx", fe.Format)
}
