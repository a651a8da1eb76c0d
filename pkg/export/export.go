// Package export writes per-step component records in portable formats.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/hems/core/model"
)

var csvHeader = []string{"run_id", "step", "time", "component", "power_w", "state_of_charge", "state_of_destruction", "replacement"}

// WriteJSON writes the records to w as a JSON array.
func WriteJSON(w io.Writer, records []model.StepRecord) error {
	if records == nil {
		records = []model.StepRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// WriteCSV writes the records to w in long format, one row per component
// and step.
func WriteCSV(w io.Writer, records []model.StepRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		rec := []string{
			r.RunID,
			strconv.Itoa(r.Step),
			r.Time.UTC().Format(time.RFC3339),
			r.Component,
			strconv.FormatFloat(r.Power, 'f', -1, 64),
			strconv.FormatFloat(r.StateOfCharge, 'f', -1, 64),
			strconv.FormatFloat(r.StateOfDestruction, 'f', -1, 64),
			strconv.FormatBool(r.Replacement),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Write dispatches on format: "csv" or "json".
func Write(w io.Writer, format string, records []model.StepRecord) error {
	switch format {
	case "csv":
		return WriteCSV(w, records)
	case "json", "":
		return WriteJSON(w, records)
	default:
		return &UnsupportedFormatError{Format: format}
	}
}

// UnsupportedFormatError is returned by Write for unknown formats.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return "export: unsupported format " + strconv.Quote(e.Format)
}
