// Package params decodes component datasheets. Decoding is strict: a key that
// does not map onto a field of the target struct is a configuration error.
package params

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/hems/core/model"
)

// LoadFile decodes the datasheet at path into out. Fields already set on out
// and absent from the file keep their values.
func LoadFile(path string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if err := Decode(bytes.NewReader(b), format, out); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Decode reads a yaml or json datasheet from r into out.
func Decode(r io.Reader, format string, out any) error {
	var err error
	switch strings.ToLower(format) {
	case "yaml", "yml":
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		err = dec.Decode(out)
	case "json":
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		err = dec.Decode(out)
	default:
		return model.NewConfigurationError("datasheet", "format", format, "expected yaml or json")
	}
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return &model.ConfigurationError{Component: "datasheet", Field: "content", Value: format, Reason: err.Error()}
	}
	return nil
}
