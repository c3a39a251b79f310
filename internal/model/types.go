package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Metadata describes the tensors a model artifact is exported with.
type Metadata struct {
	InputName   string  `json:"input_name"`
	OutputName  string  `json:"output_name"`
	InputShape  []int64 `json:"input_shape"`
	OutputShape []int64 `json:"output_shape"`
}

// FootprintMetadata is the layout of the waste-category model: a 300 step
// single channel series in, one score per category out.
func FootprintMetadata() Metadata {
	return Metadata{
		InputName:   "input",
		OutputName:  "output",
		InputShape:  []int64{1, 300, 1},
		OutputShape: []int64{1, 6},
	}
}

// PowerMetadata is the layout of the power-data model used by the batch
// utility.
func PowerMetadata() Metadata {
	return Metadata{
		InputName:   "input",
		OutputName:  "output",
		InputShape:  []int64{1, 300, 1},
		OutputShape: []int64{1, 300},
	}
}

// LoadMetadata reads a metadata JSON file. Fields missing from the file are
// taken from defaults, and a missing file yields defaults unchanged.
func LoadMetadata(path string, defaults Metadata) (Metadata, error) {
	meta := defaults
	if path == "" {
		return meta, nil
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return meta, nil
	}
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read metadata: %w", err)
	}

	var parsed Metadata
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse metadata: %w", err)
	}
	if parsed.InputName != "" {
		meta.InputName = parsed.InputName
	}
	if parsed.OutputName != "" {
		meta.OutputName = parsed.OutputName
	}
	if len(parsed.InputShape) > 0 {
		meta.InputShape = parsed.InputShape
	}
	if len(parsed.OutputShape) > 0 {
		meta.OutputShape = parsed.OutputShape
	}
	return meta, meta.Validate()
}

func (m Metadata) Validate() error {
	if m.InputName == "" || m.OutputName == "" {
		return errors.New("metadata: tensor names are required")
	}
	if _, err := Elements(m.InputShape); err != nil {
		return fmt.Errorf("metadata: input shape: %w", err)
	}
	if _, err := Elements(m.OutputShape); err != nil {
		return fmt.Errorf("metadata: output shape: %w", err)
	}
	return nil
}

// Elements returns the number of values a tensor of the given shape holds.
func Elements(shape []int64) (int, error) {
	if len(shape) == 0 {
		return 0, errors.New("empty shape")
	}
	n := 1
	for _, dim := range shape {
		if dim <= 0 {
			return 0, fmt.Errorf("invalid dimension %d in %v", dim, shape)
		}
		n *= int(dim)
	}
	return n, nil
}
