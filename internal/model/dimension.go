package model

import (
	"errors"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Dimension is an analysis aspect proposed by the backend and edited by
// the user before final analysis.
type Dimension struct {
	Name        string   `json:"dimension" yaml:"dimension"`
	Description string   `json:"description" yaml:"description"`
	Keywords    []string `json:"keywords" yaml:"keywords"`
}

// CleanDimensions trims names and keywords and drops unnamed dimensions.
func CleanDimensions(dims []Dimension) []Dimension {
	out := make([]Dimension, 0, len(dims))
	for _, d := range dims {
		d.Name = strings.TrimSpace(d.Name)
		if d.Name == "" {
			continue
		}
		d.Description = strings.TrimSpace(d.Description)
		kw := make([]string, 0, len(d.Keywords))
		for _, k := range d.Keywords {
			if k = strings.TrimSpace(k); k != "" {
				kw = append(kw, k)
			}
		}
		d.Keywords = kw
		out = append(out, d)
	}
	return out
}

// ReadDimensions decodes a YAML list of dimensions.
func ReadDimensions(r io.Reader) ([]Dimension, error) {
	var dims []Dimension
	if err := yaml.NewDecoder(r).Decode(&dims); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "model: decode dimensions")
	}
	return CleanDimensions(dims), nil
}

// WriteDimensions encodes dimensions as a YAML list.
func WriteDimensions(w io.Writer, dims []Dimension) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(dims); err != nil {
		return eris.Wrap(err, "model: encode dimensions")
	}
	return enc.Close()
}
