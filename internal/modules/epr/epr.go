// Package epr loads circuit parameters extracted by an energy-participation
// ratio analysis of a field-solver model.
package epr

import (
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Parameters are the quantities the solver consumes from an EPR run.
// ReducedZPF[i] is the reduced-flux zero-point fluctuation of mode i across
// the junction.
type Parameters struct {
	Lj          float64   `json:"lj" yaml:"lj" validate:"gt=0"`
	Frequencies []float64 `json:"frequencies" yaml:"frequencies" validate:"required,min=1,dive,gt=0"`
	ReducedZPF  []float64 `json:"reduced_zpf" yaml:"reduced_zpf" validate:"required,min=1,dive,gt=0"`
	Variation   int       `json:"variation" yaml:"variation" validate:"gte=0"`
}

// Validate checks field ranges and that every mode has a frequency and a
// zero-point fluctuation.
func (p Parameters) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("epr: invalid parameters: %w", err)
	}
	if len(p.Frequencies) != len(p.ReducedZPF) {
		return fmt.Errorf("epr: %d frequencies for %d zero-point fluctuations", len(p.Frequencies), len(p.ReducedZPF))
	}
	return nil
}

// AncillaMode is the mode with the largest zero-point fluctuation across the
// junction.
func (p Parameters) AncillaMode() int {
	best := 0
	for i, z := range p.ReducedZPF {
		if z > p.ReducedZPF[best] {
			best = i
		}
	}
	return best
}

// AncillaFrequency is the frequency of AncillaMode.
func (p Parameters) AncillaFrequency() float64 {
	return p.Frequencies[p.AncillaMode()]
}

// Decode reads and validates YAML parameters.
func Decode(r io.Reader) (*Parameters, error) {
	var p Parameters
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("epr: decoding parameters: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Load reads parameters from a YAML file.
func Load(path string) (*Parameters, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("epr: %w", err)
	}
	defer f.Close()
	return Decode(f)
}
