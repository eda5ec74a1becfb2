// Package standard defines the contract of synchronous algorithms.
//
// Standard algorithm computes all its outputs from a single set of inputs.
// It's the building block for streaming algorithms too: stream.Wrap adapts
// it to consume one token per input and produce one token per output.
package standard

import (
	"fmt"

	"github.com/dudk/timbre"
	"github.com/dudk/timbre/param"
	"github.com/dudk/timbre/registry"
)

type (
	// Algorithm computes outputs from inputs synchronously.
	Algorithm interface {
		Configure(param.Set) error
		// Reset clears internal history of algorithm.
		Reset()
		Compute(Inputs) (Outputs, error)
	}

	// Inputs maps input names to values.
	Inputs map[string]interface{}

	// Outputs maps output names to values.
	Outputs map[string]interface{}
)

// Compute checks inputs against descriptor, calls algorithm and checks
// produced outputs. It's meant for callers which receive values from
// untyped sources.
func Compute(d registry.Descriptor, a Algorithm, in Inputs) (Outputs, error) {
	for _, spec := range d.Inputs {
		v, ok := in[spec.Name]
		if !ok {
			if spec.Optional {
				continue
			}
			return nil, fmt.Errorf("%w: %s input %s", timbre.ErrNotFound, d.Name, spec.Name)
		}
		if t, _ := timbre.Of(v); t != spec.Type {
			return nil, fmt.Errorf("%w: %s input %s expects %v, got %v", timbre.ErrTypeMismatch, d.Name, spec.Name, spec.Type, t)
		}
	}
	out, err := a.Compute(in)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.Name, err)
	}
	for _, spec := range d.Outputs {
		v, ok := out[spec.Name]
		if !ok {
			continue
		}
		if t, _ := timbre.Of(v); t != spec.Type {
			return nil, fmt.Errorf("%w: %s output %s expects %v, got %v", timbre.ErrTypeMismatch, d.Name, spec.Name, spec.Type, t)
		}
	}
	return out, nil
}
