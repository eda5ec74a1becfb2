package algo

import (
	"fmt"

	"github.com/dudk/timbre"
	"github.com/dudk/timbre/param"
	"github.com/dudk/timbre/registry"
	"github.com/dudk/timbre/stream"
)

// VectorOutputDescriptor describes vector output of tokens of provided
// type. Name is suffixed with the type, e.g. VectorOutputRealVec.
func VectorOutputDescriptor(t timbre.Type) registry.Descriptor {
	return registry.Descriptor{
		Name:        "VectorOutput" + t.String(),
		Category:    Streaming,
		Description: fmt.Sprintf("Collects %s tokens into a vector.", t),
		Inputs:      []registry.PortSpec{{Name: "data", Type: t}},
	}
}

// VectorOutput collects every token of its input. Collected values are
// dropped on reset, so each run starts with an empty vector.
type VectorOutput[T any] struct {
	stream.Base
	data []T
}

// NewVectorOutput returns output of tokens of provided type. T must be
// the Go type of t.
func NewVectorOutput[T any](t timbre.Type) *VectorOutput[T] {
	v := &VectorOutput[T]{}
	v.Init(v, VectorOutputDescriptor(t))
	return v
}

// Configure implements stream.Algorithm.
func (v *VectorOutput[T]) Configure(param.Set) error {
	return nil
}

// Process collects all pending tokens.
func (v *VectorOutput[T]) Process() (stream.Status, error) {
	in := v.Inputs()[0]
	if !in.HasToken() {
		return stream.NoInput, nil
	}
	for in.HasToken() {
		token, _ := in.Pop()
		value, ok := token.(T)
		if !ok {
			return stream.Finished, fmt.Errorf("%w: %s received %T", timbre.ErrTypeMismatch, in.FullName(), token)
		}
		v.data = append(v.data, value)
	}
	return stream.NoOutput, nil
}

// Reset drops collected values.
func (v *VectorOutput[T]) Reset() {
	v.data = nil
}

// Data returns collected values.
func (v *VectorOutput[T]) Data() []T {
	return v.data
}

// registerOutputs adds vector outputs of common types.
func registerOutputs(r *registry.Registry[stream.Algorithm]) {
	r.Register(VectorOutputDescriptor(timbre.Real), func(registry.Descriptor) stream.Algorithm {
		return NewVectorOutput[float64](timbre.Real)
	})
	r.Register(VectorOutputDescriptor(timbre.String), func(registry.Descriptor) stream.Algorithm {
		return NewVectorOutput[string](timbre.String)
	})
	r.Register(VectorOutputDescriptor(timbre.Complex), func(registry.Descriptor) stream.Algorithm {
		return NewVectorOutput[complex128](timbre.Complex)
	})
	r.Register(VectorOutputDescriptor(timbre.RealVec), func(registry.Descriptor) stream.Algorithm {
		return NewVectorOutput[[]float64](timbre.RealVec)
	})
	r.Register(VectorOutputDescriptor(timbre.ComplexVec), func(registry.Descriptor) stream.Algorithm {
		return NewVectorOutput[[]complex128](timbre.ComplexVec)
	})
}
