package stream

import (
	"io"

	"github.com/dudk/timbre/param"
	"github.com/dudk/timbre/registry"
	"github.com/dudk/timbre/standard"
)

// Wrapper adapts standard algorithm to streaming execution. Every step
// consumes one token from each input and pushes one token to each output.
type Wrapper struct {
	Base
	algorithm standard.Algorithm
}

// Wrap creates streaming algorithm around standard one.
func Wrap(d registry.Descriptor, a standard.Algorithm) *Wrapper {
	w := &Wrapper{algorithm: a}
	w.Init(w, d)
	return w
}

// WrapConstructor returns streaming constructor for standard constructor.
func WrapConstructor(c registry.Constructor[standard.Algorithm]) registry.Constructor[Algorithm] {
	return func(d registry.Descriptor) Algorithm {
		return Wrap(d, c(d))
	}
}

// Configure configures wrapped algorithm.
func (w *Wrapper) Configure(p param.Set) error {
	return w.algorithm.Configure(p)
}

// Reset resets wrapped algorithm.
func (w *Wrapper) Reset() {
	w.algorithm.Reset()
}

// Close closes wrapped algorithm if it holds resources.
func (w *Wrapper) Close() error {
	if c, ok := w.algorithm.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Unwrap returns wrapped standard algorithm.
func (w *Wrapper) Unwrap() standard.Algorithm {
	return w.algorithm
}

// Process calls wrapped algorithm with tokens from inputs.
func (w *Wrapper) Process() (Status, error) {
	for _, s := range w.inputs {
		if !s.optional && !s.HasToken() {
			return NoInput, nil
		}
	}
	in := make(standard.Inputs, len(w.inputs))
	for _, s := range w.inputs {
		if !s.HasToken() {
			continue
		}
		v, err := s.Pop()
		if err != nil {
			return NoInput, err
		}
		in[s.name] = v
	}
	out, err := w.algorithm.Compute(in)
	if err != nil {
		return Finished, err
	}
	pushed := false
	for _, s := range w.outputs {
		if v, ok := out[s.name]; ok {
			s.Push(v)
			pushed = true
		}
	}
	if !pushed {
		return NoOutput, nil
	}
	return Continue, nil
}
