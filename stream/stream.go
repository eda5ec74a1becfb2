// Package stream defines streaming algorithms and typed connectors between
// them.
//
// Streaming algorithm exposes named sinks (inputs) and sources (outputs).
// Source pushes every produced token to all connected sinks and pools
// immediately. Sink keeps pending tokens in FIFO order until its algorithm
// consumes them.
//
// Composite algorithm is a pre-wired set of finer-grained algorithms. Its
// ports are proxies to the ports of its children, so connections made to a
// composite are connections to its children. Networks expand composites
// into children before scheduling.
package stream

import (
	"fmt"

	"github.com/dudk/timbre"
	"github.com/dudk/timbre/param"
	"github.com/dudk/timbre/registry"
)

// Status is a result of a single algorithm step.
type Status int

// Step statuses.
const (
	// Continue means that step consumed inputs and may have produced
	// outputs.
	Continue Status = iota
	// NoInput means that not enough input tokens were available.
	NoInput
	// NoOutput means that step consumed inputs, but produced nothing.
	NoOutput
	// Finished means that algorithm won't produce any more tokens.
	Finished
)

func (s Status) String() string {
	switch s {
	case Continue:
		return "Continue"
	case NoInput:
		return "NoInput"
	case NoOutput:
		return "NoOutput"
	case Finished:
		return "Finished"
	}
	return "Unknown"
}

type (
	// Algorithm is a streaming algorithm. Implementations embed Base and
	// call Init in their constructors.
	Algorithm interface {
		Name() string
		Descriptor() registry.Descriptor
		Inputs() []*Sink
		Outputs() []*Source
		Input(name string) (*Sink, error)
		Output(name string) (*Source, error)
		Parent() Algorithm
		Children() []Algorithm
		Configure(param.Set) error
		// Reset clears internal history of algorithm.
		Reset()
		// Process consumes pending input tokens and pushes produced
		// tokens to sources.
		Process() (Status, error)
		base() *Base
	}

	// Flusher is implemented by algorithms which need to emit remaining
	// tokens when their input is exhausted.
	Flusher interface {
		Flush() error
	}

	// Base holds ports and identity of algorithm.
	Base struct {
		self       Algorithm
		name       string
		descriptor registry.Descriptor
		inputs     []*Sink
		outputs    []*Source
		parent     Algorithm
		children   []Algorithm
	}

	// Composite is a base for algorithms made of pre-wired children. It's
	// never processed itself.
	Composite struct {
		Base
	}
)

// Init declares ports of algorithm according to descriptor. Self must be
// the algorithm which embeds this base.
func (b *Base) Init(self Algorithm, d registry.Descriptor) {
	b.self = self
	b.name = d.Name
	b.descriptor = d
	b.inputs = make([]*Sink, 0, len(d.Inputs))
	for _, spec := range d.Inputs {
		b.inputs = append(b.inputs, newSink(self, spec))
	}
	b.outputs = make([]*Source, 0, len(d.Outputs))
	for _, spec := range d.Outputs {
		b.outputs = append(b.outputs, newSource(self, spec))
	}
}

// Name returns instance name. By default it's the algorithm name.
func (b *Base) Name() string {
	return b.name
}

// SetName changes instance name.
func (b *Base) SetName(name string) {
	b.name = name
}

// Descriptor returns algorithm descriptor.
func (b *Base) Descriptor() registry.Descriptor {
	return b.descriptor
}

// Inputs returns declared sinks in declaration order.
func (b *Base) Inputs() []*Sink {
	return b.inputs
}

// Outputs returns declared sources in declaration order.
func (b *Base) Outputs() []*Source {
	return b.outputs
}

// Input returns sink by its declared name.
func (b *Base) Input(name string) (*Sink, error) {
	for i, spec := range b.descriptor.Inputs {
		if spec.Name == name {
			return b.inputs[i], nil
		}
	}
	return nil, fmt.Errorf("%w: input %s.%s", timbre.ErrNotFound, b.name, name)
}

// Output returns source by its declared name.
func (b *Base) Output(name string) (*Source, error) {
	for i, spec := range b.descriptor.Outputs {
		if spec.Name == name {
			return b.outputs[i], nil
		}
	}
	return nil, fmt.Errorf("%w: output %s.%s", timbre.ErrNotFound, b.name, name)
}

// Parent returns composite algorithm this algorithm belongs to.
func (b *Base) Parent() Algorithm {
	return b.parent
}

// Children returns children of composite algorithm. Leaf algorithms have
// no children.
func (b *Base) Children() []Algorithm {
	return b.children
}

// Reset does nothing by default.
func (b *Base) Reset() {}

func (b *Base) base() *Base {
	return b
}

// Adopt makes provided algorithms children of this one.
func (c *Composite) Adopt(children ...Algorithm) {
	for _, child := range children {
		child.base().parent = c.self
		c.children = append(c.children, child)
	}
}

// ProxyInput exposes child's sink as composite input with provided name.
func (c *Composite) ProxyInput(name string, s *Sink) error {
	for i, spec := range c.descriptor.Inputs {
		if spec.Name == name {
			if spec.Type != s.typ {
				return fmt.Errorf("%w: proxy %s.%s is %v, %s is %v", timbre.ErrTypeMismatch, c.name, name, spec.Type, s.FullName(), s.typ)
			}
			c.inputs[i] = s
			return nil
		}
	}
	return fmt.Errorf("%w: input %s.%s", timbre.ErrNotFound, c.name, name)
}

// ProxyOutput exposes child's source as composite output with provided
// name.
func (c *Composite) ProxyOutput(name string, s *Source) error {
	for i, spec := range c.descriptor.Outputs {
		if spec.Name == name {
			if spec.Type != s.typ {
				return fmt.Errorf("%w: proxy %s.%s is %v, %s is %v", timbre.ErrTypeMismatch, c.name, name, spec.Type, s.FullName(), s.typ)
			}
			c.outputs[i] = s
			return nil
		}
	}
	return fmt.Errorf("%w: output %s.%s", timbre.ErrNotFound, c.name, name)
}

// Process is never called for composites, they are expanded into children.
func (c *Composite) Process() (Status, error) {
	return Finished, nil
}

// IsComposite returns true if algorithm is made of children.
func IsComposite(a Algorithm) bool {
	return len(a.Children()) > 0
}

// IsGenerator returns true if algorithm has no required inputs.
func IsGenerator(a Algorithm) bool {
	for _, s := range a.Inputs() {
		if !s.optional {
			return false
		}
	}
	return true
}

// Primitives returns leaf algorithms of composite in declaration order.
// Leaf algorithm returns itself.
func Primitives(a Algorithm) []Algorithm {
	if !IsComposite(a) {
		return []Algorithm{a}
	}
	var leaves []Algorithm
	for _, child := range a.Children() {
		leaves = append(leaves, Primitives(child)...)
	}
	return leaves
}

// Root returns the outermost composite which contains the algorithm.
func Root(a Algorithm) Algorithm {
	for a.Parent() != nil {
		a = a.Parent()
	}
	return a
}
