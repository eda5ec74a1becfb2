// Package mock provides mocks of streaming algorithms and allows to execute
// integration tests of networks.
package mock

import (
	"github.com/dudk/timbre"
	"github.com/dudk/timbre/param"
	"github.com/dudk/timbre/registry"
	"github.com/dudk/timbre/stream"
)

// Category of mock algorithms.
const Category = "Mock"

// Generator emits one value per step and finishes when values are over.
type Generator struct {
	stream.Base
	counter
	Values      []interface{}
	ErrorOnCall error
	Hooks
}

// Identity passes tokens from input to output.
type Identity struct {
	stream.Base
	counter
	ErrorOnCall error
	Hooks
}

// Accumulator sums real tokens and emits the total when its input is
// exhausted.
type Accumulator struct {
	stream.Base
	counter
	sum float64
	Hooks
}

// Adder sums tokens of two real inputs. The second input is optional.
type Adder struct {
	stream.Base
	counter
	Hooks
}

// Pair sums tokens of two required real inputs.
type Pair struct {
	stream.Base
	counter
	Hooks
}

// Chain is a composite of two identities.
type Chain struct {
	stream.Composite
	First  *Identity
	Second *Identity
}

// GeneratorDescriptor describes generator of provided type.
func GeneratorDescriptor(t timbre.Type) registry.Descriptor {
	return registry.Descriptor{
		Name:        "MockGenerator",
		Category:    Category,
		Description: "Emits predefined values.",
		Outputs:     []registry.PortSpec{{Name: "out", Type: t}},
	}
}

// IdentityDescriptor describes identity of provided type.
func IdentityDescriptor(t timbre.Type) registry.Descriptor {
	return registry.Descriptor{
		Name:        "MockIdentity",
		Category:    Category,
		Description: "Passes tokens through.",
		Inputs:      []registry.PortSpec{{Name: "in", Type: t}},
		Outputs:     []registry.PortSpec{{Name: "out", Type: t}},
	}
}

// AccumulatorDescriptor describes accumulator.
var AccumulatorDescriptor = registry.Descriptor{
	Name:        "MockAccumulator",
	Category:    Category,
	Description: "Sums tokens.",
	Inputs:      []registry.PortSpec{{Name: "in", Type: timbre.Real}},
	Outputs:     []registry.PortSpec{{Name: "total", Type: timbre.Real}},
}

// AdderDescriptor describes adder.
var AdderDescriptor = registry.Descriptor{
	Name:        "MockAdder",
	Category:    Category,
	Description: "Sums tokens of two inputs.",
	Inputs: []registry.PortSpec{
		{Name: "left", Type: timbre.Real},
		{Name: "right", Type: timbre.Real, Optional: true},
	},
	Outputs: []registry.PortSpec{{Name: "sum", Type: timbre.Real}},
}

// PairDescriptor describes pair.
var PairDescriptor = registry.Descriptor{
	Name:        "MockPair",
	Category:    Category,
	Description: "Sums tokens of two required inputs.",
	Inputs: []registry.PortSpec{
		{Name: "a", Type: timbre.Real},
		{Name: "b", Type: timbre.Real},
	},
	Outputs: []registry.PortSpec{{Name: "out", Type: timbre.Real}},
}

// ChainDescriptor describes chain.
var ChainDescriptor = registry.Descriptor{
	Name:        "MockChain",
	Category:    Category,
	Description: "Two chained identities.",
	Inputs:      []registry.PortSpec{{Name: "in", Type: timbre.Real}},
	Outputs:     []registry.PortSpec{{Name: "out", Type: timbre.Real}},
}

// Register adds real-typed mocks to registry.
func Register(r *registry.Registry[stream.Algorithm]) {
	r.Register(IdentityDescriptor(timbre.Real), func(d registry.Descriptor) stream.Algorithm {
		return newIdentity(d)
	})
	r.Register(AccumulatorDescriptor, func(registry.Descriptor) stream.Algorithm {
		return NewAccumulator()
	})
	r.Register(AdderDescriptor, func(registry.Descriptor) stream.Algorithm {
		return NewAdder()
	})
	r.Register(PairDescriptor, func(registry.Descriptor) stream.Algorithm {
		return NewPair()
	})
	r.Register(ChainDescriptor, func(registry.Descriptor) stream.Algorithm {
		return NewChain()
	})
}

// NewGenerator returns generator of provided values.
func NewGenerator(t timbre.Type, values ...interface{}) *Generator {
	g := &Generator{Values: values}
	g.Init(g, GeneratorDescriptor(t))
	return g
}

// NewIdentity returns identity of provided type.
func NewIdentity(t timbre.Type) *Identity {
	return newIdentity(IdentityDescriptor(t))
}

func newIdentity(d registry.Descriptor) *Identity {
	i := &Identity{}
	i.Init(i, d)
	return i
}

// NewAccumulator returns accumulator.
func NewAccumulator() *Accumulator {
	a := &Accumulator{}
	a.Init(a, AccumulatorDescriptor)
	return a
}

// NewAdder returns adder.
func NewAdder() *Adder {
	a := &Adder{}
	a.Init(a, AdderDescriptor)
	return a
}

// NewPair returns pair.
func NewPair() *Pair {
	p := &Pair{}
	p.Init(p, PairDescriptor)
	return p
}

// NewChain returns chain of two identities.
func NewChain() *Chain {
	c := &Chain{
		First:  NewIdentity(timbre.Real),
		Second: NewIdentity(timbre.Real),
	}
	c.Init(c, ChainDescriptor)
	c.First.SetName("chain.first")
	c.Second.SetName("chain.second")
	c.Adopt(c.First, c.Second)
	out, _ := c.First.Output("out")
	in, _ := c.Second.Input("in")
	// ports are declared above.
	_ = stream.Connect(out, in)
	chainIn, _ := c.First.Input("in")
	chainOut, _ := c.Second.Output("out")
	_ = c.ProxyInput("in", chainIn)
	_ = c.ProxyOutput("out", chainOut)
	return c
}

// Configure implements stream.Algorithm.
func (m *Generator) Configure(param.Set) error {
	return nil
}

// Process emits next value.
func (m *Generator) Process() (stream.Status, error) {
	if m.ErrorOnCall != nil {
		return stream.Finished, m.ErrorOnCall
	}
	if m.calls >= len(m.Values) {
		return stream.Finished, nil
	}
	m.Outputs()[0].Push(m.Values[m.calls])
	m.advance(1)
	if m.calls == len(m.Values) {
		return stream.Finished, nil
	}
	return stream.Continue, nil
}

// Reset implements stream.Algorithm.
func (m *Generator) Reset() {
	m.Resetted = true
	m.reset()
}

// Configure implements stream.Algorithm.
func (m *Identity) Configure(param.Set) error {
	return nil
}

// Process passes a single token.
func (m *Identity) Process() (stream.Status, error) {
	if m.ErrorOnCall != nil {
		return stream.Finished, m.ErrorOnCall
	}
	v, err := m.Inputs()[0].Pop()
	if err != nil {
		return stream.NoInput, nil
	}
	m.Outputs()[0].Push(v)
	m.advance(1)
	return stream.Continue, nil
}

// Reset implements stream.Algorithm.
func (m *Identity) Reset() {
	m.Resetted = true
	m.reset()
}

// Flush implements stream.Flusher.
func (m *Identity) Flush() error {
	m.Flushed = true
	return m.ErrorOnFlush
}

// Configure implements stream.Algorithm.
func (m *Accumulator) Configure(param.Set) error {
	return nil
}

// Process adds a single token to the sum.
func (m *Accumulator) Process() (stream.Status, error) {
	v, err := m.Inputs()[0].Pop()
	if err != nil {
		return stream.NoInput, nil
	}
	m.sum += v.(float64)
	m.advance(1)
	return stream.NoOutput, nil
}

// Flush emits the total.
func (m *Accumulator) Flush() error {
	m.Flushed = true
	if m.ErrorOnFlush != nil {
		return m.ErrorOnFlush
	}
	m.Outputs()[0].Push(m.sum)
	return nil
}

// Reset implements stream.Algorithm.
func (m *Accumulator) Reset() {
	m.Resetted = true
	m.sum = 0
	m.reset()
}

// Configure implements stream.Algorithm.
func (m *Adder) Configure(param.Set) error {
	return nil
}

// Process sums tokens of inputs. Missing optional token counts as zero.
func (m *Adder) Process() (stream.Status, error) {
	left, right := m.Inputs()[0], m.Inputs()[1]
	v, err := left.Pop()
	if err != nil {
		return stream.NoInput, nil
	}
	sum := v.(float64)
	if right.HasToken() {
		v, _ = right.Pop()
		sum += v.(float64)
	}
	m.Outputs()[0].Push(sum)
	m.advance(1)
	return stream.Continue, nil
}

// Reset implements stream.Algorithm.
func (m *Adder) Reset() {
	m.Resetted = true
	m.reset()
}

// Configure implements stream.Algorithm.
func (m *Pair) Configure(param.Set) error {
	return nil
}

// Process sums one token of each input.
func (m *Pair) Process() (stream.Status, error) {
	a, b := m.Inputs()[0], m.Inputs()[1]
	if !a.HasToken() || !b.HasToken() {
		return stream.NoInput, nil
	}
	x, _ := a.Pop()
	y, _ := b.Pop()
	m.Outputs()[0].Push(x.(float64) + y.(float64))
	m.advance(1)
	return stream.Continue, nil
}

// Reset implements stream.Algorithm.
func (m *Pair) Reset() {
	m.Resetted = true
	m.reset()
}

// Configure implements stream.Algorithm.
func (c *Chain) Configure(param.Set) error {
	return nil
}

// Close implements io.Closer.
func (m *Hooks) Close() error {
	m.Closed = true
	return m.ErrorOnClose
}

// Hooks allows to mock algorithm hooks.
type Hooks struct {
	Resetted bool
	Flushed  bool
	Closed   bool

	ErrorOnFlush error
	ErrorOnClose error
}

// counter counts process calls.
type counter struct {
	calls int
}

func (c *counter) advance(n int) {
	c.calls += n
}

func (c *counter) reset() {
	c.calls = 0
}

// Calls returns number of successful process calls since last reset.
func (c *counter) Calls() int {
	return c.calls
}
