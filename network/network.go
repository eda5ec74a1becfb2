/*
Package network builds and runs graphs of streaming algorithms.

Network is rooted at a generator, an algorithm without required inputs.
Visible graph contains algorithms as they were connected by the caller.
Execution graph replaces composite algorithms with their primitives and is
scheduled in deterministic topological order.

Execution is single-threaded and cooperative. Every RunStep calls each
algorithm once at most, algorithms without pending input are skipped.
Stop takes effect at the start of the next step.
*/
package network

import (
	"fmt"
	"io"
	"strings"

	"github.com/dudk/timbre"
	"github.com/dudk/timbre/log"
	"github.com/dudk/timbre/metric"
	"github.com/dudk/timbre/param"
	"github.com/dudk/timbre/pool"
	"github.com/dudk/timbre/registry"
	"github.com/dudk/timbre/stream"
)

// State of network.
type State int

// Network states.
const (
	// Empty network has no execution graph.
	Empty State = iota
	// Built network is ready to run.
	Built
	// Running network was prepared and is being stepped.
	Running
	// Drained network has processed all tokens.
	Drained
)

func (s State) String() string {
	switch s {
	case Empty:
		return "Empty"
	case Built:
		return "Built"
	case Running:
		return "Running"
	case Drained:
		return "Drained"
	}
	return "Unknown"
}

type (
	// Network is a graph of connected streaming algorithms.
	Network struct {
		uid   string
		log   log.Logger
		state State
		// dirty is set when connections changed after build.
		dirty bool
		// shouldStop is accessed atomically.
		shouldStop int32
		// writeErr is the first pool write failure of current run.
		writeErr error

		generator stream.Algorithm
		// owned instances are created by network and closed on Clear.
		owned   []stream.Algorithm
		visible []*Node
		order   []*runner
		// meters survive rebuilds, so every instance is counted once.
		meters map[stream.Algorithm]metric.ResetFunc
	}

	// Node is a node of visible graph.
	Node struct {
		algorithm stream.Algorithm
		children  []*Node
	}

	// Option provides a way to set functional parameters to network.
	Option func(*Network) error
)

// WithLogger sets network logger.
func WithLogger(l log.Logger) Option {
	return func(n *Network) error {
		if l == nil {
			return fmt.Errorf("%w: nil logger", timbre.ErrConfiguration)
		}
		n.log = l
		return nil
	}
}

// New creates empty network.
func New(options ...Option) (*Network, error) {
	n := &Network{
		uid:    timbre.NewUID(),
		log:    log.GetLogger(),
		meters: make(map[stream.Algorithm]metric.ResetFunc),
	}
	for _, option := range options {
		if err := option(n); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// FromGenerator creates network and builds it from provided generator.
// Algorithms are owned by the caller.
func FromGenerator(generator stream.Algorithm, options ...Option) (*Network, error) {
	n, err := New(options...)
	if err != nil {
		return nil, err
	}
	if err := n.Build(generator); err != nil {
		return nil, err
	}
	return n, nil
}

// CreateNode creates algorithm owned by network. It's closed when network
// is cleared. Name of instance is set to provided one if it's not empty.
func (n *Network) CreateNode(r *registry.Registry[stream.Algorithm], algorithm, name string, overrides param.Map) (stream.Algorithm, error) {
	a, err := r.Create(algorithm, overrides)
	if err != nil {
		return nil, err
	}
	if name != "" {
		if named, ok := a.(interface{ SetName(string) }); ok {
			named.SetName(name)
		}
	}
	n.owned = append(n.owned, a)
	return a, nil
}

// Connect connects source to sink.
func (n *Network) Connect(src *stream.Source, sink *stream.Sink) error {
	if err := stream.Connect(src, sink); err != nil {
		return err
	}
	n.changed()
	return nil
}

// Disconnect removes connection between source and sink.
func (n *Network) Disconnect(src *stream.Source, sink *stream.Sink) error {
	if err := stream.Disconnect(src, sink); err != nil {
		return err
	}
	n.changed()
	return nil
}

// ConnectToPool connects source to pool descriptor.
func (n *Network) ConnectToPool(src *stream.Source, p *pool.Pool, name string) error {
	if err := stream.ConnectToPool(src, p, name); err != nil {
		return err
	}
	n.changed()
	return nil
}

// ConnectToPoolSingle connects source to single value pool descriptor.
func (n *Network) ConnectToPoolSingle(src *stream.Source, p *pool.Pool, name string) error {
	if err := stream.ConnectToPoolSingle(src, p, name); err != nil {
		return err
	}
	n.changed()
	return nil
}

// Cap discards tokens of source.
func (n *Network) Cap(src *stream.Source) {
	stream.Cap(src)
	n.changed()
}

// DisconnectAll removes every connection of algorithm ports. Algorithm
// itself stays in network.
func (n *Network) DisconnectAll(a stream.Algorithm) {
	for _, s := range a.Inputs() {
		s.DisconnectAll()
	}
	for _, s := range a.Outputs() {
		s.DisconnectAll()
	}
	n.changed()
}

func (n *Network) changed() {
	if n.state != Empty {
		n.dirty = true
	}
}

// Build collects algorithms reachable from generator and derives their
// execution order.
func (n *Network) Build(generator stream.Algorithm) error {
	if generator == nil {
		return fmt.Errorf("%w: nil generator", timbre.ErrMissingGenerator)
	}
	root := stream.Root(generator)
	for _, s := range root.Inputs() {
		if s.Optional() {
			continue
		}
		if s.Source() != nil {
			return fmt.Errorf("%w: %s has connected input %s", timbre.ErrMissingGenerator, root.Name(), s.Name())
		}
		return fmt.Errorf("%w: required input %s is not connected", timbre.ErrGraph, s.FullName())
	}
	visible := discover(root)
	g, err := expand(visible)
	if err != nil {
		return err
	}
	order, err := g.order(stream.Primitives(root))
	if err != nil {
		return err
	}
	runners := make([]*runner, 0, len(order))
	for _, a := range order {
		runners = append(runners, newRunner(a, n.meter(a)))
		for _, s := range a.Outputs() {
			if !s.IsConnected() {
				n.log.Debug(fmt.Sprintf("network %s: output %s is not connected", n.uid, s.FullName()))
			}
		}
	}

	n.generator = root
	n.visible = visible
	n.order = runners
	n.state = Built
	n.dirty = false
	n.log.Debug(fmt.Sprintf("network %s: built with order %s", n.uid, n.orderString()))
	return nil
}

// meter returns meter of algorithm, it's created on first build.
func (n *Network) meter(a stream.Algorithm) metric.ResetFunc {
	if m, ok := n.meters[a]; ok {
		return m
	}
	m := metric.Meter(a.Descriptor().Name)
	n.meters[a] = m
	return m
}

// Update re-derives execution graph after connections have changed.
func (n *Network) Update() error {
	if n.generator == nil {
		return fmt.Errorf("%w: no generator", timbre.ErrNotBuilt)
	}
	return n.Build(n.generator)
}

// Clear disconnects and closes owned algorithms and empties network.
func (n *Network) Clear() error {
	var errs timbre.Errors
	for _, a := range n.owned {
		n.DisconnectAll(a)
		if c, ok := a.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", a.Name(), err))
			}
		}
	}
	n.owned = nil
	n.generator = nil
	n.visible = nil
	n.order = nil
	n.meters = make(map[stream.Algorithm]metric.ResetFunc)
	n.writeErr = nil
	n.state = Empty
	n.dirty = false
	return errs.Ret()
}

// FindByName returns algorithm by its instance name. Visible algorithms
// are looked up first, then primitives and created nodes.
func (n *Network) FindByName(name string) (stream.Algorithm, error) {
	for _, node := range n.visible {
		if node.algorithm.Name() == name {
			return node.algorithm, nil
		}
	}
	for _, r := range n.order {
		if r.algorithm.Name() == name {
			return r.algorithm, nil
		}
	}
	for _, a := range n.owned {
		if a.Name() == name {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: node %s", timbre.ErrNotFound, name)
}

// State returns network state.
func (n *Network) State() State {
	return n.state
}

// Generator returns visible root of network.
func (n *Network) Generator() stream.Algorithm {
	return n.generator
}

// VisibleRoot returns root node of visible graph.
func (n *Network) VisibleRoot() *Node {
	if len(n.visible) == 0 {
		return nil
	}
	return n.visible[0]
}

// VisibleNodes returns nodes of visible graph in discovery order.
func (n *Network) VisibleNodes() []*Node {
	return n.visible
}

// ExecutionOrder returns primitive algorithms in the order they are
// processed.
func (n *Network) ExecutionOrder() []stream.Algorithm {
	order := make([]stream.Algorithm, 0, len(n.order))
	for _, r := range n.order {
		order = append(order, r.algorithm)
	}
	return order
}

// String returns edges of visible graph.
func (n *Network) String() string {
	var b strings.Builder
	for _, node := range n.visible {
		fmt.Fprintf(&b, "%s", node.algorithm.Name())
		for i, child := range node.children {
			if i == 0 {
				b.WriteString(" -> ")
			} else {
				b.WriteString(", ")
			}
			b.WriteString(child.algorithm.Name())
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (n *Network) orderString() string {
	names := make([]string, 0, len(n.order))
	for _, r := range n.order {
		names = append(names, r.algorithm.Name())
	}
	return strings.Join(names, ", ")
}

// Algorithm returns algorithm of node.
func (n *Node) Algorithm() stream.Algorithm {
	return n.algorithm
}

// Children returns nodes connected to outputs of this node.
func (n *Node) Children() []*Node {
	return n.children
}

// discover traverses visible graph from root. Pool connections terminate
// traversal.
func discover(root stream.Algorithm) []*Node {
	nodes := map[stream.Algorithm]*Node{
		root: {algorithm: root},
	}
	visible := []*Node{nodes[root]}
	for i := 0; i < len(visible); i++ {
		node := visible[i]
		for _, sink := range sinksOf(node.algorithm) {
			if sink.Owner() == nil {
				continue
			}
			owner := stream.Root(sink.Owner())
			if owner == node.algorithm {
				continue
			}
			child, ok := nodes[owner]
			if !ok {
				child = &Node{algorithm: owner}
				nodes[owner] = child
				visible = append(visible, child)
			}
			if !containsNode(node.children, child) {
				node.children = append(node.children, child)
			}
		}
	}
	return visible
}

// sinksOf returns sinks connected to algorithm outputs in declaration
// order of connections.
func sinksOf(a stream.Algorithm) []*stream.Sink {
	var sinks []*stream.Sink
	for _, p := range stream.Primitives(a) {
		for _, src := range p.Outputs() {
			sinks = append(sinks, src.Sinks()...)
		}
	}
	sortSinks(sinks)
	return sinks
}

func containsNode(nodes []*Node, n *Node) bool {
	for _, node := range nodes {
		if node == n {
			return true
		}
	}
	return false
}
