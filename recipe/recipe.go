/*
Package recipe builds networks from YAML descriptions.

Recipe names algorithm instances, connects their ports and routes outputs
to pool descriptors:

	generator: loader
	nodes:
	  - {name: loader, algorithm: AudioLoader, params: {bufferSize: 1024}}
	  - {name: cutter, algorithm: FrameCutter, params: {frameSize: 1024, hopSize: 512}}
	  - {name: spectrum, algorithm: Spectrum}
	connections:
	  - {from: loader.audio, to: cutter.signal}
	  - {from: cutter.frame, to: spectrum.frame}
	outputs:
	  - {from: spectrum.spectrum, descriptor: lowlevel.spectrum}
	unused: [loader.sampleRate, loader.numberChannels]

Ports are referenced as node.port. Outputs marked single keep only the
last value. Unused outputs are capped.
*/
package recipe

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dudk/timbre"
	"github.com/dudk/timbre/network"
	"github.com/dudk/timbre/param"
	"github.com/dudk/timbre/pool"
	"github.com/dudk/timbre/session"
	"github.com/dudk/timbre/stream"
)

type (
	// Recipe describes a network.
	Recipe struct {
		Generator   string       `yaml:"generator"`
		Nodes       []Node       `yaml:"nodes"`
		Connections []Connection `yaml:"connections"`
		Outputs     []Output     `yaml:"outputs"`
		Unused      []string     `yaml:"unused"`
	}

	// Node is a named algorithm instance.
	Node struct {
		Name      string    `yaml:"name"`
		Algorithm string    `yaml:"algorithm"`
		Params    param.Map `yaml:"params"`
	}

	// Connection connects output to input.
	Connection struct {
		From string `yaml:"from"`
		To   string `yaml:"to"`
	}

	// Output routes output to pool descriptor.
	Output struct {
		From       string `yaml:"from"`
		Descriptor string `yaml:"descriptor"`
		Single     bool   `yaml:"single"`
	}

	// Overrides are parameters which replace recipe parameters, keyed by
	// node name.
	Overrides map[string]param.Map
)

// Parse decodes recipe. Unknown fields are rejected.
func Parse(r io.Reader) (*Recipe, error) {
	d := yaml.NewDecoder(r)
	d.KnownFields(true)
	var rec Recipe
	if err := d.Decode(&rec); err != nil {
		return nil, fmt.Errorf("%w: recipe: %v", timbre.ErrConfiguration, err)
	}
	if err := rec.validate(); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Load reads recipe from file.
func Load(path string) (*Recipe, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(bytes.NewReader(b))
}

func (r *Recipe) validate() error {
	if r.Generator == "" {
		return fmt.Errorf("%w: recipe has no generator", timbre.ErrConfiguration)
	}
	names := make(map[string]struct{}, len(r.Nodes))
	for _, n := range r.Nodes {
		if n.Name == "" || n.Algorithm == "" {
			return fmt.Errorf("%w: node must have name and algorithm", timbre.ErrConfiguration)
		}
		if _, ok := names[n.Name]; ok {
			return fmt.Errorf("%w: duplicate node %s", timbre.ErrConfiguration, n.Name)
		}
		names[n.Name] = struct{}{}
	}
	if _, ok := names[r.Generator]; !ok {
		return fmt.Errorf("%w: generator node %s", timbre.ErrNotFound, r.Generator)
	}
	return nil
}

// Build creates network of session algorithms and connects recipe outputs
// to the pool. Nodes are owned by returned network. Nothing is returned
// if any step fails.
func (r *Recipe) Build(s *session.Session, p *pool.Pool, overrides Overrides) (*network.Network, error) {
	n, err := s.NewNetwork()
	if err != nil {
		return nil, err
	}
	if err := r.build(s, n, p, overrides); err != nil {
		if cerr := n.Clear(); cerr != nil {
			return nil, timbre.Errors{err, cerr}
		}
		return nil, err
	}
	return n, nil
}

func (r *Recipe) build(s *session.Session, n *network.Network, p *pool.Pool, overrides Overrides) error {
	for name := range overrides {
		if r.node(name) == nil {
			return fmt.Errorf("%w: overridden node %s", timbre.ErrNotFound, name)
		}
	}
	nodes := make(map[string]stream.Algorithm, len(r.Nodes))
	for _, node := range r.Nodes {
		params := make(param.Map, len(node.Params)+len(overrides[node.Name]))
		for k, v := range node.Params {
			params[k] = v
		}
		for k, v := range overrides[node.Name] {
			params[k] = v
		}
		a, err := n.CreateNode(s.Streaming, node.Algorithm, node.Name, params)
		if err != nil {
			return fmt.Errorf("node %s: %w", node.Name, err)
		}
		nodes[node.Name] = a
	}

	for _, c := range r.Connections {
		src, err := output(nodes, c.From)
		if err != nil {
			return err
		}
		sink, err := input(nodes, c.To)
		if err != nil {
			return err
		}
		if err := n.Connect(src, sink); err != nil {
			return err
		}
	}
	for _, o := range r.Outputs {
		src, err := output(nodes, o.From)
		if err != nil {
			return err
		}
		if o.Single {
			err = n.ConnectToPoolSingle(src, p, o.Descriptor)
		} else {
			err = n.ConnectToPool(src, p, o.Descriptor)
		}
		if err != nil {
			return err
		}
	}
	for _, u := range r.Unused {
		src, err := output(nodes, u)
		if err != nil {
			return err
		}
		n.Cap(src)
	}
	return n.Build(nodes[r.Generator])
}

func (r *Recipe) node(name string) *Node {
	for i := range r.Nodes {
		if r.Nodes[i].Name == name {
			return &r.Nodes[i]
		}
	}
	return nil
}

// split splits reference at the last dot.
func split(ref string) (string, string, error) {
	i := strings.LastIndex(ref, ".")
	if i <= 0 || i == len(ref)-1 {
		return "", "", fmt.Errorf("%w: port reference %q must be node.port", timbre.ErrConfiguration, ref)
	}
	return ref[:i], ref[i+1:], nil
}

func output(nodes map[string]stream.Algorithm, ref string) (*stream.Source, error) {
	node, port, err := split(ref)
	if err != nil {
		return nil, err
	}
	a, ok := nodes[node]
	if !ok {
		return nil, fmt.Errorf("%w: node %s", timbre.ErrNotFound, node)
	}
	return a.Output(port)
}

func input(nodes map[string]stream.Algorithm, ref string) (*stream.Sink, error) {
	node, port, err := split(ref)
	if err != nil {
		return nil, err
	}
	a, ok := nodes[node]
	if !ok {
		return nil, fmt.Errorf("%w: node %s", timbre.ErrNotFound, node)
	}
	return a.Input(port)
}
