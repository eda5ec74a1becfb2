// Package registry provides name-based creation of algorithms.
//
// Registry maps algorithm name to its descriptor and constructor. Algorithms
// are created with default parameters or with overrides validated against
// descriptor's parameter specs. Standard and streaming algorithms are kept in
// separate registries which conventionally share algorithm names.
package registry

import (
	"fmt"
	"sort"

	"github.com/dudk/timbre"
	"github.com/dudk/timbre/log"
	"github.com/dudk/timbre/param"
)

type (
	// Descriptor describes algorithm without constructing it. It must not
	// be modified after registration.
	Descriptor struct {
		Name        string
		Category    string
		Description string
		Parameters  []param.Spec
		Inputs      []PortSpec
		Outputs     []PortSpec
	}

	// PortSpec declares a named input or output. Inputs are required
	// unless Optional is set.
	PortSpec struct {
		Name        string
		Type        timbre.Type
		Optional    bool
		Description string
	}

	// Configurable is the minimal contract of registered algorithms.
	Configurable interface {
		Configure(param.Set) error
	}

	// Constructor creates a fresh, not configured algorithm instance.
	Constructor[A Configurable] func(Descriptor) A

	// Registry holds constructors of a single algorithm flavor. It is
	// expected to be populated at startup and is not safe for concurrent
	// registration and creation.
	Registry[A Configurable] struct {
		entries map[string]entry[A]
		log     log.Logger
	}

	entry[A Configurable] struct {
		descriptor  Descriptor
		constructor Constructor[A]
	}
)

// New returns an empty registry.
func New[A Configurable](logger log.Logger) *Registry[A] {
	if logger == nil {
		logger = log.Silent()
	}
	return &Registry[A]{
		entries: make(map[string]entry[A]),
		log:     logger,
	}
}

// Register associates descriptor name with constructor. Registering the
// same name again replaces previous registration.
func (r *Registry[A]) Register(d Descriptor, c Constructor[A]) {
	if _, ok := r.entries[d.Name]; ok {
		r.log.Debug(fmt.Sprintf("registry: %s registration is replaced", d.Name))
	}
	r.entries[d.Name] = entry[A]{
		descriptor:  d,
		constructor: c,
	}
}

// Create returns new algorithm configured with default parameters and
// provided overrides. If any override fails validation or algorithm fails
// to configure, nothing is returned.
func (r *Registry[A]) Create(name string, overrides param.Map) (A, error) {
	var zero A
	e, ok := r.entries[name]
	if !ok {
		return zero, fmt.Errorf("%w: algorithm %s", timbre.ErrNotFound, name)
	}
	params, err := param.Resolve(e.descriptor.Parameters, overrides)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", name, err)
	}
	a := e.constructor(e.descriptor)
	if err := a.Configure(params); err != nil {
		return zero, fmt.Errorf("%w: %s: %v", timbre.ErrConfiguration, name, err)
	}
	return a, nil
}

// Info returns descriptor of registered algorithm.
func (r *Registry[A]) Info(name string) (Descriptor, bool) {
	e, ok := r.entries[name]
	return e.descriptor, ok
}

// Names returns sorted names of registered algorithms.
func (r *Registry[A]) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns number of registered algorithms.
func (r *Registry[A]) Len() int {
	return len(r.entries)
}

// Input returns input spec by name.
func (d Descriptor) Input(name string) (PortSpec, bool) {
	return findPort(d.Inputs, name)
}

// Output returns output spec by name.
func (d Descriptor) Output(name string) (PortSpec, bool) {
	return findPort(d.Outputs, name)
}

// Parameter returns parameter spec by name.
func (d Descriptor) Parameter(name string) (param.Spec, bool) {
	for _, p := range d.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return param.Spec{}, false
}

func findPort(ports []PortSpec, name string) (PortSpec, bool) {
	for _, p := range ports {
		if p.Name == name {
			return p, true
		}
	}
	return PortSpec{}, false
}
