/*
Package pool provides hierarchical storage for computed descriptors.

Descriptor names are dotted paths, like "lowlevel.spectrum", which form a
namespace tree. Every name holds either a growing sequence of values of a
single type (add store) or a single value (set store). Stores are
partitioned per value type. A name can't be both a leaf and an ancestor of
another name.

Pool has no internal synchronization.
*/
package pool

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dudk/timbre"
)

// separator splits descriptor name into namespaces.
const separator = "."

type (
	// Pool stores descriptors by their names.
	Pool struct {
		added  map[timbre.Type]map[string][]interface{}
		single map[timbre.Type]map[string]interface{}
		// index maps every name to its store.
		index map[string]location
		// prefixes counts names under every namespace.
		prefixes map[string]int
	}

	location struct {
		typ    timbre.Type
		single bool
	}
)

// New returns empty pool.
func New() *Pool {
	p := &Pool{}
	p.Clear()
	return p
}

// Clear removes all descriptors.
func (p *Pool) Clear() {
	p.added = make(map[timbre.Type]map[string][]interface{})
	p.single = make(map[timbre.Type]map[string]interface{})
	p.index = make(map[string]location)
	p.prefixes = make(map[string]int)
}

// Add appends value to descriptor sequence. New descriptor is typed with
// the type of the value.
func (p *Pool) Add(name string, v interface{}) error {
	t, err := storable(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := p.Accepts(name, t, false); err != nil {
		return err
	}
	p.appendValues(name, t, clone(v))
	return nil
}

// Set stores single value of descriptor. Existing value of the same type
// is replaced.
func (p *Pool) Set(name string, v interface{}) error {
	t, err := storable(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := p.Accepts(name, t, true); err != nil {
		return err
	}
	p.setValue(name, t, clone(v))
	return nil
}

// Accepts checks if values of provided type can be stored under the name.
// It doesn't modify the pool.
func (p *Pool) Accepts(name string, t timbre.Type, single bool) error {
	if name == "" {
		return fmt.Errorf("%w: empty descriptor name", timbre.ErrNotFound)
	}
	if t == timbre.Pool || t == timbre.Undefined {
		return fmt.Errorf("%w: %s can't hold %v", timbre.ErrUnsupportedType, name, t)
	}
	loc, ok := p.index[name]
	if !ok {
		return p.checkNamespace(name)
	}
	if single && !loc.single {
		return fmt.Errorf("%w: %s", timbre.ErrSetOnAdded, name)
	}
	if loc.single != single || loc.typ != t {
		return fmt.Errorf("%w: %s holds %s, got %s", timbre.ErrTypeConflict, name, loc, location{typ: t, single: single})
	}
	return nil
}

// Remove deletes descriptor. Missing name is ignored.
func (p *Pool) Remove(name string) {
	loc, ok := p.index[name]
	if !ok {
		return
	}
	if loc.single {
		delete(p.single[loc.typ], name)
	} else {
		delete(p.added[loc.typ], name)
	}
	delete(p.index, name)
	for _, ns := range namespaces(name) {
		if p.prefixes[ns]--; p.prefixes[ns] == 0 {
			delete(p.prefixes, ns)
		}
	}
}

// RemoveNamespace deletes every descriptor under namespace.
func (p *Pool) RemoveNamespace(ns string) {
	for _, name := range p.DescriptorNamesIn(ns) {
		p.Remove(name)
	}
}

// CheckIntegrity verifies that every name is kept in exactly one store.
func (p *Pool) CheckIntegrity() error {
	seen := make(map[string]location, len(p.index))
	for _, name := range p.storedNames() {
		l := name.location
		if prev, ok := seen[name.name]; ok {
			return fmt.Errorf("%w: %s is stored as %s and %s", timbre.ErrIntegrityViolation, name.name, prev, l)
		}
		seen[name.name] = l
		if idx, ok := p.index[name.name]; !ok || idx != l {
			return fmt.Errorf("%w: %s is stored as %s, indexed as %s", timbre.ErrIntegrityViolation, name.name, l, idx)
		}
	}
	if len(seen) != len(p.index) {
		for name := range p.index {
			if _, ok := seen[name]; !ok {
				return fmt.Errorf("%w: %s is indexed, but not stored", timbre.ErrIntegrityViolation, name)
			}
		}
	}
	return nil
}

// Contains returns true if descriptor exists.
func (p *Pool) Contains(name string) bool {
	_, ok := p.index[name]
	return ok
}

// ContainsType returns true if descriptor exists and holds values of
// provided type.
func (p *Pool) ContainsType(name string, t timbre.Type) bool {
	loc, ok := p.index[name]
	return ok && loc.typ == t
}

// IsSingle returns true if descriptor holds a single value.
func (p *Pool) IsSingle(name string) bool {
	return p.index[name].single
}

// TypeOf returns type of descriptor values.
func (p *Pool) TypeOf(name string) (timbre.Type, bool) {
	loc, ok := p.index[name]
	return loc.typ, ok
}

// Len returns number of descriptors.
func (p *Pool) Len() int {
	return len(p.index)
}

// DescriptorNames returns sorted names of all descriptors.
func (p *Pool) DescriptorNames() []string {
	names := make([]string, 0, len(p.index))
	for name := range p.index {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DescriptorNamesIn returns sorted names of descriptors under namespace.
func (p *Pool) DescriptorNamesIn(ns string) []string {
	if p.prefixes[ns] == 0 {
		return []string{}
	}
	prefix := ns + separator
	names := make([]string, 0, p.prefixes[ns])
	for name := range p.index {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Value returns copy of descriptor sequence or single value.
func (p *Pool) Value(name string) (interface{}, bool) {
	loc, ok := p.index[name]
	if !ok {
		return nil, false
	}
	if loc.single {
		return clone(p.single[loc.typ][name]), true
	}
	values := p.added[loc.typ][name]
	res := make([]interface{}, len(values))
	copy(res, values)
	return res, true
}

func (p *Pool) checkNamespace(name string) error {
	if p.prefixes[name] > 0 {
		return fmt.Errorf("%w: %s is a namespace", timbre.ErrNamespaceConflict, name)
	}
	for _, ns := range namespaces(name) {
		if _, ok := p.index[ns]; ok {
			return fmt.Errorf("%w: %s is a descriptor", timbre.ErrNamespaceConflict, ns)
		}
	}
	return nil
}

func (p *Pool) register(name string, loc location) {
	if _, ok := p.index[name]; ok {
		return
	}
	p.index[name] = loc
	for _, ns := range namespaces(name) {
		p.prefixes[ns]++
	}
}

// appendValues adds values without validation.
func (p *Pool) appendValues(name string, t timbre.Type, values ...interface{}) {
	p.register(name, location{typ: t})
	store, ok := p.added[t]
	if !ok {
		store = make(map[string][]interface{})
		p.added[t] = store
	}
	store[name] = append(store[name], values...)
}

// setValue stores single value without validation.
func (p *Pool) setValue(name string, t timbre.Type, v interface{}) {
	p.register(name, location{typ: t, single: true})
	store, ok := p.single[t]
	if !ok {
		store = make(map[string]interface{})
		p.single[t] = store
	}
	store[name] = v
}

// replace drops current descriptor and stores it in provided location.
func (p *Pool) replace(name string, loc location, values []interface{}) {
	p.Remove(name)
	if loc.single {
		p.setValue(name, loc.typ, values[0])
		return
	}
	p.appendValues(name, loc.typ, values...)
}

type storedName struct {
	name string
	location
}

func (p *Pool) storedNames() []storedName {
	var names []storedName
	for t, store := range p.added {
		for name := range store {
			names = append(names, storedName{name: name, location: location{typ: t}})
		}
	}
	for t, store := range p.single {
		for name := range store {
			names = append(names, storedName{name: name, location: location{typ: t, single: true}})
		}
	}
	sort.Slice(names, func(i, j int) bool {
		if names[i].name != names[j].name {
			return names[i].name < names[j].name
		}
		if names[i].single != names[j].single {
			return !names[i].single
		}
		return names[i].typ < names[j].typ
	})
	return names
}

func (l location) String() string {
	if l.single {
		return "single " + l.typ.String()
	}
	return l.typ.String() + " sequence"
}

// namespaces returns all strict ancestors of the name.
func namespaces(name string) []string {
	var res []string
	for i := 0; i < len(name); i++ {
		if name[i] == separator[0] {
			res = append(res, name[:i])
		}
	}
	return res
}

func storable(v interface{}) (timbre.Type, error) {
	t, ok := timbre.Of(v)
	if !ok {
		return timbre.Undefined, fmt.Errorf("%w: %T", timbre.ErrUnsupportedType, v)
	}
	if t == timbre.Pool {
		return t, fmt.Errorf("%w: pool can't be stored in pool", timbre.ErrUnsupportedType)
	}
	return t, nil
}

// clone copies vector values, so producers can reuse their buffers.
func clone(v interface{}) interface{} {
	switch v := v.(type) {
	case []float64:
		return append([]float64(nil), v...)
	case []string:
		return append([]string(nil), v...)
	case []complex128:
		return append([]complex128(nil), v...)
	case []timbre.StereoSample:
		return append([]timbre.StereoSample(nil), v...)
	case [][]float64:
		res := make([][]float64, len(v))
		for i := range v {
			res[i] = append([]float64(nil), v[i]...)
		}
		return res
	case [][]string:
		res := make([][]string, len(v))
		for i := range v {
			res[i] = append([]string(nil), v[i]...)
		}
		return res
	case [][]complex128:
		res := make([][]complex128, len(v))
		for i := range v {
			res[i] = append([]complex128(nil), v[i]...)
		}
		return res
	}
	return v
}
