package pool

import (
	"fmt"

	"github.com/dudk/timbre"
)

// Policy defines how descriptors present in both pools are merged.
type Policy int

const (
	// Replace takes value of merged pool.
	Replace Policy = iota
	// Append concatenates sequences.
	Append
	// Interleave alternates elements of sequences. The remainder of the
	// longer sequence is appended after the shorter one is exhausted.
	Interleave
	// Keep leaves value of receiving pool untouched.
	Keep
)

var policyNames = map[Policy]string{
	Replace:    "replace",
	Append:     "append",
	Interleave: "interleave",
	Keep:       "keep",
}

func (p Policy) String() string {
	if s, ok := policyNames[p]; ok {
		return s
	}
	return "unknown"
}

// ParsePolicy returns policy by its name.
func ParsePolicy(s string) (Policy, error) {
	for p, name := range policyNames {
		if name == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: merge policy %q", timbre.ErrNotFound, s)
}

// Merge merges every descriptor of other pool into this one. Descriptors
// absent in this pool are copied as is. Nothing is merged if any of
// descriptors fails validation.
func (p *Pool) Merge(other *Pool, policy Policy) error {
	if _, ok := policyNames[policy]; !ok {
		return fmt.Errorf("%w: merge policy %d", timbre.ErrNotFound, policy)
	}
	names := other.DescriptorNames()
	for _, name := range names {
		if err := p.validateMerge(name, other.index[name], policy); err != nil {
			return err
		}
	}
	for _, name := range names {
		p.merge(name, other, policy)
	}
	return nil
}

// MergeValues merges a sequence of values into a single descriptor. All
// values must have the same type.
func (p *Pool) MergeValues(name string, values []interface{}, policy Policy) error {
	tmp := New()
	for _, v := range values {
		if err := tmp.Add(name, v); err != nil {
			return err
		}
	}
	return p.Merge(tmp, policy)
}

// MergeSingle merges a single value into a descriptor.
func (p *Pool) MergeSingle(name string, v interface{}, policy Policy) error {
	tmp := New()
	if err := tmp.Set(name, v); err != nil {
		return err
	}
	return p.Merge(tmp, policy)
}

func (p *Pool) validateMerge(name string, loc location, policy Policy) error {
	current, ok := p.index[name]
	if !ok {
		return p.checkNamespace(name)
	}
	switch policy {
	case Replace, Keep:
		return nil
	}
	if current != loc {
		return fmt.Errorf("%w: %s holds %s, merged %s", timbre.ErrTypeConflict, name, current, loc)
	}
	if loc.single {
		return fmt.Errorf("%w: can't %s single value %s", timbre.ErrTypeConflict, policy, name)
	}
	return nil
}

// merge applies validated merge of a single descriptor.
func (p *Pool) merge(name string, other *Pool, policy Policy) {
	loc := other.index[name]
	var values []interface{}
	if loc.single {
		values = []interface{}{clone(other.single[loc.typ][name])}
	} else {
		src := other.added[loc.typ][name]
		values = make([]interface{}, len(src))
		for i := range src {
			values[i] = clone(src[i])
		}
	}
	if _, ok := p.index[name]; !ok {
		p.replace(name, loc, values)
		return
	}
	switch policy {
	case Replace:
		p.replace(name, loc, values)
	case Append:
		p.appendValues(name, loc.typ, values...)
	case Interleave:
		p.added[loc.typ][name] = interleave(p.added[loc.typ][name], values)
	}
}

func interleave(a, b []interface{}) []interface{} {
	res := make([]interface{}, 0, len(a)+len(b))
	i := 0
	for ; i < len(a) && i < len(b); i++ {
		res = append(res, a[i], b[i])
	}
	res = append(res, a[i:]...)
	return append(res, b[i:]...)
}
