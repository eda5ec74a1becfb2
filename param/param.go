// Package param provides declaration, validation and storage of algorithm
// parameters.
package param

import (
	"fmt"
	"math"
	"sort"

	"github.com/dudk/timbre"
)

// Kind is a type of parameter value.
type Kind int

// Parameter kinds.
const (
	Undefined Kind = iota
	Real
	Integer
	Bool
	String
	RealVec
	StringVec
	StringVecMap
)

func (k Kind) String() string {
	switch k {
	case Real:
		return "Real"
	case Integer:
		return "Int"
	case Bool:
		return "Bool"
	case String:
		return "String"
	case RealVec:
		return "RealVec"
	case StringVec:
		return "StringVec"
	case StringVecMap:
		return "StringVecMap"
	}
	return "Undefined"
}

type (
	// Spec declares a single parameter of algorithm.
	Spec struct {
		Name        string
		Description string
		Kind        Kind
		// Constraint is optional.
		Constraint Constraint
		// Default is optional. Parameter without default stays
		// unconfigured until it's overridden.
		Default interface{}
	}

	// Map holds raw parameter overrides keyed by parameter name.
	Map map[string]interface{}

	// Set holds resolved parameter values. Every value in the set has
	// passed kind and constraint checks.
	Set struct {
		values map[string]interface{}
	}
)

// Resolve validates overrides against specs and returns the set of
// parameter values: defaults first, then overrides on top.
func Resolve(specs []Spec, overrides Map) (Set, error) {
	byName := make(map[string]Spec, len(specs))
	for _, s := range specs {
		byName[s.Name] = s
	}
	// check unknown names first to report them before value errors.
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		if _, ok := byName[name]; !ok {
			return Set{}, fmt.Errorf("%w: %s", timbre.ErrUnknownParameter, name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	values := make(map[string]interface{}, len(specs))
	for _, s := range specs {
		if s.Default == nil {
			continue
		}
		v, err := s.check(s.Default)
		if err != nil {
			return Set{}, fmt.Errorf("default value: %w", err)
		}
		values[s.Name] = v
	}
	for _, name := range names {
		v, err := byName[name].check(overrides[name])
		if err != nil {
			return Set{}, err
		}
		values[name] = v
	}
	return Set{values: values}, nil
}

// check converts value to the spec kind and verifies the constraint.
func (s Spec) check(raw interface{}) (interface{}, error) {
	v, ok := convert(s.Kind, raw)
	if !ok {
		return nil, fmt.Errorf("%w: parameter %s expects %v, got %T", timbre.ErrConfiguration, s.Name, s.Kind, raw)
	}
	if s.Constraint == nil {
		return v, nil
	}
	if err := s.Constraint.Check(v); err != nil {
		return nil, fmt.Errorf("%w: parameter %s: %v", timbre.ErrConfiguration, s.Name, err)
	}
	return v, nil
}

// convert brings raw value to the canonical go type of kind.
func convert(k Kind, raw interface{}) (interface{}, bool) {
	switch k {
	case Real:
		return toFloat(raw)
	case Integer:
		return toInt(raw)
	case Bool:
		v, ok := raw.(bool)
		return v, ok
	case String:
		v, ok := raw.(string)
		return v, ok
	case RealVec:
		switch v := raw.(type) {
		case []float64:
			return append([]float64(nil), v...), true
		case []int:
			r := make([]float64, len(v))
			for i := range v {
				r[i] = float64(v[i])
			}
			return r, true
		case []interface{}:
			r := make([]float64, len(v))
			for i := range v {
				f, ok := toFloat(v[i])
				if !ok {
					return nil, false
				}
				r[i] = f
			}
			return r, true
		}
	case StringVec:
		return toStrings(raw)
	case StringVecMap:
		switch v := raw.(type) {
		case map[string][]string:
			r := make(map[string][]string, len(v))
			for key, val := range v {
				r[key] = append([]string(nil), val...)
			}
			return r, true
		case map[string]interface{}:
			r := make(map[string][]string, len(v))
			for key, val := range v {
				s, ok := toStrings(val)
				if !ok {
					return nil, false
				}
				r[key] = s
			}
			return r, true
		}
	}
	return nil, false
}

func toFloat(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func toInt(raw interface{}) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	}
	return 0, false
}

func toStrings(raw interface{}) ([]string, bool) {
	switch v := raw.(type) {
	case []string:
		return append([]string(nil), v...), true
	case []interface{}:
		r := make([]string, len(v))
		for i := range v {
			s, ok := v[i].(string)
			if !ok {
				return nil, false
			}
			r[i] = s
		}
		return r, true
	}
	return nil, false
}

// IsConfigured returns true if parameter holds a value.
func (s Set) IsConfigured(name string) bool {
	_, ok := s.values[name]
	return ok
}

// Names returns sorted names of configured parameters.
func (s Set) Names() []string {
	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Value returns raw parameter value.
func (s Set) Value(name string) (interface{}, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Real returns value of real parameter. Zero is returned if parameter is
// not configured.
func (s Set) Real(name string) float64 {
	v, _ := s.values[name].(float64)
	return v
}

// Int returns value of integer parameter.
func (s Set) Int(name string) int {
	v, _ := s.values[name].(int)
	return v
}

// Bool returns value of boolean parameter.
func (s Set) Bool(name string) bool {
	v, _ := s.values[name].(bool)
	return v
}

// String returns value of string parameter.
func (s Set) String(name string) string {
	v, _ := s.values[name].(string)
	return v
}

// Reals returns value of real vector parameter.
func (s Set) Reals(name string) []float64 {
	v, _ := s.values[name].([]float64)
	return v
}

// Strings returns value of string vector parameter.
func (s Set) Strings(name string) []string {
	v, _ := s.values[name].([]string)
	return v
}

// StringMap returns value of string vector map parameter.
func (s Set) StringMap(name string) map[string][]string {
	v, _ := s.values[name].(map[string][]string)
	return v
}
