package pool

import (
	"fmt"

	"github.com/dudk/timbre"
)

// Values returns copy of descriptor sequence typed as T.
func Values[T any](p *Pool, name string) ([]T, error) {
	loc, ok := p.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: descriptor %s", timbre.ErrNotFound, name)
	}
	if loc.single {
		return nil, fmt.Errorf("%w: %s holds %s", timbre.ErrTypeMismatch, name, loc)
	}
	values := p.added[loc.typ][name]
	res := make([]T, 0, len(values))
	for _, v := range values {
		tv, ok := clone(v).(T)
		if !ok {
			var zero T
			return nil, fmt.Errorf("%w: %s holds %s, requested %T", timbre.ErrTypeMismatch, name, loc, zero)
		}
		res = append(res, tv)
	}
	return res, nil
}

// Single returns copy of descriptor single value typed as T.
func Single[T any](p *Pool, name string) (T, error) {
	var zero T
	loc, ok := p.index[name]
	if !ok {
		return zero, fmt.Errorf("%w: descriptor %s", timbre.ErrNotFound, name)
	}
	if !loc.single {
		return zero, fmt.Errorf("%w: %s holds %s", timbre.ErrTypeMismatch, name, loc)
	}
	v, ok := clone(p.single[loc.typ][name]).(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s holds %s, requested %T", timbre.ErrTypeMismatch, name, loc, zero)
	}
	return v, nil
}

// Reals returns sequence of real descriptor.
func (p *Pool) Reals(name string) ([]float64, error) {
	return Values[float64](p, name)
}

// RealVecs returns sequence of real vector descriptor.
func (p *Pool) RealVecs(name string) ([][]float64, error) {
	return Values[[]float64](p, name)
}

// Strings returns sequence of string descriptor.
func (p *Pool) Strings(name string) ([]string, error) {
	return Values[string](p, name)
}

// SingleReal returns single value of real descriptor.
func (p *Pool) SingleReal(name string) (float64, error) {
	return Single[float64](p, name)
}

// SingleString returns single value of string descriptor.
func (p *Pool) SingleString(name string) (string, error) {
	return Single[string](p, name)
}
