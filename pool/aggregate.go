package pool

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/dudk/timbre"
)

// Stat is a statistic computed by Aggregate.
type Stat string

// Supported statistics.
const (
	Mean  Stat = "mean"
	Var   Stat = "var"
	Stdev Stat = "stdev"
	Min   Stat = "min"
	Max   Stat = "max"
	Count Stat = "count"
)

// DefaultStats are computed when no statistics are requested.
var DefaultStats = []Stat{Mean, Var, Min, Max}

// ParseStat returns statistic by its name.
func ParseStat(s string) (Stat, error) {
	switch st := Stat(s); st {
	case Mean, Var, Stdev, Min, Max, Count:
		return st, nil
	}
	return "", fmt.Errorf("%w: statistic %q", timbre.ErrNotFound, s)
}

// Aggregate returns new pool with statistics of every real and real vector
// sequence. Statistics of vectors are computed per element and require
// vectors of the same length. Other descriptors are copied as is.
func Aggregate(p *Pool, stats ...Stat) (*Pool, error) {
	if len(stats) == 0 {
		stats = DefaultStats
	}
	res := New()
	for _, name := range p.DescriptorNames() {
		loc := p.index[name]
		var err error
		switch {
		case loc.single:
			err = res.Set(name, p.single[loc.typ][name])
		case loc.typ == timbre.Real:
			err = aggregateReals(res, name, p.added[loc.typ][name], stats)
		case loc.typ == timbre.RealVec:
			err = aggregateRealVecs(res, name, p.added[loc.typ][name], stats)
		default:
			err = res.MergeValues(name, p.added[loc.typ][name], Replace)
		}
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

func aggregateReals(res *Pool, name string, values []interface{}, stats []Stat) error {
	x := make([]float64, len(values))
	for i := range values {
		x[i] = values[i].(float64)
	}
	for _, st := range stats {
		if err := res.Set(name+separator+string(st), compute(st, x)); err != nil {
			return err
		}
	}
	return nil
}

func aggregateRealVecs(res *Pool, name string, values []interface{}, stats []Stat) error {
	frames := make([][]float64, len(values))
	for i := range values {
		frames[i] = values[i].([]float64)
		if len(frames[i]) != len(frames[0]) {
			return fmt.Errorf("%w: %s vectors have different length", timbre.ErrInvalidSize, name)
		}
	}
	column := make([]float64, len(frames))
	for _, st := range stats {
		v := make([]float64, len(frames[0]))
		for j := range v {
			for i := range frames {
				column[i] = frames[i][j]
			}
			v[j] = compute(st, column)
		}
		if err := res.Set(name+separator+string(st), v); err != nil {
			return err
		}
	}
	return nil
}

func compute(st Stat, x []float64) float64 {
	switch st {
	case Mean:
		return stat.Mean(x, nil)
	case Var:
		_, v := stat.PopMeanVariance(x, nil)
		return v
	case Stdev:
		_, v := stat.PopMeanVariance(x, nil)
		return math.Sqrt(v)
	case Min:
		return floats.Min(x)
	case Max:
		return floats.Max(x)
	case Count:
		return float64(len(x))
	}
	return math.NaN()
}
