package algo

import (
	"fmt"

	"github.com/dudk/timbre"
	"github.com/dudk/timbre/param"
	"github.com/dudk/timbre/pool"
	"github.com/dudk/timbre/registry"
	"github.com/dudk/timbre/standard"
)

// PoolAggregatorDescriptor describes pool aggregator.
var PoolAggregatorDescriptor = registry.Descriptor{
	Name:        "PoolAggregator",
	Category:    Statistics,
	Description: "Computes statistics of every real and real vector descriptor of a pool.",
	Parameters: []param.Spec{
		{
			Name:       "defaultStats",
			Kind:       param.StringVec,
			Constraint: param.Choice{"mean", "var", "stdev", "min", "max", "count"},
			Default:    []string{"mean", "var", "min", "max"},
		},
	},
	Inputs:  []registry.PortSpec{{Name: "input", Type: timbre.Pool}},
	Outputs: []registry.PortSpec{{Name: "output", Type: timbre.Pool}},
}

// PoolAggregator computes statistics of pool descriptors.
type PoolAggregator struct {
	stats []pool.Stat
}

// Configure implements standard.Algorithm.
func (a *PoolAggregator) Configure(p param.Set) error {
	names := p.Strings("defaultStats")
	if len(names) == 0 {
		return fmt.Errorf("%w: no statistics requested", timbre.ErrConfiguration)
	}
	a.stats = a.stats[:0]
	for _, name := range names {
		st, err := pool.ParseStat(name)
		if err != nil {
			return err
		}
		a.stats = append(a.stats, st)
	}
	return nil
}

// Reset implements standard.Algorithm.
func (a *PoolAggregator) Reset() {}

// Compute implements standard.Algorithm.
func (a *PoolAggregator) Compute(in standard.Inputs) (standard.Outputs, error) {
	p, err := input[*pool.Pool](in, "input")
	if err != nil {
		return nil, err
	}
	aggregated, err := pool.Aggregate(p, a.stats...)
	if err != nil {
		return nil, err
	}
	return standard.Outputs{"output": aggregated}, nil
}
