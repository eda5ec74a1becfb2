package example

import (
	"strings"

	"github.com/dudk/timbre/param"
	"github.com/dudk/timbre/pool"
	"github.com/dudk/timbre/recipe"
	"github.com/dudk/timbre/standard"
)

// Example 3:
//		Run the same network over several .wav files
//		Merge frame values of all files into one pool
//		Aggregate them with standard PoolAggregator
func three(paths ...string) *pool.Pool {
	s := newSession()
	defer s.Close()

	r, err := recipe.Parse(strings.NewReader(temporal))
	check(err)
	merged := pool.New()
	for _, path := range paths {
		p := pool.New()
		n, err := r.Build(s, p, recipe.Overrides{"loader": param.Map{"filename": path}})
		check(err)
		check(n.Run())
		check(n.Clear())
		check(merged.Merge(p, pool.Append))
	}

	aggregator, err := s.Standard.Create("PoolAggregator", param.Map{"defaultStats": []string{"count", "max"}})
	check(err)
	d, _ := s.Standard.Info("PoolAggregator")
	out, err := standard.Compute(d, aggregator, standard.Inputs{"input": merged})
	check(err)
	return out["output"].(*pool.Pool)
}
