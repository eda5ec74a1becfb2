package example

import (
	"bytes"
	"strings"

	"github.com/dudk/timbre/param"
	"github.com/dudk/timbre/pool"
	"github.com/dudk/timbre/recipe"
)

const temporal = `
generator: loader
nodes:
  - {name: loader, algorithm: AudioLoader}
  - {name: cutter, algorithm: FrameCutter, params: {frameSize: 1024, hopSize: 512, startFromZero: true}}
  - {name: zcr, algorithm: ZeroCrossingRate}
  - {name: energy, algorithm: Energy}
connections:
  - {from: loader.audio, to: cutter.signal}
  - {from: cutter.frame, to: zcr.signal}
  - {from: cutter.frame, to: energy.array}
outputs:
  - {from: zcr.zeroCrossingRate, descriptor: lowlevel.zeroCrossingRate}
  - {from: energy.energy, descriptor: lowlevel.energy}
unused: [loader.sampleRate, loader.numberChannels]
`

// Example 2:
//		Build network from recipe
//		Run it over .wav file
//		Aggregate frame values and encode them as yaml
func two(path string) (*pool.Pool, string) {
	s := newSession()
	defer s.Close()

	r, err := recipe.Parse(strings.NewReader(temporal))
	check(err)
	p := pool.New()
	n, err := r.Build(s, p, recipe.Overrides{"loader": param.Map{"filename": path}})
	check(err)
	defer n.Clear()
	check(n.Run())

	stats, err := pool.Aggregate(p, pool.Mean, pool.Stdev)
	check(err)
	var buf bytes.Buffer
	check(pool.Encode(&buf, stats, pool.YAML))
	return stats, buf.String()
}
