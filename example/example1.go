package example

import (
	"github.com/dudk/timbre/network"
	"github.com/dudk/timbre/param"
	"github.com/dudk/timbre/pool"
	"github.com/dudk/timbre/stream"
	"github.com/dudk/timbre/test"
)

// Example 1:
//		Read .wav file
//		Cut it into windowed frames
//		Store spectral centroid of every frame in pool
func one(path string) *pool.Pool {
	s := newSession()
	defer s.Close()

	n, err := s.NewNetwork()
	check(err)
	defer n.Clear()
	create := func(algorithm string, params param.Map) stream.Algorithm {
		a, err := n.CreateNode(s.Streaming, algorithm, "", params)
		check(err)
		return a
	}
	loader := create("AudioLoader", param.Map{"filename": path})
	cutter := create("FrameCutter", param.Map{"frameSize": 1024, "hopSize": 512})
	window := create("Windowing", param.Map{"type": "hann"})
	spectrum := create("Spectrum", param.Map{"size": 1024})
	centroid := create("Centroid", param.Map{"range": test.SampleRate / 2})

	connect(n, loader, "audio", cutter, "signal")
	connect(n, cutter, "frame", window, "frame")
	connect(n, window, "frame", spectrum, "frame")
	connect(n, spectrum, "spectrum", centroid, "array")

	p := pool.New()
	out, err := centroid.Output("centroid")
	check(err)
	check(n.ConnectToPool(out, p, "lowlevel.centroid"))
	for _, name := range []string{"sampleRate", "numberChannels"} {
		o, err := loader.Output(name)
		check(err)
		n.Cap(o)
	}
	check(n.Build(loader))
	check(n.Run())
	return p
}

func connect(n *network.Network, from stream.Algorithm, output string, to stream.Algorithm, input string) {
	src, err := from.Output(output)
	check(err)
	sink, err := to.Input(input)
	check(err)
	check(n.Connect(src, sink))
}
