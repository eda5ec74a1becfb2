package algo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/timbre"
	"github.com/dudk/timbre/algo"
	"github.com/dudk/timbre/log"
	"github.com/dudk/timbre/mock"
	"github.com/dudk/timbre/network"
	"github.com/dudk/timbre/param"
	"github.com/dudk/timbre/stream"
)

func TestVectorOutput(t *testing.T) {
	r := setup(t)
	n, err := network.New(network.WithLogger(log.Silent()))
	require.NoError(t, err)
	input, err := n.CreateNode(r.str, "VectorInput", "", param.Map{"data": span(0, 10), "bufferSize": 3})
	require.NoError(t, err)
	cutter, err := n.CreateNode(r.str, "FrameCutter", "", param.Map{"frameSize": 4, "hopSize": 4, "startFromZero": true})
	require.NoError(t, err)
	frames, err := n.CreateNode(r.str, "VectorOutputRealVec", "frames", nil)
	require.NoError(t, err)
	data, _ := input.Output("data")
	signal, _ := cutter.Input("signal")
	frame, _ := cutter.Output("frame")
	in, _ := frames.Input("data")
	assert.Equal(t, timbre.RealVec, in.Type())
	require.NoError(t, n.Connect(data, signal))
	require.NoError(t, n.Connect(frame, in))
	require.NoError(t, n.Build(input))

	expected := [][]float64{span(0, 4), span(4, 8), concat(span(8, 10), zeros(2))}
	out := frames.(*algo.VectorOutput[[]float64])
	for i := 0; i < 2; i++ {
		require.NoError(t, n.Run())
		assert.Equal(t, expected, out.Data(), "run %d", i)
	}
	require.NoError(t, n.Clear())
}

func TestVectorOutputTypes(t *testing.T) {
	var tests = []struct {
		description string
		output      stream.Algorithm
		values      []interface{}
		expected    interface{}
		err         error
	}{
		{
			description: "reals",
			output:      algo.NewVectorOutput[float64](timbre.Real),
			values:      []interface{}{1.0, 2.0},
			expected:    []float64{1, 2},
		},
		{
			description: "strings",
			output:      algo.NewVectorOutput[string](timbre.String),
			values:      []interface{}{"a", "b"},
			expected:    []string{"a", "b"},
		},
		{
			description: "no tokens",
			output:      algo.NewVectorOutput[float64](timbre.Real),
			expected:    []float64(nil),
		},
		{
			description: "token of other type",
			output:      algo.NewVectorOutput[float64](timbre.Real),
			values:      []interface{}{"a"},
			err:         timbre.ErrTypeMismatch,
		},
	}
	for _, tt := range tests {
		in, err := tt.output.Input("data")
		require.NoError(t, err, tt.description)
		gen := mock.NewGenerator(in.Type(), tt.values...)
		out, _ := gen.Output("out")
		require.NoError(t, stream.Connect(out, in), tt.description)
		n, err := network.FromGenerator(gen, network.WithLogger(log.Silent()))
		require.NoError(t, err, tt.description)
		err = n.Run()
		if tt.err != nil {
			assert.ErrorIs(t, err, tt.err, tt.description)
			continue
		}
		require.NoError(t, err, tt.description)
		switch v := tt.output.(type) {
		case *algo.VectorOutput[float64]:
			assert.Equal(t, tt.expected, v.Data(), tt.description)
		case *algo.VectorOutput[string]:
			assert.Equal(t, tt.expected, v.Data(), tt.description)
		}
	}
}
