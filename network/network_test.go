package network_test

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/timbre"
	"github.com/dudk/timbre/log"
	"github.com/dudk/timbre/metric"
	"github.com/dudk/timbre/mock"
	"github.com/dudk/timbre/network"
	"github.com/dudk/timbre/pool"
	"github.com/dudk/timbre/registry"
	"github.com/dudk/timbre/stream"
)

func output(t *testing.T, a stream.Algorithm, name string) *stream.Source {
	t.Helper()
	s, err := a.Output(name)
	require.NoError(t, err)
	return s
}

func input(t *testing.T, a stream.Algorithm, name string) *stream.Sink {
	t.Helper()
	s, err := a.Input(name)
	require.NoError(t, err)
	return s
}

func silent() network.Option {
	return network.WithLogger(log.Silent())
}

func TestIdentityToPool(t *testing.T) {
	gen := mock.NewGenerator(timbre.Real, 1.0, 2.0, 3.0)
	identity := mock.NewIdentity(timbre.Real)
	p := pool.New()
	require.NoError(t, stream.Connect(output(t, gen, "out"), input(t, identity, "in")))
	require.NoError(t, stream.ConnectToPool(output(t, identity, "out"), p, "v"))

	n, err := network.FromGenerator(gen, silent())
	require.NoError(t, err)
	assert.Equal(t, network.Built, n.State())
	require.NoError(t, n.Run())
	assert.Equal(t, network.Drained, n.State())

	values, err := p.Reals("v")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, values)
	assert.True(t, gen.Resetted)
	assert.True(t, identity.Resetted)
	assert.True(t, identity.Flushed)
	assert.Equal(t, 3, identity.Calls())

	// drained network doesn't step.
	ok, err := n.RunStep()
	assert.NoError(t, err)
	assert.False(t, ok)
}

// diamond returns generator connected to two identities which are summed
// by adder.
func diamond(t *testing.T, p *pool.Pool) (*mock.Generator, *mock.Identity, *mock.Identity, *mock.Adder) {
	t.Helper()
	gen := mock.NewGenerator(timbre.Real, 1.0, 2.0, 3.0)
	left, right := mock.NewIdentity(timbre.Real), mock.NewIdentity(timbre.Real)
	left.SetName("left")
	right.SetName("right")
	adder := mock.NewAdder()
	require.NoError(t, stream.Connect(output(t, gen, "out"), input(t, left, "in")))
	require.NoError(t, stream.Connect(output(t, gen, "out"), input(t, right, "in")))
	require.NoError(t, stream.Connect(output(t, right, "out"), input(t, adder, "right")))
	require.NoError(t, stream.Connect(output(t, left, "out"), input(t, adder, "left")))
	require.NoError(t, stream.ConnectToPool(output(t, adder, "sum"), p, "sum"))
	return gen, left, right, adder
}

func TestExecutionOrder(t *testing.T) {
	p := pool.New()
	gen, _, _, _ := diamond(t, p)
	n, err := network.FromGenerator(gen, silent())
	require.NoError(t, err)

	order := n.ExecutionOrder()
	names := make([]string, 0, len(order))
	position := make(map[stream.Algorithm]int)
	for i, a := range order {
		names = append(names, a.Name())
		position[a] = i
	}
	assert.Equal(t, []string{"MockGenerator", "left", "right", "MockAdder"}, names)
	// every edge goes forward.
	for _, a := range order {
		for _, src := range a.Outputs() {
			for _, sink := range src.Sinks() {
				assert.Less(t, position[a], position[sink.Owner()])
			}
		}
	}

	require.NoError(t, n.Run())
	sums, err := p.Reals("sum")
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4, 6}, sums)
	assert.Equal(t, "MockGenerator -> left, right\nleft -> MockAdder\nright -> MockAdder\nMockAdder\n", n.String())
}

func TestDeterministicRuns(t *testing.T) {
	p := pool.New()
	gen, _, _, _ := diamond(t, p)
	n, err := network.FromGenerator(gen, silent())
	require.NoError(t, err)

	require.NoError(t, n.Run())
	first := pool.Tree(p)
	p.Clear()
	require.NoError(t, n.Run())
	if diff := cmp.Diff(first, pool.Tree(p)); diff != "" {
		t.Errorf("runs differ (-first +second):\n%s", diff)
	}
}

func TestComposite(t *testing.T) {
	gen := mock.NewGenerator(timbre.Real, 1.0, 2.0)
	chain := mock.NewChain()
	p := pool.New()
	require.NoError(t, stream.Connect(output(t, gen, "out"), input(t, chain, "in")))
	require.NoError(t, stream.ConnectToPool(output(t, chain, "out"), p, "chained"))

	n, err := network.FromGenerator(gen, silent())
	require.NoError(t, err)

	visible := n.VisibleNodes()
	require.Len(t, visible, 2)
	assert.Equal(t, stream.Algorithm(gen), n.VisibleRoot().Algorithm())
	assert.Equal(t, stream.Algorithm(chain), visible[1].Algorithm())
	assert.True(t, stream.IsComposite(chain))
	assert.Equal(t, stream.Algorithm(chain), stream.Root(chain.First))

	var names []string
	for _, a := range n.ExecutionOrder() {
		names = append(names, a.Name())
	}
	assert.Equal(t, []string{"MockGenerator", "chain.first", "chain.second"}, names)

	require.NoError(t, n.Run())
	values, err := p.Reals("chained")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, values)
}

func TestFlush(t *testing.T) {
	gen := mock.NewGenerator(timbre.Real, 1.0, 2.0, 3.0)
	acc := mock.NewAccumulator()
	p := pool.New()
	require.NoError(t, stream.Connect(output(t, gen, "out"), input(t, acc, "in")))
	require.NoError(t, stream.ConnectToPoolSingle(output(t, acc, "total"), p, "total"))

	n, err := network.FromGenerator(gen, silent())
	require.NoError(t, err)
	require.NoError(t, n.Run())
	total, err := p.SingleReal("total")
	require.NoError(t, err)
	assert.Equal(t, 6.0, total)
	assert.True(t, acc.Flushed)

	acc.ErrorOnFlush = errors.New("flush failed")
	assert.ErrorIs(t, n.Run(), acc.ErrorOnFlush)
}

func TestBuildErrors(t *testing.T) {
	t.Run("missing generator", func(t *testing.T) {
		gen := mock.NewGenerator(timbre.Real, 1.0)
		identity := mock.NewIdentity(timbre.Real)
		require.NoError(t, stream.Connect(output(t, gen, "out"), input(t, identity, "in")))
		_, err := network.FromGenerator(identity, silent())
		assert.ErrorIs(t, err, timbre.ErrMissingGenerator)
		_, err = network.FromGenerator(nil, silent())
		assert.ErrorIs(t, err, timbre.ErrMissingGenerator)
	})
	t.Run("unconnected root input", func(t *testing.T) {
		identity := mock.NewIdentity(timbre.Real)
		_, err := network.FromGenerator(identity, silent())
		assert.ErrorIs(t, err, timbre.ErrGraph)
		assert.NotErrorIs(t, err, timbre.ErrMissingGenerator)
	})
	t.Run("unconnected input", func(t *testing.T) {
		gen := mock.NewGenerator(timbre.Real, 1.0)
		adder := mock.NewAdder()
		require.NoError(t, stream.Connect(output(t, gen, "out"), input(t, adder, "right")))
		_, err := network.FromGenerator(gen, silent())
		assert.ErrorIs(t, err, timbre.ErrGraph)
	})
	t.Run("cycle", func(t *testing.T) {
		gen := mock.NewGenerator(timbre.Real, 1.0)
		adder := mock.NewAdder()
		identity := mock.NewIdentity(timbre.Real)
		require.NoError(t, stream.Connect(output(t, gen, "out"), input(t, adder, "left")))
		require.NoError(t, stream.Connect(output(t, adder, "sum"), input(t, identity, "in")))
		require.NoError(t, stream.Connect(output(t, identity, "out"), input(t, adder, "right")))
		_, err := network.FromGenerator(gen, silent())
		assert.ErrorIs(t, err, timbre.ErrGraph)
	})
	t.Run("unreachable source", func(t *testing.T) {
		gen := mock.NewGenerator(timbre.Real, 1.0)
		other := mock.NewGenerator(timbre.Real, 1.0)
		adder := mock.NewAdder()
		require.NoError(t, stream.Connect(output(t, gen, "out"), input(t, adder, "left")))
		require.NoError(t, stream.Connect(output(t, other, "out"), input(t, adder, "right")))
		_, err := network.FromGenerator(gen, silent())
		assert.ErrorIs(t, err, timbre.ErrGraph)
	})
}

func TestNotBuilt(t *testing.T) {
	n, err := network.New(silent())
	require.NoError(t, err)
	assert.Equal(t, network.Empty, n.State())
	assert.ErrorIs(t, n.Run(), timbre.ErrNotBuilt)
	_, err = n.RunStep()
	assert.ErrorIs(t, err, timbre.ErrNotBuilt)
	assert.ErrorIs(t, n.Update(), timbre.ErrNotBuilt)

	gen := mock.NewGenerator(timbre.Real, 1.0)
	require.NoError(t, n.Build(gen))
	// step without prepare.
	_, err = n.RunStep()
	assert.ErrorIs(t, err, timbre.ErrNotBuilt)
	require.NoError(t, n.Run())

	require.NoError(t, n.Clear())
	assert.Equal(t, network.Empty, n.State())
	assert.Empty(t, n.ExecutionOrder())
	assert.ErrorIs(t, n.Run(), timbre.ErrNotBuilt)
}

func TestUpdate(t *testing.T) {
	gen := mock.NewGenerator(timbre.Real, 1.0, 2.0)
	identity := mock.NewIdentity(timbre.Real)
	p := pool.New()
	n, err := network.FromGenerator(gen, silent())
	require.NoError(t, err)
	require.Len(t, n.ExecutionOrder(), 1)

	require.NoError(t, n.Connect(output(t, gen, "out"), input(t, identity, "in")))
	require.NoError(t, n.ConnectToPool(output(t, identity, "out"), p, "v"))
	assert.ErrorIs(t, n.Run(), timbre.ErrNotBuilt)

	require.NoError(t, n.Update())
	assert.Len(t, n.ExecutionOrder(), 2)
	require.NoError(t, n.Run())
	values, err := p.Reals("v")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, values)

	n.DisconnectAll(identity)
	assert.Nil(t, input(t, identity, "in").Source())
	require.NoError(t, n.Update())
	assert.Len(t, n.ExecutionOrder(), 1)
}

func TestStop(t *testing.T) {
	gen := mock.NewGenerator(timbre.Real, 1.0, 2.0, 3.0)
	p := pool.New()
	require.NoError(t, stream.ConnectToPool(output(t, gen, "out"), p, "v"))
	n, err := network.FromGenerator(gen, silent())
	require.NoError(t, err)

	require.NoError(t, n.RunPrepare())
	ok, err := n.RunStep()
	require.NoError(t, err)
	assert.True(t, ok)
	n.Stop()
	ok, err = n.RunStep()
	require.NoError(t, err)
	assert.False(t, ok)
	values, _ := p.Reals("v")
	assert.Equal(t, []float64{1}, values)

	// prepare clears stop flag.
	p.Clear()
	require.NoError(t, n.Run())
	values, _ = p.Reals("v")
	assert.Equal(t, []float64{1, 2, 3}, values)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, n.RunContext(ctx), context.Canceled)
}

func TestProcessError(t *testing.T) {
	gen := mock.NewGenerator(timbre.Real, 1.0)
	gen.ErrorOnCall = errors.New("process failed")
	n, err := network.FromGenerator(gen, silent())
	require.NoError(t, err)
	assert.ErrorIs(t, n.Run(), gen.ErrorOnCall)
}

func TestPoolWriteFailure(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	gen := mock.NewGenerator(timbre.Real, 1.0, 2.0)
	p := pool.New()
	require.NoError(t, stream.ConnectToPool(output(t, gen, "out"), p, "x"))
	// descriptor becomes a namespace after connection.
	require.NoError(t, p.Set("x.y", 1.0))

	n, err := network.FromGenerator(gen, network.WithLogger(logger))
	require.NoError(t, err)
	assert.ErrorIs(t, n.Run(), timbre.ErrNamespaceConflict)
	assert.Equal(t, network.Drained, n.State())

	warnings := 0
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings++
		}
	}
	assert.Equal(t, 2, warnings)
	assert.False(t, p.Contains("x"))
}

func TestOwnership(t *testing.T) {
	r := registry.New[stream.Algorithm](log.Silent())
	mock.Register(r)
	n, err := network.New(silent())
	require.NoError(t, err)

	identity, err := n.CreateNode(r, "MockIdentity", "owned", nil)
	require.NoError(t, err)
	assert.Equal(t, "owned", identity.Name())
	_, err = n.CreateNode(r, "Missing", "", nil)
	assert.ErrorIs(t, err, timbre.ErrNotFound)

	gen := mock.NewGenerator(timbre.Real, 1.0)
	require.NoError(t, n.Connect(output(t, gen, "out"), input(t, identity, "in")))
	n.Cap(output(t, identity, "out"))
	require.NoError(t, n.Build(gen))
	require.NoError(t, n.Run())

	found, err := n.FindByName("owned")
	require.NoError(t, err)
	assert.Equal(t, identity, found)
	_, err = n.FindByName("missing")
	assert.ErrorIs(t, err, timbre.ErrNotFound)

	require.NoError(t, n.Clear())
	assert.True(t, identity.(*mock.Identity).Closed)
	// generator is owned by caller.
	assert.False(t, gen.Closed)
	assert.Empty(t, output(t, gen, "out").Sinks())
	assert.Nil(t, input(t, identity, "in").Source())

	rebuilt, err := network.FromGenerator(gen, silent())
	require.NoError(t, err)
	assert.Equal(t, []stream.Algorithm{gen}, rebuilt.ExecutionOrder())
	require.NoError(t, rebuilt.Run())
}

// Node which finishes on one input drops tokens left on the other.
func TestUnequalRates(t *testing.T) {
	gen := mock.NewGenerator(timbre.Real, 1.0, 2.0, 3.0)
	identity := mock.NewIdentity(timbre.Real)
	acc := mock.NewAccumulator()
	pair := mock.NewPair()
	p := pool.New()
	require.NoError(t, stream.Connect(output(t, gen, "out"), input(t, identity, "in")))
	require.NoError(t, stream.Connect(output(t, gen, "out"), input(t, acc, "in")))
	require.NoError(t, stream.Connect(output(t, identity, "out"), input(t, pair, "a")))
	require.NoError(t, stream.Connect(output(t, acc, "total"), input(t, pair, "b")))
	require.NoError(t, stream.ConnectToPool(output(t, pair, "out"), p, "sum"))

	n, err := network.FromGenerator(gen, silent())
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, n.RunContext(ctx))
	assert.Equal(t, network.Drained, n.State())
	assert.Equal(t, 1, pair.Calls())
	assert.False(t, input(t, pair, "a").HasToken())

	sum, err := p.Reals("sum")
	require.NoError(t, err)
	assert.Equal(t, []float64{7}, sum)

	// second run produces the same result.
	p.Clear()
	require.NoError(t, n.Run())
	sum, err = p.Reals("sum")
	require.NoError(t, err)
	assert.Equal(t, []float64{7}, sum)
}

func instances(t *testing.T, algorithm string) int {
	t.Helper()
	v, ok := metric.Get(algorithm)[metric.InstanceCounter]
	if !ok {
		return 0
	}
	i, err := strconv.Atoi(v)
	require.NoError(t, err)
	return i
}

func TestMeterInstances(t *testing.T) {
	before := instances(t, mock.AccumulatorDescriptor.Name)
	gen := mock.NewGenerator(timbre.Real, 1.0, 2.0)
	acc := mock.NewAccumulator()
	require.NoError(t, stream.Connect(output(t, gen, "out"), input(t, acc, "in")))
	n, err := network.FromGenerator(gen, silent())
	require.NoError(t, err)
	require.NoError(t, n.Run())

	for i := 0; i < 3; i++ {
		require.NoError(t, n.Update())
		require.NoError(t, n.Run())
	}
	assert.Equal(t, before+1, instances(t, mock.AccumulatorDescriptor.Name))

	// cleared network meters again.
	require.NoError(t, n.Clear())
	require.NoError(t, n.Build(gen))
	assert.Equal(t, before+2, instances(t, mock.AccumulatorDescriptor.Name))
}

func TestWithLogger(t *testing.T) {
	_, err := network.New(network.WithLogger(nil))
	assert.ErrorIs(t, err, timbre.ErrConfiguration)
}
