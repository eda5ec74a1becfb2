package fft_test

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dudk/timbre"
	"github.com/dudk/timbre/fft"
	"github.com/dudk/timbre/log"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPlanReuse(t *testing.T) {
	s := fft.NewSubsystem(log.Silent())
	c, err := s.NewCache()
	require.NoError(t, err)

	p256, err := c.Plan(256)
	require.NoError(t, err)
	again, err := c.Plan(256)
	require.NoError(t, err)
	assert.Same(t, p256, again)

	smaller, err := c.Plan(128)
	require.NoError(t, err)
	assert.Same(t, p256, smaller)
	assert.Equal(t, 256, smaller.Capacity())

	p512, err := c.Plan(512)
	require.NoError(t, err)
	assert.NotSame(t, p256, p512)
	assert.Equal(t, fft.Stats{Created: 2, Destroyed: 1}, s.Stats())

	// replaced plan can't be executed.
	_, err = p256.Forward(nil, make([]float64, 256))
	assert.ErrorIs(t, err, timbre.ErrShutdown)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.Equal(t, fft.Stats{Created: 2, Destroyed: 2}, s.Stats())
	s.Shutdown()
}

func TestPlanErrors(t *testing.T) {
	s := fft.NewSubsystem(nil)
	defer s.Shutdown()
	c, err := s.NewCache()
	require.NoError(t, err)

	var tests = []struct {
		size int
		err  error
	}{
		{size: 0, err: timbre.ErrInvalidInput},
		{size: 7, err: timbre.ErrInvalidSize},
		{size: 255, err: timbre.ErrInvalidSize},
		{size: -2, err: timbre.ErrInvalidSize},
	}
	for _, test := range tests {
		_, err := c.Plan(test.size)
		assert.ErrorIs(t, err, test.err, "size %d", test.size)
	}
	assert.Equal(t, fft.Stats{}, s.Stats())

	p, err := c.Plan(8)
	require.NoError(t, err)
	_, err = p.Forward(nil, make([]float64, 16))
	assert.ErrorIs(t, err, timbre.ErrInvalidSize)
	_, err = p.Forward(nil, make([]float64, 5))
	assert.ErrorIs(t, err, timbre.ErrInvalidSize)
	_, err = p.Forward(nil, nil)
	assert.ErrorIs(t, err, timbre.ErrInvalidInput)
	_, err = p.Inverse(nil, nil, true)
	assert.ErrorIs(t, err, timbre.ErrInvalidInput)
}

func TestRoundTrip(t *testing.T) {
	s := fft.NewSubsystem(nil)
	defer s.Shutdown()
	c, err := s.NewCache()
	require.NoError(t, err)
	p, err := c.Plan(8)
	require.NoError(t, err)

	signal := []float64{0.5, 1, -0.25, 0, 0.75, -1, 0.125, 0.3}
	spectrum, err := p.Forward(nil, signal)
	require.NoError(t, err)
	assert.Len(t, spectrum, 5)

	// dc component is a sum of samples.
	var sum float64
	for _, v := range signal {
		sum += v
	}
	assert.InDelta(t, sum, real(spectrum[0]), 1e-12)
	assert.InDelta(t, 0, imag(spectrum[0]), 1e-12)

	restored, err := p.Inverse(nil, spectrum, true)
	require.NoError(t, err)
	require.Len(t, restored, 8)
	for i := range signal {
		assert.InDelta(t, signal[i], restored[i], 1e-9)
	}

	unnormalized, err := p.Inverse(make([]float64, 0, 8), spectrum, false)
	require.NoError(t, err)
	for i := range signal {
		assert.InDelta(t, signal[i]*8, unnormalized[i], 1e-9)
	}

	// smaller transform with the same plan.
	spectrum, err = p.Forward(nil, []float64{1, 1, 1, 1})
	require.NoError(t, err)
	assert.Len(t, spectrum, 3)
	assert.InDelta(t, 4, real(spectrum[0]), 1e-12)
	assert.InDelta(t, 0, math.Abs(real(spectrum[1])), 1e-12)
}

func TestShutdown(t *testing.T) {
	s := fft.NewSubsystem(log.Silent())
	first, err := s.NewCache()
	require.NoError(t, err)
	second, err := s.NewCache()
	require.NoError(t, err)
	p, err := first.Plan(64)
	require.NoError(t, err)
	_, err = second.Plan(32)
	require.NoError(t, err)

	s.Shutdown()
	assert.False(t, s.Active())
	assert.Equal(t, fft.Stats{Created: 2, Destroyed: 2}, s.Stats())

	// caches closed after shutdown skip freeing.
	require.NoError(t, first.Close())
	require.NoError(t, second.Close())
	require.NoError(t, second.Close())
	assert.Equal(t, fft.Stats{Created: 2, Destroyed: 2, Skipped: 2}, s.Stats())

	_, err = first.Plan(64)
	assert.ErrorIs(t, err, timbre.ErrShutdown)
	_, err = p.Forward(nil, make([]float64, 64))
	assert.ErrorIs(t, err, timbre.ErrShutdown)
	_, err = s.NewCache()
	assert.ErrorIs(t, err, timbre.ErrShutdown)

	s.Shutdown()
	assert.Equal(t, fft.Stats{Created: 2, Destroyed: 2, Skipped: 2}, s.Stats())
}

func TestConcurrentCaches(t *testing.T) {
	s := fft.NewSubsystem(nil)
	defer s.Shutdown()
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := s.NewCache()
			if err != nil {
				errs <- err
				return
			}
			defer c.Close()
			for size := 2; size <= 256; size *= 2 {
				p, err := c.Plan(size)
				if err != nil {
					errs <- err
					return
				}
				if _, err := p.Forward(nil, make([]float64, size)); err != nil {
					errs <- err
					return
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	stats := s.Stats()
	assert.Equal(t, 8*8, stats.Created)
	assert.Equal(t, stats.Created, stats.Destroyed)
}
