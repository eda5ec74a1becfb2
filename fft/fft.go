/*
Package fft provides cached plans of real discrete Fourier transform.

Plans are expensive to create, so transform algorithms keep them in a
Cache. Every Cache holds at most one plan and replaces it only when bigger
transform is requested. All caches of a Subsystem share a single mutex
which guards plan creation and destruction. Execution of cached plan
doesn't take that mutex.

Subsystem is shut down in two phases: first it's marked inactive, then
every cache checks this flag before freeing its plan. A cache closed
after shutdown skips the free.
*/
package fft

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/dudk/timbre"
	"github.com/dudk/timbre/log"
)

type (
	// Subsystem owns transform plans of all its caches.
	Subsystem struct {
		mu     sync.Mutex
		log    log.Logger
		active bool
		caches map[*Cache]struct{}
		stats  Stats
	}

	// Stats counts plan lifecycle events.
	Stats struct {
		// Created is number of created plans.
		Created int
		// Destroyed is number of freed plans.
		Destroyed int
		// Skipped is number of frees skipped after shutdown.
		Skipped int
	}

	// Cache holds at most one plan.
	Cache struct {
		subsystem *Subsystem
		plan      *Plan
		closed    bool
	}

	// Plan is an execution plan of real transform. Its capacity is the
	// size it was created for, smaller even sizes reuse it.
	Plan struct {
		// exec serializes use of scratch space.
		exec     sync.Mutex
		capacity int
		size     int
		fft      *fourier.FFT
	}
)

// NewSubsystem returns active subsystem.
func NewSubsystem(logger log.Logger) *Subsystem {
	if logger == nil {
		logger = log.Silent()
	}
	return &Subsystem{
		log:    logger,
		active: true,
		caches: make(map[*Cache]struct{}),
	}
}

// NewCache returns empty cache tracked by subsystem.
func (s *Subsystem) NewCache() (*Cache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return nil, timbre.ErrShutdown
	}
	c := &Cache{subsystem: s}
	s.caches[c] = struct{}{}
	return c, nil
}

// Active returns false after shutdown.
func (s *Subsystem) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Stats returns plan lifecycle counters.
func (s *Subsystem) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Shutdown marks subsystem inactive and frees plans of all open caches.
// Caches closed after shutdown skip freeing. Repeated calls do nothing.
func (s *Subsystem) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	s.active = false
	for c := range s.caches {
		if c.plan != nil {
			c.plan.free()
			c.plan = nil
			s.stats.Destroyed++
		}
	}
	s.caches = make(map[*Cache]struct{})
	s.log.Debug(fmt.Sprintf("fft: shut down, %d plans created, %d destroyed", s.stats.Created, s.stats.Destroyed))
}

// Plan returns plan which can execute transforms of provided size. Cached
// plan is reused if its capacity is enough, otherwise it's replaced.
func (c *Cache) Plan(size int) (*Plan, error) {
	if size == 0 {
		return nil, fmt.Errorf("%w: transform of zero size", timbre.ErrInvalidInput)
	}
	if size < 0 || size%2 != 0 {
		return nil, fmt.Errorf("%w: transform size %d must be even", timbre.ErrInvalidSize, size)
	}
	s := c.subsystem
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || c.closed {
		return nil, timbre.ErrShutdown
	}
	if c.plan != nil && c.plan.capacity >= size {
		c.plan.resize(size)
		return c.plan, nil
	}
	if c.plan != nil {
		c.plan.free()
		s.stats.Destroyed++
	}
	c.plan = newPlan(size)
	s.stats.Created++
	return c.plan, nil
}

// Close frees cached plan exactly once. If subsystem was already shut down,
// plan isn't freed again.
func (c *Cache) Close() error {
	s := c.subsystem
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	delete(s.caches, c)
	if !s.active {
		s.stats.Skipped++
		s.log.Debug("fft: cache closed after shutdown, free is skipped")
		c.plan = nil
		return nil
	}
	if c.plan != nil {
		c.plan.free()
		c.plan = nil
		s.stats.Destroyed++
	}
	return nil
}

func newPlan(size int) *Plan {
	return &Plan{
		capacity: size,
		size:     size,
		fft:      fourier.NewFFT(size),
	}
}

// resize prepares plan for smaller transform. Plan storage is reused.
func (p *Plan) resize(size int) {
	p.exec.Lock()
	defer p.exec.Unlock()
	if p.size != size {
		p.fft.Reset(size)
		p.size = size
	}
}

func (p *Plan) free() {
	p.exec.Lock()
	defer p.exec.Unlock()
	p.fft = nil
}

// Capacity returns the biggest size plan can execute.
func (p *Plan) Capacity() int {
	return p.capacity
}

// Forward computes transform of real signal. Result has len(src)/2+1
// values, it's written to dst if it has enough capacity.
func (p *Plan) Forward(dst []complex128, src []float64) ([]complex128, error) {
	n := len(src)
	if err := p.prepare(n); err != nil {
		return nil, err
	}
	defer p.exec.Unlock()
	if cap(dst) < n/2+1 {
		dst = make([]complex128, n/2+1)
	}
	return p.fft.Coefficients(dst[:n/2+1], src), nil
}

// Inverse computes real signal of m complex values. Result has 2(m-1)
// values. Result is divided by its size if normalize is set.
func (p *Plan) Inverse(dst []float64, src []complex128, normalize bool) ([]float64, error) {
	if len(src) == 0 {
		return nil, fmt.Errorf("%w: empty spectrum", timbre.ErrInvalidInput)
	}
	n := 2 * (len(src) - 1)
	if err := p.prepare(n); err != nil {
		return nil, err
	}
	defer p.exec.Unlock()
	if cap(dst) < n {
		dst = make([]float64, n)
	}
	dst = p.fft.Sequence(dst[:n], src)
	if normalize {
		for i := range dst {
			dst[i] /= float64(n)
		}
	}
	return dst, nil
}

// prepare locks plan for execution of provided size.
func (p *Plan) prepare(n int) error {
	if n == 0 {
		return fmt.Errorf("%w: transform of zero size", timbre.ErrInvalidInput)
	}
	if n%2 != 0 {
		return fmt.Errorf("%w: transform size %d must be even", timbre.ErrInvalidSize, n)
	}
	p.exec.Lock()
	if p.fft == nil {
		p.exec.Unlock()
		return timbre.ErrShutdown
	}
	if n > p.capacity {
		p.exec.Unlock()
		return fmt.Errorf("%w: transform size %d exceeds plan capacity %d", timbre.ErrInvalidSize, n, p.capacity)
	}
	if p.size != n {
		p.fft.Reset(n)
		p.size = n
	}
	return nil
}
