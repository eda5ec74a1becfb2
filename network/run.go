package network

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/dudk/timbre"
	"github.com/dudk/timbre/metric"
	"github.com/dudk/timbre/stream"
)

// runner drives a single primitive algorithm.
type runner struct {
	algorithm stream.Algorithm
	required  []*stream.Sink
	finished  bool
	flush     func() error
	meter     metric.ResetFunc
	measure   metric.MeasureFunc
}

func newRunner(a stream.Algorithm, meter metric.ResetFunc) *runner {
	r := runner{
		algorithm: a,
		flush:     flusher(a),
		meter:     meter,
	}
	for _, s := range a.Inputs() {
		if !s.Optional() {
			r.required = append(r.required, s)
		}
	}
	return &r
}

// flusher checks if algorithm implements Flusher and if so, return its hook.
func flusher(a stream.Algorithm) func() error {
	if v, ok := a.(stream.Flusher); ok {
		return v.Flush
	}
	return nil
}

// ready returns true if every required input has a token.
func (r *runner) ready() bool {
	for _, s := range r.required {
		if !s.HasToken() {
			return false
		}
	}
	return true
}

// exhausted returns true if any required input won't have tokens again.
func (r *runner) exhausted() bool {
	for _, s := range r.required {
		if s.Exhausted() {
			return true
		}
	}
	return false
}

// RunPrepare resets algorithms and clears buffers. It must be called
// before the first RunStep of every run.
func (n *Network) RunPrepare() error {
	if err := n.built(); err != nil {
		return err
	}
	n.reset()
	n.writeErr = nil
	for _, r := range n.order {
		r.measure = r.meter()
	}
	atomic.StoreInt32(&n.shouldStop, 0)
	n.state = Running
	return nil
}

// RunStep calls generator once and then every algorithm which has pending
// input in execution order. It returns false when network is drained or
// stopped.
func (n *Network) RunStep() (bool, error) {
	if err := n.built(); err != nil {
		return false, err
	}
	if atomic.LoadInt32(&n.shouldStop) == 1 {
		return false, nil
	}
	switch n.state {
	case Drained:
		return false, nil
	case Built:
		return false, fmt.Errorf("%w: network is not prepared", timbre.ErrNotBuilt)
	}

	for _, r := range n.order {
		if r.finished {
			r.drop()
			continue
		}
		if len(r.required) > 0 && !r.ready() {
			if r.exhausted() {
				if err := n.finish(r); err != nil {
					return false, err
				}
			}
			continue
		}
		start := time.Now()
		status, err := r.algorithm.Process()
		if err != nil {
			return false, fmt.Errorf("process %s: %w", r.algorithm.Name(), err)
		}
		r.measure(n.collect(r), time.Since(start))
		if status == stream.Finished || r.exhausted() {
			if err := n.finish(r); err != nil {
				return false, err
			}
		}
	}

	if n.active() {
		return true, nil
	}
	n.state = Drained
	return false, nil
}

// Run prepares network and steps it until it's drained or stopped.
func (n *Network) Run() error {
	return n.RunContext(context.Background())
}

// RunContext runs network until it's drained, stopped or context is done.
// Context is checked between steps. The first pool write failure is
// returned after stepping ends.
func (n *Network) RunContext(ctx context.Context) error {
	if err := n.RunPrepare(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			n.Stop()
			return ctx.Err()
		default:
		}
		ok, err := n.RunStep()
		if err != nil {
			return err
		}
		if !ok {
			return n.writeErr
		}
	}
}

// Stop requests network to stop. Step in progress is not interrupted. It's
// safe to call Stop from another goroutine.
func (n *Network) Stop() {
	atomic.StoreInt32(&n.shouldStop, 1)
}

// Reset resets algorithms and clears buffers. Network returns to Built
// state.
func (n *Network) Reset() error {
	if err := n.built(); err != nil {
		return err
	}
	n.reset()
	n.state = Built
	return nil
}

func (n *Network) built() error {
	if n.state == Empty {
		return timbre.ErrNotBuilt
	}
	if n.dirty {
		return fmt.Errorf("%w: connections changed, network must be updated", timbre.ErrNotBuilt)
	}
	return nil
}

func (n *Network) reset() {
	for _, r := range n.order {
		r.algorithm.Reset()
		r.finished = false
		for _, s := range r.algorithm.Inputs() {
			s.Clear()
		}
		for _, s := range r.algorithm.Outputs() {
			s.Reset()
			for _, sink := range s.Sinks() {
				sink.Clear()
			}
		}
	}
}

// drop discards tokens which arrive to finished algorithm.
func (r *runner) drop() {
	for _, s := range r.algorithm.Inputs() {
		if s.HasToken() {
			s.Clear()
		}
	}
}

// finish flushes algorithm and marks its outputs finished. Pending input
// tokens are dropped.
func (n *Network) finish(r *runner) error {
	r.finished = true
	r.drop()
	if r.flush != nil {
		if err := r.flush(); err != nil {
			return fmt.Errorf("flush %s: %w", r.algorithm.Name(), err)
		}
		n.collect(r)
	}
	for _, s := range r.algorithm.Outputs() {
		s.Finish()
	}
	n.log.Debug(fmt.Sprintf("network %s: %s is finished", n.uid, r.algorithm.Name()))
	return nil
}

// collect returns number of pushed tokens and records pool write failures.
func (n *Network) collect(r *runner) int64 {
	var pushed int64
	for _, s := range r.algorithm.Outputs() {
		pushed += s.TakePushed()
		if err := s.TakeErr(); err != nil {
			n.log.Warn(fmt.Sprintf("network %s: pool write failed: %v", n.uid, err))
			if n.writeErr == nil {
				n.writeErr = fmt.Errorf("network %s: pool write: %w", n.uid, err)
			}
		}
	}
	return pushed
}

// active returns true if any source algorithm isn't finished or any
// unfinished algorithm holds tokens.
func (n *Network) active() bool {
	for _, r := range n.order {
		if r.finished {
			continue
		}
		if len(r.required) == 0 {
			return true
		}
		for _, s := range r.algorithm.Inputs() {
			if s.HasToken() {
				return true
			}
		}
	}
	return false
}

func sortSinks(sinks []*stream.Sink) {
	sort.SliceStable(sinks, func(i, j int) bool {
		return sinks[i].Sequence() < sinks[j].Sequence()
	})
}
