// Package metric publishes expvar counters of streaming algorithms.
//
// Counters are aggregated per algorithm name, so every instance of the same
// algorithm contributes to the same counters.
package metric

import (
	"expvar"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const algorithmsLabel = "timbre.algorithms"

const (
	// CallCounter measures number of process calls.
	CallCounter = "Calls"
	// TokenCounter measures number of produced tokens.
	TokenCounter = "Tokens"
	// LatencyCounter measures latency between process calls.
	LatencyCounter = "Latency"
	// DurationCounter measures time spent in process calls.
	DurationCounter = "Duration"
	// InstanceCounter counts number of metered instances.
	InstanceCounter = "Instances"
)

var (
	algorithms = metrics{
		m: make(map[string]metric),
	}

	counters = []string{
		CallCounter,
		TokenCounter,
		LatencyCounter,
		DurationCounter,
		InstanceCounter,
	}
)

// Get metrics values for provided algorithm name.
func Get(algorithm string) map[string]string {
	return getCounters(algorithm)
}

// GetAll returns counters for all measured algorithms.
func GetAll() map[string]map[string]string {
	m := make(map[string]map[string]string)
	algorithms.Lock()
	defer algorithms.Unlock()
	for algorithm := range algorithms.m {
		m[algorithm] = getCounters(algorithm)
	}
	return m
}

func getCounters(algorithm string) map[string]string {
	m := make(map[string]string)
	for _, counter := range counters {
		v := expvar.Get(key(algorithm, counter))
		if v != nil {
			m[counter] = v.String()
		}
	}
	return m
}

// ResetFunc returns new Measure closure. This closure is needed to postpone metrics
// capture until network is actually running.
type ResetFunc func() MeasureFunc

// MeasureFunc captures metrics when algorithm step is done.
type MeasureFunc func(tokens int64, elapsed time.Duration)

// Meter creates new meter closure to capture algorithm counters.
func Meter(algorithm string) ResetFunc {
	metric := algorithms.get(algorithm)
	metric.instances.Add(1)
	return func() MeasureFunc {
		calledAt := time.Now()
		return func(tokens int64, elapsed time.Duration) {
			metric.latency.set(time.Since(calledAt))
			metric.calls.Add(1)
			metric.tokens.Add(tokens)
			metric.duration.add(elapsed)
			calledAt = time.Now()
		}
	}
}

type metrics struct {
	sync.Mutex
	m map[string]metric
}

func (m *metrics) get(algorithm string) metric {
	m.Lock()
	defer m.Unlock()
	if metric, ok := m.m[algorithm]; ok {
		// return existing metric if available
		return metric
	}
	// create new metric
	metric := newMetric(algorithm)
	m.m[algorithm] = metric
	return metric
}

type metric struct {
	instances *expvar.Int
	calls     *expvar.Int
	tokens    *expvar.Int
	latency   *duration
	duration  *duration
}

func newMetric(algorithm string) metric {
	m := metric{
		instances: expvar.NewInt(key(algorithm, InstanceCounter)),
		calls:     expvar.NewInt(key(algorithm, CallCounter)),
		tokens:    expvar.NewInt(key(algorithm, TokenCounter)),
		latency:   &duration{},
		duration:  &duration{},
	}
	expvar.Publish(key(algorithm, LatencyCounter), m.latency)
	expvar.Publish(key(algorithm, DurationCounter), m.duration)
	return m
}

func key(algorithm, counter string) string {
	return fmt.Sprintf("%s.%s.%s", algorithmsLabel, algorithm, counter)
}

// duration allows to format time.Duration metric values.
type duration struct {
	d int64
}

func (v *duration) String() string {
	return fmt.Sprintf("%q", time.Duration(atomic.LoadInt64(&v.d)).String())
}

func (v *duration) add(delta time.Duration) {
	atomic.AddInt64(&v.d, int64(delta))
}

func (v *duration) set(value time.Duration) {
	atomic.StoreInt64(&v.d, int64(value))
}
