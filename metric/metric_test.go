package metric_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dudk/timbre/metric"
)

func TestMeter(t *testing.T) {
	// test cases
	var tests = []struct {
		algorithm         string
		routines          int
		calls             int
		tokens            int64
		expectedCalls     string
		expectedTokens    string
		expectedInstances string
	}{
		{
			algorithm:         "MeterTestA",
			routines:          2,
			calls:             10,
			tokens:            3,
			expectedCalls:     "20",
			expectedTokens:    "60",
			expectedInstances: "2",
		},
		{
			algorithm:         "MeterTestA",
			routines:          2,
			calls:             10,
			tokens:            1,
			expectedCalls:     "40",
			expectedTokens:    "80",
			expectedInstances: "4",
		},
		{
			algorithm:         "MeterTestB",
			routines:          1,
			calls:             5,
			tokens:            0,
			expectedCalls:     "5",
			expectedTokens:    "0",
			expectedInstances: "1",
		},
	}
	// function to test meter.
	testFn := func(fn metric.MeasureFunc, wg *sync.WaitGroup, calls int, tokens int64) {
		for i := 0; i < calls; i++ {
			fn(tokens, time.Millisecond)
		}
		wg.Done()
	}

	for _, c := range tests {
		wg := &sync.WaitGroup{}
		wg.Add(c.routines)
		for i := 0; i < c.routines; i++ {
			go testFn(metric.Meter(c.algorithm)(), wg, c.calls, c.tokens)
		}
		// check if no data race.
		wg.Wait()
		values := metric.Get(c.algorithm)
		assert.Equal(t, c.expectedCalls, values[metric.CallCounter])
		assert.Equal(t, c.expectedTokens, values[metric.TokenCounter])
		assert.Equal(t, c.expectedInstances, values[metric.InstanceCounter])
		assert.NotEmpty(t, values[metric.DurationCounter])
	}
	all := metric.GetAll()
	assert.Contains(t, all, "MeterTestA")
	assert.Contains(t, all, "MeterTestB")
}
