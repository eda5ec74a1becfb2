// Package example shows how networks are assembled and run. Every example
// analyzes generated sine files.
package example

import (
	"github.com/dudk/timbre/log"
	"github.com/dudk/timbre/session"
	"github.com/dudk/timbre/test"
)

func check(err error) {
	if err != nil {
		panic(err)
	}
}

// sine writes n samples of sine with provided frequency into wav file.
func sine(path string, frequency float64, n int) {
	check(test.WriteWav(path, test.SampleRate, test.Sine(frequency, 0.5, test.SampleRate, n)))
}

func newSession() *session.Session {
	s, err := session.New(session.WithLogger(log.Silent()))
	check(err)
	return s
}
