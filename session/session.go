/*
Package session provides an explicit context of algorithm registries and
transform plans.

Session is created once and passed to graph builders. It registers every
algorithm of this module and owns the fft subsystem used by transform
algorithms. Close shuts the subsystem down: caches which are closed after
that skip freeing their plans. Session must be closed after all networks
built from it are cleared.
*/
package session

import (
	"fmt"
	"sync"

	"github.com/dudk/timbre"
	"github.com/dudk/timbre/algo"
	"github.com/dudk/timbre/audiofile"
	"github.com/dudk/timbre/fft"
	"github.com/dudk/timbre/log"
	"github.com/dudk/timbre/network"
	"github.com/dudk/timbre/registry"
	"github.com/dudk/timbre/standard"
	"github.com/dudk/timbre/stream"
)

type (
	// Session is a top level context of algorithms.
	Session struct {
		uid string
		log log.Logger

		// Standard holds synchronous algorithms.
		Standard *registry.Registry[standard.Algorithm]
		// Streaming holds streaming algorithms.
		Streaming *registry.Registry[stream.Algorithm]
		// Transforms provides plans to transform algorithms.
		Transforms *fft.Subsystem

		extensions []func(*Session) error
		close      sync.Once
	}

	// Option provides a way to set functional parameters to session.
	Option func(*Session) error
)

// WithLogger sets session logger. It's used by registries and networks of
// session.
func WithLogger(l log.Logger) Option {
	return func(s *Session) error {
		if l == nil {
			return fmt.Errorf("%w: nil logger", timbre.ErrConfiguration)
		}
		s.log = l
		return nil
	}
}

// WithAlgorithms registers additional algorithms after built-in ones. Later
// registrations replace earlier ones with the same name.
func WithAlgorithms(register func(*Session) error) Option {
	return func(s *Session) error {
		if register == nil {
			return fmt.Errorf("%w: nil registration", timbre.ErrConfiguration)
		}
		s.extensions = append(s.extensions, register)
		return nil
	}
}

// New creates session with every algorithm registered.
func New(options ...Option) (*Session, error) {
	s := &Session{
		uid: timbre.NewUID(),
		log: log.GetLogger(),
	}
	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}
	s.Standard = registry.New[standard.Algorithm](s.log)
	s.Streaming = registry.New[stream.Algorithm](s.log)
	s.Transforms = fft.NewSubsystem(s.log)

	algo.Register(s.Standard, s.Streaming, s.Transforms)
	audiofile.Register(s.Streaming)
	for _, register := range s.extensions {
		if err := register(s); err != nil {
			s.Transforms.Shutdown()
			return nil, err
		}
	}
	s.log.Debug(fmt.Sprintf("session %s: %d standard and %d streaming algorithms", s.uid, s.Standard.Len(), s.Streaming.Len()))
	return s, nil
}

// UID returns session id.
func (s *Session) UID() string {
	return s.uid
}

// Logger returns session logger.
func (s *Session) Logger() log.Logger {
	return s.log
}

// NewNetwork returns empty network which logs to session logger. Options
// can override it.
func (s *Session) NewNetwork(options ...network.Option) (*network.Network, error) {
	return network.New(append([]network.Option{network.WithLogger(s.log)}, options...)...)
}

// Close shuts down transform subsystem. Repeated calls do nothing.
func (s *Session) Close() error {
	s.close.Do(func() {
		s.Transforms.Shutdown()
		stats := s.Transforms.Stats()
		s.log.Debug(fmt.Sprintf("session %s: closed, %d plans created, %d destroyed, %d skipped", s.uid, stats.Created, stats.Destroyed, stats.Skipped))
	})
	return nil
}
