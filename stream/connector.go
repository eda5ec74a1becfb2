package stream

import (
	"fmt"
	"sync/atomic"

	"github.com/dudk/timbre"
	"github.com/dudk/timbre/pool"
	"github.com/dudk/timbre/registry"
)

// sequence orders connections by the time they were declared.
var sequence uint64

func nextSequence() uint64 {
	return atomic.AddUint64(&sequence, 1)
}

type (
	// Sink is a typed input of algorithm. It accepts tokens from at most
	// one source and keeps them in FIFO order.
	Sink struct {
		name     string
		typ      timbre.Type
		optional bool
		owner    Algorithm
		source   *Source
		seq      uint64
		discard  bool

		buffer []interface{}
		head   int
		eos    bool
	}

	// Source is a typed output of algorithm. It duplicates every pushed
	// token to all connected sinks and pools.
	Source struct {
		name     string
		typ      timbre.Type
		owner    Algorithm
		sinks    []*Sink
		pools    []poolTarget
		finished bool
		pushed   int64
		err      error
	}

	// poolTarget is a pool descriptor connected to a source.
	poolTarget struct {
		pool   *pool.Pool
		name   string
		single bool
		seq    uint64
	}
)

func newSink(owner Algorithm, spec registry.PortSpec) *Sink {
	return &Sink{
		name:     spec.Name,
		typ:      spec.Type,
		optional: spec.Optional,
		owner:    owner,
	}
}

func newSource(owner Algorithm, spec registry.PortSpec) *Source {
	return &Source{
		name:  spec.Name,
		typ:   spec.Type,
		owner: owner,
	}
}

// Connect connects source to sink. Types of source and sink must match.
// If sink was connected to another source, that connection is removed.
func Connect(src *Source, sink *Sink) error {
	if src == nil || sink == nil {
		return fmt.Errorf("%w: nil port", timbre.ErrNotFound)
	}
	if src.typ != sink.typ {
		return fmt.Errorf("%w: %s is %v, %s is %v", timbre.ErrTypeMismatch, src.FullName(), src.typ, sink.FullName(), sink.typ)
	}
	if sink.source != nil {
		sink.source.remove(sink)
	}
	sink.source = src
	sink.seq = nextSequence()
	src.sinks = append(src.sinks, sink)
	return nil
}

// Disconnect removes connection between source and sink.
func Disconnect(src *Source, sink *Sink) error {
	if src == nil || sink == nil {
		return fmt.Errorf("%w: nil port", timbre.ErrNotFound)
	}
	if sink.source != src || !src.remove(sink) {
		return fmt.Errorf("%w: connection %s -> %s", timbre.ErrNotFound, src.FullName(), sink.FullName())
	}
	return nil
}

// Cap connects source to a sink which discards every token. It's used
// for outputs which are declared, but not needed.
func Cap(src *Source) *Sink {
	sink := &Sink{
		name:    "devnull",
		typ:     src.typ,
		discard: true,
	}
	// types are equal by construction.
	_ = Connect(src, sink)
	return sink
}

// ConnectToPool connects source to pool descriptor. Every pushed token is
// added to the descriptor.
func ConnectToPool(src *Source, p *pool.Pool, name string) error {
	return connectToPool(src, p, name, false)
}

// ConnectToPoolSingle connects source to pool descriptor which keeps a
// single value. Every pushed token overwrites the descriptor.
func ConnectToPoolSingle(src *Source, p *pool.Pool, name string) error {
	return connectToPool(src, p, name, true)
}

func connectToPool(src *Source, p *pool.Pool, name string, single bool) error {
	if src.typ == timbre.Pool || src.typ == timbre.Undefined {
		return fmt.Errorf("%w: %s of type %v can't be stored in pool", timbre.ErrTypeMismatch, src.FullName(), src.typ)
	}
	if err := p.Accepts(name, src.typ, single); err != nil {
		return fmt.Errorf("%s: %w", src.FullName(), err)
	}
	src.pools = append(src.pools, poolTarget{
		pool:   p,
		name:   name,
		single: single,
		seq:    nextSequence(),
	})
	return nil
}

// DisconnectPool removes connection between source and pool descriptor.
func DisconnectPool(src *Source, p *pool.Pool, name string) error {
	for i, t := range src.pools {
		if t.pool == p && t.name == name {
			src.pools = append(src.pools[:i], src.pools[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: connection %s -> pool %s", timbre.ErrNotFound, src.FullName(), name)
}

// Name returns sink name.
func (s *Sink) Name() string {
	return s.name
}

// FullName returns sink name qualified with owner's name.
func (s *Sink) FullName() string {
	return qualify(s.owner, s.name)
}

// Type returns sink type.
func (s *Sink) Type() timbre.Type {
	return s.typ
}

// Optional returns true if algorithm can process without this input.
func (s *Sink) Optional() bool {
	return s.optional
}

// Owner returns algorithm which owns the sink. Capped sinks have no owner.
func (s *Sink) Owner() Algorithm {
	return s.owner
}

// Source returns connected source or nil.
func (s *Sink) Source() *Source {
	return s.source
}

// Sequence returns declaration order of sink's connection.
func (s *Sink) Sequence() uint64 {
	return s.seq
}

// HasToken returns true if sink has pending tokens.
func (s *Sink) HasToken() bool {
	return s.head < len(s.buffer)
}

// Len returns number of pending tokens.
func (s *Sink) Len() int {
	return len(s.buffer) - s.head
}

// Pop removes and returns the oldest pending token. Callers should check
// HasToken first.
func (s *Sink) Pop() (interface{}, error) {
	if !s.HasToken() {
		return nil, fmt.Errorf("%w: %s", timbre.ErrEmpty, s.FullName())
	}
	v := s.buffer[s.head]
	s.buffer[s.head] = nil
	s.head++
	// reclaim consumed space
	if s.head == len(s.buffer) {
		s.buffer = s.buffer[:0]
		s.head = 0
	} else if s.head > 64 && s.head > len(s.buffer)/2 {
		n := copy(s.buffer, s.buffer[s.head:])
		s.buffer = s.buffer[:n]
		s.head = 0
	}
	return v, nil
}

// EndOfStream returns true if connected source is finished. Sink can still
// hold pending tokens.
func (s *Sink) EndOfStream() bool {
	return s.eos
}

// Exhausted returns true if sink will never have tokens again.
func (s *Sink) Exhausted() bool {
	return s.eos && !s.HasToken()
}

// Clear drops pending tokens and end of stream marker.
func (s *Sink) Clear() {
	for i := range s.buffer {
		s.buffer[i] = nil
	}
	s.buffer = s.buffer[:0]
	s.head = 0
	s.eos = false
}

func (s *Sink) push(v interface{}) {
	if s.discard {
		return
	}
	s.buffer = append(s.buffer, v)
}

// Name returns source name.
func (s *Source) Name() string {
	return s.name
}

// FullName returns source name qualified with owner's name.
func (s *Source) FullName() string {
	return qualify(s.owner, s.name)
}

// Type returns source type.
func (s *Source) Type() timbre.Type {
	return s.typ
}

// Owner returns algorithm which owns the source.
func (s *Source) Owner() Algorithm {
	return s.owner
}

// Sinks returns connected sinks in connection order.
func (s *Source) Sinks() []*Sink {
	return s.sinks
}

// IsConnected returns true if source has at least one sink or pool.
func (s *Source) IsConnected() bool {
	return len(s.sinks) > 0 || len(s.pools) > 0
}

// Push delivers token to every connected sink and pool descriptor.
func (s *Source) Push(v interface{}) {
	s.pushed++
	for _, sink := range s.sinks {
		sink.push(v)
	}
	for _, t := range s.pools {
		var err error
		if t.single {
			err = t.pool.Set(t.name, v)
		} else {
			err = t.pool.Add(t.name, v)
		}
		if err != nil && s.err == nil {
			s.err = fmt.Errorf("%s: %w", s.FullName(), err)
		}
	}
}

// Finish marks source as permanently exhausted. Connected sinks receive end
// of stream marker after their pending tokens.
func (s *Source) Finish() {
	s.finished = true
	for _, sink := range s.sinks {
		sink.eos = true
	}
}

// Finished returns true if source won't produce any more tokens.
func (s *Source) Finished() bool {
	return s.finished
}

// TakePushed returns number of tokens pushed since last call.
func (s *Source) TakePushed() int64 {
	n := s.pushed
	s.pushed = 0
	return n
}

// TakeErr returns the first pool write error since last call.
func (s *Source) TakeErr() error {
	err := s.err
	s.err = nil
	return err
}

// Reset clears finished state and counters.
func (s *Source) Reset() {
	s.finished = false
	s.pushed = 0
	s.err = nil
}

// DisconnectAll removes every connection of the source.
func (s *Source) DisconnectAll() {
	for _, sink := range s.sinks {
		sink.source = nil
	}
	s.sinks = nil
	s.pools = nil
}

// remove drops sink from the list of connected sinks.
func (s *Source) remove(sink *Sink) bool {
	for i := range s.sinks {
		if s.sinks[i] == sink {
			s.sinks = append(s.sinks[:i], s.sinks[i+1:]...)
			sink.source = nil
			return true
		}
	}
	return false
}

// DisconnectAll removes connection of the sink.
func (s *Sink) DisconnectAll() {
	if s.source != nil {
		s.source.remove(s)
	}
}

func qualify(owner Algorithm, name string) string {
	if owner == nil {
		return name
	}
	return owner.Name() + "." + name
}
