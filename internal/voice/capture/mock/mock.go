// Package mock provides a scriptable in-memory capture session for tests.
package mock

import (
	"context"
	"sync"

	"github.com/hbashir/paniwala/internal/voice/capture"
)

// Compile-time interface check.
var _ capture.Session = (*Session)(nil)

// Session is a test double for [capture.Session]. Tests drive it by calling
// [Session.EmitResult], [Session.EmitError], and [Session.End] after Start.
// All methods are safe for concurrent use.
type Session struct {
	mu      sync.Mutex
	events  chan capture.Event
	started bool
	closed  bool
	stops   int
}

// NewSession returns a Session with a buffered event channel so tests can
// emit without a concurrent reader.
func NewSession() *Session {
	return &Session{events: make(chan capture.Event, 32)}
}

// Start implements [capture.Session].
func (s *Session) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = true
	return nil
}

// Events implements [capture.Session].
func (s *Session) Events() <-chan capture.Event { return s.events }

// Stop implements [capture.Session]. Repeated calls are counted but only the
// first closes the channel.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	return nil
}

// EmitResult delivers a cumulative transcript event.
func (s *Session) EmitResult(transcript string, final bool) {
	s.emit(capture.Event{Type: capture.EventResult, Transcript: transcript, Final: final})
}

// EmitError delivers an error event with the given classification.
func (s *Session) EmitError(kind capture.ErrorKind) {
	s.emit(capture.Event{Type: capture.EventError, Kind: kind})
}

// End delivers the end-of-session event and closes the channel.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.events <- capture.Event{Type: capture.EventEnd}
	s.closed = true
	close(s.events)
}

// Started reports whether Start was called.
func (s *Session) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// StopCalls returns how many times Stop was called.
func (s *Session) StopCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stops
}

func (s *Session) emit(ev capture.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.events <- ev
}
