// Package capture defines the speech-capture collaborator boundary.
//
// The ledger core does not transcribe audio itself: an external recogniser
// (in production, the Web Speech API running in the operator's browser)
// produces a stream of cumulative best-guess transcripts. A [Session] is one
// capture attempt; it delivers zero or more [Event] values - results,
// a terminal error, and an end-of-session marker - on a single channel.
//
// Result transcripts are cumulative, not incremental appends: every result
// carries the full best guess so far, and consumers re-interpret the whole
// transcript on each event.
//
// Implementations must be safe for concurrent use, and Stop must be
// idempotent: stopping an already-stopped session is a no-op.
package capture

import (
	"context"
	"errors"
)

// ErrUnsupported is returned by a [Provider] when the speech capability is
// unavailable in the current runtime. Callers report it once and start no
// session.
var ErrUnsupported = errors.New("capture: speech capture not supported")

// EventType discriminates the values delivered on [Session.Events].
type EventType int

const (
	// EventResult carries a cumulative transcript.
	EventResult EventType = iota

	// EventError carries a capture-layer failure classification.
	EventError

	// EventEnd marks the end of the recognition session. No further events
	// follow and the channel is closed.
	EventEnd
)

// ErrorKind classifies capture-layer failures. "No speech" is deliberately
// distinguished: it is treated as silence, not as an error.
type ErrorKind int

const (
	// ErrorNone is the zero value for non-error events.
	ErrorNone ErrorKind = iota

	// ErrorNoSpeech means the recogniser heard nothing. The session ends
	// quietly; the transcript display is cleared rather than showing an error.
	ErrorNoSpeech

	// ErrorFailed is any other capture failure.
	ErrorFailed
)

// Event is one occurrence in a capture session's lifetime.
type Event struct {
	Type EventType

	// Transcript is the cumulative best-guess transcript. Set for EventResult.
	Transcript string

	// Final reports whether the recogniser has committed to this result.
	// Set for EventResult.
	Final bool

	// Kind classifies the failure. Set for EventError.
	Kind ErrorKind
}

// Session is a single speech-capture attempt.
type Session interface {
	// Start begins recognition. It may be called at most once.
	Start(ctx context.Context) error

	// Events returns the channel of capture events. The channel is closed
	// after the end event is delivered or the session is stopped.
	Events() <-chan Event

	// Stop ends the session. It is idempotent and safe to call from any
	// goroutine, including concurrently with event delivery.
	Stop() error
}

// Provider opens capture sessions. Returns [ErrUnsupported] when the
// runtime has no speech capability.
type Provider interface {
	NewSession(ctx context.Context) (Session, error)
}
