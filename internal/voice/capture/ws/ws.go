// Package ws adapts a WebSocket connection to the [capture.Session]
// interface.
//
// The operator's browser runs the actual speech recogniser (Web Speech API)
// and streams its recognition events to the server as JSON text messages:
//
//	{"type":"result","transcript":"5 and 19","final":false}
//	{"type":"error","error":"no-speech"}
//	{"type":"end"}
//
// The server pushes user-facing status updates back on the same connection:
//
//	{"type":"status","kind":"toast","level":"error","message":"..."}
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"

	"github.com/hbashir/paniwala/internal/voice/capture"
)

// Compile-time interface check.
var _ capture.Session = (*Session)(nil)

// inboundMessage is the JSON frame sent by the browser recogniser.
type inboundMessage struct {
	Type       string `json:"type"`
	Transcript string `json:"transcript,omitempty"`
	Final      bool   `json:"final,omitempty"`
	Error      string `json:"error,omitempty"`
}

// StatusMessage is the JSON frame pushed to the browser for user feedback.
type StatusMessage struct {
	Type    string `json:"type"`
	Kind    string `json:"kind"`
	Level   string `json:"level,omitempty"`
	Message string `json:"message,omitempty"`
}

// Session is a live WebSocket capture session. Events flow from the browser
// recogniser; Close/Stop tears the connection down. All methods are safe for
// concurrent use.
type Session struct {
	conn   *websocket.Conn
	events chan capture.Event

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc

	stopOnce sync.Once
}

// Accept upgrades the HTTP request to a WebSocket and returns a Session
// ready to Start. originPatterns is passed through to the WebSocket
// handshake; empty means same-origin only.
func Accept(w http.ResponseWriter, r *http.Request, originPatterns []string) (*Session, error) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns,
	})
	if err != nil {
		return nil, fmt.Errorf("capture ws: accept: %w", err)
	}
	return &Session{
		conn:   conn,
		events: make(chan capture.Event, 16),
	}, nil
}

// Start begins reading recognition events from the browser.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("capture ws: session already started")
	}
	s.started = true

	readCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	go s.readLoop(readCtx)
	return nil
}

// Events implements [capture.Session].
func (s *Session) Events() <-chan capture.Event { return s.events }

// Stop implements [capture.Session]. The read loop owns the event channel
// and closes it on exit, so Stop only cancels the loop and the connection.
func (s *Session) Stop() error {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		cancel := s.cancel
		started := s.started
		s.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		_ = s.conn.Close(websocket.StatusNormalClosure, "session stopped")
		if !started {
			// No read loop ever ran; close the channel here.
			close(s.events)
		}
	})
	return nil
}

// SendStatus pushes a status frame to the browser. Best-effort: delivery
// failures are returned but the session stays usable.
func (s *Session) SendStatus(ctx context.Context, msg StatusMessage) error {
	msg.Type = "status"
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("capture ws: marshal status: %w", err)
	}
	if err := s.conn.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("capture ws: write status: %w", err)
	}
	return nil
}

// readLoop receives JSON frames and dispatches them as capture events.
// It owns the events channel and closes it on return.
func (s *Session) readLoop(ctx context.Context) {
	defer close(s.events)

	for {
		typ, data, err := s.conn.Read(ctx)
		if err != nil {
			// Connection gone or Stop cancelled the context. Either way the
			// session is over.
			return
		}
		if typ != websocket.MessageText {
			continue
		}

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("capture ws: dropping malformed frame", "err", err)
			continue
		}

		switch msg.Type {
		case "result":
			s.deliver(ctx, capture.Event{
				Type:       capture.EventResult,
				Transcript: msg.Transcript,
				Final:      msg.Final,
			})
		case "error":
			kind := capture.ErrorFailed
			if msg.Error == "no-speech" {
				kind = capture.ErrorNoSpeech
			}
			s.deliver(ctx, capture.Event{Type: capture.EventError, Kind: kind})
		case "end":
			s.deliver(ctx, capture.Event{Type: capture.EventEnd})
			return
		default:
			slog.Debug("capture ws: ignoring unknown frame type", "type", msg.Type)
		}
	}
}

func (s *Session) deliver(ctx context.Context, ev capture.Event) {
	select {
	case s.events <- ev:
	case <-ctx.Done():
	}
}
