package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hbashir/paniwala/internal/ledger"
	"github.com/hbashir/paniwala/internal/match"
	"github.com/hbashir/paniwala/internal/observe"
	"github.com/hbashir/paniwala/internal/voice/assembler"
	"github.com/hbashir/paniwala/internal/voice/capture"
	"github.com/hbashir/paniwala/internal/voice/grammar"
)

// CommandSession binds one capture session to one command assembler and
// one posting handler. The session owns all three: nothing about an
// in-flight command lives outside it, so concurrent sessions never share
// state. Start and Stop are its only mutators; Stop is idempotent.
type CommandSession struct {
	app *App
	cap capture.Session
	asm *assembler.Assembler

	// statusMu guards status against the finalize callback racing the
	// channel close: debounce timers fire on their own goroutine.
	statusMu     sync.Mutex
	statusClosed bool
	status       chan Status

	// runCtx is set once at Run start and read by the finalize callbacks,
	// which fire on debounce timer goroutines. Cancellation is stripped so
	// a command finalizing as the socket closes still posts; trace and
	// value linkage to the request context survive.
	runCtx context.Context

	started time.Time

	stopOnce sync.Once
}

// NewCommandSession creates a session in the given mode. An empty mode
// falls back to the configured default.
func (a *App) NewCommandSession(capSess capture.Session, mode grammar.Mode) *CommandSession {
	if !mode.IsValid() {
		mode = a.cfg.Voice.DefaultMode
	}

	s := &CommandSession{
		app:    a,
		cap:    capSess,
		status: make(chan Status, 16),
	}
	s.asm = assembler.New(assembler.Config{
		Mode:              mode,
		ClassifyThreshold: a.cfg.Voice.ClassifyThreshold,
		ShortDebounce:     a.cfg.Voice.ShortDebounce.Std(),
		LongDebounce:      a.cfg.Voice.LongDebounce.Std(),
	}, s.handleCommand, s.handleIncomplete)
	return s
}

// Status returns the channel of session events pushed to the client. It is
// closed when the session ends.
func (s *CommandSession) Status() <-chan Status { return s.status }

// Run starts capture and processes events until the capture session ends
// or ctx is cancelled. It always closes the status channel before
// returning.
func (s *CommandSession) Run(ctx context.Context) error {
	defer s.closeStatus()
	defer s.Stop()

	s.runCtx = context.WithoutCancel(ctx)

	s.app.metrics.ActiveSessions.Add(ctx, 1)
	defer s.app.metrics.ActiveSessions.Add(ctx, -1)

	if err := s.cap.Start(ctx); err != nil {
		if errors.Is(err, capture.ErrUnsupported) {
			s.emit(Status{Code: StatusCaptureUnsupported, Error: true,
				Message: "Speech capture is not supported on this device."})
			return err
		}
		return fmt.Errorf("app: start capture: %w", err)
	}
	s.started = time.Now()
	s.emit(Status{Code: StatusListening, Message: "Listening..."})

	for {
		select {
		case <-ctx.Done():
			s.asm.Abort()
			return ctx.Err()
		case ev, ok := <-s.cap.Events():
			if !ok {
				s.asm.Stop()
				return nil
			}
			switch ev.Type {
			case capture.EventResult:
				s.asm.HandleResult(ev.Transcript)
			case capture.EventError:
				s.handleCaptureError(ctx, ev.Kind)
			case capture.EventEnd:
				s.asm.Stop()
				return nil
			}
		}
	}
}

// Stop ends the session: capture is stopped and any pending command gets
// a final chance to post. Safe to call more than once and concurrently
// with Run.
func (s *CommandSession) Stop() {
	s.stopOnce.Do(func() {
		s.cap.Stop()
		s.asm.Stop()
	})
}

func (s *CommandSession) handleCaptureError(ctx context.Context, kind capture.ErrorKind) {
	// Silence is normal during a delivery round; only real failures reach
	// the operator.
	if kind == capture.ErrorNoSpeech {
		slog.Debug("voice session: no speech detected")
		s.asm.Abort()
		return
	}
	s.app.metrics.RecordAbort(ctx, "capture_error")
	s.asm.Abort()
	s.emit(Status{Code: StatusCaptureError, Error: true,
		Message: "Speech recognition failed. Try again."})
}

func (s *CommandSession) handleIncomplete() {
	ctx := s.sessionCtx()
	s.app.metrics.RecordAbort(ctx, "incomplete")
	s.emit(Status{Code: StatusIncomplete, Error: true,
		Message: "Could not understand a full command. Say quantity, product, and delivery charge."})
}

// handleCommand is the assembler's finalize callback: it binds the spoken
// slots to real entities and posts the sale.
func (s *CommandSession) handleCommand(cmd assembler.Command) {
	ctx := s.sessionCtx()
	elapsed := time.Since(s.started).Seconds()
	mode := string(cmd.Mode)

	ctx, span := observe.StartSpan(ctx, "voice.command")
	defer span.End()

	products, err := s.app.svc.Store().Products(ctx)
	if err != nil {
		s.storeFailure(ctx, mode, elapsed, err)
		return
	}

	product := match.Product(products, cmd.VariantKey)
	if product == nil {
		s.app.metrics.RecordEntityMiss(ctx, "product")
		s.app.metrics.RecordCommand(ctx, mode, "product_miss", elapsed)
		s.emit(Status{Code: StatusEntityNotFound, Error: true,
			Message: fmt.Sprintf("Variant %q not found.", cmd.VariantKey)})
		return
	}

	params := ledger.SaleParams{
		Method:   ledger.PayCash,
		Product:  *product,
		Quantity: cmd.Quantity,
		Delivery: int64(cmd.Delivery),
	}

	if cmd.Mode == grammar.ModeCredit {
		customers, err := s.app.svc.Store().Customers(ctx)
		if err != nil {
			s.storeFailure(ctx, mode, elapsed, err)
			return
		}
		customer := match.Customer(customers, cmd.AddressIdentity)
		if customer == nil {
			s.app.metrics.RecordEntityMiss(ctx, "customer")
			s.app.metrics.RecordCommand(ctx, mode, "customer_miss", elapsed)
			s.emit(Status{Code: StatusEntityNotFound, Error: true,
				Message: s.customerMissMessage(cmd.AddressIdentity, customers)})
			return
		}
		params.Method = ledger.PayCredit
		params.Customer = customer
	}

	tx, err := s.app.svc.PostSale(ctx, params)
	switch {
	case errors.Is(err, ledger.ErrNonPositiveAmount):
		// Already logged by the service; nothing actionable for the
		// operator, so no toast.
		s.app.metrics.RecordCommand(ctx, mode, "rejected", elapsed)
		return
	case err != nil:
		s.storeFailure(ctx, mode, elapsed, err)
		return
	}

	s.app.metrics.RecordCommand(ctx, mode, "posted", elapsed)
	s.app.metrics.RecordTransaction(ctx, string(tx.Type), string(tx.PaymentMethod))

	msg := fmt.Sprintf("Cash: %dx %s", cmd.Quantity, product.Name)
	if params.Customer != nil {
		msg = fmt.Sprintf("Credit: %dx %s to %s", cmd.Quantity, product.Name, params.Customer.Name)
	}
	s.emit(Status{Code: StatusPosted, Message: msg})
}

// sessionCtx returns the context captured at Run start, or Background for
// a session that was never run.
func (s *CommandSession) sessionCtx() context.Context {
	if s.runCtx != nil {
		return s.runCtx
	}
	return context.Background()
}

// customerMissMessage names the unmatched term and, when the phonetic
// suggester finds a near miss, offers it. Suggestions are advisory only;
// nothing is posted on a miss.
func (s *CommandSession) customerMissMessage(term string, customers []ledger.Customer) string {
	msg := fmt.Sprintf("Customer %q not found.", term)
	names := make([]string, len(customers))
	for i := range customers {
		names[i] = customers[i].Name
	}
	if name, _, ok := s.app.suggester.Suggest(term, names); ok {
		msg += fmt.Sprintf(" Did you mean %s?", name)
	}
	return msg
}

func (s *CommandSession) storeFailure(ctx context.Context, mode string, elapsed float64, err error) {
	slog.Error("voice session: persistence failure", "err", err)
	s.app.metrics.RecordCommand(ctx, mode, "store_error", elapsed)
	s.emit(Status{Code: StatusStoreError, Error: true,
		Message: "Could not save the sale. Check the connection and repeat the command."})
}

// emit pushes a status without ever blocking the voice pipeline. A slow
// client loses intermediate statuses rather than stalling capture.
func (s *CommandSession) emit(st Status) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	if s.statusClosed {
		return
	}
	select {
	case s.status <- st:
	default:
		slog.Warn("voice session: status dropped", "code", st.Code)
	}
}

func (s *CommandSession) closeStatus() {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	if !s.statusClosed {
		s.statusClosed = true
		close(s.status)
	}
}
