// Package assembler implements the debounce and finalization state machine
// for voice sale commands.
//
// Recognition results are cumulative: every result carries the entire
// transcript heard so far, and the assembler re-runs tokenization, mode
// classification, and slot extraction over the whole thing each time. The
// machine then decides whether the command is complete (finalize now),
// plausibly complete (wait a short debounce for a trailing optional field),
// or still missing mandatory slots (wait longer, then fail as incomplete).
//
// States: IDLE → LISTENING → (ACCUMULATING ⇄ WAITING) → FINALIZED | ABORTED.
// A one-shot guard ensures a command finalizes at most once per session even
// when a timer, a late recognition result, and a manual stop race.
//
// All methods are safe for concurrent use. The handler and the incomplete
// callback are invoked without the internal lock held.
package assembler

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/hbashir/paniwala/internal/voice/grammar"
)

// Default debounce windows. The short window waits for a trailing optional
// delivery field once the mandatory slots are filled; the long window gives
// an incomplete command time to grow before it fails.
const (
	DefaultShortDebounce = 2500 * time.Millisecond
	DefaultLongDebounce  = 4 * time.Second
)

// ErrIncomplete reports that a command finalized without its mandatory
// slots filled. No side effects occurred.
var ErrIncomplete = errors.New("assembler: incomplete command")

// State is the assembler lifecycle state.
type State int

const (
	StateIdle State = iota
	StateListening
	StateAccumulating
	StateWaiting
	StateFinalized
	StateAborted
)

// String returns a short label for logging.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateAccumulating:
		return "accumulating"
	case StateWaiting:
		return "waiting"
	case StateFinalized:
		return "finalized"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Command is a fully-slotted, validated voice command ready for posting.
type Command struct {
	// Mode is the resolved sale mode, never [grammar.ModeAuto].
	Mode grammar.Mode

	// AddressIdentity is the spoken customer lookup key. Empty in cash mode.
	AddressIdentity string

	// Quantity is the number of units sold. Always > 0.
	Quantity int

	// VariantKey is the spoken product selector (voice keyword or name part).
	VariantKey string

	// Delivery is the delivery surcharge. 0 when not spoken.
	Delivery int
}

// Handler receives the finalized command. Called at most once per assembler.
type Handler func(Command)

// Config tunes one assembler instance.
type Config struct {
	// Mode fixes the sale mode, or defers to the classifier with
	// [grammar.ModeAuto].
	Mode grammar.Mode

	// ClassifyThreshold is the auto-mode numeric boundary; <= 0 selects
	// [grammar.DefaultClassifyThreshold].
	ClassifyThreshold int

	// ShortDebounce delays finalization of a command whose mandatory slots
	// are filled. <= 0 selects [DefaultShortDebounce].
	ShortDebounce time.Duration

	// LongDebounce bounds how long an incomplete command may keep
	// accumulating. <= 0 selects [DefaultLongDebounce].
	LongDebounce time.Duration
}

// Assembler accumulates recognition results for one command cycle.
type Assembler struct {
	cfg          Config
	handler      Handler
	onIncomplete func()

	mu    sync.Mutex
	state State
	timer *time.Timer
	done  bool
	slots slots
}

// slots is the mode-dependent slot array extracted from the latest result.
type slots struct {
	mode    grammar.Mode
	address string
	nums    []int
}

// New creates an assembler in the LISTENING state. handler receives the
// command on successful finalization; onIncomplete (may be nil) fires when
// finalization is attempted without the mandatory slots.
func New(cfg Config, handler Handler, onIncomplete func()) *Assembler {
	if cfg.ShortDebounce <= 0 {
		cfg.ShortDebounce = DefaultShortDebounce
	}
	if cfg.LongDebounce <= 0 {
		cfg.LongDebounce = DefaultLongDebounce
	}
	if !cfg.Mode.IsValid() {
		cfg.Mode = grammar.ModeAuto
	}
	return &Assembler{
		cfg:     cfg,
		handler: handler,

		onIncomplete: onIncomplete,
		state:        StateListening,
	}
}

// State returns the current lifecycle state.
func (a *Assembler) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// HandleResult processes one cumulative recognition result. Any pending
// debounce timer is cancelled; a new one is armed unless the command
// finalizes immediately.
func (a *Assembler) HandleResult(transcript string) {
	a.mu.Lock()
	if a.done {
		a.mu.Unlock()
		return
	}
	a.stopTimerLocked()

	a.slots = a.extract(transcript)
	filled, min, max := a.slots.progress()

	var fire func()
	switch {
	case filled >= max:
		// Every optional field was spoken; nothing left to wait for.
		fire = a.finalizeLocked()
	case filled >= min:
		a.state = StateWaiting
		a.armTimerLocked(a.cfg.ShortDebounce)
	default:
		a.state = StateAccumulating
		a.armTimerLocked(a.cfg.LongDebounce)
	}
	a.mu.Unlock()

	if fire != nil {
		fire()
	}
}

// Stop forces an immediate finalization attempt with whatever has been
// accumulated. It is the manual-stop path; calling it after finalization or
// abort is a no-op.
func (a *Assembler) Stop() {
	a.mu.Lock()
	if a.done {
		a.mu.Unlock()
		return
	}
	a.stopTimerLocked()
	fire := a.finalizeLocked()
	a.mu.Unlock()

	fire()
}

// Abort cancels the command cycle without a finalization attempt: the
// pending timer is cleared and any late result or timer fire is ignored.
// Used when the capture session fails or is torn down.
func (a *Assembler) Abort() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.done {
		return
	}
	a.done = true
	a.stopTimerLocked()
	a.state = StateAborted
}

// extract tokenizes the transcript and fills the mode-dependent slot array.
func (a *Assembler) extract(transcript string) slots {
	chunks := grammar.Tokenize(transcript)
	if len(chunks) == 0 {
		return slots{mode: a.resolveMode("")}
	}

	mode := a.resolveMode(chunks[0])
	s := slots{mode: mode}

	rest := chunks
	if mode == grammar.ModeCredit {
		s.address = grammar.ResolveAddress(chunks[0])
		rest = chunks[1:]
	}
	for _, c := range rest {
		if v := grammar.Resolve(c); v.Kind == grammar.ValueNumber {
			s.nums = append(s.nums, v.Number)
		}
	}
	return s
}

func (a *Assembler) resolveMode(chunk0 string) grammar.Mode {
	if a.cfg.Mode != grammar.ModeAuto {
		return a.cfg.Mode
	}
	return grammar.Classify(chunk0, a.cfg.ClassifyThreshold)
}

// progress reports filled, minimum required, and maximum slot counts for
// the current mode. Credit commands carry [address, qty, variant,
// delivery?]; cash commands carry [qty, variant, delivery?].
func (s slots) progress() (filled, min, max int) {
	if s.mode == grammar.ModeCredit {
		min, max = 3, 4
		if s.address != "" {
			filled = 1
		}
		filled += len(s.nums)
	} else {
		min, max = 2, 3
		filled = len(s.nums)
	}
	if filled > max {
		filled = max
	}
	return filled, min, max
}

// command validates the slot array and builds the final Command.
func (s slots) command() (Command, bool) {
	if s.mode == grammar.ModeCredit {
		if s.address == "" || len(s.nums) < 2 || s.nums[0] <= 0 {
			return Command{}, false
		}
		cmd := Command{
			Mode:            grammar.ModeCredit,
			AddressIdentity: s.address,
			Quantity:        s.nums[0],
			VariantKey:      strconv.Itoa(s.nums[1]),
		}
		if len(s.nums) > 2 {
			cmd.Delivery = s.nums[2]
		}
		return cmd, true
	}

	if len(s.nums) < 2 || s.nums[0] <= 0 {
		return Command{}, false
	}
	cmd := Command{
		Mode:       grammar.ModeCash,
		Quantity:   s.nums[0],
		VariantKey: strconv.Itoa(s.nums[1]),
	}
	if len(s.nums) > 2 {
		cmd.Delivery = s.nums[2]
	}
	return cmd, true
}

// finalizeLocked flips the one-shot guard and returns the callback to run
// after the lock is released. Must be called with a.mu held and a.done
// false.
func (a *Assembler) finalizeLocked() func() {
	a.done = true
	a.stopTimerLocked()

	cmd, ok := a.slots.command()
	if !ok {
		a.state = StateAborted
		cb := a.onIncomplete
		return func() {
			if cb != nil {
				cb()
			}
		}
	}

	a.state = StateFinalized
	h := a.handler
	return func() { h(cmd) }
}

func (a *Assembler) armTimerLocked(d time.Duration) {
	a.timer = time.AfterFunc(d, a.timerFired)
}

func (a *Assembler) timerFired() {
	a.mu.Lock()
	if a.done {
		// A later result or a manual stop finalized first.
		a.mu.Unlock()
		return
	}
	fire := a.finalizeLocked()
	a.mu.Unlock()

	fire()
}

func (a *Assembler) stopTimerLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}
