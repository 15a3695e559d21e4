package keyboard

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/cardputer/internal/logging"
)

// DefaultDebounce is the settle time between an interrupt and the first
// register access.
const DefaultDebounce = 10 * time.Millisecond

// Listener receives decoded key events on the source worker goroutine.
// It must return promptly; slow work belongs on another goroutine.
type Listener func(KeyEvent)

// Option configures a Source.
type Option func(*Source)

// WithMatrix overrides the matrix geometry.
func WithMatrix(m *Matrix) Option {
	return func(s *Source) {
		if m != nil {
			s.matrix = m
		}
	}
}

// WithDebounce overrides the debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(s *Source) {
		if d >= 0 {
			s.debounce = d
		}
	}
}

const capsLockBit = 1 << 7

// Source turns keypad controller interrupts into KeyEvents.
//
// The interrupt handler only sets a flag and fills a one-slot wake channel;
// several interrupts before the worker runs collapse into one wake. The
// worker always drains the controller FIFO to the zero sentinel, so no
// event is lost to coalescing.
type Source struct {
	bus      Bus
	line     InterruptLine
	matrix   *Matrix
	debounce time.Duration

	pending atomic.Bool
	wake    chan struct{}

	// decoder is touched only by the worker
	decoder *Decoder
	// state mirrors decoder modifier state for readers on other goroutines
	state atomic.Uint32

	mu       sync.Mutex
	listener Listener

	started atomic.Bool
	done    chan struct{}
}

// NewSource creates a source for the controller on bus signalling on line.
func NewSource(bus Bus, line InterruptLine, opts ...Option) *Source {
	s := &Source{
		bus:      bus,
		line:     line,
		matrix:   CardputerMatrix,
		debounce: DefaultDebounce,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.decoder = NewDecoder(s.matrix)
	return s
}

// Start configures the controller, clears stale events, enables key event
// interrupts, arms the interrupt line and starts the worker. The worker runs
// until ctx is cancelled. Errors are *InitError and are not retried.
func (s *Source) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	logging.Info("Initializing keypad controller", zap.Duration("debounce", s.debounce))

	steps := []func(Bus) error{configureMatrix, flushEvents, enableInterrupts}
	for _, step := range steps {
		if err := step(s.bus); err != nil {
			s.started.Store(false)
			return err
		}
	}

	if err := s.line.Attach(s.handleInterrupt); err != nil {
		s.started.Store(false)
		return &InitError{Step: "attach interrupt", Err: err}
	}

	go s.run(ctx)

	logging.Info("Keypad controller initialized")
	return nil
}

// SetListener registers the single event listener, replacing any previous
// one. A nil listener drops events.
func (s *Source) SetListener(l Listener) {
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()
}

// Subscribe registers a listener that forwards events onto a bounded
// channel in decode order. When the buffer is full the worker waits for the
// consumer rather than dropping or merging events; it stops waiting once
// ctx is done. The channel is never closed.
func (s *Source) Subscribe(ctx context.Context, buffer int) <-chan KeyEvent {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan KeyEvent, buffer)
	s.SetListener(func(ev KeyEvent) {
		select {
		case ch <- ev:
		case <-ctx.Done():
		}
	})
	return ch
}

// Wait blocks until the worker has exited. It returns immediately when the
// source was never started.
func (s *Source) Wait() {
	if !s.started.Load() {
		return
	}
	<-s.done
}

// Modifiers returns the held modifier keys.
func (s *Source) Modifiers() Modifiers {
	return Modifiers(s.state.Load() &^ capsLockBit)
}

// IsShiftPressed reports whether shift is held.
func (s *Source) IsShiftPressed() bool { return s.Modifiers().Has(ModShift) }

// IsCtrlPressed reports whether ctrl is held.
func (s *Source) IsCtrlPressed() bool { return s.Modifiers().Has(ModCtrl) }

// IsAltPressed reports whether alt is held.
func (s *Source) IsAltPressed() bool { return s.Modifiers().Has(ModAlt) }

// IsOptPressed reports whether opt is held.
func (s *Source) IsOptPressed() bool { return s.Modifiers().Has(ModOpt) }

// CapsLock reports whether caps lock is on.
func (s *Source) CapsLock() bool {
	return s.state.Load()&capsLockBit != 0
}

// handleInterrupt runs in interrupt context: no I/O, no allocation, no
// blocking.
func (s *Source) handleInterrupt() {
	s.pending.Store(true)
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Source) run(ctx context.Context) {
	defer close(s.done)
	defer s.line.Detach()

	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		}

		if !s.pending.Swap(false) {
			continue
		}

		if s.debounce > 0 {
			if timer == nil {
				timer = time.NewTimer(s.debounce)
			} else {
				timer.Reset(s.debounce)
			}
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}

		if err := s.service(); err != nil {
			logging.Warn("Abandoning key event cycle", zap.Error(err))
		}
	}
}

// service handles one interrupt cycle: read status, drain the FIFO when a
// key event is flagged, then write back the observed status bits.
func (s *Source) service() error {
	stat, err := s.read(RegIntStat)
	if err != nil {
		return err
	}

	var drainErr error
	if stat&IntStatKey != 0 {
		drainErr = s.drain()
	}

	if err := s.write(RegIntStat, stat); err != nil {
		if drainErr != nil {
			logging.Warn("Failed to clear interrupt status", zap.Error(err))
			return drainErr
		}
		return err
	}
	return drainErr
}

func (s *Source) drain() error {
	for {
		raw, err := s.read(RegKeyEventA)
		if err != nil {
			return err
		}
		if raw == 0 {
			return nil
		}

		d, ok := s.decoder.Decode(raw)
		if !ok {
			code, pressed := ParseRaw(raw)
			logging.Debug("Discarding key event outside matrix",
				zap.Uint8("key_number", code),
				zap.Bool("pressed", pressed),
			)
			continue
		}
		s.publishState()

		logging.LogKeyEvent(d.Row, d.Col, uint8(d.Event.Code), d.Event.Pressed, d.Event.Char)
		s.emit(d.Event)
	}
}

func (s *Source) publishState() {
	v := uint32(s.decoder.Modifiers())
	if s.decoder.CapsLock() {
		v |= capsLockBit
	}
	s.state.Store(v)
}

func (s *Source) emit(ev KeyEvent) {
	s.mu.Lock()
	l := s.listener
	s.mu.Unlock()
	if l != nil {
		l(ev)
	}
}

func (s *Source) read(reg byte) (byte, error) {
	v, err := s.bus.ReadReg(reg)
	if err != nil {
		return 0, &BusError{Op: "read", Reg: reg, Err: err}
	}
	logging.LogRegister("read", RegisterName(reg), reg, v)
	return v, nil
}

func (s *Source) write(reg, v byte) error {
	if err := s.bus.WriteReg(reg, v); err != nil {
		return &BusError{Op: "write", Reg: reg, Err: err}
	}
	logging.LogRegister("write", RegisterName(reg), reg, v)
	return nil
}
