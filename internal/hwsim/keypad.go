// Package hwsim simulates the Cardputer's TCA8418 keypad controller so the
// keyboard driver can run without hardware.
package hwsim

import (
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/muurk/cardputer/internal/keyboard"
	"github.com/muurk/cardputer/internal/logging"
)

// FIFODepth is the controller's key event FIFO size.
const FIFODepth = 10

// ErrInjected is returned by register accesses while a fault is pending.
var ErrInjected = errors.New("hwsim: injected bus fault")

// Keypad is a simulated keypad controller. It implements keyboard.Bus and
// keyboard.InterruptLine. The interrupt handler runs on the goroutine that
// queued the event, standing in for interrupt context.
type Keypad struct {
	matrix *keyboard.Matrix

	mu      sync.Mutex
	regs    map[byte]byte
	fifo    []byte
	intStat byte
	handler func()
	faults  int
}

// NewKeypad creates a simulated controller for the given matrix
// (CardputerMatrix when nil).
func NewKeypad(m *keyboard.Matrix) *Keypad {
	if m == nil {
		m = keyboard.CardputerMatrix
	}
	return &Keypad{
		matrix: m,
		regs:   make(map[byte]byte),
	}
}

// ReadReg implements keyboard.Bus.
func (k *Keypad) ReadReg(reg byte) (byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if err := k.takeFault(); err != nil {
		return 0, err
	}

	switch reg {
	case keyboard.RegIntStat:
		return k.intStat, nil
	case keyboard.RegKeyLckEC:
		return byte(len(k.fifo)) & 0x0F, nil
	case keyboard.RegKeyEventA:
		if len(k.fifo) == 0 {
			return 0, nil
		}
		v := k.fifo[0]
		k.fifo = k.fifo[1:]
		return v, nil
	default:
		return k.regs[reg], nil
	}
}

// WriteReg implements keyboard.Bus. INT_STAT is write-1-to-clear.
func (k *Keypad) WriteReg(reg, value byte) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if err := k.takeFault(); err != nil {
		return err
	}

	if reg == keyboard.RegIntStat {
		k.intStat &^= value
		// the key event bit stays asserted while the FIFO holds entries
		if len(k.fifo) > 0 {
			k.intStat |= keyboard.IntStatKey
		}
		return nil
	}
	k.regs[reg] = value
	return nil
}

// Attach implements keyboard.InterruptLine.
func (k *Keypad) Attach(handler func()) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.handler != nil {
		return errors.New("hwsim: interrupt handler already attached")
	}
	k.handler = handler
	return nil
}

// Detach implements keyboard.InterruptLine.
func (k *Keypad) Detach() {
	k.mu.Lock()
	k.handler = nil
	k.mu.Unlock()
}

// InjectFault makes the next n register accesses fail with ErrInjected.
func (k *Keypad) InjectFault(n int) {
	k.mu.Lock()
	k.faults = n
	k.mu.Unlock()
}

// Pending returns the number of queued events.
func (k *Keypad) Pending() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.fifo)
}

// Register returns the last value written to a configuration register.
func (k *Keypad) Register(reg byte) byte {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.regs[reg]
}

func (k *Keypad) takeFault() error {
	if k.faults > 0 {
		k.faults--
		return ErrInjected
	}
	return nil
}

// Press queues a key down event for (row, col).
func (k *Keypad) Press(row, col int) error {
	return k.queue(row, col, true)
}

// Release queues a key up event for (row, col).
func (k *Keypad) Release(row, col int) error {
	return k.queue(row, col, false)
}

// Tap presses and releases (row, col).
func (k *Keypad) Tap(row, col int) error {
	if err := k.Press(row, col); err != nil {
		return err
	}
	return k.Release(row, col)
}

func (k *Keypad) queue(row, col int, pressed bool) error {
	raw, ok := k.matrix.Encode(row, col, pressed)
	if !ok {
		return fmt.Errorf("hwsim: no key at (%d,%d)", row, col)
	}

	k.mu.Lock()
	if len(k.fifo) >= FIFODepth {
		k.intStat |= keyboard.IntStatOverflow
		if k.regs[keyboard.RegCfg]&keyboard.CfgOverflowMode == 0 {
			k.mu.Unlock()
			logging.Debug("Simulated FIFO overflow, event dropped", zap.Int("row", row), zap.Int("col", col))
			return nil
		}
		k.fifo = k.fifo[1:]
	}
	k.fifo = append(k.fifo, raw)
	k.intStat |= keyboard.IntStatKey

	var h func()
	if k.regs[keyboard.RegCfg]&keyboard.CfgKeyEventIntEnable != 0 {
		h = k.handler
	}
	k.mu.Unlock()

	if h != nil {
		h()
	}
	return nil
}

// namedKeys maps the names used by console clients and the CLI to key codes.
// The Cardputer has no arrow keys; up and down are the ';' and '.' keys.
var namedKeys = map[string]keyboard.KeyCode{
	"enter":     keyboard.KeyEnter,
	"esc":       keyboard.KeyEsc,
	"backspace": keyboard.KeyBackspace,
	"tab":       keyboard.KeyTab,
	"space":     keyboard.KeySpace,
	"up":        keyboard.KeySemicolon,
	"down":      keyboard.KeyDot,
	"shift":     keyboard.KeyLeftShift,
	"capslock":  keyboard.KeyCapsLock,
	"ctrl":      keyboard.KeyLeftCtrl,
	"alt":       keyboard.KeyLeftAlt,
	"opt":       keyboard.KeyLeftOpt,
}

// waitRoom blocks until the FIFO can take n more events, standing in for a
// typist slower than the driver. It gives up after a second so a stopped
// driver does not hang the caller.
func (k *Keypad) waitRoom(n int) {
	deadline := time.Now().Add(time.Second)
	for k.Pending()+n > FIFODepth && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
}

// Key taps the key with the given name: a control key name such as "enter"
// or "up", or a single printable character. Characters that need shift are
// wrapped in a shift press and release.
func (k *Keypad) Key(name string) error {
	if code, ok := namedKeys[name]; ok {
		pos, ok := k.matrix.Position(code)
		if !ok {
			return fmt.Errorf("hwsim: key %q not on matrix", name)
		}
		k.waitRoom(2)
		return k.Tap(pos.Row, pos.Col)
	}
	if utf8.RuneCountInString(name) != 1 {
		return fmt.Errorf("hwsim: unknown key %q", name)
	}
	return k.typeChar(name)
}

// Type taps the keys producing text, one character at a time.
func (k *Keypad) Type(text string) error {
	for _, r := range text {
		if err := k.typeChar(string(r)); err != nil {
			return err
		}
	}
	return nil
}

func (k *Keypad) typeChar(s string) error {
	k.waitRoom(4)
	for r, row := range k.matrix.Keys {
		for c, kv := range row {
			if kv.Role != keyboard.RoleNone {
				continue
			}
			if kv.Normal == s {
				return k.Tap(r, c)
			}
		}
	}
	for r, row := range k.matrix.Keys {
		for c, kv := range row {
			if kv.Role != keyboard.RoleNone || kv.Shifted != s {
				continue
			}
			shift, ok := k.matrix.RolePosition(keyboard.RoleShift)
			if !ok {
				return fmt.Errorf("hwsim: matrix has no shift key for %q", s)
			}
			if err := k.Press(shift.Row, shift.Col); err != nil {
				return err
			}
			if err := k.Tap(r, c); err != nil {
				return err
			}
			return k.Release(shift.Row, shift.Col)
		}
	}
	return fmt.Errorf("hwsim: no key produces %q", s)
}
