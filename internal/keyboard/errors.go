package keyboard

import (
	"errors"
	"fmt"
)

// ErrAlreadyStarted is returned when Start is called twice.
var ErrAlreadyStarted = errors.New("keyboard source already started")

// InitError is a fatal failure while bringing up the keypad controller.
// The source does not retry; the caller decides whether the device can run
// without a keyboard.
type InitError struct {
	// Step is the initialization phase that failed
	Step string
	// Reg is the register being accessed, zero when not register related
	Reg byte
	// Err is the underlying bus or line error
	Err error
}

func (e *InitError) Error() string {
	if e.Reg != 0 {
		return fmt.Sprintf("keyboard init: %s (register %s): %v", e.Step, RegisterName(e.Reg), e.Err)
	}
	return fmt.Sprintf("keyboard init: %s: %v", e.Step, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// BusError is a register access failure while draining events. The worker
// logs it and abandons the current interrupt cycle.
type BusError struct {
	Op  string // "read" or "write"
	Reg byte
	Err error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("keyboard bus %s %s: %v", e.Op, RegisterName(e.Reg), e.Err)
}

func (e *BusError) Unwrap() error {
	return e.Err
}
