package keyboard

const (
	// eventPressed is bit 7 of a raw FIFO entry
	eventPressed = 0x80
	// eventCodeMask selects the 1-based key number
	eventCodeMask = 0x7F

	// The controller numbers keys row*10 + col + 1 over its ten native
	// columns; the four extra columns wired to R4-R7 start at 41.
	nativeCols    = 10
	extendedStart = 41
)

// ParseRaw splits a raw key event byte into its key number and direction.
func ParseRaw(raw byte) (code byte, pressed bool) {
	return raw & eventCodeMask, raw&eventPressed != 0
}

// Locate maps a 1-based key number to a matrix cell. Numbers that resolve
// outside the matrix (or zero) are reported as not ok.
func (m *Matrix) Locate(code byte) (row, col int, ok bool) {
	if code == 0 {
		return 0, 0, false
	}
	n := int(code)
	if n < extendedStart {
		row = (n - 1) / nativeCols
		col = (n - 1) % nativeCols
	} else {
		row = (n - extendedStart) / nativeCols
		col = (n-extendedStart)%nativeCols + nativeCols
	}
	return row, col, m.Contains(row, col)
}

// Encode is the inverse of Locate: it builds the raw event byte the
// controller reports for a transition of (row, col).
func (m *Matrix) Encode(row, col int, pressed bool) (byte, bool) {
	if !m.Contains(row, col) {
		return 0, false
	}
	var n int
	if col < nativeCols {
		n = row*nativeCols + col + 1
	} else {
		n = row*nativeCols + (col - nativeCols) + extendedStart
	}
	if n > eventCodeMask {
		return 0, false
	}
	raw := byte(n)
	if pressed {
		raw |= eventPressed
	}
	return raw, true
}

// Decoded is the result of decoding one raw FIFO entry.
type Decoded struct {
	Raw   byte
	Row   int
	Col   int
	Event KeyEvent
}

// Decoder turns raw FIFO entries into key events, tracking modifier and
// caps-lock state across calls. It is not safe for concurrent use; the
// source worker owns it.
type Decoder struct {
	matrix *Matrix
	state  modifierState
}

// NewDecoder creates a decoder for the given matrix.
func NewDecoder(m *Matrix) *Decoder {
	if m == nil {
		m = CardputerMatrix
	}
	return &Decoder{matrix: m}
}

// Decode processes one raw entry. Entries for cells outside the matrix are
// discarded and reported as not ok; modifier state is not touched for them.
func (d *Decoder) Decode(raw byte) (Decoded, bool) {
	code, pressed := ParseRaw(raw)
	row, col, ok := d.matrix.Locate(code)
	if !ok {
		return Decoded{Raw: raw}, false
	}
	kv, _ := d.matrix.Lookup(row, col)

	d.state.update(kv.Role, pressed)

	return Decoded{
		Raw:   raw,
		Row:   row,
		Col:   col,
		Event: d.matrix.event(kv, pressed, d.state),
	}, true
}

// Modifiers returns the currently held modifiers.
func (d *Decoder) Modifiers() Modifiers {
	return d.state.held
}

// CapsLock reports whether caps lock is on.
func (d *Decoder) CapsLock() bool {
	return d.state.capsLock
}
