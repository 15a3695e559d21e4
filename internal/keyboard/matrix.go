package keyboard

// KeyValue is the static mapping of one matrix cell.
type KeyValue struct {
	Normal      string
	Code        KeyCode
	Shifted     string
	ShiftedCode KeyCode
	Role        Role
}

// Matrix is a read-only key matrix layout.
type Matrix struct {
	Rows int
	Cols int
	Keys [][]KeyValue
}

// Position is a (row, col) cell of a matrix.
type Position struct {
	Row int
	Col int
}

func ch(normal string, code KeyCode, shifted string) KeyValue {
	return KeyValue{Normal: normal, Code: code, Shifted: shifted, ShiftedCode: code}
}

func ctl(code KeyCode) KeyValue {
	return KeyValue{Code: code, ShiftedCode: code}
}

func mod(code KeyCode, role Role) KeyValue {
	return KeyValue{Code: code, ShiftedCode: code, Role: role}
}

// CardputerMatrix is the 4x14 layout of the M5Stack Cardputer keyboard.
//
//	Row 0: Esc   1    2   3 4 5 6 7 8 9 0 - = Del
//	Row 1: Tab   q    w   e r t y u i o p [ ] \
//	Row 2: Shift Caps a   s d f g h j k l ; ' Enter
//	Row 3: Ctrl  Opt  Alt z x c v b n m , . / Space
var CardputerMatrix = &Matrix{
	Rows: 4,
	Cols: 14,
	Keys: [][]KeyValue{
		{
			ctl(KeyEsc),
			ch("1", Key1, "!"), ch("2", Key2, "@"), ch("3", Key3, "#"),
			ch("4", Key4, "$"), ch("5", Key5, "%"), ch("6", Key6, "^"),
			ch("7", Key7, "&"), ch("8", Key8, "*"), ch("9", Key9, "("),
			ch("0", Key0, ")"), ch("-", KeyMinus, "_"), ch("=", KeyEqual, "+"),
			ctl(KeyBackspace),
		},
		{
			ctl(KeyTab),
			ch("q", KeyQ, "Q"), ch("w", KeyW, "W"), ch("e", KeyE, "E"),
			ch("r", KeyR, "R"), ch("t", KeyT, "T"), ch("y", KeyY, "Y"),
			ch("u", KeyU, "U"), ch("i", KeyI, "I"), ch("o", KeyO, "O"),
			ch("p", KeyP, "P"), ch("[", KeyLeftBrace, "{"), ch("]", KeyRightBrace, "}"),
			ch("\\", KeyBackslash, "|"),
		},
		{
			mod(KeyLeftShift, RoleShift),
			mod(KeyCapsLock, RoleCapsLock),
			ch("a", KeyA, "A"), ch("s", KeyS, "S"), ch("d", KeyD, "D"),
			ch("f", KeyF, "F"), ch("g", KeyG, "G"), ch("h", KeyH, "H"),
			ch("j", KeyJ, "J"), ch("k", KeyK, "K"), ch("l", KeyL, "L"),
			ch(";", KeySemicolon, ":"), ch("'", KeyApostrophe, "\""),
			ctl(KeyEnter),
		},
		{
			mod(KeyLeftCtrl, RoleCtrl),
			mod(KeyLeftOpt, RoleOpt),
			mod(KeyLeftAlt, RoleAlt),
			ch("z", KeyZ, "Z"), ch("x", KeyX, "X"), ch("c", KeyC, "C"),
			ch("v", KeyV, "V"), ch("b", KeyB, "B"), ch("n", KeyN, "N"),
			ch("m", KeyM, "M"), ch(",", KeyComma, "<"), ch(".", KeyDot, ">"),
			ch("/", KeySlash, "?"),
			ch(" ", KeySpace, " "),
		},
	},
}

// Contains reports whether (row, col) lies inside the grid.
func (m *Matrix) Contains(row, col int) bool {
	return row >= 0 && row < m.Rows && col >= 0 && col < m.Cols
}

// Lookup returns the cell at (row, col).
func (m *Matrix) Lookup(row, col int) (KeyValue, bool) {
	if !m.Contains(row, col) {
		return KeyValue{}, false
	}
	return m.Keys[row][col], true
}

// IsModifier reports whether (row, col) belongs to the modifier-role set.
func (m *Matrix) IsModifier(row, col int) bool {
	kv, ok := m.Lookup(row, col)
	return ok && kv.Role != RoleNone
}

// Position returns the first cell carrying the key code.
func (m *Matrix) Position(code KeyCode) (Position, bool) {
	for r := range m.Keys {
		for c, kv := range m.Keys[r] {
			if kv.Code == code {
				return Position{Row: r, Col: c}, true
			}
		}
	}
	return Position{}, false
}

// RolePosition returns the cell holding the given modifier role.
func (m *Matrix) RolePosition(role Role) (Position, bool) {
	for r := range m.Keys {
		for c, kv := range m.Keys[r] {
			if kv.Role == role {
				return Position{Row: r, Col: c}, true
			}
		}
	}
	return Position{}, false
}

// event builds the KeyEvent for a cell given the current modifier state.
// Letters shift when exactly one of shift and caps lock is active; other
// printable keys only with shift.
func (m *Matrix) event(kv KeyValue, pressed bool, st modifierState) KeyEvent {
	ev := KeyEvent{
		Pressed:    pressed,
		Code:       kv.Code,
		IsModifier: kv.Role != RoleNone,
	}
	if ev.IsModifier {
		return ev
	}

	shift := st.held.Has(ModShift)
	useShifted := shift
	if kv.Code.IsLetter() {
		useShifted = shift != st.capsLock
	}

	if useShifted {
		ev.Char = kv.Shifted
	} else {
		ev.Char = kv.Normal
	}
	return ev
}
