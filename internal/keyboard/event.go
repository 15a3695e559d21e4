package keyboard

import "strings"

// KeyEvent is one decoded physical key transition.
type KeyEvent struct {
	// Pressed is true for key down, false for key up
	Pressed bool
	// IsModifier is set for shift, ctrl, alt, opt and caps lock
	IsModifier bool
	// Code is the HID usage ID of the key
	Code KeyCode
	// Char is the printable character produced, empty for control and modifier keys
	Char string
}

// String returns the key's binding name so events can be matched against
// bubbles key bindings.
func (e KeyEvent) String() string {
	return e.Code.String()
}

// Printable reports whether the event carries a character to insert.
func (e KeyEvent) Printable() bool {
	return e.Char != ""
}

// Modifiers is the set of held modifier keys.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModCtrl
	ModAlt
	ModOpt
)

// Has reports whether all bits of m2 are set.
func (m Modifiers) Has(m2 Modifiers) bool {
	return m&m2 == m2
}

func (m Modifiers) String() string {
	var parts []string
	if m.Has(ModShift) {
		parts = append(parts, "shift")
	}
	if m.Has(ModCtrl) {
		parts = append(parts, "ctrl")
	}
	if m.Has(ModAlt) {
		parts = append(parts, "alt")
	}
	if m.Has(ModOpt) {
		parts = append(parts, "opt")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "+")
}

// Role marks matrix positions that change how other keys are interpreted.
type Role uint8

const (
	RoleNone Role = iota
	RoleShift
	RoleCtrl
	RoleAlt
	RoleOpt
	RoleCapsLock
)

// Modifier returns the held-modifier bit for the role. Caps lock is a toggle
// and has no bit.
func (r Role) Modifier() Modifiers {
	switch r {
	case RoleShift:
		return ModShift
	case RoleCtrl:
		return ModCtrl
	case RoleAlt:
		return ModAlt
	case RoleOpt:
		return ModOpt
	default:
		return 0
	}
}

// modifierState is owned by the source worker.
type modifierState struct {
	held     Modifiers
	capsLock bool
}

// update applies one transition of the key with the given role.
func (s *modifierState) update(role Role, pressed bool) {
	switch role {
	case RoleNone:
		return
	case RoleCapsLock:
		if pressed {
			s.capsLock = !s.capsLock
		}
	default:
		if pressed {
			s.held |= role.Modifier()
		} else {
			s.held &^= role.Modifier()
		}
	}
}
