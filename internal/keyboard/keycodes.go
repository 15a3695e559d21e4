package keyboard

import "fmt"

// KeyCode is a HID usage ID (keyboard/keypad page) identifying a logical key.
type KeyCode uint8

// HID usage IDs for the keys present on the Cardputer matrix.
const (
	KeyNone KeyCode = 0x00

	KeyA KeyCode = 0x04
	KeyB KeyCode = 0x05
	KeyC KeyCode = 0x06
	KeyD KeyCode = 0x07
	KeyE KeyCode = 0x08
	KeyF KeyCode = 0x09
	KeyG KeyCode = 0x0A
	KeyH KeyCode = 0x0B
	KeyI KeyCode = 0x0C
	KeyJ KeyCode = 0x0D
	KeyK KeyCode = 0x0E
	KeyL KeyCode = 0x0F
	KeyM KeyCode = 0x10
	KeyN KeyCode = 0x11
	KeyO KeyCode = 0x12
	KeyP KeyCode = 0x13
	KeyQ KeyCode = 0x14
	KeyR KeyCode = 0x15
	KeyS KeyCode = 0x16
	KeyT KeyCode = 0x17
	KeyU KeyCode = 0x18
	KeyV KeyCode = 0x19
	KeyW KeyCode = 0x1A
	KeyX KeyCode = 0x1B
	KeyY KeyCode = 0x1C
	KeyZ KeyCode = 0x1D

	Key1 KeyCode = 0x1E
	Key2 KeyCode = 0x1F
	Key3 KeyCode = 0x20
	Key4 KeyCode = 0x21
	Key5 KeyCode = 0x22
	Key6 KeyCode = 0x23
	Key7 KeyCode = 0x24
	Key8 KeyCode = 0x25
	Key9 KeyCode = 0x26
	Key0 KeyCode = 0x27

	KeyEnter      KeyCode = 0x28
	KeyEsc        KeyCode = 0x29
	KeyBackspace  KeyCode = 0x2A
	KeyTab        KeyCode = 0x2B
	KeySpace      KeyCode = 0x2C
	KeyMinus      KeyCode = 0x2D
	KeyEqual      KeyCode = 0x2E
	KeyLeftBrace  KeyCode = 0x2F
	KeyRightBrace KeyCode = 0x30
	KeyBackslash  KeyCode = 0x31
	KeySemicolon  KeyCode = 0x33
	KeyApostrophe KeyCode = 0x34
	KeyGrave      KeyCode = 0x35
	KeyComma      KeyCode = 0x36
	KeyDot        KeyCode = 0x37
	KeySlash      KeyCode = 0x38
	KeyCapsLock   KeyCode = 0x39

	KeyRight KeyCode = 0x4F
	KeyLeft  KeyCode = 0x50
	KeyDown  KeyCode = 0x51
	KeyUp    KeyCode = 0x52

	KeyLeftCtrl  KeyCode = 0xE0
	KeyLeftShift KeyCode = 0xE1
	KeyLeftAlt   KeyCode = 0xE2
	KeyLeftOpt   KeyCode = 0xE3
)

var keyNames = map[KeyCode]string{
	KeyNone:       "none",
	KeyEnter:      "enter",
	KeyEsc:        "esc",
	KeyBackspace:  "backspace",
	KeyTab:        "tab",
	KeySpace:      "space",
	KeyMinus:      "-",
	KeyEqual:      "=",
	KeyLeftBrace:  "[",
	KeyRightBrace: "]",
	KeyBackslash:  "\\",
	KeySemicolon:  ";",
	KeyApostrophe: "'",
	KeyGrave:      "`",
	KeyComma:      ",",
	KeyDot:        ".",
	KeySlash:      "/",
	KeyCapsLock:   "capslock",
	KeyRight:      "right",
	KeyLeft:       "left",
	KeyDown:       "down",
	KeyUp:         "up",
	KeyLeftCtrl:   "ctrl",
	KeyLeftShift:  "shift",
	KeyLeftAlt:    "alt",
	KeyLeftOpt:    "opt",
}

// IsLetter reports whether the code is one of a..z.
func (c KeyCode) IsLetter() bool {
	return c >= KeyA && c <= KeyZ
}

// IsDigit reports whether the code is one of 1..9, 0.
func (c KeyCode) IsDigit() bool {
	return c >= Key1 && c <= Key0
}

// String returns the binding name of the key: the lower-case letter or
// unshifted symbol for printable keys, and a word for control keys.
func (c KeyCode) String() string {
	switch {
	case c.IsLetter():
		return string(rune('a' + (c - KeyA)))
	case c == Key0:
		return "0"
	case c.IsDigit():
		return string(rune('1' + (c - Key1)))
	}
	if name, ok := keyNames[c]; ok {
		return name
	}
	return fmt.Sprintf("key(0x%02x)", uint8(c))
}
