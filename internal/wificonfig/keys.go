package wificonfig

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the workflow key bindings. Bindings match on the key name
// (keyboard.KeyEvent.String), so shifted variants still match. The
// Cardputer has no arrow keys; ';' and '.' sit where up and down would be.
type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Confirm   key.Binding
	Back      key.Binding
	Manual    key.Binding
	Saved     key.Binding
	Toggle    key.Binding
	Backspace key.Binding
	Delete    key.Binding
	Space     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", ";"),
			key.WithHelp("↑/;", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "."),
			key.WithHelp("↓/.", "down"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Manual: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "manual"),
		),
		Saved: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "saved"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch"),
		),
		Backspace: key.NewBinding(
			key.WithKeys("backspace"),
			key.WithHelp("del", "erase"),
		),
		Delete: key.NewBinding(
			key.WithKeys("backspace"),
			key.WithHelp("del", "delete"),
		),
		Space: key.NewBinding(
			key.WithKeys("space"),
		),
	}
}

// screenKeys is the footer hint set for one screen.
type screenKeys []key.Binding

// ShortHelp returns keybindings to be shown in the mini help view
func (k screenKeys) ShortHelp() []key.Binding {
	return k
}

// FullHelp returns keybindings for the expanded help view
func (k screenKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k}
}

// withHelp returns a copy of b with different help text.
func withHelp(b key.Binding, keys, desc string) key.Binding {
	b.SetHelp(keys, desc)
	return b
}
