// Package simui is the host window for the simulated Cardputer: it shows
// the device screen and turns terminal key presses into keypad taps.
package simui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// KeyInjector taps a named key on the simulated keypad.
type KeyInjector interface {
	Key(name string) error
}

// FrameMsg carries a new device screen.
type FrameMsg struct {
	Frame string
}

// StatusMsg replaces the status line under the screen.
type StatusMsg string

// tapDoneMsg reports that one queued tap has been injected.
type tapDoneMsg struct {
	key string
	err error
}

// keyMap defines the host window key bindings shown in the footer
type keyMap struct {
	Move    key.Binding
	Confirm key.Binding
	Back    key.Binding
	Quit    key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Move, k.Confirm, k.Back, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Move, k.Confirm, k.Back, k.Quit},
	}
}

// Model is the simulator window.
type Model struct {
	injector KeyInjector

	Frame  string
	Status string
	Err    error

	// UI state
	Width  int
	Height int

	Help help.Model
	Keys keyMap

	// queued taps, injected one at a time in arrival order
	pending []string
	tapping bool
}

// NewModel creates the window model.
func NewModel(injector KeyInjector) Model {
	return Model{
		injector: injector,
		Help:     help.New(),
		Keys: keyMap{
			Move: key.NewBinding(
				key.WithKeys("up", "down"),
				key.WithHelp("↑/↓", "move"),
			),
			Confirm: key.NewBinding(
				key.WithKeys("enter"),
				key.WithHelp("enter", "confirm"),
			),
			Back: key.NewBinding(
				key.WithKeys("esc"),
				key.WithHelp("esc", "back"),
			),
			Quit: key.NewBinding(
				key.WithKeys("ctrl+c"),
				key.WithHelp("ctrl+c", "quit"),
			),
		},
	}
}

// Init initializes the window
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles window, key and frame messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.Keys.Quit) {
			return m, tea.Quit
		}
		name, ok := translateKey(msg)
		if !ok || m.injector == nil {
			return m, nil
		}
		m.Err = nil
		m.pending = append(m.pending, name)
		return m.nextTap()

	case FrameMsg:
		m.Frame = msg.Frame
		return m, nil

	case StatusMsg:
		m.Status = string(msg)
		return m, nil

	case tapDoneMsg:
		m.tapping = false
		if msg.err != nil {
			m.Err = fmt.Errorf("key %q: %w", msg.key, msg.err)
		}
		return m.nextTap()
	}
	return m, nil
}

// nextTap starts injecting the oldest queued key unless a tap is already
// in flight. Commands run on their own goroutines, so only one may touch
// the keypad at a time or keys reach the FIFO out of order.
func (m Model) nextTap() (Model, tea.Cmd) {
	if m.tapping || len(m.pending) == 0 {
		return m, nil
	}
	name := m.pending[0]
	m.pending = m.pending[1:]
	m.tapping = true
	return m, m.tap(name)
}

// tap injects off the update loop; the keypad may wait for FIFO room.
func (m Model) tap(name string) tea.Cmd {
	injector := m.injector
	return func() tea.Msg {
		return tapDoneMsg{key: name, err: injector.Key(name)}
	}
}

// View renders the device screen inside the application container
func (m Model) View() string {
	content := []string{screenStyle.Render(m.Frame)}
	switch {
	case m.Err != nil:
		content = append(content, errorStyle.Render(m.Err.Error()))
	case m.Status != "":
		content = append(content, statusStyle.Render(m.Status))
	}
	return RenderApplicationContainer(
		lipgloss.JoinVertical(lipgloss.Left, content...),
		m.Help.View(m.Keys),
		m.Width,
		m.Height,
	)
}

// translateKey maps a terminal key to a keypad key name.
func translateKey(msg tea.KeyMsg) (string, bool) {
	switch msg.Type {
	case tea.KeyEnter:
		return "enter", true
	case tea.KeyEsc:
		return "esc", true
	case tea.KeyBackspace, tea.KeyDelete:
		return "backspace", true
	case tea.KeyTab:
		return "tab", true
	case tea.KeySpace:
		return "space", true
	case tea.KeyUp:
		return "up", true
	case tea.KeyDown:
		return "down", true
	case tea.KeyRunes:
		if len(msg.Runes) == 1 && !msg.Alt {
			return string(msg.Runes[0]), true
		}
	}
	return "", false
}
