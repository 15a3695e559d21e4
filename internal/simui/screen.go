package simui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Screen forwards device frames to a running program. It implements
// wificonfig.Display.
type Screen struct {
	program *tea.Program
}

// NewScreen wraps p.
func NewScreen(p *tea.Program) *Screen {
	return &Screen{program: p}
}

// Show sends the frame to the window. It blocks until the program has
// started and is a no-op once the program has exited.
func (s *Screen) Show(frame string) {
	s.program.Send(FrameMsg{Frame: frame})
}

// SetStatus replaces the status line under the screen.
func (s *Screen) SetStatus(status string) {
	s.program.Send(StatusMsg(status))
}
