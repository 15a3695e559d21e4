package simui

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type recordInjector struct {
	keys []string
	err  error
}

func (r *recordInjector) Key(name string) error {
	r.keys = append(r.keys, name)
	return r.err
}

func TestTranslateKey(t *testing.T) {
	tests := []struct {
		name   string
		msg    tea.KeyMsg
		want   string
		wantOK bool
	}{
		{"enter", tea.KeyMsg{Type: tea.KeyEnter}, "enter", true},
		{"esc", tea.KeyMsg{Type: tea.KeyEsc}, "esc", true},
		{"backspace", tea.KeyMsg{Type: tea.KeyBackspace}, "backspace", true},
		{"delete", tea.KeyMsg{Type: tea.KeyDelete}, "backspace", true},
		{"tab", tea.KeyMsg{Type: tea.KeyTab}, "tab", true},
		{"space", tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}, "space", true},
		{"up", tea.KeyMsg{Type: tea.KeyUp}, "up", true},
		{"down", tea.KeyMsg{Type: tea.KeyDown}, "down", true},
		{"letter", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}}, "a", true},
		{"capital", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'H'}}, "H", true},
		{"symbol", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'!'}}, "!", true},
		{"alt rune", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}, Alt: true}, "", false},
		{"paste", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("abc")}, "", false},
		{"left", tea.KeyMsg{Type: tea.KeyLeft}, "", false},
		{"ctrl+a", tea.KeyMsg{Type: tea.KeyCtrlA}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := translateKey(tt.msg)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("translateKey() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestUpdateInjectsKeys(t *testing.T) {
	inj := &recordInjector{}
	m := NewModel(inj)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("Update(enter) returned no command")
	}
	if done, ok := cmd().(tapDoneMsg); !ok || done.err != nil {
		t.Errorf("tap command returned %v, want tapDoneMsg without error", done)
	}
	if len(inj.keys) != 1 || inj.keys[0] != "enter" {
		t.Errorf("injected = %v, want [enter]", inj.keys)
	}

	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyLeft}); cmd != nil {
		t.Error("untranslatable key should not produce a command")
	}
}

func TestUpdateQueuesKeysWhileTapping(t *testing.T) {
	inj := &recordInjector{}
	var model tea.Model = NewModel(inj)

	model, first := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	model, second := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'b'}})
	if second != nil {
		t.Fatal("second key started a tap while the first was in flight")
	}

	model, next := model.Update(first())
	if next == nil {
		t.Fatal("finishing a tap did not start the queued one")
	}
	_, last := model.Update(next())
	if last != nil {
		t.Error("empty queue should not start another tap")
	}

	if got := strings.Join(inj.keys, ""); got != "ab" {
		t.Errorf("injected = %q, want %q", got, "ab")
	}
}

// slowInjector sleeps a varying time per key, like the keypad waiting for
// FIFO room, and flags overlapping calls.
type slowInjector struct {
	mu       sync.Mutex
	keys     []string
	inFlight atomic.Int32
	overlap  atomic.Bool
}

func (s *slowInjector) Key(name string) error {
	if s.inFlight.Add(1) > 1 {
		s.overlap.Store(true)
	}
	defer s.inFlight.Add(-1)

	s.mu.Lock()
	n := len(s.keys)
	s.mu.Unlock()
	time.Sleep(time.Duration(n%3) * time.Millisecond)

	s.mu.Lock()
	s.keys = append(s.keys, name)
	s.mu.Unlock()
	return nil
}

func (s *slowInjector) typed() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.keys, "")
}

func TestProgramInjectsBurstInOrder(t *testing.T) {
	const text = "abcdefghijklmnopqrstuvwxyz0123456789"

	inj := &slowInjector{}
	p := tea.NewProgram(NewModel(inj), tea.WithInput(nil), tea.WithoutRenderer(), tea.WithoutSignalHandler())

	done := make(chan error, 1)
	go func() {
		_, err := p.Run()
		done <- err
	}()

	for _, r := range text {
		p.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	deadline := time.Now().Add(5 * time.Second)
	for len(inj.typed()) < len(text) && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	p.Quit()
	if err := <-done; err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := inj.typed(); got != text {
		t.Errorf("keypad received %q, want %q", got, text)
	}
	if inj.overlap.Load() {
		t.Error("taps overlapped on the keypad")
	}
}

func TestUpdateReportsKeyErrors(t *testing.T) {
	inj := &recordInjector{err: errors.New("boom")}
	var model tea.Model = NewModel(inj)

	model, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	model, _ = model.Update(cmd())

	m := model.(Model)
	if m.Err == nil || !strings.Contains(m.Err.Error(), "boom") {
		t.Fatalf("Err = %v, want wrapped boom", m.Err)
	}
	if !strings.Contains(m.View(), "boom") {
		t.Error("View() should show the key error")
	}

	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if model.(Model).Err != nil {
		t.Error("next key should clear the error")
	}
}

func TestUpdateQuit(t *testing.T) {
	m := NewModel(&recordInjector{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c should quit")
	}
}

func TestViewShowsFrameAndStatus(t *testing.T) {
	var model tea.Model = NewModel(nil)
	model, _ = model.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	model, _ = model.Update(FrameMsg{Frame: "Select WiFi"})
	model, _ = model.Update(StatusMsg("console on :8787"))

	view := model.View()
	for _, want := range []string{"Select WiFi", "console on :8787", AppName} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestNilInjectorIgnoresKeys(t *testing.T) {
	m := NewModel(nil)
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Error("keys without an injector should be ignored")
	}
}
