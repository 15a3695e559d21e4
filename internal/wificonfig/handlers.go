package wificonfig

import (
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	"go.uber.org/zap"

	"github.com/muurk/cardputer/internal/keyboard"
)

func (w *Workflow) matches(ev keyboard.KeyEvent, b key.Binding) bool {
	return key.Matches(ev, b)
}

func (w *Workflow) handleScanning(ev keyboard.KeyEvent) {
	switch {
	case w.matches(ev, w.keys.Manual):
		w.showManualInput()
	case w.matches(ev, w.keys.Saved):
		w.showSavedList()
	}
}

func (w *Workflow) handleSelectWifi(ev keyboard.KeyEvent) {
	switch {
	case w.matches(ev, w.keys.Up):
		if moveUp(&w.selected, &w.scroll) {
			w.render()
		}
	case w.matches(ev, w.keys.Down):
		if moveDown(&w.selected, &w.scroll, len(w.results)) {
			w.render()
		}
	case w.matches(ev, w.keys.Confirm):
		if len(w.results) > 0 {
			w.target = w.results[w.selected].SSID
			w.showPasswordInput()
		}
	case w.matches(ev, w.keys.Manual):
		w.showManualInput()
	case w.matches(ev, w.keys.Saved):
		w.showSavedList()
	}
}

func (w *Workflow) handlePasswordInput(ev keyboard.KeyEvent) {
	switch {
	case w.matches(ev, w.keys.Confirm):
		if w.password != "" {
			w.attemptConnection()
		}
	case w.matches(ev, w.keys.Back):
		w.showScanResults()
	default:
		if editBuffer(&w.password, ev, w.keys) {
			w.render()
		}
	}
}

func (w *Workflow) handleManualInput(ev keyboard.KeyEvent) {
	switch {
	case w.matches(ev, w.keys.Toggle):
		w.focusPassword = !w.focusPassword
		if w.focusPassword {
			w.setState(StateInputManualPwd)
		} else {
			w.setState(StateInputSSID)
		}
		w.render()
	case w.matches(ev, w.keys.Confirm):
		if w.ssidInput != "" {
			w.target = w.ssidInput
			w.attemptConnection()
		}
	case w.matches(ev, w.keys.Back):
		w.showScanResults()
	default:
		buf := &w.ssidInput
		if w.focusPassword {
			buf = &w.password
		}
		if editBuffer(buf, ev, w.keys) {
			w.render()
		}
	}
}

func (w *Workflow) handleSavedList(ev keyboard.KeyEvent) {
	switch {
	case w.matches(ev, w.keys.Up):
		if moveUp(&w.savedSelected, &w.savedScroll) {
			w.render()
		}
	case w.matches(ev, w.keys.Down):
		if moveDown(&w.savedSelected, &w.savedScroll, len(w.saved)) {
			w.render()
		}
	case w.matches(ev, w.keys.Confirm):
		if len(w.saved) > 0 {
			c := w.saved[w.savedSelected]
			w.target = c.SSID
			w.password = c.Password
			w.attemptConnection()
		}
	case w.matches(ev, w.keys.Delete):
		if len(w.saved) > 0 {
			w.deleteSaved(w.savedSelected)
			w.render()
		}
	case w.matches(ev, w.keys.Back):
		w.showScanResults()
	}
}

func (w *Workflow) handleFailed(ev keyboard.KeyEvent) {
	switch {
	case w.matches(ev, w.keys.Confirm):
		// retry keeps the password that failed so it can be corrected
		w.setState(StateInputPassword)
		w.render()
	case w.matches(ev, w.keys.Back):
		w.showScanResults()
	}
}

func (w *Workflow) deleteSaved(i int) {
	if i < 0 || i >= len(w.saved) {
		return
	}
	ssid := w.saved[i].SSID
	if err := w.store.RemoveAt(i); err != nil {
		w.log.Error("Failed to delete saved network", zap.String("ssid", ssid), zap.Error(err))
	} else {
		w.log.Info("Deleted saved network", zap.String("ssid", ssid), zap.Int("index", i))
	}
	w.loadSaved()

	if w.savedSelected >= len(w.saved) && w.savedSelected > 0 {
		w.savedSelected--
	}
	if w.savedScroll > w.savedSelected {
		w.savedScroll = w.savedSelected
	}
}

func (w *Workflow) showScanResults() {
	w.setState(StateSelectWifi)
	w.render()
}

// showPasswordInput enters password entry with an empty buffer. Redraws
// while already in the state go through render and keep the buffer.
func (w *Workflow) showPasswordInput() {
	if w.state != StateInputPassword {
		w.setState(StateInputPassword)
		w.password = ""
	}
	w.render()
}

// showManualInput enters manual entry with empty buffers and focus on the
// SSID field.
func (w *Workflow) showManualInput() {
	if w.state != StateInputSSID && w.state != StateInputManualPwd {
		w.setState(StateInputSSID)
		w.ssidInput = ""
		w.password = ""
		w.focusPassword = false
	}
	w.render()
}

// showSavedList reloads the saved networks and puts the cursor on the first.
func (w *Workflow) showSavedList() {
	w.setState(StateSavedList)
	w.savedSelected, w.savedScroll = 0, 0
	w.loadSaved()
	w.render()
}

// moveUp moves a list cursor up one row, scrolling when it leaves the
// window. It reports whether the cursor moved.
func moveUp(index, scroll *int) bool {
	if *index <= 0 {
		return false
	}
	*index--
	if *index < *scroll {
		*scroll = *index
	}
	return true
}

// moveDown moves a list cursor down one row within count entries.
func moveDown(index, scroll *int, count int) bool {
	if *index >= count-1 {
		return false
	}
	*index++
	if *index >= *scroll+MaxVisibleItems {
		*scroll = *index - MaxVisibleItems + 1
	}
	return true
}

// editBuffer applies backspace, space and printable characters to buf,
// capped at MaxInputLength characters. It reports whether buf changed.
func editBuffer(buf *string, ev keyboard.KeyEvent, keys keyMap) bool {
	switch {
	case key.Matches(ev, keys.Backspace):
		if *buf == "" {
			return false
		}
		_, size := utf8.DecodeLastRuneInString(*buf)
		*buf = (*buf)[:len(*buf)-size]
		return true
	case key.Matches(ev, keys.Space):
		return appendCapped(buf, " ")
	case ev.Printable():
		return appendCapped(buf, ev.Char)
	}
	return false
}

func appendCapped(buf *string, s string) bool {
	if utf8.RuneCountInString(*buf)+utf8.RuneCountInString(s) > MaxInputLength {
		return false
	}
	*buf += s
	return true
}
