package wificonfig

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/muurk/cardputer/internal/credstore"
	"github.com/muurk/cardputer/internal/wifi"
)

// ssidColumns is the width of the SSID column on the network list.
const ssidColumns = 12

// render draws the current state and hands the frame to the display.
func (w *Workflow) render() {
	var title string
	var body []string
	var hints screenKeys

	switch w.state {
	case StateScanning:
		title, body, hints = w.scanningView()
	case StateSelectWifi:
		title, body, hints = w.wifiListView()
	case StateInputPassword:
		title, body, hints = w.passwordView()
	case StateInputSSID, StateInputManualPwd:
		title, body, hints = w.manualView()
	case StateSavedList:
		title, body, hints = w.savedListView()
	case StateConnecting:
		title = "Connecting..."
		body = []string{"", targetStyle.Render("Connecting to: " + w.target)}
	case StateSuccess:
		title = "Connected!"
		body = []string{
			"",
			successStyle.Render("Connected: " + w.target),
			savedNoteStyle.Render("WiFi settings saved"),
		}
		hints = screenKeys{withHelp(w.keys.Confirm, "enter", "continue")}
	case StateFailed:
		title = "Connection failed"
		body = []string{"", failedStyle.Render("Could not connect: " + w.target)}
		hints = screenKeys{withHelp(w.keys.Confirm, "enter", "retry"), w.keys.Back}
	}

	footer := "Please wait..."
	if len(hints) > 0 {
		footer = w.help.View(hints)
	}

	w.frame = screenStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		headerStyle.Render(title),
		strings.Join(body, "\n"),
		footerStyle.Width(ScreenColumns).Render(footer),
	))
	if w.display != nil {
		w.display.Show(w.frame)
	}
}

func (w *Workflow) scanningView() (string, []string, screenKeys) {
	if w.scanning {
		return "Scanning WiFi...", nil, nil
	}
	return "No WiFi found",
		[]string{"", noticeStyle.Render("Press W to enter a network by hand")},
		screenKeys{w.keys.Manual, w.keys.Saved, withHelp(w.keys.Back, "esc", "exit")}
}

func (w *Workflow) wifiListView() (string, []string, screenKeys) {
	hints := screenKeys{
		withHelp(w.keys.Down, "↑↓", "select"),
		withHelp(w.keys.Confirm, "enter", "connect"),
		w.keys.Manual,
		w.keys.Saved,
	}
	if len(w.results) == 0 {
		return "Select WiFi", []string{noticeStyle.Render("No networks")}, hints
	}

	var rows []string
	end := min(len(w.results), w.scroll+MaxVisibleItems)
	for i := w.scroll; i < end; i++ {
		rows = append(rows, listRow(i, w.results[i], i == w.selected))
	}
	return "Select WiFi", rows, hints
}

// listRow formats ">N.SSID         -NNdBm ████".
func listRow(i int, r wifi.ScanResult, selected bool) string {
	marker := " "
	style := itemStyle
	if selected {
		marker = ">"
		style = selectedItemStyle
	}
	ssid := runewidth.FillRight(runewidth.Truncate(r.SSID, ssidColumns, ""), ssidColumns)
	return style.Render(fmt.Sprintf("%s%d.%s %4ddBm %s", marker, i+1, ssid, r.RSSI, wifi.SignalBars(r.RSSI)))
}

func (w *Workflow) cursor() string {
	if w.cursorVisible {
		return "_"
	}
	return " "
}

func (w *Workflow) passwordView() (string, []string, screenKeys) {
	masked := strings.Repeat("*", len([]rune(w.password)))
	body := []string{
		targetStyle.Render("Connect: " + w.target),
		"",
		labelStyle.Render("Password:"),
		focusedInputStyle.Render(">>> " + masked + w.cursor()),
	}
	return "Enter password", body, screenKeys{w.keys.Confirm, w.keys.Back}
}

func (w *Workflow) manualView() (string, []string, screenKeys) {
	ssidLine := ">>> " + w.ssidInput
	pwdLine := ">>> " + strings.Repeat("*", len([]rune(w.password)))

	ssidStyle, pwdStyle := focusedInputStyle, blurredInputStyle
	if w.focusPassword {
		ssidStyle, pwdStyle = blurredInputStyle, focusedInputStyle
		pwdLine += w.cursor()
	} else {
		ssidLine += w.cursor()
	}

	body := []string{
		labelStyle.Render("SSID:"),
		ssidStyle.Render(ssidLine),
		labelStyle.Render("Password:"),
		pwdStyle.Render(pwdLine),
	}
	return "Manual WiFi setup", body, screenKeys{w.keys.Toggle, w.keys.Confirm, w.keys.Back}
}

func (w *Workflow) savedListView() (string, []string, screenKeys) {
	title := fmt.Sprintf("Saved WiFi (%d/%d)", len(w.saved), credstore.Capacity)
	if len(w.saved) == 0 {
		return title, []string{"", noticeStyle.Render("No saved WiFi")}, screenKeys{w.keys.Back}
	}

	var rows []string
	end := min(len(w.saved), w.savedScroll+MaxVisibleItems)
	for i := w.savedScroll; i < end; i++ {
		marker, style := " ", itemStyle
		if i == w.savedSelected {
			marker, style = ">", selectedItemStyle
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s %d. %s", marker, i+1, w.saved[i].SSID)))
	}
	hints := screenKeys{
		withHelp(w.keys.Down, "↑↓", "select"),
		withHelp(w.keys.Confirm, "enter", "connect"),
		w.keys.Delete,
		w.keys.Back,
	}
	return title, rows, hints
}
