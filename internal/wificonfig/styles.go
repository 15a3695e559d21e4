package wificonfig

import "github.com/charmbracelet/lipgloss"

// ScreenColumns is the text width of the Cardputer display.
const ScreenColumns = 40

// Device screen palette
var (
	HeaderColor   = lipgloss.Color("#00FFFF") // Cyan
	SelectedColor = lipgloss.Color("#00FF00") // Green
	InputColor    = lipgloss.Color("#FFFF00") // Yellow
	TextColor     = lipgloss.Color("#FFFFFF") // White
	SubtleColor   = lipgloss.Color("#888888") // Gray
	ErrorColor    = lipgloss.Color("#FF0000") // Red
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(HeaderColor).
			Bold(true)

	itemStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	selectedItemStyle = lipgloss.NewStyle().
				Foreground(SelectedColor).
				Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	focusedInputStyle = lipgloss.NewStyle().
				Foreground(InputColor)

	blurredInputStyle = lipgloss.NewStyle().
				Foreground(SubtleColor)

	targetStyle = lipgloss.NewStyle().
			Foreground(SelectedColor)

	noticeStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Italic(true)

	successStyle = lipgloss.NewStyle().
			Foreground(SelectedColor).
			Bold(true)

	savedNoteStyle = lipgloss.NewStyle().
			Foreground(HeaderColor)

	failedStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	footerStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			BorderStyle(lipgloss.Border{Top: "─"}).
			BorderForeground(SubtleColor).
			BorderTop(true)

	screenStyle = lipgloss.NewStyle().
			Width(ScreenColumns)
)
