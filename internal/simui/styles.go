package simui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/cardputer/internal/version"
	"github.com/muurk/cardputer/internal/wificonfig"
)

// Application branding constants
const (
	AppName   = "CARDPUTER SIMULATOR"
	GitHubURL = "github.com/muurk/cardputer"
)

// AppVersion returns the application version from the centralized version package
func AppVersion() string {
	return version.Version
}

// Layout constants
const (
	// screenRows is the text height of the device display
	screenRows = 10

	// MinTerminalWidth fits the device screen inside the container borders
	MinTerminalWidth = wificonfig.ScreenColumns + 8
	// MinTerminalHeight fits header, screen, status and footer
	MinTerminalHeight = screenRows + 10
)

// Color palette
var (
	ErrorColor  = lipgloss.Color("#FF0000") // Red
	TextColor   = lipgloss.Color("#FFFFFF") // White
	SubtleColor = lipgloss.Color("#626262") // Gray
	BorderColor = lipgloss.Color("#7D56F4") // Purple
	BezelColor  = lipgloss.Color("#FF8B94") // Pink, the Cardputer case
)

var (
	// Device screen, drawn as the bezel around the frame
	screenStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BezelColor).
			Padding(0, 1).
			Width(wificonfig.ScreenColumns + 2).
			Height(screenRows)

	statusStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)
)

// BuildHeaderContent creates header content with app name and GitHub URL
func BuildHeaderContent() string {
	left := lipgloss.NewStyle().
		Foreground(TextColor).
		Bold(true).
		Render(AppName + " v" + AppVersion())

	right := lipgloss.NewStyle().
		Foreground(SubtleColor).
		Render(GitHubURL)

	return lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)
}

// BuildFooterContent creates footer content with help text
func BuildFooterContent(helpText string) string {
	return lipgloss.NewStyle().
		Foreground(SubtleColor).
		Render(helpText)
}

// RenderApplicationContainer wraps content in the bordered window with the
// header on top and the help footer pinned below it.
func RenderApplicationContainer(content string, footerText string, terminalWidth int, terminalHeight int) string {
	if terminalWidth < MinTerminalWidth {
		terminalWidth = MinTerminalWidth
	}
	if terminalHeight < MinTerminalHeight {
		terminalHeight = MinTerminalHeight
	}

	headerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderForeground(BorderColor).
		Width(terminalWidth-4). // Leave room for outer border
		Padding(0, 1)

	footerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Top: "─"}).
		BorderForeground(BorderColor).
		Width(terminalWidth-4).
		Padding(0, 1)

	contentStyle := lipgloss.NewStyle().
		Width(terminalWidth - 4)

	innerContent := lipgloss.JoinVertical(
		lipgloss.Left,
		headerStyle.Render(BuildHeaderContent()),
		contentStyle.Render(content),
		footerStyle.Render(BuildFooterContent(footerText)),
	)

	borderStyle := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(BorderColor).
		Width(terminalWidth - 2).
		Height(terminalHeight - 2).
		AlignVertical(lipgloss.Top)

	return lipgloss.Place(
		terminalWidth,
		terminalHeight,
		lipgloss.Left,
		lipgloss.Top,
		borderStyle.Render(innerContent),
	)
}
