package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Confirm shows a warning box and asks a yes/no question on out. Only an
// answer starting with y or Y confirms; EOF declines.
func Confirm(in io.Reader, out io.Writer, title string, warnings []string) bool {
	var lines []string
	lines = append(lines, "", WarningTitleStyle.Render(fmt.Sprintf("   %s  %s", WarningMarker, title)), "")
	for _, w := range warnings {
		lines = append(lines, lipgloss.NewStyle().Foreground(TextColor).Render("   • "+w))
	}
	if len(warnings) > 0 {
		lines = append(lines, "")
	}

	fmt.Fprintln(out, boxStyle(WarningColor, GetTerminalWidth()).Render(strings.Join(lines, "\n")))
	fmt.Fprint(out, WarningTitleStyle.Render("Continue? [y/N]: "))

	answer, err := bufio.NewReader(in).ReadString('\n')
	fmt.Fprintln(out)
	if err != nil && answer == "" {
		return false
	}
	answer = strings.TrimSpace(answer)
	if strings.HasPrefix(strings.ToLower(answer), "y") {
		return true
	}
	fmt.Fprintln(out, HintStyle.Render("  Cancelled."))
	return false
}
