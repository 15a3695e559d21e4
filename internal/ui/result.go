package ui

import (
	"fmt"
	"strings"
)

// ResultType indicates success or failure
type ResultType int

const (
	ResultSuccess ResultType = iota
	ResultFailure
	ResultWarning
)

// Detail is one labelled line of a result box.
type Detail struct {
	Key   string
	Value string
}

// Result is a boxed command outcome.
type Result struct {
	Type    ResultType
	Title   string   // e.g., "Network saved"
	Details []Detail // shown in order
	Error   error    // failure results only
	Hints   []string // follow-up suggestions, shown below the details
	Width   int
}

// NewSuccessResult creates a success result box
func NewSuccessResult(title string) *Result {
	return &Result{Type: ResultSuccess, Title: title, Width: GetTerminalWidth()}
}

// NewFailureResult creates a failure result box
func NewFailureResult(title string, err error) *Result {
	return &Result{Type: ResultFailure, Title: title, Error: err, Width: GetTerminalWidth()}
}

// NewWarningResult creates a warning result box
func NewWarningResult(title string) *Result {
	return &Result{Type: ResultWarning, Title: title, Width: GetTerminalWidth()}
}

// SetWidth sets the terminal width for responsive rendering
func (r *Result) SetWidth(width int) *Result {
	r.Width = width
	return r
}

// AddDetail appends a detail line
func (r *Result) AddDetail(key, value string) *Result {
	r.Details = append(r.Details, Detail{Key: key, Value: value})
	return r
}

// AddHint appends a follow-up suggestion
func (r *Result) AddHint(hint string) *Result {
	r.Hints = append(r.Hints, hint)
	return r
}

// Render returns the styled result box as a string
func (r *Result) Render() string {
	var lines []string
	lines = append(lines, "")

	switch r.Type {
	case ResultFailure:
		lines = append(lines, ErrorTitleStyle.Render(fmt.Sprintf("   %s  FAILED  ─  %s", FailureMarker, r.Title)))
	case ResultWarning:
		lines = append(lines, WarningTitleStyle.Render(fmt.Sprintf("   %s  WARNING  ─  %s", WarningMarker, r.Title)))
	default:
		lines = append(lines, SuccessTitleStyle.Render(fmt.Sprintf("   %s  SUCCESS  ─  %s", SuccessMarker, r.Title)))
	}
	lines = append(lines, "")

	if r.Error != nil {
		lines = append(lines, ErrorMessageStyle.Render("   "+r.Error.Error()), "")
	}

	for _, d := range r.Details {
		lines = append(lines, ResultKeyStyle.Render("   "+d.Key+":")+" "+ResultValueStyle.Render(d.Value))
	}
	if len(r.Details) > 0 {
		lines = append(lines, "")
	}

	for _, h := range r.Hints {
		lines = append(lines, HintStyle.Render("   • "+h))
	}
	if len(r.Hints) > 0 {
		lines = append(lines, "")
	}

	color := SuccessColor
	switch r.Type {
	case ResultFailure:
		color = ErrorColor
	case ResultWarning:
		color = WarningColor
	}
	return boxStyle(color, r.Width).Render(strings.Join(lines, "\n"))
}

// String implements fmt.Stringer
func (r *Result) String() string {
	return r.Render()
}
