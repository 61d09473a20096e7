// Package cliui provides reusable terminal UI helpers (spinners, speaker
// labels, markdown rendering) for parley CLI commands.
package cliui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var (
	SuccessMark  = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("✓")
	FailMark     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")
	StepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))

	KeyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	ValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	NameStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	DimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	UserLabel      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Render("you")
	AssistantLabel = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("82")).Render("parley")
	SystemLabel    = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Render("[system]")
	ErrorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// SpinnerFrames matches bubbletea's spinner.Dot pattern used in the TUI.
var SpinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

// Step prints an animated spinner while fn runs, then replaces it with
// a ✓ or ✗ checkmark and elapsed time.
func Step(w io.Writer, msg string, fn func() error) error {
	var err error
	done := make(chan struct{})
	go func() {
		defer close(done)
		err = fn()
	}()

	elapsed := Spin(w, msg, done)

	fmt.Fprintf(w, "\r  %s %s %s\n",
		Mark(err),
		msg,
		StepStyle.Render(fmt.Sprintf("(%s)", FormatDuration(elapsed))),
	)

	return err
}

// Spin animates a spinner until done is closed, then clears the line and
// returns how long it ran.
func Spin(w io.Writer, msg string, done <-chan struct{}) time.Duration {
	start := time.Now()
	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	frame := 0
	for {
		fmt.Fprintf(w, "\r  %s %s",
			spinnerStyle.Render(SpinnerFrames[frame%len(SpinnerFrames)]),
			msg,
		)

		select {
		case <-done:
			fmt.Fprintf(w, "\r%s\r", strings.Repeat(" ", lipgloss.Width(msg)+4))
			return time.Since(start)
		case <-ticker.C:
			frame++
		}
	}
}

// Mark returns a ✓ for nil errors or ✗ for non-nil errors.
func Mark(err error) string {
	if err != nil {
		return FailMark
	}
	return SuccessMark
}

// FormatDuration formats a duration for display (e.g. "12ms" or "3.2s").
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// Systemf prints a "[system]" notice line.
func Systemf(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", SystemLabel, fmt.Sprintf(format, args...))
}

// Answer prints an assistant reply. Failed replies are shown in the error
// style. When markdown is true successful replies are rendered with glamour.
func Answer(w io.Writer, text string, ok, markdown bool) {
	switch {
	case !ok:
		fmt.Fprintf(w, "%s: %s\n", AssistantLabel, ErrorStyle.Render(text))
	case markdown:
		rendered, err := RenderMarkdown(text)
		if err != nil {
			fmt.Fprintf(w, "%s: %s\n", AssistantLabel, text)
			return
		}
		fmt.Fprintf(w, "%s:\n%s", AssistantLabel, rendered)
	default:
		fmt.Fprintf(w, "%s: %s\n", AssistantLabel, text)
	}
}

// RenderMarkdown renders markdown content for terminal display using glamour.
func RenderMarkdown(content string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return content, err
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content, err
	}

	return rendered, nil
}
