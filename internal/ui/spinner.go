// Package ui provides terminal UI helpers.
package ui

import (
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"golang.org/x/term"
)

// Spinner wraps a terminal spinner for loading states. On a non-terminal
// stderr it does nothing, so piped output stays clean.
type Spinner struct {
	s       *spinner.Spinner
	out     io.Writer
	enabled bool
}

// NewSpinner creates a spinner with the given message.
func NewSpinner(msg string) *Spinner {
	s := spinner.New(spinner.CharSets[14], 80*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = "  " + msg
	_ = s.Color("cyan")
	return &Spinner{s: s, out: os.Stderr, enabled: IsTerminal(os.Stderr)}
}

// Start begins the spinner animation.
func (sp *Spinner) Start() {
	if sp.enabled {
		sp.s.Start()
	}
}

// Stop halts the spinner and clears the line.
func (sp *Spinner) Stop() {
	if sp.enabled {
		sp.s.Stop()
	}
}

// Success stops the spinner and prints a green check.
func (sp *Spinner) Success(msg string) {
	sp.Stop()
	green := color.New(color.FgGreen)
	green.Fprintf(sp.out, "  ✓ %s\n", msg)
}

// Fail stops the spinner and prints a red cross.
func (sp *Spinner) Fail(msg string) {
	sp.Stop()
	red := color.New(color.FgRed)
	red.Fprintf(sp.out, "  ✗ %s\n", msg)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
