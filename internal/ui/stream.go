// stream.go renders streamed reply fragments to the terminal with a leading
// prefix and proper line endings.

package ui

import (
	"fmt"
	"io"
	"strings"
)

// Waiter is anything shown while waiting for the first fragment.
type Waiter interface {
	Stop()
}

// StreamPrinter is an io.Writer that prints reply fragments as they arrive.
// The prefix is written before the first fragment, and a pending waiter
// (usually a spinner) is stopped at that moment.
type StreamPrinter struct {
	w       io.Writer
	prefix  string
	waiter  Waiter
	started bool
	lastNL  bool
}

// NewStreamPrinter creates a printer that writes to w.
func NewStreamPrinter(w io.Writer, prefix string) *StreamPrinter {
	return &StreamPrinter{w: w, prefix: prefix}
}

// WaitWith registers a waiter to stop once output starts.
func (p *StreamPrinter) WaitWith(waiter Waiter) *StreamPrinter {
	p.waiter = waiter
	return p
}

// Write prints one fragment immediately.
func (p *StreamPrinter) Write(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	if !p.started {
		p.stopWaiter()
		if _, err := io.WriteString(p.w, p.prefix); err != nil {
			return 0, err
		}
		p.started = true
	}
	n, err := p.w.Write(b)
	if n > 0 {
		p.lastNL = b[n-1] == '\n'
	}
	return n, err
}

// Finish stops the waiter if nothing was printed and ends the reply with a
// blank line.
func (p *StreamPrinter) Finish() {
	p.stopWaiter()
	if p.started && !p.lastNL {
		fmt.Fprintln(p.w)
	}
	fmt.Fprintln(p.w)
}

func (p *StreamPrinter) stopWaiter() {
	if p.waiter != nil {
		p.waiter.Stop()
		p.waiter = nil
	}
}

// Indent prefixes every line of s after the first with pad, for printing
// multi-line error bodies under a heading.
func Indent(s, pad string) string {
	return strings.ReplaceAll(strings.TrimRight(s, "\n"), "\n", "\n"+pad)
}
