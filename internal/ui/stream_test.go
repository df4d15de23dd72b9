package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

type fakeWaiter struct{ stops int }

func (w *fakeWaiter) Stop() { w.stops++ }

func write(t *testing.T, p *StreamPrinter, tokens ...string) {
	t.Helper()
	for _, tok := range tokens {
		if _, err := p.Write([]byte(tok)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}

func TestStreamPrinter_BasicTokens(t *testing.T) {
	var buf bytes.Buffer
	p := NewStreamPrinter(&buf, "  ")
	write(t, p, "hello", " world")
	p.Finish()

	// Output should start with the prefix.
	if !strings.HasPrefix(buf.String(), "  hello world") {
		t.Errorf("expected output to start with prefix, got %q", buf.String())
	}
	if !strings.HasSuffix(buf.String(), "hello world\n\n") {
		t.Errorf("expected reply text followed by a blank line, got %q", buf.String())
	}
}

func TestStreamPrinter_EmptyPrefix(t *testing.T) {
	var buf bytes.Buffer
	p := NewStreamPrinter(&buf, "")
	write(t, p, "test")
	p.Finish()

	if strings.HasPrefix(buf.String(), " ") {
		t.Error("empty prefix should not add leading space")
	}
}

func TestStreamPrinter_PrefixOnlyOnce(t *testing.T) {
	var buf bytes.Buffer
	p := NewStreamPrinter(&buf, ">> ")
	write(t, p, "a", "b", "c")

	if got := buf.String(); got != ">> abc" {
		t.Errorf("expected '>> abc', got %q", got)
	}
}

func TestStreamPrinter_SkipsEmptyWrites(t *testing.T) {
	var buf bytes.Buffer
	p := NewStreamPrinter(&buf, ">> ")
	write(t, p, "")

	if buf.Len() != 0 {
		t.Errorf("empty write should print nothing, got %q", buf.String())
	}
}

func TestStreamPrinter_StopsWaiterOnFirstToken(t *testing.T) {
	var buf bytes.Buffer
	w := &fakeWaiter{}
	p := NewStreamPrinter(&buf, "").WaitWith(w)

	write(t, p, "x", "y")
	p.Finish()

	if w.stops != 1 {
		t.Errorf("expected waiter stopped once, got %d", w.stops)
	}
}

func TestStreamPrinter_FinishStopsWaiterWithoutOutput(t *testing.T) {
	var buf bytes.Buffer
	w := &fakeWaiter{}
	p := NewStreamPrinter(&buf, ">> ").WaitWith(w)
	p.Finish()

	if w.stops != 1 {
		t.Errorf("expected waiter stopped, got %d", w.stops)
	}
	if strings.Contains(buf.String(), ">>") {
		t.Error("prefix should not be printed for an empty reply")
	}
}

func TestStreamPrinter_AddsTrailingNewline(t *testing.T) {
	var buf bytes.Buffer
	p := NewStreamPrinter(&buf, "")
	write(t, p, "no newline at end")
	p.Finish()

	if !strings.HasSuffix(buf.String(), "end\n\n") {
		t.Errorf("output should end with a blank line, got %q", buf.String())
	}
}

func TestStreamPrinter_PreservesExistingNewline(t *testing.T) {
	var buf bytes.Buffer
	p := NewStreamPrinter(&buf, "")
	write(t, p, "ends with newline\n")
	p.Finish()

	// Should not double-newline.
	if strings.HasSuffix(buf.String(), "\n\n\n") {
		t.Errorf("should not triple-newline, got %q", buf.String())
	}
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestStreamPrinter_PropagatesWriteErrors(t *testing.T) {
	p := NewStreamPrinter(brokenWriter{}, "")
	if _, err := p.Write([]byte("x")); err == nil {
		t.Fatal("expected error")
	}
}

func TestIndent(t *testing.T) {
	got := Indent("line one\nline two\n", "    ")
	if got != "line one\n    line two" {
		t.Errorf("unexpected indent: %q", got)
	}
}
