// Package stats tracks per-turn metrics for the current chat session:
// latency to the first fragment, total turn time, fragment and character
// counts, and failures. Nothing is written to disk.
package stats

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
)

// Turn is a single instrumented request/response turn.
type Turn struct {
	FirstDelta time.Duration
	Elapsed    time.Duration
	Deltas     int
	Chars      int
	Failed     bool
	Partial    bool
}

// Summary is the aggregate over a session.
type Summary struct {
	Turns           int
	Failed          int
	Partial         int
	TotalChars      int
	TotalDeltas     int
	AvgFirstDeltaMs int64
	AvgTurnMs       int64
	SlowestTurn     time.Duration
}

// Recorder accumulates turns. It belongs to one session and is not safe
// for concurrent use.
type Recorder struct {
	turns []Turn
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Add records a finished turn.
func (r *Recorder) Add(t Turn) {
	r.turns = append(r.turns, t)
}

// Len returns the number of recorded turns.
func (r *Recorder) Len() int {
	return len(r.turns)
}

// Summarize computes aggregate stats over the recorded turns.
func (r *Recorder) Summarize() Summary {
	s := Summary{Turns: len(r.turns)}
	if s.Turns == 0 {
		return s
	}

	var firstTotal, turnTotal time.Duration
	var firstCount int
	for _, t := range r.turns {
		if t.Failed {
			s.Failed++
		}
		if t.Partial {
			s.Partial++
		}
		s.TotalChars += t.Chars
		s.TotalDeltas += t.Deltas
		turnTotal += t.Elapsed
		if t.Elapsed > s.SlowestTurn {
			s.SlowestTurn = t.Elapsed
		}
		// Only turns that produced output have a first-fragment latency.
		if t.Deltas > 0 {
			firstTotal += t.FirstDelta
			firstCount++
		}
	}

	s.AvgTurnMs = (turnTotal / time.Duration(s.Turns)).Milliseconds()
	if firstCount > 0 {
		s.AvgFirstDeltaMs = (firstTotal / time.Duration(firstCount)).Milliseconds()
	}
	return s
}

// Print writes a short dashboard of s to w.
func (s Summary) Print(w io.Writer) {
	dim := color.New(color.FgHiBlack)
	if s.Turns == 0 {
		dim.Fprintln(w, "  No turns in this session.")
		return
	}
	dim.Fprintf(w, "  Turns:            %d (%d failed, %d partial)\n", s.Turns, s.Failed, s.Partial)
	dim.Fprintf(w, "  Avg first token:  %dms\n", s.AvgFirstDeltaMs)
	dim.Fprintf(w, "  Avg turn:         %dms\n", s.AvgTurnMs)
	dim.Fprintf(w, "  Slowest turn:     %s\n", s.SlowestTurn.Round(time.Millisecond))
	dim.Fprintf(w, "  Received:         %s in %d fragments\n", formatChars(s.TotalChars), s.TotalDeltas)
}

func formatChars(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d chars", n)
	}
	return fmt.Sprintf("%.1fk chars", float64(n)/1000)
}
