package ai

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode/utf8"
)

const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"
)

// EventType distinguishes the events produced by the decoder.
type EventType int

const (
	// EventDelta carries a fragment of the assistant reply.
	EventDelta EventType = iota
	// EventDone is emitted for the provider's "data: [DONE]" line.
	EventDone
)

// StreamEvent is one decoded SSE frame of interest.
type StreamEvent struct {
	Type EventType
	Text string
}

// DecoderState tracks the decoder lifecycle.
type DecoderState int

const (
	StateIdle DecoderState = iota
	StateReceiving
	StateClosed
)

// streamChunk is the delta shape of an OpenAI-compatible streaming frame.
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content *string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Decoder reassembles newline-terminated SSE lines from arbitrarily
// fragmented chunks and turns "data:" lines into events. Lines are split on
// raw bytes before UTF-8 decoding, so a multi-byte character cut in half by
// the network is still decoded correctly.
//
// A Decoder is owned by one reader and is not safe for concurrent use.
type Decoder struct {
	pending []byte
	state   DecoderState
	skipped int
}

// NewDecoder returns a decoder in the Idle state.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends chunk to the pending buffer and returns the events of every
// line completed by it, in order.
func (d *Decoder) Feed(chunk []byte) []StreamEvent {
	if d.state == StateClosed {
		return nil
	}
	d.state = StateReceiving
	d.pending = append(d.pending, chunk...)

	var events []StreamEvent
	start := 0
	for {
		idx := bytes.IndexByte(d.pending[start:], '\n')
		if idx < 0 {
			break
		}
		if ev, ok := d.decodeLine(d.pending[start : start+idx]); ok {
			events = append(events, ev)
		}
		start += idx + 1
	}
	d.pending = append(d.pending[:0], d.pending[start:]...)
	return events
}

// Close ends the stream. An unterminated trailing fragment is discarded.
func (d *Decoder) Close() {
	d.pending = nil
	d.state = StateClosed
}

// State reports where the decoder is in its lifecycle.
func (d *Decoder) State() DecoderState {
	return d.state
}

// Skipped counts data lines whose payload could not be parsed.
func (d *Decoder) Skipped() int {
	return d.skipped
}

func (d *Decoder) decodeLine(raw []byte) (StreamEvent, bool) {
	raw = bytes.TrimSuffix(raw, []byte{'\r'})
	line := toValidUTF8(raw)
	if !strings.HasPrefix(line, dataPrefix) {
		return StreamEvent{}, false
	}
	payload := line[len(dataPrefix):]
	if payload == doneSentinel {
		return StreamEvent{Type: EventDone}, true
	}

	var chunk streamChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		d.skipped++
		return StreamEvent{}, false
	}
	if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == nil {
		return StreamEvent{}, false
	}
	return StreamEvent{Type: EventDelta, Text: *chunk.Choices[0].Delta.Content}, true
}

func toValidUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}
