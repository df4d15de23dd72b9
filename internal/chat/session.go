// Package chat drives request/response turns against a Transport and keeps
// the conversation consistent when a turn fails halfway.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/arin/chatbot-llm/internal/ai"
	"github.com/arin/chatbot-llm/internal/conversation"
	"github.com/arin/chatbot-llm/internal/persona"
	"github.com/google/uuid"
)

// Options are the generation parameters sent with every turn.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature *float64
	// NoStream requests a single JSON document instead of an SSE stream.
	NoStream bool
	Logger   *slog.Logger
}

// Outcome describes what a turn produced.
type Outcome struct {
	// Reply is the assistant text received, complete or partial.
	Reply string
	// Committed reports whether Reply was appended to the conversation.
	Committed bool
	// Partial is set when the turn stopped before the stream ended.
	Partial bool
	// Deltas counts the non-empty fragments forwarded to the sink.
	Deltas int
	// FirstDelta is the time from sending the request to the first fragment.
	FirstDelta time.Duration
	// Elapsed is the duration of the whole turn.
	Elapsed time.Duration
}

// Session owns one conversation and runs its turns one at a time. It is not
// safe for concurrent use.
type Session struct {
	id        string
	transport ai.Transport
	persona   persona.Persona
	conv      *conversation.Conversation
	opts      Options
	log       *slog.Logger
}

// NewSession starts a conversation seeded with the persona's prompt.
func NewSession(t ai.Transport, p persona.Persona, opts Options) *Session {
	id := uuid.NewString()
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Session{
		id:        id,
		transport: t,
		persona:   p,
		conv:      conversation.New(p.Prompt),
		opts:      opts,
		log:       log.With("session", id, "agent", p.Name),
	}
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string { return s.id }

// Persona returns the persona the session was started with.
func (s *Session) Persona() persona.Persona { return s.persona }


// RunTurn sends userText and writes the reply to sink as it arrives.
//
// The user message is recorded before anything is sent, so a failed turn
// leaves it unanswered in the history. The assistant message is recorded
// only if some text was received; on a mid-stream failure the partial
// text is recorded and the error is returned alongside it.
func (s *Session) RunTurn(ctx context.Context, userText string, sink io.Writer) (Outcome, error) {
	start := time.Now()
	s.conv.Append(conversation.User(userText))

	req := ai.Request{
		Model:       s.opts.Model,
		Messages:    s.conv.Snapshot(),
		MaxTokens:   s.opts.MaxTokens,
		Temperature: s.opts.Temperature,
		Stream:      !s.opts.NoStream,
	}

	body, err := s.transport.Open(ctx, req)
	if err != nil {
		s.log.Debug("turn failed before streaming", "error", err)
		return Outcome{Elapsed: time.Since(start)}, err
	}

	var out Outcome
	if s.opts.NoStream {
		out, err = s.complete(body, sink, start)
	} else {
		out, err = s.pump(ctx, ai.NewStream(body), sink, start)
	}
	out.Elapsed = time.Since(start)

	if out.Reply != "" {
		s.conv.Append(conversation.Assistant(out.Reply))
		out.Committed = true
	}
	s.log.Debug("turn finished",
		"deltas", out.Deltas,
		"chars", len(out.Reply),
		"partial", out.Partial,
		"committed", out.Committed,
		"user_turns", s.conv.Count(conversation.RoleUser),
		"elapsed", out.Elapsed)
	return out, err
}

// pump forwards deltas until the stream ends, threading the reply through
// an explicit accumulator.
func (s *Session) pump(ctx context.Context, stream *ai.Stream, sink io.Writer, start time.Time) (Outcome, error) {
	defer stream.Close()

	var acc strings.Builder
	var out Outcome
	fail := func(err error) (Outcome, error) {
		out.Reply = acc.String()
		out.Partial = true
		return out, &ai.StreamError{Partial: out.Reply, Err: err}
	}

	for {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		ev, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return fail(ctxErr)
			}
			return fail(err)
		}
		if ev.Type == ai.EventDone {
			continue
		}
		if ev.Text == "" {
			continue
		}
		if out.Deltas == 0 {
			out.FirstDelta = time.Since(start)
		}
		if _, err := io.WriteString(sink, ev.Text); err != nil {
			return fail(fmt.Errorf("write reply: %w", err))
		}
		acc.WriteString(ev.Text)
		out.Deltas++
	}

	if n := stream.Skipped(); n > 0 {
		s.log.Warn("skipped malformed stream frames", "count", n)
	}
	out.Reply = acc.String()
	return out, nil
}

// complete handles the non-streaming mode: the whole reply is one delta.
func (s *Session) complete(body io.ReadCloser, sink io.Writer, start time.Time) (Outcome, error) {
	defer body.Close()

	text, err := ai.ReadCompletion(body)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{Reply: text}
	if text == "" {
		return out, nil
	}
	out.FirstDelta = time.Since(start)
	out.Deltas = 1
	if _, err := io.WriteString(sink, text); err != nil {
		out.Partial = true
		return out, fmt.Errorf("write reply: %w", err)
	}
	return out, nil
}
