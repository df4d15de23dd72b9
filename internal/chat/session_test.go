package chat

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/arin/chatbot-llm/internal/ai"
	"github.com/arin/chatbot-llm/internal/conversation"
	"github.com/arin/chatbot-llm/internal/persona"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Test doubles ---

// fakeTransport returns a canned body or error and records requests.
type fakeTransport struct {
	body  io.ReadCloser
	err   error
	calls int
	last  ai.Request
}

func (f *fakeTransport) Open(_ context.Context, req ai.Request) (io.ReadCloser, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return f.body, nil
}

// failingBody yields data, then fails with err.
type failingBody struct {
	r      io.Reader
	err    error
	closed bool
}

func (b *failingBody) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	if err == io.EOF {
		return n, b.err
	}
	return n, err
}

func (b *failingBody) Close() error {
	b.closed = true
	return nil
}

// failingSink accepts limit writes and then fails.
type failingSink struct {
	limit  int
	writes []string
}

func (s *failingSink) Write(p []byte) (int, error) {
	if len(s.writes) >= s.limit {
		return 0, errors.New("broken pipe")
	}
	s.writes = append(s.writes, string(p))
	return len(p), nil
}

func sse(deltas ...string) string {
	var sb strings.Builder
	for _, d := range deltas {
		sb.WriteString(`data: {"choices":[{"delta":{"content":"` + d + `"}}]}` + "\n\n")
	}
	return sb.String()
}

func testPersona() persona.Persona {
	return persona.Persona{Name: "default", Prompt: "sp"}
}

func newSession(t *fakeTransport) *Session {
	return NewSession(t, testPersona(), Options{})
}

// --- RunTurn ---

func TestRunTurn_CommitsConcatenatedReply(t *testing.T) {
	tr := &fakeTransport{body: io.NopCloser(strings.NewReader(sse("Hel", "lo") + "data: [DONE]\n\n"))}
	s := newSession(tr)

	var out bytes.Buffer
	res, err := s.RunTurn(context.Background(), "hi", &out)
	require.NoError(t, err)

	assert.Equal(t, "Hello", out.String())
	assert.Equal(t, "Hello", res.Reply)
	assert.True(t, res.Committed)
	assert.False(t, res.Partial)
	assert.Equal(t, 2, res.Deltas)

	assert.Equal(t, []conversation.Message{
		conversation.System("sp"),
		conversation.User("hi"),
		conversation.Assistant("Hello"),
	}, s.conv.Snapshot())
}

func TestRunTurn_TransportFailureLeavesUserMessage(t *testing.T) {
	tr := &fakeTransport{err: &ai.TransportError{Kind: ai.KindStatus, StatusCode: 500, Body: "boom"}}
	s := newSession(tr)

	var out bytes.Buffer
	res, err := s.RunTurn(context.Background(), "hi", &out)
	require.Error(t, err)

	var transportErr *ai.TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, 500, transportErr.StatusCode)
	assert.False(t, res.Committed)
	assert.Empty(t, out.String())

	history := s.conv.Snapshot()
	require.Len(t, history, 2)
	assert.Equal(t, conversation.User("hi"), history[1])
}

func TestRunTurn_EmptyStreamCommitsNothing(t *testing.T) {
	tr := &fakeTransport{body: io.NopCloser(strings.NewReader("data: [DONE]\n\n"))}
	s := newSession(tr)

	res, err := s.RunTurn(context.Background(), "hi", io.Discard)
	require.NoError(t, err)
	assert.False(t, res.Committed)
	assert.Zero(t, res.Deltas)

	history := s.conv.Snapshot()
	require.Len(t, history, 2)
	last := history[len(history)-1]
	assert.Equal(t, conversation.RoleUser, last.Role)
}

func TestRunTurn_ExhaustionWithoutDone(t *testing.T) {
	tr := &fakeTransport{body: io.NopCloser(strings.NewReader(sse("a", "b")))}
	s := newSession(tr)

	res, err := s.RunTurn(context.Background(), "hi", io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "ab", res.Reply)
	assert.True(t, res.Committed)
}

func TestRunTurn_MidStreamErrorCommitsPartial(t *testing.T) {
	body := &failingBody{r: strings.NewReader(sse("par", "tial")), err: errors.New("connection reset")}
	tr := &fakeTransport{body: body}
	s := newSession(tr)

	var out bytes.Buffer
	res, err := s.RunTurn(context.Background(), "hi", &out)
	require.Error(t, err)

	var streamErr *ai.StreamError
	require.True(t, errors.As(err, &streamErr))
	assert.Equal(t, "partial", streamErr.Partial)
	var transportErr *ai.TransportError
	require.ErrorAs(t, err, &transportErr, "the read failure stays reachable through the stream error")
	assert.Equal(t, ai.KindConnection, transportErr.Kind)
	assert.True(t, res.Partial)
	assert.True(t, res.Committed)
	assert.Equal(t, "partial", out.String())
	assert.True(t, body.closed)

	history := s.conv.Snapshot()
	require.Len(t, history, 3)
	assert.Equal(t, conversation.Assistant("partial"), history[2])
}

func TestRunTurn_SinkErrorStopsPumping(t *testing.T) {
	tr := &fakeTransport{body: io.NopCloser(strings.NewReader(sse("one", "two", "three")))}
	s := newSession(tr)

	sink := &failingSink{limit: 1}
	res, err := s.RunTurn(context.Background(), "hi", sink)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken pipe")
	assert.Equal(t, []string{"one"}, sink.writes)
	assert.Equal(t, "one", res.Reply)
	assert.True(t, res.Committed)
}

func TestRunTurn_CancelledContext(t *testing.T) {
	pr, pw := io.Pipe()
	tr := &fakeTransport{body: pr}
	s := newSession(tr)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_, _ = io.WriteString(pw, sse("before"))
		cancel()
		// The HTTP client aborts the body read on cancellation; emulate it.
		_ = pw.CloseWithError(context.Canceled)
	}()

	res, err := s.RunTurn(ctx, "hi", io.Discard)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "before", res.Reply)
	assert.True(t, res.Committed)
}

func TestRunTurn_ForwardsIncrementally(t *testing.T) {
	pr, pw := io.Pipe()
	tr := &fakeTransport{body: pr}
	s := newSession(tr)

	sink := newSignalSink()
	done := make(chan Outcome, 1)
	go func() {
		res, _ := s.RunTurn(context.Background(), "hi", sink)
		done <- res
	}()

	_, err := io.WriteString(pw, sse("first"))
	require.NoError(t, err)
	select {
	case got := <-sink.writes:
		assert.Equal(t, "first", got)
	case <-time.After(2 * time.Second):
		t.Fatal("first delta not forwarded before the stream ended")
	}

	_, err = io.WriteString(pw, sse("second"))
	require.NoError(t, err)
	assert.Equal(t, "second", <-sink.writes)
	require.NoError(t, pw.Close())

	res := <-done
	assert.Equal(t, "firstsecond", res.Reply)
}

type signalSink struct {
	writes chan string
}

func newSignalSink() *signalSink {
	return &signalSink{writes: make(chan string, 8)}
}

func (s *signalSink) Write(p []byte) (int, error) {
	s.writes <- string(p)
	return len(p), nil
}

func TestRunTurn_RequestCarriesHistoryInOrder(t *testing.T) {
	tr := &fakeTransport{body: io.NopCloser(strings.NewReader(sse("a1")))}
	s := NewSession(tr, testPersona(), Options{Model: "m", MaxTokens: 50, Temperature: ai.Temperature(0.2)})

	_, err := s.RunTurn(context.Background(), "q1", io.Discard)
	require.NoError(t, err)

	tr.body = io.NopCloser(strings.NewReader(sse("a2")))
	_, err = s.RunTurn(context.Background(), "q2", io.Discard)
	require.NoError(t, err)

	assert.Equal(t, []conversation.Message{
		conversation.System("sp"),
		conversation.User("q1"),
		conversation.Assistant("a1"),
		conversation.User("q2"),
	}, tr.last.Messages)
	assert.True(t, tr.last.Stream)
	assert.Equal(t, "m", tr.last.Model)
	assert.Equal(t, 50, tr.last.MaxTokens)
	require.NotNil(t, tr.last.Temperature)
	assert.InDelta(t, 0.2, *tr.last.Temperature, 1e-9)
}

func TestRunTurn_NoStream(t *testing.T) {
	tr := &fakeTransport{body: io.NopCloser(strings.NewReader(
		`{"choices":[{"message":{"role":"assistant","content":"whole reply"}}]}`))}
	s := NewSession(tr, testPersona(), Options{NoStream: true})

	var out bytes.Buffer
	res, err := s.RunTurn(context.Background(), "hi", &out)
	require.NoError(t, err)
	assert.False(t, tr.last.Stream)
	assert.Equal(t, "whole reply", out.String())
	assert.True(t, res.Committed)
	assert.Equal(t, 1, res.Deltas)
}

func TestRunTurn_FailedTurnThenRecovery(t *testing.T) {
	tr := &fakeTransport{err: &ai.TransportError{Kind: ai.KindTimeout, Err: context.DeadlineExceeded}}
	s := newSession(tr)

	_, err := s.RunTurn(context.Background(), "first try", io.Discard)
	require.Error(t, err)

	tr.err = nil
	tr.body = io.NopCloser(strings.NewReader(sse("ok")))
	_, err = s.RunTurn(context.Background(), "second try", io.Discard)
	require.NoError(t, err)

	assert.Equal(t, []conversation.Message{
		conversation.System("sp"),
		conversation.User("first try"),
		conversation.User("second try"),
		conversation.Assistant("ok"),
	}, s.conv.Snapshot())
}

func TestNewSession(t *testing.T) {
	s := newSession(&fakeTransport{})

	assert.NotEmpty(t, s.ID())
	assert.Equal(t, "default", s.Persona().Name)
	assert.Equal(t, []conversation.Message{conversation.System("sp")}, s.conv.Snapshot())
}

// --- Input helpers ---

func TestIsExit(t *testing.T) {
	for _, in := range []string{"quit", "exit", "QUIT", "Exit", "  quit  "} {
		assert.True(t, IsExit(in), in)
	}
	for _, in := range []string{"", "bye", "quit now", "exits"} {
		assert.False(t, IsExit(in), in)
	}
}

func TestIsBlank(t *testing.T) {
	assert.True(t, IsBlank(""))
	assert.True(t, IsBlank(" \t\n"))
	assert.False(t, IsBlank(" x "))
}
