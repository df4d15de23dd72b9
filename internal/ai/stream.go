package ai

import (
	"errors"
	"io"
	"sync"
)

const readChunkSize = 4096

// Stream pulls an SSE response body through a Decoder one read at a time.
// Nothing is read ahead of the caller, so a slow consumer slows the
// connection down instead of buffering the reply in memory.
//
// The first EventDone ends the stream; bytes after it are never read.
type Stream struct {
	body  io.ReadCloser
	dec   *Decoder
	buf   []byte
	queue []StreamEvent
	ended bool
	err   error

	closeOnce sync.Once
	closeErr  error
}

// NewStream wraps an opened response body.
func NewStream(body io.ReadCloser) *Stream {
	return &Stream{
		body: body,
		dec:  NewDecoder(),
		buf:  make([]byte, readChunkSize),
	}
}

// Recv returns the next event. It returns io.EOF once the body is exhausted
// or after EventDone has been returned. A failed body read is returned as a
// *TransportError; callers that accumulate text wrap it in a *StreamError.
func (s *Stream) Recv() (StreamEvent, error) {
	for {
		if len(s.queue) > 0 {
			ev := s.queue[0]
			s.queue = s.queue[1:]
			if ev.Type == EventDone {
				s.finish(nil)
				s.queue = nil
			}
			return ev, nil
		}
		if s.ended {
			if s.err != nil {
				return StreamEvent{}, s.err
			}
			return StreamEvent{}, io.EOF
		}

		n, err := s.body.Read(s.buf)
		if n > 0 {
			s.queue = append(s.queue, s.dec.Feed(s.buf[:n])...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.finish(nil)
			} else {
				s.finish(classify(err))
			}
		}
	}
}

func (s *Stream) finish(err error) {
	s.ended = true
	s.err = err
	s.dec.Close()
	s.Close()
}

// Skipped reports how many malformed data lines were ignored so far.
func (s *Stream) Skipped() int {
	return s.dec.Skipped()
}

// Close releases the underlying connection. It is safe to call more than once.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.body.Close()
	})
	return s.closeErr
}
