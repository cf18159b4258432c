package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/launchpad-agents/launchpad/src/executor"
)

// sentinel is the fixed terminal frame. Clients read until they see it, so
// every stream must end with it exactly once regardless of how the
// conversation went.
const sentinel = "data: [DONE]\n\n"

// SSEEncoder writes conversation events as server-sent event frames, one
// frame per event, flushing after each write so deltas reach the client as
// they are produced.
type SSEEncoder struct {
	w       io.Writer
	flusher http.Flusher
}

// NewSSEEncoder prepares a response writer for SSE and returns an encoder
// over it. Headers are written immediately.
func NewSSEEncoder(w http.ResponseWriter) *SSEEncoder {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	enc := &SSEEncoder{w: w}
	if f, ok := w.(http.Flusher); ok {
		enc.flusher = f
	}
	return enc
}

// WriteEvent encodes one event as a single data frame.
func (e *SSEEncoder) WriteEvent(event executor.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if _, err := fmt.Fprintf(e.w, "data: %s\n\n", payload); err != nil {
		return err
	}
	e.flush()
	return nil
}

// WriteSentinel emits the terminal frame.
func (e *SSEEncoder) WriteSentinel() error {
	if _, err := io.WriteString(e.w, sentinel); err != nil {
		return err
	}
	e.flush()
	return nil
}

func (e *SSEEncoder) flush() {
	if e.flusher != nil {
		e.flusher.Flush()
	}
}

// streamConversation adapts one orchestrator run onto an SSE response. The
// sentinel is written exactly once, on every path out, including panics in
// the run itself.
func (s *Server) streamConversation(w http.ResponseWriter, run func(executor.EventSink) error) {
	enc := NewSSEEncoder(w)
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("conversation stream panicked", "panic", r)
			_ = enc.WriteEvent(executor.ErrorEvent("internal error"))
		}
		if err := enc.WriteSentinel(); err != nil {
			s.logger.Warn("failed to write stream sentinel", "error", err)
		}
	}()

	if err := run(executor.SinkFunc(enc.WriteEvent)); err != nil {
		// The loop already emitted an error event for completion failures;
		// nothing else is owed to the client beyond the sentinel.
		s.logger.Error("conversation ended with error", "error", err)
	}
}
