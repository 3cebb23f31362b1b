package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/clipfinder/clipfinder/internal/stream"
)

// sseSubscriber writes each frame as a Server-Sent-Events data line and
// flushes immediately, honoring spec §6's streaming contract. Open()
// reports false once the request context is done, which is how a client
// disconnect propagates into the registry's unsubscribe/replay-abort
// logic (spec §5 "Client disconnect on an SSE stream triggers
// unsubscribe").
type sseSubscriber struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	ctx     context.Context
}

func newSSESubscriber(w http.ResponseWriter, flusher http.Flusher, ctx context.Context) *sseSubscriber {
	return &sseSubscriber{w: w, flusher: flusher, ctx: ctx}
}

func (s *sseSubscriber) Open() bool {
	select {
	case <-s.ctx.Done():
		return false
	default:
		return true
	}
}

func (s *sseSubscriber) Send(f stream.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Open() {
		return context.Canceled
	}

	payload := sseFramePayload(f)
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := s.w.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := s.w.Write(body); err != nil {
		return err
	}
	if _, err := s.w.Write([]byte("\n\n")); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func sseFramePayload(f stream.Frame) map[string]any {
	switch {
	case f.Err != "":
		return map[string]any{"error": f.Err}
	case f.Done:
		return map[string]any{"done": true, "fullResponse": f.FullResponse}
	default:
		return map[string]any{"chunk": f.Chunk}
	}
}

// collectorSubscriber buffers a stream's frames in memory and signals
// done once a terminal frame arrives, for the non-streaming /analyze
// handler to wait on.
type collectorSubscriber struct {
	mu      sync.Mutex
	full    string
	errMsg  string
	done    chan struct{}
	closed  bool
}

func newCollectorSubscriber() *collectorSubscriber {
	return &collectorSubscriber{done: make(chan struct{})}
}

func (c *collectorSubscriber) Open() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

func (c *collectorSubscriber) Send(f stream.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return context.Canceled
	}
	switch {
	case f.Err != "":
		c.errMsg = f.Err
		c.closed = true
		close(c.done)
	case f.Done:
		c.full = f.FullResponse
		c.closed = true
		close(c.done)
	default:
		c.full += f.Chunk
	}
	return nil
}
