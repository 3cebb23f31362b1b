// Package stream implements the Stream Registry (spec C10): a
// process-local, per-fingerprint table of active analysis streams that
// coalesces duplicate concurrent requests behind a single upstream AI
// call and fans out chunks to every subscriber in log order. Grounded on
// the teacher's core/ package style (small, focused files per concern)
// with the actual concurrency primitive — one owning goroutine per
// fingerprint guarded by singleflight — borrowed from
// golang.org/x/sync/singleflight, since the teacher has no streaming
// surface of its own to model this on.
package stream

import "time"

// Status is the active stream's lifecycle state (spec §3 "Active stream").
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusErrored   Status = "errored"
)

// ChunkEntry is one append-only entry of a stream's chunk log.
type ChunkEntry struct {
	Text                string
	RelativeTimestampMs int64
}

// Frame is one unit delivered to a subscriber: exactly one of Chunk,
// {Done, FullResponse}, or Err is meaningful.
type Frame struct {
	Chunk        string
	Done         bool
	FullResponse string
	Err          string
}

// Subscriber is anything that can receive ordered frames and report
// whether its underlying connection is still open. internal/httpapi's SSE
// handler implements this over an http.ResponseWriter/Flusher.
type Subscriber interface {
	Send(Frame) error
	Open() bool
}

// Params is the upstream call's input, stored on the stream by GetOrCreate
// and handed to the driver and to the OnComplete hook.
type Params struct {
	Sentence       string
	TargetWord     string
	TargetLanguage string
	NativeLanguage string
	ContextBefore  string
	ContextAfter   string
}

type subscriberEntry struct {
	id        int64
	sub       Subscriber
	replaying bool
}

// stream is one fingerprint's active registration. All mutation goes
// through the Registry's single mutex, shared by every fingerprint.
type stream struct {
	fingerprint string
	params      Params
	createdAt   time.Time

	chunkLog    []ChunkEntry
	accumulated string
	status      Status
	errMsg      string

	subscribers map[int64]*subscriberEntry
	nextSubID   int64
}
