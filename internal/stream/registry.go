package stream

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Driver runs the upstream AI call for one stream, invoking onChunk for
// every incremental delta and returning the full concatenated text.
type Driver func(ctx context.Context, params Params, onChunk func(text string)) (full string, err error)

// Registry is the process-local Stream Registry (spec C10). Capacity is
// bounded at MaxActive simultaneous streams; overflow evicts the oldest
// terminal (completed or errored), zero-subscriber streams first, and a
// new stream is not created while the registry stays full.
type Registry struct {
	Driver Driver

	MaxActive        int
	CompletedCleanup time.Duration
	ErrorCleanup     time.Duration

	// UpstreamTimeout bounds every driver call (spec §5's "10-minute hard
	// timeout"). Zero means no deadline is imposed.
	UpstreamTimeout time.Duration

	// OnComplete/OnError let a caller (internal/analysis) persist the
	// finished stream without the registry knowing about the store.
	OnComplete func(fingerprint string, full string, chunkLog []ChunkEntry, params Params)
	OnError    func(fingerprint string, msg string)

	mu      sync.Mutex
	streams map[string]*stream
	flight  singleflight.Group
}

func NewRegistry(driver Driver, maxActive int, completedCleanup, errorCleanup, upstreamTimeout time.Duration) *Registry {
	if maxActive <= 0 {
		maxActive = 100
	}
	return &Registry{
		Driver:           driver,
		MaxActive:        maxActive,
		CompletedCleanup: completedCleanup,
		ErrorCleanup:     errorCleanup,
		UpstreamTimeout:  upstreamTimeout,
		streams:          make(map[string]*stream),
	}
}

// GetOrCreate implements spec §4.10's getOrCreate: leaves the existing
// registration for fingerprint in place if there is one (active, or
// terminal and not yet cleaned up), else creates one and spawns its single
// driver task. It returns nothing; callers attach with Subscribe, which
// fails if no registration could be created. singleflight collapses concurrent
// first-callers for the same fingerprint onto one creation.
func (r *Registry) GetOrCreate(fingerprint string, params Params) {
	r.mu.Lock()
	if _, ok := r.streams[fingerprint]; ok {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	r.flight.Do(fingerprint, func() (interface{}, error) {
		r.mu.Lock()
		if _, ok := r.streams[fingerprint]; ok {
			r.mu.Unlock()
			return nil, nil
		}
		r.evictIfNeeded()
		if len(r.streams) >= r.MaxActive {
			r.mu.Unlock()
			return nil, nil
		}
		s := &stream{
			fingerprint: fingerprint,
			params:      params,
			createdAt:   time.Now(),
			status:      StatusActive,
			subscribers: make(map[int64]*subscriberEntry),
		}
		r.streams[fingerprint] = s
		r.mu.Unlock()

		go r.drive(fingerprint, params)
		return nil, nil
	})
}

func (r *Registry) drive(fingerprint string, params Params) {
	ctx := context.Background()
	if r.UpstreamTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.UpstreamTimeout)
		defer cancel()
	}
	full, err := r.Driver(ctx, params, func(text string) {
		r.publishChunk(fingerprint, text)
	})
	if err != nil {
		r.fail(fingerprint, err.Error())
		return
	}
	r.complete(fingerprint, full)
}

// Subscribe implements spec §4.10's subscribe: attaches a subscriber and,
// if the stream already has accumulated chunks, flags it replaying and
// starts a paced replay task.
func (r *Registry) Subscribe(fingerprint string, sub Subscriber) (int64, bool) {
	r.mu.Lock()
	s, ok := r.streams[fingerprint]
	if !ok {
		r.mu.Unlock()
		return 0, false
	}
	id := s.nextSubID
	s.nextSubID++
	needsReplay := len(s.chunkLog) > 0 || s.status != StatusActive
	entry := &subscriberEntry{id: id, sub: sub, replaying: needsReplay}
	s.subscribers[id] = entry
	r.mu.Unlock()

	if needsReplay {
		go r.replay(fingerprint, id)
	}
	return id, true
}

// Unsubscribe implements spec §4.10's unsubscribe: the driver continues
// regardless so the result still persists.
func (r *Registry) Unsubscribe(fingerprint string, id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.streams[fingerprint]
	if !ok {
		return
	}
	delete(s.subscribers, id)
}

func (r *Registry) publishChunk(fingerprint, text string) {
	r.mu.Lock()
	s, ok := r.streams[fingerprint]
	if !ok {
		r.mu.Unlock()
		return
	}
	rel := time.Since(s.createdAt).Milliseconds()
	s.chunkLog = append(s.chunkLog, ChunkEntry{Text: text, RelativeTimestampMs: rel})
	s.accumulated += text
	live := liveSubscribers(s)
	r.mu.Unlock()

	frame := Frame{Chunk: text}
	for _, entry := range live {
		if err := entry.sub.Send(frame); err != nil {
			r.Unsubscribe(fingerprint, entry.id)
		}
	}
}

func (r *Registry) complete(fingerprint, full string) {
	r.mu.Lock()
	s, ok := r.streams[fingerprint]
	if !ok {
		r.mu.Unlock()
		return
	}
	s.status = StatusCompleted
	s.accumulated = full
	live := liveSubscribers(s)
	chunkLog := append([]ChunkEntry(nil), s.chunkLog...)
	params := s.params
	r.mu.Unlock()

	frame := Frame{Done: true, FullResponse: full}
	for _, entry := range live {
		_ = entry.sub.Send(frame)
	}

	if r.OnComplete != nil {
		r.OnComplete(fingerprint, full, chunkLog, params)
	}
	r.scheduleCleanup(fingerprint, r.CompletedCleanup)
}

func (r *Registry) fail(fingerprint, msg string) {
	r.mu.Lock()
	s, ok := r.streams[fingerprint]
	if !ok {
		r.mu.Unlock()
		return
	}
	s.status = StatusErrored
	s.errMsg = msg
	live := liveSubscribers(s)
	r.mu.Unlock()

	frame := Frame{Err: msg}
	for _, entry := range live {
		_ = entry.sub.Send(frame)
	}

	if r.OnError != nil {
		r.OnError(fingerprint, msg)
	}
	r.scheduleCleanup(fingerprint, r.ErrorCleanup)
}

func (r *Registry) scheduleCleanup(fingerprint string, after time.Duration) {
	time.AfterFunc(after, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		s, ok := r.streams[fingerprint]
		if !ok {
			return
		}
		if len(s.subscribers) == 0 {
			delete(r.streams, fingerprint)
		}
	})
}

// evictIfNeeded implements spec §4.10's capacity rule: at MaxActive
// streams, evict the oldest terminal (completed or errored) zero-subscriber
// streams first: 10% of those streams, at least one. Must be called with
// mu held.
func (r *Registry) evictIfNeeded() {
	if len(r.streams) < r.MaxActive {
		return
	}
	var candidates []*stream
	for _, s := range r.streams {
		if s.status != StatusActive && len(s.subscribers) == 0 {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		log.Printf("stream registry: at capacity (%d) with no evictable streams", r.MaxActive)
		return
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].createdAt.Before(candidates[j].createdAt) })
	evictCount := len(candidates) / 10
	if evictCount < 1 {
		evictCount = 1
	}
	if evictCount > len(candidates) {
		evictCount = len(candidates)
	}
	for _, s := range candidates[:evictCount] {
		delete(r.streams, s.fingerprint)
	}
}

func liveSubscribers(s *stream) []*subscriberEntry {
	var out []*subscriberEntry
	for _, entry := range s.subscribers {
		if !entry.replaying {
			out = append(out, entry)
		}
	}
	return out
}
