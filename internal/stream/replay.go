package stream

import "time"

const (
	replayMinDelay  = 5 * time.Millisecond
	replayMaxDelay  = 30 * time.Millisecond
	replayPollDelay = 10 * time.Millisecond
)

// replay implements spec §4.10's replay algorithm for a late joiner: walk
// the chunk log from index 0, pacing each delivery by a third of the gap
// between consecutive chunks' original arrival times, clamped to
// [5ms, 30ms]. When the walker catches up to the tail, it either delivers
// the terminal frame (stream finished) or, for a still-active stream,
// hands the subscriber off to live delivery without losing or duplicating
// a chunk.
func (r *Registry) replay(fingerprint string, subID int64) {
	next := 0
	for {
		r.mu.Lock()
		s, ok := r.streams[fingerprint]
		if !ok {
			r.mu.Unlock()
			return
		}
		entry, ok := s.subscribers[subID]
		if !ok {
			r.mu.Unlock()
			return
		}
		if !entry.sub.Open() {
			delete(s.subscribers, subID)
			r.mu.Unlock()
			return
		}

		if next >= len(s.chunkLog) {
			if frame, terminal := terminalFrame(s); terminal {
				r.mu.Unlock()
				_ = entry.sub.Send(frame)
				r.Unsubscribe(fingerprint, subID)
				return
			}

			// Caught up to an active stream's tail: still nothing new
			// after a short wait means hand off to live delivery. The
			// stream may have gone terminal during the sleep (completion
			// and failure don't append to chunkLog), so status is
			// re-checked here too, not just chunkLog length.
			r.mu.Unlock()
			time.Sleep(replayPollDelay)
			r.mu.Lock()
			s, ok = r.streams[fingerprint]
			if !ok {
				r.mu.Unlock()
				return
			}
			entry, ok = s.subscribers[subID]
			if !ok {
				r.mu.Unlock()
				return
			}
			if frame, terminal := terminalFrame(s); terminal {
				r.mu.Unlock()
				_ = entry.sub.Send(frame)
				r.Unsubscribe(fingerprint, subID)
				return
			}
			if next >= len(s.chunkLog) {
				entry.replaying = false
				r.mu.Unlock()
				return
			}
			r.mu.Unlock()
			continue
		}

		chunk := s.chunkLog[next]
		var delay time.Duration
		if next+1 < len(s.chunkLog) {
			gap := s.chunkLog[next+1].RelativeTimestampMs - chunk.RelativeTimestampMs
			delay = clampDelay(time.Duration(gap) * time.Millisecond / 3)
		}
		r.mu.Unlock()

		if err := entry.sub.Send(Frame{Chunk: chunk.Text}); err != nil {
			r.Unsubscribe(fingerprint, subID)
			return
		}
		next++
		if delay > 0 {
			time.Sleep(delay)
		}
	}
}

// terminalFrame reports the frame a terminal stream owes every replaying
// subscriber, or ok=false while the stream is still active. Must be called
// with r.mu held.
func terminalFrame(s *stream) (frame Frame, ok bool) {
	switch s.status {
	case StatusCompleted:
		return Frame{Done: true, FullResponse: s.accumulated}, true
	case StatusErrored:
		return Frame{Err: s.errMsg}, true
	default:
		return Frame{}, false
	}
}

func clampDelay(d time.Duration) time.Duration {
	if d < replayMinDelay {
		return replayMinDelay
	}
	if d > replayMaxDelay {
		return replayMaxDelay
	}
	return d
}
