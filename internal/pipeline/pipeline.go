// Package pipeline implements the Job Pipeline (spec C6), the per-job
// state machine the worker pool drives: search, embeddability check, audio
// download, chunked transcription with early termination, caption
// parsing, English gating, phrase matching, sentence boundary detection,
// persistence, and word indexing. Grounded on the teacher's pipeline.go
// processVideoHandler, which runs the same shape of steps synchronously
// inside one HTTP request; here it is generalized into an async per-job
// run invoked by internal/worker.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/clipfinder/clipfinder/internal/adapters"
	"github.com/clipfinder/clipfinder/internal/apperr"
	"github.com/clipfinder/clipfinder/internal/canon"
	"github.com/clipfinder/clipfinder/internal/captions"
	"github.com/clipfinder/clipfinder/internal/langgate"
	"github.com/clipfinder/clipfinder/internal/match"
	"github.com/clipfinder/clipfinder/internal/store"
)

const maxResultsPerStrategy = 5
const maxCandidatesDefault = 10
const maxTranscribeChunksDefault = 10

// Pipeline owns the collaborators one job run needs and implements
// worker.Runner.
type Pipeline struct {
	Store      *store.Store
	Catalog    adapters.VideoCatalog
	Embed      adapters.Embeddability
	Downloader adapters.AudioDownloader
	Transcribe adapters.Transcriber

	ScratchDir          string
	ChunkSeconds        float64
	MaxTranscribeChunks int
	MaxCandidates       int
	BoundaryPaddingSec  float64
	MinFunctionWordHits int
	MaxNonASCIIRatio    float64
}

func (p *Pipeline) maxCandidates() int {
	if p.MaxCandidates > 0 {
		return p.MaxCandidates
	}
	return maxCandidatesDefault
}

func (p *Pipeline) maxChunks() int {
	if p.MaxTranscribeChunks > 0 {
		return p.MaxTranscribeChunks
	}
	return maxTranscribeChunksDefault
}

func (p *Pipeline) chunkSeconds() float64 {
	if p.ChunkSeconds > 0 {
		return p.ChunkSeconds
	}
	return 30
}

// Run executes the full per-job state machine. It never returns an error
// to the caller: every failure mode terminalizes the job in the store
// instead, per spec §7's "propagation rule: the nearest boundary that can
// recover, recovers."
func (p *Pipeline) Run(ctx context.Context, job store.Job) {
	candidates, err := p.collectCandidates(ctx, job)
	if err != nil {
		p.fail(ctx, job.Fingerprint, err.Error())
		return
	}
	if len(candidates) == 0 {
		p.fail(ctx, job.Fingerprint, "no videos found for this query")
		return
	}

	tried := 0
	for _, cand := range candidates {
		select {
		case <-ctx.Done():
			p.fail(ctx, job.Fingerprint, "pipeline timed out")
			return
		default:
		}

		tried++
		seg, ok := p.tryCandidate(ctx, job, cand)
		if !ok {
			continue
		}

		if err := p.persist(ctx, *seg); err != nil {
			log.Printf("pipeline: job %s: persist failed: %v", job.Fingerprint, err)
		}
		if err := p.Store.SetJobResult(ctx, job.Fingerprint, *seg); err != nil {
			log.Printf("pipeline: job %s: set result failed: %v", job.Fingerprint, err)
		}
		return
	}

	p.fail(ctx, job.Fingerprint, fmt.Sprintf("no English video found; tried %d videos", tried))
}

// collectCandidates implements spec §4.6.1: run each search strategy in
// order, deduplicating by video id, stopping once MaxCandidates unique
// candidates are collected or strategies are exhausted.
func (p *Pipeline) collectCandidates(ctx context.Context, job store.Job) ([]adapters.Candidate, error) {
	if err := p.Store.SetJobStatus(ctx, job.Fingerprint, store.JobSearching, ""); err != nil {
		return nil, errors.Wrap(err, "set status searching")
	}

	seen := make(map[string]struct{})
	var out []adapters.Candidate
	for _, strategy := range searchStrategies(job.Canonical, canon.Kind(job.Kind)) {
		if len(out) >= p.maxCandidates() {
			break
		}
		results, err := p.Catalog.Search(ctx, strategy, maxResultsPerStrategy)
		if err != nil {
			log.Printf("pipeline: job %s: search strategy %q failed: %v", job.Fingerprint, strategy, err)
			continue
		}
		for _, c := range results {
			if _, dup := seen[c.VideoID]; dup {
				continue
			}
			seen[c.VideoID] = struct{}{}
			out = append(out, c)
			if len(out) >= p.maxCandidates() {
				break
			}
		}
	}
	return out, nil
}

// tryCandidate runs phases 2.a-2.g of spec §4.6 for a single candidate.
// A false return means "skip this candidate, try the next one" — every
// internal failure is isolated here per spec §7.
func (p *Pipeline) tryCandidate(ctx context.Context, job store.Job, cand adapters.Candidate) (*store.Segment, bool) {
	scratchDir := p.ScratchDir
	if scratchDir == "" {
		scratchDir = "./temp"
	}
	audioPath := filepath.Join(scratchDir, cand.VideoID+".mp3")
	defer cleanupScratch(audioPath)

	embeddable, err := p.Embed.IsEmbeddable(ctx, cand.VideoID)
	if err != nil || !embeddable {
		return nil, false
	}

	if err := p.Store.SetJobStatus(ctx, job.Fingerprint, store.JobDownloading, cand.VideoID); err != nil {
		log.Printf("pipeline: job %s: set status downloading: %v", job.Fingerprint, err)
	}
	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		log.Printf("pipeline: job %s: scratch dir: %v", job.Fingerprint, err)
		return nil, false
	}
	if err := p.Downloader.DownloadAudio(ctx, cand.VideoID, audioPath); err != nil {
		log.Printf("pipeline: job %s: download %s failed: %v", job.Fingerprint, cand.VideoID, err)
		return nil, false
	}

	if err := p.Store.SetJobStatus(ctx, job.Fingerprint, store.JobTranscribing, cand.VideoID); err != nil {
		log.Printf("pipeline: job %s: set status transcribing: %v", job.Fingerprint, err)
	}
	isSentence := canon.Kind(job.Kind) == canon.KindSentence
	merged, matched := p.transcribeUntilMatch(ctx, audioPath, job.Canonical, isSentence)
	if !matched {
		return nil, false
	}

	gate := langgate.Evaluate(joinCueText(merged), p.gateFunctionWordHits(), p.gateNonASCIIRatio())
	if !gate.Accepted {
		return nil, false
	}

	idx := match.Match(merged, job.Canonical, isSentence)
	if idx < 0 {
		return nil, false
	}

	boundary := match.DetectBoundary(merged, idx, p.paddingSeconds())
	seg := &store.Segment{
		Fingerprint:   job.Fingerprint,
		OriginalQuery: job.OriginalQuery,
		SourceVideoID: cand.VideoID,
		StartTime:     boundary.StartTime,
		EndTime:       boundary.EndTime,
		CaptionText:   boundary.Caption,
		Captions:      overlapping(merged, boundary),
	}
	return seg, true
}

// transcribeUntilMatch implements spec §4.6.2.c: transcribe one 30-second
// chunk at a time, up to MaxTranscribeChunks, checking after each chunk
// whether the phrase (or a variation) has appeared in the merged caption
// file so far. On a hit, transcribe exactly one additional chunk before
// stopping, to catch a sentence that spills across the chunk boundary.
func (p *Pipeline) transcribeUntilMatch(ctx context.Context, audioPath, canonical string, isSentence bool) ([]captions.Cue, bool) {
	var perChunkCues [][]captions.Cue
	matchedAt := -1
	for i := 0; i < p.maxChunks(); i++ {
		vtt, err := p.Transcribe.TranscribeChunk(ctx, audioPath, i, p.chunkSeconds())
		if err != nil {
			log.Printf("pipeline: transcribe chunk %d failed: %v", i, err)
			break
		}
		perChunkCues = append(perChunkCues, captions.Parse(vtt))

		if matchedAt < 0 {
			merged := captions.MergeChunks(perChunkCues, p.chunkSeconds())
			if match.ContainsPhraseOrVariation(joinCueText(merged), canonical) {
				matchedAt = i
			}
			continue
		}
		// Already matched: this is the "one additional chunk" and we stop.
		break
	}
	if matchedAt < 0 {
		return nil, false
	}
	return captions.MergeChunks(perChunkCues, p.chunkSeconds()), true
}

func (p *Pipeline) gateFunctionWordHits() int {
	if p.MinFunctionWordHits > 0 {
		return p.MinFunctionWordHits
	}
	return 5
}

func (p *Pipeline) gateNonASCIIRatio() float64 {
	if p.MaxNonASCIIRatio > 0 {
		return p.MaxNonASCIIRatio
	}
	return 0.2
}

func (p *Pipeline) paddingSeconds() float64 {
	if p.BoundaryPaddingSec > 0 {
		return p.BoundaryPaddingSec
	}
	return 2
}

// persist implements spec §4.6.2.h: insert the segment (duplicate key
// swallowed), then extract words and index the segment reference under
// each.
func (p *Pipeline) persist(ctx context.Context, seg store.Segment) error {
	if err := p.Store.InsertSegment(ctx, seg); err != nil && !errors.Is(err, apperr.ErrDuplicateKey) {
		return errors.Wrap(err, "insert segment")
	}
	words := match.ExtractWords(seg.CaptionText)
	ref := store.SegmentRef{VideoID: seg.SourceVideoID, Start: seg.StartTime, End: seg.EndTime}
	if err := p.Store.AddSegmentToWords(ctx, words, ref); err != nil {
		return errors.Wrap(err, "add segment to word index")
	}
	return nil
}

func (p *Pipeline) fail(ctx context.Context, fingerprint, message string) {
	// The run's context may already be past its wall-clock deadline; the
	// terminal write must still reach the store.
	if err := p.Store.SetJobError(context.WithoutCancel(ctx), fingerprint, message); err != nil {
		log.Printf("pipeline: job %s: set error failed: %v", fingerprint, err)
	}
}

func cleanupScratch(paths ...string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}

func joinCueText(cues []captions.Cue) string {
	texts := make([]string, len(cues))
	for i, c := range cues {
		texts[i] = c.Text
	}
	return strings.Join(texts, " ")
}

// overlapping returns the subset of cues whose interval intersects
// boundary's closed [StartTime, EndTime] range, per spec §4.6.2.g; a cue
// that only touches either end is included.
func overlapping(cues []captions.Cue, boundary match.Boundary) []store.Cue {
	var out []store.Cue
	for _, c := range cues {
		end := c.Start + c.Duration
		if end < boundary.StartTime || c.Start > boundary.EndTime {
			continue
		}
		out = append(out, store.Cue{Start: c.Start, End: end, Text: c.Text})
	}
	return out
}
