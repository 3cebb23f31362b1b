// Package adapters defines the narrow external-tool contracts spec §9
// calls for ("External-tool adapters... are specified by contract only")
// and provides default implementations grounded in the teacher's
// subprocess-driven media tooling (util.go's ffmpeg/ffprobe exec.Command
// calls, asr.go's WhisperASR). The video catalog, audio extraction, and
// speech-to-text engine are themselves out of scope per spec §1 — only the
// adapter boundary the pipeline (C6) consumes is specified here.
package adapters

import "context"

// Candidate is one video identifier emitted by the catalog adapter for
// evaluation by the pipeline (glossary: Candidate).
type Candidate struct {
	VideoID string
	Title   string
}

// VideoCatalog searches the external video catalog (spec §9: search(query, k)).
type VideoCatalog interface {
	Search(ctx context.Context, query string, k int) ([]Candidate, error)
}

// Embeddability checks whether a candidate video can be embedded/played
// (spec §9: isEmbeddable(videoId)).
type Embeddability interface {
	IsEmbeddable(ctx context.Context, videoID string) (bool, error)
}

// AudioDownloader fetches a candidate's audio track to a scratch path
// (spec §9: downloadAudio(videoId) -> path).
type AudioDownloader interface {
	DownloadAudio(ctx context.Context, videoID, destPath string) error
}

// Transcriber transcribes one fixed-duration chunk of an audio file and
// returns a WEBVTT-formatted caption fragment for that chunk. The pipeline
// (C6) drives the chunk loop and early-termination check; the adapter only
// knows how to transcribe a single chunk (spec §9: transcribe(path, phrase,
// chunkSec, maxChunks) generalized — the phrase/maxChunks/early-stop
// decision lives in the pipeline, not the adapter, so the adapter can be
// swapped without re-deriving matching logic).
type Transcriber interface {
	TranscribeChunk(ctx context.Context, audioPath string, chunkIndex int, chunkDurationSec float64) (vtt string, err error)
}
