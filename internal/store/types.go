// Package store is the durable relational store (spec §2 treats it as "a
// durable key-addressable record store supporting transactions") backing
// the Result Store (C3), Job Store (C4), Word Index (C9), Analysis Cache
// (C11), and Quota counters (C12). Grounded on the teacher's
// storage/store.go pgx usage, upgraded from a single *pgx.Conn to a
// *pgxpool.Pool since this service is concurrent by design.
package store

import "time"

// JobStatus is the tagged-union discriminator for a Job record (spec §3).
type JobStatus string

const (
	JobQueued        JobStatus = "queued"
	JobSearching     JobStatus = "searching"
	JobDownloading   JobStatus = "downloading"
	JobTranscribing  JobStatus = "transcribing"
	JobCompleted     JobStatus = "completed"
	JobFailed        JobStatus = "failed"
)

// Terminal reports whether status is one of the job's terminal states.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// QueryKind mirrors canon.Kind without importing it, keeping store
// dependency-free of the canonicalizer package.
type QueryKind string

const (
	KindWord     QueryKind = "word"
	KindSentence QueryKind = "sentence"
)

// Cue is the persisted shape of a caption segment inside a Segment record.
type Cue struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Segment is the Result Store's record (spec §3): immutable after insert.
type Segment struct {
	Fingerprint     string    `json:"fingerprint"`
	OriginalQuery   string    `json:"originalQuery"`
	SourceVideoID   string    `json:"sourceVideoId"`
	StartTime       float64   `json:"startTime"`
	EndTime         float64   `json:"endTime"`
	CaptionText     string    `json:"captionText"`
	Captions        []Cue     `json:"captions"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Job is the Job Store's record (spec §3). Exactly one per fingerprint.
type Job struct {
	ID              string    `json:"id"`
	Fingerprint     string    `json:"fingerprint"`
	OriginalQuery   string    `json:"originalQuery"`
	Canonical       string    `json:"canonical"`
	Kind            QueryKind `json:"kind"`
	Status          JobStatus `json:"status"`
	CurrentVideoID  string    `json:"currentVideoId,omitempty"`
	Result          *Segment  `json:"result,omitempty"`
	Error           string    `json:"error,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// JobInit is the input to Job Store.Create.
type JobInit struct {
	Fingerprint   string
	OriginalQuery string
	Canonical     string
	Kind          QueryKind
}

// SegmentRef uniquely identifies one occurrence of a word inside a segment
// (spec §3: "unique by (videoId, start, end)").
type SegmentRef struct {
	VideoID string  `json:"videoId"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

// WordEntry is the Word Index's record (spec §3).
type WordEntry struct {
	Word      string       `json:"word"`
	Examples  []SegmentRef `json:"examples"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// AnalysisChunk is one entry of an analysis's persisted chunk log.
type AnalysisChunk struct {
	Text               string  `json:"text"`
	RelativeTimestampMs int64  `json:"relativeTimestampMs"`
}

// Analysis is the Analysis Cache's record (spec §3). Body is immutable;
// AccessCount/LastAccessedAt are monotonically updated.
type Analysis struct {
	Fingerprint      string          `json:"fingerprint"`
	Sentence         string          `json:"sentence"`
	TargetWord       string          `json:"targetWord"`
	TargetLanguage   string          `json:"targetLanguage"`
	NativeLanguage   string          `json:"nativeLanguage"`
	ContextBefore    string          `json:"contextBefore,omitempty"`
	ContextAfter     string          `json:"contextAfter,omitempty"`
	FullTranslation  string          `json:"fullTranslation"`
	LiteralTranslation string        `json:"literalTranslation"`
	GrammarAnalysis  string          `json:"grammarAnalysis"`
	Breakdown        []string        `json:"breakdown"`
	Idioms           []string        `json:"idioms"`
	DifficultyNotes  string          `json:"difficultyNotes,omitempty"`
	ChunkLog         []AnalysisChunk `json:"chunkLog,omitempty"`
	AccessCount      int64           `json:"accessCount"`
	CreatedAt        time.Time       `json:"createdAt"`
	LastAccessedAt   time.Time       `json:"lastAccessedAt"`
}

// QuotaCounter is the sliding fixed-width window counter (spec §3).
type QuotaCounter struct {
	Identity     string    `json:"identity"`
	Scope        string    `json:"scope"` // distinguishes throttle routes / the AI quota
	RequestCount int       `json:"requestCount"`
	WindowStart  time.Time `json:"windowStart"`
}
