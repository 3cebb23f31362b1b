package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
)

// FindAnalysisByFingerprint implements the Analysis Cache's cache-hit
// lookup (spec §4.11). It does not touch accessCount; callers call
// IncrementAnalysisAccess themselves after a hit.
func (s *Store) FindAnalysisByFingerprint(ctx context.Context, fingerprint string) (*Analysis, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT fingerprint, sentence, target_word, target_language, native_language, context_before, context_after,
		       full_translation, literal_translation, grammar_analysis, breakdown, idioms, difficulty_notes,
		       chunk_log, access_count, created_at, last_accessed_at
		FROM analyses WHERE fingerprint = $1`, fingerprint)
	a, err := scanAnalysis(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "find analysis")
	}
	return a, nil
}

// InsertAnalysis persists a completed stream's structured result including
// its chunk log (spec §4.11 "Persistence"). Duplicate fingerprint is
// swallowed: two coalesced requests racing to persist must not fail either
// one's in-flight response (spec §7 PersistenceTransient).
func (s *Store) InsertAnalysis(ctx context.Context, a Analysis) error {
	breakdownJSON, err := json.Marshal(a.Breakdown)
	if err != nil {
		return errors.Wrap(err, "marshal breakdown")
	}
	idiomsJSON, err := json.Marshal(a.Idioms)
	if err != nil {
		return errors.Wrap(err, "marshal idioms")
	}
	var chunkLogJSON []byte
	if a.ChunkLog != nil {
		chunkLogJSON, err = json.Marshal(a.ChunkLog)
		if err != nil {
			return errors.Wrap(err, "marshal chunk log")
		}
	}
	now := time.Now()
	if a.AccessCount == 0 {
		a.AccessCount = 1
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO analyses (fingerprint, sentence, target_word, target_language, native_language, context_before,
			context_after, full_translation, literal_translation, grammar_analysis, breakdown, idioms,
			difficulty_notes, chunk_log, access_count, created_at, last_accessed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		ON CONFLICT (fingerprint) DO NOTHING`,
		a.Fingerprint, a.Sentence, a.TargetWord, a.TargetLanguage, a.NativeLanguage, a.ContextBefore, a.ContextAfter,
		a.FullTranslation, a.LiteralTranslation, a.GrammarAnalysis, breakdownJSON, idiomsJSON,
		a.DifficultyNotes, chunkLogJSON, a.AccessCount, now, now)
	if err != nil {
		return errors.Wrap(err, "insert analysis")
	}
	return nil
}

// IncrementAnalysisAccess bumps accessCount and lastAccessedAt on a cache hit.
func (s *Store) IncrementAnalysisAccess(ctx context.Context, fingerprint string) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `
		UPDATE analyses SET access_count = access_count + 1, last_accessed_at = now()
		WHERE fingerprint = $1 RETURNING access_count`, fingerprint).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, "increment analysis access")
	}
	return count, nil
}

func scanAnalysis(row pgx.Row) (*Analysis, error) {
	var a Analysis
	var breakdownJSON, idiomsJSON, chunkLogJSON []byte
	if err := row.Scan(&a.Fingerprint, &a.Sentence, &a.TargetWord, &a.TargetLanguage, &a.NativeLanguage,
		&a.ContextBefore, &a.ContextAfter, &a.FullTranslation, &a.LiteralTranslation, &a.GrammarAnalysis,
		&breakdownJSON, &idiomsJSON, &a.DifficultyNotes, &chunkLogJSON, &a.AccessCount, &a.CreatedAt, &a.LastAccessedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(breakdownJSON, &a.Breakdown); err != nil {
		return nil, errors.Wrap(err, "unmarshal breakdown")
	}
	if err := json.Unmarshal(idiomsJSON, &a.Idioms); err != nil {
		return nil, errors.Wrap(err, "unmarshal idioms")
	}
	if len(chunkLogJSON) > 0 {
		if err := json.Unmarshal(chunkLogJSON, &a.ChunkLog); err != nil {
			return nil, errors.Wrap(err, "unmarshal chunk log")
		}
	}
	return &a, nil
}
