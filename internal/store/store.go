package store

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store bundles a pooled Postgres connection and exposes the five
// record-store contracts (C3/C4/C9/C11/C12) as methods, the way the
// teacher's PgVectorStore bundled one *pgx.Conn behind a handful of
// receiver methods in storage/store.go.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to Postgres and bootstraps the schema (idempotent:
// CREATE TABLE/INDEX IF NOT EXISTS throughout, mirroring the teacher's
// ensureTable()).
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "connect to postgres")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}
	s := &Store{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS segments (
			fingerprint     TEXT PRIMARY KEY,
			original_query  TEXT NOT NULL,
			source_video_id TEXT NOT NULL,
			start_time      DOUBLE PRECISION NOT NULL,
			end_time        DOUBLE PRECISION NOT NULL,
			caption_text    TEXT NOT NULL,
			captions        JSONB NOT NULL,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS jobs (
			id               TEXT PRIMARY KEY,
			fingerprint      TEXT NOT NULL UNIQUE,
			original_query   TEXT NOT NULL,
			canonical        TEXT NOT NULL,
			kind             TEXT NOT NULL,
			status           TEXT NOT NULL,
			current_video_id TEXT NOT NULL DEFAULT '',
			result           JSONB,
			error            TEXT NOT NULL DEFAULT '',
			created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS jobs_status_created_idx ON jobs (status, created_at) WHERE status = 'queued'`,
		`CREATE TABLE IF NOT EXISTS word_entries (
			word       TEXT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS word_examples (
			word      TEXT NOT NULL REFERENCES word_entries(word) ON DELETE CASCADE,
			video_id  TEXT NOT NULL,
			start_sec DOUBLE PRECISION NOT NULL,
			end_sec   DOUBLE PRECISION NOT NULL,
			seq       BIGSERIAL,
			PRIMARY KEY (word, video_id, start_sec, end_sec)
		)`,
		`CREATE TABLE IF NOT EXISTS analyses (
			fingerprint         TEXT PRIMARY KEY,
			sentence            TEXT NOT NULL,
			target_word         TEXT NOT NULL,
			target_language     TEXT NOT NULL,
			native_language     TEXT NOT NULL,
			context_before      TEXT NOT NULL DEFAULT '',
			context_after       TEXT NOT NULL DEFAULT '',
			full_translation    TEXT NOT NULL,
			literal_translation TEXT NOT NULL,
			grammar_analysis    TEXT NOT NULL,
			breakdown           JSONB NOT NULL,
			idioms              JSONB NOT NULL,
			difficulty_notes    TEXT NOT NULL DEFAULT '',
			chunk_log           JSONB,
			access_count        BIGINT NOT NULL DEFAULT 1,
			created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
			last_accessed_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS quota_counters (
			identity      TEXT NOT NULL,
			scope         TEXT NOT NULL,
			request_count INT NOT NULL DEFAULT 0,
			window_start  TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (identity, scope)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return errors.Wrapf(err, "ensure schema: %s", stmt)
		}
	}
	return nil
}
