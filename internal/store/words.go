package store

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
)

// AddSegmentToWords implements C9's addSegmentToWords: for each word,
// upsert the entry and append the segment reference iff no existing entry
// shares (videoId, start, end). Runs inside one transaction per spec §5
// ("the word-index upsert must use a transaction... an explicit row lock or
// a retry on serialization failure is required") — here a single
// transaction per call, relying on the word_examples primary key
// (word, video_id, start_sec, end_sec) plus ON CONFLICT DO NOTHING for the
// idempotence spec §4.9 asks of the application layer, not a store
// constraint.
func (s *Store) AddSegmentToWords(ctx context.Context, words []string, ref SegmentRef) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin word index transaction")
	}
	defer tx.Rollback(ctx)

	for _, w := range words {
		if _, err := tx.Exec(ctx, `
			INSERT INTO word_entries (word) VALUES ($1)
			ON CONFLICT (word) DO UPDATE SET updated_at = now()`, w); err != nil {
			return errors.Wrapf(err, "upsert word entry %q", w)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO word_examples (word, video_id, start_sec, end_sec)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (word, video_id, start_sec, end_sec) DO NOTHING`,
			w, ref.VideoID, ref.Start, ref.End); err != nil {
			return errors.Wrapf(err, "append example for word %q", w)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit word index transaction")
	}
	return nil
}

// FindByWord implements C9's findByWord: examples in insertion order.
func (s *Store) FindByWord(ctx context.Context, word string) (*WordEntry, error) {
	row := s.pool.QueryRow(ctx, `SELECT word, created_at, updated_at FROM word_entries WHERE word = $1`, word)
	var entry WordEntry
	if err := row.Scan(&entry.Word, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find word entry")
	}

	rows, err := s.pool.Query(ctx, `
		SELECT video_id, start_sec, end_sec FROM word_examples
		WHERE word = $1 ORDER BY seq ASC`, word)
	if err != nil {
		return nil, errors.Wrap(err, "list word examples")
	}
	defer rows.Close()
	for rows.Next() {
		var ref SegmentRef
		if err := rows.Scan(&ref.VideoID, &ref.Start, &ref.End); err != nil {
			return nil, errors.Wrap(err, "scan word example")
		}
		entry.Examples = append(entry.Examples, ref)
	}
	return &entry, rows.Err()
}

// ListWords implements C9's listWords: alphabetical page.
func (s *Store) ListWords(ctx context.Context, limit, offset int) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT word FROM word_entries ORDER BY word ASC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "list words")
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, errors.Wrap(err, "scan word")
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// WordStats implements C9's stats.
type WordStats struct {
	TotalWords    int64 `json:"totalWords"`
	TotalMappings int64 `json:"totalMappings"`
}

func (s *Store) WordStats(ctx context.Context) (WordStats, error) {
	var stats WordStats
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM word_entries`).Scan(&stats.TotalWords); err != nil {
		return stats, errors.Wrap(err, "count word entries")
	}
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM word_examples`).Scan(&stats.TotalMappings); err != nil {
		return stats, errors.Wrap(err, "count word examples")
	}
	return stats, nil
}
