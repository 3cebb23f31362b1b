package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"

	"github.com/clipfinder/clipfinder/internal/apperr"
)

// FindSegmentByFingerprint implements C3's findByFingerprint.
func (s *Store) FindSegmentByFingerprint(ctx context.Context, fingerprint string) (*Segment, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT fingerprint, original_query, source_video_id, start_time, end_time, caption_text, captions, created_at
		FROM segments WHERE fingerprint = $1`, fingerprint)
	seg, err := scanSegment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "find segment")
	}
	return seg, nil
}

// InsertSegment implements C3's insert. Returns apperr.ErrDuplicateKey on
// fingerprint reuse; the pipeline treats that as success (spec §4.3).
func (s *Store) InsertSegment(ctx context.Context, seg Segment) error {
	captionsJSON, err := json.Marshal(seg.Captions)
	if err != nil {
		return errors.Wrap(err, "marshal captions")
	}
	if seg.CreatedAt.IsZero() {
		seg.CreatedAt = time.Now()
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO segments (fingerprint, original_query, source_video_id, start_time, end_time, caption_text, captions, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		seg.Fingerprint, seg.OriginalQuery, seg.SourceVideoID, seg.StartTime, seg.EndTime, seg.CaptionText, captionsJSON, seg.CreatedAt)
	if isUniqueViolation(err) {
		return apperr.ErrDuplicateKey
	}
	if err != nil {
		return errors.Wrap(err, "insert segment")
	}
	return nil
}

func scanSegment(row pgx.Row) (*Segment, error) {
	var seg Segment
	var captionsJSON []byte
	if err := row.Scan(&seg.Fingerprint, &seg.OriginalQuery, &seg.SourceVideoID, &seg.StartTime, &seg.EndTime, &seg.CaptionText, &captionsJSON, &seg.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(captionsJSON, &seg.Captions); err != nil {
		return nil, errors.Wrap(err, "unmarshal captions")
	}
	return &seg, nil
}
