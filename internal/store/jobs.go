package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"

	"github.com/clipfinder/clipfinder/internal/apperr"
)

// CreateJob implements C4's create: status starts `queued`. Returns
// apperr.ErrDuplicateKey if a job already exists for the fingerprint;
// callers must resolve by fetching the existing job (spec §4.4).
func (s *Store) CreateJob(ctx context.Context, id string, init JobInit) (*Job, error) {
	now := time.Now()
	job := Job{
		ID:            id,
		Fingerprint:   init.Fingerprint,
		OriginalQuery: init.OriginalQuery,
		Canonical:     init.Canonical,
		Kind:          init.Kind,
		Status:        JobQueued,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO jobs (id, fingerprint, original_query, canonical, kind, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		job.ID, job.Fingerprint, job.OriginalQuery, job.Canonical, string(job.Kind), string(job.Status), job.CreatedAt, job.UpdatedAt)
	if isUniqueViolation(err) {
		return nil, apperr.ErrDuplicateKey
	}
	if err != nil {
		return nil, errors.Wrap(err, "create job")
	}
	return &job, nil
}

// FindJobByFingerprint implements C4's findByFingerprint.
func (s *Store) FindJobByFingerprint(ctx context.Context, fingerprint string) (*Job, error) {
	return s.scanOneJob(ctx, `
		SELECT id, fingerprint, original_query, canonical, kind, status, current_video_id, result, error, created_at, updated_at
		FROM jobs WHERE fingerprint = $1`, fingerprint)
}

// FindJobByID implements C4's findById.
func (s *Store) FindJobByID(ctx context.Context, id string) (*Job, error) {
	return s.scanOneJob(ctx, `
		SELECT id, fingerprint, original_query, canonical, kind, status, current_video_id, result, error, created_at, updated_at
		FROM jobs WHERE id = $1`, id)
}

// ListQueuedJobs implements C4's listQueued: FIFO by creation.
func (s *Store) ListQueuedJobs(ctx context.Context, limit int) ([]Job, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, fingerprint, original_query, canonical, kind, status, current_video_id, result, error, created_at, updated_at
		FROM jobs WHERE status = 'queued' ORDER BY created_at ASC LIMIT $1`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list queued jobs")
	}
	defer rows.Close()

	var out []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *job)
	}
	return out, rows.Err()
}

// SetJobStatus implements C4's setStatus: a non-terminal phase transition,
// optionally recording the candidate video currently being evaluated.
func (s *Store) SetJobStatus(ctx context.Context, fingerprint string, status JobStatus, currentVideoID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE jobs SET status = $2, current_video_id = $3, updated_at = now()
		WHERE fingerprint = $1`, fingerprint, string(status), currentVideoID)
	if err != nil {
		return errors.Wrap(err, "set job status")
	}
	return nil
}

// SetJobResult implements C4's setResult: terminalizes the job as
// `completed` with the matched segment.
func (s *Store) SetJobResult(ctx context.Context, fingerprint string, result Segment) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return errors.Wrap(err, "marshal job result")
	}
	_, err = s.pool.Exec(ctx, `
		UPDATE jobs SET status = $2, result = $3, updated_at = now()
		WHERE fingerprint = $1`, fingerprint, string(JobCompleted), resultJSON)
	if err != nil {
		return errors.Wrap(err, "set job result")
	}
	return nil
}

// SetJobError implements C4's setError: terminalizes the job as `failed`.
func (s *Store) SetJobError(ctx context.Context, fingerprint string, message string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE jobs SET status = $2, error = $3, updated_at = now()
		WHERE fingerprint = $1`, fingerprint, string(JobFailed), message)
	if err != nil {
		return errors.Wrap(err, "set job error")
	}
	return nil
}

func (s *Store) scanOneJob(ctx context.Context, query string, arg string) (*Job, error) {
	row := s.pool.QueryRow(ctx, query, arg)
	job, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "scan job")
	}
	return job, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	var job Job
	var kind, status string
	var resultJSON []byte
	if err := row.Scan(&job.ID, &job.Fingerprint, &job.OriginalQuery, &job.Canonical, &kind, &status,
		&job.CurrentVideoID, &resultJSON, &job.Error, &job.CreatedAt, &job.UpdatedAt); err != nil {
		return nil, err
	}
	job.Kind = QueryKind(kind)
	job.Status = JobStatus(status)
	if len(resultJSON) > 0 {
		var seg Segment
		if err := json.Unmarshal(resultJSON, &seg); err != nil {
			return nil, errors.Wrap(err, "unmarshal job result")
		}
		job.Result = &seg
	}
	return &job, nil
}
