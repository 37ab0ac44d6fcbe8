package geocode

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	txcontext "trapper/pkg/platform/tx"
)

// PostgresStore persists the geocode queue.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) q(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Enqueue relies on the partial uniqueness index over live jobs per place.
func (s *PostgresStore) Enqueue(ctx context.Context, job *Job) (bool, error) {
	query := `
		INSERT INTO geocode_jobs
			(id, place_id, address_normalized, status, attempts, next_eligible_at,
			 claimed_by, claimed_at, last_error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, $5, '', NULL, '', $6, $7)
		ON CONFLICT (place_id) WHERE status IN ('pending', 'claimed') DO NOTHING
	`
	result, err := s.q(ctx).ExecContext(ctx, query,
		job.ID, job.PlaceID, job.AddressNormalized, job.Status,
		job.NextEligibleAt, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("enqueue geocode job: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("enqueue rows: %w", err)
	}
	return affected > 0, nil
}

// ClaimBatch claims atomically with UPDATE ... RETURNING over a SKIP LOCKED
// scan, so concurrent workers partition the queue instead of colliding.
func (s *PostgresStore) ClaimBatch(ctx context.Context, workerID string, limit int, now time.Time) ([]*Job, error) {
	query := `
		UPDATE geocode_jobs
		SET status = 'claimed', claimed_by = $1, claimed_at = $2, updated_at = $2
		WHERE id IN (
			SELECT id FROM geocode_jobs
			WHERE status = 'pending' AND next_eligible_at <= $2
			ORDER BY next_eligible_at
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, place_id, address_normalized, status, attempts,
		          next_eligible_at, claimed_by, claimed_at, last_error,
		          created_at, updated_at
	`
	rows, err := s.q(ctx).QueryContext(ctx, query, workerID, now, limit)
	if err != nil {
		return nil, fmt.Errorf("claim geocode batch: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan geocode job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (s *PostgresStore) GetJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	query := `
		SELECT id, place_id, address_normalized, status, attempts,
		       next_eligible_at, claimed_by, claimed_at, last_error,
		       created_at, updated_at
		FROM geocode_jobs
		WHERE id = $1
	`
	job, err := scanJob(s.q(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get geocode job: %w", err)
	}
	return job, nil
}

func (s *PostgresStore) UpdateJob(ctx context.Context, job *Job) error {
	query := `
		UPDATE geocode_jobs
		SET status = $2, attempts = $3, next_eligible_at = $4,
		    claimed_by = $5, claimed_at = $6, last_error = $7, updated_at = $8
		WHERE id = $1
	`
	result, err := s.q(ctx).ExecContext(ctx, query,
		job.ID, job.Status, job.Attempts, job.NextEligibleAt,
		job.ClaimedBy, job.ClaimedAt, job.LastError, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update geocode job: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update geocode job rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ReleaseExpired(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := s.q(ctx).ExecContext(ctx, `
		UPDATE geocode_jobs
		SET status = 'pending', claimed_by = '', claimed_at = NULL, updated_at = NOW()
		WHERE status = 'claimed' AND claimed_at < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("release expired claims: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("release expired rows: %w", err)
	}
	return int(n), nil
}

func (s *PostgresStore) SetCoordinates(ctx context.Context, placeID uuid.UUID, latitude, longitude float64) error {
	result, err := s.q(ctx).ExecContext(ctx,
		`UPDATE places SET latitude = $2, longitude = $3, updated_at = NOW() WHERE id = $1`,
		placeID, latitude, longitude,
	)
	if err != nil {
		return fmt.Errorf("set coordinates: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set coordinates rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	var job Job
	var claimedAt sql.NullTime
	err := row.Scan(&job.ID, &job.PlaceID, &job.AddressNormalized, &job.Status,
		&job.Attempts, &job.NextEligibleAt, &job.ClaimedBy, &claimedAt,
		&job.LastError, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if claimedAt.Valid {
		job.ClaimedAt = &claimedAt.Time
	}
	return &job, nil
}
