package audit

import (
	"context"
	"database/sql"
	"fmt"

	txcontext "trapper/pkg/platform/tx"
)

// PostgresStore implements Store using a transactional outbox. Events land in
// audit_outbox inside the caller's transaction; the relay worker claims and
// forwards them to Kafka, which is the durable audit log consumers read.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	query := `
		INSERT INTO audit_outbox (id, action, subject, actor, request_id, detail, created_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending')
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		event.ID, event.Action, event.Subject, event.Actor,
		event.RequestID, event.Detail, event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// ClaimPending atomically flips a batch from pending to claimed so concurrent
// relay workers never double-publish. FOR UPDATE SKIP LOCKED keeps workers
// from serializing on each other.
func (s *PostgresStore) ClaimPending(ctx context.Context, limit int) ([]Event, error) {
	query := `
		UPDATE audit_outbox SET status = 'claimed'
		WHERE id IN (
			SELECT id FROM audit_outbox
			WHERE status = 'pending'
			ORDER BY created_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, action, subject, actor, request_id, detail, created_at
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("claim pending audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Action, &e.Subject, &e.Actor, &e.RequestID, &e.Detail, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *PostgresStore) MarkPublished(ctx context.Context, eventID string) error {
	_, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE audit_outbox SET status = 'published', published_at = NOW() WHERE id = $1`, eventID)
	if err != nil {
		return fmt.Errorf("mark audit event published: %w", err)
	}
	return nil
}

func (s *PostgresStore) MarkFailed(ctx context.Context, eventID string) error {
	_, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE audit_outbox SET status = 'pending' WHERE id = $1`, eventID)
	if err != nil {
		return fmt.Errorf("mark audit event failed: %w", err)
	}
	return nil
}
