package blacklist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	txcontext "trapper/pkg/platform/tx"
)

// PostgresStore persists blacklist entries in PostgreSQL.
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

func (s *PostgresStore) Find(ctx context.Context, valueType ValueType, value string) (*Entry, error) {
	query := `
		SELECT id, value_type, value, kind, required_similarity, note, created_at
		FROM blacklist_entries
		WHERE value_type = $1 AND value = $2
	`
	entry, err := scanEntry(s.q(ctx).QueryRowContext(ctx, query, valueType, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find blacklist entry: %w", err)
	}
	return entry, nil
}

func (s *PostgresStore) Save(ctx context.Context, entry *Entry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	query := `
		INSERT INTO blacklist_entries (id, value_type, value, kind, required_similarity, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (value_type, value) DO UPDATE SET
			kind = EXCLUDED.kind,
			required_similarity = EXCLUDED.required_similarity,
			note = EXCLUDED.note
	`
	_, err := s.q(ctx).ExecContext(ctx, query,
		entry.ID, entry.Type, entry.Value, entry.Kind, entry.RequiredSimilarity, entry.Note,
	)
	if err != nil {
		return fmt.Errorf("save blacklist entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*Entry, error) {
	query := `
		SELECT id, value_type, value, kind, required_similarity, note, created_at
		FROM blacklist_entries
		ORDER BY created_at
	`
	rows, err := s.q(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list blacklist entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan blacklist entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var entry Entry
	err := row.Scan(
		&entry.ID, &entry.Type, &entry.Value, &entry.Kind,
		&entry.RequiredSimilarity, &entry.Note, &entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
