package override

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"trapper/internal/domain"
	txcontext "trapper/pkg/platform/tx"
)

// PostgresStore persists manual corrections.
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

func (s *PostgresStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txcontext.From(ctx); ok {
		return fn(ctx)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPerson(ctx context.Context, id uuid.UUID) (*domain.Person, error) {
	query := `
		SELECT id, display_name, first_name, last_name,
		       is_organization, is_system_account, data_quality,
		       source_system, source_record_id, superseded_by,
		       created_at, updated_at
		FROM people
		WHERE id = $1
		FOR UPDATE
	`
	var p domain.Person
	var supersededBy *uuid.UUID
	err := s.q(ctx).QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.DisplayName, &p.FirstName, &p.LastName,
		&p.IsOrganization, &p.IsSystemAccount, &p.DataQuality,
		&p.SourceSystem, &p.SourceRecordID, &supersededBy,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get person: %w", err)
	}
	if supersededBy != nil {
		p.Supersession = domain.SupersededBy(*supersededBy)
	} else {
		p.Supersession = domain.Active()
	}
	return &p, nil
}

func (s *PostgresStore) GetPlace(ctx context.Context, id uuid.UUID) (*domain.Place, error) {
	query := `
		SELECT id, display_name, formatted_address, latitude, longitude,
		       kind, parent_id, superseded_by, created_at, updated_at
		FROM places
		WHERE id = $1
	`
	var p domain.Place
	var supersededBy *uuid.UUID
	err := s.q(ctx).QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.DisplayName, &p.FormattedAddress, &p.Latitude, &p.Longitude,
		&p.Kind, &p.ParentID, &supersededBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get place: %w", err)
	}
	if supersededBy != nil {
		p.Supersession = domain.SupersededBy(*supersededBy)
	} else {
		p.Supersession = domain.Active()
	}
	return &p, nil
}

func (s *PostgresStore) SupersedePerson(ctx context.Context, loserID, survivorID uuid.UUID) error {
	result, err := s.q(ctx).ExecContext(ctx,
		`UPDATE people SET superseded_by = $2, updated_at = NOW() WHERE id = $1 AND superseded_by IS NULL`,
		loserID, survivorID,
	)
	if err != nil {
		return fmt.Errorf("supersede person: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("supersede person rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// MoveIdentifiers reassigns in two steps: reassign values the survivor does
// not already own, then delete the loser's leftovers so the uniqueness
// constraint holds afterwards.
func (s *PostgresStore) MoveIdentifiers(ctx context.Context, loserID, survivorID uuid.UUID) (int, error) {
	moved, err := s.q(ctx).ExecContext(ctx, `
		UPDATE person_identifiers pi
		SET person_id = $2
		WHERE pi.person_id = $1
		  AND NOT EXISTS (
			SELECT 1 FROM person_identifiers other
			WHERE other.person_id = $2
			  AND other.id_type = pi.id_type
			  AND other.value_normalized = pi.value_normalized
		  )
	`, loserID, survivorID)
	if err != nil {
		return 0, fmt.Errorf("reassign identifiers: %w", err)
	}
	if _, err := s.q(ctx).ExecContext(ctx,
		`DELETE FROM person_identifiers WHERE person_id = $1`, loserID,
	); err != nil {
		return 0, fmt.Errorf("drop duplicate identifiers: %w", err)
	}
	n, err := moved.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("moved identifier rows: %w", err)
	}
	return int(n), nil
}

// MoveEdges reassigns the loser's edges the same two-step way.
func (s *PostgresStore) MoveEdges(ctx context.Context, kind domain.EdgeKind, loserID, survivorID uuid.UUID) (int, error) {
	moved, err := s.q(ctx).ExecContext(ctx, `
		UPDATE edges e
		SET subject_id = $3
		WHERE e.edge_kind = $1
		  AND e.subject_id = $2
		  AND NOT EXISTS (
			SELECT 1 FROM edges other
			WHERE other.edge_kind = $1
			  AND other.subject_id = $3
			  AND other.object_id = e.object_id
			  AND other.relationship = e.relationship
		  )
	`, kind, loserID, survivorID)
	if err != nil {
		return 0, fmt.Errorf("reassign edges: %w", err)
	}
	if _, err := s.q(ctx).ExecContext(ctx,
		`DELETE FROM edges WHERE edge_kind = $1 AND subject_id = $2`, kind, loserID,
	); err != nil {
		return 0, fmt.Errorf("drop duplicate edges: %w", err)
	}
	n, err := moved.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("moved edge rows: %w", err)
	}
	return int(n), nil
}

func (s *PostgresStore) UpdatePlaceKind(ctx context.Context, placeID uuid.UUID, kind domain.PlaceKind) error {
	result, err := s.q(ctx).ExecContext(ctx,
		`UPDATE places SET kind = $2, updated_at = NOW() WHERE id = $1`,
		placeID, kind,
	)
	if err != nil {
		return fmt.Errorf("update place kind: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update place kind rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
