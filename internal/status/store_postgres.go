package status

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"trapper/internal/domain"
	txcontext "trapper/pkg/platform/tx"
)

// PostgresStore persists test results and place statuses.
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

func (s *PostgresStore) InsertResult(ctx context.Context, result *domain.TestResult) error {
	query := `
		INSERT INTO test_results
			(id, cat_id, condition, positive, result_raw, tested_at, source_system)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.q(ctx).ExecContext(ctx, query,
		result.ID, result.CatID, result.Condition, result.Positive,
		result.ResultRaw, result.TestedAt, result.SourceSystem,
	)
	if err != nil {
		return fmt.Errorf("insert test result: %w", err)
	}
	return nil
}

func (s *PostgresStore) PositiveResults(ctx context.Context) ([]*domain.TestResult, error) {
	query := `
		SELECT id, cat_id, condition, positive, result_raw, tested_at, source_system
		FROM test_results
		WHERE positive
		ORDER BY tested_at
	`
	rows, err := s.q(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("positive results: %w", err)
	}
	defer rows.Close()

	var results []*domain.TestResult
	for rows.Next() {
		var r domain.TestResult
		if err := rows.Scan(&r.ID, &r.CatID, &r.Condition, &r.Positive,
			&r.ResultRaw, &r.TestedAt, &r.SourceSystem); err != nil {
			return nil, fmt.Errorf("scan test result: %w", err)
		}
		results = append(results, &r)
	}
	return results, rows.Err()
}

func (s *PostgresStore) ResidenceEdges(ctx context.Context) ([]*domain.Edge, error) {
	query := `
		SELECT e.id, e.subject_id, e.object_id, e.relationship,
		       e.evidence, e.confidence, e.source_system, e.created_at, e.updated_at
		FROM edges e
		JOIN cats c ON c.id = e.subject_id
		WHERE e.edge_kind = 'cat_place'
		  AND e.relationship = 'residence'
		  AND c.superseded_by IS NULL
	`
	rows, err := s.q(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("residence edges: %w", err)
	}
	defer rows.Close()

	var edges []*domain.Edge
	for rows.Next() {
		var e domain.Edge
		if err := rows.Scan(&e.ID, &e.SubjectID, &e.ObjectID, &e.Relationship,
			&e.Evidence, &e.Confidence, &e.SourceSystem, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		edges = append(edges, &e)
	}
	return edges, rows.Err()
}

func (s *PostgresStore) HasNonResidentialContext(ctx context.Context, placeID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM edges e
			JOIN cats c ON c.id = e.subject_id
			WHERE e.edge_kind = 'cat_place'
			  AND e.object_id = $1
			  AND e.relationship <> 'residence'
			  AND c.superseded_by IS NULL
		)
	`
	var exists bool
	if err := s.q(ctx).QueryRowContext(ctx, query, placeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("non-residential context: %w", err)
	}
	return exists, nil
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

func (s *PostgresStore) GetStatus(ctx context.Context, placeID uuid.UUID, condition domain.Condition) (*domain.PlaceStatus, error) {
	query := `
		SELECT id, place_id, condition, state, first_positive_at, last_positive_at,
		       positive_count, cat_count, set_by, updated_at
		FROM place_statuses
		WHERE place_id = $1 AND condition = $2
	`
	status, err := scanStatus(s.q(ctx).QueryRowContext(ctx, query, placeID, condition))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get place status: %w", err)
	}
	return status, nil
}

func (s *PostgresStore) UpsertStatus(ctx context.Context, status *domain.PlaceStatus) error {
	query := `
		INSERT INTO place_statuses
			(id, place_id, condition, state, first_positive_at, last_positive_at,
			 positive_count, cat_count, set_by, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (place_id, condition) DO UPDATE SET
			state = EXCLUDED.state,
			first_positive_at = EXCLUDED.first_positive_at,
			last_positive_at = EXCLUDED.last_positive_at,
			positive_count = EXCLUDED.positive_count,
			cat_count = EXCLUDED.cat_count,
			set_by = EXCLUDED.set_by,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.q(ctx).ExecContext(ctx, query,
		status.ID, status.PlaceID, status.Condition, status.State,
		status.FirstPositiveAt, status.LastPositiveAt,
		status.PositiveCount, status.CatCount, status.SetBy, status.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert place status: %w", err)
	}
	return nil
}

func (s *PostgresStore) StatusesForPlace(ctx context.Context, placeID uuid.UUID) ([]*domain.PlaceStatus, error) {
	query := `
		SELECT id, place_id, condition, state, first_positive_at, last_positive_at,
		       positive_count, cat_count, set_by, updated_at
		FROM place_statuses
		WHERE place_id = $1
		ORDER BY condition
	`
	rows, err := s.q(ctx).QueryContext(ctx, query, placeID)
	if err != nil {
		return nil, fmt.Errorf("statuses for place: %w", err)
	}
	defer rows.Close()

	var statuses []*domain.PlaceStatus
	for rows.Next() {
		status, err := scanStatus(rows)
		if err != nil {
			return nil, fmt.Errorf("scan place status: %w", err)
		}
		statuses = append(statuses, status)
	}
	return statuses, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStatus(row rowScanner) (*domain.PlaceStatus, error) {
	var st domain.PlaceStatus
	err := row.Scan(&st.ID, &st.PlaceID, &st.Condition, &st.State,
		&st.FirstPositiveAt, &st.LastPositiveAt,
		&st.PositiveCount, &st.CatCount, &st.SetBy, &st.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &st, nil
}
