package projection

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"trapper/internal/domain"
	txcontext "trapper/pkg/platform/tx"
)

// PostgresStore serves the read queries behind view assembly.
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

func (s *PostgresStore) GetPerson(ctx context.Context, id uuid.UUID) (*domain.Person, error) {
	query := `
		SELECT id, display_name, first_name, last_name,
		       is_organization, is_system_account, data_quality,
		       source_system, source_record_id, superseded_by,
		       created_at, updated_at
		FROM people
		WHERE id = $1
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
	p.Supersession = supersessionOf(supersededBy)
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
	p.Supersession = supersessionOf(supersededBy)
	return &p, nil
}

func (s *PostgresStore) GetCat(ctx context.Context, id uuid.UUID) (*domain.Cat, error) {
	query := `
		SELECT id, name, sex, altered, descriptors, external_ids,
		       data_quality, superseded_by, created_at, updated_at
		FROM cats
		WHERE id = $1
	`
	var c domain.Cat
	var supersededBy *uuid.UUID
	err := s.q(ctx).QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Sex, &c.Altered,
		pq.Array(&c.Descriptors), pq.Array(&c.ExternalIDs),
		&c.DataQuality, &supersededBy, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get cat: %w", err)
	}
	c.Supersession = supersessionOf(supersededBy)
	return &c, nil
}

func (s *PostgresStore) IdentifiersByPerson(ctx context.Context, personID uuid.UUID) ([]*domain.PersonIdentifier, error) {
	query := `
		SELECT id, person_id, id_type, value_raw, value_normalized, confidence, source_system, created_at
		FROM person_identifiers
		WHERE person_id = $1
		ORDER BY created_at
	`
	rows, err := s.q(ctx).QueryContext(ctx, query, personID)
	if err != nil {
		return nil, fmt.Errorf("identifiers by person: %w", err)
	}
	defer rows.Close()

	var idents []*domain.PersonIdentifier
	for rows.Next() {
		var ident domain.PersonIdentifier
		if err := rows.Scan(&ident.ID, &ident.PersonID, &ident.Type, &ident.ValueRaw,
			&ident.ValueNormalized, &ident.Confidence, &ident.SourceSystem, &ident.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan identifier: %w", err)
		}
		idents = append(idents, &ident)
	}
	return idents, rows.Err()
}

func (s *PostgresStore) EdgesBySubject(ctx context.Context, kind domain.EdgeKind, subjectID uuid.UUID) ([]*domain.Edge, error) {
	return s.edges(ctx, kind, "subject_id", subjectID)
}

func (s *PostgresStore) EdgesByObject(ctx context.Context, kind domain.EdgeKind, objectID uuid.UUID) ([]*domain.Edge, error) {
	return s.edges(ctx, kind, "object_id", objectID)
}

func (s *PostgresStore) edges(ctx context.Context, kind domain.EdgeKind, column string, id uuid.UUID) ([]*domain.Edge, error) {
	query := fmt.Sprintf(`
		SELECT id, subject_id, object_id, relationship,
		       evidence, confidence, source_system, created_at, updated_at
		FROM edges
		WHERE edge_kind = $1 AND %s = $2
		ORDER BY updated_at DESC
	`, column)
	rows, err := s.q(ctx).QueryContext(ctx, query, kind, id)
	if err != nil {
		return nil, fmt.Errorf("edges by %s: %w", column, err)
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
		var st domain.PlaceStatus
		if err := rows.Scan(&st.ID, &st.PlaceID, &st.Condition, &st.State,
			&st.FirstPositiveAt, &st.LastPositiveAt,
			&st.PositiveCount, &st.CatCount, &st.SetBy, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan place status: %w", err)
		}
		statuses = append(statuses, &st)
	}
	return statuses, rows.Err()
}

func (s *PostgresStore) ResultsByCat(ctx context.Context, catID uuid.UUID) ([]*domain.TestResult, error) {
	query := `
		SELECT id, cat_id, condition, positive, result_raw, tested_at, source_system
		FROM test_results
		WHERE cat_id = $1
		ORDER BY tested_at DESC
	`
	rows, err := s.q(ctx).QueryContext(ctx, query, catID)
	if err != nil {
		return nil, fmt.Errorf("results by cat: %w", err)
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

func supersessionOf(supersededBy *uuid.UUID) domain.Supersession {
	if supersededBy != nil {
		return domain.SupersededBy(*supersededBy)
	}
	return domain.Active()
}
