package graph

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"trapper/internal/domain"
	txcontext "trapper/pkg/platform/tx"
)

// PostgresStore backs the linker with the shared edges, visits, and places
// tables.
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

// UpsertEdge relies on the (edge_kind, subject_id, object_id, relationship)
// uniqueness constraint. A conflicting insert refreshes evidence when the new
// observation is at least as confident, and xmax distinguishes insert from
// update so callers can count newly created edges.
func (s *PostgresStore) UpsertEdge(ctx context.Context, kind domain.EdgeKind, edge *domain.Edge) (bool, error) {
	query := `
		INSERT INTO edges
			(id, edge_kind, subject_id, object_id, relationship,
			 evidence, confidence, source_system, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (edge_kind, subject_id, object_id, relationship) DO UPDATE SET
			evidence = EXCLUDED.evidence,
			confidence = EXCLUDED.confidence,
			updated_at = EXCLUDED.updated_at
		WHERE edges.confidence NOT IN ('high')
		   OR EXCLUDED.confidence = 'high'
		RETURNING (xmax = 0)
	`
	var created bool
	err := s.q(ctx).QueryRowContext(ctx, query,
		edge.ID, kind, edge.SubjectID, edge.ObjectID, edge.Relationship,
		edge.Evidence, edge.Confidence, edge.SourceSystem,
		edge.CreatedAt, edge.UpdatedAt,
	).Scan(&created)
	if err != nil {
		// The WHERE guard can suppress the update entirely; no row means the
		// existing edge won.
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("upsert edge: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) EdgesBySubject(ctx context.Context, kind domain.EdgeKind, subjectID uuid.UUID) ([]*domain.Edge, error) {
	query := `
		SELECT id, subject_id, object_id, relationship,
		       evidence, confidence, source_system, created_at, updated_at
		FROM edges
		WHERE edge_kind = $1 AND subject_id = $2
		ORDER BY updated_at DESC
	`
	rows, err := s.q(ctx).QueryContext(ctx, query, kind, subjectID)
	if err != nil {
		return nil, fmt.Errorf("edges by subject: %w", err)
	}
	defer rows.Close()
	return scanEdges(rows)
}

// LatestVisits keeps one row per cat via DISTINCT ON ordered by visit time.
func (s *PostgresStore) LatestVisits(ctx context.Context) ([]*domain.Visit, error) {
	query := `
		SELECT DISTINCT ON (cat_id)
		       id, cat_id, clinic_place_id, home_place_id, visited_at, source_system
		FROM visits
		ORDER BY cat_id, visited_at DESC, id
	`
	rows, err := s.q(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("latest visits: %w", err)
	}
	defer rows.Close()

	var visits []*domain.Visit
	for rows.Next() {
		var v domain.Visit
		if err := rows.Scan(&v.ID, &v.CatID, &v.ClinicPlaceID, &v.HomePlaceID,
			&v.VisitedAt, &v.SourceSystem); err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}
		visits = append(visits, &v)
	}
	return visits, rows.Err()
}

func (s *PostgresStore) PersonCatEdges(ctx context.Context) ([]*domain.Edge, error) {
	query := `
		SELECT e.id, e.subject_id, e.object_id, e.relationship,
		       e.evidence, e.confidence, e.source_system, e.created_at, e.updated_at
		FROM edges e
		JOIN people p ON p.id = e.subject_id
		JOIN cats c ON c.id = e.object_id
		WHERE e.edge_kind = 'person_cat'
		  AND p.superseded_by IS NULL
		  AND c.superseded_by IS NULL
		ORDER BY e.subject_id, e.updated_at DESC
	`
	rows, err := s.q(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("person-cat edges: %w", err)
	}
	defer rows.Close()
	return scanEdges(rows)
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

func scanEdges(rows *sql.Rows) ([]*domain.Edge, error) {
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
