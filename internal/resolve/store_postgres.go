package resolve

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"trapper/internal/domain"
	txcontext "trapper/pkg/platform/tx"
)

// PostgresStore persists people, identifiers, and match decisions.
// Stores are pure I/O; policy lives in the service.
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

func (s *PostgresStore) FindOwners(ctx context.Context, idType domain.IdentifierType, value string, minConfidence float64) ([]*domain.Person, error) {
	query := `
		SELECT p.id, p.display_name, p.first_name, p.last_name,
		       p.is_organization, p.is_system_account, p.data_quality,
		       p.source_system, p.source_record_id, p.superseded_by,
		       p.created_at, p.updated_at
		FROM people p
		JOIN person_identifiers pi ON pi.person_id = p.id
		WHERE pi.id_type = $1
		  AND pi.value_normalized = $2
		  AND pi.confidence >= $3
		  AND p.superseded_by IS NULL
	`
	rows, err := s.q(ctx).QueryContext(ctx, query, idType, value, minConfidence)
	if err != nil {
		return nil, fmt.Errorf("find identifier owners: %w", err)
	}
	defer rows.Close()

	var people []*domain.Person
	for rows.Next() {
		person, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		people = append(people, person)
	}
	return people, rows.Err()
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
	person, err := scanPerson(s.q(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get person: %w", err)
	}
	return person, nil
}

func (s *PostgresStore) CreatePerson(ctx context.Context, person *domain.Person) error {
	query := `
		INSERT INTO people
			(id, display_name, first_name, last_name, is_organization,
			 is_system_account, data_quality, source_system, source_record_id,
			 superseded_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULL, $10, $11)
	`
	_, err := s.q(ctx).ExecContext(ctx, query,
		person.ID, person.DisplayName, person.FirstName, person.LastName,
		person.IsOrganization, person.IsSystemAccount, person.DataQuality,
		person.SourceSystem, person.SourceRecordID,
		person.CreatedAt, person.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create person: %w", err)
	}
	return nil
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

// AttachIdentifier is an atomic insert-or-get keyed on the
// (id_type, value_normalized) uniqueness constraint. The no-op DO UPDATE lets
// RETURNING yield the surviving row either way, closing the read-then-write
// window between direct lookup and insert.
func (s *PostgresStore) AttachIdentifier(ctx context.Context, ident *domain.PersonIdentifier) (uuid.UUID, error) {
	query := `
		INSERT INTO person_identifiers
			(id, person_id, id_type, value_raw, value_normalized, confidence, source_system, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id_type, value_normalized) DO UPDATE SET
			id_type = EXCLUDED.id_type
		RETURNING person_id
	`
	var ownerID uuid.UUID
	err := s.q(ctx).QueryRowContext(ctx, query,
		ident.ID, ident.PersonID, ident.Type, ident.ValueRaw,
		ident.ValueNormalized, ident.Confidence, ident.SourceSystem, ident.CreatedAt,
	).Scan(&ownerID)
	if err != nil {
		// Serialization conflicts surface as unique violations under
		// concurrent attach; retry once with a plain read.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return s.identifierOwner(ctx, ident.Type, ident.ValueNormalized)
		}
		return uuid.Nil, fmt.Errorf("attach identifier: %w", err)
	}
	return ownerID, nil
}

func (s *PostgresStore) identifierOwner(ctx context.Context, idType domain.IdentifierType, value string) (uuid.UUID, error) {
	var ownerID uuid.UUID
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT person_id FROM person_identifiers WHERE id_type = $1 AND value_normalized = $2`,
		idType, value,
	).Scan(&ownerID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("identifier owner: %w", err)
	}
	return ownerID, nil
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

func (s *PostgresStore) AddressesByPerson(ctx context.Context, personID uuid.UUID) ([]string, error) {
	query := `
		SELECT pl.formatted_address
		FROM edges e
		JOIN places pl ON pl.id = e.object_id
		WHERE e.edge_kind = 'person_place'
		  AND e.subject_id = $1
		  AND pl.superseded_by IS NULL
	`
	rows, err := s.q(ctx).QueryContext(ctx, query, personID)
	if err != nil {
		return nil, fmt.Errorf("addresses by person: %w", err)
	}
	defer rows.Close()

	var addresses []string
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		addresses = append(addresses, addr)
	}
	return addresses, rows.Err()
}

func (s *PostgresStore) AppendDecision(ctx context.Context, decision *domain.MatchDecision) error {
	breakdown, err := json.Marshal(decision.Breakdown)
	if err != nil {
		return fmt.Errorf("marshal breakdown: %w", err)
	}
	query := `
		INSERT INTO match_decisions
			(id, source_system, source_record_id, input_email, input_phone,
			 input_name, input_address, best_candidate_id, score, breakdown,
			 outcome, reject_reason, reject_class, person_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err = s.q(ctx).ExecContext(ctx, query,
		decision.ID, decision.SourceSystem, decision.SourceRecordID,
		decision.InputEmail, decision.InputPhone, decision.InputName, decision.InputAddress,
		decision.BestCandidateID, decision.Score, breakdown,
		decision.Outcome, decision.RejectReason, decision.RejectClass, decision.PersonID, decision.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append match decision: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetDecision(ctx context.Context, id uuid.UUID) (*domain.MatchDecision, error) {
	query := `
		SELECT id, source_system, source_record_id, input_email, input_phone,
		       input_name, input_address, best_candidate_id, score, breakdown,
		       outcome, reject_reason, reject_class, person_id,
		       review_confirmed, review_by, review_at, created_at
		FROM match_decisions
		WHERE id = $1
	`
	row := s.q(ctx).QueryRowContext(ctx, query, id)

	var d domain.MatchDecision
	var breakdown []byte
	var reviewConfirmed sql.NullBool
	var reviewBy sql.NullString
	var reviewAt sql.NullTime
	err := row.Scan(&d.ID, &d.SourceSystem, &d.SourceRecordID,
		&d.InputEmail, &d.InputPhone, &d.InputName, &d.InputAddress,
		&d.BestCandidateID, &d.Score, &breakdown,
		&d.Outcome, &d.RejectReason, &d.RejectClass, &d.PersonID,
		&reviewConfirmed, &reviewBy, &reviewAt, &d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get match decision: %w", err)
	}
	if err := json.Unmarshal(breakdown, &d.Breakdown); err != nil {
		return nil, fmt.Errorf("unmarshal breakdown: %w", err)
	}
	if reviewConfirmed.Valid {
		d.Review = &domain.ReviewOutcome{
			Confirmed:  reviewConfirmed.Bool,
			ReviewedBy: reviewBy.String,
			ReviewedAt: reviewAt.Time,
		}
	}
	return &d, nil
}

func (s *PostgresStore) AttachReview(ctx context.Context, decisionID uuid.UUID, review domain.ReviewOutcome) error {
	result, err := s.q(ctx).ExecContext(ctx, `
		UPDATE match_decisions
		SET review_confirmed = $2, review_by = $3, review_at = $4
		WHERE id = $1 AND review_confirmed IS NULL
	`, decisionID, review.Confirmed, review.ReviewedBy, review.ReviewedAt)
	if err != nil {
		return fmt.Errorf("attach review: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("attach review rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPerson(row rowScanner) (*domain.Person, error) {
	var p domain.Person
	var supersededBy *uuid.UUID
	err := row.Scan(&p.ID, &p.DisplayName, &p.FirstName, &p.LastName,
		&p.IsOrganization, &p.IsSystemAccount, &p.DataQuality,
		&p.SourceSystem, &p.SourceRecordID, &supersededBy,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if supersededBy != nil {
		p.Supersession = domain.SupersededBy(*supersededBy)
	} else {
		p.Supersession = domain.Active()
	}
	return &p, nil
}
