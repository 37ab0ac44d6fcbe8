//go:build integration

package resolve

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"trapper/internal/domain"
	"trapper/pkg/testutil/containers"
)

func newPostgresFixture(t *testing.T) *PostgresStore {
	t.Helper()
	pg := containers.NewPostgresContainer(t)
	t.Cleanup(func() {
		_ = pg.DB.Close()
		_ = pg.Container.Terminate(context.Background())
	})
	return NewPostgresStore(pg.DB)
}

func createTestPerson(t *testing.T, store *PostgresStore, name string) *domain.Person {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	person := &domain.Person{
		ID:           uuid.New(),
		DisplayName:  name,
		DataQuality:  domain.QualityOK,
		Supersession: domain.Active(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, store.CreatePerson(context.Background(), person))
	return person
}

func TestPostgresAttachIdentifierIsInsertOrGet(t *testing.T) {
	store := newPostgresFixture(t)
	ctx := context.Background()

	first := createTestPerson(t, store, "Jane Doe")
	second := createTestPerson(t, store, "Janet Doe")

	owner, err := store.AttachIdentifier(ctx, &domain.PersonIdentifier{
		ID:              uuid.New(),
		PersonID:        first.ID,
		Type:            domain.IdentifierEmail,
		ValueNormalized: "jane@example.com",
		Confidence:      0.9,
		CreatedAt:       time.Now().UTC(),
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, owner)

	// A second attach of the same value must yield the original owner without
	// inserting anything.
	owner, err = store.AttachIdentifier(ctx, &domain.PersonIdentifier{
		ID:              uuid.New(),
		PersonID:        second.ID,
		Type:            domain.IdentifierEmail,
		ValueNormalized: "jane@example.com",
		Confidence:      0.9,
		CreatedAt:       time.Now().UTC(),
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, owner)

	idents, err := store.IdentifiersByPerson(ctx, second.ID)
	require.NoError(t, err)
	require.Empty(t, idents)
}

func TestPostgresFindOwnersFilters(t *testing.T) {
	store := newPostgresFixture(t)
	ctx := context.Background()

	person := createTestPerson(t, store, "Jane Doe")
	_, err := store.AttachIdentifier(ctx, &domain.PersonIdentifier{
		ID:              uuid.New(),
		PersonID:        person.ID,
		Type:            domain.IdentifierPhone,
		ValueNormalized: "5551234567",
		Confidence:      0.4,
		CreatedAt:       time.Now().UTC(),
	})
	require.NoError(t, err)

	// Below the confidence floor: invisible.
	owners, err := store.FindOwners(ctx, domain.IdentifierPhone, "5551234567", 0.5)
	require.NoError(t, err)
	require.Empty(t, owners)

	owners, err = store.FindOwners(ctx, domain.IdentifierPhone, "5551234567", 0.3)
	require.NoError(t, err)
	require.Len(t, owners, 1)
	require.Equal(t, person.ID, owners[0].ID)

	// Superseded people stop being candidates.
	survivor := createTestPerson(t, store, "Jane D.")
	require.NoError(t, store.SupersedePerson(ctx, person.ID, survivor.ID))

	owners, err = store.FindOwners(ctx, domain.IdentifierPhone, "5551234567", 0.3)
	require.NoError(t, err)
	require.Empty(t, owners)
}

func TestPostgresDecisionRoundTrip(t *testing.T) {
	store := newPostgresFixture(t)
	ctx := context.Background()

	person := createTestPerson(t, store, "Jane Doe")
	decision := &domain.MatchDecision{
		ID:           uuid.New(),
		SourceSystem: "clinic_hq",
		InputEmail:   "jane@example.com",
		InputName:    "Jane Doe",
		Score:        0.62,
		Breakdown: domain.SignalBreakdown{
			Email:     0.40,
			Name:      0.22,
			MatchedOn: []string{"email", "name"},
		},
		Outcome:         domain.OutcomeReviewPending,
		BestCandidateID: &person.ID,
		PersonID:        &person.ID,
		CreatedAt:       time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, store.AppendDecision(ctx, decision))

	stored, err := store.GetDecision(ctx, decision.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeReviewPending, stored.Outcome)
	require.Equal(t, decision.Score, stored.Score)
	require.Equal(t, decision.Breakdown.MatchedOn, stored.Breakdown.MatchedOn)
	require.Equal(t, person.ID, *stored.PersonID)
	require.Nil(t, stored.Review)

	review := domain.ReviewOutcome{
		Confirmed:  true,
		ReviewedBy: "coordinator@example.org",
		ReviewedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, store.AttachReview(ctx, decision.ID, review))

	stored, err = store.GetDecision(ctx, decision.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Review)
	require.True(t, stored.Review.Confirmed)
	require.Equal(t, "coordinator@example.org", stored.Review.ReviewedBy)
}

func TestPostgresDecisionPersistsRejectClass(t *testing.T) {
	store := newPostgresFixture(t)
	ctx := context.Background()

	decision := &domain.MatchDecision{
		ID:           uuid.New(),
		SourceSystem: "web_form",
		InputName:    "Front Desk",
		Outcome:      domain.OutcomeRejected,
		RejectReason: "organizational email pattern",
		RejectClass:  "classification_rejected",
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, store.AppendDecision(ctx, decision))

	stored, err := store.GetDecision(ctx, decision.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeRejected, stored.Outcome)
	require.Equal(t, "organizational email pattern", stored.RejectReason)
	require.Equal(t, "classification_rejected", stored.RejectClass)
}
