package blacklist

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestLookupMissIsNotAnError(t *testing.T) {
	svc := NewService(NewInMemoryStore())

	entry, err := svc.Lookup(context.Background(), ValueEmail, "nobody@example.com")
	require.NoError(t, err)
	require.Nil(t, entry)

	entry, err = svc.Lookup(context.Background(), ValueEmail, "")
	require.NoError(t, err)
	require.Nil(t, entry)
}

func TestAddAndLookup(t *testing.T) {
	svc := NewService(NewInMemoryStore())

	require.NoError(t, svc.Add(context.Background(), &Entry{
		ID:                 uuid.New(),
		Type:               ValueEmail,
		Value:              "colony@rescue.org",
		Kind:               KindShared,
		RequiredSimilarity: 0.8,
	}))

	entry, err := svc.Lookup(context.Background(), ValueEmail, "colony@rescue.org")
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.Equal(t, KindShared, entry.Kind)
	require.Equal(t, 0.8, entry.RequiredSimilarity)

	all, err := svc.All(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestAddRejectsSimilarityOutOfRange(t *testing.T) {
	svc := NewService(NewInMemoryStore())

	err := svc.Add(context.Background(), &Entry{
		ID:                 uuid.New(),
		Type:               ValuePhone,
		Value:              "5550001234",
		Kind:               KindShared,
		RequiredSimilarity: 1.5,
	})
	require.Error(t, err)
}

func TestPlaceListed(t *testing.T) {
	svc := NewService(NewInMemoryStore())
	placeID := uuid.New()

	listed, err := svc.PlaceListed(context.Background(), placeID)
	require.NoError(t, err)
	require.False(t, listed)

	require.NoError(t, svc.Add(context.Background(), &Entry{
		ID:    uuid.New(),
		Type:  ValuePlace,
		Value: placeID.String(),
		Kind:  KindOrganizational,
	}))

	listed, err = svc.PlaceListed(context.Background(), placeID)
	require.NoError(t, err)
	require.True(t, listed)
}
