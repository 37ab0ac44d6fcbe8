//go:build integration

package projection

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"trapper/pkg/testutil/containers"
)

func TestRedisCacheRoundTrip(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	t.Cleanup(func() {
		_ = rc.Client.Close()
		_ = rc.Container.Terminate(context.Background())
	})

	cache := NewRedisCache(rc.Client, time.Minute)
	ctx := context.Background()

	// Miss is (nil, nil), never an error.
	got, err := cache.Get(ctx, "trapper:view:person:missing")
	require.NoError(t, err)
	require.Nil(t, got)

	require.NoError(t, cache.Set(ctx, "trapper:view:person:abc", []byte(`{"id":"abc"}`), time.Minute))
	got, err = cache.Get(ctx, "trapper:view:person:abc")
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"abc"}`, string(got))

	require.NoError(t, cache.Delete(ctx, "trapper:view:person:abc"))
	got, err = cache.Get(ctx, "trapper:view:person:abc")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestRedisCacheTTLExpires(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	t.Cleanup(func() {
		_ = rc.Client.Close()
		_ = rc.Container.Terminate(context.Background())
	})

	cache := NewRedisCache(rc.Client, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "trapper:view:cat:ttl", []byte(`{}`), 100*time.Millisecond))
	time.Sleep(300 * time.Millisecond)

	got, err := cache.Get(ctx, "trapper:view:cat:ttl")
	require.NoError(t, err)
	require.Nil(t, got)
}
