package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/purepath/recovery-backend/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreGetSetDel(t *testing.T) {
	store := cache.NewMemoryStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, cache.ErrMiss)

	require.NoError(t, store.Set(ctx, "k", "v", 0))
	v, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	require.NoError(t, store.Del(ctx, "k"))
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, cache.ErrMiss)
}

func TestMemoryStoreTTL(t *testing.T) {
	store := cache.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "short", "v", time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	_, err := store.Get(ctx, "short")
	assert.ErrorIs(t, err, cache.ErrMiss)

	// Zero TTL means no expiry.
	require.NoError(t, store.Set(ctx, "forever", "v", 0))
	time.Sleep(5 * time.Millisecond)
	_, err = store.Get(ctx, "forever")
	assert.NoError(t, err)
}

func TestMemoryStoreSets(t *testing.T) {
	store := cache.NewMemoryStore()
	ctx := context.Background()

	members, err := store.SMembers(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, members)

	require.NoError(t, store.SAdd(ctx, "s", "a", "b"))
	require.NoError(t, store.SAdd(ctx, "s", "b", "c"))
	members, err = store.SMembers(ctx, "s")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, members)

	require.NoError(t, store.SRem(ctx, "s", "b", "nope"))
	members, err = store.SMembers(ctx, "s")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "c"}, members)

	// Del drops the whole set.
	require.NoError(t, store.Del(ctx, "s"))
	members, err = store.SMembers(ctx, "s")
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestMemoryStoreFindKeyWithPrefix(t *testing.T) {
	store := cache.NewMemoryStore()
	ctx := context.Background()

	assert.Empty(t, store.FindKeyWithPrefix("tok:"))

	require.NoError(t, store.Set(ctx, "tok:abc", "1", 0))
	require.NoError(t, store.Set(ctx, "other:xyz", "2", 0))
	assert.Equal(t, "tok:abc", store.FindKeyWithPrefix("tok:"))

	// Expired keys are skipped.
	require.NoError(t, store.Set(ctx, "tok:abc", "1", time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	assert.Empty(t, store.FindKeyWithPrefix("tok:"))
}
