package redisstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sit-hvlab/session-gateway/internal/ports"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client), mr
}

func TestStoreSetGetDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ports.ErrNotFound)

	require.NoError(t, s.Set(ctx, "k", "v"))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	require.NoError(t, s.Delete(ctx, "k"))
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestStoreAppliesPrefix(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := NewWithPrefix(client, "station7:")
	require.NoError(t, s.Set(ctx, "token", "tok-1"))

	raw, err := mr.Get("station7:token")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", raw)
}

func TestStorePrefixesIsolateStations(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	a := NewWithPrefix(client, "a:")
	b := NewWithPrefix(client, "b:")

	require.NoError(t, a.Set(ctx, "token", "for-a"))
	_, err := b.Get(ctx, "token")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestStoreDeleteEmptyKeysIsNoop(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Delete(context.Background()))
}
