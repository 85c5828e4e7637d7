package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	r := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer r.Close()
	ctx := context.Background()

	_, err := r.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, r.Set(ctx, "k", []byte{0x0a, 0x00, 0xff}, time.Minute))
	got, err := r.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0a, 0x00, 0xff}, got)

	mr.FastForward(2 * time.Minute)
	_, err = r.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	n, err := r.Incr(ctx, "epoch")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestDial(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()

	r, err := Dial(context.Background(), addr, "", 0)
	require.NoError(t, err)
	require.NoError(t, r.Close())

	mr.Close()
	_, err = Dial(context.Background(), addr, "", 0)
	assert.Error(t, err)
}

func TestMemory(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, m.Set(ctx, "forever", []byte("v"), 0))

	now = now.Add(time.Minute)
	_, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = m.Get(ctx, "forever")
	assert.NoError(t, err)

	for want := int64(1); want <= 3; want++ {
		n, err := m.Incr(ctx, "epoch")
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}
}

func TestMemorySweepsExpired(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "old", []byte("v"), time.Second))
	require.NoError(t, m.Set(ctx, "keep", []byte("v"), 0))
	now = now.Add(time.Minute)

	for i := 0; i < sweepEvery; i++ {
		require.NoError(t, m.Set(ctx, "new", []byte("v"), time.Hour))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	assert.NotContains(t, m.data, "old")
	assert.Contains(t, m.data, "keep")
	assert.Contains(t, m.data, "new")
}
