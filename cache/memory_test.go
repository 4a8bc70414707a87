package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSetGet(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, s.Set(ctx, "k", []byte("variant"), 0))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("variant"), got)
}

func TestMemoryStoreTTL(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v"), 10*time.Millisecond))

	_, err := s.Get(ctx, "k")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryStoreOverwrite(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("a"), 0))
	require.NoError(t, s.Set(ctx, "k", []byte("b"), 0))

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), got)
}

func TestRedisConfigAddr(t *testing.T) {
	cnf := RedisConfig{Host: "10.0.0.5", Port: 6380}
	assert.Equal(t, "10.0.0.5:6380", cnf.Addr())
}
