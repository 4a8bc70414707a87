package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalProviderGet(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1.jpg"), []byte("jpeg bytes"), 0644))

	p, err := NewLocalProvider(dir)
	require.NoError(t, err)
	assert.Equal(t, "local", p.Name())

	data, err := p.Get(context.Background(), "1.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg bytes"), data)

	_, err = p.Get(context.Background(), "2.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalProviderExists(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1.jpg"), []byte("x"), 0644))

	p, err := NewLocalProvider(dir)
	require.NoError(t, err)

	ok, err := p.Exists(context.Background(), "1.jpg")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Exists(context.Background(), "missing.jpg")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalProviderRejectsBadRoots(t *testing.T) {
	_, err := NewLocalProvider(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestLocalProviderContainsTraversal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "safe.jpg"), []byte("x"), 0644))

	p, err := NewLocalProvider(dir)
	require.NoError(t, err)

	// Traversal components are cleaned relative to the root, never above it.
	data, err := p.Get(context.Background(), "../safe.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), data)
}
