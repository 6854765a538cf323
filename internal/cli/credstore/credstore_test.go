package credstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemory()

	// Empty store has no token
	token, ok := store.Get()
	assert.False(t, ok)
	assert.Empty(t, token)

	require.NoError(t, store.Set("abc123"))

	token, ok = store.Get()
	assert.True(t, ok)
	assert.Equal(t, "abc123", token)

	// Set overwrites
	require.NoError(t, store.Set("def456"))
	token, ok = store.Get()
	assert.True(t, ok)
	assert.Equal(t, "def456", token)

	require.NoError(t, store.Clear())
	_, ok = store.Get()
	assert.False(t, ok)

	// Clear is idempotent
	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
}

func TestMemoryStoreEmptyToken(t *testing.T) {
	store := NewMemory()

	// Storing an empty token is indistinguishable from no token
	require.NoError(t, store.Set(""))
	_, ok := store.Get()
	assert.False(t, ok)
}
