package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStoreMemory(t *testing.T) {
	for _, kind := range []string{"", KindMemory} {
		store, err := NewStore(kind, "")
		require.NoError(t, err)
		assert.IsType(t, &MemoryStore{}, store)
		assert.NoError(t, CloseIfSupported(store))
	}
}

func TestNewStoreUnsupported(t *testing.T) {
	_, err := NewStore("postgres", "")
	assert.Error(t, err)
}
