package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/roadbot/internal/domain"
)

func TestBadgerPriorStoreRoundTrip(t *testing.T) {
	store, err := OpenBadgerPriorStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	_, ok, err := store.Get("t1")
	require.NoError(t, err)
	assert.False(t, ok)

	want := domain.Counts{B: 2.2, P: 1.2, T: 1.2}
	require.NoError(t, store.Put("t1", want))

	got, ok, err := store.Get("t1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestBadgerPriorStoreOverwrite(t *testing.T) {
	store, err := OpenBadgerPriorStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Put("t1", domain.Counts{B: 1, P: 1, T: 1}))
	require.NoError(t, store.Put("t1", domain.Counts{B: 9, P: 8, T: 7}))

	got, ok, err := store.Get("t1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.Counts{B: 9, P: 8, T: 7}, got)
}

func TestBadgerPriorStoreRequiresPath(t *testing.T) {
	_, err := OpenBadgerPriorStore("  ")
	assert.Error(t, err)
}
