package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntry(t *testing.T) {
	e := NewEntry("k", json.RawMessage(`[]`), 60)
	assert.False(t, e.IsExpired())
	assert.Less(t, e.Age(), 2*time.Second)

	e.ExpiresAt = time.Now().Add(-time.Second)
	assert.True(t, e.IsExpired())

	assert.True(t, NewEntry("k", nil, 0).IsExpired())
}

func TestBatchKey(t *testing.T) {
	a := BatchKey("https://en.wikipedia.org/w/api.php", []string{"Paris", "Lyon"})
	b := BatchKey("https://en.wikipedia.org/w/api.php/", []string{"Paris", "Lyon"})
	c := BatchKey("https://en.wikipedia.org/w/api.php", []string{"Lyon", "Paris"})
	d := BatchKey("https://en.wikipedia.org/w/api.php", []string{"ParisLyon"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c, "order is part of the key")
	assert.NotEqual(t, a, d, "titles are delimited")
	assert.Contains(t, a, "lookup-")
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	store, err := NewFileStore(dir, true, 60)
	require.NoError(t, err)
	assert.True(t, store.IsEnabled())
	assert.Equal(t, dir, store.Directory())
	assert.Equal(t, 60, store.TTL())

	data := json.RawMessage(`[{"name":"X","index":3}]`)

	t.Run("SetAndGet", func(t *testing.T) {
		require.NoError(t, store.Set("key:1", data))

		entry, err := store.Get("key:1")
		require.NoError(t, err)
		assert.JSONEq(t, string(data), string(entry.Data))

		count, err := store.Count()
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := store.Get("absent")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = store.Get("")
		assert.ErrorIs(t, err, ErrInvalidKey)
	})

	t.Run("Clear", func(t *testing.T) {
		require.NoError(t, store.Set("k2", data))
		require.NoError(t, store.Clear())
		count, _ := store.Count()
		assert.Equal(t, 0, count)
	})

	t.Run("Expired", func(t *testing.T) {
		expiring, err := NewFileStore(dir, true, -1)
		require.NoError(t, err)
		require.NoError(t, expiring.Set("old", data))

		_, err = expiring.Get("old")
		assert.ErrorIs(t, err, ErrExpired)

		count, _ := expiring.Count()
		assert.Equal(t, 0, count, "expired entry removed on read")
	})

	t.Run("Prune", func(t *testing.T) {
		expiring, _ := NewFileStore(dir, true, -1)
		require.NoError(t, expiring.Set("stale", data))
		require.NoError(t, store.Set("fresh", data))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "junk.json"), []byte("{"), 0o600))

		require.NoError(t, store.Prune())
		count, _ := store.Count()
		assert.Equal(t, 1, count)
		_, err := store.Get("fresh")
		assert.NoError(t, err)
	})
}

func TestFileStore_Disabled(t *testing.T) {
	store, err := NewFileStore("", false, 60)
	require.NoError(t, err)
	assert.False(t, store.IsEnabled())
	assert.ErrorIs(t, store.Set("k", nil), ErrDisabled)
	_, err = store.Get("k")
	assert.ErrorIs(t, err, ErrDisabled)
	_, err = store.Count()
	assert.ErrorIs(t, err, ErrDisabled)

	_, err = NewFileStore("", true, 60)
	assert.Error(t, err)
}

func TestParseTTL(t *testing.T) {
	ttl, err := ParseTTL("3600")
	require.NoError(t, err)
	assert.Equal(t, 3600, ttl)

	ttl, err = ParseTTL("24h")
	require.NoError(t, err)
	assert.Equal(t, 86400, ttl)

	_, err = ParseTTL("10")
	assert.ErrorIs(t, err, ErrInvalidTTL)

	_, err = ParseTTL("forever")
	assert.Error(t, err)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "30s", FormatDuration(30*time.Second))
	assert.Equal(t, "5m", FormatDuration(5*time.Minute))
	assert.Equal(t, "2h", FormatDuration(2*time.Hour))
	assert.Equal(t, "2h30m", FormatDuration(2*time.Hour+30*time.Minute))
	assert.Equal(t, "1d", FormatDuration(24*time.Hour))
	assert.Equal(t, "3d2h", FormatDuration(74*time.Hour))
}
