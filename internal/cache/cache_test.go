package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T, ttl time.Duration) (*FileStore, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)}
	store, err := NewFileStore(Options{
		Directory: t.TempDir(),
		Enabled:   true,
		TTL:       ttl,
		Now:       clock.Now,
	})
	require.NoError(t, err)
	return store, clock
}

func TestFileStore_SetGet(t *testing.T) {
	store, clock := newTestStore(t, 30*time.Second)
	key := Key("/api/sensor-data", nil)

	_, err := store.Get(key)
	require.ErrorIs(t, err, ErrCacheNotFound)

	require.NoError(t, store.Set(key, json.RawMessage(`{"temperature":22.5}`)))

	entry, err := store.Get(key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"temperature":22.5}`, string(entry.Data))
	assert.Equal(t, key, entry.Key)

	clock.Advance(29 * time.Second)
	_, err = store.Get(key)
	require.NoError(t, err)

	clock.Advance(time.Second)
	_, err = store.Get(key)
	require.ErrorIs(t, err, ErrCacheExpired)

	_, err = store.Get(key)
	require.ErrorIs(t, err, ErrCacheNotFound, "expired entry is removed on read")
}

func TestFileStore_DeleteAndClear(t *testing.T) {
	store, _ := newTestStore(t, time.Minute)

	require.NoError(t, store.Set("a", json.RawMessage(`1`)))
	require.NoError(t, store.Set("b", json.RawMessage(`2`)))
	require.NoError(t, store.Delete("a"))
	require.NoError(t, store.Delete("a"))

	st, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, st.Entries)

	require.NoError(t, store.Clear())
	st, err = store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 0, st.Entries)
}

func TestFileStore_CleanupExpired(t *testing.T) {
	store, clock := newTestStore(t, 10*time.Second)

	require.NoError(t, store.Set("old", json.RawMessage(`1`)))
	clock.Advance(6 * time.Second)
	require.NoError(t, store.Set("new", json.RawMessage(`2`)))
	require.NoError(t, os.WriteFile(filepath.Join(store.Directory(), "garbage.json"), []byte("{"), 0o600))
	clock.Advance(5 * time.Second)

	removed, err := store.CleanupExpired()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, err = store.Get("new")
	assert.NoError(t, err)
}

func TestFileStore_EvictsOldest(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(Options{Directory: dir, Enabled: true, TTL: time.Hour, MaxSizeMB: 1})
	require.NoError(t, err)

	blob := make([]byte, 400*1024)
	for i := range blob {
		blob[i] = 'x'
	}
	payload, err := json.Marshal(string(blob))
	require.NoError(t, err)

	base := time.Now().Add(-time.Hour)
	for i, key := range []string{"first", "second", "third"} {
		require.NoError(t, store.Set(key, payload))
		mod := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(store.path(key), mod, mod))
	}

	_, err = store.Get("first")
	assert.ErrorIs(t, err, ErrCacheNotFound)
	_, err = store.Get("third")
	assert.NoError(t, err)

	st, err := store.Stats()
	require.NoError(t, err)
	assert.LessOrEqual(t, st.SizeBytes, int64(1024*1024))
}

func TestFileStore_Disabled(t *testing.T) {
	store, err := NewFileStore(Options{Enabled: false})
	require.NoError(t, err)
	assert.False(t, store.IsEnabled())

	_, err = store.Get("k")
	assert.ErrorIs(t, err, ErrCacheDisabled)
	assert.ErrorIs(t, store.Set("k", nil), ErrCacheDisabled)
	assert.ErrorIs(t, store.Delete("k"), ErrCacheDisabled)
	assert.ErrorIs(t, store.Clear(), ErrCacheDisabled)
	_, err = store.CleanupExpired()
	assert.ErrorIs(t, err, ErrCacheDisabled)
}

func TestNewFileStore_Validation(t *testing.T) {
	_, err := NewFileStore(Options{Enabled: true, TTL: time.Second})
	assert.Error(t, err)
	_, err = NewFileStore(Options{Enabled: true, Directory: t.TempDir()})
	assert.Error(t, err)
}

func TestFileStore_InvalidKey(t *testing.T) {
	store, _ := newTestStore(t, time.Minute)
	_, err := store.Get("")
	assert.ErrorIs(t, err, ErrInvalidCacheKey)
	assert.ErrorIs(t, store.Set("", nil), ErrInvalidCacheKey)
}

func TestKey(t *testing.T) {
	a := Key("/api/vehicle-movement-history", map[string]string{"hours": "24", "limit": "10"})
	b := Key("/api/vehicle-movement-history", map[string]string{"limit": " 10", "hours": "24"})
	c := Key("/api/vehicle-movement-history", map[string]string{"hours": "168"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Contains(t, a, "api_vehicle-movement-history-")
	assert.Equal(t, Key("/", nil)[:5], "root-")
}
