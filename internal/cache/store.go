package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const cacheFileExtension = ".json"

type constError string

func (e constError) Error() string { return string(e) }

// Sentinel errors.
var (
	ErrCacheNotFound   = constError("cache entry not found")
	ErrCacheExpired    = constError("cache entry expired")
	ErrInvalidCacheKey = constError("cache key cannot be empty")
	ErrCacheDisabled   = constError("cache is disabled")
)

// Options configures a FileStore.
type Options struct {
	Directory string
	Enabled   bool
	TTL       time.Duration
	MaxSizeMB int

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// FileStore is a directory of JSON cache entries. It is safe for concurrent use.
type FileStore struct {
	directory string
	enabled   bool
	ttl       time.Duration
	maxBytes  int64
	now       func() time.Time

	mu sync.RWMutex
}

// NewFileStore creates the cache directory if needed. A disabled store is
// returned without touching the filesystem.
func NewFileStore(opts Options) (*FileStore, error) {
	if !opts.Enabled {
		return &FileStore{enabled: false}, nil
	}
	if opts.Directory == "" {
		return nil, errors.New("cache directory cannot be empty")
	}
	if opts.TTL <= 0 {
		return nil, fmt.Errorf("cache TTL must be positive, got %s", opts.TTL)
	}
	if err := os.MkdirAll(opts.Directory, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &FileStore{
		directory: opts.Directory,
		enabled:   true,
		ttl:       opts.TTL,
		maxBytes:  int64(opts.MaxSizeMB) * 1024 * 1024,
		now:       now,
	}, nil
}

// Get returns a live entry. Expired entries are deleted and reported as ErrCacheExpired.
func (s *FileStore) Get(key string) (*Entry, error) {
	if !s.enabled {
		return nil, ErrCacheDisabled
	}
	if key == "" {
		return nil, ErrInvalidCacheKey
	}

	s.mu.RLock()
	entry, err := s.read(s.path(key))
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	if entry.ExpiredAt(s.now()) {
		s.mu.Lock()
		_ = os.Remove(s.path(key))
		s.mu.Unlock()
		return nil, ErrCacheExpired
	}
	return entry, nil
}

// Set stores data under key, replacing any previous entry atomically.
func (s *FileStore) Set(key string, data json.RawMessage) error {
	if !s.enabled {
		return ErrCacheDisabled
	}
	if key == "" {
		return ErrInvalidCacheKey
	}

	encoded, err := json.Marshal(newEntry(key, data, s.ttl, s.now()))
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	filePath := s.path(key)
	tempPath := filePath + ".tmp"
	if err = os.WriteFile(tempPath, encoded, 0o600); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err = os.Rename(tempPath, filePath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename cache file: %w", err)
	}
	return s.evictLocked(filePath)
}

// Delete removes key. Missing keys are not an error.
func (s *FileStore) Delete(key string) error {
	if !s.enabled {
		return ErrCacheDisabled
	}
	if key == "" {
		return ErrInvalidCacheKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete cache file: %w", err)
	}
	return nil
}

// Clear removes every entry.
func (s *FileStore) Clear() error {
	if !s.enabled {
		return ErrCacheDisabled
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.listLocked()
	if err != nil {
		return err
	}
	for _, f := range files {
		if removeErr := os.Remove(f.path); removeErr != nil && !os.IsNotExist(removeErr) {
			return fmt.Errorf("failed to remove cache file %s: %w", filepath.Base(f.path), removeErr)
		}
	}
	return nil
}

// CleanupExpired removes stale and unreadable entries and returns how many were removed.
func (s *FileStore) CleanupExpired() (int, error) {
	if !s.enabled {
		return 0, ErrCacheDisabled
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.listLocked()
	if err != nil {
		return 0, err
	}
	now := s.now()
	removed := 0
	for _, f := range files {
		entry, readErr := s.read(f.path)
		if readErr != nil || entry.ExpiredAt(now) {
			if os.Remove(f.path) == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// Stats summarises the store contents.
type Stats struct {
	Entries   int   `json:"entries"`
	SizeBytes int64 `json:"size_bytes"`
}

// Stats counts entries and their total size.
func (s *FileStore) Stats() (Stats, error) {
	if !s.enabled {
		return Stats{}, ErrCacheDisabled
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	files, err := s.listLocked()
	if err != nil {
		return Stats{}, err
	}
	st := Stats{Entries: len(files)}
	for _, f := range files {
		st.SizeBytes += f.size
	}
	return st, nil
}

// IsEnabled reports whether the store caches anything.
func (s *FileStore) IsEnabled() bool { return s.enabled }

// Directory returns the cache directory.
func (s *FileStore) Directory() string { return s.directory }

// TTL returns the entry lifetime.
func (s *FileStore) TTL() time.Duration { return s.ttl }

type cacheFile struct {
	path    string
	size    int64
	modTime time.Time
}

func (s *FileStore) listLocked() ([]cacheFile, error) {
	dirEntries, err := os.ReadDir(s.directory)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache directory: %w", err)
	}
	files := make([]cacheFile, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() || filepath.Ext(de.Name()) != cacheFileExtension {
			continue
		}
		info, infoErr := de.Info()
		if infoErr != nil {
			continue
		}
		files = append(files, cacheFile{
			path:    filepath.Join(s.directory, de.Name()),
			size:    info.Size(),
			modTime: info.ModTime(),
		})
	}
	return files, nil
}

// evictLocked deletes the oldest entries until the store fits maxBytes.
// keep is never evicted.
func (s *FileStore) evictLocked(keep string) error {
	if s.maxBytes <= 0 {
		return nil
	}
	files, err := s.listLocked()
	if err != nil {
		return err
	}
	var total int64
	for _, f := range files {
		total += f.size
	}
	if total <= s.maxBytes {
		return nil
	}
	sort.Slice(files, func(i, j int) bool { return files[i].modTime.Before(files[j].modTime) })
	for _, f := range files {
		if total <= s.maxBytes {
			break
		}
		if f.path == keep {
			continue
		}
		if os.Remove(f.path) == nil {
			total -= f.size
		}
	}
	return nil
}

func (s *FileStore) read(path string) (*Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCacheNotFound
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}
	var entry Entry
	if err = json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}
	return &entry, nil
}

func (s *FileStore) path(key string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(key)
	return filepath.Join(s.directory, safe+cacheFileExtension)
}
