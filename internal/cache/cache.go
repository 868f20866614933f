package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/thomas-vilte/mateissue/internal/errors"
	"github.com/thomas-vilte/mateissue/internal/models"
	"github.com/thomas-vilte/mateissue/internal/ports"
)

var _ ports.AnalysisCache = (*Cache)(nil)

// Entry is the on-disk record of one cached value.
type Entry struct {
	Key        string          `json:"key"`
	Path       string          `json:"path"`
	CommitHash string          `json:"commit_hash"`
	Kind       string          `json:"kind"`
	Timestamp  time.Time       `json:"timestamp"`
	Data       json.RawMessage `json:"data"`
}

// Cache keeps derived repository data as one JSON file per fingerprint key.
// Entries never expire by age; a different commit hash makes them stale.
type Cache struct {
	cacheDir string
	now      func() time.Time
}

// NewCache opens the cache under ~/.mateissue/cache.
func NewCache() (*Cache, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.NewAppError(errors.TypeInternal, "failed to resolve home directory", err)
	}
	return NewCacheAt(filepath.Join(home, ".mateissue", "cache"))
}

// NewCacheAt opens (and creates) a cache rooted at dir.
func NewCacheAt(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.NewAppError(errors.TypeInternal, "failed to create cache directory", err)
	}
	return &Cache{cacheDir: dir, now: time.Now}, nil
}

// Dir returns the directory holding the cache files.
func (c *Cache) Dir() string {
	return c.cacheDir
}

// Get returns the stored data for fp and kind. A missing entry, or one
// recorded for another commit, is reported as not found without error.
func (c *Cache) Get(fp models.Fingerprint, kind string) (json.RawMessage, bool, error) {
	entry, err := c.readEntry(fp.Key(kind))
	if err != nil || entry == nil {
		return nil, false, err
	}
	if entry.CommitHash != fp.CommitHash || entry.Kind != kind {
		return nil, false, nil
	}
	return entry.Data, true, nil
}

// Set stores value for fp and kind, replacing any previous entry for the
// same path and kind.
func (c *Cache) Set(fp models.Fingerprint, kind string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	key := fp.Key(kind)
	entry := Entry{
		Key:        key,
		Path:       filepath.Clean(fp.Path),
		CommitHash: fp.CommitHash,
		Kind:       kind,
		Timestamp:  c.now().UTC(),
		Data:       data,
	}

	raw, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	tmp, err := os.CreateTemp(c.cacheDir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create cache temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close cache file: %w", err)
	}

	if err := os.Rename(tmpName, c.filePath(key)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to commit cache file: %w", err)
	}
	return nil
}

// Delete removes the entry for fp and kind, if any.
func (c *Cache) Delete(fp models.Fingerprint, kind string) error {
	err := os.Remove(c.filePath(fp.Key(kind)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete cache file: %w", err)
	}
	return nil
}

// Entries lists every readable entry in the cache. Corrupt files are skipped.
func (c *Cache) Entries() ([]Entry, error) {
	files, err := os.ReadDir(c.cacheDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cache directory: %w", err)
	}

	var entries []Entry
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		entry, err := c.readEntry(strings.TrimSuffix(f.Name(), ".json"))
		if err != nil || entry == nil {
			continue
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

// Clean removes the whole cache directory.
func (c *Cache) Clean() error {
	return os.RemoveAll(c.cacheDir)
}

func (c *Cache) readEntry(key string) (*Entry, error) {
	data, err := os.ReadFile(c.filePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}
	return &entry, nil
}

func (c *Cache) filePath(key string) string {
	return filepath.Join(c.cacheDir, key+".json")
}
