package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thomas-vilte/mateissue/internal/models"
)

func setupTestCache(t *testing.T) (*Cache, string) {
	t.Helper()
	tempDir := t.TempDir()

	c := &Cache{
		cacheDir: tempDir,
		now:      func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
	}
	return c, tempDir
}

func TestNewCacheAt(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")

	c, err := NewCacheAt(dir)

	require.NoError(t, err)
	assert.Equal(t, dir, c.Dir())
	_, statErr := os.Stat(dir)
	assert.NoError(t, statErr, "cache directory should be created")
}

func TestFingerprint_Key(t *testing.T) {
	fp := models.Fingerprint{Path: "/repos/demo", CommitHash: "abc123"}

	key := fp.Key("history")
	assert.Len(t, key, 64)
	assert.Equal(t, key, models.Fingerprint{Path: "/repos/demo/", CommitHash: "def456"}.Key("history"),
		"the key ignores the commit and trailing separators")
	assert.NotEqual(t, key, fp.Key("minimal"))
	assert.NotEqual(t, key, models.Fingerprint{Path: "/repos/other", CommitHash: "abc123"}.Key("history"))
}

func TestCache_SetAndGet(t *testing.T) {
	c, _ := setupTestCache(t)
	fp := models.Fingerprint{Path: "/repos/demo", CommitHash: "abc123"}
	analysis := &models.RepositoryAnalysis{
		RepoPath:   "/repos/demo",
		RepoName:   "demo",
		HeadCommit: "abc123",
		AnalyzedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Commits: []models.CommitInfo{
			{Hash: "abc123", Author: "Ana", Email: "ana@example.com", Message: "feat: init",
				FilesChanged: []string{"main.go"}, Insertions: 10,
				Date: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		},
		FileChanges: models.FileChangeSummary{
			New:     []string{"main.go"},
			PerFile: map[string]int{"main.go": 1},
		},
		Contributors: []models.Contributor{{Name: "Ana", Email: "ana@example.com", Commits: 1, Insertions: 10}},
		Manifests: []models.DependencyManifest{
			{Ecosystem: "go", Path: "go.mod", Dependencies: []models.Dependency{{Name: "golang.org/x/mod", Version: "v0.34.0"}}},
		},
	}

	require.NoError(t, c.Set(fp, "history:50", analysis))

	raw, found, err := c.Get(fp, "history:50")
	require.NoError(t, err)
	require.True(t, found)

	var got models.RepositoryAnalysis
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, *analysis, got)
}

func TestCache_Get_NotFound(t *testing.T) {
	c, _ := setupTestCache(t)

	_, found, err := c.Get(models.Fingerprint{Path: "/nope", CommitHash: "x"}, "history")

	assert.NoError(t, err)
	assert.False(t, found)
}

func TestCache_Get_StaleCommit(t *testing.T) {
	c, _ := setupTestCache(t)
	fp := models.Fingerprint{Path: "/repos/demo", CommitHash: "old"}
	require.NoError(t, c.Set(fp, "history", map[string]string{"a": "b"}))

	_, found, err := c.Get(models.Fingerprint{Path: "/repos/demo", CommitHash: "new"}, "history")

	assert.NoError(t, err)
	assert.False(t, found, "entry recorded for another commit must be a miss")
}

func TestCache_Set_OverwritesSameKey(t *testing.T) {
	c, dir := setupTestCache(t)
	require.NoError(t, c.Set(models.Fingerprint{Path: "/r", CommitHash: "one"}, "history", "first"))
	require.NoError(t, c.Set(models.Fingerprint{Path: "/r", CommitHash: "two"}, "history", "second"))

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1, "last writer wins on the same path and kind")

	raw, found, err := c.Get(models.Fingerprint{Path: "/r", CommitHash: "two"}, "history")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `"second"`, string(raw))
}

func TestCache_Get_UnmarshalError(t *testing.T) {
	c, dir := setupTestCache(t)
	fp := models.Fingerprint{Path: "/corrupt", CommitHash: "x"}
	require.NoError(t, os.WriteFile(filepath.Join(dir, fp.Key("history")+".json"), []byte("invalid json{"), 0644))

	_, found, err := c.Get(fp, "history")

	assert.Error(t, err)
	assert.False(t, found)
}

func TestCache_Set_MarshalError(t *testing.T) {
	c, _ := setupTestCache(t)

	err := c.Set(models.Fingerprint{Path: "/r", CommitHash: "x"}, "history", make(chan int))

	assert.Error(t, err)
}

func TestCache_DeleteAndEntries(t *testing.T) {
	c, dir := setupTestCache(t)
	a := models.Fingerprint{Path: "/a", CommitHash: "1"}
	b := models.Fingerprint{Path: "/b", CommitHash: "2"}
	require.NoError(t, c.Set(a, "history", 1))
	require.NoError(t, c.Set(b, "history", 2))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "garbage.json"), []byte("{"), 0644))

	entries, err := c.Entries()
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	require.NoError(t, c.Delete(a, "history"))
	require.NoError(t, c.Delete(a, "history"), "deleting a missing entry is not an error")

	entries, err = c.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "/b", entries[0].Path)
}

func TestCache_Clean(t *testing.T) {
	c, dir := setupTestCache(t)
	require.NoError(t, c.Set(models.Fingerprint{Path: "/a", CommitHash: "1"}, "history", "data"))

	require.NoError(t, c.Clean())

	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "cache directory should be removed")
}
