package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Files [][2]string `json:"files"`
}

func TestStore_ReadMissing(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "deps.json"), 2)

	var out payload
	found, err := store.Read(&out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_WriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deps.json")
	store := New(path, 2)

	in := payload{Files: [][2]string{{"app.config.ts", "abc123"}}}
	require.NoError(t, store.Write(in))

	var out payload
	found, err := store.Read(&out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, in, out)
}

func TestStore_VersionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deps.json")

	require.NoError(t, New(path, 1).Write(payload{Files: [][2]string{{"a", "b"}}}))

	var out payload
	found, err := New(path, 2).Read(&out)
	require.NoError(t, err)
	assert.False(t, found, "stale schema version must read as absent")
}

func TestStore_MalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deps.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	var out payload
	_, err := New(path, 2).Read(&out)
	require.Error(t, err, "malformed cache JSON is fatal, not a miss")
	assert.Contains(t, err.Error(), "failed to parse cache file")
}

func TestStore_WriteIsPrettyPrinted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deps.json")
	require.NoError(t, New(path, 2).Write(payload{Files: [][2]string{{"a", "b"}}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"schemaVersion\": 2")
	assert.Contains(t, string(data), "\n  \"files\"")
}

func TestStore_WriteReplacesWholeDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deps.json")
	store := New(path, 2)

	require.NoError(t, store.Write(payload{Files: [][2]string{{"a", "1"}, {"b", "2"}}}))
	require.NoError(t, store.Write(payload{Files: [][2]string{{"c", "3"}}}))

	var out payload
	found, err := store.Read(&out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, [][2]string{{"c", "3"}}, out.Files)
}

func TestStore_WriteMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist", "deps.json")

	err := New(path, 2).Write(payload{})
	require.Error(t, err, "callers must create the cache directory before the first write")
}

func TestStore_WriteRejectsNonObjectPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deps.json")

	err := New(path, 2).Write([]string{"not", "an", "object"})
	require.Error(t, err)
}
