package jsruntime

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArtifact(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.js")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestLoadFresh_ImmediateValue(t *testing.T) {
	artifact := writeArtifact(t, "module.exports.config = { port: 3000 };\n")

	export, err := New().LoadFresh(context.Background(), artifact, "1")
	require.NoError(t, err)
	require.NotNil(t, export)
	require.Nil(t, export.Producer)

	value, ok := export.Value.(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 3000, value["port"])
}

func TestLoadFresh_MissingExport(t *testing.T) {
	artifact := writeArtifact(t, "module.exports.other = 1;\n")

	export, err := New().LoadFresh(context.Background(), artifact, "1")
	require.NoError(t, err)
	assert.Nil(t, export, "a module without the export reads as absent")
}

func TestLoadFresh_MissingArtifact(t *testing.T) {
	_, err := New().LoadFresh(context.Background(), filepath.Join(t.TempDir(), "config.js"), "1")
	require.Error(t, err)
}

func TestLoadFresh_DeferredPlainFunction(t *testing.T) {
	artifact := writeArtifact(t, "module.exports.config = function () { return { port: 4000 }; };\n")

	export, err := New().LoadFresh(context.Background(), artifact, "1")
	require.NoError(t, err)
	require.NotNil(t, export)
	require.NotNil(t, export.Producer, "a callable export is a deferred producer")

	value, err := export.Producer(context.Background())
	require.NoError(t, err)

	config, ok := value.(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 4000, config["port"])
}

func TestLoadFresh_DeferredAsyncFunction(t *testing.T) {
	artifact := writeArtifact(t, "module.exports.config = async function () { return { ok: true }; };\n")

	export, err := New().LoadFresh(context.Background(), artifact, "1")
	require.NoError(t, err)
	require.NotNil(t, export)
	require.NotNil(t, export.Producer)

	value, err := export.Producer(context.Background())
	require.NoError(t, err)

	config, ok := value.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, config["ok"])
}

func TestLoadFresh_DeferredTimerPromise(t *testing.T) {
	artifact := writeArtifact(t, `module.exports.config = function () {
  return new Promise(function (resolve) {
    setTimeout(function () { resolve({ later: true }); }, 5);
  });
};
`)

	export, err := New().LoadFresh(context.Background(), artifact, "1")
	require.NoError(t, err)
	require.NotNil(t, export)
	require.NotNil(t, export.Producer)

	value, err := export.Producer(context.Background())
	require.NoError(t, err)

	config, ok := value.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, config["later"])
}

func TestLoadFresh_RejectedProducer(t *testing.T) {
	artifact := writeArtifact(t, "module.exports.config = async function () { throw new Error(\"boom\"); };\n")

	export, err := New().LoadFresh(context.Background(), artifact, "1")
	require.NoError(t, err)
	require.NotNil(t, export)
	require.NotNil(t, export.Producer)

	_, err = export.Producer(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestLoadFresh_EvaluationError(t *testing.T) {
	artifact := writeArtifact(t, "throw new Error(\"bad config\");\n")

	_, err := New().LoadFresh(context.Background(), artifact, "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad config")
}

func TestLoadFresh_IsolatedBetweenLoads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.js")
	require.NoError(t, os.WriteFile(path, []byte("module.exports.config = { port: 3000 };\n"), 0o644))

	first, err := New().LoadFresh(context.Background(), path, "1")
	require.NoError(t, err)

	// Rewrite the artifact; a fresh load must observe the new content
	require.NoError(t, os.WriteFile(path, []byte("module.exports.config = { port: 3001 };\n"), 0o644))

	second, err := New().LoadFresh(context.Background(), path, "2")
	require.NoError(t, err)

	assert.EqualValues(t, 3000, first.Value.(map[string]any)["port"])
	assert.EqualValues(t, 3001, second.Value.(map[string]any)["port"])
}
