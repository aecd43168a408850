package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/williamokano/sshrun/pkg/storage"
)

func newTestBackend(t *testing.T) (*Backend, string) {
	t.Helper()
	dir := t.TempDir()
	backend, err := New(storage.Config{
		Name:    "local_test",
		Type:    "local",
		Enabled: true,
		Options: map[string]interface{}{"path": dir},
	})
	require.NoError(t, err)
	return backend, dir
}

func writeSource(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.log")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNew_RequiresPath(t *testing.T) {
	_, err := New(storage.Config{Name: "x", Type: "local"})
	require.Error(t, err)
}

func TestWriteAndStat(t *testing.T) {
	backend, _ := newTestBackend(t)
	source := writeSource(t, "transcript content\n")

	err := backend.Write(context.Background(), source, "web1--2025-08-28T10-00-00.log")
	require.NoError(t, err)

	info, err := backend.Stat(context.Background(), "web1--2025-08-28T10-00-00.log")
	require.NoError(t, err)
	assert.Equal(t, int64(len("transcript content\n")), info.Size)
}

func TestExists(t *testing.T) {
	backend, _ := newTestBackend(t)
	source := writeSource(t, "data")

	ok, err := backend.Exists(context.Background(), "missing.log")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, backend.Write(context.Background(), source, "present.log"))
	ok, err = backend.Exists(context.Background(), "present.log")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDelete(t *testing.T) {
	backend, _ := newTestBackend(t)
	source := writeSource(t, "data")

	require.NoError(t, backend.Write(context.Background(), source, "doomed.log"))
	require.NoError(t, backend.Delete(context.Background(), "doomed.log"))

	ok, err := backend.Exists(context.Background(), "doomed.log")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestList(t *testing.T) {
	backend, dir := newTestBackend(t)
	source := writeSource(t, "data")

	require.NoError(t, backend.Write(context.Background(), source, "web1--2025-08-01T10-00-00.log"))
	require.NoError(t, backend.Write(context.Background(), source, "web1--2025-08-02T10-00-00.log"))
	require.NoError(t, backend.Write(context.Background(), source, "db1--2025-08-01T10-00-00.log"))

	// Aborted transcript, must be ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "web1--2025-08-03T10-00-00.log"), nil, 0644))

	files, err := backend.List(context.Background(), "web1--*.log")
	require.NoError(t, err)
	require.Len(t, files, 2)
	for _, f := range files {
		assert.Contains(t, f.Path, "web1--")
		assert.Greater(t, f.Size, int64(0))
	}
}

func TestStat_NotFound(t *testing.T) {
	backend, _ := newTestBackend(t)

	_, err := backend.Stat(context.Background(), "missing.log")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFactoryRegistration(t *testing.T) {
	factory := storage.NewFactory()
	backend, err := factory.Create(context.Background(), storage.Config{
		Name:    "via_factory",
		Type:    "local",
		Enabled: true,
		Options: map[string]interface{}{"path": t.TempDir()},
	})
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	assert.Equal(t, "via_factory", backend.Name())
	assert.Equal(t, "local", backend.Type())
}
