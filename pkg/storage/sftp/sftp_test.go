package sftp

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/williamokano/sshrun/pkg/sshtest"
	"github.com/williamokano/sshrun/pkg/storage"
)

func newTestBackend(t *testing.T) (*Backend, string) {
	t.Helper()

	server, err := sshtest.NewServer(sshtest.Config{
		PasswordCallback: sshtest.PasswordAuth("transcripts", "secret"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { server.Close() })

	host, portStr, err := net.SplitHostPort(server.Addr())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	remoteDir := t.TempDir()
	backend, err := New(context.Background(), storage.Config{
		Name:    "sftp_archive",
		Type:    "sftp",
		Enabled: true,
		Options: map[string]interface{}{
			"host":        host,
			"port":        float64(port),
			"user":        "transcripts",
			"password":    "secret",
			"remote_path": remoteDir,
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	return backend, remoteDir
}

func writeSource(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.log")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNew_BadCredentials(t *testing.T) {
	server, err := sshtest.NewServer(sshtest.Config{
		PasswordCallback: sshtest.PasswordAuth("transcripts", "secret"),
	})
	require.NoError(t, err)
	defer server.Close()

	host, portStr, err := net.SplitHostPort(server.Addr())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	_, err = New(context.Background(), storage.Config{
		Name: "sftp_archive",
		Type: "sftp",
		Options: map[string]interface{}{
			"host":        host,
			"port":        float64(port),
			"user":        "transcripts",
			"password":    "wrong",
			"remote_path": t.TempDir(),
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrAuthFailed)
}

func TestWriteStatExistsDelete(t *testing.T) {
	backend, _ := newTestBackend(t)
	ctx := context.Background()
	source := writeSource(t, "transcript content\n")

	require.NoError(t, backend.Write(ctx, source, "web1--2025-08-28T10-00-00.log"))

	info, err := backend.Stat(ctx, "web1--2025-08-28T10-00-00.log")
	require.NoError(t, err)
	assert.Equal(t, int64(len("transcript content\n")), info.Size)

	ok, err := backend.Exists(ctx, "web1--2025-08-28T10-00-00.log")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, backend.Delete(ctx, "web1--2025-08-28T10-00-00.log"))

	ok, err = backend.Exists(ctx, "web1--2025-08-28T10-00-00.log")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestList(t *testing.T) {
	backend, remoteDir := newTestBackend(t)
	ctx := context.Background()
	source := writeSource(t, "data")

	require.NoError(t, backend.Write(ctx, source, "web1--2025-08-01T10-00-00.log"))
	require.NoError(t, backend.Write(ctx, source, "web1--2025-08-02T10-00-00.log"))
	require.NoError(t, backend.Write(ctx, source, "db1--2025-08-01T10-00-00.log"))

	// Aborted transcript, must be ignored
	require.NoError(t, os.WriteFile(filepath.Join(remoteDir, "web1--2025-08-03T10-00-00.log"), nil, 0644))

	files, err := backend.List(ctx, "web1--*.log")
	require.NoError(t, err)
	require.Len(t, files, 2)
	for _, f := range files {
		assert.Contains(t, f.Path, "web1--")
	}
}

func TestSession_ConcurrentReconnect(t *testing.T) {
	backend, _ := newTestBackend(t)
	ctx := context.Background()
	source := writeSource(t, "data")

	require.NoError(t, backend.Write(ctx, source, "web1--2025-08-01T10-00-00.log"))

	// Drop the transport out from under the backend so every caller sees a
	// dead connection at once.
	backend.mu.Lock()
	require.NoError(t, backend.client.Close())
	backend.mu.Unlock()

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = backend.Stat(ctx, "web1--2025-08-01T10-00-00.log")
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
}

func TestStat_NotFound(t *testing.T) {
	backend, _ := newTestBackend(t)

	_, err := backend.Stat(context.Background(), "missing.log")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
