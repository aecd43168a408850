package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/williamokano/sshrun/pkg/sshauth"
	"github.com/williamokano/sshrun/pkg/sshtest"
)

func newTestSession(t *testing.T, responses map[string]sshtest.Response) (*Session, *sshtest.Server) {
	t.Helper()

	server, err := sshtest.NewServer(sshtest.Config{
		PasswordCallback: sshtest.PasswordAuth("someuser", "somepassword"),
		Responses:        responses,
	})
	require.NoError(t, err)
	t.Cleanup(func() { server.Close() })

	client, err := sshauth.Authenticate(context.Background(), server.Addr(), sshauth.Credentials{
		User:     "someuser",
		Password: "somepassword",
	})
	require.NoError(t, err)

	sess := New(client)
	t.Cleanup(func() { sess.Close() })

	return sess, server
}

func TestRun_Success(t *testing.T) {
	sess, server := newTestSession(t, map[string]sshtest.Response{
		"ls": {Stdout: "file1\nfile2\n"},
	})

	result, err := sess.Run(context.Background(), "ls")
	require.NoError(t, err)

	assert.Equal(t, "ls", result.Command)
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, "file1\nfile2\n", result.Stdout)
	assert.Empty(t, result.Stderr)
	assert.Equal(t, []string{"ls"}, server.Commands())
}

func TestRun_NonzeroExitIsData(t *testing.T) {
	sess, _ := newTestSession(t, map[string]sshtest.Response{
		"false": {ExitCode: 1},
	})

	result, err := sess.Run(context.Background(), "false")
	require.NoError(t, err)
	assert.Equal(t, 1, result.ExitCode)
}

func TestRun_CapturesStderr(t *testing.T) {
	sess, _ := newTestSession(t, map[string]sshtest.Response{
		"broken": {Stderr: "boom\n", ExitCode: 2},
	})

	result, err := sess.Run(context.Background(), "broken")
	require.NoError(t, err)
	assert.Equal(t, 2, result.ExitCode)
	assert.Equal(t, "boom\n", result.Stderr)
}

func TestRun_MultipleCommandsInOrder(t *testing.T) {
	sess, server := newTestSession(t, map[string]sshtest.Response{
		"uptime":   {Stdout: "up 3 days\n"},
		"hostname": {Stdout: "web1\n"},
	})

	for _, cmd := range []string{"uptime", "hostname"} {
		_, err := sess.Run(context.Background(), cmd)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"uptime", "hostname"}, server.Commands())
}

func TestRun_CancelledContext(t *testing.T) {
	sess, _ := newTestSession(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sess.Run(ctx, "sleep 60")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_AfterClose(t *testing.T) {
	sess, _ := newTestSession(t, nil)
	require.NoError(t, sess.Close())

	_, err := sess.Run(context.Background(), "ls")
	require.Error(t, err)
}
