package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/ssh"
)

// Session wraps an authenticated SSH client for command execution. It is
// only constructed from a client returned by sshauth.Authenticate, which
// keeps the invariant that no command ever runs on a connection whose
// authentication failed.
type Session struct {
	client *ssh.Client
}

// Result holds the outcome of a single remote command.
type Result struct {
	Command  string
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// New wraps an authenticated SSH client.
func New(client *ssh.Client) *Session {
	return &Session{client: client}
}

// Run executes a single command on the remote and captures its output.
//
// A nonzero remote exit status is data, not an error: it is reported in
// Result.ExitCode with a nil error. The returned error is non-nil only for
// transport-level failures (channel setup, connection loss, cancellation).
func (s *Session) Run(ctx context.Context, command string) (Result, error) {
	start := time.Now()

	result := Result{Command: command}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	sess, err := s.client.NewSession()
	if err != nil {
		return result, fmt.Errorf("opening session: %w", err)
	}
	defer sess.Close()

	var stdout, stderr bytes.Buffer
	sess.Stdout = &stdout
	sess.Stderr = &stderr

	// Tear the session down on cancellation to unblock Run.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, func() {
		_ = sess.Close()
	})
	defer stop()

	runErr := sess.Run(command)

	result.Stdout = stdout.String()
	result.Stderr = stderr.String()
	result.Duration = time.Since(start)

	if runErr != nil {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		var exitErr *ssh.ExitError
		if errors.As(runErr, &exitErr) {
			result.ExitCode = exitErr.ExitStatus()
			return result, nil
		}
		return result, fmt.Errorf("running %q: %w", command, runErr)
	}

	return result, nil
}

// Close releases the underlying SSH connection.
func (s *Session) Close() error {
	return s.client.Close()
}
