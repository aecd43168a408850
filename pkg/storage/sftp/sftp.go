package sftp

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"sync"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/williamokano/sshrun/pkg/sshauth"
	"github.com/williamokano/sshrun/pkg/storage"
)

// Backend stores transcripts on a remote host over SFTP. The underlying SSH
// connection goes through the same credential resolution and negotiation as
// command sessions, so a backend entry accepts the same password/identity
// options a remote does.
type Backend struct {
	name   string
	config *Config

	mu     sync.Mutex
	client *ssh.Client
	sftp   *sftp.Client
}

func init() {
	storage.RegisterBackend("sftp", func(ctx context.Context, cfg storage.Config) (storage.Backend, error) {
		return New(ctx, cfg)
	})
}

// New creates an SFTP backend and establishes the connection eagerly so that
// misconfigured credentials surface at startup, not on the first upload.
func New(ctx context.Context, cfg storage.Config) (*Backend, error) {
	config, err := parseConfig(cfg.Options)
	if err != nil {
		return nil, err
	}
	if cfg.BaseDir != "" && config.RemotePath == "" {
		config.RemotePath = cfg.BaseDir
	}

	b := &Backend{
		name:   cfg.Name,
		config: config,
	}

	b.mu.Lock()
	err = b.connectLocked(ctx)
	b.mu.Unlock()
	if err != nil {
		return nil, err
	}

	return b, nil
}

// connectLocked dials the host and builds the SFTP session. Caller holds b.mu.
func (b *Backend) connectLocked(ctx context.Context) error {
	creds := sshauth.Credentials{
		User:       b.config.User,
		Password:   b.config.Password,
		Identity:   b.config.Identity,
		Passphrase: b.config.Passphrase,
	}

	addr := fmt.Sprintf("%s:%d", b.config.Host, b.config.Port)
	client, err := sshauth.Authenticate(ctx, addr, creds)
	if err != nil {
		if sshauth.IsAuthFail(err) || sshauth.IsUserauthFail(err) {
			return storage.WrapError(b.name, "connect", fmt.Errorf("%w: %v", storage.ErrAuthFailed, err))
		}
		return storage.WrapError(b.name, "connect", fmt.Errorf("%w: %v", storage.ErrConnFailed, err))
	}

	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		_ = client.Close()
		return storage.WrapError(b.name, "connect", fmt.Errorf("%w: %v", storage.ErrConnFailed, err))
	}

	b.client = client
	b.sftp = sftpClient

	return nil
}

// session returns the live SFTP client, reconnecting if the connection
// dropped since the last operation. Probe, teardown, and reconnect happen
// under one critical section so two callers hitting a dead connection at
// the same time cannot both dial and leak a client.
func (b *Backend) session(ctx context.Context) (*sftp.Client, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sftp != nil {
		// Cheap liveness probe; Getwd fails fast on a dead connection.
		if _, err := b.sftp.Getwd(); err == nil {
			return b.sftp, nil
		}
		_ = b.closeLocked()
	}

	if err := b.connectLocked(ctx); err != nil {
		return nil, err
	}

	return b.sftp, nil
}

func (b *Backend) Name() string { return b.name }
func (b *Backend) Type() string { return "sftp" }

// Write uploads a file to the remote path. Connection-level failures are
// retried with backoff; auth and configuration failures are not.
func (b *Backend) Write(ctx context.Context, sourcePath, destPath string) error {
	return storage.WithRetry(ctx, storage.DefaultRetryConfig(), func() error {
		return b.write(ctx, sourcePath, destPath)
	})
}

func (b *Backend) write(ctx context.Context, sourcePath, destPath string) error {
	client, err := b.session(ctx)
	if err != nil {
		return err
	}

	remotePath := path.Join(b.config.RemotePath, destPath)

	if err := client.MkdirAll(path.Dir(remotePath)); err != nil {
		return storage.WrapError(b.name, "write", err)
	}

	source, err := os.Open(sourcePath)
	if err != nil {
		return storage.WrapError(b.name, "write", err)
	}
	defer source.Close()

	dest, err := client.Create(remotePath)
	if err != nil {
		return storage.WrapError(b.name, "write", err)
	}

	if _, err := io.Copy(dest, source); err != nil {
		_ = dest.Close()
		_ = client.Remove(remotePath) // Clean up partial file
		return storage.WrapError(b.name, "write", err)
	}

	if err := dest.Close(); err != nil {
		return storage.WrapError(b.name, "write", err)
	}

	return nil
}

// Delete removes a file from the remote path
func (b *Backend) Delete(ctx context.Context, filePath string) error {
	client, err := b.session(ctx)
	if err != nil {
		return err
	}

	remotePath := path.Join(b.config.RemotePath, filePath)
	if err := client.Remove(remotePath); err != nil {
		if os.IsNotExist(err) {
			return storage.ErrNotFound
		}
		return storage.WrapError(b.name, "delete", err)
	}
	return nil
}

// List returns files matching the pattern, newest first
func (b *Backend) List(ctx context.Context, pattern string) ([]storage.FileInfo, error) {
	client, err := b.session(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := client.ReadDir(b.config.RemotePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, storage.WrapError(b.name, "list", err)
	}

	var files []storage.FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		matched, err := path.Match(pattern, entry.Name())
		if err != nil {
			return nil, storage.WrapError(b.name, "list", err)
		}
		if !matched {
			continue
		}

		// Skip 0-byte files (aborted transcripts)
		if entry.Size() == 0 {
			continue
		}

		files = append(files, storage.FileInfo{
			Path:    entry.Name(),
			Size:    entry.Size(),
			ModTime: entry.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime.After(files[j].ModTime)
	})

	return files, nil
}

// Stat returns metadata about a file
func (b *Backend) Stat(ctx context.Context, filePath string) (*storage.FileInfo, error) {
	client, err := b.session(ctx)
	if err != nil {
		return nil, err
	}

	remotePath := path.Join(b.config.RemotePath, filePath)
	info, err := client.Stat(remotePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrNotFound
		}
		return nil, storage.WrapError(b.name, "stat", err)
	}

	return &storage.FileInfo{
		Path:    filePath,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// Exists checks if a file exists on the remote
func (b *Backend) Exists(ctx context.Context, filePath string) (bool, error) {
	_, err := b.Stat(ctx, filePath)
	if err != nil {
		if err == storage.ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Close tears down the SFTP session and the SSH connection
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closeLocked()
}

func (b *Backend) closeLocked() error {
	var firstErr error
	if b.sftp != nil {
		if err := b.sftp.Close(); err != nil {
			firstErr = err
		}
		b.sftp = nil
	}
	if b.client != nil {
		if err := b.client.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		b.client = nil
	}
	return firstErr
}
