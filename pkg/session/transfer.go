package session

import (
	"fmt"
	"io"
	"os"
	"path"

	"github.com/pkg/sftp"
)

// Upload copies a local file to the remote via SFTP, creating parent
// directories as needed.
func (s *Session) Upload(localPath, remotePath string) error {
	client, err := sftp.NewClient(s.client)
	if err != nil {
		return fmt.Errorf("sftp init: %w", err)
	}
	defer client.Close()

	local, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", localPath, err)
	}
	defer local.Close()

	if dir := path.Dir(remotePath); dir != "." {
		if err := client.MkdirAll(dir); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	remote, err := client.Create(remotePath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", remotePath, err)
	}
	defer remote.Close()

	if _, err := io.Copy(remote, local); err != nil {
		return fmt.Errorf("uploading %s: %w", remotePath, err)
	}

	return nil
}

// Download copies a remote file to the local filesystem via SFTP.
func (s *Session) Download(remotePath, localPath string) error {
	client, err := sftp.NewClient(s.client)
	if err != nil {
		return fmt.Errorf("sftp init: %w", err)
	}
	defer client.Close()

	remote, err := client.Open(remotePath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", remotePath, err)
	}
	defer remote.Close()

	local, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", localPath, err)
	}
	defer local.Close()

	if _, err := io.Copy(local, remote); err != nil {
		os.Remove(localPath) // Clean up partial file
		return fmt.Errorf("downloading %s: %w", remotePath, err)
	}

	return nil
}
