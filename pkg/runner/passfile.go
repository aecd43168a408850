package runner

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GetPassfilePath returns the path to the password lookup file.
// Priority: 1) Config specified path, 2) /config/.sshpass (Docker), 3) ~/.sshpass
func GetPassfilePath(configPath string) (string, error) {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}
		return "", fmt.Errorf("configured password file not found: %s", configPath)
	}

	dockerPath := "/config/.sshpass"
	if _, err := os.Stat(dockerPath); err == nil {
		return dockerPath, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	standardPath := filepath.Join(homeDir, ".sshpass")
	if _, err := os.Stat(standardPath); err == nil {
		return standardPath, nil
	}

	return "", fmt.Errorf("no password file found (tried: %s, %s, %s)", configPath, dockerPath, standardPath)
}

// ValidatePassfilePermissions checks that the password file is only readable
// by its owner. A world-readable credential file is refused outright.
func ValidatePassfilePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat password file: %w", err)
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		return fmt.Errorf("password file has incorrect permissions %o, must be 0600 (readable/writable by owner only)", mode)
	}

	return nil
}

// LookupPassword searches the password file for an entry matching the given
// connection. Lines have the form hostname:port:username:password, with *
// as a wildcard in any field except the password.
func LookupPassword(passfilePath, host, port, username string) (string, bool, error) {
	file, err := os.Open(passfilePath)
	if err != nil {
		return "", false, fmt.Errorf("failed to open password file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip comments and empty lines
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, ":", 4)
		if len(parts) != 4 {
			continue
		}

		if matchField(parts[0], host) &&
			matchField(parts[1], port) &&
			matchField(parts[2], username) {
			return parts[3], true, nil
		}
	}

	if err := scanner.Err(); err != nil {
		return "", false, fmt.Errorf("error reading password file: %w", err)
	}

	return "", false, nil
}

// matchField checks if a pattern matches a value (supports * wildcard)
func matchField(pattern, value string) bool {
	return pattern == "*" || pattern == value
}
