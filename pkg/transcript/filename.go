package transcript

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const (
	// DateFormat is ISO-8601 like, with dashes instead of colons so the
	// filename stays valid on every backend.
	DateFormat = "2006-01-02T15-04-05"

	// Separator between remote name and timestamp. Double dash is chosen
	// because remote names may themselves contain single dashes.
	Separator = "--"

	// Extension for transcript files
	Extension = ".log"
)

// Components represents the parsed components of a transcript filename
type Components struct {
	RemoteName string
	Timestamp  time.Time
}

// Filename builds a transcript filename for a remote at a given time.
// Format: web1--2025-08-28T10-00-00.log
func Filename(remoteName string, timestamp time.Time) string {
	return fmt.Sprintf("%s%s%s%s", remoteName, Separator, timestamp.Format(DateFormat), Extension)
}

// Pattern returns a glob pattern matching all transcripts for a remote
func Pattern(remoteName string) string {
	return remoteName + Separator + "*" + Extension
}

// ParseFilename parses a transcript filename and extracts its components.
// Remote names may contain double dashes themselves, so the timestamp is
// taken from the last separator.
func ParseFilename(filename string) (Components, error) {
	base := filepath.Base(filename)
	nameWithoutExt := strings.TrimSuffix(base, filepath.Ext(base))

	idx := strings.LastIndex(nameWithoutExt, Separator)
	if idx < 0 {
		return Components{}, fmt.Errorf("invalid transcript filename %q: missing %q separator", filename, Separator)
	}

	remoteName := nameWithoutExt[:idx]
	timestampStr := nameWithoutExt[idx+len(Separator):]

	timestamp, err := time.Parse(DateFormat, timestampStr)
	if err != nil {
		return Components{}, fmt.Errorf("failed to parse timestamp %q in %q: %w", timestampStr, filename, err)
	}

	if remoteName == "" {
		return Components{}, fmt.Errorf("invalid transcript filename %q: empty remote name", filename)
	}

	return Components{
		RemoteName: remoteName,
		Timestamp:  timestamp,
	}, nil
}
