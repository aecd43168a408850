package transcript

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/williamokano/sshrun/pkg/storage"
)

// ApplyRetention keeps the newest `keep` transcripts for a remote on a backend
// and deletes the rest. keep <= 0 means unlimited, nothing is deleted.
// Returns the number of transcripts deleted.
func ApplyRetention(ctx context.Context, backend storage.Backend, remoteName string, keep int, logger zerolog.Logger) (int, error) {
	if keep <= 0 {
		logger.Debug().
			Str("remote", remoteName).
			Str("backend", backend.Name()).
			Msg("unlimited retention, keeping all transcripts")
		return 0, nil
	}

	files, err := backend.List(ctx, Pattern(remoteName))
	if err != nil {
		return 0, fmt.Errorf("listing transcripts on %s: %w", backend.Name(), err)
	}

	// Order by the timestamp embedded in the filename, not backend mod time.
	// Uploads to different backends finish at different wall-clock moments.
	type dated struct {
		path string
		ts   int64
	}
	var transcripts []dated
	for _, file := range files {
		components, err := ParseFilename(file.Path)
		if err != nil {
			logger.Warn().
				Str("file", file.Path).
				Err(err).
				Msg("skipping file with unparseable transcript name")
			continue
		}
		if components.RemoteName != remoteName {
			continue
		}
		transcripts = append(transcripts, dated{path: file.Path, ts: components.Timestamp.Unix()})
	}

	if len(transcripts) <= keep {
		logger.Debug().
			Str("remote", remoteName).
			Str("backend", backend.Name()).
			Int("count", len(transcripts)).
			Int("retention", keep).
			Msg("within retention limit")
		return 0, nil
	}

	// Oldest first, delete everything before the keep window
	sort.Slice(transcripts, func(i, j int) bool {
		return transcripts[i].ts < transcripts[j].ts
	})
	toDelete := transcripts[:len(transcripts)-keep]

	deletedCount := 0
	errorCount := 0
	for _, t := range toDelete {
		if err := backend.Delete(ctx, t.path); err != nil {
			logger.Error().
				Err(err).
				Str("file", t.path).
				Str("backend", backend.Name()).
				Msg("failed to delete transcript")
			errorCount++
			continue
		}
		logger.Info().
			Str("file", t.path).
			Str("backend", backend.Name()).
			Msg("deleted transcript")
		deletedCount++
	}

	if errorCount > 0 {
		return deletedCount, fmt.Errorf("failed to delete %d out of %d transcripts", errorCount, len(toDelete))
	}

	return deletedCount, nil
}
