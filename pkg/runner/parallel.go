package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/williamokano/sshrun/pkg/config"
)

// RunAll executes all enabled remotes in parallel with concurrency control
// via semaphore. One remote failing does not stop the others; the error from
// g.Wait reports the first failure after everything has finished.
func RunAll(ctx context.Context, cfg *config.Config, timestamp time.Time, logger zerolog.Logger) ([]Result, error) {
	var enabledRemotes []config.Remote
	for _, remote := range cfg.Remotes {
		if remote.IsEnabled() {
			enabledRemotes = append(enabledRemotes, remote)
		} else {
			logger.Info().Str("remote", remote.Name).Msg("skipping disabled remote")
		}
	}

	if len(enabledRemotes) == 0 {
		logger.Warn().Msg("no enabled remotes to run")
		return nil, nil
	}

	maxConcurrent := cfg.GetMaxConcurrentSessions()
	logger.Info().
		Int("total_remotes", len(enabledRemotes)).
		Int("max_concurrent", maxConcurrent).
		Msg("starting parallel session execution")

	sem := semaphore.NewWeighted(int64(maxConcurrent))

	// Sessions run independently; collect per-remote failures instead of
	// cancelling siblings, so one bad host never aborts the rest.
	g := new(errgroup.Group)

	resultsChan := make(chan Result, len(enabledRemotes))

	for _, remote := range enabledRemotes {
		remote := remote // capture loop variable

		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				return fmt.Errorf("failed to acquire semaphore: %w", err)
			}
			defer sem.Release(1)

			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			result := RunRemote(ctx, cfg, remote, timestamp, logger)
			resultsChan <- result

			if !result.Success {
				return fmt.Errorf("run failed for remote %s: %w", remote.Name, result.Error)
			}

			return nil
		})
	}

	waitErr := g.Wait()
	close(resultsChan)

	var results []Result
	for result := range resultsChan {
		results = append(results, result)
	}

	successCount := 0
	failureCount := 0
	var totalDuration time.Duration

	for _, result := range results {
		if result.Success {
			successCount++
		} else {
			failureCount++
		}
		totalDuration += result.Duration
	}

	logger.Info().
		Int("successful", successCount).
		Int("failed", failureCount).
		Dur("total_duration", totalDuration).
		Msg("parallel session execution completed")

	return results, waitErr
}
