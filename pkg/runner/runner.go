package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/williamokano/sshrun/pkg/config"
	"github.com/williamokano/sshrun/pkg/session"
	"github.com/williamokano/sshrun/pkg/sshauth"
	"github.com/williamokano/sshrun/pkg/storage"
	"github.com/williamokano/sshrun/pkg/transcript"

	// Import backends to register them
	_ "github.com/williamokano/sshrun/pkg/storage/backblaze"
	_ "github.com/williamokano/sshrun/pkg/storage/local"
	_ "github.com/williamokano/sshrun/pkg/storage/s3"
	_ "github.com/williamokano/sshrun/pkg/storage/sftp"
)

// Result represents the outcome of running all commands against one remote
type Result struct {
	Remote         string
	Success        bool
	Skipped        bool // True if remote is disabled
	CommandResults []session.Result
	CommandsFailed int // Commands that finished with a nonzero exit code
	BackendResults []storage.Result
	Error          error
	Duration       time.Duration
}

// RunRemote connects to a single remote, executes its configured commands in
// order, and stores the transcript on the configured destinations.
//
// Authentication is all-or-nothing: if the handshake fails, no command runs
// and the result carries the typed failure from sshauth. A failed attempt is
// never retried with different credentials.
func RunRemote(ctx context.Context, cfg *config.Config, remote config.Remote, timestamp time.Time, logger zerolog.Logger) Result {
	start := time.Now()

	result := Result{
		Remote: remote.Name,
	}

	remoteLog := logger.With().Str("remote", remote.Name).Logger()

	if !remote.IsEnabled() {
		remoteLog.Debug().Msg("remote is disabled, skipping")
		result.Skipped = true
		result.Success = true
		return result
	}

	port := remote.GetPort(cfg.Settings)
	addr := fmt.Sprintf("%s:%d", remote.Host, port)

	creds, err := resolveCredentials(cfg, remote, remoteLog)
	if err != nil {
		result.Error = err
		result.Duration = time.Since(start)
		remoteLog.Error().Err(err).Msg("cannot resolve credentials for remote")
		return result
	}

	remoteLog.Info().
		Str("host", remote.Host).
		Int("port", port).
		Str("user", creds.User).
		Bool("password_auth", creds.HasPassword()).
		Int("commands", len(remote.Commands)).
		Msg("connecting to remote")

	client, err := sshauth.Authenticate(ctx, addr, creds)
	if err != nil {
		result.Error = err
		result.Duration = time.Since(start)
		remoteLog.Error().Err(err).Msg("authentication failed, no commands executed")
		return result
	}

	sess := session.New(client)
	defer sess.Close()

	for _, command := range remote.Commands {
		cmdResult, err := sess.Run(ctx, command)
		result.CommandResults = append(result.CommandResults, cmdResult)

		if err != nil {
			// Transport failure, remaining commands cannot run
			result.Error = fmt.Errorf("command %q: %w", command, err)
			result.Duration = time.Since(start)
			remoteLog.Error().Err(err).Str("command", command).Msg("session failed")
			return result
		}

		if cmdResult.ExitCode != 0 {
			result.CommandsFailed++
			remoteLog.Warn().
				Str("command", command).
				Int("exit_code", cmdResult.ExitCode).
				Msg("command finished with nonzero exit code")
			continue
		}

		remoteLog.Debug().
			Str("command", command).
			Dur("duration", cmdResult.Duration).
			Msg("command completed")
	}

	// Persist the transcript, if any destinations are configured
	if backendResults, err := storeTranscript(ctx, cfg, remote, result.CommandResults, timestamp, remoteLog); err != nil {
		result.Error = err
		result.BackendResults = backendResults
		result.Duration = time.Since(start)
		return result
	} else {
		result.BackendResults = backendResults
	}

	result.Duration = time.Since(start)
	if result.CommandsFailed > 0 {
		result.Error = fmt.Errorf("%d of %d commands failed", result.CommandsFailed, len(remote.Commands))
		remoteLog.Error().
			Int("failed", result.CommandsFailed).
			Int("total", len(remote.Commands)).
			Dur("duration", result.Duration).
			Msg("run completed with command failures")
		return result
	}

	result.Success = true
	remoteLog.Info().
		Int("commands", len(remote.Commands)).
		Dur("duration", result.Duration).
		Msg("all commands completed successfully")
	return result
}

// resolveCredentials merges config levels and falls back to the password
// lookup file when neither level yields a usable credential.
func resolveCredentials(cfg *config.Config, remote config.Remote, logger zerolog.Logger) (sshauth.Credentials, error) {
	creds, err := sshauth.Resolve(cfg.Settings, remote)
	if err == nil {
		return creds, nil
	}

	passfilePath, pfErr := GetPassfilePath(cfg.Settings.PasswordFile)
	if pfErr != nil {
		return creds, err
	}

	if permErr := ValidatePassfilePermissions(passfilePath); permErr != nil {
		return creds, fmt.Errorf("password file unusable: %w", permErr)
	}

	port := remote.GetPort(cfg.Settings)
	password, found, lookupErr := LookupPassword(passfilePath, remote.Host, strconv.Itoa(port), creds.User)
	if lookupErr != nil {
		return creds, lookupErr
	}
	if !found {
		return creds, err
	}

	logger.Debug().
		Str("passfile", passfilePath).
		Msg("using password file for authentication")

	creds.Password = password
	return creds, nil
}

// storeTranscript writes the session transcript to a temp file, uploads it to
// every destination in parallel, and applies the retention policy.
func storeTranscript(ctx context.Context, cfg *config.Config, remote config.Remote, results []session.Result, timestamp time.Time, logger zerolog.Logger) ([]storage.Result, error) {
	backends, err := initializeBackends(ctx, cfg, remote, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage backends: %w", err)
	}
	if len(backends) == 0 {
		logger.Debug().Msg("no storage destinations configured, transcript not persisted")
		return nil, nil
	}
	defer closeBackends(backends)

	tempDir := cfg.Storage.TempDir
	if tempDir == "" {
		tempDir = filepath.Join(os.TempDir(), "sshrun")
	}
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	finalFilename := transcript.Filename(remote.Name, timestamp)
	tempFile := filepath.Join(tempDir, finalFilename+".tmp")

	if err := transcript.WriteFile(tempFile, remote.Name, timestamp, results); err != nil {
		return nil, fmt.Errorf("failed to write transcript: %w", err)
	}

	uploader := storage.NewMultiUploader(logger)
	uploadResults := uploader.Upload(ctx, backends, tempFile, finalFilename)

	hasSuccess := false
	for _, ur := range uploadResults {
		if ur.Success {
			hasSuccess = true
			break
		}
	}

	if !hasSuccess {
		// Keep the temp file for manual recovery
		logger.Error().Str("temp_file", tempFile).Msg("all backends failed to store transcript")
		return uploadResults, fmt.Errorf("all storage destinations failed for transcript %s", finalFilename)
	}

	os.Remove(tempFile)

	// Retention runs per backend; a failing backend never blocks the others
	keep := cfg.Settings.TranscriptRetention
	for _, backend := range backends {
		if _, err := transcript.ApplyRetention(ctx, backend, remote.Name, keep, logger); err != nil {
			logger.Error().
				Err(err).
				Str("backend", backend.Name()).
				Msg("retention failed for backend")
		}
	}

	return uploadResults, nil
}

// initializeBackends creates backend instances for a remote's destinations
func initializeBackends(ctx context.Context, cfg *config.Config, remote config.Remote, logger zerolog.Logger) ([]storage.Backend, error) {
	destNames := remote.GetDestinations(cfg)
	if len(destNames) == 0 {
		return nil, nil
	}

	var storageConfigs []storage.Config
	for _, destName := range destNames {
		for _, dest := range cfg.Storage.Destinations {
			if dest.Name == destName && dest.Enabled {
				storageConfigs = append(storageConfigs, storage.Config{
					Name:    dest.Name,
					Type:    dest.Type,
					Enabled: dest.Enabled,
					BaseDir: dest.BaseDir,
					Options: dest.Options,
				})
				break
			}
		}
	}

	if len(storageConfigs) == 0 {
		return nil, fmt.Errorf("no enabled storage destinations match %v", destNames)
	}

	factory := storage.NewFactory()
	backends, err := factory.CreateAll(ctx, storageConfigs)
	if err != nil {
		return nil, err
	}

	logger.Debug().
		Int("count", len(backends)).
		Strs("destinations", destNames).
		Msg("initialized storage backends")

	return backends, nil
}

// closeBackends safely closes all backends
func closeBackends(backends []storage.Backend) {
	for _, backend := range backends {
		backend.Close()
	}
}
