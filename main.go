package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/williamokano/sshrun/pkg/config"
	"github.com/williamokano/sshrun/pkg/logger"
	"github.com/williamokano/sshrun/pkg/runner"
)

func main() {
	// Bootstrap logger until the config tells us otherwise
	logger.Init("info", "json")
	log := logger.Get()

	configFile := "./config.json"
	if len(os.Args) > 1 {
		configFile = os.Args[1]
	}

	log.Info().Str("config_file", configFile).Msg("starting sshrun")

	if err := config.Validate(configFile); err != nil {
		log.Fatal().Err(err).Msg("config validation failed")
	}

	cfg, err := config.ParseConfig(configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse config file")
	}

	// Re-init with configured level and format
	logger.Init(cfg.GetLogLevel(), cfg.GetLogFormat())
	log = logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	timestamp := time.Now()

	results, err := runner.RunAll(ctx, cfg, timestamp, *log)
	if err != nil {
		log.Error().Err(err).Msg("one or more remotes failed")
	}

	exitCode := 0
	for _, result := range results {
		if !result.Success {
			exitCode = 1
		}
	}

	if exitCode == 0 {
		log.Info().Msg("sshrun completed successfully")
	}
	os.Exit(exitCode)
}
