// Package cli holds the job-sync commands.
package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kirychukyurii/webitel-job-sync/internal/config"
	"github.com/kirychukyurii/webitel-job-sync/internal/fetcher"
	"github.com/kirychukyurii/webitel-job-sync/internal/logger"
	"github.com/kirychukyurii/webitel-job-sync/internal/repository"
	"github.com/kirychukyurii/webitel-job-sync/internal/service"
)

// NewRootCmd builds the job-sync command tree
func NewRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "job-sync",
		Short:         "Keeps a local view of scheduled jobs and notifications in sync with the job scheduler",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to configuration file")

	cmd.AddCommand(NewServeCmd(&configPath))
	cmd.AddCommand(NewSnapshotCmd(&configPath))

	return cmd
}

// bootstrap loads configuration and builds the service with its logger
func bootstrap(configPath string, logOut io.Writer) (*config.Config, service.SyncService, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, nil, err
	}
	log := logger.NewWithWriter(logOut, level)

	f, err := fetcher.NewFromConfig(cfg.Backend, log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create backend client: %w", err)
	}

	repo := repository.NewSchedulerRepository(f, cfg.Backend.MarkReadMethod, log)
	svc := service.NewSyncService(repo, cfg, log)

	log.Info("configuration loaded",
		slog.String("backend", cfg.Backend.BaseURL),
		slog.Duration("interval", cfg.Poller.Interval),
	)

	return cfg, svc, log, nil
}
