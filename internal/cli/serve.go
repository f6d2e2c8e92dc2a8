package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kirychukyurii/webitel-job-sync/internal/api"
	"github.com/kirychukyurii/webitel-job-sync/pkg/httpserver"
)

// NewServeCmd runs the poller and the HTTP API until SIGINT or SIGTERM
func NewServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Poll the job scheduler and serve the synchronized state over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, svc, log, err := bootstrap(*configPath, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc.Start(ctx)

			metricsPath := ""
			if cfg.Metrics.Enabled {
				metricsPath = cfg.Metrics.Path
			}
			handler := api.NewHandler(svc, cfg.Server.BasePath, metricsPath, log)

			srv := httpserver.New(
				cfg.Server.Addr,
				handler.Router(),
				cfg.Server.ReadTimeout,
				cfg.Server.WriteTimeout,
				log,
			)

			log.Info("starting job-sync service")
			err = srv.Run(ctx)

			log.Info("shutting down poller")
			svc.Stop()

			log.Info("shutdown complete")
			return err
		},
	}
}
