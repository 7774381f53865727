package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/patentbase-io/patentbase/internal/config"
	"github.com/patentbase-io/patentbase/internal/infrastructure/monitoring/logging"
	httpiface "github.com/patentbase-io/patentbase/internal/interfaces/http"
	"github.com/patentbase-io/patentbase/internal/interfaces/http/handlers"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP query surface",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}

			app, err := newApp(cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			orchestrator, err := app.newOrchestrator()
			if err != nil {
				return err
			}

			var metrics = app.metrics
			if !cfg.Metrics.Enabled {
				metrics = nil
			}
			router := httpiface.NewRouter(httpiface.RouterConfig{
				StatusHandler: handlers.NewStatusHandler(app.repo, logger.Named("http")),
				ImportHandler: handlers.NewImportHandler(orchestrator, cfg.Ingest, logger.Named("http")),
				QueryHandler:  handlers.NewQueryHandler(app.newQueryService(), logger.Named("http")),
				FamilyHandler: handlers.NewFamilyHandler(app.repo, logger.Named("http")),
				HealthHandler: handlers.NewHealthHandler(app.store),
				Metrics:       metrics,
				Logger:        logger.Named("http"),
				Mode:          cfg.Server.Mode,
			})
			server := httpiface.NewServer(cfg.Server, router, logger.Named("http"))

			if configPath != "" {
				// Only the log level is applied live; everything else needs a
				// restart.
				config.Watch(configPath, func(updated *config.Config) {
					logging.SetLevel(logger, updated.Log.Level)
					logger.Info("log level updated", logging.String("level", updated.Log.Level))
				})
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- server.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				return server.Shutdown(context.Background())
			}
		},
	}
}
