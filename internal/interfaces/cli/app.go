package cli

import (
	"github.com/patentbase-io/patentbase/internal/application/ingest"
	"github.com/patentbase-io/patentbase/internal/application/nlquery"
	"github.com/patentbase-io/patentbase/internal/config"
	"github.com/patentbase-io/patentbase/internal/infrastructure/credentials"
	"github.com/patentbase-io/patentbase/internal/infrastructure/database/sqlite"
	"github.com/patentbase-io/patentbase/internal/infrastructure/monitoring/logging"
	"github.com/patentbase-io/patentbase/internal/infrastructure/monitoring/prometheus"
	"github.com/patentbase-io/patentbase/internal/infrastructure/warehouse/bigquery"
)

// app bundles the long-lived components a command needs. Commands build only
// the slice they use: status never dials the credential broker.
type app struct {
	cfg     *config.Config
	logger  logging.Logger
	metrics *prometheus.Metrics

	store *sqlite.Store
	repo  *sqlite.PublicationRepository
}

func newApp(cfg *config.Config, logger logging.Logger) (*app, error) {
	store, err := sqlite.Open(cfg.Store, logger.Named("store"))
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: prometheus.NewMetrics(),
		store:   store,
		repo:    sqlite.NewPublicationRepository(store, logger.Named("store")),
	}
	return a, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing local store", logging.Err(err))
	}
}

// newOrchestrator wires the full ingest pipeline, dialing the credential
// source lazily through the broker.
func (a *app) newOrchestrator() (*ingest.Orchestrator, error) {
	broker, err := credentials.NewBroker(a.cfg.Credentials, a.logger.Named("credentials"))
	if err != nil {
		return nil, err
	}
	executor := bigquery.NewExecutor(a.cfg.Warehouse, a.logger.Named("warehouse"))
	return ingest.NewOrchestrator(broker, executor, a.repo, a.cfg.Warehouse, a.metrics, a.logger.Named("ingest")), nil
}

func (a *app) newQueryService() *nlquery.Service {
	translator := nlquery.NewTranslator(a.cfg.NL)
	return nlquery.NewService(translator, a.repo, a.metrics, a.logger.Named("nlquery"))
}
