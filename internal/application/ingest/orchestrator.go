// Package ingest coordinates a single warehouse-to-local-store import batch:
// credential acquisition, the bounded warehouse fetch, normalized upserts and
// the family rebuild that closes the batch.
package ingest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/patentbase-io/patentbase/internal/config"
	"github.com/patentbase-io/patentbase/internal/domain/publication"
	"github.com/patentbase-io/patentbase/internal/infrastructure/credentials"
	"github.com/patentbase-io/patentbase/internal/infrastructure/monitoring/logging"
	"github.com/patentbase-io/patentbase/internal/infrastructure/monitoring/prometheus"
	"github.com/patentbase-io/patentbase/internal/infrastructure/warehouse/bigquery"
	"github.com/patentbase-io/patentbase/pkg/errors"
)

// Writer is the slice of the publication repository the orchestrator writes
// through.
type Writer interface {
	UpsertPublication(ctx context.Context, p publication.Publication) error
	RebuildFamilies(ctx context.Context) (int64, error)
}

// Result reports what one batch accomplished. Count can be non-zero even when
// the batch failed: rows written before a mid-stream error stay committed.
type Result struct {
	Count      int
	FamilyRows int64
}

// Orchestrator serializes ingest batches behind a process-wide mutex. Two
// concurrent batches would race on the family rebuild.
type Orchestrator struct {
	broker   credentials.Broker
	executor bigquery.Executor
	writer   Writer
	cfg      config.WarehouseConfig
	metrics  *prometheus.Metrics
	logger   logging.Logger

	mu sync.Mutex
}

// NewOrchestrator wires the batch pipeline.
func NewOrchestrator(
	broker credentials.Broker,
	executor bigquery.Executor,
	writer Writer,
	cfg config.WarehouseConfig,
	metrics *prometheus.Metrics,
	logger logging.Logger,
) *Orchestrator {
	return &Orchestrator{
		broker:   broker,
		executor: executor,
		writer:   writer,
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger,
	}
}

// Ingest runs one batch for the given country filter, bounded by limit rows.
// A limit of zero is a valid no-op fetch that still rebuilds the family table.
// Clients that disconnect must not abort a running batch, so the batch runs
// under its own context; the caller's ctx only gates the wait for the mutex.
func (o *Orchestrator) Ingest(ctx context.Context, countryCode string, limit int) (Result, error) {
	countryCode = strings.ToUpper(strings.TrimSpace(countryCode))
	if countryCode == "" {
		return Result{}, errors.New(errors.CodeBadRequest, "country_code is required")
	}
	if limit < 0 {
		return Result{}, errors.Newf(errors.CodeBadRequest, "limit %d is negative", limit)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, errors.Wrap(err, errors.CodeBadRequest, "request aborted before batch start")
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	start := time.Now()
	res, err := o.runBatch(context.Background(), countryCode, limit)
	o.observe(res, err, time.Since(start))

	if err != nil {
		o.logger.Error("ingest batch failed",
			logging.String("country", countryCode),
			logging.Int("written", res.Count),
			logging.Err(err))
		return res, err
	}

	o.logger.Info("ingest batch complete",
		logging.String("country", countryCode),
		logging.Int("written", res.Count),
		logging.Int64("family_rows", res.FamilyRows),
		logging.Duration("elapsed", time.Since(start)))
	return res, nil
}

func (o *Orchestrator) runBatch(ctx context.Context, countryCode string, limit int) (Result, error) {
	keyPath, release, err := o.broker.Acquire(ctx)
	if err != nil {
		return Result{}, err
	}
	defer release()

	var res Result
	stmt := bigquery.PublicationsStatement(o.cfg.Table, countryCode, limit)
	streamErr := o.executor.Run(ctx, keyPath, stmt, func(row bigquery.Row) error {
		p := publication.FromRow(row)
		if err := o.writer.UpsertPublication(ctx, p); err != nil {
			return err
		}
		res.Count++
		return nil
	})

	// Nothing was written: the store is untouched, leave the family table
	// alone too.
	if streamErr != nil && res.Count == 0 {
		return res, streamErr
	}

	familyRows, rebuildErr := o.writer.RebuildFamilies(ctx)
	res.FamilyRows = familyRows

	if streamErr != nil {
		return res, streamErr
	}
	return res, rebuildErr
}

func (o *Orchestrator) observe(res Result, err error, elapsed time.Duration) {
	if o.metrics == nil {
		return
	}
	o.metrics.IngestRowsTotal.Add(float64(res.Count))
	o.metrics.IngestDuration.Observe(elapsed.Seconds())
	if err != nil {
		o.metrics.IngestBatches.WithLabelValues("error").Inc()
		o.metrics.IngestFailures.WithLabelValues(string(errors.GetCode(err))).Inc()
		return
	}
	o.metrics.IngestBatches.WithLabelValues("ok").Inc()
	o.metrics.FamilyRowsGauge.Set(float64(res.FamilyRows))
}
