package ingest

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patentbase-io/patentbase/internal/config"
	"github.com/patentbase-io/patentbase/internal/domain/publication"
	"github.com/patentbase-io/patentbase/internal/infrastructure/monitoring/logging"
	"github.com/patentbase-io/patentbase/internal/infrastructure/monitoring/prometheus"
	"github.com/patentbase-io/patentbase/internal/infrastructure/warehouse/bigquery"
	"github.com/patentbase-io/patentbase/pkg/errors"
)

type fakeBroker struct {
	err      error
	released int
}

func (f *fakeBroker) Acquire(context.Context) (string, func(), error) {
	if f.err != nil {
		return "", nil, f.err
	}
	return "/tmp/key.json", func() { f.released++ }, nil
}

type fakeExecutor struct {
	rows     []bigquery.Row
	err      error
	lastStmt bigquery.Statement
}

func (f *fakeExecutor) Run(_ context.Context, _ string, stmt bigquery.Statement, fn func(bigquery.Row) error) error {
	f.lastStmt = stmt
	for _, row := range f.rows {
		if err := fn(row); err != nil {
			return err
		}
	}
	return f.err
}

type fakeWriter struct {
	mu         sync.Mutex
	upserted   []publication.Publication
	upsertErrs map[string]error
	rebuilds   int
	rebuildErr error
}

func (f *fakeWriter) UpsertPublication(_ context.Context, p publication.Publication) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.upsertErrs[p.PublicationNumber]; err != nil {
		return err
	}
	f.upserted = append(f.upserted, p)
	return nil
}

func (f *fakeWriter) RebuildFamilies(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rebuilds++
	if f.rebuildErr != nil {
		return 0, f.rebuildErr
	}
	return int64(len(f.upserted)), nil
}

func warehouseRow(number, family string) bigquery.Row {
	return bigquery.Row{
		"publication_number": number,
		"family_id":          family,
		"country_code":       "JP",
		"publication_date":   "2021-01-01",
	}
}

func newOrchestrator(broker *fakeBroker, exec *fakeExecutor, writer *fakeWriter) *Orchestrator {
	return NewOrchestrator(broker, exec, writer,
		config.WarehouseConfig{Table: "patents-public-data.patents.publications"},
		prometheus.NewMetrics(), logging.NewNopLogger())
}

func TestIngest_Success(t *testing.T) {
	broker := &fakeBroker{}
	exec := &fakeExecutor{rows: []bigquery.Row{
		warehouseRow("JP-1-A", "100"),
		warehouseRow("JP-2-A", "100"),
	}}
	writer := &fakeWriter{}

	res, err := newOrchestrator(broker, exec, writer).Ingest(context.Background(), "jp", 10)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Count)
	assert.Equal(t, int64(2), res.FamilyRows)
	assert.Equal(t, 1, writer.rebuilds, "rebuild follows the upserts of the batch")
	assert.Equal(t, 1, broker.released, "credential released on success")
	assert.Equal(t, "JP", exec.lastStmt.Params[0].Value, "country filter is upper-cased")
}

func TestIngest_ZeroLimit(t *testing.T) {
	broker := &fakeBroker{}
	writer := &fakeWriter{}

	res, err := newOrchestrator(broker, &fakeExecutor{}, writer).Ingest(context.Background(), "JP", 0)
	require.NoError(t, err)

	assert.Zero(t, res.Count)
	assert.Equal(t, 1, writer.rebuilds, "empty batch still leaves the family table consistent")
}

func TestIngest_BadArguments(t *testing.T) {
	orch := newOrchestrator(&fakeBroker{}, &fakeExecutor{}, &fakeWriter{})

	_, err := orch.Ingest(context.Background(), "  ", 10)
	assert.Equal(t, errors.CodeBadRequest, errors.GetCode(err))

	_, err = orch.Ingest(context.Background(), "JP", -1)
	assert.Equal(t, errors.CodeBadRequest, errors.GetCode(err))
}

func TestIngest_CredentialsUnavailable(t *testing.T) {
	broker := &fakeBroker{err: errors.New(errors.CodeCredentialsUnavailable, "no key")}
	writer := &fakeWriter{}

	res, err := newOrchestrator(broker, &fakeExecutor{}, writer).Ingest(context.Background(), "JP", 10)
	require.Error(t, err)

	assert.Equal(t, errors.CodeCredentialsUnavailable, errors.GetCode(err))
	assert.Zero(t, res.Count)
	assert.Zero(t, writer.rebuilds, "no side effects without a credential")
}

func TestIngest_WarehouseUnavailable(t *testing.T) {
	broker := &fakeBroker{}
	exec := &fakeExecutor{err: errors.New(errors.CodeWarehouseUnavailable, "dial timeout")}
	writer := &fakeWriter{}

	res, err := newOrchestrator(broker, exec, writer).Ingest(context.Background(), "JP", 10)
	require.Error(t, err)

	assert.Equal(t, errors.CodeWarehouseUnavailable, errors.GetCode(err))
	assert.Zero(t, res.Count)
	assert.Zero(t, writer.rebuilds)
	assert.Equal(t, 1, broker.released, "credential released on error")
}

func TestIngest_MidStreamFailureKeepsPartialRows(t *testing.T) {
	broker := &fakeBroker{}
	exec := &fakeExecutor{rows: []bigquery.Row{
		warehouseRow("JP-1-A", "100"),
		warehouseRow("JP-2-A", "100"),
		warehouseRow("JP-3-A", "200"),
	}}
	writer := &fakeWriter{upsertErrs: map[string]error{
		"JP-2-A": errors.New(errors.CodeLocalStore, "disk full"),
	}}

	res, err := newOrchestrator(broker, exec, writer).Ingest(context.Background(), "JP", 10)
	require.Error(t, err)

	assert.Equal(t, errors.CodeLocalStore, errors.GetCode(err))
	assert.Equal(t, 1, res.Count, "rows before the failure stay committed")
	assert.Equal(t, 1, writer.rebuilds, "rebuild still attempted after a mid-stream failure")
}

func TestIngest_RebuildFailure(t *testing.T) {
	broker := &fakeBroker{}
	exec := &fakeExecutor{rows: []bigquery.Row{warehouseRow("JP-1-A", "100")}}
	writer := &fakeWriter{rebuildErr: errors.New(errors.CodeLocalStore, "locked")}

	res, err := newOrchestrator(broker, exec, writer).Ingest(context.Background(), "JP", 10)
	require.Error(t, err)

	assert.Equal(t, errors.CodeLocalStore, errors.GetCode(err))
	assert.Equal(t, 1, res.Count, "publications remain committed")
}

func TestIngest_SerializesBatches(t *testing.T) {
	broker := &fakeBroker{}
	exec := &fakeExecutor{rows: []bigquery.Row{warehouseRow("JP-1-A", "100")}}
	writer := &fakeWriter{}
	orch := newOrchestrator(broker, exec, writer)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := orch.Ingest(context.Background(), "JP", 10)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 8, writer.rebuilds)
}
