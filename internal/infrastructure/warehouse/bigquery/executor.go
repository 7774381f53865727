// Package bigquery executes read-only statements against the remote patent
// warehouse. One client is dialed per ingest batch and closed when the batch
// ends; the core never holds a persistent warehouse connection.
package bigquery

import (
	"context"
	goerrors "errors"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/patentbase-io/patentbase/internal/config"
	"github.com/patentbase-io/patentbase/internal/infrastructure/monitoring/logging"
	"github.com/patentbase-io/patentbase/pkg/errors"
)

// Row is one warehouse record with every column coerced to a string.
// Nulls arrive as the empty string.
type Row map[string]string

// Statement is a parameterized query plus its bindings. The SQL text is
// trusted: it is assembled by the ingest orchestrator, never from user input.
type Statement struct {
	SQL    string
	Params []bigquery.QueryParameter
}

// Executor streams warehouse rows to a per-row callback. Returning an error
// from the callback stops the stream and surfaces that error unchanged.
type Executor interface {
	Run(ctx context.Context, keyPath string, stmt Statement, fn func(Row) error) error
}

type executor struct {
	cfg    config.WarehouseConfig
	logger logging.Logger
}

// NewExecutor builds the production executor.
func NewExecutor(cfg config.WarehouseConfig, logger logging.Logger) Executor {
	return &executor{cfg: cfg, logger: logger}
}

func (e *executor) Run(ctx context.Context, keyPath string, stmt Statement, fn func(Row) error) error {
	timeout := e.cfg.QueryTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := bigquery.NewClient(ctx, e.cfg.ProjectID, option.WithCredentialsFile(keyPath))
	if err != nil {
		return errors.Wrap(err, errors.CodeWarehouseUnavailable, "open warehouse session")
	}
	defer client.Close()

	q := client.Query(stmt.SQL)
	q.Parameters = stmt.Params

	it, err := q.Read(ctx)
	if err != nil {
		return classifyQueryError(err)
	}

	rows := 0
	for {
		var values map[string]bigquery.Value
		err := it.Next(&values)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return classifyQueryError(err)
		}
		if cbErr := fn(coerceRow(values)); cbErr != nil {
			return cbErr
		}
		rows++
	}

	e.logger.Debug("warehouse statement complete", logging.Int("rows", rows))
	return nil
}

// classifyQueryError splits warehouse failures into the two fatal kinds the
// orchestrator distinguishes: a rejected statement versus everything else.
func classifyQueryError(err error) error {
	var apiErr *googleapi.Error
	if goerrors.As(err, &apiErr) && apiErr.Code == 400 {
		return errors.Wrap(err, errors.CodeWarehouseQueryInvalid, "warehouse rejected statement")
	}
	return errors.Wrap(err, errors.CodeWarehouseUnavailable, "warehouse query failed")
}

// coerceRow flattens a warehouse record to strings. Array columns are already
// joined server-side by ARRAY_TO_STRING, so only scalars and nulls remain.
func coerceRow(values map[string]bigquery.Value) Row {
	row := make(Row, len(values))
	for col, v := range values {
		row[col] = coerceValue(v)
	}
	return row
}

func coerceValue(v bigquery.Value) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case civil.Date:
		return t.String()
	case time.Time:
		return t.Format("2006-01-02")
	case int64:
		return fmt.Sprintf("%d", t)
	case float64:
		return fmt.Sprintf("%g", t)
	case bool:
		return fmt.Sprintf("%t", t)
	default:
		return fmt.Sprint(t)
	}
}
