package bigquery

import (
	"fmt"
	"testing"
	"time"

	bq "cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/patentbase-io/patentbase/pkg/errors"
)

func TestPublicationsStatement(t *testing.T) {
	stmt := PublicationsStatement("patents-public-data.patents.publications", "JP", 500)

	assert.Contains(t, stmt.SQL, "FROM   `patents-public-data.patents.publications`")
	assert.Contains(t, stmt.SQL, "country_code = @country")
	assert.Contains(t, stmt.SQL, "LIMIT  @row_limit")
	assert.NotContains(t, stmt.SQL, "JP", "country must be bound, not interpolated")

	require.Len(t, stmt.Params, 2)
	assert.Equal(t, bq.QueryParameter{Name: "country", Value: "JP"}, stmt.Params[0])
	assert.Equal(t, bq.QueryParameter{Name: "row_limit", Value: 500}, stmt.Params[1])
}

func TestCoerceRow(t *testing.T) {
	row := coerceRow(map[string]bq.Value{
		"publication_number": "JP-2020123456-A",
		"title_en":           nil,
		"filing_date":        civil.Date{Year: 2020, Month: 3, Day: 14},
		"publication_date":   time.Date(2021, 9, 30, 0, 0, 0, 0, time.UTC),
		"family_id":          int64(77),
		"flag":               true,
	})

	assert.Equal(t, "JP-2020123456-A", row["publication_number"])
	assert.Equal(t, "", row["title_en"])
	assert.Equal(t, "2020-03-14", row["filing_date"])
	assert.Equal(t, "2021-09-30", row["publication_date"])
	assert.Equal(t, "77", row["family_id"])
	assert.Equal(t, "true", row["flag"])
}

func TestClassifyQueryError(t *testing.T) {
	rejection := &googleapi.Error{Code: 400, Message: "syntax error"}
	assert.Equal(t, errors.CodeWarehouseQueryInvalid, errors.GetCode(classifyQueryError(rejection)))

	wrapped := fmt.Errorf("read: %w", &googleapi.Error{Code: 400})
	assert.Equal(t, errors.CodeWarehouseQueryInvalid, errors.GetCode(classifyQueryError(wrapped)))

	assert.Equal(t, errors.CodeWarehouseUnavailable,
		errors.GetCode(classifyQueryError(&googleapi.Error{Code: 503})))
	assert.Equal(t, errors.CodeWarehouseUnavailable,
		errors.GetCode(classifyQueryError(fmt.Errorf("connection refused"))))
}
