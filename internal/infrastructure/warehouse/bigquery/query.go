package bigquery

import (
	"fmt"

	"cloud.google.com/go/bigquery"
)

// publicationsQueryTemplate projects exactly the columns of the local
// publications schema. Array columns are flattened server-side so every
// downstream value is a scalar string.
const publicationsQueryTemplate = `SELECT publication_number, filing_date, publication_date, application_number,
       ARRAY_TO_STRING(assignee_harmonized, '; ') AS assignee,
       ARRAY_TO_STRING(title_localized.ja, ' ')  AS title_ja,
       ARRAY_TO_STRING(title_localized.en, ' ')  AS title_en,
       ARRAY_TO_STRING(abstract_localized.ja, ' ') AS abstract_ja,
       ARRAY_TO_STRING(abstract_localized.en, ' ') AS abstract_en,
       ARRAY_TO_STRING(ipc, '; ') AS ipc_code,
       family_id, country_code
FROM   %s
WHERE  country_code = @country
LIMIT  @row_limit`

// PublicationsStatement builds the single ingest SELECT against table,
// bounded by country and limit. Both values travel as bound parameters.
func PublicationsStatement(table, country string, limit int) Statement {
	return Statement{
		SQL: fmt.Sprintf(publicationsQueryTemplate, "`"+table+"`"),
		Params: []bigquery.QueryParameter{
			{Name: "country", Value: country},
			{Name: "row_limit", Value: limit},
		},
	}
}
