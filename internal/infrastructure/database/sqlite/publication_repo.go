package sqlite

import (
	"context"
	"database/sql"

	"github.com/patentbase-io/patentbase/internal/domain/publication"
	"github.com/patentbase-io/patentbase/internal/infrastructure/monitoring/logging"
	"github.com/patentbase-io/patentbase/pkg/errors"
)

// Status aggregates the store counters served by GET /status.
type Status struct {
	PublicationCount  int64  `json:"publication_count"`
	FamilyCount       int64  `json:"family_count"`
	UniqueFamilies    int64  `json:"unique_families"`
	LatestPublication string `json:"latest_publication"`
}

// PublicationRepository is the single reader/writer over the two tables.
type PublicationRepository struct {
	store  *Store
	logger logging.Logger
}

// NewPublicationRepository wires a repository over an open store.
func NewPublicationRepository(store *Store, logger logging.Logger) *PublicationRepository {
	return &PublicationRepository{store: store, logger: logger}
}

const upsertPublicationSQL = `INSERT OR REPLACE INTO publications (
    publication_number, filing_date, publication_date, application_number,
    assignee, title_ja, title_en, abstract_ja, abstract_en,
    ipc_code, family_id, country_code
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// UpsertPublication inserts or replaces one record by publication_number.
// Replays of the same record are harmless.
func (r *PublicationRepository) UpsertPublication(ctx context.Context, p publication.Publication) error {
	if err := p.Validate(); err != nil {
		return err
	}
	_, err := r.store.db.ExecContext(ctx, upsertPublicationSQL,
		p.PublicationNumber, p.FilingDate, p.PublicationDate, p.ApplicationNumber,
		p.Assignee, p.TitleJA, p.TitleEN, p.AbstractJA, p.AbstractEN,
		p.IPCCode, p.FamilyID, p.CountryCode)
	if err != nil {
		return errors.Wrap(err, errors.CodeLocalStore, "upsert publication")
	}
	return nil
}

// RebuildFamilies re-derives patent_families from publications inside one
// write transaction, so concurrent readers see either the old table or the
// new one, never the truncated middle state. Returns the derived row count.
func (r *PublicationRepository) RebuildFamilies(ctx context.Context) (int64, error) {
	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeLocalStore, "begin family rebuild")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM patent_families`); err != nil {
		return 0, errors.Wrap(err, errors.CodeLocalStore, "truncate patent_families")
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO patent_families (family_id, publication_number, country_code, publication_date)
SELECT family_id, publication_number, country_code, publication_date
FROM publications WHERE family_id <> ''`)
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeLocalStore, "derive patent_families")
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeLocalStore, "count derived families")
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, errors.CodeLocalStore, "commit family rebuild")
	}

	r.logger.Debug("family table rebuilt", logging.Int64("rows", rows))
	return rows, nil
}

// FamilyOf resolves a publication or application number to its family members.
// An unknown number, or a publication without a family, yields an empty slice.
// When one application number maps to several publications the most recently
// published one decides the family, with publication_number as the tie-break.
func (r *PublicationRepository) FamilyOf(ctx context.Context, number string) ([]publication.FamilyMember, error) {
	var familyID string
	err := r.store.db.QueryRowContext(ctx, `SELECT family_id FROM publications
WHERE publication_number = ? OR application_number = ?
ORDER BY publication_date DESC, publication_number DESC
LIMIT 1`, number, number).Scan(&familyID)
	if err == sql.ErrNoRows {
		return []publication.FamilyMember{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeLocalStore, "resolve family id")
	}
	if familyID == "" {
		return []publication.FamilyMember{}, nil
	}

	rows, err := r.store.db.QueryContext(ctx, `SELECT family_id, publication_number, country_code, publication_date
FROM patent_families WHERE family_id = ?
ORDER BY publication_date DESC, publication_number`, familyID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeLocalStore, "list family members")
	}
	defer rows.Close()

	members := []publication.FamilyMember{}
	for rows.Next() {
		var m publication.FamilyMember
		if err := rows.Scan(&m.FamilyID, &m.PublicationNumber, &m.CountryCode, &m.PublicationDate); err != nil {
			return nil, errors.Wrap(err, errors.CodeLocalStore, "scan family member")
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeLocalStore, "iterate family members")
	}
	return members, nil
}

// Status returns the store counters.
func (r *PublicationRepository) Status(ctx context.Context) (Status, error) {
	var st Status
	err := r.store.db.QueryRowContext(ctx, `SELECT
    (SELECT COUNT(*) FROM publications),
    (SELECT COUNT(*) FROM patent_families),
    (SELECT COUNT(DISTINCT family_id) FROM patent_families),
    (SELECT COALESCE(MAX(publication_date), '') FROM publications WHERE publication_date <> '')`).
		Scan(&st.PublicationCount, &st.FamilyCount, &st.UniqueFamilies, &st.LatestPublication)
	if err != nil {
		return Status{}, errors.Wrap(err, errors.CodeLocalStore, "read status")
	}
	return st, nil
}

// QueryPublications runs a read-only statement produced by the query
// translator and scans the fixed publication projection.
func (r *PublicationRepository) QueryPublications(ctx context.Context, query string, args []any) ([]publication.Publication, error) {
	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeLocalStore, "query publications")
	}
	defer rows.Close()

	results := []publication.Publication{}
	for rows.Next() {
		var p publication.Publication
		if err := rows.Scan(
			&p.PublicationNumber, &p.FilingDate, &p.PublicationDate, &p.ApplicationNumber,
			&p.Assignee, &p.TitleJA, &p.TitleEN, &p.AbstractJA, &p.AbstractEN,
			&p.IPCCode, &p.FamilyID, &p.CountryCode); err != nil {
			return nil, errors.Wrap(err, errors.CodeLocalStore, "scan publication")
		}
		results = append(results, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeLocalStore, "iterate publications")
	}
	return results, nil
}
