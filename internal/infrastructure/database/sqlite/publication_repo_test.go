package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patentbase-io/patentbase/internal/config"
	"github.com/patentbase-io/patentbase/internal/domain/publication"
	"github.com/patentbase-io/patentbase/internal/infrastructure/monitoring/logging"
	"github.com/patentbase-io/patentbase/pkg/errors"
)

func newTestRepo(t *testing.T) *PublicationRepository {
	t.Helper()
	store, err := Open(config.StoreConfig{
		DatabasePath: filepath.Join(t.TempDir(), "patents.db"),
	}, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewPublicationRepository(store, logging.NewNopLogger())
}

func pub(number, family, country, date string) publication.Publication {
	return publication.Publication{
		PublicationNumber: number,
		PublicationDate:   date,
		FamilyID:          family,
		CountryCode:       country,
	}
}

func TestOpen_MigratesIdempotently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patents.db")

	first, err := Open(config.StoreConfig{DatabasePath: path}, logging.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(config.StoreConfig{DatabasePath: path}, logging.NewNopLogger())
	require.NoError(t, err)
	defer second.Close()

	var n int
	require.NoError(t, second.DB().QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('publications', 'patent_families')`).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open(config.StoreConfig{}, logging.NewNopLogger())
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfiguration, errors.GetCode(err))
}

func TestUpsertPublication_Replaces(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	p := pub("JP-1-A", "100", "JP", "2020-01-01")
	p.TitleJA = "初版"
	require.NoError(t, repo.UpsertPublication(ctx, p))

	p.TitleJA = "改訂版"
	require.NoError(t, repo.UpsertPublication(ctx, p))

	var count int
	var title string
	require.NoError(t, repo.store.db.QueryRow(`SELECT COUNT(*), MAX(title_ja) FROM publications`).Scan(&count, &title))
	assert.Equal(t, 1, count)
	assert.Equal(t, "改訂版", title)
}

func TestUpsertPublication_RejectsInvalid(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.UpsertPublication(context.Background(), publication.Publication{})
	require.Error(t, err)
	assert.Equal(t, errors.CodeBadRequest, errors.GetCode(err))
}

func TestRebuildFamilies(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertPublication(ctx, pub("JP-1-A", "100", "JP", "2020-01-01")))
	require.NoError(t, repo.UpsertPublication(ctx, pub("US-2-B", "100", "US", "2020-06-01")))
	require.NoError(t, repo.UpsertPublication(ctx, pub("JP-3-A", "", "JP", "2021-01-01")))

	rows, err := repo.RebuildFamilies(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rows)

	// A second rebuild replaces, never accumulates.
	rows, err = repo.RebuildFamilies(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rows)

	// Every family row points back at a publication with the same family_id.
	var orphans int
	require.NoError(t, repo.store.db.QueryRow(`SELECT COUNT(*) FROM patent_families f
WHERE NOT EXISTS (
    SELECT 1 FROM publications p
    WHERE p.publication_number = f.publication_number AND p.family_id = f.family_id
)`).Scan(&orphans))
	assert.Zero(t, orphans)
}

func TestFamilyOf(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := pub("JP-1-A", "100", "JP", "2020-01-01")
	a.ApplicationNumber = "JP-2019-111"
	b := pub("US-2-B", "100", "US", "2020-06-01")
	c := pub("JP-9-A", "200", "JP", "2021-01-01")

	for _, p := range []publication.Publication{a, b, c} {
		require.NoError(t, repo.UpsertPublication(ctx, p))
	}
	_, err := repo.RebuildFamilies(ctx)
	require.NoError(t, err)

	byPub, err := repo.FamilyOf(ctx, "JP-1-A")
	require.NoError(t, err)
	require.Len(t, byPub, 2)
	assert.Equal(t, "US-2-B", byPub[0].PublicationNumber, "members sorted newest first")
	assert.Equal(t, "JP-1-A", byPub[1].PublicationNumber)

	byApp, err := repo.FamilyOf(ctx, "JP-2019-111")
	require.NoError(t, err)
	assert.Len(t, byApp, 2)

	unknown, err := repo.FamilyOf(ctx, "XX-404-Z")
	require.NoError(t, err)
	assert.Empty(t, unknown)
}

func TestFamilyOf_AmbiguousApplicationNumber(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	older := pub("JP-1-A", "100", "JP", "2019-01-01")
	older.ApplicationNumber = "JP-2018-500"
	newer := pub("JP-1-B", "200", "JP", "2021-01-01")
	newer.ApplicationNumber = "JP-2018-500"

	require.NoError(t, repo.UpsertPublication(ctx, older))
	require.NoError(t, repo.UpsertPublication(ctx, newer))
	_, err := repo.RebuildFamilies(ctx)
	require.NoError(t, err)

	members, err := repo.FamilyOf(ctx, "JP-2018-500")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "200", members[0].FamilyID, "latest publication decides the family")
}

func TestFamilyOf_PublicationWithoutFamily(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertPublication(ctx, pub("JP-3-A", "", "JP", "2021-01-01")))

	members, err := repo.FamilyOf(ctx, "JP-3-A")
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestStatus(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	empty, err := repo.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, Status{LatestPublication: ""}, empty)

	require.NoError(t, repo.UpsertPublication(ctx, pub("JP-1-A", "100", "JP", "2020-01-01")))
	require.NoError(t, repo.UpsertPublication(ctx, pub("US-2-B", "100", "US", "2020-06-01")))
	require.NoError(t, repo.UpsertPublication(ctx, pub("JP-9-A", "200", "JP", "2021-01-01")))
	_, err = repo.RebuildFamilies(ctx)
	require.NoError(t, err)

	st, err := repo.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, Status{
		PublicationCount:  3,
		FamilyCount:       3,
		UniqueFamilies:    2,
		LatestPublication: "2021-01-01",
	}, st)
}

func TestQueryPublications(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	p := pub("JP-1-A", "100", "JP", "2020-01-01")
	p.TitleJA = "車両制御装置"
	require.NoError(t, repo.UpsertPublication(ctx, p))
	require.NoError(t, repo.UpsertPublication(ctx, pub("JP-2-A", "100", "JP", "2021-01-01")))

	results, err := repo.QueryPublications(ctx,
		`SELECT publication_number, filing_date, publication_date, application_number,
        assignee, title_ja, title_en, abstract_ja, abstract_en,
        ipc_code, family_id, country_code
 FROM publications WHERE title_ja LIKE :q`,
		[]any{sql.Named("q", "%車両%")})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "JP-1-A", results[0].PublicationNumber)
}
