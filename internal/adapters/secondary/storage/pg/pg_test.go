package pg

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Pelanglene/213bot/internal/pkg/logger"
	"github.com/Pelanglene/213bot/internal/ports/storage"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return sqlx.NewDb(db, "pgx"), mock
}

func TestBucketStoreLoad(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	store := NewBucketStore(NewDB(db))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT payload FROM engagement_buckets WHERE key = $1")).
		WithArgs("daily_vote_2024-06-01").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow([]byte(`{"1":[]}`)))

	data, err := store.Load(ctx, "daily_vote_2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, `{"1":[]}`, string(data))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBucketStoreLoadMissing(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	store := NewBucketStore(NewDB(db))

	mock.ExpectQuery("SELECT payload FROM engagement_buckets").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}))

	_, err := store.Load(ctx, "usage_stats_2024-06")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBucketStoreSaveUpserts(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	store := NewBucketStore(NewDB(db))

	mock.ExpectExec("INSERT INTO engagement_buckets (.+) ON CONFLICT \\(key\\) DO UPDATE").
		WithArgs("usage_stats_2024-06", `{"1":{"2":3}}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Save(ctx, "usage_stats_2024-06", []byte(`{"1":{"2":3}}`)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBucketStoreDelete(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	store := NewBucketStore(NewDB(db))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM engagement_buckets WHERE key = $1")).
		WithArgs("daily_vote_2024-06-01").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM engagement_buckets").
		WithArgs("daily_vote_2024-06-01").
		WillReturnError(errors.New("connection reset"))

	require.NoError(t, store.Delete(ctx, "daily_vote_2024-06-01"), "deleting a missing row is fine")

	err := store.Delete(ctx, "daily_vote_2024-06-01")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(0)))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS engagement_buckets").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO schema_migrations").
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, RunMigrations(ctx, db, logger.Discard()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrationsSkipsApplied(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT COALESCE").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(1)))

	require.NoError(t, RunMigrations(ctx, db, logger.Discard()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParseMigrationName(t *testing.T) {
	version, name, err := parseMigrationName("0001_engagement_buckets.sql")
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
	assert.Equal(t, "engagement_buckets", name)

	_, _, err = parseMigrationName("engagement.sql")
	assert.Error(t, err)

	_, _, err = parseMigrationName("v1_engagement.sql")
	assert.Error(t, err)
}
