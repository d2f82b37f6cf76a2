package database

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSchemaMock(t *testing.T) (sqlmock.Sqlmock, func(ctx context.Context, reset bool) error) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return mock, func(ctx context.Context, reset bool) error {
		return EnsureSchema(ctx, db, reset)
	}
}

func expectMetaVersion(mock sqlmock.Sqlmock, rows *sqlmock.Rows) {
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_meta").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version FROM schema_meta").WillReturnRows(rows)
}

func expectCreateAll(mock sqlmock.Sqlmock) {
	for _, name := range tableNames {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS " + name).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}
}

func TestEnsureSchemaFreshDatabase(t *testing.T) {
	mock, ensure := newSchemaMock(t)

	// No version row yet: create everything and record the version.
	expectMetaVersion(mock, sqlmock.NewRows([]string{"version"}))
	expectCreateAll(mock)
	mock.ExpectExec("INSERT INTO schema_meta").
		WithArgs(SchemaVersion).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, ensure(context.Background(), false))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchemaCurrentVersionIsIdempotent(t *testing.T) {
	mock, ensure := newSchemaMock(t)

	// Matching version: the IF NOT EXISTS creates run, nothing else.
	expectMetaVersion(mock, sqlmock.NewRows([]string{"version"}).AddRow(SchemaVersion))
	expectCreateAll(mock)

	require.NoError(t, ensure(context.Background(), false))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchemaNewerVersionFails(t *testing.T) {
	mock, ensure := newSchemaMock(t)

	expectMetaVersion(mock, sqlmock.NewRows([]string{"version"}).AddRow(SchemaVersion+1))

	err := ensure(context.Background(), true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchemaUpgradeRefusedWithoutOptIn(t *testing.T) {
	mock, ensure := newSchemaMock(t)

	// Older stored version without the opt-in: refuse before touching
	// any table. Ordered expectations prove no DROP was issued.
	expectMetaVersion(mock, sqlmock.NewRows([]string{"version"}).AddRow(SchemaVersion-1))

	err := ensure(context.Background(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_RESET_ON_UPGRADE")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchemaUpgradeDropsAndRecreatesWithOptIn(t *testing.T) {
	mock, ensure := newSchemaMock(t)

	expectMetaVersion(mock, sqlmock.NewRows([]string{"version"}).AddRow(SchemaVersion-1))
	for _, name := range tableNames {
		mock.ExpectExec("DROP TABLE IF EXISTS " + name).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}
	expectCreateAll(mock)
	mock.ExpectExec("UPDATE schema_meta SET version=").
		WithArgs(SchemaVersion).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, ensure(context.Background(), true))
	assert.NoError(t, mock.ExpectationsWereMet())
}
