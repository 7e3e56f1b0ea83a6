package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"testing/fstest"

	"showroom-service/migrations"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyMigrationsRunsPendingFilesInOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	files := fstest.MapFS{
		"0002_second.sql": {Data: []byte("CREATE INDEX b ON t (b);")},
		"0001_first.sql":  {Data: []byte("CREATE TABLE t (a INT, b INT);")},
		"README.md":       {Data: []byte("not a migration")},
	}

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).WithArgs("0001_first.sql").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).WithArgs("0002_second.sql").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta("CREATE INDEX b ON t (b);")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_migrations")).WithArgs("0002_second.sql").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, ApplyMigrations(context.Background(), db, files))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyMigrationsStopsOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	files := fstest.MapFS{"0001_first.sql": {Data: []byte("CREATE TABLE broken (")}}

	mock.ExpectExec(".*").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).WithArgs("0001_first.sql").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(".*").WillReturnError(errors.New("syntax error at end of input"))

	err = ApplyMigrations(context.Background(), db, files)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0001_first.sql")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmbeddedMigrationsApplyOnEmptyDatabase(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(".*").WillReturnResult(sqlmock.NewResult(0, 0))
	for _, name := range []string{"0001_init.sql", "0002_activity_indexes.sql"} {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).WithArgs(name).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec(".*").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_migrations")).WithArgs(name).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}

	require.NoError(t, ApplyMigrations(context.Background(), db, migrations.Files))
	assert.NoError(t, mock.ExpectationsWereMet())
}
