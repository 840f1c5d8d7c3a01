package warehouse_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inferrors "github.com/subhub-ai/infra/internal/errors"
	"github.com/subhub-ai/infra/internal/warehouse"
)

func newMockClient(t *testing.T) (*warehouse.Client, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	client, err := warehouse.Open(warehouse.Config{Driver: "snowflake"}, warehouse.WithDB(db))
	require.NoError(t, err)
	return client, mock
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := warehouse.Open(warehouse.Config{Driver: "oracle"})
	require.Error(t, err)

	var cfgErr inferrors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestOpenResolvesDriverAliases(t *testing.T) {
	t.Parallel()

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	client, err := warehouse.Open(warehouse.Config{Driver: "postgresql"}, warehouse.WithDB(db))
	require.NoError(t, err)
	assert.Equal(t, "postgres", client.Driver())

	client, err = warehouse.Open(warehouse.Config{Driver: "mariadb"}, warehouse.WithDB(db))
	require.NoError(t, err)
	assert.Equal(t, "mysql", client.Driver())
}

func TestClientQuery(t *testing.T) {
	t.Parallel()

	client, mock := newMockClient(t)

	created := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"ID", "NAME", "CREATED_AT"}).
		AddRow(int64(1), "alpha", created).
		AddRow(int64(2), "beta", created)
	mock.ExpectQuery("SELECT \\* FROM subscriptions").WillReturnRows(rows)

	result, err := client.Query(context.Background(), "SELECT * FROM subscriptions")
	require.NoError(t, err)

	assert.Equal(t, []string{"ID", "NAME", "CREATED_AT"}, result.Columns)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, int64(1), result.Rows[0]["ID"])
	assert.Equal(t, "alpha", result.Rows[0]["NAME"])
	assert.Equal(t, created, result.Rows[0]["CREATED_AT"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClientQueryWithArgs(t *testing.T) {
	t.Parallel()

	client, mock := newMockClient(t)

	rows := sqlmock.NewRows([]string{"TOTAL"}).AddRow(int64(42))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) AS TOTAL").
		WithArgs("active").
		WillReturnRows(rows)

	result, err := client.Query(context.Background(), "SELECT COUNT(*) AS TOTAL FROM subscriptions WHERE status = ?", "active")
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, int64(42), result.Rows[0]["TOTAL"])
}

func TestClientQueryError(t *testing.T) {
	t.Parallel()

	client, mock := newMockClient(t)

	mock.ExpectQuery("SELECT \\* FROM missing").
		WillReturnError(assert.AnError)

	_, err := client.Query(context.Background(), "SELECT * FROM missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestClientQueryTransientErrorFlagged(t *testing.T) {
	t.Parallel()

	client, mock := newMockClient(t)

	transient := errors.New("read tcp 10.0.0.5:443: connection reset by peer")
	mock.ExpectQuery("SELECT 1").WillReturnError(transient)

	_, err := client.Query(context.Background(), "SELECT 1")
	require.Error(t, err)
	assert.ErrorIs(t, err, transient)

	var userErr inferrors.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Contains(t, userErr.Suggestion, "transient")
}

func TestClientExec(t *testing.T) {
	t.Parallel()

	client, mock := newMockClient(t)

	mock.ExpectExec("DELETE FROM staging").
		WillReturnResult(sqlmock.NewResult(0, 3))

	affected, err := client.Exec(context.Background(), "DELETE FROM staging")
	require.NoError(t, err)
	assert.Equal(t, int64(3), affected)
}

func TestClientPing(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	client, err := warehouse.Open(warehouse.Config{Driver: "snowflake"}, warehouse.WithDB(db))
	require.NoError(t, err)

	mock.ExpectPing()
	assert.NoError(t, client.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(assert.AnError)
	err = client.Ping(context.Background())
	require.Error(t, err)

	var userErr inferrors.UserError
	assert.ErrorAs(t, err, &userErr)
}
