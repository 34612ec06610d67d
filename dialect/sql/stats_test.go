package sql

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acrodrig/dbx/dialect"
)

func TestInstrument(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	drv := Instrument(OpenDB(dialect.MySQL, db),
		WithSlowThreshold(time.Hour),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	defer drv.Close()
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO t").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT a FROM t").WillReturnRows(sqlmock.NewRows([]string{"a"}).AddRow(1))

	require.NoError(t, drv.Exec(ctx, "INSERT INTO t (a) VALUES (?)", []any{1}, nil))
	var rows Rows
	require.NoError(t, drv.Query(ctx, "SELECT a FROM t", []any{}, &rows))
	require.NoError(t, rows.Close())

	// A failing statement counts as both an exec and an error.
	require.Error(t, drv.Exec(ctx, "BROKEN", "not args", nil))

	snap := drv.Stats().Snapshot()
	assert.Equal(t, int64(2), snap.Execs)
	assert.Equal(t, int64(1), snap.Queries)
	assert.Equal(t, int64(1), snap.Errors)
	assert.Equal(t, int64(0), snap.Slow)
	assert.Greater(t, snap.Duration, time.Duration(0))
	assert.Contains(t, snap.String(), "queries=1")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInstrument_Slow(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	drv := Instrument(OpenDB(dialect.MySQL, db),
		// A negative threshold makes every statement slow.
		WithSlowThreshold(-1),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	defer drv.Close()

	mock.ExpectExec("SET x").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, drv.Exec(context.Background(), "SET x = 1", []any{}, nil))
	assert.Equal(t, int64(1), drv.Stats().Snapshot().Slow)
	require.NoError(t, mock.ExpectationsWereMet())
}
