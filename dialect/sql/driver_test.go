package sql

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acrodrig/dbx/dialect"
)

func TestDriver_Dialect(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name string
		want string
	}{
		{"mysql", dialect.MySQL},
		{"postgres", dialect.Postgres},
		{"sqlite", dialect.SQLite},
		{"sqlite3", dialect.SQLite},
		{"mysql+unittest", dialect.MySQL},
	} {
		drv := OpenDB(tt.name, nil)
		assert.Equal(t, tt.want, drv.Dialect())
	}
}

func TestDriver_ExecQuery(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	drv := OpenDB(dialect.MySQL, db)
	defer drv.Close()
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO users").
		WithArgs("ada").
		WillReturnResult(sqlmock.NewResult(1, 1))
	var res Result
	err = drv.Exec(ctx, "INSERT INTO users (name) VALUES (?)", []any{"ada"}, &res)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	mock.ExpectQuery("SELECT name FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("ada"))
	var rows Rows
	err = drv.Query(ctx, "SELECT name FROM users", []any{}, &rows)
	require.NoError(t, err)
	require.True(t, rows.Next())
	var name string
	require.NoError(t, rows.Scan(&name))
	assert.Equal(t, "ada", name)
	require.NoError(t, rows.Close())

	// Wrong receiver types fail before touching the database.
	err = drv.Exec(ctx, "INSERT", []any{}, "not a result")
	require.Error(t, err)
	err = drv.Query(ctx, "SELECT", []any{}, "not rows")
	require.Error(t, err)
	err = drv.Exec(ctx, "INSERT", "not args", nil)
	require.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDriver_Tx(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	drv := OpenDB(dialect.MySQL, db)
	defer drv.Close()
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := drv.Tx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Exec(ctx, "UPDATE users SET name = ?", []any{"ada"}, nil))
	require.NoError(t, tx.Commit())

	mock.ExpectBegin()
	mock.ExpectRollback()
	tx, err = drv.Tx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSplitStatements(t *testing.T) {
	t.Parallel()

	script := "CREATE TABLE t (\n  a INTEGER\n);\nCREATE INDEX i ON t (a);\n"
	stmts := SplitStatements(script)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE t (\n  a INTEGER\n);", stmts[0])
	assert.Equal(t, "CREATE INDEX i ON t (a);", stmts[1])

	assert.Empty(t, SplitStatements(""))
	assert.Empty(t, SplitStatements("\n;\n"))

	// A trailing statement without a terminator still executes.
	stmts = SplitStatements("SELECT 1")
	require.Len(t, stmts, 1)
	assert.Equal(t, "SELECT 1", stmts[0])
}

func TestDriver_ExecScript(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	drv := OpenDB(dialect.MySQL, db)
	defer drv.Close()

	mock.ExpectExec("CREATE TABLE t").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX i").WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := drv.ExecScript(context.Background(), "CREATE TABLE t (\n  a INTEGER\n);\nCREATE INDEX i ON t (a);")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, mock.ExpectationsWereMet())
}
