package database

import (
	"testing"

	"github.com/Chahine-tech/simpledb-go/pkg/result"
	"github.com/stretchr/testify/require"
)

func TestOpenCreatesRootDirectory(t *testing.T) {
	dir := t.TempDir() + "/nested/db"
	db, err := Open(dir)
	require.NoError(t, err)
	require.NotEmpty(t, db.SessionID())
}

func TestExecuteCreateAndSelect(t *testing.T) {
	db, err := Open(t.TempDir())
	require.NoError(t, err)

	_, err = db.Execute(`CREATE TABLE users (id INTEGER PRIMARY KEY, email VARCHAR(255))`)
	require.NoError(t, err)

	_, err = db.Execute(`INSERT INTO users (id, email) VALUES (1, 'a@b.com')`)
	require.NoError(t, err)

	res, err := db.Execute(`SELECT * FROM users`)
	require.NoError(t, err)

	qr, ok := res.(*result.QueryResult)
	require.True(t, ok)
	require.Len(t, qr.Rows, 1)
}

func TestExecuteScriptStopsOnFirstError(t *testing.T) {
	db, err := Open(t.TempDir())
	require.NoError(t, err)

	script := `
CREATE TABLE t (id INTEGER PRIMARY KEY);
INSERT INTO t (id) VALUES (1);
INSERT INTO t (id) VALUES (1);
INSERT INTO t (id) VALUES (2);
`
	results, err := db.ExecuteScript(script)
	require.Error(t, err)
	require.Len(t, results, 2) // CREATE + first INSERT committed before the failing statement

	res, err := db.Execute(`SELECT * FROM t`)
	require.NoError(t, err)
	qr := res.(*result.QueryResult)
	require.Len(t, qr.Rows, 1)
}

func TestReopenObservesSameSchema(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	require.NoError(t, err)
	_, err = db.Execute(`CREATE TABLE t (id INTEGER PRIMARY KEY)`)
	require.NoError(t, err)

	reopened, err := Open(dir)
	require.NoError(t, err)
	_, err = reopened.Execute(`INSERT INTO t (id) VALUES (1)`)
	require.NoError(t, err)
}
