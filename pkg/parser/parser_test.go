package parser

import (
	"testing"

	"github.com/Chahine-tech/simpledb-go/pkg/ast"
	dberrors "github.com/Chahine-tech/simpledb-go/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestParseCreateTable(t *testing.T) {
	sql := `CREATE TABLE users (
		id INTEGER PRIMARY KEY,
		email VARCHAR(255) UNIQUE NOT NULL
	)`

	stmt, err := ParseOne(sql)
	require.NoError(t, err)

	ct, ok := stmt.(*ast.CreateTable)
	require.True(t, ok)
	require.Equal(t, "users", ct.TableName)
	require.Len(t, ct.Columns, 2)

	require.Equal(t, "id", ct.Columns[0].Name)
	require.Equal(t, "INTEGER", ct.Columns[0].Type.Name)
	require.True(t, ct.Columns[0].PrimaryKey)

	require.Equal(t, "email", ct.Columns[1].Name)
	require.Equal(t, "VARCHAR", ct.Columns[1].Type.Name)
	require.Equal(t, []int64{255}, ct.Columns[1].Type.Params)
	require.True(t, ct.Columns[1].Unique)
	require.True(t, ct.Columns[1].NotNull)
}

func TestParseCreateIndex(t *testing.T) {
	stmt, err := ParseOne(`CREATE INDEX idx_email ON users (email)`)
	require.NoError(t, err)

	ci, ok := stmt.(*ast.CreateIndex)
	require.True(t, ok)
	require.Equal(t, "idx_email", ci.IndexName)
	require.Equal(t, "users", ci.TableName)
	require.Equal(t, "email", ci.ColumnName)
}

func TestParseInsert(t *testing.T) {
	stmt, err := ParseOne(`INSERT INTO users (id, email) VALUES (1, 'a@b.com')`)
	require.NoError(t, err)

	ins, ok := stmt.(*ast.Insert)
	require.True(t, ok)
	require.Equal(t, []string{"id", "email"}, ins.Columns)
	require.Equal(t, []any{int64(1), "a@b.com"}, ins.Values)
}

func TestParseInsertArityMismatch(t *testing.T) {
	_, err := ParseOne(`INSERT INTO users (id, email) VALUES (1)`)
	require.Error(t, err)
	var syntaxErr *dberrors.SqlSyntaxError
	require.ErrorAs(t, err, &syntaxErr)
}

func TestParseSelectJoinWhere(t *testing.T) {
	sql := `SELECT users.id, users.email
FROM users
JOIN accounts ON accounts.user_id = users.id
WHERE users.id = 1 AND users.active = TRUE`

	stmt, err := ParseOne(sql)
	require.NoError(t, err)

	sel, ok := stmt.(*ast.Select)
	require.True(t, ok)
	require.Len(t, sel.Joins, 1)
	require.NotNil(t, sel.Where)
	require.Len(t, sel.Where.Conditions, 2)
}

func TestParseSelectStar(t *testing.T) {
	stmt, err := ParseOne(`SELECT * FROM users`)
	require.NoError(t, err)
	sel, ok := stmt.(*ast.Select)
	require.True(t, ok)
	require.Nil(t, sel.Columns)
}

func TestParseUpdate(t *testing.T) {
	stmt, err := ParseOne(`UPDATE users SET email = 'new@b.com' WHERE id = 1`)
	require.NoError(t, err)

	upd, ok := stmt.(*ast.Update)
	require.True(t, ok)
	require.Equal(t, "users", upd.TableName)
	require.Len(t, upd.Assignments, 1)
	require.Equal(t, "email", upd.Assignments[0].Column)
	require.NotNil(t, upd.Where)
}

func TestParseDelete(t *testing.T) {
	stmt, err := ParseOne(`DELETE FROM users WHERE id = 1`)
	require.NoError(t, err)

	del, ok := stmt.(*ast.Delete)
	require.True(t, ok)
	require.Equal(t, "users", del.TableName)
	require.NotNil(t, del.Where)
}

func TestParseErrorsOnMissingParen(t *testing.T) {
	_, err := ParseOne(`CREATE TABLE t (id INTEGER;`)
	require.Error(t, err)
	var syntaxErr *dberrors.SqlSyntaxError
	require.ErrorAs(t, err, &syntaxErr)
}

func TestParseOneRejectsTrailingContent(t *testing.T) {
	_, err := ParseOne(`SELECT * FROM t; SELECT * FROM t`)
	require.Error(t, err)
}

func TestParseOneRejectsEmptyInput(t *testing.T) {
	_, err := ParseOne(``)
	require.Error(t, err)
}

func TestParseScriptSkipsEmptyStatements(t *testing.T) {
	stmts, err := ParseScript(`;; CREATE TABLE t (id INTEGER);; SELECT * FROM t ;`)
	require.NoError(t, err)
	require.Len(t, stmts, 2)
}

func TestParseScriptEmptyInput(t *testing.T) {
	stmts, err := ParseScript(``)
	require.NoError(t, err)
	require.Empty(t, stmts)
}

func TestKeywordMatchingIsCaseInsensitive(t *testing.T) {
	stmt1, err := ParseOne(`select * from t`)
	require.NoError(t, err)
	stmt2, err := ParseOne(`SELECT * FROM T`)
	require.NoError(t, err)

	sel1 := stmt1.(*ast.Select)
	sel2 := stmt2.(*ast.Select)
	require.Equal(t, "t", sel1.FromTable)
	require.Equal(t, "T", sel2.FromTable)
}
