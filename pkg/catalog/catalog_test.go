package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/Chahine-tech/simpledb-go/pkg/ast"
	dberrors "github.com/Chahine-tech/simpledb-go/pkg/errors"
	"github.com/stretchr/testify/require"
)

func intCol(name string, primaryKey bool) ast.ColumnDef {
	return ast.ColumnDef{Name: name, Type: ast.TypeSpec{Name: "INTEGER"}, PrimaryKey: primaryKey}
}

func varcharCol(name string, length int64) ast.ColumnDef {
	return ast.ColumnDef{Name: name, Type: ast.TypeSpec{Name: "VARCHAR", Params: []int64{length}}}
}

func TestCreateTablePersistsCatalog(t *testing.T) {
	dir := t.TempDir()
	cat := Empty()

	cols := []ast.ColumnDef{intCol("id", true), varcharCol("email", 255)}
	require.NoError(t, cat.ValidateCreateTable("users", cols))

	cat.Tables["users"] = &TableMeta{
		Name: "users",
		Columns: []ColumnDef{
			{Name: "id", Type: TypeSpec{Name: "INTEGER"}, PrimaryKey: true},
			{Name: "email", Type: TypeSpec{Name: "VARCHAR", Params: []int64{255}}},
		},
		Indexes: map[string]IndexMeta{},
	}
	require.NoError(t, cat.Save(dir))

	data, err := os.ReadFile(filepath.Join(dir, CatalogFile))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	tables := raw["tables"].(map[string]any)
	users := tables["users"].(map[string]any)
	columns := users["columns"].([]any)
	first := columns[0].(map[string]any)
	require.Equal(t, "id", first["name"])
}

func TestCreateIndexRequiresTable(t *testing.T) {
	cat := Empty()
	err := cat.ValidateCreateIndex("idx_email", "users", "email")
	require.Error(t, err)
	var execErr *dberrors.ExecutionError
	require.ErrorAs(t, err, &execErr)
}

func TestCreateIndexRequiresColumn(t *testing.T) {
	cat := Empty()
	cat.Tables["users"] = &TableMeta{
		Name:    "users",
		Columns: []ColumnDef{{Name: "id", Type: TypeSpec{Name: "INTEGER"}}},
		Indexes: map[string]IndexMeta{},
	}
	err := cat.ValidateCreateIndex("idx_email", "users", "email")
	require.Error(t, err)
}

func TestDuplicateTableNameErrors(t *testing.T) {
	cat := Empty()
	cat.Tables["users"] = &TableMeta{Name: "users", Indexes: map[string]IndexMeta{}}
	err := cat.ValidateCreateTable("users", []ast.ColumnDef{intCol("id", false)})
	require.Error(t, err)
}

func TestOnlyOnePrimaryKeySupported(t *testing.T) {
	cat := Empty()
	cols := []ast.ColumnDef{intCol("id", true), intCol("other_id", true)}
	err := cat.ValidateCreateTable("t", cols)
	require.Error(t, err)
}

func TestDuplicateColumnNameErrors(t *testing.T) {
	cat := Empty()
	cols := []ast.ColumnDef{intCol("id", false), intCol("id", false)}
	err := cat.ValidateCreateTable("t", cols)
	require.Error(t, err)
}

func TestValidateTypeRejectsUnknownType(t *testing.T) {
	err := ValidateType(ast.TypeSpec{Name: "FLOAT"})
	require.Error(t, err)
}

func TestValidateTypeVarcharRequiresOnePositiveParam(t *testing.T) {
	require.Error(t, ValidateType(ast.TypeSpec{Name: "VARCHAR"}))
	require.Error(t, ValidateType(ast.TypeSpec{Name: "VARCHAR", Params: []int64{0}}))
	require.Error(t, ValidateType(ast.TypeSpec{Name: "VARCHAR", Params: []int64{1, 2}}))
	require.NoError(t, ValidateType(ast.TypeSpec{Name: "VARCHAR", Params: []int64{10}}))
}

func TestValidateTypeRejectsParamsOnNonVarchar(t *testing.T) {
	err := ValidateType(ast.TypeSpec{Name: "INTEGER", Params: []int64{5}})
	require.Error(t, err)
}

func TestCatalogRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cat := Empty()
	cat.Tables["t"] = &TableMeta{
		Name: "t",
		Columns: []ColumnDef{
			{Name: "a", Type: TypeSpec{Name: "INTEGER"}, PrimaryKey: true},
		},
		Indexes: map[string]IndexMeta{},
	}
	cat.Indexes["idx_a"] = &IndexMeta{Name: "idx_a", TableName: "t", ColumnName: "a"}
	cat.Tables["t"].Indexes["idx_a"] = IndexMeta{Name: "idx_a", TableName: "t", ColumnName: "a"}

	require.NoError(t, cat.Save(dir))

	loaded, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, cat.Version, loaded.Version)
	require.Contains(t, loaded.Tables, "t")
	require.Contains(t, loaded.Indexes, "idx_a")
	require.Equal(t, "a", loaded.Tables["t"].Columns[0].Name)
}

func TestLoadMissingCatalogReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	cat, err := Load(dir)
	require.NoError(t, err)
	require.Empty(t, cat.Tables)
}

func TestTableNamesAreCaseSensitive(t *testing.T) {
	cat := Empty()
	cat.Tables["Users"] = &TableMeta{Name: "Users", Indexes: map[string]IndexMeta{}}
	_, err := cat.RequireTable("users")
	require.Error(t, err)
	_, err = cat.RequireTable("Users")
	require.NoError(t, err)
}
