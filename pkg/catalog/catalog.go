// Package catalog persists table and index metadata to catalog.json and
// validates DDL statements against it. Table and column names are matched
// case-sensitively, by exact string equality: unlike keyword matching (which
// is case-insensitive per the dialect's grammar), identifiers are ordinary
// data, and the catalog stores and compares them exactly as written.
package catalog

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/Chahine-tech/simpledb-go/pkg/ast"
	dberrors "github.com/Chahine-tech/simpledb-go/pkg/errors"
	"gopkg.in/yaml.v3"
)

// CatalogFile is the on-disk file name, relative to the database root.
const CatalogFile = "catalog.json"

// SupportedTypes is the closed set of column type names this dialect knows.
var SupportedTypes = map[string]bool{
	"INTEGER": true,
	"VARCHAR": true,
	"TEXT":    true,
	"DATE":    true,
	"BOOLEAN": true,
}

// TypeSpec is a column type name plus its optional parameters.
type TypeSpec struct {
	Name   string  `json:"name"`
	Params []int64 `json:"params"`
}

// ColumnDef is one column's persisted metadata.
type ColumnDef struct {
	Name       string   `json:"name"`
	Type       TypeSpec `json:"typ"`
	NotNull    bool     `json:"not_null"`
	Unique     bool     `json:"unique"`
	PrimaryKey bool     `json:"primary_key"`
}

// IndexMeta is one index's persisted metadata.
type IndexMeta struct {
	Name       string `json:"-"`
	TableName  string `json:"table_name"`
	ColumnName string `json:"column_name"`
}

// TableMeta is one table's persisted metadata: its columns in declared
// order, and the indexes registered against it.
type TableMeta struct {
	Name    string               `json:"-"`
	Columns []ColumnDef          `json:"columns"`
	Indexes map[string]IndexMeta `json:"indexes"`
}

// ColumnNames returns the table's column names in declared order.
func (t *TableMeta) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// GetColumn returns the column named name, or nil if it doesn't exist.
func (t *TableMeta) GetColumn(name string) *ColumnDef {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// PrimaryKeyColumn returns the name of the table's primary key column, or
// "" if it has none. Only one PK column is supported.
func (t *TableMeta) PrimaryKeyColumn() string {
	for _, c := range t.Columns {
		if c.PrimaryKey {
			return c.Name
		}
	}
	return ""
}

// Catalog is the full set of table and index metadata for one database.
type Catalog struct {
	Version int
	Tables  map[string]*TableMeta
	Indexes map[string]*IndexMeta
}

// Empty returns a freshly initialized, empty catalog.
func Empty() *Catalog {
	return &Catalog{
		Version: 1,
		Tables:  map[string]*TableMeta{},
		Indexes: map[string]*IndexMeta{},
	}
}

// jsonColumn/jsonTable/jsonCatalog mirror the on-disk shape described in
// spec.md §6.1: pretty-printed JSON with sorted keys, table/index names as
// map keys rather than struct fields.
type jsonColumn struct {
	Name       string   `json:"name"`
	Type       TypeSpec `json:"typ"`
	NotNull    bool     `json:"not_null"`
	Unique     bool     `json:"unique"`
	PrimaryKey bool     `json:"primary_key"`
}

type jsonIndexRef struct {
	TableName  string `json:"table_name"`
	ColumnName string `json:"column_name"`
}

type jsonTable struct {
	Columns []jsonColumn            `json:"columns"`
	Indexes map[string]jsonIndexRef `json:"indexes"`
}

type jsonCatalog struct {
	Version int                     `json:"version"`
	Tables  map[string]jsonTable    `json:"tables"`
	Indexes map[string]jsonIndexRef `json:"indexes"`
}

// Load reads catalog.json from dbDir, or returns an empty catalog if the
// file does not exist yet.
func Load(dbDir string) (*Catalog, error) {
	path := filepath.Join(dbDir, CatalogFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Empty(), nil
	}
	if err != nil {
		return nil, dberrors.NewExecutionError("Failed to read catalog: %s", err)
	}

	var raw jsonCatalog
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, dberrors.NewExecutionError("Corrupt catalog file: %s", err)
	}

	cat := &Catalog{
		Version: raw.Version,
		Tables:  map[string]*TableMeta{},
		Indexes: map[string]*IndexMeta{},
	}

	for name, jt := range raw.Tables {
		tm := &TableMeta{Name: name, Indexes: map[string]IndexMeta{}}
		for _, jc := range jt.Columns {
			tm.Columns = append(tm.Columns, ColumnDef{
				Name:       jc.Name,
				Type:       jc.Type,
				NotNull:    jc.NotNull,
				Unique:     jc.Unique,
				PrimaryKey: jc.PrimaryKey,
			})
		}
		for idxName, ref := range jt.Indexes {
			tm.Indexes[idxName] = IndexMeta{Name: idxName, TableName: ref.TableName, ColumnName: ref.ColumnName}
		}
		cat.Tables[name] = tm
	}

	for idxName, ref := range raw.Indexes {
		cat.Indexes[idxName] = &IndexMeta{Name: idxName, TableName: ref.TableName, ColumnName: ref.ColumnName}
	}

	// Merge any catalog-level index not already present in its table's map,
	// matching the Python loader's reconciliation step.
	for idxName, idx := range cat.Indexes {
		if tm, ok := cat.Tables[idx.TableName]; ok {
			if _, exists := tm.Indexes[idxName]; !exists {
				tm.Indexes[idxName] = *idx
			}
		}
	}

	return cat, nil
}

// ExportJSON renders the catalog in the same shape catalog.json uses, for
// CLI introspection without touching the on-disk file.
func (c *Catalog) ExportJSON() ([]byte, error) {
	return marshalSortedIndent(c.toJSONCatalog())
}

// Save writes the catalog to dbDir as pretty-printed JSON with sorted keys.
func (c *Catalog) Save(dbDir string) error {
	raw := c.toJSONCatalog()

	data, err := marshalSortedIndent(raw)
	if err != nil {
		return dberrors.NewExecutionError("Failed to serialize catalog: %s", err)
	}

	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return dberrors.NewExecutionError("Failed to create database directory: %s", err)
	}

	path := filepath.Join(dbDir, CatalogFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return dberrors.NewExecutionError("Failed to write catalog: %s", err)
	}
	return nil
}

func (c *Catalog) toJSONCatalog() jsonCatalog {
	raw := jsonCatalog{
		Version: c.Version,
		Tables:  map[string]jsonTable{},
		Indexes: map[string]jsonIndexRef{},
	}

	for name, tm := range c.Tables {
		jt := jsonTable{Indexes: map[string]jsonIndexRef{}}
		for _, col := range tm.Columns {
			jt.Columns = append(jt.Columns, jsonColumn{
				Name:       col.Name,
				Type:       col.Type,
				NotNull:    col.NotNull,
				Unique:     col.Unique,
				PrimaryKey: col.PrimaryKey,
			})
		}
		for idxName, idx := range tm.Indexes {
			jt.Indexes[idxName] = jsonIndexRef{TableName: idx.TableName, ColumnName: idx.ColumnName}
		}
		raw.Tables[name] = jt
	}

	for idxName, idx := range c.Indexes {
		raw.Indexes[idxName] = jsonIndexRef{TableName: idx.TableName, ColumnName: idx.ColumnName}
	}

	return raw
}

// marshalSortedIndent produces pretty-printed JSON with every object's keys
// in sorted order, matching json.dumps(sort_keys=True). encoding/json emits
// struct fields in declaration order, so v is first decoded into generic
// maps (whose keys encoding/json does sort) and then re-encoded.
func marshalSortedIndent(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}
	return json.MarshalIndent(generic, "", "  ")
}

// ExportYAML renders the catalog as YAML for operator introspection. This is
// a read-only view; catalog.json remains the source of truth.
func (c *Catalog) ExportYAML() ([]byte, error) {
	type yamlIndexRef struct {
		TableName  string `yaml:"table_name"`
		ColumnName string `yaml:"column_name"`
	}
	type yamlColumn struct {
		Name       string   `yaml:"name"`
		Type       string   `yaml:"type"`
		Params     []int64  `yaml:"params,omitempty"`
		NotNull    bool     `yaml:"not_null"`
		Unique     bool     `yaml:"unique"`
		PrimaryKey bool     `yaml:"primary_key"`
	}
	type yamlTable struct {
		Columns []yamlColumn            `yaml:"columns"`
		Indexes map[string]yamlIndexRef `yaml:"indexes,omitempty"`
	}
	type yamlCatalog struct {
		Version int                     `yaml:"version"`
		Tables  map[string]yamlTable    `yaml:"tables"`
		Indexes map[string]yamlIndexRef `yaml:"indexes,omitempty"`
	}

	out := yamlCatalog{Version: c.Version, Tables: map[string]yamlTable{}, Indexes: map[string]yamlIndexRef{}}
	for name, tm := range c.Tables {
		yt := yamlTable{Indexes: map[string]yamlIndexRef{}}
		for _, col := range tm.Columns {
			yt.Columns = append(yt.Columns, yamlColumn{
				Name: col.Name, Type: col.Type.Name, Params: col.Type.Params,
				NotNull: col.NotNull, Unique: col.Unique, PrimaryKey: col.PrimaryKey,
			})
		}
		for idxName, idx := range tm.Indexes {
			yt.Indexes[idxName] = yamlIndexRef{TableName: idx.TableName, ColumnName: idx.ColumnName}
		}
		out.Tables[name] = yt
	}
	for idxName, idx := range c.Indexes {
		out.Indexes[idxName] = yamlIndexRef{TableName: idx.TableName, ColumnName: idx.ColumnName}
	}

	return yaml.Marshal(out)
}

// RequireTable returns the named table's metadata, or an ExecutionError if
// it does not exist.
func (c *Catalog) RequireTable(name string) (*TableMeta, error) {
	tm, ok := c.Tables[name]
	if !ok {
		return nil, dberrors.NewExecutionError("Table not found: %s", name)
	}
	return tm, nil
}

// ValidateType checks a type specification against SupportedTypes and the
// VARCHAR-exactly-one-positive-param / others-no-params rule.
func ValidateType(t ast.TypeSpec) error {
	if !SupportedTypes[t.Name] {
		return dberrors.NewExecutionError("Unknown type: %s", t.Name)
	}
	if t.Name == "VARCHAR" {
		if len(t.Params) != 1 || t.Params[0] <= 0 {
			return dberrors.NewExecutionError("VARCHAR requires exactly one positive length parameter")
		}
		return nil
	}
	if len(t.Params) != 0 {
		return dberrors.NewExecutionError("Type %s does not accept parameters", t.Name)
	}
	return nil
}

// ValidateCreateTable checks a CREATE TABLE statement against the catalog's
// current state: no existing table of the same name, no duplicate column
// names, at most one PRIMARY KEY column, and every column's type is
// well-formed.
func (c *Catalog) ValidateCreateTable(name string, columns []ast.ColumnDef) error {
	if _, exists := c.Tables[name]; exists {
		return dberrors.NewExecutionError("Table already exists: %s", name)
	}

	seen := map[string]bool{}
	pkCount := 0
	for _, col := range columns {
		if seen[col.Name] {
			return dberrors.NewExecutionError("Duplicate column name: %s", col.Name)
		}
		seen[col.Name] = true
		if col.PrimaryKey {
			pkCount++
		}
		if err := ValidateType(col.Type); err != nil {
			return err
		}
	}
	if pkCount > 1 {
		return dberrors.NewExecutionError("Only one PRIMARY KEY column is supported, found %d", pkCount)
	}
	return nil
}

// ValidateCreateIndex checks a CREATE INDEX statement: the index name must
// be unused, the table must exist, and the column must exist on it.
func (c *Catalog) ValidateCreateIndex(indexName, tableName, columnName string) error {
	if _, exists := c.Indexes[indexName]; exists {
		return dberrors.NewExecutionError("Index already exists: %s", indexName)
	}
	tm, err := c.RequireTable(tableName)
	if err != nil {
		return err
	}
	if tm.GetColumn(columnName) == nil {
		return dberrors.NewExecutionError("Column not found: %s.%s", tableName, columnName)
	}
	return nil
}

// typeFamilies groups SupportedTypes into cross-compatible families for
// TypesCompatible. The executor's strict, exact-type row validation never
// consults it.
var typeFamilies = map[string]string{
	"VARCHAR": "string",
	"TEXT":    "string",
	"DATE":    "string",
	"INTEGER": "numeric",
	"BOOLEAN": "boolean",
}

// TypesCompatible reports whether two type names belong to the same
// cross-compatibility family (e.g. VARCHAR and TEXT). It does not consider
// parameters and is advisory only.
func TypesCompatible(a, b string) bool {
	fa, ok1 := typeFamilies[a]
	fb, ok2 := typeFamilies[b]
	return ok1 && ok2 && fa == fb
}

// SortedTableNames returns the catalog's table names in sorted order, for
// deterministic introspection output.
func (c *Catalog) SortedTableNames() []string {
	names := make([]string, 0, len(c.Tables))
	for name := range c.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
