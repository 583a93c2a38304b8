// Package executor dispatches parsed statements against a catalog and heap,
// enforcing type and constraint checks with batch-atomic semantics: every
// candidate row in a statement is validated before any row is written.
package executor

import (
	"fmt"

	"github.com/Chahine-tech/simpledb-go/pkg/ast"
	"github.com/Chahine-tech/simpledb-go/pkg/catalog"
	dberrors "github.com/Chahine-tech/simpledb-go/pkg/errors"
	"github.com/Chahine-tech/simpledb-go/pkg/heap"
	"github.com/Chahine-tech/simpledb-go/pkg/result"
)

// Executor runs statements against one database's catalog and heap files.
type Executor struct {
	DBDir   string
	Catalog *catalog.Catalog
}

// New returns an Executor over dbDir and cat.
func New(dbDir string, cat *catalog.Catalog) *Executor {
	return &Executor{DBDir: dbDir, Catalog: cat}
}

// Execute dispatches stmt to its statement-specific handler.
func (e *Executor) Execute(stmt ast.Statement) (any, error) {
	switch s := stmt.(type) {
	case *ast.CreateTable:
		return e.createTable(s)
	case *ast.CreateIndex:
		return e.createIndex(s)
	case *ast.Insert:
		return e.insert(s)
	case *ast.Select:
		return e.selectRows(s)
	case *ast.Update:
		return e.update(s)
	case *ast.Delete:
		return e.delete(s)
	default:
		return nil, dberrors.NewExecutionError("Unsupported statement type")
	}
}

func (e *Executor) createTable(stmt *ast.CreateTable) (*result.CommandOk, error) {
	if err := e.Catalog.ValidateCreateTable(stmt.TableName, stmt.Columns); err != nil {
		return nil, err
	}

	tm := &catalog.TableMeta{
		Name:    stmt.TableName,
		Indexes: map[string]catalog.IndexMeta{},
	}
	for _, col := range stmt.Columns {
		tm.Columns = append(tm.Columns, catalog.ColumnDef{
			Name:       col.Name,
			Type:       catalog.TypeSpec{Name: col.Type.Name, Params: col.Type.Params},
			NotNull:    col.NotNull,
			Unique:     col.Unique,
			PrimaryKey: col.PrimaryKey,
		})
	}
	e.Catalog.Tables[stmt.TableName] = tm

	if err := e.Catalog.Save(e.DBDir); err != nil {
		return nil, err
	}
	if _, err := heap.Open(e.DBDir, stmt.TableName); err != nil {
		return nil, err
	}

	return &result.CommandOk{RowsAffected: 0, Message: "Table created: " + stmt.TableName}, nil
}

func (e *Executor) createIndex(stmt *ast.CreateIndex) (*result.CommandOk, error) {
	if err := e.Catalog.ValidateCreateIndex(stmt.IndexName, stmt.TableName, stmt.ColumnName); err != nil {
		return nil, err
	}

	idx := catalog.IndexMeta{Name: stmt.IndexName, TableName: stmt.TableName, ColumnName: stmt.ColumnName}
	e.Catalog.Indexes[stmt.IndexName] = &idx
	e.Catalog.Tables[stmt.TableName].Indexes[stmt.IndexName] = idx

	if err := e.Catalog.Save(e.DBDir); err != nil {
		return nil, err
	}

	return &result.CommandOk{RowsAffected: 0, Message: "Index created: " + stmt.IndexName}, nil
}

// resolveColumn checks that a (possibly qualified) column reference targets
// tableName, and returns the bare column name. Shared by SELECT projection
// and the WHERE clauses of SELECT, UPDATE, and DELETE; UPDATE SET columns
// are bare names and are checked directly against the table.
func resolveColumn(tableName string, ref ast.ColumnRef) (string, error) {
	if ref.Table != "" && ref.Table != tableName {
		return "", dberrors.NewExecutionError("Column qualifier %q does not match table %q", ref.Table, tableName)
	}
	return ref.Column, nil
}

func validateRowTypes(tm *catalog.TableMeta, row heap.Row) error {
	for _, col := range tm.Columns {
		val, present := row[col.Name]
		if !present || val == nil {
			continue
		}
		switch col.Type.Name {
		case "INTEGER":
			if !isInt(val) {
				return dberrors.NewExecutionError("Column %s.%s expects INTEGER", tm.Name, col.Name)
			}
		case "VARCHAR", "TEXT", "DATE":
			s, ok := val.(string)
			if !ok {
				return dberrors.NewExecutionError("Column %s.%s expects a string", tm.Name, col.Name)
			}
			if col.Type.Name == "VARCHAR" && len(col.Type.Params) == 1 {
				if int64(len(s)) > col.Type.Params[0] {
					return dberrors.NewExecutionError("Column %s.%s exceeds VARCHAR(%d)", tm.Name, col.Name, col.Type.Params[0])
				}
			}
		case "BOOLEAN":
			if _, ok := val.(bool); !ok {
				return dberrors.NewExecutionError("Column %s.%s expects BOOLEAN", tm.Name, col.Name)
			}
		default:
			return dberrors.NewExecutionError("Unsupported type: %s", col.Type.Name)
		}
	}
	return nil
}

func isInt(v any) bool {
	switch n := v.(type) {
	case bool:
		return false
	case int64, int:
		return true
	case float64:
		return n == float64(int64(n))
	default:
		return false
	}
}

// rowMatchesWhere evaluates an equality-only WHERE clause against row.
// A nil where matches every row. Null values compare unequal to every
// literal, Python-style: there is no SQL NULL tri-state in this dialect.
func rowMatchesWhere(tableName string, row heap.Row, where *ast.WhereClause) (bool, error) {
	if where == nil {
		return true, nil
	}
	for _, cond := range where.Conditions {
		if cond.Op != "=" {
			return false, dberrors.NewExecutionError("Unsupported operator: %s", cond.Op)
		}
		colName, err := resolveColumn(tableName, cond.Left)
		if err != nil {
			return false, err
		}
		val, present := row[colName]
		if !present {
			val = nil
		}
		if !valuesEqual(val, cond.Right) {
			return false, nil
		}
	}
	return true, nil
}

func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return false
	}
	af, aok := toComparableNumber(a)
	bf, bok := toComparableNumber(b)
	if aok && bok {
		return af == bf
	}
	return a == b
}

func toComparableNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// enforceConstraintsBatch validates a batch of candidate rows against the
// table's NOT NULL / PRIMARY KEY / UNIQUE constraints, given the set of
// currently-live rows and a set of rids within them to treat as excluded
// (because this statement is replacing or deleting them). All violations
// are reported before any write happens.
func enforceConstraintsBatch(tm *catalog.TableMeta, existingRows []heap.Row, candidates []heap.Row, excludeRIDs map[int64]bool) error {
	var existingKept []heap.Row
	for _, row := range existingRows {
		rid, ok := ridOf(row)
		if ok && excludeRIDs[rid] {
			continue
		}
		existingKept = append(existingKept, row)
	}

	pkCol := tm.PrimaryKeyColumn()

	for _, col := range tm.Columns {
		if !col.NotNull && !col.PrimaryKey {
			continue
		}
		for _, cand := range candidates {
			val, present := cand[col.Name]
			if !present || val == nil {
				if col.PrimaryKey {
					return dberrors.NewConstraintError("PRIMARY KEY column %s.%s cannot be null", tm.Name, col.Name)
				}
				return dberrors.NewConstraintError("NOT NULL column %s.%s cannot be null", tm.Name, col.Name)
			}
		}
	}

	if pkCol != "" {
		existingPKs := map[any]bool{}
		for _, row := range existingKept {
			if v, ok := row[pkCol]; ok && v != nil {
				existingPKs[normalizeKey(v)] = true
			}
		}
		seenInBatch := map[any]bool{}
		for _, cand := range candidates {
			v := cand[pkCol]
			key := normalizeKey(v)
			if existingPKs[key] {
				return dberrors.NewConstraintError("Duplicate value for PRIMARY KEY %s.%s", tm.Name, pkCol)
			}
			if seenInBatch[key] {
				return dberrors.NewConstraintError("Duplicate value for PRIMARY KEY %s.%s within batch", tm.Name, pkCol)
			}
			seenInBatch[key] = true
		}
	}

	for _, col := range tm.Columns {
		if !col.Unique || col.PrimaryKey {
			continue
		}
		existingVals := map[any]bool{}
		for _, row := range existingKept {
			if v, ok := row[col.Name]; ok && v != nil {
				existingVals[normalizeKey(v)] = true
			}
		}
		seenInBatch := map[any]bool{}
		for _, cand := range candidates {
			v := cand[col.Name]
			if v == nil {
				continue
			}
			key := normalizeKey(v)
			if existingVals[key] {
				return dberrors.NewConstraintError("Duplicate value for UNIQUE column %s.%s", tm.Name, col.Name)
			}
			if seenInBatch[key] {
				return dberrors.NewConstraintError("Duplicate value for UNIQUE column %s.%s within batch", tm.Name, col.Name)
			}
			seenInBatch[key] = true
		}
	}

	return nil
}

func normalizeKey(v any) any {
	if f, ok := toComparableNumber(v); ok {
		return f
	}
	return v
}

func ridOf(row heap.Row) (int64, bool) {
	v, ok := row["rid"]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}

// normalizeRowTypes rewrites row in place so INTEGER columns hold Go int64
// rather than the float64 a JSON round trip through the heap log produces.
// Called on every row read back from ScanActive so validation, projection,
// and comparisons see the same types whether a row is fresh or reloaded.
func normalizeRowTypes(tm *catalog.TableMeta, row heap.Row) {
	for _, col := range tm.Columns {
		if col.Type.Name != "INTEGER" {
			continue
		}
		if f, ok := row[col.Name].(float64); ok {
			row[col.Name] = int64(f)
		}
	}
}

func normalizeRows(tm *catalog.TableMeta, rows []heap.Row) []heap.Row {
	for _, row := range rows {
		normalizeRowTypes(tm, row)
	}
	return rows
}

func (e *Executor) insert(stmt *ast.Insert) (*result.CommandOk, error) {
	tm, err := e.Catalog.RequireTable(stmt.TableName)
	if err != nil {
		return nil, err
	}

	for _, colName := range stmt.Columns {
		if tm.GetColumn(colName) == nil {
			return nil, dberrors.NewExecutionError("Unknown column in INSERT: %s.%s", stmt.TableName, colName)
		}
	}

	row := heap.Row{}
	for _, col := range tm.Columns {
		row[col.Name] = nil
	}
	for i, colName := range stmt.Columns {
		row[colName] = stmt.Values[i]
	}

	if err := validateRowTypes(tm, row); err != nil {
		return nil, err
	}

	ht, err := heap.Open(e.DBDir, stmt.TableName)
	if err != nil {
		return nil, err
	}
	existing, err := ht.ScanActive()
	if err != nil {
		return nil, err
	}
	existing = normalizeRows(tm, existing)

	if err := enforceConstraintsBatch(tm, existing, []heap.Row{row}, map[int64]bool{}); err != nil {
		return nil, err
	}

	if _, err := ht.Insert(row); err != nil {
		return nil, err
	}

	return &result.CommandOk{RowsAffected: 1, Message: "1 row inserted"}, nil
}

func (e *Executor) selectRows(stmt *ast.Select) (*result.QueryResult, error) {
	if len(stmt.Joins) > 0 {
		return nil, dberrors.NewExecutionError("JOIN is not executed in this core")
	}

	tm, err := e.Catalog.RequireTable(stmt.FromTable)
	if err != nil {
		return nil, err
	}

	var outCols []string
	if stmt.Columns == nil {
		outCols = tm.ColumnNames()
	} else {
		for _, ref := range stmt.Columns {
			colName, err := resolveColumn(stmt.FromTable, ref)
			if err != nil {
				return nil, err
			}
			if tm.GetColumn(colName) == nil {
				return nil, dberrors.NewExecutionError("Unknown column in SELECT: %s.%s", stmt.FromTable, colName)
			}
			outCols = append(outCols, colName)
		}
	}

	ht, err := heap.Open(e.DBDir, stmt.FromTable)
	if err != nil {
		return nil, err
	}
	rows, err := ht.ScanActive()
	if err != nil {
		return nil, err
	}
	rows = normalizeRows(tm, rows)

	var outRows [][]any
	for _, row := range rows {
		matched, err := rowMatchesWhere(stmt.FromTable, row, stmt.Where)
		if err != nil {
			return nil, err
		}
		if !matched {
			continue
		}
		projected := make([]any, len(outCols))
		for i, col := range outCols {
			projected[i] = row[col]
		}
		outRows = append(outRows, projected)
	}

	return &result.QueryResult{Columns: outCols, Rows: outRows}, nil
}

func (e *Executor) update(stmt *ast.Update) (*result.CommandOk, error) {
	tm, err := e.Catalog.RequireTable(stmt.TableName)
	if err != nil {
		return nil, err
	}

	for _, a := range stmt.Assignments {
		if tm.GetColumn(a.Column) == nil {
			return nil, dberrors.NewExecutionError("Unknown column in UPDATE: %s.%s", stmt.TableName, a.Column)
		}
	}

	ht, err := heap.Open(e.DBDir, stmt.TableName)
	if err != nil {
		return nil, err
	}
	existing, err := ht.ScanActive()
	if err != nil {
		return nil, err
	}
	existing = normalizeRows(tm, existing)

	var matches []heap.Row
	for _, row := range existing {
		matched, err := rowMatchesWhere(stmt.TableName, row, stmt.Where)
		if err != nil {
			return nil, err
		}
		if matched {
			matches = append(matches, row)
		}
	}

	if len(matches) == 0 {
		return &result.CommandOk{RowsAffected: 0, Message: "0 rows updated"}, nil
	}

	excludeRIDs := map[int64]bool{}
	var candidates []heap.Row
	var oldRIDs []int64
	for _, old := range matches {
		rid, _ := ridOf(old)
		excludeRIDs[rid] = true
		oldRIDs = append(oldRIDs, rid)

		candidate := heap.Row{}
		for _, col := range tm.Columns {
			candidate[col.Name] = old[col.Name]
		}
		for _, a := range stmt.Assignments {
			candidate[a.Column] = a.Value
		}
		if err := validateRowTypes(tm, candidate); err != nil {
			return nil, err
		}
		candidates = append(candidates, candidate)
	}

	if err := enforceConstraintsBatch(tm, existing, candidates, excludeRIDs); err != nil {
		return nil, err
	}

	for i, candidate := range candidates {
		if _, err := ht.Insert(candidate); err != nil {
			return nil, err
		}
		if err := ht.Tombstone(oldRIDs[i]); err != nil {
			return nil, err
		}
	}

	return &result.CommandOk{RowsAffected: len(matches), Message: fmt.Sprintf("%d rows updated", len(matches))}, nil
}

func (e *Executor) delete(stmt *ast.Delete) (*result.CommandOk, error) {
	tm, err := e.Catalog.RequireTable(stmt.TableName)
	if err != nil {
		return nil, err
	}

	ht, err := heap.Open(e.DBDir, stmt.TableName)
	if err != nil {
		return nil, err
	}
	existing, err := ht.ScanActive()
	if err != nil {
		return nil, err
	}
	existing = normalizeRows(tm, existing)

	var matches []heap.Row
	for _, row := range existing {
		matched, err := rowMatchesWhere(stmt.TableName, row, stmt.Where)
		if err != nil {
			return nil, err
		}
		if matched {
			matches = append(matches, row)
		}
	}

	for _, row := range matches {
		rid, _ := ridOf(row)
		if err := ht.Tombstone(rid); err != nil {
			return nil, err
		}
	}

	return &result.CommandOk{RowsAffected: len(matches), Message: fmt.Sprintf("%d rows deleted", len(matches))}, nil
}
