// Package heap implements per-table append-only row storage: a
// newline-delimited JSON log plus a small meta sidecar tracking the next row
// id. Deletion is logical, via tombstone records appended to the same log.
package heap

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"

	dberrors "github.com/Chahine-tech/simpledb-go/pkg/errors"
)

const dataDir = "data"

// Row is one logical row: arbitrary column name -> value.
type Row map[string]any

const ridKey = "rid"
const opKey = "op"
const deletedKey = "deleted"

// HeapTable is the handle for one table's on-disk log and meta sidecar.
type HeapTable struct {
	TableName string
	DataPath  string
	MetaPath  string
}

type metaFile struct {
	NextRID int64 `json:"next_rid"`
}

// Open returns a HeapTable for tableName under dbDir, creating the data
// directory and both files (empty log, meta with next_rid=1) if they don't
// exist yet.
func Open(dbDir, tableName string) (*HeapTable, error) {
	dir := filepath.Join(dbDir, dataDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, dberrors.NewExecutionError("Failed to create data directory: %s", err)
	}

	ht := &HeapTable{
		TableName: tableName,
		DataPath:  filepath.Join(dir, tableName+".jsonl"),
		MetaPath:  filepath.Join(dir, tableName+".meta.json"),
	}

	if _, err := os.Stat(ht.DataPath); os.IsNotExist(err) {
		if err := os.WriteFile(ht.DataPath, []byte{}, 0o644); err != nil {
			return nil, dberrors.NewExecutionError("Failed to create heap file: %s", err)
		}
	}

	if _, err := os.Stat(ht.MetaPath); os.IsNotExist(err) {
		if err := ht.saveMeta(metaFile{NextRID: 1}); err != nil {
			return nil, err
		}
	}

	return ht, nil
}

func (h *HeapTable) loadMeta() (metaFile, error) {
	data, err := os.ReadFile(h.MetaPath)
	if err != nil {
		return metaFile{}, dberrors.NewExecutionError("Failed to read meta for %s: %s", h.TableName, err)
	}
	var m metaFile
	if err := json.Unmarshal(data, &m); err != nil {
		return metaFile{}, dberrors.NewExecutionError("Corrupt meta file for %s: %s", h.TableName, err)
	}
	return m, nil
}

func (h *HeapTable) saveMeta(m metaFile) error {
	data, err := json.Marshal(m)
	if err != nil {
		return dberrors.NewExecutionError("Failed to serialize meta for %s: %s", h.TableName, err)
	}
	if err := os.WriteFile(h.MetaPath, data, 0o644); err != nil {
		return dberrors.NewExecutionError("Failed to write meta for %s: %s", h.TableName, err)
	}
	return nil
}

func (h *HeapTable) appendLine(line []byte) error {
	f, err := os.OpenFile(h.DataPath, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return dberrors.NewExecutionError("Failed to open heap file for %s: %s", h.TableName, err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return dberrors.NewExecutionError("Failed to append to heap file for %s: %s", h.TableName, err)
	}
	if _, err := f.Write([]byte("\n")); err != nil {
		return dberrors.NewExecutionError("Failed to append to heap file for %s: %s", h.TableName, err)
	}
	return nil
}

// Insert allocates the next rid, persists it to the meta file before
// appending the row, and returns the allocated rid.
func (h *HeapTable) Insert(row Row) (int64, error) {
	meta, err := h.loadMeta()
	if err != nil {
		return 0, err
	}
	rid := meta.NextRID
	meta.NextRID = rid + 1
	if err := h.saveMeta(meta); err != nil {
		return 0, err
	}

	record := Row{}
	for k, v := range row {
		record[k] = v
	}
	record[ridKey] = rid

	line, err := json.Marshal(record)
	if err != nil {
		return 0, dberrors.NewExecutionError("Failed to serialize row for %s: %s", h.TableName, err)
	}
	if err := h.appendLine(line); err != nil {
		return 0, err
	}
	return rid, nil
}

// Tombstone appends a DELETE marker for rid. Idempotent: repeating it does
// not change ScanActive's result.
func (h *HeapTable) Tombstone(rid int64) error {
	record := map[string]any{opKey: "DELETE", ridKey: rid}
	line, err := json.Marshal(record)
	if err != nil {
		return dberrors.NewExecutionError("Failed to serialize tombstone for %s: %s", h.TableName, err)
	}
	return h.appendLine(line)
}

// ScanActive streams the log once and returns every row whose rid has not
// been tombstoned, in original log order. Tombstones are either explicit
// {"op":"DELETE","rid":R} records or legacy rows carrying "deleted": true.
func (h *HeapTable) ScanActive() ([]Row, error) {
	f, err := os.Open(h.DataPath)
	if err != nil {
		return nil, dberrors.NewExecutionError("Failed to open heap file for %s: %s", h.TableName, err)
	}
	defer f.Close()

	deleted := map[int64]bool{}
	var candidates []Row

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var record Row
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, dberrors.NewExecutionError("Corrupt record in %s: %s", h.DataPath, err)
		}

		if op, ok := record[opKey]; ok && op == "DELETE" {
			if rid, ok := ridToInt(record[ridKey]); ok {
				deleted[rid] = true
			}
			continue
		}
		if flag, ok := record[deletedKey]; ok {
			if b, ok := flag.(bool); ok && b {
				if rid, ok := ridToInt(record[ridKey]); ok {
					deleted[rid] = true
				}
				continue
			}
		}

		candidates = append(candidates, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, dberrors.NewExecutionError("Failed to read heap file for %s: %s", h.TableName, err)
	}

	var active []Row
	for _, record := range candidates {
		rid, ok := ridToInt(record[ridKey])
		if !ok {
			continue
		}
		if deleted[rid] {
			continue
		}
		active = append(active, record)
	}
	return active, nil
}

func ridToInt(v any) (int64, bool) {
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
