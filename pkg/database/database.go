// Package database is the library surface callers use: Open a database
// directory, then Execute or ExecuteScript SQL against it. A single
// exclusive mutex serializes every call, matching this core's single-writer
// concurrency model.
package database

import (
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/Chahine-tech/simpledb-go/pkg/catalog"
	"github.com/Chahine-tech/simpledb-go/pkg/executor"
	"github.com/Chahine-tech/simpledb-go/pkg/parser"
	"github.com/google/uuid"
)

// Database is the engine's single entry point. Safe for concurrent use:
// every Execute/ExecuteScript call holds mu for its whole duration.
type Database struct {
	RootDir string

	mu        sync.Mutex
	catalog   *catalog.Catalog
	sessionID string
	log       *slog.Logger
}

// Open creates rootDir if it doesn't exist and loads (or initializes) its
// catalog. Logging goes to slog's default handler unless overridden with
// WithLogger.
func Open(rootDir string) (*Database, error) {
	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		return nil, err
	}
	cat, err := catalog.Load(rootDir)
	if err != nil {
		return nil, err
	}

	db := &Database{
		RootDir:   rootDir,
		catalog:   cat,
		sessionID: uuid.NewString(),
		log:       slog.Default(),
	}
	db.log.Info("database opened", "session", db.sessionID, "root", rootDir)
	return db, nil
}

// WithLogger replaces the database's logger.
func (db *Database) WithLogger(log *slog.Logger) *Database {
	db.log = log
	return db
}

// SessionID returns the per-open correlation id attached to every log line
// this Database emits.
func (db *Database) SessionID() string {
	return db.sessionID
}

// Execute parses and runs exactly one statement under the mutex, returning
// either a *result.CommandOk or a *result.QueryResult.
func (db *Database) Execute(sql string) (any, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.executeLocked(sql)
}

// ExecuteScript parses and runs zero or more semicolon-separated statements
// under a single mutex acquisition, stopping at the first error. Statements
// that already ran remain committed.
func (db *Database) ExecuteScript(sql string) ([]any, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	stmts, err := parser.ParseScript(sql)
	if err != nil {
		db.log.Error("script parse failed", "session", db.sessionID, "error", err)
		return nil, err
	}

	var results []any
	for _, stmt := range stmts {
		start := time.Now()
		exec := executor.New(db.RootDir, db.catalog)
		res, err := exec.Execute(stmt)
		if err != nil {
			db.log.Error("statement failed", "session", db.sessionID, "duration", time.Since(start), "error", err)
			return results, err
		}
		db.log.Info("statement ok", "session", db.sessionID, "duration", time.Since(start))
		results = append(results, res)
	}
	return results, nil
}

func (db *Database) executeLocked(sql string) (any, error) {
	start := time.Now()
	stmt, err := parser.ParseOne(sql)
	if err != nil {
		db.log.Error("parse failed", "session", db.sessionID, "error", err)
		return nil, err
	}

	exec := executor.New(db.RootDir, db.catalog)
	res, err := exec.Execute(stmt)
	if err != nil {
		db.log.Error("statement failed", "session", db.sessionID, "duration", time.Since(start), "error", err)
		return nil, err
	}
	db.log.Info("statement ok", "session", db.sessionID, "duration", time.Since(start))
	return res, nil
}

// Catalog returns the database's current catalog, for introspection
// (schema dump, etc.). Callers must not mutate it directly.
func (db *Database) Catalog() *catalog.Catalog {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.catalog
}
