// Package commands builds simpledb's cobra command tree.
package commands

import (
	"log/slog"
	"os"

	"github.com/Chahine-tech/simpledb-go/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfgFile      string
	dbDirFlag    string
	outputFormat string
)

// NewRootCommand assembles the simpledb root command and its subcommands.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "simpledb",
		Short: "A small, from-scratch relational database engine",
		Long: `simpledb runs a SQL-like dialect (CREATE TABLE, CREATE INDEX,
INSERT, SELECT, UPDATE, DELETE) against a catalog-backed, append-only
per-table heap, with PRIMARY KEY / UNIQUE / NOT NULL / type constraints
enforced batch-atomically.`,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a config file (default: ./simpledb.yaml)")
	root.PersistentFlags().StringVar(&dbDirFlag, "db", "", "database directory (overrides config)")
	root.PersistentFlags().StringVar(&outputFormat, "format", "", "output format: table|json (overrides config)")

	root.AddCommand(newExecCommand())
	root.AddCommand(newRunCommand())
	root.AddCommand(newReplCommand())
	root.AddCommand(newSchemaCommand())

	return root
}

// resolveConfig loads config, then applies any CLI-level overrides.
func resolveConfig() (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, err
	}
	if dbDirFlag != "" {
		cfg.DBDir = dbDirFlag
	}
	if outputFormat != "" {
		cfg.OutputFormat = outputFormat
	}
	return cfg, nil
}

func loggerForLevel(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler)
}
