package commands

import (
	"fmt"

	"github.com/Chahine-tech/simpledb-go/pkg/database"
	"github.com/Chahine-tech/simpledb-go/pkg/result"
	"github.com/spf13/cobra"
)

func newExecCommand() *cobra.Command {
	var sql string

	cmd := &cobra.Command{
		Use:   "exec",
		Short: "Run a single SQL statement",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig()
			if err != nil {
				return err
			}

			db, err := database.Open(cfg.DBDir)
			if err != nil {
				return err
			}
			db.WithLogger(loggerForLevel(cfg.LogLevel))

			res, err := db.Execute(sql)
			if err != nil {
				return err
			}

			return printResult(cmd, res, cfg.OutputFormat)
		},
	}

	cmd.Flags().StringVar(&sql, "sql", "", "the SQL statement to run")
	cmd.MarkFlagRequired("sql")

	return cmd
}

func printResult(cmd *cobra.Command, res any, format string) error {
	switch v := res.(type) {
	case *result.CommandOk:
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%d rows affected)\n", v.Message, v.RowsAffected)
	case *result.QueryResult:
		return printQueryResult(cmd, v, format)
	}
	return nil
}

func printQueryResult(cmd *cobra.Command, qr *result.QueryResult, format string) error {
	out := cmd.OutOrStdout()
	if format == "json" {
		return writeJSONRows(out, qr)
	}

	for i, col := range qr.Columns {
		if i > 0 {
			fmt.Fprint(out, " | ")
		}
		fmt.Fprint(out, col)
	}
	fmt.Fprintln(out)

	for _, row := range qr.Rows {
		for i, val := range row {
			if i > 0 {
				fmt.Fprint(out, " | ")
			}
			fmt.Fprintf(out, "%v", val)
		}
		fmt.Fprintln(out)
	}
	return nil
}
