package commands

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/Chahine-tech/simpledb-go/pkg/database"
	"github.com/spf13/cobra"
)

func newReplCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive line-oriented REPL; accumulates input until a trailing ';'",
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

			return runRepl(cmd, db, cfg.OutputFormat)
		},
	}
	return cmd
}

func runRepl(cmd *cobra.Command, db *database.Database, format string) error {
	in := cmd.InOrStdin()
	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(in)

	var pending strings.Builder

	fmt.Fprint(out, "simpledb> ")
	for scanner.Scan() {
		line := scanner.Text()
		pending.WriteString(line)
		pending.WriteString("\n")

		if strings.HasSuffix(strings.TrimSpace(line), ";") {
			sql := pending.String()
			pending.Reset()

			res, err := db.Execute(sql)
			if err != nil {
				fmt.Fprintln(out, err)
			} else if printErr := printResult(cmd, res, format); printErr != nil {
				fmt.Fprintln(out, printErr)
			}
		}
		fmt.Fprint(out, "simpledb> ")
	}
	fmt.Fprintln(out)
	return scanner.Err()
}
