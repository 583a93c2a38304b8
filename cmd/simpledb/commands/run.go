package commands

import (
	"fmt"
	"os"

	"github.com/Chahine-tech/simpledb-go/pkg/database"
	"github.com/spf13/cobra"
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <script.sql>",
		Short: "Run a script of semicolon-separated statements, stopping at the first error",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig()
			if err != nil {
				return err
			}

			script, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			db, err := database.Open(cfg.DBDir)
			if err != nil {
				return err
			}
			db.WithLogger(loggerForLevel(cfg.LogLevel))

			results, err := db.ExecuteScript(string(script))
			for _, res := range results {
				if printErr := printResult(cmd, res, cfg.OutputFormat); printErr != nil {
					return printErr
				}
			}
			if err != nil {
				return fmt.Errorf("script stopped after %d statement(s): %w", len(results), err)
			}
			return nil
		},
	}

	return cmd
}
