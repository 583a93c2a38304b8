package commands

import (
	"fmt"

	"github.com/Chahine-tech/simpledb-go/pkg/database"
	"github.com/spf13/cobra"
)

func newSchemaCommand() *cobra.Command {
	schema := &cobra.Command{
		Use:   "schema",
		Short: "Inspect the catalog",
	}
	schema.AddCommand(newSchemaDumpCommand())
	return schema
}

func newSchemaDumpCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Dump the catalog as JSON or YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig()
			if err != nil {
				return err
			}

			db, err := database.Open(cfg.DBDir)
			if err != nil {
				return err
			}
			cat := db.Catalog()

			switch format {
			case "yaml":
				data, err := cat.ExportYAML()
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), string(data))
			default:
				data, err := cat.ExportJSON()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "output format: json|yaml")
	return cmd
}
