package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/zoobzio/crateql/config"
	"github.com/zoobzio/crateql/executor"
	"gopkg.in/yaml.v3"
)

func newInspectCommand(load loader, logger *slog.Logger) *cobra.Command {
	var schema string

	cmd := &cobra.Command{
		Use:   "inspect table...",
		Short: "Print the definition of existing tables.",
		Long: `
Read column types and primary keys from information_schema and print them in
the "tables" form of the configuration file. Columns of unknown types are
skipped with a warning.
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			rt, err := cfg.Connect(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			inspector := executor.NewInspector(rt.Engine, logger)
			tables := make([]config.Table, 0, len(args))
			for _, name := range args {
				def, err := inspector.TableDefinition(cmd.Context(), name, schema)
				if err != nil {
					return err
				}
				t, err := config.FromDefinition(def)
				if err != nil {
					return err
				}
				tables = append(tables, t)
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(map[string][]config.Table{"tables": tables})
		},
	}
	cmd.Flags().StringVar(&schema, "schema", "", "schema of the tables (default doc)")
	return cmd
}
