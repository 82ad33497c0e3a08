package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/zoobzio/crateql/crate"
)

func newDDLCommand(load loader, logger *slog.Logger) *cobra.Command {
	var drop bool

	cmd := &cobra.Command{
		Use:   "ddl [table...]",
		Short: "Print CREATE TABLE statements.",
		Long: `
Print a CREATE TABLE statement for each named table, or for every configured
table when none is named. Constraints CrateDB cannot enforce are dropped with
a warning on stderr.
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			defs, err := cfg.Definitions()
			if err != nil {
				return err
			}
			if len(args) > 0 {
				byName := make(map[string]crate.TableDefinition, len(defs))
				for _, def := range defs {
					byName[def.Name] = def
				}
				defs = defs[:0]
				for _, name := range args {
					def, ok := byName[name]
					if !ok {
						return fmt.Errorf("table %s is not configured", name)
					}
					defs = append(defs, def)
				}
			}

			out := cmd.OutOrStdout()
			for _, def := range defs {
				if drop {
					fmt.Fprintf(out, "%s;\n", crate.DropTable(def.Schema, def.Name, true))
				}
				ddl, err := crate.CreateTable(def, logger)
				if err != nil {
					return fmt.Errorf("table %s: %w", def.Name, err)
				}
				fmt.Fprintf(out, "%s;\n", ddl)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&drop, "drop", false, "precede each statement with DROP TABLE IF EXISTS")
	return cmd
}
