package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zoobzio/crateql/crate"
	"github.com/zoobzio/crateql/options"
)

func newOptionsCommand() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "options [url]",
		Short: "Translate connection URL parameters into table options.",
		Long: `
Translate the query parameters of a connection URL such as
crate://localhost:4200/?shards=2&durability=async into the clauses that
follow CREATE TABLE. With --list the known shorthands are printed instead.
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if list {
				for _, name := range options.Shorthands() {
					spec := options.Catalog[name]
					line := name + "\t" + spec.Name
					if len(spec.Choices) > 0 {
						line += "\t" + strings.Join(spec.Choices, "|")
					}
					fmt.Fprintln(out, line)
				}
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("a url is required")
			}
			opts, err := options.FromURL(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(out, strings.TrimSpace(crate.TableOptions(opts)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "list the known shorthands")
	return cmd
}
