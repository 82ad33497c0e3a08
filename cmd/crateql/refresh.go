package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/zoobzio/crateql"
	"github.com/zoobzio/crateql/refresh"
)

func newRefreshCommand(load loader, logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh table...",
		Short: "Issue REFRESH TABLE.",
		Long: `
Make recent writes visible to searches. Configured tables are referenced with
their schema; other names are sent as given.
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

			for _, name := range args {
				var target any = name
				if t, ok := cfg.Table(name); ok {
					target = crateql.Table{Schema: t.Schema, Name: t.Name}
				}
				if err := refresh.Table(cmd.Context(), rt.Engine, target); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "refreshed %s\n", name)
			}
			return nil
		},
	}
}
