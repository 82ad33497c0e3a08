package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/zoobzio/crateql/config"
)

// NewRootCommand returns the crateql command tree.
func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var cfgPath string

	rc := &cobra.Command{
		Use:   "crateql",
		Short: "Render DDL and queries for CrateDB and keep tables fresh.",
		Long: `crateql reads table definitions and named queries from a YAML file
and renders them in the CrateDB dialect. Commands that talk to a cluster use
the connection section of the same file.
`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rc.PersistentFlags().StringVarP(&cfgPath, "file", "f", "crateql.yaml", "Configuration file to read from.")

	load := func() (*config.Config, error) {
		return config.Load(cfgPath)
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	rc.AddCommand(newDDLCommand(load, logger))
	rc.AddCommand(newOptionsCommand())
	rc.AddCommand(newQuoteCommand())
	rc.AddCommand(newQueryCommand(load))
	rc.AddCommand(newRefreshCommand(load, logger))
	rc.AddCommand(newInspectCommand(load, logger))

	rc.SetIn(stdin)
	rc.SetOut(stdout)
	rc.SetErr(stderr)
	return rc
}

type loader func() (*config.Config, error)
