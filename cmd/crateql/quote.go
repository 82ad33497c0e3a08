package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zoobzio/crateql/crate"
)

func newQuoteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "quote name...",
		Short: "Quote relation names the way the compiler does.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range args {
				quoted, err := crate.QuoteRelationName(name)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), quoted)
			}
			return nil
		},
	}
}
