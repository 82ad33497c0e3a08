package main

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"
	"github.com/zoobzio/crateql"
	"gopkg.in/yaml.v3"
)

func newQueryCommand(load loader) *cobra.Command {
	var (
		params map[string]string
		exec   bool
	)

	cmd := &cobra.Command{
		Use:   "query name",
		Short: "Compile a named query.",
		Long: `
Compile one of the queries configured under "queries" and print the SQL and
the bound arguments. Parameter values are read as YAML scalars, so
--param age=42 binds an integer. With --exec the statement is run and the
result printed as YAML.
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			instance, err := cfg.Instance()
			if err != nil {
				return err
			}
			ast, err := cfg.Query(instance, args[0])
			if err != nil {
				return err
			}
			row, err := parseParams(params)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !exec {
				stmt, err := instance.Compile(ast, row)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, stmt.SQL)
				for i, arg := range stmt.Args {
					fmt.Fprintf(out, "-- %d: %v\n", i+1, arg)
				}
				return nil
			}

			rt, err := cfg.Connect(cmd.Context(), slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil)))
			if err != nil {
				return err
			}
			defer rt.Close()
			res, err := rt.Engine.Exec(cmd.Context(), ast, row)
			if err != nil {
				return err
			}
			return printResult(cmd, res)
		},
	}
	cmd.Flags().StringToStringVarP(&params, "param", "p", nil, "parameter values as name=value")
	cmd.Flags().BoolVar(&exec, "exec", false, "execute the query")
	return cmd
}

func parseParams(params map[string]string) (crateql.Row, error) {
	row := make(crateql.Row, len(params))
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		var v any
		if err := yaml.Unmarshal([]byte(params[name]), &v); err != nil {
			return nil, fmt.Errorf("param %s: %w", name, err)
		}
		row[name] = v
	}
	return row, nil
}

func printResult(cmd *cobra.Command, res *crateql.Result) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	defer enc.Close()

	if res.Columns == nil || res.Rows == nil {
		return enc.Encode(map[string]int64{"rowcount": res.RowCount})
	}
	rows := make([]map[string]any, len(res.Rows))
	for i, values := range res.Rows {
		rows[i] = make(map[string]any, len(res.Columns))
		for j, col := range res.Columns {
			if j < len(values) {
				rows[i][col] = values[j]
			}
		}
	}
	return enc.Encode(rows)
}
