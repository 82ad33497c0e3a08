// Package refresh issues REFRESH TABLE after writes.
//
// CrateDB makes written rows visible to searches only after the table has
// been refreshed, which happens periodically on the server. Code that has to
// read its own writes can register one of the listeners in this package:
//
//	refresh.AfterDML(engine)   // after every INSERT, UPDATE and DELETE
//	refresh.AfterFlush(session) // once per table touched by a flush
package refresh

import (
	"context"
	"fmt"
	"strings"

	"github.com/zoobzio/crateql"
	"github.com/zoobzio/crateql/internal/types"
)

// TableNamer is implemented by values that declare the table they live in,
// such as *crateql.Entity.
type TableNamer interface {
	TableName() string
}

// RelationName resolves target to the name used in REFRESH TABLE.
// A table reference is quoted part by part; a TableNamer or a string is used
// as is.
func RelationName(target any) (string, error) {
	switch t := target.(type) {
	case types.Table:
		if t.Name == "" {
			return "", fmt.Errorf("refresh: table reference has no name")
		}
		name := quote(t.Name)
		if t.Schema != "" {
			name = quote(t.Schema) + "." + name
		}
		return name, nil
	case *types.Table:
		if t == nil {
			return "", fmt.Errorf("refresh: nil table reference")
		}
		return RelationName(*t)
	case TableNamer:
		if name := t.TableName(); name != "" {
			return name, nil
		}
		return "", fmt.Errorf("refresh: %T declares no table name", target)
	case string:
		if t == "" {
			return "", fmt.Errorf("refresh: empty table name")
		}
		return t, nil
	}
	return "", fmt.Errorf("refresh: cannot resolve a table name from %T", target)
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// Statement returns the REFRESH TABLE statement for target.
func Statement(target any) (string, error) {
	name, err := RelationName(target)
	if err != nil {
		return "", err
	}
	return "REFRESH TABLE " + name, nil
}

// Table refreshes target through engine. The result is discarded.
func Table(ctx context.Context, engine *crateql.Engine, target any) error {
	sql, err := Statement(target)
	if err != nil {
		return err
	}
	if _, err := engine.ExecSQL(ctx, sql); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	return nil
}

// AfterDML refreshes the target table after every INSERT, UPDATE and DELETE
// executed by engine. Statements with joins have no single target and are
// skipped.
func AfterDML(engine *crateql.Engine) {
	engine.OnAfterExecute(func(ctx context.Context, e *crateql.Engine, ev crateql.ExecEvent) error {
		ast := ev.Statement.AST
		if ast == nil || len(ast.Joins) > 0 {
			return nil
		}
		switch ast.Operation {
		case types.OpInsert, types.OpUpdate, types.OpDelete:
			return Table(ctx, e, types.Table{Schema: ast.Target.Schema, Name: ast.Target.Name})
		}
		return nil
	})
}

// AfterFlush refreshes every distinct table among the entities inserted,
// updated or deleted by a flush of session. Tables registered with the
// session's instance are referenced quoted and schema-qualified, the same
// relation the flush wrote to.
func AfterFlush(session *crateql.Session) {
	session.OnAfterFlush(func(ctx context.Context, s *crateql.Session, ev crateql.FlushEvent) error {
		seen := make(map[string]bool)
		for _, entities := range [][]*crateql.Entity{ev.New, ev.Dirty, ev.Deleted} {
			for _, e := range entities {
				if seen[e.TableName()] {
					continue
				}
				seen[e.TableName()] = true
				var target any = e
				if t, err := s.Engine().Instance().TryT(e.TableName()); err == nil {
					target = types.Table{Schema: t.Schema, Name: t.Name}
				}
				if err := Table(ctx, s.Engine(), target); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
