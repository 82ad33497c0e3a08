package crateql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zoobzio/crateql/internal/types"
)

// ErrDuplicateKey is returned by a uniqueness check that found an existing row.
var ErrDuplicateKey = errors.New("duplicate key")

// UniqueCheck looks for an existing row with the same values in a set of
// columns before an insert. CrateDB has no UNIQUE constraints; the check is
// read-then-fail and does not guard against concurrent writers.
type UniqueCheck struct {
	table   string
	columns []string
}

// CheckUniqueness creates a check on table for the combined columns.
func CheckUniqueness(table string, columns ...string) UniqueCheck {
	return UniqueCheck{table: table, columns: columns}
}

// Constraint is the synthesized constraint name: the columns joined by "-".
func (u UniqueCheck) Constraint() string {
	return strings.Join(u.columns, "-")
}

// Check fails with ErrDuplicateKey when a row with values' column values
// exists. Missing columns are compared as NULL.
func (u UniqueCheck) Check(ctx context.Context, engine *Engine, values map[string]any) error {
	if len(u.columns) == 0 {
		return fmt.Errorf("uniqueness check on '%s' has no columns", u.table)
	}
	t, err := engine.inst.TryT(u.table)
	if err != nil {
		return err
	}

	b := Count(t)
	row := Row{}
	for _, name := range u.columns {
		field := types.Field{Name: name}
		v, ok := values[name]
		if !ok || v == nil {
			b.Where(types.Condition{Field: field, Operator: types.IsNull})
			continue
		}
		param := "unique_" + name
		row[param] = v
		b.Where(c(field, types.EQ, types.Param{Name: param}))
	}

	res, err := engine.ExecBuilder(ctx, b, row)
	if err != nil {
		return fmt.Errorf("uniqueness check: %w", err)
	}
	if countOf(res) > 0 {
		return fmt.Errorf("%w in table '%s' on constraint '%s'", ErrDuplicateKey, u.table, u.Constraint())
	}
	return nil
}

// BeforeInsert adapts the check to Session.OnBeforeInsert. Entities of
// other tables are ignored.
func (u UniqueCheck) BeforeInsert() BeforeInsertFunc {
	return func(ctx context.Context, s *Session, e *Entity) error {
		if e.TableName() != u.table {
			return nil
		}
		return u.Check(ctx, s.Engine(), e.values)
	}
}

func countOf(res *Result) int64 {
	if res == nil || len(res.Rows) == 0 || len(res.Rows[0]) == 0 {
		return 0
	}
	switch n := res.Rows[0][0].(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}
