package crateql_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/zoobzio/crateql"
	"github.com/zoobzio/crateql/coltype"
	"github.com/zoobzio/crateql/crate"
)

func charactersTable() crate.TableDefinition {
	return crate.TableDefinition{
		Name: "characters",
		Columns: []crate.ColumnDefinition{
			{Name: "id", Type: coltype.Text(), PrimaryKey: true},
			{Name: "name", Type: coltype.Text()},
			{Name: "age", Type: coltype.Int()},
			{Name: "details", Type: coltype.Obj()},
			{Name: "tags", Type: coltype.ArrayOf(coltype.Text())},
			{Name: "created", Type: coltype.TimestampTZ()},
			{Name: "embedding", Type: coltype.Vector(3)},
			{Name: "lines", Type: coltype.ObjArray()},
		},
	}
}

func citiesTable() crate.TableDefinition {
	return crate.TableDefinition{
		Name: "cities",
		Columns: []crate.ColumnDefinition{
			{Name: "name", Type: coltype.Text()},
			{Name: "country", Type: coltype.Text()},
			{Name: "population", Type: coltype.BigInt()},
		},
		Constraints: []crate.Constraint{crate.PrimaryKeyConstraint{Columns: []string{"name", "country"}}},
	}
}

func newTestInstance(t *testing.T) *crateql.Instance {
	t.Helper()
	instance, err := crateql.New(charactersTable(), citiesTable())
	if err != nil {
		t.Fatalf("Failed to create instance: %v", err)
	}
	return instance
}

// fakeExecutor records statements and answers from a prefix table.
type fakeExecutor struct {
	mu       sync.Mutex
	results  map[string]*crateql.Result
	errs     map[string]error
	executed []*crateql.Statement
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{results: map[string]*crateql.Result{}, errs: map[string]error{}}
}

func (f *fakeExecutor) on(prefix string, res *crateql.Result) {
	f.results[prefix] = res
}

func (f *fakeExecutor) fail(prefix string, err error) {
	f.errs[prefix] = err
}

func (f *fakeExecutor) Exec(_ context.Context, stmt *crateql.Statement) (*crateql.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.executed = append(f.executed, stmt)
	for prefix, err := range f.errs {
		if strings.HasPrefix(stmt.SQL, prefix) {
			return nil, err
		}
	}
	for prefix, res := range f.results {
		if strings.HasPrefix(stmt.SQL, prefix) {
			return res, nil
		}
	}
	return &crateql.Result{RowCount: 1}, nil
}

func (f *fakeExecutor) sql() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.executed))
	for i, s := range f.executed {
		out[i] = s.SQL
	}
	return out
}

type dollarExecutor struct {
	*fakeExecutor
}

func (dollarExecutor) Placeholder() crate.Placeholder { return crate.Dollar }
