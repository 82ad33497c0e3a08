package refresh_test

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/zoobzio/crateql"
	"github.com/zoobzio/crateql/coltype"
	"github.com/zoobzio/crateql/crate"
	"github.com/zoobzio/crateql/refresh"
)

type recorder struct {
	mu   sync.Mutex
	sql  []string
	fail map[string]error
}

func (r *recorder) Exec(_ context.Context, stmt *crateql.Statement) (*crateql.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sql = append(r.sql, stmt.SQL)
	for prefix, err := range r.fail {
		if strings.HasPrefix(stmt.SQL, prefix) {
			return nil, err
		}
	}
	return &crateql.Result{RowCount: 1}, nil
}

func newEngine(t *testing.T) (*crateql.Engine, *recorder) {
	t.Helper()
	instance, err := crateql.New(
		crate.TableDefinition{
			Name: "foobar",
			Columns: []crate.ColumnDefinition{
				{Name: "id", Type: coltype.Text(), PrimaryKey: true},
				{Name: "name", Type: coltype.Text()},
			},
		},
		crate.TableDefinition{
			Schema: "testdrive",
			Name:   "Characters",
			Columns: []crate.ColumnDefinition{
				{Name: "id", Type: coltype.Text(), PrimaryKey: true},
				{Name: "foobar_id", Type: coltype.Text()},
			},
		},
	)
	if err != nil {
		t.Fatalf("Failed to create instance: %v", err)
	}
	rec := &recorder{fail: map[string]error{}}
	return crateql.NewEngine(instance, rec), rec
}

type model struct{ name string }

func (m model) TableName() string { return m.name }

func TestStatement(t *testing.T) {
	tests := []struct {
		name     string
		target   any
		expected string
	}{
		{"table", crateql.Table{Name: "foobar"}, `REFRESH TABLE "foobar"`},
		{"table with schema", crateql.Table{Schema: "testdrive", Name: "foobar"}, `REFRESH TABLE "testdrive"."foobar"`},
		{"table pointer", &crateql.Table{Name: `we"ird`}, `REFRESH TABLE "we""ird"`},
		{"alias ignored", crateql.Table{Name: "foobar", Alias: "f"}, `REFRESH TABLE "foobar"`},
		{"declared name", model{name: "foobar"}, "REFRESH TABLE foobar"},
		{"raw string", "testdrive.foobar", "REFRESH TABLE testdrive.foobar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, err := refresh.Statement(tt.target)
			if err != nil {
				t.Fatalf("Statement() error = %v", err)
			}
			if sql != tt.expected {
				t.Errorf("SQL = %q, want %q", sql, tt.expected)
			}
		})
	}
}

func TestStatement_Errors(t *testing.T) {
	var nilTable *crateql.Table
	for _, target := range []any{"", crateql.Table{}, nilTable, model{}, 42} {
		if _, err := refresh.Statement(target); err == nil {
			t.Errorf("Statement(%#v) expected error", target)
		}
	}
}

func TestAfterDML(t *testing.T) {
	engine, rec := newEngine(t)
	refresh.AfterDML(engine)
	instance := engine.Instance()
	ctx := context.Background()

	insert := crateql.Insert(instance.T("foobar")).
		Value(instance.F("id"), instance.P("id")).
		MustBuild()
	if _, err := engine.Exec(ctx, insert, crateql.Row{"id": "1"}); err != nil {
		t.Fatalf("Exec() error = %v", err)
	}

	update := crateql.Update(instance.T("Characters", "c")).
		Set(instance.F("foobar_id"), instance.P("ref")).
		Where(instance.C(instance.F("id"), crateql.EQ, instance.P("id"))).
		MustBuild()
	if _, err := engine.Exec(ctx, update, crateql.Row{"ref": "1", "id": "2"}); err != nil {
		t.Fatalf("Exec() error = %v", err)
	}

	sel := crateql.Select(instance.T("foobar")).MustBuild()
	if _, err := engine.Exec(ctx, sel); err != nil {
		t.Fatalf("Exec() error = %v", err)
	}

	joined := crateql.Select(instance.T("foobar", "f")).
		Join(instance.T("Characters", "c"), crateql.CF(
			instance.WithTable(instance.F("id"), "f"), crateql.EQ, instance.WithTable(instance.F("foobar_id"), "c"))).
		MustBuild()
	if _, err := engine.Exec(ctx, joined); err != nil {
		t.Fatalf("Exec() error = %v", err)
	}

	want := []string{
		"INSERT INTO foobar (id) VALUES (?)",
		`REFRESH TABLE "foobar"`,
		`UPDATE testdrive."Characters" c SET foobar_id = ? WHERE id = ?`,
		`REFRESH TABLE "testdrive"."Characters"`,
		"SELECT * FROM foobar",
		`SELECT * FROM foobar f INNER JOIN testdrive."Characters" c ON f.id = c.foobar_id`,
	}
	if !reflect.DeepEqual(rec.sql, want) {
		t.Errorf("executed:\n%s\nwant:\n%s", strings.Join(rec.sql, "\n"), strings.Join(want, "\n"))
	}
}

func TestAfterDML_RefreshError(t *testing.T) {
	engine, rec := newEngine(t)
	rec.fail["REFRESH"] = errors.New("table not found")
	refresh.AfterDML(engine)
	instance := engine.Instance()

	del := crateql.Delete(instance.T("foobar")).Where(instance.NotNull(instance.F("id"))).MustBuild()
	_, err := engine.Exec(context.Background(), del)
	if err == nil || err.Error() != "after execute: refresh: table not found" {
		t.Errorf("Exec() error = %v", err)
	}
}

func TestAfterFlush(t *testing.T) {
	engine, rec := newEngine(t)
	session := crateql.NewSession(engine)
	refresh.AfterFlush(session)
	ctx := context.Background()

	first := crateql.NewEntity("foobar", map[string]any{"id": "1", "name": "foo"})
	second := crateql.NewEntity("foobar", map[string]any{"id": "2", "name": "bar"})
	other := crateql.NewEntity("Characters", map[string]any{"id": "3"})
	for _, err := range []error{session.Add(first), session.Add(second), session.Delete(other)} {
		if err != nil {
			t.Fatal(err)
		}
	}
	if err := session.Flush(ctx); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	var refreshed []string
	for _, sql := range rec.sql {
		if strings.HasPrefix(sql, "REFRESH") {
			refreshed = append(refreshed, sql)
		}
	}
	want := []string{`REFRESH TABLE "foobar"`, `REFRESH TABLE "testdrive"."Characters"`}
	if !reflect.DeepEqual(refreshed, want) {
		t.Errorf("refreshed %v, want %v", refreshed, want)
	}
}

func TestAfterFlush_QualifiedTable(t *testing.T) {
	engine, rec := newEngine(t)
	session := crateql.NewSession(engine)
	refresh.AfterFlush(session)

	if err := session.Add(crateql.NewEntity("Characters", map[string]any{"id": "1"})); err != nil {
		t.Fatal(err)
	}
	if err := session.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	want := []string{
		`INSERT INTO testdrive."Characters" (id) VALUES (?)`,
		`REFRESH TABLE "testdrive"."Characters"`,
	}
	if !reflect.DeepEqual(rec.sql, want) {
		t.Errorf("executed %q, want %q", rec.sql, want)
	}
}

func TestAfterFlush_NothingWritten(t *testing.T) {
	engine, rec := newEngine(t)
	session := crateql.NewSession(engine)
	refresh.AfterFlush(session)

	if err := session.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if len(rec.sql) != 0 {
		t.Errorf("executed %v", rec.sql)
	}
}
