package crateql_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/zoobzio/crateql"
	"github.com/zoobzio/crateql/coltype"
	"github.com/zoobzio/crateql/crate"
	"github.com/zoobzio/dbml"
)

func createDBMLInstance(t *testing.T) *crateql.Instance {
	t.Helper()

	project := dbml.NewProject("test")
	users := dbml.NewTable("users")
	users.AddColumn(dbml.NewColumn("id", "bigint"))
	users.AddColumn(dbml.NewColumn("username", "varchar"))
	users.AddColumn(dbml.NewColumn("profile", "object"))
	users.AddColumn(dbml.NewColumn("created_at", "timestamp with time zone"))
	users.AddColumn(dbml.NewColumn("scores", "integer_array"))
	project.AddTable(users)

	instance, err := crateql.NewFromDBML(project)
	if err != nil {
		t.Fatalf("Failed to create instance: %v", err)
	}
	return instance
}

func TestNewFromDBML(t *testing.T) {
	instance := createDBMLInstance(t)

	def, ok := instance.Table("users")
	if !ok {
		t.Fatal("users table not registered")
	}

	want := map[string]coltype.Kind{
		"id":         coltype.Long,
		"username":   coltype.String,
		"profile":    coltype.Object,
		"created_at": coltype.Timestamp,
		"scores":     coltype.Array,
	}
	for name, kind := range want {
		col, ok := def.Column(name)
		if !ok {
			t.Errorf("column %s missing", name)
			continue
		}
		if col.Type.Kind != kind {
			t.Errorf("column %s kind = %s, want %s", name, col.Type.Kind, kind)
		}
	}
}

func TestNewFromDBML_Errors(t *testing.T) {
	if _, err := crateql.NewFromDBML(nil); err == nil {
		t.Error("expected error for nil project")
	}

	project := dbml.NewProject("test")
	table := dbml.NewTable("t")
	table.AddColumn(dbml.NewColumn("c", "money"))
	project.AddTable(table)

	_, err := crateql.NewFromDBML(project)
	if !errors.Is(err, crateql.ErrUnsupportedType) {
		t.Errorf("error = %v, want ErrUnsupportedType", err)
	}
}

func TestNew_Errors(t *testing.T) {
	if _, err := crateql.New(crate.TableDefinition{}); err == nil {
		t.Error("expected error for unnamed table")
	}
	if _, err := crateql.New(charactersTable(), charactersTable()); err == nil {
		t.Error("expected error for duplicate table")
	}
}

func TestInstance_TryMethods(t *testing.T) {
	instance := newTestInstance(t)

	tests := []struct {
		name string
		fn   func() error
		ok   bool
	}{
		{"T valid", func() error { _, err := instance.TryT("characters"); return err }, true},
		{"T alias", func() error { _, err := instance.TryT("characters", "c"); return err }, true},
		{"T unknown", func() error { _, err := instance.TryT("unknown"); return err }, false},
		{"T bad alias", func() error { _, err := instance.TryT("characters", "CC"); return err }, false},
		{"T two aliases", func() error { _, err := instance.TryT("characters", "a", "b"); return err }, false},
		{"F valid", func() error { _, err := instance.TryF("details"); return err }, true},
		{"F unknown", func() error { _, err := instance.TryF("nope"); return err }, false},
		{"P valid", func() error { _, err := instance.TryP("user_id"); return err }, true},
		{"P keyword", func() error { _, err := instance.TryP("select"); return err }, false},
		{"P injection", func() error { _, err := instance.TryP("id; DROP TABLE x"); return err }, false},
		{"P leading digit", func() error { _, err := instance.TryP("1id"); return err }, false},
		{"C unknown field", func() error {
			_, err := instance.TryC(crateql.Field{Name: "nope"}, crateql.EQ, instance.P("p"))
			return err
		}, false},
		{"Any on array", func() error { _, err := instance.TryAny(instance.P("t"), crateql.EQ, instance.F("tags")); return err }, true},
		{"Any on object array", func() error { _, err := instance.TryAny(instance.P("t"), crateql.EQ, instance.F("lines")); return err }, true},
		{"Any on scalar", func() error { _, err := instance.TryAny(instance.P("t"), crateql.EQ, instance.F("name")); return err }, false},
		{"Knn on vector", func() error { _, err := instance.TryKnn(instance.F("embedding"), instance.P("q"), 3); return err }, true},
		{"Knn on text", func() error { _, err := instance.TryKnn(instance.F("name"), instance.P("q"), 3); return err }, false},
		{"Knn zero k", func() error { _, err := instance.TryKnn(instance.F("embedding"), instance.P("q"), 0); return err }, false},
		{"And empty", func() error { _, err := instance.TryAnd(); return err }, false},
		{"Or empty", func() error { _, err := instance.TryOr(); return err }, false},
		{"WithTable alias", func() error { _, err := instance.TryWithTable(instance.F("name"), "c"); return err }, true},
		{"WithTable table", func() error { _, err := instance.TryWithTable(instance.F("name"), "cities"); return err }, true},
		{"WithTable invalid", func() error { _, err := instance.TryWithTable(instance.F("name"), "xx"); return err }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestInstance_PanicsOnInvalid(t *testing.T) {
	instance := newTestInstance(t)

	defer func() {
		if r := recover(); r == nil {
			t.Error("F with unknown field did not panic")
		}
	}()
	instance.F("nope")
}

func TestInstance_TableCarriesSchema(t *testing.T) {
	def := charactersTable()
	def.Schema = "game"
	instance, err := crateql.New(def)
	if err != nil {
		t.Fatal(err)
	}

	result, err := crateql.Select(instance.T("characters")).Render(crate.New())
	if err != nil {
		t.Fatal(err)
	}
	if result.SQL != "SELECT * FROM game.characters" {
		t.Errorf("SQL = %q", result.SQL)
	}
}

func TestInstance_CreateTable(t *testing.T) {
	instance := newTestInstance(t)

	ddl, err := instance.CreateTable("cities", nil)
	if err != nil {
		t.Fatalf("CreateTable() error = %v", err)
	}
	want := "CREATE TABLE cities (\n\tname STRING NOT NULL, \n\tcountry STRING NOT NULL, \n\tpopulation LONG, \n\tPRIMARY KEY (name, country)\n)"
	if ddl != want {
		t.Errorf("CreateTable() = %q, want %q", ddl, want)
	}

	if _, err := instance.CreateTable("unknown", nil); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("error = %v, want not found", err)
	}

	if got := len(instance.Tables()); got != 2 {
		t.Errorf("Tables() = %d, want 2", got)
	}
}
