package config_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/zoobzio/crateql"
	"github.com/zoobzio/crateql/config"
	"github.com/zoobzio/crateql/crate"
)

const document = `
connection:
  driver: http
  url: http://localhost:4200
  timeout: 5s
  retries: 2
server_version: 5.6.0
refresh: engine
tables:
  - name: characters
    columns:
      - {name: id, type: text, primary_key: true}
      - {name: name, type: text, nullable: false}
      - {name: details, type: object}
      - {name: tags, type: "array(text)"}
      - {name: embedding, type: "float_vector(3)", index: false}
    options:
      shards: "3"
      clustered-by: id
  - schema: testdrive
    name: cities
    columns:
      - {name: name, type: text}
      - {name: country, type: text}
      - {name: population, type: bigint, default: "0"}
    primary_key: [name, country]
    checks:
      - {name: positive, expression: "population >= 0"}
queries:
  by_planet:
    operation: select
    table: characters
    fields: [id, name]
    where: {field: "details['planet']", operator: "=", param: planet}
`

func TestParse(t *testing.T) {
	cfg, err := config.Parse([]byte(document))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Connection.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.Connection.Timeout)
	}
	if cfg.Connection.Retries == nil || *cfg.Connection.Retries != 2 {
		t.Errorf("Retries = %v, want 2", cfg.Connection.Retries)
	}
	if cfg.Placeholder != config.PlaceholderQuestion {
		t.Errorf("Placeholder = %q, want %q", cfg.Placeholder, config.PlaceholderQuestion)
	}
	if got := cfg.QueryNames(); !reflect.DeepEqual(got, []string{"by_planet"}) {
		t.Errorf("QueryNames() = %v", got)
	}

	defs, err := cfg.Definitions()
	if err != nil {
		t.Fatalf("Definitions() error = %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("got %d definitions, want 2", len(defs))
	}

	ddl, err := crate.CreateTable(defs[0], nil)
	if err != nil {
		t.Fatalf("CreateTable() error = %v", err)
	}
	expected := "CREATE TABLE characters (\n\tid STRING NOT NULL, \n\tname STRING NOT NULL, \n\tdetails OBJECT, " +
		"\n\ttags ARRAY(STRING), \n\tembedding FLOAT_VECTOR(3) INDEX OFF, \n\tPRIMARY KEY (id)\n) CLUSTERED BY (id) INTO 3 SHARDS"
	if ddl != expected {
		t.Errorf("DDL = %q, want %q", ddl, expected)
	}

	ddl, err = crate.CreateTable(defs[1], nil)
	if err != nil {
		t.Fatalf("CreateTable() error = %v", err)
	}
	expected = "CREATE TABLE testdrive.cities (\n\tname STRING NOT NULL, \n\tcountry STRING NOT NULL, " +
		"\n\tpopulation LONG DEFAULT 0, \n\tPRIMARY KEY (name, country), \n\tCONSTRAINT positive CHECK (population >= 0)\n)"
	if ddl != expected {
		t.Errorf("DDL = %q, want %q", ddl, expected)
	}
}

func TestQuery(t *testing.T) {
	cfg, err := config.Parse([]byte(document))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	instance, err := cfg.Instance()
	if err != nil {
		t.Fatalf("Instance() error = %v", err)
	}

	ast, err := cfg.Query(instance, "by_planet")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	stmt, err := instance.Compile(ast, crateql.Row{"planet": "Betelgeuse"})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if stmt.SQL != "SELECT id, name FROM characters WHERE details['planet'] = ?" {
		t.Errorf("SQL = %q", stmt.SQL)
	}
	if !reflect.DeepEqual(stmt.Args, []any{"Betelgeuse"}) {
		t.Errorf("Args = %v", stmt.Args)
	}

	if _, err := cfg.Query(instance, "missing"); err == nil {
		t.Error("expected error for unknown query")
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := config.Parse([]byte("connection:\n  driver: pgx\n  url: postgres://crate@localhost:5432/doc\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Refresh != config.RefreshNone {
		t.Errorf("Refresh = %q, want %q", cfg.Refresh, config.RefreshNone)
	}
	if cfg.PlaceholderStyle() != crate.Dollar {
		t.Errorf("PlaceholderStyle() = %v, want Dollar", cfg.PlaceholderStyle())
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want []string
	}{
		{
			name: "unknown key",
			yaml: "connection:\n  driver: http\n  hostname: localhost\n",
			want: []string{"field hostname not found"},
		},
		{
			name: "several problems",
			yaml: "connection:\n  driver: mysql\nrefresh: always\nplaceholder: colon\nserver_version: latest\n",
			want: []string{
				`connection.driver must be one of http, pgx, postgres, got "mysql"`,
				`refresh must be one of none, engine, session, got "always"`,
				`placeholder must be qmark or dollar, got "colon"`,
				`server_version "latest" is not a version`,
			},
		},
		{
			name: "unknown column type",
			yaml: "tables:\n  - name: ships\n    columns:\n      - {name: id, type: uuid}\n",
			want: []string{`tables[0]: table ships: column id: unknown type "uuid"`},
		},
		{
			name: "duplicate table",
			yaml: "tables:\n  - name: t\n    columns: [{name: a, type: int}]\n  - name: t\n    columns: [{name: a, type: int}]\n",
			want: []string{"tables[1]: duplicate table t"},
		},
		{
			name: "undefined primary key column",
			yaml: "tables:\n  - name: t\n    columns: [{name: a, type: int}]\n    primary_key: [b]\n",
			want: []string{"primary key column b is not defined"},
		},
		{
			name: "invalid option",
			yaml: "tables:\n  - name: t\n    columns: [{name: a, type: int}]\n    options: {durability: sometimes}\n",
			want: []string{"value sometimes not permitted"},
		},
		{
			name: "no columns",
			yaml: "tables:\n  - name: t\n",
			want: []string{"table t has no columns"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			for _, want := range tt.want {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("error = %q, want it to contain %q", err.Error(), want)
				}
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crateql.yaml")
	if err := os.WriteFile(path, []byte(document), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, ok := cfg.Table("characters"); !ok {
		t.Error("expected table characters")
	}

	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

// sqlServer records the statements posted to /_sql.
type sqlServer struct {
	mu    sync.Mutex
	stmts []string
}

func (s *sqlServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Stmt string `json:"stmt"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	s.mu.Lock()
	s.stmts = append(s.stmts, req.Stmt)
	s.mu.Unlock()
	_, _ = w.Write([]byte(`{"cols":[],"rowcount":1}`))
}

func (s *sqlServer) statements() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.stmts...)
}

func connect(t *testing.T, refresh string) (*config.Runtime, *sqlServer) {
	t.Helper()
	rec := &sqlServer{}
	srv := httptest.NewServer(rec)
	t.Cleanup(srv.Close)

	doc := strings.Replace(document, "http://localhost:4200", srv.URL, 1)
	doc = strings.Replace(doc, "refresh: engine", "refresh: "+refresh, 1)
	cfg, err := config.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	rt, err := cfg.Connect(context.Background(), nil)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	return rt, rec
}

func TestConnect_RefreshEngine(t *testing.T) {
	rt, rec := connect(t, config.RefreshEngine)
	instance := rt.Engine.Instance()

	_, err := rt.Engine.ExecBuilder(context.Background(),
		crateql.Delete(instance.T("characters")).
			Where(instance.C(instance.F("id"), crateql.EQ, instance.P("id"))),
		crateql.Row{"id": "1"})
	if err != nil {
		t.Fatalf("ExecBuilder() error = %v", err)
	}

	want := []string{"DELETE FROM characters WHERE id = ?", `REFRESH TABLE "characters"`}
	if got := rec.statements(); !reflect.DeepEqual(got, want) {
		t.Errorf("statements = %q, want %q", got, want)
	}
}

func TestConnect_RefreshSession(t *testing.T) {
	rt, rec := connect(t, config.RefreshSession)
	session := rt.NewSession()

	if err := session.Add(crateql.NewEntity("characters", map[string]any{
		"id": "1", "name": "Arthur",
	})); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := session.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	got := rec.statements()
	if len(got) != 2 {
		t.Fatalf("statements = %q, want an insert and a refresh", got)
	}
	if !strings.HasPrefix(got[0], "INSERT INTO characters") {
		t.Errorf("statements[0] = %q", got[0])
	}
	if got[1] != `REFRESH TABLE "characters"` {
		t.Errorf("statements[1] = %q, want %q", got[1], `REFRESH TABLE "characters"`)
	}
}

func TestConnect_RefreshNone(t *testing.T) {
	rt, rec := connect(t, config.RefreshNone)
	instance := rt.Engine.Instance()

	_, err := rt.Engine.ExecBuilder(context.Background(),
		crateql.Delete(instance.T("characters")).
			Where(instance.C(instance.F("id"), crateql.EQ, instance.P("id"))),
		crateql.Row{"id": "1"})
	if err != nil {
		t.Fatalf("ExecBuilder() error = %v", err)
	}
	if got := rec.statements(); len(got) != 1 {
		t.Errorf("statements = %q, want only the delete", got)
	}
}
