package crate

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/zoobzio/crateql/coltype"
	"github.com/zoobzio/crateql/internal/render"
)

func boolPtr(b bool) *bool { return &b }

func TestColumnSpec(t *testing.T) {
	tests := []struct {
		name string
		col  ColumnDefinition
		want string
	}{
		{"plain", ColumnDefinition{Name: "a", Type: coltype.Int()}, "a INT"},
		{"primary key", ColumnDefinition{Name: "a", Type: coltype.Int(), PrimaryKey: true}, "a INT NOT NULL"},
		{"not null", ColumnDefinition{Name: "a", Type: coltype.Text(), Nullable: boolPtr(false)}, "a STRING NOT NULL"},
		{"default", ColumnDefinition{Name: "a", Type: coltype.Text(), Default: "'Zaphod'"}, "a STRING DEFAULT 'Zaphod'"},
		{
			"generated",
			ColumnDefinition{Name: "p", Type: coltype.BigInt(), Generated: &Generated{Expression: "date_trunc('day', ts)"}},
			"p LONG GENERATED ALWAYS AS (date_trunc('day', ts))",
		},
		{
			"generated persisted",
			ColumnDefinition{Name: "p", Type: coltype.BigInt(), Generated: &Generated{Expression: "a + 1", Persisted: boolPtr(true)}},
			"p LONG GENERATED ALWAYS AS (a + 1)",
		},
		{"index off", ColumnDefinition{Name: "a", Type: coltype.Text(), Index: boolPtr(false)}, "a STRING INDEX OFF"},
		{"index on", ColumnDefinition{Name: "a", Type: coltype.Text(), Index: boolPtr(true)}, "a STRING"},
		{
			"columnstore off",
			ColumnDefinition{Name: "a", Type: coltype.Text(), Columnstore: boolPtr(false)},
			"a STRING STORAGE WITH (columnstore = false)",
		},
		{"object array", ColumnDefinition{Name: "tags", Type: coltype.ObjArray()}, "tags ARRAY(OBJECT)"},
		{"vector", ColumnDefinition{Name: "data", Type: coltype.Vector(3)}, "data FLOAT_VECTOR(3)"},
		{"array", ColumnDefinition{Name: "names", Type: coltype.ArrayOf(coltype.Text())}, "names ARRAY(STRING)"},
		{"timestamp", ColumnDefinition{Name: "ts", Type: coltype.TimestampTZ()}, "ts TIMESTAMP WITH TIME ZONE"},
		{"quoted name", ColumnDefinition{Name: "_id", Type: coltype.Text(), PrimaryKey: true}, `"_id" STRING NOT NULL`},
		{
			"full order",
			ColumnDefinition{
				Name: "a", Type: coltype.Text(), Default: "'x'", Nullable: boolPtr(false),
				Index: boolPtr(false), Columnstore: boolPtr(false),
			},
			"a STRING DEFAULT 'x' NOT NULL INDEX OFF STORAGE WITH (columnstore = false)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ColumnSpec(tt.col)
			if err != nil {
				t.Fatalf("ColumnSpec() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ColumnSpec() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestColumnSpec_Errors(t *testing.T) {
	tests := []struct {
		name string
		col  ColumnDefinition
		msg  string
	}{
		{
			"virtual generated",
			ColumnDefinition{Name: "p", Type: coltype.BigInt(), Generated: &Generated{Expression: "a", Persisted: boolPtr(false)}},
			"Virtual computed columns are not supported, set 'persisted' to None or True",
		},
		{
			"nullable primary key",
			ColumnDefinition{Name: "a", Type: coltype.Int(), PrimaryKey: true, Nullable: boolPtr(true)},
			"Primary key columns cannot be nullable",
		},
		{
			"index off on object",
			ColumnDefinition{Name: "a", Type: coltype.Obj(), Index: boolPtr(false)},
			"Disabling indexing is not supported for column types OBJECT, GEO_POINT, and GEO_SHAPE",
		},
		{
			"index off on geo point",
			ColumnDefinition{Name: "a", Type: coltype.Point(), Index: boolPtr(false)},
			"Disabling indexing is not supported for column types OBJECT, GEO_POINT, and GEO_SHAPE",
		},
		{
			"columnstore on integer",
			ColumnDefinition{Name: "a", Type: coltype.Int(), Columnstore: boolPtr(false)},
			"Controlling the columnstore is only allowed for STRING columns",
		},
		{
			"vector without dimension",
			ColumnDefinition{Name: "v", Type: coltype.Of(coltype.FloatVector)},
			"FloatVector must be initialized with dimension size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ColumnSpec(tt.col)
			if !errors.Is(err, render.ErrCompile) {
				t.Fatalf("error = %v, want ErrCompile", err)
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.msg)
			}
		})
	}
}

func TestCreateTable(t *testing.T) {
	def := TableDefinition{
		Name: "t",
		Columns: []ColumnDefinition{
			{Name: "a", Type: coltype.Int(), PrimaryKey: true},
			{Name: "b", Type: coltype.Int(), Nullable: boolPtr(true)},
		},
	}

	got, err := CreateTable(def, nil)
	if err != nil {
		t.Fatalf("CreateTable() error = %v", err)
	}
	want := "CREATE TABLE t (\n\ta INT NOT NULL, \n\tb INT, \n\tPRIMARY KEY (a)\n)"
	if got != want {
		t.Errorf("CreateTable() = %q, want %q", got, want)
	}
}

func TestCreateTable_PrimaryKeyConstraint(t *testing.T) {
	def := TableDefinition{
		Schema: "doc",
		Name:   "events",
		Columns: []ColumnDefinition{
			{Name: "pk", Type: coltype.Text()},
			{Name: "ts", Type: coltype.TimestampTZ()},
		},
		Constraints: []Constraint{
			PrimaryKeyConstraint{Columns: []string{"pk"}},
			CheckConstraint{Name: "ts_set", Expression: "ts IS NOT NULL"},
		},
	}

	got, err := CreateTable(def, nil)
	if err != nil {
		t.Fatalf("CreateTable() error = %v", err)
	}
	want := "CREATE TABLE doc.events (\n\tpk STRING NOT NULL, \n\tts TIMESTAMP WITH TIME ZONE, \n\t" +
		"PRIMARY KEY (pk), \n\tCONSTRAINT ts_set CHECK (ts IS NOT NULL)\n)"
	if got != want {
		t.Errorf("CreateTable() = %q, want %q", got, want)
	}
}

func TestCreateTable_DroppedConstraints(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	def := TableDefinition{
		Name:    "orders",
		Columns: []ColumnDefinition{{Name: "id", Type: coltype.Text()}, {Name: "user_id", Type: coltype.Text()}},
		Constraints: []Constraint{
			ForeignKeyConstraint{Name: "fk_user", Columns: []string{"user_id"}, RefTable: "users", RefColumns: []string{"id"}},
			UniqueConstraint{Name: "uq_user", Columns: []string{"user_id"}},
		},
	}

	got, err := CreateTable(def, logger)
	if err != nil {
		t.Fatalf("CreateTable() error = %v", err)
	}
	if want := "CREATE TABLE orders (\n\tid STRING, \n\tuser_id STRING\n)"; got != want {
		t.Errorf("CreateTable() = %q, want %q", got, want)
	}

	logged := buf.String()
	for _, msg := range []string{
		"CrateDB does not support foreign key constraints, they will be omitted when generating DDL statements.",
		"CrateDB does not support unique constraints, they will be omitted when generating DDL statements.",
	} {
		if !strings.Contains(logged, msg) {
			t.Errorf("missing warning %q in %q", msg, logged)
		}
	}
}

func TestCreateTable_Errors(t *testing.T) {
	if _, err := CreateTable(TableDefinition{Columns: []ColumnDefinition{{Name: "a", Type: coltype.Int()}}}, nil); err == nil {
		t.Error("expected error for missing table name")
	}
	if _, err := CreateTable(TableDefinition{Name: "t"}, nil); err == nil {
		t.Error("expected error for missing columns")
	}
	def := TableDefinition{
		Name:    "t",
		Columns: []ColumnDefinition{{Name: "a", Type: coltype.ArrayOf(coltype.ArrayOf(coltype.Int()))}},
	}
	_, err := CreateTable(def, nil)
	if !errors.Is(err, render.ErrUnsupportedType) {
		t.Errorf("error = %v, want ErrUnsupportedType", err)
	}
}

func TestTableOptions(t *testing.T) {
	tests := []struct {
		name    string
		options map[string]any
		want    string
	}{
		{"none", nil, ""},
		{"clustered", map[string]any{"crate_clustered_by": "p", "crate_number_of_shards": 3}, " CLUSTERED BY (p) INTO 3 SHARDS"},
		{"shards only", map[string]any{"crate_number_of_shards": 3}, " CLUSTERED INTO 3 SHARDS"},
		{"clustered by only", map[string]any{"crate_clustered_by": "p"}, " CLUSTERED BY (p)"},
		{"partitioned", map[string]any{"crate_partitioned_by": []string{"a", "b"}}, " PARTITIONED BY (a, b)"},
		{
			"with sorted",
			map[string]any{"crate_number_of_replicas": "2", "crate_\"translog.durability\"": "'async'", "crate_column_policy": "'strict'"},
			` WITH ("translog.durability" = 'async', column_policy = 'strict', number_of_replicas = 2)`,
		},
		{
			"all clauses",
			map[string]any{
				"crate_partitioned_by":     "day",
				"crate_number_of_replicas": 2,
				"crate_number_of_shards":   3,
				"crate_clustered_by":       "p",
				"crate_refresh_interval":   1000,
			},
			" CLUSTERED BY (p) INTO 3 SHARDS PARTITIONED BY (day) WITH (number_of_replicas = 2, refresh_interval = 1000)",
		},
		{"foreign options ignored", map[string]any{"postgresql_with_oids": true, "mysql_engine": "InnoDB"}, ""},
		{"bool", map[string]any{"crate_blocks.read_only": false}, " WITH (blocks.read_only = false)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TableOptions(tt.options); got != tt.want {
				t.Errorf("TableOptions() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCreateTable_WithOptions(t *testing.T) {
	def := TableDefinition{
		Name:    "t",
		Columns: []ColumnDefinition{{Name: "p", Type: coltype.Text()}},
		Options: map[string]any{"crate_number_of_shards": 3, "crate_number_of_replicas": 2},
	}
	got, err := CreateTable(def, nil)
	if err != nil {
		t.Fatalf("CreateTable() error = %v", err)
	}
	if !strings.HasSuffix(got, ") CLUSTERED INTO 3 SHARDS WITH (number_of_replicas = 2)") {
		t.Errorf("CreateTable() = %q", got)
	}
}

func TestDropTable(t *testing.T) {
	if got := DropTable("", "t", false); got != "DROP TABLE t" {
		t.Errorf("DropTable() = %q", got)
	}
	if got := DropTable("my-schema", "t", true); got != `DROP TABLE IF EXISTS "my-schema".t` {
		t.Errorf("DropTable() = %q", got)
	}
}

func TestTableDefinition_PrimaryKey(t *testing.T) {
	def := TableDefinition{
		Columns: []ColumnDefinition{{Name: "a", PrimaryKey: true}, {Name: "b"}, {Name: "c", PrimaryKey: true}},
	}
	if got := def.PrimaryKey(); strings.Join(got, ",") != "a,c" {
		t.Errorf("PrimaryKey() = %v, want [a c]", got)
	}

	def.Constraints = []Constraint{PrimaryKeyConstraint{Columns: []string{"b"}}}
	if got := def.PrimaryKey(); strings.Join(got, ",") != "b" {
		t.Errorf("PrimaryKey() = %v, want [b]", got)
	}

	if _, ok := def.Column("c"); !ok {
		t.Error("Column(c) not found")
	}
	if _, ok := def.Column("z"); ok {
		t.Error("Column(z) found")
	}
}
