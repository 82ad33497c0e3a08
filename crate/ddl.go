package crate

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/zoobzio/crateql/coltype"
	"github.com/zoobzio/crateql/internal/render"
)

// OptionPrefix namespaces table options belonging to this dialect.
const OptionPrefix = "crate_"

// TableDefinition is the input to the DDL compiler.
type TableDefinition struct {
	Schema      string
	Name        string
	Columns     []ColumnDefinition
	Constraints []Constraint
	// Options holds table options. Only keys starting with OptionPrefix are
	// rendered; the rest belong to other dialects and are ignored.
	Options map[string]any
}

// Generated describes a computed column.
type Generated struct {
	Expression string
	// Persisted false requests a virtual column, which is rejected.
	Persisted *bool
}

// ColumnDefinition describes one column.
type ColumnDefinition struct {
	Name       string
	Type       coltype.Descriptor
	PrimaryKey bool
	// Nullable nil means "not primary key".
	Nullable *bool
	// Default is a server-side default expression, rendered verbatim.
	Default   string
	Generated *Generated
	// Index false renders INDEX OFF.
	Index *bool
	// Columnstore false renders STORAGE WITH (columnstore = false).
	Columnstore *bool
}

// IsNullable resolves the effective nullability.
func (c ColumnDefinition) IsNullable() bool {
	if c.Nullable != nil {
		return *c.Nullable
	}
	return !c.PrimaryKey
}

// Column returns the definition of the named column.
func (t TableDefinition) Column(name string) (ColumnDefinition, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnDefinition{}, false
}

// PrimaryKey returns the primary key column names in declaration order.
// A PrimaryKeyConstraint takes precedence over column flags.
func (t TableDefinition) PrimaryKey() []string {
	for _, c := range t.Constraints {
		if pk, ok := c.(PrimaryKeyConstraint); ok {
			return pk.Columns
		}
	}
	var pk []string
	for _, c := range t.Columns {
		if c.PrimaryKey {
			pk = append(pk, c.Name)
		}
	}
	return pk
}

// Constraint is a table constraint.
type Constraint interface {
	isConstraint()
}

// PrimaryKeyConstraint lists the primary key columns.
type PrimaryKeyConstraint struct {
	Columns []string
}

// ForeignKeyConstraint is accepted and omitted with a warning.
type ForeignKeyConstraint struct {
	Name       string
	Columns    []string
	RefTable   string
	RefColumns []string
}

// UniqueConstraint is accepted and omitted with a warning.
type UniqueConstraint struct {
	Name    string
	Columns []string
}

// CheckConstraint renders CONSTRAINT <name> CHECK (<expr>).
type CheckConstraint struct {
	Name       string
	Expression string
}

func (PrimaryKeyConstraint) isConstraint() {}
func (ForeignKeyConstraint) isConstraint() {}
func (UniqueConstraint) isConstraint()     {}
func (CheckConstraint) isConstraint()      {}

const (
	foreignKeyWarning = "CrateDB does not support foreign key constraints, " +
		"they will be omitted when generating DDL statements."
	uniqueWarning = "CrateDB does not support unique constraints, " +
		"they will be omitted when generating DDL statements."
)

// ColumnSpec renders a single column specification.
func ColumnSpec(col ColumnDefinition) (string, error) {
	typeName, err := coltype.TypeName(col.Type)
	if err != nil {
		return "", fmt.Errorf("column %s: %w", col.Name, err)
	}

	var b strings.Builder
	b.WriteString(QuoteIdentifier(col.Name))
	b.WriteString(" ")
	b.WriteString(typeName)

	if col.Default != "" {
		b.WriteString(" DEFAULT ")
		b.WriteString(col.Default)
	}

	if col.Generated != nil {
		if col.Generated.Persisted != nil && !*col.Generated.Persisted {
			return "", render.CompileErrorf("Virtual computed columns are not supported, set 'persisted' to None or True")
		}
		b.WriteString(" GENERATED ALWAYS AS (")
		b.WriteString(col.Generated.Expression)
		b.WriteString(")")
	}

	if !col.IsNullable() {
		b.WriteString(" NOT NULL")
	} else if col.PrimaryKey {
		return "", render.CompileErrorf("Primary key columns cannot be nullable")
	}

	if col.Index != nil && !*col.Index {
		if !col.Type.Indexable() {
			return "", render.CompileErrorf("Disabling indexing is not supported for column types OBJECT, GEO_POINT, and GEO_SHAPE")
		}
		b.WriteString(" INDEX OFF")
	}

	if col.Columnstore != nil && !*col.Columnstore {
		if !col.Type.IsString() {
			return "", render.CompileErrorf("Controlling the columnstore is only allowed for STRING columns")
		}
		b.WriteString(" STORAGE WITH (columnstore = false)")
	}

	return b.String(), nil
}

// CreateTable renders a CREATE TABLE statement for def. Dropped constraints
// are reported on logger; a nil logger uses slog.Default().
func CreateTable(def TableDefinition, logger *slog.Logger) (string, error) {
	if def.Name == "" {
		return "", render.CompileErrorf("table name is required")
	}
	if len(def.Columns) == 0 {
		return "", render.CompileErrorf("table %s has no columns", def.Name)
	}

	pk := def.PrimaryKey()
	inPK := make(map[string]bool, len(pk))
	for _, name := range pk {
		inPK[name] = true
	}

	elements := make([]string, 0, len(def.Columns)+len(def.Constraints)+1)
	for _, col := range def.Columns {
		col.PrimaryKey = col.PrimaryKey || inPK[col.Name]
		spec, err := ColumnSpec(col)
		if err != nil {
			return "", err
		}
		elements = append(elements, spec)
	}

	if len(pk) > 0 {
		quoted := make([]string, len(pk))
		for i, name := range pk {
			quoted[i] = QuoteIdentifier(name)
		}
		elements = append(elements, "PRIMARY KEY ("+strings.Join(quoted, ", ")+")")
	}

	for _, c := range def.Constraints {
		switch v := c.(type) {
		case PrimaryKeyConstraint:
			// rendered above
		case ForeignKeyConstraint:
			render.Warn(logger, foreignKeyWarning, "table", def.Name, "constraint", v.Name)
		case UniqueConstraint:
			render.Warn(logger, uniqueWarning, "table", def.Name, "constraint", v.Name)
		case CheckConstraint:
			check := "CHECK (" + v.Expression + ")"
			if v.Name != "" {
				check = "CONSTRAINT " + QuoteIdentifier(v.Name) + " " + check
			}
			elements = append(elements, check)
		default:
			return "", render.CompileErrorf("unknown constraint %T", c)
		}
	}

	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(qualifiedName(def.Schema, def.Name))
	b.WriteString(" (\n\t")
	b.WriteString(strings.Join(elements, ", \n\t"))
	b.WriteString("\n)")
	b.WriteString(TableOptions(def.Options))
	return b.String(), nil
}

// DropTable renders a DROP TABLE statement.
func DropTable(schema, name string, ifExists bool) string {
	if ifExists {
		return "DROP TABLE IF EXISTS " + qualifiedName(schema, name)
	}
	return "DROP TABLE " + qualifiedName(schema, name)
}

func qualifiedName(schema, name string) string {
	if schema == "" {
		return QuoteIdentifier(name)
	}
	return QuoteIdentifier(schema) + "." + QuoteIdentifier(name)
}

// TableOptions renders the clauses that follow the column list:
// CLUSTERED, PARTITIONED BY, then WITH (...) with keys sorted.
func TableOptions(options map[string]any) string {
	var clusteredBy, shards, partitionedBy string
	var with []string

	for key, value := range options {
		name, ok := strings.CutPrefix(key, OptionPrefix)
		if !ok {
			continue
		}
		v := formatOption(value)
		switch name {
		case "clustered_by":
			clusteredBy = " BY (" + v + ")"
		case "number_of_shards":
			shards = " INTO " + v + " SHARDS"
		case "partitioned_by":
			partitionedBy = " PARTITIONED BY (" + v + ")"
		default:
			with = append(with, name+" = "+v)
		}
	}

	var b strings.Builder
	if clusteredBy != "" || shards != "" {
		b.WriteString(" CLUSTERED")
		b.WriteString(clusteredBy)
		b.WriteString(shards)
	}
	b.WriteString(partitionedBy)
	if len(with) > 0 {
		sort.Strings(with)
		b.WriteString(" WITH (")
		b.WriteString(strings.Join(with, ", "))
		b.WriteString(")")
	}
	return b.String()
}

func formatOption(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case []string:
		return strings.Join(t, ", ")
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}
