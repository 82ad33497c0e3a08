package executor

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/zoobzio/crateql"
	"github.com/zoobzio/crateql/coltype"
	"github.com/zoobzio/crateql/crate"
)

// DefaultSchema is used when no schema is given.
const DefaultSchema = "doc"

// subscriptPattern matches reflected subscript columns such as details['name'].
const subscriptPattern = `(.*)\['(.*)'\]`

// Column is a reflected column.
type Column struct {
	Name     string
	DataType string
	Type     coltype.Descriptor
	// Known is false when DataType has no descriptor.
	Known bool
}

// Inspector reads schema information from information_schema.
type Inspector struct {
	engine *crateql.Engine
	logger *slog.Logger
}

// NewInspector creates an inspector querying through engine. A nil logger
// uses slog.Default().
func NewInspector(engine *crateql.Engine, logger *slog.Logger) *Inspector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inspector{engine: engine, logger: logger}
}

// param returns the n-th (1-based) placeholder in the engine's style.
func (i *Inspector) param(n int) string {
	if i.engine.Renderer().Placeholder() == crate.Dollar {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

func schemaOrDefault(schema string) string {
	if schema == "" {
		return DefaultSchema
	}
	return schema
}

func (i *Inspector) firstColumn(ctx context.Context, sql string, args ...any) ([]string, error) {
	res, err := i.engine.ExecSQL(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		if len(row) == 0 {
			continue
		}
		s, ok := row[0].(string)
		if !ok {
			return nil, fmt.Errorf("executor: expected a string, got %T", row[0])
		}
		out = append(out, s)
	}
	return out, nil
}

// ServerVersion returns the lowest node version of the cluster.
func (i *Inspector) ServerVersion(ctx context.Context) (string, error) {
	if err := i.engine.Initialize(ctx); err != nil {
		return "", err
	}
	return i.engine.ServerVersion(), nil
}

// SchemaNames lists all schemas.
func (i *Inspector) SchemaNames(ctx context.Context) ([]string, error) {
	return i.firstColumn(ctx, "SELECT schema_name FROM information_schema.schemata ORDER BY schema_name ASC")
}

// HasSchema reports whether schema exists.
func (i *Inspector) HasSchema(ctx context.Context, schema string) (bool, error) {
	names, err := i.SchemaNames(ctx)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == schema {
			return true, nil
		}
	}
	return false, nil
}

// TableNames lists the base tables of schema.
func (i *Inspector) TableNames(ctx context.Context, schema string) ([]string, error) {
	sql := "SELECT table_name FROM information_schema.tables WHERE table_schema = " + i.param(1) +
		" AND table_type = 'BASE TABLE' ORDER BY table_name ASC, table_schema ASC"
	return i.firstColumn(ctx, sql, schemaOrDefault(schema))
}

// HasTable reports whether table exists in schema.
func (i *Inspector) HasTable(ctx context.Context, table, schema string) (bool, error) {
	names, err := i.TableNames(ctx, schema)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == table {
			return true, nil
		}
	}
	return false, nil
}

// ViewNames lists the views of schema.
func (i *Inspector) ViewNames(ctx context.Context, schema string) ([]string, error) {
	sql := "SELECT table_name FROM information_schema.views WHERE table_schema = " + i.param(1) +
		" ORDER BY table_name ASC, table_schema ASC"
	return i.firstColumn(ctx, sql, schemaOrDefault(schema))
}

// Columns lists the top-level columns of table. Subscript columns of objects
// are filtered out.
func (i *Inspector) Columns(ctx context.Context, table, schema string) ([]Column, error) {
	sql := "SELECT column_name, data_type FROM information_schema.columns WHERE table_name = " + i.param(1) +
		" AND table_schema = " + i.param(2) + " AND column_name !~ " + i.param(3) +
		" ORDER BY ordinal_position ASC"
	res, err := i.engine.ExecSQL(ctx, sql, table, schemaOrDefault(schema), subscriptPattern)
	if err != nil {
		return nil, err
	}

	cols := make([]Column, 0, len(res.Rows))
	for _, row := range res.Rows {
		if len(row) < 2 {
			continue
		}
		name, _ := row[0].(string)
		dataType, _ := row[1].(string)
		d, known := coltype.Parse(dataType)
		if !known {
			i.logger.Warn("Did not recognize type", "type", dataType, "column", name, "table", table)
		}
		cols = append(cols, Column{Name: name, DataType: dataType, Type: d, Known: known})
	}
	return cols, nil
}

// PrimaryKey returns the sorted primary key columns of table. The query
// depends on the server version.
func (i *Inspector) PrimaryKey(ctx context.Context, table, schema string) ([]string, error) {
	version, err := i.ServerVersion(ctx)
	if err != nil {
		return nil, err
	}
	schema = schemaOrDefault(schema)

	var pk []string
	switch {
	case crate.AtLeast(version, "3.0.0"):
		pk, err = i.firstColumn(ctx, "SELECT column_name FROM information_schema.key_column_usage WHERE table_name = "+
			i.param(1)+" AND table_schema = "+i.param(2), table, schema)
	case crate.AtLeast(version, "2.3.0"):
		pk, err = i.firstColumn(ctx, "SELECT column_name FROM information_schema.key_column_usage WHERE table_name = "+
			i.param(1)+" AND table_catalog = "+i.param(2), table, schema)
	default:
		pk, err = i.legacyPrimaryKey(ctx, table, schema)
	}
	if err != nil {
		return nil, err
	}
	sort.Strings(pk)
	return pk, nil
}

// legacyPrimaryKey reads the constraint_name array of old servers.
func (i *Inspector) legacyPrimaryKey(ctx context.Context, table, schema string) ([]string, error) {
	sql := "SELECT constraint_name FROM information_schema.table_constraints WHERE table_name = " + i.param(1) +
		" AND table_schema = " + i.param(2) + " AND constraint_type = 'PRIMARY_KEY'"
	res, err := i.engine.ExecSQL(ctx, sql, table, schema)
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 || len(res.Rows[0]) == 0 {
		return nil, nil
	}
	names, ok := res.Rows[0][0].([]any)
	if !ok {
		return nil, fmt.Errorf("executor: expected an array of constraint names, got %T", res.Rows[0][0])
	}
	pk := make([]string, 0, len(names))
	for _, n := range names {
		if s, ok := n.(string); ok {
			pk = append(pk, s)
		}
	}
	return pk, nil
}

// TableDefinition reflects table into a definition usable with crateql.New.
// Columns of unknown types are skipped.
func (i *Inspector) TableDefinition(ctx context.Context, table, schema string) (crate.TableDefinition, error) {
	cols, err := i.Columns(ctx, table, schema)
	if err != nil {
		return crate.TableDefinition{}, err
	}
	if len(cols) == 0 {
		return crate.TableDefinition{}, fmt.Errorf("executor: table %s.%s not found", schemaOrDefault(schema), table)
	}
	pk, err := i.PrimaryKey(ctx, table, schema)
	if err != nil {
		return crate.TableDefinition{}, err
	}
	inPK := make(map[string]bool, len(pk))
	for _, name := range pk {
		inPK[name] = true
	}

	def := crate.TableDefinition{Schema: schema, Name: table}
	for _, c := range cols {
		if !c.Known {
			continue
		}
		def.Columns = append(def.Columns, crate.ColumnDefinition{
			Name:       c.Name,
			Type:       c.Type,
			PrimaryKey: inPK[c.Name],
		})
	}
	return def, nil
}
