package crateql

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/zoobzio/crateql/coltype"
	"github.com/zoobzio/crateql/crate"
	"github.com/zoobzio/crateql/internal/types"
	"github.com/zoobzio/dbml"
)

// Instance validates references against a set of table definitions and
// compiles statements with their column types.
type Instance struct {
	tables   map[string]crate.TableDefinition
	names    []string
	renderer *crate.Renderer
}

// New creates an Instance from table definitions.
func New(defs ...crate.TableDefinition) (*Instance, error) {
	inst := &Instance{
		tables:   make(map[string]crate.TableDefinition, len(defs)),
		renderer: crate.New(),
	}
	for _, def := range defs {
		if def.Name == "" {
			return nil, fmt.Errorf("table definition without a name")
		}
		if _, dup := inst.tables[def.Name]; dup {
			return nil, fmt.Errorf("table '%s' defined twice", def.Name)
		}
		inst.tables[def.Name] = def
		inst.names = append(inst.names, def.Name)
	}
	return inst, nil
}

// NewFromDBML creates an Instance from a DBML project. Column types are
// resolved with coltype.Parse; an unknown type name is an error.
func NewFromDBML(project *dbml.Project) (*Instance, error) {
	if project == nil {
		return nil, fmt.Errorf("project cannot be nil")
	}

	defs := make([]crate.TableDefinition, 0, len(project.Tables))
	for _, table := range project.Tables {
		def := crate.TableDefinition{Name: table.Name}
		for _, col := range table.Columns {
			d, ok := coltype.Parse(col.Type)
			if !ok {
				return nil, fmt.Errorf("table '%s' column '%s': %w: %s", table.Name, col.Name, ErrUnsupportedType, col.Type)
			}
			def.Columns = append(def.Columns, crate.ColumnDefinition{Name: col.Name, Type: d})
		}
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return New(defs...)
}

// WithRenderer returns a copy of the instance that compiles with r.
func (i *Instance) WithRenderer(r *crate.Renderer) *Instance {
	cp := *i
	cp.renderer = r
	return &cp
}

// Renderer returns the renderer used by Compile.
func (i *Instance) Renderer() *crate.Renderer {
	return i.renderer
}

// Table returns the definition of the named table.
func (i *Instance) Table(name string) (crate.TableDefinition, bool) {
	def, ok := i.tables[name]
	return def, ok
}

// Tables returns all definitions in registration order.
func (i *Instance) Tables() []crate.TableDefinition {
	defs := make([]crate.TableDefinition, len(i.names))
	for n, name := range i.names {
		defs[n] = i.tables[name]
	}
	return defs
}

// CreateTable renders the DDL for a registered table.
func (i *Instance) CreateTable(name string, logger *slog.Logger) (string, error) {
	def, ok := i.tables[name]
	if !ok {
		return "", fmt.Errorf("table '%s' not found in schema", name)
	}
	return crate.CreateTable(def, logger)
}

// validateTable checks if a table exists in the schema.
func (i *Instance) validateTable(name string) error {
	if _, ok := i.tables[name]; !ok {
		return fmt.Errorf("table '%s' not found in schema", name)
	}
	return nil
}

// column finds a column by name across all tables.
func (i *Instance) column(name string) (crate.ColumnDefinition, bool) {
	for _, table := range i.names {
		if col, ok := i.tables[table].Column(name); ok {
			return col, true
		}
	}
	return crate.ColumnDefinition{}, false
}

// validateField checks if a field exists in any table in the schema.
func (i *Instance) validateField(name string) error {
	if _, ok := i.column(name); !ok {
		return fmt.Errorf("field '%s' not found in schema", name)
	}
	return nil
}

// validateTableOrAlias validates both table names and aliases.
func (i *Instance) validateTableOrAlias(tableOrAlias string) error {
	if isValidTableAlias(tableOrAlias) {
		return nil
	}
	if err := i.validateTable(tableOrAlias); err == nil {
		return nil
	}
	return fmt.Errorf("WithTable requires single-letter alias (a-z) or valid table name, got: %s", tableOrAlias)
}

// TryT creates a validated table reference, returning an error if invalid.
func (i *Instance) TryT(name string, alias ...string) (types.Table, error) {
	if err := i.validateTable(name); err != nil {
		return types.Table{}, fmt.Errorf("invalid table: %w", err)
	}

	var tableAlias string
	if len(alias) > 0 {
		if len(alias) > 1 {
			return types.Table{}, fmt.Errorf("only one alias allowed")
		}
		tableAlias = alias[0]
		if !isValidTableAlias(tableAlias) {
			return types.Table{}, fmt.Errorf("alias must be single lowercase letter (a-z), got: %s", tableAlias)
		}
	}

	return types.Table{Schema: i.tables[name].Schema, Name: name, Alias: tableAlias}, nil
}

// T creates a validated table reference.
func (i *Instance) T(name string, alias ...string) types.Table {
	t, err := i.TryT(name, alias...)
	if err != nil {
		panic(err)
	}
	return t
}

// TryF creates a validated field reference, returning an error if invalid.
// Subscripts are added with Field.Item.
func (i *Instance) TryF(name string) (types.Field, error) {
	if err := i.validateField(name); err != nil {
		return types.Field{}, fmt.Errorf("invalid field: %w", err)
	}
	return types.Field{Name: name}, nil
}

// F creates a validated field reference.
func (i *Instance) F(name string) types.Field {
	f, err := i.TryF(name)
	if err != nil {
		panic(err)
	}
	return f
}

// TryP creates a validated parameter reference, returning an error if invalid.
func (*Instance) TryP(name string) (types.Param, error) {
	if !isValidParamName(name) {
		return types.Param{}, fmt.Errorf("invalid parameter name: %s", name)
	}
	return types.Param{Name: name}, nil
}

// P creates a validated parameter reference.
func (i *Instance) P(name string) types.Param {
	p, err := i.TryP(name)
	if err != nil {
		panic(err)
	}
	return p
}

// TryC creates a validated condition, returning an error if invalid.
func (i *Instance) TryC(field types.Field, op types.Operator, param types.Param) (types.Condition, error) {
	if err := i.validateField(field.Name); err != nil {
		return types.Condition{}, err
	}
	return types.Condition{
		Field:    field,
		Operator: op,
		Value:    param,
	}, nil
}

// C creates a validated condition.
func (i *Instance) C(field types.Field, op types.Operator, param types.Param) types.Condition {
	cond, err := i.TryC(field, op, param)
	if err != nil {
		panic(err)
	}
	return cond
}

// TryNull creates a NULL condition, returning an error if invalid.
func (i *Instance) TryNull(field types.Field) (types.Condition, error) {
	if err := i.validateField(field.Name); err != nil {
		return types.Condition{}, err
	}
	return types.Condition{
		Field:    field,
		Operator: types.IsNull,
	}, nil
}

// Null creates a NULL condition.
func (i *Instance) Null(field types.Field) types.Condition {
	cond, err := i.TryNull(field)
	if err != nil {
		panic(err)
	}
	return cond
}

// TryNotNull creates a NOT NULL condition, returning an error if invalid.
func (i *Instance) TryNotNull(field types.Field) (types.Condition, error) {
	if err := i.validateField(field.Name); err != nil {
		return types.Condition{}, err
	}
	return types.Condition{
		Field:    field,
		Operator: types.IsNotNull,
	}, nil
}

// NotNull creates a NOT NULL condition.
func (i *Instance) NotNull(field types.Field) types.Condition {
	cond, err := i.TryNotNull(field)
	if err != nil {
		panic(err)
	}
	return cond
}

// TryAny creates "<param> <op> ANY (<field>)" for an array column.
func (i *Instance) TryAny(param types.Param, op types.Operator, field types.Field) (types.AnyCondition, error) {
	col, ok := i.column(field.Name)
	if !ok {
		return types.AnyCondition{}, fmt.Errorf("field '%s' not found in schema", field.Name)
	}
	if !field.IsSubscript() && col.Type.Kind != coltype.Array && col.Type.Kind != coltype.ObjectArray {
		return types.AnyCondition{}, fmt.Errorf("ANY requires an array column, %s is %s", field.Name, col.Type.Kind)
	}
	return types.AnyCondition{Value: param, Operator: op, Field: field}, nil
}

// Any creates a validated ANY condition.
func (i *Instance) Any(param types.Param, op types.Operator, field types.Field) types.AnyCondition {
	cond, err := i.TryAny(param, op, field)
	if err != nil {
		panic(err)
	}
	return cond
}

// TryKnn creates a KNN_MATCH predicate on a FLOAT_VECTOR column.
func (i *Instance) TryKnn(field types.Field, term types.Param, k int) (types.KnnCondition, error) {
	col, ok := i.column(field.Name)
	if !ok {
		return types.KnnCondition{}, fmt.Errorf("field '%s' not found in schema", field.Name)
	}
	if col.Type.Kind != coltype.FloatVector {
		return types.KnnCondition{}, fmt.Errorf("KNN_MATCH requires a FLOAT_VECTOR column, %s is %s", field.Name, col.Type.Kind)
	}
	if k <= 0 {
		return types.KnnCondition{}, fmt.Errorf("KNN_MATCH requires a positive k, got %d", k)
	}
	return types.KnnCondition{Field: field, Term: term, K: k}, nil
}

// Knn creates a validated KNN_MATCH predicate.
func (i *Instance) Knn(field types.Field, term types.Param, k int) types.KnnCondition {
	cond, err := i.TryKnn(field, term, k)
	if err != nil {
		panic(err)
	}
	return cond
}

// TryAnd creates an AND condition group, returning an error if invalid.
func (*Instance) TryAnd(conditions ...types.ConditionItem) (types.ConditionGroup, error) {
	if len(conditions) == 0 {
		return types.ConditionGroup{}, fmt.Errorf("AND requires at least one condition")
	}
	return types.ConditionGroup{
		Logic:      types.AND,
		Conditions: conditions,
	}, nil
}

// And creates an AND condition group.
func (i *Instance) And(conditions ...types.ConditionItem) types.ConditionGroup {
	g, err := i.TryAnd(conditions...)
	if err != nil {
		panic(err)
	}
	return g
}

// TryOr creates an OR condition group, returning an error if invalid.
func (*Instance) TryOr(conditions ...types.ConditionItem) (types.ConditionGroup, error) {
	if len(conditions) == 0 {
		return types.ConditionGroup{}, fmt.Errorf("OR requires at least one condition")
	}
	return types.ConditionGroup{
		Logic:      types.OR,
		Conditions: conditions,
	}, nil
}

// Or creates an OR condition group.
func (i *Instance) Or(conditions ...types.ConditionItem) types.ConditionGroup {
	g, err := i.TryOr(conditions...)
	if err != nil {
		panic(err)
	}
	return g
}

// TryWithTable creates a new Field with a table/alias prefix, returning an error if invalid.
func (i *Instance) TryWithTable(field types.Field, tableOrAlias string) (types.Field, error) {
	if err := i.validateTableOrAlias(tableOrAlias); err != nil {
		return types.Field{}, err
	}
	field.Table = tableOrAlias
	return field, nil
}

// WithTable creates a new Field with a table/alias prefix, validated against the schema.
func (i *Instance) WithTable(field types.Field, tableOrAlias string) types.Field {
	f, err := i.TryWithTable(field, tableOrAlias)
	if err != nil {
		panic(err)
	}
	return f
}
