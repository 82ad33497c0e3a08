package crateql

import (
	"fmt"

	"github.com/zoobzio/crateql/coltype"
	"github.com/zoobzio/crateql/internal/types"
	"github.com/zoobzio/crateql/tracked"
)

// Statement is a compiled statement with bound wire values. Batch is set
// instead of Args when more than one row was bound.
type Statement struct {
	AST   *types.AST
	SQL   string
	Args  []any
	Batch [][]any
}

// IsBatch reports whether the statement carries several parameter sets.
func (s *Statement) IsBatch() bool {
	return s.Batch != nil
}

// Compile rewrites, renders and binds ast with the instance renderer.
func (i *Instance) Compile(ast *types.AST, rows ...Row) (*Statement, error) {
	return i.compile(i.renderer, ast, rows)
}

func (i *Instance) compile(r Renderer, ast *types.AST, rows []Row) (*Statement, error) {
	if ast == nil {
		return nil, fmt.Errorf("nil AST")
	}
	rewritten, rows, err := RewriteUpdate(ast, rows)
	if err != nil {
		return nil, err
	}

	result, err := r.Render(rewritten)
	if err != nil {
		return nil, err
	}

	paramTypes := i.paramTypes(rewritten)
	stmt := &Statement{AST: rewritten, SQL: result.SQL}

	if len(rows) <= 1 {
		var row Row
		if len(rows) == 1 {
			row = rows[0]
		}
		stmt.Args, err = bindRow(result.RequiredParams, paramTypes, row)
		if err != nil {
			return nil, err
		}
		return stmt, nil
	}

	stmt.Batch = make([][]any, len(rows))
	for n, row := range rows {
		args, err := bindRow(result.RequiredParams, paramTypes, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n, err)
		}
		stmt.Batch[n] = args
	}
	return stmt, nil
}

func bindRow(names []string, paramTypes map[string]coltype.Descriptor, row Row) ([]any, error) {
	args := make([]any, len(names))
	for n, name := range names {
		v, ok := row[name]
		if !ok {
			return nil, fmt.Errorf("missing parameter %q", name)
		}
		d, typed := paramTypes[name]
		if !typed {
			args[n] = plainValue(v)
			continue
		}
		bound, err := coltype.BindValue(d, v)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", name, err)
		}
		args[n] = bound
	}
	return args, nil
}

// plainValue unwraps tracked containers bound to untyped parameters,
// such as a nested object assigned to column['key'].
func plainValue(v any) any {
	switch t := v.(type) {
	case *tracked.Object:
		return t.Map()
	case *tracked.List:
		return t.Slice()
	}
	return v
}

// scope resolves fields to column types for one SELECT level.
type scope struct {
	inst   *Instance
	tables []types.Table
}

func (s scope) lookup(f types.Field) (coltype.Descriptor, bool) {
	if f.IsSubscript() {
		return coltype.Descriptor{}, false
	}
	for _, t := range s.tables {
		if f.Table != "" && f.Table != t.Name && f.Table != t.Alias {
			continue
		}
		def, ok := s.inst.tables[t.Name]
		if !ok {
			continue
		}
		if col, ok := def.Column(f.Name); ok {
			return col.Type, true
		}
	}
	return coltype.Descriptor{}, false
}

// paramTypes maps parameter names to the column type they are bound to.
func (i *Instance) paramTypes(ast *types.AST) map[string]coltype.Descriptor {
	out := make(map[string]coltype.Descriptor)
	i.collectParamTypes(ast, out)
	return out
}

func (i *Instance) collectParamTypes(ast *types.AST, out map[string]coltype.Descriptor) {
	s := scope{inst: i, tables: []types.Table{ast.Target}}
	for _, j := range ast.Joins {
		s.tables = append(s.tables, j.Table)
	}
	set := func(f types.Field, p types.Param) {
		if d, ok := s.lookup(f); ok {
			out[p.Name] = d
		}
	}

	for _, a := range ast.Updates {
		set(a.Field, a.Value)
	}
	for _, row := range ast.Values {
		for n, p := range row {
			set(ast.Columns[n], p)
		}
	}
	if ast.OnConflict != nil {
		for _, a := range ast.OnConflict.Updates {
			if !a.Excluded {
				set(a.Field, a.Value)
			}
		}
	}
	for _, h := range ast.Having {
		i.conditionTypes(s, h, out)
	}
	for _, j := range ast.Joins {
		if j.On != nil {
			i.conditionTypes(s, j.On, out)
		}
	}
	if ast.WhereClause != nil {
		i.conditionTypes(s, ast.WhereClause, out)
	}
}

func (i *Instance) conditionTypes(s scope, cond types.ConditionItem, out map[string]coltype.Descriptor) {
	switch v := cond.(type) {
	case types.Condition:
		d, ok := s.lookup(v.Field)
		if !ok {
			return
		}
		switch v.Operator {
		case types.IsNull, types.IsNotNull:
		case types.IN, types.NotIn:
			out[v.Value.Name] = coltype.ArrayOf(d)
		default:
			out[v.Value.Name] = d
		}
	case types.ConditionGroup:
		for _, sub := range v.Conditions {
			i.conditionTypes(s, sub, out)
		}
	case types.AnyCondition:
		d, ok := s.lookup(v.Field)
		if !ok {
			return
		}
		switch {
		case d.Kind == coltype.Array && d.Item != nil:
			out[v.Value.Name] = *d.Item
		case d.Kind == coltype.ObjectArray:
			out[v.Value.Name] = coltype.Obj()
		}
	case types.KnnCondition:
		if d, ok := s.lookup(v.Field); ok {
			out[v.Term.Name] = d
		}
	case types.SubqueryCondition:
		if v.Subquery.AST != nil {
			i.collectParamTypes(v.Subquery.AST, out)
		}
	}
}

// Convert applies result conversion to rows returned for table. Columns not
// defined on the table are passed through.
func (i *Instance) Convert(table string, columns []string, rows [][]any) error {
	def, ok := i.tables[table]
	if !ok {
		return nil
	}
	descs := make([]*coltype.Descriptor, len(columns))
	for n, name := range columns {
		if col, ok := def.Column(name); ok {
			d := col.Type
			descs[n] = &d
		}
	}
	for _, row := range rows {
		for n := range row {
			if n >= len(descs) || descs[n] == nil {
				continue
			}
			v, err := coltype.ResultValue(*descs[n], row[n])
			if err != nil {
				return fmt.Errorf("column %s: %w", columns[n], err)
			}
			row[n] = v
		}
	}
	return nil
}
