package crateql

import (
	"fmt"

	"github.com/zoobzio/crateql/internal/types"
)

// and creates an AND condition group (internal helper for builder).
func and(conditions ...types.ConditionItem) types.ConditionGroup {
	return types.ConditionGroup{
		Logic:      types.AND,
		Conditions: conditions,
	}
}

// c creates a simple condition (internal helper for builder).
func c(f types.Field, op types.Operator, p types.Param) types.Condition {
	return types.Condition{
		Field:    f,
		Operator: op,
		Value:    p,
	}
}

// Builder provides a fluent API for constructing statements.
type Builder struct {
	ast *types.AST
	err error
}

// GetAST returns the internal AST.
func (b *Builder) GetAST() *types.AST {
	return b.ast
}

// GetError returns the internal error.
func (b *Builder) GetError() error {
	return b.err
}

// SetError sets the internal error.
func (b *Builder) SetError(err error) {
	b.err = err
}

func newBuilder(op types.Operation, t types.Table) *Builder {
	return &Builder{
		ast: &types.AST{
			Operation: op,
			Target:    t,
		},
	}
}

// Select creates a new SELECT query builder.
func Select(t types.Table) *Builder {
	return newBuilder(types.OpSelect, t)
}

// Insert creates a new INSERT statement builder.
func Insert(t types.Table) *Builder {
	return newBuilder(types.OpInsert, t)
}

// Update creates a new UPDATE statement builder.
func Update(t types.Table) *Builder {
	return newBuilder(types.OpUpdate, t)
}

// Delete creates a new DELETE statement builder.
func Delete(t types.Table) *Builder {
	return newBuilder(types.OpDelete, t)
}

// Count creates a new COUNT query builder.
func Count(t types.Table) *Builder {
	return newBuilder(types.OpCount, t)
}

// Fields sets the fields to select.
func (b *Builder) Fields(fields ...types.Field) *Builder {
	if b.err != nil {
		return b
	}
	if b.ast.Operation != types.OpSelect {
		b.err = fmt.Errorf("Fields() can only be used with SELECT queries")
		return b
	}
	b.ast.Fields = fields
	return b
}

// Where sets or adds conditions.
func (b *Builder) Where(condition types.ConditionItem) *Builder {
	if b.err != nil {
		return b
	}

	if b.ast.WhereClause == nil {
		b.ast.WhereClause = condition
	} else {
		// If there's already a where clause, combine with AND
		b.ast.WhereClause = and(b.ast.WhereClause, condition)
	}

	return b
}

// WhereField is a convenience method for simple field conditions.
func (b *Builder) WhereField(f types.Field, op types.Operator, p types.Param) *Builder {
	return b.Where(c(f, op, p))
}

// Set adds a field update for UPDATE statements. Assignments render in the
// order they were added; setting the same target again replaces its value
// in place.
func (b *Builder) Set(f types.Field, p types.Param) *Builder {
	if b.err != nil {
		return b
	}
	if b.ast.Operation != types.OpUpdate {
		b.err = fmt.Errorf("Set() can only be used with UPDATE queries")
		return b
	}
	b.ast.Updates = setAssignment(b.ast.Updates, types.Assignment{Field: f, Value: p})
	return b
}

func setAssignment(list []types.Assignment, a types.Assignment) []types.Assignment {
	for i := range list {
		if list[i].Field.Key() == a.Field.Key() {
			list[i] = a
			return list
		}
	}
	return append(list, a)
}

// Columns sets the INSERT column list explicitly. Use with Row.
func (b *Builder) Columns(fields ...types.Field) *Builder {
	if b.err != nil {
		return b
	}
	if b.ast.Operation != types.OpInsert {
		b.err = fmt.Errorf("Columns() can only be used with INSERT queries")
		return b
	}
	if len(b.ast.Values) > 0 {
		b.err = fmt.Errorf("Columns() must be called before any values are added")
		return b
	}
	b.ast.Columns = fields
	return b
}

// Row appends one row of parameters aligned with Columns.
func (b *Builder) Row(params ...types.Param) *Builder {
	if b.err != nil {
		return b
	}
	if b.ast.Operation != types.OpInsert {
		b.err = fmt.Errorf("Row() can only be used with INSERT queries")
		return b
	}
	if len(params) != len(b.ast.Columns) {
		b.err = fmt.Errorf("Row() got %d values for %d columns", len(params), len(b.ast.Columns))
		return b
	}
	b.ast.Values = append(b.ast.Values, params)
	return b
}

// Value adds a single field-value pair for INSERT statements.
// Multiple calls to Value() build up a single row to insert.
// Call NextRow() to finalize the current row and start a new one.
// The first row fixes the column list; later rows must use the same columns.
func (b *Builder) Value(f types.Field, p types.Param) *Builder {
	if b.err != nil {
		return b
	}
	if b.ast.Operation != types.OpInsert {
		b.err = fmt.Errorf("Value() can only be used with INSERT queries")
		return b
	}
	if len(b.ast.Values) == 0 {
		b.ast.Values = append(b.ast.Values, nil)
	}

	last := len(b.ast.Values) - 1
	if last == 0 {
		b.ast.Columns = append(b.ast.Columns, f)
		b.ast.Values[0] = append(b.ast.Values[0], p)
		return b
	}

	for i, col := range b.ast.Columns {
		if col.Key() == f.Key() {
			b.ast.Values[last][i] = p
			return b
		}
	}
	b.err = fmt.Errorf("column %s is not part of the first row", f.Key())
	return b
}

// NextRow finalizes the current row and starts a new one for INSERT statements.
func (b *Builder) NextRow() *Builder {
	if b.err != nil {
		return b
	}
	if b.ast.Operation != types.OpInsert {
		b.err = fmt.Errorf("NextRow() can only be used with INSERT queries")
		return b
	}
	if len(b.ast.Values) == 0 {
		b.err = fmt.Errorf("NextRow() called before any value was added")
		return b
	}
	b.ast.Values = append(b.ast.Values, make([]types.Param, len(b.ast.Columns)))
	return b
}

// OrderBy adds ordering.
func (b *Builder) OrderBy(f types.Field, direction types.Direction) *Builder {
	if b.err != nil {
		return b
	}
	b.ast.Ordering = append(b.ast.Ordering, types.OrderBy{
		Field:     f,
		Direction: direction,
	})
	return b
}

// Limit sets the limit.
func (b *Builder) Limit(limit int) *Builder {
	if b.err != nil {
		return b
	}
	b.ast.Limit = &limit
	return b
}

// Offset sets the offset.
func (b *Builder) Offset(offset int) *Builder {
	if b.err != nil {
		return b
	}
	b.ast.Offset = &offset
	return b
}

// ForUpdate requests a row lock. CrateDB has none: the renderer logs a
// warning and omits the clause.
func (b *Builder) ForUpdate() *Builder {
	if b.err != nil {
		return b
	}
	if b.ast.Operation != types.OpSelect {
		b.err = fmt.Errorf("FOR UPDATE can only be used with SELECT queries")
		return b
	}
	b.ast.Lock = types.LockForUpdate
	return b
}

// Build returns the constructed AST or an error.
func (b *Builder) Build() (*types.AST, error) {
	if b.err != nil {
		return nil, b.err
	}

	for i, row := range b.ast.Values {
		for j, p := range row {
			if p.Name == "" {
				return nil, fmt.Errorf("row %d has no value for column %s", i, b.ast.Columns[j].Key())
			}
		}
	}

	if err := b.ast.Validate(); err != nil {
		return nil, err
	}

	return b.ast, nil
}

// MustBuild returns the AST or panics on error.
func (b *Builder) MustBuild() *types.AST {
	ast, err := b.Build()
	if err != nil {
		panic(err)
	}
	return ast
}

// Render builds the AST and renders it with r.
func (b *Builder) Render(r Renderer) (*QueryResult, error) {
	ast, err := b.Build()
	if err != nil {
		return nil, err
	}
	return r.Render(ast)
}

// MustRender builds and renders the AST or panics on error.
func (b *Builder) MustRender(r Renderer) *QueryResult {
	result, err := b.Render(r)
	if err != nil {
		panic(err)
	}
	return result
}

// Distinct sets the DISTINCT flag for SELECT queries.
func (b *Builder) Distinct() *Builder {
	if b.err != nil {
		return b
	}
	if b.ast.Operation != types.OpSelect {
		b.err = fmt.Errorf("DISTINCT can only be used with SELECT queries")
		return b
	}
	b.ast.Distinct = true
	return b
}

// Join adds an INNER JOIN.
func (b *Builder) Join(table types.Table, on types.ConditionItem) *Builder {
	return b.addJoin(types.InnerJoin, table, on)
}

// InnerJoin adds an INNER JOIN.
func (b *Builder) InnerJoin(table types.Table, on types.ConditionItem) *Builder {
	return b.addJoin(types.InnerJoin, table, on)
}

// LeftJoin adds a LEFT JOIN.
func (b *Builder) LeftJoin(table types.Table, on types.ConditionItem) *Builder {
	return b.addJoin(types.LeftJoin, table, on)
}

// RightJoin adds a RIGHT JOIN.
func (b *Builder) RightJoin(table types.Table, on types.ConditionItem) *Builder {
	return b.addJoin(types.RightJoin, table, on)
}

// CrossJoin adds a CROSS JOIN (no ON clause needed).
func (b *Builder) CrossJoin(table types.Table) *Builder {
	return b.addJoin(types.CrossJoin, table, nil)
}

// addJoin is a helper to add joins.
func (b *Builder) addJoin(joinType types.JoinType, table types.Table, on types.ConditionItem) *Builder {
	if b.err != nil {
		return b
	}
	if b.ast.Operation != types.OpSelect && b.ast.Operation != types.OpCount {
		b.err = fmt.Errorf("JOIN can only be used with SELECT or COUNT queries")
		return b
	}
	if joinType == types.CrossJoin && on != nil {
		b.err = fmt.Errorf("CROSS JOIN cannot have ON clause")
		return b
	}
	if joinType != types.CrossJoin && on == nil {
		b.err = fmt.Errorf("%s requires ON clause", joinType)
		return b
	}

	b.ast.Joins = append(b.ast.Joins, types.Join{
		Type:  joinType,
		Table: table,
		On:    on,
	})
	return b
}

// GroupBy adds GROUP BY fields.
func (b *Builder) GroupBy(fields ...types.Field) *Builder {
	if b.err != nil {
		return b
	}
	if b.ast.Operation != types.OpSelect {
		b.err = fmt.Errorf("GROUP BY can only be used with SELECT queries")
		return b
	}
	b.ast.GroupBy = append(b.ast.GroupBy, fields...)
	return b
}

// Having adds HAVING conditions.
func (b *Builder) Having(conditions ...types.Condition) *Builder {
	if b.err != nil {
		return b
	}
	if b.ast.Operation != types.OpSelect {
		b.err = fmt.Errorf("HAVING can only be used with SELECT queries")
		return b
	}
	if len(b.ast.GroupBy) == 0 {
		b.err = fmt.Errorf("HAVING requires GROUP BY")
		return b
	}
	b.ast.Having = append(b.ast.Having, conditions...)
	return b
}

// Returning adds RETURNING fields for INSERT/UPDATE/DELETE.
func (b *Builder) Returning(fields ...types.Field) *Builder {
	if b.err != nil {
		return b
	}
	switch b.ast.Operation {
	case types.OpInsert, types.OpUpdate, types.OpDelete:
		b.ast.Returning = append(b.ast.Returning, fields...)
	default:
		b.err = fmt.Errorf("RETURNING can only be used with INSERT, UPDATE, or DELETE")
	}
	return b
}

// OnConflict adds ON CONFLICT clause for INSERT.
func (b *Builder) OnConflict(columns ...types.Field) *ConflictBuilder {
	if b.err != nil {
		return &ConflictBuilder{builder: b, err: b.err}
	}
	if b.ast.Operation != types.OpInsert {
		err := fmt.Errorf("ON CONFLICT can only be used with INSERT")
		b.err = err
		return &ConflictBuilder{builder: b, err: err}
	}

	b.ast.OnConflict = &types.ConflictClause{
		Columns: columns,
	}

	return &ConflictBuilder{builder: b}
}

// ConflictBuilder handles ON CONFLICT actions.
type ConflictBuilder struct {
	builder *Builder
	err     error
}

// DoNothing sets the conflict action to DO NOTHING.
func (cb *ConflictBuilder) DoNothing() *Builder {
	if cb.err != nil {
		return cb.builder
	}
	cb.builder.ast.OnConflict.Action = types.DoNothing
	return cb.builder
}

// DoUpdate sets the conflict action to DO UPDATE.
func (cb *ConflictBuilder) DoUpdate() *UpdateBuilder {
	if cb.err != nil {
		return &UpdateBuilder{builder: cb.builder, err: cb.err}
	}
	cb.builder.ast.OnConflict.Action = types.DoUpdate
	return &UpdateBuilder{builder: cb.builder}
}

// UpdateBuilder handles DO UPDATE SET clause construction.
type UpdateBuilder struct {
	builder *Builder
	err     error
}

// Set adds a field to update on conflict.
func (ub *UpdateBuilder) Set(field types.Field, param types.Param) *UpdateBuilder {
	if ub.err != nil {
		return ub
	}
	clause := ub.builder.ast.OnConflict
	clause.Updates = setAssignment(clause.Updates, types.Assignment{Field: field, Value: param})
	return ub
}

// SetExcluded updates field from the row that caused the conflict.
func (ub *UpdateBuilder) SetExcluded(field types.Field) *UpdateBuilder {
	if ub.err != nil {
		return ub
	}
	clause := ub.builder.ast.OnConflict
	clause.Updates = setAssignment(clause.Updates, types.Assignment{Field: field, Excluded: true})
	return ub
}

// Build finalizes the update and returns the builder.
func (ub *UpdateBuilder) Build() *Builder {
	return ub.builder
}

// SelectExpr adds a field expression (aggregate, date_trunc) to SELECT.
func (b *Builder) SelectExpr(expr types.FieldExpression) *Builder {
	if b.err != nil {
		return b
	}
	if b.ast.Operation != types.OpSelect {
		b.err = fmt.Errorf("SelectExpr can only be used with SELECT queries")
		return b
	}
	b.ast.FieldExpressions = append(b.ast.FieldExpressions, expr)
	return b
}
