// Package crate renders statement trees and table definitions in the CrateDB
// SQL dialect.
package crate

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/zoobzio/crateql/internal/render"
	"github.com/zoobzio/crateql/internal/types"
)

// Dialect is the name reported in unsupported-feature errors.
const Dialect = "CrateDB"

// DefaultSchema is the schema unqualified tables live in.
const DefaultSchema = "doc"

// Placeholder selects the bind parameter style.
type Placeholder int

const (
	// QuestionMark renders "?" for every parameter (HTTP endpoint).
	QuestionMark Placeholder = iota
	// Dollar renders "$n" (PostgreSQL wire protocol); a repeated parameter
	// name reuses its position.
	Dollar
)

const lockWarning = "CrateDB does not support the 'INSERT ... FOR UPDATE' clause, " +
	"it will be omitted when generating SQL statements."

// Renderer implements the CrateDB statement compiler.
type Renderer struct {
	logger      *slog.Logger
	version     string
	placeholder Placeholder
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger for dropped-clause warnings.
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) { r.logger = l }
}

// WithServerVersion sets the lowest server version of the cluster.
func WithServerVersion(v string) Option {
	return func(r *Renderer) { r.version = v }
}

// WithPlaceholder sets the parameter placeholder style.
func WithPlaceholder(p Placeholder) Option {
	return func(r *Renderer) { r.placeholder = p }
}

// New creates a new CrateDB renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ServerVersion returns the configured server version, empty if unknown.
func (r *Renderer) ServerVersion() string {
	return r.version
}

// Placeholder returns the parameter placeholder style.
func (r *Renderer) Placeholder() Placeholder {
	return r.placeholder
}

// Capabilities returns the SQL features the configured server supports.
func (r *Renderer) Capabilities() render.Capabilities {
	return render.Capabilities{
		Upsert:              true,
		Returning:           true,
		CaseInsensitiveLike: AtLeast(r.version, VersionILike),
		LikeEscape:          false,
		AnyArray:            true,
		ForeignKeys:         false,
		UniqueConstraints:   false,
		RowLocking:          render.RowLockingNone,
	}
}

// compiler carries per-statement rendering state.
type compiler struct {
	r         *Renderer
	caps      render.Capabilities
	params    []string
	positions map[string]int
	depth     int
}

func (c *compiler) addParam(p types.Param) string {
	if c.r.placeholder == Dollar {
		if pos, ok := c.positions[p.Name]; ok {
			return "$" + strconv.Itoa(pos)
		}
		c.params = append(c.params, p.Name)
		c.positions[p.Name] = len(c.params)
		return "$" + strconv.Itoa(len(c.params))
	}
	c.params = append(c.params, p.Name)
	return "?"
}

// Render converts an AST to a QueryResult.
func (r *Renderer) Render(ast *types.AST) (*types.QueryResult, error) {
	if err := ast.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AST: %w", err)
	}

	c := &compiler{
		r:         r,
		caps:      r.Capabilities(),
		positions: make(map[string]int),
	}

	var sql strings.Builder
	var err error
	switch ast.Operation {
	case types.OpSelect:
		err = c.renderSelect(ast, &sql)
	case types.OpInsert:
		err = c.renderInsert(ast, &sql)
	case types.OpUpdate:
		err = c.renderUpdate(ast, &sql)
	case types.OpDelete:
		err = c.renderDelete(ast, &sql)
	case types.OpCount:
		err = c.renderCount(ast, &sql)
	default:
		err = fmt.Errorf("unsupported operation: %s", ast.Operation)
	}
	if err != nil {
		return nil, err
	}

	return &types.QueryResult{
		SQL:            sql.String(),
		RequiredParams: c.params,
	}, nil
}

func (c *compiler) renderSelect(ast *types.AST, sql *strings.Builder) error {
	sql.WriteString("SELECT ")
	if ast.Distinct {
		sql.WriteString("DISTINCT ")
	}

	if len(ast.Fields) == 0 && len(ast.FieldExpressions) == 0 {
		sql.WriteString("*")
	} else {
		selections := make([]string, 0, len(ast.Fields)+len(ast.FieldExpressions))
		for _, field := range ast.Fields {
			selections = append(selections, renderField(field))
		}
		for _, expr := range ast.FieldExpressions {
			s, err := renderFieldExpression(expr)
			if err != nil {
				return err
			}
			selections = append(selections, s)
		}
		sql.WriteString(strings.Join(selections, ", "))
	}

	sql.WriteString(" FROM ")
	sql.WriteString(renderTable(ast.Target))

	if err := c.renderJoins(ast.Joins, sql); err != nil {
		return err
	}
	if err := c.renderWhere(ast.WhereClause, sql); err != nil {
		return err
	}

	if len(ast.GroupBy) > 0 {
		sql.WriteString(" GROUP BY ")
		groupFields := make([]string, 0, len(ast.GroupBy))
		for _, field := range ast.GroupBy {
			groupFields = append(groupFields, renderField(field))
		}
		sql.WriteString(strings.Join(groupFields, ", "))
	}

	if len(ast.Having) > 0 {
		sql.WriteString(" HAVING ")
		for i, cond := range ast.Having {
			if i > 0 {
				sql.WriteString(" AND ")
			}
			if err := c.renderSimpleCondition(cond, sql); err != nil {
				return err
			}
		}
	}

	if len(ast.Ordering) > 0 {
		sql.WriteString(" ORDER BY ")
		orderParts := make([]string, 0, len(ast.Ordering))
		for _, order := range ast.Ordering {
			orderParts = append(orderParts, fmt.Sprintf("%s %s", renderField(order.Field), order.Direction))
		}
		sql.WriteString(strings.Join(orderParts, ", "))
	}

	renderLimit(ast, sql)

	if ast.Lock != "" {
		render.Warn(c.r.logger, lockWarning, "clause", string(ast.Lock))
	}
	return nil
}

// renderLimit follows the PostgreSQL form: an OFFSET without LIMIT
// renders LIMIT ALL.
func renderLimit(ast *types.AST, sql *strings.Builder) {
	if ast.Limit != nil {
		fmt.Fprintf(sql, " LIMIT %d", *ast.Limit)
	}
	if ast.Offset != nil {
		if ast.Limit == nil {
			sql.WriteString(" LIMIT ALL")
		}
		fmt.Fprintf(sql, " OFFSET %d", *ast.Offset)
	}
}

func (c *compiler) renderInsert(ast *types.AST, sql *strings.Builder) error {
	sql.WriteString("INSERT INTO ")
	sql.WriteString(renderTable(ast.Target))

	columns := make([]string, 0, len(ast.Columns))
	for _, field := range ast.Columns {
		if field.IsSubscript() {
			return render.CompileErrorf("INSERT column %s cannot be a subscript", field.Key())
		}
		columns = append(columns, QuoteIdentifier(field.Name))
	}
	sql.WriteString(" (")
	sql.WriteString(strings.Join(columns, ", "))
	sql.WriteString(") VALUES ")

	for i, row := range ast.Values {
		if i > 0 {
			sql.WriteString(", ")
		}
		values := make([]string, 0, len(row))
		for _, param := range row {
			values = append(values, c.addParam(param))
		}
		sql.WriteString("(" + strings.Join(values, ", ") + ")")
	}

	if ast.OnConflict != nil {
		sql.WriteString(" ON CONFLICT (")
		conflictFields := make([]string, 0, len(ast.OnConflict.Columns))
		for _, field := range ast.OnConflict.Columns {
			conflictFields = append(conflictFields, QuoteIdentifier(field.Name))
		}
		sql.WriteString(strings.Join(conflictFields, ", "))
		sql.WriteString(") ")

		switch ast.OnConflict.Action {
		case types.DoUpdate:
			if len(ast.OnConflict.Updates) == 0 {
				return render.CompileErrorf("ON CONFLICT DO UPDATE requires at least one assignment")
			}
			sql.WriteString("DO UPDATE SET ")
			c.renderAssignments(ast.OnConflict.Updates, sql)
		default:
			sql.WriteString("DO NOTHING")
		}
	}

	renderReturning(ast.Returning, sql)
	return nil
}

func (c *compiler) renderAssignments(assignments []types.Assignment, sql *strings.Builder) {
	for i, a := range assignments {
		if i > 0 {
			sql.WriteString(", ")
		}
		sql.WriteString(renderField(a.Field))
		sql.WriteString(" = ")
		if a.Excluded {
			sql.WriteString("excluded." + QuoteIdentifier(a.Field.Name))
			continue
		}
		sql.WriteString(c.addParam(a.Value))
	}
}

func (c *compiler) renderUpdate(ast *types.AST, sql *strings.Builder) error {
	sql.WriteString("UPDATE ")
	sql.WriteString(renderTable(ast.Target))
	sql.WriteString(" SET ")
	c.renderAssignments(ast.Updates, sql)

	if err := c.renderWhere(ast.WhereClause, sql); err != nil {
		return err
	}
	renderReturning(ast.Returning, sql)
	return nil
}

func (c *compiler) renderDelete(ast *types.AST, sql *strings.Builder) error {
	sql.WriteString("DELETE FROM ")
	sql.WriteString(renderTable(ast.Target))

	if err := c.renderWhere(ast.WhereClause, sql); err != nil {
		return err
	}
	renderReturning(ast.Returning, sql)
	return nil
}

func (c *compiler) renderCount(ast *types.AST, sql *strings.Builder) error {
	sql.WriteString("SELECT COUNT(*) FROM ")
	sql.WriteString(renderTable(ast.Target))

	if err := c.renderJoins(ast.Joins, sql); err != nil {
		return err
	}
	return c.renderWhere(ast.WhereClause, sql)
}

func (c *compiler) renderJoins(joins []types.Join, sql *strings.Builder) error {
	for _, join := range joins {
		sql.WriteString(" ")
		sql.WriteString(string(join.Type))
		sql.WriteString(" ")
		sql.WriteString(renderTable(join.Table))
		// CROSS JOIN doesn't have ON clause
		if join.Type != types.CrossJoin {
			sql.WriteString(" ON ")
			if err := c.renderCondition(join.On, sql); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *compiler) renderWhere(cond types.ConditionItem, sql *strings.Builder) error {
	if cond == nil {
		return nil
	}
	sql.WriteString(" WHERE ")
	return c.renderCondition(cond, sql)
}

func renderReturning(fields []types.Field, sql *strings.Builder) {
	if len(fields) == 0 {
		return
	}
	sql.WriteString(" RETURNING ")
	rendered := make([]string, 0, len(fields))
	for _, field := range fields {
		rendered = append(rendered, renderField(field))
	}
	sql.WriteString(strings.Join(rendered, ", "))
}

// RenderTable renders a possibly schema-qualified table reference.
func RenderTable(table types.Table) string {
	return renderTable(table)
}

func renderTable(table types.Table) string {
	name := QuoteIdentifier(table.Name)
	if table.Schema != "" {
		name = QuoteIdentifier(table.Schema) + "." + name
	}
	if table.Alias != "" {
		// Aliases are restricted to single lowercase letters
		return name + " " + table.Alias
	}
	return name
}

// renderField renders a column reference. Subscript keys are emitted as
// string literals, never as bind parameters.
func renderField(field types.Field) string {
	var b strings.Builder
	if field.Table != "" {
		b.WriteString(field.Table)
		b.WriteString(".")
	}
	b.WriteString(QuoteIdentifier(field.Name))
	for _, key := range field.Path {
		b.WriteString("[")
		b.WriteString(quoteLiteral(key))
		b.WriteString("]")
	}
	return b.String()
}

var dateTruncUnits = map[string]bool{
	"second": true, "minute": true, "hour": true, "day": true,
	"week": true, "month": true, "quarter": true, "year": true,
}

func renderFieldExpression(expr types.FieldExpression) (string, error) {
	field := renderField(expr.Field)
	if expr.DateTrunc != "" {
		if !dateTruncUnits[expr.DateTrunc] {
			return "", render.CompileErrorf("unsupported date_trunc interval %q", expr.DateTrunc)
		}
		field = fmt.Sprintf("date_trunc(%s, %s)", quoteLiteral(expr.DateTrunc), field)
	}

	var result string
	switch expr.Aggregate {
	case "":
		result = field
	case types.AggCountDistinct:
		result = fmt.Sprintf("COUNT(DISTINCT %s)", field)
	case types.AggCountField, types.AggSum, types.AggAvg, types.AggMin, types.AggMax:
		result = fmt.Sprintf("%s(%s)", expr.Aggregate, field)
	default:
		return "", render.CompileErrorf("unsupported aggregate %s", expr.Aggregate)
	}

	if expr.Alias != "" {
		result += " AS " + QuoteIdentifier(expr.Alias)
	}
	return result, nil
}
