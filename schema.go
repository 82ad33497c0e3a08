package crateql

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/zoobzio/crateql/internal/types"
)

// Declarative statement building. A QuerySchema is serialized from YAML or
// JSON and converted to an AST validated against the instance.
//
//nolint:govet // fieldalignment: Logical grouping is preferred for readability
type QuerySchema struct {
	Limit            *int                    `json:"limit,omitempty" yaml:"limit,omitempty"`
	Offset           *int                    `json:"offset,omitempty" yaml:"offset,omitempty"`
	Where            *ConditionSchema        `json:"where,omitempty" yaml:"where,omitempty"`
	Updates          map[string]string       `json:"updates,omitempty" yaml:"updates,omitempty"`
	Table            string                  `json:"table" yaml:"table"`
	Alias            string                  `json:"alias,omitempty" yaml:"alias,omitempty"`
	Operation        string                  `json:"operation" yaml:"operation"`
	FieldExpressions []FieldExpressionSchema `json:"field_expressions,omitempty" yaml:"field_expressions,omitempty"`
	Having           []ConditionSchema       `json:"having,omitempty" yaml:"having,omitempty"`
	OrderBy          []OrderSchema           `json:"order_by,omitempty" yaml:"order_by,omitempty"`
	GroupBy          []string                `json:"group_by,omitempty" yaml:"group_by,omitempty"`
	Joins            []JoinSchema            `json:"joins,omitempty" yaml:"joins,omitempty"`
	Values           []map[string]string     `json:"values,omitempty" yaml:"values,omitempty"`
	Fields           []string                `json:"fields,omitempty" yaml:"fields,omitempty"`
	Returning        []string                `json:"returning,omitempty" yaml:"returning,omitempty"`
	Distinct         bool                    `json:"distinct,omitempty" yaml:"distinct,omitempty"`
}

// ConditionSchema represents a condition in declarative form.
type ConditionSchema struct {
	// For simple conditions
	Field    string `json:"field,omitempty" yaml:"field,omitempty"`
	Operator string `json:"operator,omitempty" yaml:"operator,omitempty"`
	Param    string `json:"param,omitempty" yaml:"param,omitempty"`

	// For field-to-field comparisons
	LeftField  string `json:"left_field,omitempty" yaml:"left_field,omitempty"`
	RightField string `json:"right_field,omitempty" yaml:"right_field,omitempty"`

	// For k-nearest-neighbour searches on FLOAT_VECTOR columns
	K int `json:"k,omitempty" yaml:"k,omitempty"`

	Subquery *QuerySchema `json:"subquery,omitempty" yaml:"subquery,omitempty"`

	// For grouped conditions
	Logic      string            `json:"logic,omitempty" yaml:"logic,omitempty"` // "AND" or "OR"
	Conditions []ConditionSchema `json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// OrderSchema represents ordering in declarative form.
type OrderSchema struct {
	Field     string `json:"field" yaml:"field"`
	Direction string `json:"direction,omitempty" yaml:"direction,omitempty"` // defaults to ASC
}

// JoinSchema represents a JOIN clause.
type JoinSchema struct {
	Type  string          `json:"type" yaml:"type"` // "inner", "left", "right", "cross"
	Table string          `json:"table" yaml:"table"`
	Alias string          `json:"alias,omitempty" yaml:"alias,omitempty"`
	On    ConditionSchema `json:"on" yaml:"on"`
}

// FieldExpressionSchema represents a field with an optional aggregate or
// date_trunc.
type FieldExpressionSchema struct {
	Field     string `json:"field" yaml:"field"`
	Aggregate string `json:"aggregate,omitempty" yaml:"aggregate,omitempty"` // "sum", "avg", "min", "max", "count", "count_distinct"
	DateTrunc string `json:"date_trunc,omitempty" yaml:"date_trunc,omitempty"`
	Alias     string `json:"alias,omitempty" yaml:"alias,omitempty"`
}

var subscriptKey = regexp.MustCompile(`\['([^']*)'\]`)

// BuildFromSchema converts a QuerySchema to an AST.
func (i *Instance) BuildFromSchema(schema *QuerySchema) (*types.AST, error) {
	if schema.Operation == "" {
		return nil, fmt.Errorf("operation is required")
	}
	if schema.Table == "" {
		return nil, fmt.Errorf("table is required")
	}

	var table types.Table
	var err error
	if schema.Alias != "" {
		table, err = i.TryT(schema.Table, schema.Alias)
	} else {
		table, err = i.TryT(schema.Table)
	}
	if err != nil {
		return nil, err
	}

	op := strings.ToUpper(schema.Operation)
	var builder *Builder
	switch op {
	case "SELECT":
		builder = Select(table)
	case "INSERT":
		builder = Insert(table)
	case "UPDATE":
		builder = Update(table)
	case "DELETE":
		builder = Delete(table)
	case "COUNT":
		builder = Count(table)
	default:
		return nil, fmt.Errorf("unsupported operation: %s", schema.Operation)
	}

	if op == "SELECT" {
		if len(schema.Fields) > 0 {
			fields, fieldErr := i.schemaFields(schema.Fields)
			if fieldErr != nil {
				return nil, fieldErr
			}
			builder = builder.Fields(fields...)
		}
		for _, expr := range schema.FieldExpressions {
			fieldExpr, exprErr := i.buildFieldExpression(expr)
			if exprErr != nil {
				return nil, fmt.Errorf("invalid field expression: %w", exprErr)
			}
			builder = builder.SelectExpr(fieldExpr)
		}
		if schema.Distinct {
			builder = builder.Distinct()
		}
	}

	for n := range schema.Joins {
		join := &schema.Joins[n]
		var joinTable types.Table
		if join.Alias != "" {
			joinTable, err = i.TryT(join.Table, join.Alias)
		} else {
			joinTable, err = i.TryT(join.Table)
		}
		if err != nil {
			return nil, fmt.Errorf("invalid join table '%s': %w", join.Table, err)
		}
		if strings.EqualFold(join.Type, "cross") {
			builder = builder.CrossJoin(joinTable)
			continue
		}
		on, err := i.buildConditionFromSchema(&join.On)
		if err != nil {
			return nil, fmt.Errorf("invalid join condition: %w", err)
		}
		switch strings.ToLower(join.Type) {
		case "inner", "":
			builder = builder.InnerJoin(joinTable, on)
		case "left":
			builder = builder.LeftJoin(joinTable, on)
		case "right":
			builder = builder.RightJoin(joinTable, on)
		default:
			return nil, fmt.Errorf("unsupported join type: %s", join.Type)
		}
	}

	if schema.Where != nil {
		condition, err := i.buildConditionFromSchema(schema.Where)
		if err != nil {
			return nil, fmt.Errorf("invalid where clause: %w", err)
		}
		builder = builder.Where(condition)
	}

	if len(schema.GroupBy) > 0 {
		groupFields, err := i.schemaFields(schema.GroupBy)
		if err != nil {
			return nil, err
		}
		builder = builder.GroupBy(groupFields...)
	}

	if len(schema.Having) > 0 {
		having := make([]types.Condition, 0, len(schema.Having))
		for n := range schema.Having {
			cond, err := i.buildConditionFromSchema(&schema.Having[n])
			if err != nil {
				return nil, fmt.Errorf("invalid having condition: %w", err)
			}
			simple, ok := cond.(types.Condition)
			if !ok {
				return nil, fmt.Errorf("complex conditions not supported in HAVING clause")
			}
			having = append(having, simple)
		}
		builder = builder.Having(having...)
	}

	for _, order := range schema.OrderBy {
		dir := types.ASC
		if strings.EqualFold(order.Direction, "DESC") {
			dir = types.DESC
		}
		field, err := i.schemaField(order.Field)
		if err != nil {
			return nil, fmt.Errorf("invalid order by field '%s': %w", order.Field, err)
		}
		builder = builder.OrderBy(field, dir)
	}

	if schema.Limit != nil {
		builder = builder.Limit(*schema.Limit)
	}
	if schema.Offset != nil {
		builder = builder.Offset(*schema.Offset)
	}

	switch op {
	case "UPDATE":
		if len(schema.Updates) == 0 {
			return nil, fmt.Errorf("UPDATE requires at least one field to update")
		}
		for _, name := range sortedKeys(schema.Updates) {
			f, err := i.schemaField(name)
			if err != nil {
				return nil, fmt.Errorf("invalid update field '%s': %w", name, err)
			}
			p, err := i.TryP(schema.Updates[name])
			if err != nil {
				return nil, err
			}
			builder = builder.Set(f, p)
		}

	case "INSERT":
		if len(schema.Values) == 0 {
			return nil, fmt.Errorf("INSERT requires at least one value set")
		}
		for n, valueSet := range schema.Values {
			if n > 0 {
				builder = builder.NextRow()
			}
			for _, name := range sortedKeys(valueSet) {
				f, err := i.schemaField(name)
				if err != nil {
					return nil, fmt.Errorf("invalid insert field '%s': %w", name, err)
				}
				p, err := i.TryP(valueSet[name])
				if err != nil {
					return nil, err
				}
				builder = builder.Value(f, p)
			}
		}
	}

	if len(schema.Returning) > 0 {
		returning, err := i.schemaFields(schema.Returning)
		if err != nil {
			return nil, err
		}
		builder = builder.Returning(returning...)
	}

	return builder.Build()
}

// schemaField resolves "name", "name['key']['sub']" and "a.name" notations.
func (i *Instance) schemaField(ref string) (types.Field, error) {
	qualifier := ""
	if dot := strings.IndexByte(ref, '.'); dot > 0 && dot < strings.IndexAny(ref+"[", "[") {
		qualifier, ref = ref[:dot], ref[dot+1:]
	}

	name, rest := ref, ""
	if open := strings.IndexByte(ref, '['); open >= 0 {
		name, rest = ref[:open], ref[open:]
	}
	field, err := i.TryF(name)
	if err != nil {
		return types.Field{}, err
	}

	if rest != "" {
		matches := subscriptKey.FindAllStringSubmatch(rest, -1)
		if strings.Join(subscriptKey.FindAllString(rest, -1), "") != rest {
			return types.Field{}, fmt.Errorf("invalid subscript in field '%s'", ref)
		}
		keys := make([]string, len(matches))
		for n, m := range matches {
			keys[n] = m[1]
		}
		field = field.Item(keys...)
	}

	if qualifier != "" {
		return i.TryWithTable(field, qualifier)
	}
	return field, nil
}

func (i *Instance) schemaFields(refs []string) ([]types.Field, error) {
	fields := make([]types.Field, len(refs))
	for n, ref := range refs {
		f, err := i.schemaField(ref)
		if err != nil {
			return nil, fmt.Errorf("invalid field '%s': %w", ref, err)
		}
		fields[n] = f
	}
	return fields, nil
}

// buildConditionFromSchema converts a ConditionSchema to a ConditionItem.
func (i *Instance) buildConditionFromSchema(schema *ConditionSchema) (types.ConditionItem, error) {
	if schema.Logic != "" {
		if len(schema.Conditions) == 0 {
			return nil, fmt.Errorf("condition group requires at least one condition")
		}
		conditions := make([]types.ConditionItem, len(schema.Conditions))
		for n := range schema.Conditions {
			cond, err := i.buildConditionFromSchema(&schema.Conditions[n])
			if err != nil {
				return nil, fmt.Errorf("condition %d: %w", n, err)
			}
			conditions[n] = cond
		}
		switch strings.ToUpper(schema.Logic) {
		case "AND":
			return i.TryAnd(conditions...)
		case "OR":
			return i.TryOr(conditions...)
		default:
			return nil, fmt.Errorf("invalid logic operator: %s", schema.Logic)
		}
	}

	if schema.Subquery != nil {
		if schema.Operator == "" {
			return nil, fmt.Errorf("operator is required for subquery condition")
		}
		op, err := parseOperator(schema.Operator)
		if err != nil {
			return nil, err
		}
		subAST, err := i.BuildFromSchema(schema.Subquery)
		if err != nil {
			return nil, fmt.Errorf("invalid subquery: %w", err)
		}
		subquery := types.Subquery{AST: subAST}

		switch op {
		case types.EXISTS, types.NotExists:
			if schema.Field != "" {
				return nil, fmt.Errorf("%s operator does not take a field", op)
			}
			return CSubExists(op, subquery), nil
		case types.IN, types.NotIn:
			if schema.Field == "" {
				return nil, fmt.Errorf("%s operator requires a field", op)
			}
			field, err := i.schemaField(schema.Field)
			if err != nil {
				return nil, fmt.Errorf("invalid subquery field '%s': %w", schema.Field, err)
			}
			return CSub(field, op, subquery), nil
		default:
			return nil, fmt.Errorf("operator %s cannot be used with subqueries", op)
		}
	}

	if schema.LeftField != "" && schema.RightField != "" {
		if schema.Operator == "" {
			return nil, fmt.Errorf("operator is required for field comparison")
		}
		op, err := parseOperator(schema.Operator)
		if err != nil {
			return nil, err
		}
		left, err := i.schemaField(schema.LeftField)
		if err != nil {
			return nil, fmt.Errorf("invalid left field '%s': %w", schema.LeftField, err)
		}
		right, err := i.schemaField(schema.RightField)
		if err != nil {
			return nil, fmt.Errorf("invalid right field '%s': %w", schema.RightField, err)
		}
		return CF(left, op, right), nil
	}

	if schema.Field == "" {
		return nil, fmt.Errorf("field is required for condition")
	}
	if schema.Operator == "" {
		return nil, fmt.Errorf("operator is required for condition")
	}
	field, err := i.schemaField(schema.Field)
	if err != nil {
		return nil, fmt.Errorf("invalid condition field '%s': %w", schema.Field, err)
	}

	if strings.EqualFold(schema.Operator, "KNN") {
		if schema.Param == "" {
			return nil, fmt.Errorf("param is required for knn condition")
		}
		term, err := i.TryP(schema.Param)
		if err != nil {
			return nil, err
		}
		return i.TryKnn(field, term, schema.K)
	}

	op, err := parseOperator(schema.Operator)
	if err != nil {
		return nil, err
	}
	switch op {
	case types.IsNull:
		return i.TryNull(field)
	case types.IsNotNull:
		return i.TryNotNull(field)
	}
	if schema.Param == "" {
		return nil, fmt.Errorf("param is required for condition")
	}
	p, err := i.TryP(schema.Param)
	if err != nil {
		return nil, err
	}
	return i.TryC(field, op, p)
}

// parseOperator converts an operator string to an Operator type.
func parseOperator(opStr string) (types.Operator, error) {
	switch strings.ToUpper(opStr) {
	case "=", "==", "EQ":
		return types.EQ, nil
	case "!=", "<>", "NE":
		return types.NE, nil
	case ">", "GT":
		return types.GT, nil
	case ">=", "GE":
		return types.GE, nil
	case "<", "LT":
		return types.LT, nil
	case "<=", "LE":
		return types.LE, nil
	case "LIKE":
		return types.LIKE, nil
	case "NOT LIKE":
		return types.NotLike, nil
	case "ILIKE":
		return types.ILIKE, nil
	case "NOT ILIKE":
		return types.NotILike, nil
	case "IN":
		return types.IN, nil
	case "NOT IN":
		return types.NotIn, nil
	case "IS NULL":
		return types.IsNull, nil
	case "IS NOT NULL":
		return types.IsNotNull, nil
	case "EXISTS":
		return types.EXISTS, nil
	case "NOT EXISTS":
		return types.NotExists, nil
	default:
		return "", fmt.Errorf("unsupported operator: %s", opStr)
	}
}

// buildFieldExpression converts a FieldExpressionSchema to a FieldExpression.
func (i *Instance) buildFieldExpression(schema FieldExpressionSchema) (types.FieldExpression, error) {
	var expr types.FieldExpression

	field, err := i.schemaField(schema.Field)
	if err != nil {
		return expr, fmt.Errorf("invalid field '%s': %w", schema.Field, err)
	}

	switch strings.ToLower(schema.Aggregate) {
	case "":
		if schema.DateTrunc != "" {
			expr = DateTrunc(schema.DateTrunc, field)
		} else {
			expr = types.FieldExpression{Field: field}
		}
	case "sum":
		expr = Sum(field)
	case "avg":
		expr = Avg(field)
	case "min":
		expr = Min(field)
	case "max":
		expr = Max(field)
	case "count":
		expr = CountField(field)
	case "count_distinct":
		expr = CountDistinct(field)
	default:
		return expr, fmt.Errorf("unsupported aggregate function: %s", schema.Aggregate)
	}

	if schema.Alias != "" {
		if !isValidSQLIdentifier(schema.Alias) {
			return expr, fmt.Errorf("invalid alias '%s'", schema.Alias)
		}
		expr.Alias = schema.Alias
	}
	return expr, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
