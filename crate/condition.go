package crate

import (
	"fmt"
	"strings"

	"github.com/zoobzio/crateql/internal/render"
	"github.com/zoobzio/crateql/internal/types"
)

func (c *compiler) renderCondition(cond types.ConditionItem, sql *strings.Builder) error {
	switch v := cond.(type) {
	case types.Condition:
		return c.renderSimpleCondition(v, sql)
	case types.ConditionGroup:
		if len(v.Conditions) == 0 {
			return fmt.Errorf("empty condition group")
		}
		sql.WriteString("(")
		for i, sub := range v.Conditions {
			if i > 0 {
				fmt.Fprintf(sql, " %s ", v.Logic)
			}
			if err := c.renderCondition(sub, sql); err != nil {
				return err
			}
		}
		sql.WriteString(")")
	case types.AnyCondition:
		op, err := renderOperator(v.Operator)
		if err != nil {
			return err
		}
		fmt.Fprintf(sql, "%s %s ANY (%s)", c.addParam(v.Value), op, renderField(v.Field))
	case types.KnnCondition:
		if v.K <= 0 {
			return render.CompileErrorf("KNN_MATCH requires a positive k, got %d", v.K)
		}
		fmt.Fprintf(sql, "KNN_MATCH(%s, %s, %d)", renderField(v.Field), c.addParam(v.Term), v.K)
	case types.FieldComparison:
		op, err := renderOperator(v.Operator)
		if err != nil {
			return err
		}
		fmt.Fprintf(sql, "%s %s %s", renderField(v.LeftField), op, renderField(v.RightField))
	case types.SubqueryCondition:
		return c.renderSubqueryCondition(v, sql)
	case nil:
		return fmt.Errorf("nil condition")
	default:
		return fmt.Errorf("unknown condition type: %T", v)
	}
	return nil
}

func (c *compiler) renderSimpleCondition(cond types.Condition, sql *strings.Builder) error {
	field := renderField(cond.Field)

	if cond.Operator.IsPattern() {
		return c.renderPattern(cond, field, sql)
	}

	switch cond.Operator {
	case types.IsNull:
		fmt.Fprintf(sql, "%s IS NULL", field)
	case types.IsNotNull:
		fmt.Fprintf(sql, "%s IS NOT NULL", field)
	case types.IN:
		// Array parameter: field = ANY(?)
		fmt.Fprintf(sql, "%s = ANY(%s)", field, c.addParam(cond.Value))
	case types.NotIn:
		fmt.Fprintf(sql, "%s != ALL(%s)", field, c.addParam(cond.Value))
	default:
		op, err := renderOperator(cond.Operator)
		if err != nil {
			return err
		}
		fmt.Fprintf(sql, "%s %s %s", field, op, c.addParam(cond.Value))
	}
	return nil
}

// renderPattern renders LIKE-family predicates. ILIKE is native from server
// version 4.1.0 on; older servers get lower(x) LIKE lower(y).
func (c *compiler) renderPattern(cond types.Condition, field string, sql *strings.Builder) error {
	if cond.Escape != "" {
		return render.NewUnsupportedFeatureError(Dialect, "ESCAPE")
	}

	switch cond.Operator {
	case types.ILIKE, types.NotILike:
		if !c.caps.CaseInsensitiveLike {
			op := "LIKE"
			if cond.Operator == types.NotILike {
				op = "NOT LIKE"
			}
			fmt.Fprintf(sql, "lower(%s) %s lower(%s)", field, op, c.addParam(cond.Value))
			return nil
		}
	}
	fmt.Fprintf(sql, "%s %s %s", field, cond.Operator, c.addParam(cond.Value))
	return nil
}

func (c *compiler) renderSubqueryCondition(cond types.SubqueryCondition, sql *strings.Builder) error {
	switch cond.Operator {
	case types.EXISTS, types.NotExists:
		sql.WriteString(string(cond.Operator))
		sql.WriteString(" ")
	case types.IN, types.NotIn:
		if cond.Field == nil {
			return fmt.Errorf("operator %s requires a field", cond.Operator)
		}
		fmt.Fprintf(sql, "%s %s ", renderField(*cond.Field), cond.Operator)
	default:
		return fmt.Errorf("operator %s cannot be used with a subquery", cond.Operator)
	}

	if cond.Subquery.AST == nil || cond.Subquery.AST.Operation != types.OpSelect {
		return fmt.Errorf("subquery must be a SELECT")
	}
	if err := cond.Subquery.AST.Validate(); err != nil {
		return fmt.Errorf("invalid subquery: %w", err)
	}
	if c.depth >= types.MaxSubqueryDepth {
		return fmt.Errorf("maximum subquery depth (%d) exceeded", types.MaxSubqueryDepth)
	}

	c.depth++
	defer func() { c.depth-- }()

	sql.WriteString("(")
	if err := c.renderSelect(cond.Subquery.AST, sql); err != nil {
		return err
	}
	sql.WriteString(")")
	return nil
}

func renderOperator(op types.Operator) (string, error) {
	switch op {
	case types.EQ, types.NE, types.GT, types.GE, types.LT, types.LE:
		return string(op), nil
	}
	return "", fmt.Errorf("operator %s is not a comparison", op)
}
