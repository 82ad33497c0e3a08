package types

import "fmt"

// Operation represents the type of query operation.
type Operation string

const (
	OpSelect Operation = "SELECT"
	OpInsert Operation = "INSERT"
	OpUpdate Operation = "UPDATE"
	OpDelete Operation = "DELETE"
	OpCount  Operation = "COUNT"
)

// IsDML reports whether the operation writes to its target table.
func (op Operation) IsDML() bool {
	return op == OpInsert || op == OpUpdate || op == OpDelete
}

// Direction represents sort direction.
type Direction string

const (
	ASC  Direction = "ASC"
	DESC Direction = "DESC"
)

// OrderBy represents an ORDER BY clause.
type OrderBy struct {
	Field     Field
	Direction Direction
}

// JoinType represents the type of SQL join.
type JoinType string

const (
	InnerJoin JoinType = "INNER JOIN"
	LeftJoin  JoinType = "LEFT JOIN"
	RightJoin JoinType = "RIGHT JOIN"
	CrossJoin JoinType = "CROSS JOIN"
)

// Join represents a SQL JOIN clause.
type Join struct {
	On    ConditionItem
	Table Table
	Type  JoinType
}

// Assignment is a single "target = value" pair. Order is significant.
// Excluded takes the value from the conflicting row of an upsert
// instead of a parameter.
type Assignment struct {
	Field    Field
	Value    Param
	Excluded bool
}

// ConflictAction represents what to do on conflict.
type ConflictAction string

const (
	DoNothing ConflictAction = "DO NOTHING"
	DoUpdate  ConflictAction = "DO UPDATE"
)

// ConflictClause represents the ON CONFLICT clause of an INSERT.
type ConflictClause struct {
	Updates []Assignment
	Action  ConflictAction
	Columns []Field
}

// LockMode is a row-locking request. The target database has no row locks;
// the renderer drops the clause with a warning.
type LockMode string

const (
	LockForUpdate LockMode = "FOR UPDATE"
	LockForShare  LockMode = "FOR SHARE"
)

// AggregateFunc represents SQL aggregate functions.
type AggregateFunc string

const (
	AggSum           AggregateFunc = "SUM"
	AggAvg           AggregateFunc = "AVG"
	AggMin           AggregateFunc = "MIN"
	AggMax           AggregateFunc = "MAX"
	AggCountField    AggregateFunc = "COUNT"
	AggCountDistinct AggregateFunc = "COUNT_DISTINCT"
)

// FieldExpression represents a field with optional aggregate or truncation.
type FieldExpression struct {
	Field     Field
	Aggregate AggregateFunc
	DateTrunc string // interval unit for date_trunc('<unit>', field)
	Alias     string
}

// FieldComparison represents a comparison between two fields.
type FieldComparison struct {
	LeftField  Field
	Operator   Operator
	RightField Field
}

// SubqueryCondition represents a condition that uses a subquery.
type SubqueryCondition struct {
	Subquery Subquery
	Field    *Field
	Operator Operator
}

// Subquery represents a nested query.
type Subquery struct {
	AST *AST
}

// MaxSubqueryDepth bounds subquery nesting.
const MaxSubqueryDepth = 3

func (FieldComparison) IsConditionItem()   {}
func (SubqueryCondition) IsConditionItem() {}

// AST represents the abstract statement tree handed to a dialect renderer.
// This is exported from the internal package so the base package can use it,
// but external users cannot import this package.
//
//nolint:govet // fieldalignment: Logical grouping is preferred over memory optimization
type AST struct {
	Operation        Operation
	Target           Table
	Fields           []Field
	WhereClause      ConditionItem
	Ordering         []OrderBy
	Limit            *int
	Offset           *int
	Updates          []Assignment      // For UPDATE operations, in order
	Columns          []Field           // For INSERT operations
	Values           [][]Param         // For INSERT operations, one slice per row aligned with Columns
	OnConflict       *ConflictClause   // ON CONFLICT
	Joins            []Join            // JOIN clauses
	GroupBy          []Field           // GROUP BY fields
	Having           []Condition       // HAVING conditions
	FieldExpressions []FieldExpression // Aggregates and date_trunc
	Returning        []Field           // RETURNING fields
	Lock             LockMode          // Row lock request, never rendered
	Distinct         bool              // DISTINCT flag
}

// Clone returns a copy of the AST whose slices can be modified independently.
func (ast *AST) Clone() *AST {
	c := *ast
	c.Updates = append([]Assignment(nil), ast.Updates...)
	c.Columns = append([]Field(nil), ast.Columns...)
	if ast.Values != nil {
		c.Values = make([][]Param, len(ast.Values))
		for i, row := range ast.Values {
			c.Values[i] = append([]Param(nil), row...)
		}
	}
	return &c
}

// Validate performs basic validation on the AST.
func (ast *AST) Validate() error {
	if ast.Target.Name == "" {
		return fmt.Errorf("target table is required")
	}

	switch ast.Operation {
	case OpSelect:
		// Fields are optional (defaults to *)
	case OpInsert:
		if len(ast.Columns) == 0 || len(ast.Values) == 0 {
			return fmt.Errorf("INSERT requires at least one value set")
		}
		for i, row := range ast.Values {
			if len(row) != len(ast.Columns) {
				return fmt.Errorf("value set %d has %d values for %d columns", i, len(row), len(ast.Columns))
			}
		}
		if ast.OnConflict != nil && len(ast.OnConflict.Columns) == 0 {
			return fmt.Errorf("ON CONFLICT requires at least one column")
		}
	case OpUpdate:
		if len(ast.Updates) == 0 {
			return fmt.Errorf("UPDATE requires at least one field to update")
		}
		if ast.Distinct || len(ast.Joins) > 0 || len(ast.GroupBy) > 0 {
			return fmt.Errorf("UPDATE cannot have SELECT features like DISTINCT, JOIN, or GROUP BY")
		}
	case OpDelete:
		if ast.Distinct || len(ast.Joins) > 0 || len(ast.GroupBy) > 0 {
			return fmt.Errorf("DELETE cannot have SELECT features like DISTINCT, JOIN, or GROUP BY")
		}
	case OpCount:
		// COUNT can have JOINs and WHERE but no fields
	default:
		return fmt.Errorf("unsupported operation: %s", ast.Operation)
	}

	if len(ast.Having) > 0 && len(ast.GroupBy) == 0 {
		return fmt.Errorf("HAVING requires GROUP BY")
	}
	if ast.Limit != nil && *ast.Limit < 0 {
		return fmt.Errorf("LIMIT must not be negative")
	}
	if ast.Offset != nil && *ast.Offset < 0 {
		return fmt.Errorf("OFFSET must not be negative")
	}

	return nil
}
