// Package crateql builds and executes statements against CrateDB.
//
// Statements are assembled as an Abstract Syntax Tree (AST) with fluent
// builder calls and compiled by the crate dialect renderer. Table definitions
// provide the column types used to convert bound values and results.
//
// # Basic Usage
//
//	instance, err := crateql.New(crate.TableDefinition{
//		Name: "characters",
//		Columns: []crate.ColumnDefinition{
//			{Name: "id", Type: coltype.Text(), PrimaryKey: true},
//			{Name: "details", Type: coltype.Obj()},
//		},
//	})
//
//	query := crateql.Select(instance.T("characters")).
//		Fields(instance.F("id")).
//		Where(instance.C(instance.F("details").Item("name"), crateql.EQ, instance.P("name")))
//
//	result, err := query.Render(crate.New())
//	// result.SQL: SELECT id FROM characters WHERE details['name'] = ?
//	// result.RequiredParams: []string{"name"}
//
// # Partial Object Updates
//
// OBJECT columns materialize as *tracked.Object. Mutating one and binding it to
// an UPDATE makes the statement touch only the changed paths:
//
//	details.Set("age", 42)
//	stmt, err := instance.Compile(update, crateql.Row{"details": details, "id": id})
//	// stmt.SQL: UPDATE characters SET details['age'] = ? WHERE id = ?
//
// # Execution
//
// Engine runs compiled statements through an Executor (see package executor).
// Because CrateDB is eventually consistent, package refresh can register
// listeners that issue REFRESH TABLE after writes.
package crateql

import (
	"github.com/zoobzio/crateql/internal/render"
	"github.com/zoobzio/crateql/internal/types"
)

// AST represents the abstract syntax tree for a statement.
// This is re-exported from internal/types for use by consumers.
type AST = types.AST

// QueryResult contains the rendered SQL and required parameters.
type QueryResult = types.QueryResult

// Table, Field and Param are the validated references produced by Instance.
type (
	Table = types.Table
	Field = types.Field
	Param = types.Param
)

// FieldExpression is an aggregate or date_trunc selection.
type FieldExpression = types.FieldExpression

// Operation represents the type of statement.
type Operation = types.Operation

// Re-export operation constants for public API.
const (
	OpSelect = types.OpSelect
	OpInsert = types.OpInsert
	OpUpdate = types.OpUpdate
	OpDelete = types.OpDelete
	OpCount  = types.OpCount
)

// Direction represents sort direction.
type Direction = types.Direction

// Re-export direction constants for public API.
const (
	ASC  = types.ASC
	DESC = types.DESC
)

// Operator represents SQL comparison operators.
type Operator = types.Operator

// Re-export operator constants for public API.
const (
	// Basic comparison operators.
	EQ = types.EQ
	NE = types.NE
	GT = types.GT
	GE = types.GE
	LT = types.LT
	LE = types.LE

	// Extended operators.
	IN        = types.IN
	NotIn     = types.NotIn
	LIKE      = types.LIKE
	NotLike   = types.NotLike
	ILIKE     = types.ILIKE
	NotILike  = types.NotILike
	IsNull    = types.IsNull
	IsNotNull = types.IsNotNull
	EXISTS    = types.EXISTS
	NotExists = types.NotExists
)

// ConditionItem represents either a single condition or a group of conditions.
type ConditionItem = types.ConditionItem

// AggregateFunc represents SQL aggregate functions.
type AggregateFunc = types.AggregateFunc

// Re-export aggregate function constants for public API.
const (
	AggSum           = types.AggSum
	AggAvg           = types.AggAvg
	AggMin           = types.AggMin
	AggMax           = types.AggMax
	AggCountField    = types.AggCountField
	AggCountDistinct = types.AggCountDistinct
)

// Errors shared with the dialect packages.
var (
	ErrCompile         = render.ErrCompile
	ErrUnsupportedType = render.ErrUnsupportedType
	ErrInvalidValue    = render.ErrInvalidValue
)

// UnsupportedFeatureError indicates a construct CrateDB has no syntax for.
type UnsupportedFeatureError = render.UnsupportedFeatureError
