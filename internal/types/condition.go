package types

// Condition represents a simple condition.
// Values are always parameters, never literals.
// Escape is only meaningful for pattern operators and is rejected by the renderer.
type Condition struct {
	Field    Field
	Operator Operator
	Value    Param
	Escape   string
}

// ConditionItem represents either a single condition or a group of conditions.
type ConditionItem interface {
	IsConditionItem()
}

// LogicOperator represents how conditions are combined.
type LogicOperator string

const (
	AND LogicOperator = "AND"
	OR  LogicOperator = "OR"
)

// ConditionGroup represents grouped conditions with AND/OR logic.
type ConditionGroup struct {
	Logic      LogicOperator
	Conditions []ConditionItem
}

// AnyCondition compares a parameter against every element of an array column:
// <param> <op> ANY (<field>).
type AnyCondition struct {
	Value    Param
	Operator Operator
	Field    Field
}

// KnnCondition is the approximate nearest-neighbour predicate on a FLOAT_VECTOR column.
type KnnCondition struct {
	Field Field
	Term  Param
	K     int
}

// Implement ConditionItem interface.
func (Condition) IsConditionItem()      {}
func (ConditionGroup) IsConditionItem() {}
func (AnyCondition) IsConditionItem()   {}
func (KnnCondition) IsConditionItem()   {}
