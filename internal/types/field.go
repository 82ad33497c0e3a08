package types

import "strings"

// Field represents a validated column reference.
// Path holds subscript keys for OBJECT columns, rendered as col['a']['b'].
type Field struct {
	Name  string   // The column name (required)
	Table string   // Optional table/alias prefix
	Path  []string // Optional subscript keys
}

// TableValidator is a function that validates table names and aliases.
type TableValidator func(string) error

// Global table validator - set by the main package.
var validateTable TableValidator

// GetName returns the field name.
func (f Field) GetName() string {
	return f.Name
}

// GetTable returns the table/alias prefix.
func (f Field) GetTable() string {
	return f.Table
}

// IsSubscript reports whether the field addresses a key inside an OBJECT column.
func (f Field) IsSubscript() bool {
	return len(f.Path) > 0
}

// Key returns a stable identity for the field including its subscript path.
func (f Field) Key() string {
	if len(f.Path) == 0 {
		return f.Name
	}
	return f.Name + "[" + strings.Join(f.Path, "][") + "]"
}

// Item returns a copy of the field addressing the given subscript keys.
func (f Field) Item(keys ...string) Field {
	path := make([]string, 0, len(f.Path)+len(keys))
	path = append(path, f.Path...)
	path = append(path, keys...)
	f.Path = path
	return f
}

// WithTable sets the table/alias prefix for a field with validation.
func (f Field) WithTable(tableOrAlias string) Field {
	if validateTable != nil {
		if err := validateTable(tableOrAlias); err != nil {
			panic(err)
		}
	}

	f.Table = tableOrAlias
	return f
}

// SetTableValidator sets the global table validator function.
// This is called by the main package during initialization.
func SetTableValidator(validator TableValidator) {
	validateTable = validator
}
