package types

// Table represents a validated table reference.
// This is exported from the internal package so providers can use it,
// but external users cannot import this package.
type Table struct {
	Schema string
	Name   string
	Alias  string
}

// GetName returns the table name.
func (t Table) GetName() string {
	return t.Name
}

// GetSchema returns the schema the table lives in, empty for the default schema.
func (t Table) GetSchema() string {
	return t.Schema
}

// GetAlias returns the table alias.
func (t Table) GetAlias() string {
	return t.Alias
}
