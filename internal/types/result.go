package types

// QueryResult contains the rendered SQL and required parameters.
// RequiredParams lists parameter names in placeholder order; a name
// appears once per placeholder it is bound to.
type QueryResult struct {
	SQL            string
	RequiredParams []string
}
