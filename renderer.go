package crateql

import "github.com/zoobzio/crateql/internal/types"

// Renderer converts an AST to dialect SQL with positional placeholders.
// *crate.Renderer is the implementation used by Instance and Engine.
type Renderer interface {
	Render(ast *types.AST) (*types.QueryResult, error)
}
