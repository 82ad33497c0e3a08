package crateql

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/zoobzio/crateql/crate"
	"github.com/zoobzio/crateql/internal/types"
)

// Result is what an Executor returns. Rows are nil for statements that
// return no rows; RowCount is the row or affected count. BatchCounts holds
// one affected count per parameter set of a batch.
type Result struct {
	Columns     []string
	Rows        [][]any
	RowCount    int64
	BatchCounts []int64
}

// Executor runs compiled statements. It is the only suspension point:
// transport, retries and timeouts belong to the implementation.
type Executor interface {
	Exec(ctx context.Context, stmt *Statement) (*Result, error)
}

// PlaceholderStyler is implemented by executors that need a placeholder
// style other than "?".
type PlaceholderStyler interface {
	Placeholder() crate.Placeholder
}

// ExecEvent is passed to after-execute listeners.
type ExecEvent struct {
	Statement *Statement
	Result    *Result
}

// AfterExecuteFunc is called after every statement executed through Exec.
// A returned error is reported by Exec.
type AfterExecuteFunc func(ctx context.Context, e *Engine, ev ExecEvent) error

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger for compile warnings.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithServerVersion fixes the server version instead of reading it in
// Initialize.
func WithServerVersion(v string) EngineOption {
	return func(e *Engine) { e.version = v }
}

// Engine compiles statements against an Instance and runs them through an
// Executor.
type Engine struct {
	inst        *Instance
	exec        Executor
	logger      *slog.Logger
	placeholder crate.Placeholder

	mu        sync.RWMutex
	version   string
	renderer  *crate.Renderer
	listeners []AfterExecuteFunc
}

// NewEngine creates an Engine. The renderer uses the executor's placeholder
// style when it implements PlaceholderStyler.
func NewEngine(inst *Instance, exec Executor, opts ...EngineOption) *Engine {
	e := &Engine{inst: inst, exec: exec}
	for _, opt := range opts {
		opt(e)
	}
	if ps, ok := exec.(PlaceholderStyler); ok {
		e.placeholder = ps.Placeholder()
	}
	e.renderer = e.newRenderer(e.version)
	return e
}

func (e *Engine) newRenderer(version string) *crate.Renderer {
	return crate.New(
		crate.WithLogger(e.logger),
		crate.WithServerVersion(version),
		crate.WithPlaceholder(e.placeholder),
	)
}

const serverVersionQuery = "SELECT version['number'] FROM sys.nodes"

// Initialize reads the lowest node version of the cluster and enables the
// features it supports. It is a no-op when the version was set with
// WithServerVersion.
func (e *Engine) Initialize(ctx context.Context) error {
	e.mu.RLock()
	known := e.version != ""
	e.mu.RUnlock()
	if known {
		return nil
	}

	res, err := e.exec.Exec(ctx, &Statement{SQL: serverVersionQuery})
	if err != nil {
		return fmt.Errorf("read server version: %w", err)
	}
	versions := make([]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		if len(row) > 0 {
			if s, ok := row[0].(string); ok {
				versions = append(versions, s)
			}
		}
	}
	lowest := crate.Lowest(versions...)

	e.mu.Lock()
	e.version = lowest
	e.renderer = e.newRenderer(lowest)
	e.mu.Unlock()
	return nil
}

// ServerVersion returns the cluster version known to the engine.
func (e *Engine) ServerVersion() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.version
}

// Instance returns the schema instance.
func (e *Engine) Instance() *Instance {
	return e.inst
}

// Renderer returns the current renderer.
func (e *Engine) Renderer() *crate.Renderer {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.renderer
}

// OnAfterExecute registers a listener for executed statements.
func (e *Engine) OnAfterExecute(fn AfterExecuteFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, fn)
}

// Compile compiles ast with the engine's renderer.
func (e *Engine) Compile(ast *types.AST, rows ...Row) (*Statement, error) {
	return e.inst.compile(e.Renderer(), ast, rows)
}

// Exec compiles and executes ast. One row binds Args; several rows run as a
// batch. Result values of SELECT statements are converted with the target
// table's column types.
func (e *Engine) Exec(ctx context.Context, ast *types.AST, rows ...Row) (*Result, error) {
	stmt, err := e.Compile(ast, rows...)
	if err != nil {
		return nil, err
	}
	return e.ExecStatement(ctx, stmt)
}

// ExecBuilder builds b and executes it.
func (e *Engine) ExecBuilder(ctx context.Context, b *Builder, rows ...Row) (*Result, error) {
	ast, err := b.Build()
	if err != nil {
		return nil, err
	}
	return e.Exec(ctx, ast, rows...)
}

// ExecStatement executes an already compiled statement and notifies
// listeners.
func (e *Engine) ExecStatement(ctx context.Context, stmt *Statement) (*Result, error) {
	res, err := e.exec.Exec(ctx, stmt)
	if err != nil {
		return nil, err
	}

	if stmt.AST != nil && res.Rows != nil && len(stmt.AST.Joins) == 0 {
		if err := e.inst.Convert(stmt.AST.Target.Name, res.Columns, res.Rows); err != nil {
			return nil, err
		}
	}

	e.mu.RLock()
	listeners := append([]AfterExecuteFunc(nil), e.listeners...)
	e.mu.RUnlock()
	for _, fn := range listeners {
		if err := fn(ctx, e, ExecEvent{Statement: stmt, Result: res}); err != nil {
			return res, fmt.Errorf("after execute: %w", err)
		}
	}
	return res, nil
}

// ExecSQL executes raw SQL. Placeholders in sql must follow the renderer's
// placeholder style. Listeners are not notified.
func (e *Engine) ExecSQL(ctx context.Context, sql string, args ...any) (*Result, error) {
	return e.exec.Exec(ctx, &Statement{SQL: sql, Args: args})
}

// InsertBulk inserts values into table with a single batch request.
// Each element of values is one row aligned with columns.
func (e *Engine) InsertBulk(ctx context.Context, table string, columns []string, values [][]any) (*Result, error) {
	t, err := e.inst.TryT(table)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return &Result{}, nil
	}

	fields := make([]types.Field, len(columns))
	params := make([]types.Param, len(columns))
	for n, name := range columns {
		if _, ok := e.inst.tables[table].Column(name); !ok {
			return nil, fmt.Errorf("field '%s' not found in table '%s'", name, table)
		}
		fields[n] = types.Field{Name: name}
		params[n] = types.Param{Name: name}
	}

	ast, err := Insert(t).Columns(fields...).Row(params...).Build()
	if err != nil {
		return nil, err
	}

	rows := make([]Row, len(values))
	for n, vals := range values {
		if len(vals) != len(columns) {
			return nil, fmt.Errorf("row %d has %d values for %d columns", n, len(vals), len(columns))
		}
		row := make(Row, len(columns))
		for c, name := range columns {
			row[name] = vals[c]
		}
		rows[n] = row
	}

	stmt, err := e.Compile(ast, rows...)
	if err != nil {
		return nil, err
	}
	if stmt.Batch == nil {
		stmt.Batch = [][]any{stmt.Args}
		stmt.Args = nil
	}
	return e.ExecStatement(ctx, stmt)
}
