package executor

import (
	"context"
	"database/sql"
	"fmt"

	// Registers the "postgres" driver.
	_ "github.com/lib/pq"
	"github.com/zoobzio/crateql"
	"github.com/zoobzio/crateql/crate"
)

// SQL executes statements through database/sql over the PostgreSQL wire
// protocol.
type SQL struct {
	db *sql.DB
}

// OpenSQL opens a connection pool with the lib/pq driver, for example
// postgres://crate@localhost:5432/doc?sslmode=disable.
func OpenSQL(dsn string) (*SQL, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("executor: %w", err)
	}
	return &SQL{db: db}, nil
}

// NewSQL wraps an existing handle.
func NewSQL(db *sql.DB) *SQL {
	return &SQL{db: db}
}

// DB returns the underlying handle.
func (s *SQL) DB() *sql.DB {
	return s.db
}

// Close closes the underlying handle.
func (s *SQL) Close() error {
	return s.db.Close()
}

// Placeholder implements crateql.PlaceholderStyler.
func (*SQL) Placeholder() crate.Placeholder {
	return crate.Dollar
}

// Exec implements crateql.Executor. A batch executes one prepared statement
// once per parameter set.
func (s *SQL) Exec(ctx context.Context, stmt *crateql.Statement) (*crateql.Result, error) {
	if stmt.IsBatch() {
		return s.execBatch(ctx, stmt)
	}
	args := wireArgs(stmt.Args)

	if returnsRows(stmt) {
		rows, err := s.db.QueryContext(ctx, stmt.SQL, args...)
		if err != nil {
			return nil, fmt.Errorf("executor: %w", err)
		}
		defer rows.Close()
		return scanRows(rows)
	}

	r, err := s.db.ExecContext(ctx, stmt.SQL, args...)
	if err != nil {
		return nil, fmt.Errorf("executor: %w", err)
	}
	n, err := r.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("executor: %w", err)
	}
	return &crateql.Result{RowCount: n}, nil
}

func (s *SQL) execBatch(ctx context.Context, stmt *crateql.Statement) (*crateql.Result, error) {
	prepared, err := s.db.PrepareContext(ctx, stmt.SQL)
	if err != nil {
		return nil, fmt.Errorf("executor: %w", err)
	}
	defer prepared.Close()

	res := &crateql.Result{BatchCounts: make([]int64, len(stmt.Batch))}
	for i, args := range stmt.Batch {
		r, err := prepared.ExecContext(ctx, wireArgs(args)...)
		if err != nil {
			return nil, fmt.Errorf("executor: bulk row %d: %w", i, err)
		}
		n, err := r.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("executor: %w", err)
		}
		res.BatchCounts[i] = n
		res.RowCount += n
	}
	return res, nil
}

func scanRows(rows *sql.Rows) (*crateql.Result, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("executor: %w", err)
	}
	res := &crateql.Result{Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("executor: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		res.Rows = append(res.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("executor: %w", err)
	}
	res.RowCount = int64(len(res.Rows))
	return res, nil
}
