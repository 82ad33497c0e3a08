package executor

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/zoobzio/crateql"
	"github.com/zoobzio/crateql/crate"
)

// PgxConn is the subset of *pgx.Conn used by Pgx.
type PgxConn interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Pgx executes statements through a pgx connection. Batches are sent in a
// single round trip.
type Pgx struct {
	conn PgxConn
}

// ConnectPgx opens a connection, for example
// postgres://crate@localhost:5432/doc. CrateDB does not support the extended
// statement cache, so statements are sent with the exec protocol.
func ConnectPgx(ctx context.Context, dsn string) (*Pgx, *pgx.Conn, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("executor: %w", err)
	}
	cfg.DefaultQueryExecMode = pgx.QueryExecModeExec
	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("executor: %w", err)
	}
	return NewPgx(conn), conn, nil
}

// NewPgx wraps conn.
func NewPgx(conn PgxConn) *Pgx {
	return &Pgx{conn: conn}
}

// Placeholder implements crateql.PlaceholderStyler.
func (*Pgx) Placeholder() crate.Placeholder {
	return crate.Dollar
}

// Exec implements crateql.Executor.
func (p *Pgx) Exec(ctx context.Context, stmt *crateql.Statement) (*crateql.Result, error) {
	if stmt.IsBatch() {
		return p.execBatch(ctx, stmt)
	}
	args := jsonArgs(stmt.Args)

	if returnsRows(stmt) {
		rows, err := p.conn.Query(ctx, stmt.SQL, args...)
		if err != nil {
			return nil, fmt.Errorf("executor: %w", err)
		}
		defer rows.Close()

		fields := rows.FieldDescriptions()
		res := &crateql.Result{Columns: make([]string, len(fields)), Rows: [][]any{}}
		for i, f := range fields {
			res.Columns[i] = f.Name
		}
		for rows.Next() {
			values, err := rows.Values()
			if err != nil {
				return nil, fmt.Errorf("executor: %w", err)
			}
			res.Rows = append(res.Rows, values)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("executor: %w", err)
		}
		res.RowCount = int64(len(res.Rows))
		return res, nil
	}

	tag, err := p.conn.Exec(ctx, stmt.SQL, args...)
	if err != nil {
		return nil, fmt.Errorf("executor: %w", err)
	}
	return &crateql.Result{RowCount: tag.RowsAffected()}, nil
}

func (p *Pgx) execBatch(ctx context.Context, stmt *crateql.Statement) (*crateql.Result, error) {
	batch := &pgx.Batch{}
	for _, args := range stmt.Batch {
		batch.Queue(stmt.SQL, jsonArgs(args)...)
	}

	br := p.conn.SendBatch(ctx, batch)
	res := &crateql.Result{BatchCounts: make([]int64, len(stmt.Batch))}
	for i := range stmt.Batch {
		tag, err := br.Exec()
		if err != nil {
			_ = br.Close()
			return nil, fmt.Errorf("executor: bulk row %d: %w", i, err)
		}
		res.BatchCounts[i] = tag.RowsAffected()
		res.RowCount += tag.RowsAffected()
	}
	if err := br.Close(); err != nil {
		return nil, fmt.Errorf("executor: %w", err)
	}
	return res, nil
}

// jsonArgs sends objects as JSON text; pgx encodes everything else natively.
func jsonArgs(args []any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		switch t := a.(type) {
		case map[string]any:
			out[i] = jsonText(t)
		case []any:
			out[i] = a
			for _, item := range t {
				if _, ok := item.(map[string]any); ok {
					out[i] = jsonText(t)
					break
				}
			}
		default:
			out[i] = a
		}
	}
	return out
}
