package config

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zoobzio/crateql"
	"github.com/zoobzio/crateql/executor"
	"github.com/zoobzio/crateql/refresh"
)

// Runtime is an engine connected with the configured executor.
type Runtime struct {
	Engine *crateql.Engine

	refresh string
	close   func() error
}

// Executor opens the configured executor. The returned function releases it.
func (c *Config) Executor(ctx context.Context, logger *slog.Logger) (crateql.Executor, func() error, error) {
	noop := func() error { return nil }

	switch c.Connection.Driver {
	case DriverHTTP:
		opts := []executor.HTTPOption{executor.WithHTTPLogger(logger)}
		if c.Connection.Timeout > 0 {
			opts = append(opts, executor.WithTimeout(c.Connection.Timeout))
		}
		if c.Connection.Retries != nil {
			opts = append(opts, executor.WithRetries(*c.Connection.Retries))
		}
		exec, err := executor.NewHTTP(c.Connection.URL, opts...)
		if err != nil {
			return nil, nil, err
		}
		return exec, noop, nil

	case DriverPgx:
		if c.Connection.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.Connection.Timeout)
			defer cancel()
		}
		exec, conn, err := executor.ConnectPgx(ctx, c.Connection.URL)
		if err != nil {
			return nil, nil, err
		}
		return exec, func() error { return conn.Close(context.Background()) }, nil

	case DriverPostgres:
		exec, err := executor.OpenSQL(c.Connection.URL)
		if err != nil {
			return nil, nil, err
		}
		return exec, exec.Close, nil
	}
	return nil, nil, fmt.Errorf("config: unknown driver %q", c.Connection.Driver)
}

// Connect opens the executor and builds an engine over the configured
// tables. With refresh: engine every DML statement is followed by a
// REFRESH TABLE.
func (c *Config) Connect(ctx context.Context, logger *slog.Logger) (*Runtime, error) {
	instance, err := c.Instance()
	if err != nil {
		return nil, err
	}
	exec, closeFn, err := c.Executor(ctx, logger)
	if err != nil {
		return nil, err
	}

	opts := []crateql.EngineOption{crateql.WithLogger(logger)}
	if c.ServerVersion != "" {
		opts = append(opts, crateql.WithServerVersion(c.ServerVersion))
	}
	engine := crateql.NewEngine(instance, exec, opts...)
	if c.Refresh == RefreshEngine {
		refresh.AfterDML(engine)
	}
	return &Runtime{Engine: engine, refresh: c.Refresh, close: closeFn}, nil
}

// NewSession starts a unit of work. With refresh: session every flush is
// followed by a REFRESH TABLE per written table.
func (r *Runtime) NewSession() *crateql.Session {
	s := crateql.NewSession(r.Engine)
	if r.refresh == RefreshSession {
		refresh.AfterFlush(s)
	}
	return s
}

// Close releases the executor.
func (r *Runtime) Close() error {
	return r.close()
}
