// Package config loads connection settings, table definitions and named
// queries from a YAML document.
//
//	connection:
//	  driver: http
//	  url: http://localhost:4200
//	  timeout: 5s
//	  retries: 3
//	refresh: engine
//	tables:
//	  - name: characters
//	    columns:
//	      - {name: id, type: text, primary_key: true}
//	      - {name: details, type: object}
//	    options:
//	      shards: "3"
//	queries:
//	  by_planet:
//	    operation: select
//	    table: characters
//	    where: {field: "details['planet']", operator: "=", param: planet}
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/zoobzio/crateql"
	"github.com/zoobzio/crateql/coltype"
	"github.com/zoobzio/crateql/crate"
	"github.com/zoobzio/crateql/options"
	"gopkg.in/yaml.v3"
)

// Connection drivers.
const (
	DriverHTTP     = "http"
	DriverPgx      = "pgx"
	DriverPostgres = "postgres"
)

// Refresh modes.
const (
	RefreshNone    = "none"
	RefreshEngine  = "engine"
	RefreshSession = "session"
)

// Placeholder styles.
const (
	PlaceholderQuestion = "qmark"
	PlaceholderDollar   = "dollar"
)

// Config is the root document.
type Config struct {
	Connection    Connection                     `yaml:"connection"`
	ServerVersion string                         `yaml:"server_version,omitempty"`
	Placeholder   string                         `yaml:"placeholder,omitempty"`
	Refresh       string                         `yaml:"refresh,omitempty"`
	Tables        []Table                        `yaml:"tables"`
	Queries       map[string]crateql.QuerySchema `yaml:"queries,omitempty"`
}

// Connection selects the executor.
type Connection struct {
	Driver  string        `yaml:"driver"`
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
	Retries *int          `yaml:"retries,omitempty"`
}

// Table describes one table.
type Table struct {
	Schema     string            `yaml:"schema,omitempty"`
	Name       string            `yaml:"name"`
	Columns    []Column          `yaml:"columns"`
	PrimaryKey []string          `yaml:"primary_key,omitempty"`
	Checks     []Check           `yaml:"checks,omitempty"`
	Options    map[string]string `yaml:"options,omitempty"`
}

// Column describes one column. Type accepts any name coltype.Parse knows.
type Column struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	PrimaryKey  bool   `yaml:"primary_key,omitempty"`
	Nullable    *bool  `yaml:"nullable,omitempty"`
	Default     string `yaml:"default,omitempty"`
	Generated   string `yaml:"generated,omitempty"`
	Index       *bool  `yaml:"index,omitempty"`
	Columnstore *bool  `yaml:"columnstore,omitempty"`
}

// Check is a named CHECK constraint.
type Check struct {
	Name       string `yaml:"name,omitempty"`
	Expression string `yaml:"expression"`
}

// Load reads and validates the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML document. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Connection.Driver == "" {
		c.Connection.Driver = DriverHTTP
	}
	if c.Refresh == "" {
		c.Refresh = RefreshNone
	}
	if c.Placeholder == "" {
		c.Placeholder = PlaceholderQuestion
		if c.Connection.Driver != DriverHTTP {
			c.Placeholder = PlaceholderDollar
		}
	}
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("config: "+format, args...))
	}

	switch c.Connection.Driver {
	case DriverHTTP, DriverPgx, DriverPostgres:
	default:
		add("connection.driver must be one of http, pgx, postgres, got %q", c.Connection.Driver)
	}
	if c.Connection.Timeout < 0 {
		add("connection.timeout must not be negative")
	}
	if c.Connection.Retries != nil && *c.Connection.Retries < 0 {
		add("connection.retries must not be negative")
	}
	if c.ServerVersion != "" && crate.Lowest(c.ServerVersion) == "" {
		add("server_version %q is not a version", c.ServerVersion)
	}
	switch c.Placeholder {
	case PlaceholderQuestion, PlaceholderDollar:
	default:
		add("placeholder must be qmark or dollar, got %q", c.Placeholder)
	}
	switch c.Refresh {
	case RefreshNone, RefreshEngine, RefreshSession:
	default:
		add("refresh must be one of none, engine, session, got %q", c.Refresh)
	}

	seen := make(map[string]bool, len(c.Tables))
	for n, t := range c.Tables {
		if t.Name == "" {
			add("tables[%d]: name is required", n)
			continue
		}
		if seen[t.Name] {
			add("tables[%d]: duplicate table %s", n, t.Name)
		}
		seen[t.Name] = true
		if _, err := t.Definition(); err != nil {
			errs = append(errs, fmt.Errorf("config: tables[%d]: %w", n, err))
		}
	}
	return errors.Join(errs...)
}

// Definition converts t into a table definition.
func (t Table) Definition() (crate.TableDefinition, error) {
	def := crate.TableDefinition{Schema: t.Schema, Name: t.Name}
	if len(t.Columns) == 0 {
		return def, fmt.Errorf("table %s has no columns", t.Name)
	}

	names := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if c.Name == "" {
			return def, fmt.Errorf("table %s: column name is required", t.Name)
		}
		if names[c.Name] {
			return def, fmt.Errorf("table %s: duplicate column %s", t.Name, c.Name)
		}
		names[c.Name] = true

		d, ok := coltype.Parse(c.Type)
		if !ok {
			return def, fmt.Errorf("table %s: column %s: unknown type %q", t.Name, c.Name, c.Type)
		}
		col := crate.ColumnDefinition{
			Name:        c.Name,
			Type:        d,
			PrimaryKey:  c.PrimaryKey,
			Nullable:    c.Nullable,
			Default:     c.Default,
			Index:       c.Index,
			Columnstore: c.Columnstore,
		}
		if c.Generated != "" {
			col.Generated = &crate.Generated{Expression: c.Generated}
		}
		def.Columns = append(def.Columns, col)
	}

	if len(t.PrimaryKey) > 0 {
		for _, name := range t.PrimaryKey {
			if !names[name] {
				return def, fmt.Errorf("table %s: primary key column %s is not defined", t.Name, name)
			}
		}
		def.Constraints = append(def.Constraints, crate.PrimaryKeyConstraint{Columns: t.PrimaryKey})
	}
	for _, chk := range t.Checks {
		if chk.Expression == "" {
			return def, fmt.Errorf("table %s: check expression is required", t.Name)
		}
		def.Constraints = append(def.Constraints, crate.CheckConstraint{Name: chk.Name, Expression: chk.Expression})
	}

	if len(t.Options) > 0 {
		opts, err := options.FromQueryParams(t.Options)
		if err != nil {
			return def, fmt.Errorf("table %s: %w", t.Name, err)
		}
		def.Options = opts
	}
	return def, nil
}

// Definitions converts every table.
func (c *Config) Definitions() ([]crate.TableDefinition, error) {
	defs := make([]crate.TableDefinition, 0, len(c.Tables))
	for _, t := range c.Tables {
		def, err := t.Definition()
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// Table returns the named table.
func (c *Config) Table(name string) (Table, bool) {
	for _, t := range c.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// QueryNames returns the sorted names of the configured queries.
func (c *Config) QueryNames() []string {
	names := make([]string, 0, len(c.Queries))
	for name := range c.Queries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PlaceholderStyle returns the configured placeholder style.
func (c *Config) PlaceholderStyle() crate.Placeholder {
	if strings.EqualFold(c.Placeholder, PlaceholderDollar) {
		return crate.Dollar
	}
	return crate.QuestionMark
}

// Renderer returns a renderer for offline compilation.
func (c *Config) Renderer() *crate.Renderer {
	return crate.New(
		crate.WithServerVersion(c.ServerVersion),
		crate.WithPlaceholder(c.PlaceholderStyle()),
	)
}

// Instance builds an instance over the configured tables.
func (c *Config) Instance() (*crateql.Instance, error) {
	defs, err := c.Definitions()
	if err != nil {
		return nil, err
	}
	instance, err := crateql.New(defs...)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return instance.WithRenderer(c.Renderer()), nil
}

// Query builds the named query against instance.
func (c *Config) Query(instance *crateql.Instance, name string) (*crateql.AST, error) {
	schema, ok := c.Queries[name]
	if !ok {
		return nil, fmt.Errorf("config: query %s not found", name)
	}
	ast, err := instance.BuildFromSchema(&schema)
	if err != nil {
		return nil, fmt.Errorf("config: query %s: %w", name, err)
	}
	return ast, nil
}

// FromDefinition converts a table definition back into its document form.
func FromDefinition(def crate.TableDefinition) (Table, error) {
	t := Table{Schema: def.Schema, Name: def.Name}
	for _, col := range def.Columns {
		name, err := coltype.TypeName(col.Type)
		if err != nil {
			return Table{}, fmt.Errorf("config: column %s: %w", col.Name, err)
		}
		c := Column{
			Name:        col.Name,
			Type:        strings.ToLower(name),
			PrimaryKey:  col.PrimaryKey,
			Nullable:    col.Nullable,
			Default:     col.Default,
			Index:       col.Index,
			Columnstore: col.Columnstore,
		}
		if col.Generated != nil {
			c.Generated = col.Generated.Expression
		}
		t.Columns = append(t.Columns, c)
	}
	for _, c := range def.Constraints {
		switch v := c.(type) {
		case crate.PrimaryKeyConstraint:
			t.PrimaryKey = v.Columns
		case crate.CheckConstraint:
			t.Checks = append(t.Checks, Check{Name: v.Name, Expression: v.Expression})
		}
	}
	return t, nil
}
