// Package testing provides test utilities for crateql.
package testing

import (
	"context"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/zoobzio/crateql"
	"github.com/zoobzio/dbml"
)

// TestInstance creates a crateql instance for testing.
// Includes characters, cities, ships and sightings tables.
func TestInstance(t *testing.T) *crateql.Instance {
	t.Helper()

	project := dbml.NewProject("test")

	// Characters table
	characters := dbml.NewTable("characters")
	characters.AddColumn(dbml.NewColumn("id", "text"))
	characters.AddColumn(dbml.NewColumn("name", "text"))
	characters.AddColumn(dbml.NewColumn("age", "integer"))
	characters.AddColumn(dbml.NewColumn("details", "object"))
	characters.AddColumn(dbml.NewColumn("more_details", "object_array"))
	characters.AddColumn(dbml.NewColumn("tags", "text_array"))
	characters.AddColumn(dbml.NewColumn("embedding", "float_vector(3)"))
	characters.AddColumn(dbml.NewColumn("created", "timestamp with time zone"))
	project.AddTable(characters)

	// Cities table
	cities := dbml.NewTable("cities")
	cities.AddColumn(dbml.NewColumn("name", "text"))
	cities.AddColumn(dbml.NewColumn("country", "text"))
	cities.AddColumn(dbml.NewColumn("population", "long"))
	cities.AddColumn(dbml.NewColumn("location", "geo_point"))
	project.AddTable(cities)

	// Ships table
	ships := dbml.NewTable("ships")
	ships.AddColumn(dbml.NewColumn("id", "long"))
	ships.AddColumn(dbml.NewColumn("name", "text"))
	ships.AddColumn(dbml.NewColumn("crew", "text[]"))
	ships.AddColumn(dbml.NewColumn("launched", "date"))
	project.AddTable(ships)

	// Sightings table
	sightings := dbml.NewTable("sightings")
	sightings.AddColumn(dbml.NewColumn("ship_id", "long"))
	sightings.AddColumn(dbml.NewColumn("seen", "timestamp"))
	sightings.AddColumn(dbml.NewColumn("position", "geo_point"))
	project.AddTable(sightings)

	instance, err := crateql.NewFromDBML(project)
	if err != nil {
		t.Fatalf("Failed to create test instance: %v", err)
	}
	return instance
}

// RecordingExecutor records every statement it receives and answers with
// Result, or with an empty result when Result is nil.
type RecordingExecutor struct {
	Result *crateql.Result
	Err    error

	mu         sync.Mutex
	statements []*crateql.Statement
}

// Exec implements crateql.Executor.
func (e *RecordingExecutor) Exec(_ context.Context, stmt *crateql.Statement) (*crateql.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.statements = append(e.statements, stmt)
	if e.Err != nil {
		return nil, e.Err
	}
	if e.Result != nil {
		return e.Result, nil
	}
	return &crateql.Result{}, nil
}

// Statements returns the recorded statements in order.
func (e *RecordingExecutor) Statements() []*crateql.Statement {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*crateql.Statement(nil), e.statements...)
}

// SQL returns the SQL of the recorded statements in order.
func (e *RecordingExecutor) SQL() []string {
	stmts := e.Statements()
	out := make([]string, len(stmts))
	for i, s := range stmts {
		out[i] = s.SQL
	}
	return out
}

// AssertSQL compares expected and actual SQL, reporting detailed differences.
func AssertSQL(t *testing.T, expected, actual string) {
	t.Helper()
	if expected != actual {
		t.Errorf("SQL mismatch:\nExpected: %s\nActual:   %s", expected, actual)
	}
}

// AssertArgs compares bound arguments positionally.
func AssertArgs(t *testing.T, expected, actual []any) {
	t.Helper()
	if !reflect.DeepEqual(expected, actual) {
		t.Errorf("Args mismatch:\nExpected: %#v\nActual:   %#v", expected, actual)
	}
}

// AssertStatement compiles ast with row and checks both the SQL and the args.
func AssertStatement(t *testing.T, instance *crateql.Instance, ast *crateql.AST, row crateql.Row, sql string, args ...any) {
	t.Helper()
	stmt, err := instance.Compile(ast, row)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	AssertSQL(t, sql, stmt.SQL)
	if args == nil {
		args = []any{}
	}
	actual := stmt.Args
	if actual == nil {
		actual = []any{}
	}
	AssertArgs(t, args, actual)
}

// AssertParams checks that the required params match expected values.
func AssertParams(t *testing.T, expected, actual []string) {
	t.Helper()
	if len(expected) != len(actual) {
		t.Errorf("Param count mismatch: expected %d, got %d\nExpected: %v\nActual: %v",
			len(expected), len(actual), expected, actual)
		return
	}

	expectedMap := make(map[string]bool)
	for _, p := range expected {
		expectedMap[p] = true
	}

	for _, p := range actual {
		if !expectedMap[p] {
			t.Errorf("Unexpected param: %s\nExpected: %v\nActual: %v", p, expected, actual)
		}
	}
}

// AssertContainsParam checks that a specific param is in the list.
func AssertContainsParam(t *testing.T, params []string, param string) {
	t.Helper()
	for _, p := range params {
		if p == param {
			return
		}
	}
	t.Errorf("Expected param %q not found in %v", param, params)
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

// AssertErrorContains checks that error message contains substr.
func AssertErrorContains(t *testing.T, err error, substr string) {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected error containing %q but got nil", substr)
	}
	if !strings.Contains(err.Error(), substr) {
		t.Errorf("Expected error containing %q, got: %v", substr, err)
	}
}

// AssertPanicsWithMessage verifies that fn panics with a message containing substr.
func AssertPanicsWithMessage(t *testing.T, fn func(), substr string) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Errorf("Expected panic containing %q but function completed normally", substr)
			return
		}
		var msg string
		switch v := r.(type) {
		case error:
			msg = v.Error()
		case string:
			msg = v
		default:
			t.Errorf("Panic value is not string or error: %T", r)
			return
		}
		if !strings.Contains(msg, substr) {
			t.Errorf("Expected panic containing %q, got: %s", substr, msg)
		}
	}()
	fn()
}
