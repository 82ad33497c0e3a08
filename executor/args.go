package executor

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/lib/pq"
	"github.com/zoobzio/crateql"
)

// returnsRows reports whether stmt produces a result set.
func returnsRows(stmt *crateql.Statement) bool {
	if ast := stmt.AST; ast != nil {
		switch ast.Operation {
		case crateql.OpSelect, crateql.OpCount:
			return true
		}
		return len(ast.Returning) > 0
	}
	head := strings.ToUpper(strings.TrimSpace(stmt.SQL))
	for _, prefix := range []string{"SELECT", "WITH", "SHOW", "EXPLAIN", "VALUES"} {
		if strings.HasPrefix(head, prefix) {
			return true
		}
	}
	return strings.Contains(head, " RETURNING ")
}

// wireArgs adapts bound values to the PostgreSQL wire protocol: objects are
// sent as JSON text and slices as arrays.
func wireArgs(args []any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = wireArg(a)
	}
	return out
}

func wireArg(v any) any {
	switch t := v.(type) {
	case nil, []byte, string:
		return v
	case map[string]any:
		return jsonText(t)
	case []any:
		for _, item := range t {
			if _, ok := item.(map[string]any); ok {
				return jsonText(t)
			}
		}
		return pq.Array(t)
	}
	if k := reflect.TypeOf(v).Kind(); k == reflect.Slice || k == reflect.Array {
		return pq.Array(v)
	}
	return v
}

func jsonText(v any) any {
	b, err := json.Marshal(v)
	if err != nil {
		return v
	}
	return string(b)
}
