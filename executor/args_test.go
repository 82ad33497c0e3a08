package executor

import (
	"database/sql/driver"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/crateql"
)

func TestReturnsRows(t *testing.T) {
	tests := []struct {
		sql  string
		want bool
	}{
		{"SELECT 1", true},
		{"  select * from characters", true},
		{"WITH t AS (SELECT 1) SELECT * FROM t", true},
		{"SHOW TABLES", true},
		{"EXPLAIN SELECT 1", true},
		{"VALUES (1)", true},
		{"UPDATE characters SET name = ? RETURNING id", true},
		{"UPDATE characters SET name = ?", false},
		{"REFRESH TABLE characters", false},
		{"INSERT INTO characters (id) VALUES (?)", false},
	}
	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			assert.Equal(t, tt.want, returnsRows(&crateql.Statement{SQL: tt.sql}))
		})
	}
}

func TestWireArg(t *testing.T) {
	assert.Nil(t, wireArg(nil))
	assert.Equal(t, "arthur", wireArg("arthur"))
	assert.Equal(t, []byte("raw"), wireArg([]byte("raw")))
	assert.Equal(t, 42, wireArg(42))
	assert.Equal(t, `{"towel":true}`, wireArg(map[string]any{"towel": true}))
	assert.Equal(t, `[{"name":"ford"}]`, wireArg([]any{map[string]any{"name": "ford"}}))

	valuer, ok := wireArg([]string{"a", "b"}).(driver.Valuer)
	require.True(t, ok)
	v, err := valuer.Value()
	require.NoError(t, err)
	assert.Equal(t, `{"a","b"}`, v)

	_, ok = wireArg([]float32{1, 2}).(driver.Valuer)
	assert.True(t, ok)
	_, ok = wireArg([]any{"a", 1}).(driver.Valuer)
	assert.True(t, ok)
}
