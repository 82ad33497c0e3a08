package executor_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zoobzio/crateql"
	"github.com/zoobzio/crateql/coltype"
	"github.com/zoobzio/crateql/crate"
)

func newInstance(t *testing.T) *crateql.Instance {
	t.Helper()
	instance, err := crateql.New(crate.TableDefinition{
		Name: "characters",
		Columns: []crate.ColumnDefinition{
			{Name: "id", Type: coltype.Text(), PrimaryKey: true},
			{Name: "name", Type: coltype.Text()},
			{Name: "created", Type: coltype.TimestampTZ()},
			{Name: "details", Type: coltype.Obj()},
			{Name: "tags", Type: coltype.ArrayOf(coltype.Text())},
		},
	})
	require.NoError(t, err)
	return instance
}
