package crateql

import (
	"fmt"

	"github.com/zoobzio/crateql/internal/types"
	"github.com/zoobzio/crateql/tracked"
)

// Row maps parameter names to the values bound for one execution.
type Row map[string]any

// subscriptParam names the parameter synthesized for column[key].
func subscriptParam(param, key string) string {
	return fmt.Sprintf("%s['%s']", param, key)
}

// rewriteTarget is one whole-column assignment replaced by per-key
// assignments.
type rewriteTarget struct {
	assignment types.Assignment
	changed    []string
	deleted    []string
}

// RewriteUpdate replaces whole-column assignments of dirty tracked objects
// with assignments to the changed paths only. For a column bound to a
// *tracked.Object with changed keys {x} it emits column['x'] = <value of x>;
// deleted keys are bound to nil. Untracked and clean values are assigned
// as a whole.
//
// The statement shape is shared by all rows: a path changed or deleted in any
// row is assigned in every row, from that row's current value or nil when the
// key is absent. A rewritten column must be bound to a *tracked.Object in
// every row.
//
// Non-UPDATE statements, zero rows and statements without dirty tracked
// values are returned unchanged.
func RewriteUpdate(ast *types.AST, rows []Row) (*types.AST, []Row, error) {
	if ast == nil || ast.Operation != types.OpUpdate || len(rows) == 0 {
		return ast, rows, nil
	}

	var keep []types.Assignment
	var targets []*rewriteTarget
	for _, a := range ast.Updates {
		if a.Excluded || a.Field.IsSubscript() {
			keep = append(keep, a)
			continue
		}
		target := collectChanges(a, rows)
		if target == nil {
			keep = append(keep, a)
			continue
		}
		targets = append(targets, target)
	}
	if len(targets) == 0 {
		return ast, rows, nil
	}

	out := ast.Clone()
	out.Updates = keep
	for _, t := range targets {
		for _, key := range t.changed {
			out.Updates = append(out.Updates, pathAssignment(t.assignment, key))
		}
	}
	for _, t := range targets {
		for _, key := range t.deleted {
			out.Updates = append(out.Updates, pathAssignment(t.assignment, key))
		}
	}

	newRows := make([]Row, len(rows))
	for i, row := range rows {
		nr := make(Row, len(row))
		for k, v := range row {
			nr[k] = v
		}
		for _, t := range targets {
			name := t.assignment.Value.Name
			obj, ok := row[name].(*tracked.Object)
			if !ok {
				return nil, nil, fmt.Errorf("row %d: column %s is updated by path in another row but bound to %T",
					i, t.assignment.Field.Name, row[name])
			}
			delete(nr, name)
			for _, key := range t.changed {
				nr[subscriptParam(name, key)] = pathValue(obj, key)
			}
			for _, key := range t.deleted {
				nr[subscriptParam(name, key)] = pathValue(obj, key)
			}
		}
		newRows[i] = nr
	}
	return out, newRows, nil
}

// collectChanges returns nil when no row binds a dirty tracked object to a.
// A key changed in one row and deleted in another counts as changed.
func collectChanges(a types.Assignment, rows []Row) *rewriteTarget {
	var changed, deleted []string
	seen := make(map[string]bool)
	for _, row := range rows {
		obj, ok := row[a.Value.Name].(*tracked.Object)
		if !ok || !obj.Dirty() {
			continue
		}
		for _, key := range obj.ChangedKeys() {
			if !seen[key] {
				seen[key] = true
				changed = append(changed, key)
			}
		}
	}
	for _, row := range rows {
		obj, ok := row[a.Value.Name].(*tracked.Object)
		if !ok {
			continue
		}
		for _, key := range obj.DeletedKeys() {
			if !seen[key] {
				seen[key] = true
				deleted = append(deleted, key)
			}
		}
	}
	if len(changed) == 0 && len(deleted) == 0 {
		return nil
	}
	return &rewriteTarget{assignment: a, changed: changed, deleted: deleted}
}

func pathAssignment(a types.Assignment, key string) types.Assignment {
	return types.Assignment{
		Field: a.Field.Item(key),
		Value: types.Param{Name: subscriptParam(a.Value.Name, key)},
	}
}

func pathValue(obj *tracked.Object, key string) any {
	v, ok := obj.Get(key)
	if !ok {
		return nil
	}
	return v
}
