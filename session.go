package crateql

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/zoobzio/crateql/internal/types"
	"github.com/zoobzio/crateql/tracked"
)

// Entity is one row of a registered table held by a Session.
type Entity struct {
	table   string
	values  map[string]any
	changed map[string]bool
}

// NewEntity creates an entity for table with initial column values.
// Plain map values are wrapped as *tracked.Object.
func NewEntity(table string, values map[string]any) *Entity {
	e := &Entity{table: table, values: make(map[string]any, len(values)), changed: make(map[string]bool)}
	for k, v := range values {
		e.values[k] = wrapValue(v)
	}
	return e
}

func wrapValue(v any) any {
	if m, ok := v.(map[string]any); ok {
		return tracked.NewObject(m)
	}
	return v
}

// TableName returns the entity's table.
func (e *Entity) TableName() string {
	return e.table
}

// Get returns a column value.
func (e *Entity) Get(column string) any {
	return e.values[column]
}

// Object returns an OBJECT column value for in-place mutation.
func (e *Entity) Object(column string) *tracked.Object {
	obj, _ := e.values[column].(*tracked.Object)
	return obj
}

// Set replaces a column value.
func (e *Entity) Set(column string, value any) {
	e.values[column] = wrapValue(value)
	e.changed[column] = true
}

// Values returns a copy of the column values.
func (e *Entity) Values() map[string]any {
	out := make(map[string]any, len(e.values))
	for k, v := range e.values {
		out[k] = v
	}
	return out
}

// dirtyColumns lists replaced columns and columns holding dirty tracked
// values.
func (e *Entity) dirtyColumns() []string {
	var cols []string
	for name, v := range e.values {
		if e.changed[name] {
			cols = append(cols, name)
			continue
		}
		switch t := v.(type) {
		case *tracked.Object:
			if t.Dirty() {
				cols = append(cols, name)
			}
		case *tracked.List:
			if t.Changed() {
				cols = append(cols, name)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

// wholeValue unwraps tracked values of a replaced column so the update
// writes the entire value instead of the keys changed since replacement.
func wholeValue(v any) any {
	switch t := v.(type) {
	case *tracked.Object:
		return t.Map()
	case *tracked.List:
		return t.Slice()
	}
	return v
}

func (e *Entity) reset() {
	clear(e.changed)
	for _, v := range e.values {
		switch t := v.(type) {
		case *tracked.Object:
			t.Reset()
		case *tracked.List:
			t.Reset()
		}
	}
}

// FlushEvent lists the entities written by one Flush.
type FlushEvent struct {
	New     []*Entity
	Dirty   []*Entity
	Deleted []*Entity
}

// AfterFlushFunc is called after Flush with the entities it wrote.
type AfterFlushFunc func(ctx context.Context, s *Session, ev FlushEvent) error

// BeforeInsertFunc is called for every new entity before it is inserted.
type BeforeInsertFunc func(ctx context.Context, s *Session, e *Entity) error

type pendingKind int

const (
	pendingInsert pendingKind = iota
	pendingUpdate
	pendingDelete
)

type pending struct {
	kind   pendingKind
	entity *Entity
}

// Session is a unit of work: entities are queued with Add, Update and
// Delete and written in that order by Flush. A Session is not safe for
// concurrent use.
type Session struct {
	engine       *Engine
	queue        []pending
	beforeInsert []BeforeInsertFunc
	afterFlush   []AfterFlushFunc
}

// NewSession creates a session writing through engine.
func NewSession(engine *Engine) *Session {
	return &Session{engine: engine}
}

// Engine returns the session's engine.
func (s *Session) Engine() *Engine {
	return s.engine
}

// OnBeforeInsert registers a check run before each insert.
func (s *Session) OnBeforeInsert(fn BeforeInsertFunc) {
	s.beforeInsert = append(s.beforeInsert, fn)
}

// OnAfterFlush registers a listener for flushes that wrote at least one
// entity or completed without error.
func (s *Session) OnAfterFlush(fn AfterFlushFunc) {
	s.afterFlush = append(s.afterFlush, fn)
}

func (s *Session) queued(e *Entity) (int, bool) {
	for i, p := range s.queue {
		if p.entity == e {
			return i, true
		}
	}
	return -1, false
}

// Add queues e for insertion.
func (s *Session) Add(e *Entity) error {
	if _, ok := s.engine.inst.tables[e.table]; !ok {
		return fmt.Errorf("table '%s' not found in schema", e.table)
	}
	if _, ok := s.queued(e); ok {
		return nil
	}
	s.queue = append(s.queue, pending{kind: pendingInsert, entity: e})
	return nil
}

// Update queues e for an update of its changed columns. An entity queued
// for insertion is inserted with its current values instead.
func (s *Session) Update(e *Entity) error {
	if _, ok := s.engine.inst.tables[e.table]; !ok {
		return fmt.Errorf("table '%s' not found in schema", e.table)
	}
	if _, ok := s.queued(e); ok {
		return nil
	}
	s.queue = append(s.queue, pending{kind: pendingUpdate, entity: e})
	return nil
}

// Delete queues e for deletion. Deleting an entity queued for insertion
// drops it from the queue.
func (s *Session) Delete(e *Entity) error {
	if _, ok := s.engine.inst.tables[e.table]; !ok {
		return fmt.Errorf("table '%s' not found in schema", e.table)
	}
	if i, ok := s.queued(e); ok {
		if s.queue[i].kind == pendingInsert {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return nil
		}
		s.queue[i].kind = pendingDelete
		return nil
	}
	s.queue = append(s.queue, pending{kind: pendingDelete, entity: e})
	return nil
}

// Pending returns the number of queued entities.
func (s *Session) Pending() int {
	return len(s.queue)
}

// Flush writes queued entities in order, then resets the tracked values of
// the written entities and runs the after-flush listeners. When a write
// fails, the entities written before it are still reset and passed to the
// listeners, and the failed entity and those after it stay queued.
func (s *Session) Flush(ctx context.Context) error {
	var ev FlushEvent
	err := s.write(ctx, &ev)

	for _, e := range ev.New {
		e.reset()
	}
	for _, e := range ev.Dirty {
		e.reset()
	}

	if err != nil && len(ev.New)+len(ev.Dirty)+len(ev.Deleted) == 0 {
		return err
	}
	for _, fn := range s.afterFlush {
		if lerr := fn(ctx, s, ev); lerr != nil {
			return errors.Join(err, fmt.Errorf("after flush: %w", lerr))
		}
	}
	return err
}

// write drains the queue into ev, stopping at the first failure.
func (s *Session) write(ctx context.Context, ev *FlushEvent) error {
	for len(s.queue) > 0 {
		p := s.queue[0]
		switch p.kind {
		case pendingInsert:
			for _, fn := range s.beforeInsert {
				if err := fn(ctx, s, p.entity); err != nil {
					return err
				}
			}
			if err := s.insert(ctx, p.entity); err != nil {
				return err
			}
			ev.New = append(ev.New, p.entity)
		case pendingUpdate:
			written, err := s.update(ctx, p.entity)
			if err != nil {
				return err
			}
			if written {
				ev.Dirty = append(ev.Dirty, p.entity)
			}
		case pendingDelete:
			if err := s.delete(ctx, p.entity); err != nil {
				return err
			}
			ev.Deleted = append(ev.Deleted, p.entity)
		}
		s.queue = s.queue[1:]
	}
	return nil
}

func (s *Session) insert(ctx context.Context, e *Entity) error {
	def := s.engine.inst.tables[e.table]
	b := Insert(s.engine.inst.T(e.table))
	row := Row{}
	for _, col := range def.Columns {
		v, ok := e.values[col.Name]
		if !ok {
			continue
		}
		b.Value(types.Field{Name: col.Name}, types.Param{Name: col.Name})
		row[col.Name] = v
	}
	_, err := s.engine.ExecBuilder(ctx, b, row)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", e.table, err)
	}
	return nil
}

// keyCondition builds "pk = ?" for every primary key column, binding the
// values into row under pk_<name>.
func (s *Session) keyCondition(e *Entity, row Row) (types.ConditionItem, error) {
	def := s.engine.inst.tables[e.table]
	pk := def.PrimaryKey()
	if len(pk) == 0 {
		return nil, fmt.Errorf("table '%s' has no primary key", e.table)
	}
	conds := make([]types.ConditionItem, 0, len(pk))
	for _, name := range pk {
		v, ok := e.values[name]
		if !ok || v == nil {
			return nil, fmt.Errorf("entity of '%s' has no value for primary key %s", e.table, name)
		}
		param := "pk_" + name
		row[param] = v
		conds = append(conds, c(types.Field{Name: name}, types.EQ, types.Param{Name: param}))
	}
	if len(conds) == 1 {
		return conds[0], nil
	}
	return and(conds...), nil
}

func (s *Session) update(ctx context.Context, e *Entity) (bool, error) {
	def := s.engine.inst.tables[e.table]
	pk := make(map[string]bool)
	for _, name := range def.PrimaryKey() {
		pk[name] = true
	}

	b := Update(s.engine.inst.T(e.table))
	row := Row{}
	n := 0
	for _, name := range e.dirtyColumns() {
		if pk[name] {
			return false, fmt.Errorf("primary key %s of '%s' cannot be updated", name, e.table)
		}
		b.Set(types.Field{Name: name}, types.Param{Name: name})
		row[name] = e.values[name]
		if e.changed[name] {
			row[name] = wholeValue(e.values[name])
		}
		n++
	}
	if n == 0 {
		return false, nil
	}

	where, err := s.keyCondition(e, row)
	if err != nil {
		return false, err
	}
	if _, err := s.engine.ExecBuilder(ctx, b.Where(where), row); err != nil {
		return false, fmt.Errorf("update %s: %w", e.table, err)
	}
	return true, nil
}

func (s *Session) delete(ctx context.Context, e *Entity) error {
	row := Row{}
	where, err := s.keyCondition(e, row)
	if err != nil {
		return err
	}
	b := Delete(s.engine.inst.T(e.table)).Where(where)
	if _, err := s.engine.ExecBuilder(ctx, b, row); err != nil {
		return fmt.Errorf("delete from %s: %w", e.table, err)
	}
	return nil
}
