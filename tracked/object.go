// Package tracked provides mutable containers that record which of their
// top-level keys changed, so writes can be reduced to partial updates.
package tracked

import (
	"encoding/json"
	"reflect"
	"sort"
)

// Object is a key-ordered mapping that reports mutations to its root.
//
// Only the root carries change sets. A nested Object created by the root
// reports every mutation, at any depth, under the top-level key it lives
// beneath (its overwrite key). Objects are not safe for concurrent mutation.
type Object struct {
	keys         []string
	values       map[string]any
	root         *Object
	overwriteKey string
	nested       bool

	changed keySet
	deleted keySet
}

// NewObject returns a root Object holding a copy of values. Plain
// map[string]any values are wrapped recursively. Initial keys are ordered
// lexically because Go maps carry no insertion order.
func NewObject(values map[string]any) *Object {
	o := &Object{values: make(map[string]any, len(values))}
	o.root = o
	o.load(values)
	return o
}

func newChild(root *Object, overwriteKey string, values map[string]any) *Object {
	o := &Object{
		values:       make(map[string]any, len(values)),
		root:         root,
		overwriteKey: overwriteKey,
		nested:       true,
	}
	o.load(values)
	return o
}

func (o *Object) load(values map[string]any) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		o.keys = append(o.keys, k)
		o.values[k] = o.wrap(values[k], o.effectiveKey(k))
	}
}

// effectiveKey is the top-level key a mutation of key is reported under.
func (o *Object) effectiveKey(key string) string {
	if o.nested {
		return o.overwriteKey
	}
	return key
}

func (o *Object) wrap(value any, overwriteKey string) any {
	if m, ok := value.(map[string]any); ok {
		return newChild(o.root, overwriteKey, m)
	}
	return value
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (any, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Set stores value under key. A plain map[string]any is wrapped in a nested
// Object; an existing *Object is stored as is.
func (o *Object) Set(key string, value any) {
	eff := o.effectiveKey(key)
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = o.wrap(value, eff)
	o.root.onKeyChanged(eff)
}

// Delete removes key. It reports whether the key was present.
func (o *Object) Delete(key string) bool {
	if _, ok := o.values[key]; !ok {
		return false
	}
	delete(o.values, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}

	if o.nested {
		o.root.onKeyChanged(o.overwriteKey)
		return true
	}
	o.changed.remove(key)
	o.deleted.add(key)
	return true
}

func (o *Object) onKeyChanged(key string) {
	o.deleted.remove(key)
	o.changed.add(key)
}

// Keys returns the keys in order.
func (o *Object) Keys() []string {
	return append([]string(nil), o.keys...)
}

// Len returns the number of keys.
func (o *Object) Len() int {
	return len(o.keys)
}

// Root returns the object that collects change sets.
func (o *Object) Root() *Object {
	return o.root
}

// OverwriteKey returns the top-level key a nested object reports under,
// empty for a root.
func (o *Object) OverwriteKey() string {
	return o.overwriteKey
}

// ChangedKeys returns top-level keys set since the last Reset, in the order
// they were first changed.
func (o *Object) ChangedKeys() []string {
	return o.changed.list()
}

// DeletedKeys returns top-level keys deleted since the last Reset.
func (o *Object) DeletedKeys() []string {
	return o.deleted.list()
}

// IsChanged reports whether key is in the changed set.
func (o *Object) IsChanged(key string) bool {
	return o.changed.has(key)
}

// Dirty reports whether any change or deletion is pending.
func (o *Object) Dirty() bool {
	return len(o.changed.order) > 0 || len(o.deleted.order) > 0
}

// Reset clears the change sets. Called after a successful flush.
func (o *Object) Reset() {
	o.changed.clear()
	o.deleted.clear()
}

// Map returns a deep copy of the content as plain Go values.
func (o *Object) Map() map[string]any {
	out := make(map[string]any, len(o.keys))
	for _, k := range o.keys {
		out[k] = plain(o.values[k])
	}
	return out
}

func plain(v any) any {
	switch t := v.(type) {
	case *Object:
		return t.Map()
	case *List:
		return t.Slice()
	}
	return v
}

// Equal compares plain content only; tracking metadata is ignored.
func (o *Object) Equal(other any) bool {
	switch t := other.(type) {
	case *Object:
		return reflect.DeepEqual(o.Map(), t.Map())
	case map[string]any:
		return reflect.DeepEqual(o.Map(), plainMap(t))
	}
	return false
}

func plainMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			out[k] = plainMap(nested)
			continue
		}
		out[k] = plain(v)
	}
	return out
}

// MarshalJSON encodes the plain content.
func (o *Object) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Map())
}
