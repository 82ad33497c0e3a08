package tracked

import "encoding/json"

// List is a mutable sequence of objects for ARRAY(OBJECT) columns.
// Any mutation marks the whole list changed; partial updates do not apply.
type List struct {
	items   []any
	changed bool
}

// NewList returns a List holding a copy of items. Plain map[string]any
// elements are wrapped as root Objects.
func NewList(items []any) *List {
	l := &List{items: make([]any, 0, len(items))}
	for _, it := range items {
		l.items = append(l.items, wrapItem(it))
	}
	return l
}

func wrapItem(v any) any {
	if m, ok := v.(map[string]any); ok {
		return NewObject(m)
	}
	return v
}

// Len returns the number of items.
func (l *List) Len() int { return len(l.items) }

// At returns the item at index i.
func (l *List) At(i int) any { return l.items[i] }

// Append adds items at the end.
func (l *List) Append(items ...any) {
	for _, it := range items {
		l.items = append(l.items, wrapItem(it))
	}
	l.changed = true
}

// Insert places item at index i.
func (l *List) Insert(i int, item any) {
	l.items = append(l.items, nil)
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = wrapItem(item)
	l.changed = true
}

// SetAt replaces the item at index i.
func (l *List) SetAt(i int, item any) {
	l.items[i] = wrapItem(item)
	l.changed = true
}

// RemoveAt deletes the item at index i and returns it.
func (l *List) RemoveAt(i int) any {
	it := l.items[i]
	l.items = append(l.items[:i], l.items[i+1:]...)
	l.changed = true
	return it
}

// Pop removes and returns the last item.
func (l *List) Pop() any {
	return l.RemoveAt(len(l.items) - 1)
}

// Clear removes all items.
func (l *List) Clear() {
	l.items = l.items[:0]
	l.changed = true
}

// Changed reports whether the list was mutated since the last Reset. Changes
// inside contained objects count as well.
func (l *List) Changed() bool {
	if l.changed {
		return true
	}
	for _, it := range l.items {
		if o, ok := it.(*Object); ok && o.Dirty() {
			return true
		}
	}
	return false
}

// Reset clears the changed flag, including contained objects.
func (l *List) Reset() {
	l.changed = false
	for _, it := range l.items {
		if o, ok := it.(*Object); ok {
			o.Reset()
		}
	}
}

// Slice returns a deep copy of the content as plain Go values.
func (l *List) Slice() []any {
	out := make([]any, len(l.items))
	for i, it := range l.items {
		out[i] = plain(it)
	}
	return out
}

// MarshalJSON encodes the plain content.
func (l *List) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Slice())
}
