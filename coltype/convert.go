package coltype

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"reflect"
	"sync/atomic"

	"github.com/zoobzio/crateql/internal/render"
	"github.com/zoobzio/crateql/tracked"
)

var logger atomic.Pointer[slog.Logger]

// SetLogger sets the logger used for result-conversion warnings.
// A nil logger restores slog.Default().
func SetLogger(l *slog.Logger) {
	logger.Store(l)
}

func warnLogger() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return slog.Default()
}

// BindValue converts an application value into its wire form for d.
func BindValue(d Descriptor, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch d.Kind {
	case Timestamp:
		return bindTimestamp(v), nil
	case Date:
		return bindDate(v)
	case FloatVector:
		return bindVector(d, v)
	case Object:
		return bindObject(v), nil
	case ObjectArray:
		return bindObjectArray(v), nil
	case Array:
		if d.Item == nil {
			return v, nil
		}
		return mapSlice(v, func(item any) (any, error) { return BindValue(*d.Item, item) })
	case GeoPoint:
		return bindPoint(v), nil
	case GeoShape:
		return bindShape(v)
	case Binary:
		if b, ok := v.([]byte); ok {
			return base64.StdEncoding.EncodeToString(b), nil
		}
	}
	return v, nil
}

// ResultValue converts a wire value into its application form for d.
func ResultValue(d Descriptor, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch d.Kind {
	case Timestamp:
		return resultTimestamp(d, v)
	case Date:
		return resultDate(v)
	case FloatVector:
		return resultVector(v)
	case Object:
		if m, ok := v.(map[string]any); ok {
			return tracked.NewObject(m), nil
		}
	case ObjectArray:
		if s, ok := v.([]any); ok {
			return tracked.NewList(s), nil
		}
	case Array:
		if d.Item == nil {
			return v, nil
		}
		return mapSlice(v, func(item any) (any, error) { return ResultValue(*d.Item, item) })
	case GeoPoint:
		return resultPoint(v)
	case GeoShape:
		return resultShape(v)
	case Binary:
		if s, ok := v.(string); ok {
			b, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				return nil, render.InvalidValueErrorf("binary: %v", err)
			}
			return b, nil
		}
	}
	return v, nil
}

func bindObject(v any) any {
	if o, ok := v.(*tracked.Object); ok {
		return o.Map()
	}
	return v
}

func bindObjectArray(v any) any {
	switch t := v.(type) {
	case *tracked.List:
		return t.Slice()
	case []*tracked.Object:
		out := make([]any, len(t))
		for i, o := range t {
			out[i] = o.Map()
		}
		return out
	}
	return v
}

// mapSlice applies fn to each element of a slice value, returning []any.
// Non-slice values pass through unchanged.
func mapSlice(v any, fn func(any) (any, error)) (any, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return v, nil
	}
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return nil, nil
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return v, nil
	}

	out := make([]any, rv.Len())
	for i := range out {
		item, err := fn(rv.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = item
	}
	return out, nil
}
