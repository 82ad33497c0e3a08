package coltype

import (
	"reflect"
	"strconv"

	"github.com/zoobzio/crateql/internal/render"
)

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func isSequence(k reflect.Kind) bool {
	return k == reflect.Slice || k == reflect.Array
}

// bindVector validates a one-dimensional numeric sequence and converts it to
// []float32.
func bindVector(d Descriptor, v any) (any, error) {
	rv := reflect.ValueOf(v)
	if !isSequence(rv.Kind()) {
		return nil, render.InvalidValueErrorf("float vector expects a sequence, got %T", v)
	}
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return nil, nil
	}

	elem := rv.Type().Elem().Kind()
	if isSequence(elem) {
		return nil, render.InvalidValueErrorf("expected ndim to be 1")
	}

	out := make([]float32, rv.Len())
	for i := range out {
		item := rv.Index(i)
		if item.Kind() == reflect.Interface {
			item = item.Elem()
		}
		switch {
		case !item.IsValid():
			return nil, render.InvalidValueErrorf("dtype must be numeric")
		case isSequence(item.Kind()):
			return nil, render.InvalidValueErrorf("expected ndim to be 1")
		case !isNumeric(item.Kind()):
			return nil, render.InvalidValueErrorf("dtype must be numeric")
		}
		out[i] = float32(toFloat(item))
	}

	if d.Dimensions > 0 && len(out) != d.Dimensions {
		return nil, render.InvalidValueErrorf("expected %d dimensions, not %d", d.Dimensions, len(out))
	}
	return out, nil
}

func toFloat(v reflect.Value) float64 {
	switch {
	case v.CanInt():
		return float64(v.Int())
	case v.CanUint():
		return float64(v.Uint())
	default:
		return v.Float()
	}
}

// resultVector returns []float32 values unchanged and converts other numeric
// or numeric-string sequences.
func resultVector(v any) (any, error) {
	if f, ok := v.([]float32); ok {
		return f, nil
	}

	rv := reflect.ValueOf(v)
	if !isSequence(rv.Kind()) {
		f, err := parseFloat(rv)
		if err != nil {
			return nil, err
		}
		return []float32{f}, nil
	}

	out := make([]float32, rv.Len())
	for i := range out {
		f, err := parseFloat(rv.Index(i))
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func parseFloat(v reflect.Value) (float32, error) {
	if v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	switch {
	case !v.IsValid():
		return 0, render.InvalidValueErrorf("could not convert null to float")
	case isNumeric(v.Kind()):
		return float32(toFloat(v)), nil
	case v.Kind() == reflect.String:
		f, err := strconv.ParseFloat(v.String(), 32)
		if err != nil {
			return 0, render.InvalidValueErrorf("could not convert string to float: %q", v.String())
		}
		return float32(f), nil
	}
	return 0, render.InvalidValueErrorf("could not convert %s to float", v.Type())
}
