package coltype

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-sql/civil"
	"github.com/zoobzio/crateql/internal/render"
)

const (
	bindAwareLayout = "2006-01-02T15:04:05.000000-0700"
	bindNaiveLayout = "2006-01-02T15:04:05.000000"
	dateLayout      = "2006-01-02"
)

// Layouts tried, in order, when a timestamp arrives as a string.
var timestampLayouts = []string{
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05-0700",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	dateLayout,
}

// Layouts tried, in order, when a date arrives as a string.
var dateLayouts = []string{
	dateLayout,
	"2006-01-02T15:04:05Z",
}

// bindTimestamp formats time.Time with its offset and civil values without one.
func bindTimestamp(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.Format(bindAwareLayout)
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.Format(bindAwareLayout)
	case civil.DateTime:
		return t.In(time.UTC).Format(bindNaiveLayout)
	case civil.Date:
		return t.In(time.UTC).Format(bindNaiveLayout)
	}
	return v
}

func bindDate(v any) (any, error) {
	switch t := v.(type) {
	case time.Time:
		return t.Format(dateLayout), nil
	case civil.Date:
		return t.String(), nil
	case civil.DateTime:
		return t.Date.String(), nil
	}
	return nil, render.InvalidValueErrorf("date column expects a date, got %T", v)
}

// numberValue extracts a numeric value, such as epoch milliseconds. ok is false for
// non-numeric values.
func numberValue(v any) (ms float64, ok bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return float64(i), true
		}
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func fromMillis(ms float64) time.Time {
	return time.UnixMicro(int64(ms * 1e3)).UTC()
}

func resultTimestamp(d Descriptor, v any) (any, error) {
	if ms, ok := numberValue(v); ok {
		if ms == 0 {
			return nil, nil
		}
		return timestampValue(d, fromMillis(ms)), nil
	}

	switch t := v.(type) {
	case time.Time:
		return timestampValue(d, t), nil
	case string:
		if t == "" {
			return nil, nil
		}
		warnLogger().Warn("Received timestamp isn't a long value. Trying to parse as datetime string and then as date string",
			"value", t)
		parsed, err := parseFirst(t, timestampLayouts)
		if err != nil {
			return nil, err
		}
		return timestampValue(d, parsed), nil
	}
	return v, nil
}

// timestampValue returns time.Time for zone-aware columns and civil.DateTime
// for naive ones. Naive values carry the UTC wall clock whatever offset the
// input had.
func timestampValue(d Descriptor, t time.Time) any {
	if d.Timezone {
		return t
	}
	return civil.DateTimeOf(t.UTC())
}

func resultDate(v any) (any, error) {
	if ms, ok := numberValue(v); ok {
		if ms == 0 {
			return nil, nil
		}
		return civil.DateOf(fromMillis(ms)), nil
	}

	switch t := v.(type) {
	case time.Time:
		return civil.DateOf(t), nil
	case string:
		if t == "" {
			return nil, nil
		}
		warnLogger().Warn("Received timestamp isn't a long value. Trying to parse as date string and then as datetime string",
			"value", t)
		parsed, err := parseFirst(t, dateLayouts)
		if err != nil {
			return nil, err
		}
		return civil.DateOf(parsed), nil
	}
	return v, nil
}

// parseFirst returns the first successful parse. When every layout fails the
// last parse error is returned.
func parseFirst(s string, layouts []string) (time.Time, error) {
	var err error
	for _, layout := range layouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	var pe *time.ParseError
	if errors.As(err, &pe) {
		return time.Time{}, render.InvalidValueErrorf("%v", pe)
	}
	return time.Time{}, err
}
