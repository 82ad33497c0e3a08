// Package options maps shorthand URL parameters such as "shards=2" or
// "durability=async" to table options understood by the DDL compiler.
package options

import (
	"fmt"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/zoobzio/crateql/crate"
)

// Kind is the value type of an option.
type Kind string

// Option kinds. An empty Kind passes the value through unchanged.
const (
	Str  Kind = "str"
	Int  Kind = "int"
	Bool Kind = "bool"
)

// Spec describes one table option.
type Spec struct {
	// Name is the namespaced option key, for example crate_"translog.durability".
	Name      string
	Kind      Kind
	Default   any
	Choices   []string
	Translate map[string]string
	Unit      string

	Description string
	Docs        string
}

// Shorthands returns the catalog keys in sorted order.
func Shorthands() []string {
	keys := make([]string, 0, len(Catalog))
	for k := range Catalog {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Convert coerces a raw parameter value according to spec. Strings come back
// single-quoted, ints as int and bools as "true" or "false".
func Convert(value string, spec Spec) (any, error) {
	var out any = value
	switch spec.Kind {
	case Str:
		out = strings.Trim(value, "'")
	case Int:
		n, err := strconv.Atoi(strings.Trim(value, "'"))
		if err != nil {
			return nil, fmt.Errorf("option %s: invalid integer %q", spec.Name, value)
		}
		out = n
	case Bool:
		b, err := parseBool(strings.Trim(value, "'"))
		if err != nil {
			return nil, fmt.Errorf("option %s: %w", spec.Name, err)
		}
		out = b
	}

	if len(spec.Choices) > 0 {
		s := fmt.Sprint(out)
		if !slices.Contains(spec.Choices, s) {
			return nil, fmt.Errorf("value %s not permitted, allowed choices: %s", s, strings.Join(spec.Choices, ", "))
		}
	}
	if s, ok := out.(string); ok && spec.Translate != nil {
		if translated, ok := spec.Translate[s]; ok {
			out = translated
		}
	}

	switch spec.Kind {
	case Str:
		return "'" + out.(string) + "'", nil
	case Bool:
		return strconv.FormatBool(out.(bool)), nil
	}
	return out, nil
}

// parseBool accepts the spellings commonly used in connection URLs.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "on", "y", "t", "1":
		return true, nil
	case "false", "no", "off", "n", "f", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

// FromQueryParams converts shorthand parameters into table options keyed by
// namespaced name. Parameters starting with one of Prefixes are passed through
// as crate_"<param>" unless a catalog entry already produced that key. Other
// parameters are ignored.
func FromQueryParams(params map[string]string) (map[string]any, error) {
	out := make(map[string]any)

	for _, shorthand := range Shorthands() {
		raw, ok := params[shorthand]
		if !ok {
			continue
		}
		spec := Catalog[shorthand]
		v, err := Convert(raw, spec)
		if err != nil {
			return nil, err
		}
		out[spec.Name] = v
	}

	for param, value := range params {
		if !hasPrefix(param) {
			continue
		}
		key := crate.OptionPrefix + `"` + param + `"`
		if _, exists := out[key]; !exists {
			out[key] = value
		}
	}
	return out, nil
}

func hasPrefix(param string) bool {
	for _, p := range Prefixes {
		if strings.HasPrefix(param, p) {
			return true
		}
	}
	return false
}

// FromValues converts parsed query values. When a parameter repeats, the last
// value wins.
func FromValues(values url.Values) (map[string]any, error) {
	params := make(map[string]string, len(values))
	for k, vs := range values {
		if len(vs) > 0 {
			params[k] = vs[len(vs)-1]
		}
	}
	return FromQueryParams(params)
}

// FromURL converts the query parameters of a connection URL such as
// crate://crate@localhost:4200/doc/demo?shards=2&durability=async.
func FromURL(raw string) (map[string]any, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("options: %w", err)
	}
	values, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return nil, fmt.Errorf("options: %w", err)
	}
	return FromValues(values)
}
