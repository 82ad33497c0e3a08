package coltype

import "strings"

// reflected maps information_schema data_type values to descriptors.
var reflected = map[string]Descriptor{
	"boolean":                     Bool(),
	"short":                       SmallInt(),
	"smallint":                    SmallInt(),
	"timestamp":                   TimestampType(),
	"timestamp without time zone": TimestampType(),
	"timestamp with time zone":    TimestampTZ(),
	"object":                      Obj(),
	"integer":                     Int(),
	"long":                        BigInt(),
	"bigint":                      BigInt(),
	"double":                      DoubleType(),
	"double precision":            DoubleType(),
	"object_array":                ObjArray(),
	"float":                       Real(),
	"real":                        Real(),
	"string":                      Text(),
	"text":                        Text(),
	"float_vector":                Vector(0),
	"geo_point":                   Point(),
	"geo_shape":                   Shape(),

	// Generic names used by schema documents.
	"bool":              Bool(),
	"int":               Int(),
	"int2":              SmallInt(),
	"int4":              Int(),
	"int8":              BigInt(),
	"numeric":           BigInt(),     // NUMERIC compiles to LONG
	"decimal":           DoubleType(), // DECIMAL compiles to DOUBLE
	"float4":            Real(),
	"float8":            DoubleType(),
	"varchar":           Text(),
	"char":              Text(),
	"character varying": Text(),
	"date":              DateType(),
	"datetime":          TimestampType(),
	"timestamptz":       TimestampTZ(),
	"json":              Obj(),
	"jsonb":             Obj(),
	"bytea":             Bytes(),
	"blob":              Bytes(),
	"vector":            Vector(0),
}

// Parse resolves a reflected or declared type name to a descriptor.
// It understands the "<name>_array" and "<name>[]" array forms and a
// parenthesized dimension on float_vector.
func Parse(name string) (Descriptor, bool) {
	n := strings.ToLower(strings.TrimSpace(name))

	if d, ok := reflected[n]; ok {
		return d, true
	}

	if base, ok := strings.CutSuffix(n, "[]"); ok {
		item, ok := Parse(base)
		if !ok || item.Kind == Array {
			return Descriptor{}, false
		}
		return ArrayOf(item), true
	}
	if base, ok := strings.CutSuffix(n, "_array"); ok {
		item, ok := reflected[base]
		if !ok {
			return Descriptor{}, false
		}
		return ArrayOf(item), true
	}
	if inner, ok := strings.CutPrefix(n, "array("); ok && strings.HasSuffix(inner, ")") {
		item, ok := Parse(strings.TrimSuffix(inner, ")"))
		if !ok || item.Kind == Array {
			return Descriptor{}, false
		}
		if item.Kind == Object {
			return ObjArray(), true
		}
		return ArrayOf(item), true
	}
	if open := strings.IndexByte(n, '('); open > 0 && strings.HasSuffix(n, ")") {
		base := n[:open]
		if base == "float_vector" || base == "vector" {
			var dim int
			for _, r := range n[open+1 : len(n)-1] {
				if r < '0' || r > '9' {
					return Descriptor{}, false
				}
				dim = dim*10 + int(r-'0')
			}
			return Vector(dim), true
		}
		if d, ok := reflected[base]; ok {
			return d, true
		}
	}

	return Descriptor{}, false
}
