// Package coltype maps abstract column types to CrateDB type names and
// converts values between application form and wire form.
package coltype

import (
	"github.com/zoobzio/crateql/internal/render"
)

// Re-exported error sentinels.
var (
	ErrCompile         = render.ErrCompile
	ErrUnsupportedType = render.ErrUnsupportedType
	ErrInvalidValue    = render.ErrInvalidValue
)

// Kind tags the logical column type.
type Kind string

const (
	Boolean     Kind = "boolean"
	Short       Kind = "short"
	Integer     Kind = "integer"
	Long        Kind = "long"
	Float       Kind = "float"
	Double      Kind = "double"
	String      Kind = "string"
	Timestamp   Kind = "timestamp"
	Date        Kind = "date"
	Object      Kind = "object"
	Array       Kind = "array"
	ObjectArray Kind = "object_array"
	FloatVector Kind = "float_vector"
	GeoPoint    Kind = "geo_point"
	GeoShape    Kind = "geo_shape"
	Binary      Kind = "binary"
)

// Descriptor is an immutable description of a column type.
type Descriptor struct {
	Kind Kind
	// Timezone selects TIMESTAMP WITH TIME ZONE.
	Timezone bool
	// Item is the element type of an Array.
	Item *Descriptor
	// ArrayDimensions greater than one is rejected by TypeName.
	ArrayDimensions int
	// Dimensions is the fixed length of a FloatVector.
	Dimensions int
}

// Of returns a descriptor with no parameters.
func Of(kind Kind) Descriptor { return Descriptor{Kind: kind} }

func Bool() Descriptor       { return Of(Boolean) }
func SmallInt() Descriptor   { return Of(Short) }
func Int() Descriptor        { return Of(Integer) }
func BigInt() Descriptor     { return Of(Long) }
func Real() Descriptor       { return Of(Float) }
func DoubleType() Descriptor { return Of(Double) }
func Text() Descriptor       { return Of(String) }
func DateType() Descriptor   { return Of(Date) }
func Obj() Descriptor        { return Of(Object) }
func ObjArray() Descriptor   { return Of(ObjectArray) }
func Point() Descriptor      { return Of(GeoPoint) }
func Shape() Descriptor      { return Of(GeoShape) }
func Bytes() Descriptor      { return Of(Binary) }

// TimestampType returns a timestamp without time zone.
func TimestampType() Descriptor { return Of(Timestamp) }

// TimestampTZ returns a timestamp with time zone.
func TimestampTZ() Descriptor { return Descriptor{Kind: Timestamp, Timezone: true} }

// ArrayOf returns a one-dimensional array of item.
func ArrayOf(item Descriptor) Descriptor {
	return Descriptor{Kind: Array, Item: &item, ArrayDimensions: 1}
}

// Vector returns a float vector with dim dimensions.
func Vector(dim int) Descriptor {
	return Descriptor{Kind: FloatVector, Dimensions: dim}
}

// IsObject reports whether values of this type are mappings.
func (d Descriptor) IsObject() bool {
	return d.Kind == Object
}

// IsString reports whether the type renders as STRING.
func (d Descriptor) IsString() bool {
	return d.Kind == String || d.Kind == Binary
}

// Indexable reports whether INDEX OFF may be applied to the column.
func (d Descriptor) Indexable() bool {
	switch d.Kind {
	case Object, GeoPoint, GeoShape:
		return false
	}
	return true
}
