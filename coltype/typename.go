package coltype

import (
	"fmt"

	"github.com/zoobzio/crateql/internal/render"
)

var simpleNames = map[Kind]string{
	Boolean:     "BOOLEAN",
	Short:       "SHORT",
	Integer:     "INT",
	Long:        "LONG",
	Float:       "FLOAT",
	Double:      "DOUBLE",
	String:      "STRING",
	Binary:      "STRING",
	Date:        "TIMESTAMP",
	Object:      "OBJECT",
	ObjectArray: "ARRAY(OBJECT)",
	GeoPoint:    "GEO_POINT",
	GeoShape:    "GEO_SHAPE",
}

// TypeName returns the DDL type name for d.
func TypeName(d Descriptor) (string, error) {
	if name, ok := simpleNames[d.Kind]; ok {
		return name, nil
	}

	switch d.Kind {
	case Timestamp:
		if d.Timezone {
			return "TIMESTAMP WITH TIME ZONE", nil
		}
		return "TIMESTAMP WITHOUT TIME ZONE", nil
	case FloatVector:
		if d.Dimensions <= 0 {
			return "", render.UnsupportedTypeErrorf("FloatVector must be initialized with dimension size")
		}
		return fmt.Sprintf("FLOAT_VECTOR(%d)", d.Dimensions), nil
	case Array:
		if d.Item == nil {
			return "", render.UnsupportedTypeErrorf("ARRAY requires an item type")
		}
		if d.ArrayDimensions > 1 || d.Item.Kind == Array {
			return "", render.UnsupportedTypeErrorf("CrateDB doesn't support multidimensional arrays")
		}
		item, err := TypeName(*d.Item)
		if err != nil {
			return "", err
		}
		return "ARRAY(" + item + ")", nil
	}

	return "", render.UnsupportedTypeErrorf("unknown column type %q", d.Kind)
}
