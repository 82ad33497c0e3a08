package coltype

import (
	"encoding/json"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/zoobzio/crateql/internal/render"
)

// bindPoint converts orb.Point and GeoJSON point geometries to a
// [lon, lat] pair.
func bindPoint(v any) any {
	switch p := v.(type) {
	case orb.Point:
		return []float64{p.Lon(), p.Lat()}
	case *geojson.Geometry:
		if pt, ok := p.Coordinates.(orb.Point); ok {
			return []float64{pt.Lon(), pt.Lat()}
		}
	}
	return v
}

func resultPoint(v any) (any, error) {
	var coords []float64
	switch p := v.(type) {
	case orb.Point:
		return p, nil
	case []float64:
		coords = p
	case []any:
		for _, c := range p {
			f, ok := numberValue(c)
			if !ok {
				return nil, render.InvalidValueErrorf("geo_point coordinate %v is not numeric", c)
			}
			coords = append(coords, f)
		}
	case string:
		// WKT or GeoJSON text is returned verbatim by some endpoints.
		return p, nil
	default:
		return v, nil
	}
	if len(coords) != 2 {
		return nil, render.InvalidValueErrorf("geo_point expects 2 coordinates, got %d", len(coords))
	}
	return orb.Point{coords[0], coords[1]}, nil
}

// bindShape encodes orb geometries as GeoJSON objects.
func bindShape(v any) (any, error) {
	var g *geojson.Geometry
	switch t := v.(type) {
	case orb.Geometry:
		g = geojson.NewGeometry(t)
	case *geojson.Geometry:
		g = t
	default:
		return v, nil
	}

	data, err := json.Marshal(g)
	if err != nil {
		return nil, render.InvalidValueErrorf("geo_shape: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, render.InvalidValueErrorf("geo_shape: %v", err)
	}
	return out, nil
}

// resultShape decodes a GeoJSON object into a geometry.
func resultShape(v any) (any, error) {
	var data []byte
	switch t := v.(type) {
	case *geojson.Geometry:
		return t, nil
	case map[string]any:
		b, err := json.Marshal(t)
		if err != nil {
			return nil, render.InvalidValueErrorf("geo_shape: %v", err)
		}
		data = b
	case string:
		data = []byte(t)
	case []byte:
		data = t
	default:
		return v, nil
	}

	g, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, render.InvalidValueErrorf("geo_shape: %v", err)
	}
	return g, nil
}
