package carto

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Feature is a geometry with attributes.
type Feature struct {
	ID         int64
	Geometry   orb.Geometry
	Properties map[string]any
}

// NewFeature returns a feature with the given geometry and attributes.
func NewFeature(id int64, g orb.Geometry, props map[string]any) *Feature {
	if props == nil {
		props = map[string]any{}
	}
	return &Feature{ID: id, Geometry: g, Properties: props}
}

// Envelope returns the bounding box of the feature's geometry. Features
// without geometry return an empty box.
func (f *Feature) Envelope() Box {
	if f == nil || f.Geometry == nil {
		return EmptyBox()
	}
	return BoxFromBound(f.Geometry.Bound())
}

// Get returns the named attribute.
func (f *Feature) Get(name string) (any, bool) {
	v, ok := f.Properties[name]
	return v, ok
}

// Clone returns a copy that shares the geometry but not the attribute map.
func (f *Feature) Clone() *Feature {
	props := make(map[string]any, len(f.Properties))
	for k, v := range f.Properties {
		props[k] = v
	}
	return &Feature{ID: f.ID, Geometry: f.Geometry, Properties: props}
}

// Datasource provides the features of a layer.
type Datasource interface {
	Features() []*Feature
	// Envelope returns the extent of all features in the layer's SRS.
	Envelope() Box
}

// MemoryDatasource holds its features in memory.
type MemoryDatasource struct {
	features []*Feature
}

// NewMemoryDatasource returns a datasource holding fs.
func NewMemoryDatasource(fs ...*Feature) *MemoryDatasource {
	return &MemoryDatasource{features: fs}
}

// Add appends a feature.
func (ds *MemoryDatasource) Add(f *Feature) {
	ds.features = append(ds.features, f)
}

func (ds *MemoryDatasource) Features() []*Feature {
	return ds.features
}

func (ds *MemoryDatasource) Envelope() Box {
	env := EmptyBox()
	for _, f := range ds.features {
		env = env.Union(f.Envelope())
	}
	return env
}

// NewGeoJSONDatasource decodes a GeoJSON FeatureCollection, a single
// Feature or a bare geometry.
func NewGeoJSONDatasource(data []byte) (*MemoryDatasource, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err == nil && len(fc.Features) > 0 {
		return fromGeoJSON(fc.Features), nil
	}
	if f, ferr := geojson.UnmarshalFeature(data); ferr == nil && f.Geometry != nil {
		return fromGeoJSON([]*geojson.Feature{f}), nil
	}
	if g, gerr := geojson.UnmarshalGeometry(data); gerr == nil && g.Geometry() != nil {
		return NewMemoryDatasource(NewFeature(1, g.Geometry(), nil)), nil
	}
	if err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}
	// an empty collection is valid
	return NewMemoryDatasource(), nil
}

func fromGeoJSON(in []*geojson.Feature) *MemoryDatasource {
	ds := NewMemoryDatasource()
	for i, gf := range in {
		id := int64(i + 1)
		switch v := gf.ID.(type) {
		case float64:
			id = int64(v)
		case int:
			id = int64(v)
		case int64:
			id = v
		}
		ds.Add(NewFeature(id, gf.Geometry, map[string]any(gf.Properties)))
	}
	return ds
}
