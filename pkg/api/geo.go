package api

import (
	"fmt"

	"github.com/mapprint/mapprint/internal/geopdf"
	"github.com/mapprint/mapprint/internal/units"
	"github.com/mapprint/mapprint/pkg/carto"
)

// GeoOptions identify the map projection in the geospatial header. At
// least one of them must be set.
type GeoOptions struct {
	EPSG int
	WKT  string
}

// GeoOptionsFor describes the projection of m with its EPSG code and WKT.
func GeoOptionsFor(m *carto.Map) (GeoOptions, error) {
	proj, err := m.Projection()
	if err != nil {
		return GeoOptions{}, err
	}
	return GeoOptions{EPSG: proj.EPSG(), WKT: proj.WKT()}, nil
}

// AddGeospatialPDFHeader georeferences the finished PDF at filename with
// the Adobe geospatial extension, so that viewers can show the
// coordinates of points on the map. It must be called after Finish.
func (p *Printer) AddGeospatialPDFHeader(m *carto.Map, filename string, o GeoOptions) error {
	if o.EPSG == 0 && o.WKT == "" {
		return geopdf.ErrNoProjection
	}
	if !p.hasMap {
		return ErrNoSurface
	}
	proj, err := m.Projection()
	if err != nil {
		return fmt.Errorf("geospatial header: %w", err)
	}

	env := m.Envelope()
	var corners [4][2]float64
	for i, c := range [4][2]float64{
		{env.MinX, env.MinY},
		{env.MinX, env.MaxY},
		{env.MaxX, env.MaxY},
		{env.MaxX, env.MinY},
	} {
		lon, lat := proj.Inverse(c[0], c[1])
		corners[i] = [2]float64{lon, lat}
	}

	// PDF user space starts at the bottom of the page
	pageH := units.M2Pt(p.options.PageSize.Height)
	mb := p.mapBox
	params := geopdf.Params{
		EPSG:       o.EPSG,
		WKT:        o.WKT,
		Geographic: p.options.IsLatLon || proj.IsGeographic(),
		BBox: [4]float64{
			units.M2Pt(mb.MinX), pageH - units.M2Pt(mb.MaxY),
			units.M2Pt(mb.MaxX), pageH - units.M2Pt(mb.MinY),
		},
		Corners: corners,
	}
	if err := geopdf.Add(filename, params); err != nil {
		return fmt.Errorf("failed to add geospatial header: %w", err)
	}
	return nil
}
