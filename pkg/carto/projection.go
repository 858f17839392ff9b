package carto

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// ErrUnknownSRS is returned for spatial reference strings that no
// projection is registered for.
var ErrUnknownSRS = errors.New("unknown spatial reference system")

// Projection converts between geographic lon/lat degrees and the
// coordinates of a spatial reference system.
type Projection interface {
	// SRS returns the reference string the projection was parsed from.
	SRS() string
	// EPSG returns the EPSG code, or 0 when the projection has none.
	EPSG() int
	// WKT returns the OGC well known text of the coordinate system.
	WKT() string
	IsGeographic() bool
	Forward(lon, lat float64) (x, y float64)
	Inverse(x, y float64) (lon, lat float64)
}

const (
	wgs84WKT = `GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["degree",0.0174532925199433]]`

	webMercatorWKT = `PROJCS["WGS 84 / Pseudo-Mercator",GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["degree",0.0174532925199433]],PROJECTION["Mercator_1SP"],PARAMETER["central_meridian",0],PARAMETER["scale_factor",1],PARAMETER["false_easting",0],PARAMETER["false_northing",0],UNIT["metre",1],EXTENSION["PROJ4","+proj=merc +a=6378137 +b=6378137 +lat_ts=0 +lon_0=0 +x_0=0 +y_0=0 +k=1 +units=m +nadgrids=@null +wktext +no_defs"]]`
)

type lonLat struct{ srs string }

func (p lonLat) SRS() string                           { return p.srs }
func (lonLat) EPSG() int                               { return 4326 }
func (lonLat) WKT() string                             { return wgs84WKT }
func (lonLat) IsGeographic() bool                      { return true }
func (lonLat) Forward(lon, lat float64) (x, y float64) { return lon, lat }
func (lonLat) Inverse(x, y float64) (lon, lat float64) { return x, y }

type webMercator struct{ srs string }

func (p webMercator) SRS() string { return p.srs }
func (webMercator) EPSG() int     { return 3857 }
func (webMercator) WKT() string   { return webMercatorWKT }

func (webMercator) IsGeographic() bool { return false }

func (webMercator) Forward(lon, lat float64) (x, y float64) {
	p := project.WGS84.ToMercator(orb.Point{lon, lat})
	return p[0], p[1]
}

func (webMercator) Inverse(x, y float64) (lon, lat float64) {
	p := project.Mercator.ToWGS84(orb.Point{x, y})
	return p[0], p[1]
}

// ParseProjection returns the projection for an EPSG code ("epsg:3857"),
// a proj4 string or one of the common aliases. Lon/lat WGS84 and Web
// Mercator are supported.
func ParseProjection(srs string) (Projection, error) {
	s := strings.ToLower(strings.TrimSpace(srs))
	s = strings.TrimPrefix(s, "+init=")

	switch s {
	case "", "epsg:4326", "wgs84", "crs:84", "urn:ogc:def:crs:ogc:1.3:crs84":
		return lonLat{srs: srs}, nil
	case "epsg:3857", "epsg:900913", "epsg:3785", "epsg:102100", "google":
		return webMercator{srs: srs}, nil
	}
	if strings.Contains(s, "+proj=longlat") || strings.Contains(s, "+proj=latlong") {
		return lonLat{srs: srs}, nil
	}
	if strings.Contains(s, "+proj=merc") && (strings.Contains(s, "+a=6378137") || strings.Contains(s, "+nadgrids=@null")) {
		return webMercator{srs: srs}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSRS, srs)
}

// SameSRS reports whether two projections describe the same system.
func SameSRS(a, b Projection) bool {
	return a.EPSG() != 0 && a.EPSG() == b.EPSG()
}

// Reproject converts a point from one projection to another.
func Reproject(from, to Projection, x, y float64) (float64, float64) {
	if SameSRS(from, to) {
		return x, y
	}
	lon, lat := from.Inverse(x, y)
	return to.Forward(lon, lat)
}

// ReprojectBox converts a box between projections by sampling its edges
// and returning the envelope of the results.
func ReprojectBox(from, to Projection, b Box) Box {
	if SameSRS(from, to) || !b.Valid() {
		return b
	}
	const steps = 8
	out := EmptyBox()
	for i := 0; i <= steps; i++ {
		f := float64(i) / steps
		x := b.MinX + f*b.Width()
		y := b.MinY + f*b.Height()
		for _, p := range [][2]float64{{x, b.MinY}, {x, b.MaxY}, {b.MinX, y}, {b.MaxX, y}} {
			px, py := Reproject(from, to, p[0], p[1])
			if math.IsNaN(px) || math.IsNaN(py) || math.IsInf(px, 0) || math.IsInf(py, 0) {
				continue
			}
			out = out.ExpandToInclude(px, py)
		}
	}
	return out
}

// InverseBox returns the lon/lat envelope of a box in projected units.
func InverseBox(p Projection, b Box) Box {
	return ReprojectBox(p, lonLat{srs: "epsg:4326"}, b)
}
