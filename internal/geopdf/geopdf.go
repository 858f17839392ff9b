// Package geopdf adds the Adobe geospatial extension to a PDF: a viewport
// whose measure dictionary ties the map area of each page to geographic
// coordinates.
package geopdf

import (
	"errors"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/mapprint/mapprint/internal/pdfedit"
)

// ErrNoProjection is returned when neither an EPSG code nor a WKT string
// describes the map projection.
var ErrNoProjection = errors.New("geospatial header needs an EPSG code or WKT")

// unitSquare is the default neatline: the whole viewport.
var unitSquare = []float64{0, 0, 0, 1, 1, 1, 1, 0}

// Params describe the georeferenced area of the pages.
type Params struct {
	EPSG int
	WKT  string
	// Geographic selects a GEOGCS coordinate system instead of PROJCS.
	Geographic bool
	// BBox is the map area in PDF user space: x0, y0, x1, y1 in points
	// with the origin at the bottom left.
	BBox [4]float64
	// Corners are lon/lat pairs of the map envelope corners, in the order
	// (minx,miny) (minx,maxy) (maxx,maxy) (maxx,miny).
	Corners [4][2]float64
}

// Add rewrites the PDF at path, attaching a viewport built from p to every
// page. Other document properties, such as optional content, are kept.
func Add(path string, p Params) error {
	if p.EPSG == 0 && p.WKT == "" {
		return ErrNoProjection
	}
	return pdfedit.Edit(path, func(ctx *model.Context) error {
		pages, err := pdfedit.Pages(ctx)
		if err != nil {
			return err
		}
		for _, pg := range pages {
			pg.Dict["VP"] = types.Array{Viewport(p)}
		}
		if err := pdfedit.RequireVersion(ctx, "1.7"); err != nil {
			return err
		}
		return addExtension(ctx)
	})
}

// Viewport returns the /Viewport dictionary for p.
func Viewport(p Params) types.Dict {
	return types.Dict{
		"Type":    types.Name("Viewport"),
		"BBox":    pdfedit.Floats(p.BBox[:]...),
		"Measure": measure(p),
	}
}

func measure(p Params) types.Dict {
	gcs := types.Dict{"Type": types.Name("PROJCS")}
	if p.Geographic {
		gcs["Type"] = types.Name("GEOGCS")
	}
	if p.EPSG != 0 {
		gcs["EPSG"] = types.Integer(p.EPSG)
	}
	if p.WKT != "" {
		gcs["WKT"] = pdfedit.TextString(p.WKT)
	}
	return types.Dict{
		"Type":    types.Name("Measure"),
		"Subtype": types.Name("GEO"),
		"GCS":     gcs,
		"Bounds":  pdfedit.Floats(unitSquare...),
		"LPTS":    pdfedit.Floats(unitSquare...),
		"GPTS":    pdfedit.Floats(GPTS(p.Corners)...),
	}
}

// GPTS flattens lon/lat corners into the lat, lon pairs of a /GPTS array.
func GPTS(corners [4][2]float64) []float64 {
	out := make([]float64, 0, 8)
	for _, c := range corners {
		out = append(out, c[1], c[0])
	}
	return out
}

func addExtension(ctx *model.Context) error {
	root, err := ctx.Catalog()
	if err != nil {
		return err
	}
	ext := types.Dict{}
	if o, ok := root["Extensions"]; ok {
		d, err := ctx.DereferenceDict(o)
		if err != nil {
			return err
		}
		if d != nil {
			ext = d
		}
	}
	ext["ADBE"] = types.Dict{
		"BaseVersion":    types.Name("1.7"),
		"ExtensionLevel": types.Integer(3),
	}
	root["Extensions"] = ext
	return nil
}
