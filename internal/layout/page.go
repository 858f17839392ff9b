// Package layout places a map on a printed page. All lengths are meters
// measured from the top left corner of the page.
package layout

import (
	"math"

	"github.com/mapprint/mapprint/internal/scales"
	"github.com/mapprint/mapprint/internal/units"
	"github.com/mapprint/mapprint/pkg/carto"
)

// MetaPadding separates the map from the block holding the scale bar and
// legend.
const MetaPadding = 0.005

// Centering selects how space left over by scale rounding and aspect
// fixing is distributed around the map.
type Centering int

const (
	// CenteringNone places the map in the top left corner.
	CenteringNone Centering = iota
	// CenteringConstrainedAxis centers along the axis the map fills,
	// horizontally for a map wider than the page.
	CenteringConstrainedAxis
	// CenteringUnconstrainedAxis centers along the other axis.
	CenteringUnconstrainedAxis
	CenteringVertical
	CenteringHorizontal
	CenteringBoth
)

var centeringNames = [...]string{"none", "constrained", "unconstrained", "vertical", "horizontal", "both"}

func (c Centering) String() string {
	if c < 0 || int(c) >= len(centeringNames) {
		return "unknown"
	}
	return centeringNames[c]
}

// ParseCentering parses the names returned by Centering.String.
func ParseCentering(s string) (Centering, bool) {
	for i, n := range centeringNames {
		if n == s {
			return Centering(i), true
		}
	}
	return CenteringNone, false
}

// Page describes the printable page.
type Page struct {
	Width, Height float64
	Margin        float64
	// Box optionally restricts the area the map is placed in.
	Box            *carto.Box
	Scale          scales.Func
	PreserveAspect bool
	Centering      Centering
}

// PercentBox converts a box given in fractions of the page size to meters.
func PercentBox(pct [4]float64, width, height float64) carto.Box {
	return carto.NewBox(pct[0]*width, pct[1]*height, pct[2]*width, pct[3]*height)
}

// RenderArea returns the page shrunk by the margin and intersected with
// Box. The result is not Valid when Box lies outside the page.
func (p Page) RenderArea() carto.Box {
	area := carto.Box{MinX: p.Margin, MinY: p.Margin, MaxX: p.Width - p.Margin, MaxY: p.Height - p.Margin}
	if p.Box != nil {
		return area.Intersect(*p.Box)
	}
	return area
}

// Constrained reports whether the map is wider, relative to its height,
// than the render area.
func (p Page) Constrained(env carto.Box) bool {
	area := p.RenderArea()
	return aspect(env) > area.Width()/area.Height()
}

// MapRenderSize returns the size of the map on the page and the rounded
// scale, in map units per page meter.
func (p Page) MapRenderSize(env carto.Box) (w, h, rounded float64) {
	area := p.RenderArea()
	effW, effH := area.Width(), area.Height()

	raw := math.Max(env.Width()/effW, env.Height()/effH)
	scale := p.Scale
	if scale == nil || !p.PreserveAspect {
		scale = scales.Any
	}
	rounded = math.Max(scale(raw), raw)
	factor := raw / rounded

	w, h = effW*factor, effH*factor
	if p.PreserveAspect {
		if mapAspect := aspect(env); mapAspect > effW/effH {
			h = w / mapAspect
		} else {
			w = h * mapAspect
		}
	}
	return w, h, rounded
}

// PixelSize converts a size on the page to raster pixels at dpi.
func PixelSize(w, h, dpi float64) (int, int) {
	return int(units.M2Px(w, dpi)), int(units.M2Px(h, dpi))
}

// RenderCorner returns the top left corner of a map of size w x h.
func (p Page) RenderCorner(w, h float64, env carto.Box) (x, y float64) {
	area := p.RenderArea()
	x, y = area.MinX, area.MinY

	constrained := p.Constrained(env)
	if p.centersHorizontally(constrained) {
		x += (area.Width() - w) / 2
	}
	if p.centersVertically(constrained) {
		y += (area.Height() - h) / 2
	}
	return x, y
}

func (p Page) centersHorizontally(constrained bool) bool {
	switch p.Centering {
	case CenteringBoth, CenteringHorizontal:
		return true
	case CenteringConstrainedAxis:
		return constrained
	case CenteringUnconstrainedAxis:
		return !constrained
	}
	return false
}

func (p Page) centersVertically(constrained bool) bool {
	switch p.Centering {
	case CenteringBoth, CenteringVertical:
		return true
	case CenteringConstrainedAxis:
		return !constrained
	case CenteringUnconstrainedAxis:
		return constrained
	}
	return false
}

// MetaInfoCorner returns where to put the scale bar and legend: below the
// map at the left margin when the map is constrained, otherwise right of
// the map at the top margin.
func (p Page) MetaInfoCorner(w, h float64, env carto.Box) (x, y float64) {
	x, y = p.RenderCorner(w, h, env)
	if p.Constrained(env) {
		return p.Margin, y + h + MetaPadding
	}
	return x + w + MetaPadding, p.Margin
}

func aspect(b carto.Box) float64 {
	return b.Width() / b.Height()
}
