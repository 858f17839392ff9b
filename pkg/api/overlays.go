package api

import (
	"fmt"
	"math"

	"github.com/mapprint/mapprint/internal/overlay"
	"github.com/mapprint/mapprint/internal/text"
	"github.com/mapprint/mapprint/internal/units"
	"github.com/mapprint/mapprint/pkg/carto"
)

const (
	gridDivisions  = 8
	gridBorderSize = 8.0
	gridLineWidth  = 0.5

	// scale bar divisions may use this much more than their share of the
	// width before being halved
	scaleBarExtraSpace = 1.2
	fractionSpacing    = 2.0
	fractionFontSize   = 6.0

	graticuleFontSize = 6.0
	// graticule lines extend this fraction of the map width past each
	// edge so that none end inside the map
	graticuleBuffer = 0.2
)

var lineGray = carto.RGB(128, 128, 128)

// ScaleOptions control RenderScale.
type ScaleOptions struct {
	// At is the top left corner of the block in meters. Nil puts it
	// next to the map.
	At *[2]float64
	// Width is the space available in meters. The bar is centered in it
	// and its divisions halved until they fit. Zero leaves the bar
	// unconstrained.
	Width     float64
	Divisions int
	// BarSize is the bar height in points.
	BarSize                float64
	RepresentativeFraction bool
}

// DefaultScaleOptions returns a 5 cm wide bar of three divisions with the
// representative fraction below it.
func DefaultScaleOptions() ScaleOptions {
	return ScaleOptions{Width: 0.05, Divisions: 3, BarSize: 8, RepresentativeFraction: true}
}

// RenderScale draws a scale bar of alternating black and white boxes and,
// below it, the representative fraction "Scale 1:N". It returns the size
// of the block in points. Nothing is drawn for lat/lon maps or when the
// aspect ratio is not preserved, since the scale is not uniform then.
func (p *Printer) RenderScale(m *carto.Map, o ScaleOptions) (w, h float64, err error) {
	if p.surface == nil || !p.hasMap {
		return 0, 0, ErrNoSurface
	}
	if !p.options.PreserveAspect || p.options.IsLatLon {
		return 0, 0, nil
	}
	if o.Divisions <= 0 {
		o.Divisions = 3
	}
	if o.BarSize <= 0 {
		o.BarSize = 8
	}

	s := p.surface
	s.Save()
	defer s.Restore()

	x, y := p.MetaInfoCorner(m)
	if o.At != nil {
		x, y = o.At[0], o.At[1]
	}
	s.Translate(units.M2Pt(x), units.M2Pt(y))

	w, h = p.renderScaleBar(m, o)
	if o.RepresentativeFraction {
		s.MoveTo(0, h+fractionSpacing)
		var boxWidth float64
		if o.Width > 0 {
			boxWidth = units.M2Pt(o.Width)
		}
		ext := p.text.Draw(s, overlay.RepresentativeFraction(p.rounded, p.options.Locale), text.Options{
			Size:     fractionFontSize,
			BoxWidth: boxWidth,
			Align:    text.AlignCenter,
		})
		h += fractionSpacing + ext.Height
	}
	return w, h, nil
}

func (p *Printer) renderScaleBar(m *carto.Map, o ScaleOptions) (w, h float64) {
	n := o.Divisions
	divWidth := o.Width / float64(n) * scaleBarExtraSpace
	div, pageDiv := overlay.ScalebarSize(m.Envelope().Width(), p.mapBox.Width(), n, divWidth)
	labels := overlay.ScaleLabels(div, n)

	s := p.surface
	s.Save()
	defer s.Restore()
	if o.Width > 0 {
		s.Translate(units.M2Pt(o.Width-float64(n)*pageDiv)/2, 0)
	}
	for i := range n {
		fill := carto.Black
		if i%2 == 1 {
			fill = carto.White
		}
		p.renderBox(units.M2Pt(float64(i)*pageDiv), 0, units.M2Pt(pageDiv), o.BarSize, labels[i], fill)
	}
	return units.M2Pt(float64(n) * pageDiv), o.BarSize
}

// renderBox draws a box with a black outline and an optional label in the
// inverse of the fill color.
func (p *Printer) renderBox(x, y, w, h float64, label string, fill carto.Color) {
	s := p.surface
	s.Save()
	defer s.Restore()

	s.SetLineWidth(1)
	s.SetSourceRGBA(fill.Floats())
	s.Rectangle(x, y, w, h)
	s.Fill()

	s.SetSourceRGBA(carto.Black.Floats())
	s.Rectangle(x, y, w, h)
	s.Stroke()

	if label != "" {
		s.MoveTo(x+1, y)
		p.text.Draw(s, label, text.Options{Size: h - 2, Color: invert(fill)})
	}
}

func invert(c carto.Color) carto.Color {
	return carto.Color{R: 255 - c.R, G: 255 - c.G, B: 255 - c.B, A: c.A}
}

func (p *Printer) drawLine(x0, y0, x1, y1, width float64, c carto.Color) {
	s := p.surface
	s.Save()
	defer s.Restore()
	s.NewPath()
	s.MoveTo(x0, y0)
	s.LineTo(x1, y1)
	s.SetSourceRGBA(c.Floats())
	s.SetLineWidth(width)
	s.Stroke()
}

// RenderGridOnMap draws grid lines across the map at round map coordinates
// and a border of alternating black and white boxes labeled with the
// coordinates on each side of the map. An empty name defaults to
// GridLayerName.
func (p *Printer) RenderGridOnMap(m *carto.Map, name string) error {
	if p.surface == nil || !p.hasMap {
		return ErrNoSurface
	}
	if name == "" {
		name = GridLayerName
	}
	env := m.Envelope()
	mb := p.mapBox
	latlon := p.options.IsLatLon
	div, pageDiv := overlay.ScalebarSize(env.Width(), mb.Width(), gridDivisions, -1)

	first, frac := overlay.AxisFirstValue(div, env.MinX, env.Width())
	p.renderGridAxis(overlay.Grid(first, frac, mb.MinX, mb.MaxX, pageDiv, div, latlon), mb.MinY, mb.MaxY, false)

	first, frac = overlay.AxisFirstValue(div, env.MinY, env.Height())
	p.renderGridAxis(overlay.Grid(first, frac, mb.MinY, mb.MaxY, pageDiv, div, latlon), mb.MinX, mb.MaxX, true)

	if p.options.UseOCGLayers {
		p.showPage(name)
	}
	return nil
}

// renderGridAxis draws the lines and border boxes of one axis between the
// boundaries. The vertical axis is drawn as a horizontal one rotated a
// quarter turn about the center of the map box.
func (p *Printer) renderGridAxis(g overlay.GridAxis, boundStart, boundEnd float64, vertical bool) {
	s := p.surface
	s.Save()
	defer s.Restore()

	if vertical {
		cx, cy := p.mapBox.Center()
		s.Translate(units.M2Pt(cx), units.M2Pt(cy))
		s.Rotate(-math.Pi / 2)
		s.Translate(-units.M2Pt(cy), -units.M2Pt(cx))
	}
	for _, v := range g.Lines {
		p.drawLine(units.M2Pt(v), units.M2Pt(boundStart), units.M2Pt(v), units.M2Pt(boundEnd), gridLineWidth, lineGray)
	}
	for _, b := range g.Boxes {
		fill := carto.White
		if b.Filled {
			fill = carto.Black
		}
		for _, bar := range []float64{units.M2Pt(boundStart) - gridBorderSize, units.M2Pt(boundEnd)} {
			p.renderBox(units.M2Pt(b.From), bar, units.M2Pt(b.To-b.From), gridBorderSize, b.Label, fill)
		}
	}
}

// RenderGraticuleOnMap draws meridians and parallels over a projected map,
// labeled where they leave the map, in decimal degrees or as degrees,
// minutes and seconds. Lat/lon maps get no graticule. An empty name
// defaults to GraticuleLayerName.
func (p *Printer) RenderGraticuleOnMap(m *carto.Map, decDegrees bool, name string) error {
	if p.surface == nil || !p.hasMap {
		return ErrNoSurface
	}
	if p.options.IsLatLon {
		return nil
	}
	if name == "" {
		name = GraticuleLayerName
	}
	proj, err := m.Projection()
	if err != nil {
		return fmt.Errorf("render graticule: %w", err)
	}

	env := m.Envelope()
	bounds := carto.InverseBox(proj, env)
	clon, clat := proj.Inverse(env.Center())
	bounds = overlay.AdjustLatLonBounds(bounds, clon, clat)

	g := graticule{
		proj:       proj,
		vt:         m.ViewTransform(),
		bounds:     bounds,
		buffer:     graticuleBuffer * bounds.Width(),
		div:        overlay.GraticuleDivision(bounds.Width(), decDegrees),
		interp:     bounds.Width() / float64(m.Width()),
		decDegrees: decDegrees,
	}
	p.logger.Debug("graticule", "bounds", bounds, "division", g.div)
	if g.div <= 0 || g.interp <= 0 {
		return nil
	}
	p.renderGraticuleAxis(g, false)
	p.renderGraticuleAxis(g, true)

	if p.options.UseOCGLayers {
		p.showPage(name)
	}
	return nil
}

type graticule struct {
	proj       carto.Projection
	vt         carto.ViewTransform
	bounds     carto.Box
	buffer     float64
	div        float64
	interp     float64
	decDegrees bool
}

// renderGraticuleAxis draws the meridians, or with vertical the
// parallels. Parallels are drawn like meridians in a frame rotated a
// quarter turn about the map box center, so that their labels run along
// the left and right edges.
func (p *Printer) renderGraticuleAxis(g graticule, vertical bool) {
	s := p.surface
	s.Save()
	defer s.Restore()

	mb := p.mapBox
	mapW, mapH := units.M2Pt(mb.Width()), units.M2Pt(mb.Height())
	s.Translate(units.M2Pt(mb.MinX), units.M2Pt(mb.MinY))
	s.Rectangle(0, 0, mapW, mapH)
	s.Clip()

	x1, x2, y1, y2 := g.bounds.MinX, g.bounds.MaxX, g.bounds.MinY, g.bounds.MaxY
	boxTop := mapH
	if vertical {
		x1, x2, y1, y2 = y1, y2, x1, x2
		s.Translate(mapW/2, mapH/2)
		s.Rotate(-math.Pi / 2)
		s.Translate(-mapH/2, -mapW/2)
		boxTop = mapW
	}

	pxToPt := units.PointsPerInch / p.options.Resolution
	point := func(along, across float64) (float64, float64, bool) {
		lon, lat := along, across
		if vertical {
			lon, lat = across, along
		}
		x, y := g.vt.Forward(g.proj.Forward(lon, lat))
		x, y = x*pxToPt, y*pxToPt
		if vertical {
			x, y = mapH-y, x
		}
		return x, y, finite(x) && finite(y)
	}

	s.SetSourceRGBA(lineGray.Floats())
	s.SetLineWidth(gridLineWidth)
	for _, xv := range overlay.GridValues(x1-g.buffer, x2+g.buffer, g.div) {
		var startCross, endCross float64
		var hasStart, hasEnd bool

		s.NewPath()
		yv := y1 - g.buffer
		sx, sy, ok := point(xv, yv)
		if ok {
			s.MoveTo(sx, sy)
		}
		for yv < y2+g.buffer {
			yv += g.interp
			ex, ey, eok := point(xv, yv)
			switch {
			case eok && ok:
				s.LineTo(ex, ey)
				if sign(sy) != sign(ey) {
					startCross, hasStart = ex, true
				}
				if sign(sy-boxTop) != sign(ey-boxTop) {
					endCross, hasEnd = ex, true
				}
			case eok:
				s.MoveTo(ex, ey)
			}
			sx, sy, ok = ex, ey, eok
		}
		s.Stroke()

		label := overlay.GraticuleLabel(xv, g.decDegrees)
		if hasStart {
			s.ShowText(startCross+2, graticuleFontSize, label, graticuleFontSize)
		}
		if hasEnd {
			s.ShowText(endCross+2, boxTop-2, label, graticuleFontSize)
		}
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func sign(v float64) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}
