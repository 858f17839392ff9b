package carto

import (
	"fmt"
	"image"
	"regexp"

	"github.com/paulmach/orb"

	"github.com/mapprint/mapprint/internal/raster"
)

// Canvas is the vector drawing surface Render draws onto. Coordinates are
// map pixels with the origin at the top left corner.
type Canvas interface {
	Save()
	Restore()
	NewPath()
	MoveTo(x, y float64)
	LineTo(x, y float64)
	Arc(xc, yc, r float64)
	ClosePath()
	SetSourceRGBA(r, g, b, a float64)
	SetLineWidth(w float64)
	SetDash(pattern []float64)
	Fill()
	FillEvenOdd()
	Stroke()
	DrawImage(img image.Image, x, y, w, h float64)
	// ShowText draws text with its baseline starting at (x, y).
	ShowText(x, y float64, text string, size float64)
	TextWidth(text string, size float64) float64
}

var (
	defaultPolygonFill = RGB(128, 128, 128)
	defaultPointSize   = 6.0
	defaultTextSize    = 10.0
)

// Render draws the map's background and its active layers onto c.
func Render(m *Map, c Canvas) error {
	mp, err := m.Projection()
	if err != nil {
		return fmt.Errorf("render map: %w", err)
	}
	r := &renderer{
		m:       m,
		c:       c,
		vt:      m.ViewTransform(),
		mapProj: mp,
		denom:   m.ScaleDenominator(),
		markers: map[string]image.Image{},
	}
	r.background()

	for _, l := range m.Layers {
		if !l.Active || l.Datasource == nil {
			continue
		}
		if err := r.layer(l); err != nil {
			return fmt.Errorf("render layer %q: %w", l.Name, err)
		}
	}
	r.drawLabels()
	return nil
}

type label struct {
	sym  *TextSymbolizer
	text string
	x, y float64
}

type renderer struct {
	m       *Map
	c       Canvas
	vt      ViewTransform
	mapProj Projection
	denom   float64

	labels  []label
	placed  []Box
	markers map[string]image.Image
}

func (r *renderer) background() {
	w, h := float64(r.m.width), float64(r.m.height)
	if !r.m.Background.Transparent() {
		r.setColor(r.m.Background)
		r.rect(0, 0, w, h)
		r.c.Fill()
	}
	if r.m.BackgroundImage != nil {
		r.c.DrawImage(r.m.BackgroundImage, 0, 0, w, h)
	}
}

func (r *renderer) layer(l *Layer) error {
	lp, err := ParseProjection(l.srsOr(r.m.srs))
	if err != nil {
		return err
	}
	features := l.Datasource.Features()
	for _, name := range l.Styles {
		st, ok := r.m.FindStyle(name)
		if !ok {
			continue
		}
		for _, f := range features {
			if f.Geometry == nil {
				continue
			}
			for _, rule := range st.ActiveRules(f, r.denom) {
				for _, sym := range rule.Symbolizers {
					r.symbolize(lp, f, sym)
				}
			}
		}
	}
	return nil
}

func (r *renderer) symbolize(lp Projection, f *Feature, sym Symbolizer) {
	switch s := sym.(type) {
	case *PolygonSymbolizer:
		r.fillPolygons(lp, f.Geometry, s)
	case *LineSymbolizer:
		r.strokeLines(lp, f.Geometry, s)
	case *PointSymbolizer:
		for _, p := range anchors(f.Geometry) {
			x, y := r.project(lp, p)
			r.drawPoint(s, x, y)
		}
	case *TextSymbolizer:
		text := labelText(s.Field, f)
		if text == "" {
			return
		}
		for _, p := range anchors(f.Geometry) {
			x, y := r.project(lp, p)
			r.labels = append(r.labels, label{sym: s, text: text, x: x + s.DX, y: y + s.DY})
		}
	}
}

func (r *renderer) project(lp Projection, p orb.Point) (float64, float64) {
	x, y := Reproject(lp, r.mapProj, p[0], p[1])
	return r.vt.Forward(x, y)
}

func (r *renderer) setColor(c Color) {
	r.c.SetSourceRGBA(c.Floats())
}

func (r *renderer) rect(x, y, w, h float64) {
	r.c.NewPath()
	r.c.MoveTo(x, y)
	r.c.LineTo(x+w, y)
	r.c.LineTo(x+w, y+h)
	r.c.LineTo(x, y+h)
	r.c.ClosePath()
}

func (r *renderer) path(lp Projection, pts []orb.Point, closed bool) {
	for i, p := range pts {
		x, y := r.project(lp, p)
		if i == 0 {
			r.c.MoveTo(x, y)
		} else {
			r.c.LineTo(x, y)
		}
	}
	if closed && len(pts) > 0 {
		r.c.ClosePath()
	}
}

func (r *renderer) fillPolygons(lp Projection, g orb.Geometry, s *PolygonSymbolizer) {
	polys := polygons(g)
	if len(polys) == 0 {
		return
	}
	r.c.NewPath()
	for _, poly := range polys {
		for _, ring := range poly {
			r.path(lp, ring, true)
		}
	}
	r.setColor(colorOr(s.Fill, defaultPolygonFill))
	r.c.FillEvenOdd()
}

func (r *renderer) strokeLines(lp Projection, g orb.Geometry, s *LineSymbolizer) {
	lines, rings := linework(g)
	if len(lines) == 0 && len(rings) == 0 {
		return
	}
	r.c.Save()
	defer r.c.Restore()

	r.c.NewPath()
	for _, ls := range lines {
		r.path(lp, ls, false)
	}
	for _, ring := range rings {
		r.path(lp, ring, true)
	}
	w := s.Width
	if w <= 0 {
		w = 1
	}
	r.setColor(colorOr(s.Stroke, Black))
	r.c.SetLineWidth(w)
	r.c.SetDash(s.Dash)
	r.c.Stroke()
}

func (r *renderer) drawPoint(s *PointSymbolizer, x, y float64) {
	size := s.Size
	if size <= 0 {
		size = defaultPointSize
	}
	box := Box{MinX: x - size/2, MinY: y - size/2, MaxX: x + size/2, MaxY: y + size/2}
	if !r.placeable(box, s.AvoidEdges, s.AllowOverlap) {
		return
	}
	if !s.AllowOverlap {
		r.placed = append(r.placed, box)
	}

	if len(s.Marker) > 0 {
		img, err := r.marker(s.Marker, int(size+0.5))
		if err == nil {
			r.c.DrawImage(img, box.MinX, box.MinY, size, size)
			return
		}
	}
	r.c.NewPath()
	r.c.Arc(x, y, size/2)
	r.setColor(colorOr(s.Fill, Black))
	r.c.Fill()
	if !s.Stroke.Transparent() {
		r.c.NewPath()
		r.c.Arc(x, y, size/2)
		r.setColor(s.Stroke)
		r.c.SetLineWidth(0.5)
		r.c.Stroke()
	}
}

func (r *renderer) marker(data []byte, size int) (image.Image, error) {
	key := fmt.Sprintf("%d:%s", size, data)
	if img, ok := r.markers[key]; ok {
		return img, nil
	}
	img, err := raster.Marker(data, size, size)
	if err != nil {
		return nil, err
	}
	r.markers[key] = img
	return img, nil
}

// placeable reports whether a symbol occupying box may be drawn given the
// map edges, the label buffer and the symbols placed so far.
func (r *renderer) placeable(box Box, avoidEdges, allowOverlap bool) bool {
	w, h := float64(r.m.width), float64(r.m.height)
	if avoidEdges && !(Box{MaxX: w, MaxY: h}).Contains(box) {
		return false
	}
	buf := float64(r.m.BufferSize)
	cx, cy := box.Center()
	if !(Box{MinX: -buf, MinY: -buf, MaxX: w + buf, MaxY: h + buf}).ContainsPoint(cx, cy) {
		return false
	}
	if allowOverlap {
		return true
	}
	for _, p := range r.placed {
		if p.Intersect(box).Valid() && p.Intersect(box).Width() > 0 && p.Intersect(box).Height() > 0 {
			return false
		}
	}
	return true
}

func (r *renderer) drawLabels() {
	for _, l := range r.labels {
		size := l.sym.Size
		if size <= 0 {
			size = defaultTextSize
		}
		w := r.c.TextWidth(l.text, size)
		box := Box{MinX: l.x - w/2, MinY: l.y - size/2, MaxX: l.x + w/2, MaxY: l.y + size/2}
		if !r.placeable(box, l.sym.AvoidEdges, l.sym.AllowOverlap) {
			continue
		}
		if !l.sym.AllowOverlap {
			r.placed = append(r.placed, box)
		}
		baseline := l.y + size*0.35
		if rad := l.sym.HaloRadius; rad > 0 && !l.sym.Halo.Transparent() {
			r.setColor(l.sym.Halo)
			for _, d := range [][2]float64{{-1, -1}, {0, -1}, {1, -1}, {-1, 0}, {1, 0}, {-1, 1}, {0, 1}, {1, 1}} {
				r.c.ShowText(box.MinX+d[0]*rad, baseline+d[1]*rad, l.text, size)
			}
		}
		r.setColor(colorOr(l.sym.Fill, Black))
		r.c.ShowText(box.MinX, baseline, l.text, size)
	}
}

func colorOr(c, def Color) Color {
	if c == (Color{}) {
		return def
	}
	return c
}

var fieldRef = regexp.MustCompile(`\[([^\]]+)\]`)

// labelText resolves a label field. A bare attribute name yields that
// attribute; a template such as "[name] ([ele] m)" has each reference
// replaced.
func labelText(field string, f *Feature) string {
	if field == "" {
		return ""
	}
	if !fieldRef.MatchString(field) {
		v, ok := f.Get(field)
		if !ok || v == nil {
			return ""
		}
		return fmt.Sprint(v)
	}
	return fieldRef.ReplaceAllStringFunc(field, func(ref string) string {
		v, ok := f.Get(ref[1 : len(ref)-1])
		if !ok || v == nil {
			return ""
		}
		return fmt.Sprint(v)
	})
}

func polygons(g orb.Geometry) []orb.Polygon {
	switch v := g.(type) {
	case orb.Polygon:
		return []orb.Polygon{v}
	case orb.MultiPolygon:
		return v
	case orb.Ring:
		return []orb.Polygon{{v}}
	case orb.Bound:
		return []orb.Polygon{v.ToPolygon()}
	case orb.Collection:
		var out []orb.Polygon
		for _, c := range v {
			out = append(out, polygons(c)...)
		}
		return out
	}
	return nil
}

func linework(g orb.Geometry) (lines []orb.LineString, rings []orb.Ring) {
	switch v := g.(type) {
	case orb.LineString:
		lines = append(lines, v)
	case orb.MultiLineString:
		lines = append(lines, v...)
	case orb.Ring:
		rings = append(rings, v)
	case orb.Polygon:
		rings = append(rings, v...)
	case orb.MultiPolygon:
		for _, p := range v {
			rings = append(rings, p...)
		}
	case orb.Bound:
		rings = append(rings, v.ToRing())
	case orb.Collection:
		for _, c := range v {
			l, r := linework(c)
			lines = append(lines, l...)
			rings = append(rings, r...)
		}
	}
	return lines, rings
}

// anchors returns the points at which markers and labels are placed.
func anchors(g orb.Geometry) []orb.Point {
	switch v := g.(type) {
	case orb.Point:
		return []orb.Point{v}
	case orb.MultiPoint:
		return v
	case orb.LineString:
		if len(v) == 0 {
			return nil
		}
		return []orb.Point{v[len(v)/2]}
	case orb.Collection:
		var out []orb.Point
		for _, c := range v {
			out = append(out, anchors(c)...)
		}
		return out
	case nil:
		return nil
	}
	return []orb.Point{g.Bound().Center()}
}
