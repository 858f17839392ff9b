package carto

import (
	"image"
	"math"
)

// DefaultSRS is the spatial reference of maps created without one.
const DefaultSRS = "epsg:4326"

// Layer binds a datasource to the styles drawing it.
type Layer struct {
	Name       string
	SRS        string
	Datasource Datasource
	Styles     []string
	Active     bool
}

// NewLayer returns an active layer.
func NewLayer(name, srs string) *Layer {
	return &Layer{Name: name, SRS: srs, Active: true}
}

// Map is a sized view onto styled layers. Its envelope always matches the
// aspect ratio of its pixel size.
type Map struct {
	width, height int
	srs           string
	env           Box

	Background      Color
	BackgroundImage image.Image
	// BufferSize is the margin in pixels around the map within which
	// labels may still be placed.
	BufferSize int

	Layers []*Layer

	styles     map[string]*Style
	styleNames []string
}

// NewMap returns an empty map of the given pixel size.
func NewMap(width, height int, srs string) *Map {
	if srs == "" {
		srs = DefaultSRS
	}
	return &Map{
		width:  width,
		height: height,
		srs:    srs,
		env:    EmptyBox(),
		styles: map[string]*Style{},
	}
}

func (m *Map) Width() int    { return m.width }
func (m *Map) Height() int   { return m.height }
func (m *Map) SRS() string   { return m.srs }
func (m *Map) Envelope() Box { return m.env }

// Projection parses the map's spatial reference.
func (m *Map) Projection() (Projection, error) {
	return ParseProjection(m.srs)
}

// IsGeographic reports whether map units are degrees.
func (m *Map) IsGeographic() bool {
	p, err := m.Projection()
	return err == nil && p.IsGeographic()
}

// AppendStyle registers a style under name, replacing any previous one.
func (m *Map) AppendStyle(name string, s *Style) {
	if _, ok := m.styles[name]; !ok {
		m.styleNames = append(m.styleNames, name)
	}
	m.styles[name] = s
}

// FindStyle returns the named style.
func (m *Map) FindStyle(name string) (*Style, bool) {
	s, ok := m.styles[name]
	return s, ok
}

// StyleNames returns the registered style names in insertion order.
func (m *Map) StyleNames() []string {
	return append([]string(nil), m.styleNames...)
}

// AddLayer appends a layer on top of the existing ones.
func (m *Map) AddLayer(l *Layer) {
	m.Layers = append(m.Layers, l)
}

// Resize changes the pixel size and grows the envelope to the new aspect
// ratio.
func (m *Map) Resize(width, height int) {
	m.width, m.height = width, height
	m.fixAspect()
}

// ZoomToBox sets the envelope, growing it to the map's aspect ratio.
func (m *Map) ZoomToBox(b Box) {
	m.env = b
	m.fixAspect()
}

// ZoomAll zooms to the union of all active layer extents.
func (m *Map) ZoomAll() {
	mp, err := m.Projection()
	if err != nil {
		return
	}
	ext := EmptyBox()
	for _, l := range m.Layers {
		if !l.Active || l.Datasource == nil {
			continue
		}
		env := l.Datasource.Envelope()
		if lp, err := ParseProjection(l.srsOr(m.srs)); err == nil {
			env = ReprojectBox(lp, mp, env)
		}
		ext = ext.Union(env)
	}
	if !ext.Valid() {
		return
	}
	switch w, h := ext.Width(), ext.Height(); {
	case w == 0 && h == 0:
		ext = Box{MinX: ext.MinX - 1, MinY: ext.MinY - 1, MaxX: ext.MaxX + 1, MaxY: ext.MaxY + 1}
	case h == 0:
		ext.MinY, ext.MaxY = ext.MinY-w/2, ext.MaxY+w/2
	case w == 0:
		ext.MinX, ext.MaxX = ext.MinX-h/2, ext.MaxX+h/2
	}
	m.ZoomToBox(ext)
}

// Zoom scales the envelope about its center; f > 1 zooms out.
func (m *Map) Zoom(f float64) {
	m.env = m.env.Scale(f)
}

// Scale returns map units per pixel.
func (m *Map) Scale() float64 {
	if m.width <= 0 {
		return 0
	}
	return m.env.Width() / float64(m.width)
}

// ScaleDenominator returns N of the map's 1:N scale assuming 0.28 mm
// pixels.
func (m *Map) ScaleDenominator() float64 {
	return ScaleDenominator(m.Scale(), m.IsGeographic())
}

// ScaleDenominator converts map units per pixel to a 1:N scale
// denominator.
func ScaleDenominator(scale float64, geographic bool) float64 {
	const (
		pixelSize    = 0.00028
		metersPerDeg = 6378137 * 2 * math.Pi / 360
	)
	d := scale / pixelSize
	if geographic {
		d *= metersPerDeg
	}
	return d
}

// ViewTransform maps envelope coordinates to pixels.
func (m *Map) ViewTransform() ViewTransform {
	return ViewTransform{Width: float64(m.width), Height: float64(m.height), Extent: m.env}
}

func (m *Map) fixAspect() {
	if m.width <= 0 || m.height <= 0 || !m.env.Valid() || m.env.Width() == 0 || m.env.Height() == 0 {
		return
	}
	want := float64(m.width) / float64(m.height)
	have := m.env.Width() / m.env.Height()
	cx, cy := m.env.Center()
	switch {
	case have > want:
		h := m.env.Width() / want
		m.env.MinY, m.env.MaxY = cy-h/2, cy+h/2
	case have < want:
		w := m.env.Height() * want
		m.env.MinX, m.env.MaxX = cx-w/2, cx+w/2
	}
}

func (l *Layer) srsOr(def string) string {
	if l.SRS == "" {
		return def
	}
	return l.SRS
}

// ViewTransform converts between map coordinates and pixel coordinates
// with the origin at the top left corner.
type ViewTransform struct {
	Width, Height float64
	Extent        Box
}

// Forward converts map coordinates to pixels.
func (t ViewTransform) Forward(x, y float64) (px, py float64) {
	px = (x - t.Extent.MinX) / t.Extent.Width() * t.Width
	py = (t.Extent.MaxY - y) / t.Extent.Height() * t.Height
	return px, py
}

// Backward converts pixels to map coordinates.
func (t ViewTransform) Backward(px, py float64) (x, y float64) {
	x = t.Extent.MinX + px/t.Width*t.Extent.Width()
	y = t.Extent.MaxY - py/t.Height*t.Extent.Height()
	return x, y
}
