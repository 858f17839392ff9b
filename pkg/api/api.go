package api

import (
	"errors"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/mapprint/mapprint/internal/layout"
	"github.com/mapprint/mapprint/internal/ocg"
	"github.com/mapprint/mapprint/internal/render/pdf"
	"github.com/mapprint/mapprint/internal/text"
	"github.com/mapprint/mapprint/internal/units"
	"github.com/mapprint/mapprint/pkg/carto"
)

// ErrNoSurface is returned by drawing calls made before RenderMap or
// after Finish.
var ErrNoSurface = errors.New("no drawing surface, render a map first")

// Page names of the optional content groups the printer creates.
const (
	BackgroundLayerName = "Map Background"
	GridLayerName       = "Coordinates Grid Overlay"
	GraticuleLayerName  = "Graticule"
	InfoLayerName       = "Legend and Information"
)

const producer = "mapprint"

// TextOptions control WriteText.
type TextOptions = text.Options

// TextExtents is the area covered by text drawn with WriteText, in points.
type TextExtents = text.Extents

// Printer is the main API for laying out a map on a PDF page. A printer
// renders a single document: RenderMap starts it, the Render* calls add
// to it and Finish writes it out.
type Printer struct {
	options Options
	page    layout.Page
	text    text.Renderer
	logger  *log.Logger

	surface    *pdf.Surface
	filename   string
	layerNames []string

	mapBox  carto.Box
	hasMap  bool
	rounded float64
}

// New creates a printer with default options modified by opts.
func New(opts ...Option) (*Printer, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return NewWithOptions(o)
}

// NewWithOptions creates a printer with the specified options.
func NewWithOptions(o Options) (*Printer, error) {
	ps := o.PageSize
	if ps.Width <= 0 || ps.Height <= 0 {
		return nil, fmt.Errorf("invalid page size %gx%g", ps.Width, ps.Height)
	}
	if o.Margin < 0 {
		return nil, fmt.Errorf("invalid margin %g", o.Margin)
	}
	if o.Resolution <= 0 {
		return nil, fmt.Errorf("invalid resolution %g", o.Resolution)
	}

	box := o.Box
	if o.PercentBox != nil {
		b := layout.PercentBox(*o.PercentBox, ps.Width, ps.Height)
		box = &b
	}
	scale := o.ScaleFunc
	if scale == nil || !o.PreserveAspect {
		scale = AnyScale
	}
	page := layout.Page{
		Width:          ps.Width,
		Height:         ps.Height,
		Margin:         o.Margin,
		Box:            box,
		Scale:          scale,
		PreserveAspect: o.PreserveAspect,
		Centering:      o.Centering,
	}
	if area := page.RenderArea(); !area.Valid() || area.Width() <= 0 || area.Height() <= 0 {
		return nil, fmt.Errorf("empty render area %v", area)
	}

	logger := o.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Printer{
		options: o,
		page:    page,
		text:    text.New(o.TextMode),
		logger:  logger,
	}, nil
}

// Width returns the page width in meters.
func (p *Printer) Width() float64 { return p.options.PageSize.Width }

// Height returns the page height in meters.
func (p *Printer) Height() float64 { return p.options.PageSize.Height }

// Margin returns the page margin in meters.
func (p *Printer) Margin() float64 { return p.options.Margin }

// MapBox returns where the last RenderMap placed the map, in meters from
// the top left corner of the page.
func (p *Printer) MapBox() carto.Box { return p.mapBox }

// RoundedScale returns the map scale chosen by the last RenderMap, in map
// units per page meter. For projected maps this is the N of "1:N".
func (p *Printer) RoundedScale() float64 { return p.rounded }

// LayerNames returns the names of the pages emitted so far.
func (p *Printer) LayerNames() []string { return slices.Clone(p.layerNames) }

// Surface gives access to the drawing surface so that extra elements can
// be drawn on the page. Coordinates are points from the top left corner.
// It is nil before RenderMap.
func (p *Printer) Surface() *pdf.Surface { return p.surface }

// RenderMap starts a document written to filename on Finish and draws m
// in it: first the background, then every layer. m is resized so that its
// raster elements match the resolution.
func (p *Printer) RenderMap(m *carto.Map, filename string) error {
	env := m.Envelope()
	if !env.Valid() || env.Width() <= 0 || env.Height() <= 0 {
		return fmt.Errorf("map has no extent %v, zoom it first", env)
	}

	s, err := pdf.New(units.M2Pt(p.options.PageSize.Width), units.M2Pt(p.options.PageSize.Height), pdf.Options{
		FontName: p.options.FontName,
		FontDirs: p.options.FontDirectories,
		Title:    p.options.Title,
		Author:   p.options.Author,
		Subject:  p.options.Subject,
		Keywords: p.options.Keywords,
		Creator:  producer,
		Producer: producer,
		Logger:   p.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create surface: %w", err)
	}
	p.surface = s
	p.filename = filename
	p.layerNames = nil

	mapW, mapH, rounded := p.page.MapRenderSize(env)
	pw, ph := layout.PixelSize(mapW, mapH, p.options.Resolution)
	if pw <= 0 || ph <= 0 {
		return fmt.Errorf("map size %dx%d pixels is empty", pw, ph)
	}
	m.Resize(pw, ph)

	tx, ty := p.page.RenderCorner(mapW, mapH, m.Envelope())
	p.mapBox = carto.NewBox(tx, ty, tx+mapW, ty+mapH)
	p.rounded = rounded
	p.hasMap = true

	p.logger.Debug("placing map",
		"area", p.page.RenderArea(),
		"scale", rounded,
		"box", p.mapBox,
		"pixels", fmt.Sprintf("%dx%d", pw, ph))

	if err := p.renderBackground(m, tx, ty); err != nil {
		return err
	}
	return p.renderLayers(m, tx, ty)
}

func (p *Printer) renderBackground(m *carto.Map, tx, ty float64) error {
	if m.Background.Transparent() && m.BackgroundImage == nil {
		return nil
	}
	bg := carto.NewMap(m.Width(), m.Height(), m.SRS())
	bg.Background = m.Background
	bg.BackgroundImage = m.BackgroundImage
	bg.ZoomToBox(m.Envelope())
	if err := p.renderLayerMap(bg, tx, ty); err != nil {
		return fmt.Errorf("render background: %w", err)
	}
	if p.options.UseOCGLayers {
		p.showPage(BackgroundLayerName)
	}
	return nil
}

func (p *Printer) renderLayers(m *carto.Map, tx, ty float64) error {
	for _, l := range m.Layers {
		lm := layerMap(m, l)
		if err := p.renderLayerMap(lm, tx, ty); err != nil {
			return err
		}
		if p.MapSpansAntimeridian(m) {
			env := m.Envelope()
			delta := -360.0
			if env.MinX < -180 {
				delta = 360
			}
			lm.ZoomToBox(env.Translate(delta, 0))
			if err := p.renderLayerMap(lm, tx, ty); err != nil {
				return err
			}
		}
		if p.options.UseOCGLayers {
			p.showPage(l.Name)
		}
	}
	return nil
}

// layerMap returns a map showing only l, with m's size and extent.
func layerMap(m *carto.Map, l *carto.Layer) *carto.Map {
	lm := carto.NewMap(m.Width(), m.Height(), m.SRS())
	lm.BufferSize = m.BufferSize
	for _, name := range l.Styles {
		if st, ok := m.FindStyle(name); ok {
			lm.AppendStyle(name, st)
		}
	}
	lm.AddLayer(l)
	lm.ZoomToBox(m.Envelope())
	return lm
}

// renderLayerMap draws lm with its top left corner at (tx, ty) meters,
// scaling pixels to points and clipping to the map.
func (p *Printer) renderLayerMap(lm *carto.Map, tx, ty float64) error {
	s := p.surface
	s.Save()
	defer s.Restore()

	f := units.PointsPerInch / p.options.Resolution
	s.Translate(units.M2Pt(tx), units.M2Pt(ty))
	s.Scale(f, f)
	s.Rectangle(0, 0, float64(lm.Width()), float64(lm.Height()))
	s.Clip()
	return carto.Render(lm, s)
}

// MapSpansAntimeridian reports whether a lat/lon map extends past ±180°.
func (p *Printer) MapSpansAntimeridian(m *carto.Map) bool {
	env := m.Envelope()
	return p.options.IsLatLon && (env.MinX < -180 || env.MaxX > 180)
}

func (p *Printer) showPage(name string) {
	p.surface.ShowPage()
	p.layerNames = append(p.layerNames, name)
}

// WriteText draws markup with its top left corner at the current point of
// the surface and returns the extents of the drawn text in points.
func (p *Printer) WriteText(markup string, o TextOptions) (TextExtents, error) {
	if p.surface == nil {
		return TextExtents{}, ErrNoSurface
	}
	return p.text.Draw(p.surface, markup, o), nil
}

// MetaInfoCorner returns where the scale bar and legend go by default, in
// meters from the top left corner of the page: below the map when it
// fills the width of the render area, right of it otherwise.
func (p *Printer) MetaInfoCorner(m *carto.Map) (x, y float64) {
	return p.page.MetaInfoCorner(p.mapBox.Width(), p.mapBox.Height(), m.Envelope())
}

// Finish writes the document. With optional content layers the pages are
// then merged into one, the last page becoming the "Legend and
// Information" layer.
func (p *Printer) Finish() error {
	if p.surface == nil {
		return ErrNoSurface
	}
	s := p.surface
	p.surface = nil
	if p.options.UseOCGLayers {
		s.BeginPage()
	}
	if err := s.CloseFile(p.filename); err != nil {
		return fmt.Errorf("failed to write %s: %w", p.filename, err)
	}
	p.logger.Debug("document written", "file", p.filename, "pages", s.PageCount())

	if !p.options.UseOCGLayers {
		return nil
	}
	names := append(p.LayerNames(), InfoLayerName)
	return p.ConvertPDFPagesToLayers(p.filename, names, true)
}

// ConvertPDFPagesToLayers merges the pages of the PDF at filename into a
// single page, each former page becoming an optional content layer named
// after names. Pages without a name are called "Layer N".
func (p *Printer) ConvertPDFPagesToLayers(filename string, names []string, reverseAllButLast bool) error {
	if err := ocg.Convert(filename, names, reverseAllButLast); err != nil {
		return fmt.Errorf("failed to convert pages to layers: %w", err)
	}
	return nil
}
