package api

import (
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/mapprint/mapprint/internal/layout"
	"github.com/mapprint/mapprint/internal/scales"
	"github.com/mapprint/mapprint/internal/text"
	"github.com/mapprint/mapprint/pkg/carto"
)

// PageSize is the size of a sheet of paper in meters.
type PageSize struct {
	Width, Height float64
}

// Landscape returns the page turned so that it is wider than tall.
func (p PageSize) Landscape() PageSize {
	if p.Width < p.Height {
		return PageSize{Width: p.Height, Height: p.Width}
	}
	return p
}

// Portrait returns the page turned so that it is taller than wide.
func (p PageSize) Portrait() PageSize {
	if p.Width > p.Height {
		return PageSize{Width: p.Height, Height: p.Width}
	}
	return p
}

// Standard page sizes in meters, portrait
var (
	// A series
	PageSizeA0 = PageSize{0.841, 1.189}
	PageSizeA1 = PageSize{0.594, 0.841}
	PageSizeA2 = PageSize{0.420, 0.594}
	PageSizeA3 = PageSize{0.297, 0.420}
	PageSizeA4 = PageSize{0.210, 0.297}
	PageSizeA5 = PageSize{0.148, 0.210}
	PageSizeA6 = PageSize{0.105, 0.148}

	// US Letter, Legal and Tabloid
	PageSizeLetter  = PageSize{0.2159, 0.2794}
	PageSizeLegal   = PageSize{0.2159, 0.3556}
	PageSizeTabloid = PageSize{0.2794, 0.4318}
)

var pageSizes = map[string]PageSize{
	"a0":      PageSizeA0,
	"a1":      PageSizeA1,
	"a2":      PageSizeA2,
	"a3":      PageSizeA3,
	"a4":      PageSizeA4,
	"a5":      PageSizeA5,
	"a6":      PageSizeA6,
	"letter":  PageSizeLetter,
	"legal":   PageSizeLegal,
	"tabloid": PageSizeTabloid,
}

// PageSizeByName looks up a standard page size such as "a4" or "letter".
// A trailing "l" selects the landscape variant: "a4l".
func PageSizeByName(name string) (PageSize, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if ps, ok := pageSizes[name]; ok {
		return ps, true
	}
	if base, ok := strings.CutSuffix(name, "l"); ok {
		if ps, ok := pageSizes[base]; ok {
			return ps.Landscape(), true
		}
	}
	return PageSize{}, false
}

// PageSizeNames returns the names PageSizeByName knows, sorted.
func PageSizeNames() []string {
	return slices.Sorted(maps.Keys(pageSizes))
}

// MetaPadding separates the map from the scale bar and legend, in meters.
const MetaPadding = layout.MetaPadding

// Resolutions for raster elements, in dots per inch.
const (
	DPI72  = 72.0
	DPI150 = 150.0
	DPI300 = 300.0
	DPI600 = 600.0
)

// Centering selects how a map smaller than the render area is placed.
type Centering = layout.Centering

const (
	CenteringNone              = layout.CenteringNone
	CenteringConstrainedAxis   = layout.CenteringConstrainedAxis
	CenteringUnconstrainedAxis = layout.CenteringUnconstrainedAxis
	CenteringVertical          = layout.CenteringVertical
	CenteringHorizontal        = layout.CenteringHorizontal
	CenteringBoth              = layout.CenteringBoth
)

// ParseCentering parses "none", "constrained", "unconstrained",
// "vertical", "horizontal" or "both".
func ParseCentering(s string) (Centering, bool) {
	return layout.ParseCentering(strings.ToLower(strings.TrimSpace(s)))
}

// ScaleFunc rounds a 1:x map scale up to a value that reads well.
type ScaleFunc = scales.Func

// Scale rounding functions
var (
	AnyScale       ScaleFunc = scales.Any
	DefaultScale   ScaleFunc = scales.Default
	DegMinSecScale ScaleFunc = scales.DegMinSec
)

// SequenceScale rounds up to the next value of seq times a power of ten.
func SequenceScale(seq ...float64) ScaleFunc {
	return scales.SequenceFunc(seq...)
}

// TextMode selects how legend and scale text is laid out.
type TextMode = text.Mode

const (
	// TextMarkup lays out pango style markup with wrapping.
	TextMarkup = text.ModeMarkup
	// TextPlain draws single unstyled lines.
	TextPlain = text.ModePlain
)

// Options represents configuration options for the printer. Lengths are
// in meters.
type Options struct {
	PageSize PageSize
	Margin   float64

	// Box restricts the map to part of the page. PercentBox does the same
	// with fractions of the page size and wins over Box.
	Box        *carto.Box
	PercentBox *[4]float64

	// ScaleFunc rounds the map scale. It is ignored when PreserveAspect
	// is off.
	ScaleFunc ScaleFunc
	// Resolution of raster elements in DPI.
	Resolution     float64
	PreserveAspect bool
	Centering      Centering

	// IsLatLon marks maps in geographic degrees.
	IsLatLon bool
	// UseOCGLayers turns every rendered layer into a PDF optional
	// content group of a single page document.
	UseOCGLayers bool

	FontName        string
	FontDirectories []string
	TextMode        TextMode
	// Locale groups the digits of the representative fraction, e.g.
	// "en" or "de". Empty prints plain digits.
	Locale string

	// Document metadata
	Title    string
	Author   string
	Subject  string
	Keywords string

	Logger *log.Logger
}

// Option is a function that modifies Options
type Option func(*Options)

// DefaultOptions returns the default options
func DefaultOptions() Options {
	return Options{
		PageSize:       PageSizeA4,
		Margin:         0.005,
		ScaleFunc:      DefaultScale,
		Resolution:     DPI72,
		PreserveAspect: true,
		Centering:      CenteringConstrainedAxis,
		TextMode:       TextMarkup,
	}
}

// WithPageSize sets the page size
func WithPageSize(ps PageSize) Option {
	return func(o *Options) {
		o.PageSize = ps
	}
}

// WithMargin sets the page margin
func WithMargin(margin float64) Option {
	return func(o *Options) {
		o.Margin = margin
	}
}

// WithBox restricts the map to a box on the page
func WithBox(b carto.Box) Option {
	return func(o *Options) {
		o.Box = &b
	}
}

// WithPercentBox restricts the map to a box given in fractions of the page
func WithPercentBox(x0, y0, x1, y1 float64) Option {
	return func(o *Options) {
		o.PercentBox = &[4]float64{x0, y0, x1, y1}
	}
}

// WithScaleFunc sets the scale rounding function
func WithScaleFunc(f ScaleFunc) Option {
	return func(o *Options) {
		o.ScaleFunc = f
	}
}

// WithResolution sets the raster resolution in DPI
func WithResolution(dpi float64) Option {
	return func(o *Options) {
		o.Resolution = dpi
	}
}

// WithPreserveAspect sets whether the map keeps its aspect ratio
func WithPreserveAspect(preserve bool) Option {
	return func(o *Options) {
		o.PreserveAspect = preserve
	}
}

// WithCentering sets the centering mode
func WithCentering(c Centering) Option {
	return func(o *Options) {
		o.Centering = c
	}
}

// WithLatLon marks the map as geographic
func WithLatLon(latlon bool) Option {
	return func(o *Options) {
		o.IsLatLon = latlon
	}
}

// WithOCGLayers enables PDF optional content layers
func WithOCGLayers(use bool) Option {
	return func(o *Options) {
		o.UseOCGLayers = use
	}
}

// WithFont sets the text font
func WithFont(name string) Option {
	return func(o *Options) {
		o.FontName = name
	}
}

// WithFontDirectory adds a directory to search for fonts
func WithFontDirectory(dir string) Option {
	return func(o *Options) {
		o.FontDirectories = append(o.FontDirectories, dir)
	}
}

// WithTextMode sets the text renderer
func WithTextMode(m TextMode) Option {
	return func(o *Options) {
		o.TextMode = m
	}
}

// WithLocale sets the locale used to format numbers
func WithLocale(locale string) Option {
	return func(o *Options) {
		o.Locale = locale
	}
}

// WithTitle sets the document title
func WithTitle(title string) Option {
	return func(o *Options) {
		o.Title = title
	}
}

// WithAuthor sets the document author
func WithAuthor(author string) Option {
	return func(o *Options) {
		o.Author = author
	}
}

// WithSubject sets the document subject
func WithSubject(subject string) Option {
	return func(o *Options) {
		o.Subject = subject
	}
}

// WithKeywords sets the document keywords
func WithKeywords(keywords string) Option {
	return func(o *Options) {
		o.Keywords = keywords
	}
}

// WithLogger sets the logger
func WithLogger(l *log.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}
