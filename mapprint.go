// Package mapprint lays out styled vector maps on printable PDF pages with
// a scale bar, grids, a legend, optional content layers and a geospatial
// header.
package mapprint

import (
	"github.com/mapprint/mapprint/pkg/api"
)

type Printer = api.Printer
type Options = api.Options
type Option = api.Option
type PageSize = api.PageSize
type Centering = api.Centering
type ScaleFunc = api.ScaleFunc
type ScaleOptions = api.ScaleOptions
type LegendOptions = api.LegendOptions
type GeoOptions = api.GeoOptions

func New(opts ...Option) (*Printer, error)             { return api.New(opts...) }
func NewWithOptions(options Options) (*Printer, error) { return api.NewWithOptions(options) }
func DefaultOptions() Options                          { return api.DefaultOptions() }
func DefaultScaleOptions() ScaleOptions                { return api.DefaultScaleOptions() }
func DefaultLegendOptions() LegendOptions              { return api.DefaultLegendOptions() }

var (
	WithPageSize       = api.WithPageSize
	WithMargin         = api.WithMargin
	WithBox            = api.WithBox
	WithPercentBox     = api.WithPercentBox
	WithScaleFunc      = api.WithScaleFunc
	WithResolution     = api.WithResolution
	WithPreserveAspect = api.WithPreserveAspect
	WithCentering      = api.WithCentering
	WithLatLon         = api.WithLatLon
	WithOCGLayers      = api.WithOCGLayers
	WithFont           = api.WithFont
	WithFontDirectory  = api.WithFontDirectory
	WithTextMode       = api.WithTextMode
	WithLocale         = api.WithLocale
	WithTitle          = api.WithTitle
	WithAuthor         = api.WithAuthor
	WithSubject        = api.WithSubject
	WithKeywords       = api.WithKeywords
	WithLogger         = api.WithLogger

	PageSizeByName = api.PageSizeByName
	PageSizeNames  = api.PageSizeNames
	ParseCentering = api.ParseCentering
	SequenceScale  = api.SequenceScale
	GeoOptionsFor  = api.GeoOptionsFor

	AnyScale       = api.AnyScale
	DefaultScale   = api.DefaultScale
	DegMinSecScale = api.DegMinSecScale

	PageSizeA0      = api.PageSizeA0
	PageSizeA1      = api.PageSizeA1
	PageSizeA2      = api.PageSizeA2
	PageSizeA3      = api.PageSizeA3
	PageSizeA4      = api.PageSizeA4
	PageSizeA5      = api.PageSizeA5
	PageSizeA6      = api.PageSizeA6
	PageSizeLetter  = api.PageSizeLetter
	PageSizeLegal   = api.PageSizeLegal
	PageSizeTabloid = api.PageSizeTabloid

	ErrNoSurface = api.ErrNoSurface
)

const (
	DPI72  = api.DPI72
	DPI150 = api.DPI150
	DPI300 = api.DPI300
	DPI600 = api.DPI600

	CenteringNone              = api.CenteringNone
	CenteringConstrainedAxis   = api.CenteringConstrainedAxis
	CenteringUnconstrainedAxis = api.CenteringUnconstrainedAxis
	CenteringVertical          = api.CenteringVertical
	CenteringHorizontal        = api.CenteringHorizontal
	CenteringBoth              = api.CenteringBoth

	TextMarkup = api.TextMarkup
	TextPlain  = api.TextPlain
)
