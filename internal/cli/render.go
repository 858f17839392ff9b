package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mapprint/mapprint/internal/parser/mapfile"
	"github.com/mapprint/mapprint/internal/units"
	"github.com/mapprint/mapprint/pkg/api"
	"github.com/mapprint/mapprint/pkg/carto"
)

const (
	defaultPageSize  = "a4"
	defaultCentering = "constrained"
	defaultScaleFunc = "default"
	defaultTextMode  = "markup"
)

// renderOpts holds the settings of the render command after flags, config
// file and environment are merged.
type renderOpts struct {
	output     string
	pageSize   api.PageSize
	margin     float64
	dpi        float64
	percentBox *[4]float64
	centering  api.Centering
	scaleFunc  api.ScaleFunc
	noAspect   bool
	latlon     bool
	ocg        bool
	textMode   api.TextMode
	locale     string
	font       string
	fontDirs   []string
	title      string
	author     string

	scaleBar      bool
	legend        bool
	legendColumns int
	grid          bool
	graticule     bool
	decDegrees    bool
	geo           bool
	epsg          int
	wkt           string
}

func (c *CLI) renderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render [map.toml]",
		Short: "Render a map file to PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.renderOptions(args[0])
			if err != nil {
				return err
			}
			return runRender(cmd.Context(), args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringP("output", "o", "", "output PDF (default: map file name with .pdf)")
	f.String("page-size", defaultPageSize, "page size name, a trailing l for landscape (a4, a3l, letter, ...)")
	f.Float64("margin", api.DefaultOptions().Margin, "page margin in meters")
	f.Float64("dpi", api.DPI72, "resolution of raster elements")
	f.String("box", "", "area of the page for the map as x0,y0,x1,y1 fractions of the page")
	f.String("centering", defaultCentering, "none, constrained, unconstrained, vertical, horizontal or both")
	f.String("scale-func", defaultScaleFunc, "scale rounding: any, default, degminsec or a comma separated sequence")
	f.Bool("no-aspect", false, "stretch the map to the render area")
	f.Bool("latlon", false, "treat map units as degrees (implied by geographic maps)")
	f.Bool("ocg", false, "put layers and overlays in optional content groups")
	f.String("text-mode", defaultTextMode, "markup or plain")
	f.String("locale", "", "locale for number formatting (e.g. de)")
	f.String("font", "", "TrueType font name or file for legend and labels")
	f.StringSlice("font-dir", nil, "directories searched for fonts")
	f.String("title", "", "document title")
	f.String("author", "", "document author")

	f.Bool("scale", true, "draw the scale bar and representative fraction")
	f.Bool("legend", true, "draw the legend")
	f.Int("legend-columns", api.DefaultLegendOptions().Columns, "legend columns")
	f.Bool("grid", false, "draw a coordinate grid")
	f.Bool("graticule", false, "draw a graticule of meridians and parallels")
	f.Bool("dec-degrees", false, "label the graticule in decimal degrees")
	f.Bool("geo", false, "add a geospatial PDF header")
	f.Int("epsg", 0, "EPSG code for the geospatial header (default: from the map)")
	f.String("wkt", "", "WKT for the geospatial header (default: from the map)")

	return cmd
}

// renderOptions reads and validates the render settings.
func (c *CLI) renderOptions(input string) (*renderOpts, error) {
	v := c.settings
	opts := &renderOpts{
		output:        v.GetString("output"),
		margin:        v.GetFloat64("margin"),
		dpi:           v.GetFloat64("dpi"),
		noAspect:      v.GetBool("no-aspect"),
		latlon:        v.GetBool("latlon"),
		ocg:           v.GetBool("ocg"),
		locale:        v.GetString("locale"),
		font:          v.GetString("font"),
		fontDirs:      v.GetStringSlice("font-dir"),
		title:         v.GetString("title"),
		author:        v.GetString("author"),
		scaleBar:      v.GetBool("scale"),
		legend:        v.GetBool("legend"),
		legendColumns: v.GetInt("legend-columns"),
		grid:          v.GetBool("grid"),
		graticule:     v.GetBool("graticule"),
		decDegrees:    v.GetBool("dec-degrees"),
		geo:           v.GetBool("geo"),
		epsg:          v.GetInt("epsg"),
		wkt:           v.GetString("wkt"),
	}
	if opts.output == "" {
		opts.output = strings.TrimSuffix(input, filepath.Ext(input)) + ".pdf"
	}

	var ok bool
	if opts.pageSize, ok = api.PageSizeByName(v.GetString("page-size")); !ok {
		return nil, fmt.Errorf("invalid page size: %s", v.GetString("page-size"))
	}
	if opts.centering, ok = api.ParseCentering(v.GetString("centering")); !ok {
		return nil, fmt.Errorf("invalid centering: %s", v.GetString("centering"))
	}

	var err error
	if opts.scaleFunc, err = parseScaleFunc(v.GetString("scale-func")); err != nil {
		return nil, err
	}
	if opts.textMode, err = parseTextMode(v.GetString("text-mode")); err != nil {
		return nil, err
	}
	if box := v.GetString("box"); box != "" {
		vals, err := parseFloats(box, 4)
		if err != nil {
			return nil, fmt.Errorf("invalid box: %w", err)
		}
		opts.percentBox = &[4]float64{vals[0], vals[1], vals[2], vals[3]}
	}
	return opts, nil
}

// parseScaleFunc accepts the names of the built in rounding functions or a
// comma separated sequence of mantissas.
func parseScaleFunc(s string) (api.ScaleFunc, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return api.DefaultScale, nil
	case "any":
		return api.AnyScale, nil
	case "degminsec":
		return api.DegMinSecScale, nil
	}
	seq, err := parseFloats(s, 0)
	if err != nil {
		return nil, fmt.Errorf("invalid scale function: %s (must be 'any', 'default', 'degminsec' or numbers)", s)
	}
	return api.SequenceScale(seq...), nil
}

func parseTextMode(s string) (api.TextMode, error) {
	switch strings.ToLower(s) {
	case "markup":
		return api.TextMarkup, nil
	case "plain":
		return api.TextPlain, nil
	}
	return api.TextMarkup, fmt.Errorf("invalid text mode: %s (must be 'markup' or 'plain')", s)
}

// parseFloats parses a comma separated list of n numbers, or of any
// positive count when n is zero.
func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if n > 0 && len(parts) != n {
		return nil, fmt.Errorf("need %d values, got %d", n, len(parts))
	}
	vals := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		vals[i] = f
	}
	return vals, nil
}

func (o *renderOpts) printerOptions(m *carto.Map) []api.Option {
	opts := []api.Option{
		api.WithPageSize(o.pageSize),
		api.WithMargin(o.margin),
		api.WithResolution(o.dpi),
		api.WithCentering(o.centering),
		api.WithScaleFunc(o.scaleFunc),
		api.WithPreserveAspect(!o.noAspect),
		api.WithLatLon(o.latlon || m.IsGeographic()),
		api.WithOCGLayers(o.ocg),
		api.WithTextMode(o.textMode),
		api.WithLocale(o.locale),
		api.WithFont(o.font),
		api.WithTitle(o.title),
		api.WithAuthor(o.author),
	}
	if o.percentBox != nil {
		b := o.percentBox
		opts = append(opts, api.WithPercentBox(b[0], b[1], b[2], b[3]))
	}
	for _, d := range o.fontDirs {
		opts = append(opts, api.WithFontDirectory(d))
	}
	return opts
}

// runRender loads the map at input and prints it to opts.output.
func runRender(ctx context.Context, input string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	m, err := mapfile.LoadWithLogger(ctx, input, logger)
	if err != nil {
		return err
	}
	logger.Debug("map loaded", "file", input, "layers", len(m.Layers), "srs", m.SRS(), "extent", m.Envelope())

	p, err := api.New(append(opts.printerOptions(m), api.WithLogger(logger))...)
	if err != nil {
		return err
	}
	if err := p.RenderMap(m, opts.output); err != nil {
		return err
	}

	if opts.grid {
		if err := p.RenderGridOnMap(m, ""); err != nil {
			return err
		}
	}
	if opts.graticule {
		if err := p.RenderGraticuleOnMap(m, opts.decDegrees, ""); err != nil {
			return err
		}
	}

	x, y := p.MetaInfoCorner(m)
	if opts.scaleBar {
		so := api.DefaultScaleOptions()
		so.At = &[2]float64{x, y}
		_, h, err := p.RenderScale(m, so)
		if err != nil {
			return err
		}
		if h > 0 {
			y += units.Pt2M(h) + api.MetaPadding
		}
	}
	if opts.legend {
		lo := api.DefaultLegendOptions()
		lo.Columns = opts.legendColumns
		lo.At = &[2]float64{x, y}
		lo.Width = opts.pageSize.Width - opts.margin - x
		lo.Height = opts.pageSize.Height - opts.margin - y
		if _, _, err := p.RenderLegend(m, lo); err != nil {
			return err
		}
	}

	if err := p.Finish(); err != nil {
		return err
	}

	if opts.geo {
		geo, err := geoOptions(m, opts)
		if err != nil {
			return err
		}
		if err := p.AddGeospatialPDFHeader(m, opts.output, geo); err != nil {
			return err
		}
	}

	prog.done("map printed", "file", opts.output, "scale", fmt.Sprintf("1:%.0f", p.RoundedScale()), "layers", len(p.LayerNames()))
	return nil
}

func geoOptions(m *carto.Map, opts *renderOpts) (api.GeoOptions, error) {
	if opts.epsg != 0 || opts.wkt != "" {
		return api.GeoOptions{EPSG: opts.epsg, WKT: opts.wkt}, nil
	}
	geo, err := api.GeoOptionsFor(m)
	if err != nil {
		return api.GeoOptions{}, errors.Join(errors.New("no projection for the geospatial header, pass --epsg or --wkt"), err)
	}
	return geo, nil
}
