// Package mapfile reads map definitions written in TOML:
//
//	srs = "epsg:3857"
//	background_color = "#f2efe9"
//
//	[[style]]
//	name = "landuse"
//
//	  [[style.rule]]
//	  name = "Parks"
//	  filter = "[type] = 'park'"
//
//	    [[style.rule.symbolizer]]
//	    type = "polygon"
//	    fill = "#c8facc"
//
//	[[layer]]
//	name = "landuse"
//	srs = "epsg:4326"
//	styles = ["landuse"]
//	datasource = { type = "geojson", file = "landuse.geojson" }
//
// Relative file references are resolved against the map file.
package mapfile

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/mapprint/mapprint/internal/raster"
	"github.com/mapprint/mapprint/internal/res"
	"github.com/mapprint/mapprint/pkg/carto"
)

var (
	// ErrUnknownSymbolizer is returned for symbolizer types other than
	// polygon, line, point and text.
	ErrUnknownSymbolizer = errors.New("unknown symbolizer type")
	// ErrUnknownDatasource is returned for datasource types other than
	// geojson.
	ErrUnknownDatasource = errors.New("unknown datasource type")
)

// Default pixel size of maps that do not set one.
const (
	DefaultWidth  = 800
	DefaultHeight = 600
)

type document struct {
	SRS             string      `toml:"srs"`
	Width           int         `toml:"width"`
	Height          int         `toml:"height"`
	BackgroundColor carto.Color `toml:"background_color"`
	BackgroundImage string      `toml:"background_image"`
	BufferSize      int         `toml:"buffer_size"`
	Extent          []float64   `toml:"extent"`
	Styles          []style     `toml:"style"`
	Layers          []layer     `toml:"layer"`
}

type style struct {
	Name  string `toml:"name"`
	Rules []rule `toml:"rule"`
}

type rule struct {
	Name        string       `toml:"name"`
	Filter      string       `toml:"filter"`
	Else        bool         `toml:"else"`
	MinScale    float64      `toml:"min_scale"`
	MaxScale    float64      `toml:"max_scale"`
	Symbolizers []symbolizer `toml:"symbolizer"`
}

type symbolizer struct {
	Type         string      `toml:"type"`
	Fill         carto.Color `toml:"fill"`
	Stroke       carto.Color `toml:"stroke"`
	Width        float64     `toml:"width"`
	Dash         []float64   `toml:"dash"`
	Size         float64     `toml:"size"`
	File         string      `toml:"file"`
	Field        string      `toml:"field"`
	Halo         carto.Color `toml:"halo"`
	HaloRadius   float64     `toml:"halo_radius"`
	DX           float64     `toml:"dx"`
	DY           float64     `toml:"dy"`
	AvoidEdges   bool        `toml:"avoid_edges"`
	AllowOverlap bool        `toml:"allow_overlap"`
}

type layer struct {
	Name       string     `toml:"name"`
	SRS        string     `toml:"srs"`
	Styles     []string   `toml:"styles"`
	Active     *bool      `toml:"active"`
	Datasource datasource `toml:"datasource"`
}

type datasource struct {
	Type   string `toml:"type"`
	File   string `toml:"file"`
	Inline string `toml:"inline"`
}

// Parser builds maps from TOML definitions.
type Parser struct {
	loader *res.Loader
	logger *log.Logger
}

// NewParser returns a parser loading referenced files through loader.
func NewParser(loader *res.Loader) *Parser {
	return &Parser{loader: loader, logger: log.Default()}
}

// SetLogger replaces the logger used for warnings.
func (p *Parser) SetLogger(logger *log.Logger) {
	if logger != nil {
		p.logger = logger
	}
}

// Load reads the map definition at path.
func Load(ctx context.Context, path string) (*carto.Map, error) {
	return LoadWithLogger(ctx, path, nil)
}

// LoadWithLogger is Load reporting lookups and warnings to logger.
func LoadWithLogger(ctx context.Context, path string, logger *log.Logger) (*carto.Map, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	l := res.NewLoader(path)
	l.SetLogger(logger)
	r, err := l.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	p := NewParser(l)
	p.SetLogger(logger)
	m, err := p.Parse(ctx, r.Reader())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ParseString parses a map definition held in a string.
func (p *Parser) ParseString(ctx context.Context, s string) (*carto.Map, error) {
	return p.Parse(ctx, strings.NewReader(s))
}

// Parse decodes a map definition. Keys the format does not know are
// rejected so that typos do not go unnoticed.
func (p *Parser) Parse(ctx context.Context, r io.Reader) (*carto.Map, error) {
	var doc document
	md, err := toml.NewDecoder(r).Decode(&doc)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}

	w, h := doc.Width, doc.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	if _, err := carto.ParseProjection(doc.SRS); err != nil {
		return nil, err
	}
	m := carto.NewMap(w, h, doc.SRS)
	m.Background = doc.BackgroundColor
	m.BufferSize = doc.BufferSize

	if doc.BackgroundImage != "" {
		img, err := p.loadImage(ctx, doc.BackgroundImage, w, h)
		if err != nil {
			return nil, fmt.Errorf("background image: %w", err)
		}
		m.BackgroundImage = img
	}

	for i, s := range doc.Styles {
		if s.Name == "" {
			return nil, fmt.Errorf("style %d has no name", i+1)
		}
		st, err := p.style(ctx, s)
		if err != nil {
			return nil, fmt.Errorf("style %q: %w", s.Name, err)
		}
		m.AppendStyle(s.Name, st)
	}

	for i, l := range doc.Layers {
		if l.Name == "" {
			return nil, fmt.Errorf("layer %d has no name", i+1)
		}
		lay, err := p.layer(ctx, m, l)
		if err != nil {
			return nil, fmt.Errorf("layer %q: %w", l.Name, err)
		}
		m.AddLayer(lay)
	}

	switch len(doc.Extent) {
	case 0:
		m.ZoomAll()
	case 4:
		m.ZoomToBox(carto.NewBox(doc.Extent[0], doc.Extent[1], doc.Extent[2], doc.Extent[3]))
	default:
		return nil, fmt.Errorf("extent needs 4 values, got %d", len(doc.Extent))
	}
	return m, nil
}

func (p *Parser) style(ctx context.Context, s style) (*carto.Style, error) {
	st := carto.NewStyle()
	for _, r := range s.Rules {
		rule := carto.NewRule(r.Name)
		rule.Else = r.Else
		rule.MinScale = r.MinScale
		if r.MaxScale > 0 {
			rule.MaxScale = r.MaxScale
		} else {
			rule.MaxScale = math.Inf(1)
		}
		if r.Filter != "" {
			f, err := carto.ParseFilter(r.Filter)
			if err != nil {
				return nil, fmt.Errorf("rule %q: %w", r.Name, err)
			}
			rule.Filter = f
		}
		for _, sym := range r.Symbolizers {
			s, err := p.symbolizer(ctx, sym)
			if err != nil {
				return nil, fmt.Errorf("rule %q: %w", r.Name, err)
			}
			rule.Symbolizers = append(rule.Symbolizers, s)
		}
		st.Rules = append(st.Rules, rule)
	}
	return st, nil
}

func (p *Parser) symbolizer(ctx context.Context, s symbolizer) (carto.Symbolizer, error) {
	switch s.Type {
	case "polygon":
		return &carto.PolygonSymbolizer{Fill: s.Fill}, nil
	case "line":
		return &carto.LineSymbolizer{Stroke: s.Stroke, Width: s.Width, Dash: s.Dash}, nil
	case "point":
		ps := &carto.PointSymbolizer{
			Fill:         s.Fill,
			Stroke:       s.Stroke,
			Size:         s.Size,
			AvoidEdges:   s.AvoidEdges,
			AllowOverlap: s.AllowOverlap,
		}
		if s.File != "" {
			r, err := p.loader.LoadKind(ctx, s.File, res.KindImage)
			if err != nil {
				return nil, err
			}
			ps.Marker = r.Data
		}
		return ps, nil
	case "text":
		if s.Field == "" {
			return nil, errors.New("text symbolizer needs a field")
		}
		return &carto.TextSymbolizer{
			Field:        s.Field,
			Size:         s.Size,
			Fill:         s.Fill,
			Halo:         s.Halo,
			HaloRadius:   s.HaloRadius,
			DX:           s.DX,
			DY:           s.DY,
			AvoidEdges:   s.AvoidEdges,
			AllowOverlap: s.AllowOverlap,
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSymbolizer, s.Type)
}

func (p *Parser) layer(ctx context.Context, m *carto.Map, l layer) (*carto.Layer, error) {
	if l.SRS != "" {
		if _, err := carto.ParseProjection(l.SRS); err != nil {
			return nil, err
		}
	}
	lay := carto.NewLayer(l.Name, l.SRS)
	if l.Active != nil {
		lay.Active = *l.Active
	}
	for _, name := range l.Styles {
		if _, ok := m.FindStyle(name); !ok {
			p.logger.Warn("layer refers to an undefined style", "layer", l.Name, "style", name)
		}
		lay.Styles = append(lay.Styles, name)
	}

	ds := l.Datasource
	switch ds.Type {
	case "geojson":
	case "":
		return lay, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDatasource, ds.Type)
	}

	var data []byte
	switch {
	case ds.Inline != "":
		data = []byte(ds.Inline)
	case ds.File != "":
		r, err := p.loader.Load(ctx, ds.File)
		if err != nil {
			return nil, err
		}
		data = r.Data
	default:
		return nil, errors.New("geojson datasource needs a file or inline data")
	}
	src, err := carto.NewGeoJSONDatasource(data)
	if err != nil {
		return nil, err
	}
	lay.Datasource = src
	return lay, nil
}

func (p *Parser) loadImage(ctx context.Context, ref string, w, h int) (image.Image, error) {
	r, err := p.loader.LoadKind(ctx, ref, res.KindImage)
	if err != nil {
		return nil, err
	}
	if raster.IsSVG(r.Data) {
		return raster.RasterizeSVG(r.Data, w, h)
	}
	return raster.Decode(r.Data)
}
