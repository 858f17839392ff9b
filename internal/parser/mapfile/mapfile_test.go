package mapfile

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapprint/mapprint/internal/res"
	"github.com/mapprint/mapprint/pkg/carto"
)

const pinSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10"><circle cx="5" cy="5" r="4" fill="red"/></svg>`

const parks = `{"type":"FeatureCollection","features":[
 {"type":"Feature","id":7,"properties":{"type":"park","name":"Central"},
  "geometry":{"type":"Polygon","coordinates":[[[0,0],[10,0],[10,10],[0,10],[0,0]]]}}
]}`

const worldTOML = `
srs = "epsg:4326"
width = 400
height = 200
background_color = "#abcdef"
buffer_size = 32

[[style]]
name = "parks"

  [[style.rule]]
  name = "Parks"
  filter = "[type] = 'park'"
  max_scale = 5e8

    [[style.rule.symbolizer]]
    type = "polygon"
    fill = "#00ff00"

    [[style.rule.symbolizer]]
    type = "line"
    stroke = "darkgreen"
    width = 0.5
    dash = [2.0, 1.0]

  [[style.rule]]
  else = true

    [[style.rule.symbolizer]]
    type = "text"
    field = "name"
    size = 8
    halo = "white"
    halo_radius = 1

[[style]]
name = "pois"

  [[style.rule]]
    [[style.rule.symbolizer]]
    type = "point"
    file = "pin.svg"
    size = 12
    avoid_edges = true

[[layer]]
name = "parks"
styles = ["parks"]
datasource = { type = "geojson", file = "parks.geojson" }

[[layer]]
name = "pois"
srs = "epsg:4326"
styles = ["pois"]
active = false
datasource = { type = "geojson", inline = '{"type":"Point","coordinates":[5,5]}' }
`

func writeMap(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "parks.geojson"), []byte(parks), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pin.svg"), []byte(pinSVG), 0o644))
	path := filepath.Join(dir, "world.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	m, err := Load(context.Background(), writeMap(t, worldTOML))
	require.NoError(t, err)

	assert.Equal(t, 400, m.Width())
	assert.Equal(t, 200, m.Height())
	assert.Equal(t, "epsg:4326", m.SRS())
	assert.Equal(t, carto.RGB(0xab, 0xcd, 0xef), m.Background)
	assert.Equal(t, 32, m.BufferSize)

	require.Len(t, m.Layers, 2)
	parks := m.Layers[0]
	assert.True(t, parks.Active)
	assert.Equal(t, []string{"parks"}, parks.Styles)
	feats := parks.Datasource.Features()
	require.Len(t, feats, 1)
	assert.EqualValues(t, 7, feats[0].ID)
	assert.False(t, m.Layers[1].Active)

	st, ok := m.FindStyle("parks")
	require.True(t, ok)
	require.Len(t, st.Rules, 2)
	r := st.Rules[0]
	assert.Equal(t, "Parks", r.Name)
	assert.True(t, r.Filter.Evaluate(feats[0]))
	assert.Equal(t, 5e8, r.MaxScale)
	require.Len(t, r.Symbolizers, 2)
	assert.Equal(t, &carto.PolygonSymbolizer{Fill: carto.RGB(0, 255, 0)}, r.Symbolizers[0])
	assert.Equal(t, &carto.LineSymbolizer{Stroke: carto.RGB(0, 100, 0), Width: 0.5, Dash: []float64{2, 1}}, r.Symbolizers[1])

	assert.True(t, st.Rules[1].Else)
	assert.True(t, math.IsInf(st.Rules[1].MaxScale, 1))
	text := st.Rules[1].Symbolizers[0].(*carto.TextSymbolizer)
	assert.Equal(t, "name", text.Field)
	assert.Equal(t, carto.White, text.Halo)

	pois, ok := m.FindStyle("pois")
	require.True(t, ok)
	pt := pois.Rules[0].Symbolizers[0].(*carto.PointSymbolizer)
	assert.Equal(t, pinSVG, string(pt.Marker))
	assert.True(t, pt.AvoidEdges)

	// zoomed to the active layers
	env := m.Envelope()
	assert.InDelta(t, 20, env.Width(), 1e-9)
	assert.InDelta(t, 10, env.Height(), 1e-9)
}

func TestParseExtentAndDefaults(t *testing.T) {
	p := NewParser(res.NewLoader(""))
	m, err := p.ParseString(context.Background(), `
srs = "epsg:3857"
extent = [0, 0, 1000, 1000]
`)
	require.NoError(t, err)
	assert.Equal(t, DefaultWidth, m.Width())
	assert.Equal(t, DefaultHeight, m.Height())
	assert.InDelta(t, 1000, m.Envelope().Height(), 1e-9)
	assert.Empty(t, m.Layers)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		is   error
		msg  string
	}{
		{"unknown symbolizer", `
[[style]]
name = "s"
[[style.rule]]
[[style.rule.symbolizer]]
type = "raster"`, ErrUnknownSymbolizer, ""},
		{"unknown datasource", `
[[layer]]
name = "l"
datasource = { type = "postgis" }`, ErrUnknownDatasource, ""},
		{"unknown key", `colour = "red"`, nil, "unknown keys: colour"},
		{"bad filter", `
[[style]]
name = "s"
[[style.rule]]
filter = "[a] ~ 1"`, nil, `rule ""`},
		{"bad srs", `srs = "epsg:2056"`, carto.ErrUnknownSRS, ""},
		{"bad extent", `extent = [1, 2, 3]`, nil, "extent needs 4 values"},
		{"unnamed style", `[[style]]`, nil, "style 1 has no name"},
		{"text without field", `
[[style]]
name = "s"
[[style.rule]]
[[style.rule.symbolizer]]
type = "text"`, nil, "needs a field"},
		{"bad color", `background_color = "nope"`, nil, "nope"},
		{"missing file", `
[[layer]]
name = "l"
datasource = { type = "geojson", file = "absent.geojson" }`, res.ErrNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser(res.NewLoader(t.TempDir())).ParseString(context.Background(), tt.doc)
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
			if tt.msg != "" {
				assert.Contains(t, err.Error(), tt.msg)
			}
		})
	}
}
