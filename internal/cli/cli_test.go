package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapprint/mapprint/internal/pdfedit"
	"github.com/mapprint/mapprint/pkg/api"
)

const parksGeoJSON = `{"type":"FeatureCollection","features":[
 {"type":"Feature","properties":{"type":"park","name":"Central"},
  "geometry":{"type":"Polygon","coordinates":[[[0,0],[0.05,0],[0.05,0.04],[0,0.04],[0,0]]]}},
 {"type":"Feature","properties":{"type":"lake"},
  "geometry":{"type":"Polygon","coordinates":[[[0.06,0.01],[0.08,0.01],[0.08,0.03],[0.06,0.03],[0.06,0.01]]]}}
]}`

const cityTOML = `
srs = "epsg:3857"
width = 600
height = 400
background_color = "#f2efe9"

[[style]]
name = "landuse"

  [[style.rule]]
  name = "Parks"
  filter = "[type] = 'park'"

    [[style.rule.symbolizer]]
    type = "polygon"
    fill = "#c8facc"

  [[style.rule]]
  else = true

    [[style.rule.symbolizer]]
    type = "polygon"
    fill = "#aad3df"

[[layer]]
name = "landuse"
srs = "epsg:4326"
styles = ["landuse"]
datasource = { type = "geojson", file = "parks.geojson" }
`

func writeCity(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "parks.geojson"), []byte(parksGeoJSON), 0o644))
	path := filepath.Join(dir, "city.toml")
	require.NoError(t, os.WriteFile(path, []byte(cityTOML), 0o644))
	return path
}

func execute(t *testing.T, c *CLI, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := c.RootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSetVersion(t *testing.T) {
	defer SetVersion(version, commit, date)

	SetVersion("1.0.0", "abc123", "2026-01-01")
	assert.Equal(t, "1.0.0", version)
	assert.Equal(t, "abc123", commit)
	assert.Equal(t, "2026-01-01", date)
}

func TestRender(t *testing.T) {
	input := writeCity(t)
	output := filepath.Join(t.TempDir(), "city.pdf")

	var logs bytes.Buffer
	c := New(&logs, LogInfo)
	_, err := execute(t, c, "render", input, "-o", output, "--grid", "--ocg", "--title", "City")
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	// optional content leaves a single page
	ctx, err := pdfedit.Read(output)
	require.NoError(t, err)
	pages, err := pdfedit.Pages(ctx)
	require.NoError(t, err)
	assert.Len(t, pages, 1)
	assert.Contains(t, logs.String(), "map printed")
}

func TestRenderDefaultOutput(t *testing.T) {
	input := writeCity(t)

	c := New(&bytes.Buffer{}, LogInfo)
	_, err := execute(t, c, "render", input, "--legend=false", "--scale=false")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(filepath.Dir(input), "city.pdf"))
	assert.NoError(t, err)
}

func TestRenderGeospatial(t *testing.T) {
	input := writeCity(t)
	output := filepath.Join(t.TempDir(), "geo.pdf")

	c := New(&bytes.Buffer{}, LogInfo)
	_, err := execute(t, c, "render", input, "-o", output, "--geo")
	require.NoError(t, err)

	ctx, err := pdfedit.Read(output)
	require.NoError(t, err)
	pages, err := pdfedit.Pages(ctx)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Contains(t, pages[0].Dict, "VP")
}

func TestRenderVerbose(t *testing.T) {
	input := writeCity(t)
	output := filepath.Join(t.TempDir(), "city.pdf")

	var logs bytes.Buffer
	c := New(&logs, LogInfo)
	_, err := execute(t, c, "render", input, "-o", output, "-v")
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "map loaded")
}

func TestRenderErrors(t *testing.T) {
	input := writeCity(t)

	tests := []struct {
		name string
		args []string
	}{
		{"missing map", []string{"render", filepath.Join(t.TempDir(), "none.toml")}},
		{"page size", []string{"render", input, "--page-size", "b7"}},
		{"centering", []string{"render", input, "--centering", "middle"}},
		{"scale func", []string{"render", input, "--scale-func", "round"}},
		{"text mode", []string{"render", input, "--text-mode", "rich"}},
		{"box", []string{"render", input, "--box", "0,0,1"}},
		{"no args", []string{"render"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, New(&bytes.Buffer{}, LogInfo), tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestRenderOptionsPrecedence(t *testing.T) {
	config := filepath.Join(t.TempDir(), "mapprint.toml")
	require.NoError(t, os.WriteFile(config, []byte("page-size = \"letter\"\nmargin = 0.01\ndpi = 300.0\n"), 0o644))
	t.Setenv("MAPPRINT_MARGIN", "0.02")

	c := New(&bytes.Buffer{}, LogInfo)
	c.configFile = config
	cmd := c.renderCommand()
	require.NoError(t, cmd.Flags().Parse([]string{"--dpi", "150", "--box", "0.1, 0.1, 0.9, 0.5"}))
	require.NoError(t, c.loadSettings(cmd))

	opts, err := c.renderOptions("maps/city.toml")
	require.NoError(t, err)
	assert.Equal(t, api.PageSizeLetter, opts.pageSize)
	assert.Equal(t, 0.02, opts.margin)
	assert.Equal(t, 150.0, opts.dpi)
	assert.Equal(t, &[4]float64{0.1, 0.1, 0.9, 0.5}, opts.percentBox)
	assert.Equal(t, filepath.Join("maps", "city.pdf"), opts.output)
	assert.True(t, opts.legend)
	assert.False(t, opts.grid)
}

func TestParseScaleFunc(t *testing.T) {
	tests := []struct {
		in   string
		x    float64
		want float64
	}{
		{"any", 12345, 12345},
		{"default", 12345, 12500},
		{"1, 2.5, 5", 12345, 25000},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			f, err := parseScaleFunc(tt.in)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, f(tt.x), 1e-6)
		})
	}

	_, err := parseScaleFunc("1,x")
	assert.Error(t, err)
}

func TestPageSizes(t *testing.T) {
	out, err := execute(t, New(&bytes.Buffer{}, LogInfo), "pagesizes")
	require.NoError(t, err)
	assert.Contains(t, out, "a4        210 x  297 mm")
	assert.Contains(t, out, "letter")
}
