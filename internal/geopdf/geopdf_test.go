package geopdf

import (
	"path/filepath"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapprint/mapprint/internal/ocg"
	"github.com/mapprint/mapprint/internal/pdfedit"
	"github.com/mapprint/mapprint/internal/render/pdf"
)

var testParams = Params{
	EPSG:    3857,
	BBox:    [4]float64{28.35, 56.7, 566.9, 813.5},
	Corners: [4][2]float64{{-10, 40}, {-10, 50}, {5, 50}, {5, 40}},
}

func writePDF(t *testing.T, pages int) string {
	t.Helper()
	s, err := pdf.New(595, 842, pdf.Options{})
	require.NoError(t, err)
	for i := 0; i < pages; i++ {
		s.Rectangle(30, 30, 100, 100)
		s.Stroke()
		s.ShowPage()
	}
	path := filepath.Join(t.TempDir(), "map.pdf")
	require.NoError(t, s.CloseFile(path))
	return path
}

func TestAddRequiresProjection(t *testing.T) {
	err := Add(filepath.Join(t.TempDir(), "x.pdf"), Params{})
	assert.ErrorIs(t, err, ErrNoProjection)
}

func TestGPTS(t *testing.T) {
	assert.Equal(t, []float64{40, -10, 50, -10, 50, 5, 40, 5}, GPTS(testParams.Corners))
}

func TestViewport(t *testing.T) {
	vp := Viewport(Params{WKT: "GEOGCS[]", Geographic: true, BBox: testParams.BBox})
	assert.Equal(t, types.Name("Viewport"), vp["Type"])
	assert.Equal(t, pdfedit.Floats(28.35, 56.7, 566.9, 813.5), vp["BBox"])

	m := vp["Measure"].(types.Dict)
	assert.Equal(t, types.Name("GEO"), m["Subtype"])
	assert.Equal(t, m["Bounds"], m["LPTS"])
	assert.Equal(t, pdfedit.Floats(0, 0, 0, 1, 1, 1, 1, 0), m["Bounds"])

	gcs := m["GCS"].(types.Dict)
	assert.Equal(t, types.Name("GEOGCS"), gcs["Type"])
	assert.NotContains(t, gcs, "EPSG")
	assert.Equal(t, types.StringLiteral("GEOGCS[]"), gcs["WKT"])
}

func TestAdd(t *testing.T) {
	path := writePDF(t, 2)
	require.NoError(t, Add(path, testParams))

	ctx, err := pdfedit.Read(path)
	require.NoError(t, err)
	pages, err := pdfedit.Pages(ctx)
	require.NoError(t, err)
	require.Len(t, pages, 2)

	for _, p := range pages {
		vps, err := ctx.DereferenceArray(p.Dict["VP"])
		require.NoError(t, err)
		require.Len(t, vps, 1)
		vp, err := ctx.DereferenceDict(vps[0])
		require.NoError(t, err)
		assert.Equal(t, types.Name("Viewport"), vp["Type"])

		bbox, err := pdfedit.Numbers(ctx, vp["BBox"])
		require.NoError(t, err)
		assert.InDeltaSlice(t, testParams.BBox[:], bbox, 1e-6)

		m, err := ctx.DereferenceDict(vp["Measure"])
		require.NoError(t, err)
		gpts, err := pdfedit.Numbers(ctx, m["GPTS"])
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{40, -10, 50, -10, 50, 5, 40, 5}, gpts, 1e-6)

		gcs, err := ctx.DereferenceDict(m["GCS"])
		require.NoError(t, err)
		assert.Equal(t, types.Name("PROJCS"), gcs["Type"])
		assert.Equal(t, types.Integer(3857), gcs["EPSG"])
	}

	root, err := ctx.Catalog()
	require.NoError(t, err)
	ext, err := ctx.DereferenceDict(root["Extensions"])
	require.NoError(t, err)
	adbe, err := ctx.DereferenceDict(ext["ADBE"])
	require.NoError(t, err)
	assert.Equal(t, types.Name("1.7"), adbe["BaseVersion"])
	assert.Equal(t, types.Integer(3), adbe["ExtensionLevel"])
}

func TestAddKeepsOptionalContent(t *testing.T) {
	path := writePDF(t, 2)
	require.NoError(t, ocg.Convert(path, []string{"Map", "Legend"}, true))
	require.NoError(t, Add(path, testParams))

	ctx, err := pdfedit.Read(path)
	require.NoError(t, err)
	root, err := ctx.Catalog()
	require.NoError(t, err)
	ocp, err := ctx.DereferenceDict(root["OCProperties"])
	require.NoError(t, err)
	ocgs, err := ctx.DereferenceArray(ocp["OCGs"])
	require.NoError(t, err)
	assert.Len(t, ocgs, 2)

	pages, err := pdfedit.Pages(ctx)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Contains(t, pages[0].Dict, "VP")
}
