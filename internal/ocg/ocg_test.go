package ocg

import (
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/go-pdf/fpdf"
	"github.com/google/go-cmp/cmp"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapprint/mapprint/internal/pdfedit"
	"github.com/mapprint/mapprint/internal/render/pdf"
)

func TestDefaultOrder(t *testing.T) {
	tests := []struct {
		n       int
		butLast bool
		want    []int
	}{
		{0, true, nil},
		{1, true, []int{0}},
		{1, false, []int{0}},
		{3, true, []int{1, 0, 2}},
		{3, false, []int{2, 1, 0}},
		{4, true, []int{2, 1, 0, 3}},
	}
	for _, tt := range tests {
		got := DefaultOrder(tt.n, tt.butLast)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("DefaultOrder(%d, %v) mismatch (-want +got):\n%s", tt.n, tt.butLast, diff)
		}
	}
}

func TestDefaultOrderIsPermutation(t *testing.T) {
	for n := 1; n < 12; n++ {
		for _, butLast := range []bool{true, false} {
			seen := map[int]bool{}
			for _, i := range DefaultOrder(n, butLast) {
				assert.False(t, seen[i])
				seen[i] = true
			}
			assert.Len(t, seen, n)
		}
	}
}

func writePages(t *testing.T, n int) string {
	t.Helper()
	s, err := pdf.New(400, 300, pdf.Options{})
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		s.SetSourceRGB(float64(i)/float64(n), 0, 0)
		s.Rectangle(float64(10*i), 10, 50, 50)
		s.Fill()
		s.ShowText(20, 100, "page", 10)
		s.ShowPage()
	}
	path := filepath.Join(t.TempDir(), "layers.pdf")
	require.NoError(t, s.CloseFile(path))
	return path
}

func ocgNames(t *testing.T, ctx *model.Context, arr types.Array) []string {
	t.Helper()
	var names []string
	for _, o := range arr {
		d, err := ctx.DereferenceDict(o)
		require.NoError(t, err)
		assert.Equal(t, types.Name("OCG"), d["Type"])
		s, ok := d["Name"].(types.StringLiteral)
		require.True(t, ok)
		names = append(names, s.Value())
	}
	return names
}

func TestConvert(t *testing.T) {
	path := writePages(t, 3)
	require.NoError(t, Convert(path, []string{"Background", "Roads"}, true))

	ctx, err := pdfedit.Read(path)
	require.NoError(t, err)
	pages, err := pdfedit.Pages(ctx)
	require.NoError(t, err)
	require.Len(t, pages, 1)

	box, err := pdfedit.Numbers(ctx, pages[0].MediaBox)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0, 400, 300}, box, 1e-6)

	contents, err := ctx.DereferenceArray(pages[0].Dict["Contents"])
	require.NoError(t, err)
	assert.Len(t, contents, 9)

	props, err := ctx.DereferenceDict(pages[0].Resources["Properties"])
	require.NoError(t, err)
	assert.Len(t, props, 3)
	for _, tag := range []string{"oc0", "oc1", "oc2"} {
		assert.Contains(t, props, tag)
	}
	assert.Contains(t, pages[0].Resources, "Font")

	root, err := ctx.Catalog()
	require.NoError(t, err)
	ocp, err := ctx.DereferenceDict(root["OCProperties"])
	require.NoError(t, err)
	ocgs, err := ctx.DereferenceArray(ocp["OCGs"])
	require.NoError(t, err)
	assert.Equal(t, []string{"Background", "Roads", "Layer 3"}, ocgNames(t, ctx, ocgs))

	view, err := ctx.DereferenceDict(ocp["D"])
	require.NoError(t, err)
	assert.Equal(t, types.Name("ON"), view["BaseState"])
	on, err := ctx.DereferenceArray(view["ON"])
	require.NoError(t, err)
	assert.Len(t, on, 3)
	off, err := ctx.DereferenceArray(view["OFF"])
	require.NoError(t, err)
	assert.Empty(t, off)
	order, err := ctx.DereferenceArray(view["Order"])
	require.NoError(t, err)
	assert.Equal(t, []string{"Roads", "Background", "Layer 3"}, ocgNames(t, ctx, order))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "/OC /oc2 BDC")
	assert.Contains(t, string(raw), "EMC")
}

func TestConvertReverseAll(t *testing.T) {
	path := writePages(t, 2)
	require.NoError(t, Convert(path, nil, false))

	ctx, err := pdfedit.Read(path)
	require.NoError(t, err)
	root, err := ctx.Catalog()
	require.NoError(t, err)
	ocp, err := ctx.DereferenceDict(root["OCProperties"])
	require.NoError(t, err)
	view, err := ctx.DereferenceDict(ocp["D"])
	require.NoError(t, err)
	order, err := ctx.DereferenceArray(view["Order"])
	require.NoError(t, err)
	assert.Equal(t, []string{"Layer 2", "Layer 1"}, ocgNames(t, ctx, order))
}

func TestConvertRejectsMixedPageSizes(t *testing.T) {
	f := fpdf.New("P", "pt", "A4", "")
	f.AddPage()
	f.Rect(10, 10, 10, 10, "F")
	f.AddPageFormat("L", fpdf.SizeType{Wd: 100, Ht: 100})
	f.Rect(10, 10, 10, 10, "F")
	path := filepath.Join(t.TempDir(), "mixed.pdf")
	require.NoError(t, f.OutputFileAndClose(path))

	before, err := os.ReadFile(path)
	require.NoError(t, err)
	err = Convert(path, nil, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "media box")

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestWrapContentsRejectsOtherObjects(t *testing.T) {
	ctx, err := pdfedit.Read(writePages(t, 1))
	require.NoError(t, err)

	_, err = wrapContents(ctx, types.Integer(3), "oc0")
	assert.ErrorIs(t, err, ErrUnexpectedContents)

	out, err := wrapContents(ctx, nil, "oc0")
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestConvertMissingFile(t *testing.T) {
	err := Convert(filepath.Join(t.TempDir(), "none.pdf"), nil, true)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
