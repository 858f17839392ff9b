package layout

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapprint/mapprint/internal/scales"
	"github.com/mapprint/mapprint/pkg/carto"
)

func a4(c Centering) Page {
	return Page{Width: 0.21, Height: 0.297, Margin: 0.005, Scale: scales.Default, PreserveAspect: true, Centering: c}
}

func TestRenderArea(t *testing.T) {
	p := a4(CenteringNone)
	assertBox(t, carto.Box{MinX: 0.005, MinY: 0.005, MaxX: 0.205, MaxY: 0.292}, p.RenderArea())

	box := carto.NewBox(0, 0, 0.1, 0.1)
	p.Box = &box
	assertBox(t, carto.Box{MinX: 0.005, MinY: 0.005, MaxX: 0.1, MaxY: 0.1}, p.RenderArea())

	outside := carto.NewBox(0.3, 0.3, 0.4, 0.4)
	p.Box = &outside
	assert.False(t, p.RenderArea().Valid())
}

func assertBox(t *testing.T, want, got carto.Box) {
	t.Helper()
	assert.InDelta(t, want.MinX, got.MinX, 1e-12, "MinX")
	assert.InDelta(t, want.MinY, got.MinY, 1e-12, "MinY")
	assert.InDelta(t, want.MaxX, got.MaxX, 1e-12, "MaxX")
	assert.InDelta(t, want.MaxY, got.MaxY, 1e-12, "MaxY")
}

func TestPercentBox(t *testing.T) {
	b := PercentBox([4]float64{0.1, 0.1, 0.9, 0.5}, 0.2, 0.3)
	assertBox(t, carto.Box{MinX: 0.02, MinY: 0.03, MaxX: 0.18, MaxY: 0.15}, b)
}

func TestMapRenderSize(t *testing.T) {
	p := a4(CenteringNone)
	// 20 km wide, 10 km high: wider than the page, width bound
	env := carto.NewBox(0, 0, 20000, 10000)
	w, h, rounded := p.MapRenderSize(env)

	// the render area is a rounding error under 0.2 m wide
	assert.InDelta(t, 100000, rounded, 1e-6)
	assert.GreaterOrEqual(t, rounded, 20000/p.RenderArea().Width())
	assert.InDelta(t, 20000/rounded, w, 1e-9)
	assert.InDelta(t, w/2, h, 1e-9)
	assert.True(t, p.Constrained(env))
}

func TestMapRenderSizeWithoutAspect(t *testing.T) {
	p := a4(CenteringNone)
	p.PreserveAspect = false
	w, h, rounded := p.MapRenderSize(carto.NewBox(0, 0, 20000, 10000))
	assert.InDelta(t, 100000, rounded, 1e-6)
	assert.InDelta(t, 0.2, w, 1e-12)
	assert.InDelta(t, 0.287, h, 1e-12)
}

func TestMapRenderSizeClampsBadScaleFunc(t *testing.T) {
	p := a4(CenteringNone)
	p.Scale = func(x float64) float64 { return x / 2 }
	w, h, _ := p.MapRenderSize(carto.NewBox(0, 0, 1000, 1000))
	area := p.RenderArea()
	assert.LessOrEqual(t, w, area.Width()+1e-12)
	assert.LessOrEqual(t, h, area.Height()+1e-12)
}

func TestPixelSize(t *testing.T) {
	w, h := PixelSize(0.0254, 0.0127, 300)
	assert.Equal(t, 300, w)
	assert.Equal(t, 150, h)
}

func TestRenderCorner(t *testing.T) {
	wide := carto.NewBox(0, 0, 20000, 10000)
	tall := carto.NewBox(0, 0, 10000, 40000)

	tests := []struct {
		centering    Centering
		env          carto.Box
		hcent, vcent bool
	}{
		{CenteringNone, wide, false, false},
		{CenteringBoth, wide, true, true},
		{CenteringHorizontal, tall, true, false},
		{CenteringVertical, tall, false, true},
		{CenteringConstrainedAxis, wide, true, false},
		{CenteringConstrainedAxis, tall, false, true},
		{CenteringUnconstrainedAxis, wide, false, true},
		{CenteringUnconstrainedAxis, tall, true, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%v", tt.centering, tt.env), func(t *testing.T) {
			p := a4(tt.centering)
			area := p.RenderArea()
			w, h, _ := p.MapRenderSize(tt.env)
			x, y := p.RenderCorner(w, h, tt.env)

			wantX, wantY := area.MinX, area.MinY
			if tt.hcent {
				wantX += (area.Width() - w) / 2
			}
			if tt.vcent {
				wantY += (area.Height() - h) / 2
			}
			assert.InDelta(t, wantX, x, 1e-12)
			assert.InDelta(t, wantY, y, 1e-12)
		})
	}
}

func TestMapBoxWithinRenderArea(t *testing.T) {
	pages := []Page{
		a4(CenteringNone),
		{Width: 0.297, Height: 0.21, Margin: 0.01, Scale: scales.Default, PreserveAspect: true},
		{Width: 0.5, Height: 0.5, Margin: 0, Scale: scales.Any, PreserveAspect: false},
		{Width: 0.1, Height: 0.4, Margin: 0.02, Scale: scales.DegMinSec, PreserveAspect: true},
	}
	envs := []carto.Box{
		carto.NewBox(0, 0, 1, 1),
		carto.NewBox(-180, -90, 180, 90),
		carto.NewBox(0, 0, 10, 1000),
		carto.NewBox(-20037508, -20037508, 20037508, 20037508),
	}
	for _, page := range pages {
		for c := CenteringNone; c <= CenteringBoth; c++ {
			for _, env := range envs {
				p := page
				p.Centering = c
				area := p.RenderArea()
				w, h, _ := p.MapRenderSize(env)
				x, y := p.RenderCorner(w, h, env)
				mapBox := carto.NewBox(x, y, x+w, y+h)
				require.True(t, area.Contains(mapBox), "%v not within %v (centering %s, env %v)", mapBox, area, c, env)
			}
		}
	}
}

func TestMetaInfoCorner(t *testing.T) {
	p := a4(CenteringConstrainedAxis)
	wide := carto.NewBox(0, 0, 20000, 10000)
	w, h, _ := p.MapRenderSize(wide)
	_, y := p.RenderCorner(w, h, wide)
	mx, my := p.MetaInfoCorner(w, h, wide)
	assert.Equal(t, p.Margin, mx)
	assert.InDelta(t, y+h+MetaPadding, my, 1e-12)

	p = Page{Width: 0.297, Height: 0.21, Margin: 0.01, Scale: scales.Default, PreserveAspect: true}
	tall := carto.NewBox(0, 0, 1000, 4000)
	w, h, _ = p.MapRenderSize(tall)
	x, _ := p.RenderCorner(w, h, tall)
	mx, my = p.MetaInfoCorner(w, h, tall)
	assert.InDelta(t, x+w+MetaPadding, mx, 1e-12)
	assert.Equal(t, p.Margin, my)
}

func TestCenteringNames(t *testing.T) {
	for c := CenteringNone; c <= CenteringBoth; c++ {
		got, ok := ParseCentering(c.String())
		assert.True(t, ok)
		assert.Equal(t, c, got)
	}
	_, ok := ParseCentering("diagonal")
	assert.False(t, ok)
	assert.Equal(t, "unknown", Centering(42).String())
}
