package text

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapprint/mapprint/internal/render/pdf"
	"github.com/mapprint/mapprint/pkg/carto"
)

type drawn struct {
	x, y  float64
	text  string
	size  float64
	style pdf.FontStyle
	rgba  [4]float64
}

// fakeCanvas measures every rune as half the font size wide.
type fakeCanvas struct {
	x, y  float64
	style pdf.FontStyle
	rgba  [4]float64
	out   []drawn
}

func (c *fakeCanvas) CurrentPoint() (float64, float64) { return c.x, c.y }
func (c *fakeCanvas) MoveTo(x, y float64)              { c.x, c.y = x, y }
func (c *fakeCanvas) SetSourceRGBA(r, g, b, a float64) { c.rgba = [4]float64{r, g, b, a} }
func (c *fakeCanvas) SetFontStyle(style pdf.FontStyle) { c.style = style }

func (c *fakeCanvas) ShowText(x, y float64, s string, size float64) {
	c.out = append(c.out, drawn{x: x, y: y, text: s, size: size, style: c.style, rgba: c.rgba})
}

func (c *fakeCanvas) TextWidthStyle(s string, size float64, _ pdf.FontStyle) float64 {
	return float64(utf8.RuneCountInString(s)) * size / 2
}

func TestParseMarkup(t *testing.T) {
	spans := parseMarkup(`Lakes <b>and</b> <span foreground="#ff0000" size="x-large">rivers</span><br/>&amp; <i>more</i>`,
		spanStyle{size: 10, color: carto.Black})

	require.Len(t, spans, 6)
	assert.Equal(t, span{text: "Lakes ", size: 10, color: carto.Black}, spans[0])
	assert.Equal(t, pdf.Bold, spans[1].style)
	assert.Equal(t, carto.RGB(255, 0, 0), spans[3].color)
	assert.InDelta(t, 14.4, spans[3].size, 1e-9)
	assert.True(t, spans[4].brk)
	assert.Equal(t, "& ", spans[4].text)
	assert.Equal(t, pdf.Italic, spans[5].style)
}

func TestParseSize(t *testing.T) {
	assert.Equal(t, 8.0, parseSize("8pt", 10, 10))
	assert.Equal(t, 12.0, parseSize("12288", 10, 10))
	assert.Equal(t, 7.0, parseSize("7", 10, 10))
	assert.InDelta(t, 12, parseSize("larger", 10, 10), 1e-9)
	assert.Equal(t, 10.0, parseSize("huge", 10, 10))
}

func TestStripMarkup(t *testing.T) {
	assert.Equal(t, "Roads & paths\nmain", StripMarkup("<b>Roads</b> &amp; paths<br>main"))
	assert.Equal(t, "plain", StripMarkup("plain"))
}

func TestSplitWords(t *testing.T) {
	assert.Equal(t, []string{"a ", "quick  ", "fox"}, splitWords("a quick  fox"))
	assert.Equal(t, []string{" lead"}, splitWords(" lead"))
	assert.Empty(t, splitWords(""))
}

func TestMarkupWraps(t *testing.T) {
	c := &fakeCanvas{x: 10, y: 20}
	ext := Markup{}.Draw(c, "aaaa bbbb cccc", Options{Size: 2, BoxWidth: 10})

	// each word is 4 points wide, the space 1 point: two words per line
	require.Len(t, c.out, 3)
	assert.Equal(t, "aaaa ", c.out[0].text)
	assert.Equal(t, "bbbb", c.out[1].text)
	assert.Equal(t, "cccc", c.out[2].text)
	assert.Equal(t, c.out[0].y, c.out[1].y)
	assert.Greater(t, c.out[2].y, c.out[1].y)
	assert.Equal(t, 10.0, c.out[0].x)
	assert.Equal(t, 15.0, c.out[1].x)

	assert.InDelta(t, 9, ext.Width, 1e-9)
	assert.InDelta(t, 2*2*lineSpacing, ext.Height, 1e-9)
	// the current point is left where the text started
	assert.Equal(t, 10.0, c.x)
	assert.Equal(t, 20.0, c.y)
}

func TestMarkupAlignCenter(t *testing.T) {
	c := &fakeCanvas{}
	ext := Markup{}.Draw(c, "Scale 1:25000", Options{Size: 2, BoxWidth: 40, Align: AlignCenter})
	require.Len(t, c.out, 2)
	// 13 runes of 1 point each
	assert.InDelta(t, 13.5, c.out[0].x, 1e-9)
	assert.InDelta(t, 13.5, ext.X, 1e-9)
	assert.InDelta(t, 13, ext.Width, 1e-9)
}

func TestMarkupColors(t *testing.T) {
	c := &fakeCanvas{}
	Markup{}.Draw(c, `x <span color="white">y</span>`, Options{Size: 6, Color: carto.Gray})
	require.Len(t, c.out, 2)
	assert.InDelta(t, 128.0/255, c.out[0].rgba[0], 1e-9)
	assert.Equal(t, [4]float64{1, 1, 1, 1}, c.out[1].rgba)
	assert.Equal(t, pdf.Regular, c.style)
}

func TestMarkupEmpty(t *testing.T) {
	c := &fakeCanvas{}
	assert.Equal(t, Extents{}, Markup{}.Draw(c, "", Options{}))
	assert.Empty(t, c.out)
}

func TestPlain(t *testing.T) {
	c := &fakeCanvas{x: 5, y: 5}
	ext := Plain{}.Draw(c, "<b>Scale</b>\n1:100", Options{Size: 6})
	require.Len(t, c.out, 1)
	assert.Equal(t, drawn{x: 5, y: 11, text: "Scale 1:100", size: 6, rgba: [4]float64{0, 0, 0, 1}}, c.out[0])
	assert.Equal(t, 17.0, c.y)
	assert.Equal(t, Extents{Width: 33, Height: 6}, ext)
}

func TestNew(t *testing.T) {
	assert.IsType(t, Markup{}, New(ModeMarkup))
	assert.IsType(t, Plain{}, New(ModePlain))
}

func TestVisualOrder(t *testing.T) {
	assert.Equal(t, "Lake Constance", visualOrder("Lake Constance"))
	assert.True(t, isRTL("ים המלח"))
	assert.False(t, isRTL("Totes Meer"))
}
