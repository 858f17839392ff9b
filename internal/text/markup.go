package text

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/mapprint/mapprint/internal/render/pdf"
	"github.com/mapprint/mapprint/pkg/carto"
)

// span is a run of text sharing one style.
type span struct {
	text  string
	style pdf.FontStyle
	size  float64
	color carto.Color
	// brk marks a forced line break before the span's text
	brk bool
}

type spanStyle struct {
	bold, italic bool
	size         float64
	color        carto.Color
}

func (s spanStyle) fontStyle() pdf.FontStyle {
	switch {
	case s.bold && s.italic:
		return pdf.BoldItalic
	case s.bold:
		return pdf.Bold
	case s.italic:
		return pdf.Italic
	}
	return pdf.Regular
}

// namedSizes are the pango size keywords as factors of the base size.
var namedSizes = map[string]float64{
	"xx-small": 0.5787,
	"x-small":  0.6944,
	"small":    0.8333,
	"medium":   1,
	"large":    1.2,
	"x-large":  1.44,
	"xx-large": 1.728,
}

// parseMarkup splits pango style markup into styled spans. Supported
// elements are b, strong, i, em, big, small, span (foreground, color,
// size, weight, style) and br. Unknown elements are ignored but their
// text is kept. Newlines in text force line breaks.
func parseMarkup(src string, base spanStyle) []span {
	z := html.NewTokenizer(strings.NewReader(src))
	stack := []spanStyle{base}
	var out []span
	pendingBreak := false

	emit := func(text string) {
		cur := stack[len(stack)-1]
		for i, part := range strings.Split(text, "\n") {
			if i > 0 {
				pendingBreak = true
			}
			if part == "" {
				continue
			}
			out = append(out, span{text: part, style: cur.fontStyle(), size: cur.size, color: cur.color, brk: pendingBreak})
			pendingBreak = false
		}
	}

	for {
		switch z.Next() {
		case html.ErrorToken:
			if pendingBreak {
				out = append(out, span{brk: true, size: stack[len(stack)-1].size})
			}
			return out
		case html.TextToken:
			emit(string(z.Text()))
		case html.StartTagToken:
			name, hasAttr := z.TagName()
			tag := string(name)
			if tag == "br" {
				pendingBreak = true
				continue
			}
			next := stack[len(stack)-1]
			switch tag {
			case "b", "strong":
				next.bold = true
			case "i", "em":
				next.italic = true
			case "big":
				next.size *= 1.2
			case "small":
				next.size /= 1.2
			case "span":
				for hasAttr {
					var k, v []byte
					k, v, hasAttr = z.TagAttr()
					next = applySpanAttr(next, base.size, string(k), string(v))
				}
			}
			stack = append(stack, next)
		case html.SelfClosingTagToken:
			if name, _ := z.TagName(); string(name) == "br" {
				pendingBreak = true
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); string(name) == "br" {
				pendingBreak = true
				continue
			}
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		}
	}
}

func applySpanAttr(s spanStyle, baseSize float64, key, value string) spanStyle {
	switch key {
	case "foreground", "fgcolor", "color":
		if c, err := carto.ParseColor(value); err == nil {
			s.color = c
		}
	case "size", "font_size":
		s.size = parseSize(value, s.size, baseSize)
	case "weight", "font_weight":
		s.bold = value == "bold" || value == "heavy" || value == "ultrabold"
	case "style", "font_style":
		s.italic = value == "italic" || value == "oblique"
	}
	return s
}

// parseSize understands pango sizes: keywords, "smaller"/"larger",
// points with a "pt" suffix and integers in 1024ths of a point.
func parseSize(v string, cur, base float64) float64 {
	v = strings.TrimSpace(v)
	if f, ok := namedSizes[v]; ok {
		return base * f
	}
	switch v {
	case "smaller":
		return cur / 1.2
	case "larger":
		return cur * 1.2
	}
	if pt, ok := strings.CutSuffix(v, "pt"); ok {
		if f, err := strconv.ParseFloat(pt, 64); err == nil && f > 0 {
			return f
		}
		return cur
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
		if f >= 1024 {
			return f / 1024
		}
		return f
	}
	return cur
}

// StripMarkup returns the text content of markup.
func StripMarkup(src string) string {
	var sb strings.Builder
	for i, sp := range parseMarkup(src, spanStyle{size: 1}) {
		if sp.brk && i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(sp.text)
	}
	return sb.String()
}

// Markup renders pango style markup with wrapping and alignment. The top
// left corner of the text block is placed at the current point, which is
// left unchanged.
type Markup struct{}

func (Markup) Draw(c Canvas, src string, o Options) Extents {
	x0, y0 := c.CurrentPoint()
	spans := parseMarkup(src, spanStyle{size: o.size(), color: o.Color})
	lines := breakLines(c, spans, o.BoxWidth)
	if len(lines) == 0 {
		return Extents{}
	}

	widest := 0.0
	for _, ln := range lines {
		widest = max(widest, ln.width)
	}
	boxWidth := o.BoxWidth
	if boxWidth <= 0 {
		boxWidth = widest
	}

	ext := Extents{X: boxWidth}
	y := 0.0
	for _, ln := range lines {
		off := 0.0
		switch o.Align {
		case AlignCenter:
			off = (boxWidth - ln.width) / 2
		case AlignRight:
			off = boxWidth - ln.width
		}
		if ln.width > 0 {
			ext.X = min(ext.X, off)
			ext.Width = max(ext.Width, off+ln.width)
		}
		baseline := y + ln.ascent
		x := off
		for _, w := range ln.words {
			setColor(c, w.color)
			c.SetFontStyle(w.style)
			c.ShowText(x0+x, y0+baseline, visualOrder(w.text), w.size)
			x += w.width
		}
		y += ln.height
	}
	c.SetFontStyle(pdf.Regular)
	c.MoveTo(x0, y0)

	if ext.Width == 0 {
		ext.X = 0
	}
	ext.Width -= ext.X
	ext.Height = y
	return ext
}
