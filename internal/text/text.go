// Package text draws labels onto a PDF surface. Two renderers are
// provided: Markup lays out pango style markup with word wrapping and
// alignment, Plain draws a single unstyled line.
package text

import (
	"github.com/mapprint/mapprint/internal/render/pdf"
	"github.com/mapprint/mapprint/pkg/carto"
)

// Canvas is the part of the drawing surface text rendering needs.
type Canvas interface {
	CurrentPoint() (x, y float64)
	MoveTo(x, y float64)
	SetSourceRGBA(r, g, b, a float64)
	SetFontStyle(style pdf.FontStyle)
	ShowText(x, y float64, text string, size float64)
	TextWidthStyle(text string, size float64, style pdf.FontStyle) float64
}

// Align is the horizontal alignment of wrapped lines.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Options control a single Draw call.
type Options struct {
	// Size is the font size in points.
	Size float64
	// BoxWidth wraps lines longer than the given width in points. Zero
	// disables wrapping.
	BoxWidth float64
	Color    carto.Color
	Align    Align
}

// Extents is the rectangle covered by drawn text, relative to the point
// the text was drawn at.
type Extents struct {
	X, Y          float64
	Width, Height float64
}

// Renderer draws text at the canvas' current point.
type Renderer interface {
	Draw(c Canvas, text string, o Options) Extents
}

// Mode selects a Renderer.
type Mode int

const (
	ModeMarkup Mode = iota
	ModePlain
)

// New returns the renderer for mode.
func New(mode Mode) Renderer {
	if mode == ModePlain {
		return Plain{}
	}
	return Markup{}
}

func (o Options) size() float64 {
	if o.Size <= 0 {
		return 10
	}
	return o.Size
}

// setColor sets col, or black for the zero color.
func setColor(c Canvas, col carto.Color) {
	if col == (carto.Color{}) {
		col = carto.Black
	}
	r, g, b, a := col.Floats()
	c.SetSourceRGBA(r, g, b, a)
}
