package text

import "strings"

// Plain draws a single line of unstyled text. Markup is stripped and line
// breaks become spaces. The current point moves down by twice the font
// size: once to the baseline and once past it.
type Plain struct{}

func (Plain) Draw(c Canvas, src string, o Options) Extents {
	size := o.size()
	s := strings.Join(strings.Fields(StripMarkup(src)), " ")
	x, y := c.CurrentPoint()

	setColor(c, o.Color)
	c.ShowText(x, y+size, visualOrder(s), size)
	c.MoveTo(x, y+2*size)

	return Extents{Width: c.TextWidthStyle(s, size, ""), Height: size}
}
