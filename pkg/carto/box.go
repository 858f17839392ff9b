package carto

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Box is an axis aligned rectangle. It is used for map envelopes in map
// units as well as for page rectangles in meters, in which case Y grows
// downwards from the top edge of the page.
type Box struct {
	MinX, MinY, MaxX, MaxY float64
}

// NewBox returns the box spanned by the two corners, in any order.
func NewBox(x0, y0, x1, y1 float64) Box {
	return Box{
		MinX: math.Min(x0, x1),
		MinY: math.Min(y0, y1),
		MaxX: math.Max(x0, x1),
		MaxY: math.Max(y0, y1),
	}
}

// EmptyBox returns a box that contains nothing and acts as the identity
// for Union.
func EmptyBox() Box {
	return Box{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
}

// BoxFromBound converts an orb bound.
func BoxFromBound(b orb.Bound) Box {
	return Box{MinX: b.Min[0], MinY: b.Min[1], MaxX: b.Max[0], MaxY: b.Max[1]}
}

// Bound converts the box to an orb bound.
func (b Box) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{b.MinX, b.MinY}, Max: orb.Point{b.MaxX, b.MaxY}}
}

// Valid reports whether the box has non-negative extent on both axes.
func (b Box) Valid() bool {
	return b.MinX <= b.MaxX && b.MinY <= b.MaxY &&
		!math.IsInf(b.MinX, 0) && !math.IsInf(b.MaxX, 0)
}

func (b Box) Width() float64  { return b.MaxX - b.MinX }
func (b Box) Height() float64 { return b.MaxY - b.MinY }

// Center returns the midpoint of the box.
func (b Box) Center() (x, y float64) {
	return (b.MinX + b.MaxX) / 2, (b.MinY + b.MaxY) / 2
}

// Intersect returns the overlap of b and o. The result is not Valid when
// the boxes do not overlap.
func (b Box) Intersect(o Box) Box {
	return Box{
		MinX: math.Max(b.MinX, o.MinX),
		MinY: math.Max(b.MinY, o.MinY),
		MaxX: math.Min(b.MaxX, o.MaxX),
		MaxY: math.Min(b.MaxY, o.MaxY),
	}
}

// Union returns the smallest box containing both b and o.
func (b Box) Union(o Box) Box {
	if !o.Valid() {
		return b
	}
	if !b.Valid() {
		return o
	}
	return Box{
		MinX: math.Min(b.MinX, o.MinX),
		MinY: math.Min(b.MinY, o.MinY),
		MaxX: math.Max(b.MaxX, o.MaxX),
		MaxY: math.Max(b.MaxY, o.MaxY),
	}
}

// ExpandToInclude grows the box so that it contains the point.
func (b Box) ExpandToInclude(x, y float64) Box {
	if !b.Valid() {
		return Box{MinX: x, MinY: y, MaxX: x, MaxY: y}
	}
	return Box{
		MinX: math.Min(b.MinX, x),
		MinY: math.Min(b.MinY, y),
		MaxX: math.Max(b.MaxX, x),
		MaxY: math.Max(b.MaxY, y),
	}
}

// Contains reports whether o lies inside b, with a small tolerance for
// floating point error.
func (b Box) Contains(o Box) bool {
	const eps = 1e-9
	return o.MinX >= b.MinX-eps && o.MinY >= b.MinY-eps &&
		o.MaxX <= b.MaxX+eps && o.MaxY <= b.MaxY+eps
}

// ContainsPoint reports whether the point lies inside b.
func (b Box) ContainsPoint(x, y float64) bool {
	return x >= b.MinX && x <= b.MaxX && y >= b.MinY && y <= b.MaxY
}

// Scale resizes the box about its center by f.
func (b Box) Scale(f float64) Box {
	cx, cy := b.Center()
	hw, hh := b.Width()*f/2, b.Height()*f/2
	return Box{MinX: cx - hw, MinY: cy - hh, MaxX: cx + hw, MaxY: cy + hh}
}

// Translate moves the box by (dx, dy).
func (b Box) Translate(dx, dy float64) Box {
	return Box{MinX: b.MinX + dx, MinY: b.MinY + dy, MaxX: b.MaxX + dx, MaxY: b.MaxY + dy}
}

func (b Box) String() string {
	return fmt.Sprintf("Box(%g, %g, %g, %g)", b.MinX, b.MinY, b.MaxX, b.MaxY)
}
