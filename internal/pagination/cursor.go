// Package pagination flows fixed width items down columns and across
// pages.
package pagination

// Slot is where an item goes, relative to the top left corner of the
// block the items are laid out in.
type Slot struct {
	X, Y   float64
	Column int
	// NewPage is set when the item starts a new page.
	NewPage bool
}

// Cursor tracks the next free position. Items are placed top to bottom;
// an item that would cross Height moves to the top of the next column,
// and past the last column to the first column of a new page.
type Cursor struct {
	Columns     int
	ColumnWidth float64
	// Height is the vertical budget; zero or less means unlimited.
	Height float64
	// Paging allows new pages. Without it Place fails once the columns
	// are exhausted.
	Paging bool
	// Spacing separates consecutive items in a column.
	Spacing float64

	y      float64
	column int
	pages  int
	maxY   float64
}

// NewCursor returns a cursor at the top of the first column.
func NewCursor(columns int, columnWidth, height float64, paging bool) *Cursor {
	if columns < 1 {
		columns = 1
	}
	return &Cursor{Columns: columns, ColumnWidth: columnWidth, Height: height, Paging: paging}
}

// Place reserves room for an item of the given height. It reports false,
// leaving the cursor unchanged, when the item does not fit and paging is
// disabled.
func (c *Cursor) Place(height float64) (Slot, bool) {
	var newPage bool
	if c.Height > 0 && c.y+height > c.Height {
		column := c.column + 1
		if column >= c.Columns {
			if !c.Paging {
				return Slot{}, false
			}
			column = 0
			newPage = true
			c.pages++
		}
		c.column = column
		c.y = 0
	}
	return Slot{X: float64(c.column) * c.ColumnWidth, Y: c.y, Column: c.column, NewPage: newPage}, true
}

// Advance moves the cursor below an item of the given height placed at
// the current position.
func (c *Cursor) Advance(height float64) {
	c.y += height + c.Spacing
	c.maxY = max(c.maxY, c.y)
}

// Y returns the current vertical position.
func (c *Cursor) Y() float64 { return c.y }

// Extent returns the lowest position reached in any column.
func (c *Cursor) Extent() float64 { return c.maxY }

// PageBreaks returns the number of pages started after the first.
func (c *Cursor) PageBreaks() int { return c.pages }
