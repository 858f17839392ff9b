package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorFlowsAcrossColumnsAndPages(t *testing.T) {
	c := NewCursor(2, 100, 50, true)
	c.Spacing = 5

	var slots []Slot
	for i := 0; i < 6; i++ {
		s, ok := c.Place(20)
		require.True(t, ok)
		slots = append(slots, s)
		c.Advance(20)
	}

	want := []Slot{
		{X: 0, Y: 0},
		{X: 0, Y: 25},
		{X: 100, Y: 0, Column: 1},
		{X: 100, Y: 25, Column: 1},
		{X: 0, Y: 0, NewPage: true},
		{X: 0, Y: 25},
	}
	assert.Equal(t, want, slots)
	assert.Equal(t, 1, c.PageBreaks())
	assert.Equal(t, 50.0, c.Extent())
	assert.Equal(t, 50.0, c.Y())
}

func TestCursorWithoutPaging(t *testing.T) {
	c := NewCursor(1, 100, 30, false)
	_, ok := c.Place(20)
	require.True(t, ok)
	c.Advance(20)

	_, ok = c.Place(20)
	assert.False(t, ok)
	assert.Equal(t, 20.0, c.Y())
	assert.Zero(t, c.PageBreaks())
}

func TestCursorUnlimitedHeight(t *testing.T) {
	c := NewCursor(0, 10, 0, false)
	assert.Equal(t, 1, c.Columns)
	for i := 0; i < 100; i++ {
		s, ok := c.Place(1000)
		require.True(t, ok)
		assert.Zero(t, s.Column)
		c.Advance(1000)
	}
	assert.Equal(t, 100000.0, c.Extent())
}

func TestCursorOversizedItem(t *testing.T) {
	c := NewCursor(2, 10, 5, true)
	s, ok := c.Place(8)
	require.True(t, ok)
	// at the top of a column an item too tall still moves on once
	assert.Equal(t, 1, s.Column)
	assert.Zero(t, s.Y)
}
