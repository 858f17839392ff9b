// Package overlay computes the geometry of the scale bar, the coordinate
// grid and the graticule drawn around and over the map.
package overlay

import (
	"fmt"
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mapprint/mapprint/internal/scales"
	"github.com/mapprint/mapprint/pkg/carto"
)

// ScalebarSteps are the normalized division sizes of scale bars and grids.
var ScalebarSteps = []float64{1, 2, 5}

// ScalebarSize picks a division size in map units for a map envWidth
// units wide shown mapBoxWidth meters wide on the page. The division is
// halved until it is no wider than width on the page, when width is
// positive. pageDiv is the division size on the page in meters.
func ScalebarSize(envWidth, mapBoxWidth float64, divisions int, width float64) (div, pageDiv float64) {
	if divisions <= 0 {
		divisions = 1
	}
	div = scales.Sequence(envWidth/float64(divisions), ScalebarSteps)
	pageDiv = mapBoxWidth * div / envWidth
	for width > 0 && pageDiv > width {
		div /= 2
		pageDiv /= 2
	}
	return div, pageDiv
}

// AxisFirstValue returns the first division boundary strictly after start
// and its position along an axis length long, as a fraction.
func AxisFirstValue(div, start, length float64) (first, fraction float64) {
	first = (math.Floor(start/div) + 1) * div
	return first, (first - start) / length
}

// DivUnit converts a division size in meters to the unit it reads best
// in.
func DivUnit(div float64) (value float64, unit string) {
	if div > 1000 {
		return div / 1000, "km"
	}
	return div, "m"
}

// FormatNumber prints v without a trailing ".0".
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ScaleLabels returns the labels of the left edge of each scale bar box
// and the right edge of the last: "0m", "500m", "1km", ...
func ScaleLabels(div float64, divisions int) []string {
	value, unit := DivUnit(div)
	labels := make([]string, divisions+1)
	labels[0] = "0" + unit
	for i := 1; i <= divisions; i++ {
		labels[i] = FormatNumber(float64(i)*value) + unit
	}
	return labels
}

// RepresentativeFraction formats "Scale 1:N". With a locale the number is
// grouped the way the locale writes it.
func RepresentativeFraction(denominator float64, locale string) string {
	n := int64(denominator)
	if locale == "" {
		return fmt.Sprintf("Scale 1:%d", n)
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return fmt.Sprintf("Scale 1:%d", n)
	}
	return message.NewPrinter(tag).Sprintf("Scale 1:%d", n)
}

// GridBox is one border box of the coordinate grid, spanning [From, To]
// along the axis in page meters.
type GridBox struct {
	From, To float64
	Label    string
	Filled   bool
}

// GridAxis is the grid along one axis of the map box.
type GridAxis struct {
	// Lines are the positions of the grid lines in page meters.
	Lines []float64
	Boxes []GridBox
}

// Grid lays out the grid along an axis of the map box spanning
// [start, end] on the page. first and fraction come from AxisFirstValue,
// pageDiv and div from ScalebarSize. Each box is labeled with the map
// value at its leading line; the first and the last box are unlabeled.
// Lat/lon labels wrap at the antimeridian.
func Grid(first, fraction, start, end, pageDiv, div float64, latlon bool) GridAxis {
	var g GridAxis
	if pageDiv <= 0 || end <= start {
		return g
	}

	label := first - div
	if latlon && label < -180 {
		label += 360
	}
	prev := start
	text := ""
	filled := true
	for value := fraction*(end-start) + start; value < end; value += pageDiv {
		g.Lines = append(g.Lines, value)
		g.Boxes = append(g.Boxes, GridBox{From: prev, To: value, Label: text, Filled: filled})

		prev = value
		filled = !filled
		label += div
		if latlon && label > 180 {
			label -= 360
		}
		text = formatGridLabel(label)
	}
	g.Boxes = append(g.Boxes, GridBox{From: prev, To: end, Filled: filled})
	return g
}

func formatGridLabel(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}

// GridValues returns the multiples of step after first up to and
// including the first one at or past last.
func GridValues(first, last, step float64) []float64 {
	if step <= 0 || math.IsNaN(first) || math.IsNaN(last) {
		return nil
	}
	val := (math.Floor(first/step) + 1) * step
	out := []float64{val}
	for val < last {
		val += step
		out = append(out, val)
	}
	return out
}

// FormatDegMinSec formats decimal degrees as degrees, minutes and seconds,
// for example 12°30'15".
func FormatDegMinSec(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	total := int64(math.Round(v * 3600))
	deg := total / 3600
	minutes := total % 3600 / 60
	sec := total % 60
	return fmt.Sprintf("%s%d°%d'%d\"", sign, deg, minutes, sec)
}

// GraticuleLabel formats a graticule value in decimal degrees or as
// degrees, minutes and seconds.
func GraticuleLabel(v float64, decDegrees bool) string {
	if decDegrees {
		return strconv.FormatFloat(v, 'g', 6, 64)
	}
	return FormatDegMinSec(v)
}

// GraticuleDivision returns the spacing of graticule lines for a map
// lonLatWidth degrees wide.
func GraticuleDivision(lonLatWidth float64, decDegrees bool) float64 {
	if decDegrees {
		return scales.Default(lonLatWidth / 7)
	}
	return scales.DegMinSec(lonLatWidth / 7)
}

// AdjustLatLonBounds shifts lon/lat bounds computed by inverse projecting
// a map envelope so that they contain the envelope's center. Envelopes
// across the antimeridian invert to bounds on the wrong side of it.
func AdjustLatLonBounds(b carto.Box, centerLon, centerLat float64) carto.Box {
	if centerLon > b.MaxX {
		b = carto.Box{MinX: b.MaxX, MinY: b.MinY, MaxX: b.MinX + 360, MaxY: b.MaxY}
	}
	if centerLat > b.MaxY {
		b = carto.Box{MinX: b.MinX, MinY: b.MaxY, MaxX: b.MaxX, MaxY: b.MinY + 360}
	}
	return b
}
