// Package units converts between page meters, PDF points, inches and
// raster pixels.
package units

const (
	// MetersPerInch is the length of one inch in meters.
	MetersPerInch = 0.0254
	// PointsPerInch is the number of PDF points in one inch.
	PointsPerInch = 72.0
)

// M2Pt converts meters to PDF points.
func M2Pt(m float64) float64 {
	return m / (MetersPerInch / PointsPerInch)
}

// Pt2M converts PDF points to meters.
func Pt2M(pt float64) float64 {
	return pt * MetersPerInch / PointsPerInch
}

// M2In converts meters to inches.
func M2In(m float64) float64 {
	return m / MetersPerInch
}

// M2Px converts meters to pixels at the given resolution in DPI.
func M2Px(m, dpi float64) float64 {
	return m / MetersPerInch * dpi
}

// Px2M converts pixels at the given resolution in DPI to meters.
func Px2M(px, dpi float64) float64 {
	return px * MetersPerInch / dpi
}
