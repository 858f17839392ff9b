package pdf

import (
	"math"

	"seehuhn.de/go/geom/matrix"
)

// then returns the transform applying a first and b second.
func then(a, b matrix.Matrix) matrix.Matrix {
	return matrix.Matrix{
		a[0]*b[0] + a[1]*b[2],
		a[0]*b[1] + a[1]*b[3],
		a[2]*b[0] + a[3]*b[2],
		a[2]*b[1] + a[3]*b[3],
		a[4]*b[0] + a[5]*b[2] + b[4],
		a[4]*b[1] + a[5]*b[3] + b[5],
	}
}

func rotation(rad float64) matrix.Matrix {
	s, c := math.Sincos(rad)
	return matrix.Matrix{c, s, -s, c, 0, 0}
}

func apply(m matrix.Matrix, x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

func invert(m matrix.Matrix) (matrix.Matrix, bool) {
	det := m[0]*m[3] - m[1]*m[2]
	if det == 0 || math.IsNaN(det) {
		return matrix.Identity, false
	}
	return matrix.Matrix{
		m[3] / det,
		-m[1] / det,
		-m[2] / det,
		m[0] / det,
		(m[2]*m[5] - m[3]*m[4]) / det,
		(m[1]*m[4] - m[0]*m[5]) / det,
	}, true
}

// lengthScale is the factor by which m stretches lengths on average.
func lengthScale(m matrix.Matrix) float64 {
	return math.Sqrt(math.Abs(m[0]*m[3] - m[1]*m[2]))
}

// angle is the rotation of m's x axis in radians, clockwise on the page.
func angle(m matrix.Matrix) float64 {
	return math.Atan2(m[1], m[0])
}
