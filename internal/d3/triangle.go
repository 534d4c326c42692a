package d3

import (
	"math"

	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Normal returns the unit normal of triangle (a, b, c) following the right
// hand rule. Degenerate triangles have a zero normal.
func Normal(a, b, c ms3.Vec) ms3.Vec {
	n := ms3.Cross(ms3.Sub(b, a), ms3.Sub(c, a))
	l := ms3.Norm(n)
	if l == 0 || math32.IsNaN(l) {
		return ms3.Vec{}
	}
	return ms3.Scale(1/l, n)
}

// Normal64 returns the double precision unit normal of triangle (a, b, c).
// Degenerate triangles have a zero normal.
func Normal64(a, b, c r3.Vec) r3.Vec {
	n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
	l := r3.Norm(n)
	if l == 0 || math.IsNaN(l) {
		return r3.Vec{}
	}
	return r3.Scale(1/l, n)
}

// Centroid returns the mean of the triangle's corners.
func Centroid(a, b, c ms3.Vec) ms3.Vec {
	return ms3.Scale(1./3., ms3.Add(ms3.Add(a, b), c))
}

// Area returns the area of triangle (a, b, c).
func Area(a, b, c ms3.Vec) float32 {
	return 0.5 * ms3.Norm(ms3.Cross(ms3.Sub(b, a), ms3.Sub(c, a)))
}
