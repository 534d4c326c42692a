package decimate

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// maxCondition bounds the condition number of the contraction system.
// Coplanar and collinear neighborhoods produce rank deficient quadrics whose
// "optimum" drifts arbitrarily far along the flat directions.
const maxCondition = 1e8

// quadric is the symmetric 4×4 matrix pᵀp of the plane p = [a b c d]
// stored as its upper triangle in row major order:
//
//	0 1 2 3
//	  4 5 6
//	    7 8
//	      9
type quadric [10]float64

// planeQuadric returns the fundamental error quadric of the plane with unit
// normal n passing through point p.
func planeQuadric(n, p r3.Vec) quadric {
	a, b, c := n.X, n.Y, n.Z
	d := -r3.Dot(n, p)
	return quadric{
		a * a, a * b, a * c, a * d,
		b * b, b * c, b * d,
		c * c, c * d,
		d * d,
	}
}

func (q quadric) add(o quadric) quadric {
	for i := range q {
		q[i] += o[i]
	}
	return q
}

func (q *quadric) sym() *mat.SymDense {
	return mat.NewSymDense(4, []float64{
		q[0], q[1], q[2], q[3],
		q[1], q[4], q[5], q[6],
		q[2], q[5], q[7], q[8],
		q[3], q[6], q[8], q[9],
	})
}

// optimum returns the point minimizing vᵀQv by solving the system with the
// quadric's last row replaced by (0, 0, 0, 1). ok is false when the system
// is singular or too badly conditioned to trust.
func (q *quadric) optimum() (v r3.Vec, ok bool) {
	a := mat.NewDense(4, 4, []float64{
		q[0], q[1], q[2], q[3],
		q[1], q[4], q[5], q[6],
		q[2], q[5], q[7], q[8],
		0, 0, 0, 1,
	})
	var lu mat.LU
	lu.Factorize(a)
	if lu.Det() == 0 || lu.Cond() > maxCondition {
		return r3.Vec{}, false
	}
	var x mat.VecDense
	err := lu.SolveVecTo(&x, false, mat.NewVecDense(4, []float64{0, 0, 0, 1}))
	if err != nil {
		return r3.Vec{}, false
	}
	v = r3.Vec{X: x.AtVec(0), Y: x.AtVec(1), Z: x.AtVec(2)}
	if math.IsNaN(v.X+v.Y+v.Z) || math.IsInf(v.X+v.Y+v.Z, 0) {
		return r3.Vec{}, false
	}
	return v, true
}

// cost evaluates vᵀQv at homogeneous point (v, 1).
func (q *quadric) cost(v r3.Vec) float64 {
	x := mat.NewVecDense(4, []float64{v.X, v.Y, v.Z, 1})
	c := mat.Inner(x, q.sym(), x)
	if c < 0 {
		// Round off on nearly zero error.
		return 0
	}
	return c
}
