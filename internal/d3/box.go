package d3

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// d3.Box is a 3d bounding box.
type Box r3.Box

// CenteredBox creates a Box with a given center and size.
// Negative components of size will be interpreted as zero.
func CenteredBox(center, size r3.Vec) Box {
	size = MaxElem(size, r3.Vec{}) // set negative values to zero.
	half := r3.Scale(0.5, size)
	return Box{Min: r3.Sub(center, half), Max: r3.Add(center, half)}
}

// Include enlarges a 3d box to include a point.
func (a Box) Include(v r3.Vec) Box {
	return Box{
		Min: MinElem(a.Min, v),
		Max: MaxElem(a.Max, v),
	}
}

// Size returns the size of a 3d box.
func (a Box) Size() r3.Vec {
	return r3.Sub(a.Max, a.Min)
}

// Vertices returns the 8 box corners. Index bits 0, 1 and 2 select the
// maximum X, Y and Z coordinate respectively.
func (a Box) Vertices() [8]r3.Vec {
	var v [8]r3.Vec
	for i := range v {
		v[i] = a.Min
		if i&1 != 0 {
			v[i].X = a.Max.X
		}
		if i&2 != 0 {
			v[i].Y = a.Max.Y
		}
		if i&4 != 0 {
			v[i].Z = a.Max.Z
		}
	}
	return v
}
