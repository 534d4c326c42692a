// Package quality measures how much a decimated mesh departs from its
// input and summarizes mesh statistics for reports.
package quality

import (
	"math"

	"github.com/soypat/grainmesh"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// Deviation holds distances from every reference vertex to the nearest
// vertex of a decimated mesh.
type Deviation struct {
	Distances []float64
	Max       float64
	Mean      float64
	RMS       float64
}

// VertexDeviation measures for every vertex in ref the distance to the
// closest vertex in dec.
func VertexDeviation(ref, dec []grainmesh.Vertex) (Deviation, error) {
	if len(ref) == 0 || len(dec) == 0 {
		return Deviation{}, grainmesh.Errorf(grainmesh.MissingInput, "deviation needs vertices on both meshes, got %d and %d", len(ref), len(dec))
	}
	pts := make(kdtree.Points, len(dec))
	for i, v := range dec {
		pts[i] = kdtree.Point{float64(v.X), float64(v.Y), float64(v.Z)}
	}
	tree := kdtree.New(pts, false)
	d := Deviation{Distances: make([]float64, len(ref))}
	var sum, sum2 float64
	for i, v := range ref {
		_, d2 := tree.Nearest(kdtree.Point{float64(v.X), float64(v.Y), float64(v.Z)})
		dist := math.Sqrt(d2)
		d.Distances[i] = dist
		sum += dist
		sum2 += d2
		if dist > d.Max {
			d.Max = dist
		}
	}
	n := float64(len(ref))
	d.Mean = sum / n
	d.RMS = math.Sqrt(sum2 / n)
	return d, nil
}
