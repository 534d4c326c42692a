// Package topology classifies mesh vertices by the grain regions that meet
// at them.
package topology

import (
	"fmt"

	"github.com/soypat/grainmesh"
	"github.com/soypat/grainmesh/incidence"
)

// NodeType is the junction class of a vertex: the number of distinct region
// labels on its incident faces, saturated at 4, plus 10 when one of the
// labels is exterior (negative).
type NodeType int8

const (
	Unused NodeType = 0
	// Interior is a vertex whose faces all carry a single label.
	Interior   NodeType = 1
	Default    NodeType = 2
	TripleLine NodeType = 3
	// QuadPoint is a quadruple or higher order junction.
	QuadPoint NodeType = 4

	exteriorOffset = 10

	SurfaceInterior   = Interior + exteriorOffset
	SurfaceDefault    = Default + exteriorOffset
	SurfaceTripleLine = TripleLine + exteriorOffset
	SurfaceQuadPoint  = QuadPoint + exteriorOffset
)

// Exterior reports whether the vertex touches the domain exterior.
func (t NodeType) Exterior() bool { return t > exteriorOffset }

// Regions returns the saturated number of distinct labels at the vertex.
func (t NodeType) Regions() int {
	if t.Exterior() {
		return int(t - exteriorOffset)
	}
	return int(t)
}

func (t NodeType) String() string {
	var s string
	switch t.Regions() {
	case 0:
		return "unused"
	case 1:
		s = "interior"
	case 2:
		s = "default"
	case 3:
		s = "triple line"
	case 4:
		s = "quad point"
	default:
		return fmt.Sprintf("NodeType(%d)", int(t))
	}
	if t.Exterior() {
		return "surface " + s
	}
	return s
}

// Classify computes the NodeType of every vertex in idx from the face
// labels. labels must have one entry per face of the index.
func Classify(idx *incidence.Index, labels []grainmesh.LabelPair) ([]NodeType, error) {
	if idx == nil {
		return nil, grainmesh.Errorf(grainmesh.MissingInput, "no incidence index")
	}
	if len(labels) != idx.FaceCount() {
		return nil, grainmesh.Errorf(grainmesh.MissingInput, "have %d face labels for %d faces", len(labels), idx.FaceCount())
	}
	types := make([]NodeType, idx.Len())
	distinct := make([]int32, 0, 8)
	for v := range types {
		distinct = distinct[:0]
		exterior := false
		for _, f := range idx.Faces(v) {
			for _, l := range labels[f] {
				if l < 0 {
					exterior = true
				}
				if !contains(distinct, l) {
					distinct = append(distinct, l)
				}
			}
		}
		n := len(distinct)
		if n > int(QuadPoint) {
			n = int(QuadPoint)
		}
		t := NodeType(n)
		if exterior {
			t += exteriorOffset
		}
		types[v] = t
	}
	return types, nil
}

func contains(s []int32, l int32) bool {
	for _, x := range s {
		if x == l {
			return true
		}
	}
	return false
}

// Histogram counts vertices per NodeType.
func Histogram(types []NodeType) map[NodeType]int {
	h := make(map[NodeType]int)
	for _, t := range types {
		h[t]++
	}
	return h
}
