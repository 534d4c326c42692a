// Package grainmesh holds the mesh data model shared by the incidence,
// topology, decimation and winding repair packages.
//
// Meshes are index addressed: vertices, triangles and tetrahedra carry no
// identity other than their position in the owning slice. Operations read
// the host's arrays, work on private copies and hand back new arrays.
package grainmesh

import (
	"github.com/soypat/glgl/math/ms3"
)

// Vertex is a mesh point stored in the host's native single precision.
type Vertex = ms3.Vec

// Triangle holds three vertex indices in winding order.
type Triangle [3]int

// Reverse returns the triangle with opposite winding. The first vertex is kept.
func (t Triangle) Reverse() Triangle { return Triangle{t[0], t[2], t[1]} }

// Degenerate reports whether the triangle references fewer than 3 distinct vertices.
func (t Triangle) Degenerate() bool {
	return t[0] == t[1] || t[1] == t[2] || t[2] == t[0]
}

// Contains reports whether v is a corner of t.
func (t Triangle) Contains(v int) bool {
	return t[0] == v || t[1] == v || t[2] == v
}

// LabelPair holds the region identifiers on both sides of a triangle.
// Index 0 is the region the triangle's winding is oriented for: its right
// hand normal points out of region 0 and into region 1. Negative labels
// denote the exterior of the volume.
type LabelPair [2]int32

// Has reports whether label l is on either side of the pair.
func (lp LabelPair) Has(l int32) bool { return lp[0] == l || lp[1] == l }

// Other returns the label opposite to l. If l is not part of the pair
// the first label is returned.
func (lp LabelPair) Other(l int32) int32 {
	if lp[0] == l {
		return lp[1]
	}
	return lp[0]
}

// Exterior reports whether either side lies outside the volume.
func (lp LabelPair) Exterior() bool { return lp[0] < 0 || lp[1] < 0 }

// Tetrahedron is a volumetric element of a TetMesh.
type Tetrahedron struct {
	Nodes [4]int
	// Edges indices are carried for the host and are not used
	// by decimation. They are invalidated (-1) when nodes are renumbered.
	Edges [6]int
	// Spin is the region label of the element.
	Spin int32
	// Origin is the index of the voxel or element this tetrahedron was created from.
	Origin int
}

// Degenerate reports whether the tetrahedron spans fewer than 4 distinct nodes.
func (t *Tetrahedron) Degenerate() bool {
	n := &t.Nodes
	return n[0] == n[1] || n[0] == n[2] || n[0] == n[3] ||
		n[1] == n[2] || n[1] == n[3] || n[2] == n[3]
}

// Contains reports whether node is a corner of t.
func (t *Tetrahedron) Contains(node int) bool {
	n := &t.Nodes
	return n[0] == node || n[1] == node || n[2] == node || n[3] == node
}

// NoEdges is the Edges value of a tetrahedron with invalidated edge indices.
var NoEdges = [6]int{-1, -1, -1, -1, -1, -1}

// TriangleMesh is a multiply labeled surface mesh.
type TriangleMesh struct {
	Vertices  []Vertex
	Triangles []Triangle
	// Labels is optional. When present it has one entry per triangle.
	Labels []LabelPair
	// Normals is optional. When present it has one unit normal per triangle.
	Normals []Vertex
	// FaceData are host attribute arrays with one tuple per triangle.
	FaceData []Attribute
	// VertexData are host attribute arrays with one tuple per vertex.
	VertexData []Attribute
	// EdgeData are host attribute arrays with one tuple per edge.
	EdgeData []Attribute
}

// Clone returns a copy of the mesh's geometry, labels and normals.
// Attribute arrays are shared with m.
func (m *TriangleMesh) Clone() *TriangleMesh {
	c := *m
	c.Vertices = append([]Vertex(nil), m.Vertices...)
	c.Triangles = append([]Triangle(nil), m.Triangles...)
	if m.Labels != nil {
		c.Labels = append([]LabelPair(nil), m.Labels...)
	}
	if m.Normals != nil {
		c.Normals = append([]Vertex(nil), m.Normals...)
	}
	return &c
}

// TriangleVertices returns the corner positions of triangle i.
func (m *TriangleMesh) TriangleVertices(i int) [3]Vertex {
	t := m.Triangles[i]
	return [3]Vertex{m.Vertices[t[0]], m.Vertices[t[1]], m.Vertices[t[2]]}
}

// MaxLabel returns the largest label in Labels, or -1 if there are none.
func (m *TriangleMesh) MaxLabel() int32 {
	max := int32(-1)
	for _, lp := range m.Labels {
		if lp[0] > max {
			max = lp[0]
		}
		if lp[1] > max {
			max = lp[1]
		}
	}
	return max
}

// TetMesh is a labeled volumetric mesh.
type TetMesh struct {
	Nodes      []Vertex
	Tetrahedra []Tetrahedron
	// Boundary optionally pre-marks nodes as boundary nodes. When present
	// it has one entry per node.
	Boundary []bool
	// TetData are host attribute arrays with one tuple per tetrahedron.
	TetData []Attribute
}
