package grainmesh

import (
	"github.com/chewxy/math32"
)

// CheckTriangles validates m before any destructive work is done.
// needLabels requires a label pair per triangle.
func CheckTriangles(m *TriangleMesh, needLabels bool) error {
	if m == nil || len(m.Vertices) == 0 {
		return Errorf(MissingInput, "surface mesh has no vertices")
	}
	if len(m.Triangles) == 0 {
		return Errorf(MissingInput, "surface mesh has no triangles")
	}
	if needLabels && m.Labels == nil {
		return Errorf(MissingInput, "surface mesh has no face labels")
	}
	if m.Labels != nil && len(m.Labels) != len(m.Triangles) {
		return Errorf(MissingInput, "face labels length %d does not match %d triangles", len(m.Labels), len(m.Triangles))
	}
	if m.Normals != nil && len(m.Normals) != len(m.Triangles) {
		return Errorf(MissingInput, "face normals length %d does not match %d triangles", len(m.Normals), len(m.Triangles))
	}
	nv := len(m.Vertices)
	for i, t := range m.Triangles {
		for _, v := range t {
			if v < 0 || v >= nv {
				return Errorf(InvalidTopology, "triangle %d references vertex %d, have %d vertices", i, v, nv)
			}
		}
	}
	for i, v := range m.Vertices {
		if badVertex(v) {
			return Errorf(InvalidTopology, "vertex %d has non-finite coordinates", i)
		}
	}
	for _, a := range m.FaceData {
		if a != nil && a.Len() != len(m.Triangles) {
			return Errorf(MissingInput, "face attribute %q has %d tuples, want %d", a.Name(), a.Len(), len(m.Triangles))
		}
	}
	return nil
}

// CheckTetrahedra validates m before any destructive work is done.
func CheckTetrahedra(m *TetMesh) error {
	if m == nil || len(m.Nodes) == 0 {
		return Errorf(MissingInput, "volume mesh has no nodes")
	}
	if len(m.Tetrahedra) == 0 {
		return Errorf(MissingInput, "volume mesh has no tetrahedra")
	}
	if m.Boundary != nil && len(m.Boundary) != len(m.Nodes) {
		return Errorf(MissingInput, "boundary flags length %d does not match %d nodes", len(m.Boundary), len(m.Nodes))
	}
	nn := len(m.Nodes)
	for i := range m.Tetrahedra {
		for _, n := range m.Tetrahedra[i].Nodes {
			if n < 0 || n >= nn {
				return Errorf(InvalidTopology, "tetrahedron %d references node %d, have %d nodes", i, n, nn)
			}
		}
	}
	for _, a := range m.TetData {
		if a != nil && a.Len() != len(m.Tetrahedra) {
			return Errorf(MissingInput, "tetrahedron attribute %q has %d tuples, want %d", a.Name(), a.Len(), len(m.Tetrahedra))
		}
	}
	return nil
}

func badVertex(v Vertex) bool {
	return math32.IsNaN(v.X) || math32.IsInf(v.X, 0) ||
		math32.IsNaN(v.Y) || math32.IsInf(v.Y, 0) ||
		math32.IsNaN(v.Z) || math32.IsInf(v.Z, 0)
}

// ReverseWinding reverses the winding of every triangle in m and negates
// the face normals if present. Labels are left untouched.
func ReverseWinding(m *TriangleMesh) {
	for i := range m.Triangles {
		m.Triangles[i] = m.Triangles[i].Reverse()
	}
	for i := range m.Normals {
		m.Normals[i] = Vertex{X: -m.Normals[i].X, Y: -m.Normals[i].Y, Z: -m.Normals[i].Z}
	}
}
