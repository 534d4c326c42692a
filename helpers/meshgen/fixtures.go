package meshgen

import (
	"math/rand"

	"github.com/soypat/grainmesh"
	"github.com/soypat/grainmesh/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// UnitCube returns the unit cube [0,1]³ as 12 outward wound triangles
// labeled (inside, outside).
func UnitCube(inside, outside int32) *grainmesh.TriangleMesh {
	corners := d3.Box{Max: d3.Elem(1)}.Vertices()
	m := &grainmesh.TriangleMesh{Vertices: make([]grainmesh.Vertex, len(corners))}
	for i, c := range corners {
		m.Vertices[i] = d3.To32(c)
	}
	// Quads in counter clockwise order seen from outside. Corner index
	// bits 0, 1 and 2 select maximum X, Y and Z.
	quads := [6][4]int{
		{0, 4, 6, 2}, // -x
		{1, 3, 7, 5}, // +x
		{0, 1, 5, 4}, // -y
		{2, 6, 7, 3}, // +y
		{0, 2, 3, 1}, // -z
		{4, 5, 7, 6}, // +z
	}
	for _, q := range quads {
		m.Triangles = append(m.Triangles,
			grainmesh.Triangle{q[0], q[1], q[2]},
			grainmesh.Triangle{q[0], q[2], q[3]},
		)
	}
	m.Labels = make([]grainmesh.LabelPair, len(m.Triangles))
	m.Normals = make([]grainmesh.Vertex, len(m.Triangles))
	for i := range m.Triangles {
		m.Labels[i] = grainmesh.LabelPair{inside, outside}
		v := m.TriangleVertices(i)
		m.Normals[i] = d3.Normal(v[0], v[1], v[2])
	}
	return m
}

// Row returns n unit cubes lined up along x. Cube i spans [i, i+1] and
// carries label i+1. Faces between cubes i and i+1 are labeled
// (i+1, i+2) with a +x normal, all other faces are labeled
// (i+1, ExteriorLabel) with outward normals.
func Row(n int) *grainmesh.TriangleMesh {
	m := &grainmesh.TriangleMesh{}
	for i := 0; i <= n; i++ {
		for j := 0; j < 2; j++ {
			for k := 0; k < 2; k++ {
				m.Vertices = append(m.Vertices, grainmesh.Vertex{X: float32(i), Y: float32(j), Z: float32(k)})
			}
		}
	}
	at := func(i, j, k int) int { return i*4 + j*2 + k }
	quad := func(a, b, c, d int, lp grainmesh.LabelPair) {
		m.Triangles = append(m.Triangles, grainmesh.Triangle{a, b, c}, grainmesh.Triangle{a, c, d})
		m.Labels = append(m.Labels, lp, lp)
	}
	for i := 0; i < n; i++ {
		ext := grainmesh.LabelPair{int32(i + 1), ExteriorLabel}
		quad(at(i, 0, 0), at(i+1, 0, 0), at(i+1, 0, 1), at(i, 0, 1), ext) // -y
		quad(at(i, 1, 0), at(i, 1, 1), at(i+1, 1, 1), at(i+1, 1, 0), ext) // +y
		quad(at(i, 0, 0), at(i, 1, 0), at(i+1, 1, 0), at(i+1, 0, 0), ext) // -z
		quad(at(i, 0, 1), at(i+1, 0, 1), at(i+1, 1, 1), at(i, 1, 1), ext) // +z
	}
	for i := 0; i <= n; i++ {
		lp := grainmesh.LabelPair{int32(i), int32(i + 1)}
		switch i {
		case 0:
			// -x face of the first cube.
			quad(at(0, 0, 1), at(0, 1, 1), at(0, 1, 0), at(0, 0, 0), grainmesh.LabelPair{1, ExteriorLabel})
			continue
		case n:
			lp = grainmesh.LabelPair{int32(n), ExteriorLabel}
		}
		quad(at(i, 0, 0), at(i, 1, 0), at(i, 1, 1), at(i, 0, 1), lp)
	}
	m.Normals = make([]grainmesh.Vertex, len(m.Triangles))
	for i := range m.Triangles {
		v := m.TriangleVertices(i)
		m.Normals[i] = d3.Normal(v[0], v[1], v[2])
	}
	return m
}

// Grid returns an n×n grid of unit squares on the z=0 plane split into
// 2n² triangles, all wound with a +z normal and labeled (1, 2).
func Grid(n int) *grainmesh.TriangleMesh {
	m := &grainmesh.TriangleMesh{}
	for j := 0; j <= n; j++ {
		for i := 0; i <= n; i++ {
			m.Vertices = append(m.Vertices, d3.To32(r3.Vec{X: float64(i), Y: float64(j)}))
		}
	}
	at := func(i, j int) int { return j*(n+1) + i }
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			m.Triangles = append(m.Triangles,
				grainmesh.Triangle{at(i, j), at(i+1, j), at(i+1, j+1)},
				grainmesh.Triangle{at(i, j), at(i+1, j+1), at(i, j+1)},
			)
		}
	}
	m.Labels = make([]grainmesh.LabelPair, len(m.Triangles))
	m.Normals = make([]grainmesh.Vertex, len(m.Triangles))
	for i := range m.Triangles {
		m.Labels[i] = grainmesh.LabelPair{1, 2}
		m.Normals[i] = grainmesh.Vertex{Z: 1}
	}
	return m
}

// Scramble reverses the winding of a random subset of m's triangles,
// negating their normals, and returns how many were reversed.
// Labels are untouched.
func Scramble(m *grainmesh.TriangleMesh, seed int64) int {
	rng := rand.New(rand.NewSource(seed))
	n := 0
	for i := range m.Triangles {
		if rng.Intn(2) == 0 {
			continue
		}
		m.Triangles[i] = m.Triangles[i].Reverse()
		if m.Normals != nil {
			nv := m.Normals[i]
			m.Normals[i] = grainmesh.Vertex{X: -nv.X, Y: -nv.Y, Z: -nv.Z}
		}
		n++
	}
	return n
}
