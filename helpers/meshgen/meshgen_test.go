package meshgen

import (
	"math"
	"testing"

	"github.com/soypat/grainmesh"
	"github.com/soypat/grainmesh/incidence"
	"github.com/soypat/grainmesh/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestLattice(t *testing.T) {
	m, err := Lattice(r3.Box{Max: r3.Vec{X: 2, Y: 3, Z: 4}}, 1)
	if err != nil {
		t.Fatal(err)
	}
	// Faces shared by face adjacent cells.
	faces := 1*3*4 + 2*2*4 + 2*3*3
	if len(m.Tetrahedra) != 4*faces {
		t.Errorf("got %d tetrahedra, want %d", len(m.Tetrahedra), 4*faces)
	}
	used := make([]bool, len(m.Nodes))
	var volume float64
	for i := range m.Tetrahedra {
		tet := &m.Tetrahedra[i]
		if tet.Degenerate() {
			t.Fatalf("tetrahedron %d degenerate", i)
		}
		for _, n := range tet.Nodes {
			used[n] = true
		}
		volume += tetVolume(m, i)
	}
	for n, u := range used {
		if !u {
			t.Errorf("node %d unused", n)
		}
	}
	// The 4 tetrahedra around a shared face fill a bipyramid of volume res³/3.
	if want := float64(faces) / 3; math.Abs(volume-want) > 1e-6 {
		t.Errorf("volume %g, want %g", volume, want)
	}
	if _, err := Lattice(r3.Box{Max: r3.Vec{X: 1, Y: 1, Z: 1}}, 0); err == nil {
		t.Error("expected error for zero resolution")
	}
}

func tetVolume(m *grainmesh.TetMesh, i int) float64 {
	n := m.Tetrahedra[i].Nodes
	a := d3.To64(m.Nodes[n[0]])
	b := r3.Sub(d3.To64(m.Nodes[n[1]]), a)
	c := r3.Sub(d3.To64(m.Nodes[n[2]]), a)
	d := r3.Sub(d3.To64(m.Nodes[n[3]]), a)
	v := r3.Dot(b, r3.Cross(c, d)) / 6
	if v < 0 {
		return -v
	}
	return v
}

func TestMicrostructureLabels(t *testing.T) {
	cfg := Config{
		Box:        r3.Box{Max: r3.Vec{X: 4, Y: 4, Z: 4}},
		Resolution: 1,
		Grains:     5,
		Seed:       2,
	}
	a, err := Microstructure(cfg)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Microstructure(cfg)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.Tetrahedra {
		s := a.Tetrahedra[i].Spin
		if s < 1 || s > int32(cfg.Grains) {
			t.Fatalf("tetrahedron %d spin %d out of range", i, s)
		}
		if s != b.Tetrahedra[i].Spin {
			t.Fatalf("tetrahedron %d spin differs between runs", i)
		}
	}
	cfg.Grains = 0
	if _, err := Microstructure(cfg); err == nil {
		t.Error("expected error for zero grains")
	}
}

func TestBoundarySurfaceClosed(t *testing.T) {
	tm, err := Microstructure(Config{
		Box:        r3.Box{Max: r3.Vec{X: 4, Y: 4, Z: 4}},
		Resolution: 1,
		Grains:     3,
		Seed:       4,
	})
	if err != nil {
		t.Fatal(err)
	}
	sm, err := BoundarySurface(tm)
	if err != nil {
		t.Fatal(err)
	}
	if err := grainmesh.CheckTriangles(sm, true); err != nil {
		t.Fatal(err)
	}
	idx, err := incidence.FromTriangles(len(sm.Vertices), sm.Triangles)
	if err != nil {
		t.Fatal(err)
	}
	// Every edge of a grain's boundary is shared by an even number of that
	// grain's triangles and traversed equally often in both directions.
	var buf []int32
	for i, tri := range sm.Triangles {
		for e := 0; e < 3; e++ {
			a, b := tri[e], tri[(e+1)%3]
			for _, l := range sm.Labels[i] {
				if l < 0 {
					continue
				}
				balance := 0
				buf = idx.EdgeFaces(buf[:0], a, b)
				for _, f := range buf {
					if !sm.Labels[f].Has(l) {
						continue
					}
					w := sm.Triangles[f]
					if sm.Labels[f][0] != l {
						w = w.Reverse()
					}
					for k := 0; k < 3; k++ {
						switch {
						case w[k] == a && w[(k+1)%3] == b:
							balance++
						case w[k] == b && w[(k+1)%3] == a:
							balance--
						}
					}
				}
				if balance != 0 {
					t.Fatalf("grain %d open at edge %d-%d", l, a, b)
				}
			}
		}
	}
	for i := range sm.Triangles {
		v := sm.TriangleVertices(i)
		n := d3.Normal(v[0], v[1], v[2])
		if d := n.X*sm.Normals[i].X + n.Y*sm.Normals[i].Y + n.Z*sm.Normals[i].Z; d < 0.99 {
			t.Errorf("triangle %d normal disagrees with winding", i)
		}
	}
}

func TestFixtures(t *testing.T) {
	for name, m := range map[string]*grainmesh.TriangleMesh{
		"cube": UnitCube(1, ExteriorLabel),
		"row":  Row(3),
		"grid": Grid(3),
	} {
		if err := grainmesh.CheckTriangles(m, true); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
	if n := len(Row(3).Triangles); n != 3*8+4*2 {
		t.Errorf("row has %d triangles", n)
	}
	m := Grid(4)
	orig := append([]grainmesh.Triangle(nil), m.Triangles...)
	n := Scramble(m, 1)
	changed := 0
	for i := range orig {
		if orig[i] != m.Triangles[i] {
			changed++
			if orig[i].Reverse() != m.Triangles[i] || m.Normals[i].Z != -1 {
				t.Errorf("triangle %d not reversed cleanly", i)
			}
		}
	}
	if changed != n {
		t.Errorf("Scramble reported %d, changed %d", n, changed)
	}
}
