package decimate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/soypat/grainmesh"
	"github.com/soypat/grainmesh/decimate"
	"github.com/soypat/grainmesh/helpers/meshgen"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestSurfaceKeepAll(t *testing.T) {
	m := meshgen.Grid(4)
	res, err := decimate.Surface(nil, m, 100)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(m.Triangles, res.Mesh.Triangles); diff != "" {
		t.Errorf("triangles changed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(m.Vertices, res.Mesh.Vertices); diff != "" {
		t.Errorf("vertices changed (-want +got):\n%s", diff)
	}
	if res.Contractions != 0 {
		t.Errorf("got %d contractions", res.Contractions)
	}
}

func TestSurfaceInvalidPercent(t *testing.T) {
	for _, p := range []float64{-1, 100.5} {
		_, err := decimate.Surface(nil, meshgen.Grid(2), p)
		if !errors.Is(err, grainmesh.InvalidParameter) {
			t.Errorf("keep %g: got %v, want InvalidParameter", p, err)
		}
	}
	_, err := decimate.Surface(nil, &grainmesh.TriangleMesh{}, 50)
	if !errors.Is(err, grainmesh.MissingInput) {
		t.Errorf("empty mesh: got %v, want MissingInput", err)
	}
}

func TestSurfaceGrid(t *testing.T) {
	m := meshgen.Grid(8)
	ntri := len(m.Triangles)
	origin := grainmesh.NewArray[int32]("origin", ntri, 1)
	for i := range origin.Data {
		origin.Data[i] = int32(i)
	}
	m.FaceData = []grainmesh.Attribute{origin}
	m.VertexData = []grainmesh.Attribute{grainmesh.NewArray[float32]("weight", len(m.Vertices), 1)}

	res, err := decimate.Surface(nil, m, 50)
	if err != nil {
		t.Fatal(err)
	}
	out := res.Mesh
	if len(out.Triangles) > ntri/2 {
		t.Errorf("got %d triangles, want at most %d", len(out.Triangles), ntri/2)
	}
	if len(out.Triangles) == 0 {
		t.Fatal("all triangles removed")
	}
	if len(out.Labels) != len(out.Triangles) || len(out.Normals) != len(out.Triangles) {
		t.Fatalf("attribute length mismatch: %d labels, %d normals, %d triangles", len(out.Labels), len(out.Normals), len(out.Triangles))
	}
	if origin.Len() != ntri {
		t.Fatalf("input face data has %d tuples, want %d", origin.Len(), ntri)
	}
	got, ok := out.FaceData[0].(*grainmesh.Array[int32])
	if !ok || got == origin {
		t.Fatalf("face data not copied: %T", out.FaceData[0])
	}
	if got.Len() != len(out.Triangles) {
		t.Fatalf("face data has %d tuples, want %d", got.Len(), len(out.Triangles))
	}
	for i, tri := range out.Triangles {
		if tri.Degenerate() {
			t.Errorf("triangle %d degenerate: %v", i, tri)
		}
		for _, v := range tri {
			if v < 0 || v >= len(out.Vertices) {
				t.Fatalf("triangle %d references vertex %d of %d", i, v, len(out.Vertices))
			}
		}
		if int(got.Data[i]) != res.Kept[i] {
			t.Errorf("face data %d: got origin %d, want %d", i, got.Data[i], res.Kept[i])
		}
		if out.Labels[i] != (grainmesh.LabelPair{1, 2}) {
			t.Errorf("triangle %d label %v", i, out.Labels[i])
		}
	}
	for i, v := range out.Vertices {
		if v.Z != 0 {
			t.Errorf("vertex %d left the plane: %v", i, v)
		}
	}
	if out.VertexData != nil || out.EdgeData != nil {
		t.Error("vertex and edge data should be dropped")
	}
	used := make([]bool, len(out.Vertices))
	for _, tri := range out.Triangles {
		for _, v := range tri {
			used[v] = true
		}
	}
	for i, u := range used {
		if !u {
			t.Errorf("vertex %d is not referenced", i)
		}
	}
}

func TestSurfaceDeterministic(t *testing.T) {
	tm, err := meshgen.Microstructure(meshgen.Config{
		Box:        r3.Box{Max: r3.Vec{X: 4, Y: 4, Z: 4}},
		Resolution: 1,
		Grains:     3,
		Seed:       1,
	})
	if err != nil {
		t.Fatal(err)
	}
	sm, err := meshgen.BoundarySurface(tm)
	if err != nil {
		t.Fatal(err)
	}
	a, err := decimate.Surface(nil, sm, 30)
	if err != nil {
		t.Fatal(err)
	}
	b, err := decimate.Surface(nil, sm, 30)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Mesh.Triangles) > len(sm.Triangles) {
		t.Errorf("triangle count grew from %d to %d", len(sm.Triangles), len(a.Mesh.Triangles))
	}
	if diff := cmp.Diff(a.Mesh.Triangles, b.Mesh.Triangles); diff != "" {
		t.Errorf("runs differ (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(a.VertexMap, b.VertexMap); diff != "" {
		t.Errorf("vertex maps differ (-first +second):\n%s", diff)
	}
}

func TestSurfaceCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := meshgen.Grid(3)
	res, err := decimate.Surface(&grainmesh.Operation{Context: ctx}, m, 10)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if res == nil || len(res.Mesh.Triangles) != len(m.Triangles) {
		t.Error("expected unmodified partial result")
	}
}

func TestSurfaceCancelledRerun(t *testing.T) {
	m := meshgen.Grid(40)
	ntri := len(m.Triangles)
	origin := grainmesh.NewArray[int32]("origin", ntri, 1)
	for i := range origin.Data {
		origin.Data[i] = int32(i)
	}
	m.FaceData = []grainmesh.Attribute{origin}
	tris := append([]grainmesh.Triangle(nil), m.Triangles...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	op := &grainmesh.Operation{Context: ctx, Progress: func(int, string) { cancel() }}
	partial, err := decimate.Surface(op, m, 50)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if partial == nil || partial.Contractions == 0 {
		t.Fatal("expected a partially decimated result")
	}
	if err := grainmesh.CheckTriangles(m, true); err != nil {
		t.Fatalf("input damaged: %v", err)
	}
	if diff := cmp.Diff(tris, m.Triangles); diff != "" {
		t.Errorf("input triangles changed (-want +got):\n%s", diff)
	}
	for i, o := range origin.Data {
		if int(o) != i {
			t.Fatalf("input face data %d: got %d", i, o)
		}
	}
	res, err := decimate.Surface(nil, m, 50)
	if err != nil {
		t.Fatalf("repeated run: %v", err)
	}
	if len(res.Mesh.Triangles) > ntri/2 {
		t.Errorf("repeated run left %d triangles", len(res.Mesh.Triangles))
	}
	got := res.Mesh.FaceData[0].(*grainmesh.Array[int32])
	for i, k := range res.Kept {
		if int(got.Data[i]) != k {
			t.Errorf("face data %d: got %d, want %d", i, got.Data[i], k)
		}
	}
}

func TestSurfaceKeepAllCopiesData(t *testing.T) {
	m := meshgen.Grid(2)
	w := grainmesh.NewArray[float32]("w", len(m.Triangles), 1)
	m.FaceData = []grainmesh.Attribute{w}
	res, err := decimate.Surface(nil, m, 100)
	if err != nil {
		t.Fatal(err)
	}
	got := res.Mesh.FaceData[0].(*grainmesh.Array[float32])
	got.Data[0] = 1
	if w.Data[0] != 0 {
		t.Error("result face data aliases the input")
	}
}

// chain returns n tetrahedra of one region taken from a BCC lattice.
func chain(t *testing.T, n int) *grainmesh.TetMesh {
	t.Helper()
	m, err := meshgen.Lattice(r3.Box{Max: r3.Vec{X: 3, Y: 3, Z: 3}}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Tetrahedra) < n {
		t.Fatalf("lattice has %d tetrahedra, need %d", len(m.Tetrahedra), n)
	}
	m.Tetrahedra = m.Tetrahedra[:n]
	return m
}

func TestTetrahedraGoal(t *testing.T) {
	m := chain(t, 100)
	m.Boundary = make([]bool, len(m.Nodes))
	m.Boundary[m.Tetrahedra[50].Nodes[0]] = true

	res, err := decimate.Tetrahedra(nil, m, decimate.TetConfig{Goal: 10})
	if err != nil {
		t.Fatal(err)
	}
	got := len(res.Mesh.Tetrahedra)
	if got > 100 || got < 10 {
		t.Fatalf("got %d tetrahedra, want between 10 and 100", got)
	}
	if len(res.Kept) != got || len(res.Distance) != len(res.Mesh.Nodes) {
		t.Error("result bookkeeping length mismatch")
	}
	for i := range res.Mesh.Tetrahedra {
		tet := &res.Mesh.Tetrahedra[i]
		if tet.Degenerate() {
			t.Errorf("tetrahedron %d degenerate: %v", i, tet.Nodes)
		}
		for _, n := range tet.Nodes {
			if n < 0 || n >= len(res.Mesh.Nodes) {
				t.Fatalf("tetrahedron %d references node %d of %d", i, n, len(res.Mesh.Nodes))
			}
		}
		if res.Collapses > 0 && tet.Edges != grainmesh.NoEdges {
			t.Errorf("tetrahedron %d edges not invalidated", i)
		}
	}
}

func TestTetrahedraInterfacesFixed(t *testing.T) {
	m, err := meshgen.Microstructure(meshgen.Config{
		Box:        r3.Box{Max: r3.Vec{X: 6, Y: 6, Z: 6}},
		Resolution: 1,
		Grains:     2,
		Seed:       3,
	})
	if err != nil {
		t.Fatal(err)
	}
	spin := make(map[int]int32)
	iface := make(map[int]bool)
	for _, tet := range m.Tetrahedra {
		for _, n := range tet.Nodes {
			if s, ok := spin[n]; ok && s != tet.Spin {
				iface[n] = true
			}
			spin[n] = tet.Spin
		}
	}
	origin := grainmesh.NewArray[int64]("origin", len(m.Tetrahedra), 1)
	for i := range m.Tetrahedra {
		origin.Data[i] = int64(m.Tetrahedra[i].Origin)
	}
	m.TetData = []grainmesh.Attribute{origin}

	for _, nearest := range []bool{false, true} {
		in := *m
		in.Tetrahedra = append([]grainmesh.Tetrahedron(nil), m.Tetrahedra...)
		res, err := decimate.Tetrahedra(nil, &in, decimate.TetConfig{Goal: len(m.Tetrahedra) / 3, NearestSibling: nearest})
		if err != nil {
			t.Fatal(err)
		}
		if res.Collapses == 0 || len(res.Kept) >= len(m.Tetrahedra) {
			t.Errorf("nearest=%v: nothing decimated", nearest)
		}
		for n := range iface {
			nn := res.NodeMap[n]
			if nn < 0 {
				t.Fatalf("nearest=%v: interface node %d collapsed", nearest, n)
			}
			if res.Mesh.Nodes[nn] != m.Nodes[n] {
				t.Errorf("nearest=%v: interface node %d moved", nearest, n)
			}
			if res.Distance[nn] != 0 || !res.Mesh.Boundary[nn] {
				t.Errorf("nearest=%v: interface node %d not flagged", nearest, n)
			}
		}
		for i, k := range res.Kept {
			if res.Mesh.Tetrahedra[i].Spin != m.Tetrahedra[k].Spin {
				t.Errorf("nearest=%v: tetrahedron %d changed spin", nearest, i)
			}
		}
		got := res.Mesh.TetData[0].(*grainmesh.Array[int64])
		if got == origin || origin.Len() != len(m.Tetrahedra) {
			t.Fatalf("nearest=%v: input tetrahedron data modified", nearest)
		}
		for i, k := range res.Kept {
			if got.Data[i] != int64(m.Tetrahedra[k].Origin) {
				t.Errorf("tetrahedron data %d: got %d, want %d", i, got.Data[i], m.Tetrahedra[k].Origin)
			}
		}
	}
}

func TestTetrahedraCancelledRerun(t *testing.T) {
	m, err := meshgen.Microstructure(meshgen.Config{
		Box:        r3.Box{Max: r3.Vec{X: 6, Y: 6, Z: 6}},
		Resolution: 1,
		Grains:     2,
		Seed:       3,
	})
	if err != nil {
		t.Fatal(err)
	}
	origin := grainmesh.NewArray[int64]("origin", len(m.Tetrahedra), 1)
	for i := range origin.Data {
		origin.Data[i] = int64(i)
	}
	m.TetData = []grainmesh.Attribute{origin}
	tets := append([]grainmesh.Tetrahedron(nil), m.Tetrahedra...)
	cfg := decimate.TetConfig{Goal: len(m.Tetrahedra) / 3}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	op := &grainmesh.Operation{Context: ctx, Progress: func(int, string) { cancel() }}
	if _, err := decimate.Tetrahedra(op, m, cfg); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if err := grainmesh.CheckTetrahedra(m); err != nil {
		t.Fatalf("input damaged: %v", err)
	}
	if diff := cmp.Diff(tets, m.Tetrahedra); diff != "" {
		t.Errorf("input tetrahedra changed (-want +got):\n%s", diff)
	}
	for i, o := range origin.Data {
		if int(o) != i {
			t.Fatalf("input tetrahedron data %d: got %d", i, o)
		}
	}
	res, err := decimate.Tetrahedra(nil, m, cfg)
	if err != nil {
		t.Fatalf("repeated run: %v", err)
	}
	if res.Collapses == 0 {
		t.Error("repeated run collapsed nothing")
	}
	got := res.Mesh.TetData[0].(*grainmesh.Array[int64])
	for i, k := range res.Kept {
		if int(got.Data[i]) != k {
			t.Errorf("tetrahedron data %d: got %d, want %d", i, got.Data[i], k)
		}
	}
}

func TestTetrahedraInvalid(t *testing.T) {
	m := chain(t, 4)
	if _, err := decimate.Tetrahedra(nil, m, decimate.TetConfig{Goal: -1}); !errors.Is(err, grainmesh.InvalidParameter) {
		t.Errorf("negative goal: got %v", err)
	}
	m.Tetrahedra[0].Nodes[2] = len(m.Nodes)
	if _, err := decimate.Tetrahedra(nil, m, decimate.TetConfig{}); !errors.Is(err, grainmesh.InvalidTopology) {
		t.Errorf("out of range node: got %v", err)
	}
	if _, err := decimate.Tetrahedra(nil, &grainmesh.TetMesh{}, decimate.TetConfig{}); !errors.Is(err, grainmesh.MissingInput) {
		t.Errorf("empty mesh: got %v", err)
	}
}
