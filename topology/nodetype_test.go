package topology

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/soypat/grainmesh"
	"github.com/soypat/grainmesh/helpers/meshgen"
	"github.com/soypat/grainmesh/incidence"
)

func classify(t *testing.T, m *grainmesh.TriangleMesh) []NodeType {
	t.Helper()
	idx, err := incidence.FromTriangles(len(m.Vertices), m.Triangles)
	if err != nil {
		t.Fatal(err)
	}
	types, err := Classify(idx, m.Labels)
	if err != nil {
		t.Fatal(err)
	}
	return types
}

func TestClassifyTwoTriangles(t *testing.T) {
	m := &grainmesh.TriangleMesh{
		Vertices:  make([]grainmesh.Vertex, 5), // vertex 4 unused
		Triangles: []grainmesh.Triangle{{0, 1, 2}, {2, 1, 3}},
		Labels:    []grainmesh.LabelPair{{1, 2}, {2, 1}},
	}
	got := classify(t, m)
	want := []NodeType{Default, Default, Default, Default, Unused}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("node types (-want +got):\n%s", diff)
	}
}

func TestClassifyJunctions(t *testing.T) {
	// Fan of triangles around vertex 0 with growing label variety.
	m := &grainmesh.TriangleMesh{
		Vertices: make([]grainmesh.Vertex, 7),
		Triangles: []grainmesh.Triangle{
			{0, 1, 2},
			{0, 2, 3},
			{0, 3, 4},
			{0, 4, 5},
			{5, 6, 1},
		},
		Labels: []grainmesh.LabelPair{
			{1, 2},
			{2, 3},
			{3, 4},
			{4, 5},
			{6, -1},
		},
	}
	got := classify(t, m)
	want := []NodeType{
		QuadPoint,        // 1 2 3 4 5
		SurfaceQuadPoint, // 1 2 6 -1
		TripleLine,       // 1 2 3
		TripleLine,       // 2 3 4
		TripleLine,       // 3 4 5
		SurfaceQuadPoint, // 4 5 6 -1
		SurfaceDefault,   // 6 -1
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("node types (-want +got):\n%s", diff)
	}
}

func TestClassifyCube(t *testing.T) {
	got := classify(t, meshgen.UnitCube(1, -1))
	h := Histogram(got)
	if diff := cmp.Diff(map[NodeType]int{SurfaceDefault: 8}, h); diff != "" {
		t.Errorf("histogram (-want +got):\n%s", diff)
	}
}

func TestClassifyMissingLabels(t *testing.T) {
	idx, err := incidence.FromTriangles(3, []grainmesh.Triangle{{0, 1, 2}})
	if err != nil {
		t.Fatal(err)
	}
	_, err = Classify(idx, nil)
	if !errors.Is(err, grainmesh.MissingInput) {
		t.Errorf("got %v, want MissingInput", err)
	}
}

func TestNodeTypeString(t *testing.T) {
	tests := map[NodeType]string{
		Unused:            "unused",
		Interior:          "interior",
		TripleLine:        "triple line",
		SurfaceQuadPoint:  "surface quad point",
		SurfaceInterior:   "surface interior",
		NodeType(7):       "NodeType(7)",
		SurfaceTripleLine: "surface triple line",
	}
	for nt, want := range tests {
		if got := nt.String(); got != want {
			t.Errorf("%d: got %q, want %q", int(nt), got, want)
		}
	}
}
