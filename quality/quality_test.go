package quality_test

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/soypat/grainmesh"
	"github.com/soypat/grainmesh/helpers/meshgen"
	"github.com/soypat/grainmesh/quality"
	"github.com/soypat/grainmesh/topology"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestVertexDeviation(t *testing.T) {
	ref := []grainmesh.Vertex{{X: 0}, {X: 1}, {X: 3}}
	dec := []grainmesh.Vertex{{X: 0}, {X: 2}}
	d, err := quality.VertexDeviation(ref, dec)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0, 1, 1}
	for i, w := range want {
		if math.Abs(d.Distances[i]-w) > 1e-12 {
			t.Errorf("distance %d: got %g, want %g", i, d.Distances[i], w)
		}
	}
	if d.Max != 1 || math.Abs(d.Mean-2./3) > 1e-12 || math.Abs(d.RMS-math.Sqrt(2./3)) > 1e-12 {
		t.Errorf("got max %g mean %g rms %g", d.Max, d.Mean, d.RMS)
	}
	if _, err := quality.VertexDeviation(ref, nil); err == nil {
		t.Error("expected error for empty mesh")
	}
}

func TestSummarizeCube(t *testing.T) {
	s, err := quality.Summarize(meshgen.UnitCube(1, -1))
	if err != nil {
		t.Fatal(err)
	}
	if s.Triangles != 12 || s.Vertices != 8 || s.Labels != 2 || s.Degenerate != 0 {
		t.Errorf("summary %+v", s)
	}
	if math.Abs(s.Area-6) > 1e-6 || math.Abs(s.MinArea-0.5) > 1e-6 {
		t.Errorf("area %g min %g", s.Area, s.MinArea)
	}
	if s.Bounds != (r3.Box{Max: r3.Vec{X: 1, Y: 1, Z: 1}}) {
		t.Errorf("bounds %+v", s.Bounds)
	}
	if s.NodeTypes[topology.SurfaceDefault] != 8 {
		t.Errorf("node types %v", s.NodeTypes)
	}
	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "surface default\t8") {
		t.Errorf("unexpected table:\n%s", buf.String())
	}
}

func TestHistogramPNG(t *testing.T) {
	var buf bytes.Buffer
	err := quality.DistanceHistogram(&buf, []int32{-1, 0, 0, 1, 2, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Error("output is not a PNG")
	}
	if err := quality.Histogram(&buf, "empty", "x", nil, 4); err == nil {
		t.Error("expected error for no values")
	}
}
