package quality

import (
	"fmt"
	"io"
	"sort"

	"github.com/soypat/grainmesh"
	"github.com/soypat/grainmesh/incidence"
	"github.com/soypat/grainmesh/internal/d3"
	"github.com/soypat/grainmesh/topology"
	"gonum.org/v1/gonum/spatial/r3"
)

// Summary describes a labeled surface mesh.
type Summary struct {
	Vertices  int
	Triangles int
	// Labels is the number of distinct labels.
	Labels int
	// Degenerate counts triangles with zero area or repeated vertices.
	Degenerate int
	Area       float64
	MinArea    float64
	// Bounds is the axis aligned bounding box of the vertices.
	Bounds    r3.Box
	NodeTypes map[topology.NodeType]int
}

// Summarize computes the statistics of m. Node types are only computed
// when m has labels.
func Summarize(m *grainmesh.TriangleMesh) (*Summary, error) {
	if err := grainmesh.CheckTriangles(m, false); err != nil {
		return nil, err
	}
	s := &Summary{
		Vertices:  len(m.Vertices),
		Triangles: len(m.Triangles),
		MinArea:   -1,
	}
	if len(m.Vertices) > 0 {
		p := d3.To64(m.Vertices[0])
		box := d3.Box{Min: p, Max: p}
		for _, v := range m.Vertices[1:] {
			box = box.Include(d3.To64(v))
		}
		s.Bounds = r3.Box(box)
	}
	for i, tri := range m.Triangles {
		v := m.TriangleVertices(i)
		a := float64(d3.Area(v[0], v[1], v[2]))
		if tri.Degenerate() || a == 0 {
			s.Degenerate++
		}
		s.Area += a
		if s.MinArea < 0 || a < s.MinArea {
			s.MinArea = a
		}
	}
	if m.Labels == nil {
		return s, nil
	}
	seen := make(map[int32]bool)
	for _, lp := range m.Labels {
		seen[lp[0]] = true
		seen[lp[1]] = true
	}
	s.Labels = len(seen)
	idx, err := incidence.FromTriangles(len(m.Vertices), m.Triangles)
	if err != nil {
		return nil, err
	}
	types, err := topology.Classify(idx, m.Labels)
	if err != nil {
		return nil, err
	}
	s.NodeTypes = topology.Histogram(types)
	return s, nil
}

// WriteTo writes a human readable table of the summary to w.
func (s *Summary) WriteTo(w io.Writer) (int64, error) {
	var n int64
	put := func(format string, args ...any) error {
		c, err := fmt.Fprintf(w, format, args...)
		n += int64(c)
		return err
	}
	err := put("vertices\t%d\ntriangles\t%d\nlabels\t%d\ndegenerate\t%d\narea\t%g\nmin area\t%g\nbounds\t%v %v\n",
		s.Vertices, s.Triangles, s.Labels, s.Degenerate, s.Area, s.MinArea, s.Bounds.Min, s.Bounds.Max)
	if err != nil {
		return n, err
	}
	types := make([]topology.NodeType, 0, len(s.NodeTypes))
	for t := range s.NodeTypes {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	for _, t := range types {
		if err := put("%v\t%d\n", t, s.NodeTypes[t]); err != nil {
			return n, err
		}
	}
	return n, nil
}
