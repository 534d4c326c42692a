// Package winding makes the triangle winding of a multiply labeled surface
// mesh consistent region by region.
//
// A triangle labeled (a, b) is wound for region a: its right hand normal
// points out of a and into b. Seen from region b the same triangle has the
// opposite winding. Repair grows every region from a seed triangle across
// its edges and reverses triangles whose winding, seen from that region,
// disagrees with the triangle they were reached from.
package winding

import (
	"math"
	"sort"

	"github.com/soypat/grainmesh"
	"github.com/soypat/grainmesh/incidence"
	"github.com/soypat/grainmesh/internal/d3"
	"go.uber.org/zap"
)

// Result summarizes a winding repair.
type Result struct {
	// Reversed is the number of triangles reversed individually.
	Reversed int
	// GlobalReversal is set when the whole mesh was reversed to orient the
	// first seed.
	GlobalReversal bool
	// Splits is the number of synthetic labels introduced for parts of a
	// region not connected to its seed.
	Splits int
	// Origin maps every synthetic label to the input label it was split from.
	Origin map[int32]int32
	// Conflicts counts triangles reached with a winding that disagreed with
	// the region being grown after another region had already fixed it.
	Conflicts int
	// Visited is the number of labels whose region was grown.
	Visited int
	// Diagnostics lists non fatal findings.
	Diagnostics []grainmesh.Diagnostic
}

// Root returns the input label l descends from.
func (r *Result) Root(l int32) int32 {
	if o, ok := r.Origin[l]; ok {
		return o
	}
	return l
}

// Repair reorders the vertices of m's triangles so that every labeled region
// is bounded by consistently wound triangles. Labels are processed starting
// from the smallest non-negative label and moving on to neighbor labels as
// they are discovered. Negative labels denote the exterior and are never
// grown.
//
// Triangles, Labels and Normals of m are modified in place. Triangles of a
// region not reachable from the region's seed get a new label larger than
// any existing one. Regions only reachable through edges shared by more
// than two of the region's triangles are treated as separate parts.
//
// Seeds are oriented so their normal seen from the region points towards
// +x. Only the first seed may be fixed by reversing the whole mesh. Later
// seeds facing -x are reversed alone, and seeds already confirmed by a
// neighbor region are kept. If a seed still does not face +x, m is
// restored and an error of kind SeedOrientationUnresolved is returned. Labels never reached are reported
// as UnvisitedLabel diagnostics.
func Repair(op *grainmesh.Operation, m *grainmesh.TriangleMesh) (*Result, error) {
	if err := grainmesh.CheckTriangles(m, true); err != nil {
		return nil, err
	}
	idx, err := incidence.FromTriangles(len(m.Vertices), m.Triangles)
	if err != nil {
		return nil, err
	}
	backup := m.Clone()
	r := newRepairer(op, m, idx)
	err = r.run(op)
	if grainmesh.KindOf(err) == grainmesh.SeedOrientationUnresolved {
		copy(m.Triangles, backup.Triangles)
		copy(m.Labels, backup.Labels)
		copy(m.Normals, backup.Normals)
		r.log.Warn("restored input", zap.Error(err))
		return nil, err
	}
	return r.res, err
}

type repairer struct {
	m   *grainmesh.TriangleMesh
	idx *incidence.Index
	log *zap.Logger
	res *Result

	byLabel        map[int32][]int
	confirmed      []bool
	confirmedCount int
	// reached holds the work item that last reached each triangle.
	reached []int
	item    int

	queue  []int32
	queued map[int32]bool
	done   map[int32]bool
	next   int32

	edge []int32
	same []int
}

func newRepairer(op *grainmesh.Operation, m *grainmesh.TriangleMesh, idx *incidence.Index) *repairer {
	r := &repairer{
		m:         m,
		idx:       idx,
		log:       op.Log().With(zap.String("stage", "winding repair")),
		res:       &Result{Origin: make(map[int32]int32)},
		byLabel:   labelTriangles(m.Labels),
		confirmed: make([]bool, len(m.Triangles)),
		reached:   make([]int, len(m.Triangles)),
		queued:    make(map[int32]bool),
		done:      make(map[int32]bool),
		next:      m.MaxLabel() + 1,
	}
	return r
}

func labelTriangles(labels []grainmesh.LabelPair) map[int32][]int {
	by := make(map[int32][]int)
	for t, lp := range labels {
		by[lp[0]] = append(by[lp[0]], t)
		if lp[1] != lp[0] {
			by[lp[1]] = append(by[lp[1]], t)
		}
	}
	return by
}

func sortedLabels(by map[int32][]int) []int32 {
	labels := make([]int32, 0, len(by))
	for l, tris := range by {
		if len(tris) > 0 {
			labels = append(labels, l)
		}
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })
	return labels
}

func (r *repairer) run(op *grainmesh.Operation) error {
	labels := sortedLabels(r.byLabel)
	for _, l := range labels {
		if l < 0 {
			r.done[l] = true
			continue
		}
		r.enqueue(l)
		break
	}
	r.log.Info("repairing",
		zap.Int("triangles", len(r.m.Triangles)),
		zap.Int("labels", len(labels)),
	)
	for len(r.queue) > 0 {
		if err := op.Cancelled("winding repair"); err != nil {
			return err
		}
		l := r.queue[0]
		r.queue = r.queue[1:]
		if err := r.grow(l); err != nil {
			return err
		}
		r.done[l] = true
		r.res.Visited++
		op.Report(len(r.done)*100/max(len(r.done)+len(r.queue), len(labels)), "label %d done", l)
	}
	for _, l := range sortedLabels(r.byLabel) {
		if r.done[l] {
			continue
		}
		n := len(r.byLabel[l])
		r.res.Diagnostics = append(r.res.Diagnostics, grainmesh.Diagnostic{
			Kind:  grainmesh.UnvisitedLabel,
			Label: l,
			Count: n,
			Msg:   "label not connected to any grown region",
		})
		r.log.Warn("unvisited label", zap.Int32("label", l), zap.Int("triangles", n))
	}
	r.log.Info("repaired",
		zap.Int("reversed", r.res.Reversed),
		zap.Bool("global", r.res.GlobalReversal),
		zap.Int("splits", r.res.Splits),
		zap.Int("conflicts", r.res.Conflicts),
	)
	return nil
}

func (r *repairer) enqueue(l int32) {
	if l < 0 || r.done[l] || r.queued[l] {
		return
	}
	r.queued[l] = true
	r.queue = append(r.queue, l)
}

// grow orients the region of label l from its seed.
func (r *repairer) grow(l int32) error {
	tris := r.byLabel[l]
	if len(tris) == 0 {
		return nil
	}
	seed := seedOf(r.m, l, tris)
	if err := r.orientSeed(l, seed); err != nil {
		return err
	}
	r.item++
	r.reached[seed] = r.item
	bfs := []int{seed}
	reached := 0
	for len(bfs) > 0 {
		t := bfs[0]
		bfs = bfs[1:]
		reached++
		w := view(r.m, t, l)
		for e := 0; e < 3; e++ {
			a, b := w[e], w[(e+1)%3]
			r.edge = r.idx.EdgeFaces(r.edge[:0], a, b)
			r.same = r.same[:0]
			for _, f := range r.edge {
				lp := r.m.Labels[f]
				if !lp.Has(l) {
					r.enqueue(lp[0])
					r.enqueue(lp[1])
				} else if int(f) != t {
					r.same = append(r.same, int(f))
				}
			}
			if len(r.same) != 1 {
				// Open or non-manifold edge for this region.
				continue
			}
			f := r.same[0]
			if r.reached[f] == r.item {
				continue
			}
			r.reached[f] = r.item
			if !traverses(view(r.m, f, l), b, a) {
				if r.confirmed[f] {
					r.res.Conflicts++
				} else {
					r.flip(f)
				}
			}
			bfs = append(bfs, f)
		}
		r.enqueue(r.m.Labels[t].Other(l))
	}

	var kept, rest []int
	for _, t := range tris {
		if r.reached[t] != r.item {
			rest = append(rest, t)
			continue
		}
		kept = append(kept, t)
		if !r.confirmed[t] {
			r.confirmed[t] = true
			r.confirmedCount++
		}
	}
	if len(rest) == 0 {
		return nil
	}
	nl := r.next
	r.next++
	for _, t := range rest {
		lp := &r.m.Labels[t]
		for i := range lp {
			if lp[i] == l {
				lp[i] = nl
			}
		}
	}
	r.byLabel[l] = kept
	r.byLabel[nl] = rest
	r.res.Origin[nl] = r.res.Root(l)
	r.res.Splits++
	r.log.Debug("split region",
		zap.Int32("label", l),
		zap.Int32("new", nl),
		zap.Int("reached", reached),
		zap.Int("unreached", len(rest)),
	)
	r.enqueue(nl)
	return nil
}

// orientSeed makes the seed's normal seen from label l point towards +x.
// An unconfirmed seed of the first region may be fixed by reversing the
// whole mesh. Later unconfirmed seeds are reversed alone. Confirmed seeds
// already carry the orientation of a neighbor region.
func (r *repairer) orientSeed(l int32, seed int) error {
	if r.confirmed[seed] {
		return nil
	}
	nx := normalX(r.m, seed, l)
	if nx < 0 && !r.res.GlobalReversal && r.confirmedCount == 0 {
		grainmesh.ReverseWinding(r.m)
		r.res.GlobalReversal = true
		r.log.Debug("reversed mesh", zap.Int32("label", l), zap.Int("seed", seed))
		nx = normalX(r.m, seed, l)
	}
	if nx < 0 {
		r.flip(seed)
		nx = normalX(r.m, seed, l)
	}
	if !(nx > 0) {
		return grainmesh.Errorf(grainmesh.SeedOrientationUnresolved,
			"seed triangle %d of label %d has normal x component %g", seed, l, nx)
	}
	return nil
}

func (r *repairer) flip(t int) {
	r.m.Triangles[t] = r.m.Triangles[t].Reverse()
	if r.m.Normals != nil {
		n := r.m.Normals[t]
		r.m.Normals[t] = grainmesh.Vertex{X: -n.X, Y: -n.Y, Z: -n.Z}
	}
	r.res.Reversed++
}

// SeedTriangle returns the triangle region l is grown from: the triangle
// with the largest centroid x coordinate. Ties go to the larger normal x
// magnitude, then to the lower index.
func SeedTriangle(m *grainmesh.TriangleMesh, l int32) (int, error) {
	if err := grainmesh.CheckTriangles(m, true); err != nil {
		return -1, err
	}
	var tris []int
	for t, lp := range m.Labels {
		if lp.Has(l) {
			tris = append(tris, t)
		}
	}
	if len(tris) == 0 {
		return -1, grainmesh.Errorf(grainmesh.MissingInput, "no triangles with label %d", l)
	}
	return seedOf(m, l, tris), nil
}

// seedOf expects tris in ascending order.
func seedOf(m *grainmesh.TriangleMesh, l int32, tris []int) int {
	best := -1
	var bx float32
	var bn float64
	for _, t := range tris {
		v := m.TriangleVertices(t)
		x := d3.Centroid(v[0], v[1], v[2]).X
		if best >= 0 && x < bx {
			continue
		}
		n := math.Abs(normalX(m, t, l))
		if best < 0 || x > bx || n > bn {
			best, bx, bn = t, x, n
		}
	}
	return best
}

// view returns triangle t wound as seen from label l.
func view(m *grainmesh.TriangleMesh, t int, l int32) grainmesh.Triangle {
	if m.Labels[t][0] == l {
		return m.Triangles[t]
	}
	return m.Triangles[t].Reverse()
}

func normalX(m *grainmesh.TriangleMesh, t int, l int32) float64 {
	w := view(m, t, l)
	p := m.Vertices
	return d3.Normal64(d3.To64(p[w[0]]), d3.To64(p[w[1]]), d3.To64(p[w[2]])).X
}

// traverses reports whether w contains the directed edge a→b.
func traverses(w grainmesh.Triangle, a, b int) bool {
	for e := 0; e < 3; e++ {
		if w[e] == a && w[(e+1)%3] == b {
			return true
		}
	}
	return false
}
