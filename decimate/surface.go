package decimate

import (
	"math"

	"github.com/soypat/grainmesh"
	"github.com/soypat/grainmesh/incidence"
	"github.com/soypat/grainmesh/internal/d3"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// SurfaceResult is the outcome of a surface decimation.
type SurfaceResult struct {
	// Mesh is the decimated surface. Its FaceData arrays are compacted
	// copies of the input's. VertexData and EdgeData are dropped.
	Mesh *grainmesh.TriangleMesh
	// VertexMap maps input vertex ids to output ids, -1 for removed vertices.
	VertexMap []int
	// Kept lists for every output triangle the input triangle it came from.
	Kept []int
	// Contractions is the number of vertex pairs contracted.
	Contractions int
}

// Surface decimates the triangle mesh m by quadric error metric pair
// contraction until at most keepPercent percent of its triangles remain or
// no candidate pair is left. The cheapest pair is always contracted first.
// Of a contracted pair the lower vertex id survives, moved to the point
// minimizing the pair's combined quadric.
//
// Face normals in m.Normals define the triangle planes when present,
// otherwise geometric normals are used. m is never modified, so a cancelled
// or failed run can be repeated on the same input.
//
// If op is cancelled the mesh decimated so far is returned with the error.
func Surface(op *grainmesh.Operation, m *grainmesh.TriangleMesh, keepPercent float64) (*SurfaceResult, error) {
	if err := grainmesh.CheckTriangles(m, false); err != nil {
		return nil, err
	}
	if math.IsNaN(keepPercent) || keepPercent < 0 || keepPercent > 100 {
		return nil, grainmesh.Errorf(grainmesh.InvalidParameter, "keep percentage %g outside [0, 100]", keepPercent)
	}
	ntri := len(m.Triangles)
	goal := ntri - int(math.Round(float64(ntri)*keepPercent/100))
	log := op.Log().With(zap.String("stage", "surface decimation"))
	if goal <= 0 {
		log.Debug("nothing to remove", zap.Int("triangles", ntri), zap.Float64("keep", keepPercent))
		return identity(m)
	}
	s, err := newSurface(m)
	if err != nil {
		return nil, err
	}
	log.Info("decimating",
		zap.Int("vertices", len(m.Vertices)),
		zap.Int("triangles", ntri),
		zap.Int("remove", goal),
		zap.Int("pairs", s.pairs.Len()),
	)
	err = s.run(op, goal)
	res, cerr := s.result(m)
	if cerr != nil {
		return nil, cerr
	}
	log.Info("decimated",
		zap.Int("triangles", len(res.Kept)),
		zap.Int("vertices", len(res.Mesh.Vertices)),
		zap.Int("contractions", res.Contractions),
		zap.Error(err),
	)
	return res, err
}

func identity(m *grainmesh.TriangleMesh) (*SurfaceResult, error) {
	res := &SurfaceResult{
		Mesh:      m.Clone(),
		VertexMap: make([]int, len(m.Vertices)),
		Kept:      make([]int, len(m.Triangles)),
	}
	for i := range res.VertexMap {
		res.VertexMap[i] = i
	}
	for i := range res.Kept {
		res.Kept[i] = i
	}
	res.Mesh.FaceData = cloneAll(m.FaceData)
	res.Mesh.VertexData = cloneAll(m.VertexData)
	res.Mesh.EdgeData = cloneAll(m.EdgeData)
	return res, nil
}

func cloneAll(attrs []grainmesh.Attribute) []grainmesh.Attribute {
	if attrs == nil {
		return nil
	}
	out := make([]grainmesh.Attribute, len(attrs))
	for i, a := range attrs {
		if a != nil {
			out[i] = a.Clone()
		}
	}
	return out
}

// surface is the working state of a surface decimation.
type surface struct {
	pos  []r3.Vec
	tris []grainmesh.Triangle
	dead []bool
	// faces holds the live triangles incident to each vertex.
	faces   [][]int32
	normals []grainmesh.Vertex
	// reshaped marks triangles with a moved corner. Their host normal no
	// longer describes their plane.
	reshaped []bool
	// kp are the per triangle plane quadrics, q the per vertex sums.
	kp    []quadric
	q     []quadric
	pairs *pairQueue

	removed      int
	contractions int
	// mark is scratch space for deduplicating neighbor vertices.
	mark  []uint32
	epoch uint32
	nbrs  []int
}

func newSurface(m *grainmesh.TriangleMesh) (*surface, error) {
	idx, err := incidence.FromTriangles(len(m.Vertices), m.Triangles)
	if err != nil {
		return nil, err
	}
	nv := len(m.Vertices)
	s := &surface{
		pos:      make([]r3.Vec, nv),
		tris:     append([]grainmesh.Triangle(nil), m.Triangles...),
		dead:     make([]bool, len(m.Triangles)),
		faces:    idx.Lists(),
		normals:  m.Normals,
		reshaped: make([]bool, len(m.Triangles)),
		kp:       make([]quadric, len(m.Triangles)),
		q:        make([]quadric, nv),
		pairs:    newPairQueue(nv),
		mark:     make([]uint32, nv),
	}
	for i, v := range m.Vertices {
		s.pos[i] = d3.To64(v)
	}
	for t, tri := range s.tris {
		if tri.Degenerate() {
			// Degenerate input triangles are dropped up front.
			s.dead[t] = true
			s.removed++
			for _, v := range tri {
				s.faces[v] = removeAll(s.faces[v], int32(t))
			}
			continue
		}
		s.kp[t] = s.triangleQuadric(t)
	}
	for v := range s.q {
		s.q[v] = s.vertexQuadric(v)
	}
	for v := range s.faces {
		for _, t := range s.faces[v] {
			for _, w := range s.tris[t] {
				if w <= v {
					continue
				}
				k := makeKey(v, w)
				if s.pairs.has(k) {
					continue
				}
				cost, p := s.evaluate(v, w)
				s.pairs.set(k, cost, p)
			}
		}
	}
	return s, nil
}

func (s *surface) triangleQuadric(t int) quadric {
	tri := s.tris[t]
	p0 := s.pos[tri[0]]
	var n r3.Vec
	if s.normals != nil && !s.reshaped[t] {
		n = d3.To64(s.normals[t])
		if l := r3.Norm(n); l > 0 {
			n = r3.Scale(1/l, n)
		}
	} else {
		n = d3.Normal64(p0, s.pos[tri[1]], s.pos[tri[2]])
	}
	return planeQuadric(n, p0)
}

func (s *surface) vertexQuadric(v int) quadric {
	var q quadric
	for _, t := range s.faces[v] {
		q = q.add(s.kp[t])
	}
	return q
}

// evaluate returns the contraction cost and point of pair (u, v).
func (s *surface) evaluate(u, v int) (float64, r3.Vec) {
	q := s.q[u].add(s.q[v])
	p, ok := q.optimum()
	if !ok {
		p = r3.Scale(0.5, r3.Add(s.pos[u], s.pos[v]))
	}
	return q.cost(p), p
}

func (s *surface) run(op *grainmesh.Operation, goal int) error {
	start := s.removed
	for iter := 0; s.removed < goal; iter++ {
		if iter%256 == 0 {
			if err := op.Cancelled("surface decimation"); err != nil {
				return err
			}
			op.Report((s.removed-start)*100/max(goal-start, 1), "removed %d of %d triangles", s.removed, goal)
		}
		k, e, ok := s.pairs.popMin()
		if !ok {
			break
		}
		u, v := int(k.u), int(k.v)
		if len(s.faces[u]) == 0 || len(s.faces[v]) == 0 {
			continue
		}
		s.contract(u, v, e.pos)
	}
	op.Report(100, "removed %d triangles", s.removed)
	return nil
}

// contract merges vertex gone into vertex moved, placing moved at p.
func (s *surface) contract(moved, gone int, p r3.Vec) {
	s.contractions++
	s.pos[moved] = p
	var thirds []int
	for _, t := range s.faces[gone] {
		tri := &s.tris[t]
		for c := range tri {
			if tri[c] == gone {
				tri[c] = moved
			}
		}
		if tri.Degenerate() {
			for _, w := range tri {
				if w != moved {
					thirds = append(thirds, w)
				}
			}
			s.kill(int(t))
			continue
		}
		s.faces[moved] = append(s.faces[moved], t)
	}
	s.faces[gone] = nil
	s.pairs.removeVertex(gone)

	for _, w := range thirds {
		if len(s.faces[w]) == 0 {
			s.pairs.removeVertex(w)
		}
	}
	if len(s.faces[moved]) == 0 {
		s.pairs.removeVertex(moved)
		return
	}

	for _, t := range s.faces[moved] {
		s.reshaped[t] = true
		s.kp[t] = s.triangleQuadric(int(t))
	}
	s.q[moved] = s.vertexQuadric(moved)

	nbrs := s.neighbors(moved)
	for _, x := range nbrs {
		cost, p := s.evaluate(moved, x)
		s.pairs.set(makeKey(moved, x), cost, p)
	}
	// Pairs of moved without a shared triangle left.
	partners := s.pairs.partnersOf(moved)
	for i := len(partners) - 1; i >= 0; i-- {
		x := int(partners[i])
		if s.mark[x] != s.epoch {
			s.pairs.remove(makeKey(moved, x))
			partners = s.pairs.partnersOf(moved)
		}
	}
}

// neighbors returns the distinct vertices sharing a live triangle with v
// and leaves them marked with the current epoch.
func (s *surface) neighbors(v int) []int {
	s.epoch++
	s.mark[v] = s.epoch
	s.nbrs = s.nbrs[:0]
	for _, t := range s.faces[v] {
		for _, w := range s.tris[t] {
			if s.mark[w] != s.epoch {
				s.mark[w] = s.epoch
				s.nbrs = append(s.nbrs, w)
			}
		}
	}
	// v was marked only to skip itself.
	s.mark[v] = 0
	return s.nbrs
}

// kill removes triangle t from the mesh.
func (s *surface) kill(t int) {
	s.dead[t] = true
	s.removed++
	tri := s.tris[t]
	for c, v := range tri {
		if c > 0 && (v == tri[0] || (c == 2 && v == tri[1])) {
			continue // already visited
		}
		s.faces[v] = removeID(s.faces[v], int32(t))
	}
}

func (s *surface) result(m *grainmesh.TriangleMesh) (*SurfaceResult, error) {
	res := &SurfaceResult{
		VertexMap:    make([]int, len(s.pos)),
		Contractions: s.contractions,
	}
	out := &grainmesh.TriangleMesh{}
	for v := range s.pos {
		if len(s.faces[v]) == 0 {
			res.VertexMap[v] = -1
			continue
		}
		res.VertexMap[v] = len(out.Vertices)
		out.Vertices = append(out.Vertices, d3.To32(s.pos[v]))
	}
	for t, tri := range s.tris {
		if s.dead[t] {
			continue
		}
		res.Kept = append(res.Kept, t)
		out.Triangles = append(out.Triangles, grainmesh.Triangle{
			res.VertexMap[tri[0]], res.VertexMap[tri[1]], res.VertexMap[tri[2]],
		})
	}
	if m.Labels != nil {
		out.Labels = make([]grainmesh.LabelPair, len(res.Kept))
		for i, t := range res.Kept {
			out.Labels[i] = m.Labels[t]
		}
	}
	if m.Normals != nil {
		out.Normals = make([]grainmesh.Vertex, len(res.Kept))
		for i, t := range res.Kept {
			out.Normals[i] = m.Normals[t]
		}
	}
	var err error
	out.FaceData, err = grainmesh.Compacted(res.Kept, m.FaceData)
	if err != nil {
		return nil, err
	}
	res.Mesh = out
	return res, nil
}

// removeAll removes every occurrence of id from s, preserving order.
func removeAll(s []int32, id int32) []int32 {
	out := s[:0]
	for _, x := range s {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}
