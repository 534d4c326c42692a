// Package decimate reduces the element count of labeled volume and surface
// meshes while preserving the interfaces between regions.
package decimate

import (
	"github.com/soypat/grainmesh"
	"github.com/soypat/grainmesh/incidence"
	"github.com/soypat/grainmesh/internal/d3"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// TetConfig configures volume decimation.
type TetConfig struct {
	// Goal is the number of tetrahedra to reduce the mesh to.
	// The result never has fewer tetrahedra than Goal.
	Goal int
	// NearestSibling collapses a node onto the closest other corner of the
	// tetrahedron instead of the next corner in node order.
	NearestSibling bool
}

// TetResult is the outcome of a volume decimation.
type TetResult struct {
	// Mesh is the decimated volume. Its TetData arrays are compacted copies
	// of the input's. Boundary flags every surviving node found to lie
	// on a region interface.
	Mesh *grainmesh.TetMesh
	// NodeMap maps input node ids to output ids, -1 for collapsed nodes.
	NodeMap []int
	// Kept lists for every output tetrahedron the input tetrahedron it came from.
	Kept []int
	// Distance is the level distance of every output node to the nearest
	// interface node. Nodes not connected to any interface have distance -1.
	Distance []int32
	// MaxDistance is the largest distance found before peeling.
	MaxDistance int32
	// Collapses is the number of nodes collapsed.
	Collapses int
}

// Tetrahedra decimates the volume mesh m by collapsing nodes far from the
// interfaces between regions. Interface nodes are those shared by
// tetrahedra of different Spin or pre-marked in m.Boundary. Every other
// node reachable through tetrahedra gets its level distance to the
// interfaces. Nodes are then collapsed onto a sibling corner starting at the
// largest distance and moving inward until the goal count is reached or
// only interface nodes are left. Interface nodes never move.
//
// m is never modified. If op is cancelled the mesh decimated so far is
// returned with the error.
func Tetrahedra(op *grainmesh.Operation, m *grainmesh.TetMesh, cfg TetConfig) (*TetResult, error) {
	if err := grainmesh.CheckTetrahedra(m); err != nil {
		return nil, err
	}
	if cfg.Goal < 0 {
		return nil, grainmesh.Errorf(grainmesh.InvalidParameter, "negative goal %d", cfg.Goal)
	}
	v, err := newVolume(m, cfg)
	if err != nil {
		return nil, err
	}
	log := op.Log().With(zap.String("stage", "volume decimation"))
	log.Info("decimating",
		zap.Int("nodes", len(m.Nodes)),
		zap.Int("tetrahedra", len(m.Tetrahedra)),
		zap.Int("goal", cfg.Goal),
	)
	v.tagBoundary(m.Boundary)
	err = v.propagate(op)
	if err == nil {
		log.Debug("distance field", zap.Int32("max", v.maxDist))
		err = v.peel(op)
	}
	res, cerr := v.result(m)
	if cerr != nil {
		return nil, cerr
	}
	log.Info("decimated",
		zap.Int("tetrahedra", len(res.Kept)),
		zap.Int("nodes", len(res.Mesh.Nodes)),
		zap.Int("collapses", res.Collapses),
		zap.Error(err),
	)
	return res, err
}

// volume is the working state of a volume decimation.
type volume struct {
	cfg   TetConfig
	nodes []r3.Vec
	tets  []grainmesh.Tetrahedron
	dead  []bool
	alive int
	// faces holds the live tetrahedra incident to each node.
	faces     [][]int32
	collapsed []bool

	boundary []bool
	grain    []int32
	assigned []bool
	dist     []int32
	maxDist  int32

	collapses int
}

func newVolume(m *grainmesh.TetMesh, cfg TetConfig) (*volume, error) {
	idx, err := incidence.FromTetrahedra(len(m.Nodes), m.Tetrahedra)
	if err != nil {
		return nil, err
	}
	nn := len(m.Nodes)
	v := &volume{
		cfg:       cfg,
		nodes:     make([]r3.Vec, nn),
		tets:      append([]grainmesh.Tetrahedron(nil), m.Tetrahedra...),
		dead:      make([]bool, len(m.Tetrahedra)),
		alive:     len(m.Tetrahedra),
		faces:     idx.Lists(),
		collapsed: make([]bool, nn),
		boundary:  make([]bool, nn),
		grain:     make([]int32, nn),
		assigned:  make([]bool, nn),
		dist:      make([]int32, nn),
	}
	for i, n := range m.Nodes {
		v.nodes[i] = d3.To64(n)
	}
	for t := range v.tets {
		if v.tets[t].Degenerate() {
			v.dead[t] = true
			v.alive--
			for _, n := range v.tets[t].Nodes {
				v.faces[n] = removeAll(v.faces[n], int32(t))
			}
		}
	}
	return v, nil
}

// tagBoundary marks interface nodes with distance 0. The first tetrahedron
// touching a node assigns it its grain, any tetrahedron of another grain
// makes it an interface node.
func (v *volume) tagBoundary(premarked []bool) {
	for n := range v.dist {
		v.dist[n] = -1
	}
	for n, b := range premarked {
		if b {
			v.boundary[n] = true
			v.dist[n] = 0
		}
	}
	for t := range v.tets {
		if v.dead[t] {
			continue
		}
		tet := &v.tets[t]
		for _, n := range tet.Nodes {
			switch {
			case v.boundary[n]:
			case !v.assigned[n]:
				v.assigned[n] = true
				v.grain[n] = tet.Spin
			case v.grain[n] != tet.Spin:
				v.boundary[n] = true
				v.dist[n] = 0
			}
		}
	}
}

// propagate assigns level distances. At level d every tetrahedron with a
// node at distance d-1 and unassigned nodes gives those nodes distance d.
// Tetrahedra without unassigned nodes are done. Propagation ends when all
// tetrahedra are done or a whole scan changes nothing.
func (v *volume) propagate(op *grainmesh.Operation) error {
	done := make([]bool, len(v.tets))
	remaining := 0
	for t := range v.tets {
		if v.dead[t] {
			done[t] = true
		} else {
			remaining++
		}
	}
	for d := int32(1); remaining > 0; d++ {
		if err := op.Cancelled("distance propagation"); err != nil {
			return err
		}
		progress := false
		for t := range v.tets {
			if done[t] {
				continue
			}
			var prev, free bool
			for _, n := range v.tets[t].Nodes {
				prev = prev || v.dist[n] == d-1
				free = free || v.dist[n] < 0
			}
			if free && !prev {
				continue
			}
			if free {
				for _, n := range v.tets[t].Nodes {
					if v.dist[n] < 0 {
						v.dist[n] = d
						v.maxDist = d
					}
				}
			}
			done[t] = true
			remaining--
			progress = true
		}
		if !progress {
			break
		}
	}
	return nil
}

// peel collapses nodes from the largest distance inward.
func (v *volume) peel(op *grainmesh.Operation) error {
	total := v.alive - v.cfg.Goal
	for threshold := v.maxDist; threshold >= 1 && v.alive > v.cfg.Goal; threshold-- {
		for pass := 0; ; pass++ {
			if err := op.Cancelled("peeling"); err != nil {
				return err
			}
			op.Report((total-(v.alive-v.cfg.Goal))*100/max(total, 1),
				"threshold %d pass %d: %d tetrahedra", threshold, pass, v.alive)
			if !v.peelPass(threshold) {
				break
			}
		}
	}
	op.Report(100, "%d tetrahedra", v.alive)
	return nil
}

// peelPass scans the tetrahedra once collapsing at most one node of each.
// It reports whether any node was collapsed.
func (v *volume) peelPass(threshold int32) bool {
	changed := false
	for t := range v.tets {
		if v.alive <= v.cfg.Goal {
			break
		}
		if v.dead[t] {
			continue
		}
		for c := 0; c < 4; c++ {
			n := v.tets[t].Nodes[c]
			if v.boundary[n] || v.dist[n] < threshold {
				continue
			}
			if v.collapse(n, v.sibling(t, c)) {
				changed = true
				break
			}
		}
	}
	return changed
}

// sibling returns the node that corner c of tetrahedron t collapses onto.
func (v *volume) sibling(t, c int) int {
	nodes := &v.tets[t].Nodes
	if !v.cfg.NearestSibling {
		return nodes[(c+1)%4]
	}
	best, bestd := -1, 0.0
	for i, n := range nodes {
		if i == c {
			continue
		}
		d := r3.Norm2(r3.Sub(v.nodes[n], v.nodes[nodes[c]]))
		if best < 0 || d < bestd {
			best, bestd = n, d
		}
	}
	return best
}

// collapse merges node p into node q unless that would leave fewer than
// Goal tetrahedra.
func (v *volume) collapse(p, q int) bool {
	drop := 0
	for _, t := range v.faces[p] {
		if v.tets[t].Contains(q) {
			drop++
		}
	}
	if v.alive-drop < v.cfg.Goal {
		return false
	}
	for _, t := range v.faces[p] {
		tet := &v.tets[t]
		for c := range tet.Nodes {
			if tet.Nodes[c] == p {
				tet.Nodes[c] = q
			}
		}
		if tet.Degenerate() {
			v.kill(int(t))
			continue
		}
		v.faces[q] = append(v.faces[q], t)
	}
	v.faces[p] = nil
	v.collapsed[p] = true
	v.collapses++
	return true
}

func (v *volume) kill(t int) {
	v.dead[t] = true
	v.alive--
	nodes := v.tets[t].Nodes
	for c, n := range nodes {
		seen := false
		for _, prev := range nodes[:c] {
			seen = seen || prev == n
		}
		if !seen {
			v.faces[n] = removeID(v.faces[n], int32(t))
		}
	}
}

func (v *volume) result(m *grainmesh.TetMesh) (*TetResult, error) {
	res := &TetResult{
		NodeMap:     make([]int, len(v.nodes)),
		MaxDistance: v.maxDist,
		Collapses:   v.collapses,
	}
	out := &grainmesh.TetMesh{}
	for n := range v.nodes {
		if v.collapsed[n] {
			res.NodeMap[n] = -1
			continue
		}
		res.NodeMap[n] = len(out.Nodes)
		out.Nodes = append(out.Nodes, m.Nodes[n])
		out.Boundary = append(out.Boundary, v.boundary[n])
		res.Distance = append(res.Distance, v.dist[n])
	}
	renumbered := v.collapses > 0
	for t := range v.tets {
		if v.dead[t] {
			continue
		}
		res.Kept = append(res.Kept, t)
		tet := v.tets[t]
		for c, n := range tet.Nodes {
			tet.Nodes[c] = res.NodeMap[n]
		}
		if renumbered {
			tet.Edges = grainmesh.NoEdges
		}
		out.Tetrahedra = append(out.Tetrahedra, tet)
	}
	var err error
	out.TetData, err = grainmesh.Compacted(res.Kept, m.TetData)
	if err != nil {
		return nil, err
	}
	res.Mesh = out
	return res, nil
}
