package meshgen

import (
	"sort"

	"github.com/soypat/grainmesh"
	"github.com/soypat/grainmesh/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// ExteriorLabel is the label assigned to the outside of the volume.
const ExteriorLabel = -1

// tetFaces lists the corners of the 4 faces of a tetrahedron.
var tetFaces = [4][3]int{
	{0, 1, 2},
	{0, 1, 3},
	{1, 2, 3},
	{0, 2, 3},
}

type tetFace struct {
	nodes [3]int // sorted node indices
	tet   int
	face  int
}

// BoundarySurface extracts the grain boundary surface of a labeled
// tetrahedral mesh: one triangle per face shared by tetrahedra of different
// Spin and per face on the domain exterior. Label 0 of every triangle is the
// Spin of the tetrahedron behind it and the winding is chosen so the
// triangle's normal points away from that tetrahedron. Exterior faces get
// ExteriorLabel as second label. Only nodes referenced by the surface are kept.
func BoundarySurface(tm *grainmesh.TetMesh) (*grainmesh.TriangleMesh, error) {
	if err := grainmesh.CheckTetrahedra(tm); err != nil {
		return nil, err
	}
	faces := make([]tetFace, 0, 4*len(tm.Tetrahedra))
	for ti := range tm.Tetrahedra {
		nodes := tm.Tetrahedra[ti].Nodes
		for f, corners := range tetFaces {
			var fn [3]int
			for i, c := range corners {
				fn[i] = nodes[c]
			}
			sort.Ints(fn[:])
			faces = append(faces, tetFace{nodes: fn, tet: ti, face: f})
		}
	}
	// Matching faces are adjacent once sorted by their node triple.
	sort.Slice(faces, func(i, j int) bool {
		a, b := faces[i], faces[j]
		if a.nodes != b.nodes {
			if a.nodes[0] != b.nodes[0] {
				return a.nodes[0] < b.nodes[0]
			}
			if a.nodes[1] != b.nodes[1] {
				return a.nodes[1] < b.nodes[1]
			}
			return a.nodes[2] < b.nodes[2]
		}
		return a.tet < b.tet
	})
	sm := &grainmesh.TriangleMesh{}
	remap := make(map[int]int)
	addVertex := func(n int) int {
		v, ok := remap[n]
		if !ok {
			v = len(sm.Vertices)
			remap[n] = v
			sm.Vertices = append(sm.Vertices, tm.Nodes[n])
		}
		return v
	}
	emit := func(f tetFace, other int32) {
		tet := &tm.Tetrahedra[f.tet]
		corners := tetFaces[f.face]
		tri := [3]int{tet.Nodes[corners[0]], tet.Nodes[corners[1]], tet.Nodes[corners[2]]}
		a, b, c := d3.To64(tm.Nodes[tri[0]]), d3.To64(tm.Nodes[tri[1]]), d3.To64(tm.Nodes[tri[2]])
		n := d3.Normal64(a, b, c)
		fc := r3.Scale(1./3., r3.Add(r3.Add(a, b), c))
		if r3.Dot(n, r3.Sub(fc, tetCentroid(tm, f.tet))) < 0 {
			tri[1], tri[2] = tri[2], tri[1]
			n = r3.Scale(-1, n)
		}
		sm.Triangles = append(sm.Triangles, grainmesh.Triangle{addVertex(tri[0]), addVertex(tri[1]), addVertex(tri[2])})
		sm.Labels = append(sm.Labels, grainmesh.LabelPair{tet.Spin, other})
		sm.Normals = append(sm.Normals, d3.To32(n))
	}
	for i := 0; i < len(faces); {
		j := i + 1
		for j < len(faces) && faces[j].nodes == faces[i].nodes {
			j++
		}
		switch j - i {
		case 1:
			emit(faces[i], ExteriorLabel)
		case 2:
			a, b := faces[i], faces[i+1]
			sa, sb := tm.Tetrahedra[a.tet].Spin, tm.Tetrahedra[b.tet].Spin
			if sa != sb {
				emit(a, sb)
			}
		default:
			return nil, grainmesh.Errorf(grainmesh.InvalidTopology, "face %v shared by %d tetrahedra", faces[i].nodes, j-i)
		}
		i = j
	}
	if len(sm.Triangles) == 0 {
		return nil, grainmesh.Errorf(grainmesh.MissingInput, "volume mesh has no boundary faces")
	}
	return sm, nil
}
