package meshgen

import (
	"math"

	"github.com/soypat/grainmesh"
	"github.com/soypat/grainmesh/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// bccLattice constructs a body centered cubic lattice for isotropic
// tetrahedron generation.
// Inspired by Tetrahedral Mesh Generation for Deformable Bodies
// Molino, Bridson, Fedkiw.
//
// Nodes are the cell corners followed by the cell centers. Tetrahedra join
// the centers of two face adjacent cells with one edge of their shared face.
type bccLattice struct {
	origin     r3.Vec
	resolution float64
	div        [3]int
}

type bccidx int

// BCC cell corner indices.
const (
	i000 bccidx = iota
	ix00
	ixy0
	i0y0
	i00z
	ix0z
	ixyz
	i0yz
	nCorners
)

// cornerOffset is the lattice offset of each corner relative to the
// cell's minimum corner.
var cornerOffset = [nCorners][3]int{
	i000: {0, 0, 0},
	ix00: {1, 0, 0},
	ixy0: {1, 1, 0},
	i0y0: {0, 1, 0},
	i00z: {0, 0, 1},
	ix0z: {1, 0, 1},
	ixyz: {1, 1, 1},
	i0yz: {0, 1, 1},
}

// faceLoops lists, for the cell face shared with the minus neighbor along
// each axis, its corners in cyclic order.
var faceLoops = [3][4]bccidx{
	{i000, i0y0, i0yz, i00z}, // x
	{ix00, i000, i00z, ix0z}, // y
	{i000, ix00, ixy0, i0y0}, // z
}

func newBCCLattice(b d3.Box, resolution float64) (bccLattice, error) {
	if resolution <= 0 || math.IsNaN(resolution) {
		return bccLattice{}, grainmesh.Errorf(grainmesh.InvalidParameter, "lattice resolution must be positive, got %g", resolution)
	}
	sz := b.Size()
	div := [3]int{
		int(math.Ceil(sz.X / resolution)),
		int(math.Ceil(sz.Y / resolution)),
		int(math.Ceil(sz.Z / resolution)),
	}
	if div[0] < 1 || div[1] < 1 || div[2] < 1 {
		return bccLattice{}, grainmesh.Errorf(grainmesh.InvalidParameter, "lattice box %v too small for resolution %g", sz, resolution)
	}
	return bccLattice{origin: b.Min, resolution: resolution, div: div}, nil
}

func (l *bccLattice) cells() int { return l.div[0] * l.div[1] * l.div[2] }

func (l *bccLattice) corners() int { return (l.div[0] + 1) * (l.div[1] + 1) * (l.div[2] + 1) }

// corner returns the node index of lattice corner (i, j, k).
func (l *bccLattice) corner(i, j, k int) int {
	return (i*(l.div[1]+1)+j)*(l.div[2]+1) + k
}

// cellCorner returns the node index of corner idx of cell (i, j, k).
func (l *bccLattice) cellCorner(i, j, k int, idx bccidx) int {
	o := cornerOffset[idx]
	return l.corner(i+o[0], j+o[1], k+o[2])
}

// center returns the node index of the center of cell (i, j, k).
func (l *bccLattice) center(i, j, k int) int {
	return l.corners() + (i*l.div[1]+j)*l.div[2] + k
}

func (l *bccLattice) nodes() []r3.Vec {
	nodes := make([]r3.Vec, l.corners()+l.cells())
	res := l.resolution
	for i := 0; i <= l.div[0]; i++ {
		for j := 0; j <= l.div[1]; j++ {
			for k := 0; k <= l.div[2]; k++ {
				nodes[l.corner(i, j, k)] = r3.Add(l.origin, r3.Vec{X: float64(i) * res, Y: float64(j) * res, Z: float64(k) * res})
			}
		}
	}
	l.foreach(func(i, j, k int) {
		nodes[l.center(i, j, k)] = r3.Add(l.origin, r3.Vec{
			X: (float64(i) + 0.5) * res,
			Y: (float64(j) + 0.5) * res,
			Z: (float64(k) + 0.5) * res,
		})
	})
	return nodes
}

func (l *bccLattice) foreach(f func(i, j, k int)) {
	for i := 0; i < l.div[0]; i++ {
		for j := 0; j < l.div[1]; j++ {
			for k := 0; k < l.div[2]; k++ {
				f(i, j, k)
			}
		}
	}
}

// tetras meshes the lattice. Every cell is joined to its minus neighbors
// with four tetrahedra per shared face. Results in isotropic mesh.
func (l *bccLattice) tetras() [][4]int {
	var tetras [][4]int
	l.foreach(func(i, j, k int) {
		nctr := l.center(i, j, k)
		// Start with nodes in z direction since the lattice is indexed with z as
		// the fastest varying dimension.
		minus := [3][3]int{{i, j, k - 1}, {i, j - 1, k}, {i - 1, j, k}}
		axes := [3]int{2, 1, 0}
		for n, m := range minus {
			if m[0] < 0 || m[1] < 0 || m[2] < 0 {
				continue
			}
			octr := l.center(m[0], m[1], m[2])
			loop := faceLoops[axes[n]]
			for e := range loop {
				a := l.cellCorner(i, j, k, loop[e])
				b := l.cellCorner(i, j, k, loop[(e+1)%4])
				tetras = append(tetras, [4]int{nctr, a, b, octr})
			}
		}
	})
	return tetras
}

// Lattice returns the nodes and tetrahedra of a BCC mesh filling box b at
// the given resolution. Nodes not referenced by any tetrahedron are dropped.
// Every tetrahedron has Spin 1 and Origin set to the index of the cell
// owning it.
func Lattice(b r3.Box, resolution float64) (*grainmesh.TetMesh, error) {
	l, err := newBCCLattice(d3.Box(b), resolution)
	if err != nil {
		return nil, err
	}
	nodes := l.nodes()
	raw := l.tetras()
	remap := make([]int, len(nodes))
	for i := range remap {
		remap[i] = -1
	}
	m := &grainmesh.TetMesh{Tetrahedra: make([]grainmesh.Tetrahedron, len(raw))}
	for ti, t := range raw {
		tet := grainmesh.Tetrahedron{Edges: grainmesh.NoEdges, Spin: 1, Origin: t[0] - l.corners()}
		for c, n := range t {
			if remap[n] < 0 {
				remap[n] = len(m.Nodes)
				m.Nodes = append(m.Nodes, d3.To32(nodes[n]))
			}
			tet.Nodes[c] = remap[n]
		}
		m.Tetrahedra[ti] = tet
	}
	return m, nil
}
