package meshgen

import (
	"math/rand"

	"github.com/soypat/grainmesh"
	"github.com/soypat/grainmesh/internal/d3"
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	_ kdtree.Interface  = grainSeeds{}
	_ kdtree.Comparable = grainSeed{}
)

// Config describes a synthetic microstructure.
type Config struct {
	// Box is the domain filled with tetrahedra.
	Box r3.Box
	// Resolution is the BCC lattice cell size.
	Resolution float64
	// Grains is the number of Voronoi grains. Labels are 1..Grains.
	Grains int
	// Seed seeds the grain center placement.
	Seed int64
}

// Microstructure generates a BCC tetrahedral mesh of cfg.Box partitioned
// into Voronoi grains. Every tetrahedron's Spin is the label of the grain
// seed closest to its centroid.
func Microstructure(cfg Config) (*grainmesh.TetMesh, error) {
	if cfg.Grains < 1 {
		return nil, grainmesh.Errorf(grainmesh.InvalidParameter, "need at least one grain, got %d", cfg.Grains)
	}
	m, err := Lattice(cfg.Box, cfg.Resolution)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	box := d3.Box(cfg.Box)
	size := box.Size()
	seeds := make(grainSeeds, cfg.Grains)
	for i := range seeds {
		seeds[i] = grainSeed{
			pos: r3.Add(box.Min, r3.Vec{X: rng.Float64() * size.X, Y: rng.Float64() * size.Y, Z: rng.Float64() * size.Z}),
			id:  int32(i + 1),
		}
	}
	tree := kdtree.New(seeds, false)
	for i := range m.Tetrahedra {
		c := tetCentroid(m, i)
		got, _ := tree.Nearest(grainSeed{pos: c})
		m.Tetrahedra[i].Spin = got.(grainSeed).id
	}
	return m, nil
}

func tetCentroid(m *grainmesh.TetMesh, i int) r3.Vec {
	var c r3.Vec
	for _, n := range m.Tetrahedra[i].Nodes {
		c = r3.Add(c, d3.To64(m.Nodes[n]))
	}
	return r3.Scale(0.25, c)
}

type grainSeed struct {
	pos r3.Vec
	id  int32
}

// Compare returns the signed distance of a from the plane passing through
// b and perpendicular to the dimension d.
func (a grainSeed) Compare(b kdtree.Comparable, d kdtree.Dim) float64 {
	q := b.(grainSeed)
	switch d {
	case 0:
		return a.pos.X - q.pos.X
	case 1:
		return a.pos.Y - q.pos.Y
	case 2:
		return a.pos.Z - q.pos.Z
	}
	panic("unreachable")
}

func (a grainSeed) Dims() int { return 3 }

// Distance returns the squared Euclidean distance between the seeds.
func (a grainSeed) Distance(b kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(a.pos, b.(grainSeed).pos))
}

type grainSeeds []grainSeed

func (s grainSeeds) Index(i int) kdtree.Comparable { return s[i] }

func (s grainSeeds) Len() int { return len(s) }

// Pivot partitions the list based on the dimension specified.
func (s grainSeeds) Pivot(d kdtree.Dim) int {
	p := seedPlane{dim: d, seeds: s}
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

func (s grainSeeds) Slice(start, end int) kdtree.Interface { return s[start:end] }

type seedPlane struct {
	dim   kdtree.Dim
	seeds grainSeeds
}

func (p seedPlane) Less(i, j int) bool {
	return p.seeds[i].Compare(p.seeds[j], p.dim) < 0
}
func (p seedPlane) Swap(i, j int) {
	p.seeds[i], p.seeds[j] = p.seeds[j], p.seeds[i]
}
func (p seedPlane) Len() int {
	return len(p.seeds)
}
func (p seedPlane) Slice(start, end int) kdtree.SortSlicer {
	p.seeds = p.seeds[start:end]
	return p
}
