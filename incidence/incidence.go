// Package incidence implements the vertex to face incidence index used by
// the decimators, the node type classifier and winding repair.
//
// The index is stored in compressed sparse row form: a single flat buffer of
// face ids plus one offset per vertex.
package incidence

import (
	"github.com/soypat/grainmesh"
)

// Index maps every vertex to the ordered list of faces incident to it.
// Faces are listed in increasing face id order.
type Index struct {
	// offsets[v]:offsets[v+1] is the span of vertex v in faces.
	offsets []int32
	faces   []int32
	// nfaces is the number of elements the index was built from.
	nfaces int
}

// FromTriangles builds the index for triangle faces over nverts vertices.
func FromTriangles(nverts int, tris []grainmesh.Triangle) (*Index, error) {
	return build(nverts, len(tris), 3, func(e, c int) int { return tris[e][c] })
}

// FromTetrahedra builds the index for tetrahedra over nverts nodes.
func FromTetrahedra(nverts int, tets []grainmesh.Tetrahedron) (*Index, error) {
	return build(nverts, len(tets), 4, func(e, c int) int { return tets[e].Nodes[c] })
}

// build is a two pass counting sort: first count faces per vertex to size
// the storage, then walk the elements again filling each vertex's span
// through a per-vertex cursor.
func build(nverts, nelem, arity int, corner func(e, c int) int) (*Index, error) {
	if nverts < 0 {
		return nil, grainmesh.Errorf(grainmesh.InvalidParameter, "negative vertex count %d", nverts)
	}
	offsets := make([]int32, nverts+1)
	for e := 0; e < nelem; e++ {
		for c := 0; c < arity; c++ {
			v := corner(e, c)
			if v < 0 || v >= nverts {
				return nil, grainmesh.Errorf(grainmesh.InvalidTopology, "face %d references vertex %d, have %d vertices", e, v, nverts)
			}
			offsets[v+1]++
		}
	}
	for v := 0; v < nverts; v++ {
		offsets[v+1] += offsets[v]
	}
	faces := make([]int32, offsets[nverts])
	cursor := make([]int32, nverts)
	copy(cursor, offsets[:nverts])
	for e := 0; e < nelem; e++ {
		for c := 0; c < arity; c++ {
			v := corner(e, c)
			faces[cursor[v]] = int32(e)
			cursor[v]++
		}
	}
	return &Index{offsets: offsets, faces: faces, nfaces: nelem}, nil
}

// Len returns the number of vertices in the index.
func (ix *Index) Len() int { return len(ix.offsets) - 1 }

// FaceCount returns the number of faces the index was built from.
func (ix *Index) FaceCount() int { return ix.nfaces }

// Total returns the number of (vertex, face) incidences.
func (ix *Index) Total() int { return len(ix.faces) }

// Faces returns the faces incident to vertex v. The returned slice aliases
// the index and must not be modified. An unused vertex has no faces.
func (ix *Index) Faces(v int) []int32 {
	return ix.faces[ix.offsets[v]:ix.offsets[v+1]]
}

// Count returns the number of faces incident to vertex v.
func (ix *Index) Count(v int) int {
	return int(ix.offsets[v+1] - ix.offsets[v])
}

// EdgeFaces appends to dst the faces incident to both a and b, that is,
// the faces sharing edge (a, b).
func (ix *Index) EdgeFaces(dst []int32, a, b int) []int32 {
	fa, fb := ix.Faces(a), ix.Faces(b)
	i, j := 0, 0
	for i < len(fa) && j < len(fb) {
		switch {
		case fa[i] < fb[j]:
			i++
		case fa[i] > fb[j]:
			j++
		default:
			// A face listing the same vertex twice appears twice in the span.
			if len(dst) == 0 || dst[len(dst)-1] != fa[i] {
				dst = append(dst, fa[i])
			}
			i++
			j++
		}
	}
	return dst
}

// Lists returns a copy of the index as one mutable slice per vertex.
// The decimators use it as the starting point of their own incremental
// bookkeeping.
func (ix *Index) Lists() [][]int32 {
	lists := make([][]int32, ix.Len())
	for v := range lists {
		f := ix.Faces(v)
		if len(f) == 0 {
			continue
		}
		lists[v] = append(make([]int32, 0, len(f)+4), f...)
	}
	return lists
}
