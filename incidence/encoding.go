package incidence

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Binary layout, one record per vertex with no padding:
//
//	[faceCount:uint16][faceIds:int32 × faceCount]
//
// All values are little endian.
const (
	sizeOfCount  = 2
	sizeOfFaceID = 4
)

var (
	errTruncated = errors.New("incidence: truncated record")
	errTrailing  = errors.New("incidence: trailing bytes")
)

// BinarySize returns the length of the buffer MarshalBinary produces.
func (ix *Index) BinarySize() int {
	return ix.Len()*sizeOfCount + ix.Total()*sizeOfFaceID
}

// MarshalBinary serializes the index. It fails if a vertex has more faces
// than fit the 16 bit count field.
func (ix *Index) MarshalBinary() ([]byte, error) {
	b := make([]byte, ix.BinarySize())
	off := 0
	for v := 0; v < ix.Len(); v++ {
		faces := ix.Faces(v)
		if len(faces) > math.MaxUint16 {
			return nil, fmt.Errorf("incidence: vertex %d has %d faces, record limit is %d", v, len(faces), math.MaxUint16)
		}
		binary.LittleEndian.PutUint16(b[off:], uint16(len(faces)))
		off += sizeOfCount
		for _, f := range faces {
			binary.LittleEndian.PutUint32(b[off:], uint32(f))
			off += sizeOfFaceID
		}
	}
	return b, nil
}

// WriteTo writes the binary serialization of the index to w.
func (ix *Index) WriteTo(w io.Writer) (int64, error) {
	b, err := ix.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(b)
	return int64(n), err
}

// UnmarshalBinary replaces the index with the records in b, consumed
// sequentially until b is exhausted. The record format carries no vertex
// count, so a buffer holding extra whole records decodes to extra vertices.
// Use Decode when the vertex count is known.
func (ix *Index) UnmarshalBinary(b []byte) error {
	return ix.decode(b, -1)
}

// Decode reads an index of exactly nverts records from b. It fails if b
// ends early or holds bytes after the last record.
func Decode(b []byte, nverts int) (*Index, error) {
	if nverts < 0 {
		return nil, fmt.Errorf("incidence: negative vertex count %d", nverts)
	}
	ix := &Index{}
	if err := ix.decode(b, nverts); err != nil {
		return nil, err
	}
	return ix, nil
}

// decode reads records until b is exhausted or, if nverts is not negative,
// until nverts records were read.
func (ix *Index) decode(b []byte, nverts int) error {
	var (
		offsets = []int32{0}
		faces   []int32
		nfaces  int
		off     int
	)
	for nverts < 0 || len(offsets)-1 < nverts {
		if off == len(b) && nverts < 0 {
			break
		}
		if len(b)-off < sizeOfCount {
			return fmt.Errorf("%w: vertex %d count", errTruncated, len(offsets)-1)
		}
		n := int(binary.LittleEndian.Uint16(b[off:]))
		off += sizeOfCount
		if len(b)-off < n*sizeOfFaceID {
			return fmt.Errorf("%w: vertex %d wants %d faces", errTruncated, len(offsets)-1, n)
		}
		for i := 0; i < n; i++ {
			f := int32(binary.LittleEndian.Uint32(b[off:]))
			if f < 0 {
				return fmt.Errorf("incidence: negative face id %d for vertex %d", f, len(offsets)-1)
			}
			if int(f) >= nfaces {
				nfaces = int(f) + 1
			}
			faces = append(faces, f)
			off += sizeOfFaceID
		}
		offsets = append(offsets, int32(len(faces)))
	}
	if off < len(b) {
		return fmt.Errorf("%w: %d bytes after vertex %d", errTrailing, len(b)-off, len(offsets)-2)
	}
	ix.offsets = offsets
	ix.faces = faces
	ix.nfaces = nfaces
	return nil
}
