package grainmesh

import "fmt"

// Attribute is a host owned array of fixed width tuples attached to the
// elements of a mesh. Operations that renumber elements compact attributes
// by copying tuples from old to new positions, never by interpolation.
type Attribute interface {
	Name() string
	// Len returns the number of tuples.
	Len() int
	// CopyTuple copies the tuple at src over the tuple at dst.
	CopyTuple(dst, src int)
	// Resize truncates or grows the array to n tuples.
	Resize(n int)
	// Clone returns a copy of the array sharing no storage with it.
	Clone() Attribute
}

var _ Attribute = (*Array[float32])(nil)

// Array is a generic Attribute of Components values per tuple.
type Array[T any] struct {
	name       string
	Components int
	Data       []T
}

// NewArray returns an Array of n zero-valued tuples.
func NewArray[T any](name string, n, components int) *Array[T] {
	if components <= 0 {
		panic("components must be positive")
	}
	return &Array[T]{name: name, Components: components, Data: make([]T, n*components)}
}

func (a *Array[T]) Name() string { return a.name }

func (a *Array[T]) Len() int { return len(a.Data) / a.Components }

func (a *Array[T]) CopyTuple(dst, src int) {
	c := a.Components
	copy(a.Data[dst*c:dst*c+c], a.Data[src*c:src*c+c])
}

func (a *Array[T]) Resize(n int) {
	sz := n * a.Components
	if sz <= cap(a.Data) {
		a.Data = a.Data[:sz]
		return
	}
	grown := make([]T, sz)
	copy(grown, a.Data)
	a.Data = grown
}

func (a *Array[T]) Clone() Attribute {
	return &Array[T]{name: a.name, Components: a.Components, Data: append([]T(nil), a.Data...)}
}

// Tuple returns the i'th tuple. The returned slice aliases the array.
func (a *Array[T]) Tuple(i int) []T {
	c := a.Components
	return a.Data[i*c : i*c+c]
}

func (a *Array[T]) String() string {
	return fmt.Sprintf("%s[%d×%d]", a.name, a.Len(), a.Components)
}

// Compact applies an order preserving compaction to attrs. kept lists, for
// every new index, the old index it is copied from. kept must be strictly
// increasing so that copies never overwrite a tuple that is still to be read.
func Compact(kept []int, attrs ...Attribute) error {
	for i := 1; i < len(kept); i++ {
		if kept[i] <= kept[i-1] {
			return fmt.Errorf("compaction order not increasing at %d", i)
		}
	}
	for _, a := range attrs {
		if a == nil {
			continue
		}
		if len(kept) > 0 && kept[len(kept)-1] >= a.Len() {
			return fmt.Errorf("attribute %q has %d tuples, need %d", a.Name(), a.Len(), kept[len(kept)-1]+1)
		}
		for dst, src := range kept {
			if dst != src {
				a.CopyTuple(dst, src)
			}
		}
		a.Resize(len(kept))
	}
	return nil
}

// Compacted returns copies of attrs compacted as Compact does. attrs are
// left untouched. Nil entries stay nil.
func Compacted(kept []int, attrs []Attribute) ([]Attribute, error) {
	if attrs == nil {
		return nil, nil
	}
	out := make([]Attribute, len(attrs))
	for i, a := range attrs {
		if a != nil {
			out[i] = a.Clone()
		}
	}
	if err := Compact(kept, out...); err != nil {
		return nil, err
	}
	return out, nil
}
