package decimate

import (
	"container/heap"

	"gonum.org/v1/gonum/spatial/r3"
)

// pairKey is an unordered vertex pair stored with u < v.
type pairKey struct {
	u, v int32
}

func makeKey(a, b int) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{u: int32(a), v: int32(b)}
}

func (k pairKey) less(o pairKey) bool {
	if k.u != o.u {
		return k.u < o.u
	}
	return k.v < o.v
}

type pairEntry struct {
	cost  float64
	pos   r3.Vec
	stamp uint32
}

type heapItem struct {
	cost  float64
	key   pairKey
	stamp uint32
}

// pairHeap orders candidate pairs by ascending cost, ties broken by the
// lexicographic order of the vertex ids.
type pairHeap []heapItem

func (h pairHeap) Len() int { return len(h) }

func (h pairHeap) Less(i, j int) bool {
	if h[i].cost != h[j].cost {
		return h[i].cost < h[j].cost
	}
	return h[i].key.less(h[j].key)
}

func (h pairHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *pairHeap) Push(x any) { *h = append(*h, x.(heapItem)) }

func (h *pairHeap) Pop() any {
	old := *h
	x := old[len(old)-1]
	*h = old[:len(old)-1]
	return x
}

// pairQueue keeps candidate pairs in a map for lookup and erasure by vertex
// ids and in a binary heap for extraction of the cheapest pair. Heap items
// whose stamp no longer matches the map entry are stale and skipped.
type pairQueue struct {
	entries map[pairKey]pairEntry
	heap    pairHeap
	// partners lists for every vertex the other end of its pairs.
	partners [][]int32
	stamp    uint32
}

func newPairQueue(nverts int) *pairQueue {
	return &pairQueue{
		entries:  make(map[pairKey]pairEntry),
		partners: make([][]int32, nverts),
	}
}

// Len returns the number of live pairs.
func (q *pairQueue) Len() int { return len(q.entries) }

func (q *pairQueue) has(k pairKey) bool {
	_, ok := q.entries[k]
	return ok
}

func (q *pairQueue) get(k pairKey) (pairEntry, bool) {
	e, ok := q.entries[k]
	return e, ok
}

// set inserts pair k or replaces its cost and contraction point.
func (q *pairQueue) set(k pairKey, cost float64, pos r3.Vec) {
	if _, ok := q.entries[k]; !ok {
		q.partners[k.u] = append(q.partners[k.u], k.v)
		q.partners[k.v] = append(q.partners[k.v], k.u)
	}
	q.stamp++
	q.entries[k] = pairEntry{cost: cost, pos: pos, stamp: q.stamp}
	heap.Push(&q.heap, heapItem{cost: cost, key: k, stamp: q.stamp})
	if len(q.heap) > 4*len(q.entries)+1024 {
		q.rebuild()
	}
}

// remove erases pair k. Its heap item becomes stale.
func (q *pairQueue) remove(k pairKey) {
	if _, ok := q.entries[k]; !ok {
		return
	}
	delete(q.entries, k)
	q.partners[k.u] = removeID(q.partners[k.u], k.v)
	q.partners[k.v] = removeID(q.partners[k.v], k.u)
}

// removeVertex erases every pair of vertex v.
func (q *pairQueue) removeVertex(v int) {
	for len(q.partners[v]) > 0 {
		p := q.partners[v][len(q.partners[v])-1]
		q.remove(makeKey(v, int(p)))
	}
}

// partnersOf returns the vertices paired with v. The slice is owned by
// the queue and changes with it.
func (q *pairQueue) partnersOf(v int) []int32 { return q.partners[v] }

// popMin removes and returns the cheapest live pair.
func (q *pairQueue) popMin() (pairKey, pairEntry, bool) {
	for len(q.heap) > 0 {
		it := heap.Pop(&q.heap).(heapItem)
		e, ok := q.entries[it.key]
		if !ok || e.stamp != it.stamp {
			continue // stale
		}
		q.remove(it.key)
		return it.key, e, true
	}
	return pairKey{}, pairEntry{}, false
}

// rebuild drops stale heap items. The pop order only depends on cost and
// vertex ids so rebuilding from the map keeps results reproducible.
func (q *pairQueue) rebuild() {
	h := q.heap[:0]
	for _, it := range q.heap {
		if e, ok := q.entries[it.key]; ok && e.stamp == it.stamp {
			h = append(h, it)
		}
	}
	q.heap = h
	heap.Init(&q.heap)
}

// removeID removes the first occurrence of id from s, preserving order.
func removeID(s []int32, id int32) []int32 {
	for i, x := range s {
		if x == id {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}
