package graph

// UnionFind is a disjoint-set forest with path halving and union by size.
// Find never changes connectivity, so callers can probe "would this edge
// close a cycle?" any number of times and only Union once a decision is
// final. This probe/commit split is what lets the graphic matroid test
// candidate arms repeatedly before any of them is accepted.
type UnionFind struct {
	parent []int
	size   []int
}

func NewUnionFind(n int) *UnionFind {
	uf := &UnionFind{
		parent: make([]int, n),
		size:   make([]int, n),
	}
	uf.Reset()
	return uf
}

// Reset restores every vertex to its own singleton set.
func (uf *UnionFind) Reset() {
	for v := range uf.parent {
		uf.parent[v] = v
		uf.size[v] = 1
	}
}

// Find returns the root of the set containing v.
func (uf *UnionFind) Find(v int) int {
	for uf.parent[v] != v {
		uf.parent[v] = uf.parent[uf.parent[v]]
		v = uf.parent[v]
	}
	return v
}

// Connected reports whether u and v belong to the same set; true means the
// edge (u, v) would close a cycle.
func (uf *UnionFind) Connected(u, v int) bool {
	return uf.Find(u) == uf.Find(v)
}

// Union merges the sets containing u and v. It reports whether a merge
// actually happened; false means u and v were already connected.
func (uf *UnionFind) Union(u, v int) bool {
	ru, rv := uf.Find(u), uf.Find(v)
	if ru == rv {
		return false
	}
	if uf.size[ru] < uf.size[rv] {
		ru, rv = rv, ru
	}
	uf.parent[rv] = ru
	uf.size[ru] += uf.size[rv]
	return true
}

// SetSize returns the size of the set containing v.
func (uf *UnionFind) SetSize(v int) int {
	return uf.size[uf.Find(v)]
}

// Components returns the number of disjoint sets.
func (uf *UnionFind) Components() int {
	count := 0
	for v := range uf.parent {
		if uf.parent[v] == v {
			count++
		}
	}
	return count
}

// Clone returns an independent copy of the structure.
func (uf *UnionFind) Clone() *UnionFind {
	cp := &UnionFind{
		parent: make([]int, len(uf.parent)),
		size:   make([]int, len(uf.size)),
	}
	copy(cp.parent, uf.parent)
	copy(cp.size, uf.size)
	return cp
}
