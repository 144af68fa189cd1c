package matroid

import (
	"sort"

	"github.com/Tiramister/CSAR/graph"
)

// Graphic is the graphic (circuit) matroid of an undirected graph: arms are
// edges and a set is independent iff it is a forest. The target rank is
// V-1, a spanning tree. Committed edges live in an incremental union-find;
// probes use find-without-union so that candidate feasibility can be
// re-checked every round without disturbing the committed state.
type Graphic struct {
	g          *graph.Graph
	committed  *graph.UnionFind
	isCommit   []bool
	ncommitted int
}

func NewGraphic(g *graph.Graph) *Graphic {
	return &Graphic{
		g:         g,
		committed: graph.NewUnionFind(g.NumVertices()),
		isCommit:  make([]bool, g.NumEdges()),
	}
}

// Graph returns the underlying graph.
func (m *Graphic) Graph() *graph.Graph { return m.g }

func (m *Graphic) GroundSetSize() int { return m.g.NumEdges() }

func (m *Graphic) TargetRank() int { return m.g.NumVertices() - 1 }

func (m *Graphic) IsIndependent(set []int) bool {
	uf := graph.NewUnionFind(m.g.NumVertices())
	for _, e := range set {
		checkElement(e, m.g.NumEdges())
		edge := m.g.Edge(e)
		if !uf.Union(edge.U, edge.V) {
			return false
		}
	}
	return true
}

func (m *Graphic) Rank(set []int) int {
	uf := graph.NewUnionFind(m.g.NumVertices())
	rank := 0
	for _, e := range set {
		checkElement(e, m.g.NumEdges())
		edge := m.g.Edge(e)
		if uf.Union(edge.U, edge.V) {
			rank++
		}
	}
	return rank
}

func (m *Graphic) Probe(set []int, e int) bool {
	checkElement(e, m.g.NumEdges())
	uf := graph.NewUnionFind(m.g.NumVertices())
	for _, s := range set {
		checkElement(s, m.g.NumEdges())
		edge := m.g.Edge(s)
		uf.Union(edge.U, edge.V)
	}
	edge := m.g.Edge(e)
	return !uf.Connected(edge.U, edge.V)
}

func (m *Graphic) ProbeCommitted(e int) bool {
	checkElement(e, m.g.NumEdges())
	if m.isCommit[e] {
		return false
	}
	edge := m.g.Edge(e)
	return !m.committed.Connected(edge.U, edge.V)
}

func (m *Graphic) Commit(e int) {
	checkElement(e, m.g.NumEdges())
	edge := m.g.Edge(e)
	if m.isCommit[e] || !m.committed.Union(edge.U, edge.V) {
		panic("matroid: commit would close a cycle")
	}
	m.isCommit[e] = true
	m.ncommitted++
}

func (m *Graphic) CommittedCount() int { return m.ncommitted }

func (m *Graphic) OptimalBasis(weights []float64, alive []bool) []int {
	residual := m.TargetRank() - m.ncommitted
	candidates := make([]int, 0, m.g.NumEdges())
	for e := 0; e < m.g.NumEdges(); e++ {
		if alive[e] && !m.isCommit[e] {
			candidates = append(candidates, e)
		}
	}
	sort.Slice(candidates, func(a, b int) bool {
		i, j := candidates[a], candidates[b]
		if weights[i] != weights[j] {
			return weights[i] > weights[j]
		}
		return i < j
	})

	uf := m.committed.Clone()
	basis := make([]int, 0, residual)
	for _, e := range candidates {
		if len(basis) == residual {
			break
		}
		edge := m.g.Edge(e)
		if uf.Union(edge.U, edge.V) {
			basis = append(basis, e)
		}
	}
	if len(basis) < residual {
		return nil
	}
	return basis
}

// Circuit returns the basis edges on the tree path between the endpoints of
// e, in the forest formed by the basis over committed components. These are
// exactly the edges e could replace by the exchange property. An empty
// result means e is a loop in the contracted matroid (its endpoints are
// already joined by committed edges alone).
func (m *Graphic) Circuit(basis []int, e int) []int {
	checkElement(e, m.g.NumEdges())

	// Work on committed-component roots so committed edges act as
	// contracted vertices.
	root := func(v int) int { return m.committed.Find(v) }

	type arc struct {
		to int
		id int
	}
	adj := make(map[int][]arc, len(basis)+1)
	for _, b := range basis {
		edge := m.g.Edge(b)
		ru, rv := root(edge.U), root(edge.V)
		adj[ru] = append(adj[ru], arc{to: rv, id: b})
		adj[rv] = append(adj[rv], arc{to: ru, id: b})
	}

	edge := m.g.Edge(e)
	src, dst := root(edge.U), root(edge.V)
	if src == dst {
		return nil
	}

	// BFS through the basis forest from src to dst.
	parentEdge := map[int]int{src: -1}
	parentNode := map[int]int{src: -1}
	queue := []int{src}
	found := false
	for len(queue) > 0 && !found {
		v := queue[0]
		queue = queue[1:]
		for _, a := range adj[v] {
			if _, seen := parentEdge[a.to]; !seen {
				parentEdge[a.to] = a.id
				parentNode[a.to] = v
				queue = append(queue, a.to)
				if a.to == dst {
					found = true
					break
				}
			}
		}
	}
	if !found {
		// e bridges two forest components; nothing to exchange with.
		return nil
	}

	var circuit []int
	for v := dst; v != src; v = parentNode[v] {
		circuit = append(circuit, parentEdge[v])
	}
	return circuit
}

func (m *Graphic) Reset() {
	m.committed.Reset()
	for e := range m.isCommit {
		m.isCommit[e] = false
	}
	m.ncommitted = 0
}
