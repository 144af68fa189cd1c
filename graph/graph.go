// Package graph holds the edge-list graph and union-find machinery backing
// the graphic matroid oracle.
package graph

import "sort"

// Edge is an undirected edge between two vertex ids.
type Edge struct {
	U, V int
}

// Graph is an edge-list multigraph. Edges are identified by their index in
// the list; the matroid layer maps arm ids to edge indices.
type Graph struct {
	edges []Edge
	vnum  int
}

func New(vnum int) *Graph {
	return &Graph{vnum: vnum}
}

func FromEdges(edges []Edge) *Graph {
	g := &Graph{}
	for _, e := range edges {
		g.AddEdge(e.U, e.V)
	}
	return g
}

// AddEdge appends an edge, growing the vertex count if needed.
func (g *Graph) AddEdge(u, v int) *Graph {
	g.edges = append(g.edges, Edge{U: u, V: v})
	if u+1 > g.vnum {
		g.vnum = u + 1
	}
	if v+1 > g.vnum {
		g.vnum = v + 1
	}
	return g
}

func (g *Graph) NumVertices() int {
	return g.vnum
}

func (g *Graph) NumEdges() int {
	return len(g.edges)
}

func (g *Graph) Edge(i int) Edge {
	return g.edges[i]
}

// Edges returns the backing edge list. Callers must not modify it.
func (g *Graph) Edges() []Edge {
	return g.edges
}

// NumComponents returns the number of connected components, counting
// isolated vertices.
func (g *Graph) NumComponents() int {
	uf := NewUnionFind(g.vnum)
	for _, e := range g.edges {
		uf.Union(e.U, e.V)
	}
	return uf.Components()
}

// MaximumSpanningTree returns the edge indices of a maximum-weight spanning
// tree found by Kruskal's algorithm, or nil if the graph is not connected.
// The length of weights must equal the number of edges.
func (g *Graph) MaximumSpanningTree(weights []float64) []int {
	if len(weights) != len(g.edges) {
		panic("graph: weights length does not match edge count")
	}
	if g.vnum == 0 {
		return nil
	}

	order := make([]int, len(g.edges))
	for i := range order {
		order[i] = i
	}
	// Heaviest first; ties broken by the smaller edge index so results are
	// deterministic.
	sort.Slice(order, func(a, b int) bool {
		i, j := order[a], order[b]
		if weights[i] != weights[j] {
			return weights[i] > weights[j]
		}
		return i < j
	})

	var mst []int
	uf := NewUnionFind(g.vnum)
	for _, i := range order {
		e := g.edges[i]
		if uf.Union(e.U, e.V) {
			mst = append(mst, i)
		}
	}

	if uf.SetSize(0) != g.vnum {
		return nil
	}
	return mst
}

// Cycle returns the cycle graph on n vertices (n edges).
func Cycle(n int) *Graph {
	g := New(n)
	for v := 0; v < n; v++ {
		g.AddEdge(v, (v+1)%n)
	}
	return g
}

// Path returns the path graph on n vertices (n-1 edges).
func Path(n int) *Graph {
	g := New(n)
	for v := 0; v+1 < n; v++ {
		g.AddEdge(v, v+1)
	}
	return g
}

// Complete returns the complete graph on n vertices.
func Complete(n int) *Graph {
	g := New(n)
	for u := 0; u < n; u++ {
		for v := u + 1; v < n; v++ {
			g.AddEdge(u, v)
		}
	}
	return g
}
