package graph

import (
	"testing"

	"github.com/matryer/is"
	"lukechampine.com/frand"
)

func TestUnionFindProbeDoesNotCommit(t *testing.T) {
	is := is.New(t)
	uf := NewUnionFind(4)

	is.True(!uf.Connected(0, 1))
	is.True(!uf.Connected(0, 1)) // probing twice changes nothing
	is.True(uf.Union(0, 1))
	is.True(uf.Connected(0, 1))
	is.True(!uf.Union(0, 1)) // already joined
	is.Equal(uf.SetSize(1), 2)
	is.Equal(uf.Components(), 3)

	uf.Reset()
	is.Equal(uf.Components(), 4)
}

func TestUnionFindRandomAgainstNaive(t *testing.T) {
	is := is.New(t)
	const n = 50
	uf := NewUnionFind(n)
	// naive labeling for cross-checking
	label := make([]int, n)
	for v := range label {
		label[v] = v
	}

	for i := 0; i < 200; i++ {
		u, v := frand.Intn(n), frand.Intn(n)
		is.Equal(uf.Connected(u, v), label[u] == label[v])
		uf.Union(u, v)
		lu, lv := label[u], label[v]
		if lu != lv {
			for w := range label {
				if label[w] == lv {
					label[w] = lu
				}
			}
		}
	}
}

func TestMaximumSpanningTree(t *testing.T) {
	is := is.New(t)
	//   0-1 (5), 1-2 (4), 2-0 (1), 2-3 (3)
	g := New(4)
	g.AddEdge(0, 1).AddEdge(1, 2).AddEdge(2, 0).AddEdge(2, 3)

	mst := g.MaximumSpanningTree([]float64{5, 4, 1, 3})
	is.Equal(len(mst), 3)
	total := 0
	for _, i := range mst {
		total += i
	}
	// edges 0, 1, 3: the light 2-0 edge closes a cycle and is skipped
	is.Equal(total, 4)
}

func TestMaximumSpanningTreeDisconnected(t *testing.T) {
	is := is.New(t)
	g := New(4)
	g.AddEdge(0, 1).AddEdge(2, 3)
	is.Equal(g.MaximumSpanningTree([]float64{1, 1}), nil)
	is.Equal(g.NumComponents(), 2)
}

func TestShapes(t *testing.T) {
	is := is.New(t)
	is.Equal(Cycle(4).NumEdges(), 4)
	is.Equal(Path(5).NumEdges(), 4)
	is.Equal(Complete(5).NumEdges(), 10)
	is.Equal(Cycle(4).NumComponents(), 1)
}
