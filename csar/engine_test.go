package csar

import (
	"context"
	"encoding/binary"
	"sort"
	"testing"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiramister/CSAR/arms"
	"github.com/Tiramister/CSAR/graph"
	"github.com/Tiramister/CSAR/matroid"
)

func seedFor(trial uint64) [32]byte {
	var seed [32]byte
	binary.LittleEndian.PutUint64(seed[:8], trial+1)
	binary.LittleEndian.PutUint64(seed[8:16], trial*2654435761+1)
	return seed
}

func mustPool(t *testing.T, spec arms.Spec, trial uint64) *arms.Pool {
	t.Helper()
	pool, err := arms.NewPool(spec, seedFor(trial))
	require.NoError(t, err)
	return pool
}

func TestUniformIdentifiesTopArms(t *testing.T) {
	spec := arms.Spec{
		Family: arms.Normal,
		Means:  []float64{10, 9, 8, 1, 1},
		Stddev: 1,
	}

	const trials = 300
	hits := 0
	for trial := uint64(0); trial < trials; trial++ {
		eng, err := New(matroid.NewUniform(5, 2), mustPool(t, spec, trial), Options{Delta: 0.1})
		require.NoError(t, err)
		res, err := eng.Run(context.Background())
		require.NoError(t, err)
		require.True(t, res.Succeeded)
		require.Len(t, res.Basis, 2)
		if res.Basis[0] == 0 && res.Basis[1] == 1 {
			hits++
		}
	}
	// Guaranteed ≥ 90% at δ=0.1; the margin is far wider in practice.
	assert.GreaterOrEqual(t, hits, trials*9/10, "identified the top pair in %d/%d trials", hits, trials)
}

func TestGraphicSpanningTree(t *testing.T) {
	// 4-vertex cycle; arm = edge. The three heaviest edges form the
	// maximum spanning tree.
	spec := arms.Spec{
		Family: arms.Normal,
		Means:  []float64{10, 8, 6, 1},
		Stddev: 0.5,
	}

	const trials = 100
	hits := 0
	for trial := uint64(0); trial < trials; trial++ {
		oracle := matroid.NewGraphic(graph.Cycle(4))
		eng, err := New(oracle, mustPool(t, spec, trial), Options{Delta: 0.05})
		require.NoError(t, err)
		res, err := eng.Run(context.Background())
		require.NoError(t, err)
		require.True(t, res.Succeeded)

		// always a spanning tree, whatever was identified
		require.Len(t, res.Basis, 3)
		require.True(t, matroid.NewGraphic(graph.Cycle(4)).IsIndependent(res.Basis))

		want := []int{0, 1, 2}
		if len(res.Basis) == 3 && res.Basis[0] == want[0] && res.Basis[1] == want[1] && res.Basis[2] == want[2] {
			hits++
		}
	}
	assert.GreaterOrEqual(t, hits, trials*9/10)
}

// statusWatcher asserts the partition invariant and one-way transitions
// after every engine round, piggybacking on the per-round log stream.
type statusWatcher struct {
	t    *testing.T
	eng  *Engine
	prev []Status
}

func (w *statusWatcher) Write(p []byte) (int, error) {
	n := len(w.prev)
	accepted, rejected, undet := 0, 0, 0
	for i := 0; i < n; i++ {
		cur := w.eng.Status(i)
		switch cur {
		case Accepted:
			accepted++
		case Rejected:
			rejected++
		default:
			undet++
		}
		if w.prev[i] != Undetermined && cur != w.prev[i] {
			w.t.Errorf("arm %d left terminal status %v for %v", i, w.prev[i], cur)
		}
		w.prev[i] = cur
	}
	if accepted+rejected+undet != n {
		w.t.Errorf("statuses do not partition the ground set")
	}
	return len(p), nil
}

func TestPartitionInvariantEveryRound(t *testing.T) {
	is := is.New(t)
	spec := arms.Spec{
		Family: arms.Normal,
		Means:  []float64{5, 4, 3, 2, 1, 0},
		Stddev: 1,
	}
	pool := mustPool(t, spec, 11)

	watcher := &statusWatcher{t: t, prev: make([]Status, 6)}
	eng, err := New(matroid.NewUniform(6, 3), pool, Options{Delta: 0.1, LogStream: watcher})
	is.NoErr(err)
	watcher.eng = eng

	res, err := eng.Run(context.Background())
	is.NoErr(err)
	is.True(res.Succeeded)
	is.Equal(len(res.Basis), 3)
	is.True(res.TotalPulls > 0)
}

func TestDeterministicTieBreak(t *testing.T) {
	is := is.New(t)
	// Two arms share a true mean; the same seed must reproduce the same
	// classification, pull for pull.
	spec := arms.Spec{
		Family: arms.Normal,
		Means:  []float64{5, 5, 1},
		Stddev: 1,
	}

	run := func() *Result {
		eng, err := New(matroid.NewUniform(3, 2), mustPool(t, spec, 99), Options{Delta: 0.1})
		is.NoErr(err)
		res, err := eng.Run(context.Background())
		is.NoErr(err)
		return res
	}

	first := run()
	for i := 0; i < 3; i++ {
		again := run()
		is.Equal(again.Basis, first.Basis)
		is.Equal(again.TotalPulls, first.TotalPulls)
		is.Equal(again.Outcome, first.Outcome)
	}
	sorted := append([]int(nil), first.Basis...)
	sort.Ints(sorted)
	is.Equal(first.Basis, sorted)
}

func TestDisconnectedGraphIsIncomplete(t *testing.T) {
	is := is.New(t)
	// Two components, 6 vertices: a spanning tree (rank 5) cannot exist.
	g := graph.New(6)
	g.AddEdge(0, 1).AddEdge(1, 2).AddEdge(3, 4).AddEdge(4, 5)

	spec := arms.Spec{
		Family: arms.Normal,
		Means:  []float64{4, 3, 2, 1},
		Stddev: 1,
	}
	eng, err := New(matroid.NewGraphic(g), mustPool(t, spec, 3), Options{Delta: 0.1})
	is.NoErr(err)

	res, err := eng.Run(context.Background())
	is.NoErr(err)
	is.Equal(res.Outcome, IncompleteBasis)
	is.True(!res.Succeeded)
	is.Equal(res.TotalPulls, 0) // detected before any sampling
}

func TestRoundBudget(t *testing.T) {
	is := is.New(t)
	// Identical means on the accept/reject boundary: the gap is zero, so
	// only the budget can end the trial.
	spec := arms.Spec{
		Family: arms.Normal,
		Means:  []float64{1, 1},
		Stddev: 1,
	}
	eng, err := New(matroid.NewUniform(2, 1), mustPool(t, spec, 5), Options{Delta: 0.1, MaxRounds: 200})
	is.NoErr(err)

	res, err := eng.Run(context.Background())
	is.NoErr(err)
	is.Equal(res.Outcome, BudgetExceeded)
	is.True(!res.Succeeded)
	is.Equal(res.TotalPulls, 200)
}

func TestRunHonorsContext(t *testing.T) {
	is := is.New(t)
	spec := arms.Spec{
		Family: arms.Normal,
		Means:  []float64{2, 1},
		Stddev: 1,
	}
	eng, err := New(matroid.NewUniform(2, 1), mustPool(t, spec, 1), Options{Delta: 0.1})
	is.NoErr(err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = eng.Run(ctx)
	is.Equal(err, context.Canceled)
}

func TestNewValidates(t *testing.T) {
	is := is.New(t)
	pool := mustPool(t, arms.Spec{Family: arms.Normal, Means: []float64{1, 2}, Stddev: 1}, 0)

	_, err := New(matroid.NewUniform(3, 1), pool, Options{Delta: 0.1})
	is.True(err != nil) // arm count mismatch

	_, err = New(matroid.NewUniform(2, 1), pool, Options{Delta: 0})
	is.True(err != nil)
}

func TestBernoulliInstance(t *testing.T) {
	is := is.New(t)
	spec := arms.Spec{
		Family: arms.Bernoulli,
		Means:  []float64{0.9, 0.1, 0.1},
	}
	eng, err := New(matroid.NewUniform(3, 1), mustPool(t, spec, 8), Options{Delta: 0.1})
	is.NoErr(err)
	res, err := eng.Run(context.Background())
	is.NoErr(err)
	is.True(res.Succeeded)
	is.Equal(res.Basis, []int{0})
}
