package matroid

import (
	"math"
	"sort"
)

// greedyBasis builds a maximum-weight basis of the raw matroid (committed
// state ignored) by the matroid greedy algorithm. forceIn is taken first
// and forceOut is skipped; pass -1 for neither. It returns the basis, its
// total weight, and whether a full basis was reached.
func greedyBasis(o Oracle, weights []float64, forceIn, forceOut int) ([]int, float64, bool) {
	n := o.GroundSetSize()
	order := make([]int, 0, n)
	for e := 0; e < n; e++ {
		if e != forceIn && e != forceOut {
			order = append(order, e)
		}
	}
	sort.Slice(order, func(a, b int) bool {
		i, j := order[a], order[b]
		if weights[i] != weights[j] {
			return weights[i] > weights[j]
		}
		return i < j
	})

	var basis []int
	var total float64
	if forceIn >= 0 {
		basis = append(basis, forceIn)
		total += weights[forceIn]
	}
	for _, e := range order {
		if len(basis) == o.TargetRank() {
			break
		}
		if o.Probe(basis, e) {
			basis = append(basis, e)
			total += weights[e]
		}
	}
	return basis, total, len(basis) == o.TargetRank()
}

// ExchangeGaps returns, for every arm, how much total weight the best basis
// loses when that arm is forced out of (for members of the optimal basis)
// or into (for non-members) the solution. An infeasible forced instance
// yields +Inf. The gap of an arm is the amount of reward uncertainty that
// has to be resolved before the arm's in/out status is known.
func ExchangeGaps(o Oracle, weights []float64) []float64 {
	n := o.GroundSetSize()
	opt, optWeight, ok := greedyBasis(o, weights, -1, -1)
	if !ok {
		panic("matroid: no feasible basis")
	}
	inOpt := make([]bool, n)
	for _, e := range opt {
		inOpt[e] = true
	}

	gaps := make([]float64, n)
	for e := 0; e < n; e++ {
		var subWeight float64
		var full bool
		if inOpt[e] {
			_, subWeight, full = greedyBasis(o, weights, -1, e)
		} else {
			_, subWeight, full = greedyBasis(o, weights, e, -1)
		}
		if !full {
			gaps[e] = math.Inf(1)
		} else {
			gaps[e] = optWeight - subWeight
		}
	}
	return gaps
}

// MaxGapArm returns the arm with the largest exchange gap, ties broken
// toward the smaller id.
func MaxGapArm(o Oracle, weights []float64) int {
	gaps := ExchangeGaps(o, weights)
	best := 0
	for e := 1; e < len(gaps); e++ {
		if gaps[e] > gaps[best] {
			best = e
		}
	}
	return best
}
