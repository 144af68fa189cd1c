package matroid

import "sort"

// Uniform is the uniform matroid U(n, r): a set is independent iff it has
// at most r elements. All queries are O(1) or linear in the argument.
type Uniform struct {
	n          int
	rank       int
	committed  []bool
	ncommitted int
}

func NewUniform(n, rank int) *Uniform {
	return &Uniform{
		n:         n,
		rank:      rank,
		committed: make([]bool, n),
	}
}

func (u *Uniform) GroundSetSize() int { return u.n }

func (u *Uniform) TargetRank() int { return u.rank }

func (u *Uniform) IsIndependent(set []int) bool {
	for _, e := range set {
		checkElement(e, u.n)
	}
	return len(set) <= u.rank
}

func (u *Uniform) Rank(set []int) int {
	for _, e := range set {
		checkElement(e, u.n)
	}
	return min(len(set), u.rank)
}

func (u *Uniform) Probe(set []int, e int) bool {
	checkElement(e, u.n)
	return len(set)+1 <= u.rank
}

func (u *Uniform) ProbeCommitted(e int) bool {
	checkElement(e, u.n)
	return !u.committed[e] && u.ncommitted < u.rank
}

func (u *Uniform) Commit(e int) {
	checkElement(e, u.n)
	if u.committed[e] || u.ncommitted >= u.rank {
		panic("matroid: commit would violate independence")
	}
	u.committed[e] = true
	u.ncommitted++
}

func (u *Uniform) CommittedCount() int { return u.ncommitted }

func (u *Uniform) OptimalBasis(weights []float64, alive []bool) []int {
	residual := u.rank - u.ncommitted
	candidates := make([]int, 0, len(weights))
	for e := range weights {
		if alive[e] && !u.committed[e] {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) < residual {
		return nil
	}
	sort.Slice(candidates, func(a, b int) bool {
		i, j := candidates[a], candidates[b]
		if weights[i] != weights[j] {
			return weights[i] > weights[j]
		}
		return i < j
	})
	return append([]int(nil), candidates[:residual]...)
}

// Circuit of an outsider in a uniform matroid is the whole basis: any
// member can be swapped out for any non-member.
func (u *Uniform) Circuit(basis []int, e int) []int {
	checkElement(e, u.n)
	return append([]int(nil), basis...)
}

func (u *Uniform) Reset() {
	for e := range u.committed {
		u.committed[e] = false
	}
	u.ncommitted = 0
}
