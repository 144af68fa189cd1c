// Package matroid implements the independence oracles the accept-reject
// engine explores over. There are exactly two variants: the uniform matroid
// (independence is cardinality) and the graphic matroid (independence is
// acyclicity). Both are dispatched through the Oracle interface once per
// query.
package matroid

import "fmt"

// Oracle answers independence queries over a ground set of n arms,
// identified by ids 0..n-1, and maintains the set of elements committed
// (accepted) so far. Probes never mutate oracle state; only Commit does.
//
// Querying any element outside [0, n) is a caller bug and panics.
type Oracle interface {
	// GroundSetSize returns the number of elements in the ground set.
	GroundSetSize() int

	// TargetRank returns the size of a basis.
	TargetRank() int

	// IsIndependent reports whether a set of distinct elements is
	// independent. The committed set is not taken into account.
	IsIndependent(set []int) bool

	// Rank returns the rank of a set of distinct elements.
	Rank(set []int) int

	// Probe reports whether set plus e would remain independent. set must
	// itself be independent and must not contain e.
	Probe(set []int, e int) bool

	// ProbeCommitted reports whether e extends the committed set to a
	// larger independent set. A false answer means no basis containing the
	// committed elements can ever include e.
	ProbeCommitted(e int) bool

	// Commit permanently adds e to the maintained independent set.
	// ProbeCommitted(e) must be true.
	Commit(e int)

	// CommittedCount returns the number of committed elements.
	CommittedCount() int

	// OptimalBasis returns a maximum-weight basis of the matroid
	// contracted by the committed set, restricted to the alive elements.
	// Weight ties are broken toward the smaller id. It returns nil when
	// the alive elements cannot complete the committed set to a full
	// basis.
	OptimalBasis(weights []float64, alive []bool) []int

	// Circuit returns the members of basis that e could exchange with:
	// the fundamental circuit of e with respect to basis (and the
	// committed set), minus e itself. basis must be a slice previously
	// returned by OptimalBasis and e must not be in it.
	Circuit(basis []int, e int) []int

	// Reset clears all committed elements.
	Reset()
}

func checkElement(e, n int) {
	if e < 0 || e >= n {
		panic(fmt.Sprintf("matroid: invalid element %d (ground set size %d)", e, n))
	}
}
