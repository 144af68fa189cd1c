// Package csar implements the adaptive accept-reject engine: a
// fixed-confidence pure-exploration search for the maximum-expected-weight
// basis of a matroid whose arms have unknown reward distributions. One arm
// is pulled per round; arms migrate one-way from Undetermined to Accepted
// or Rejected, and the run ends when the accepted set is a full basis.
package csar

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/Tiramister/CSAR/arms"
	"github.com/Tiramister/CSAR/matroid"
)

// Status of an arm. Transitions only ever leave Undetermined.
type Status uint8

const (
	Undetermined Status = iota
	Accepted
	Rejected
)

func (s Status) String() string {
	switch s {
	case Undetermined:
		return "undetermined"
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	}
	return "unknown"
}

// Outcome of one run.
type Outcome int

const (
	// Identified: the accepted set reached the target rank.
	Identified Outcome = iota
	// IncompleteBasis: the matroid cannot yield a basis of the target
	// rank (e.g. a disconnected graph). Terminal, never retried.
	IncompleteBasis
	// BudgetExceeded: the driver-supplied round cap was hit before
	// classification finished. Inconclusive, not an error.
	BudgetExceeded
)

func (o Outcome) String() string {
	switch o {
	case Identified:
		return "identified"
	case IncompleteBasis:
		return "incomplete-basis"
	case BudgetExceeded:
		return "budget-exceeded"
	}
	return "unknown"
}

// Result of one run.
type Result struct {
	// Basis holds the accepted arm ids, ascending. On success its size
	// equals the matroid's rank.
	Basis      []int
	TotalPulls int
	Outcome    Outcome
	Succeeded  bool
}

// Options configures a single run.
type Options struct {
	// Delta is the allowed total failure probability of the identified
	// basis.
	Delta float64
	// MaxRounds caps the number of pulls; 0 means no cap. The cap belongs
	// to the driver: it is a safety valve against instances with vanishing
	// gaps, and hitting it yields BudgetExceeded rather than an error.
	MaxRounds int
	// LogStream, when set, receives one YAML document per round for
	// debugging.
	LogStream io.Writer
}

// Engine classifies every arm of one trial. It owns its state bundle
// exclusively: the oracle, the pool's random stream and all per-arm
// statistics belong to this engine and must not be shared across trials.
type Engine struct {
	oracle  matroid.Oracle
	pool    *arms.Pool
	tracker *ConfidenceTracker
	opts    Options

	status   []Status
	accepted []int
	undet    int
}

func New(oracle matroid.Oracle, pool *arms.Pool, opts Options) (*Engine, error) {
	if pool.Len() != oracle.GroundSetSize() {
		return nil, fmt.Errorf("csar: %d arms for a ground set of %d elements",
			pool.Len(), oracle.GroundSetSize())
	}
	if opts.Delta <= 0 || opts.Delta >= 1 {
		return nil, fmt.Errorf("csar: delta must be in (0,1), got %f", opts.Delta)
	}
	return &Engine{
		oracle:  oracle,
		pool:    pool,
		tracker: NewTracker(pool, opts.Delta),
		opts:    opts,
		status:  make([]Status, pool.Len()),
		undet:   pool.Len(),
	}, nil
}

// Tracker exposes the confidence bookkeeping, mainly for tests and for
// callers that want to tighten the radius constant.
func (e *Engine) Tracker() *ConfidenceTracker {
	return e.tracker
}

// Status returns the classification of arm i.
func (e *Engine) Status(i int) Status {
	return e.status[i]
}

type roundLog struct {
	Round     int     `yaml:"round"`
	Pulled    int     `yaml:"pulled"`
	Reward    float64 `yaml:"reward"`
	Pessimist int     `yaml:"pessimist"`
	Optimist  int     `yaml:"optimist"`
	Accepted  []int   `yaml:"accepted,omitempty,flow"`
	Rejected  []int   `yaml:"rejected,omitempty,flow"`
}

// Run executes rounds until every arm is classified, the basis is
// complete, or the round budget runs out. The only error paths are a
// canceled context; statistical failure modes are reported in the Result.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	logger := zerolog.Ctx(ctx)
	n := e.oracle.GroundSetSize()
	rank := e.oracle.TargetRank()

	// An instance that cannot produce a basis of the target rank at all
	// must fail up front instead of looping forever.
	ground := make([]int, n)
	for i := range ground {
		ground[i] = i
	}
	if e.oracle.Rank(ground) < rank {
		logger.Debug().Int("rank", rank).Msg("ground set below target rank")
		return e.result(IncompleteBasis), nil
	}

	for {
		if len(e.accepted) == rank {
			return e.result(Identified), nil
		}
		if e.undet == 0 {
			return e.result(IncompleteBasis), nil
		}
		if e.opts.MaxRounds > 0 && e.tracker.Round() >= e.opts.MaxRounds {
			return e.result(BudgetExceeded), nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		// Arms that became loops of the contracted matroid can never
		// extend the accepted set; drop them without sampling.
		dropped := false
		for i := 0; i < n; i++ {
			if e.status[i] == Undetermined && !e.oracle.ProbeCommitted(i) {
				e.reject(i)
				dropped = true
			}
		}
		if dropped {
			continue
		}

		alive := make([]bool, n)
		for i := range alive {
			alive[i] = e.status[i] == Undetermined
		}
		basis := e.oracle.OptimalBasis(e.tracker.Means(), alive)
		if basis == nil {
			// The surviving arms cannot complete the committed set.
			return e.result(IncompleteBasis), nil
		}
		inBasis := make([]bool, n)
		for _, a := range basis {
			inBasis[a] = true
		}

		// Boundary pair: the weakest member of the empirical basis and the
		// strongest arm outside it.
		pessimist := -1
		for _, a := range basis {
			if pessimist < 0 || less(e.tracker.LowerBound(a), a, e.tracker.LowerBound(pessimist), pessimist) {
				pessimist = a
			}
		}
		optimist := -1
		for o := 0; o < n; o++ {
			if !alive[o] || inBasis[o] {
				continue
			}
			// Ascending scan, so the smaller id wins ties.
			if optimist < 0 || e.tracker.UpperBound(o) > e.tracker.UpperBound(optimist) {
				optimist = o
			}
		}

		if optimist < 0 {
			// No arm is left to challenge the basis; every member is
			// needed.
			for _, a := range basis {
				e.accept(a)
			}
			continue
		}

		pulled := pessimist
		if e.tracker.Radius(optimist) > e.tracker.Radius(pessimist) ||
			(e.tracker.Radius(optimist) == e.tracker.Radius(pessimist) && optimist < pessimist) {
			pulled = optimist
		}
		reward := e.tracker.Pull(pulled)

		accepts, rejects := e.classify(basis, alive, inBasis)

		if e.opts.LogStream != nil {
			out, err := yaml.Marshal([]roundLog{{
				Round:     e.tracker.Round(),
				Pulled:    pulled,
				Reward:    reward,
				Pessimist: pessimist,
				Optimist:  optimist,
				Accepted:  accepts,
				Rejected:  rejects,
			}})
			if err != nil {
				return nil, fmt.Errorf("csar: marshalling round log: %w", err)
			}
			if _, err := e.opts.LogStream.Write(out); err != nil {
				return nil, fmt.Errorf("csar: writing round log: %w", err)
			}
		}
	}
}

// classify applies the exchange-dominance rules against the current
// empirical basis: a member is accepted once its lower bound clears the
// upper bound of every outsider that could displace it, and an outsider is
// rejected once its upper bound falls below the lower bound of every
// member it could displace. All decisions are gathered against the same
// basis before any commit mutates the oracle.
func (e *Engine) classify(basis []int, alive, inBasis []bool) (accepts, rejects []int) {
	n := len(alive)

	// For each basis member, the strongest upper bound among the outsiders
	// whose fundamental circuit contains it.
	blocking := make([]float64, n)
	for i := range blocking {
		blocking[i] = math.Inf(-1)
	}

	for o := 0; o < n; o++ {
		if !alive[o] || inBasis[o] {
			continue
		}
		circuit := e.oracle.Circuit(basis, o)
		if len(circuit) == 0 {
			// Loop in the contracted matroid; handled next round.
			continue
		}
		ucb := e.tracker.UpperBound(o)
		weakest := math.Inf(1)
		for _, a := range circuit {
			if ucb > blocking[a] {
				blocking[a] = ucb
			}
			if lcb := e.tracker.LowerBound(a); lcb < weakest {
				weakest = lcb
			}
		}
		if ucb < weakest {
			rejects = append(rejects, o)
		}
	}

	for _, a := range basis {
		if e.tracker.LowerBound(a) > blocking[a] {
			accepts = append(accepts, a)
		}
	}

	for _, o := range rejects {
		e.reject(o)
	}
	for _, a := range accepts {
		e.accept(a)
	}
	return accepts, rejects
}

func (e *Engine) accept(i int) {
	e.status[i] = Accepted
	e.undet--
	e.oracle.Commit(i)
	e.accepted = append(e.accepted, i)
}

func (e *Engine) reject(i int) {
	e.status[i] = Rejected
	e.undet--
}

func (e *Engine) result(outcome Outcome) *Result {
	basis := append([]int(nil), e.accepted...)
	sort.Ints(basis)
	return &Result{
		Basis:      basis,
		TotalPulls: e.tracker.Round(),
		Outcome:    outcome,
		Succeeded:  outcome == Identified,
	}
}

// less orders (bound, id) pairs: smaller bound first, ties toward the
// smaller id.
func less(b1 float64, id1 int, b2 float64, id2 int) bool {
	if b1 != b2 {
		return b1 < b2
	}
	return id1 < id2
}
