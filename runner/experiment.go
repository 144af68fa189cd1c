// Package runner drives the outer repetition loop: R independent trials of
// the accept-reject engine, aggregated into sample-complexity and
// success-rate statistics. Trials are embarrassingly parallel — each owns a
// private oracle, arm pool and random stream, and shares only the read-only
// experiment configuration.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/Tiramister/CSAR/arms"
	"github.com/Tiramister/CSAR/config"
	"github.com/Tiramister/CSAR/csar"
	"github.com/Tiramister/CSAR/graph"
	"github.com/Tiramister/CSAR/matroid"
	"github.com/Tiramister/CSAR/stats"
)

// TrialResult is the outcome of one trial.
type TrialResult struct {
	Trial  int
	Result *csar.Result
	// Correct means the trial terminated with exactly the true
	// maximum-expected-weight basis.
	Correct bool
}

// Aggregate summarizes a finished experiment.
type Aggregate struct {
	Trials     int
	Pulls      stats.Statistic
	Correct    int
	Identified int
	Incomplete int
	Budget     int
}

func (a *Aggregate) SuccessRate() float64 {
	if a.Trials == 0 {
		return 0
	}
	return float64(a.Correct) / float64(a.Trials)
}

func (a *Aggregate) String() string {
	var ss strings.Builder
	fmt.Fprintf(&ss, "trials: %d\n", a.Trials)
	fmt.Fprintf(&ss, "correct basis: %d (%.2f%%)\n", a.Correct, 100*a.SuccessRate())
	fmt.Fprintf(&ss, "samples: %.1f±%.1f (mean over completed trials)\n",
		a.Pulls.Mean(), stats.ZVal(95)*a.Pulls.StandardError())
	if a.Incomplete > 0 {
		fmt.Fprintf(&ss, "incomplete basis: %d\n", a.Incomplete)
	}
	if a.Budget > 0 {
		fmt.Fprintf(&ss, "budget exceeded: %d\n", a.Budget)
	}
	return ss.String()
}

// Experiment binds a validated configuration to the concrete arm spec,
// oracle constructor and per-trial seeds.
type Experiment struct {
	cfg   *config.Config
	spec  arms.Spec
	build func() matroid.Oracle
	truth []int
	seeds [][32]byte
}

func New(cfg *config.Config) (*Experiment, error) {
	build, n, err := oracleBuilder(cfg)
	if err != nil {
		return nil, err
	}

	family, err := arms.ParseFamily(cfg.Family)
	if err != nil {
		return nil, err
	}
	means, err := parseMeans(cfg.Means, n)
	if err != nil {
		return nil, err
	}
	spec := arms.Spec{Family: family, Means: means, Stddev: cfg.Stddev}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	seeds, err := resolveSeeds(cfg)
	if err != nil {
		return nil, err
	}

	return &Experiment{
		cfg:   cfg,
		spec:  spec,
		build: build,
		truth: trueBasis(build(), means),
		seeds: seeds,
	}, nil
}

// TrueBasis returns the maximum-expected-weight basis under the hidden
// means, or nil for infeasible instances.
func (ex *Experiment) TrueBasis() []int {
	return append([]int(nil), ex.truth...)
}

// Run executes every trial and aggregates the outcomes. Per-trial results
// are returned in trial order regardless of scheduling.
func (ex *Experiment) Run(ctx context.Context) (*Aggregate, []TrialResult, error) {
	threads := ex.cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	reps := ex.cfg.Repetitions
	log.Debug().Int("repetitions", reps).Int("threads", threads).Msg("starting experiment")

	results := make([]TrialResult, reps)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(threads)
	for trial := 0; trial < reps; trial++ {
		g.Go(func() error {
			pool, err := arms.NewPool(ex.spec, ex.seeds[trial])
			if err != nil {
				return err
			}
			eng, err := csar.New(ex.build(), pool, csar.Options{
				Delta:     ex.cfg.Delta,
				MaxRounds: ex.cfg.MaxRounds,
			})
			if err != nil {
				return err
			}
			res, err := eng.Run(ctx)
			if err != nil {
				return err
			}
			results[trial] = TrialResult{
				Trial:   trial,
				Result:  res,
				Correct: res.Succeeded && equalInts(res.Basis, ex.truth),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	agg := &Aggregate{Trials: reps}
	for _, r := range results {
		switch r.Result.Outcome {
		case csar.Identified:
			agg.Identified++
			agg.Pulls.Push(float64(r.Result.TotalPulls))
		case csar.IncompleteBasis:
			agg.Incomplete++
		case csar.BudgetExceeded:
			agg.Budget++
		}
		if r.Correct {
			agg.Correct++
		}
	}
	log.Info().
		Int("trials", agg.Trials).
		Int("correct", agg.Correct).
		Float64("meanPulls", agg.Pulls.Mean()).
		Msg("experiment finished")

	if ex.cfg.LogFile != "" {
		if err := writeTrialLog(ex.cfg.LogFile, results); err != nil {
			return nil, nil, err
		}
	}
	return agg, results, nil
}

// PullHistogram renders the distribution of per-trial sample counts.
func PullHistogram(w io.Writer, results []TrialResult) error {
	identified := lo.Filter(results, func(r TrialResult, _ int) bool {
		return r.Result.Outcome == csar.Identified
	})
	if len(identified) == 0 {
		return nil
	}
	pulls := lo.Map(identified, func(r TrialResult, _ int) float64 {
		return float64(r.Result.TotalPulls)
	})
	h := histogram.Hist(9, pulls)
	return histogram.Fprint(w, h, histogram.Linear(40))
}

func writeTrialLog(path string, results []TrialResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("runner: creating trial log: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString("trial,outcome,pulls,correct,basis\n"); err != nil {
		return err
	}
	for _, r := range results {
		ids := lo.Map(r.Result.Basis, func(id int, _ int) string {
			return strconv.Itoa(id)
		})
		line := fmt.Sprintf("%d,%s,%d,%t,%s\n",
			r.Trial, r.Result.Outcome, r.Result.TotalPulls, r.Correct, strings.Join(ids, " "))
		if _, err := f.WriteString(line); err != nil {
			return err
		}
	}
	return nil
}

func resolveSeeds(cfg *config.Config) ([][32]byte, error) {
	if cfg.SeedFile != "" {
		if _, err := os.Stat(cfg.SeedFile); err == nil {
			seeds, err := LoadSeeds(cfg.SeedFile)
			if err != nil {
				return nil, err
			}
			if len(seeds) < cfg.Repetitions {
				return nil, fmt.Errorf("runner: seed file has %d seeds for %d repetitions",
					len(seeds), cfg.Repetitions)
			}
			return seeds[:cfg.Repetitions], nil
		}
	}
	seeds, err := GenerateSeeds(cfg.Repetitions)
	if err != nil {
		return nil, err
	}
	if cfg.SeedFile != "" {
		if err := SaveSeeds(seeds, cfg.SeedFile); err != nil {
			return nil, err
		}
	}
	return seeds, nil
}

// oracleBuilder returns a constructor for fresh per-trial oracles plus the
// ground set size.
func oracleBuilder(cfg *config.Config) (func() matroid.Oracle, int, error) {
	switch cfg.Matroid {
	case "uniform":
		n, rank := cfg.Arms, cfg.Rank
		return func() matroid.Oracle { return matroid.NewUniform(n, rank) }, n, nil
	case "graphic":
		g, err := buildGraph(cfg)
		if err != nil {
			return nil, 0, err
		}
		return func() matroid.Oracle { return matroid.NewGraphic(g) }, g.NumEdges(), nil
	}
	return nil, 0, fmt.Errorf("runner: unknown matroid kind %q", cfg.Matroid)
}

func buildGraph(cfg *config.Config) (*graph.Graph, error) {
	if cfg.Edges != "" {
		return ParseEdges(cfg.Edges)
	}
	switch cfg.Shape {
	case "cycle":
		return graph.Cycle(cfg.Vertices), nil
	case "path":
		return graph.Path(cfg.Vertices), nil
	case "complete":
		return graph.Complete(cfg.Vertices), nil
	}
	return nil, fmt.Errorf("runner: unknown graph shape %q", cfg.Shape)
}

// ParseEdges parses an edge list of the form "0-1,1-2,2-0".
func ParseEdges(s string) (*graph.Graph, error) {
	g := graph.New(0)
	for _, part := range strings.Split(s, ",") {
		uv := strings.SplitN(strings.TrimSpace(part), "-", 2)
		if len(uv) != 2 {
			return nil, fmt.Errorf("runner: malformed edge %q", part)
		}
		u, err := strconv.Atoi(uv[0])
		if err != nil {
			return nil, fmt.Errorf("runner: malformed edge %q: %w", part, err)
		}
		v, err := strconv.Atoi(uv[1])
		if err != nil {
			return nil, fmt.Errorf("runner: malformed edge %q: %w", part, err)
		}
		if u < 0 || v < 0 || u == v {
			return nil, fmt.Errorf("runner: invalid edge %q", part)
		}
		g.AddEdge(u, v)
	}
	if g.NumEdges() == 0 {
		return nil, fmt.Errorf("runner: empty edge list")
	}
	return g, nil
}

// parseMeans resolves the configured mean list; "linear" yields the
// descending sequence n, n-1, ..., 1.
func parseMeans(s string, n int) ([]float64, error) {
	if s == "linear" {
		means := make([]float64, n)
		for i := range means {
			means[i] = float64(n - i)
		}
		return means, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("runner: %d means for %d arms", len(parts), n)
	}
	means := make([]float64, n)
	for i, p := range parts {
		m, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("runner: malformed mean %q: %w", p, err)
		}
		means[i] = m
	}
	return means, nil
}

func trueBasis(o matroid.Oracle, means []float64) []int {
	alive := make([]bool, len(means))
	for i := range alive {
		alive[i] = true
	}
	basis := o.OptimalBasis(means, alive)
	sort.Ints(basis)
	return basis
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
