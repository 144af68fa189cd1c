package csar

import (
	"math"

	"github.com/Tiramister/CSAR/arms"
	"github.com/Tiramister/CSAR/stats"
)

// ConfidenceTracker maintains, per arm, a pull count and an empirical mean,
// and derives the confidence radius at the current round:
//
//	β_i(t) = sqrt(c · (log(4n/δ) + 2·log t) / N_i)
//
// The log term is calibrated so a union bound over all n arms and all
// rounds keeps the total probability of any bound failing at or below δ
// for unit-scale sub-Gaussian rewards. Before an arm's first pull its
// radius is +Inf, so bounds are ±Inf and no division by zero can occur.
type ConfidenceTracker struct {
	pool    *arms.Pool
	stats   []stats.Statistic
	scale   float64
	logBase float64
	round   int
}

// Default scale constant c of the radius.
const defaultRadiusScale = 2.0

func NewTracker(pool *arms.Pool, delta float64) *ConfidenceTracker {
	n := pool.Len()
	return &ConfidenceTracker{
		pool:    pool,
		stats:   make([]stats.Statistic, n),
		scale:   defaultRadiusScale,
		logBase: math.Log(4 * float64(n) / delta),
	}
}

// SetRadiusScale overrides the scale constant c. Smaller values pull fewer
// samples at the cost of the δ guarantee.
func (c *ConfidenceTracker) SetRadiusScale(scale float64) {
	c.scale = scale
}

// Pull draws one reward from arm i, advancing the round counter by exactly
// one, and returns the reward.
func (c *ConfidenceTracker) Pull(i int) float64 {
	reward := c.pool.Sample(i)
	c.round++
	c.stats[i].Push(reward)
	return reward
}

// Round returns the number of pulls so far across all arms.
func (c *ConfidenceTracker) Round() int {
	return c.round
}

func (c *ConfidenceTracker) Pulls(i int) int {
	return c.stats[i].Observations()
}

func (c *ConfidenceTracker) Mean(i int) float64 {
	return c.stats[i].Mean()
}

// Means returns the empirical means of all arms; unpulled arms read 0.
func (c *ConfidenceTracker) Means() []float64 {
	means := make([]float64, len(c.stats))
	for i := range c.stats {
		means[i] = c.stats[i].Mean()
	}
	return means
}

// Radius returns the confidence radius of arm i at the current round.
func (c *ConfidenceTracker) Radius(i int) float64 {
	n := c.stats[i].Observations()
	if n == 0 {
		return math.Inf(1)
	}
	t := float64(max(c.round, 1))
	return math.Sqrt(c.scale * (c.logBase + 2*math.Log(t)) / float64(n))
}

func (c *ConfidenceTracker) UpperBound(i int) float64 {
	return c.stats[i].Mean() + c.Radius(i)
}

func (c *ConfidenceTracker) LowerBound(i int) float64 {
	return c.stats[i].Mean() - c.Radius(i)
}
