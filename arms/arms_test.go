package arms

import (
	"testing"

	"github.com/matryer/is"

	"github.com/Tiramister/CSAR/stats"
)

func testSeed(b byte) [32]byte {
	var seed [32]byte
	for i := range seed {
		seed[i] = b
	}
	return seed
}

func TestSpecValidate(t *testing.T) {
	is := is.New(t)
	is.NoErr(Spec{Family: Normal, Means: []float64{1, 2}, Stddev: 1}.Validate())
	is.True(Spec{Family: Normal, Means: []float64{1}, Stddev: 0}.Validate() != nil)
	is.True(Spec{Family: Bernoulli, Means: []float64{1.5}}.Validate() != nil)
	is.True(Spec{Family: Normal, Means: nil, Stddev: 1}.Validate() != nil)
}

func TestSampleMeansConverge(t *testing.T) {
	is := is.New(t)
	pool, err := NewPool(Spec{Family: Normal, Means: []float64{3, -1}, Stddev: 0.5}, testSeed(7))
	is.NoErr(err)

	var s0, s1 stats.Statistic
	for i := 0; i < 20000; i++ {
		s0.Push(pool.Sample(0))
		s1.Push(pool.Sample(1))
	}
	// well within 4 standard errors
	is.True(s0.Mean() > 2.95 && s0.Mean() < 3.05)
	is.True(s1.Mean() > -1.05 && s1.Mean() < -0.95)
}

func TestBernoulliRewardsAreBits(t *testing.T) {
	is := is.New(t)
	pool, err := NewPool(Spec{Family: Bernoulli, Means: []float64{0.3}}, testSeed(1))
	is.NoErr(err)
	ones := 0
	for i := 0; i < 5000; i++ {
		r := pool.Sample(0)
		is.True(r == 0 || r == 1)
		if r == 1 {
			ones++
		}
	}
	is.True(ones > 1200 && ones < 1800)
}

func TestSeededStreamsAreReproducible(t *testing.T) {
	is := is.New(t)
	spec := Spec{Family: Normal, Means: []float64{0}, Stddev: 1}
	a, err := NewPool(spec, testSeed(42))
	is.NoErr(err)
	b, err := NewPool(spec, testSeed(42))
	is.NoErr(err)
	for i := 0; i < 100; i++ {
		is.Equal(a.Sample(0), b.Sample(0))
	}
}

func TestParseFamily(t *testing.T) {
	is := is.New(t)
	f, err := ParseFamily("bernoulli")
	is.NoErr(err)
	is.Equal(f, Bernoulli)
	_, err = ParseFamily("poisson")
	is.True(err != nil)
}
