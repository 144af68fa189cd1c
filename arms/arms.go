// Package arms owns the hidden reward distributions of a trial. The true
// means never leave this package except through TrueMean, which only the
// experiment driver consults to grade a finished trial.
package arms

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Family selects the reward distribution shared by every arm of a pool.
type Family int

const (
	Normal Family = iota
	Bernoulli
)

func (f Family) String() string {
	switch f {
	case Normal:
		return "normal"
	case Bernoulli:
		return "bernoulli"
	}
	return "unknown"
}

// ParseFamily maps a config string to a Family.
func ParseFamily(s string) (Family, error) {
	switch s {
	case "normal", "gaussian":
		return Normal, nil
	case "bernoulli":
		return Bernoulli, nil
	}
	return 0, fmt.Errorf("arms: unknown distribution family %q", s)
}

// Spec is the read-only configuration of a pool: one hidden mean per arm
// plus the family parameters. The same Spec is shared by every trial of an
// experiment; each trial builds its own Pool from it.
type Spec struct {
	Family Family
	Means  []float64
	Stddev float64 // Normal only
}

func (s Spec) Validate() error {
	if len(s.Means) == 0 {
		return fmt.Errorf("arms: no arms configured")
	}
	switch s.Family {
	case Normal:
		if s.Stddev <= 0 {
			return fmt.Errorf("arms: stddev must be positive, got %f", s.Stddev)
		}
	case Bernoulli:
		for i, p := range s.Means {
			if p < 0 || p > 1 {
				return fmt.Errorf("arms: arm %d: bernoulli mean %f outside [0,1]", i, p)
			}
		}
	default:
		return fmt.Errorf("arms: unknown family %d", s.Family)
	}
	return nil
}

type sampler interface {
	Rand() float64
}

// Pool draws rewards for one trial. It owns a private random stream, so
// pools of concurrent trials never share mutable state.
type Pool struct {
	spec     Spec
	samplers []sampler
}

// NewPool builds a pool from spec with a private PCG stream derived from
// seed.
func NewPool(spec Spec, seed [32]byte) (*Pool, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	src := rand.NewPCG(
		binary.LittleEndian.Uint64(seed[0:8]),
		binary.LittleEndian.Uint64(seed[8:16]),
	)
	samplers := make([]sampler, len(spec.Means))
	for i, mean := range spec.Means {
		switch spec.Family {
		case Normal:
			samplers[i] = distuv.Normal{Mu: mean, Sigma: spec.Stddev, Src: src}
		case Bernoulli:
			samplers[i] = distuv.Bernoulli{P: mean, Src: src}
		}
	}
	return &Pool{spec: spec, samplers: samplers}, nil
}

// Len returns the number of arms.
func (p *Pool) Len() int {
	return len(p.samplers)
}

// Sample draws one reward from arm i.
func (p *Pool) Sample(i int) float64 {
	return p.samplers[i].Rand()
}

// TrueMean exposes the hidden mean of arm i. Engine code must never call
// this; it exists so the driver can decide whether a finished trial
// identified the right basis.
func (p *Pool) TrueMean(i int) float64 {
	return p.spec.Means[i]
}

// TrueMeans returns a copy of all hidden means.
func (p *Pool) TrueMeans() []float64 {
	return append([]float64(nil), p.spec.Means...)
}
