package evo

import (
	"fmt"
	"math/rand"
)

// Selector chooses parents from ranked individuals for replication.
// ranked is sorted best-first (lowest fitness first, non-finite last).
type Selector interface {
	Name() string
	PickParent(rng *rand.Rand, ranked []ScoredIndividual, eliteCount int) (ScoredIndividual, error)
}

// EliteSelector picks uniformly from the top elite set.
type EliteSelector struct{}

func (EliteSelector) Name() string {
	return "elite"
}

func (EliteSelector) PickParent(rng *rand.Rand, ranked []ScoredIndividual, eliteCount int) (ScoredIndividual, error) {
	if rng == nil {
		return ScoredIndividual{}, fmt.Errorf("random source is required")
	}
	if eliteCount <= 0 || eliteCount > len(ranked) {
		return ScoredIndividual{}, fmt.Errorf("invalid elite count: %d", eliteCount)
	}
	return ranked[rng.Intn(eliteCount)], nil
}

// TournamentSelector samples candidates from a pool at the top of the
// ranking and keeps the best among them. Because ranked is sorted, the
// lowest sampled index wins, which also keeps non-finite scores from
// ever beating a finite one.
type TournamentSelector struct {
	PoolSize       int
	TournamentSize int
}

func (TournamentSelector) Name() string {
	return "tournament"
}

func (s TournamentSelector) PickParent(rng *rand.Rand, ranked []ScoredIndividual, eliteCount int) (ScoredIndividual, error) {
	if rng == nil {
		return ScoredIndividual{}, fmt.Errorf("random source is required")
	}
	if eliteCount <= 0 || eliteCount > len(ranked) {
		return ScoredIndividual{}, fmt.Errorf("invalid elite count: %d", eliteCount)
	}

	poolSize := s.PoolSize
	if poolSize <= 0 {
		poolSize = eliteCount * 2
	}
	if poolSize < eliteCount {
		poolSize = eliteCount
	}
	if poolSize > len(ranked) {
		poolSize = len(ranked)
	}

	tournamentSize := s.TournamentSize
	if tournamentSize <= 0 {
		tournamentSize = 3
	}
	if tournamentSize > poolSize {
		tournamentSize = poolSize
	}

	best := rng.Intn(poolSize)
	for i := 1; i < tournamentSize; i++ {
		candidate := rng.Intn(poolSize)
		if candidate < best {
			best = candidate
		}
	}
	return ranked[best], nil
}
