package env

import (
	"math/rand"

	"github.com/sirupsen/logrus"
)

// StartStateGenerator solves the constrained multi-agent placement problem
// by rejection sampling: draw one candidate start pose per agent from the
// episode set and accept the draw only if every constraint holds.
//
// Constraints:
//   - same-floor: all agents' start positions share the same vertical
//     coordinate, so agents never spawn on different building levels that
//     happen to overlap in plan view;
//   - minimum separation (unless disabled): every pair of agents is at
//     planar distance >= minSeparation, so agents never spawn on top of
//     one another.
type StartStateGenerator struct {
	rng           *rand.Rand
	minSeparation float64
	maxAttempts   int // 0 = retry forever
}

// NewStartStateGenerator builds a generator drawing randomness from rng.
// maxAttempts of 0 keeps the search unbounded, faithful to scenes that are
// assumed always solvable; a positive cap turns exhaustion into
// ErrPlacementUnsatisfiable.
func NewStartStateGenerator(rng *rand.Rand, maxAttempts int) *StartStateGenerator {
	return &StartStateGenerator{
		rng:           rng,
		minSeparation: DefaultMinAgentSeparation,
		maxAttempts:   maxAttempts,
	}
}

// Reseed swaps the generator's random source. Used by Env.Seed to reset all
// random state in one place.
func (g *StartStateGenerator) Reseed(rng *rand.Rand) { g.rng = rng }

// Generate returns one accepted start pose per agent, in agent order. Each
// candidate draw samples agentCount distinct episodes without replacement
// and uses their default start poses. sameFloorOnly enables the shared
// vertical-coordinate constraint and requireMinSeparation the pairwise
// planar-distance constraint.
//
// On pathological inputs (agent count larger than the episode set, or no
// floor shared by agentCount episodes) an unbounded search would loop
// forever; when that is statically detectable, or when the attempt cap is
// exhausted, Generate fails with ErrPlacementUnsatisfiable.
func (g *StartStateGenerator) Generate(episodes []*Episode, agentCount int, sameFloorOnly, requireMinSeparation bool) ([]Vec3, []Quaternion, error) {
	if agentCount > len(episodes) {
		return nil, nil, ErrPlacementUnsatisfiable
	}

	positions := make([]Vec3, agentCount)
	rotations := make([]Quaternion, agentCount)

	for attempt := 1; ; attempt++ {
		if g.maxAttempts != 0 && attempt > g.maxAttempts {
			return nil, nil, ErrPlacementUnsatisfiable
		}
		if attempt%5000 == 0 {
			logrus.Warnf("start state search still running after %d attempts (%d agents, %d episodes)",
				attempt, agentCount, len(episodes))
		}

		// Draw agentCount distinct episodes without replacement.
		perm := g.rng.Perm(len(episodes))
		for i := 0; i < agentCount; i++ {
			ep := episodes[perm[i]]
			positions[i] = ep.StartPosition
			rotations[i] = ep.StartRotation
		}

		if sameFloorOnly && !sameFloor(positions) {
			continue
		}
		if requireMinSeparation && !pairwiseSeparated(positions, g.minSeparation) {
			continue
		}

		logrus.Debugf("accepted start state after %d attempts", attempt)
		return positions, rotations, nil
	}
}

// sameFloor reports whether all positions share the exact same vertical
// coordinate.
func sameFloor(positions []Vec3) bool {
	for i := 1; i < len(positions); i++ {
		if positions[i].Y() != positions[0].Y() {
			return false
		}
	}
	return true
}

// pairwiseSeparated reports whether every pair of positions is at planar
// distance >= minDist.
func pairwiseSeparated(positions []Vec3, minDist float64) bool {
	for i := 0; i < len(positions); i++ {
		for j := i + 1; j < len(positions); j++ {
			if PlanarDistance(positions[i], positions[j]) < minDist {
				return false
			}
		}
	}
	return true
}
