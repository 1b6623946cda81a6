package env

import (
	"hash/fnv"
	"math/rand"
)

// === SeedKey ===

// SeedKey uniquely identifies a reproducible run. Two runs with the same
// SeedKey, identical dataset content, and identical external simulator
// behavior MUST produce identical episode sequences and start states.
type SeedKey int64

// NewSeedKey creates a SeedKey from a seed value.
func NewSeedKey(seed int64) SeedKey {
	return SeedKey(seed)
}

// === Subsystem Constants ===

const (
	// SubsystemEpisodes is the RNG subsystem for episode selection
	// (the uniform draw used in same-scene mode). Uses the master seed
	// directly so the selected sequence matches a plain seeded generator.
	SubsystemEpisodes = "episodes"

	// SubsystemPlacement is the RNG subsystem for start-state rejection
	// sampling.
	SubsystemPlacement = "placement"

	// SubsystemCursor is the RNG subsystem for cursor shuffling.
	SubsystemCursor = "cursor"
)

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per
// subsystem, replacing ambient process-wide random state: reseeding the
// partition resets every random source the lifecycle core uses without
// coupling independent subsystems through a shared stream.
//
// Derivation formula:
//   - For SubsystemEpisodes: uses the master seed directly
//   - For all other subsystems: masterSeed XOR fnv1a64(subsystemName)
//
// Thread-safety: NOT thread-safe. Must be called from a single goroutine.
type PartitionedRNG struct {
	key        SeedKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SeedKey.
func NewPartitionedRNG(key SeedKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named
// subsystem. The same subsystem name always returns the same *rand.Rand
// instance (cached). Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}

	var derivedSeed int64
	if name == SubsystemEpisodes {
		derivedSeed = int64(p.key)
	} else {
		derivedSeed = int64(p.key) ^ fnv1a64(name)
	}

	rng := rand.New(rand.NewSource(derivedSeed))
	p.subsystems[name] = rng
	return rng
}

// Key returns the SeedKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SeedKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
