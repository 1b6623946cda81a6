package env

import "fmt"

// DefaultMinAgentSeparation is the minimum pairwise planar distance between
// generated agent start positions, in world distance units.
const DefaultMinAgentSeparation = 2.0

// Config is the environment configuration. It must be frozen before an Env
// is constructed; the Env treats it as immutable from then on.
type Config struct {
	Seed int64 // master seed for all random sources in the lifecycle core

	NumAgents int // number of agents placed per episode (must be >= 1)

	// MaxEpisodeSteps is the per-agent step budget. The effective episode
	// limit is MaxEpisodeSteps * NumAgents, since each agent's action counts
	// as one step. 0 = unbounded.
	MaxEpisodeSteps uint64

	// MaxEpisodeSeconds is the wall-clock budget per episode. 0 = unbounded.
	MaxEpisodeSeconds float64

	// UseFixedStartPosition replays precomputed start poses from the table
	// under FixedPoseDataPath instead of generating them.
	UseFixedStartPosition bool
	FixedPoseDataPath     string // root directory of the precomputed pose tables

	// UseSameScene draws a uniformly random episode from the full episode
	// set on every reset instead of advancing the cursor.
	UseSameScene bool

	// UseFullRandomState disables the minimum-separation check during
	// start-state generation; only the same-floor constraint remains.
	UseFullRandomState bool

	// PlacementMaxAttempts caps the rejection-sampling search. 0 keeps the
	// search unbounded; a positive cap turns exhaustion into
	// ErrPlacementUnsatisfiable instead of a hang.
	PlacementMaxAttempts int

	frozen bool
}

// Freeze marks the config immutable. NewEnv refuses unfrozen configs.
func (c *Config) Freeze() { c.frozen = true }

// IsFrozen reports whether Freeze has been called.
func (c *Config) IsFrozen() bool { return c.frozen }

// Validate checks the configuration for structural errors.
func (c *Config) Validate() error {
	if c.NumAgents < 1 {
		return fmt.Errorf("num agents must be >= 1, got %d", c.NumAgents)
	}
	if c.UseFixedStartPosition && c.FixedPoseDataPath == "" {
		return fmt.Errorf("fixed start position mode requires a pose data path")
	}
	if c.PlacementMaxAttempts < 0 {
		return fmt.Errorf("placement max attempts must be >= 0, got %d", c.PlacementMaxAttempts)
	}
	return nil
}
