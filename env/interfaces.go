package env

// Observations maps sensor names to their values for the current step.
// The concrete value types are owned by the simulator and task layers.
type Observations map[string]any

// Action names a task action for one agent, with optional arguments for
// parametrized actions.
type Action struct {
	Name string
	Args map[string]any
}

// SimConfig is the simulator configuration produced by reconfiguration: the
// episode's scene identity merged with the per-agent start poses.
type SimConfig struct {
	SceneID                  string
	SceneDatasetConfig       string
	AdditionalObjConfigPaths []string
	NumAgents                int
	StartPositions           []Vec3
	StartRotations           []Quaternion
}

// Dataset is the episode provider. Episodes must be non-empty while the
// dataset is active.
type Dataset interface {
	// Episodes returns the full episode set. The returned slice is shared;
	// callers must not mutate it.
	Episodes() []*Episode

	// MakeCursor builds a fresh cursor over the episode set, deterministic
	// under the given seed.
	MakeCursor(seed int64) EpisodeCursor
}

// EpisodeCursor is a stateful, possibly-infinite producer of episodes. The
// Env owns exactly one active cursor at a time; replacing it is an explicit
// operation, never implicit.
type EpisodeCursor interface {
	// Next returns the next episode under the cursor's ordering policy.
	Next() (*Episode, error)

	// NotifyStepTaken informs the cursor that one environment step
	// completed. Curriculum and scene-grouped cursors use this to decide
	// when to switch scenes; others may ignore it.
	NotifyStepTaken()
}

// Simulator is the narrow surface of the underlying simulator consumed by
// the lifecycle core. Scene loading, sensors, rendering, and physics all
// live behind it.
type Simulator interface {
	// Reconfigure pushes a new episode's scene and agent start poses into
	// the simulator. Must complete before any subsequent step.
	Reconfigure(cfg SimConfig) error

	// Seed reseeds the simulator's own random sources.
	Seed(seed int64)

	// IsEpisodeActive reports whether the episode is still running; it is
	// consulted after every step.
	IsEpisodeActive() bool

	// Render returns an image of the current state in the given mode.
	Render(mode string) ([]byte, error)

	Close() error
}

// Task is the task layer: it performs the actual reset/step work and owns
// the measurements suite. Reward, done, and info computation for RL live
// above this interface, not behind it.
type Task interface {
	// Reset starts the given episode and returns the initial observations.
	Reset(ep *Episode) (Observations, error)

	// Step applies one agent's action within the current episode.
	Step(agentID int, action Action, ep *Episode) (Observations, error)

	// OverwriteSimConfig merges episode- and placement-derived state into
	// the simulator configuration before reconfiguration.
	OverwriteSimConfig(cfg SimConfig, ep *Episode, positions []Vec3, rotations []Quaternion) (SimConfig, error)

	// Seed reseeds the task's own random sources.
	Seed(seed int64)

	// Measurements returns the task's measurements suite.
	Measurements() *Measurements
}
