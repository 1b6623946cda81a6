package env

import "fmt"

// Reconfigurer is the single synchronization point between episode selection
// and simulator state: given the episode chosen by a reset, it determines
// per-agent start poses, merges them with the episode's scene identity, and
// pushes the result into the simulator. It must complete before any
// subsequent step.
type Reconfigurer struct {
	sim       Simulator
	task      Task
	generator *StartStateGenerator

	numAgents  int
	fullRandom bool // skip the minimum-separation constraint

	// Fixed-pose mode. Tables are loaded lazily, once per (scene,
	// agent-count) pair, and cached by scene key.
	useFixedPoses bool
	poseDataPath  string
	poseTables    map[string]*FixedPoseTable
}

// NewReconfigurer wires the coordinator to its collaborators. generator is
// used unless cfg enables fixed-pose mode.
func NewReconfigurer(cfg *Config, sim Simulator, task Task, generator *StartStateGenerator) *Reconfigurer {
	return &Reconfigurer{
		sim:           sim,
		task:          task,
		generator:     generator,
		numAgents:     cfg.NumAgents,
		fullRandom:    cfg.UseFullRandomState,
		useFixedPoses: cfg.UseFixedStartPosition,
		poseDataPath:  cfg.FixedPoseDataPath,
		poseTables:    make(map[string]*FixedPoseTable),
	}
}

// Reconfigure determines start poses for ep, builds the simulator
// configuration, and triggers simulator reconfiguration. episodes is the
// full episode set used as the candidate pool in random mode.
func (r *Reconfigurer) Reconfigure(ep *Episode, episodes []*Episode) error {
	positions, rotations, err := r.startPoses(ep, episodes)
	if err != nil {
		return err
	}

	cfg := SimConfig{
		SceneID:                  ep.SceneID,
		SceneDatasetConfig:       ep.SceneDatasetConfig,
		AdditionalObjConfigPaths: ep.AdditionalObjConfigPaths,
		NumAgents:                r.numAgents,
	}
	cfg, err = r.task.OverwriteSimConfig(cfg, ep, positions, rotations)
	if err != nil {
		return fmt.Errorf("overwrite sim config: %w", err)
	}

	return r.sim.Reconfigure(cfg)
}

func (r *Reconfigurer) startPoses(ep *Episode, episodes []*Episode) ([]Vec3, []Quaternion, error) {
	if !r.useFixedPoses {
		return r.generator.Generate(episodes, r.numAgents, true, !r.fullRandom)
	}

	key := SceneKey(ep.SceneID)
	table, ok := r.poseTables[key]
	if !ok {
		var err error
		table, err = LoadFixedPoseTable(r.poseDataPath, ep.SceneID, r.numAgents)
		if err != nil {
			return nil, nil, err
		}
		r.poseTables[key] = table
	}
	return table.Next()
}

// PoseTable exposes the loaded table for a scene, or nil if none has been
// loaded yet. Read-only accessor for callers inspecting replay progress.
func (r *Reconfigurer) PoseTable(scenePath string) *FixedPoseTable {
	return r.poseTables[SceneKey(scenePath)]
}
