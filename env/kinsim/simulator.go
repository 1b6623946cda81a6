// Package kinsim implements a minimal kinematic simulator: it tracks agent
// poses in a reconfigured scene without physics, sensors, or rendering
// beyond a placeholder frame. It is the concrete env.Simulator used by the
// CLI and the test suites.
package kinsim

import (
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/embodied-sim/embodied-sim/env"
)

// ForwardStepSize is the planar distance covered by one move_forward action.
const ForwardStepSize = 0.25

// Simulator holds the scene identity and per-agent poses pushed in by the
// last reconfiguration.
type Simulator struct {
	sceneID   string
	positions []env.Vec3
	rotations []env.Quaternion

	active       bool
	reconfigures int
	rng          *rand.Rand
}

// New creates an unconfigured simulator. Reconfigure must run before any
// other call touches agent state.
func New() *Simulator {
	return &Simulator{rng: rand.New(rand.NewSource(0))}
}

// Reconfigure installs the scene and agent start poses for a new episode
// and marks the episode active.
func (s *Simulator) Reconfigure(cfg env.SimConfig) error {
	if len(cfg.StartPositions) != cfg.NumAgents || len(cfg.StartRotations) != cfg.NumAgents {
		return fmt.Errorf("reconfigure: %d positions and %d rotations for %d agents",
			len(cfg.StartPositions), len(cfg.StartRotations), cfg.NumAgents)
	}
	s.sceneID = cfg.SceneID
	s.positions = append([]env.Vec3(nil), cfg.StartPositions...)
	s.rotations = append([]env.Quaternion(nil), cfg.StartRotations...)
	s.active = true
	s.reconfigures++
	logrus.Debugf("kinsim reconfigured: scene %s, %d agents", s.sceneID, cfg.NumAgents)
	return nil
}

// Seed resets the simulator's random source.
func (s *Simulator) Seed(seed int64) {
	s.rng = rand.New(rand.NewSource(seed))
}

// IsEpisodeActive reports whether the episode is still running.
func (s *Simulator) IsEpisodeActive() bool { return s.active }

// EndEpisode marks the episode finished, typically when an agent issues a
// stop action.
func (s *Simulator) EndEpisode() { s.active = false }

// Render returns a placeholder frame. kinsim has no renderer.
func (s *Simulator) Render(mode string) ([]byte, error) {
	if mode != "rgb" {
		return nil, fmt.Errorf("unsupported render mode %q", mode)
	}
	return []byte{}, nil
}

// Close releases simulator resources. kinsim holds none.
func (s *Simulator) Close() error { return nil }

// SceneID returns the scene installed by the last reconfiguration.
func (s *Simulator) SceneID() string { return s.sceneID }

// Reconfigures returns how many reconfigurations have run.
func (s *Simulator) Reconfigures() int { return s.reconfigures }

// AgentPosition returns agent id's current position.
func (s *Simulator) AgentPosition(id int) (env.Vec3, error) {
	if id < 0 || id >= len(s.positions) {
		return env.Vec3{}, fmt.Errorf("no agent %d (have %d)", id, len(s.positions))
	}
	return s.positions[id], nil
}

// MoveAgent translates agent id by delta in world coordinates.
func (s *Simulator) MoveAgent(id int, delta env.Vec3) error {
	if id < 0 || id >= len(s.positions) {
		return fmt.Errorf("no agent %d (have %d)", id, len(s.positions))
	}
	for k := 0; k < 3; k++ {
		s.positions[id][k] += delta[k]
	}
	return nil
}
