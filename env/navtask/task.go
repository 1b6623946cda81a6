// Package navtask implements a minimal multi-agent navigation task on top
// of kinsim: agents move in the plane and issue stop to end the episode. It
// is the concrete env.Task used by the CLI and the test suites.
package navtask

import (
	"fmt"
	"math/rand"

	"github.com/embodied-sim/embodied-sim/env"
	"github.com/embodied-sim/embodied-sim/env/kinsim"
)

// Action names understood by the task.
const (
	ActionMoveForward = "move_forward"
	ActionTurnLeft    = "turn_left"
	ActionTurnRight   = "turn_right"
	ActionStop        = "stop"
)

// Task drives kinsim agents and maintains the step-count and
// distance-travelled measures.
type Task struct {
	sim          *kinsim.Simulator
	measurements *env.Measurements
	rng          *rand.Rand
}

// New wires a task to its simulator.
func New(sim *kinsim.Simulator) *Task {
	return &Task{
		sim: sim,
		measurements: env.NewMeasurements(
			&stepCountMeasure{},
			&distanceTravelledMeasure{sim: sim},
		),
		rng: rand.New(rand.NewSource(0)),
	}
}

// Reset starts the episode and returns the initial observations: each
// agent's position as installed by reconfiguration.
func (t *Task) Reset(ep *env.Episode) (env.Observations, error) {
	return t.observations()
}

// Step applies one agent's action.
func (t *Task) Step(agentID int, action env.Action, ep *env.Episode) (env.Observations, error) {
	switch action.Name {
	case ActionMoveForward:
		// Kinematic forward motion along -Z; turning is tracked by the
		// simulator's rotation state, which this stub does not integrate.
		if err := t.sim.MoveAgent(agentID, env.Vec3{0, 0, -kinsim.ForwardStepSize}); err != nil {
			return nil, err
		}
	case ActionTurnLeft, ActionTurnRight:
		// Pose-only actions; no positional effect in the stub.
	case ActionStop:
		t.sim.EndEpisode()
	default:
		return nil, fmt.Errorf("unknown action %q", action.Name)
	}
	return t.observations()
}

// OverwriteSimConfig merges the generated or replayed start poses into the
// simulator configuration.
func (t *Task) OverwriteSimConfig(cfg env.SimConfig, ep *env.Episode, positions []env.Vec3, rotations []env.Quaternion) (env.SimConfig, error) {
	if len(positions) != len(rotations) {
		return env.SimConfig{}, fmt.Errorf("got %d positions but %d rotations", len(positions), len(rotations))
	}
	cfg.StartPositions = positions
	cfg.StartRotations = rotations
	return cfg, nil
}

// Seed resets the task's random source.
func (t *Task) Seed(seed int64) {
	t.rng = rand.New(rand.NewSource(seed))
}

// Measurements returns the task's measurements suite.
func (t *Task) Measurements() *env.Measurements { return t.measurements }

func (t *Task) observations() (env.Observations, error) {
	obs := env.Observations{}
	for id := 0; ; id++ {
		pos, err := t.sim.AgentPosition(id)
		if err != nil {
			break
		}
		obs[fmt.Sprintf("agent_%d_position", id)] = pos
	}
	return obs, nil
}

// === Measures ===

// stepCountMeasure counts successful steps in the episode.
type stepCountMeasure struct {
	count float64
}

func (m *stepCountMeasure) Name() string { return "step_count" }

func (m *stepCountMeasure) Reset(ep *env.Episode, obs env.Observations) { m.count = 0 }

func (m *stepCountMeasure) Update(ep *env.Episode, agentID int, action env.Action, obs env.Observations) {
	m.count++
}

func (m *stepCountMeasure) Metric() float64 { return m.count }

// distanceTravelledMeasure accumulates planar distance covered by all
// agents.
type distanceTravelledMeasure struct {
	sim      *kinsim.Simulator
	previous map[int]env.Vec3
	total    float64
}

func (m *distanceTravelledMeasure) Name() string { return "distance_travelled" }

func (m *distanceTravelledMeasure) Reset(ep *env.Episode, obs env.Observations) {
	m.previous = make(map[int]env.Vec3)
	m.total = 0
}

func (m *distanceTravelledMeasure) Update(ep *env.Episode, agentID int, action env.Action, obs env.Observations) {
	pos, err := m.sim.AgentPosition(agentID)
	if err != nil {
		return
	}
	if prev, ok := m.previous[agentID]; ok {
		m.total += env.PlanarDistance(prev, pos)
	}
	m.previous[agentID] = pos
}

func (m *distanceTravelledMeasure) Metric() float64 { return m.total }
