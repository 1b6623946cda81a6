package env_test

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embodied-sim/embodied-sim/env"
)

// === Fakes ===

// fakeCursor draws episodes uniformly at random under its own seed, so two
// cursors built with the same seed produce identical sequences.
type fakeCursor struct {
	eps       []*env.Episode
	rng       *rand.Rand
	nextCalls int
	stepCalls int
}

func (c *fakeCursor) Next() (*env.Episode, error) {
	c.nextCalls++
	return c.eps[c.rng.Intn(len(c.eps))], nil
}

func (c *fakeCursor) NotifyStepTaken() { c.stepCalls++ }

type fakeDataset struct {
	eps        []*env.Episode
	lastCursor *fakeCursor
}

func (d *fakeDataset) Episodes() []*env.Episode { return d.eps }

func (d *fakeDataset) MakeCursor(seed int64) env.EpisodeCursor {
	d.lastCursor = &fakeCursor{eps: d.eps, rng: rand.New(rand.NewSource(seed))}
	return d.lastCursor
}

type fakeSim struct {
	active       bool
	reconfigs    []env.SimConfig
	seededWith   int64
	closed       bool
	renderCalled bool
}

func newFakeSim() *fakeSim { return &fakeSim{active: true} }

func (s *fakeSim) Reconfigure(cfg env.SimConfig) error {
	s.reconfigs = append(s.reconfigs, cfg)
	return nil
}

func (s *fakeSim) Seed(seed int64) { s.seededWith = seed }

func (s *fakeSim) IsEpisodeActive() bool { return s.active }

func (s *fakeSim) Render(mode string) ([]byte, error) {
	s.renderCalled = true
	return []byte{}, nil
}

func (s *fakeSim) Close() error {
	s.closed = true
	return nil
}

type fakeTask struct {
	measurements *env.Measurements
	resetEps     []*env.Episode
	stepCount    int
	seededWith   int64
}

func newFakeTask() *fakeTask {
	return &fakeTask{measurements: env.NewMeasurements()}
}

func (t *fakeTask) Reset(ep *env.Episode) (env.Observations, error) {
	t.resetEps = append(t.resetEps, ep)
	return env.Observations{}, nil
}

func (t *fakeTask) Step(agentID int, action env.Action, ep *env.Episode) (env.Observations, error) {
	t.stepCount++
	return env.Observations{}, nil
}

func (t *fakeTask) OverwriteSimConfig(cfg env.SimConfig, ep *env.Episode, positions []env.Vec3, rotations []env.Quaternion) (env.SimConfig, error) {
	cfg.StartPositions = positions
	cfg.StartRotations = rotations
	return cfg, nil
}

func (t *fakeTask) Seed(seed int64) { t.seededWith = seed }

func (t *fakeTask) Measurements() *env.Measurements { return t.measurements }

// === Helpers ===

func testEpisodes(n int) []*env.Episode {
	eps := make([]*env.Episode, n)
	for i := range eps {
		eps[i] = &env.Episode{
			ID:            fmt.Sprintf("ep%d", i),
			SceneID:       "scenes/apt_0.glb",
			StartPosition: env.Vec3{float64(i) * 5.0, 0.1, float64(i%3) * 5.0},
			StartRotation: env.Quaternion{0, 0, 0, 1},
		}
	}
	return eps
}

func testConfig(mutate func(*env.Config)) env.Config {
	cfg := env.Config{
		Seed:            42,
		NumAgents:       1,
		MaxEpisodeSteps: 100,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	cfg.Freeze()
	return cfg
}

func newTestEnv(t *testing.T, mutate func(*env.Config)) (*env.Env, *fakeDataset, *fakeSim, *fakeTask) {
	t.Helper()
	ds := &fakeDataset{eps: testEpisodes(6)}
	sim := newFakeSim()
	task := newFakeTask()
	e, err := env.NewEnv(testConfig(mutate), ds, sim, task)
	require.NoError(t, err)
	return e, ds, sim, task
}

// === Construction ===

func TestNewEnv_RequiresFrozenConfig(t *testing.T) {
	cfg := env.Config{NumAgents: 1}
	_, err := env.NewEnv(cfg, &fakeDataset{eps: testEpisodes(1)}, newFakeSim(), newFakeTask())
	assert.Error(t, err)
}

func TestNewEnv_EmptyEpisodeSet(t *testing.T) {
	cfg := testConfig(nil)
	_, err := env.NewEnv(cfg, &fakeDataset{}, newFakeSim(), newFakeTask())
	assert.ErrorIs(t, err, env.ErrEmptyEpisodeSet)
}

func TestNewEnv_RejectsZeroAgents(t *testing.T) {
	cfg := env.Config{}
	cfg.Freeze()
	_, err := env.NewEnv(cfg, &fakeDataset{eps: testEpisodes(1)}, newFakeSim(), newFakeTask())
	assert.Error(t, err)
}

// === Step invariants ===

func TestStep_BeforeReset(t *testing.T) {
	e, _, _, _ := newTestEnv(t, nil)
	_, err := e.Step(0, env.Action{Name: "noop"})
	assert.ErrorIs(t, err, env.ErrStepBeforeReset)
}

func TestStep_EpisodeAlreadyOverAfterBudget(t *testing.T) {
	// With a budget of k steps and no time limit, exactly k successful
	// steps end the episode while the task stays active.
	const k = 3
	e, _, _, _ := newTestEnv(t, func(c *env.Config) {
		c.MaxEpisodeSteps = k
		c.MaxEpisodeSeconds = 0
	})

	_, err := e.Reset()
	require.NoError(t, err)

	for i := 0; i < k; i++ {
		assert.False(t, e.EpisodeOver(), "episode over after %d of %d steps", i, k)
		_, err := e.Step(0, env.Action{Name: "noop"})
		require.NoError(t, err)
	}
	assert.True(t, e.EpisodeOver())

	_, err = e.Step(0, env.Action{Name: "noop"})
	assert.ErrorIs(t, err, env.ErrEpisodeAlreadyOver)
}

func TestStep_BudgetScalesWithAgentCount(t *testing.T) {
	// Each agent's action counts as one step, so two agents double the
	// effective episode budget.
	e, _, _, _ := newTestEnv(t, func(c *env.Config) {
		c.NumAgents = 2
		c.MaxEpisodeSteps = 2
	})

	_, err := e.Reset()
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, err := e.Step(i%2, env.Action{Name: "noop"})
		require.NoError(t, err)
	}
	assert.True(t, e.EpisodeOver())
}

func TestStep_EndsWhenTaskInactive(t *testing.T) {
	e, _, sim, _ := newTestEnv(t, nil)

	_, err := e.Reset()
	require.NoError(t, err)

	sim.active = false
	_, err = e.Step(0, env.Action{Name: "noop"})
	require.NoError(t, err)
	assert.True(t, e.EpisodeOver())
}

func TestStep_StaleAfterPinEpisode(t *testing.T) {
	e, ds, _, _ := newTestEnv(t, nil)

	_, err := e.Reset()
	require.NoError(t, err)

	e.PinEpisode(ds.eps[3])
	_, err = e.Step(0, env.Action{Name: "noop"})
	assert.ErrorIs(t, err, env.ErrStaleEpisodeState)
}

func TestStep_StaleAfterReplaceCursor(t *testing.T) {
	e, ds, _, _ := newTestEnv(t, nil)

	_, err := e.Reset()
	require.NoError(t, err)

	e.ReplaceCursor(ds.MakeCursor(7))
	_, err = e.Step(0, env.Action{Name: "noop"})
	assert.ErrorIs(t, err, env.ErrStaleEpisodeState)
}

func TestStep_NotifiesCursorAfterEachStep(t *testing.T) {
	e, ds, _, _ := newTestEnv(t, nil)

	_, err := e.Reset()
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := e.Step(0, env.Action{Name: "noop"})
		require.NoError(t, err)
	}
	assert.Equal(t, 5, ds.lastCursor.stepCalls)
}

// === Reset semantics ===

func TestReset_AdvancesCursorAndClearsState(t *testing.T) {
	e, ds, sim, task := newTestEnv(t, nil)

	obs, err := e.Reset()
	require.NoError(t, err)
	assert.NotNil(t, obs)
	assert.Equal(t, 1, ds.lastCursor.nextCalls)
	assert.Len(t, sim.reconfigs, 1)
	assert.Len(t, task.resetEps, 1)
	assert.Equal(t, e.CurrentEpisode(), task.resetEps[0])
	assert.EqualValues(t, 0, e.ElapsedSteps())
	assert.False(t, e.EpisodeOver())
}

func TestReset_HonorsPinnedEpisodeOnce(t *testing.T) {
	e, ds, _, _ := newTestEnv(t, nil)

	pinned := ds.eps[4]
	e.PinEpisode(pinned)

	_, err := e.Reset()
	require.NoError(t, err)
	assert.Same(t, pinned, e.CurrentEpisode())

	// A pinned episode is honored exactly once: the next reset advances
	// from the cursor again.
	before := ds.lastCursor.nextCalls
	_, err = e.Reset()
	require.NoError(t, err)
	assert.Equal(t, before+1, ds.lastCursor.nextCalls)
}

func TestReset_InvalidatesOutgoingEpisodeCache(t *testing.T) {
	e, _, _, _ := newTestEnv(t, nil)

	_, err := e.Reset()
	require.NoError(t, err)

	e.CurrentEpisode().SetPathCache("precomputed paths")
	_, err = e.Reset()
	require.NoError(t, err)

	for _, ep := range e.Episodes() {
		assert.Nil(t, ep.PathCache())
	}
}

func TestReset_SameSceneDrawsUniformly(t *testing.T) {
	e, ds, _, _ := newTestEnv(t, func(c *env.Config) {
		c.UseSameScene = true
	})

	// The cursor must never advance in same-scene mode.
	for i := 0; i < 10; i++ {
		_, err := e.Reset()
		require.NoError(t, err)
		assert.Contains(t, ds.eps, e.CurrentEpisode())
	}
	assert.Equal(t, 0, ds.lastCursor.nextCalls)
}

// === Seeding and determinism ===

func TestSeed_DeterministicEpisodeSequence(t *testing.T) {
	runSequence := func() []string {
		ds := &fakeDataset{eps: testEpisodes(6)}
		e, err := env.NewEnv(testConfig(nil), ds, newFakeSim(), newFakeTask())
		require.NoError(t, err)
		e.Seed(1234)

		var ids []string
		for i := 0; i < 8; i++ {
			_, err := e.Reset()
			require.NoError(t, err)
			ids = append(ids, e.CurrentEpisode().ID)
		}
		return ids
	}

	assert.Equal(t, runSequence(), runSequence())
}

func TestSeed_PropagatesToCollaborators(t *testing.T) {
	e, _, sim, task := newTestEnv(t, nil)
	e.Seed(99)
	assert.EqualValues(t, 99, sim.seededWith)
	assert.EqualValues(t, 99, task.seededWith)
}

// === Fixed-pose mode ===

func writeEnvPoseTable(t *testing.T, dir string, positions [][]env.Vec3, rotations [][]env.Quaternion) {
	t.Helper()
	base := filepath.Join(dir, "apt_0", fmt.Sprintf("%dagents", len(positions[0])))
	require.NoError(t, os.MkdirAll(base, 0o755))

	posData, err := json.Marshal(positions)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(base, "start_position.json"), posData, 0o644))

	rotData, err := json.Marshal(rotations)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(base, "start_rotation.json"), rotData, 0o644))
}

func TestReset_FixedPoseModeConsumesTable(t *testing.T) {
	dir := t.TempDir()
	positions := [][]env.Vec3{
		{{0, 0, 0}, {3, 0, 0}},
		{{1, 0, 1}, {4, 0, 4}},
	}
	rotations := [][]env.Quaternion{
		{{0, 0, 0, 1}, {0, 0, 0, 1}},
		{{0, 1, 0, 0}, {0, 0, 0, 1}},
	}
	writeEnvPoseTable(t, dir, positions, rotations)

	e, _, sim, _ := newTestEnv(t, func(c *env.Config) {
		c.NumAgents = 2
		c.UseFixedStartPosition = true
		c.FixedPoseDataPath = dir
	})

	// Two consecutive resets retrieve strictly increasing table indices
	// and never invoke the rejection-sampling generator: the poses pushed
	// to the simulator are exactly the table entries, in order.
	_, err := e.Reset()
	require.NoError(t, err)
	assert.Equal(t, positions[0], sim.reconfigs[0].StartPositions)
	assert.Equal(t, rotations[0], sim.reconfigs[0].StartRotations)

	_, err = e.Reset()
	require.NoError(t, err)
	assert.Equal(t, positions[1], sim.reconfigs[1].StartPositions)
	assert.Equal(t, rotations[1], sim.reconfigs[1].StartRotations)

	// The table is now exhausted: a third reset is a fatal config error.
	_, err = e.Reset()
	assert.ErrorIs(t, err, env.ErrFixedPoseExhausted)
}

// === Accessors ===

func TestElapsedSeconds_BeforeReset(t *testing.T) {
	e, _, _, _ := newTestEnv(t, nil)
	_, err := e.ElapsedSeconds()
	assert.Error(t, err)
}

func TestElapsedSeconds_AfterReset(t *testing.T) {
	e, _, _, _ := newTestEnv(t, nil)
	_, err := e.Reset()
	require.NoError(t, err)

	elapsed, err := e.ElapsedSeconds()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, elapsed, 0.0)
}

func TestCloseAndRender_Delegate(t *testing.T) {
	e, _, sim, _ := newTestEnv(t, nil)

	_, err := e.Render("rgb")
	require.NoError(t, err)
	assert.True(t, sim.renderCalled)

	require.NoError(t, e.Close())
	assert.True(t, sim.closed)
}
