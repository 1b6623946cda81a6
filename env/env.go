package env

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Env is the episode-lifecycle state machine. It owns episode selection, the
// per-episode step/time budget, and the reconfiguration handshake with the
// simulator; the actual reset/step work is delegated to the task layer.
//
// Single-threaded and synchronous: Reset and Step run to completion before
// returning, and no external mutation is permitted while either is in
// flight.
type Env struct {
	config  Config
	dataset Dataset
	sim     Simulator
	task    Task

	cursor  EpisodeCursor
	current *Episode

	state  EnvState
	budget StepBudget

	rng   *PartitionedRNG
	recon *Reconfigurer

	// now is the clock used for the episode time budget. Overridable in
	// tests.
	now func() time.Time
}

// NewEnv constructs the lifecycle manager. The config must be frozen and
// valid, and the dataset must hold at least one episode.
func NewEnv(cfg Config, ds Dataset, sim Simulator, task Task) (*Env, error) {
	if !cfg.IsFrozen() {
		return nil, fmt.Errorf("freeze the config before creating the environment")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid environment config: %w", err)
	}
	if len(ds.Episodes()) == 0 {
		return nil, ErrEmptyEpisodeSet
	}

	rng := NewPartitionedRNG(NewSeedKey(cfg.Seed))
	generator := NewStartStateGenerator(rng.ForSubsystem(SubsystemPlacement), cfg.PlacementMaxAttempts)

	e := &Env{
		config:  cfg,
		dataset: ds,
		sim:     sim,
		task:    task,
		cursor:  ds.MakeCursor(cfg.Seed),
		budget: StepBudget{
			// Each agent's action counts as one step, so the episode-level
			// limit scales with the agent count.
			MaxSteps:   cfg.MaxEpisodeSteps * uint64(cfg.NumAgents),
			MaxSeconds: cfg.MaxEpisodeSeconds,
		},
		rng: rng,
		now: time.Now,
	}
	e.recon = NewReconfigurer(&cfg, sim, task, generator)

	logrus.Debugf("environment created: %d episodes, %d agents, budget %d steps / %.0f seconds",
		len(ds.Episodes()), cfg.NumAgents, e.budget.MaxSteps, e.budget.MaxSeconds)
	return e, nil
}

// Reset starts the next episode and returns the initial observations.
//
// The per-episode counters are cleared, the outgoing episode's auxiliary
// cache is dropped, and the next episode is selected: a pinned episode is
// honored once, same-scene mode draws uniformly at random from the full
// episode set, and otherwise the cursor advances. Pin and dirty tracking are
// cleared so the following Reset advances by default.
func (e *Env) Reset() (Observations, error) {
	e.state.resetStats(e.now())

	// Caching the outgoing episode's auxiliary state for the next time we
	// see it isn't worth it.
	if e.current != nil {
		e.current.InvalidatePathCache()
	}

	episodes := e.dataset.Episodes()
	if len(episodes) == 0 {
		return nil, ErrEmptyEpisodeSet
	}

	switch {
	case e.state.EpisodePinned:
		// Keep the episode that was pinned since the last reset.
	case e.config.UseSameScene:
		e.current = episodes[e.rng.ForSubsystem(SubsystemEpisodes).Intn(len(episodes))]
	default:
		ep, err := e.cursor.Next()
		if err != nil {
			return nil, fmt.Errorf("advance episode cursor: %w", err)
		}
		e.current = ep
	}
	e.state.EpisodePinned = false
	e.state.Dirty = false

	if err := e.recon.Reconfigure(e.current, episodes); err != nil {
		return nil, fmt.Errorf("reconfigure for episode %s: %w", e.current.ID, err)
	}

	obs, err := e.task.Reset(e.current)
	if err != nil {
		return nil, fmt.Errorf("task reset for episode %s: %w", e.current.ID, err)
	}
	e.task.Measurements().Reset(e.current, obs)

	logrus.Debugf("reset to episode %s (scene %s)", e.current.ID, e.current.SceneID)
	return obs, nil
}

// Step performs one agent's action and returns the resulting observations.
// It may only be called after a Reset, while the episode is not over, and
// while the episode and cursor are unchanged since that Reset.
func (e *Env) Step(agentID int, action Action) (Observations, error) {
	if !e.state.Started() {
		return nil, ErrStepBeforeReset
	}
	if e.state.EpisodeOver {
		return nil, ErrEpisodeAlreadyOver
	}
	if e.state.Dirty {
		return nil, ErrStaleEpisodeState
	}

	obs, err := e.task.Step(agentID, action, e.current)
	if err != nil {
		return nil, fmt.Errorf("task step: %w", err)
	}
	e.task.Measurements().Update(e.current, agentID, action, obs)

	e.updateStepStats()
	return obs, nil
}

// updateStepStats advances the per-episode counters after a successful step
// and notifies the cursor last, once the step has fully completed.
func (e *Env) updateStepStats() {
	e.state.ElapsedSteps++
	e.state.EpisodeOver = !e.sim.IsEpisodeActive() ||
		e.budget.IsPastLimit(e.state.ElapsedSteps, e.state.EpisodeStartTime, e.now())

	e.cursor.NotifyStepTaken()
}

// Seed deterministically resets every random source the lifecycle core
// uses: the episode-selection and placement streams, the cursor, and the
// simulator's and task's own sources. Two runs seeded identically with the
// same dataset content and external simulator behavior produce identical
// episode sequences and start states.
func (e *Env) Seed(seed int64) {
	e.rng = NewPartitionedRNG(NewSeedKey(seed))
	e.recon.generator.Reseed(e.rng.ForSubsystem(SubsystemPlacement))
	e.cursor = e.dataset.MakeCursor(seed)
	e.sim.Seed(seed)
	e.task.Seed(seed)
}

// PinEpisode sets the current episode directly, bypassing the cursor. The
// next Reset honors the pinned episode exactly once. The state is marked
// dirty: stepping before that Reset fails with ErrStaleEpisodeState.
func (e *Env) PinEpisode(ep *Episode) {
	e.current = ep
	e.state.EpisodePinned = true
	e.state.Dirty = true
}

// ReplaceCursor swaps the active episode cursor. The state is marked dirty:
// stepping before the next Reset fails with ErrStaleEpisodeState.
func (e *Env) ReplaceCursor(cursor EpisodeCursor) {
	e.cursor = cursor
	e.state.EpisodePinned = false
	e.state.Dirty = true
}

// CurrentEpisode returns the episode selected by the last Reset (or pinned
// since), or nil before the first selection.
func (e *Env) CurrentEpisode() *Episode { return e.current }

// Episodes returns the dataset's full episode set.
func (e *Env) Episodes() []*Episode { return e.dataset.Episodes() }

// EpisodeOver reports whether the current episode has ended.
func (e *Env) EpisodeOver() bool { return e.state.EpisodeOver }

// ElapsedSteps returns the number of successful steps since the last Reset.
func (e *Env) ElapsedSteps() uint64 { return e.state.ElapsedSteps }

// ElapsedSeconds returns the wall-clock time since the episode started.
func (e *Env) ElapsedSeconds() (float64, error) {
	if !e.state.Started() {
		return 0, fmt.Errorf("elapsed seconds requested before episode was started")
	}
	return e.now().Sub(e.state.EpisodeStartTime).Seconds(), nil
}

// GetMetrics snapshots the task's current measurement values.
func (e *Env) GetMetrics() Metrics { return e.task.Measurements().GetMetrics() }

// Render returns an image of the current simulator state.
func (e *Env) Render(mode string) ([]byte, error) { return e.sim.Render(mode) }

// Close shuts down the underlying simulator.
func (e *Env) Close() error { return e.sim.Close() }
