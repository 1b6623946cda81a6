package dataset

import (
	"errors"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/embodied-sim/embodied-sim/env"
)

// ErrCursorExhausted reports that a non-cycling iterator ran out of
// episodes.
var ErrCursorExhausted = errors.New("episode cursor exhausted")

// IteratorOptions controls the episode ordering policy.
type IteratorOptions struct {
	// Cycle restarts the iterator from the beginning once all episodes have
	// been served.
	Cycle bool

	// Shuffle randomizes the order, re-shuffling on every cycle. With
	// GroupByScene the shuffle is group-aware: the order of scene groups is
	// randomized, and episodes are randomized within each group.
	Shuffle bool

	// GroupByScene serves all episodes of one scene consecutively, keyed by
	// first appearance. Minimizes scene reloads in the simulator.
	GroupByScene bool

	// MaxSceneRepeatEpisodes forces a switch to a different scene after
	// this many consecutive episodes from the same scene. 0 = no limit.
	MaxSceneRepeatEpisodes int

	// MaxSceneRepeatSteps forces a switch to a different scene after this
	// many environment steps within the same scene, as reported through
	// NotifyStepTaken. 0 = no limit.
	MaxSceneRepeatSteps int
}

// DefaultIteratorOptions cycles forever through episodes grouped by scene,
// without shuffling.
func DefaultIteratorOptions() IteratorOptions {
	return IteratorOptions{Cycle: true, GroupByScene: true}
}

// EpisodeIterator is a stateful cursor over an episode set. It implements
// env.EpisodeCursor. Deterministic under its construction seed.
type EpisodeIterator struct {
	episodes []*env.Episode
	opts     IteratorOptions
	rng      *rand.Rand

	pos int

	// Scene repeat tracking for forced switches.
	currentScene  string
	sceneEpisodes int
	sceneSteps    int
}

// NewEpisodeIterator builds an iterator over episodes with the given
// ordering options. The input slice is not mutated.
func NewEpisodeIterator(episodes []*env.Episode, opts IteratorOptions, seed int64) *EpisodeIterator {
	it := &EpisodeIterator{
		episodes: append([]*env.Episode(nil), episodes...),
		opts:     opts,
		rng:      rand.New(rand.NewSource(seed)),
	}
	if opts.GroupByScene {
		it.episodes = groupByScene(it.episodes)
	}
	if opts.Shuffle {
		it.shuffle()
	}
	return it
}

// Next returns the next episode under the ordering policy. A non-cycling
// iterator fails with ErrCursorExhausted once every episode has been served.
func (it *EpisodeIterator) Next() (*env.Episode, error) {
	if len(it.episodes) == 0 {
		return nil, env.ErrEmptyEpisodeSet
	}

	if it.pos >= len(it.episodes) {
		if !it.opts.Cycle {
			return nil, ErrCursorExhausted
		}
		it.pos = 0
		if it.opts.Shuffle {
			it.shuffle()
		}
	}

	if it.sceneSwitchDue() {
		it.forceSceneSwitch()
	}

	ep := it.episodes[it.pos]
	it.pos++

	if ep.SceneID != it.currentScene {
		it.currentScene = ep.SceneID
		it.sceneEpisodes = 0
		it.sceneSteps = 0
	}
	it.sceneEpisodes++
	return ep, nil
}

// NotifyStepTaken records one completed environment step against the
// current scene's repeat budget.
func (it *EpisodeIterator) NotifyStepTaken() {
	it.sceneSteps++
}

// sceneSwitchDue reports whether the current scene has exceeded its repeat
// budget in either episodes or steps.
func (it *EpisodeIterator) sceneSwitchDue() bool {
	if it.currentScene == "" {
		return false
	}
	if it.opts.MaxSceneRepeatEpisodes > 0 && it.sceneEpisodes >= it.opts.MaxSceneRepeatEpisodes {
		return true
	}
	if it.opts.MaxSceneRepeatSteps > 0 && it.sceneSteps >= it.opts.MaxSceneRepeatSteps {
		return true
	}
	return false
}

// forceSceneSwitch advances pos to the next episode from a different scene,
// wrapping around when cycling. If every episode shares one scene, the
// position is left unchanged.
func (it *EpisodeIterator) forceSceneSwitch() {
	n := len(it.episodes)
	limit := n - it.pos
	if it.opts.Cycle {
		limit = n
	}
	for off := 0; off < limit; off++ {
		idx := it.pos + off
		if it.opts.Cycle {
			idx %= n
		}
		if it.episodes[idx].SceneID != it.currentScene {
			it.pos = idx
			logrus.Debugf("forced scene switch to %s after %d episodes / %d steps",
				it.episodes[idx].SceneID, it.sceneEpisodes, it.sceneSteps)
			return
		}
	}
}

// shuffle randomizes the iteration order, group-aware when grouping by
// scene.
func (it *EpisodeIterator) shuffle() {
	if !it.opts.GroupByScene {
		it.rng.Shuffle(len(it.episodes), func(i, j int) {
			it.episodes[i], it.episodes[j] = it.episodes[j], it.episodes[i]
		})
		return
	}

	groups, order := sceneGroups(it.episodes)
	it.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	out := it.episodes[:0]
	for _, scene := range order {
		g := groups[scene]
		it.rng.Shuffle(len(g), func(i, j int) { g[i], g[j] = g[j], g[i] })
		out = append(out, g...)
	}
	it.episodes = out
}

// groupByScene reorders episodes so that those sharing a scene are
// consecutive, keyed by first appearance.
func groupByScene(episodes []*env.Episode) []*env.Episode {
	groups, order := sceneGroups(episodes)
	out := make([]*env.Episode, 0, len(episodes))
	for _, scene := range order {
		out = append(out, groups[scene]...)
	}
	return out
}

func sceneGroups(episodes []*env.Episode) (map[string][]*env.Episode, []string) {
	groups := make(map[string][]*env.Episode)
	var order []string
	for _, ep := range episodes {
		if _, ok := groups[ep.SceneID]; !ok {
			order = append(order, ep.SceneID)
		}
		groups[ep.SceneID] = append(groups[ep.SceneID], ep)
	}
	return groups, order
}
