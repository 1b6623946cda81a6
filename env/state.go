package env

import "time"

// EnvState is the mutable per-episode record owned by the Env. Step may only
// proceed when EpisodeStartTime is set, EpisodeOver is false, and Dirty is
// false.
type EnvState struct {
	ElapsedSteps     uint64    // successful Step calls since the last Reset
	EpisodeStartTime time.Time // zero value means no episode has started
	EpisodeOver      bool      // true once the task ends or the budget is hit
	EpisodePinned    bool      // true when the current episode was set directly, not drawn from the cursor
	Dirty            bool      // true after the episode or cursor was replaced; cleared only by Reset
}

// Started reports whether an episode start time has been recorded.
func (s *EnvState) Started() bool { return !s.EpisodeStartTime.IsZero() }

// resetStats clears the per-episode counters at the start of a Reset.
// Pin and dirty tracking are cleared separately, after episode selection.
func (s *EnvState) resetStats(now time.Time) {
	s.ElapsedSteps = 0
	s.EpisodeStartTime = now
	s.EpisodeOver = false
}
