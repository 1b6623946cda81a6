package env

import "errors"

// The lifecycle error taxonomy. All of these are caller-visible and fail
// fast: none are retried internally, and a violated invariant aborts the
// in-flight Reset or Step.
var (
	// ErrEmptyEpisodeSet reports a Reset with zero episodes available.
	ErrEmptyEpisodeSet = errors.New("episode set is empty")

	// ErrStepBeforeReset reports a Step before any Reset recorded an
	// episode start time.
	ErrStepBeforeReset = errors.New("cannot call step before calling reset")

	// ErrEpisodeAlreadyOver reports a Step after the episode ended.
	ErrEpisodeAlreadyOver = errors.New("episode over, call reset before calling step")

	// ErrStaleEpisodeState reports a Step after the current episode or the
	// cursor was replaced without an intervening Reset.
	ErrStaleEpisodeState = errors.New("episode or cursor changed, call reset before calling step")

	// ErrFixedPoseExhausted reports a fixed-pose load index past the end of
	// the precomputed table. This is a configuration error, not recoverable.
	ErrFixedPoseExhausted = errors.New("fixed start pose table exhausted")

	// ErrPlacementUnsatisfiable reports that the start-state search gave up:
	// either the attempt cap was exhausted or the constraints can never be
	// met (fewer episodes than agents).
	ErrPlacementUnsatisfiable = errors.New("no start state satisfies placement constraints")
)
