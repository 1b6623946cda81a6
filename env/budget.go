package env

import "time"

// StepBudget bounds how long a single episode may run, in steps and in
// wall-clock seconds. A zero limit means unbounded for that dimension.
type StepBudget struct {
	MaxSteps   uint64  // maximum successful steps per episode (0 = unbounded)
	MaxSeconds float64 // maximum elapsed wall-clock seconds per episode (0 = unbounded)
}

// IsPastLimit reports whether either budget dimension is exhausted. Pure
// function: the Env is the sole owner of the counters it reads.
func (b StepBudget) IsPastLimit(elapsedSteps uint64, episodeStart, now time.Time) bool {
	if b.MaxSteps != 0 && elapsedSteps >= b.MaxSteps {
		return true
	}
	if b.MaxSeconds != 0 && now.Sub(episodeStart).Seconds() >= b.MaxSeconds {
		return true
	}
	return false
}
