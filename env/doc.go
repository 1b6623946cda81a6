// Package env provides the episode-lifecycle core for embodied multi-agent
// simulation environments.
//
// # Reading Guide
//
// Start with these three files to understand the lifecycle kernel:
//   - episode.go: Episode identity (scene, default start pose, per-episode cache)
//   - env.go: the Env state machine, Reset/Step contract, and invariants
//   - placement.go: rejection-sampling generation of multi-agent start states
//
// # Architecture
//
// The env package defines the collaborator interfaces (Dataset, Simulator,
// Task, EpisodeCursor); implementations live in sub-packages:
//   - env/dataset/: JSON episode datasets and cursor (iterator) implementations
//   - env/kinsim/: a minimal kinematic simulator used by the CLI and tests
//   - env/navtask/: a minimal navigation task with a measurements suite
//
// An Env owns exactly one EpisodeCursor and one EnvState at a time. All
// randomness flows through a PartitionedRNG (rng.go) so that a single Seed
// call deterministically resets every random source the core uses.
package env
