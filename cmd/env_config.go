package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/embodied-sim/embodied-sim/env"
	"github.com/embodied-sim/embodied-sim/env/dataset"
)

// EnvConfigFile is the YAML environment configuration consumed by the run
// command. Zero values fall back to the defaults below.
type EnvConfigFile struct {
	Seed              int64   `yaml:"seed"`
	NumAgents         int     `yaml:"num_agents"`
	MaxEpisodeSteps   uint64  `yaml:"max_episode_steps"`
	MaxEpisodeSeconds float64 `yaml:"max_episode_seconds"`

	UseFixedStartPosition bool   `yaml:"use_fixed_start_position"`
	FixedPoseDataPath     string `yaml:"fixed_pose_data_path"`
	UseSameScene          bool   `yaml:"use_same_scene"`
	UseFullRandomState    bool   `yaml:"use_full_random_state"`
	PlacementMaxAttempts  int    `yaml:"placement_max_attempts"`

	DatasetPath string `yaml:"dataset"`

	Iterator struct {
		Cycle                  bool `yaml:"cycle"`
		Shuffle                bool `yaml:"shuffle"`
		GroupByScene           bool `yaml:"group_by_scene"`
		MaxSceneRepeatEpisodes int  `yaml:"max_scene_repeat_episodes"`
		MaxSceneRepeatSteps    int  `yaml:"max_scene_repeat_steps"`
	} `yaml:"iterator"`
}

// DefaultEnvConfigFile returns the configuration used when no file is given:
// a single agent, a bounded step budget, and a cycling scene-grouped cursor.
func DefaultEnvConfigFile() *EnvConfigFile {
	cfg := &EnvConfigFile{
		Seed:            42,
		NumAgents:       1,
		MaxEpisodeSteps: 500,
	}
	cfg.Iterator.Cycle = true
	cfg.Iterator.GroupByScene = true
	return cfg
}

// LoadEnvConfigFile reads and validates an environment config YAML file.
func LoadEnvConfigFile(path string) (*EnvConfigFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read environment config: %w", err)
	}
	cfg := DefaultEnvConfigFile()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse environment config %s: %w", path, err)
	}
	return cfg, nil
}

// ToConfig converts the file form into the core environment config.
func (f *EnvConfigFile) ToConfig() env.Config {
	return env.Config{
		Seed:                  f.Seed,
		NumAgents:             f.NumAgents,
		MaxEpisodeSteps:       f.MaxEpisodeSteps,
		MaxEpisodeSeconds:     f.MaxEpisodeSeconds,
		UseFixedStartPosition: f.UseFixedStartPosition,
		FixedPoseDataPath:     f.FixedPoseDataPath,
		UseSameScene:          f.UseSameScene,
		UseFullRandomState:    f.UseFullRandomState,
		PlacementMaxAttempts:  f.PlacementMaxAttempts,
	}
}

// IteratorOptions converts the file form into cursor ordering options.
func (f *EnvConfigFile) IteratorOptions() dataset.IteratorOptions {
	return dataset.IteratorOptions{
		Cycle:                  f.Iterator.Cycle,
		Shuffle:                f.Iterator.Shuffle,
		GroupByScene:           f.Iterator.GroupByScene,
		MaxSceneRepeatEpisodes: f.Iterator.MaxSceneRepeatEpisodes,
		MaxSceneRepeatSteps:    f.Iterator.MaxSceneRepeatSteps,
	}
}
