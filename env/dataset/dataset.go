// Package dataset loads episode datasets from JSON and provides the cursor
// (iterator) implementations consumed by the lifecycle core.
package dataset

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/embodied-sim/embodied-sim/env"
)

// Dataset is an in-memory episode collection. It satisfies env.Dataset.
type Dataset struct {
	episodes []*env.Episode
	opts     IteratorOptions
}

// episodeRecord is the on-disk JSON shape of one episode.
type episodeRecord struct {
	EpisodeID                string             `json:"episode_id"`
	SceneID                  string             `json:"scene_id"`
	SceneDatasetConfig       string             `json:"scene_dataset_config"`
	AdditionalObjConfigPaths []string           `json:"additional_obj_config_paths"`
	StartPosition            [3]float64         `json:"start_position"`
	StartRotation            [4]float64         `json:"start_rotation"`
	Info                     map[string]float64 `json:"info"`
}

type datasetFile struct {
	Episodes []episodeRecord `json:"episodes"`
}

// New builds a dataset over the given episodes. The episode set must be
// non-empty while the dataset is active.
func New(episodes []*env.Episode, opts IteratorOptions) (*Dataset, error) {
	if len(episodes) == 0 {
		return nil, env.ErrEmptyEpisodeSet
	}
	return &Dataset{episodes: episodes, opts: opts}, nil
}

// Load reads an episode dataset from a JSON file. Records without an
// episode_id are assigned a fresh UUID.
func Load(path string, opts IteratorOptions) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}

	var file datasetFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", path, err)
	}
	if len(file.Episodes) == 0 {
		return nil, fmt.Errorf("dataset %s: %w", path, env.ErrEmptyEpisodeSet)
	}

	episodes := make([]*env.Episode, 0, len(file.Episodes))
	for i, rec := range file.Episodes {
		if rec.SceneID == "" {
			return nil, fmt.Errorf("dataset %s: episode %d has no scene_id", path, i)
		}
		id := rec.EpisodeID
		if id == "" {
			id = uuid.NewString()
		}
		episodes = append(episodes, &env.Episode{
			ID:                       id,
			SceneID:                  rec.SceneID,
			SceneDatasetConfig:       rec.SceneDatasetConfig,
			AdditionalObjConfigPaths: rec.AdditionalObjConfigPaths,
			StartPosition:            env.Vec3(rec.StartPosition),
			StartRotation:            env.Quaternion(rec.StartRotation),
			Info:                     rec.Info,
		})
	}

	logrus.Debugf("loaded dataset %s: %d episodes", path, len(episodes))
	return &Dataset{episodes: episodes, opts: opts}, nil
}

// Episodes returns the full episode set. The slice is shared; callers must
// not mutate it.
func (d *Dataset) Episodes() []*env.Episode { return d.episodes }

// MakeCursor builds a fresh iterator over the episode set with the dataset's
// configured ordering options, deterministic under the given seed.
func (d *Dataset) MakeCursor(seed int64) env.EpisodeCursor {
	return NewEpisodeIterator(d.episodes, d.opts, seed)
}
