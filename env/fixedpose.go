package env

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// FixedPoseTable replays precomputed start poses instead of generating them:
// an ordered sequence of per-agent pose sets, one entry consumed per
// reconfiguration, indexed by a monotonically increasing load index. Loaded
// once per (scene, agent-count) pair.
type FixedPoseTable struct {
	positions [][]Vec3
	rotations [][]Quaternion
	loadIndex int
}

// SceneKey derives the table directory name from a scene asset path.
// Replica scenes are keyed by the directory three levels up (their asset
// layout nests mesh files); everything else by the file stem.
func SceneKey(scenePath string) string {
	if strings.Contains(scenePath, "replica") {
		parts := strings.Split(scenePath, "/")
		if len(parts) >= 3 {
			return parts[len(parts)-3]
		}
	}
	base := filepath.Base(scenePath)
	if i := strings.Index(base, "."); i >= 0 {
		base = base[:i]
	}
	return base
}

// LoadFixedPoseTable reads the precomputed pose table for one scene and
// agent count from dir/<sceneKey>/<N>agents/start_position.json and
// start_rotation.json. Each file holds entries × agents coordinate lists.
func LoadFixedPoseTable(dir, scenePath string, numAgents int) (*FixedPoseTable, error) {
	base := filepath.Join(dir, SceneKey(scenePath), fmt.Sprintf("%dagents", numAgents))

	var positions [][]Vec3
	if err := readPoseFile(filepath.Join(base, "start_position.json"), &positions); err != nil {
		return nil, err
	}
	var rotations [][]Quaternion
	if err := readPoseFile(filepath.Join(base, "start_rotation.json"), &rotations); err != nil {
		return nil, err
	}

	if len(positions) != len(rotations) {
		return nil, fmt.Errorf("fixed pose table %s: %d position entries but %d rotation entries",
			base, len(positions), len(rotations))
	}
	for i := range positions {
		if len(positions[i]) != numAgents || len(rotations[i]) != numAgents {
			return nil, fmt.Errorf("fixed pose table %s: entry %d has %d positions and %d rotations, want %d agents",
				base, i, len(positions[i]), len(rotations[i]), numAgents)
		}
	}

	logrus.Debugf("loaded fixed pose table %s: %d entries for %d agents", base, len(positions), numAgents)
	return &FixedPoseTable{positions: positions, rotations: rotations}, nil
}

func readPoseFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read fixed pose file: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse fixed pose file %s: %w", path, err)
	}
	return nil
}

// Next returns the pose set at the current load index and advances it.
// Running past the end of the table is a fatal configuration error.
func (t *FixedPoseTable) Next() ([]Vec3, []Quaternion, error) {
	if t.loadIndex >= len(t.positions) {
		return nil, nil, fmt.Errorf("%w: load index %d, table length %d",
			ErrFixedPoseExhausted, t.loadIndex, len(t.positions))
	}
	positions := t.positions[t.loadIndex]
	rotations := t.rotations[t.loadIndex]
	t.loadIndex++
	return positions, rotations, nil
}

// LoadIndex returns the number of entries consumed so far.
func (t *FixedPoseTable) LoadIndex() int { return t.loadIndex }

// Len returns the total number of entries in the table.
func (t *FixedPoseTable) Len() int { return len(t.positions) }
