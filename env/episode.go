package env

import "math"

// Vec3 is a position in simulator world coordinates [X, Y, Z]. Y is up, so
// two positions are on the same floor exactly when their Y components match.
type Vec3 [3]float64

// Quaternion is a rotation stored as [x, y, z, w].
type Quaternion [4]float64

// Y returns the vertical (floor) coordinate.
func (v Vec3) Y() float64 { return v[1] }

// PlanarDistance returns the Euclidean distance between a and b projected
// onto the horizontal (X, Z) plane. The vertical coordinate is ignored.
func PlanarDistance(a, b Vec3) float64 {
	dx := a[0] - b[0]
	dz := a[2] - b[2]
	return math.Sqrt(dx*dx + dz*dz)
}

// Episode is one configured trial: a scene plus a default agent start pose.
// Episodes are created by the dataset and read-only to the lifecycle core;
// the Env holds a non-owning reference to the current one.
type Episode struct {
	ID                       string             // unique episode identifier
	SceneID                  string             // scene asset path or handle
	SceneDatasetConfig       string             // scene dataset configuration path
	AdditionalObjConfigPaths []string           // extra object-config paths for the scene
	StartPosition            Vec3               // default start position
	StartRotation            Quaternion         // default start rotation
	Info                     map[string]float64 // auxiliary per-episode values (e.g. geodesic_distance)

	// pathCache holds precomputed per-episode state such as shortest paths.
	// It is dropped whenever the episode stops being current; caching it for
	// the next time the episode comes up isn't worth it.
	pathCache any
}

// SetPathCache stores auxiliary precomputed state on the episode.
func (e *Episode) SetPathCache(cache any) { e.pathCache = cache }

// PathCache returns the cached auxiliary state, or nil if none is set.
func (e *Episode) PathCache() any { return e.pathCache }

// InvalidatePathCache drops the cached auxiliary state.
func (e *Episode) InvalidatePathCache() { e.pathCache = nil }
