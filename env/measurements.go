package env

// Metrics maps measure names to their current values.
type Metrics map[string]float64

// Measure computes one scalar metric over the course of an episode.
type Measure interface {
	// Name is the metric key. Must be unique within a Measurements suite.
	Name() string

	// Reset re-initializes the measure at episode start.
	Reset(ep *Episode, obs Observations)

	// Update folds one completed step into the measure.
	Update(ep *Episode, agentID int, action Action, obs Observations)

	// Metric returns the current value.
	Metric() float64
}

// Measurements aggregates a task's measures. The Env resets it on Reset and
// updates it after every successful Step.
type Measurements struct {
	measures []Measure
}

// NewMeasurements builds a suite from the given measures, in order.
func NewMeasurements(measures ...Measure) *Measurements {
	return &Measurements{measures: measures}
}

// Reset re-initializes every measure at episode start.
func (m *Measurements) Reset(ep *Episode, obs Observations) {
	for _, ms := range m.measures {
		ms.Reset(ep, obs)
	}
}

// Update folds one completed step into every measure.
func (m *Measurements) Update(ep *Episode, agentID int, action Action, obs Observations) {
	for _, ms := range m.measures {
		ms.Update(ep, agentID, action, obs)
	}
}

// GetMetrics snapshots all current metric values.
func (m *Measurements) GetMetrics() Metrics {
	out := make(Metrics, len(m.measures))
	for _, ms := range m.measures {
		out[ms.Name()] = ms.Metric()
	}
	return out
}
