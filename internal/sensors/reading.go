package sensors

import (
	"fmt"
	"time"
)

// Metric identifies which reading a Sample updates.
type Metric int

const (
	MetricHeartRate Metric = iota + 1
	MetricPower
	MetricCadence
)

func (m Metric) String() string {
	switch m {
	case MetricHeartRate:
		return "bpm"
	case MetricPower:
		return "watts"
	case MetricCadence:
		return "rpm"
	default:
		return fmt.Sprintf("metric(%d)", int(m))
	}
}

// Sample is one decoded value.
type Sample struct {
	Metric Metric
	Value  float64
}

// Reading is the latest value of each sensor.
type Reading struct {
	BPM   uint16  `json:"bpm"`
	Watts int16   `json:"watts"`
	RPM   float64 `json:"rpm"`
}

// State holds the latest reading and a timestamped history per metric. It is
// owned by whoever subscribes to the sensor notifications.
type State struct {
	Reading

	BPMHistory   *History[uint16]
	WattsHistory *History[int16]
	RPMHistory   *History[float64]
}

// NewState returns an empty State whose histories keep at most limit points
// each. A limit of zero or less keeps everything.
func NewState(limit int) *State {
	return &State{
		BPMHistory:   NewHistory[uint16](limit),
		WattsHistory: NewHistory[int16](limit),
		RPMHistory:   NewHistory[float64](limit),
	}
}

// Apply records s as the current value of its metric at time at.
func (st *State) Apply(s Sample, at time.Time) error {
	switch s.Metric {
	case MetricHeartRate:
		st.BPM = uint16(s.Value)
		st.BPMHistory.Append(at, st.BPM)
	case MetricPower:
		st.Watts = int16(s.Value)
		st.WattsHistory.Append(at, st.Watts)
	case MetricCadence:
		st.RPM = s.Value
		st.RPMHistory.Append(at, st.RPM)
	default:
		return fmt.Errorf("cannot apply sample for %s", s.Metric)
	}
	return nil
}
