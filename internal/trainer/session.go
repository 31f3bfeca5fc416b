// Package trainer turns sensor notifications into rider state: it decodes
// frames, keeps the latest reading and its history, solves for the target
// speed and acceleration, and publishes an Update to observers.
package trainer

import (
	"context"
	"errors"
	"fmt"

	"github.com/banshee-data/velocity.trainer/internal/monitoring"
	"github.com/banshee-data/velocity.trainer/internal/physics"
	"github.com/banshee-data/velocity.trainer/internal/sensors"
	"github.com/banshee-data/velocity.trainer/internal/timeutil"
)

// Config holds everything a Session needs.
type Config struct {
	Params       physics.RiderParameters
	Profile      sensors.Profile
	HistoryLimit int            // 0 keeps every reading
	Clock        timeutil.Clock // defaults to timeutil.RealClock
}

// Session is a single ride. It is not safe for concurrent use: one goroutine
// feeds it notifications, and observers run on that goroutine.
type Session struct {
	params    physics.RiderParameters
	decoder   *sensors.Decoder
	state     *sensors.State
	clock     timeutil.Clock
	observers []Observer
	last      Update
}

// NewSession validates cfg.Params and returns an idle session.
func NewSession(cfg Config) (*Session, error) {
	if err := cfg.Params.Validate(); err != nil {
		return nil, err
	}
	if cfg.HistoryLimit < 0 {
		return nil, fmt.Errorf("history limit must be non-negative, got %d", cfg.HistoryLimit)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Session{
		params:  cfg.Params,
		decoder: sensors.NewDecoder(cfg.Profile),
		state:   sensors.NewState(cfg.HistoryLimit),
		clock:   clock,
	}, nil
}

// AddObserver registers o for every subsequent update.
func (s *Session) AddObserver(o Observer) {
	s.observers = append(s.observers, o)
}

// Params returns the rider parameters of the session.
func (s *Session) Params() physics.RiderParameters { return s.params }

// Reading returns the latest sensor values.
func (s *Session) Reading() sensors.Reading { return s.state.Reading }

// Last returns the most recently published update.
func (s *Session) Last() Update { return s.last }

// HandleNotification decodes n and, when it yields a reading, recomputes the
// target speed and acceleration from the current power and publishes the
// result. ok is false when the frame carried nothing to report, such as the
// first crank event.
func (s *Session) HandleNotification(n sensors.Notification) (Update, bool, error) {
	sample, ok, err := s.decoder.Decode(n)
	if err != nil {
		return Update{}, false, err
	}
	if !ok {
		return Update{}, false, nil
	}

	now := s.clock.Now()
	if err := s.state.Apply(sample, now); err != nil {
		return Update{}, false, err
	}

	r := s.state.Reading
	watts := float64(r.Watts)
	target := s.params.Speed(watts)
	u := Update{
		Time:         now,
		Source:       sample.Metric,
		BPM:          r.BPM,
		Watts:        r.Watts,
		RPM:          r.RPM,
		TargetSpeed:  target,
		Acceleration: s.params.Acceleration(watts, target),
	}
	s.last = u
	monitoring.Debugf("trainer: %s=%v target=%.3fm/s accel=%.6fm/s²", sample.Metric, sample.Value, u.TargetSpeed, u.Acceleration)

	for _, o := range s.observers {
		o.OnUpdate(u)
	}
	return u, true, nil
}

// Run handles notifications from ch until it is closed or ctx is done.
// Frames that fail to decode are logged and skipped.
func (s *Session) Run(ctx context.Context, ch <-chan sensors.Notification) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n, ok := <-ch:
			if !ok {
				return nil
			}
			if _, _, err := s.HandleNotification(n); err != nil {
				if errors.Is(err, sensors.ErrUnknownCharacteristic) {
					monitoring.Debugf("trainer: ignoring notification: %v", err)
					continue
				}
				monitoring.Logf("trainer: dropping notification %04x: %v", uint16(n.Characteristic), err)
			}
		}
	}
}

// Summaries describes each metric's history.
type Summaries struct {
	BPM   sensors.Summary `json:"bpm"`
	Watts sensors.Summary `json:"watts"`
	RPM   sensors.Summary `json:"rpm"`
}

// Summaries returns the history summary of every metric.
func (s *Session) Summaries() Summaries {
	return Summaries{
		BPM:   s.state.BPMHistory.Summary(),
		Watts: s.state.WattsHistory.Summary(),
		RPM:   s.state.RPMHistory.Summary(),
	}
}
