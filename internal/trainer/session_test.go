package trainer

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/velocity.trainer/internal/monitoring"
	"github.com/banshee-data/velocity.trainer/internal/physics"
	"github.com/banshee-data/velocity.trainer/internal/sensors"
	"github.com/banshee-data/velocity.trainer/internal/timeutil"
)

const (
	speedAt200W = 2.498722420899158
	accelAt200W = 0.000976108578465561
)

var start = time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)

func newTestSession(t *testing.T, profile sensors.Profile) (*Session, *timeutil.MockClock) {
	t.Helper()
	clock := timeutil.NewMockClock(start)
	s, err := NewSession(Config{
		Params:  physics.DefaultRiderParameters(),
		Profile: profile,
		Clock:   clock,
	})
	require.NoError(t, err)
	return s, clock
}

func power(profile sensors.Profile, watts int16) sensors.Notification {
	return sensors.Notification{Characteristic: sensors.CyclingPowerMeasurement, Payload: sensors.EncodePower(profile, watts)}
}

func heartRate(profile sensors.Profile, bpm uint16) sensors.Notification {
	return sensors.Notification{Characteristic: sensors.HeartRateMeasurement, Payload: sensors.EncodeHeartRate(profile, bpm, false)}
}

func cadence(profile sensors.Profile, revs, eventTime uint16) sensors.Notification {
	return sensors.Notification{Characteristic: sensors.CSCMeasurement, Payload: sensors.EncodeCadence(profile, revs, eventTime)}
}

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestNewSession_Invalid(t *testing.T) {
	p := physics.DefaultRiderParameters()
	p.Mass = 0
	_, err := NewSession(Config{Params: p})
	require.Error(t, err)
	assert.True(t, errors.Is(err, physics.ErrInvalidParameters))

	_, err = NewSession(Config{Params: physics.DefaultRiderParameters(), HistoryLimit: -1})
	assert.Error(t, err)

	s, err := NewSession(Config{Params: physics.DefaultRiderParameters()})
	require.NoError(t, err)
	assert.IsType(t, timeutil.RealClock{}, s.clock)
}

func TestSession_HandleNotification(t *testing.T) {
	for _, profile := range []sensors.Profile{sensors.ProfileSIG, sensors.ProfileLegacy} {
		t.Run(profile.String(), func(t *testing.T) {
			s, clock := newTestSession(t, profile)
			var got []Update
			s.AddObserver(ObserverFunc(func(u Update) { got = append(got, u) }))

			u, ok, err := s.HandleNotification(power(profile, 200))
			require.NoError(t, err)
			require.True(t, ok)
			want := Update{
				Time:         start,
				Source:       sensors.MetricPower,
				Watts:        200,
				TargetSpeed:  speedAt200W,
				Acceleration: accelAt200W,
			}
			if diff := cmp.Diff(want, u, approx); diff != "" {
				t.Errorf("power update mismatch (-want +got):\n%s", diff)
			}

			// every reading republishes speed from the current power
			clock.Advance(time.Second)
			u, ok, err = s.HandleNotification(heartRate(profile, 131))
			require.NoError(t, err)
			require.True(t, ok)
			want.Time = start.Add(time.Second)
			want.Source = sensors.MetricHeartRate
			want.BPM = 131
			if diff := cmp.Diff(want, u, approx); diff != "" {
				t.Errorf("heart rate update mismatch (-want +got):\n%s", diff)
			}

			// the first crank event is suppressed
			_, ok, err = s.HandleNotification(cadence(profile, 10, 0))
			require.NoError(t, err)
			assert.False(t, ok)

			clock.Advance(time.Second)
			u, ok, err = s.HandleNotification(cadence(profile, 11, 512))
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, 120.0, u.RPM)
			assert.Equal(t, sensors.MetricCadence, u.Source)

			require.Len(t, got, 3)
			assert.Equal(t, u, got[2])
			assert.Equal(t, u, s.Last())
			assert.Equal(t, sensors.Reading{BPM: 131, Watts: 200, RPM: 120}, s.Reading())
		})
	}
}

func TestSession_ZeroPower(t *testing.T) {
	s, _ := newTestSession(t, sensors.ProfileSIG)

	u, ok, err := s.HandleNotification(power(sensors.ProfileSIG, 0))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0.0, u.TargetSpeed)
	assert.Equal(t, physics.StandstillAcceleration, u.Acceleration)
}

func TestSession_MalformedFrame(t *testing.T) {
	s, _ := newTestSession(t, sensors.ProfileSIG)
	calls := 0
	s.AddObserver(ObserverFunc(func(Update) { calls++ }))

	_, _, err := s.HandleNotification(power(sensors.ProfileSIG, 150))
	require.NoError(t, err)
	before := s.Last()

	_, ok, err := s.HandleNotification(sensors.Notification{Characteristic: sensors.CyclingPowerMeasurement, Payload: []byte{0x00}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, sensors.ErrMalformedFrame))
	assert.False(t, ok)
	assert.Equal(t, 1, calls)
	assert.Equal(t, before, s.Last())
}

func TestSession_Run(t *testing.T) {
	var logs []string
	original := monitoring.Logf
	monitoring.SetLogger(func(format string, v ...interface{}) {
		logs = append(logs, fmt.Sprintf(format, v...))
	})
	defer func() { monitoring.Logf = original }()

	s, _ := newTestSession(t, sensors.ProfileSIG)
	obs := NewChannelObserver(8)
	s.AddObserver(obs)

	ch := make(chan sensors.Notification, 8)
	ch <- heartRate(sensors.ProfileSIG, 120)
	ch <- sensors.Notification{Characteristic: 0x2A19, Payload: []byte{0x64}} // battery level
	ch <- sensors.Notification{Characteristic: sensors.HeartRateMeasurement}
	ch <- power(sensors.ProfileSIG, 200)
	close(ch)

	require.NoError(t, s.Run(context.Background(), ch))
	assert.Equal(t, sensors.Reading{BPM: 120, Watts: 200}, s.Reading())
	assert.Len(t, obs.C, 2)

	require.Len(t, logs, 1, "only the malformed frame is logged")
	assert.Contains(t, logs[0], "2a37")
}

func TestSession_RunCancelled(t *testing.T) {
	s, _ := newTestSession(t, sensors.ProfileSIG)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Run(ctx, make(chan sensors.Notification))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSession_Summaries(t *testing.T) {
	s, clock := newTestSession(t, sensors.ProfileSIG)
	for _, w := range []int16{180, 200, 220} {
		_, _, err := s.HandleNotification(power(sensors.ProfileSIG, w))
		require.NoError(t, err)
		clock.Advance(time.Second)
	}

	sum := s.Summaries()
	assert.Equal(t, 3, sum.Watts.Count)
	assert.InDelta(t, 200, sum.Watts.Mean, 1e-12)
	assert.Equal(t, 180.0, sum.Watts.Min)
	assert.Equal(t, 220.0, sum.Watts.Max)
	assert.Equal(t, sensors.Summary{}, sum.BPM)
}
