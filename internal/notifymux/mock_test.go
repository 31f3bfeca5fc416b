package notifymux

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/velocity.trainer/internal/sensors"
	"github.com/banshee-data/velocity.trainer/internal/timeutil"
)

func receive(t *testing.T, ch <-chan sensors.Notification, n int) []sensors.Notification {
	t.Helper()
	out := make([]sensors.Notification, 0, n)
	for len(out) < n {
		select {
		case v, ok := <-ch:
			require.True(t, ok, "channel closed after %d notifications", len(out))
			out = append(out, v)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after %d of %d notifications", len(out), n)
		}
	}
	return out
}

func TestNewMockMux(t *testing.T) {
	for _, profile := range []sensors.Profile{sensors.ProfileSIG, sensors.ProfileLegacy} {
		t.Run(profile.String(), func(t *testing.T) {
			clock := timeutil.NewMockClock(time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC))
			mux := NewMockMux(profile, 1, clock)
			defer mux.Close()

			require.NoError(t, mux.Initialize())
			assert.Contains(t, mux.port.Written(), "notify 2a5b\n")

			_, ch := mux.Subscribe()
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go mux.Monitor(ctx)

			// nothing before the warm-up elapses
			require.Eventually(t, func() bool { return clock.Timers() == 1 }, time.Second, time.Millisecond)
			clock.Advance(499 * time.Millisecond)
			select {
			case n := <-ch:
				t.Fatalf("unexpected notification during warm-up: %v", n)
			case <-time.After(20 * time.Millisecond):
			}

			clock.Advance(time.Millisecond)
			first := receive(t, ch, 3)

			require.Eventually(t, func() bool { return clock.Tickers() == 1 }, time.Second, time.Millisecond)
			clock.Advance(time.Second)
			second := receive(t, ch, 3)

			d := sensors.NewDecoder(profile)
			for i, batch := range [][]sensors.Notification{first, second} {
				assert.Equal(t, sensors.HeartRateMeasurement, batch[0].Characteristic)
				assert.Equal(t, sensors.CyclingPowerMeasurement, batch[1].Characteristic)
				assert.Equal(t, sensors.CSCMeasurement, batch[2].Characteristic)

				bpm, err := d.DecodeHeartRate(batch[0].Payload)
				require.NoError(t, err)
				assert.True(t, bpm >= 123 && bpm <= 128, "bpm %d", bpm)

				watts, err := d.DecodePower(batch[1].Payload)
				require.NoError(t, err)
				assert.True(t, watts >= 180 && watts <= 210, "watts %d", watts)

				_, ok, err := d.DecodeCadence(batch[2].Payload)
				require.NoError(t, err)
				assert.Equal(t, i == 1, ok, "cadence is reported from the second crank event")
			}
		})
	}
}

func TestMockPort_CloseStopsGenerator(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(0, 0))
	mux := NewMockMux(sensors.ProfileSIG, 1, clock)

	done := make(chan error, 1)
	go func() { done <- mux.Monitor(context.Background()) }()

	require.NoError(t, mux.Close())
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Monitor did not return after Close")
	}
}
