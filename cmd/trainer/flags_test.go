package main

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/velocity.trainer/internal/config"
	"github.com/banshee-data/velocity.trainer/internal/notifymux"
	"github.com/banshee-data/velocity.trainer/internal/sensors"
	"github.com/banshee-data/velocity.trainer/internal/testutil"
	"github.com/banshee-data/velocity.trainer/internal/timeutil"
	"github.com/banshee-data/velocity.trainer/internal/trainer"
	"github.com/banshee-data/velocity.trainer/internal/units"
)

func TestFlagDefaults(t *testing.T) {
	assert.False(t, *devMode)
	assert.Equal(t, "", *port)
	assert.Equal(t, notifymux.DefaultBaudRate, *baud)
	assert.Equal(t, "", *configFile)
	assert.Equal(t, "", *unitsFlag)
	assert.Equal(t, "", *fixtures)
	assert.False(t, *verbose)
	assert.False(t, *showVersion)
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultRiderConfig(), cfg)

	path := testutil.WriteTempFile(t, "rider.json", `{"mass": 95, "units": "mph"}`)
	cfg, err = loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 95.0, cfg.RiderParameters().Mass)

	_, err = loadConfig(filepath.Join(t.TempDir(), "rider.toml"))
	assert.Error(t, err)
}

func TestResolveUnits(t *testing.T) {
	cfg := config.DefaultRiderConfig()

	got, err := resolveUnits("", cfg)
	require.NoError(t, err)
	assert.Equal(t, units.KPH, got)

	got, err = resolveUnits(units.MPH, cfg)
	require.NoError(t, err)
	assert.Equal(t, units.MPH, got)

	_, err = resolveUnits("furlongs", cfg)
	assert.Error(t, err)
}

func TestOpenSource(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(0, 0))

	src, name, err := openSource(sourceOptions{}, sensors.ProfileSIG, clock)
	require.NoError(t, err)
	assert.Equal(t, "no sensors", name)
	assert.IsType(t, &notifymux.DisabledMux{}, src)
	require.NoError(t, src.Close())

	src, name, err = openSource(sourceOptions{dev: true, seed: 3}, sensors.ProfileSIG, clock)
	require.NoError(t, err)
	assert.Equal(t, "simulated sensors", name)
	require.NoError(t, src.Close())

	fixture := testutil.WriteTempFile(t, "ride.txt", "2a63 0000c800\n")
	src, name, err = openSource(sourceOptions{dev: true, fixtures: fixture}, sensors.ProfileSIG, clock)
	require.NoError(t, err)
	assert.Contains(t, name, "fixture")
	require.NoError(t, src.Close())

	_, _, err = openSource(sourceOptions{port: "/dev/does-not-exist-trainer-bridge"}, sensors.ProfileSIG, clock)
	assert.Error(t, err)
}

// TestFixtureRide wires a fixture through the same pipeline main uses.
func TestFixtureRide(t *testing.T) {
	fixture := testutil.WriteTempFile(t, "ride.txt", `# two power readings and a pedal stroke
2a37 00 7d
2a63 0000c800
2a5b 02 0100 0000
2a5b 02 0200 0002
2a63 0000 2c01
`)
	clock := timeutil.NewMockClock(time.Unix(0, 0))
	src, _, err := openSource(sourceOptions{fixtures: fixture}, sensors.ProfileSIG, clock)
	require.NoError(t, err)
	defer src.Close()

	session, err := trainer.NewSession(trainer.Config{Params: config.DefaultRiderConfig().RiderParameters(), Clock: clock})
	require.NoError(t, err)
	obs := trainer.NewChannelObserver(16)
	session.AddObserver(obs)

	_, c := src.Subscribe()
	go func() {
		if err := src.Monitor(context.Background()); err == nil {
			src.Close()
		}
	}()

	err = session.Run(context.Background(), c)
	require.True(t, err == nil || errors.Is(err, context.Canceled), "got %v", err)

	assert.Equal(t, sensors.Reading{BPM: 125, Watts: 300, RPM: 120}, session.Reading())
	assert.Len(t, obs.C, 4)
	last := session.Last()
	assert.Greater(t, last.TargetSpeed, 0.0)
	assert.Contains(t, formatUpdate(last, units.KPH), "watts=300")
}

func TestFormatRide(t *testing.T) {
	st := trainer.RideState{Speed: 10, TargetSpeed: 11.1, Distance: 1234.56, Elapsed: 90500 * time.Millisecond}
	assert.Equal(t, "ride: elapsed=1m30s speed=36.0 km/h target=40.0 km/h distance=1234.6m", formatRide(st, units.KPH))
}
