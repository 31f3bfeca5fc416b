// Command trainer reads heart rate, power and cadence notifications from a
// BLE bridge, the built-in simulator or a recorded fixture, and logs the
// rider's target speed, acceleration and integrated ride.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/velocity.trainer/internal/config"
	"github.com/banshee-data/velocity.trainer/internal/monitoring"
	"github.com/banshee-data/velocity.trainer/internal/notifymux"
	"github.com/banshee-data/velocity.trainer/internal/sensors"
	"github.com/banshee-data/velocity.trainer/internal/timeutil"
	"github.com/banshee-data/velocity.trainer/internal/trainer"
	"github.com/banshee-data/velocity.trainer/internal/units"
	"github.com/banshee-data/velocity.trainer/internal/version"
)

var (
	devMode     = flag.Bool("dev", false, "Use simulated sensors instead of a bridge")
	port        = flag.String("port", "", "Serial port of the BLE bridge")
	baud        = flag.Int("baud", notifymux.DefaultBaudRate, "Baud rate of the BLE bridge")
	configFile  = flag.String("config", "", "Path to a rider config JSON file (built-in defaults when empty)")
	unitsFlag   = flag.String("units", "", "Speed display units: "+units.GetValidUnitsString()+" (overrides config)")
	fixtures    = flag.String("fixtures", "", "Replay notifications from a recorded file")
	seed        = flag.Int64("seed", 1, "Random seed for simulated sensors")
	verbose     = flag.Bool("verbose", false, "Log every decoded notification")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// statusInterval is how often the ride is logged.
const statusInterval = 5 * time.Second

// loadConfig returns the rider config at path, or the built-in defaults.
func loadConfig(path string) (*config.RiderConfig, error) {
	if path == "" {
		return config.DefaultRiderConfig(), nil
	}
	return config.LoadRiderConfig(path)
}

// resolveUnits prefers the -units flag over the config file.
func resolveUnits(flagValue string, cfg *config.RiderConfig) (string, error) {
	if flagValue == "" {
		return cfg.GetUnits(), nil
	}
	if !units.IsValid(flagValue) {
		return "", fmt.Errorf("invalid units %q, must be one of: %s", flagValue, units.GetValidUnitsString())
	}
	return flagValue, nil
}

type sourceOptions struct {
	dev      bool
	port     string
	baud     int
	fixtures string
	seed     int64
}

// openSource picks the notification source: a fixture replay, then simulated
// sensors, then a real bridge. Without any of them sensors are disabled.
func openSource(opts sourceOptions, profile sensors.Profile, clock timeutil.Clock) (notifymux.NotificationMux, string, error) {
	switch {
	case opts.fixtures != "":
		m, err := notifymux.NewFixtureMux(opts.fixtures)
		if err != nil {
			return nil, "", err
		}
		return m, "fixture " + opts.fixtures, nil
	case opts.dev:
		return notifymux.NewMockMux(profile, opts.seed, clock), "simulated sensors", nil
	case opts.port != "":
		m, err := notifymux.NewRealMux(opts.port, notifymux.PortOptions{BaudRate: opts.baud})
		if err != nil {
			return nil, "", err
		}
		return m, "bridge " + opts.port, nil
	default:
		return notifymux.NewDisabledMux(), "no sensors", nil
	}
}

func formatUpdate(u trainer.Update, unit string) string {
	return fmt.Sprintf("%s: bpm=%d watts=%d rpm=%.0f target=%s accel=%.6fm/s²",
		u.Source, u.BPM, u.Watts, u.RPM, units.FormatSpeed(u.TargetSpeed, unit), u.Acceleration)
}

func formatRide(st trainer.RideState, unit string) string {
	return fmt.Sprintf("ride: elapsed=%s speed=%s target=%s distance=%.1fm",
		st.Elapsed.Truncate(time.Second), units.FormatSpeed(st.Speed, unit), units.FormatSpeed(st.TargetSpeed, unit), st.Distance)
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	monitoring.SetVerbose(*verbose)

	cfg, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	unit, err := resolveUnits(*unitsFlag, cfg)
	if err != nil {
		log.Fatal(err)
	}

	clock := timeutil.RealClock{}
	session, err := trainer.NewSession(trainer.Config{
		Params:       cfg.RiderParameters(),
		Profile:      cfg.GetProfile(),
		HistoryLimit: cfg.GetHistoryLimit(),
		Clock:        clock,
	})
	if err != nil {
		log.Fatalf("failed to create session: %v", err)
	}
	ride := trainer.NewRide(trainer.DefaultCoastDeceleration)
	session.AddObserver(ride)
	session.AddObserver(trainer.ObserverFunc(func(u trainer.Update) {
		log.Print(formatUpdate(u, unit))
	}))

	source, name, err := openSource(sourceOptions{
		dev:      *devMode,
		port:     *port,
		baud:     *baud,
		fixtures: *fixtures,
		seed:     *seed,
	}, cfg.GetProfile(), clock)
	if err != nil {
		log.Fatalf("failed to open sensor source: %v", err)
	}
	defer source.Close()

	if err := source.Initialize(); err != nil {
		log.Fatalf("failed to initialize %s: %v", name, err)
	}
	log.Printf("trainer %s reading from %s (profile %s, mass %.1fkg)", version.Version, name, cfg.GetProfile(), cfg.RiderParameters().Mass)

	// subscribe before monitoring so a replay loses nothing
	id, c := source.Subscribe()

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// monitor routine: manages IO on the source
	wg.Add(1)
	go func() {
		defer wg.Done()
		err := source.Monitor(ctx)
		switch {
		case err == nil:
			// source exhausted: closing it lets the session drain what is buffered
			log.Printf("%s exhausted", name)
			source.Close()
		case !errors.Is(err, context.Canceled):
			log.Printf("failed to monitor %s: %v", name, err)
			stop()
		}
		log.Print("monitor routine terminated")
	}()

	// session routine: the single writer of rider state
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer stop()
		defer source.Unsubscribe(id)
		if err := session.Run(ctx, c); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("session stopped: %v", err)
		}
		log.Print("session routine terminated")
	}()

	// ride routine: integrates speed and distance every tick
	wg.Add(1)
	go func() {
		defer wg.Done()
		tick := cfg.GetTick()
		ticker := clock.NewTicker(tick)
		defer ticker.Stop()
		status := clock.NewTicker(statusInterval)
		defer status.Stop()
		for {
			select {
			case <-ticker.C():
				ride.Step(tick)
			case <-status.C():
				log.Print(formatRide(ride.State(), unit))
			case <-ctx.Done():
				log.Print("ride routine terminated")
				return
			}
		}
	}()

	wg.Wait()

	sum := session.Summaries()
	log.Print(formatRide(ride.State(), unit))
	log.Printf("summary: bpm mean=%.0f max=%.0f, watts mean=%.0f max=%.0f, rpm mean=%.0f (%d readings)",
		sum.BPM.Mean, sum.BPM.Max, sum.Watts.Mean, sum.Watts.Max, sum.RPM.Mean, sum.Watts.Count)
	log.Printf("Graceful shutdown complete")
}
