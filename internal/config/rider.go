package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/velocity.trainer/internal/physics"
	"github.com/banshee-data/velocity.trainer/internal/sensors"
	"github.com/banshee-data/velocity.trainer/internal/units"
)

// DefaultConfigPath is the path to the canonical rider defaults file.
const DefaultConfigPath = "config/rider.defaults.json"

// maxFileSize caps config files at 1MB.
const maxFileSize = 1 * 1024 * 1024

// RiderConfig is the root configuration of a trainer session. Every field is a
// pointer so that keys omitted from the JSON fall back to the Get* defaults.
type RiderConfig struct {
	// Drag model
	Cx              *float64 `json:"cx,omitempty"`
	RollingFriction *float64 `json:"rolling_friction,omitempty"`
	Mass            *float64 `json:"mass,omitempty"`          // rider + bike, kg
	SlopePercent    *float64 `json:"slope_percent,omitempty"` // road gradient
	Headwind        *float64 `json:"headwind,omitempty"`      // m/s at 10 m
	Elevation       *float64 `json:"elevation,omitempty"`     // m

	// Wheel
	WheelRadius *float64 `json:"wheel_radius,omitempty"` // mm
	WheelWeight *float64 `json:"wheel_weight,omitempty"` // kg

	// Session
	Profile      *string `json:"profile,omitempty"` // "sig" or "legacy"
	HistoryLimit *int    `json:"history_limit,omitempty"`
	Units        *string `json:"units,omitempty"`
	Tick         *string `json:"tick,omitempty"` // duration string like "100ms"
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyRiderConfig returns a RiderConfig with all fields set to nil.
func EmptyRiderConfig() *RiderConfig {
	return &RiderConfig{}
}

// DefaultRiderConfig returns a RiderConfig with every field populated with
// its default value.
func DefaultRiderConfig() *RiderConfig {
	p := physics.DefaultRiderParameters()
	return &RiderConfig{
		Cx:              ptrFloat64(p.Cx),
		RollingFriction: ptrFloat64(p.RollingFriction),
		Mass:            ptrFloat64(p.Mass),
		SlopePercent:    ptrFloat64(p.SlopePercent),
		Headwind:        ptrFloat64(p.Headwind),
		Elevation:       ptrFloat64(p.Elevation),
		WheelRadius:     ptrFloat64(p.WheelRadius),
		WheelWeight:     ptrFloat64(p.WheelWeight),
		Profile:         ptrString(sensors.ProfileSIG.String()),
		HistoryLimit:    ptrInt(defaultHistoryLimit),
		Units:           ptrString(units.KPH),
		Tick:            ptrString(defaultTick.String()),
	}
}

const (
	defaultHistoryLimit = 3600
	defaultTick         = 100 * time.Millisecond
)

// LoadRiderConfig loads a RiderConfig from a JSON file.
// The file must have a .json extension and be under 1MB. Fields omitted from
// the file keep their defaults, so partial configs are safe.
func LoadRiderConfig(path string) (*RiderConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyRiderConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *RiderConfig) Validate() error {
	if err := c.RiderParameters().Validate(); err != nil {
		return err
	}
	if c.WheelWeight != nil && *c.WheelWeight < 0 {
		return fmt.Errorf("wheel_weight must be non-negative, got %f", *c.WheelWeight)
	}
	if c.Profile != nil {
		if _, err := sensors.ParseProfile(*c.Profile); err != nil {
			return err
		}
	}
	if c.HistoryLimit != nil && *c.HistoryLimit < 0 {
		return fmt.Errorf("history_limit must be non-negative, got %d", *c.HistoryLimit)
	}
	if c.Units != nil && !units.IsValid(*c.Units) {
		return fmt.Errorf("invalid units %q, must be one of: %s", *c.Units, units.GetValidUnitsString())
	}
	if c.Tick != nil && *c.Tick != "" {
		d, err := time.ParseDuration(*c.Tick)
		if err != nil {
			return fmt.Errorf("invalid tick '%s': %w", *c.Tick, err)
		}
		if d <= 0 {
			return fmt.Errorf("tick must be positive, got %s", d)
		}
	}
	return nil
}

// RiderParameters returns the physics parameters, filling omitted fields with
// their defaults.
func (c *RiderConfig) RiderParameters() physics.RiderParameters {
	p := physics.DefaultRiderParameters()
	if c.Cx != nil {
		p.Cx = *c.Cx
	}
	if c.RollingFriction != nil {
		p.RollingFriction = *c.RollingFriction
	}
	if c.Mass != nil {
		p.Mass = *c.Mass
	}
	if c.SlopePercent != nil {
		p.SlopePercent = *c.SlopePercent
	}
	if c.Headwind != nil {
		p.Headwind = *c.Headwind
	}
	if c.Elevation != nil {
		p.Elevation = *c.Elevation
	}
	if c.WheelRadius != nil {
		p.WheelRadius = *c.WheelRadius
	}
	if c.WheelWeight != nil {
		p.WheelWeight = *c.WheelWeight
	}
	return p
}

// GetProfile returns the frame profile or sensors.ProfileSIG.
func (c *RiderConfig) GetProfile() sensors.Profile {
	if c.Profile == nil {
		return sensors.ProfileSIG
	}
	p, err := sensors.ParseProfile(*c.Profile)
	if err != nil {
		return sensors.ProfileSIG // default on parse error
	}
	return p
}

// GetHistoryLimit returns the history_limit value or the default.
// Zero means unbounded.
func (c *RiderConfig) GetHistoryLimit() int {
	if c.HistoryLimit == nil {
		return defaultHistoryLimit
	}
	return *c.HistoryLimit
}

// GetUnits returns the display speed unit or the default.
func (c *RiderConfig) GetUnits() string {
	if c.Units == nil || *c.Units == "" {
		return units.KPH
	}
	return *c.Units
}

// GetTick parses and returns the Tick as a time.Duration.
func (c *RiderConfig) GetTick() time.Duration {
	if c.Tick == nil || *c.Tick == "" {
		return defaultTick
	}
	d, err := time.ParseDuration(*c.Tick)
	if err != nil || d <= 0 {
		return defaultTick // default on parse error
	}
	return d
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents. Panics if the file cannot be loaded, intended
// for test setup.
func MustLoadDefaultConfig() *RiderConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadRiderConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}
