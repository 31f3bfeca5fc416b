// Package units provides shared constants and validation for speed units
package units

import "fmt"

// Unit constants
const (
	MPS  = "mps"
	MPH  = "mph"
	KMPH = "kmph"
	KPH  = "kph"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{MPS, MPH, KMPH, KPH}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "mps, mph, kmph, kph"
}

// ConvertSpeed converts a speed from meters per second to the target units.
// The physics engine works in m/s throughout; conversion happens only for
// display.
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPS:
		return speedMPS
	case MPH:
		return speedMPS * 2.2369362920544
	case KMPH, KPH:
		return speedMPS * 3.6
	default:
		return speedMPS
	}
}

// Symbol returns the display suffix for a unit, defaulting to m/s.
func Symbol(unit string) string {
	switch unit {
	case MPH:
		return "mph"
	case KMPH, KPH:
		return "km/h"
	default:
		return "m/s"
	}
}

// FormatSpeed renders a speed given in m/s in the target units with one
// decimal, e.g. "32.4 km/h".
func FormatSpeed(speedMPS float64, targetUnits string) string {
	return fmt.Sprintf("%.1f %s", ConvertSpeed(speedMPS, targetUnits), Symbol(targetUnits))
}
