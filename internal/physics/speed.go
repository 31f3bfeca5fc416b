package physics

import (
	"errors"
	"fmt"
	"math"
)

// Gravity is the standard gravitational acceleration in m/s².
const Gravity = 9.81

// StandstillAcceleration is returned by Acceleration when the wheel is not
// turning, where torque = power/ω is undefined.
const StandstillAcceleration = 0.001

// windGradient scales a wind speed measured at 10 m down to road level.
var windGradient = math.Pow(0.1, 0.143)

// ErrInvalidParameters is returned by RiderParameters.Validate.
var ErrInvalidParameters = errors.New("invalid rider parameters")

// RiderParameters holds the power-independent constants of a ride. They are
// fixed for a session.
type RiderParameters struct {
	Cx              float64 `json:"cx"`               // air penetration coefficient
	RollingFriction float64 `json:"rolling_friction"` // f
	Mass            float64 `json:"mass"`             // rider + bike, kg
	SlopePercent    float64 `json:"slope_percent"`
	Headwind        float64 `json:"headwind"`     // m/s at 10 m
	Elevation       float64 `json:"elevation"`    // m
	WheelRadius     float64 `json:"wheel_radius"` // mm
	WheelWeight     float64 `json:"wheel_weight"` // kg, per wheel
}

// DefaultRiderParameters returns an 80 kg rider on a flat road with no wind
// and a 315 mm, 1 kg wheel.
func DefaultRiderParameters() RiderParameters {
	return RiderParameters{
		Cx:              0.25,
		RollingFriction: 0.1,
		Mass:            80,
		WheelRadius:     315,
		WheelWeight:     1,
	}
}

// Validate checks that mass and wheel radius are positive.
func (p RiderParameters) Validate() error {
	if !(p.Mass > 0) {
		return fmt.Errorf("%w: mass must be positive, got %v", ErrInvalidParameters, p.Mass)
	}
	if !(p.WheelRadius > 0) {
		return fmt.Errorf("%w: wheel radius must be positive, got %v", ErrInvalidParameters, p.WheelRadius)
	}
	return nil
}

// Speed returns the steady-state speed in m/s for the given power.
func (p RiderParameters) Speed(power float64) float64 {
	return SpeedMetersPerSecond(power, p.Cx, p.RollingFriction, p.Mass, p.SlopePercent, p.Headwind, p.Elevation)
}

// Acceleration returns the wheel acceleration in m/s² for the given power at
// the given speed.
func (p RiderParameters) Acceleration(power, speed float64) float64 {
	return Acceleration(power, p.Mass, p.WheelWeight, p.WheelRadius, speed)
}

// SpeedMetersPerSecond solves the drag equation for speed.
//
// power is in watts, Cx is the air penetration coefficient, f the rolling
// friction coefficient, W the combined rider and bike mass in kg, slope a
// percentage, headwind in m/s measured at 10 m and elevation in metres.
//
// The first root returned by SolveCubic is used as the speed. Negative or
// missing roots yield 0: the rider never moves backwards. Zero power always
// yields exactly 0.
func SpeedMetersPerSecond(power, Cx, f, W, slope, headwind, elevation float64) float64 {
	if power == 0 {
		return 0
	}

	airPressure := 1 - 0.000104*elevation
	airPenetration := Cx * airPressure
	headwindAtRoad := windGradient * headwind

	roots := SolveCubic(
		airPenetration,
		2*airPenetration*headwindAtRoad,
		airPenetration*headwindAtRoad*headwindAtRoad+W*Gravity*(slope/100+f),
		-power,
	)
	if len(roots) == 0 {
		return 0
	}

	// NaN fails the comparison and is clamped too
	if speed := roots[0]; speed > 0 {
		return speed
	}
	return 0
}

// Acceleration converts power at the current speed into wheel acceleration.
//
// totalMass is rider + bike in kg, wheelWeight is per wheel in kg,
// wheelRadius is in mm and speed in m/s. A stationary wheel returns
// StandstillAcceleration.
func Acceleration(power, totalMass, wheelWeight, wheelRadius, speed float64) float64 {
	circumference := wheelRadius * 2 * math.Pi / 1000
	angularVelocity := (speed / circumference) * 2 * math.Pi

	if angularVelocity == 0 {
		return StandstillAcceleration
	}

	torque := power / angularVelocity
	wheelInertia := wheelWeight * wheelRadius * wheelRadius
	return torque / (wheelRadius*totalMass + 2*wheelInertia/wheelRadius)
}
