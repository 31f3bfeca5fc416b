package trainer

import (
	"math"
	"sync"
	"time"

	"github.com/banshee-data/velocity.trainer/internal/physics"
)

// DefaultCoastDeceleration is used by NewRide when no positive deceleration
// is given.
const DefaultCoastDeceleration = 0.5 // m/s²

// RideState is a snapshot of a Ride.
type RideState struct {
	Speed       float64       `json:"speed"`        // m/s
	TargetSpeed float64       `json:"target_speed"` // m/s
	Distance    float64       `json:"distance"`     // m
	Elapsed     time.Duration `json:"elapsed"`
}

// Ride integrates the rider's speed over time. It speeds up toward the
// latest target speed at the computed acceleration and slows down at a fixed
// coasting deceleration. Ride is an Observer and is safe to Step from another
// goroutine.
type Ride struct {
	mu       sync.Mutex
	coast    float64
	speed    float64
	target   float64
	accel    float64
	distance float64
	elapsed  time.Duration
}

// NewRide returns a stationary ride.
func NewRide(coastDeceleration float64) *Ride {
	if !(coastDeceleration > 0) {
		coastDeceleration = DefaultCoastDeceleration
	}
	return &Ride{coast: coastDeceleration}
}

// OnUpdate takes the target speed and acceleration from u.
func (r *Ride) OnUpdate(u Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.target = math.Max(0, u.TargetSpeed)
	r.accel = u.Acceleration
}

// Step advances the ride by dt. Speed never passes the target within a step
// and never goes negative.
func (r *Ride) Step(dt time.Duration) RideState {
	r.mu.Lock()
	defer r.mu.Unlock()

	if dt <= 0 {
		return r.stateLocked()
	}
	secs := dt.Seconds()

	var dist float64
	switch {
	case r.speed < r.target:
		dist, r.speed = approach(r.speed, r.target, math.Max(r.accel, physics.StandstillAcceleration), secs)
	case r.speed > r.target:
		dist, r.speed = approach(r.speed, r.target, -r.coast, secs)
	default:
		dist = r.speed * secs
	}
	r.distance += dist
	r.elapsed += dt
	return r.stateLocked()
}

// State returns the current snapshot.
func (r *Ride) State() RideState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stateLocked()
}

func (r *Ride) stateLocked() RideState {
	return RideState{
		Speed:       r.speed,
		TargetSpeed: r.target,
		Distance:    r.distance,
		Elapsed:     r.elapsed,
	}
}

// approach moves v toward target at the signed rate a over dt seconds. If the
// target is reached mid-step the remainder is spent cruising at target.
// Returns (distance travelled, new speed).
func approach(v, target, a, dt float64) (float64, float64) {
	tToTarget := (target - v) / a
	if tToTarget <= dt {
		s1 := v*tToTarget + 0.5*a*tToTarget*tToTarget
		s2 := target * (dt - tToTarget)
		return s1 + s2, target
	}
	return v*dt + 0.5*a*dt*dt, v + a*dt
}
