package sensors

import (
	"time"

	"golang.org/x/exp/constraints"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Number is the set of value types a History can hold.
type Number interface {
	constraints.Integer | constraints.Float
}

// Point is a timestamped value.
type Point[T Number] struct {
	Time  time.Time `json:"time"`
	Value T         `json:"value"`
}

// History is an append-only, insertion-ordered sequence of points. When a
// limit is set the oldest points are dropped first.
type History[T Number] struct {
	limit  int
	points []Point[T]
}

// NewHistory returns an empty history holding at most limit points, or an
// unbounded one if limit <= 0.
func NewHistory[T Number](limit int) *History[T] {
	return &History[T]{limit: limit}
}

// Append adds a point at the end of the history.
func (h *History[T]) Append(at time.Time, v T) {
	h.points = append(h.points, Point[T]{Time: at, Value: v})
	if h.limit > 0 && len(h.points) > h.limit {
		// copy down so the backing array does not grow without bound
		n := copy(h.points, h.points[len(h.points)-h.limit:])
		h.points = h.points[:n]
	}
}

// Len returns the number of points held.
func (h *History[T]) Len() int { return len(h.points) }

// Limit returns the configured cap, or 0 when unbounded.
func (h *History[T]) Limit() int {
	if h.limit <= 0 {
		return 0
	}
	return h.limit
}

// Points returns a copy of the held points, oldest first.
func (h *History[T]) Points() []Point[T] {
	out := make([]Point[T], len(h.points))
	copy(out, h.points)
	return out
}

// Last returns the newest point.
func (h *History[T]) Last() (Point[T], bool) {
	if len(h.points) == 0 {
		return Point[T]{}, false
	}
	return h.points[len(h.points)-1], true
}

// Summary describes the values of a history.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summary computes count, mean, sample standard deviation, min and max over
// the held values. An empty history gives a zero Summary.
func (h *History[T]) Summary() Summary {
	if len(h.points) == 0 {
		return Summary{}
	}
	values := make([]float64, len(h.points))
	for i, p := range h.points {
		values[i] = float64(p.Value)
	}

	s := Summary{
		Count: len(values),
		Min:   floats.Min(values),
		Max:   floats.Max(values),
	}
	if len(values) < 2 {
		s.Mean = values[0]
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(values, nil)
	return s
}
