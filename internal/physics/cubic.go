// Package physics converts rider power into road speed and wheel acceleration.
//
// The speed model inverts the steady-state drag equation
//
//	P = Cx·(v+w)²·v + W·g·(slope+f)·v
//
// which is a cubic in v, so the package carries a small closed-form real-root
// solver for cubic, quadratic and linear polynomials.
package physics

import "math"

// Epsilon is the threshold below which a coefficient or discriminant is
// treated as zero.
const Epsilon = 1e-8

// Cuberoot returns the real cube root of x, keeping the sign of x.
func Cuberoot(x float64) float64 {
	y := math.Cbrt(math.Abs(x))
	if x < 0 {
		return -y
	}
	return y
}

// Polynomial evaluates a·x³ + b·x² + c·x + d.
func Polynomial(a, b, c, d, x float64) float64 {
	return ((a*x+b)*x+c)*x + d
}

// SolveCubic returns the real roots of a·x³ + b·x² + c·x + d = 0.
//
// Leading coefficients below Epsilon reduce the degree, checked in the order
// a, b, c. The result holds zero to three roots; complex roots are dropped and
// a fully degenerate polynomial yields an empty slice. Roots are returned in
// derivation order:
//
//   - quadratic: (-c+√D)/2b before (-c-√D)/2b
//   - cubic, three real roots: u·cos(t), u·cos(t-2π/3), u·cos(t-4π/3)
//
// SolveCubic never fails and has no side effects.
func SolveCubic(a, b, c, d float64) []float64 {
	if math.Abs(a) < Epsilon {
		return solveQuadratic(b, c, d)
	}

	// depressed cubic t³ + pt + q = 0, substituting x = t - b/3a
	p := (3*a*c - b*b) / (3 * a * a)
	q := (2*b*b*b - 9*a*b*c + 27*a*a*d) / (27 * a * a * a)

	var roots []float64
	switch {
	case math.Abs(p) < Epsilon:
		roots = []float64{Cuberoot(-q)}

	case math.Abs(q) < Epsilon:
		roots = []float64{0}
		if p < 0 {
			roots = append(roots, math.Sqrt(-p), -math.Sqrt(-p))
		}

	default:
		D := q*q/4 + p*p*p/27
		switch {
		case math.Abs(D) < Epsilon:
			roots = []float64{-1.5 * q / p, 3 * q / p}
		case D > 0:
			u := Cuberoot(-q/2 - math.Sqrt(D))
			roots = []float64{u - p/(3*u)}
		default:
			// D < 0 implies p < 0, so the acos argument lies in [-1, 1]
			u := 2 * math.Sqrt(-p/3)
			t := math.Acos(3*q/p/u) / 3
			k := 2 * math.Pi / 3
			roots = []float64{u * math.Cos(t), u * math.Cos(t-k), u * math.Cos(t-2*k)}
		}
	}

	shift := b / (3 * a)
	for i := range roots {
		roots[i] -= shift
	}
	return roots
}

// solveQuadratic handles a·x² + b·x + c = 0, falling through to the linear
// case when a vanishes.
func solveQuadratic(a, b, c float64) []float64 {
	if math.Abs(a) < Epsilon {
		return solveLinear(b, c)
	}

	D := b*b - 4*a*c
	switch {
	case math.Abs(D) < Epsilon:
		return []float64{-b / (2 * a)}
	case D > 0:
		sqrtD := math.Sqrt(D)
		return []float64{(-b + sqrtD) / (2 * a), (-b - sqrtD) / (2 * a)}
	default:
		return []float64{}
	}
}

func solveLinear(a, b float64) []float64 {
	if math.Abs(a) < Epsilon {
		return []float64{}
	}
	return []float64{-b / a}
}
