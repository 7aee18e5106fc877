package physics

import "math"

// Sqrt is math.Sqrt with an explicit failure for negative input. Geometry code
// guards its discriminants first, so an error here is an invariant violation.
func Sqrt(x float64) (float64, error) {
	if x < 0 {
		return 0, ErrNegativeSqrt
	}
	return math.Sqrt(x), nil
}

func NearlyEqual(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

func nearlyZero(x float64) bool { return math.Abs(x) < Epsilon }

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(x, hi))
}

func clamp01(x float64) float64 { return clamp(x, 0, 1) }

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// smallestRootInRange solves a·t² + b·t + c = 0 and returns the smallest root
// inside [lo, hi]. a must be non-zero.
func smallestRootInRange(a, b, c, lo, hi float64) (float64, bool) {
	disc := b*b - 4*a*c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	t0 := (-b - sq) / (2 * a)
	t1 := (-b + sq) / (2 * a)
	if t0 > t1 {
		t0, t1 = t1, t0
	}
	if t0 >= lo && t0 <= hi {
		return t0, true
	}
	if t1 >= lo && t1 <= hi {
		return t1, true
	}
	return 0, false
}
