package pose

import "math"

// DefaultMinConfidence is the visibility cutoff applied when no
// explicit threshold is configured.
const DefaultMinConfidence = 0.5

// Angle2D returns the angle in degrees formed at center by a and b,
// measured in the image plane (x/y only). The result is always within
// [0, 180] for finite inputs.
func Angle2D(a, center, b Point3D) float64 {
	bearingA := math.Atan2(a.Y-center.Y, a.X-center.X)
	bearingB := math.Atan2(b.Y-center.Y, b.X-center.X)

	deg := math.Abs(bearingA-bearingB) * 180.0 / math.Pi
	if deg > 180.0 {
		deg = 360.0 - deg
	}
	return deg
}

// Angle3D returns the angle in degrees formed at center by the vectors
// center->a and center->b in full 3D space. If either vector has zero
// length the result is NaN. NaN propagates on purpose: threshold
// comparisons are false for NaN, so an indeterminate angle never
// trips a form rule.
func Angle3D(a, center, b Point3D) float64 {
	v1x := a.X - center.X
	v1y := a.Y - center.Y
	v1z := a.Z - center.Z
	v2x := b.X - center.X
	v2y := b.Y - center.Y
	v2z := b.Z - center.Z

	dot := v1x*v2x + v1y*v2y + v1z*v2z
	mag1 := math.Sqrt(v1x*v1x + v1y*v1y + v1z*v1z)
	mag2 := math.Sqrt(v2x*v2x + v2y*v2y + v2z*v2z)

	cos := dot / (mag1 * mag2)

	// Clamp floating point drift so acos stays defined at the
	// extremes. NaN fails both comparisons and passes through.
	if cos > 1.0 {
		cos = 1.0
	} else if cos < -1.0 {
		cos = -1.0
	}
	return math.Acos(cos) * 180.0 / math.Pi
}

// Distance2D returns the Euclidean distance between a and b in the
// image plane.
func Distance2D(a, b Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Distance3D returns the Euclidean distance between a and b.
func Distance3D(a, b Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Midpoint returns the point halfway between a and b. Its visibility
// is the minimum of the two inputs: a derived point is only as
// trustworthy as its least visible parent.
func Midpoint(a, b Point3D) Point3D {
	return Point3D{
		X:          (a.X + b.X) / 2.0,
		Y:          (a.Y + b.Y) / 2.0,
		Z:          (a.Z + b.Z) / 2.0,
		Visibility: math.Min(a.Visibility, b.Visibility),
	}
}

// IsVisible reports whether p's visibility strictly exceeds
// minConfidence. A visibility exactly at the cutoff does not count as
// visible.
func IsVisible(p Point3D, minConfidence float64) bool {
	return p.Visibility > minConfidence
}
