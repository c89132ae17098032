package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/floats/scalar"

	"go.viam.com/fabrik/utils"
)

// perpendicularTolerance is the largest |cos| between two unit vectors that are still considered perpendicular.
const perpendicularTolerance = 0.01

// R3VectorAlmostEqual compares two r3.Vector objects and returns if the all elementwise differences are within epsilon.
func R3VectorAlmostEqual(a, b r3.Vector, epsilon float64) bool {
	return scalar.EqualWithinAbs(a.X, b.X, epsilon) &&
		scalar.EqualWithinAbs(a.Y, b.Y, epsilon) &&
		scalar.EqualWithinAbs(a.Z, b.Z, epsilon)
}

// AngleBetween returns the unsigned angle in radians between a and b. Zero vectors yield pi/2.
func AngleBetween(a, b r3.Vector) float64 {
	return math.Acos(utils.Clamp(a.Normalize().Dot(b.Normalize()), -1, 1))
}

// SignedAngleBetween returns the angle in radians from reference to other, positive when the rotation from reference to
// other is anticlockwise about normal.
func SignedAngleBetween(reference, other, normal r3.Vector) float64 {
	return AngleBetween(reference, other) * utils.Sign(reference.Cross(other).Dot(normal))
}

// IsPerpendicular reports whether a and b are perpendicular within a small tolerance.
func IsPerpendicular(a, b r3.Vector) bool {
	return math.Abs(a.Normalize().Dot(b.Normalize())) <= perpendicularTolerance
}

// PerpendicularQuick returns a unit vector perpendicular to v. It crosses with the y axis unless v is nearly parallel to
// it, in which case the x axis is used.
func PerpendicularQuick(v r3.Vector) r3.Vector {
	if math.Abs(v.Normalize().Y) < 0.99 {
		return r3.Vector{X: -v.Z, Y: 0, Z: v.X}.Normalize()
	}
	return r3.Vector{X: 0, Y: v.Z, Z: -v.Y}.Normalize()
}

// ProjectOnPlane projects v onto the plane through the origin with the given normal and returns the normalised result.
// The zero vector is returned if v is parallel to the normal.
func ProjectOnPlane(v, normal r3.Vector) r3.Vector {
	n := normal.Normalize()
	return v.Sub(n.Mul(v.Dot(n))).Normalize()
}

// RotateAboutAxis rotates v by theta radians about axis following the right hand rule. A zero axis leaves v unchanged.
func RotateAboutAxis(v, axis r3.Vector, theta float64) r3.Vector {
	if axis.Norm2() == 0 {
		return v
	}
	return NewR4AAFromAxis(axis, theta).Rotate(v)
}

// LimitAngle keeps direction within a cone of half angle maxTheta radians around baseline. A direction already inside
// the cone is returned normalised; otherwise the result is baseline rotated toward direction by exactly maxTheta.
func LimitAngle(direction, baseline r3.Vector, maxTheta float64) r3.Vector {
	dir := direction.Normalize()
	base := baseline.Normalize()
	if base.Norm2() == 0 || AngleBetween(dir, base) <= maxTheta {
		return dir
	}
	correctionAxis := base.Cross(dir).Normalize()
	if correctionAxis.Norm2() == 0 {
		// direction is opposite the baseline, any perpendicular is as good as another
		correctionAxis = PerpendicularQuick(base)
	}
	return RotateAboutAxis(base, correctionAxis, maxTheta).Normalize()
}

// ClampAboutAxis limits the signed rotation of direction away from reference about axis. Rotations past acwTheta
// (anticlockwise, positive) or cwTheta (clockwise, negative) snap to the reference rotated by that limit. Both direction
// and reference are expected to lie in the plane normal to axis.
func ClampAboutAxis(direction, reference, axis r3.Vector, cwTheta, acwTheta float64) r3.Vector {
	signed := SignedAngleBetween(reference, direction, axis)
	switch {
	case signed > acwTheta:
		return RotateAboutAxis(reference.Normalize(), axis, acwTheta).Normalize()
	case signed < -cwTheta:
		return RotateAboutAxis(reference.Normalize(), axis, -cwTheta).Normalize()
	default:
		return direction
	}
}
