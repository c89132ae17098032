package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestR4AA(t *testing.T) {
	aa := NewR4AAFromAxis(r3.Vector{Z: 2}, math.Pi/2)
	q := aa.ToQuat()
	test.That(t, q.Real, test.ShouldAlmostEqual, math.Cos(math.Pi/4))
	test.That(t, q.Kmag, test.ShouldAlmostEqual, math.Sin(math.Pi/4))
	// ToQuat leaves the axis normalised
	test.That(t, aa.RZ, test.ShouldAlmostEqual, 1)

	rotated := aa.Rotate(xAxis)
	test.That(t, R3VectorAlmostEqual(rotated, yAxis, 1e-9), test.ShouldBeTrue)

	test.That(t, func() { (&R4AA{Theta: 1}).Normalize() }, test.ShouldPanic)
}
