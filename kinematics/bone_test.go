package kinematics

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/fabrik/spatialmath"
)

func TestNewBone(t *testing.T) {
	b := NewBone(r3.Vector{X: 1, Y: 1, Z: 1}, r3.Vector{X: 1, Y: 4, Z: 5})
	test.That(t, b.Length(), test.ShouldAlmostEqual, 5)
	test.That(t, b.LiveLength(), test.ShouldAlmostEqual, 5)
	test.That(t, spatialmath.R3VectorAlmostEqual(b.DirectionUV(), r3.Vector{X: 0, Y: 0.6, Z: 0.8}, 1e-9), test.ShouldBeTrue)
	test.That(t, b.Joint().Type(), test.ShouldEqual, BallJoint)
	test.That(t, b.ConnectionPoint(), test.ShouldEqual, ConnectionEnd)
}

func TestNewBoneFromDirection(t *testing.T) {
	b, err := NewBoneFromDirection(r3.Vector{}, r3.Vector{Y: 10}, 2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, b.End(), test.ShouldResemble, r3.Vector{Y: 2})
	test.That(t, b.Length(), test.ShouldEqual, 2.)

	_, err = NewBoneFromDirection(r3.Vector{}, r3.Vector{}, 2)
	test.That(t, err, test.ShouldBeError, ErrZeroDirection)

	_, err = NewBoneFromDirection(r3.Vector{}, xAxis, -1)
	test.That(t, errors.Is(err, ErrInvalidLength), test.ShouldBeTrue)
	_, err = NewBoneFromDirection(r3.Vector{}, xAxis, math.NaN())
	test.That(t, errors.Is(err, ErrInvalidLength), test.ShouldBeTrue)
}

func TestBoneDirectionOfZeroLengthBone(t *testing.T) {
	b := NewBone(r3.Vector{X: 1, Y: 2, Z: 3}, r3.Vector{X: 1, Y: 2, Z: 3})
	test.That(t, b.Length(), test.ShouldEqual, 0.)
	test.That(t, b.DirectionUV(), test.ShouldResemble, r3.Vector{})
}

func TestBoneMovesKeepLength(t *testing.T) {
	b := NewBone(r3.Vector{}, xAxis)
	b.SetEndLocation(r3.Vector{X: 3})
	test.That(t, b.Length(), test.ShouldEqual, 1.)
	test.That(t, b.LiveLength(), test.ShouldAlmostEqual, 3)
	b.SetStartLocation(r3.Vector{X: 2})
	test.That(t, b.LiveLength(), test.ShouldAlmostEqual, 1)
}

func TestBoneCloneAndJoint(t *testing.T) {
	b := NewBone(r3.Vector{}, xAxis)
	b.SetName("upper")
	b.SetConnectionPoint(ConnectionStart)

	clone := b.Clone()
	test.That(t, clone.Name(), test.ShouldEqual, "upper")
	test.That(t, clone.ConnectionPoint(), test.ShouldEqual, ConnectionStart)
	test.That(t, clone.Joint().SetAsBallJoint(10), test.ShouldBeNil)
	test.That(t, b.Joint().RotorDegs(), test.ShouldEqual, MaxAngleDegs)

	hinge, err := NewHingeJoint(Global, zAxis, 10, 10, xAxis)
	test.That(t, err, test.ShouldBeNil)
	b.SetJoint(hinge)
	test.That(t, hinge.SetAsBallJoint(20), test.ShouldBeNil)
	test.That(t, b.Joint().Type(), test.ShouldEqual, GlobalHinge)
}
