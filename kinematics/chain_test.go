package kinematics

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/fabrik/logging"
)

// newStraightChain builds a chain of unit length bones pointing along direction from the origin.
func newStraightChain(t *testing.T, logger logging.Logger, direction r3.Vector, numBones int) *Chain {
	t.Helper()
	c := NewChain("test", logger)
	c.AddBone(NewBone(r3.Vector{}, direction.Normalize()))
	for i := 1; i < numBones; i++ {
		test.That(t, c.AddConsecutiveBone(direction, 1), test.ShouldBeNil)
	}
	return c
}

func TestNewChainDefaults(t *testing.T) {
	c := NewChain("arm", logging.NewTestLogger(t))
	test.That(t, c.Name(), test.ShouldEqual, "arm")
	test.That(t, c.NumBones(), test.ShouldEqual, 0)
	test.That(t, c.FixedBaseMode(), test.ShouldBeTrue)
	test.That(t, c.SolveDistanceThreshold(), test.ShouldEqual, 1.)
	test.That(t, c.MinIterationChange(), test.ShouldEqual, 0.01)
	test.That(t, c.MaxIterationAttempts(), test.ShouldEqual, 20)
	test.That(t, c.Precision(), test.ShouldEqual, 0.001)
	test.That(t, c.BaseboneConstraintType(), test.ShouldEqual, BaseboneConstraintNone)
	test.That(t, c.LastSolveStatus(), test.ShouldEqual, SolveStatusUnsolved)
	test.That(t, c.ConnectedChainNumber(), test.ShouldEqual, -1)
	test.That(t, c.ConnectedBoneNumber(), test.ShouldEqual, -1)
	test.That(t, c.EffectorLocation(), test.ShouldResemble, r3.Vector{})

	_, ok := c.BaseboneConstraintUV()
	test.That(t, ok, test.ShouldBeFalse)

	test.That(t, NewChain("global", nil), test.ShouldNotBeNil)
}

func TestAddBones(t *testing.T) {
	c := NewChain("arm", logging.NewTestLogger(t))

	err := c.AddConsecutiveBone(yAxis, 1)
	test.That(t, err, test.ShouldBeError, ErrEmptyChain)
	err = c.AddConsecutiveRotorConstrainedBone(yAxis, 1, 10)
	test.That(t, err, test.ShouldBeError, ErrEmptyChain)

	c.AddBone(NewBone(r3.Vector{X: 1, Y: 0, Z: 0}, r3.Vector{X: 1, Y: 2, Z: 0}))
	test.That(t, c.BaseLocation(), test.ShouldResemble, r3.Vector{X: 1, Y: 0, Z: 0})
	uv, _ := c.BaseboneConstraintUV()
	test.That(t, uv, test.ShouldResemble, yAxis)

	test.That(t, c.AddConsecutiveBone(xAxis, 3), test.ShouldBeNil)
	test.That(t, c.AddConsecutiveRotorConstrainedBone(zAxis, 1, 30), test.ShouldBeNil)
	test.That(t, c.AddConsecutiveHingedBone(zAxis, 1, Local, xAxis, 20, 40, yAxis), test.ShouldBeNil)
	test.That(t, c.AddConsecutiveFreelyRotatingHingedBone(zAxis, 1, Global, yAxis), test.ShouldBeNil)

	test.That(t, c.NumBones(), test.ShouldEqual, 5)
	test.That(t, c.ChainLength(), test.ShouldAlmostEqual, 8)
	test.That(t, c.LiveChainLength(), test.ShouldAlmostEqual, 8)
	test.That(t, c.EffectorLocation(), test.ShouldResemble, r3.Vector{X: 4, Y: 2, Z: 3})

	b, err := c.Bone(2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, b.Start(), test.ShouldResemble, r3.Vector{X: 4, Y: 2, Z: 0})
	test.That(t, b.Joint().RotorDegs(), test.ShouldEqual, 30.)

	b, err = c.Bone(3)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, b.Joint().Type(), test.ShouldEqual, LocalHinge)

	b, err = c.Bone(4)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, b.Joint().Type(), test.ShouldEqual, GlobalHinge)
	test.That(t, b.Joint().IsFreeHinge(), test.ShouldBeTrue)

	err = c.AddConsecutiveHingedBone(zAxis, 1, Global, xAxis, 10, 10, xAxis)
	test.That(t, err, test.ShouldBeError, ErrAxesNotPerpendicular)
	err = c.AddConsecutiveBone(r3.Vector{}, 1)
	test.That(t, err, test.ShouldBeError, ErrZeroDirection)
	test.That(t, c.NumBones(), test.ShouldEqual, 5)
}

func TestRemoveAndClearBones(t *testing.T) {
	c := newStraightChain(t, logging.NewTestLogger(t), yAxis, 3)

	_, err := c.Bone(3)
	test.That(t, errors.Is(err, ErrBoneIndexOutOfRange), test.ShouldBeTrue)
	err = c.RemoveBone(-1)
	test.That(t, errors.Is(err, ErrBoneIndexOutOfRange), test.ShouldBeTrue)

	test.That(t, c.RemoveBone(2), test.ShouldBeNil)
	test.That(t, c.NumBones(), test.ShouldEqual, 2)
	test.That(t, c.ChainLength(), test.ShouldAlmostEqual, 2)

	c.Clear()
	test.That(t, c.NumBones(), test.ShouldEqual, 0)
	test.That(t, c.ChainLength(), test.ShouldEqual, 0.)
	test.That(t, c.BaseLocation(), test.ShouldResemble, r3.Vector{})
}

func TestSolverParameters(t *testing.T) {
	c := NewChain("arm", logging.NewTestLogger(t))

	test.That(t, c.SetMaxIterationAttempts(5), test.ShouldBeNil)
	test.That(t, c.MaxIterationAttempts(), test.ShouldEqual, 5)
	err := c.SetMaxIterationAttempts(0)
	test.That(t, errors.Is(err, ErrInvalidParameter), test.ShouldBeTrue)
	test.That(t, c.MaxIterationAttempts(), test.ShouldEqual, 5)

	test.That(t, c.SetMinIterationChange(0), test.ShouldBeNil)
	err = c.SetMinIterationChange(-0.1)
	test.That(t, errors.Is(err, ErrInvalidParameter), test.ShouldBeTrue)

	test.That(t, c.SetSolveDistanceThreshold(0.5), test.ShouldBeNil)
	test.That(t, c.SolveDistanceThreshold(), test.ShouldEqual, 0.5)
	err = c.SetSolveDistanceThreshold(-2)
	test.That(t, errors.Is(err, ErrInvalidParameter), test.ShouldBeTrue)
	test.That(t, c.SolveDistanceThreshold(), test.ShouldEqual, 0.5)
}

func TestSetFixedBaseMode(t *testing.T) {
	t.Run("free chain", func(t *testing.T) {
		c := newStraightChain(t, logging.NewTestLogger(t), yAxis, 2)
		test.That(t, c.SetFixedBaseMode(false), test.ShouldBeNil)
		test.That(t, c.FixedBaseMode(), test.ShouldBeFalse)
	})
	t.Run("connected chain", func(t *testing.T) {
		logger, logs := logging.NewObservedTestLogger(t)
		c := newStraightChain(t, logger, yAxis, 2)
		c.SetConnectedChainNumber(0)
		c.SetConnectedBoneNumber(1)
		c.SetBoneConnectionPoint(ConnectionStart)
		test.That(t, c.BoneConnectionPoint(), test.ShouldEqual, ConnectionStart)

		err := c.SetFixedBaseMode(false)
		test.That(t, errors.Is(err, ErrFixedBaseRequired), test.ShouldBeTrue)
		test.That(t, c.FixedBaseMode(), test.ShouldBeTrue)
		test.That(t, logs.FilterMessage("refusing to free the base of a connected chain").Len(), test.ShouldEqual, 1)
	})
	t.Run("global rotor basebone", func(t *testing.T) {
		c := newStraightChain(t, logging.NewTestLogger(t), yAxis, 2)
		test.That(t, c.SetRotorBaseboneConstraint(Global, yAxis, 30), test.ShouldBeNil)
		err := c.SetFixedBaseMode(false)
		test.That(t, errors.Is(err, ErrFixedBaseRequired), test.ShouldBeTrue)
	})
}

func TestBaseboneConstraints(t *testing.T) {
	t.Run("empty chain", func(t *testing.T) {
		c := NewChain("arm", logging.NewTestLogger(t))
		test.That(t, c.SetRotorBaseboneConstraint(Global, yAxis, 30), test.ShouldBeError, ErrEmptyChain)
		test.That(t, c.SetGlobalHingedBasebone(zAxis, 10, 10, xAxis), test.ShouldBeError, ErrEmptyChain)
	})
	t.Run("rotor", func(t *testing.T) {
		c := newStraightChain(t, logging.NewTestLogger(t), yAxis, 2)
		test.That(t, c.SetRotorBaseboneConstraint(Local, r3.Vector{X: 2}, 30), test.ShouldBeNil)
		test.That(t, c.BaseboneConstraintType(), test.ShouldEqual, BaseboneConstraintLocalRotor)
		uv, ok := c.BaseboneConstraintUV()
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, uv, test.ShouldResemble, xAxis)
		test.That(t, c.BaseboneRelativeConstraintUV(), test.ShouldResemble, xAxis)
		test.That(t, c.Bones()[0].Joint().RotorDegs(), test.ShouldEqual, 30.)

		err := c.SetRotorBaseboneConstraint(Global, r3.Vector{}, 30)
		test.That(t, errors.Is(err, ErrZeroAxis), test.ShouldBeTrue)
		err = c.SetRotorBaseboneConstraint(Global, xAxis, -30)
		test.That(t, errors.Is(err, ErrInvalidAngle), test.ShouldBeTrue)
		test.That(t, c.BaseboneConstraintType(), test.ShouldEqual, BaseboneConstraintLocalRotor)
	})
	t.Run("hinges", func(t *testing.T) {
		c := newStraightChain(t, logging.NewTestLogger(t), yAxis, 2)

		test.That(t, c.SetGlobalHingedBasebone(zAxis, 10, 20, xAxis), test.ShouldBeNil)
		test.That(t, c.BaseboneConstraintType(), test.ShouldEqual, BaseboneConstraintGlobalHinge)
		test.That(t, c.Bones()[0].Joint().Type(), test.ShouldEqual, GlobalHinge)

		test.That(t, c.SetFreelyRotatingGlobalHingedBasebone(xAxis), test.ShouldBeNil)
		test.That(t, c.Bones()[0].Joint().IsFreeHinge(), test.ShouldBeTrue)

		test.That(t, c.SetLocalHingedBasebone(zAxis, 10, 20, xAxis), test.ShouldBeNil)
		test.That(t, c.BaseboneConstraintType(), test.ShouldEqual, BaseboneConstraintLocalHinge)
		test.That(t, c.BaseboneRelativeConstraintUV(), test.ShouldResemble, zAxis)
		test.That(t, c.BaseboneRelativeReferenceConstraintUV(), test.ShouldResemble, xAxis)

		test.That(t, c.SetFreelyRotatingLocalHingedBasebone(yAxis), test.ShouldBeNil)
		test.That(t, c.BaseboneRelativeConstraintUV(), test.ShouldResemble, yAxis)

		err := c.SetGlobalHingedBasebone(zAxis, 10, 20, zAxis)
		test.That(t, err, test.ShouldBeError, ErrAxesNotPerpendicular)
		test.That(t, c.BaseboneConstraintType(), test.ShouldEqual, BaseboneConstraintLocalHinge)
	})
	t.Run("relative axes", func(t *testing.T) {
		c := newStraightChain(t, logging.NewTestLogger(t), yAxis, 1)
		test.That(t, c.SetBaseboneRelativeConstraintUV(r3.Vector{Z: 5}), test.ShouldBeNil)
		test.That(t, c.BaseboneRelativeConstraintUV(), test.ShouldResemble, zAxis)
		test.That(t, c.SetBaseboneRelativeReferenceConstraintUV(r3.Vector{X: -1}), test.ShouldBeNil)
		test.That(t, c.BaseboneRelativeReferenceConstraintUV(), test.ShouldResemble, r3.Vector{X: -1})
		test.That(t, c.SetBaseboneConstraintUV(r3.Vector{Y: 2}), test.ShouldBeNil)

		test.That(t, errors.Is(c.SetBaseboneConstraintUV(r3.Vector{}), ErrZeroAxis), test.ShouldBeTrue)
		test.That(t, errors.Is(c.SetBaseboneRelativeConstraintUV(r3.Vector{}), ErrZeroAxis), test.ShouldBeTrue)
		test.That(t, errors.Is(c.SetBaseboneRelativeReferenceConstraintUV(r3.Vector{}), ErrZeroAxis), test.ShouldBeTrue)
	})
}

func TestChainClone(t *testing.T) {
	c := newStraightChain(t, logging.NewTestLogger(t), yAxis, 2)
	clone := c.Clone()
	clone.SetName("clone")
	clone.Bones()[1].SetEndLocation(r3.Vector{X: 9})

	test.That(t, c.Name(), test.ShouldEqual, "test")
	test.That(t, c.EffectorLocation(), test.ShouldResemble, r3.Vector{Y: 2})
	test.That(t, clone.EffectorLocation(), test.ShouldResemble, r3.Vector{X: 9})

	test.That(t, clone.RemoveBone(0), test.ShouldBeNil)
	test.That(t, c.NumBones(), test.ShouldEqual, 2)
}
