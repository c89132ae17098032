package kinematics

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/fabrik/spatialmath"
	"go.viam.com/fabrik/utils"
)

const (
	// MinAngleDegs is the smallest constraint angle a joint accepts.
	MinAngleDegs = 0.
	// MaxAngleDegs is the largest constraint angle a joint accepts. A limit of 180 degrees is no limit at all.
	MaxAngleDegs = 180.
)

// JointType selects how a joint constrains the direction of its bone.
type JointType int

const (
	// BallJoint limits the bone to a cone about a baseline direction.
	BallJoint JointType = iota
	// GlobalHinge keeps the bone in the plane of a rotation axis fixed in world space.
	GlobalHinge
	// LocalHinge keeps the bone in the plane of a rotation axis expressed relative to the previous bone.
	LocalHinge
)

func (jt JointType) String() string {
	switch jt {
	case BallJoint:
		return "ball"
	case GlobalHinge:
		return "global_hinge"
	case LocalHinge:
		return "local_hinge"
	}
	return "unknown"
}

// ConstraintFrame chooses whether a hinge or rotor axis is fixed in world space or relative to a neighbouring bone.
type ConstraintFrame int

const (
	// Global axes are fixed in world space.
	Global ConstraintFrame = iota
	// Local axes are re-expressed relative to the previous bone direction before each use.
	Local
)

func (f ConstraintFrame) String() string {
	if f == Local {
		return "local"
	}
	return "global"
}

// Joint is the rotational constraint carried by a bone. Only the fields relevant to its type are meaningful: the
// rotor for ball joints, the axes and clockwise/anticlockwise limits for hinges. Angles are stored in degrees.
type Joint struct {
	jointType     JointType
	rotorDegs     float64
	rotationAxis  r3.Vector
	referenceAxis r3.Vector
	cwDegs        float64
	acwDegs       float64
}

// NewJoint returns an unconstrained ball joint.
func NewJoint() *Joint {
	return &Joint{
		jointType: BallJoint,
		rotorDegs: MaxAngleDegs,
		cwDegs:    MaxAngleDegs,
		acwDegs:   MaxAngleDegs,
	}
}

// NewBallJoint returns a ball joint limited to the given cone half angle.
func NewBallJoint(limitDegs float64) (*Joint, error) {
	j := NewJoint()
	if err := j.SetAsBallJoint(limitDegs); err != nil {
		return nil, err
	}
	return j, nil
}

// NewHingeJoint returns a hinge joint with the given frame, axes and limits.
func NewHingeJoint(frame ConstraintFrame, rotationAxis r3.Vector, cwDegs, acwDegs float64, referenceAxis r3.Vector) (*Joint, error) {
	j := NewJoint()
	if err := j.SetHinge(frame, rotationAxis, cwDegs, acwDegs, referenceAxis); err != nil {
		return nil, err
	}
	return j, nil
}

// ValidateAngle clamps a into [MinAngleDegs, MaxAngleDegs].
func (j *Joint) ValidateAngle(a float64) float64 {
	return utils.Clamp(a, MinAngleDegs, MaxAngleDegs)
}

// SetAsBallJoint turns the joint into a ball joint with a cone half angle of limitDegs, clamped to 180.
func (j *Joint) SetAsBallJoint(limitDegs float64) error {
	if err := checkAngle(limitDegs); err != nil {
		return err
	}
	j.jointType = BallJoint
	j.rotorDegs = j.ValidateAngle(limitDegs)
	return nil
}

// SetHinge turns the joint into a hinge. The rotation axis and reference axis must be non-zero and perpendicular;
// both are stored normalised. Limits of 180 degrees in both directions make a free hinge.
func (j *Joint) SetHinge(frame ConstraintFrame, rotationAxis r3.Vector, cwDegs, acwDegs float64, referenceAxis r3.Vector) error {
	if err := validateHingeAxes(rotationAxis, referenceAxis); err != nil {
		return err
	}
	if err := checkAngle(cwDegs); err != nil {
		return errors.Wrap(err, "clockwise limit")
	}
	if err := checkAngle(acwDegs); err != nil {
		return errors.Wrap(err, "anticlockwise limit")
	}

	j.jointType = GlobalHinge
	if frame == Local {
		j.jointType = LocalHinge
	}
	j.rotationAxis = rotationAxis.Normalize()
	j.referenceAxis = referenceAxis.Normalize()
	j.cwDegs = j.ValidateAngle(cwDegs)
	j.acwDegs = j.ValidateAngle(acwDegs)
	return nil
}

// Set copies every constraint value of source into j.
func (j *Joint) Set(source *Joint) {
	*j = *source
}

// Clone returns an independent copy of the joint.
func (j *Joint) Clone() *Joint {
	c := *j
	return &c
}

// Type returns the joint type.
func (j *Joint) Type() JointType {
	return j.jointType
}

// RotorDegs returns the ball joint cone half angle.
func (j *Joint) RotorDegs() float64 {
	return j.rotorDegs
}

// HingeRotationAxis returns the unit hinge rotation axis.
func (j *Joint) HingeRotationAxis() r3.Vector {
	return j.rotationAxis
}

// HingeReferenceAxis returns the unit hinge reference axis.
func (j *Joint) HingeReferenceAxis() r3.Vector {
	return j.referenceAxis
}

// ClockwiseDegs returns the clockwise hinge limit.
func (j *Joint) ClockwiseDegs() float64 {
	return j.cwDegs
}

// AnticlockwiseDegs returns the anticlockwise hinge limit.
func (j *Joint) AnticlockwiseDegs() float64 {
	return j.acwDegs
}

// IsFreeHinge reports whether the hinge may rotate freely about its reference axis.
func (j *Joint) IsFreeHinge() bool {
	return j.cwDegs >= MaxAngleDegs && j.acwDegs >= MaxAngleDegs
}

// constrainHinge projects direction into the hinge plane of axis and, unless the hinge is free, clamps its rotation
// away from reference. A direction parallel to the axis has no projection and falls back to the reference.
func (j *Joint) constrainHinge(direction, axis, reference r3.Vector, clampReference bool) r3.Vector {
	constrained := spatialmath.ProjectOnPlane(direction, axis)
	if constrained.Norm2() == 0 {
		constrained = spatialmath.ProjectOnPlane(reference, axis)
		if constrained.Norm2() == 0 {
			constrained = spatialmath.PerpendicularQuick(axis)
		}
	}
	if clampReference && !j.IsFreeHinge() && reference.Norm2() != 0 {
		constrained = spatialmath.ClampAboutAxis(
			constrained, reference, axis,
			utils.DegToRad(j.cwDegs), utils.DegToRad(j.acwDegs),
		)
	}
	return constrained
}

// constrainRotor limits direction to the joint cone about baseline.
func (j *Joint) constrainRotor(direction, baseline r3.Vector) r3.Vector {
	return spatialmath.LimitAngle(direction, baseline, utils.DegToRad(j.rotorDegs))
}

func checkAngle(degs float64) error {
	if math.IsNaN(degs) || degs < 0 {
		return errors.Wrapf(ErrInvalidAngle, "got %v", degs)
	}
	return nil
}

func validateHingeAxes(rotationAxis, referenceAxis r3.Vector) error {
	if rotationAxis.Norm2() == 0 {
		return errors.Wrap(ErrZeroAxis, "hinge rotation axis")
	}
	if referenceAxis.Norm2() == 0 {
		return errors.Wrap(ErrZeroAxis, "hinge reference axis")
	}
	if !spatialmath.IsPerpendicular(rotationAxis, referenceAxis) {
		return ErrAxesNotPerpendicular
	}
	return nil
}
