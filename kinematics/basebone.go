package kinematics

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/fabrik/spatialmath"
)

// BaseboneConstraintType selects the chain level constraint applied to the basebone direction.
type BaseboneConstraintType int

const (
	// BaseboneConstraintNone leaves the basebone direction free.
	BaseboneConstraintNone BaseboneConstraintType = iota
	// BaseboneConstraintGlobalRotor limits the basebone to a cone about a world space axis.
	BaseboneConstraintGlobalRotor
	// BaseboneConstraintLocalRotor limits the basebone to a cone about an axis relative to a host chain.
	BaseboneConstraintLocalRotor
	// BaseboneConstraintGlobalHinge keeps the basebone in the plane of a world space hinge axis.
	BaseboneConstraintGlobalHinge
	// BaseboneConstraintLocalHinge keeps the basebone in the plane of a hinge axis relative to a host chain.
	BaseboneConstraintLocalHinge
)

func (t BaseboneConstraintType) String() string {
	switch t {
	case BaseboneConstraintNone:
		return "none"
	case BaseboneConstraintGlobalRotor:
		return "global_rotor"
	case BaseboneConstraintLocalRotor:
		return "local_rotor"
	case BaseboneConstraintGlobalHinge:
		return "global_hinge"
	case BaseboneConstraintLocalHinge:
		return "local_hinge"
	}
	return "unknown"
}

// BaseboneConstraintType returns the basebone constraint type.
func (c *Chain) BaseboneConstraintType() BaseboneConstraintType {
	return c.baseboneConstraintType
}

// BaseboneConstraintUV returns the basebone constraint axis. The second return value is false when the chain has no
// basebone constraint.
func (c *Chain) BaseboneConstraintUV() (r3.Vector, bool) {
	return c.baseboneConstraintUV, c.baseboneConstraintType != BaseboneConstraintNone
}

// SetBaseboneConstraintUV sets the world space basebone constraint axis.
func (c *Chain) SetBaseboneConstraintUV(uv r3.Vector) error {
	if uv.Norm2() == 0 {
		return errors.Wrap(ErrZeroAxis, "basebone constraint axis")
	}
	c.baseboneConstraintUV = uv.Normalize()
	return nil
}

// BaseboneRelativeConstraintUV returns the axis used by local basebone constraints.
func (c *Chain) BaseboneRelativeConstraintUV() r3.Vector {
	return c.baseboneRelativeConstraintUV
}

// SetBaseboneRelativeConstraintUV sets the axis used by local basebone constraints. A host chain updates it as the
// bone it is attached to moves.
func (c *Chain) SetBaseboneRelativeConstraintUV(uv r3.Vector) error {
	if uv.Norm2() == 0 {
		return errors.Wrap(ErrZeroAxis, "basebone relative constraint axis")
	}
	c.baseboneRelativeConstraintUV = uv.Normalize()
	return nil
}

// BaseboneRelativeReferenceConstraintUV returns the reference axis used by a local hinge basebone constraint.
func (c *Chain) BaseboneRelativeReferenceConstraintUV() r3.Vector {
	return c.baseboneRelativeReferenceConstraintUV
}

// SetBaseboneRelativeReferenceConstraintUV sets the reference axis used by a local hinge basebone constraint.
func (c *Chain) SetBaseboneRelativeReferenceConstraintUV(uv r3.Vector) error {
	if uv.Norm2() == 0 {
		return errors.Wrap(ErrZeroAxis, "basebone relative reference constraint axis")
	}
	c.baseboneRelativeReferenceConstraintUV = uv.Normalize()
	return nil
}

// SetRotorBaseboneConstraint limits the basebone to a cone of angleDegs about constraintAxis. Global axes are fixed in
// world space; local axes start equal to constraintAxis and are then maintained through
// SetBaseboneRelativeConstraintUV.
func (c *Chain) SetRotorBaseboneConstraint(frame ConstraintFrame, constraintAxis r3.Vector, angleDegs float64) error {
	if len(c.bones) == 0 {
		return ErrEmptyChain
	}
	if constraintAxis.Norm2() == 0 {
		return errors.Wrap(ErrZeroAxis, "basebone constraint axis")
	}
	joint := c.bones[0].Joint().Clone()
	if err := joint.SetAsBallJoint(angleDegs); err != nil {
		return err
	}

	c.baseboneConstraintType = BaseboneConstraintGlobalRotor
	if frame == Local {
		c.baseboneConstraintType = BaseboneConstraintLocalRotor
	}
	c.baseboneConstraintUV = constraintAxis.Normalize()
	c.baseboneRelativeConstraintUV = c.baseboneConstraintUV
	c.bones[0].SetJoint(joint)
	return nil
}

// SetHingeBaseboneConstraint keeps the basebone in the plane of hingeRotationAxis, limited to cwDegs and acwDegs about
// hingeReferenceAxis. For a local hinge the relative axes start equal to the given axes.
func (c *Chain) SetHingeBaseboneConstraint(
	frame ConstraintFrame,
	hingeRotationAxis r3.Vector,
	cwDegs, acwDegs float64,
	hingeReferenceAxis r3.Vector,
) error {
	if len(c.bones) == 0 {
		return ErrEmptyChain
	}
	joint := c.bones[0].Joint().Clone()
	if err := joint.SetHinge(frame, hingeRotationAxis, cwDegs, acwDegs, hingeReferenceAxis); err != nil {
		return err
	}

	c.baseboneConstraintType = BaseboneConstraintGlobalHinge
	if frame == Local {
		c.baseboneConstraintType = BaseboneConstraintLocalHinge
		c.baseboneRelativeConstraintUV = joint.HingeRotationAxis()
		c.baseboneRelativeReferenceConstraintUV = joint.HingeReferenceAxis()
	}
	c.baseboneConstraintUV = joint.HingeRotationAxis()
	c.bones[0].SetJoint(joint)
	return nil
}

// SetFreelyRotatingGlobalHingedBasebone keeps the basebone in the plane of a world space axis with no angular limit.
func (c *Chain) SetFreelyRotatingGlobalHingedBasebone(hingeRotationAxis r3.Vector) error {
	return c.SetHingeBaseboneConstraint(
		Global, hingeRotationAxis, MaxAngleDegs, MaxAngleDegs, spatialmath.PerpendicularQuick(hingeRotationAxis),
	)
}

// SetGlobalHingedBasebone keeps the basebone in the plane of a world space axis within the given limits.
func (c *Chain) SetGlobalHingedBasebone(hingeRotationAxis r3.Vector, cwDegs, acwDegs float64, hingeReferenceAxis r3.Vector) error {
	return c.SetHingeBaseboneConstraint(Global, hingeRotationAxis, cwDegs, acwDegs, hingeReferenceAxis)
}

// SetFreelyRotatingLocalHingedBasebone keeps the basebone in the plane of a relative axis with no angular limit.
func (c *Chain) SetFreelyRotatingLocalHingedBasebone(hingeRotationAxis r3.Vector) error {
	return c.SetHingeBaseboneConstraint(
		Local, hingeRotationAxis, MaxAngleDegs, MaxAngleDegs, spatialmath.PerpendicularQuick(hingeRotationAxis),
	)
}

// SetLocalHingedBasebone keeps the basebone in the plane of a relative axis within the given limits.
func (c *Chain) SetLocalHingedBasebone(hingeRotationAxis r3.Vector, cwDegs, acwDegs float64, hingeReferenceAxis r3.Vector) error {
	return c.SetHingeBaseboneConstraint(Local, hingeRotationAxis, cwDegs, acwDegs, hingeReferenceAxis)
}

// constrainBasebone applies the chain level basebone constraint to direction.
func (c *Chain) constrainBasebone(direction r3.Vector, joint *Joint) r3.Vector {
	switch c.baseboneConstraintType {
	case BaseboneConstraintGlobalRotor:
		return joint.constrainRotor(direction, c.baseboneConstraintUV)
	case BaseboneConstraintLocalRotor:
		return joint.constrainRotor(direction, c.baseboneRelativeConstraintUV)
	case BaseboneConstraintGlobalHinge:
		return joint.constrainHinge(direction, joint.HingeRotationAxis(), joint.HingeReferenceAxis(), true)
	case BaseboneConstraintLocalHinge:
		return joint.constrainHinge(direction, c.baseboneRelativeConstraintUV, c.baseboneRelativeReferenceConstraintUV, true)
	case BaseboneConstraintNone:
	}
	return direction
}
