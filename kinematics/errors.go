package kinematics

import "github.com/pkg/errors"

var (
	// ErrEmptyChain is returned by operations that need at least a basebone.
	ErrEmptyChain = errors.New("chain must contain a basebone")
	// ErrZeroAxis is returned when a constraint, hinge or reference axis has zero length.
	ErrZeroAxis = errors.New("axis cannot be zero")
	// ErrAxesNotPerpendicular is returned when a hinge reference axis is not in the plane of its rotation axis.
	ErrAxesNotPerpendicular = errors.New("hinge reference axis must be perpendicular to the hinge rotation axis")
	// ErrInvalidAngle is returned for negative or NaN constraint angles.
	ErrInvalidAngle = errors.New("constraint angle must be a non-negative number of degrees")
	// ErrInvalidParameter is returned for out of range solver parameters.
	ErrInvalidParameter = errors.New("invalid solver parameter")
	// ErrZeroDirection is returned when a bone direction has zero length.
	ErrZeroDirection = errors.New("bone direction cannot be zero")
	// ErrInvalidLength is returned for negative or NaN bone lengths.
	ErrInvalidLength = errors.New("bone length must be a non-negative number")
	// ErrBoneIndexOutOfRange is returned when a bone index does not exist in the chain.
	ErrBoneIndexOutOfRange = errors.New("bone index out of range")
	// ErrFixedBaseRequired is returned when a chain that must keep a fixed base is asked to free it.
	ErrFixedBaseRequired = errors.New("chain base must remain fixed")
	// ErrEmbeddedTargetDisabled is returned when solving for an embedded target that is not in use.
	ErrEmbeddedTargetDisabled = errors.New("embedded target mode is not enabled")
)

// newInvalidParameterError wraps ErrInvalidParameter with the parameter name and rejected value.
func newInvalidParameterError(name string, value interface{}) error {
	return errors.Wrapf(ErrInvalidParameter, "%s cannot be %v", name, value)
}
