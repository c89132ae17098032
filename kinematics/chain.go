// Package kinematics implements FABRIK (Forward And Backward Reaching Inverse Kinematics) for chains of rigid bones
// whose directions are limited by ball and hinge joints.
package kinematics

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/fabrik/logging"
	"go.viam.com/fabrik/spatialmath"
)

const (
	defaultSolveDistanceThreshold = 1.0
	defaultMinIterationChange     = 0.01
	defaultMaxIterations          = 20
	defaultPrecision              = 0.001

	// noConnection marks a chain that is not attached to another chain.
	noConnection = -1
)

// unset is the sentinel for "no previous solve". Infinite components never compare equal to a finite location.
var unset = r3.Vector{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}

// Chain is an ordered list of bones from the basebone (index 0) to the effector bone (last index), along with the
// solver settings and the state remembered between solves.
//
// A Chain is not safe for concurrent use. Solving mutates its bones in place, so callers that need parallel solves
// must use separate chains or their own locking.
type Chain struct {
	name   string
	logger logging.Logger

	bones       []*Bone
	chainLength float64

	solveDistanceThreshold float64
	minIterationChange     float64
	maxIteration           int
	precision              float64

	baseLocation  r3.Vector
	fixedBaseMode bool

	baseboneConstraintType                BaseboneConstraintType
	baseboneConstraintUV                  r3.Vector
	baseboneRelativeConstraintUV          r3.Vector
	baseboneRelativeReferenceConstraintUV r3.Vector

	lastTargetLocation   r3.Vector
	lastBaseLocation     r3.Vector
	currentSolveDistance float64
	lastStatus           SolveStatus
	lastIterations       int
	keptStartingSolution bool

	connectedChainNumber int
	connectedBoneNumber  int
	boneConnectionPoint  ConnectionPoint

	embeddedTarget    r3.Vector
	useEmbeddedTarget bool
}

// NewChain returns an empty chain with a fixed base and the default solver settings. A nil logger selects the global
// logger.
func NewChain(name string, logger logging.Logger) *Chain {
	if logger == nil {
		logger = logging.Global()
	}
	return &Chain{
		name:                   name,
		logger:                 logger,
		solveDistanceThreshold: defaultSolveDistanceThreshold,
		minIterationChange:     defaultMinIterationChange,
		maxIteration:           defaultMaxIterations,
		precision:              defaultPrecision,
		fixedBaseMode:          true,
		baseboneConstraintType: BaseboneConstraintNone,
		lastTargetLocation:     unset,
		lastBaseLocation:       unset,
		currentSolveDistance:   math.Inf(1),
		lastStatus:             SolveStatusUnsolved,
		connectedChainNumber:   noConnection,
		connectedBoneNumber:    noConnection,
		boneConnectionPoint:    ConnectionEnd,
	}
}

// Clone returns a deep copy of the chain, bones included. The clone shares the logger.
func (c *Chain) Clone() *Chain {
	clone := *c
	clone.bones = make([]*Bone, 0, len(c.bones))
	for _, b := range c.bones {
		clone.bones = append(clone.bones, b.Clone())
	}
	return &clone
}

// Name returns the chain name.
func (c *Chain) Name() string {
	return c.name
}

// SetName sets the chain name.
func (c *Chain) SetName(name string) {
	c.name = name
}

// AddBone appends a bone to the chain. The first bone added defines the base location and the default basebone
// constraint direction.
func (c *Chain) AddBone(bone *Bone) {
	c.bones = append(c.bones, bone)
	if len(c.bones) == 1 {
		c.baseLocation = bone.Start()
		c.baseboneConstraintUV = bone.DirectionUV()
	}
	c.updateChainLength()
}

// AddConsecutiveBone appends an unconstrained bone starting at the current effector.
func (c *Chain) AddConsecutiveBone(directionUV r3.Vector, length float64) error {
	bone, err := c.newConsecutiveBone(directionUV, length)
	if err != nil {
		return err
	}
	c.AddBone(bone)
	return nil
}

// AddConsecutiveHingedBone appends a bone starting at the current effector whose joint is a hinge.
func (c *Chain) AddConsecutiveHingedBone(
	directionUV r3.Vector,
	length float64,
	frame ConstraintFrame,
	hingeRotationAxis r3.Vector,
	cwDegs, acwDegs float64,
	hingeReferenceAxis r3.Vector,
) error {
	bone, err := c.newConsecutiveBone(directionUV, length)
	if err != nil {
		return err
	}
	if err := bone.Joint().SetHinge(frame, hingeRotationAxis, cwDegs, acwDegs, hingeReferenceAxis); err != nil {
		return err
	}
	c.AddBone(bone)
	return nil
}

// AddConsecutiveFreelyRotatingHingedBone appends a hinged bone with no limit about its reference axis.
func (c *Chain) AddConsecutiveFreelyRotatingHingedBone(
	directionUV r3.Vector,
	length float64,
	frame ConstraintFrame,
	hingeRotationAxis r3.Vector,
) error {
	return c.AddConsecutiveHingedBone(
		directionUV, length, frame, hingeRotationAxis,
		MaxAngleDegs, MaxAngleDegs, spatialmath.PerpendicularQuick(hingeRotationAxis),
	)
}

// AddConsecutiveRotorConstrainedBone appends a bone whose ball joint is limited to constraintAngleDegs.
func (c *Chain) AddConsecutiveRotorConstrainedBone(directionUV r3.Vector, length, constraintAngleDegs float64) error {
	bone, err := c.newConsecutiveBone(directionUV, length)
	if err != nil {
		return err
	}
	if err := bone.Joint().SetAsBallJoint(constraintAngleDegs); err != nil {
		return err
	}
	c.AddBone(bone)
	return nil
}

func (c *Chain) newConsecutiveBone(directionUV r3.Vector, length float64) (*Bone, error) {
	if len(c.bones) == 0 {
		return nil, ErrEmptyChain
	}
	return NewBoneFromDirection(c.bones[len(c.bones)-1].End(), directionUV, length)
}

// RemoveBone removes the bone at index i.
func (c *Chain) RemoveBone(i int) error {
	if i < 0 || i >= len(c.bones) {
		return errors.Wrapf(ErrBoneIndexOutOfRange, "index %d, chain has %d bones", i, len(c.bones))
	}
	c.bones = append(c.bones[:i], c.bones[i+1:]...)
	c.updateChainLength()
	return nil
}

// Clear removes every bone.
func (c *Chain) Clear() {
	c.bones = nil
	c.updateChainLength()
}

// NumBones returns the number of bones.
func (c *Chain) NumBones() int {
	return len(c.bones)
}

// Bone returns the bone at index i.
func (c *Chain) Bone(i int) (*Bone, error) {
	if i < 0 || i >= len(c.bones) {
		return nil, errors.Wrapf(ErrBoneIndexOutOfRange, "index %d, chain has %d bones", i, len(c.bones))
	}
	return c.bones[i], nil
}

// Bones returns the bones from base to effector. The slice is shared with the chain.
func (c *Chain) Bones() []*Bone {
	return c.bones
}

func (c *Chain) updateChainLength() {
	c.chainLength = 0
	for _, b := range c.bones {
		c.chainLength += b.Length()
	}
}

// ChainLength returns the sum of the configured bone lengths.
func (c *Chain) ChainLength() float64 {
	return c.chainLength
}

// LiveChainLength returns the sum of the current distances between each bone's endpoints.
func (c *Chain) LiveChainLength() float64 {
	length := 0.
	for _, b := range c.bones {
		length += b.LiveLength()
	}
	return length
}

// BaseLocation returns the start of the basebone, or the configured base location of an empty chain.
func (c *Chain) BaseLocation() r3.Vector {
	if len(c.bones) == 0 {
		return c.baseLocation
	}
	return c.bones[0].Start()
}

// SetBaseLocation sets the location a fixed base is pinned to. Every component must be finite.
func (c *Chain) SetBaseLocation(baseLocation r3.Vector) error {
	if !isFinite(baseLocation) {
		return newInvalidParameterError("base location", baseLocation)
	}
	c.baseLocation = baseLocation
	return nil
}

// EffectorLocation returns the end of the last bone, or the configured base location of an empty chain.
func (c *Chain) EffectorLocation() r3.Vector {
	if len(c.bones) == 0 {
		return c.baseLocation
	}
	return c.bones[len(c.bones)-1].End()
}

// FixedBaseMode reports whether the basebone start is pinned to the base location on every solve.
func (c *Chain) FixedBaseMode() bool {
	return c.fixedBaseMode
}

// SetFixedBaseMode pins or frees the base. A chain connected to another chain, or one with a global rotor basebone
// constraint, only moves with its external driver and cannot be freed.
func (c *Chain) SetFixedBaseMode(fixed bool) error {
	if !fixed && c.connectedChainNumber != noConnection {
		c.logger.Warnw("refusing to free the base of a connected chain", "chain", c.name, "connected_chain", c.connectedChainNumber)
		return errors.Wrap(ErrFixedBaseRequired, "chain is connected to another chain")
	}
	if !fixed && c.baseboneConstraintType == BaseboneConstraintGlobalRotor {
		c.logger.Warnw("refusing to free the base of a globally rotor constrained chain", "chain", c.name)
		return errors.Wrap(ErrFixedBaseRequired, "chain has a global rotor basebone constraint")
	}
	c.fixedBaseMode = fixed
	return nil
}

// MaxIterationAttempts returns the maximum number of passes per solve.
func (c *Chain) MaxIterationAttempts() int {
	return c.maxIteration
}

// SetMaxIterationAttempts sets the maximum number of passes per solve. It must be at least 1.
func (c *Chain) SetMaxIterationAttempts(maxIterations int) error {
	if maxIterations < 1 {
		return newInvalidParameterError("max iteration attempts", maxIterations)
	}
	c.maxIteration = maxIterations
	return nil
}

// MinIterationChange returns the smallest change between passes that keeps a solve going.
func (c *Chain) MinIterationChange() float64 {
	return c.minIterationChange
}

// SetMinIterationChange sets the smallest change between passes that keeps a solve going. It must not be negative.
func (c *Chain) SetMinIterationChange(minIterationChange float64) error {
	if math.IsNaN(minIterationChange) || minIterationChange < 0 {
		return newInvalidParameterError("min iteration change", minIterationChange)
	}
	c.minIterationChange = minIterationChange
	return nil
}

// SolveDistanceThreshold returns the effector to target distance at which a solve is considered converged.
func (c *Chain) SolveDistanceThreshold() float64 {
	return c.solveDistanceThreshold
}

// SetSolveDistanceThreshold sets the effector to target distance at which a solve is considered converged. It must
// not be negative.
func (c *Chain) SetSolveDistanceThreshold(solveDistance float64) error {
	if math.IsNaN(solveDistance) || solveDistance < 0 {
		return newInvalidParameterError("solve distance threshold", solveDistance)
	}
	c.solveDistanceThreshold = solveDistance
	return nil
}

// Precision returns the tolerance used when comparing target and base locations between solves.
func (c *Chain) Precision() float64 {
	return c.precision
}

// ConnectedChainNumber returns the index of the chain this chain is attached to, or -1.
func (c *Chain) ConnectedChainNumber() int {
	return c.connectedChainNumber
}

// SetConnectedChainNumber records the index of the chain this chain is attached to.
func (c *Chain) SetConnectedChainNumber(chainNumber int) {
	c.connectedChainNumber = chainNumber
}

// ConnectedBoneNumber returns the index of the bone this chain is attached to, or -1.
func (c *Chain) ConnectedBoneNumber() int {
	return c.connectedBoneNumber
}

// SetConnectedBoneNumber records the index of the bone this chain is attached to.
func (c *Chain) SetConnectedBoneNumber(boneNumber int) {
	c.connectedBoneNumber = boneNumber
}

// BoneConnectionPoint returns which end of the host bone the chain attaches to.
func (c *Chain) BoneConnectionPoint() ConnectionPoint {
	return c.boneConnectionPoint
}

// SetBoneConnectionPoint sets which end of the host bone the chain attaches to.
func (c *Chain) SetBoneConnectionPoint(point ConnectionPoint) {
	c.boneConnectionPoint = point
}

// EmbeddedTarget returns the stored target used by SolveForEmbeddedTarget.
func (c *Chain) EmbeddedTarget() r3.Vector {
	return c.embeddedTarget
}

// SetEmbeddedTarget stores a target for SolveForEmbeddedTarget.
func (c *Chain) SetEmbeddedTarget(target r3.Vector) {
	c.embeddedTarget = target
}

// UseEmbeddedTarget reports whether the embedded target mode is enabled.
func (c *Chain) UseEmbeddedTarget() bool {
	return c.useEmbeddedTarget
}

// SetUseEmbeddedTarget enables or disables the embedded target mode.
func (c *Chain) SetUseEmbeddedTarget(use bool) {
	c.useEmbeddedTarget = use
}
