package kinematics

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/fabrik/spatialmath"
)

// chainLengthDriftTolerance is how far the live chain length may wander from the configured one before a solve logs a
// warning.
const chainLengthDriftTolerance = 0.01

// SolveStatus describes how the most recent SolveForTarget call ended.
type SolveStatus int

const (
	// SolveStatusUnsolved means the chain has not been solved since it was created.
	SolveStatusUnsolved SolveStatus = iota
	// SolveStatusCached means the target and base were unchanged and the previous result was returned.
	SolveStatusCached
	// SolveStatusConverged means a pass came within the solve distance threshold.
	SolveStatusConverged
	// SolveStatusStalled means consecutive passes changed the distance by less than the minimum iteration change.
	SolveStatusStalled
	// SolveStatusIterationLimitReached means every allowed pass ran without converging or stalling.
	SolveStatusIterationLimitReached
)

func (s SolveStatus) String() string {
	switch s {
	case SolveStatusUnsolved:
		return "unsolved"
	case SolveStatusCached:
		return "cached"
	case SolveStatusConverged:
		return "converged"
	case SolveStatusStalled:
		return "stalled"
	case SolveStatusIterationLimitReached:
		return "iteration_limit_reached"
	}
	return "unknown"
}

// SolveForTarget moves the chain so its effector reaches for target and returns the remaining distance between them.
//
// Up to MaxIterationAttempts FABRIK passes are run, stopping early once a pass lands within the solve distance
// threshold or once passes stop improving by at least the minimum iteration change. The best configuration found is
// kept. If the base has not moved since the previous solve and the configuration the chain started in is closer to
// the target than anything found, the starting configuration is kept instead. Solving again for the same target and
// base returns the previous distance without touching the bones.
//
// An unreachable target is not an error; the chain stretches toward it and the distance reports how far off it is.
func (c *Chain) SolveForTarget(target r3.Vector) (float64, error) {
	if len(c.bones) == 0 {
		return 0, ErrEmptyChain
	}
	if !isFinite(target) {
		return 0, newInvalidParameterError("target", target)
	}
	if !isFinite(c.baseLocation) {
		return 0, newInvalidParameterError("base location", c.baseLocation)
	}

	sameBase := spatialmath.R3VectorAlmostEqual(c.lastBaseLocation, c.baseLocation, c.precision)
	if sameBase && spatialmath.R3VectorAlmostEqual(c.lastTargetLocation, target, c.precision) {
		c.lastStatus = SolveStatusCached
		c.lastIterations = 0
		c.logger.Debugw("target and base unchanged, reusing previous solve", "chain", c.name, "distance", c.currentSolveDistance)
		return c.currentSolveDistance, nil
	}

	// A solution found for a different base is not a valid candidate, so the starting configuration only competes
	// when the base is where it was.
	startingDistance := math.Inf(1)
	startingSolution := c.snapshotBones()
	if sameBase {
		startingDistance = c.EffectorLocation().Distance(target)
	}

	bestDistance := math.Inf(1)
	lastPassDistance := math.Inf(1)
	var bestSolution []Bone
	status := SolveStatusIterationLimitReached
	iterations := 0
	for iterations < c.maxIteration {
		distance := c.solveIK(target)
		iterations++

		if distance < bestDistance {
			bestDistance = distance
			bestSolution = c.snapshotBones()
			if distance <= c.solveDistanceThreshold {
				status = SolveStatusConverged
				break
			}
		}
		if math.Abs(lastPassDistance-distance) < c.minIterationChange {
			status = SolveStatusStalled
			break
		}
		lastPassDistance = distance
	}

	c.keptStartingSolution = bestSolution == nil || !(bestDistance < startingDistance)
	if c.keptStartingSolution {
		c.currentSolveDistance = startingDistance
		c.restoreBones(startingSolution)
	} else {
		c.currentSolveDistance = bestDistance
		c.restoreBones(bestSolution)
	}

	c.lastBaseLocation = c.baseLocation
	c.lastTargetLocation = target
	c.lastStatus = status
	c.lastIterations = iterations

	c.logger.Debugw("solved chain",
		"chain", c.name,
		"status", status.String(),
		"iterations", iterations,
		"distance", c.currentSolveDistance,
		"kept_starting_solution", c.keptStartingSolution,
	)
	if drift := math.Abs(c.LiveChainLength() - c.chainLength); drift > chainLengthDriftTolerance {
		c.logger.Warnw("live chain length drifted from configured length", "chain", c.name, "drift", drift)
	}
	return c.currentSolveDistance, nil
}

// SolveForEmbeddedTarget solves for the stored embedded target. The embedded target mode must be enabled.
func (c *Chain) SolveForEmbeddedTarget() (float64, error) {
	if !c.useEmbeddedTarget {
		return 0, ErrEmbeddedTargetDisabled
	}
	return c.SolveForTarget(c.embeddedTarget)
}

// ResetTarget forgets the previous solve so the next SolveForTarget recomputes even for an unchanged target.
func (c *Chain) ResetTarget() {
	c.lastBaseLocation = unset
	c.currentSolveDistance = math.Inf(1)
}

// SolveIK runs a single forward and backward FABRIK pass toward target and returns the resulting distance between
// the effector and the target. Unlike SolveForTarget it always mutates the bones.
func (c *Chain) SolveIK(target r3.Vector) (float64, error) {
	if len(c.bones) == 0 {
		return 0, ErrEmptyChain
	}
	return c.solveIK(target), nil
}

func (c *Chain) solveIK(target r3.Vector) float64 {
	c.forwardPass(target)
	c.backwardPass()
	return c.EffectorLocation().Distance(target)
}

// forwardPass walks from the effector to the base. The effector end snaps to the target and every bone start is pulled
// along its constrained outer-to-inner direction. Hinges are only held to their plane here; the reference axis limits
// are applied by the backward pass.
func (c *Chain) forwardPass(target r3.Vector) {
	last := len(c.bones) - 1
	for i := last; i >= 0; i-- {
		bone := c.bones[i]
		joint := bone.Joint()

		var outerDirection, outerToInner r3.Vector
		if i == last {
			previous := bone.DirectionUV().Mul(-1)
			bone.SetEndLocation(target)
			outerToInner = directionOr(bone.DirectionUV().Mul(-1), previous)
		} else {
			outerDirection = c.bones[i+1].DirectionUV().Mul(-1)
			outerToInner = directionOr(bone.DirectionUV().Mul(-1), outerDirection)
		}

		switch joint.Type() {
		case BallJoint:
			// the effector has no outer bone to measure its cone from
			if i != last {
				outerToInner = joint.constrainRotor(outerToInner, outerDirection)
			}
		case GlobalHinge:
			outerToInner = joint.constrainHinge(outerToInner, joint.HingeRotationAxis(), joint.HingeReferenceAxis(), false)
		case LocalHinge:
			axis, reference := c.localHingeAxes(i, joint)
			outerToInner = joint.constrainHinge(outerToInner, axis, reference, false)
		}

		newStart := bone.End().Add(outerToInner.Mul(bone.Length()))
		bone.SetStartLocation(newStart)
		if i > 0 {
			c.bones[i-1].SetEndLocation(newStart)
		}
	}
}

// backwardPass walks from the base to the effector. The basebone start returns to the base location when the base is
// fixed, the basebone direction obeys the chain level basebone constraint, and every other bone end is pushed along
// its fully constrained inner-to-outer direction.
func (c *Chain) backwardPass() {
	last := len(c.bones) - 1
	for i, bone := range c.bones {
		joint := bone.Joint()

		var innerToOuter r3.Vector
		if i == 0 {
			if c.fixedBaseMode {
				bone.SetStartLocation(c.baseLocation)
			} else {
				direction := directionOr(bone.DirectionUV(), c.baseboneConstraintUV)
				bone.SetStartLocation(bone.End().Sub(direction.Mul(bone.Length())))
			}
			innerToOuter = c.constrainBasebone(directionOr(bone.DirectionUV(), c.baseboneConstraintUV), joint)
		} else {
			previous := c.bones[i-1].DirectionUV()
			innerToOuter = directionOr(bone.DirectionUV(), previous)

			switch joint.Type() {
			case BallJoint:
				innerToOuter = joint.constrainRotor(innerToOuter, previous)
			case GlobalHinge:
				innerToOuter = joint.constrainHinge(innerToOuter, joint.HingeRotationAxis(), joint.HingeReferenceAxis(), true)
			case LocalHinge:
				axis, reference := c.localHingeAxes(i, joint)
				innerToOuter = joint.constrainHinge(innerToOuter, axis, reference, true)
			}
		}

		newEnd := bone.Start().Add(innerToOuter.Mul(bone.Length()))
		bone.SetEndLocation(newEnd)
		if i < last {
			c.bones[i+1].SetStartLocation(newEnd)
		}
	}
}

// localHingeAxes returns the world space rotation and reference axes of a local hinge on bone i. They are expressed
// relative to the previous bone direction, or taken from the basebone relative constraint for the basebone.
func (c *Chain) localHingeAxes(i int, joint *Joint) (r3.Vector, r3.Vector) {
	if i == 0 {
		return c.baseboneRelativeConstraintUV, c.baseboneRelativeReferenceConstraintUV
	}
	frame := spatialmath.NewRotationMatrixFromDirection(c.bones[i-1].DirectionUV())
	return frame.Apply(joint.HingeRotationAxis()), frame.Apply(joint.HingeReferenceAxis())
}

func isFinite(v r3.Vector) bool {
	for _, f := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// directionOr returns direction, or the normalised fallback when direction is the zero vector.
func directionOr(direction, fallback r3.Vector) r3.Vector {
	if direction.Norm2() == 0 {
		return fallback.Normalize()
	}
	return direction
}

func (c *Chain) snapshotBones() []Bone {
	snapshot := make([]Bone, len(c.bones))
	for i, b := range c.bones {
		snapshot[i] = *b
	}
	return snapshot
}

func (c *Chain) restoreBones(snapshot []Bone) {
	for i := range snapshot {
		*c.bones[i] = snapshot[i]
	}
}

// LastTargetLocation returns the target of the most recent solve.
func (c *Chain) LastTargetLocation() r3.Vector {
	return c.lastTargetLocation
}

// CurrentSolveDistance returns the distance reported by the most recent solve.
func (c *Chain) CurrentSolveDistance() float64 {
	return c.currentSolveDistance
}

// LastSolveStatus returns how the passes of the most recent solve ended. See KeptStartingSolution for whether their
// result was used.
func (c *Chain) LastSolveStatus() SolveStatus {
	return c.lastStatus
}

// LastIterations returns the number of passes run by the most recent solve.
func (c *Chain) LastIterations() int {
	return c.lastIterations
}

// KeptStartingSolution reports whether the most recent solve kept the configuration the chain started in. When it
// did, LastSolveStatus still describes how the discarded passes ended.
func (c *Chain) KeptStartingSolution() bool {
	return c.keptStartingSolution
}
