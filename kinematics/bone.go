package kinematics

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// ConnectionPoint marks which end of a bone in another chain a chain's base attaches to.
type ConnectionPoint int

const (
	// ConnectionEnd attaches to the end of the host bone.
	ConnectionEnd ConnectionPoint = iota
	// ConnectionStart attaches to the start of the host bone.
	ConnectionStart
)

func (cp ConnectionPoint) String() string {
	if cp == ConnectionStart {
		return "start"
	}
	return "end"
}

// Bone is a rigid segment between a start and an end location. Its length is authoritative: the solver moves the
// endpoints and always re-derives one from the other, the direction and the length.
type Bone struct {
	name            string
	start           r3.Vector
	end             r3.Vector
	length          float64
	joint           Joint
	connectionPoint ConnectionPoint
}

// NewBone creates a bone between start and end with an unconstrained ball joint. Its length is the distance between
// the two points.
func NewBone(start, end r3.Vector) *Bone {
	return &Bone{
		start:  start,
		end:    end,
		length: start.Distance(end),
		joint:  *NewJoint(),
	}
}

// NewBoneFromDirection creates a bone starting at start, pointing along direction with the given length.
func NewBoneFromDirection(start, direction r3.Vector, length float64) (*Bone, error) {
	if direction.Norm2() == 0 {
		return nil, ErrZeroDirection
	}
	if math.IsNaN(length) || length < 0 {
		return nil, errors.Wrapf(ErrInvalidLength, "got %v", length)
	}
	return &Bone{
		start:  start,
		end:    start.Add(direction.Normalize().Mul(length)),
		length: length,
		joint:  *NewJoint(),
	}, nil
}

// Clone returns a deep copy of the bone, joint included.
func (b *Bone) Clone() *Bone {
	c := *b
	return &c
}

// Name returns the bone name.
func (b *Bone) Name() string {
	return b.name
}

// SetName sets the bone name.
func (b *Bone) SetName(name string) {
	b.name = name
}

// Start returns the start location.
func (b *Bone) Start() r3.Vector {
	return b.start
}

// End returns the end location.
func (b *Bone) End() r3.Vector {
	return b.end
}

// SetStartLocation moves the start location without touching the length.
func (b *Bone) SetStartLocation(v r3.Vector) {
	b.start = v
}

// SetEndLocation moves the end location without touching the length.
func (b *Bone) SetEndLocation(v r3.Vector) {
	b.end = v
}

// Length returns the configured length of the bone.
func (b *Bone) Length() float64 {
	return b.length
}

// LiveLength returns the current distance between start and end. Outside a solve it matches Length within the chain
// precision; it exists for drift diagnostics.
func (b *Bone) LiveLength() float64 {
	return b.start.Distance(b.end)
}

// DirectionUV returns the unit vector from start to end. Coincident endpoints give the zero vector, which the solver
// treats as "no direction" and replaces with a baseline.
func (b *Bone) DirectionUV() r3.Vector {
	return b.end.Sub(b.start).Normalize()
}

// Joint returns the bone's joint for inspection or reconfiguration.
func (b *Bone) Joint() *Joint {
	return &b.joint
}

// SetJoint replaces the bone's joint with a copy of j.
func (b *Bone) SetJoint(j *Joint) {
	b.joint.Set(j)
}

// ConnectionPoint returns which end of a host bone this bone connects to.
func (b *Bone) ConnectionPoint() ConnectionPoint {
	return b.connectionPoint
}

// SetConnectionPoint sets which end of a host bone this bone connects to.
func (b *Bone) SetConnectionPoint(cp ConnectionPoint) {
	b.connectionPoint = cp
}
