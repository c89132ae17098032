package spatialmath

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
)

// RotationMatrix is a 3x3 rotation matrix. Columns are the images of the x, y and z basis vectors.
type RotationMatrix struct {
	mat mgl64.Mat3
}

// NewRotationMatrix returns the identity rotation.
func NewRotationMatrix() *RotationMatrix {
	return &RotationMatrix{mat: mgl64.Ident3()}
}

// NewRotationMatrixFromDirection returns a rotation whose z column is the given direction. The x column is
// PerpendicularQuick(direction) and the y column completes a right handed basis. A zero direction yields the
// identity rotation.
func NewRotationMatrixFromDirection(direction r3.Vector) *RotationMatrix {
	z := direction.Normalize()
	if z.Norm2() == 0 {
		return NewRotationMatrix()
	}
	x := PerpendicularQuick(z)
	y := z.Cross(x).Normalize()
	return &RotationMatrix{mat: mgl64.Mat3FromCols(toVec3(x), toVec3(y), toVec3(z))}
}

// Apply returns the matrix product rm * v.
func (rm *RotationMatrix) Apply(v r3.Vector) r3.Vector {
	return fromVec3(rm.mat.Mul3x1(toVec3(v)))
}

// Col returns column j of the matrix.
func (rm *RotationMatrix) Col(j int) r3.Vector {
	return fromVec3(rm.mat.Col(j))
}

// Transpose returns the inverse rotation.
func (rm *RotationMatrix) Transpose() *RotationMatrix {
	return &RotationMatrix{mat: rm.mat.Transpose()}
}

func toVec3(v r3.Vector) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

func fromVec3(v mgl64.Vec3) r3.Vector {
	return r3.Vector{X: v.X(), Y: v.Y(), Z: v.Z()}
}
