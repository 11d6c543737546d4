package scene

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Transform is a node's local TRS. Rotation holds Euler angles in degrees,
// composed in XYZ order.
type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Vec3
	Scale    mgl64.Vec3
}

func NewTransform() *Transform {
	return &Transform{
		Position: mgl64.Vec3{0, 0, 0},
		Rotation: mgl64.Vec3{0, 0, 0},
		Scale:    mgl64.Vec3{1, 1, 1},
	}
}

func (t *Transform) Quat() mgl64.Quat {
	return mgl64.AnglesToQuat(
		mgl64.DegToRad(t.Rotation.X()),
		mgl64.DegToRad(t.Rotation.Y()),
		mgl64.DegToRad(t.Rotation.Z()),
		mgl64.XYZ,
	)
}

func (t *Transform) ObjectToWorld() mgl64.Mat4 {
	// M = T * R * S
	translate := mgl64.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
	rotate := t.Quat().Mat4()
	scale := mgl64.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z())

	return translate.Mul4(rotate).Mul4(scale)
}

