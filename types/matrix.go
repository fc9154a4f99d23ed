package types

import "github.com/go-gl/mathgl/mgl32"

// A column-major 4x4 matrix.
type Mat4 mgl32.Mat4

// Identity matrix.
func Ident4() Mat4 {
	return Mat4(mgl32.Ident4())
}

// Translation matrix.
func Translate4(v Vec3) Mat4 {
	return Mat4(mgl32.Translate3D(v[0], v[1], v[2]))
}

// Scale matrix.
func Scale4(v Vec3) Mat4 {
	return Mat4(mgl32.Scale3D(v[0], v[1], v[2]))
}

// Rotation matrix from yaw (X), pitch (Y) and roll (Z) angles in radians.
// The rotations are applied in X, Y, Z order.
func Rotate4(angles Vec3) Mat4 {
	q := mgl32.AnglesToQuat(angles[2], angles[1], angles[0], mgl32.ZYX)
	return Mat4(q.Normalize().Mat4())
}

// Build a TRS matrix (M = T * R * S).
func TRS(translation, angles, scale Vec3) Mat4 {
	return Translate4(translation).Mul4(Rotate4(angles)).Mul4(Scale4(scale))
}

// Multiply with another matrix.
func (m Mat4) Mul4(m2 Mat4) Mat4 {
	return Mat4(mgl32.Mat4(m).Mul4(mgl32.Mat4(m2)))
}

// Transform a point (w = 1).
func (m Mat4) TransformPoint(p Vec3) Vec3 {
	return FromMgl(mgl32.TransformCoordinate(p.Mgl(), mgl32.Mat4(m)))
}

// Transform a direction (w = 0).
func (m Mat4) TransformDir(d Vec3) Vec3 {
	return FromMgl(mgl32.TransformNormal(d.Mgl(), mgl32.Mat4(m)))
}

// Returns true if this is the identity matrix.
func (m Mat4) IsIdent() bool {
	return mgl32.Mat4(m).ApproxEqual(mgl32.Ident4())
}
