package scheduler

import "goki.dev/mat32/v2"

// SkinningOrigin is the transform skinned vertices are relative to, as of one animation frame
type SkinningOrigin struct {
	Position mat32.Vec3
	Rotation mat32.Quat
	Scale    mat32.Vec3
}

// IdentityOrigin returns an origin with no translation, no rotation and unit scale
func IdentityOrigin() SkinningOrigin {
	return SkinningOrigin{
		Rotation: mat32.NewQuat(0, 0, 0, 1),
		Scale:    mat32.V3(1, 1, 1),
	}
}

func lerpVec3(from, to mat32.Vec3, t float32) mat32.Vec3 {
	return mat32.V3(
		from.X+(to.X-from.X)*t,
		from.Y+(to.Y-from.Y)*t,
		from.Z+(to.Z-from.Z)*t,
	)
}

// LerpOrigins interpolates position and scale linearly and rotation spherically
func LerpOrigins(from, to SkinningOrigin, t float32) SkinningOrigin {
	rotation := from.Rotation
	rotation.Slerp(to.Rotation, t)

	return SkinningOrigin{
		Position: lerpVec3(from.Position, to.Position, t),
		Rotation: rotation,
		Scale:    lerpVec3(from.Scale, to.Scale, t),
	}
}

func clamp01(value float32) float32 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
