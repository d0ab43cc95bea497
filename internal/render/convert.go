package render

import (
	"rigidsim/internal/physics"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"
)

// Vec3 narrows a physics vector to raylib's float32 vector.
func Vec3(v mgl64.Vec3) rl.Vector3 {
	return rl.Vector3{X: float32(v[0]), Y: float32(v[1]), Z: float32(v[2])}
}

// FromVec3 widens a raylib vector.
func FromVec3(v rl.Vector3) mgl64.Vec3 {
	return mgl64.Vec3{float64(v.X), float64(v.Y), float64(v.Z)}
}

// Matrix converts a column-major mgl64 matrix to raylib's layout.
func Matrix(m mgl64.Mat4) rl.Matrix {
	return rl.Matrix{
		M0: float32(m[0]), M1: float32(m[1]), M2: float32(m[2]), M3: float32(m[3]),
		M4: float32(m[4]), M5: float32(m[5]), M6: float32(m[6]), M7: float32(m[7]),
		M8: float32(m[8]), M9: float32(m[9]), M10: float32(m[10]), M11: float32(m[11]),
		M12: float32(m[12]), M13: float32(m[13]), M14: float32(m[14]), M15: float32(m[15]),
	}
}

// PoseMatrix is the model matrix of a body at position with Euler rotation
// in degrees, as the physics side builds it.
func PoseMatrix(position, rotation mgl64.Vec3) rl.Matrix {
	t := physics.NewTransform(position, rotation)
	return Matrix(t.Matrix())
}
