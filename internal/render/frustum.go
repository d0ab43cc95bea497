package render

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Frustum holds the six clip planes of a camera: left, right, bottom, top,
// near, far. Plane normals point inwards.
type Frustum struct {
	planes [6]Plane
}

// Plane is ax + by + cz + d = 0 with (a, b, c) = normal and d = distance.
type Plane struct {
	normal   rl.Vector3
	distance float32
}

// ExtractFrustum builds the frustum of camera for the current screen aspect
// using the Gribb/Hartmann method.
func ExtractFrustum(camera rl.Camera3D, near, far float32) Frustum {
	view := rl.GetCameraMatrix(camera)

	aspect := float32(rl.GetScreenWidth()) / float32(rl.GetScreenHeight())
	var proj rl.Matrix
	if camera.Projection == rl.CameraPerspective {
		proj = rl.MatrixPerspective(camera.Fovy*rl.Deg2rad, aspect, near, far)
	} else {
		halfH := camera.Fovy / 2.0
		halfW := halfH * aspect
		proj = rl.MatrixOrtho(-halfW, halfW, -halfH, halfH, near, far)
	}
	return frustumFromMatrix(rl.MatrixMultiply(view, proj))
}

func frustumFromMatrix(vp rl.Matrix) Frustum {
	row := func(sign float32, x, y, z, w float32) Plane {
		return normalizePlane(Plane{
			normal: rl.Vector3{
				X: vp.M3 + sign*x,
				Y: vp.M7 + sign*y,
				Z: vp.M11 + sign*z,
			},
			distance: vp.M15 + sign*w,
		})
	}

	var f Frustum
	f.planes[0] = row(1, vp.M0, vp.M4, vp.M8, vp.M12)
	f.planes[1] = row(-1, vp.M0, vp.M4, vp.M8, vp.M12)
	f.planes[2] = row(1, vp.M1, vp.M5, vp.M9, vp.M13)
	f.planes[3] = row(-1, vp.M1, vp.M5, vp.M9, vp.M13)
	f.planes[4] = row(1, vp.M2, vp.M6, vp.M10, vp.M14)
	f.planes[5] = row(-1, vp.M2, vp.M6, vp.M10, vp.M14)
	return f
}

func normalizePlane(p Plane) Plane {
	length := rl.Vector3Length(p.normal)
	if length == 0 {
		return p
	}
	return Plane{
		normal:   rl.Vector3Scale(p.normal, 1.0/length),
		distance: p.distance / length,
	}
}

// ContainsBox reports whether the box is at least partly inside. It tests
// the corner furthest along each plane normal, so it may keep boxes that
// are just outside a frustum edge.
func (f *Frustum) ContainsBox(min, max rl.Vector3) bool {
	for _, p := range f.planes {
		corner := min
		if p.normal.X >= 0 {
			corner.X = max.X
		}
		if p.normal.Y >= 0 {
			corner.Y = max.Y
		}
		if p.normal.Z >= 0 {
			corner.Z = max.Z
		}
		if rl.Vector3DotProduct(p.normal, corner)+p.distance < 0 {
			return false
		}
	}
	return true
}

// ContainsPoint tests if a point is inside the frustum
func (f *Frustum) ContainsPoint(point rl.Vector3) bool {
	for _, p := range f.planes {
		if rl.Vector3DotProduct(p.normal, point)+p.distance < 0 {
			return false
		}
	}
	return true
}
