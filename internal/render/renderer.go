// Package render draws world snapshots with raylib. It only reads published
// snapshots and never touches live bodies.
package render

import (
	"fmt"
	"image/color"

	"rigidsim/internal/physics"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	clipNear float32 = 0.1
	clipFar  float32 = 1000.0

	ambient = 0.35
)

// Options toggles the debug overlays.
type Options struct {
	ShowBounds    bool
	ShowContacts  bool
	ShowCollision bool
	ShowHUD       bool
}

// Renderer draws the bodies of a snapshot as flat-shaded triangles.
type Renderer struct {
	Options
	LightDir mgl64.Vec3

	colors map[string]rl.Color // by render mesh name
	culled int
}

func NewRenderer() *Renderer {
	return &Renderer{
		Options:  Options{ShowContacts: true, ShowHUD: true},
		LightDir: mgl64.Vec3{-0.4, -1, -0.3}.Normalize(),
		colors:   make(map[string]rl.Color),
	}
}

// SetMeshColor sets the base colour used for bodies drawn with mesh.
func (r *Renderer) SetMeshColor(mesh string, c color.RGBA) {
	r.colors[mesh] = rl.NewColor(c.R, c.G, c.B, c.A)
}

// Culled returns how many bodies the last Draw skipped.
func (r *Renderer) Culled() int { return r.culled }

// Draw renders snap from camera. selected is a body index or -1.
func (r *Renderer) Draw(camera rl.Camera3D, snap *physics.Snapshot, selected int) {
	if snap == nil {
		return
	}
	frustum := ExtractFrustum(camera, clipNear, clipFar)
	r.culled = 0

	rl.BeginMode3D(camera)
	for i := range snap.Bodies {
		b := &snap.Bodies[i]
		if !frustum.ContainsBox(Vec3(b.Bounds.Min), Vec3(b.Bounds.Max)) {
			r.culled++
			continue
		}
		r.drawBody(b, r.baseColor(b, i))

		if r.ShowCollision {
			drawWireframe(b.CollisionVertices, b.CollisionFaces, rl.Fade(rl.Lime, 0.6))
		}
		if r.ShowBounds || i == selected {
			c := rl.Fade(rl.SkyBlue, 0.7)
			if i == selected {
				c = rl.Yellow
			}
			rl.DrawBoundingBox(rl.NewBoundingBox(Vec3(b.Bounds.Min), Vec3(b.Bounds.Max)), c)
		}
		if i == selected {
			drawAxes(b)
		}
	}
	if r.ShowContacts {
		r.drawContacts(snap)
	}
	rl.EndMode3D()

	if r.ShowHUD {
		r.drawHUD(snap)
	}
}

func (r *Renderer) baseColor(b *physics.BodyState, index int) rl.Color {
	if c, ok := r.colors[b.Mesh]; ok {
		return c
	}
	if !b.CanMove {
		return rl.Gray
	}
	return palette[index%len(palette)]
}

var palette = []rl.Color{rl.Red, rl.Blue, rl.Orange, rl.Purple, rl.Green, rl.Gold, rl.Pink, rl.SkyBlue}

func (r *Renderer) drawBody(b *physics.BodyState, base rl.Color) {
	for _, f := range b.Faces {
		p0, p1, p2 := b.Vertices[f[0]], b.Vertices[f[1]], b.Vertices[f[2]]

		n := p1.Sub(p0).Cross(p2.Sub(p0))
		if l := n.Len(); l > 0 {
			n = n.Mul(1 / l)
		} else if len(b.Normals) == len(b.Vertices) {
			n = b.Normals[f[0]]
		}
		light := ambient + (1-ambient)*max(0, -n.Dot(r.LightDir))
		rl.DrawTriangle3D(Vec3(p0), Vec3(p1), Vec3(p2), shade(base, light))
	}
}

func (r *Renderer) drawContacts(snap *physics.Snapshot) {
	for _, c := range snap.Contacts {
		if c.A >= len(snap.Bodies) || c.B >= len(snap.Bodies) {
			continue
		}
		at := Vec3(snap.Bodies[c.A].CenterOfMass)
		rl.DrawSphere(at, 0.06, rl.Red)
		rl.DrawLine3D(at, rl.Vector3Add(at, Vec3(c.Normal)), rl.Red)
	}
}

func (r *Renderer) drawHUD(snap *physics.Snapshot) {
	rl.DrawFPS(10, 10)
	mode := "running"
	if snap.ConfigMode {
		mode = "config"
	}
	lines := []string{
		fmt.Sprintf("step %d  sim %.2fs  %s", snap.Step, snap.SimTimeMs/1000, mode),
		fmt.Sprintf("bodies %d  culled %d  pairs %d  contacts %d", len(snap.Bodies), r.culled, snap.Stats.Pairs, snap.Stats.Contacts),
		fmt.Sprintf("gravity %.2f  elasticity %.2f  step %.2fms", snap.Gravity, snap.Elasticity, float64(snap.Stats.Wall.Microseconds())/1000),
	}
	for i, l := range lines {
		rl.DrawText(l, 10, int32(34+i*18), 16, rl.RayWhite)
	}
}

func drawWireframe(verts []mgl64.Vec3, faces []physics.Face, c rl.Color) {
	for _, f := range faces {
		a, b, d := Vec3(verts[f[0]]), Vec3(verts[f[1]]), Vec3(verts[f[2]])
		rl.DrawLine3D(a, b, c)
		rl.DrawLine3D(b, d, c)
		rl.DrawLine3D(d, a, c)
	}
}

// drawAxes draws the body's local axes at its centre of mass.
func drawAxes(b *physics.BodyState) {
	m := PoseMatrix(b.Position, b.Rotation)
	origin := Vec3(b.CenterOfMass)
	base := rl.Vector3Transform(rl.Vector3Zero(), m)
	for _, axis := range []struct {
		dir rl.Vector3
		c   rl.Color
	}{
		{rl.Vector3{X: 1}, rl.Red},
		{rl.Vector3{Y: 1}, rl.Green},
		{rl.Vector3{Z: 1}, rl.Blue},
	} {
		tip := rl.Vector3Subtract(rl.Vector3Transform(axis.dir, m), base)
		rl.DrawLine3D(origin, rl.Vector3Add(origin, tip), axis.c)
	}
}

func shade(c rl.Color, f float64) rl.Color {
	f = min(max(f, 0), 1)
	return rl.NewColor(uint8(float64(c.R)*f), uint8(float64(c.G)*f), uint8(float64(c.B)*f), c.A)
}
