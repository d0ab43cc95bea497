package viewer

import (
	"context"
	"fmt"

	"rigidsim/internal/render"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"
)

const panelWidth = 270

// Theme colors - dark with an indigo accent
var (
	colorBgDark    = rl.NewColor(10, 10, 15, 255)
	colorBgPanel   = rl.NewColor(18, 18, 24, 235)
	colorBgElement = rl.NewColor(28, 28, 38, 255)
	colorBgHover   = rl.NewColor(38, 38, 52, 255)
	colorAccent    = rl.NewColor(108, 99, 255, 255)

	colorTextPrimary   = rl.NewColor(255, 255, 255, 255)
	colorTextSecondary = rl.NewColor(200, 200, 208, 255)
	colorTextMuted     = rl.NewColor(119, 119, 119, 255)
)

func initRayguiStyle() {
	gui.SetStyle(gui.DEFAULT, gui.BACKGROUND_COLOR, gui.NewColorPropertyValue(colorBgDark))
	gui.SetStyle(gui.DEFAULT, gui.BASE_COLOR_NORMAL, gui.NewColorPropertyValue(colorBgElement))
	gui.SetStyle(gui.DEFAULT, gui.BASE_COLOR_FOCUSED, gui.NewColorPropertyValue(colorBgHover))
	gui.SetStyle(gui.DEFAULT, gui.BASE_COLOR_PRESSED, gui.NewColorPropertyValue(colorAccent))

	gui.SetStyle(gui.DEFAULT, gui.TEXT_COLOR_NORMAL, gui.NewColorPropertyValue(colorTextSecondary))
	gui.SetStyle(gui.DEFAULT, gui.TEXT_COLOR_FOCUSED, gui.NewColorPropertyValue(colorTextPrimary))
	gui.SetStyle(gui.DEFAULT, gui.TEXT_COLOR_PRESSED, gui.NewColorPropertyValue(colorTextPrimary))

	gui.SetStyle(gui.DEFAULT, gui.BORDER_COLOR_NORMAL, gui.NewColorPropertyValue(rl.NewColor(50, 50, 65, 255)))
	gui.SetStyle(gui.DEFAULT, gui.BORDER_COLOR_FOCUSED, gui.NewColorPropertyValue(colorAccent))
	gui.SetStyle(gui.DEFAULT, gui.LINE_COLOR, gui.NewColorPropertyValue(rl.NewColor(40, 40, 55, 255)))
	gui.SetStyle(gui.DEFAULT, gui.TEXT_SIZE, 15)
}

// Run opens the window and loops until it is closed or ctx ends. It must be
// called from the main goroutine.
func (v *Viewer) Run(ctx context.Context) error {
	rl.SetConfigFlags(rl.FlagWindowHighdpi | rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(v.prefs.WindowWidth), int32(v.prefs.WindowHeight), "rigidsim")
	defer rl.CloseWindow()
	rl.SetTargetFPS(120)
	initRayguiStyle()

	for !rl.WindowShouldClose() && ctx.Err() == nil {
		v.update()
		v.draw()
	}

	prefs := v.Prefs()
	prefs.WindowWidth, prefs.WindowHeight = rl.GetScreenWidth(), rl.GetScreenHeight()
	if err := SavePrefs(v.PrefsPath, prefs); err != nil {
		v.Logger.Printf("Viewer: %v", err)
	}
	return nil
}

func (v *Viewer) update() {
	dt := float64(rl.GetFrameTime())
	ctrl := rl.IsKeyDown(rl.KeyLeftControl) || rl.IsKeyDown(rl.KeyLeftSuper)
	v.camera.Update(dt, !ctrl)

	if rl.IsKeyPressed(rl.KeySpace) {
		v.ToggleConfigMode()
	}
	if ctrl && rl.IsKeyPressed(rl.KeyZ) {
		v.Undo()
	}
	if ctrl && rl.IsKeyPressed(rl.KeyS) {
		v.SaveScenario(v.prefs.ScenarioPath)
	}
	if rl.IsKeyPressed(rl.KeyF1) {
		v.Renderer.ShowHUD = !v.Renderer.ShowHUD
	}
	if rl.IsKeyPressed(rl.KeyB) {
		v.Renderer.ShowBounds = !v.Renderer.ShowBounds
	}
	if rl.IsKeyPressed(rl.KeyC) && !ctrl {
		v.AddCube(v.camera.Target.Add(mgl64.Vec3{0, 3, 0}))
	}
	if rl.IsKeyPressed(rl.KeyDelete) || rl.IsKeyPressed(rl.KeyBackspace) {
		v.RemoveSelected()
	}
	if v.World.ConfigMode() {
		v.handleNudges()
	}

	if rl.IsMouseButtonPressed(rl.MouseLeftButton) && !v.mouseInPanel() {
		ray := rl.GetScreenToWorldRay(rl.GetMousePosition(), v.camera.GetRaylibCamera())
		v.PickRay(render.FromVec3(ray.Position), render.FromVec3(ray.Direction))
	}
}

// handleNudges moves the selection with the arrow keys and page up/down.
// Holding shift rotates instead.
func (v *Viewer) handleNudges() {
	var axis mgl64.Vec3
	switch {
	case rl.IsKeyPressed(rl.KeyRight):
		axis = mgl64.Vec3{1, 0, 0}
	case rl.IsKeyPressed(rl.KeyLeft):
		axis = mgl64.Vec3{-1, 0, 0}
	case rl.IsKeyPressed(rl.KeyUp):
		axis = mgl64.Vec3{0, 0, -1}
	case rl.IsKeyPressed(rl.KeyDown):
		axis = mgl64.Vec3{0, 0, 1}
	case rl.IsKeyPressed(rl.KeyPageUp):
		axis = mgl64.Vec3{0, 1, 0}
	case rl.IsKeyPressed(rl.KeyPageDown):
		axis = mgl64.Vec3{0, -1, 0}
	default:
		return
	}
	if rl.IsKeyDown(rl.KeyLeftShift) || rl.IsKeyDown(rl.KeyRightShift) {
		v.Turn(axis.Mul(v.prefs.RotateStep))
	} else {
		v.Nudge(axis.Mul(v.prefs.NudgeStep))
	}
}

func (v *Viewer) mouseInPanel() bool {
	return rl.GetMousePosition().X >= float32(rl.GetScreenWidth()-panelWidth)
}

func (v *Viewer) draw() {
	snap := v.World.Snapshot()
	selected := indexOf(snap, v.selected)

	rl.BeginDrawing()
	rl.ClearBackground(colorBgDark)

	cam := v.camera.GetRaylibCamera()
	rl.BeginMode3D(cam)
	rl.DrawGrid(40, 1)
	rl.EndMode3D()
	v.Renderer.Draw(cam, snap, selected)

	v.drawPanel()
	if msg := v.message(); msg != "" {
		rl.DrawText(msg, 10, int32(rl.GetScreenHeight()-28), 18, colorTextPrimary)
	}
	rl.EndDrawing()
}

func (v *Viewer) drawPanel() {
	sw := float32(rl.GetScreenWidth())
	x := sw - panelWidth
	rl.DrawRectangleRec(rl.Rectangle{X: x, Y: 0, Width: panelWidth, Height: float32(rl.GetScreenHeight())}, colorBgPanel)

	const pad, rowH = 12, 26
	y := float32(pad)
	w := float32(panelWidth - 2*pad)
	row := func(h float32) rl.Rectangle {
		r := rl.Rectangle{X: x + pad, Y: y, Width: w, Height: h}
		y += h + 6
		return r
	}
	label := func(text string, c rl.Color) {
		r := row(18)
		rl.DrawText(text, int32(r.X), int32(r.Y), 16, c)
	}

	configMode := v.World.ConfigMode()
	modeText := "Pause (config mode)"
	if configMode {
		modeText = "Run"
	}
	if gui.Button(row(rowH), modeText) {
		v.ToggleConfigMode()
	}

	label("World", colorTextMuted)
	g := float32(v.World.Gravity())
	if ng := gui.Slider(row(rowH-6), "", fmt.Sprintf("g %.1f", g), g, -20, 0); ng != g {
		v.World.SetGravity(float64(ng))
	}
	e := float32(v.World.Elasticity())
	if ne := gui.Slider(row(rowH-6), "", fmt.Sprintf("e %.2f", e), e, -1, 0); ne != e {
		v.World.SetElasticity(float64(ne))
	}

	label("Overlays", colorTextMuted)
	v.Renderer.ShowBounds = gui.CheckBox(row(16), "Bounds", v.Renderer.ShowBounds)
	v.Renderer.ShowContacts = gui.CheckBox(row(16), "Contacts", v.Renderer.ShowContacts)
	v.Renderer.ShowCollision = gui.CheckBox(row(16), "Collision mesh", v.Renderer.ShowCollision)

	label("Selection", colorTextMuted)
	b, ok := v.selectedState()
	if !ok {
		label("click a body to select", colorTextSecondary)
	} else {
		label(b.Name, colorTextPrimary)
		label(fmt.Sprintf("pos %.2f %.2f %.2f", b.Position[0], b.Position[1], b.Position[2]), colorTextSecondary)
		label(fmt.Sprintf("rot %.0f %.0f %.0f", b.Rotation[0], b.Rotation[1], b.Rotation[2]), colorTextSecondary)
		label(fmt.Sprintf("inv mass %.1f  %s", b.InverseMass, movable(b.CanMove)), colorTextSecondary)

		for i, axis := range []string{"vx", "vy", "vz"} {
			v.velocity[i] = gui.Slider(row(rowH-6), "", fmt.Sprintf("%s %.1f", axis, v.velocity[i]), v.velocity[i], -10, 10)
		}
		if gui.Button(row(rowH), "Set velocity") {
			v.SetVelocity(mgl64.Vec3{float64(v.velocity[0]), float64(v.velocity[1]), float64(v.velocity[2])})
		}
		if configMode {
			label("arrows/PgUp/PgDn nudge, shift rotates", colorTextMuted)
		}
		if gui.Button(row(rowH), "Remove") {
			v.RemoveSelected()
		}
	}

	label("Scene", colorTextMuted)
	if gui.Button(row(rowH), "Add cube") {
		v.AddCube(v.camera.Target.Add(mgl64.Vec3{0, 3, 0}))
	}
	if gui.Button(row(rowH), fmt.Sprintf("Undo (%d)", v.undo.Len())) {
		v.Undo()
	}
	if gui.Button(row(rowH), "Save scenario") {
		v.SaveScenario(v.prefs.ScenarioPath)
	}
	label(v.prefs.ScenarioPath, colorTextMuted)
}

func movable(canMove bool) string {
	if canMove {
		return "movable"
	}
	return "static"
}
