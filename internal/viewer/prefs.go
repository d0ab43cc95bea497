package viewer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultPrefsPath is where the viewer keeps its preferences.
const DefaultPrefsPath = "config/viewer.json"

// Prefs holds viewer settings saved between sessions
type Prefs struct {
	WindowWidth    int        `json:"windowWidth"`
	WindowHeight   int        `json:"windowHeight"`
	CameraTarget   [3]float64 `json:"cameraTarget"`
	CameraYaw      float64    `json:"cameraYaw"`
	CameraPitch    float64    `json:"cameraPitch"`
	CameraDistance float64    `json:"cameraDistance"`
	NudgeStep      float64    `json:"nudgeStep"`
	RotateStep     float64    `json:"rotateStep"`
	ShowBounds     bool       `json:"showBounds"`
	ShowContacts   bool       `json:"showContacts"`
	ShowCollision  bool       `json:"showCollision"`
	ScenarioPath   string     `json:"scenarioPath"`
}

func DefaultPrefs() Prefs {
	return Prefs{
		WindowWidth:    1280,
		WindowHeight:   720,
		CameraTarget:   [3]float64{0, 1, 0},
		CameraYaw:      -135,
		CameraPitch:    25,
		CameraDistance: 14,
		NudgeStep:      0.1,
		RotateStep:     5,
		ShowContacts:   true,
		ScenarioPath:   "configs/saved.yaml",
	}
}

// LoadPrefs reads prefs from path. A missing file yields the defaults.
// Zero or missing fields keep their default values.
func LoadPrefs(path string) (Prefs, error) {
	prefs := DefaultPrefs()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return prefs, nil
	}
	if err != nil {
		return prefs, fmt.Errorf("read prefs: %w", err)
	}
	if err := json.Unmarshal(data, &prefs); err != nil {
		return DefaultPrefs(), fmt.Errorf("parse prefs %s: %w", path, err)
	}

	def := DefaultPrefs()
	if prefs.WindowWidth <= 0 || prefs.WindowHeight <= 0 {
		prefs.WindowWidth, prefs.WindowHeight = def.WindowWidth, def.WindowHeight
	}
	if prefs.CameraDistance <= 0 {
		prefs.CameraDistance = def.CameraDistance
	}
	if prefs.NudgeStep <= 0 {
		prefs.NudgeStep = def.NudgeStep
	}
	if prefs.RotateStep <= 0 {
		prefs.RotateStep = def.RotateStep
	}
	if prefs.ScenarioPath == "" {
		prefs.ScenarioPath = def.ScenarioPath
	}
	return prefs, nil
}

// SavePrefs writes prefs to path, creating its directory.
func SavePrefs(path string, prefs Prefs) error {
	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}
