package viewer

import (
	"rigidsim/internal/scenario"

	"github.com/go-gl/mathgl/mgl64"
)

const maxUndoStack = 50

// UndoActionType represents the type of action that can be undone
type UndoActionType int

const (
	UndoPose UndoActionType = iota
	UndoVelocity
	UndoDelete
	UndoAdd
)

// UndoState records what a config-mode edit changed. Bodies are referred to
// by name because indices shift when bodies come and go.
type UndoState struct {
	Type     UndoActionType
	Body     string
	Position mgl64.Vec3
	Rotation mgl64.Vec3
	Velocity mgl64.Vec3

	// For delete undo, enough to rebuild the body
	Object scenario.ObjectDef
}

// UndoStack is a bounded LIFO; the oldest entry is dropped when full.
type UndoStack struct {
	states []UndoState
}

func (s *UndoStack) Push(state UndoState) {
	if len(s.states) >= maxUndoStack {
		s.states = s.states[1:]
	}
	s.states = append(s.states, state)
}

// Pop returns the most recent state.
func (s *UndoStack) Pop() (UndoState, bool) {
	if len(s.states) == 0 {
		return UndoState{}, false
	}
	state := s.states[len(s.states)-1]
	s.states = s.states[:len(s.states)-1]
	return state, true
}

func (s *UndoStack) Len() int { return len(s.states) }
