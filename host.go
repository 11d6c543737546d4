package shaper

import "github.com/go-gl/mathgl/mgl64"

// SceneGraph is the host application's node and curve API. Nodes and shapes
// are addressed by their full path.
type SceneGraph interface {
	Exists(node string) bool
	// Nodes lists every transform node in the scene.
	Nodes() []string
	// CurveShapes lists the curve shape children of node in creation order.
	CurveShapes(node string) ([]string, error)
	// ReadCurve returns a shape's object-space points, degree and periodicity.
	// The returned color is unset; use OverrideState.
	ReadCurve(shape string) (CurveShape, error)
	SetCurvePoints(shape string, points []CurvePoint) error
	// CreateCurve parents a new curve shape under parent and returns its path.
	CreateCurve(parent string, shape CurveShape) (string, error)
	DeleteShapes(shapes ...string) error
	OverrideState(dag string) (OverrideState, error)
	SetOverrideState(dag string, st OverrideState) error
	WorldMatrix(node string) (mgl64.Mat4, error)
}

// UndoStack groups edits so they undo as one step.
type UndoStack interface {
	OpenChunk(name string)
	CloseChunk()
}

// SelectionSet is the host's current selection.
type SelectionSet interface {
	Selection() []string
	Select(nodes ...string)
}

// Host is everything the engine needs from the application.
type Host interface {
	SceneGraph
	UndoStack
	SelectionSet
}
