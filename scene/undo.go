package scene

import "github.com/gekko3d/shaper"

// nodeState is the undoable part of a node: its curves and override.
type nodeState struct {
	override  shaper.OverrideState
	curves    []*Curve
	transform Transform
}

type snapshot map[*Node]nodeState

type chunk struct {
	name   string
	before snapshot
}

type history struct {
	depth   int
	pending chunk
	undo    []chunk
	redo    []chunk
}

func (s *Scene) snapshot() snapshot {
	snap := make(snapshot)
	s.walk(func(n *Node) {
		curves := make([]*Curve, len(n.Curves))
		for i, c := range n.Curves {
			curves[i] = c.clone()
		}
		snap[n] = nodeState{
			override:  n.Override,
			curves:    curves,
			transform: *n.Transform,
		}
	})
	return snap
}

func (s *Scene) restore(snap snapshot) {
	s.walk(func(n *Node) {
		st, ok := snap[n]
		if !ok {
			return
		}
		n.Override = st.override
		n.Curves = make([]*Curve, len(st.curves))
		for i, c := range st.curves {
			n.Curves[i] = c.clone()
		}
		*n.Transform = st.transform
	})
}

// OpenChunk starts an undo chunk. Nested chunks fold into the outermost one.
func (s *Scene) OpenChunk(name string) {
	s.undo.depth++
	if s.undo.depth == 1 {
		s.undo.pending = chunk{name: name, before: s.snapshot()}
	}
}

// CloseChunk ends the current chunk; closing the outermost one records it.
func (s *Scene) CloseChunk() {
	if s.undo.depth == 0 {
		return
	}
	s.undo.depth--
	if s.undo.depth > 0 {
		return
	}
	s.undo.undo = append(s.undo.undo, s.undo.pending)
	s.undo.redo = nil
	s.undo.pending = chunk{}
}

// ChunkOpen reports whether a chunk is currently open.
func (s *Scene) ChunkOpen() bool { return s.undo.depth > 0 }

// UndoNames lists recorded chunk names, oldest first.
func (s *Scene) UndoNames() []string {
	names := make([]string, len(s.undo.undo))
	for i, c := range s.undo.undo {
		names[i] = c.name
	}
	return names
}

// Undo reverts the last recorded chunk. It reports false when there is nothing to undo.
func (s *Scene) Undo() bool {
	if len(s.undo.undo) == 0 || s.undo.depth > 0 {
		return false
	}
	last := s.undo.undo[len(s.undo.undo)-1]
	s.undo.undo = s.undo.undo[:len(s.undo.undo)-1]
	s.undo.redo = append(s.undo.redo, chunk{name: last.name, before: s.snapshot()})
	s.restore(last.before)
	return true
}

// Redo reapplies the last undone chunk.
func (s *Scene) Redo() bool {
	if len(s.undo.redo) == 0 || s.undo.depth > 0 {
		return false
	}
	last := s.undo.redo[len(s.undo.redo)-1]
	s.undo.redo = s.undo.redo[:len(s.undo.redo)-1]
	s.undo.undo = append(s.undo.undo, chunk{name: last.name, before: s.snapshot()})
	s.restore(last.before)
	return true
}
