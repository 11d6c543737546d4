package shaper

// Guard is a scoped resource released on every exit path.
type Guard interface {
	Release()
}

// UndoScope keeps an undo chunk open until released.
type UndoScope struct {
	stack  UndoStack
	closed bool
}

// OpenUndoScope opens a chunk named name on stack.
func OpenUndoScope(stack UndoStack, name string) *UndoScope {
	stack.OpenChunk(name)
	return &UndoScope{stack: stack}
}

// Release closes the chunk. Calling it twice is a no-op.
func (u *UndoScope) Release() {
	if u.closed {
		return
	}
	u.closed = true
	u.stack.CloseChunk()
}

// SelectionGuard restores a selection snapshot when released.
type SelectionGuard struct {
	set      SelectionSet
	snapshot []string
	released bool
}

// HoldSelection snapshots the current selection of set.
func HoldSelection(set SelectionSet) *SelectionGuard {
	return &SelectionGuard{
		set:      set,
		snapshot: append([]string(nil), set.Selection()...),
	}
}

func (g *SelectionGuard) Release() {
	if g.released {
		return
	}
	g.released = true
	g.set.Select(g.snapshot...)
}

// Guards releases its members in reverse acquisition order.
type Guards []Guard

func (gs *Guards) Push(g Guard) {
	*gs = append(*gs, g)
}

func (gs *Guards) Release() {
	for i := len(*gs) - 1; i >= 0; i-- {
		(*gs)[i].Release()
	}
	*gs = nil
}
