package timeline

// History keeps linear undo/redo stacks of full store snapshots. The bottom
// of the undo stack is the floor state and is never undone past.
type History struct {
	undo []Snapshot
	redo []Snapshot
}

func NewHistory() *History {
	return &History{}
}

// Push records the store's current entries unless they equal the top of the
// undo stack. A recorded push invalidates the redo stack.
func (h *History) Push(s *Store) bool {
	snap := s.Snapshot()
	if n := len(h.undo); n > 0 && h.undo[n-1].Equal(snap) {
		return false
	}
	h.undo = append(h.undo, snap)
	h.redo = nil
	return true
}

// Undo restores the previous snapshot into s.
func (h *History) Undo(s *Store) bool {
	if len(h.undo) < 2 {
		return false
	}
	top := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, top)
	s.Restore(h.undo[len(h.undo)-1])
	return true
}

// Redo reapplies the most recently undone snapshot.
func (h *History) Redo(s *Store) bool {
	if len(h.redo) == 0 {
		return false
	}
	next := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	s.Restore(next)
	h.undo = append(h.undo, next)
	return true
}

func (h *History) CanUndo() bool { return len(h.undo) > 1 }
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Depth returns the sizes of the undo and redo stacks.
func (h *History) Depth() (undo, redo int) {
	return len(h.undo), len(h.redo)
}
