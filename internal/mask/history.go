package mask

// History provides undo/redo over full MaskSet snapshots: past + present +
// future, totally ordered. Snapshots are complete copies, never diffs, and
// are taken once per completed gesture, never per pointer-move.
type History struct {
	past    []MaskSet
	present MaskSet
	future  []MaskSet
}

// NewHistory starts a history at the given initial state.
func NewHistory(initial MaskSet) *History {
	return &History{present: initial.Clone()}
}

// Snapshot appends a new present state and truncates any redo branch.
func (h *History) Snapshot(set MaskSet) {
	h.past = append(h.past, h.present)
	h.present = set.Clone()
	h.future = nil
}

// Undo moves present onto the redo stack and restores the previous state.
// Returns false without changing anything when there is nothing to undo.
func (h *History) Undo() (MaskSet, bool) {
	if len(h.past) == 0 {
		return MaskSet{}, false
	}
	h.future = append(h.future, h.present)
	h.present = h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	return h.present.Clone(), true
}

// Redo is the mirror of Undo.
func (h *History) Redo() (MaskSet, bool) {
	if len(h.future) == 0 {
		return MaskSet{}, false
	}
	h.past = append(h.past, h.present)
	h.present = h.future[len(h.future)-1]
	h.future = h.future[:len(h.future)-1]
	return h.present.Clone(), true
}

// Present returns a copy of the current state.
func (h *History) Present() MaskSet {
	return h.present.Clone()
}

// CanUndo reports whether an undo step exists.
func (h *History) CanUndo() bool { return len(h.past) > 0 }

// CanRedo reports whether a redo step exists.
func (h *History) CanRedo() bool { return len(h.future) > 0 }
