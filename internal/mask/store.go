package mask

// Store owns the canonical in-memory mask set for the photo being edited.
// Every mutation goes through the command reducer and is followed by exactly
// one history snapshot; invalid input (undersized rects, too-short strokes)
// is a silent no-op with no snapshot. The store is not safe for concurrent
// use; the owning session serializes access.
type Store struct {
	set              MaskSet
	history          *History
	minRectSize      float64
	faceCornerRadius float64
}

// NewStore creates a store with an empty mask set.
func NewStore(minRectSize, faceCornerRadius float64) *Store {
	return NewStoreFrom(MaskSet{}, minRectSize, faceCornerRadius)
}

// NewStoreFrom creates a store hydrated from a previously persisted set.
// The hydrated state is the history baseline; it cannot be undone past.
func NewStoreFrom(initial MaskSet, minRectSize, faceCornerRadius float64) *Store {
	return &Store{
		set:              initial.Clone(),
		history:          NewHistory(initial),
		minRectSize:      minRectSize,
		faceCornerRadius: faceCornerRadius,
	}
}

func (s *Store) dispatch(cmd Command) {
	s.set = Apply(s.set, cmd)
	s.history.Snapshot(s.set)
}

// AddRect appends a rect and snapshots. Rects below the minimum size are
// silently rejected: no mutation, no history entry.
func (s *Store) AddRect(r BlurRect) bool {
	if r.W < s.minRectSize || r.H < s.minRectSize {
		return false
	}
	s.dispatch(AddRect{Rect: r})
	return true
}

// AddStroke appends a brush stroke and snapshots. Strokes with fewer than two
// points are silently dropped.
func (s *Store) AddStroke(stroke BlurBrushStroke) bool {
	if len(stroke.Points) < 2 {
		return false
	}
	s.dispatch(AddStroke{Stroke: stroke})
	return true
}

// SetDetections replaces the auto-detection list.
func (s *Store) SetDetections(list []FaceDetection) {
	s.dispatch(SetDetections{Detections: list})
}

// ToggleDetectionAccepted flips one detection's accepted flag. Out-of-range
// indexes are a no-op with no history entry.
func (s *Store) ToggleDetectionAccepted(index int) bool {
	if index < 0 || index >= len(s.set.AutoDetections) {
		return false
	}
	s.dispatch(ToggleDetection{Index: index})
	return true
}

// AcceptAllDetections marks every detection accepted.
func (s *Store) AcceptAllDetections() {
	if len(s.set.AutoDetections) == 0 {
		return
	}
	s.dispatch(AcceptAllDetections{})
}

// RejectAllDetections clears the detection list.
func (s *Store) RejectAllDetections() {
	if len(s.set.AutoDetections) == 0 {
		return
	}
	s.dispatch(RejectAllDetections{})
}

// ConvertAcceptedDetectionsToRects appends one rect per accepted detection
// (with the fixed face corner radius), removes those detections permanently,
// and snapshots. Pending and rejected detections are untouched.
func (s *Store) ConvertAcceptedDetectionsToRects() {
	s.dispatch(ConvertAccepted{CornerRadius: s.faceCornerRadius})
}

// Reset replaces the whole set and snapshots.
func (s *Store) Reset(set MaskSet) {
	s.dispatch(Reset{Set: set})
}

// Current returns a copy of the canonical set.
func (s *Store) Current() MaskSet {
	return s.set.Clone()
}

// Reconciled returns the save payload without mutating the store: rects plus
// rects synthesized from accepted detections, and the non-accepted remainder.
func (s *Store) Reconciled() MaskSet {
	return Reconcile(s.set, s.faceCornerRadius)
}

// Undo restores the previous snapshot. Returns false at the start of history.
func (s *Store) Undo() bool {
	set, ok := s.history.Undo()
	if ok {
		s.set = set
	}
	return ok
}

// Redo restores the next snapshot. Returns false at the end of history.
func (s *Store) Redo() bool {
	set, ok := s.history.Redo()
	if ok {
		s.set = set
	}
	return ok
}

// CanUndo reports whether an undo step exists.
func (s *Store) CanUndo() bool { return s.history.CanUndo() }

// CanRedo reports whether a redo step exists.
func (s *Store) CanRedo() bool { return s.history.CanRedo() }
