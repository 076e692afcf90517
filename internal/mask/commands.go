package mask

// Mutations are modeled as a closed command set applied by a pure reducer.
// The UI layer (HTTP handlers, tools) only ever dispatches commands through
// the Store and observes the resulting set; it never edits a MaskSet in place.

// Command is a single mask mutation. The set of implementations is closed;
// Apply handles every kind.
type Command interface {
	isCommand()
}

// AddRect appends a redaction rectangle.
type AddRect struct {
	Rect BlurRect
}

// AddStroke appends a brush stroke.
type AddStroke struct {
	Stroke BlurBrushStroke
}

// SetDetections replaces the auto-detection list, e.g. after the external
// detector ran for a freshly loaded image.
type SetDetections struct {
	Detections []FaceDetection
}

// ToggleDetection flips the accepted flag of one detection.
type ToggleDetection struct {
	Index int
}

// AcceptAllDetections marks every pending detection accepted.
type AcceptAllDetections struct{}

// RejectAllDetections clears the detection list.
type RejectAllDetections struct{}

// ConvertAccepted folds accepted detections into rects and removes them from
// the detection list permanently. Pending detections are untouched.
type ConvertAccepted struct {
	CornerRadius float64
}

// Reset replaces the whole set, e.g. when hydrating from persistence.
type Reset struct {
	Set MaskSet
}

func (AddRect) isCommand()             {}
func (AddStroke) isCommand()           {}
func (SetDetections) isCommand()       {}
func (ToggleDetection) isCommand()     {}
func (AcceptAllDetections) isCommand() {}
func (RejectAllDetections) isCommand() {}
func (ConvertAccepted) isCommand()     {}
func (Reset) isCommand()               {}

// Apply is the pure transition function (MaskSet, Command) -> MaskSet.
// The input set is never modified. Commands with out-of-range indexes are
// identity transitions.
func Apply(set MaskSet, cmd Command) MaskSet {
	out := set.Clone()
	switch c := cmd.(type) {
	case AddRect:
		out.Rects = append(out.Rects, c.Rect)
	case AddStroke:
		stroke := BlurBrushStroke{
			Points:   append([]BrushPoint(nil), c.Stroke.Points...),
			Radius:   c.Stroke.Radius,
			Strength: c.Stroke.Strength,
		}
		out.Brush = append(out.Brush, stroke)
	case SetDetections:
		out.AutoDetections = make([]FaceDetection, len(c.Detections))
		copy(out.AutoDetections, c.Detections)
	case ToggleDetection:
		if c.Index >= 0 && c.Index < len(out.AutoDetections) {
			out.AutoDetections[c.Index].Accepted = !out.AutoDetections[c.Index].Accepted
		}
	case AcceptAllDetections:
		for i := range out.AutoDetections {
			out.AutoDetections[i].Accepted = true
		}
	case RejectAllDetections:
		out.AutoDetections = nil
	case ConvertAccepted:
		out = Reconcile(out, c.CornerRadius)
	case Reset:
		out = c.Set.Clone()
	}
	return out
}
