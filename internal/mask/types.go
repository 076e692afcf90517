package mask

// All geometry lives in unzoomed image-pixel coordinates. Anything arriving
// from a zoomed or panned viewport must be converted before it gets here.

// BlurRect is an axis-aligned redaction rectangle with corner rounding.
type BlurRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	W      float64 `json:"w"`
	H      float64 `json:"h"`
	Radius float64 `json:"radius"`
}

// BrushPoint is a single sample point of a brush stroke.
type BrushPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BlurBrushStroke is a freehand redaction stroke. A stroke is only valid with
// at least two points; Strength is in (0, 1].
type BlurBrushStroke struct {
	Points   []BrushPoint `json:"points"`
	Radius   float64      `json:"radius"`
	Strength float64      `json:"strength"`
}

// FaceDetection is a candidate region supplied by the external face detector,
// pending manual accept or reject. Accepted starts false.
type FaceDetection struct {
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	W          float64  `json:"w"`
	H          float64  `json:"h"`
	Confidence *float64 `json:"confidence,omitempty"`
	Accepted   bool     `json:"accepted"`
}

// MaskSet is the complete, order-preserving description of all redaction
// regions for one photo. It is also the payload shape submitted to the photo
// service on save.
type MaskSet struct {
	Rects          []BlurRect        `json:"rects"`
	Brush          []BlurBrushStroke `json:"brush"`
	AutoDetections []FaceDetection   `json:"autoDetections"`
}

// Clone returns a deep copy. History snapshots and the save payload are built
// from clones so no caller can observe a partially mutated set.
func (s MaskSet) Clone() MaskSet {
	out := MaskSet{
		Rects:          make([]BlurRect, len(s.Rects)),
		Brush:          make([]BlurBrushStroke, len(s.Brush)),
		AutoDetections: make([]FaceDetection, len(s.AutoDetections)),
	}
	copy(out.Rects, s.Rects)
	for i, stroke := range s.Brush {
		points := make([]BrushPoint, len(stroke.Points))
		copy(points, stroke.Points)
		out.Brush[i] = BlurBrushStroke{Points: points, Radius: stroke.Radius, Strength: stroke.Strength}
	}
	for i, det := range s.AutoDetections {
		c := det
		if det.Confidence != nil {
			conf := *det.Confidence
			c.Confidence = &conf
		}
		out.AutoDetections[i] = c
	}
	return out
}

// Empty reports whether the set contains no materialized redaction regions.
// Pending detections do not count; they never affect rendering.
func (s MaskSet) Empty() bool {
	return len(s.Rects) == 0 && len(s.Brush) == 0
}

// Reconcile folds accepted detections into the rect list and returns the set
// that persistence expects: rects plus one synthesized rect per accepted
// detection (with the fixed face corner radius), and only the non-accepted
// detections remaining.
func Reconcile(s MaskSet, faceCornerRadius float64) MaskSet {
	out := s.Clone()
	remaining := out.AutoDetections[:0]
	for _, det := range out.AutoDetections {
		if det.Accepted {
			out.Rects = append(out.Rects, BlurRect{
				X:      det.X,
				Y:      det.Y,
				W:      det.W,
				H:      det.H,
				Radius: faceCornerRadius,
			})
			continue
		}
		remaining = append(remaining, det)
	}
	out.AutoDetections = remaining
	return out
}
