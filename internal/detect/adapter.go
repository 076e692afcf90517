package detect

import (
	"context"
	"log"

	"github.com/Shaftdog/Appraisermod-sub001/internal/mask"
)

// Detector is the contract of the external face detector.
type Detector interface {
	Available(ctx context.Context) bool
	Detect(ctx context.Context, imageData []byte) ([]mask.FaceDetection, error)
}

// Adapter merges detector results into the mask store and exposes the
// accept/reject operations. Detection failure is never fatal: the adapter
// degrades to unavailable and manual tools keep working.
type Adapter struct {
	detector  Detector
	store     *mask.Store
	available bool
	ran       bool
}

// NewAdapter creates an adapter for one editing session. A nil detector means
// detection is disabled (manual tools only).
func NewAdapter(detector Detector, store *mask.Store) *Adapter {
	return &Adapter{
		detector:  detector,
		store:     store,
		available: detector != nil,
	}
}

// EnsureDetections runs the detector once per freshly loaded image, and only
// when no prior detections exist for it. Failures flip the adapter to
// unavailable and are reported as a status flag, not surfaced as errors.
func (a *Adapter) EnsureDetections(ctx context.Context, imageData []byte) {
	if a.ran || !a.available {
		return
	}
	a.ran = true
	if len(a.store.Current().AutoDetections) > 0 {
		return
	}
	if !a.detector.Available(ctx) {
		a.available = false
		return
	}
	detections, err := a.detector.Detect(ctx, imageData)
	if err != nil {
		log.Printf("face detection failed, continuing with manual tools: %v", err)
		a.available = false
		return
	}
	if len(detections) > 0 {
		a.store.SetDetections(detections)
	}
}

// Available reports whether the detector can be used this session.
func (a *Adapter) Available() bool {
	return a.available
}

// Toggle flips the accepted flag of one detection.
func (a *Adapter) Toggle(index int) bool {
	return a.store.ToggleDetectionAccepted(index)
}

// AcceptAll marks every detection accepted.
func (a *Adapter) AcceptAll() {
	a.store.AcceptAllDetections()
}

// RejectAll clears the detection list.
func (a *Adapter) RejectAll() {
	a.store.RejectAllDetections()
}
