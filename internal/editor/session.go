package editor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"sync"

	"github.com/Shaftdog/Appraisermod-sub001/internal/config"
	"github.com/Shaftdog/Appraisermod-sub001/internal/detect"
	"github.com/Shaftdog/Appraisermod-sub001/internal/mask"
	"github.com/Shaftdog/Appraisermod-sub001/internal/photoservice"
	"github.com/Shaftdog/Appraisermod-sub001/internal/preview"
)

// PhotoService is the slice of the photo API the editor needs.
type PhotoService interface {
	GetPhoto(ctx context.Context, orderID, photoID string) (*photoservice.Photo, error)
	SetMasks(ctx context.Context, orderID, photoID string, payload mask.MaskSet) (*photoservice.Photo, error)
	Process(ctx context.Context, orderID, photoID string) (*photoservice.Photo, error)
	GetVariant(ctx context.Context, orderID, photoID, variant string) ([]byte, string, error)
}

// Session is one authoring session over a single photo. It owns the mask
// store, the tool controller, the detection adapter and the preview pipeline
// for that photo. All methods are safe for concurrent use; mutations are
// serialized so each completed gesture lands as exactly one history entry.
type Session struct {
	ID      string
	OrderID string
	PhotoID string

	mu       sync.Mutex
	photos   PhotoService
	store    *mask.Store
	tools    *ToolController
	adapter  *detect.Adapter
	pipeline *preview.Pipeline
	frame    *image.RGBA
	closed   bool

	previewMu   sync.Mutex
	lastPreview []byte
}

func newSession(ctx context.Context, id, orderID, photoID string, photos PhotoService, detector detect.Detector, cfg *config.Config) (*Session, error) {
	photo, err := photos.GetPhoto(ctx, orderID, photoID)
	if err != nil {
		return nil, fmt.Errorf("could not load photo %s: %w", photoID, err)
	}

	data, _, err := photos.GetVariant(ctx, orderID, photoID, photoservice.VariantDisplay)
	if err != nil {
		return nil, fmt.Errorf("could not load display variant: %w", err)
	}
	frame, err := decodeRGBA(data)
	if err != nil {
		return nil, fmt.Errorf("could not decode display variant: %w", err)
	}

	initial := mask.MaskSet{}
	if photo.Masks != nil {
		initial = *photo.Masks
	}

	s := &Session{
		ID:      id,
		OrderID: orderID,
		PhotoID: photoID,
		photos:  photos,
		frame:   frame,
	}
	s.store = mask.NewStoreFrom(initial, cfg.Tools.MinRectSize, cfg.Tools.FaceCornerRadius)
	s.tools = NewToolController(s.store, cfg.Tools)
	s.adapter = detect.NewAdapter(detector, s.store)
	s.adapter.EnsureDetections(ctx, data)

	var renderer preview.Renderer
	if cfg.Preview.WorkerEnabled {
		renderer = &preview.BoxBlurRenderer{Radius: cfg.Preview.BlurRadius}
	}
	s.pipeline = preview.NewPipeline(renderer, cfg.Preview.BlockSize, s.storePreview)

	s.pipeline.Render(s.frame, s.store.Current())
	return s, nil
}

// storePreview encodes a delivered composite. Runs on the pipeline's
// delivery path, so it must not take s.mu.
func (s *Session) storePreview(img *image.RGBA) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return
	}
	s.previewMu.Lock()
	s.lastPreview = buf.Bytes()
	s.previewMu.Unlock()
}

// refreshPreviewLocked re-renders the composite for the current mask set.
// An empty set invalidates the cached composite instead, so Preview falls
// back to the source frame. Caller holds s.mu.
func (s *Session) refreshPreviewLocked() {
	set := s.store.Current()
	if set.Empty() {
		s.pipeline.Invalidate()
		s.previewMu.Lock()
		s.lastPreview = nil
		s.previewMu.Unlock()
		return
	}
	s.pipeline.Render(s.frame, set)
}

// Point is a pointer sample in screen coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// SetTool switches the active tool and optionally the viewport and tool
// parameters for subsequent gestures.
func (s *Session) SetTool(t Tool) error {
	if !ValidTool(t) {
		return fmt.Errorf("unknown tool %q", t)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tools.SetTool(t)
	return nil
}

// SetViewport updates the screen-to-image transform used for gestures.
func (s *Session) SetViewport(v Viewport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tools.SetViewport(v)
}

// SetBrush adjusts the brush radius and strength.
func (s *Session) SetBrush(radius, strength float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tools.SetBrush(radius, strength)
}

// Gesture replays a full pointer-down/move/up sequence through the tool
// controller. Returns true when the gesture committed a mask mutation.
func (s *Session) Gesture(points []Point) bool {
	if len(points) == 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools.PointerDown(points[0].X, points[0].Y)
	for _, p := range points[1:] {
		s.tools.PointerMove(p.X, p.Y)
	}
	last := points[len(points)-1]
	committed := s.tools.PointerUp(last.X, last.Y)
	if committed {
		s.refreshPreviewLocked()
	}
	return committed
}

// Undo steps the mask set back one entry. Returns false at the boundary.
func (s *Session) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.store.Undo() {
		return false
	}
	s.refreshPreviewLocked()
	return true
}

// Redo reapplies the most recently undone entry.
func (s *Session) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.store.Redo() {
		return false
	}
	s.refreshPreviewLocked()
	return true
}

// ToggleDetection flips the accepted flag of one detection.
func (s *Session) ToggleDetection(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adapter.Toggle(index)
}

// AcceptAllDetections marks every detection accepted.
func (s *Session) AcceptAllDetections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adapter.AcceptAll()
}

// RejectAllDetections clears the detection list.
func (s *Session) RejectAllDetections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adapter.RejectAll()
}

// State is the session snapshot served to the client.
type State struct {
	SessionID         string       `json:"sessionId"`
	OrderID           string       `json:"orderId"`
	PhotoID           string       `json:"photoId"`
	Width             int          `json:"width"`
	Height            int          `json:"height"`
	Tool              Tool         `json:"tool"`
	Masks             mask.MaskSet `json:"masks"`
	CanUndo           bool         `json:"canUndo"`
	CanRedo           bool         `json:"canRedo"`
	DetectorAvailable bool         `json:"detectorAvailable"`
	PreviewDegraded   bool         `json:"previewDegraded"`
	WorkerSupported   bool         `json:"workerSupported"`
}

// State returns the current session snapshot.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.frame.Bounds()
	return State{
		SessionID:         s.ID,
		OrderID:           s.OrderID,
		PhotoID:           s.PhotoID,
		Width:             b.Dx(),
		Height:            b.Dy(),
		Tool:              s.tools.Tool(),
		Masks:             s.store.Current(),
		CanUndo:           s.store.CanUndo(),
		CanRedo:           s.store.CanRedo(),
		DetectorAvailable: s.adapter.Available(),
		PreviewDegraded:   s.pipeline.Degraded(),
		WorkerSupported:   s.pipeline.WorkerSupported(),
	}
}

// Preview returns the latest composite as PNG. With no paint masks present
// the unmodified source frame is returned.
func (s *Session) Preview() ([]byte, error) {
	s.previewMu.Lock()
	last := s.lastPreview
	s.previewMu.Unlock()
	if last != nil {
		return last, nil
	}

	s.mu.Lock()
	frame := s.frame
	s.mu.Unlock()
	var buf bytes.Buffer
	if err := png.Encode(&buf, frame); err != nil {
		return nil, fmt.Errorf("could not encode preview: %w", err)
	}
	return buf.Bytes(), nil
}

// Save pushes the reconciled mask set to the photo service and asks it to
// regenerate the blurred variant. Accepted detections are folded into plain
// rects only after both calls succeed; on any failure the local mask state
// and history are left untouched so the user can retry.
func (s *Session) Save(ctx context.Context) (*photoservice.Photo, error) {
	// Snapshot the payload, then release the lock for the network round
	// trips so State and Gesture stay responsive while a save is in flight.
	s.mu.Lock()
	payload := s.store.Reconciled()
	s.mu.Unlock()

	if _, err := s.photos.SetMasks(ctx, s.OrderID, s.PhotoID, payload); err != nil {
		return nil, fmt.Errorf("could not save masks: %w", err)
	}
	photo, err := s.photos.Process(ctx, s.OrderID, s.PhotoID)
	if err != nil {
		return nil, fmt.Errorf("could not process photo: %w", err)
	}

	s.mu.Lock()
	s.store.ConvertAcceptedDetectionsToRects()
	s.refreshPreviewLocked()
	s.mu.Unlock()
	return photo, nil
}

// Close releases the preview pipeline. The session must not be used after.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.pipeline.Close()
}

// decodeRGBA decodes PNG or JPEG bytes into an RGBA frame.
func decodeRGBA(data []byte) (*image.RGBA, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	return rgba, nil
}
