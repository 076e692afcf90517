package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Shaftdog/Appraisermod-sub001/internal/editor"
	"github.com/Shaftdog/Appraisermod-sub001/internal/photoservice"
)

// EditorHandler exposes mask editing sessions over HTTP.
type EditorHandler struct {
	sessions *editor.Manager
}

// NewEditorHandler creates a new editor handler.
func NewEditorHandler(sessions *editor.Manager) *EditorHandler {
	return &EditorHandler{sessions: sessions}
}

// getSession resolves the session from the URL, responding 404 when it is not
// open. Returns nil after writing the response.
func (h *EditorHandler) getSession(w http.ResponseWriter, r *http.Request) *editor.Session {
	id := chi.URLParam(r, "sessionID")
	s, ok := h.sessions.Get(id)
	if !ok {
		respondError(w, http.StatusNotFound, "editor session not found")
		return nil
	}
	return s
}

// Open loads a photo and starts an editing session for it.
func (h *EditorHandler) Open(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	photoID := chi.URLParam(r, "photoID")

	s, err := h.sessions.Open(r.Context(), orderID, photoID)
	if err != nil {
		if photoservice.IsNotFoundError(err) {
			respondError(w, http.StatusNotFound, "photo not found")
			return
		}
		log.Printf("failed to open editor session for photo %s: %v", photoID, err)
		respondError(w, http.StatusBadGateway, "failed to load photo")
		return
	}
	respondJSON(w, http.StatusCreated, s.State())
}

// State returns the current session snapshot.
func (h *EditorHandler) State(w http.ResponseWriter, r *http.Request) {
	s := h.getSession(w, r)
	if s == nil {
		return
	}
	respondJSON(w, http.StatusOK, s.State())
}

// Close ends the session and discards unsaved edits.
func (h *EditorHandler) Close(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if !h.sessions.Close(id) {
		respondError(w, http.StatusNotFound, "editor session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToolRequest selects the active tool and its parameters.
type ToolRequest struct {
	Tool          editor.Tool      `json:"tool"`
	Viewport      *editor.Viewport `json:"viewport,omitempty"`
	BrushRadius   float64          `json:"brushRadius,omitempty"`
	BrushStrength float64          `json:"brushStrength,omitempty"`
}

// SetTool switches the active tool for subsequent gestures.
func (h *EditorHandler) SetTool(w http.ResponseWriter, r *http.Request) {
	s := h.getSession(w, r)
	if s == nil {
		return
	}

	var req ToolRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if err := s.SetTool(req.Tool); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Viewport != nil {
		s.SetViewport(*req.Viewport)
	}
	if req.BrushRadius > 0 || req.BrushStrength > 0 {
		s.SetBrush(req.BrushRadius, req.BrushStrength)
	}
	respondJSON(w, http.StatusOK, s.State())
}

// GestureRequest is a full pointer-down/move/up sequence in screen
// coordinates, with the viewport active while it was drawn.
type GestureRequest struct {
	Points   []editor.Point   `json:"points"`
	Viewport *editor.Viewport `json:"viewport,omitempty"`
}

// GestureResponse reports whether the gesture committed a mutation.
type GestureResponse struct {
	Committed bool         `json:"committed"`
	State     editor.State `json:"state"`
}

// Gesture replays a pointer sequence through the active tool.
func (h *EditorHandler) Gesture(w http.ResponseWriter, r *http.Request) {
	s := h.getSession(w, r)
	if s == nil {
		return
	}

	var req GestureRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if len(req.Points) == 0 {
		respondError(w, http.StatusBadRequest, "gesture requires at least one point")
		return
	}
	if req.Viewport != nil {
		s.SetViewport(*req.Viewport)
	}
	committed := s.Gesture(req.Points)
	respondJSON(w, http.StatusOK, GestureResponse{Committed: committed, State: s.State()})
}

// UndoRedoResponse reports whether the history moved.
type UndoRedoResponse struct {
	Applied bool         `json:"applied"`
	State   editor.State `json:"state"`
}

// Undo steps the mask set back one history entry.
func (h *EditorHandler) Undo(w http.ResponseWriter, r *http.Request) {
	s := h.getSession(w, r)
	if s == nil {
		return
	}
	applied := s.Undo()
	respondJSON(w, http.StatusOK, UndoRedoResponse{Applied: applied, State: s.State()})
}

// Redo reapplies the most recently undone entry.
func (h *EditorHandler) Redo(w http.ResponseWriter, r *http.Request) {
	s := h.getSession(w, r)
	if s == nil {
		return
	}
	applied := s.Redo()
	respondJSON(w, http.StatusOK, UndoRedoResponse{Applied: applied, State: s.State()})
}

// ToggleDetection flips the accepted flag of one face detection.
func (h *EditorHandler) ToggleDetection(w http.ResponseWriter, r *http.Request) {
	s := h.getSession(w, r)
	if s == nil {
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid detection index")
		return
	}
	if !s.ToggleDetection(index) {
		respondError(w, http.StatusNotFound, "no detection at index")
		return
	}
	respondJSON(w, http.StatusOK, s.State())
}

// AcceptAllDetections marks every detection accepted.
func (h *EditorHandler) AcceptAllDetections(w http.ResponseWriter, r *http.Request) {
	s := h.getSession(w, r)
	if s == nil {
		return
	}
	s.AcceptAllDetections()
	respondJSON(w, http.StatusOK, s.State())
}

// RejectAllDetections clears the detection list.
func (h *EditorHandler) RejectAllDetections(w http.ResponseWriter, r *http.Request) {
	s := h.getSession(w, r)
	if s == nil {
		return
	}
	s.RejectAllDetections()
	respondJSON(w, http.StatusOK, s.State())
}

// Preview serves the latest preview composite as PNG.
func (h *EditorHandler) Preview(w http.ResponseWriter, r *http.Request) {
	s := h.getSession(w, r)
	if s == nil {
		return
	}

	data, err := s.Preview()
	if err != nil {
		log.Printf("failed to render preview for session %s: %v", s.ID, err)
		respondError(w, http.StatusInternalServerError, "failed to render preview")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Save submits the reconciled mask set and triggers reprocessing. The session
// stays open; a failed save leaves local edits intact for retry.
func (h *EditorHandler) Save(w http.ResponseWriter, r *http.Request) {
	s := h.getSession(w, r)
	if s == nil {
		return
	}

	photo, err := s.Save(r.Context())
	if err != nil {
		log.Printf("failed to save masks for session %s: %v", s.ID, err)
		respondError(w, http.StatusBadGateway, "failed to save masks")
		return
	}
	respondJSON(w, http.StatusOK, photo)
}
