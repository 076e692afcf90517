package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/Shaftdog/Appraisermod-sub001/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	editorHandler := handlers.NewEditorHandler(s.sessions)

	// Health check
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		// Opening an editor session loads the photo and its masks
		r.Post("/orders/{orderID}/photos/{photoID}/editor", editorHandler.Open)

		// All other editor operations address an open session
		r.Route("/editor/{sessionID}", func(r chi.Router) {
			r.Get("/", editorHandler.State)
			r.Delete("/", editorHandler.Close)
			r.Put("/tool", editorHandler.SetTool)
			r.Post("/gesture", editorHandler.Gesture)
			r.Post("/undo", editorHandler.Undo)
			r.Post("/redo", editorHandler.Redo)
			r.Post("/detections/{index}/toggle", editorHandler.ToggleDetection)
			r.Post("/detections/accept-all", editorHandler.AcceptAllDetections)
			r.Post("/detections/reject-all", editorHandler.RejectAllDetections)
			r.Get("/preview", editorHandler.Preview)
			r.Post("/save", editorHandler.Save)
		})
	})
}
