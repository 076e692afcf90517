package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/Shaftdog/Appraisermod-sub001/internal/config"
	"github.com/Shaftdog/Appraisermod-sub001/internal/editor"
	"github.com/Shaftdog/Appraisermod-sub001/internal/mask"
	"github.com/Shaftdog/Appraisermod-sub001/internal/photoservice"
)

// testConfig creates a minimal config for testing
func testConfig() *config.Config {
	return &config.Config{
		Preview: config.PreviewConfig{BlockSize: 8, BlurRadius: 12},
		Tools: config.ToolsConfig{
			MinRectSize:      5,
			BoxCornerRadius:  2,
			BrushRadius:      12,
			BrushStrength:    0.8,
			FaceCornerRadius: 4,
		},
	}
}

// testPNG encodes a small gradient image for variant downloads
func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 77, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

// setupMockPhotoService creates a mock photo service with one photo record.
// The photo pointer stays live so tests can inspect masks submitted on save.
type mockPhotoService struct {
	Server    *httptest.Server
	Photo     *photoservice.Photo
	SetMasks  []mask.MaskSet
	Processed int
	FailSave  bool
}

func setupMockPhotoService(t *testing.T, photo *photoservice.Photo) *mockPhotoService {
	t.Helper()
	m := &mockPhotoService{Photo: photo}

	mux := http.NewServeMux()
	base := "/api/v1/orders/" + photo.OrderID + "/photos/" + photo.ID
	mux.HandleFunc("GET "+base, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(m.Photo)
	})
	mux.HandleFunc("GET "+base+"/variants/display", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(testPNG(t, 32, 24))
	})
	mux.HandleFunc("PUT "+base+"/masks", func(w http.ResponseWriter, r *http.Request) {
		var payload mask.MaskSet
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "bad payload", http.StatusBadRequest)
			return
		}
		m.SetMasks = append(m.SetMasks, payload)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(m.Photo)
	})
	mux.HandleFunc("POST "+base+"/process", func(w http.ResponseWriter, r *http.Request) {
		if m.FailSave {
			http.Error(w, "processing unavailable", http.StatusServiceUnavailable)
			return
		}
		m.Processed++
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(m.Photo)
	})

	m.Server = httptest.NewServer(mux)
	t.Cleanup(m.Server.Close)
	return m
}

// newTestManager creates a session manager backed by the mock photo service
func newTestManager(t *testing.T, m *mockPhotoService) *editor.Manager {
	t.Helper()
	client, err := photoservice.NewClient(m.Server.URL, "test-token")
	if err != nil {
		t.Fatalf("failed to create photo service client: %v", err)
	}
	mgr := editor.NewManager(testConfig(), client, nil)
	t.Cleanup(mgr.CloseAll)
	return mgr
}

// openTestSession opens a session directly through the manager
func openTestSession(t *testing.T, mgr *editor.Manager, orderID, photoID string) *editor.Session {
	t.Helper()
	s, err := mgr.Open(context.Background(), orderID, photoID)
	if err != nil {
		t.Fatalf("failed to open session: %v", err)
	}
	return s
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// sessionRequest creates a request addressed at an open session
func sessionRequest(method, path, sessionID string, body any) *http.Request {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	return requestWithChiParams(req, map[string]string{"sessionID": sessionID})
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}
