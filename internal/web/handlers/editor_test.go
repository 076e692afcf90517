package handlers

import (
	"bytes"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Shaftdog/Appraisermod-sub001/internal/editor"
	"github.com/Shaftdog/Appraisermod-sub001/internal/mask"
	"github.com/Shaftdog/Appraisermod-sub001/internal/photoservice"
)

func testPhoto() *photoservice.Photo {
	return &photoservice.Photo{
		ID:      "photo-1",
		OrderID: "order-1",
		Width:   32,
		Height:  24,
		Status:  "review",
	}
}

func TestEditorHandler_Open_Success(t *testing.T) {
	mock := setupMockPhotoService(t, testPhoto())
	handler := NewEditorHandler(newTestManager(t, mock))

	req := httptest.NewRequest("POST", "/api/v1/orders/order-1/photos/photo-1/editor", nil)
	req = requestWithChiParams(req, map[string]string{"orderID": "order-1", "photoID": "photo-1"})
	recorder := httptest.NewRecorder()

	handler.Open(recorder, req)

	assertStatusCode(t, recorder, http.StatusCreated)

	var state editor.State
	parseJSONResponse(t, recorder, &state)
	if state.SessionID == "" {
		t.Error("expected a session id")
	}
	if state.Width != 32 || state.Height != 24 {
		t.Errorf("expected 32x24 frame, got %dx%d", state.Width, state.Height)
	}
	if state.Tool != editor.ToolSelect {
		t.Errorf("expected select tool, got %q", state.Tool)
	}
}

func TestEditorHandler_Open_PhotoNotFound(t *testing.T) {
	mock := setupMockPhotoService(t, testPhoto())
	handler := NewEditorHandler(newTestManager(t, mock))

	req := httptest.NewRequest("POST", "/api/v1/orders/order-1/photos/missing/editor", nil)
	req = requestWithChiParams(req, map[string]string{"orderID": "order-1", "photoID": "missing"})
	recorder := httptest.NewRecorder()

	handler.Open(recorder, req)

	assertStatusCode(t, recorder, http.StatusNotFound)
}

func TestEditorHandler_UnknownSession(t *testing.T) {
	mock := setupMockPhotoService(t, testPhoto())
	handler := NewEditorHandler(newTestManager(t, mock))

	req := sessionRequest("GET", "/api/v1/editor/nope", "nope", nil)
	recorder := httptest.NewRecorder()

	handler.State(recorder, req)

	assertStatusCode(t, recorder, http.StatusNotFound)
}

func TestEditorHandler_GestureCommitsBox(t *testing.T) {
	mock := setupMockPhotoService(t, testPhoto())
	mgr := newTestManager(t, mock)
	handler := NewEditorHandler(mgr)
	s := openTestSession(t, mgr, "order-1", "photo-1")

	toolReq := sessionRequest("PUT", "/api/v1/editor/"+s.ID+"/tool", s.ID,
		ToolRequest{Tool: editor.ToolBox})
	recorder := httptest.NewRecorder()
	handler.SetTool(recorder, toolReq)
	assertStatusCode(t, recorder, http.StatusOK)

	gestureReq := sessionRequest("POST", "/api/v1/editor/"+s.ID+"/gesture", s.ID,
		GestureRequest{Points: []editor.Point{{X: 2, Y: 2}, {X: 20, Y: 14}}})
	recorder = httptest.NewRecorder()
	handler.Gesture(recorder, gestureReq)
	assertStatusCode(t, recorder, http.StatusOK)

	var resp GestureResponse
	parseJSONResponse(t, recorder, &resp)
	if !resp.Committed {
		t.Fatal("expected gesture to commit")
	}
	if len(resp.State.Masks.Rects) != 1 {
		t.Errorf("expected 1 rect, got %d", len(resp.State.Masks.Rects))
	}
	if !resp.State.CanUndo {
		t.Error("expected gesture to be undoable")
	}
}

func TestEditorHandler_GestureRejectsEmptyPoints(t *testing.T) {
	mock := setupMockPhotoService(t, testPhoto())
	mgr := newTestManager(t, mock)
	handler := NewEditorHandler(mgr)
	s := openTestSession(t, mgr, "order-1", "photo-1")

	req := sessionRequest("POST", "/api/v1/editor/"+s.ID+"/gesture", s.ID, GestureRequest{})
	recorder := httptest.NewRecorder()
	handler.Gesture(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
}

func TestEditorHandler_SetTool_Unknown(t *testing.T) {
	mock := setupMockPhotoService(t, testPhoto())
	mgr := newTestManager(t, mock)
	handler := NewEditorHandler(mgr)
	s := openTestSession(t, mgr, "order-1", "photo-1")

	req := sessionRequest("PUT", "/api/v1/editor/"+s.ID+"/tool", s.ID,
		map[string]string{"tool": "lasso"})
	recorder := httptest.NewRecorder()
	handler.SetTool(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
}

func TestEditorHandler_UndoRedo(t *testing.T) {
	mock := setupMockPhotoService(t, testPhoto())
	mgr := newTestManager(t, mock)
	handler := NewEditorHandler(mgr)
	s := openTestSession(t, mgr, "order-1", "photo-1")

	s.SetTool(editor.ToolBox)
	s.Gesture([]editor.Point{{X: 2, Y: 2}, {X: 20, Y: 14}})

	recorder := httptest.NewRecorder()
	handler.Undo(recorder, sessionRequest("POST", "/api/v1/editor/"+s.ID+"/undo", s.ID, nil))
	assertStatusCode(t, recorder, http.StatusOK)

	var resp UndoRedoResponse
	parseJSONResponse(t, recorder, &resp)
	if !resp.Applied {
		t.Fatal("expected undo to apply")
	}
	if len(resp.State.Masks.Rects) != 0 {
		t.Error("expected rect removed after undo")
	}

	// A second undo hits the history boundary.
	recorder = httptest.NewRecorder()
	handler.Undo(recorder, sessionRequest("POST", "/api/v1/editor/"+s.ID+"/undo", s.ID, nil))
	parseJSONResponse(t, recorder, &resp)
	if resp.Applied {
		t.Error("expected undo at boundary to report applied=false")
	}

	recorder = httptest.NewRecorder()
	handler.Redo(recorder, sessionRequest("POST", "/api/v1/editor/"+s.ID+"/redo", s.ID, nil))
	parseJSONResponse(t, recorder, &resp)
	if !resp.Applied || len(resp.State.Masks.Rects) != 1 {
		t.Errorf("expected redo to restore the rect, got %+v", resp)
	}
}

func TestEditorHandler_ToggleDetection_OutOfRange(t *testing.T) {
	mock := setupMockPhotoService(t, testPhoto())
	mgr := newTestManager(t, mock)
	handler := NewEditorHandler(mgr)
	s := openTestSession(t, mgr, "order-1", "photo-1")

	req := sessionRequest("POST", "/api/v1/editor/"+s.ID+"/detections/3/toggle", s.ID, nil)
	req = requestWithChiParams(req, map[string]string{"sessionID": s.ID, "index": "3"})
	recorder := httptest.NewRecorder()
	handler.ToggleDetection(recorder, req)

	assertStatusCode(t, recorder, http.StatusNotFound)
}

func TestEditorHandler_Preview_ServesPNG(t *testing.T) {
	mock := setupMockPhotoService(t, testPhoto())
	mgr := newTestManager(t, mock)
	handler := NewEditorHandler(mgr)
	s := openTestSession(t, mgr, "order-1", "photo-1")

	recorder := httptest.NewRecorder()
	handler.Preview(recorder, sessionRequest("GET", "/api/v1/editor/"+s.ID+"/preview", s.ID, nil))

	assertStatusCode(t, recorder, http.StatusOK)
	if ct := recorder.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %q", ct)
	}
	if _, err := png.Decode(bytes.NewReader(recorder.Body.Bytes())); err != nil {
		t.Errorf("response is not valid PNG: %v", err)
	}
}

func TestEditorHandler_Save_SubmitsReconciledMasks(t *testing.T) {
	photo := testPhoto()
	photo.Masks = &mask.MaskSet{
		Rects: []mask.BlurRect{{X: 1, Y: 1, W: 10, H: 10, Radius: 2}},
		AutoDetections: []mask.FaceDetection{
			{X: 4, Y: 4, W: 8, H: 8, Accepted: true},
			{X: 20, Y: 4, W: 8, H: 8},
		},
	}
	mock := setupMockPhotoService(t, photo)
	mgr := newTestManager(t, mock)
	handler := NewEditorHandler(mgr)
	s := openTestSession(t, mgr, "order-1", "photo-1")

	recorder := httptest.NewRecorder()
	handler.Save(recorder, sessionRequest("POST", "/api/v1/editor/"+s.ID+"/save", s.ID, nil))

	assertStatusCode(t, recorder, http.StatusOK)
	if len(mock.SetMasks) != 1 {
		t.Fatalf("expected 1 mask submission, got %d", len(mock.SetMasks))
	}
	payload := mock.SetMasks[0]
	if len(payload.Rects) != 2 {
		t.Errorf("expected accepted detection folded into rects, got %d rects", len(payload.Rects))
	}
	if len(payload.AutoDetections) != 1 || payload.AutoDetections[0].Accepted {
		t.Errorf("expected only the pending detection submitted, got %+v", payload.AutoDetections)
	}
	if mock.Processed != 1 {
		t.Errorf("expected 1 process call, got %d", mock.Processed)
	}
}

func TestEditorHandler_Save_FailureKeepsSession(t *testing.T) {
	photo := testPhoto()
	photo.Masks = &mask.MaskSet{
		Rects: []mask.BlurRect{{X: 1, Y: 1, W: 10, H: 10}},
	}
	mock := setupMockPhotoService(t, photo)
	mock.FailSave = true
	mgr := newTestManager(t, mock)
	handler := NewEditorHandler(mgr)
	s := openTestSession(t, mgr, "order-1", "photo-1")

	recorder := httptest.NewRecorder()
	handler.Save(recorder, sessionRequest("POST", "/api/v1/editor/"+s.ID+"/save", s.ID, nil))

	assertStatusCode(t, recorder, http.StatusBadGateway)
	if _, ok := mgr.Get(s.ID); !ok {
		t.Error("expected session to stay open after failed save")
	}
	if len(s.State().Masks.Rects) != 1 {
		t.Error("expected local masks untouched after failed save")
	}
}

func TestEditorHandler_Close(t *testing.T) {
	mock := setupMockPhotoService(t, testPhoto())
	mgr := newTestManager(t, mock)
	handler := NewEditorHandler(mgr)
	s := openTestSession(t, mgr, "order-1", "photo-1")

	recorder := httptest.NewRecorder()
	handler.Close(recorder, sessionRequest("DELETE", "/api/v1/editor/"+s.ID, s.ID, nil))
	assertStatusCode(t, recorder, http.StatusNoContent)

	recorder = httptest.NewRecorder()
	handler.Close(recorder, sessionRequest("DELETE", "/api/v1/editor/"+s.ID, s.ID, nil))
	assertStatusCode(t, recorder, http.StatusNotFound)
}

func TestHealthCheck(t *testing.T) {
	recorder := httptest.NewRecorder()
	HealthCheck(recorder, httptest.NewRequest("GET", "/api/v1/health", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	var body map[string]string
	parseJSONResponse(t, recorder, &body)
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}
