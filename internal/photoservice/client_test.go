package photoservice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Shaftdog/Appraisermod-sub001/internal/mask"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, "test-token")
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return c, srv
}

func TestGetPhoto(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/orders/ord1/photos/ph1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("missing bearer token, got %q", got)
		}
		json.NewEncoder(w).Encode(Photo{
			ID:      "ph1",
			OrderID: "ord1",
			Width:   4032,
			Height:  3024,
			Masks: &mask.MaskSet{
				Rects: []mask.BlurRect{{X: 10, Y: 10, W: 50, H: 50, Radius: 2}},
			},
		})
	}))

	photo, err := c.GetPhoto(context.Background(), "ord1", "ph1")
	if err != nil {
		t.Fatalf("GetPhoto failed: %v", err)
	}
	if photo.ID != "ph1" || photo.Width != 4032 {
		t.Errorf("unexpected photo %+v", photo)
	}
	if photo.Masks == nil || len(photo.Masks.Rects) != 1 {
		t.Error("persisted masks were not decoded")
	}
}

func TestSetMasksSubmitsPayload(t *testing.T) {
	var received mask.MaskSet
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		if r.URL.Path != "/api/v1/orders/ord1/photos/ph1/masks" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("could not decode payload: %v", err)
		}
		json.NewEncoder(w).Encode(Photo{ID: "ph1", Status: "masked"})
	}))

	payload := mask.MaskSet{
		Rects: []mask.BlurRect{{X: 1, Y: 2, W: 30, H: 40, Radius: 4}},
		Brush: []mask.BlurBrushStroke{{
			Points:   []mask.BrushPoint{{X: 5, Y: 5}, {X: 9, Y: 9}},
			Radius:   8,
			Strength: 0.7,
		}},
	}
	photo, err := c.SetMasks(context.Background(), "ord1", "ph1", payload)
	if err != nil {
		t.Fatalf("SetMasks failed: %v", err)
	}
	if photo.Status != "masked" {
		t.Errorf("unexpected status %q", photo.Status)
	}
	if len(received.Rects) != 1 || received.Rects[0].W != 30 {
		t.Errorf("service received wrong rects: %+v", received.Rects)
	}
	if len(received.Brush) != 1 || len(received.Brush[0].Points) != 2 {
		t.Errorf("service received wrong brush payload: %+v", received.Brush)
	}
}

func TestProcessFailureSurfaces(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "processing backend down", http.StatusBadGateway)
	}))

	if _, err := c.Process(context.Background(), "ord1", "ph1"); err == nil {
		t.Error("expected Process to surface the service error")
	}
}

func TestGetVariant(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/orders/ord1/photos/ph1/variants/blurred" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg-bytes"))
	}))

	data, contentType, err := c.GetVariant(context.Background(), "ord1", "ph1", VariantBlurred)
	if err != nil {
		t.Fatalf("GetVariant failed: %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Errorf("unexpected variant data %q", data)
	}
	if contentType != "image/jpeg" {
		t.Errorf("unexpected content type %q", contentType)
	}
}

func TestIsNotFoundError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	_, err := c.GetPhoto(context.Background(), "ord1", "missing")
	if err == nil {
		t.Fatal("expected error for missing photo")
	}
	if !IsNotFoundError(err) {
		t.Errorf("IsNotFoundError should match 404 errors, got %v", err)
	}
	if IsNotFoundError(nil) {
		t.Error("IsNotFoundError(nil) must be false")
	}
}
