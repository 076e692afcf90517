package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/Shaftdog/Appraisermod-sub001/internal/mask"
)

const defaultDetectorURL = "http://localhost:8000"

// Client talks to the external face detection service.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a detector client.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultDetectorURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{},
	}
}

// detectResponse is the detector service response shape.
type detectResponse struct {
	Faces []struct {
		X          float64  `json:"x"`
		Y          float64  `json:"y"`
		W          float64  `json:"w"`
		H          float64  `json:"h"`
		Confidence *float64 `json:"confidence,omitempty"`
	} `json:"faces"`
}

// Available probes the detector health endpoint. It is a capability check,
// independent of any specific image.
func (c *Client) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Detect submits an image and returns candidate face regions in image-pixel
// coordinates. Every detection starts pending (accepted false).
func (c *Client) Detect(ctx context.Context, imageData []byte) ([]mask.FaceDetection, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "image.jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/detect", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detector error (status %d): %s", resp.StatusCode, string(body))
	}

	var result detectResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("could not unmarshal response: %w", err)
	}

	detections := make([]mask.FaceDetection, len(result.Faces))
	for i, f := range result.Faces {
		detections[i] = mask.FaceDetection{X: f.X, Y: f.Y, W: f.W, H: f.H, Confidence: f.Confidence}
	}
	return detections, nil
}
