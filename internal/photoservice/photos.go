package photoservice

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/Shaftdog/Appraisermod-sub001/internal/mask"
)

// Image variant names. Downstream consumers (the report assembler) request a
// variant by name and never assume which one was used unless configured.
const (
	VariantDisplay = "display"
	VariantBlurred = "blurred"
)

// Photo is an order photo record as the photo service returns it.
type Photo struct {
	ID        string        `json:"id"`
	OrderID   string        `json:"orderId"`
	Title     string        `json:"title,omitempty"`
	Width     int           `json:"width"`
	Height    int           `json:"height"`
	Status    string        `json:"status"`
	Masks     *mask.MaskSet `json:"masks,omitempty"`
	Variants  []string      `json:"variants,omitempty"` // variant names available for download
	UpdatedAt string        `json:"updatedAt,omitempty"`
}

// GetPhoto fetches a photo record, including any previously persisted masks.
func (c *Client) GetPhoto(ctx context.Context, orderID, photoID string) (*Photo, error) {
	return doGetJSON[Photo](ctx, c, "orders/"+orderID+"/photos/"+photoID)
}

// SetMasks submits the final mask payload for a photo.
func (c *Client) SetMasks(ctx context.Context, orderID, photoID string, payload mask.MaskSet) (*Photo, error) {
	return doPutJSON[Photo](ctx, c, "orders/"+orderID+"/photos/"+photoID+"/masks", payload)
}

// Process asks the service to bake the blurred image variant from the
// submitted masks.
func (c *Client) Process(ctx context.Context, orderID, photoID string) (*Photo, error) {
	return doPostJSON[Photo](ctx, c, "orders/"+orderID+"/photos/"+photoID+"/process", nil)
}

// GetVariant downloads a named image variant. Returns the image bytes and the
// content type.
func (c *Client) GetVariant(ctx context.Context, orderID, photoID, variant string) ([]byte, string, error) {
	url := c.resolveURL("orders", orderID, "photos", photoID, "variants", variant)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("request failed with status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("could not read variant data: %w", err)
	}

	return data, resp.Header.Get("Content-Type"), nil
}
