package editor

import (
	"math"

	"github.com/Shaftdog/Appraisermod-sub001/internal/config"
	"github.com/Shaftdog/Appraisermod-sub001/internal/mask"
)

// Tool is an interaction mode of the editor.
type Tool string

const (
	ToolSelect Tool = "select"
	ToolBox    Tool = "box"
	ToolBrush  Tool = "brush"
)

// ValidTool reports whether t names a known tool.
func ValidTool(t Tool) bool {
	return t == ToolSelect || t == ToolBox || t == ToolBrush
}

// Viewport describes the current zoom/pan of the client view. Pointer
// coordinates arrive in screen space and are converted to unzoomed
// image-pixel space before they reach the mask store.
type Viewport struct {
	Zoom float64 `json:"zoom"`
	PanX float64 `json:"panX"`
	PanY float64 `json:"panY"`
}

// ToImage converts screen coordinates to image-pixel coordinates.
func (v Viewport) ToImage(x, y float64) (float64, float64) {
	zoom := v.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	return (x - v.PanX) / zoom, (y - v.PanY) / zoom
}

// ToolController interprets pointer-down/move/up sequences, according to the
// active tool, into mask store mutations. Each mode has an implicit
// idle/dragging sub-state; a completed box or brush gesture commits at most
// one mutation (and therefore at most one history snapshot, taken by the
// store).
type ToolController struct {
	store    *mask.Store
	tool     Tool
	viewport Viewport

	boxRadius     float64
	brushRadius   float64
	brushStrength float64

	dragging bool
	startX   float64
	startY   float64
	points   []mask.BrushPoint
	selected int
}

// NewToolController creates a controller with the configured tool defaults,
// starting in select mode.
func NewToolController(store *mask.Store, defaults config.ToolsConfig) *ToolController {
	return &ToolController{
		store:         store,
		tool:          ToolSelect,
		boxRadius:     defaults.BoxCornerRadius,
		brushRadius:   defaults.BrushRadius,
		brushStrength: defaults.BrushStrength,
		selected:      -1,
	}
}

// SetTool switches the active tool and cancels any drag in progress.
func (tc *ToolController) SetTool(t Tool) {
	tc.tool = t
	tc.dragging = false
	tc.points = nil
}

// Tool returns the active tool.
func (tc *ToolController) Tool() Tool { return tc.tool }

// SetViewport updates the screen-to-image transform.
func (tc *ToolController) SetViewport(v Viewport) { tc.viewport = v }

// SetBoxRadius sets the corner radius applied to new box rects.
func (tc *ToolController) SetBoxRadius(r float64) {
	if r >= 0 {
		tc.boxRadius = r
	}
}

// SetBrush sets the radius and strength applied to new strokes. Strength is
// clamped into (0, 1].
func (tc *ToolController) SetBrush(radius, strength float64) {
	if radius > 0 {
		tc.brushRadius = radius
	}
	if strength > 0 {
		tc.brushStrength = math.Min(strength, 1)
	}
}

// Selected returns the index of the selected rect, or -1.
func (tc *ToolController) Selected() int { return tc.selected }

// PointerDown starts a gesture at screen coordinates (x, y).
func (tc *ToolController) PointerDown(x, y float64) {
	ix, iy := tc.viewport.ToImage(x, y)
	switch tc.tool {
	case ToolSelect:
		tc.selected = tc.hitTest(ix, iy)
	case ToolBox:
		tc.dragging = true
		tc.startX, tc.startY = ix, iy
	case ToolBrush:
		tc.dragging = true
		tc.points = []mask.BrushPoint{{X: ix, Y: iy}}
	}
}

// PointerMove extends a gesture. Moves never mutate the store.
func (tc *ToolController) PointerMove(x, y float64) {
	if !tc.dragging || tc.tool != ToolBrush {
		return
	}
	ix, iy := tc.viewport.ToImage(x, y)
	tc.points = append(tc.points, mask.BrushPoint{X: ix, Y: iy})
}

// PointerUp completes a gesture. Returns true when a mask mutation was
// committed. Undersized boxes and single-point strokes are dropped silently,
// leaving no history entry.
func (tc *ToolController) PointerUp(x, y float64) bool {
	if !tc.dragging {
		return false
	}
	tc.dragging = false

	switch tc.tool {
	case ToolBox:
		ix, iy := tc.viewport.ToImage(x, y)
		rect := normalizeRect(tc.startX, tc.startY, ix, iy, tc.boxRadius)
		return tc.store.AddRect(rect)
	case ToolBrush:
		points := tc.points
		tc.points = nil
		return tc.store.AddStroke(mask.BlurBrushStroke{
			Points:   points,
			Radius:   tc.brushRadius,
			Strength: tc.brushStrength,
		})
	}
	return false
}

// normalizeRect builds a rect from two drag corners. Drag direction is
// irrelevant: any two opposite corners yield the identical rect.
func normalizeRect(x0, y0, x1, y1, radius float64) mask.BlurRect {
	return mask.BlurRect{
		X:      math.Min(x0, x1),
		Y:      math.Min(y0, y1),
		W:      math.Abs(x1 - x0),
		H:      math.Abs(y1 - y0),
		Radius: radius,
	}
}

// hitTest returns the topmost rect containing the point, or -1. Selection is
// visual only and never persisted.
func (tc *ToolController) hitTest(ix, iy float64) int {
	rects := tc.store.Current().Rects
	for i := len(rects) - 1; i >= 0; i-- {
		r := rects[i]
		if ix >= r.X && ix <= r.X+r.W && iy >= r.Y && iy <= r.Y+r.H {
			return i
		}
	}
	return -1
}
