package preview

import (
	"image"
	"math"

	"github.com/Shaftdog/Appraisermod-sub001/internal/mask"
)

// Pixelate is the synchronous fallback compositor. Every pixel inside a rect,
// and every pixel within a stroke point's radius, takes the color of its
// block's origin pixel (floor(x/B)*B, floor(y/B)*B), clamped to image bounds.
// Block origins map to themselves, so applying in place is deterministic and
// idempotent: the same mask set and source always yield the same buffer.
func Pixelate(img *image.RGBA, rects []mask.BlurRect, brush []mask.BlurBrushStroke, block int) {
	if block < 1 {
		block = 1
	}
	eachMaskedPixel(img.Bounds(), rects, brush, func(x, y int) {
		substituteBlockOrigin(img, x, y, block)
	})
}

// substituteBlockOrigin writes the block origin color into (x, y).
func substituteBlockOrigin(img *image.RGBA, x, y, block int) {
	b := img.Bounds()
	srcX := b.Min.X + (x-b.Min.X)/block*block
	srcY := b.Min.Y + (y-b.Min.Y)/block*block
	if srcX >= b.Max.X {
		srcX = b.Max.X - 1
	}
	if srcY >= b.Max.Y {
		srcY = b.Max.Y - 1
	}
	src := img.PixOffset(srcX, srcY)
	dst := img.PixOffset(x, y)
	copy(img.Pix[dst:dst+4], img.Pix[src:src+4])
}

// eachMaskedPixel visits every pixel covered by the mask set, clipped to
// bounds. Overlapping regions are visited more than once; callers must be
// idempotent per pixel.
func eachMaskedPixel(b image.Rectangle, rects []mask.BlurRect, brush []mask.BlurBrushStroke, fn func(x, y int)) {
	for _, r := range rects {
		clipped := rectBounds(r).Intersect(b)
		for y := clipped.Min.Y; y < clipped.Max.Y; y++ {
			for x := clipped.Min.X; x < clipped.Max.X; x++ {
				fn(x, y)
			}
		}
	}
	for _, stroke := range brush {
		for _, pt := range stroke.Points {
			eachDiscPixel(b, pt, stroke.Radius, fn)
		}
	}
}

// rectBounds converts a BlurRect to integer pixel bounds.
func rectBounds(r mask.BlurRect) image.Rectangle {
	return image.Rect(
		int(math.Floor(r.X)),
		int(math.Floor(r.Y)),
		int(math.Ceil(r.X+r.W)),
		int(math.Ceil(r.Y+r.H)),
	)
}

// eachDiscPixel visits every pixel within Euclidean distance radius of pt.
func eachDiscPixel(b image.Rectangle, pt mask.BrushPoint, radius float64, fn func(x, y int)) {
	if radius <= 0 {
		return
	}
	box := image.Rect(
		int(math.Floor(pt.X-radius)),
		int(math.Floor(pt.Y-radius)),
		int(math.Ceil(pt.X+radius))+1,
		int(math.Ceil(pt.Y+radius))+1,
	).Intersect(b)
	r2 := radius * radius
	for y := box.Min.Y; y < box.Max.Y; y++ {
		dy := float64(y) - pt.Y
		for x := box.Min.X; x < box.Max.X; x++ {
			dx := float64(x) - pt.X
			if dx*dx+dy*dy <= r2 {
				fn(x, y)
			}
		}
	}
}
