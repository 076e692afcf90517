package preview

import (
	"errors"
	"image"

	"github.com/Shaftdog/Appraisermod-sub001/internal/mask"
)

// BoxBlurRenderer is the renderer run inside the preview worker when the
// capability probe succeeds. It blurs the whole frame with a separable box
// blur and copies only the masked pixels back, so unmasked regions stay
// untouched. Its output is intentionally not identical to the pixelation
// fallback; it is a pluggable strategy behind the same preview request.
type BoxBlurRenderer struct {
	Radius int
}

// Init is the capability probe, issued once per editing session.
func (r *BoxBlurRenderer) Init() error {
	if r.Radius < 1 {
		return errors.New("blur radius must be at least 1")
	}
	return nil
}

// Render composites the mask set into frame in place.
func (r *BoxBlurRenderer) Render(frame *image.RGBA, rects []mask.BlurRect, brush []mask.BlurBrushStroke) error {
	if len(rects) == 0 && len(brush) == 0 {
		return nil
	}
	blurred := boxBlur(frame, r.Radius)
	eachMaskedPixel(frame.Bounds(), rects, brush, func(x, y int) {
		src := blurred.PixOffset(x, y)
		dst := frame.PixOffset(x, y)
		copy(frame.Pix[dst:dst+4], blurred.Pix[src:src+4])
	})
	return nil
}

// boxBlur runs a two-pass separable box blur over the whole image using
// sliding-window accumulators, one horizontal pass into a scratch buffer and
// one vertical pass into the result.
func boxBlur(src *image.RGBA, radius int) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return src
	}
	if radius > w/2 {
		radius = w / 2
	}
	if radius > h/2 {
		radius = h / 2
	}
	if radius < 1 {
		radius = 1
	}

	tmp := image.NewRGBA(b)
	out := image.NewRGBA(b)
	count := uint32(2*radius + 1)

	// Horizontal pass: src -> tmp.
	for y := 0; y < h; y++ {
		row := src.PixOffset(b.Min.X, b.Min.Y+y)
		tmpRow := tmp.PixOffset(b.Min.X, b.Min.Y+y)

		var rSum, gSum, bSum, aSum uint32
		for k := -radius; k <= radius; k++ {
			off := row + clampIndex(k, w)*4
			rSum += uint32(src.Pix[off])
			gSum += uint32(src.Pix[off+1])
			bSum += uint32(src.Pix[off+2])
			aSum += uint32(src.Pix[off+3])
		}

		for x := 0; x < w; x++ {
			off := tmpRow + x*4
			tmp.Pix[off] = uint8(rSum / count)
			tmp.Pix[off+1] = uint8(gSum / count)
			tmp.Pix[off+2] = uint8(bSum / count)
			tmp.Pix[off+3] = uint8(aSum / count)

			remove := row + clampIndex(x-radius, w)*4
			add := row + clampIndex(x+radius+1, w)*4
			rSum += uint32(src.Pix[add]) - uint32(src.Pix[remove])
			gSum += uint32(src.Pix[add+1]) - uint32(src.Pix[remove+1])
			bSum += uint32(src.Pix[add+2]) - uint32(src.Pix[remove+2])
			aSum += uint32(src.Pix[add+3]) - uint32(src.Pix[remove+3])
		}
	}

	// Vertical pass: tmp -> out.
	for x := 0; x < w; x++ {
		col := tmp.PixOffset(b.Min.X+x, b.Min.Y)
		outCol := out.PixOffset(b.Min.X+x, b.Min.Y)

		var rSum, gSum, bSum, aSum uint32
		for k := -radius; k <= radius; k++ {
			off := col + clampIndex(k, h)*tmp.Stride
			rSum += uint32(tmp.Pix[off])
			gSum += uint32(tmp.Pix[off+1])
			bSum += uint32(tmp.Pix[off+2])
			aSum += uint32(tmp.Pix[off+3])
		}

		for y := 0; y < h; y++ {
			off := outCol + y*out.Stride
			out.Pix[off] = uint8(rSum / count)
			out.Pix[off+1] = uint8(gSum / count)
			out.Pix[off+2] = uint8(bSum / count)
			out.Pix[off+3] = uint8(aSum / count)

			remove := col + clampIndex(y-radius, h)*tmp.Stride
			add := col + clampIndex(y+radius+1, h)*tmp.Stride
			rSum += uint32(tmp.Pix[add]) - uint32(tmp.Pix[remove])
			gSum += uint32(tmp.Pix[add+1]) - uint32(tmp.Pix[remove+1])
			bSum += uint32(tmp.Pix[add+2]) - uint32(tmp.Pix[remove+2])
			aSum += uint32(tmp.Pix[add+3]) - uint32(tmp.Pix[remove+3])
		}
	}

	return out
}

// clampIndex clamps a kernel index to [0, n).
func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
