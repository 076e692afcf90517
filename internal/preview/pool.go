package preview

import (
	"image"
	"sync"
)

// FramePool recycles RGBA backing slices so the preview pipeline does not
// retain one large allocation per superseded request. The pool is owned by a
// pipeline, which is owned by an editing session; nothing here is process
// global.
type FramePool struct {
	pool sync.Pool
}

// Get returns an RGBA image sized to rect. The returned Pix length exactly
// matches rect area * 4 and Stride is width*4.
func (p *FramePool) Get(rect image.Rectangle) *image.RGBA {
	w, h := rect.Dx(), rect.Dy()
	if w <= 0 || h <= 0 {
		return &image.RGBA{Rect: rect}
	}
	needed := w * h * 4
	var img *image.RGBA
	if v := p.pool.Get(); v != nil {
		img = v.(*image.RGBA)
	}
	if img == nil || cap(img.Pix) < needed {
		return &image.RGBA{Pix: make([]byte, needed), Stride: w * 4, Rect: rect}
	}
	img.Stride = w * 4
	img.Rect = rect
	img.Pix = img.Pix[:needed]
	return img
}

// Put returns a frame for reuse. The frame must not be accessed afterwards.
func (p *FramePool) Put(img *image.RGBA) {
	if img == nil || img.Pix == nil {
		return
	}
	p.pool.Put(img)
}

// Clone copies src into a pooled frame.
func (p *FramePool) Clone(src *image.RGBA) *image.RGBA {
	dst := p.Get(src.Rect)
	if src.Stride == dst.Stride {
		copy(dst.Pix, src.Pix)
		return dst
	}
	// src is a sub-image view with a wider stride; copy row by row.
	w := src.Rect.Dx()
	for y := 0; y < src.Rect.Dy(); y++ {
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+w*4], src.Pix[y*src.Stride:y*src.Stride+w*4])
	}
	return dst
}
