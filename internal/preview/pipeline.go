package preview

import (
	"image"
	"sync"

	"github.com/Shaftdog/Appraisermod-sub001/internal/mask"
)

// Renderer is the pluggable strategy executed inside the preview worker. Init
// is the capability probe; a failing probe (or a nil Renderer) pins the
// session to the synchronous pixelation fallback.
type Renderer interface {
	Init() error
	Render(frame *image.RGBA, rects []mask.BlurRect, brush []mask.BlurBrushStroke) error
}

// Pipeline produces best-effort preview composites for one editing session.
// Requests are fire-and-forget with latest-wins semantics: each request gets
// a generation number, and a response whose generation is no longer current
// is discarded and its buffer recycled. A worker render error downgrades the
// session to the fallback path permanently.
type Pipeline struct {
	mu        sync.Mutex
	renderer  Renderer
	blockSize int
	pool      FramePool
	onPreview func(*image.RGBA)

	gen       uint64
	probed    bool
	supported bool
	degraded  bool
	worker    *worker
	latest    *image.RGBA
	closed    bool

	// Last request inputs, kept so a worker failure can replay the current
	// generation through the fallback. lastSrc is owned by the session and
	// treated as read-only here.
	lastSrc   *image.RGBA
	lastRects []mask.BlurRect
	lastBrush []mask.BlurBrushStroke
}

// NewPipeline creates a pipeline. onPreview is invoked with each composite
// that wins its generation; the buffer stays valid until the next delivery or
// Close, so the callback must consume it before returning. A nil renderer
// means no worker capability.
func NewPipeline(r Renderer, blockSize int, onPreview func(*image.RGBA)) *Pipeline {
	if blockSize < 1 {
		blockSize = 1
	}
	if onPreview == nil {
		onPreview = func(*image.RGBA) {}
	}
	return &Pipeline{renderer: r, blockSize: blockSize, onPreview: onPreview}
}

// Render issues one preview request for the given source frame and mask
// content. Empty mask content never produces a request. src is not modified.
func (p *Pipeline) Render(src *image.RGBA, set mask.MaskSet) {
	if src == nil || set.Empty() {
		return
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.gen++
	gen := p.gen
	p.lastSrc = src
	p.lastRects = append(p.lastRects[:0], set.Rects...)
	p.lastBrush = append(p.lastBrush[:0], set.Brush...)

	if p.ensureWorkerLocked() {
		frame := p.pool.Clone(src)
		rects := append([]mask.BlurRect(nil), set.Rects...)
		brush := append([]mask.BlurBrushStroke(nil), set.Brush...)
		w := p.worker
		p.mu.Unlock()
		w.submit(request{kind: reqPreview, gen: gen, frame: frame, rects: rects, brush: brush})
		return
	}

	frame := p.pool.Clone(src)
	Pixelate(frame, set.Rects, set.Brush, p.blockSize)
	p.deliverLocked(gen, frame)
	p.mu.Unlock()
}

// Invalidate discards the current composite and supersedes any request still
// in flight. Call it when the mask set becomes empty so the source frame is
// the preview again and a late worker delivery cannot reinstall a stale one.
func (p *Pipeline) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.gen++
	p.lastSrc = nil
	p.lastRects = p.lastRects[:0]
	p.lastBrush = p.lastBrush[:0]
	if p.latest != nil {
		p.pool.Put(p.latest)
		p.latest = nil
	}
}

// ensureWorkerLocked lazily starts the worker and probes its capability.
// The probe happens exactly once per session; the decision is never revisited
// except to downgrade on a later render error.
func (p *Pipeline) ensureWorkerLocked() bool {
	if p.degraded {
		return false
	}
	if p.probed {
		return p.supported
	}
	p.probed = true
	if p.renderer == nil {
		p.supported = false
		return false
	}
	w := startWorker(p.renderer, p.pool.Put)
	w.submit(request{kind: reqInit})
	resp := <-w.responses
	if resp.kind != respInit || !resp.supported {
		w.close()
		p.supported = false
		return false
	}
	p.worker = w
	p.supported = true
	go p.consume(w)
	return true
}

// consume applies worker responses, dropping anything superseded.
func (p *Pipeline) consume(w *worker) {
	for {
		select {
		case <-w.quit:
			return
		case resp := <-w.responses:
			switch resp.kind {
			case respPreview:
				if resp.err != nil {
					p.downgrade(resp.gen)
					continue
				}
				p.mu.Lock()
				p.deliverLocked(resp.gen, resp.frame)
				p.mu.Unlock()
			case respInit:
				// The probe is answered synchronously before this loop starts.
			}
		}
	}
}

// downgrade switches the session to fallback mode for good and replays the
// current generation synchronously so the user still gets a composite.
func (p *Pipeline) downgrade(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.degraded = true
	if p.worker != nil {
		p.worker.close()
		p.worker = nil
	}
	if p.closed || gen != p.gen || p.lastSrc == nil {
		return
	}
	frame := p.pool.Clone(p.lastSrc)
	Pixelate(frame, p.lastRects, p.lastBrush, p.blockSize)
	p.deliverLocked(gen, frame)
}

// deliverLocked installs a composite if its generation is still current,
// recycling the buffer it replaces. Stale and post-close composites are
// recycled unobserved.
func (p *Pipeline) deliverLocked(gen uint64, frame *image.RGBA) {
	if p.closed || gen != p.gen {
		p.pool.Put(frame)
		return
	}
	if p.latest != nil {
		p.pool.Put(p.latest)
	}
	p.latest = frame
	p.onPreview(frame)
}

// Degraded reports whether a worker error forced fallback mode.
func (p *Pipeline) Degraded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.degraded
}

// WorkerSupported reports the capability probe result, false before first use.
func (p *Pipeline) WorkerSupported() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.probed && p.supported && !p.degraded
}

// Close releases the worker and all preview buffers. Pending work is never
// applied after close.
func (p *Pipeline) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	if p.worker != nil {
		p.worker.close()
		p.worker = nil
	}
	if p.latest != nil {
		p.pool.Put(p.latest)
		p.latest = nil
	}
	p.lastSrc = nil
}
