package preview

import (
	"image"
	"sync"

	"github.com/Shaftdog/Appraisermod-sub001/internal/mask"
)

// The worker protocol is a closed tagged-variant set: every request and
// response kind is handled exhaustively, nothing is loosely typed.

type requestKind uint8

const (
	reqInit requestKind = iota
	reqPreview
)

type responseKind uint8

const (
	respInit responseKind = iota
	respPreview
)

type request struct {
	kind  requestKind
	gen   uint64
	frame *image.RGBA
	rects []mask.BlurRect
	brush []mask.BlurBrushStroke
}

type response struct {
	kind      responseKind
	gen       uint64
	frame     *image.RGBA
	supported bool
	err       error
}

// worker runs a Renderer off the interaction goroutine. It is a scoped
// resource: one per editing session, created lazily on first need and torn
// down when the session ends. There is no request queue; submit keeps at most
// one pending request and discards superseded ones.
type worker struct {
	renderer  Renderer
	requests  chan request
	responses chan response
	quit      chan struct{}
	stop      sync.Once
	recycle   func(*image.RGBA)
}

func startWorker(r Renderer, recycle func(*image.RGBA)) *worker {
	w := &worker{
		renderer:  r,
		requests:  make(chan request, 1),
		responses: make(chan response),
		quit:      make(chan struct{}),
		recycle:   recycle,
	}
	go w.loop()
	return w
}

func (w *worker) loop() {
	for {
		select {
		case <-w.quit:
			w.drain()
			return
		case req := <-w.requests:
			switch req.kind {
			case reqInit:
				err := w.renderer.Init()
				w.deliver(response{kind: respInit, supported: err == nil, err: err})
			case reqPreview:
				if err := w.renderer.Render(req.frame, req.rects, req.brush); err != nil {
					w.recycle(req.frame)
					w.deliver(response{kind: respPreview, gen: req.gen, err: err})
					continue
				}
				w.deliver(response{kind: respPreview, gen: req.gen, frame: req.frame})
			}
		}
	}
}

// drain releases any request that arrived after shutdown began.
func (w *worker) drain() {
	select {
	case req := <-w.requests:
		if req.frame != nil {
			w.recycle(req.frame)
		}
	default:
	}
}

// deliver hands a response back unless the session is shutting down.
func (w *worker) deliver(resp response) {
	select {
	case w.responses <- resp:
	case <-w.quit:
		if resp.frame != nil {
			w.recycle(resp.frame)
		}
	}
}

// submit enqueues a request, replacing any not-yet-started one. Latest wins;
// the superseded frame goes back to the pool.
func (w *worker) submit(req request) {
	for {
		select {
		case w.requests <- req:
			return
		default:
		}
		select {
		case stale := <-w.requests:
			if stale.frame != nil {
				w.recycle(stale.frame)
			}
		default:
		}
	}
}

func (w *worker) close() {
	w.stop.Do(func() { close(w.quit) })
}
