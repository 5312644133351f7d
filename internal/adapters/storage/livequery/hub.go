// Package livequery reparte avisos de cambio entre los Watch abiertos de un store.
// Cada backend detecta qué path cambió (escritura local, NOTIFY, change stream)
// y llama Notify; el hub re-ejecuta las consultas afectadas.
package livequery

import (
	"context"
	"sync"

	"clinic-console/internal/ports/docstore"
)

// QueryFunc re-ejecuta una consulta completa contra el backend.
type QueryFunc func(ctx context.Context, q docstore.Query) ([]docstore.Document, error)

type Hub struct {
	query QueryFunc

	mu       sync.Mutex
	watchers map[uint64]*watcher
	nextID   uint64
}

func NewHub(query QueryFunc) *Hub {
	return &Hub{query: query, watchers: make(map[uint64]*watcher)}
}

type watcher struct {
	q docstore.Query
	l docstore.Listener

	// dirty tiene capacidad 1: varios cambios seguidos se coalescen en un solo re-query.
	dirty chan struct{}
	kill  chan error
	done  chan struct{}
	once  sync.Once
}

func (w *watcher) stop() {
	w.once.Do(func() { close(w.done) })
}

func (w *watcher) stopped() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

// Watch registra la consulta y entrega el snapshot inicial desde su propia goroutine.
func (h *Hub) Watch(ctx context.Context, q docstore.Query, l docstore.Listener) (func(), error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	w := &watcher{
		q:     q,
		l:     l,
		dirty: make(chan struct{}, 1),
		kill:  make(chan error, 1),
		done:  make(chan struct{}),
	}

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.watchers[id] = w
	h.mu.Unlock()

	// snapshot inicial
	w.dirty <- struct{}{}

	go h.run(ctx, id, w)

	return func() { h.remove(id, w) }, nil
}

func (h *Hub) remove(id uint64, w *watcher) {
	w.stop()
	h.mu.Lock()
	delete(h.watchers, id)
	h.mu.Unlock()
}

func (h *Hub) run(ctx context.Context, id uint64, w *watcher) {
	for {
		select {
		case <-w.done:
			return
		case <-ctx.Done():
			if !w.stopped() {
				h.fail(w, ctx.Err())
			}
			h.remove(id, w)
			return
		case err := <-w.kill:
			h.fail(w, err)
			w.stop()
			return
		case <-w.dirty:
			docs, err := h.query(ctx, w.q)
			if w.stopped() {
				return
			}
			if err != nil {
				// un listener con error queda terminado
				h.fail(w, err)
				h.remove(id, w)
				return
			}
			if w.l.OnSnapshot != nil {
				w.l.OnSnapshot(docs)
			}
		}
	}
}

func (h *Hub) fail(w *watcher, err error) {
	if w.l.OnError != nil {
		w.l.OnError(err)
	}
}

// Notify marca como sucias las consultas que cubren p.
func (h *Hub) Notify(p docstore.Path) {
	h.mu.Lock()
	ws := make([]*watcher, 0, len(h.watchers))
	for _, w := range h.watchers {
		if w.q.Covers(p) {
			ws = append(ws, w)
		}
	}
	h.mu.Unlock()

	for _, w := range ws {
		select {
		case w.dirty <- struct{}{}:
		default:
		}
	}
}

// NotifyAll marca todas las consultas (ej. tras reconectar el canal de cambios).
func (h *Hub) NotifyAll() {
	h.mu.Lock()
	ws := make([]*watcher, 0, len(h.watchers))
	for _, w := range h.watchers {
		ws = append(ws, w)
	}
	h.mu.Unlock()

	for _, w := range ws {
		select {
		case w.dirty <- struct{}{}:
		default:
		}
	}
}

// Fail termina todos los listeners con err (canal de cambios caído).
// El OnError se entrega desde la goroutine de cada listener.
func (h *Hub) Fail(err error) {
	h.mu.Lock()
	ws := h.watchers
	h.watchers = make(map[uint64]*watcher)
	h.mu.Unlock()

	for _, w := range ws {
		select {
		case w.kill <- err:
		default:
		}
	}
}

// Len es la cantidad de Watch abiertos.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.watchers)
}
