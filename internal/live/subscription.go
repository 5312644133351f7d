package live

import (
	"context"
	"sync"

	"clinic-console/internal/platform/errbus"
	"clinic-console/internal/platform/logger"
	"clinic-console/internal/platform/metrics"
	"clinic-console/internal/ports/docstore"
)

// State es lo que ve quien consume una suscripción.
// Data nil + IsLoading false = idle (sin query o query descartada).
type State struct {
	Data      []docstore.Document
	IsLoading bool
	Err       error
}

// Subscription mantiene a lo sumo un Watch abierto contra el store.
// Cada snapshot reemplaza Data por completo.
type Subscription struct {
	store   docstore.Store
	bus     *errbus.Bus
	log     logger.Logger
	metrics *metrics.Metrics

	mu        sync.Mutex
	q         *docstore.Query
	gen       uint64
	teardown  func()
	state     State
	listeners map[int]func(State)
	nextID    int
	closed    bool
}

func NewSubscription(store docstore.Store, bus *errbus.Bus, log logger.Logger, m *metrics.Metrics) *Subscription {
	if log == nil {
		log = logger.Nop()
	}
	return &Subscription{
		store:     store,
		bus:       bus,
		log:       log,
		metrics:   m,
		listeners: make(map[int]func(State)),
	}
}

// Bind apunta la suscripción a q. El mismo puntero no hace nada salvo que el
// último intento haya terminado en error; uno distinto cierra el watch anterior
// (una sola vez) y abre uno nuevo. nil deja el estado idle.
func (s *Subscription) Bind(q *docstore.Query) {
	s.mu.Lock()
	if s.closed || (q == s.q && s.state.Err == nil) {
		s.mu.Unlock()
		return
	}

	s.stopLocked()
	s.q = q
	s.gen++
	gen := s.gen

	if q == nil {
		s.state = State{}
		fns := s.listenersLocked()
		st := s.state
		s.mu.Unlock()
		emit(fns, st)
		return
	}

	s.state = State{IsLoading: true}
	fns := s.listenersLocked()
	st := s.state
	s.mu.Unlock()
	emit(fns, st)

	label := collectionLabel(*q)
	ctx, cancelCtx := context.WithCancel(context.Background())

	cancelWatch, err := s.store.Watch(ctx, *q, docstore.Listener{
		OnSnapshot: func(docs []docstore.Document) { s.apply(gen, label, docs) },
		OnError:    func(err error) { s.fail(gen, label, err) },
	})
	if err != nil {
		cancelCtx()
		s.fail(gen, label, err)
		return
	}
	s.metrics.SubscriptionOpened()

	var once sync.Once
	td := func() {
		once.Do(func() {
			cancelWatch()
			cancelCtx()
			s.metrics.SubscriptionClosed()
		})
	}

	s.mu.Lock()
	if s.gen != gen {
		// rebind o Close mientras se abría el watch
		s.mu.Unlock()
		td()
		return
	}
	s.teardown = td
	s.mu.Unlock()
}

// Query devuelve el descriptor actualmente enlazado (puede ser nil).
func (s *Subscription) Query() *docstore.Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q
}

func (s *Subscription) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// OnChange registra fn para cada cambio de estado; el func devuelto la quita.
func (s *Subscription) OnChange(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.listeners[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Close cierra el watch activo; después de Close, Bind no hace nada.
func (s *Subscription) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.gen++
	s.stopLocked()
}

func (s *Subscription) stopLocked() {
	if s.teardown != nil {
		s.teardown()
		s.teardown = nil
	}
}

func (s *Subscription) apply(gen uint64, label string, docs []docstore.Document) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.state = State{Data: docs}
	fns := s.listenersLocked()
	st := s.state
	s.mu.Unlock()

	s.metrics.Snapshot(label)
	emit(fns, st)
}

func (s *Subscription) fail(gen uint64, label string, err error) {
	s.mu.Lock()
	if gen != s.gen || s.q == nil {
		s.mu.Unlock()
		return
	}
	re := s.bus.Wrap(errbus.OpListen, s.q.Key(), err)
	s.state = State{Err: re}
	fns := s.listenersLocked()
	st := s.state
	s.mu.Unlock()

	s.metrics.SubscriptionError(label)
	s.log.Warn("live query failed", map[string]any{"query": re.Path, "error": err.Error()})
	s.bus.Publish(re)
	emit(fns, st)
}

func (s *Subscription) listenersLocked() []func(State) {
	out := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		out = append(out, fn)
	}
	return out
}

func emit(fns []func(State), st State) {
	for _, fn := range fns {
		fn(st)
	}
}

func collectionLabel(q docstore.Query) string {
	if q.Group != "" {
		return q.Group
	}
	return q.Collection
}
