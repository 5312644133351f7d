package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"clinic-console/internal/domain"
	"clinic-console/internal/platform/errbus"
	"clinic-console/internal/platform/logger"
	"clinic-console/internal/platform/metrics"
	"clinic-console/internal/platform/notify"
	"clinic-console/internal/ports/docstore"
)

var ErrPreconditionFailed = domain.ErrPreconditionFailed

// Mutation es una escritura pedida por un formulario o un botón de borrar.
type Mutation struct {
	// Actor es el uid de quien escribe; vacío = sin sesión.
	Actor string
	Op    errbus.Op
	Path  docstore.Path
	Data  map[string]any

	// Title/Description arman la notificación de éxito (se emite al despachar).
	Title       string
	Description string
}

// Pending representa una escritura en vuelo. Nadie está obligado a esperarla.
type Pending struct {
	done chan struct{}
	err  error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func (p *Pending) finish(err error) {
	p.err = err
	close(p.done)
}

func (p *Pending) Done() <-chan struct{} { return p.done }

// Err devuelve el resultado; nil mientras la escritura no terminó.
func (p *Pending) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// Wait bloquea hasta que termine la escritura o se cancele ctx.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Gateway despacha escrituras sin bloquear al caller. Los fallos remotos van al
// bus de errores y a las notificaciones; no hay reintentos ni rollback.
type Gateway struct {
	store   docstore.Store
	bus     *errbus.Bus
	hub     *notify.Hub
	log     logger.Logger
	metrics *metrics.Metrics

	wg sync.WaitGroup
}

func New(store docstore.Store, bus *errbus.Bus, hub *notify.Hub, log logger.Logger, m *metrics.Metrics) *Gateway {
	if log == nil {
		log = logger.Nop()
	}
	return &Gateway{
		store:   store,
		bus:     bus,
		hub:     hub,
		log:     log.With(map[string]any{"component": "gateway"}),
		metrics: m,
	}
}

// Precondition verifica que haya sesión y store. Si falla, emite una sola
// notificación de error y devuelve ErrPreconditionFailed.
func (g *Gateway) Precondition(actor string) error {
	var reason string
	switch {
	case g == nil || g.store == nil:
		reason = "the data store is not ready"
	case strings.TrimSpace(actor) == "":
		reason = "you must be signed in"
	default:
		return nil
	}
	if g != nil {
		g.hub.Error("Action failed", reason)
		g.metrics.Mutation("precondition", "rejected")
	}
	return fmt.Errorf("%w: %s", ErrPreconditionFailed, reason)
}

// Submit valida la precondición y lanza la escritura en su propia goroutine.
// ctx solo aporta valores: cancelarlo no corta la escritura.
func (g *Gateway) Submit(ctx context.Context, m Mutation) (*Pending, error) {
	if err := g.Precondition(m.Actor); err != nil {
		return nil, err
	}
	if err := m.Path.Validate(); err != nil {
		return nil, err
	}
	switch m.Op {
	case errbus.OpCreate, errbus.OpSet, errbus.OpDelete:
	default:
		return nil, fmt.Errorf("gateway: unsupported op %q", m.Op)
	}

	p := newPending()
	wctx := context.WithoutCancel(ctx)

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		p.finish(g.apply(wctx, m))
	}()

	if m.Title != "" {
		g.hub.Success(m.Title, m.Description)
	}
	g.log.Debug("mutation dispatched", map[string]any{"op": string(m.Op), "path": m.Path.String(), "actor": m.Actor})
	return p, nil
}

func (g *Gateway) apply(ctx context.Context, m Mutation) error {
	var err error
	switch m.Op {
	case errbus.OpCreate:
		err = g.store.Create(ctx, m.Path, m.Data)
	case errbus.OpSet:
		err = g.store.Set(ctx, m.Path, m.Data, docstore.SetOptions{Merge: true})
	case errbus.OpDelete:
		err = g.store.Delete(ctx, m.Path)
	}

	if err == nil {
		g.metrics.Mutation(string(m.Op), "ok")
		return nil
	}

	re := g.bus.Wrap(m.Op, m.Path.String(), err)
	g.metrics.Mutation(string(m.Op), "error")
	g.log.Warn("mutation failed", map[string]any{"op": string(m.Op), "path": m.Path.String(), "error": err.Error()})
	g.bus.Publish(re)
	g.hub.Error("Save failed", describe(re))
	return re
}

func describe(re *errbus.RemoteError) string {
	switch {
	case re.Permission():
		return "permission denied for " + re.Path
	case errors.Is(re.Err, docstore.ErrAlreadyExists):
		return re.Path + " already exists"
	default:
		return re.Err.Error()
	}
}

// Create inserta solo si el documento no existe.
func (g *Gateway) Create(ctx context.Context, actor string, path docstore.Path, data map[string]any, title string) (*Pending, error) {
	return g.Submit(ctx, Mutation{Actor: actor, Op: errbus.OpCreate, Path: path, Data: data, Title: title, Description: path.ID()})
}

// Upsert hace merge: los campos que no vienen en data se conservan.
func (g *Gateway) Upsert(ctx context.Context, actor string, path docstore.Path, data map[string]any, title string) (*Pending, error) {
	return g.Submit(ctx, Mutation{Actor: actor, Op: errbus.OpSet, Path: path, Data: data, Title: title, Description: path.ID()})
}

func (g *Gateway) Delete(ctx context.Context, actor string, path docstore.Path, title string) (*Pending, error) {
	return g.Submit(ctx, Mutation{Actor: actor, Op: errbus.OpDelete, Path: path, Title: title, Description: path.ID()})
}

// Drain espera las escrituras en vuelo (shutdown).
func (g *Gateway) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
