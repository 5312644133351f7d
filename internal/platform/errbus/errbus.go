package errbus

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"clinic-console/internal/ports/docstore"
)

// Op identifica qué se intentó contra el store.
type Op string

const (
	OpListen Op = "listen"
	OpCreate Op = "create"
	OpSet    Op = "set"
	OpDelete Op = "delete"
)

// RemoteError envuelve un rechazo del backend con contexto (operación + path o query).
type RemoteError struct {
	Op   Op
	Path string
	Err  error
	At   time.Time
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Permission indica si el backend rechazó por permisos.
func (e *RemoteError) Permission() bool {
	return errors.Is(e.Err, docstore.ErrPermissionDenied)
}

// Bus es el canal de errores del proceso: quien dispara la llamada publica,
// cualquier otra parte puede observar sin acoplarse al componente que falló.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]func(*RemoteError)
	nextID int

	recent []*RemoteError
	max    int
	now    func() time.Time
}

const defaultRecent = 50

func New() *Bus {
	return &Bus{
		subs: make(map[int]func(*RemoteError)),
		max:  defaultRecent,
		now:  time.Now,
	}
}

// Wrap arma un RemoteError (no publica). Acepta receptor nil.
func (b *Bus) Wrap(op Op, path string, err error) *RemoteError {
	var re *RemoteError
	if errors.As(err, &re) {
		return re
	}
	now := time.Now
	if b != nil && b.now != nil {
		now = b.now
	}
	return &RemoteError{Op: op, Path: path, Err: err, At: now()}
}

// Publish entrega el error a todos los suscriptores, de forma sincrónica.
// El orden entre suscriptores no está garantizado.
func (b *Bus) Publish(e *RemoteError) {
	if b == nil || e == nil {
		return
	}

	b.mu.Lock()
	b.recent = append(b.recent, e)
	if len(b.recent) > b.max {
		b.recent = b.recent[len(b.recent)-b.max:]
	}
	subs := make([]func(*RemoteError), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.mu.Unlock()

	for _, fn := range subs {
		fn(e)
	}
}

// Subscribe registra un observador; el func devuelto lo quita.
func (b *Bus) Subscribe(fn func(*RemoteError)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs[id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Recent devuelve los últimos errores publicados (más reciente al final).
func (b *Bus) Recent() []*RemoteError {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]*RemoteError, len(b.recent))
	copy(out, b.recent)
	return out
}
