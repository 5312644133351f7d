package live

import (
	"sync"

	"clinic-console/internal/ports/docstore"
)

// Memo guarda un único valor construido a partir de una lista de dependencias.
// Mientras las deps sean iguales (misma longitud, == elemento a elemento) devuelve
// el mismo valor; cualquier cambio lo reconstruye.
type Memo[T any] struct {
	mu    sync.Mutex
	deps  []any
	value T
	valid bool
}

func (m *Memo[T]) Get(deps []any, build func() T) T {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.valid && sameDeps(m.deps, deps) {
		return m.value
	}

	m.value = build()
	m.deps = append([]any(nil), deps...)
	m.valid = true
	return m.value
}

// Reset descarta el valor cacheado.
func (m *Memo[T]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero T
	m.value = zero
	m.deps = nil
	m.valid = false
}

func sameDeps(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !shallowEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// shallowEqual: valores no comparables (slices, maps) cuentan como distintos.
func shallowEqual(a, b any) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}

// View combina Memo y Subscription: el watch solo se reabre cuando cambia
// la identidad del descriptor memoizado, o cuando el intento anterior falló.
type View struct {
	memo Memo[*docstore.Query]
	sub  *Subscription

	mu    sync.Mutex
	deps  []any
	build func() *docstore.Query
}

func NewView(sub *Subscription) *View {
	return &View{sub: sub}
}

// Use arma (o reutiliza) el descriptor y devuelve el estado actual.
// build puede devolver nil cuando falta una precondición (ej. usuario sin identidad).
// Un error es terminal para ese intento: el próximo Use abre un watch nuevo.
func (v *View) Use(deps []any, build func() *docstore.Query) State {
	v.mu.Lock()
	v.deps = append([]any(nil), deps...)
	v.build = build
	v.mu.Unlock()

	if v.sub.State().Err != nil {
		v.memo.Reset()
	}
	q := v.memo.Get(deps, build)
	v.sub.Bind(q)
	return v.sub.State()
}

// Retry repite el último Use si el estado actual es un error.
// Sin un Use previo no hace nada.
func (v *View) Retry() State {
	v.mu.Lock()
	deps, build := v.deps, v.build
	v.mu.Unlock()

	if build == nil || v.sub.State().Err == nil {
		return v.sub.State()
	}
	return v.Use(deps, build)
}

func (v *View) State() State { return v.sub.State() }
func (v *View) Query() *docstore.Query { return v.sub.Query() }
func (v *View) OnChange(fn func(State)) func() { return v.sub.OnChange(fn) }
func (v *View) Close() { v.sub.Close() }
