package docstore

import (
	"context"
	"errors"
)

var (
	ErrNotFound         = errors.New("document not found")
	ErrAlreadyExists    = errors.New("document already exists")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidPath      = errors.New("invalid document path")
)

// Document es un registro del store: path + campos.
type Document struct {
	Path Path
	Data map[string]any
}

func (d Document) ID() string { return d.Path.ID() }

// SetOptions controla la semántica de Set.
// Merge=true: crea si no existe y solo pisa los campos enviados (merge-upsert).
type SetOptions struct {
	Merge bool
}

// Listener recibe los resultados de un Watch.
// OnSnapshot siempre trae el resultado completo (no hay parches incrementales).
type Listener struct {
	OnSnapshot func(docs []Document)
	OnError    func(err error)
}

// Store es el contrato del document store que consumen las vistas y el gateway.
type Store interface {
	// Create inserta solo si el path no existe (ErrAlreadyExists en caso contrario).
	Create(ctx context.Context, path Path, data map[string]any) error
	Set(ctx context.Context, path Path, data map[string]any, opts SetOptions) error
	Get(ctx context.Context, path Path) (Document, error)
	// Delete no borra subcolecciones; borrar un path inexistente no es error.
	Delete(ctx context.Context, path Path) error
	Query(ctx context.Context, q Query) ([]Document, error)

	// Watch abre una suscripción viva. El snapshot inicial y cada cambio relevante
	// se entregan en orden desde una única goroutine por listener.
	// El func devuelto cancela la suscripción; es seguro llamarlo más de una vez.
	Watch(ctx context.Context, q Query, l Listener) (func(), error)
}
