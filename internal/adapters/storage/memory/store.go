package memory

import (
	"context"
	"sync"

	"clinic-console/internal/adapters/storage/livequery"
	"clinic-console/internal/ports/docstore"
)

// Store es un document store en memoria con consultas vivas.
// Se usa en dev y en tests (sin DB_DSN / MONGO_URI).
type Store struct {
	mu   sync.RWMutex
	docs map[docstore.Path]map[string]any
	hub  *livequery.Hub
}

func NewStore() *Store {
	s := &Store{docs: make(map[docstore.Path]map[string]any)}
	s.hub = livequery.NewHub(s.Query)
	return s
}

func (s *Store) Create(ctx context.Context, path docstore.Path, data map[string]any) error {
	if err := path.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if _, exists := s.docs[path]; exists {
		s.mu.Unlock()
		return docstore.ErrAlreadyExists
	}
	s.docs[path] = docstore.NormalizeData(data)
	s.mu.Unlock()

	s.hub.Notify(path)
	return nil
}

func (s *Store) Set(ctx context.Context, path docstore.Path, data map[string]any, opts docstore.SetOptions) error {
	if err := path.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	current, exists := s.docs[path]
	if opts.Merge && exists {
		// merge: solo se pisan los campos enviados
		for k, v := range data {
			current[k] = docstore.Normalize(v)
		}
	} else {
		s.docs[path] = docstore.NormalizeData(data)
	}
	s.mu.Unlock()

	s.hub.Notify(path)
	return nil
}

func (s *Store) Get(ctx context.Context, path docstore.Path) (docstore.Document, error) {
	if err := path.Validate(); err != nil {
		return docstore.Document{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.docs[path]
	if !ok {
		return docstore.Document{}, docstore.ErrNotFound
	}
	return docstore.Document{Path: path, Data: docstore.NormalizeData(data)}, nil
}

func (s *Store) Delete(ctx context.Context, path docstore.Path) error {
	if err := path.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	_, existed := s.docs[path]
	delete(s.docs, path)
	s.mu.Unlock()

	if existed {
		s.hub.Notify(path)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	candidates := make([]docstore.Document, 0)
	for p, data := range s.docs {
		if !q.Covers(p) {
			continue
		}
		candidates = append(candidates, docstore.Document{Path: p, Data: docstore.NormalizeData(data)})
	}
	return q.Apply(candidates), nil
}

// Watch reparte los cambios locales a través del hub.
func (s *Store) Watch(ctx context.Context, q docstore.Query, l docstore.Listener) (func(), error) {
	return s.hub.Watch(ctx, q, l)
}

// Watchers es la cantidad de Watch abiertos.
func (s *Store) Watchers() int { return s.hub.Len() }

// Len es útil en tests.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}
