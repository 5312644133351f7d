package diseases

import (
	"context"
	"time"

	"clinic-console/internal/ports/docstore"

	"github.com/graph-gophers/dataloader/v7"
)

const (
	maxBatch = 100
	wait     = 2 * time.Millisecond
)

// Loader agrupa búsquedas por id dentro de un request; ids inexistentes resuelven a nil.
type Loader = dataloader.Loader[string, *Disease]

// NewLoader crea un loader por request. No reutilizar entre requests: cachea resultados.
func NewLoader(store docstore.Store) *Loader {
	return dataloader.NewBatchedLoader(
		newBatchFn(store),
		dataloader.WithWait[string, *Disease](wait),
		dataloader.WithBatchCapacity[string, *Disease](maxBatch),
	)
}

func newBatchFn(store docstore.Store) dataloader.BatchFunc[string, *Disease] {
	return func(ctx context.Context, keys []string) []*dataloader.Result[*Disease] {
		docs, err := store.Query(ctx, *docstore.CollectionQuery("diseases").WhereIDIn(keys...))
		if err != nil {
			return errorResults(len(keys), err)
		}

		byID := make(map[string]*Disease, len(docs))
		for _, doc := range docs {
			var d Disease
			if err := docstore.Decode(doc, &d); err != nil {
				continue
			}
			if d.ID == "" {
				d.ID = doc.ID()
			}
			byID[doc.ID()] = &d
		}

		results := make([]*dataloader.Result[*Disease], len(keys))
		for i, key := range keys {
			results[i] = &dataloader.Result[*Disease]{Data: byID[key]}
		}
		return results
	}
}

func errorResults(n int, err error) []*dataloader.Result[*Disease] {
	results := make([]*dataloader.Result[*Disease], n)
	for i := range results {
		results[i] = &dataloader.Result[*Disease]{Error: err}
	}
	return results
}

// Resolve carga los ids en orden y omite los que no existen.
func Resolve(ctx context.Context, l *Loader, ids []string) ([]Disease, error) {
	if len(ids) == 0 {
		return []Disease{}, nil
	}
	found, errs := l.LoadMany(ctx, ids)()
	out := make([]Disease, 0, len(found))
	for i, d := range found {
		if i < len(errs) && errs[i] != nil {
			return nil, errs[i]
		}
		if d != nil {
			out = append(out, *d)
		}
	}
	return out, nil
}
