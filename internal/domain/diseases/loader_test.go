package diseases

import (
	"context"
	"sync/atomic"
	"testing"

	"clinic-console/internal/adapters/storage/memory"
	"clinic-console/internal/domain"
	"clinic-console/internal/ports/docstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	*memory.Store
	queries atomic.Int32
}

func (c *countingStore) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	c.queries.Add(1)
	return c.Store.Query(ctx, q)
}

func seed(t *testing.T, s docstore.Store, id, name string) {
	t.Helper()
	require.NoError(t, s.Set(context.Background(), PathFor(id), map[string]any{
		"id": id, "name": name, "description": name + " desc",
	}, docstore.SetOptions{Merge: true}))
}

func TestResolve_BatchesIntoOneQueryAndSkipsMissing(t *testing.T) {
	store := &countingStore{Store: memory.NewStore()}
	seed(t, store, "D-01", "Parvovirus")
	seed(t, store, "D-02", "Distemper")

	got, err := Resolve(context.Background(), NewLoader(store), []string{"D-02", "D-404", "D-01"})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "Distemper", got[0].Name)
	assert.Equal(t, "Parvovirus", got[1].Name)
	assert.Equal(t, PathFor("D-01"), got[1].Path)
	assert.Equal(t, int32(1), store.queries.Load())
}

func TestResolve_CachesWithinLoader(t *testing.T) {
	store := &countingStore{Store: memory.NewStore()}
	seed(t, store, "D-01", "Parvovirus")
	l := NewLoader(store)

	for i := 0; i < 3; i++ {
		got, err := Resolve(context.Background(), l, []string{"D-01"})
		require.NoError(t, err)
		require.Len(t, got, 1)
	}
	assert.Equal(t, int32(1), store.queries.Load())
}

func TestResolve_NoIDs(t *testing.T) {
	got, err := Resolve(context.Background(), NewLoader(memory.NewStore()), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestInput_Validate(t *testing.T) {
	err := Input{ID: "a/b", Name: "Rabies", Description: "viral"}.Validate()
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Errors, 1)
	assert.Equal(t, "id", verr.Errors[0].Field)

	assert.NoError(t, Input{ID: "D-01", Name: "Rabies", Description: "viral"}.Validate())
}
