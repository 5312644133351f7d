package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"clinic-console/internal/ports/docstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_MergeUpsert_KeepsMissingFieldsAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	p := docstore.Doc("doctors", "d1", "patients", "P-001")

	require.NoError(t, s.Set(ctx, p, map[string]any{"name": "Mochi", "age": 3, "weight": 4.5}, docstore.SetOptions{Merge: true}))

	update := map[string]any{"name": "Mochi II", "age": 4}
	require.NoError(t, s.Set(ctx, p, update, docstore.SetOptions{Merge: true}))
	once, err := s.Get(ctx, p)
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, p, update, docstore.SetOptions{Merge: true}))
	twice, err := s.Get(ctx, p)
	require.NoError(t, err)

	assert.Equal(t, once.Data, twice.Data)
	assert.Equal(t, "Mochi II", twice.Data["name"])
	assert.Equal(t, 4.5, twice.Data["weight"], "merge must not clear omitted fields")
}

func TestStore_SetWithoutMerge_Replaces(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	p := docstore.Doc("diseases", "flu")

	require.NoError(t, s.Set(ctx, p, map[string]any{"name": "Flu", "description": "x"}, docstore.SetOptions{}))
	require.NoError(t, s.Set(ctx, p, map[string]any{"name": "Flu"}, docstore.SetOptions{}))

	d, err := s.Get(ctx, p)
	require.NoError(t, err)
	assert.NotContains(t, d.Data, "description")
}

func TestStore_Create_RejectsExisting(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	p := docstore.Doc("doctors", "d1", "patients", "P-001")

	require.NoError(t, s.Create(ctx, p, map[string]any{"name": "first"}))
	err := s.Create(ctx, p, map[string]any{"name": "second"})
	require.ErrorIs(t, err, docstore.ErrAlreadyExists)

	d, err := s.Get(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "first", d.Data["name"])
}

func TestStore_Delete_DoesNotCascade(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	patient := docstore.Doc("doctors", "d1", "patients", "p1")
	exam := patient.Child("examinations", "e1")
	status := patient.Child("presentStatuses", "s1")
	client := patient.Child("clients", "c1")

	for _, p := range []docstore.Path{patient, exam, status, client} {
		require.NoError(t, s.Set(ctx, p, map[string]any{"id": p.ID()}, docstore.SetOptions{Merge: true}))
	}

	require.NoError(t, s.Delete(ctx, patient))

	_, err := s.Get(ctx, patient)
	require.ErrorIs(t, err, docstore.ErrNotFound)
	for _, p := range []docstore.Path{exam, status, client} {
		_, err := s.Get(ctx, p)
		assert.NoError(t, err, "orphan %s must remain reachable", p)
	}

	// borrar algo inexistente no es error
	require.NoError(t, s.Delete(ctx, patient))
}

func TestStore_InvalidPath(t *testing.T) {
	s := NewStore()
	err := s.Set(context.Background(), "doctors", map[string]any{}, docstore.SetOptions{})
	require.ErrorIs(t, err, docstore.ErrInvalidPath)
}

func TestStore_Watch_DeliversFullSnapshots(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	var (
		mu    sync.Mutex
		snaps [][]docstore.Document
	)
	cancel, err := s.Watch(ctx, *docstore.GroupQuery("patients").Order("name", false), docstore.Listener{
		OnSnapshot: func(docs []docstore.Document) {
			mu.Lock()
			defer mu.Unlock()
			snaps = append(snaps, docs)
		},
	})
	require.NoError(t, err)
	defer cancel()

	last := func() []docstore.Document {
		mu.Lock()
		defer mu.Unlock()
		if len(snaps) == 0 {
			return nil
		}
		return snaps[len(snaps)-1]
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(snaps) == 1 && len(snaps[0]) == 0
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Set(ctx, docstore.Doc("doctors", "d1", "patients", "b"), map[string]any{"name": "Bruno"}, docstore.SetOptions{Merge: true}))
	require.NoError(t, s.Set(ctx, docstore.Doc("doctors", "d2", "patients", "a"), map[string]any{"name": "Ace"}, docstore.SetOptions{Merge: true}))
	// fuera del grupo: no debe afectar
	require.NoError(t, s.Set(ctx, docstore.Doc("medications", "m1"), map[string]any{"name": "Amoxicillin"}, docstore.SetOptions{Merge: true}))

	require.Eventually(t, func() bool { return len(last()) == 2 }, time.Second, 5*time.Millisecond)
	got := last()
	assert.Equal(t, "Ace", got[0].Data["name"])
	assert.Equal(t, "Bruno", got[1].Data["name"])

	cancel()
	mu.Lock()
	n := len(snaps)
	mu.Unlock()

	require.NoError(t, s.Delete(ctx, docstore.Doc("doctors", "d1", "patients", "b")))
	time.Sleep(30 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, n, len(snaps), "no snapshots after cancel")
}
