//go:build integration

package postgres

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"clinic-console/internal/ports/docstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	once      sync.Once
	sharedDSN string
	initErr   error
)

// setupStore levanta un Postgres compartido (una vez por corrida), migra y
// devuelve un Store sobre una tabla vacía.
func setupStore(t *testing.T) *Store {
	t.Helper()

	once.Do(func() {
		sharedDSN, initErr = startContainer()
	})
	if initErr != nil {
		t.Fatalf("setup test DB: %v", initErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := NewPool(ctx, PoolConfig{DSN: sharedDSN})
	require.NoError(t, err)
	_, err = pool.Exec(ctx, "TRUNCATE "+table)
	require.NoError(t, err)

	s := NewStore(pool, nil)
	t.Cleanup(func() {
		s.Close()
		pool.Close()
	})
	return s
}

func startContainer() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:17-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "clinic",
			"POSTGRES_PASSWORD": "clinic",
			"POSTGRES_DB":       "clinic",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", fmt.Errorf("mapped port: %w", err)
	}

	dsn := fmt.Sprintf("postgres://clinic:clinic@%s:%s/clinic?sslmode=disable", host, port.Port())
	if _, err := Migrate(ctx, dsn); err != nil {
		return "", err
	}
	return dsn, nil
}

func TestStore_CreateIsInsertIfAbsent(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	p := docstore.Doc("doctors", "d1", "patients", "P-001")

	require.NoError(t, s.Create(ctx, p, map[string]any{"name": "Michi"}))
	err := s.Create(ctx, p, map[string]any{"name": "Firulais"})
	assert.ErrorIs(t, err, docstore.ErrAlreadyExists)

	doc, err := s.Get(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "Michi", doc.Data["name"])
}

func TestStore_MergeKeepsUntouchedFields(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	p := docstore.Doc("medications", "M-01")

	require.NoError(t, s.Set(ctx, p, map[string]any{"name": "Amoxicillin", "price": 10}, docstore.SetOptions{Merge: true}))
	require.NoError(t, s.Set(ctx, p, map[string]any{"price": 12}, docstore.SetOptions{Merge: true}))

	doc, err := s.Get(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "Amoxicillin", doc.Data["name"])
	assert.Equal(t, float64(12), doc.Data["price"])
}

func TestStore_GroupQueryAndFilters(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, docstore.Doc("doctors", "d1", "patients", "A"), map[string]any{"name": "A", "species": "Cat"}))
	require.NoError(t, s.Create(ctx, docstore.Doc("doctors", "d2", "patients", "B"), map[string]any{"name": "B", "species": "Dog"}))
	require.NoError(t, s.Create(ctx, docstore.Doc("doctors", "d2", "patients", "C"), map[string]any{"name": "C", "species": "Cat"}))

	all, err := s.Query(ctx, *docstore.GroupQuery("patients").Order("name", true))
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "C", all[0].Data["name"])

	cats, err := s.Query(ctx, *docstore.GroupQuery("patients").Where("species", "Cat"))
	require.NoError(t, err)
	assert.Len(t, cats, 2)

	byID, err := s.Query(ctx, *docstore.CollectionQuery("doctors/d2/patients").WhereIDIn("C"))
	require.NoError(t, err)
	require.Len(t, byID, 1)
	assert.Equal(t, docstore.Doc("doctors", "d2", "patients", "C"), byID[0].Path)
}

func TestStore_WatchFollowsNotify(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	snaps := make(chan int, 10)
	cancel, err := s.Watch(ctx, *docstore.GroupQuery("clients"), docstore.Listener{
		OnSnapshot: func(docs []docstore.Document) { snaps <- len(docs) },
	})
	require.NoError(t, err)
	defer cancel()

	assert.Equal(t, 0, <-snaps)
	require.NoError(t, s.Set(ctx, docstore.Doc("doctors", "d1", "patients", "P", "clients", "C1"), map[string]any{"name": "Ana"}, docstore.SetOptions{Merge: true}))

	select {
	case n := <-snaps:
		assert.Equal(t, 1, n)
	case <-time.After(5 * time.Second):
		t.Fatal("no snapshot after write")
	}
}

func TestStore_DeleteDoesNotCascade(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	patient := docstore.Doc("doctors", "d1", "patients", "P")
	exam := patient.Child("examinations", "E")

	require.NoError(t, s.Create(ctx, patient, map[string]any{"name": "P"}))
	require.NoError(t, s.Create(ctx, exam, map[string]any{"date": "2025-06-11"}))
	require.NoError(t, s.Delete(ctx, patient))

	_, err := s.Get(ctx, patient)
	assert.ErrorIs(t, err, docstore.ErrNotFound)
	_, err = s.Get(ctx, exam)
	assert.NoError(t, err)
}
