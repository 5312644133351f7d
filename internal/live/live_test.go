package live

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"clinic-console/internal/adapters/storage/memory"
	"clinic-console/internal/platform/errbus"
	"clinic-console/internal/ports/docstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore envuelve el store en memoria y cuenta aperturas/cierres de Watch.
type countingStore struct {
	*memory.Store

	mu      sync.Mutex
	opened  int
	cancels map[int]int
	failErr error
	last    docstore.Listener
}

func newCountingStore() *countingStore {
	return &countingStore{Store: memory.NewStore(), cancels: map[int]int{}}
}

func (c *countingStore) Watch(ctx context.Context, q docstore.Query, l docstore.Listener) (func(), error) {
	c.mu.Lock()
	if c.failErr != nil {
		err := c.failErr
		c.mu.Unlock()
		return nil, err
	}
	c.opened++
	n := c.opened
	c.last = l
	c.mu.Unlock()

	cancel, err := c.Store.Watch(ctx, q, l)
	if err != nil {
		return nil, err
	}
	return func() {
		c.mu.Lock()
		c.cancels[n]++
		c.mu.Unlock()
		cancel()
	}, nil
}

func (c *countingStore) counts() (int, map[int]int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[int]int, len(c.cancels))
	for k, v := range c.cancels {
		out[k] = v
	}
	return c.opened, out
}

func TestMemo_SameDepsSameValue(t *testing.T) {
	var m Memo[*docstore.Query]
	builds := 0
	build := func() *docstore.Query {
		builds++
		return docstore.CollectionQuery("doctors/d1/patients")
	}

	a := m.Get([]any{"d1"}, build)
	b := m.Get([]any{"d1"}, build)
	c := m.Get([]any{"d2"}, build)

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, builds)
}

func TestMemo_NonComparableDepsAlwaysRebuild(t *testing.T) {
	var m Memo[int]
	builds := 0
	build := func() int { builds++; return builds }

	deps := []any{[]string{"x"}}
	m.Get(deps, build)
	m.Get(deps, build)
	m.Get([]any{"x", "y"}, build)

	assert.Equal(t, 3, builds)
}

func TestView_RebindCancelsPreviousExactlyOnce(t *testing.T) {
	store := newCountingStore()
	v := NewView(NewSubscription(store, errbus.New(), nil, nil))
	defer v.Close()

	build := func(uid string) func() *docstore.Query {
		return func() *docstore.Query { return docstore.CollectionQuery("doctors/" + uid + "/patients") }
	}

	v.Use([]any{store, "d1"}, build("d1"))
	first := v.Query()
	v.Use([]any{store, "d1"}, build("d1"))
	assert.Same(t, first, v.Query())

	opened, cancels := store.counts()
	assert.Equal(t, 1, opened)
	assert.Empty(t, cancels)

	v.Use([]any{store, "d2"}, build("d2"))
	v.Use([]any{store, "d2"}, build("d2"))

	opened, cancels = store.counts()
	assert.Equal(t, 2, opened)
	assert.Equal(t, map[int]int{1: 1}, cancels)
	assert.NotSame(t, first, v.Query())
}

// breakWatch simula la caída del watch activo (ej. se perdió el LISTEN).
func (c *countingStore) breakWatch(err error) {
	c.mu.Lock()
	l := c.last
	c.mu.Unlock()
	l.OnError(err)
}

func (c *countingStore) setFailErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failErr = err
}

func TestView_UseAfterFailedWatchReopens(t *testing.T) {
	store := newCountingStore()
	require.NoError(t, store.Set(context.Background(), docstore.Doc("medications", "m1"), map[string]any{"name": "Amoxil"}, docstore.SetOptions{}))
	v := NewView(NewSubscription(store, errbus.New(), nil, nil))
	defer v.Close()

	build := func() *docstore.Query { return docstore.CollectionQuery("medications") }

	store.setFailErr(errors.New("listen connection lost"))
	st := v.Use([]any{store, "medications"}, build)
	require.Error(t, st.Err)

	store.setFailErr(nil)
	st = v.Use([]any{store, "medications"}, build)
	assert.NoError(t, st.Err)

	require.Eventually(t, func() bool { return len(v.State().Data) == 1 }, time.Second, 5*time.Millisecond)
	opened, _ := store.counts()
	assert.Equal(t, 1, opened)

	// sano: reusar no reabre
	v.Use([]any{store, "medications"}, build)
	opened, _ = store.counts()
	assert.Equal(t, 1, opened)
}

func TestView_RetryAfterBrokenWatch(t *testing.T) {
	store := newCountingStore()
	require.NoError(t, store.Set(context.Background(), docstore.Doc("medications", "m1"), map[string]any{"name": "Amoxil"}, docstore.SetOptions{}))
	v := NewView(NewSubscription(store, errbus.New(), nil, nil))
	defer v.Close()

	assert.False(t, v.Retry().IsLoading, "retry before any Use is a no-op")
	opened, _ := store.counts()
	assert.Zero(t, opened)

	v.Use([]any{store, "medications"}, func() *docstore.Query { return docstore.CollectionQuery("medications") })
	require.Eventually(t, func() bool { return len(v.State().Data) == 1 }, time.Second, 5*time.Millisecond)

	store.breakWatch(errors.New("change stream closed"))
	require.Error(t, v.State().Err)

	v.Retry()
	require.Eventually(t, func() bool {
		st := v.State()
		return st.Err == nil && len(st.Data) == 1
	}, time.Second, 5*time.Millisecond)

	opened, cancels := store.counts()
	assert.Equal(t, 2, opened)
	assert.Equal(t, map[int]int{1: 1}, cancels)
}

func TestView_NilDescriptorIsIdle(t *testing.T) {
	store := newCountingStore()
	v := NewView(NewSubscription(store, errbus.New(), nil, nil))
	defer v.Close()

	st := v.Use([]any{store, ""}, func() *docstore.Query { return nil })

	assert.False(t, st.IsLoading)
	assert.Nil(t, st.Data)
	assert.NoError(t, st.Err)
	opened, _ := store.counts()
	assert.Zero(t, opened)
}

func TestSubscription_DeliversFullSnapshots(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, docstore.Doc("medications", "m1"), map[string]any{"name": "Amoxicillin"}, docstore.SetOptions{Merge: true}))

	sub := NewSubscription(store, errbus.New(), nil, nil)
	defer sub.Close()

	sub.Bind(docstore.CollectionQuery("medications"))
	require.Eventually(t, func() bool {
		st := sub.State()
		return !st.IsLoading && len(st.Data) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, store.Set(ctx, docstore.Doc("medications", "m2"), map[string]any{"name": "Ivermectin"}, docstore.SetOptions{Merge: true}))
	require.Eventually(t, func() bool { return len(sub.State().Data) == 2 }, time.Second, 5*time.Millisecond)
}

func TestSubscription_ErrorIsLocalAndPublished(t *testing.T) {
	store := newCountingStore()
	store.failErr = docstore.ErrPermissionDenied
	bus := errbus.New()

	var got []*errbus.RemoteError
	bus.Subscribe(func(e *errbus.RemoteError) { got = append(got, e) })

	sub := NewSubscription(store, bus, nil, nil)
	defer sub.Close()
	sub.Bind(docstore.GroupQuery("patients"))

	st := sub.State()
	require.Error(t, st.Err)
	assert.False(t, st.IsLoading)

	var re *errbus.RemoteError
	require.True(t, errors.As(st.Err, &re))
	assert.Equal(t, errbus.OpListen, re.Op)
	assert.Equal(t, "group:patients", re.Path)
	assert.True(t, re.Permission())
	require.Len(t, got, 1)
	assert.Same(t, re, got[0])
}

func TestSubscription_CloseDropsLateSnapshots(t *testing.T) {
	store := memory.NewStore()
	sub := NewSubscription(store, errbus.New(), nil, nil)

	var mu sync.Mutex
	changes := 0
	sub.OnChange(func(State) {
		mu.Lock()
		changes++
		mu.Unlock()
	})

	sub.Bind(docstore.CollectionQuery("diseases"))
	require.Eventually(t, func() bool { return !sub.State().IsLoading }, time.Second, 5*time.Millisecond)
	sub.Close()

	mu.Lock()
	before := changes
	mu.Unlock()

	require.NoError(t, store.Set(context.Background(), docstore.Doc("diseases", "x"), map[string]any{"name": "Parvo"}, docstore.SetOptions{}))
	time.Sleep(30 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, before, changes)
	assert.Empty(t, sub.State().Data)
}
