package livequery

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"clinic-console/internal/ports/docstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticQuery(calls *atomic.Int32, err error) QueryFunc {
	return func(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
		calls.Add(1)
		if err != nil {
			return nil, err
		}
		return []docstore.Document{{Path: docstore.Doc("medications", "M-1")}}, nil
	}
}

func TestHub_NotifyOnlyRequeriesCoveringWatches(t *testing.T) {
	var calls atomic.Int32
	h := NewHub(staticQuery(&calls, nil))

	snaps := make(chan int, 10)
	cancel, err := h.Watch(context.Background(), *docstore.CollectionQuery("medications"), docstore.Listener{
		OnSnapshot: func(docs []docstore.Document) { snaps <- len(docs) },
	})
	require.NoError(t, err)
	defer cancel()

	<-snaps
	h.Notify(docstore.Doc("diseases", "D-1"))
	h.Notify(docstore.Doc("medications", "M-2"))

	select {
	case n := <-snaps:
		assert.Equal(t, 1, n)
	case <-time.After(time.Second):
		t.Fatal("no snapshot after covering write")
	}
	assert.Equal(t, int32(2), calls.Load())
}

func TestHub_QueryErrorEndsListener(t *testing.T) {
	var calls atomic.Int32
	boom := errors.New("permission denied")
	h := NewHub(staticQuery(&calls, boom))

	errs := make(chan error, 1)
	_, err := h.Watch(context.Background(), *docstore.GroupQuery("patients"), docstore.Listener{
		OnError: func(err error) { errs <- err },
	})
	require.NoError(t, err)

	select {
	case got := <-errs:
		assert.ErrorIs(t, got, boom)
	case <-time.After(time.Second):
		t.Fatal("listener never failed")
	}
	assert.Eventually(t, func() bool { return h.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_FailReachesEveryListener(t *testing.T) {
	var calls atomic.Int32
	h := NewHub(staticQuery(&calls, nil))
	down := errors.New("listen connection lost")

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		_, err := h.Watch(context.Background(), *docstore.GroupQuery("clients"), docstore.Listener{
			OnError: func(err error) { errs <- err },
		})
		require.NoError(t, err)
	}

	h.Fail(down)
	for i := 0; i < 2; i++ {
		select {
		case got := <-errs:
			assert.ErrorIs(t, got, down)
		case <-time.After(time.Second):
			t.Fatal("listener not failed")
		}
	}
	assert.Zero(t, h.Len())
}

func TestHub_CancelIsIdempotent(t *testing.T) {
	var calls atomic.Int32
	h := NewHub(staticQuery(&calls, nil))
	cancel, err := h.Watch(context.Background(), *docstore.CollectionQuery("medications"), docstore.Listener{})
	require.NoError(t, err)

	cancel()
	cancel()
	assert.Zero(t, h.Len())
}

func TestHub_InvalidQuery(t *testing.T) {
	h := NewHub(nil)
	_, err := h.Watch(context.Background(), docstore.Query{}, docstore.Listener{})
	assert.Error(t, err)
}
