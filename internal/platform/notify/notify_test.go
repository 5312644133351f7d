package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"clinic-console/internal/platform/errbus"
	"clinic-console/internal/ports/docstore"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_FansOutAndKeepsRecent(t *testing.T) {
	h := NewHub(2)

	ch, unsub := h.Subscribe(4)
	h.Success("Patient saved", "P-001")
	h.Error("Save failed", "permission denied")
	h.Success("Medication saved", "")

	n := <-ch
	assert.Equal(t, KindSuccess, n.Kind)
	assert.Equal(t, "Patient saved", n.Title)

	unsub()
	unsub()

	recent := h.Recent()
	require.Len(t, recent, 2)
	assert.Equal(t, KindError, recent[0].Kind)
	assert.Equal(t, "Medication saved", recent[1].Title)
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	h := NewHub(10)
	_, unsub := h.Subscribe(1)
	defer unsub()

	for i := 0; i < 5; i++ {
		h.Success("x", "")
	}
	assert.Len(t, h.Recent(), 5)
}

func TestErrorsHandler_ListsRecentRemoteErrors(t *testing.T) {
	bus := errbus.New()
	bus.Publish(bus.Wrap(errbus.OpSet, "doctors/d1", docstore.ErrPermissionDenied))

	r := chi.NewRouter()
	RegisterRoutes(r, NewHub(10), bus)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/errors", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var out []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "set", out[0]["op"])
	assert.Equal(t, "doctors/d1", out[0]["path"])
	assert.Equal(t, true, out[0]["permission"])
}

func TestRecentHandler(t *testing.T) {
	hub := NewHub(10)
	hub.Success("Doctor saved", "")

	r := chi.NewRouter()
	RegisterRoutes(r, hub, errbus.New())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/notifications", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var out []Notification
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "Doctor saved", out[0].Title)
}
