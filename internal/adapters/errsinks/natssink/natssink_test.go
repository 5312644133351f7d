package natssink

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"clinic-console/internal/platform/errbus"
	"clinic-console/internal/ports/docstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	subject string
	msgs    [][]byte
	err     error
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	f.subject = subject
	f.msgs = append(f.msgs, data)
	return f.err
}

func TestSink_PublishesBusErrors(t *testing.T) {
	bus := errbus.New()
	pub := &fakePublisher{}
	detach := New(pub, "clinic.errors", nil).Attach(bus)

	at := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	bus.Publish(&errbus.RemoteError{Op: errbus.OpCreate, Path: "doctors/d1/patients/P-001", Err: docstore.ErrPermissionDenied, At: at})

	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "clinic.errors", pub.subject)

	var ev Event
	require.NoError(t, json.Unmarshal(pub.msgs[0], &ev))
	assert.Equal(t, "create", ev.Op)
	assert.Equal(t, "doctors/d1/patients/P-001", ev.Path)
	assert.True(t, ev.Permission)
	assert.True(t, ev.At.Equal(at))

	detach()
	bus.Publish(&errbus.RemoteError{Op: errbus.OpSet, Path: "x/y", Err: errors.New("boom")})
	assert.Len(t, pub.msgs, 1)
}

func TestSink_PublishFailureDoesNotPanic(t *testing.T) {
	pub := &fakePublisher{err: errors.New("nats: connection closed")}
	s := New(pub, "clinic.errors", nil)
	assert.NotPanics(t, func() {
		s.Handle(&errbus.RemoteError{Op: errbus.OpDelete, Path: "medications/M-1", Err: errors.New("boom")})
	})
}
