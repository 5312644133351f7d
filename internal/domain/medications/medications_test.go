package medications

import (
	"context"
	"testing"

	"clinic-console/internal/adapters/storage/memory"
	"clinic-console/internal/domain"
	"clinic-console/internal/gateway"
	"clinic-console/internal/platform/errbus"
	"clinic-console/internal/platform/notify"
	"clinic-console/internal/ports/docstore"
	"clinic-console/internal/views"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	bus := errbus.New()
	reg := views.NewRegistry(store, bus, nil, nil)
	t.Cleanup(reg.Close)
	gw := gateway.New(store, bus, notify.NewHub(10), nil, nil)
	return NewService(gw, reg), store
}

func TestSave_WritesCatalogEntry(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	p, path, err := svc.Save(ctx, "d1", Input{ID: " M-01 ", Type: "Syrup", Name: " Amoxil ", Price: 0})
	require.NoError(t, err)
	require.NoError(t, p.Wait(ctx))
	assert.Equal(t, docstore.Path("medications/M-01"), path)

	doc, err := store.Get(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "Syrup", doc.Data["type"])
	assert.Equal(t, "Amoxil", doc.Data["name"])
	assert.Equal(t, float64(0), doc.Data["price"])
}

func TestInput_Validate(t *testing.T) {
	cases := []struct {
		name  string
		in    Input
		field string
	}{
		{name: "unknown type", in: Input{ID: "M-1", Type: "Powder", Name: "x"}, field: "type"},
		{name: "negative price", in: Input{ID: "M-1", Type: "Tablet", Name: "x", Price: -1}, field: "price"},
		{name: "slash in id", in: Input{ID: "a/b", Type: "Tablet", Name: "x"}, field: "id"},
		{name: "missing name", in: Input{ID: "M-1", Type: "Other"}, field: "name"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var verr *domain.ValidationError
			require.ErrorAs(t, tc.in.Validate(), &verr)
			require.Len(t, verr.Errors, 1)
			assert.Equal(t, tc.field, verr.Errors[0].Field)
		})
	}
}

func TestSave_RequiresUser(t *testing.T) {
	svc, store := newService(t)

	_, _, err := svc.Save(context.Background(), "", Input{ID: "M-1", Type: "Tablet", Name: "x"})
	assert.ErrorIs(t, err, gateway.ErrPreconditionFailed)
	assert.Zero(t, store.Len())
}

func TestDelete_RemovesEntry(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	p, _, err := svc.Save(ctx, "d1", Input{ID: "M-1", Type: "Tablet", Name: "x", Price: 2.5})
	require.NoError(t, err)
	require.NoError(t, p.Wait(ctx))

	p, err = svc.Delete(ctx, "d1", "M-1")
	require.NoError(t, err)
	require.NoError(t, p.Wait(ctx))
	assert.Zero(t, store.Len())
}
