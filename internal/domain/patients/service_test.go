package patients

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"clinic-console/internal/adapters/storage/memory"
	"clinic-console/internal/domain"
	"clinic-console/internal/gateway"
	"clinic-console/internal/platform/errbus"
	"clinic-console/internal/platform/notify"
	"clinic-console/internal/ports/docstore"
	"clinic-console/internal/views"
)

// -------------------------
// Store con compuertas por nombre de paciente
// -------------------------

type gatedStore struct {
	*memory.Store

	mu    sync.Mutex
	gates map[string]chan struct{}
}

func newGatedStore() *gatedStore {
	return &gatedStore{Store: memory.NewStore(), gates: map[string]chan struct{}{}}
}

func (g *gatedStore) gate(name string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[name]
	if !ok {
		ch = make(chan struct{})
		g.gates[name] = ch
	}
	return ch
}

func (g *gatedStore) Create(ctx context.Context, p docstore.Path, data map[string]any) error {
	name, _ := data["name"].(string)
	<-g.gate(name)
	return g.Store.Create(ctx, p, data)
}

type fixture struct {
	store *gatedStore
	bus   *errbus.Bus
	reg   *views.Registry
	svc   *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newGatedStore()
	bus := errbus.New()
	reg := views.NewRegistry(store, bus, nil, nil)
	t.Cleanup(reg.Close)
	gw := gateway.New(store, bus, notify.NewHub(10), nil, nil)
	return &fixture{store: store, bus: bus, reg: reg, svc: NewService(gw, reg, store)}
}

func validInput(id, name string) Input {
	return Input{ID: id, Name: name, Species: "Cat", Breed: "Persian", Age: 3, Weight: 4.2, Gender: "Male"}
}

func waitLoaded(t *testing.T, f *fixture, uid string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if st := views.Await(ctx, f.reg.DoctorPatients(uid)); st.IsLoading {
		t.Fatalf("doctor patients view never loaded")
	}
}

// -------------------------
// Tests
// -------------------------

func TestCreate_ValidationReportsEveryField(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.svc.Create(context.Background(), "d1", Input{Age: 2.5, Weight: -1, Gender: "Unknown"})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}

	fields := map[string]bool{}
	for _, fe := range verr.Errors {
		fields[fe.Field] = true
	}
	for _, want := range []string{"id", "name", "species", "breed", "age", "weight", "gender"} {
		if !fields[want] {
			t.Fatalf("missing field error for %q in %+v", want, verr.Errors)
		}
	}
}

func TestCreate_RejectsIDAlreadyInLoadedList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.store.Store.Set(ctx, PathFor("d1", "P-001"), map[string]any{"id": "P-001", "name": "Milo"}, docstore.SetOptions{}); err != nil {
		t.Fatal(err)
	}
	waitLoaded(t, f, "d1")

	_, _, err := f.svc.Create(ctx, "d1", validInput("P-001", "Luna"))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected inline duplicate rejection, got %v", err)
	}
}

func TestCreate_IDsDifferingOnlyInCaseAreDistinct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.store.Store.Set(ctx, PathFor("d1", "P-001"), map[string]any{"id": "P-001", "name": "Milo"}, docstore.SetOptions{}); err != nil {
		t.Fatal(err)
	}
	waitLoaded(t, f, "d1")

	close(f.store.gate("Luna"))
	pending, path, err := f.svc.Create(ctx, "d1", validInput("p-001", "Luna"))
	if err != nil {
		t.Fatalf("expected p-001 to be accepted next to P-001, got %v", err)
	}
	if err := pending.Wait(ctx); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if path != PathFor("d1", "p-001") {
		t.Fatalf("unexpected path %s", path)
	}

	for _, id := range []string{"P-001", "p-001"} {
		if _, err := f.store.Get(ctx, PathFor("d1", id)); err != nil {
			t.Fatalf("get %s: %v", id, err)
		}
	}
}

func TestCreate_RacingSessionsSecondFailsOnBus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	waitLoaded(t, f, "d1")

	var busErrs []*errbus.RemoteError
	var mu sync.Mutex
	f.bus.Subscribe(func(e *errbus.RemoteError) {
		mu.Lock()
		busErrs = append(busErrs, e)
		mu.Unlock()
	})

	// ambas sesiones validan contra la misma lista (sin P-001) antes de que aterrice nada
	first, _, err := f.svc.Create(ctx, "d1", validInput("P-001", "Milo"))
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	second, _, err := f.svc.Create(ctx, "d1", validInput("P-001", "Luna"))
	if err != nil {
		t.Fatalf("second create passed the stale check? %v", err)
	}

	close(f.store.gate("Milo"))
	if err := first.Wait(ctx); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	close(f.store.gate("Luna"))
	if err := second.Wait(ctx); !errors.Is(err, docstore.ErrAlreadyExists) {
		t.Fatalf("expected already exists, got %v", err)
	}

	mu.Lock()
	n := len(busErrs)
	mu.Unlock()
	if n != 1 {
		t.Fatalf("expected 1 bus error, got %d", n)
	}

	p, err := f.svc.Get(ctx, PathFor("d1", "P-001"))
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "Milo" || p.Path != PathFor("d1", "P-001") {
		t.Fatalf("expected first record to stay, got %+v", p)
	}
}

func TestDelete_LeavesNestedRecordsReachable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	patient := PathFor("d1", "p1")
	nested := []docstore.Path{
		patient.Child("examinations", "e1"),
		patient.Child("presentStatuses", "s1"),
		patient.Child("clients", "c1"),
	}

	if err := f.store.Store.Set(ctx, patient, map[string]any{"name": "Milo"}, docstore.SetOptions{}); err != nil {
		t.Fatal(err)
	}
	for _, p := range nested {
		if err := f.store.Store.Set(ctx, p, map[string]any{"patientId": "p1"}, docstore.SetOptions{}); err != nil {
			t.Fatal(err)
		}
	}

	pending, err := f.svc.Delete(ctx, "d1", patient)
	if err != nil {
		t.Fatal(err)
	}
	if err := pending.Wait(ctx); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.Get(ctx, patient); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("expected patient gone, got %v", err)
	}
	for _, p := range nested {
		if _, err := f.store.Get(ctx, p); err != nil {
			t.Fatalf("orphan %s should remain: %v", p, err)
		}
	}
}

func TestUpdate_IDMustMatchPath(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Update(context.Background(), "d1", PathFor("d1", "p1"), validInput("p2", "Milo"))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
