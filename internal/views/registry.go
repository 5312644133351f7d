package views

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"clinic-console/internal/live"
	"clinic-console/internal/platform/errbus"
	"clinic-console/internal/platform/logger"
	"clinic-console/internal/platform/metrics"
	"clinic-console/internal/ports/docstore"
)

// Nombres de las vistas de administración (listas de todas las entidades).
const (
	Doctors      = "doctors"
	Patients     = "patients"
	Clients      = "clients"
	Examinations = "examinations"
	Statuses     = "statuses"
	Medications  = "medications"
	Diseases     = "diseases"
)

// Las listas de administración cruzan a todos los doctores: patients, clients,
// examinations y statuses son collection-group queries.
var definitions = map[string]func() *docstore.Query{
	Doctors:      func() *docstore.Query { return docstore.CollectionQuery("doctors").Order("name", false) },
	Patients:     func() *docstore.Query { return docstore.GroupQuery("patients") },
	Clients:      func() *docstore.Query { return docstore.GroupQuery("clients") },
	Examinations: func() *docstore.Query { return docstore.GroupQuery("examinations") },
	Statuses:     func() *docstore.Query { return docstore.GroupQuery("presentStatuses") },
	Medications:  func() *docstore.Query { return docstore.CollectionQuery("medications").Order("name", false) },
	Diseases:     func() *docstore.Query { return docstore.CollectionQuery("diseases").Order("name", false) },
}

// DoctorViewIdle es cuánto sigue abierta una vista por doctor sin nadie que la use.
const DoctorViewIdle = 5 * time.Minute

// Registry mantiene las vistas vivas compartidas por todos los requests.
// Cada vista se abre la primera vez que alguien la pide. Las de administración
// viven hasta Close; las de cada doctor se cierran tras DoctorViewIdle sin uso.
type Registry struct {
	store   docstore.Store
	bus     *errbus.Bus
	log     logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	idle    time.Duration

	mu      sync.Mutex
	named   map[string]*live.View
	doctors map[string]*doctorView
	closed  bool
	stop    chan struct{}
}

type doctorView struct {
	view     *live.View
	refs     int
	lastUsed time.Time
}

func NewRegistry(store docstore.Store, bus *errbus.Bus, log logger.Logger, m *metrics.Metrics) *Registry {
	r := newRegistry(store, bus, log, m, time.Now, DoctorViewIdle)
	go r.evictLoop(r.idle / 2)
	return r
}

func newRegistry(store docstore.Store, bus *errbus.Bus, log logger.Logger, m *metrics.Metrics, now func() time.Time, idle time.Duration) *Registry {
	if log == nil {
		log = logger.Nop()
	}
	return &Registry{
		store:   store,
		bus:     bus,
		log:     log.With(map[string]any{"component": "views"}),
		metrics: m,
		now:     now,
		idle:    idle,
		named:   make(map[string]*live.View),
		doctors: make(map[string]*doctorView),
		stop:    make(chan struct{}),
	}
}

// Names devuelve las vistas conocidas, ordenadas.
func Names() []string {
	out := make([]string, 0, len(definitions))
	for n := range definitions {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) newView() *live.View {
	return live.NewView(live.NewSubscription(r.store, r.bus, r.log, r.metrics))
}

// Named devuelve la vista de administración; false si el nombre no existe.
func (r *Registry) Named(name string) (*live.View, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	build, ok := definitions[name]
	if !ok {
		return nil, false
	}

	r.mu.Lock()
	v, exists := r.named[name]
	if !exists {
		v = r.newView()
		r.named[name] = v
	}
	closed := r.closed
	r.mu.Unlock()

	if !closed {
		v.Use([]any{r.store, name}, build)
	}
	return v, true
}

// DoctorPatients es la lista de pacientes del doctor uid. Sin uid la vista queda idle.
// Sirve para lecturas puntuales: la vista queda abierta hasta DoctorViewIdle sin uso.
func (r *Registry) DoctorPatients(uid string) *live.View {
	v, release := r.AcquireDoctorPatients(uid)
	release()
	return v
}

// AcquireDoctorPatients es DoctorPatients para quien la usa por un rato (streams):
// la vista no se desaloja hasta llamar release.
func (r *Registry) AcquireDoctorPatients(uid string) (*live.View, func()) {
	uid = strings.TrimSpace(uid)

	r.mu.Lock()
	d, exists := r.doctors[uid]
	if !exists {
		d = &doctorView{view: r.newView()}
		r.doctors[uid] = d
	}
	d.refs++
	d.lastUsed = r.now()
	closed := r.closed
	r.mu.Unlock()

	if !closed {
		d.view.Use([]any{r.store, uid}, func() *docstore.Query {
			if uid == "" {
				return nil
			}
			return docstore.CollectionQuery(docstore.Doc("doctors", uid).String() + "/patients")
		})
	}

	var once sync.Once
	return d.view, func() {
		once.Do(func() {
			r.mu.Lock()
			d.refs--
			d.lastUsed = r.now()
			r.mu.Unlock()
		})
	}
}

// evictIdle cierra las vistas por doctor sin usuarios desde hace r.idle.
func (r *Registry) evictIdle() int {
	now := r.now()

	r.mu.Lock()
	var idle []*live.View
	for uid, d := range r.doctors {
		if d.refs == 0 && now.Sub(d.lastUsed) >= r.idle {
			idle = append(idle, d.view)
			delete(r.doctors, uid)
		}
	}
	r.mu.Unlock()

	for _, v := range idle {
		v.Close()
	}
	if len(idle) > 0 {
		r.log.Debug("idle doctor views closed", map[string]any{"count": len(idle)})
	}
	return len(idle)
}

func (r *Registry) evictLoop(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-t.C:
			r.evictIdle()
		}
	}
}

// Close cierra todas las suscripciones abiertas.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	close(r.stop)
	for _, v := range r.named {
		v.Close()
	}
	for _, d := range r.doctors {
		d.view.Close()
	}
}

// Await espera a que la vista salga de loading o a que venza ctx;
// en ese caso devuelve el estado tal como esté.
func Await(ctx context.Context, v *live.View) live.State {
	ready := make(chan struct{}, 1)
	stop := v.OnChange(func(st live.State) {
		if !st.IsLoading {
			select {
			case ready <- struct{}{}:
			default:
			}
		}
	})
	defer stop()

	if st := v.State(); !st.IsLoading {
		return st
	}
	select {
	case <-ready:
	case <-ctx.Done():
	}
	return v.State()
}
