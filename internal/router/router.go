package router

import (
	"context"
	"net/http"
	"sync"

	_ "clinic-console/docs"
	mem "clinic-console/internal/adapters/storage/memory"
	"clinic-console/internal/domain/calendar"
	"clinic-console/internal/domain/clients"
	"clinic-console/internal/domain/diseases"
	"clinic-console/internal/domain/doctors"
	"clinic-console/internal/domain/examinations"
	"clinic-console/internal/domain/medications"
	"clinic-console/internal/domain/patients"
	"clinic-console/internal/domain/reports"
	"clinic-console/internal/domain/statuses"
	"clinic-console/internal/gateway"
	"clinic-console/internal/middleware"
	"clinic-console/internal/platform/errbus"
	"clinic-console/internal/platform/logger"
	"clinic-console/internal/platform/metrics"
	"clinic-console/internal/platform/notify"
	"clinic-console/internal/ports/auth"
	"clinic-console/internal/ports/docstore"
	"clinic-console/internal/views"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si no viene, store in-memory.
	Store docstore.Store

	Logger  logger.Logger
	Metrics *metrics.Metrics
	Bus     *errbus.Bus
	Notify  *notify.Hub

	Calendar calendar.Options

	// Swagger expone /swagger/* (docs generados por swag).
	Swagger bool
}

// App es el router armado más lo que hay que cerrar al apagar.
type App struct {
	Handler http.Handler
	Gateway *gateway.Gateway
	Bus     *errbus.Bus
	Notify  *notify.Hub

	registry *views.Registry
	composer *calendar.Composer
	once     sync.Once
}

// Drain espera las escrituras en vuelo.
func (a *App) Drain(ctx context.Context) error {
	return a.Gateway.Drain(ctx)
}

// Close cierra el calendario y todas las vistas vivas (idempotente).
func (a *App) Close() {
	a.once.Do(func() {
		a.composer.Close()
		a.registry.Close()
	})
}

func New(opts Options) *App {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	store := opts.Store
	if store == nil {
		store = mem.NewStore()
	}
	bus := opts.Bus
	if bus == nil {
		bus = errbus.New()
	}
	hub := opts.Notify
	if hub == nil {
		hub = notify.NewHub(0)
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recover(log))
	// auth antes del log para que el request quede con user_id
	r.Use(middleware.AuthContext(opts.AuthVerifier, log))
	r.Use(middleware.RequestLog(log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", opts.Metrics.Handler())
	if opts.Swagger {
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	}

	reg := views.NewRegistry(store, bus, log, opts.Metrics)
	gw := gateway.New(store, bus, hub, log, opts.Metrics)

	// Services por módulo
	doctorsSvc := doctors.NewService(gw, reg, store)
	patientsSvc := patients.NewService(gw, reg, store)
	clientsSvc := clients.NewService(gw, reg, store)
	statusesSvc := statuses.NewService(gw, reg, store)
	examsSvc := examinations.NewService(gw, reg, store)
	medsSvc := medications.NewService(gw, reg)
	diseasesSvc := diseases.NewService(gw, reg)
	reportsSvc := reports.NewService(store)

	// el orden de las fuentes define el orden dentro de cada día
	calOpts := opts.Calendar
	if calOpts.Metrics == nil {
		calOpts.Metrics = opts.Metrics
	}
	composer := calendar.NewComposer(calOpts)
	composer.AddSource(views.Clients, clientsSvc.View(), calendar.VisitEvents)
	composer.AddSource(views.Examinations, examsSvc.View(), calendar.ExaminationEvents)
	composer.AddSource(views.Doctors, doctorsSvc.View(), calendar.SlotEvents)
	composer.Start()

	// Rutas por módulo
	doctors.RegisterRoutes(r, doctorsSvc)
	patients.RegisterRoutes(r, patientsSvc)
	clients.RegisterRoutes(r, clientsSvc)
	statuses.RegisterRoutes(r, statusesSvc)
	examinations.RegisterRoutes(r, examsSvc)
	medications.RegisterRoutes(r, medsSvc)
	diseases.RegisterRoutes(r, diseasesSvc)
	reports.RegisterRoutes(r, reportsSvc)
	calendar.RegisterRoutes(r, composer)
	views.RegisterRoutes(r, reg)
	notify.RegisterRoutes(r, hub, bus)

	log.Info("router ready", map[string]any{"views": len(views.Names())})

	return &App{
		Handler:  r,
		Gateway:  gw,
		Bus:      bus,
		Notify:   hub,
		registry: reg,
		composer: composer,
	}
}

// NewRouter arma la app y devuelve solo el handler (las vistas viven lo que el proceso).
func NewRouter(opts Options) http.Handler {
	return New(opts).Handler
}
