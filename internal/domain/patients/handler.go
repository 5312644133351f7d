package patients

import (
	"net/http"
	"strconv"

	"clinic-console/internal/domain"
	"clinic-console/internal/middleware"
	"clinic-console/internal/platform/httpx"
	"clinic-console/internal/views"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/patients", func(pr chi.Router) {
		pr.Get("/", listPatientsHandler(svc))
		pr.Post("/", createPatientHandler(svc))
	})

	// edición/borrado apuntan al documento exacto de la fila
	const doc = "/doctors/{doctorID}/patients/{patientID}"
	r.Get(doc, getPatientHandler(svc))
	r.Put(doc, updatePatientHandler(svc))
	r.Delete(doc, deletePatientHandler(svc))
}

func pathParam(r *http.Request) (string, string) {
	return chi.URLParam(r, "doctorID"), chi.URLParam(r, "patientID")
}

// listPatientsHandler godoc
// @Summary Listar pacientes
// @Description Lista viva de pacientes de todos los doctores (collection-group). Con `mine=true` solo los del doctor autenticado. Mientras carga devuelve `loading=true` y 5 placeholders.
// @Tags patients
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param mine query bool false "Solo mis pacientes"
// @Param wait query bool false "Esperar el primer snapshot"
// @Success 200 {object} views.List[Patient]
// @Router /patients [get]
func listPatientsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mine, _ := strconv.ParseBool(r.URL.Query().Get("mine"))
		st := views.StateFor(r, svc.View(middleware.UserID(r.Context()), mine))
		httpx.WriteJSON(w, http.StatusOK, views.Render[Patient](st, views.EmptyMessages[views.Patients]))
	}
}

// createPatientHandler godoc
// @Summary Registrar paciente
// @Description Crea /doctors/{uid}/patients/{id}. La escritura no bloquea: responde 202 al despachar; con `wait=true` espera el resultado (409 si el id ya existe).
// @Tags patients
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body Input true "Datos del paciente"
// @Param wait query bool false "Esperar la escritura"
// @Success 202 {object} map[string]string
// @Failure 400 {object} map[string]any "validación por campo"
// @Failure 401 {object} map[string]string
// @Router /patients [post]
func createPatientHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := middleware.UserID(r.Context())
		if uid == "" {
			httpx.WriteError(w, domain.ErrUnauthorized)
			return
		}

		var in Input
		if err := httpx.DecodeJSON(r, &in); err != nil {
			httpx.WriteError(w, err)
			return
		}

		pending, path, err := svc.Create(r.Context(), uid, in)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteDispatched(w, r, pending, path, http.StatusCreated)
	}
}

func getPatientHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.Get(r.Context(), PathFor(pathParam(r)))
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, p)
	}
}

func updatePatientHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := middleware.UserID(r.Context())
		if uid == "" {
			httpx.WriteError(w, domain.ErrUnauthorized)
			return
		}

		var in Input
		if err := httpx.DecodeJSON(r, &in); err != nil {
			httpx.WriteError(w, err)
			return
		}

		path := PathFor(pathParam(r))
		pending, err := svc.Update(r.Context(), uid, path, in)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteDispatched(w, r, pending, path, http.StatusOK)
	}
}

func deletePatientHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := middleware.UserID(r.Context())
		if uid == "" {
			httpx.WriteError(w, domain.ErrUnauthorized)
			return
		}

		path := PathFor(pathParam(r))
		pending, err := svc.Delete(r.Context(), uid, path)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteDispatched(w, r, pending, path, http.StatusOK)
	}
}
