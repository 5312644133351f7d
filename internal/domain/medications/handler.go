package medications

import (
	"net/http"

	"clinic-console/internal/domain"
	"clinic-console/internal/middleware"
	"clinic-console/internal/platform/httpx"
	"clinic-console/internal/views"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/medications", func(mr chi.Router) {
		mr.Get("/", listHandler(svc))
		mr.Post("/", saveHandler(svc))
		mr.Put("/{medicationID}", saveHandler(svc))
		mr.Delete("/{medicationID}", deleteHandler(svc))
	})
}

// listHandler godoc
// @Summary Listar medicamentos
// @Tags medications
// @Produce json
// @Param wait query bool false "Esperar el primer snapshot"
// @Success 200 {object} views.List[Medication]
// @Router /medications [get]
func listHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := views.StateFor(r, svc.View())
		httpx.WriteJSON(w, http.StatusOK, views.Render[Medication](st, views.EmptyMessages[views.Medications]))
	}
}

// saveHandler godoc
// @Summary Guardar medicamento
// @Description Merge en /medications/{id}. type: Tablet, Capsule, Syrup, Ointment, Injection u Other. price >= 0.
// @Tags medications
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param payload body Input true "Datos del medicamento"
// @Param wait query bool false "Esperar la escritura"
// @Success 202 {object} map[string]string
// @Failure 400 {object} map[string]any
// @Failure 401 {object} map[string]string
// @Router /medications [post]
func saveHandler(svc *Service) http.HandlerFunc {
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

		status := http.StatusCreated
		if id := chi.URLParam(r, "medicationID"); id != "" {
			// la fila editada manda sobre el id del body
			in.ID = id
			status = http.StatusOK
		}

		pending, path, err := svc.Save(r.Context(), uid, in)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteDispatched(w, r, pending, path, status)
	}
}

func deleteHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := middleware.UserID(r.Context())
		if uid == "" {
			httpx.WriteError(w, domain.ErrUnauthorized)
			return
		}
		id := chi.URLParam(r, "medicationID")
		pending, err := svc.Delete(r.Context(), uid, id)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteDispatched(w, r, pending, PathFor(id), http.StatusOK)
	}
}
