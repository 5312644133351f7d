package diseases

import (
	"net/http"

	"clinic-console/internal/domain"
	"clinic-console/internal/middleware"
	"clinic-console/internal/platform/httpx"
	"clinic-console/internal/ports/docstore"
	"clinic-console/internal/views"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/diseases", func(dr chi.Router) {
		dr.Get("/", listHandler(svc))
		dr.Post("/", saveHandler(svc))
		dr.Put("/{diseaseID}", saveHandler(svc))
		dr.Delete("/{diseaseID}", deleteHandler(svc))
	})
}

// listHandler godoc
// @Summary Listar enfermedades
// @Tags diseases
// @Produce json
// @Success 200 {object} views.List[Disease]
// @Router /diseases [get]
func listHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := views.StateFor(r, svc.View())
		httpx.WriteJSON(w, http.StatusOK, views.Render[Disease](st, views.EmptyMessages[views.Diseases]))
	}
}

// saveHandler godoc
// @Summary Guardar enfermedad
// @Tags diseases
// @Accept json
// @Produce json
// @Param payload body Input true "Id, nombre y descripción"
// @Success 202 {object} map[string]string
// @Failure 400 {object} map[string]any
// @Router /diseases [post]
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

		var target docstore.Path
		status := http.StatusCreated
		if id := chi.URLParam(r, "diseaseID"); id != "" {
			target = PathFor(id)
			status = http.StatusOK
		}

		pending, path, err := svc.Save(r.Context(), uid, target, in)
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
		id := chi.URLParam(r, "diseaseID")
		pending, err := svc.Delete(r.Context(), uid, id)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteDispatched(w, r, pending, PathFor(id), http.StatusOK)
	}
}
