package statuses

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
	r.Get("/statuses", listHandler(svc))
	r.Post("/statuses", saveHandler(svc, false))

	const doc = "/doctors/{doctorID}/patients/{patientID}/statuses/{statusID}"
	r.Get(doc, getHandler(svc))
	r.Put(doc, saveHandler(svc, true))
	r.Delete(doc, deleteHandler(svc))
}

func docPath(r *http.Request) docstore.Path {
	return PathFor(chi.URLParam(r, "doctorID"), chi.URLParam(r, "patientID"), chi.URLParam(r, "statusID"))
}

// listHandler godoc
// @Summary Listar status presentes
// @Tags statuses
// @Produce json
// @Success 200 {object} views.List[PresentStatus]
// @Router /statuses [get]
func listHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := views.StateFor(r, svc.View())
		httpx.WriteJSON(w, http.StatusOK, views.Render[PresentStatus](st, views.EmptyMessages[views.Statuses]))
	}
}

func saveHandler(svc *Service, edit bool) http.HandlerFunc {
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
		if edit {
			target = docPath(r)
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

func getHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ps, err := svc.Get(r.Context(), docPath(r))
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, ps)
	}
}

func deleteHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := middleware.UserID(r.Context())
		if uid == "" {
			httpx.WriteError(w, domain.ErrUnauthorized)
			return
		}
		path := docPath(r)
		pending, err := svc.Delete(r.Context(), uid, path)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteDispatched(w, r, pending, path, http.StatusOK)
	}
}
