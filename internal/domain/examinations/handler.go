package examinations

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
	r.Get("/examinations", listHandler(svc))
	r.Post("/examinations", createHandler(svc))

	const doc = "/doctors/{doctorID}/patients/{patientID}/examinations/{examID}"
	r.Get(doc, getHandler(svc))
	r.Get(doc+"/details", detailsHandler(svc))
	r.Put(doc, updateHandler(svc))
	r.Delete(doc, deleteHandler(svc))
}

func docPath(r *http.Request) docstore.Path {
	return PathFor(chi.URLParam(r, "doctorID"), chi.URLParam(r, "patientID"), chi.URLParam(r, "examID"))
}

// listHandler godoc
// @Summary Listar exámenes
// @Description Todos los exámenes de todos los doctores (collection-group).
// @Tags examinations
// @Produce json
// @Param wait query bool false "Esperar el primer snapshot"
// @Success 200 {object} views.List[Examination]
// @Router /examinations [get]
func listHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := views.StateFor(r, svc.View())
		httpx.WriteJSON(w, http.StatusOK, views.Render[Examination](st, views.EmptyMessages[views.Examinations]))
	}
}

// createHandler godoc
// @Summary Registrar examen
// @Tags examinations
// @Accept json
// @Produce json
// @Param payload body Input true "Datos del examen"
// @Param wait query bool false "Esperar la escritura"
// @Success 202 {object} map[string]string
// @Failure 400 {object} map[string]any
// @Failure 401 {object} map[string]string
// @Router /examinations [post]
func createHandler(svc *Service) http.HandlerFunc {
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

		pending, path, err := svc.Save(r.Context(), uid, in)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteDispatched(w, r, pending, path, http.StatusCreated)
	}
}

func getHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := svc.Get(r.Context(), docPath(r))
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, e)
	}
}

// detailsHandler godoc
// @Summary Detalle de examen
// @Description Examen con doctor, paciente, status presente y enfermedades resueltas.
// @Tags examinations
// @Produce json
// @Param doctorID path string true "Doctor"
// @Param patientID path string true "Paciente"
// @Param examID path string true "Examen"
// @Success 200 {object} Details
// @Failure 404 {object} map[string]string
// @Router /doctors/{doctorID}/patients/{patientID}/examinations/{examID}/details [get]
func detailsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := svc.Details(r.Context(), docPath(r), nil)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, d)
	}
}

func updateHandler(svc *Service) http.HandlerFunc {
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

		path := docPath(r)
		pending, err := svc.Update(r.Context(), uid, path, in)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteDispatched(w, r, pending, path, http.StatusOK)
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
