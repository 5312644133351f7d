package clients

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
	r.Get("/clients", listClientsHandler(svc))
	r.Post("/clients", saveClientHandler(svc))

	const doc = "/doctors/{doctorID}/patients/{patientID}/clients/{clientID}"
	r.Get(doc, getClientHandler(svc))
	r.Put(doc, updateClientHandler(svc))
	r.Delete(doc, deleteClientHandler(svc))
}

func docPath(r *http.Request) docstore.Path {
	return PathFor(chi.URLParam(r, "doctorID"), chi.URLParam(r, "patientID"), chi.URLParam(r, "clientID"))
}

// listClientsHandler godoc
// @Summary Listar clientes
// @Description Lista viva de clientes de todos los doctores y pacientes.
// @Tags clients
// @Produce json
// @Param wait query bool false "Esperar el primer snapshot"
// @Success 200 {object} views.List[Client]
// @Router /clients [get]
func listClientsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := views.StateFor(r, svc.View())
		httpx.WriteJSON(w, http.StatusOK, views.Render[Client](st, views.EmptyMessages[views.Clients]))
	}
}

// saveClientHandler godoc
// @Summary Guardar cliente
// @Description Merge en /doctors/{uid}/patients/{patientId}/clients/{clientId}. visitDate en formato YYYY-MM-DD.
// @Tags clients
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param payload body Input true "Datos del cliente"
// @Success 202 {object} map[string]string
// @Failure 400 {object} map[string]any
// @Failure 401 {object} map[string]string
// @Router /clients [post]
func saveClientHandler(svc *Service) http.HandlerFunc {
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

func getClientHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := svc.Get(r.Context(), docPath(r))
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, c)
	}
}

func updateClientHandler(svc *Service) http.HandlerFunc {
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

func deleteClientHandler(svc *Service) http.HandlerFunc {
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
