package doctors

import (
	"net/http"

	"clinic-console/internal/domain"
	"clinic-console/internal/middleware"
	"clinic-console/internal/platform/httpx"
	"clinic-console/internal/views"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Post("/register", registerHandler(svc))

	r.Get("/doctors", listDoctorsHandler(svc))
	r.Get("/doctors/me", getMeHandler(svc))
	r.Put("/doctors/me", updateMeHandler(svc))
	r.Get("/doctors/{doctorID}", getDoctorHandler(svc))
	r.Delete("/doctors/{doctorID}", deleteDoctorHandler(svc))
}

// registerHandler godoc
// @Summary Alta de doctor
// @Description Crea (merge) /doctors/{uid} con nombre, email y un perfil vacío. El uid sale del token (o de X-Debug-User-ID en dev).
// @Tags doctors
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body RegisterInput true "Nombre y email"
// @Success 202 {object} map[string]string
// @Failure 400 {object} map[string]any
// @Failure 401 {object} map[string]string
// @Router /register [post]
func registerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := middleware.UserID(r.Context())
		if uid == "" {
			httpx.WriteError(w, domain.ErrUnauthorized)
			return
		}

		var in RegisterInput
		if err := httpx.DecodeJSON(r, &in); err != nil {
			httpx.WriteError(w, err)
			return
		}

		pending, err := svc.Register(r.Context(), uid, in)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteDispatched(w, r, pending, PathFor(uid), http.StatusCreated)
	}
}

func listDoctorsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := views.StateFor(r, svc.View())
		httpx.WriteJSON(w, http.StatusOK, views.Render[Doctor](st, views.EmptyMessages[views.Doctors]))
	}
}

func getMeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := middleware.UserID(r.Context())
		if uid == "" {
			httpx.WriteError(w, domain.ErrUnauthorized)
			return
		}
		d, err := svc.Get(r.Context(), uid)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, d)
	}
}

// updateMeHandler godoc
// @Summary Editar mi perfil
// @Description Merge del perfil del doctor autenticado, incluido el horario semanal (días en inglés: Sunday..Saturday).
// @Tags doctors
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param payload body ProfileInput true "Perfil"
// @Success 202 {object} map[string]string
// @Failure 400 {object} map[string]any
// @Router /doctors/me [put]
func updateMeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := middleware.UserID(r.Context())
		if uid == "" {
			httpx.WriteError(w, domain.ErrUnauthorized)
			return
		}

		var in ProfileInput
		if err := httpx.DecodeJSON(r, &in); err != nil {
			httpx.WriteError(w, err)
			return
		}

		pending, err := svc.UpdateProfile(r.Context(), uid, in)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteDispatched(w, r, pending, PathFor(uid), http.StatusOK)
	}
}

func getDoctorHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := svc.Get(r.Context(), chi.URLParam(r, "doctorID"))
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, d)
	}
}

func deleteDoctorHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := middleware.UserID(r.Context())
		if uid == "" {
			httpx.WriteError(w, domain.ErrUnauthorized)
			return
		}
		doctorID := chi.URLParam(r, "doctorID")
		pending, err := svc.Delete(r.Context(), uid, doctorID)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteDispatched(w, r, pending, PathFor(doctorID), http.StatusOK)
	}
}
