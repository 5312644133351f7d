package views

import (
	"context"
	"net/http"
	"time"

	"clinic-console/internal/live"
	"clinic-console/internal/middleware"
	"clinic-console/internal/platform/httpx"

	"github.com/go-chi/chi/v5"
)

// MyPatients es la vista del doctor autenticado (no es de administración).
const MyPatients = "my-patients"

// awaitTimeout acota ?wait=true en listas.
const awaitTimeout = 2 * time.Second

// StateFor devuelve el estado de la vista; con ?wait=true espera el primer snapshot.
func StateFor(r *http.Request, v *live.View) live.State {
	if !httpx.WantsWait(r) {
		return v.State()
	}
	ctx, cancel := context.WithTimeout(r.Context(), awaitTimeout)
	defer cancel()
	return Await(ctx, v)
}

func RegisterRoutes(r chi.Router, reg *Registry) {
	r.Get("/live", listViewsHandler())
	r.Get("/live/{view}", streamViewHandler(reg))
}

func listViewsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, append(Names(), MyPatients))
	}
}

// streamViewHandler godoc
// @Summary      Stream de una vista viva
// @Description  Server-Sent Events: un evento "snapshot" con la lista completa en cada cambio
// @Tags         live
// @Produce      text/event-stream
// @Param        view  path  string  true  "Nombre de la vista"
// @Success      200
// @Failure      404  {object}  map[string]string
// @Router       /live/{view} [get]
func streamViewHandler(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "view")

		var (
			v     *live.View
			empty string
		)
		if name == MyPatients {
			claims, _ := middleware.GetClaims(r.Context())
			var release func()
			v, release = reg.AcquireDoctorPatients(claims.UserID)
			defer release()
			empty = EmptyMessages[Patients]
		} else {
			var ok bool
			v, ok = reg.Named(name)
			if !ok {
				httpx.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "unknown view"})
				return
			}
			empty = EmptyMessages[name]
		}

		flusher, ok := httpx.StartSSE(w)
		if !ok {
			return
		}

		changes := make(chan live.State, 1)
		stop := v.OnChange(func(st live.State) {
			// solo interesa el último estado
			select {
			case <-changes:
			default:
			}
			select {
			case changes <- st:
			default:
			}
		})
		defer stop()

		if err := httpx.WriteEvent(w, "snapshot", Rows(v.State(), empty)); err != nil {
			return
		}
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				return
			case st := <-changes:
				if err := httpx.WriteEvent(w, "snapshot", Rows(st, empty)); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}
