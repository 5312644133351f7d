package notify

import (
	"net/http"
	"time"

	"clinic-console/internal/platform/errbus"
	"clinic-console/internal/platform/httpx"

	"github.com/go-chi/chi/v5"
)

type errorResponse struct {
	Op         errbus.Op `json:"op"`
	Path       string    `json:"path"`
	Error      string    `json:"error"`
	Permission bool      `json:"permission"`
	At         time.Time `json:"at"`
}

func RegisterRoutes(r chi.Router, hub *Hub, bus *errbus.Bus) {
	r.Get("/notifications", recentHandler(hub))
	r.Get("/notifications/stream", streamHandler(hub))
	r.Get("/errors", errorsHandler(bus))
}

// recentHandler godoc
// @Summary      Últimas notificaciones
// @Tags         notifications
// @Produce      json
// @Success      200  {array}  Notification
// @Router       /notifications [get]
func recentHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, hub.Recent())
	}
}

// streamHandler godoc
// @Summary      Stream de notificaciones
// @Description  Server-Sent Events: un evento "notification" por cada toast
// @Tags         notifications
// @Produce      text/event-stream
// @Success      200
// @Router       /notifications/stream [get]
func streamHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := httpx.StartSSE(w)
		if !ok {
			return
		}

		ch, unsubscribe := hub.Subscribe(0)
		defer unsubscribe()

		for {
			select {
			case <-r.Context().Done():
				return
			case n, ok := <-ch:
				if !ok {
					return
				}
				if err := httpx.WriteEvent(w, "notification", n); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}

func errorsHandler(bus *errbus.Bus) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		recent := bus.Recent()
		out := make([]errorResponse, 0, len(recent))
		for _, e := range recent {
			out = append(out, errorResponse{
				Op:         e.Op,
				Path:       e.Path,
				Error:      e.Err.Error(),
				Permission: e.Permission(),
				At:         e.At.UTC(),
			})
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}
