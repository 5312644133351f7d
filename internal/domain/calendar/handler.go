package calendar

import (
	"errors"
	"net/http"

	"clinic-console/internal/platform/httpx"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, c *Composer) {
	r.Route("/calendar", func(cr chi.Router) {
		cr.Get("/", getCalendarHandler(c))
		cr.Get("/{date}", getDayHandler(c))
	})
}

// getCalendarHandler godoc
// @Summary Calendario completo
// @Description Visitas, exámenes y horarios recurrentes de los doctores indexados por fecha (YYYY-MM-DD), dentro de la ventana [hoy - 1 mes, hoy + 2 meses].
// @Tags calendar
// @Produce json
// @Success 200 {object} Projection
// @Router /calendar [get]
func getCalendarHandler(c *Composer) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, c.Snapshot())
	}
}

// getDayHandler godoc
// @Summary Eventos de un día
// @Description Si no hay eventos la respuesta trae message="no schedule" (no es un error).
// @Tags calendar
// @Produce json
// @Param date path string true "Fecha YYYY-MM-DD"
// @Success 200 {object} Day
// @Failure 400 {object} map[string]string
// @Router /calendar/{date} [get]
func getDayHandler(c *Composer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := c.Day(chi.URLParam(r, "date"))
		if errors.Is(err, ErrInvalidDate) {
			httpx.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, d)
	}
}
