package reports

import (
	"net/http"

	"clinic-console/internal/domain/patients"
	"clinic-console/internal/platform/httpx"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/doctors/{doctorID}/patients/{patientID}/report", reportHandler(svc))
}

// reportHandler godoc
// @Summary Reporte de paciente
// @Description Paciente, clientes (visitDate desc) y exámenes (date desc) con sus enfermedades.
// @Tags reports
// @Produce json
// @Param doctorID path string true "Doctor"
// @Param patientID path string true "Paciente"
// @Param examination query string false "Solo este examen (versión imprimible)"
// @Success 200 {object} Report
// @Failure 404 {object} map[string]string
// @Router /doctors/{doctorID}/patients/{patientID}/report [get]
func reportHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := patients.PathFor(chi.URLParam(r, "doctorID"), chi.URLParam(r, "patientID"))
		rep, err := svc.Build(r.Context(), path, r.URL.Query().Get("examination"))
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, rep)
	}
}
