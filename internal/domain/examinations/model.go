package examinations

import (
	"strings"

	"clinic-console/internal/domain"
	"clinic-console/internal/domain/calendar"
	"clinic-console/internal/ports/docstore"
)

const collection = "examinations"

// Examination vive bajo el paciente:
// /doctors/{doctorId}/patients/{patientId}/examinations/{id}.
type Examination struct {
	docstore.Ref

	ID              string   `json:"id"`
	Date            string   `json:"date"`
	DoctorID        string   `json:"doctorId"`
	PatientID       string   `json:"patientId"`
	DiseaseIDs      []string `json:"diseaseIds"`
	PresentStatusID string   `json:"presentStatusId,omitempty"`
	Complaints      string   `json:"complaints"`
	Diagnosis       string   `json:"diagnosis"`
	Actions         string   `json:"actions"`
}

type Input struct {
	ID              string   `json:"id,omitempty"`
	Date            string   `json:"date"`
	PatientID       string   `json:"patientId"`
	DiseaseIDs      []string `json:"diseaseIds"`
	PresentStatusID string   `json:"presentStatusId,omitempty"`
	Complaints      string   `json:"complaints"`
	Diagnosis       string   `json:"diagnosis"`
	Actions         string   `json:"actions"`
}

func (in Input) Validate() error {
	var c domain.Checker
	if c.Required("date", in.Date) {
		if _, ok := calendar.DateKey(in.Date); !ok {
			c.Add("date", "must be a date (YYYY-MM-DD)")
		}
	}
	if c.Required("patientId", in.PatientID) && strings.Contains(in.PatientID, "/") {
		c.Add("patientId", "must not contain '/'")
	}
	if len(in.DiseaseIDs) == 0 {
		c.Add("diseaseIds", "at least one disease is required")
	}
	for _, id := range in.DiseaseIDs {
		if strings.TrimSpace(id) == "" || strings.Contains(id, "/") {
			c.Add("diseaseIds", "invalid disease id")
			break
		}
	}
	if strings.Contains(in.PresentStatusID, "/") {
		c.Add("presentStatusId", "must not contain '/'")
	}
	c.Required("complaints", in.Complaints)
	c.Required("diagnosis", in.Diagnosis)
	return c.Err()
}

func (in Input) examination(doctorID string) Examination {
	ids := make([]string, 0, len(in.DiseaseIDs))
	seen := make(map[string]bool, len(in.DiseaseIDs))
	for _, id := range in.DiseaseIDs {
		id = strings.TrimSpace(id)
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	date, _ := calendar.DateKey(in.Date)
	return Examination{
		ID:              in.ID,
		Date:            date,
		DoctorID:        doctorID,
		PatientID:       strings.TrimSpace(in.PatientID),
		DiseaseIDs:      ids,
		PresentStatusID: strings.TrimSpace(in.PresentStatusID),
		Complaints:      strings.TrimSpace(in.Complaints),
		Diagnosis:       strings.TrimSpace(in.Diagnosis),
		Actions:         strings.TrimSpace(in.Actions),
	}
}

func PathFor(doctorID, patientID, examID string) docstore.Path {
	return docstore.Doc("doctors", doctorID, "patients", patientID, collection, examID)
}
