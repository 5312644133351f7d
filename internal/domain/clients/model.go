package clients

import (
	"strings"

	"clinic-console/internal/domain"
	"clinic-console/internal/domain/calendar"
	"clinic-console/internal/ports/docstore"
)

// Client (dueño/visita) vive anidado bajo el paciente:
// /doctors/{doctorId}/patients/{patientId}/clients/{id}.
type Client struct {
	docstore.Ref

	ID                string `json:"id"`
	PatientID         string `json:"patientId"`
	Name              string `json:"name"`
	Address           string `json:"address"`
	Phone             string `json:"phone"`
	VisitDate         string `json:"visitDate"`
	ResponsiblePerson string `json:"responsiblePerson"`
}

type Input struct {
	ClientID          string `json:"clientId"`
	PatientID         string `json:"patientId"`
	Name              string `json:"name"`
	Address           string `json:"address"`
	Phone             string `json:"phone"`
	VisitDate         string `json:"visitDate"`
	ResponsiblePerson string `json:"responsiblePerson"`
}

func (in Input) Validate() error {
	var c domain.Checker
	c.Required("clientId", in.ClientID)
	c.Required("patientId", in.PatientID)
	if strings.Contains(in.ClientID+in.PatientID, "/") {
		c.Add("clientId", "ids must not contain '/'")
	}
	c.Required("name", in.Name)
	c.Required("address", in.Address)
	c.Length("phone", in.Phone, 10, 15)
	if c.Required("visitDate", in.VisitDate) {
		if _, ok := calendar.DateKey(in.VisitDate); !ok {
			c.Add("visitDate", "must be YYYY-MM-DD")
		}
	}
	c.Required("responsiblePerson", in.ResponsiblePerson)
	return c.Err()
}

func (in Input) client() Client {
	date, _ := calendar.DateKey(in.VisitDate)
	return Client{
		ID:                strings.TrimSpace(in.ClientID),
		PatientID:         strings.TrimSpace(in.PatientID),
		Name:              strings.TrimSpace(in.Name),
		Address:           strings.TrimSpace(in.Address),
		Phone:             strings.TrimSpace(in.Phone),
		VisitDate:         date,
		ResponsiblePerson: strings.TrimSpace(in.ResponsiblePerson),
	}
}

func PathFor(doctorID, patientID, clientID string) docstore.Path {
	return docstore.Doc("doctors", doctorID, "patients", patientID, "clients", clientID)
}
