package patients

import (
	"strings"

	"clinic-console/internal/domain"
	"clinic-console/internal/ports/docstore"
)

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

// Patient vive en /doctors/{doctorId}/patients/{id}.
type Patient struct {
	docstore.Ref

	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Species string  `json:"species"`
	Breed   string  `json:"breed"`
	Age     int     `json:"age"`
	Weight  float64 `json:"weight"`
	Gender  Gender  `json:"gender"`
}

// Input es el formulario de alta/edición. Los números llegan como float para
// poder rechazar decimales con un mensaje por campo.
type Input struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Species string  `json:"species"`
	Breed   string  `json:"breed"`
	Age     float64 `json:"age"`
	Weight  float64 `json:"weight"`
	Gender  string  `json:"gender"`
}

func (in Input) Validate() error {
	var c domain.Checker
	c.Required("id", in.ID)
	if strings.Contains(in.ID, "/") {
		c.Add("id", "must not contain '/'")
	}
	c.Required("name", in.Name)
	c.Required("species", in.Species)
	c.Required("breed", in.Breed)
	c.PositiveInt("age", in.Age)
	c.Positive("weight", in.Weight)
	if c.Required("gender", in.Gender) {
		c.OneOf("gender", in.Gender, string(GenderMale), string(GenderFemale))
	}
	return c.Err()
}

func (in Input) patient() Patient {
	return Patient{
		ID:      strings.TrimSpace(in.ID),
		Name:    strings.TrimSpace(in.Name),
		Species: strings.TrimSpace(in.Species),
		Breed:   strings.TrimSpace(in.Breed),
		Age:     int(in.Age),
		Weight:  in.Weight,
		Gender:  Gender(in.Gender),
	}
}

// PathFor arma el path canónico del paciente de un doctor.
func PathFor(doctorID, patientID string) docstore.Path {
	return docstore.Doc("doctors", doctorID, "patients", patientID)
}
