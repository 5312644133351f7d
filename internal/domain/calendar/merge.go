package calendar

import (
	"fmt"

	"clinic-console/internal/ports/docstore"
)

// Transform deriva los eventos de un documento; ningún evento si le falta la fecha.
type Transform func(doc docstore.Document, w Window) []Event

// Merge indexa por fecha conservando el orden de concatenación:
// grupos en el orden recibido, y dentro de cada grupo el orden original.
func Merge(groups ...[]Event) map[string][]Event {
	out := make(map[string][]Event)
	for _, g := range groups {
		for _, e := range g {
			out[e.Date] = append(out[e.Date], e)
		}
	}
	return out
}

// VisitEvents: un Client con visitDate es una visita.
func VisitEvents(doc docstore.Document, _ Window) []Event {
	date, ok := DateKey(doc.Data["visitDate"])
	if !ok {
		return nil
	}
	name, _ := doc.Data["name"].(string)
	return []Event{{
		Date:     date,
		Title:    "Visit: " + name,
		Category: CategoryVisit,
		Ref:      doc.Path,
	}}
}

// ExaminationEvents: una Examination con fecha es un examen.
func ExaminationEvents(doc docstore.Document, _ Window) []Event {
	date, ok := DateKey(doc.Data["date"])
	if !ok {
		return nil
	}
	patient, _ := doc.Data["patientId"].(string)
	if patient == "" {
		patient = doc.Path.Parent().ID()
	}
	return []Event{{
		Date:     date,
		Title:    fmt.Sprintf("Examination: patient %s", patient),
		Category: CategoryExamination,
		Ref:      doc.Path,
	}}
}

type doctorSchedule struct {
	Name     string `json:"name"`
	Schedule []Slot `json:"schedule"`
}

// SlotEvents expande el horario semanal de un doctor sobre la ventana.
// Un schedule mal formado se ignora igual que un día desconocido.
func SlotEvents(doc docstore.Document, w Window) []Event {
	var d doctorSchedule
	if err := docstore.Decode(doc, &d); err != nil {
		return nil
	}
	return ExpandSchedule(d.Name, doc.Path, d.Schedule, w)
}
