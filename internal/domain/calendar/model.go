package calendar

import (
	"strings"
	"time"

	"clinic-console/internal/ports/docstore"
)

type Category string

const (
	CategoryVisit         Category = "visit"
	CategoryExamination   Category = "examination"
	CategoryRecurringSlot Category = "doctor-recurring-slot"
)

// DateLayout es la key del mapa de la proyección.
const DateLayout = "2006-01-02"

// NoScheduleMessage acompaña a un día sin eventos (no es un error).
const NoScheduleMessage = "no schedule"

// Event es derivado: nunca se escribe en el store.
type Event struct {
	Date     string        `json:"date"`
	Title    string        `json:"title"`
	Category Category      `json:"category"`
	Ref      docstore.Path `json:"ref,omitempty"`
	Start    string        `json:"start,omitempty"`
	End      string        `json:"end,omitempty"`
}

// Slot es un horario semanal del doctor ({day: "Monday", start: "09:00", end: "17:00"}).
type Slot struct {
	Day   string `json:"day"`
	Start string `json:"start"`
	End   string `json:"end"`
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday compara sin distinguir mayúsculas contra la tabla en inglés Sunday..Saturday.
// Un nombre en otro idioma ("Senin", "Lunes") no matchea: el horario no genera eventos
// y tampoco se informa error.
func ParseWeekday(name string) (time.Weekday, bool) {
	d, ok := weekdays[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}

// DateKey normaliza una fecha guardada ("2006-01-02" o RFC3339) a su key de día.
// Con RFC3339 se respeta la fecha tal como fue escrita (sin convertir zona).
func DateKey(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Format(DateLayout), true
	}
	if len(s) >= len(DateLayout) {
		if t, err := time.Parse(DateLayout, s[:len(DateLayout)]); err == nil {
			return t.Format(DateLayout), true
		}
	}
	return "", false
}
