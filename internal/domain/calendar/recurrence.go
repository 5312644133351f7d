package calendar

import (
	"fmt"
	"strings"
	"time"

	"clinic-console/internal/ports/docstore"
)

// Window es un rango de días inclusivo en ambos extremos.
type Window struct {
	From time.Time
	To   time.Time
}

// WindowAround arma [today - before meses, today + after meses] a medianoche.
func WindowAround(today time.Time, before, after int) Window {
	d := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	return Window{
		From: d.AddDate(0, -before, 0),
		To:   d.AddDate(0, after, 0),
	}
}

func (w Window) Key() string {
	return w.From.Format(DateLayout) + ".." + w.To.Format(DateLayout)
}

// Days recorre la ventana día por día.
func (w Window) Days(fn func(day time.Time)) {
	for d := w.From; !d.After(w.To); d = d.AddDate(0, 0, 1) {
		fn(d)
	}
}

// ExpandSchedule genera un evento por cada fecha de la ventana cuyo día de semana
// coincide con el slot. Días desconocidos no generan nada.
func ExpandSchedule(doctor string, ref docstore.Path, slots []Slot, w Window) []Event {
	type slotDay struct {
		slot Slot
		day  time.Weekday
	}
	valid := make([]slotDay, 0, len(slots))
	for _, s := range slots {
		if d, ok := ParseWeekday(s.Day); ok {
			valid = append(valid, slotDay{slot: s, day: d})
		}
	}
	if len(valid) == 0 {
		return nil
	}

	var out []Event
	w.Days(func(day time.Time) {
		for _, v := range valid {
			if day.Weekday() != v.day {
				continue
			}
			out = append(out, Event{
				Date:     day.Format(DateLayout),
				Title:    slotTitle(doctor, v.slot),
				Category: CategoryRecurringSlot,
				Ref:      ref,
				Start:    v.slot.Start,
				End:      v.slot.End,
			})
		}
	})
	return out
}

func slotTitle(doctor string, s Slot) string {
	name := strings.TrimSpace(doctor)
	if name == "" {
		name = "Doctor"
	}
	return fmt.Sprintf("%s %s-%s", name, strings.TrimSpace(s.Start), strings.TrimSpace(s.End))
}
