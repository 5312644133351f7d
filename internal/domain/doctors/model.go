package doctors

import (
	"net/mail"
	"strings"

	"clinic-console/internal/domain"
	"clinic-console/internal/domain/calendar"
	"clinic-console/internal/ports/docstore"
)

// Doctor vive en /doctors/{uid}; uid es el id del usuario autenticado.
type Doctor struct {
	docstore.Ref

	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Gender   string          `json:"gender"`
	Address  string          `json:"address"`
	Phone    string          `json:"phone"`
	Schedule []calendar.Slot `json:"schedule"`
}

func PathFor(uid string) docstore.Path { return docstore.Doc("doctors", uid) }

// RegisterInput crea el perfil vacío al darse de alta.
type RegisterInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (in RegisterInput) Validate() error {
	var c domain.Checker
	c.Required("name", in.Name)
	if c.Required("email", in.Email) {
		if _, err := mail.ParseAddress(strings.TrimSpace(in.Email)); err != nil {
			c.Add("email", "invalid email format")
		}
	}
	return c.Err()
}

// ProfileInput es el formulario de perfil (incluye el horario semanal).
type ProfileInput struct {
	Name     string          `json:"name"`
	Gender   string          `json:"gender"`
	Address  string          `json:"address"`
	Phone    string          `json:"phone"`
	Schedule []calendar.Slot `json:"schedule"`
}

func (in ProfileInput) Validate() error {
	var c domain.Checker
	c.Required("name", in.Name)
	if c.Required("gender", in.Gender) {
		c.OneOf("gender", in.Gender, "Male", "Female")
	}
	c.Required("address", in.Address)
	c.Length("phone", in.Phone, 10, 15)
	if len(in.Schedule) == 0 {
		c.Add("schedule", "required")
	}
	for _, s := range in.Schedule {
		if _, ok := calendar.ParseWeekday(s.Day); !ok {
			c.Add("schedule.day", "unknown day "+s.Day)
		}
		if strings.TrimSpace(s.Start) == "" || strings.TrimSpace(s.End) == "" {
			c.Add("schedule", "start and end are required")
		}
	}
	return c.Err()
}
