package medications

import (
	"context"
	"strings"

	"clinic-console/internal/domain"
	"clinic-console/internal/gateway"
	"clinic-console/internal/live"
	"clinic-console/internal/ports/docstore"
	"clinic-console/internal/views"
)

type Type string

const (
	TypeTablet    Type = "Tablet"
	TypeCapsule   Type = "Capsule"
	TypeSyrup     Type = "Syrup"
	TypeOintment  Type = "Ointment"
	TypeInjection Type = "Injection"
	TypeOther     Type = "Other"
)

var types = []string{
	string(TypeTablet), string(TypeCapsule), string(TypeSyrup),
	string(TypeOintment), string(TypeInjection), string(TypeOther),
}

// Medication es catálogo global: /medications/{id}.
type Medication struct {
	docstore.Ref

	ID    string  `json:"id"`
	Type  Type    `json:"type"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type Input struct {
	ID    string  `json:"id"`
	Type  string  `json:"type"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

func (in Input) Validate() error {
	var c domain.Checker
	if c.Required("id", in.ID) && strings.Contains(in.ID, "/") {
		c.Add("id", "must not contain '/'")
	}
	if c.Required("type", in.Type) {
		c.OneOf("type", in.Type, types...)
	}
	c.Required("name", in.Name)
	c.NonNegative("price", in.Price)
	return c.Err()
}

func PathFor(id string) docstore.Path { return docstore.Doc("medications", id) }

type Service struct {
	gw    *gateway.Gateway
	views *views.Registry
}

func NewService(gw *gateway.Gateway, reg *views.Registry) *Service {
	return &Service{gw: gw, views: reg}
}

func (s *Service) Save(ctx context.Context, uid string, in Input) (*gateway.Pending, docstore.Path, error) {
	if err := s.gw.Precondition(uid); err != nil {
		return nil, "", err
	}
	if err := in.Validate(); err != nil {
		return nil, "", err
	}

	m := Medication{ID: strings.TrimSpace(in.ID), Type: Type(in.Type), Name: strings.TrimSpace(in.Name), Price: in.Price}
	data, err := docstore.Encode(m)
	if err != nil {
		return nil, "", err
	}

	path := PathFor(m.ID)
	pending, err := s.gw.Upsert(ctx, uid, path, data, "Medication saved")
	if err != nil {
		return nil, "", err
	}
	return pending, path, nil
}

func (s *Service) Delete(ctx context.Context, uid, id string) (*gateway.Pending, error) {
	return s.gw.Delete(ctx, uid, PathFor(id), "Medication deleted")
}

func (s *Service) View() *live.View {
	v, _ := s.views.Named(views.Medications)
	return v
}
