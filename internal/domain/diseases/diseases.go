package diseases

import (
	"context"
	"strings"

	"clinic-console/internal/domain"
	"clinic-console/internal/gateway"
	"clinic-console/internal/live"
	"clinic-console/internal/ports/docstore"
	"clinic-console/internal/views"
)

// Disease es catálogo global: /diseases/{id}.
type Disease struct {
	docstore.Ref

	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Input struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (in Input) Validate() error {
	var c domain.Checker
	if c.Required("id", in.ID) && strings.Contains(in.ID, "/") {
		c.Add("id", "must not contain '/'")
	}
	c.Required("name", in.Name)
	c.Required("description", in.Description)
	return c.Err()
}

func PathFor(id string) docstore.Path { return docstore.Doc("diseases", id) }

type Service struct {
	gw    *gateway.Gateway
	views *views.Registry
}

func NewService(gw *gateway.Gateway, reg *views.Registry) *Service {
	return &Service{gw: gw, views: reg}
}

// Save hace merge en /diseases/{id}; si path viene, edita ese documento.
func (s *Service) Save(ctx context.Context, uid string, path docstore.Path, in Input) (*gateway.Pending, docstore.Path, error) {
	if err := s.gw.Precondition(uid); err != nil {
		return nil, "", err
	}
	if path != "" {
		in.ID = path.ID()
	}
	if err := in.Validate(); err != nil {
		return nil, "", err
	}

	d := Disease{
		ID:          strings.TrimSpace(in.ID),
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
	}
	data, err := docstore.Encode(d)
	if err != nil {
		return nil, "", err
	}

	path = PathFor(d.ID)
	pending, err := s.gw.Upsert(ctx, uid, path, data, "Disease saved")
	if err != nil {
		return nil, "", err
	}
	return pending, path, nil
}

func (s *Service) Delete(ctx context.Context, uid, id string) (*gateway.Pending, error) {
	return s.gw.Delete(ctx, uid, PathFor(id), "Disease deleted")
}

func (s *Service) View() *live.View {
	v, _ := s.views.Named(views.Diseases)
	return v
}
