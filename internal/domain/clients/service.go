package clients

import (
	"context"

	"clinic-console/internal/domain"
	"clinic-console/internal/gateway"
	"clinic-console/internal/live"
	"clinic-console/internal/ports/docstore"
	"clinic-console/internal/views"
)

type Service struct {
	gw    *gateway.Gateway
	views *views.Registry
	store docstore.Store
}

func NewService(gw *gateway.Gateway, reg *views.Registry, store docstore.Store) *Service {
	return &Service{gw: gw, views: reg, store: store}
}

// Save hace merge-upsert en el path derivado del doctor y del patientId ingresado.
// No se verifica que el paciente exista.
func (s *Service) Save(ctx context.Context, uid string, in Input) (*gateway.Pending, docstore.Path, error) {
	if err := s.gw.Precondition(uid); err != nil {
		return nil, "", err
	}
	if err := in.Validate(); err != nil {
		return nil, "", err
	}

	c := in.client()
	data, err := docstore.Encode(c)
	if err != nil {
		return nil, "", err
	}

	path := PathFor(uid, c.PatientID, c.ID)
	pending, err := s.gw.Upsert(ctx, uid, path, data, "Client saved")
	if err != nil {
		return nil, "", err
	}
	return pending, path, nil
}

// Update edita el documento exacto de la fila (el path manda sobre los ids del body).
func (s *Service) Update(ctx context.Context, uid string, path docstore.Path, in Input) (*gateway.Pending, error) {
	if err := s.gw.Precondition(uid); err != nil {
		return nil, err
	}
	in.ClientID = path.ID()
	in.PatientID = path.Parent().ID()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	data, err := docstore.Encode(in.client())
	if err != nil {
		return nil, err
	}
	return s.gw.Upsert(ctx, uid, path, data, "Client updated")
}

func (s *Service) Delete(ctx context.Context, uid string, path docstore.Path) (*gateway.Pending, error) {
	if path.CollectionID() != "clients" {
		return nil, domain.NewValidationError("path", "not a client document")
	}
	return s.gw.Delete(ctx, uid, path, "Client deleted")
}

func (s *Service) Get(ctx context.Context, path docstore.Path) (Client, error) {
	doc, err := s.store.Get(ctx, path)
	if err != nil {
		return Client{}, err
	}
	var c Client
	err = docstore.Decode(doc, &c)
	return c, err
}

func (s *Service) View() *live.View {
	v, _ := s.views.Named(views.Clients)
	return v
}
