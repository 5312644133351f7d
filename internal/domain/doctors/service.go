package doctors

import (
	"context"
	"strings"

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

// Register hace merge de /doctors/{uid} con el perfil vacío. Registrarse dos veces
// no pisa un perfil ya cargado salvo name/email.
func (s *Service) Register(ctx context.Context, uid string, in RegisterInput) (*gateway.Pending, error) {
	if err := s.gw.Precondition(uid); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	data := map[string]any{
		"id":    uid,
		"name":  strings.TrimSpace(in.Name),
		"email": strings.TrimSpace(in.Email),
	}

	// el perfil vacío solo se completa si todavía no existe
	if _, err := s.store.Get(ctx, PathFor(uid)); err != nil {
		data["gender"] = ""
		data["address"] = ""
		data["phone"] = ""
		data["schedule"] = []any{}
	}

	return s.gw.Upsert(ctx, uid, PathFor(uid), data, "Registration complete")
}

func (s *Service) UpdateProfile(ctx context.Context, uid string, in ProfileInput) (*gateway.Pending, error) {
	if err := s.gw.Precondition(uid); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	slots := make([]any, 0, len(in.Schedule))
	for _, sl := range in.Schedule {
		slots = append(slots, map[string]any{
			"day":   strings.TrimSpace(sl.Day),
			"start": strings.TrimSpace(sl.Start),
			"end":   strings.TrimSpace(sl.End),
		})
	}

	return s.gw.Upsert(ctx, uid, PathFor(uid), map[string]any{
		"id":       uid,
		"name":     strings.TrimSpace(in.Name),
		"gender":   in.Gender,
		"address":  strings.TrimSpace(in.Address),
		"phone":    strings.TrimSpace(in.Phone),
		"schedule": slots,
	}, "Doctor profile saved")
}

func (s *Service) Delete(ctx context.Context, uid, doctorID string) (*gateway.Pending, error) {
	return s.gw.Delete(ctx, uid, PathFor(doctorID), "Doctor deleted")
}

func (s *Service) Get(ctx context.Context, doctorID string) (Doctor, error) {
	doc, err := s.store.Get(ctx, PathFor(doctorID))
	if err != nil {
		return Doctor{}, err
	}
	var d Doctor
	if err := docstore.Decode(doc, &d); err != nil {
		return Doctor{}, err
	}
	return d, nil
}

func (s *Service) View() *live.View {
	v, _ := s.views.Named(views.Doctors)
	return v
}
