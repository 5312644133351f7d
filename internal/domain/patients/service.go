package patients

import (
	"context"
	"strings"

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

// Create registra un paciente del doctor uid.
// El chequeo de duplicados usa la lista viva ya cargada (puede estar desactualizada);
// la escritura es insert-if-absent, así que una carrera termina en ErrAlreadyExists
// publicado en el bus para el segundo.
func (s *Service) Create(ctx context.Context, uid string, in Input) (*gateway.Pending, docstore.Path, error) {
	if err := s.gw.Precondition(uid); err != nil {
		return nil, "", err
	}
	if err := in.Validate(); err != nil {
		return nil, "", err
	}

	p := in.patient()
	if s.knownID(uid, p.ID) {
		return nil, "", domain.NewValidationError("id", "patient id already registered")
	}

	data, err := docstore.Encode(p)
	if err != nil {
		return nil, "", err
	}

	path := PathFor(uid, p.ID)
	pending, err := s.gw.Create(ctx, uid, path, data, "Patient saved")
	if err != nil {
		return nil, "", err
	}
	return pending, path, nil
}

// knownID compara exacto: los paths distinguen mayúsculas.
func (s *Service) knownID(uid, id string) bool {
	st := s.views.DoctorPatients(uid).State()
	for _, d := range st.Data {
		if d.ID() == id {
			return true
		}
	}
	return false
}

// Update hace merge sobre el documento exacto de la fila editada.
func (s *Service) Update(ctx context.Context, uid string, path docstore.Path, in Input) (*gateway.Pending, error) {
	if err := s.gw.Precondition(uid); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if path.ID() != strings.TrimSpace(in.ID) {
		return nil, domain.NewValidationError("id", "must match the edited patient")
	}

	data, err := docstore.Encode(in.patient())
	if err != nil {
		return nil, err
	}
	return s.gw.Upsert(ctx, uid, path, data, "Patient updated")
}

// Delete no borra clients/examinations/statuses anidados.
func (s *Service) Delete(ctx context.Context, uid string, path docstore.Path) (*gateway.Pending, error) {
	return s.gw.Delete(ctx, uid, path, "Patient deleted")
}

func (s *Service) Get(ctx context.Context, path docstore.Path) (Patient, error) {
	doc, err := s.store.Get(ctx, path)
	if err != nil {
		return Patient{}, err
	}
	var p Patient
	if err := docstore.Decode(doc, &p); err != nil {
		return Patient{}, err
	}
	return p, nil
}

// View devuelve la lista de todos los pacientes, o solo los del doctor con mine=true.
func (s *Service) View(uid string, mine bool) *live.View {
	if mine {
		return s.views.DoctorPatients(uid)
	}
	v, _ := s.views.Named(views.Patients)
	return v
}
