package examinations

import (
	"context"
	"errors"
	"fmt"

	"clinic-console/internal/domain"
	"clinic-console/internal/domain/diseases"
	"clinic-console/internal/domain/doctors"
	"clinic-console/internal/domain/patients"
	"clinic-console/internal/domain/statuses"
	"clinic-console/internal/gateway"
	"clinic-console/internal/live"
	"clinic-console/internal/ports/docstore"
	"clinic-console/internal/views"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type Service struct {
	gw    *gateway.Gateway
	views *views.Registry
	store docstore.Store
	newID func() string
}

func NewService(gw *gateway.Gateway, reg *views.Registry, store docstore.Store) *Service {
	return &Service{gw: gw, views: reg, store: store, newID: uuid.NewString}
}

// Save da de alta con id generado bajo el paciente ingresado.
// El doctor es siempre el usuario actual; no se valida que el paciente exista.
func (s *Service) Save(ctx context.Context, uid string, in Input) (*gateway.Pending, docstore.Path, error) {
	if err := s.gw.Precondition(uid); err != nil {
		return nil, "", err
	}
	if err := in.Validate(); err != nil {
		return nil, "", err
	}
	if in.ID == "" {
		in.ID = s.newID()
	}

	e := in.examination(uid)
	data, err := docstore.Encode(e)
	if err != nil {
		return nil, "", err
	}

	path := PathFor(uid, e.PatientID, e.ID)
	pending, err := s.gw.Upsert(ctx, uid, path, data, "Examination saved")
	if err != nil {
		return nil, "", err
	}
	return pending, path, nil
}

// Update edita la fila exacta: ids y doctor salen del path.
func (s *Service) Update(ctx context.Context, uid string, path docstore.Path, in Input) (*gateway.Pending, error) {
	if err := s.gw.Precondition(uid); err != nil {
		return nil, err
	}
	if path.CollectionID() != collection {
		return nil, domain.NewValidationError("path", "not an examination document")
	}
	in.ID = path.ID()
	in.PatientID = path.Parent().ID()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	doctorID := path.Parent().Parent().ID()
	data, err := docstore.Encode(in.examination(doctorID))
	if err != nil {
		return nil, err
	}
	return s.gw.Upsert(ctx, uid, path, data, "Examination updated")
}

func (s *Service) Delete(ctx context.Context, uid string, path docstore.Path) (*gateway.Pending, error) {
	if path.CollectionID() != collection {
		return nil, domain.NewValidationError("path", "not an examination document")
	}
	return s.gw.Delete(ctx, uid, path, "Examination deleted")
}

func (s *Service) Get(ctx context.Context, path docstore.Path) (Examination, error) {
	doc, err := s.store.Get(ctx, path)
	if err != nil {
		return Examination{}, err
	}
	var e Examination
	err = docstore.Decode(doc, &e)
	return e, err
}

func (s *Service) View() *live.View {
	v, _ := s.views.Named(views.Examinations)
	return v
}

// Details es la ficha de un examen con sus referencias resueltas.
// Una referencia rota queda en nil (o fuera de Diseases) en lugar de fallar.
type Details struct {
	Examination   Examination             `json:"examination"`
	Doctor        *doctors.Doctor         `json:"doctor"`
	Patient       *patients.Patient       `json:"patient"`
	PresentStatus *statuses.PresentStatus `json:"presentStatus"`
	Diseases      []diseases.Disease      `json:"diseases"`
}

// Details carga examen, doctor, paciente, status y enfermedades en paralelo.
// loader se comparte entre exámenes del mismo request para agrupar las búsquedas.
func (s *Service) Details(ctx context.Context, path docstore.Path, loader *diseases.Loader) (Details, error) {
	e, err := s.Get(ctx, path)
	if err != nil {
		return Details{}, err
	}
	if loader == nil {
		loader = diseases.NewLoader(s.store)
	}

	out := Details{Examination: e}
	patientPath := path.Parent()
	doctorPath := patientPath.Parent()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var d doctors.Doctor
		ok, err := s.lookup(gctx, doctorPath, &d)
		if ok {
			out.Doctor = &d
		}
		return err
	})
	g.Go(func() error {
		var p patients.Patient
		ok, err := s.lookup(gctx, patientPath, &p)
		if ok {
			out.Patient = &p
		}
		return err
	})
	if e.PresentStatusID != "" {
		g.Go(func() error {
			var ps statuses.PresentStatus
			ok, err := s.lookup(gctx, patientPath.Child("presentStatuses", e.PresentStatusID), &ps)
			if ok {
				out.PresentStatus = &ps
			}
			return err
		})
	}
	g.Go(func() error {
		ds, err := diseases.Resolve(gctx, loader, e.DiseaseIDs)
		if err != nil {
			return fmt.Errorf("diseases: %w", err)
		}
		out.Diseases = ds
		return nil
	})

	if err := g.Wait(); err != nil {
		return Details{}, err
	}
	return out, nil
}

func (s *Service) lookup(ctx context.Context, path docstore.Path, out any) (bool, error) {
	doc, err := s.store.Get(ctx, path)
	if errors.Is(err, docstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}
	return true, docstore.Decode(doc, out)
}
