package reports

import (
	"context"
	"fmt"

	"clinic-console/internal/domain/clients"
	"clinic-console/internal/domain/diseases"
	"clinic-console/internal/domain/examinations"
	"clinic-console/internal/domain/patients"
	"clinic-console/internal/ports/docstore"

	"golang.org/x/sync/errgroup"
)

const (
	NoClientsMessage      = "No clients recorded for this patient."
	NoExaminationsMessage = "No examinations recorded for this patient."
)

// Section es una tabla del reporte; EmptyMessage solo aparece sin filas.
type Section[T any] struct {
	Items        []T    `json:"items"`
	EmptyMessage string `json:"empty_message,omitempty"`
}

// ExamLine es un examen con los nombres de sus enfermedades.
type ExamLine struct {
	examinations.Examination
	Diseases []diseases.Disease `json:"diseases"`
}

type Report struct {
	Patient      patients.Patient        `json:"patient"`
	Clients      Section[clients.Client] `json:"clients"`
	Examinations Section[ExamLine]       `json:"examinations"`
}

type Service struct {
	store docstore.Store
}

func NewService(store docstore.Store) *Service {
	return &Service{store: store}
}

// Build arma el reporte de un paciente: clientes por visitDate desc y
// exámenes por date desc, cargados en paralelo. examID != "" deja solo ese examen.
func (s *Service) Build(ctx context.Context, patientPath docstore.Path, examID string) (Report, error) {
	if err := patientPath.Validate(); err != nil {
		return Report{}, err
	}

	var (
		rep   Report
		exams []examinations.Examination
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		doc, err := s.store.Get(gctx, patientPath)
		if err != nil {
			return err
		}
		return docstore.Decode(doc, &rep.Patient)
	})
	g.Go(func() error {
		q := docstore.CollectionQuery(patientPath.String() + "/clients").Order("visitDate", true)
		docs, err := s.store.Query(gctx, *q)
		if err != nil {
			return fmt.Errorf("clients: %w", err)
		}
		rep.Clients.Items, _ = docstore.DecodeAll[clients.Client](docs)
		return nil
	})
	g.Go(func() error {
		q := docstore.CollectionQuery(patientPath.String() + "/examinations").Order("date", true)
		if examID != "" {
			q.WhereIDIn(examID)
		}
		docs, err := s.store.Query(gctx, *q)
		if err != nil {
			return fmt.Errorf("examinations: %w", err)
		}
		exams, _ = docstore.DecodeAll[examinations.Examination](docs)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	lines, err := s.withDiseases(ctx, exams)
	if err != nil {
		return Report{}, err
	}
	rep.Examinations.Items = lines

	if len(rep.Clients.Items) == 0 {
		rep.Clients.Items = []clients.Client{}
		rep.Clients.EmptyMessage = NoClientsMessage
	}
	if len(rep.Examinations.Items) == 0 {
		rep.Examinations.EmptyMessage = NoExaminationsMessage
	}
	return rep, nil
}

// withDiseases resuelve las enfermedades de todos los exámenes con un solo loader.
func (s *Service) withDiseases(ctx context.Context, exams []examinations.Examination) ([]ExamLine, error) {
	loader := diseases.NewLoader(s.store)
	lines := make([]ExamLine, len(exams))

	g, gctx := errgroup.WithContext(ctx)
	for i, e := range exams {
		lines[i].Examination = e
		g.Go(func() error {
			ds, err := diseases.Resolve(gctx, loader, e.DiseaseIDs)
			if err != nil {
				return err
			}
			lines[i].Diseases = ds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("diseases: %w", err)
	}
	return lines, nil
}
