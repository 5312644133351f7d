package statuses

import (
	"context"
	"strings"

	"clinic-console/internal/domain"
	"clinic-console/internal/gateway"
	"clinic-console/internal/live"
	"clinic-console/internal/ports/docstore"
	"clinic-console/internal/views"

	"github.com/google/uuid"
)

// PresentStatus es la foto de signos vitales de un paciente:
// /doctors/{doctorId}/patients/{patientId}/presentStatuses/{id}.
type PresentStatus struct {
	docstore.Ref

	ID              string  `json:"id"`
	PatientID       string  `json:"patientId"`
	Temperature     float64 `json:"temperature"`
	HeartRate       int     `json:"heartRate"`
	RespiratoryRate int     `json:"respiratoryRate"`
	Hydration       string  `json:"hydration"`
	Posture         string  `json:"posture"`
	Behavior        string  `json:"behavior"`
	Actions         string  `json:"actions"`
}

type Input struct {
	// ID es opcional: vacío = alta con id generado.
	ID              string  `json:"id,omitempty"`
	PatientID       string  `json:"patientId"`
	Temperature     float64 `json:"temperature"`
	HeartRate       float64 `json:"heartRate"`
	RespiratoryRate float64 `json:"respiratoryRate"`
	Hydration       string  `json:"hydration"`
	Posture         string  `json:"posture"`
	Behavior        string  `json:"behavior"`
	Actions         string  `json:"actions"`
}

func (in Input) Validate() error {
	var c domain.Checker
	if c.Required("patientId", in.PatientID) && strings.Contains(in.PatientID, "/") {
		c.Add("patientId", "must not contain '/'")
	}
	c.Positive("temperature", in.Temperature)
	c.PositiveInt("heartRate", in.HeartRate)
	c.PositiveInt("respiratoryRate", in.RespiratoryRate)
	c.Required("hydration", in.Hydration)
	c.Required("posture", in.Posture)
	c.Required("behavior", in.Behavior)
	c.Required("actions", in.Actions)
	return c.Err()
}

const collection = "presentStatuses"

func PathFor(doctorID, patientID, statusID string) docstore.Path {
	return docstore.Doc("doctors", doctorID, "patients", patientID, collection, statusID)
}

type Service struct {
	gw    *gateway.Gateway
	views *views.Registry
	store docstore.Store
	newID func() string
}

func NewService(gw *gateway.Gateway, reg *views.Registry, store docstore.Store) *Service {
	return &Service{gw: gw, views: reg, store: store, newID: uuid.NewString}
}

// Save da de alta (id generado) o edita (id del path) con merge.
func (s *Service) Save(ctx context.Context, uid string, path docstore.Path, in Input) (*gateway.Pending, docstore.Path, error) {
	if err := s.gw.Precondition(uid); err != nil {
		return nil, "", err
	}
	if path != "" {
		in.ID = path.ID()
		in.PatientID = path.Parent().ID()
	}
	if err := in.Validate(); err != nil {
		return nil, "", err
	}

	title := "Present status updated"
	if path == "" {
		if strings.TrimSpace(in.ID) == "" {
			in.ID = s.newID()
		}
		path = PathFor(uid, strings.TrimSpace(in.PatientID), in.ID)
		title = "Present status saved"
	}

	data, err := docstore.Encode(PresentStatus{
		ID:              in.ID,
		PatientID:       strings.TrimSpace(in.PatientID),
		Temperature:     in.Temperature,
		HeartRate:       int(in.HeartRate),
		RespiratoryRate: int(in.RespiratoryRate),
		Hydration:       strings.TrimSpace(in.Hydration),
		Posture:         strings.TrimSpace(in.Posture),
		Behavior:        strings.TrimSpace(in.Behavior),
		Actions:         strings.TrimSpace(in.Actions),
	})
	if err != nil {
		return nil, "", err
	}

	pending, err := s.gw.Upsert(ctx, uid, path, data, title)
	if err != nil {
		return nil, "", err
	}
	return pending, path, nil
}

func (s *Service) Delete(ctx context.Context, uid string, path docstore.Path) (*gateway.Pending, error) {
	return s.gw.Delete(ctx, uid, path, "Present status deleted")
}

func (s *Service) Get(ctx context.Context, path docstore.Path) (PresentStatus, error) {
	doc, err := s.store.Get(ctx, path)
	if err != nil {
		return PresentStatus{}, err
	}
	var ps PresentStatus
	err = docstore.Decode(doc, &ps)
	return ps, err
}

func (s *Service) View() *live.View {
	v, _ := s.views.Named(views.Statuses)
	return v
}
