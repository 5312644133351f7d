// Package natssink reenvía los errores remotos del bus a un subject NATS.
package natssink

import (
	"encoding/json"
	"time"

	"clinic-console/internal/platform/errbus"
	"clinic-console/internal/platform/logger"

	"github.com/nats-io/nats.go"
)

// Event es el payload publicado.
type Event struct {
	Op         string    `json:"op"`
	Path       string    `json:"path"`
	Error      string    `json:"error"`
	Permission bool      `json:"permission"`
	At         time.Time `json:"at"`
}

type publisher interface {
	Publish(subject string, data []byte) error
}

type Sink struct {
	pub     publisher
	subject string
	log     logger.Logger
}

// Connect abre la conexión NATS; reconecta sola.
func Connect(url, name string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}

func New(pub publisher, subject string, log logger.Logger) *Sink {
	if log == nil {
		log = logger.Nop()
	}
	return &Sink{pub: pub, subject: subject, log: log.With(map[string]any{"component": "natssink"})}
}

// Attach suscribe el sink al bus; el func devuelto lo desuscribe.
func (s *Sink) Attach(bus *errbus.Bus) func() {
	return bus.Subscribe(s.Handle)
}

func (s *Sink) Handle(e *errbus.RemoteError) {
	data, err := json.Marshal(Event{
		Op:         string(e.Op),
		Path:       e.Path,
		Error:      e.Err.Error(),
		Permission: e.Permission(),
		At:         e.At,
	})
	if err != nil {
		return
	}
	if err := s.pub.Publish(s.subject, data); err != nil {
		s.log.Warn("publish remote error", map[string]any{"subject": s.subject, "err": err.Error()})
	}
}
