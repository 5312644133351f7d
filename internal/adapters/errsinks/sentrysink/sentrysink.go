// Package sentrysink reporta los errores remotos del bus a Sentry.
package sentrysink

import (
	"time"

	"clinic-console/internal/platform/errbus"

	"github.com/getsentry/sentry-go"
)

type Options struct {
	DSN         string
	Environment string
	Release     string
}

// NewHub crea un hub propio (no toca el hub global de sentry).
func NewHub(opts Options) (*sentry.Hub, error) {
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:         opts.DSN,
		Environment: opts.Environment,
		Release:     opts.Release,
	})
	if err != nil {
		return nil, err
	}
	return sentry.NewHub(client, sentry.NewScope()), nil
}

type Sink struct {
	hub *sentry.Hub
}

func New(hub *sentry.Hub) *Sink {
	return &Sink{hub: hub}
}

func (s *Sink) Attach(bus *errbus.Bus) func() {
	return bus.Subscribe(s.Handle)
}

func (s *Sink) Handle(e *errbus.RemoteError) {
	s.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("op", string(e.Op))
		scope.SetTag("permission", boolTag(e.Permission()))
		scope.SetExtra("path", e.Path)
		scope.SetLevel(sentry.LevelWarning)
		s.hub.CaptureException(e)
	})
}

// Flush espera el envío de lo pendiente (al apagar).
func (s *Sink) Flush(timeout time.Duration) bool {
	return s.hub.Flush(timeout)
}

func boolTag(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
