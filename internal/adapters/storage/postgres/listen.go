package postgres

import (
	"context"
	"fmt"

	"clinic-console/internal/ports/docstore"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Watch abre una consulta viva. La primera llamada toma una conexión dedicada
// al LISTEN; si esa conexión cae, todos los listeners reciben el error.
func (s *Store) Watch(ctx context.Context, q docstore.Query, l docstore.Listener) (func(), error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureListening(ctx); err != nil {
		return nil, err
	}
	return s.hub.Watch(ctx, q, l)
}

func (s *Store) ensureListening(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listening {
		return nil
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return mapError(err, channel)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+channel); err != nil {
		conn.Release()
		return mapError(err, channel)
	}

	listenCtx, stop := context.WithCancel(context.Background())
	s.listening = true
	s.stop = stop
	go s.listen(listenCtx, conn)
	return nil
}

func (s *Store) listen(ctx context.Context, conn *pgxpool.Conn) {
	// la conexión queda con LISTEN activo: no vuelve al pool
	defer func() { _ = conn.Hijack().Close(context.Background()) }()

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			s.mu.Lock()
			s.listening = false
			s.mu.Unlock()

			if ctx.Err() != nil {
				return
			}
			s.log.Warn("listen connection lost", map[string]any{"err": err.Error()})
			s.hub.Fail(fmt.Errorf("listen %s: %w", channel, err))
			return
		}
		s.hub.Notify(docstore.Path(n.Payload))
	}
}

// Close corta el LISTEN. El pool lo cierra quien lo abrió.
func (s *Store) Close() {
	s.mu.Lock()
	stop := s.stop
	s.stop = nil
	s.mu.Unlock()
	if stop != nil {
		stop()
	}
}
