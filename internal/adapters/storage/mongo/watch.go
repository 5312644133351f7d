package mongo

import (
	"context"
	"fmt"

	"clinic-console/internal/ports/docstore"

	"go.mongodb.org/mongo-driver/mongo"
)

type changeEvent struct {
	DocumentKey struct {
		ID string `bson:"_id"`
	} `bson:"documentKey"`
}

// Watch abre una consulta viva; el primer Watch arranca el change stream compartido.
func (s *Store) Watch(ctx context.Context, q docstore.Query, l docstore.Listener) (func(), error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureStreaming(ctx); err != nil {
		return nil, err
	}
	return s.hub.Watch(ctx, q, l)
}

func (s *Store) ensureStreaming(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streaming {
		return nil
	}

	stream, err := s.coll.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		return mapError(err, collectionName)
	}

	streamCtx, stop := context.WithCancel(context.Background())
	s.streaming = true
	s.stop = stop
	go s.follow(streamCtx, stream)
	return nil
}

func (s *Store) follow(ctx context.Context, stream *mongo.ChangeStream) {
	defer func() { _ = stream.Close(context.Background()) }()

	for stream.Next(ctx) {
		var ev changeEvent
		if err := stream.Decode(&ev); err != nil {
			s.log.Warn("undecodable change event", map[string]any{"err": err.Error()})
			continue
		}
		s.hub.Notify(docstore.Path(ev.DocumentKey.ID))
	}

	s.mu.Lock()
	s.streaming = false
	s.mu.Unlock()

	if ctx.Err() != nil {
		return
	}
	err := stream.Err()
	if err == nil {
		err = fmt.Errorf("change stream closed")
	}
	s.log.Warn("change stream lost", map[string]any{"err": err.Error()})
	s.hub.Fail(mapError(err, collectionName))
}

// Close corta el change stream. El cliente lo desconecta quien lo abrió.
func (s *Store) Close() {
	s.mu.Lock()
	stop := s.stop
	s.stop = nil
	s.mu.Unlock()
	if stop != nil {
		stop()
	}
}
