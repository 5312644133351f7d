package mongo

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"clinic-console/internal/adapters/storage/livequery"
	"clinic-console/internal/platform/logger"
	"clinic-console/internal/ports/docstore"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// record es la forma guardada: _id = path completo.
type record struct {
	ID             string         `bson:"_id"`
	CollectionPath string         `bson:"collection_path"`
	CollectionID   string         `bson:"collection_id"`
	DocID          string         `bson:"doc_id"`
	Data           map[string]any `bson:"data"`
}

func (r record) document() docstore.Document {
	return docstore.Document{Path: docstore.Path(r.ID), Data: docstore.NormalizeData(r.Data)}
}

// Store guarda documentos en una sola colección; las consultas vivas siguen
// un change stream compartido.
type Store struct {
	coll *mongo.Collection
	hub  *livequery.Hub
	log  logger.Logger

	mu        sync.Mutex
	streaming bool
	stop      context.CancelFunc
}

func NewStore(db *mongo.Database, log logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	s := &Store{coll: db.Collection(collectionName), log: log.With(map[string]any{"component": "mongo_store"})}
	s.hub = livequery.NewHub(s.Query)
	return s
}

func meta(path docstore.Path) bson.M {
	return bson.M{
		"collection_path": path.CollectionPath(),
		"collection_id":   path.CollectionID(),
		"doc_id":          path.ID(),
	}
}

func (s *Store) Create(ctx context.Context, path docstore.Path, data map[string]any) error {
	if err := path.Validate(); err != nil {
		return err
	}
	_, err := s.coll.InsertOne(ctx, record{
		ID:             string(path),
		CollectionPath: path.CollectionPath(),
		CollectionID:   path.CollectionID(),
		DocID:          path.ID(),
		Data:           docstore.NormalizeData(data),
	})
	return mapError(err, path)
}

func (s *Store) Set(ctx context.Context, path docstore.Path, data map[string]any, opts docstore.SetOptions) error {
	if err := path.Validate(); err != nil {
		return err
	}

	if !opts.Merge {
		_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": string(path)}, record{
			ID:             string(path),
			CollectionPath: path.CollectionPath(),
			CollectionID:   path.CollectionID(),
			DocID:          path.ID(),
			Data:           docstore.NormalizeData(data),
		}, options.Replace().SetUpsert(true))
		return mapError(err, path)
	}

	// merge: $set por campo, el resto del documento queda igual
	set := meta(path)
	for k, v := range docstore.NormalizeData(data) {
		set["data."+k] = v
	}
	update := bson.M{"$set": set}
	if len(data) == 0 {
		update["$setOnInsert"] = bson.M{"data": bson.M{}}
	}
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": string(path)}, update, options.Update().SetUpsert(true))
	return mapError(err, path)
}

func (s *Store) Get(ctx context.Context, path docstore.Path) (docstore.Document, error) {
	if err := path.Validate(); err != nil {
		return docstore.Document{}, err
	}
	var r record
	if err := s.coll.FindOne(ctx, bson.M{"_id": string(path)}).Decode(&r); err != nil {
		return docstore.Document{}, mapError(err, path)
	}
	return r.document(), nil
}

func (s *Store) Delete(ctx context.Context, path docstore.Path) error {
	if err := path.Validate(); err != nil {
		return err
	}
	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": string(path)})
	return mapError(err, path)
}

// Query filtra en el servidor; orden y límite con docstore.Query.Apply.
func (s *Store) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	filter := bson.M{}
	if q.Group != "" {
		filter["collection_id"] = q.Group
	} else {
		filter["collection_path"] = q.Collection
	}
	if len(q.IDs) > 0 {
		filter["doc_id"] = bson.M{"$in": q.IDs}
	}
	for _, f := range q.Filters {
		filter["data."+f.Field] = f.Value
	}

	cur, err := s.coll.Find(ctx, filter)
	if err != nil {
		return nil, mapError(err, docstore.Path(q.Key()))
	}
	var records []record
	if err := cur.All(ctx, &records); err != nil {
		return nil, mapError(err, docstore.Path(q.Key()))
	}

	docs := make([]docstore.Document, 0, len(records))
	for _, r := range records {
		docs = append(docs, r.document())
	}
	return q.Apply(docs), nil
}

// mapError traduce errores del driver a los sentinels del docstore.
func mapError(err error, path docstore.Path) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", path, err)
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s: %w", path, docstore.ErrNotFound)
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", path, docstore.ErrAlreadyExists)
	}

	var se mongo.ServerError
	if errors.As(err, &se) && (se.HasErrorCode(13) || se.HasErrorCode(8000)) { // Unauthorized / AtlasError
		return fmt.Errorf("%s: %w", path, docstore.ErrPermissionDenied)
	}
	return fmt.Errorf("%s: %w", path, err)
}
