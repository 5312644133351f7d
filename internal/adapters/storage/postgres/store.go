package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"clinic-console/internal/adapters/storage/livequery"
	"clinic-console/internal/platform/logger"
	"clinic-console/internal/ports/docstore"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	table   = "documents"
	channel = "docstore_changes"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Store guarda cada documento como una fila jsonb indexada por path.
// Las consultas vivas se disparan con LISTEN/NOTIFY (trigger en la tabla).
type Store struct {
	pool *pgxpool.Pool
	hub  *livequery.Hub
	log  logger.Logger

	mu        sync.Mutex
	listening bool
	stop      context.CancelFunc
}

func NewStore(pool *pgxpool.Pool, log logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	s := &Store{pool: pool, log: log.With(map[string]any{"component": "postgres_store"})}
	s.hub = livequery.NewHub(s.Query)
	return s
}

func encodeData(data map[string]any) ([]byte, error) {
	if data == nil {
		data = map[string]any{}
	}
	return json.Marshal(docstore.NormalizeData(data))
}

func (s *Store) Create(ctx context.Context, path docstore.Path, data map[string]any) error {
	if err := path.Validate(); err != nil {
		return err
	}
	raw, err := encodeData(data)
	if err != nil {
		return err
	}

	query, args, err := psql.Insert(table).
		Columns("path", "collection_path", "collection_id", "doc_id", "data").
		Values(string(path), path.CollectionPath(), path.CollectionID(), path.ID(), string(raw)).
		Suffix("ON CONFLICT (path) DO NOTHING").
		ToSql()
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return mapError(err, path)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", path, docstore.ErrAlreadyExists)
	}
	return nil
}

func (s *Store) Set(ctx context.Context, path docstore.Path, data map[string]any, opts docstore.SetOptions) error {
	if err := path.Validate(); err != nil {
		return err
	}
	raw, err := encodeData(data)
	if err != nil {
		return err
	}

	// merge: || pisa solo las claves de primer nivel enviadas
	onConflict := "ON CONFLICT (path) DO UPDATE SET data = EXCLUDED.data, updated_at = now()"
	if opts.Merge {
		onConflict = "ON CONFLICT (path) DO UPDATE SET data = " + table + ".data || EXCLUDED.data, updated_at = now()"
	}

	query, args, err := psql.Insert(table).
		Columns("path", "collection_path", "collection_id", "doc_id", "data").
		Values(string(path), path.CollectionPath(), path.CollectionID(), path.ID(), string(raw)).
		Suffix(onConflict).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return mapError(err, path)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, path docstore.Path) (docstore.Document, error) {
	if err := path.Validate(); err != nil {
		return docstore.Document{}, err
	}

	query, args, err := psql.Select("data").From(table).Where(sq.Eq{"path": string(path)}).ToSql()
	if err != nil {
		return docstore.Document{}, err
	}

	var raw []byte
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&raw); err != nil {
		return docstore.Document{}, mapError(err, path)
	}
	return decodeRow(path, raw)
}

func (s *Store) Delete(ctx context.Context, path docstore.Path) error {
	if err := path.Validate(); err != nil {
		return err
	}

	query, args, err := psql.Delete(table).Where(sq.Eq{"path": string(path)}).ToSql()
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return mapError(err, path)
	}
	return nil
}

// Query filtra en SQL; el orden y el límite se aplican con docstore.Query.Apply
// para que coincidan con el resto de los backends.
func (s *Store) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	b := psql.Select("path", "data").From(table)
	if q.Group != "" {
		b = b.Where(sq.Eq{"collection_id": q.Group})
	} else {
		b = b.Where(sq.Eq{"collection_path": q.Collection})
	}
	if len(q.IDs) > 0 {
		b = b.Where(sq.Eq{"doc_id": q.IDs})
	}
	for _, f := range q.Filters {
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", f.Field, err)
		}
		b = b.Where(sq.Expr("data -> ?::text = ?::jsonb", f.Field, string(v)))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, docstore.Path(q.Key()))
	}
	defer rows.Close()

	docs := make([]docstore.Document, 0)
	for rows.Next() {
		var (
			path string
			raw  []byte
		)
		if err := rows.Scan(&path, &raw); err != nil {
			return nil, err
		}
		doc, err := decodeRow(docstore.Path(path), raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, docstore.Path(q.Key()))
	}
	return q.Apply(docs), nil
}

func decodeRow(path docstore.Path, raw []byte) (docstore.Document, error) {
	data := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			return docstore.Document{}, fmt.Errorf("%s: decode data: %w", path, err)
		}
	}
	return docstore.Document{Path: path, Data: docstore.NormalizeData(data)}, nil
}

// mapError traduce errores de pgx a los sentinels del docstore.
// Los errores de contexto pasan tal cual.
func mapError(err error, path docstore.Path) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", path, err)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", path, docstore.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s: %w", path, docstore.ErrAlreadyExists)
		case "42501": // insufficient_privilege
			return fmt.Errorf("%s: %w", path, docstore.ErrPermissionDenied)
		}
	}
	return fmt.Errorf("%s: %w", path, err)
}
