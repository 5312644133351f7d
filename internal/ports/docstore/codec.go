package docstore

import (
	"encoding/json"
	"fmt"
)

// Ref se embebe en los modelos para exponer el path del documento en listas
// (edit/delete apuntan al documento exacto). Nunca se persiste.
type Ref struct {
	Path Path `json:"path,omitempty"`
}

func (r *Ref) SetPath(p Path) { r.Path = p }

type pathSetter interface {
	SetPath(p Path)
}

// Normalize lleva un valor a su forma JSON (números float64, mapas map[string]any),
// que es lo que devuelven todos los backends.
func Normalize(v any) any {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return v
	}
	return out
}

// NormalizeData copia y normaliza un mapa de campos.
func NormalizeData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = Normalize(v)
	}
	return out
}

// Encode convierte un modelo a campos de documento (sin "path").
func Encode(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("docstore: encode: %w", err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("docstore: encode: %w", err)
	}
	delete(out, "path")
	return out, nil
}

// Decode llena out con los campos del documento y, si el modelo embebe Ref, su path.
func Decode(doc Document, out any) error {
	b, err := json.Marshal(doc.Data)
	if err != nil {
		return fmt.Errorf("docstore: decode %s: %w", doc.Path, err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("docstore: decode %s: %w", doc.Path, err)
	}
	if ps, ok := out.(pathSetter); ok {
		ps.SetPath(doc.Path)
	}
	return nil
}

// DecodeAll decodifica una lista; los documentos mal formados se descartan y se reportan aparte.
func DecodeAll[T any](docs []Document) ([]T, []error) {
	out := make([]T, 0, len(docs))
	var errs []error
	for _, d := range docs {
		var v T
		if err := Decode(d, &v); err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, v)
	}
	return out, errs
}
