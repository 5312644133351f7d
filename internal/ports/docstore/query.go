package docstore

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Filter es una condición de igualdad sobre un campo del documento.
type Filter struct {
	Field string
	Value any
}

// Query describe una consulta viva o puntual.
// Collection (ruta completa) y Group (collection-group por nombre) son excluyentes.
type Query struct {
	Collection string
	Group      string

	Filters []Filter
	IDs     []string

	OrderBy    string
	Descending bool
	Limit      int
}

// CollectionQuery consulta una colección concreta, ej. "doctors/d1/patients".
func CollectionQuery(collectionPath string) *Query {
	return &Query{Collection: strings.Trim(collectionPath, "/")}
}

// GroupQuery consulta todas las colecciones con ese nombre, sin importar el padre.
func GroupQuery(collectionID string) *Query {
	return &Query{Group: strings.TrimSpace(collectionID)}
}

func (q *Query) Where(field string, value any) *Query {
	q.Filters = append(q.Filters, Filter{Field: field, Value: Normalize(value)})
	return q
}

func (q *Query) WhereIDIn(ids ...string) *Query {
	q.IDs = append(q.IDs, ids...)
	return q
}

func (q *Query) Order(field string, desc bool) *Query {
	q.OrderBy = field
	q.Descending = desc
	return q
}

func (q *Query) WithLimit(n int) *Query {
	q.Limit = n
	return q
}

// Key es una representación canónica (logs, métricas, errores).
func (q Query) Key() string {
	var sb strings.Builder
	if q.Group != "" {
		sb.WriteString("group:" + q.Group)
	} else {
		sb.WriteString(q.Collection)
	}
	for _, f := range q.Filters {
		sb.WriteString(fmt.Sprintf(" %s==%v", f.Field, f.Value))
	}
	if len(q.IDs) > 0 {
		sb.WriteString(" id in [" + strings.Join(q.IDs, ",") + "]")
	}
	if q.OrderBy != "" {
		dir := "asc"
		if q.Descending {
			dir = "desc"
		}
		sb.WriteString(" order " + q.OrderBy + " " + dir)
	}
	if q.Limit > 0 {
		sb.WriteString(fmt.Sprintf(" limit %d", q.Limit))
	}
	return sb.String()
}

func (q Query) Validate() error {
	if (q.Collection == "") == (q.Group == "") {
		return fmt.Errorf("query: exactly one of collection or group required")
	}
	if q.Collection != "" && len(strings.Split(q.Collection, "/"))%2 != 1 {
		return fmt.Errorf("query: %q is not a collection path", q.Collection)
	}
	return nil
}

// Covers indica si una escritura en p puede cambiar el resultado de q.
func (q Query) Covers(p Path) bool {
	if q.Group != "" {
		return p.CollectionID() == q.Group
	}
	return p.CollectionPath() == q.Collection
}

// Matches evalúa colección/grupo, ids y filtros sobre un documento.
func (q Query) Matches(d Document) bool {
	if !q.Covers(d.Path) {
		return false
	}
	if len(q.IDs) > 0 {
		id := d.Path.ID()
		found := false
		for _, want := range q.IDs {
			if want == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, f := range q.Filters {
		v, ok := d.Data[f.Field]
		if !ok || !reflect.DeepEqual(Normalize(v), f.Value) {
			return false
		}
	}
	return true
}

// Apply filtra, ordena y limita. Empates se resuelven por path para que todos
// los backends entreguen el mismo orden.
func (q Query) Apply(docs []Document) []Document {
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		if q.Matches(d) {
			out = append(out, d)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if q.OrderBy != "" {
			c := compareValues(out[i].Data[q.OrderBy], out[j].Data[q.OrderBy])
			if c != 0 {
				if q.Descending {
					return c > 0
				}
				return c < 0
			}
		}
		return out[i].Path < out[j].Path
	})

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

// compareValues: ausente < presente; números y strings comparan por valor.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	switch av := a.(type) {
	case float64:
		if bv, ok := b.(float64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			}
			return 1
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
