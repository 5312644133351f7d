package views

import (
	"clinic-console/internal/live"
	"clinic-console/internal/ports/docstore"
)

// SkeletonRows es la cantidad de filas placeholder mientras la vista carga.
const SkeletonRows = 5

// List es la respuesta de cualquier tabla.
type List[T any] struct {
	Items        []T    `json:"items"`
	Loading      bool   `json:"loading"`
	Placeholders int    `json:"placeholders,omitempty"`
	EmptyMessage string `json:"empty_message,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Render decodifica el estado de la vista en filas de T.
// Los documentos que no decodifican se omiten.
func Render[T any](st live.State, empty string) List[T] {
	out := List[T]{Items: []T{}}

	switch {
	case st.IsLoading:
		out.Loading = true
		out.Placeholders = SkeletonRows
		return out
	case st.Err != nil:
		out.Error = st.Err.Error()
		return out
	}

	items, _ := docstore.DecodeAll[T](st.Data)
	out.Items = items
	if len(out.Items) == 0 {
		out.EmptyMessage = empty
	}
	return out
}

// Row es una fila genérica (streams SSE).
type Row struct {
	Path docstore.Path  `json:"path"`
	Data map[string]any `json:"data"`
}

func Rows(st live.State, empty string) List[Row] {
	out := List[Row]{Items: []Row{}}

	switch {
	case st.IsLoading:
		out.Loading = true
		out.Placeholders = SkeletonRows
		return out
	case st.Err != nil:
		out.Error = st.Err.Error()
		return out
	}

	for _, d := range st.Data {
		out.Items = append(out.Items, Row{Path: d.Path, Data: d.Data})
	}
	if len(out.Items) == 0 {
		out.EmptyMessage = empty
	}
	return out
}

// EmptyMessages por vista.
var EmptyMessages = map[string]string{
	Doctors:      "No doctors registered yet.",
	Patients:     "No patients registered yet.",
	Clients:      "No clients registered yet.",
	Examinations: "No examinations recorded yet.",
	Statuses:     "No present statuses recorded yet.",
	Medications:  "No medications registered yet.",
	Diseases:     "No diseases registered yet.",
}
