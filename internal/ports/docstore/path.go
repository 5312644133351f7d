package docstore

import (
	"fmt"
	"strings"
)

// Path identifica un documento: segmentos colección/id alternados.
// Ej: "doctors/d1/patients/p1".
type Path string

// Doc arma un Path a partir de segmentos (colección, id, colección, id...).
func Doc(segments ...string) Path {
	return Path(strings.Join(segments, "/"))
}

func (p Path) String() string { return string(p) }

func (p Path) Segments() []string {
	s := strings.Trim(string(p), "/")
	if s == "" {
		return nil
	}
	return strings.Split(s, "/")
}

// Validate exige cantidad par de segmentos y ninguno vacío.
func (p Path) Validate() error {
	segs := p.Segments()
	if len(segs) == 0 || len(segs)%2 != 0 {
		return fmt.Errorf("%w: %q", ErrInvalidPath, string(p))
	}
	for _, s := range segs {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%w: %q", ErrInvalidPath, string(p))
		}
	}
	return nil
}

// ID devuelve el último segmento (id del documento).
func (p Path) ID() string {
	segs := p.Segments()
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1]
}

// CollectionPath es la ruta completa de la colección que contiene al documento.
func (p Path) CollectionPath() string {
	segs := p.Segments()
	if len(segs) < 2 {
		return ""
	}
	return strings.Join(segs[:len(segs)-1], "/")
}

// CollectionID es el nombre "corto" de la colección (lo que matchea un collection-group query).
func (p Path) CollectionID() string {
	segs := p.Segments()
	if len(segs) < 2 {
		return ""
	}
	return segs[len(segs)-2]
}

// Parent devuelve el documento dueño (vacío si es top-level).
func (p Path) Parent() Path {
	segs := p.Segments()
	if len(segs) <= 2 {
		return ""
	}
	return Path(strings.Join(segs[:len(segs)-2], "/"))
}

// Child arma el path de un documento dentro de una subcolección de p.
func (p Path) Child(collection, id string) Path {
	if p == "" {
		return Doc(collection, id)
	}
	return Path(string(p) + "/" + collection + "/" + id)
}
