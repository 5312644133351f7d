package notify

import (
	"sync"
	"time"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Notification es el "toast" que antes mostraba la UI.
type Notification struct {
	Kind        Kind      `json:"kind"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	At          time.Time `json:"at"`
}

// Hub reparte notificaciones a los streams abiertos y guarda las últimas.
type Hub struct {
	mu     sync.Mutex
	subs   map[int]chan Notification
	nextID int

	recent []Notification
	max    int
	now    func() time.Time
}

func NewHub(max int) *Hub {
	if max <= 0 {
		max = 100
	}
	return &Hub{
		subs: make(map[int]chan Notification),
		max:  max,
		now:  time.Now,
	}
}

func (h *Hub) Success(title, description string) { h.Notify(KindSuccess, title, description) }
func (h *Hub) Error(title, description string) { h.Notify(KindError, title, description) }

// Notify nunca bloquea: un suscriptor lento pierde notificaciones.
func (h *Hub) Notify(kind Kind, title, description string) {
	if h == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	n := Notification{Kind: kind, Title: title, Description: description, At: h.now().UTC()}
	h.recent = append(h.recent, n)
	if len(h.recent) > h.max {
		h.recent = h.recent[len(h.recent)-h.max:]
	}

	for _, ch := range h.subs {
		select {
		case ch <- n:
		default:
		}
	}
}

// Subscribe abre un canal con buffer; el func devuelto lo cierra.
func (h *Hub) Subscribe(buf int) (<-chan Notification, func()) {
	if buf <= 0 {
		buf = 16
	}
	ch := make(chan Notification, buf)

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Recent devuelve las últimas notificaciones (más reciente al final).
func (h *Hub) Recent() []Notification {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Notification, len(h.recent))
	copy(out, h.recent)
	return out
}
