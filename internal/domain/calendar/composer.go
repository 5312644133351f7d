package calendar

import (
	"errors"
	"sync"
	"time"

	"clinic-console/internal/live"
	"clinic-console/internal/platform/metrics"
)

// Stream es cualquier fuente viva de documentos (live.View la implementa).
type Stream interface {
	State() live.State
	OnChange(fn func(live.State)) func()
}

// retrier lo implementan las fuentes que se pueden reabrir después de un error (live.View).
type retrier interface {
	Retry() live.State
}

type Options struct {
	// Meses antes/después de hoy para expandir horarios (default 1 / 2).
	MonthsBefore int
	MonthsAfter  int

	Location *time.Location
	Now      func() time.Time
	Metrics  *metrics.Metrics
}

type source struct {
	name      string
	stream    Stream
	transform Transform

	state  live.State
	events []Event
}

// Composer mantiene la proyección fecha -> eventos a partir de varias fuentes vivas.
// Cada fuente tiene su propio cache: un cambio solo re-deriva esa fuente y
// después se re-arma el índice por fecha en orden de registro.
type Composer struct {
	opts Options

	mu      sync.Mutex
	sources []*source
	window  Window
	byDate  map[string][]Event
	stops   []func()
	started bool
}

func NewComposer(opts Options) *Composer {
	if opts.MonthsBefore <= 0 {
		opts.MonthsBefore = 1
	}
	if opts.MonthsAfter <= 0 {
		opts.MonthsAfter = 2
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Composer{opts: opts, byDate: map[string][]Event{}}
}

// AddSource registra una fuente. El orden de registro define el orden de los eventos
// dentro de un mismo día. Tiene que llamarse antes de Start.
func (c *Composer) AddSource(name string, s Stream, t Transform) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources = append(c.sources, &source{name: name, stream: s, transform: t})
}

// Start deriva el estado actual de todas las fuentes y se engancha a sus cambios.
func (c *Composer) Start() {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.window = c.currentWindow()
	for _, s := range c.sources {
		s.state = s.stream.State()
		s.events = derive(s, c.window)
	}
	c.rebuildLocked()
	sources := append([]*source(nil), c.sources...)
	c.mu.Unlock()

	stops := make([]func(), 0, len(sources))
	for _, s := range sources {
		stops = append(stops, s.stream.OnChange(func(st live.State) { c.update(s, st) }))
	}

	c.mu.Lock()
	c.stops = stops
	c.mu.Unlock()

	// lo que haya cambiado entre la primera lectura y el registro de listeners
	for _, s := range sources {
		c.update(s, s.stream.State())
	}
}

func (c *Composer) Close() {
	c.mu.Lock()
	stops := c.stops
	c.stops = nil
	c.mu.Unlock()

	for _, stop := range stops {
		stop()
	}
}

// RetryFailed reabre las fuentes cuyo último intento terminó en error.
// Snapshot y Day lo llaman: volver a abrir el calendario es un reintento.
func (c *Composer) RetryFailed() {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return
	}
	var failed []retrier
	for _, s := range c.sources {
		if r, ok := s.stream.(retrier); ok && s.state.Err != nil {
			failed = append(failed, r)
		}
	}
	c.mu.Unlock()

	for _, r := range failed {
		r.Retry()
	}
}

func (c *Composer) update(s *source, st live.State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s.state = st
	s.events = derive(s, c.window)
	c.rebuildLocked()
}

func derive(s *source, w Window) []Event {
	if s.state.IsLoading || s.state.Err != nil {
		return nil
	}
	var out []Event
	for _, doc := range s.state.Data {
		out = append(out, s.transform(doc, w)...)
	}
	return out
}

func (c *Composer) rebuildLocked() {
	start := time.Now()
	groups := make([][]Event, 0, len(c.sources))
	for _, s := range c.sources {
		groups = append(groups, s.events)
	}
	c.byDate = Merge(groups...)
	c.opts.Metrics.ObserveMerge(time.Since(start))
}

// refreshWindowLocked corre la ventana si cambió el día; re-deriva todas las fuentes.
func (c *Composer) refreshWindowLocked() {
	w := c.currentWindow()
	if w.Key() == c.window.Key() {
		return
	}
	c.window = w
	for _, s := range c.sources {
		s.events = derive(s, w)
	}
	c.rebuildLocked()
}

func (c *Composer) currentWindow() Window {
	return WindowAround(c.opts.Now().In(c.opts.Location), c.opts.MonthsBefore, c.opts.MonthsAfter)
}

// Projection es la foto completa del calendario.
type Projection struct {
	From    string             `json:"from"`
	To      string             `json:"to"`
	Loading bool               `json:"loading"`
	Errors  []string           `json:"errors,omitempty"`
	Events  map[string][]Event `json:"events"`
}

func (c *Composer) Snapshot() Projection {
	c.RetryFailed()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		c.refreshWindowLocked()
	}

	p := Projection{
		From:   c.window.From.Format(DateLayout),
		To:     c.window.To.Format(DateLayout),
		Events: make(map[string][]Event, len(c.byDate)),
	}
	for k, v := range c.byDate {
		p.Events[k] = append([]Event(nil), v...)
	}
	p.Loading, p.Errors = c.statusLocked()
	return p
}

func (c *Composer) statusLocked() (bool, []string) {
	loading := false
	var errs []string
	for _, s := range c.sources {
		if s.state.IsLoading {
			loading = true
		}
		if s.state.Err != nil {
			errs = append(errs, s.name+": "+s.state.Err.Error())
		}
	}
	return loading, errs
}

// Day es el detalle de una fecha.
type Day struct {
	Date    string   `json:"date"`
	Loading bool     `json:"loading"`
	Events  []Event  `json:"events"`
	Message string   `json:"message,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

var ErrInvalidDate = errors.New("date must be YYYY-MM-DD")

// Day devuelve los eventos de date; sin eventos se informa NoScheduleMessage.
func (c *Composer) Day(date string) (Day, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return Day{}, ErrInvalidDate
	}
	key := t.Format(DateLayout)

	c.RetryFailed()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		c.refreshWindowLocked()
	}

	d := Day{Date: key, Events: append([]Event{}, c.byDate[key]...)}
	d.Loading, d.Errors = c.statusLocked()
	if len(d.Events) == 0 && !d.Loading {
		d.Message = NoScheduleMessage
	}
	return d, nil
}
