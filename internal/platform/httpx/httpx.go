package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"clinic-console/internal/domain"
	"clinic-console/internal/ports/docstore"
)

type errorResponse struct {
	Error  string              `json:"error"`
	Fields []domain.FieldError `json:"fields,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError traduce errores de dominio/store a status HTTP.
func WriteError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		WriteJSON(w, http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: verr.Errors})
		return
	}

	status := http.StatusInternalServerError
	msg := "internal error"
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		status, msg = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrPreconditionFailed):
		status, msg = http.StatusPreconditionFailed, err.Error()
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, docstore.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, docstore.ErrAlreadyExists):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, docstore.ErrPermissionDenied):
		status, msg = http.StatusForbidden, "permission denied"
	case errors.Is(err, docstore.ErrInvalidPath), errors.Is(err, domain.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	}
	WriteJSON(w, status, errorResponse{Error: msg})
}

// DecodeJSON rechaza campos desconocidos (los formularios tienen schema fijo).
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.NewValidationError("body", "invalid json")
	}
	return nil
}

// WantsWait: ?wait=true pide esperar la escritura o el primer snapshot.
func WantsWait(r *http.Request) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(r.URL.Query().Get("wait")))
	return err == nil && v
}

// Waiter es una escritura despachada (gateway.Pending).
type Waiter interface {
	Wait(ctx context.Context) error
}

type mutationResponse struct {
	Path   string `json:"path"`
	Status string `json:"status"`
}

// WriteDispatched responde 202 sin esperar la escritura, o con ?wait=true la espera
// y responde status (o el error remoto).
func WriteDispatched(w http.ResponseWriter, r *http.Request, p Waiter, path docstore.Path, status int) {
	if !WantsWait(r) {
		WriteJSON(w, http.StatusAccepted, mutationResponse{Path: path.String(), Status: "dispatched"})
		return
	}
	if err := p.Wait(r.Context()); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, status, mutationResponse{Path: path.String(), Status: "done"})
}

// StartSSE escribe los headers de Server-Sent Events; false si el writer no hace flush.
func StartSSE(w http.ResponseWriter) (http.Flusher, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteJSON(w, http.StatusInternalServerError, errorResponse{Error: "streaming unsupported"})
		return nil, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return flusher, true
}

// WriteEvent escribe un evento SSE con v como JSON.
func WriteEvent(w io.Writer, event string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, b)
	return err
}
