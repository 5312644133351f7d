package middleware

import (
	"context"
	"net/http"
	"strings"

	"clinic-console/internal/platform/logger"
	"clinic-console/internal/ports/auth"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// DebugUserHeader identifica al doctor en modo dev (sin verifier).
const DebugUserHeader = "X-Debug-User-ID"

// AuthContext deja los claims del doctor en el contexto:
//   - verifier nil: modo dev, el uid viene en X-Debug-User-ID.
//   - con verifier: Bearer token, o ?access_token= en GET (EventSource no manda headers).
//
// Un token inválido no corta el request: sigue anónimo y cada handler decide (401 en escrituras).
func AuthContext(verifier auth.AuthVerifier, log logger.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logger.Nop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var (
				claims auth.Claims
				ok     bool
			)
			if verifier == nil {
				claims, ok = debugClaims(r)
			} else if token := requestToken(r); token != "" {
				var err error
				claims, err = verifier.Verify(r.Context(), token)
				if err != nil {
					log.Debug("token rejected", map[string]any{
						"request_id": chimw.GetReqID(r.Context()),
						"path":       r.URL.Path,
						"err":        err.Error(),
					})
				}
				ok = err == nil && strings.TrimSpace(claims.UserID) != ""
			}

			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func debugClaims(r *http.Request) (auth.Claims, bool) {
	uid := strings.TrimSpace(r.Header.Get(DebugUserHeader))
	if uid == "" {
		return auth.Claims{}, false
	}
	return auth.Claims{UserID: uid}, true
}

func requestToken(r *http.Request) string {
	if t := bearerToken(r.Header.Get("Authorization")); t != "" {
		return t
	}
	if r.Method == http.MethodGet {
		return strings.TrimSpace(r.URL.Query().Get("access_token"))
	}
	return ""
}

// WithClaims guarda claims en ctx (tests y comandos que no pasan por HTTP).
func WithClaims(ctx context.Context, c auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func GetClaims(ctx context.Context) (auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(auth.Claims)
	return c, ok
}

func bearerToken(header string) string {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// UserID devuelve el uid autenticado o "" (sin sesión).
func UserID(ctx context.Context) string {
	c, ok := GetClaims(ctx)
	if !ok {
		return ""
	}
	return strings.TrimSpace(c.UserID)
}
