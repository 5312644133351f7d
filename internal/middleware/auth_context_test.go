package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"clinic-console/internal/ports/auth"

	"github.com/stretchr/testify/assert"
)

func whoAmI(got *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = UserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthContext_DevHeader(t *testing.T) {
	var uid string
	h := AuthContext(nil, nil)(whoAmI(&uid))

	req := httptest.NewRequest(http.MethodGet, "/doctors/me", nil)
	req.Header.Set(DebugUserHeader, "  doc-1 ")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "doc-1", uid)

	uid = "stale"
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/doctors/me", nil))
	assert.Equal(t, "", uid)
}

func TestAuthContext_Verifier(t *testing.T) {
	verifier := auth.VerifierFunc(func(_ context.Context, token string) (auth.Claims, error) {
		if token != "good" {
			return auth.Claims{}, errors.New("bad token")
		}
		return auth.Claims{UserID: "doc-7"}, nil
	})

	cases := []struct {
		name   string
		method string
		target string
		header string
		want   string
	}{
		{name: "bearer", method: http.MethodPost, target: "/patients", header: "Bearer good", want: "doc-7"},
		{name: "lowercase scheme", method: http.MethodGet, target: "/patients", header: "bearer good", want: "doc-7"},
		{name: "rejected token stays anonymous", method: http.MethodPost, target: "/patients", header: "Bearer nope", want: ""},
		{name: "query token on stream", method: http.MethodGet, target: "/live/patients?access_token=good", want: "doc-7"},
		{name: "query token ignored on writes", method: http.MethodPost, target: "/patients?access_token=good", want: ""},
		{name: "debug header ignored with verifier", method: http.MethodGet, target: "/patients", want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var uid string
			h := AuthContext(verifier, nil)(whoAmI(&uid))

			req := httptest.NewRequest(tc.method, tc.target, nil)
			req.Header.Set(DebugUserHeader, "intruder")
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tc.want, uid)
		})
	}
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "", bearerToken("Basic abc"))
	assert.Equal(t, "", bearerToken("Bearer"))
	assert.Equal(t, "", bearerToken(""))
}
