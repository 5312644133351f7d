package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestVerifier(t *testing.T, h http.HandlerFunc) *Verifier {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{BaseURL: srv.URL, APIKey: "k"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return NewVerifier(c)
}

func TestVerify_ReturnsAccount(t *testing.T) {
	v := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != lookupPath || r.URL.Query().Get("key") != "k" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in["idToken"] != "tok" {
			t.Errorf("idToken = %q", in["idToken"])
		}
		_, _ = w.Write([]byte(`{"users":[{"localId":"d1","email":"ana@clinic.test","displayName":"Ana"}]}`))
	})

	claims, err := v.Verify(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != "d1" || claims.Email != "ana@clinic.test" || claims.Name != "Ana" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestVerify_RejectedToken(t *testing.T) {
	v := newTestVerifier(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"INVALID_ID_TOKEN"}}`, http.StatusBadRequest)
	})

	_, err := v.Verify(context.Background(), "bad")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestVerify_UpstreamFailure(t *testing.T) {
	v := newTestVerifier(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := v.Verify(context.Background(), "tok")
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("err = %v, want ErrUpstream", err)
	}
}

func TestVerify_NotConfigured(t *testing.T) {
	c, _ := NewClient(Config{})
	_, err := NewVerifier(c).Verify(context.Background(), "tok")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v", err)
	}
	if _, err := NewVerifier(c).Verify(context.Background(), " "); !errors.Is(err, ErrTokenEmpty) {
		t.Fatalf("empty token err = %v", err)
	}
}
