package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"clinic-console/internal/platform/httpclient"
	"clinic-console/internal/ports/auth"
)

var (
	ErrNotConfigured = errors.New("identity client not configured")
	ErrUnauthorized  = errors.New("identity token rejected")
	ErrUpstream      = errors.New("identity upstream error")
)

const lookupPath = "/v1/accounts:lookup"

// Config del proveedor de identidad (REST de cuentas con API key).
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type Client struct {
	http   *httpclient.Client
	apiKey string
}

func NewClient(cfg Config) (*Client, error) {
	hc, err := httpclient.New(cfg.BaseURL, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return &Client{http: hc, apiKey: strings.TrimSpace(cfg.APIKey)}, nil
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.http.Configured() && c.apiKey != ""
}

type lookupResponse struct {
	Users []struct {
		LocalID     string `json:"localId"`
		Email       string `json:"email"`
		DisplayName string `json:"displayName"`
	} `json:"users"`
}

// Lookup intercambia un ID token por la cuenta del usuario.
func (c *Client) Lookup(ctx context.Context, token string) (auth.Claims, error) {
	if !c.IsConfigured() {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrUnauthorized
	}

	var out lookupResponse
	err := c.http.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   lookupPath,
		Query:  url.Values{"key": {c.apiKey}},
		Body:   map[string]string{"idToken": token},
	}, &out)
	switch status := httpclient.StatusCode(err); {
	case err == nil:
	case status == http.StatusBadRequest, status == http.StatusUnauthorized, status == http.StatusForbidden:
		return auth.Claims{}, ErrUnauthorized
	default:
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if len(out.Users) == 0 || strings.TrimSpace(out.Users[0].LocalID) == "" {
		return auth.Claims{}, ErrUnauthorized
	}
	u := out.Users[0]
	return auth.Claims{
		UserID: strings.TrimSpace(u.LocalID),
		Email:  strings.TrimSpace(u.Email),
		Name:   strings.TrimSpace(u.DisplayName),
	}, nil
}
