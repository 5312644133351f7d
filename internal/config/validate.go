package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"

	AuthDev      = "dev"
	AuthJWT      = "jwt"
	AuthIdentity = "identity"
)

func (c *Config) Validate() error {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	switch c.Store.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for driver %q", c.Store.Driver)
		}
	case DriverMongo:
		if c.Store.MongoURI == "" {
			return fmt.Errorf("store.mongo_uri is required for driver %q", c.Store.Driver)
		}
	default:
		return fmt.Errorf("store.driver must be one of memory, postgres, mongo (got %q)", c.Store.Driver)
	}

	c.Auth.Mode = strings.ToLower(strings.TrimSpace(c.Auth.Mode))
	switch c.Auth.Mode {
	case AuthDev:
	case AuthJWT:
		if len(c.Auth.JWTSecret) < 32 {
			return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
		}
	case AuthIdentity:
		if c.Auth.IdentityBaseURL == "" || c.Auth.IdentityAPIKey == "" {
			return fmt.Errorf("auth.identity_base_url and auth.identity_api_key are required for mode %q", c.Auth.Mode)
		}
	default:
		return fmt.Errorf("auth.mode must be one of dev, jwt, identity (got %q)", c.Auth.Mode)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range (got %d)", c.Server.Port)
	}
	if c.Calendar.MonthsBefore < 0 || c.Calendar.MonthsAfter < 0 {
		return fmt.Errorf("calendar months must be >= 0")
	}
	if _, err := c.Calendar.Location(); err != nil {
		return fmt.Errorf("calendar.timezone: %w", err)
	}
	return nil
}

// Location resuelve la zona del calendario ("Local" = zona del proceso).
func (c CalendarConfig) Location() (*time.Location, error) {
	switch strings.TrimSpace(c.Timezone) {
	case "", "Local":
		return time.Local, nil
	default:
		return time.LoadLocation(c.Timezone)
	}
}

// Addr es host:port para http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
