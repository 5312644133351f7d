package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return path
}

func TestLoad_DefaultsFromEnvOnly(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Driver != DriverMemory || cfg.Auth.Mode != AuthDev {
		t.Fatalf("driver=%q mode=%q", cfg.Store.Driver, cfg.Auth.Mode)
	}
	if cfg.Server.Port != 8080 || cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Fatalf("server = %+v", cfg.Server)
	}
	if cfg.Calendar.MonthsBefore != 1 || cfg.Calendar.MonthsAfter != 2 {
		t.Fatalf("calendar = %+v", cfg.Calendar)
	}
	if cfg.Notify.History != 100 {
		t.Fatalf("notify history = %d", cfg.Notify.History)
	}
}

func TestLoad_YAMLWithEnvOverride(t *testing.T) {
	path := writeYAML(t, `
server:
  port: 9090
store:
  driver: postgres
  dsn: "postgres://u:p@localhost:5432/clinic"
calendar:
  timezone: "UTC"
`)
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("PORT", "7070")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Fatalf("port = %d, want env override 7070", cfg.Server.Port)
	}
	if cfg.Store.Driver != DriverPostgres || cfg.Store.DSN == "" {
		t.Fatalf("store = %+v", cfg.Store)
	}
	loc, err := cfg.Calendar.Location()
	if err != nil || loc != time.UTC {
		t.Fatalf("location = %v, %v", loc, err)
	}
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Server:   ServerConfig{Port: 8080},
			Store:    StoreConfig{Driver: "memory"},
			Auth:     AuthConfig{Mode: "dev"},
			Calendar: CalendarConfig{MonthsBefore: 1, MonthsAfter: 2},
		}
	}

	cases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"unknown driver", func(c *Config) { c.Store.Driver = "sqlite" }, "store.driver"},
		{"postgres without dsn", func(c *Config) { c.Store.Driver = "Postgres" }, "store.dsn"},
		{"mongo without uri", func(c *Config) { c.Store.Driver = "mongo" }, "store.mongo_uri"},
		{"short jwt secret", func(c *Config) { c.Auth.Mode = "jwt"; c.Auth.JWTSecret = "short" }, "jwt_secret"},
		{"identity without key", func(c *Config) { c.Auth.Mode = "identity" }, "identity"},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"negative months", func(c *Config) { c.Calendar.MonthsAfter = -1 }, "calendar"},
		{"bad timezone", func(c *Config) { c.Calendar.Timezone = "Mars/Olympus" }, "timezone"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := base()
			tc.mutate(&c)
			err := c.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("err = %v, want containing %q", err, tc.wantErr)
			}
		})
	}
}
