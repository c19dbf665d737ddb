package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"MYSQL_USER", "MYSQL_PWD", "MYSQL_HOST", "MYSQL_DATABASE", "PORT", "NEGO_MODEL", "BACKEND_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.Model != "kolosal/Claude Sonnet 4.5" {
		t.Errorf("Model = %q, want default kolosal model", cfg.Model)
	}
	if cfg.BackendTimeout != 20*time.Second {
		t.Errorf("BackendTimeout = %v, want 20s", cfg.BackendTimeout)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MYSQL_USER", "tawarin")
	t.Setenv("MYSQL_PWD", "secret")
	t.Setenv("MYSQL_HOST", "tcp(db:3306)")
	t.Setenv("MYSQL_DATABASE", "nego")
	t.Setenv("PORT", "9090")
	t.Setenv("NEGO_MODEL", "openai/gpt-4o")
	t.Setenv("BACKEND_TIMEOUT", "5s")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.Model != "openai/gpt-4o" {
		t.Errorf("Model = %q, want openai/gpt-4o", cfg.Model)
	}
	if cfg.BackendTimeout != 5*time.Second {
		t.Errorf("BackendTimeout = %v, want 5s", cfg.BackendTimeout)
	}

	want := "tawarin:secret@tcp(db:3306)/nego?parseTime=true&loc=Local"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}

func TestLoadBadDuration(t *testing.T) {
	t.Setenv("BACKEND_TIMEOUT", "soon")
	if got := Load().BackendTimeout; got != 20*time.Second {
		t.Errorf("BackendTimeout = %v, want default on parse failure", got)
	}
}
