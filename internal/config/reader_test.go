package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEnvReaderDefaults(t *testing.T) {
	t.Setenv("TADA_ENV", "")
	t.Setenv("TADA_API_URL", "")
	t.Setenv("TADA_HTTP_TIMEOUT", "")
	os.Unsetenv("TADA_ENV")
	os.Unsetenv("TADA_API_URL")
	os.Unsetenv("TADA_HTTP_TIMEOUT")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Env != EnvProd {
		t.Errorf("Expected env %q, got %q", EnvProd, cfg.Env)
	}
	if cfg.API.URL != "http://localhost:8000/api/v1" {
		t.Errorf("Unexpected default api url %q", cfg.API.URL)
	}
	if cfg.API.Timeout != 15*time.Second {
		t.Errorf("Expected 15s timeout, got %v", cfg.API.Timeout)
	}
	if cfg.UI.Theme != "classic" {
		t.Errorf("Expected classic theme, got %q", cfg.UI.Theme)
	}
}

func TestEnvReaderOverrides(t *testing.T) {
	t.Setenv("TADA_ENV", "local")
	t.Setenv("TADA_API_URL", "http://example.test/api/v1")
	t.Setenv("TADA_HTTP_TIMEOUT", "3s")
	t.Setenv("TADA_TOKEN", "abc")

	cfg, err := NewEnvReader().Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if cfg.Env != EnvLocal || cfg.API.URL != "http://example.test/api/v1" || cfg.API.Timeout != 3*time.Second {
		t.Errorf("Unexpected config %+v", cfg)
	}
	if cfg.Token != "abc" {
		t.Errorf("Expected token from env, got %q", cfg.Token)
	}
}

func TestFileReaderWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tada.yaml")
	body := "env: dev\napi:\n  url: http://file.test/api/v1\n  timeout: 5s\nui:\n  theme: neon\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TADA_THEME", "mono")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Env != EnvDev || cfg.API.URL != "http://file.test/api/v1" || cfg.API.Timeout != 5*time.Second {
		t.Errorf("Unexpected config %+v", cfg)
	}
	if cfg.UI.Theme != "mono" {
		t.Errorf("Expected env to override file theme, got %q", cfg.UI.Theme)
	}
}

func TestUnknownEnvRejected(t *testing.T) {
	t.Setenv("TADA_ENV", "staging")
	if _, err := Load(""); err == nil {
		t.Error("Expected error for unknown env")
	}
}
