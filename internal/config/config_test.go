package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Port != 3000 {
		t.Errorf("Port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Backend.URL != "http://localhost:8000" {
		t.Errorf("Backend.URL = %q", cfg.Backend.URL)
	}

	wantPrefixes := []string{
		"/api/battle", "/api/leaderboard", "/api/playground",
		"/api/documents", "/api/admin", "/api/health",
	}
	if len(cfg.Gateway.AllowedPrefixes) != len(wantPrefixes) {
		t.Fatalf("AllowedPrefixes = %v", cfg.Gateway.AllowedPrefixes)
	}
	for i, p := range wantPrefixes {
		if cfg.Gateway.AllowedPrefixes[i] != p {
			t.Errorf("AllowedPrefixes[%d] = %q, want %q", i, cfg.Gateway.AllowedPrefixes[i], p)
		}
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9999
backend:
  url: http://ocr-backend:8000
gateway:
  cors_origins:
    - https://arena.example.com
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Host default lost: %q", cfg.Server.Host)
	}
	if cfg.Backend.URL != "http://ocr-backend:8000" {
		t.Errorf("Backend.URL = %q", cfg.Backend.URL)
	}
	if len(cfg.Gateway.CORSOrigins) != 1 || cfg.Gateway.CORSOrigins[0] != "https://arena.example.com" {
		t.Errorf("CORSOrigins = %v", cfg.Gateway.CORSOrigins)
	}
	// Prefixes keep their defaults when the file doesn't mention them.
	if len(cfg.Gateway.AllowedPrefixes) == 0 {
		t.Error("AllowedPrefixes defaults lost")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); !os.IsNotExist(err) {
		t.Errorf("Load(absent) error = %v, want not-exist", err)
	}
}
