package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Expected default addr ':8080', got '%s'", cfg.Server.Addr)
	}
	if cfg.Output.DefaultFormat != "text" {
		t.Errorf("Expected default format 'text', got '%s'", cfg.Output.DefaultFormat)
	}
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := Default()
	cfg.Catalog.Path = "plans.hcl"
	cfg.Picker.Email = "dev@example.com"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Catalog.Path != "plans.hcl" {
		t.Errorf("Expected catalog path 'plans.hcl', got '%s'", loaded.Catalog.Path)
	}
	if loaded.Picker.Email != "dev@example.com" {
		t.Errorf("Expected email to round-trip, got '%s'", loaded.Picker.Email)
	}
}

func TestLoadEnvFileAndApply(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	content := "PLAN_PICKER_CATALOG=/etc/plans.yaml\nPLAN_PICKER_NO_COLOR=true\n"
	if err := os.WriteFile(envFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	// godotenv does not override variables that are already present
	os.Unsetenv(EnvCatalog)
	os.Unsetenv(EnvNoColor)
	t.Cleanup(func() {
		os.Unsetenv(EnvCatalog)
		os.Unsetenv(EnvNoColor)
	})
	t.Setenv(EnvEmail, "ops@example.com")
	t.Setenv(EnvWebhookURL, "https://hooks.example.com/picker")

	if err := LoadEnv(envFile, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadEnv failed: %v", err)
	}

	cfg := Default()
	cfg.ApplyEnv()

	if cfg.Catalog.Path != "/etc/plans.yaml" {
		t.Errorf("Expected catalog from .env, got '%s'", cfg.Catalog.Path)
	}
	if !cfg.Output.NoColor {
		t.Error("Expected NoColor from .env")
	}
	if cfg.Picker.Email != "ops@example.com" {
		t.Errorf("Expected email from environment, got '%s'", cfg.Picker.Email)
	}
	if cfg.Webhook.URL != "https://hooks.example.com/picker" || cfg.Webhook.Format != "json" {
		t.Errorf("Unexpected webhook config %+v", cfg.Webhook)
	}
}

func TestSessionIdleTimeout(t *testing.T) {
	tests := []struct {
		ttl     string
		want    time.Duration
		wantErr bool
	}{
		{"30m", 30 * time.Minute, false},
		{"0", 0, false},
		{"", 0, false},
		{"soon", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.ttl, func(t *testing.T) {
			got, err := ServerConfig{SessionTTL: tt.ttl}.SessionIdleTimeout()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unexpected error %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}

	if d, _ := Default().Server.SessionIdleTimeout(); d != 30*time.Minute {
		t.Errorf("Expected 30m default, got %v", d)
	}
}
