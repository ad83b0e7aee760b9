package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sndcds/redrovr/catalog"
	"github.com/sndcds/redrovr/marker"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return p
}

func TestLoadConfigJSON(t *testing.T) {
	p := writeFile(t, "config.json", `{
		"addr": ":9000",
		"catalog_driver": "postgres",
		"db_host": "localhost",
		"db_name": "redrovr",
		"db_password": "from-file",
		"cooldown_seconds": 10
	}`)
	t.Setenv("REDROVR_DB_PASSWORD", "from-env")

	cfg, err := LoadConfig(p)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Addr != ":9000" {
		t.Errorf("expected addr :9000, got %q", cfg.Addr)
	}
	if cfg.DbPassword != "from-env" {
		t.Errorf("expected environment to override password, got %q", cfg.DbPassword)
	}
	if cfg.Cooldown() != 10*time.Second {
		t.Errorf("expected cooldown 10s, got %v", cfg.Cooldown())
	}
	if cfg.DbPort != 5432 || cfg.DbSchema != "public" {
		t.Errorf("expected postgres defaults, got port %d schema %q", cfg.DbPort, cfg.DbSchema)
	}
}

func TestLoadConfigYAMLDefaults(t *testing.T) {
	p := writeFile(t, "config.yaml", "media_dir: /srv/media\ncors_origins:\n  - http://localhost:5173\n")
	t.Setenv("NASA_API_KEY", "abc")

	cfg, err := LoadConfig(p)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.MediaDir != "/srv/media" {
		t.Errorf("expected media dir from yaml, got %q", cfg.MediaDir)
	}
	if len(cfg.CorsOrigins) != 1 || cfg.CorsOrigins[0] != "http://localhost:5173" {
		t.Errorf("unexpected cors origins %v", cfg.CorsOrigins)
	}
	if cfg.NasaAPIKey != "abc" {
		t.Errorf("expected api key from env, got %q", cfg.NasaAPIKey)
	}
	if cfg.Cooldown() != time.Hour {
		t.Errorf("expected default cooldown of one hour, got %v", cfg.Cooldown())
	}
	if cfg.ImageWidth != 800 || cfg.ImageQuality != 90 || cfg.RecentLimit != 25 {
		t.Errorf("unexpected image defaults %d/%d/%d", cfg.ImageWidth, cfg.ImageQuality, cfg.RecentLimit)
	}
	if cfg.CatalogDriver != "sqlite" || cfg.MarkerDriver != "file" {
		t.Errorf("unexpected driver defaults %q/%q", cfg.CatalogDriver, cfg.MarkerDriver)
	}
}

func TestLoadConfigRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{"unknown catalog", `{"catalog_driver": "mysql"}`, "catalog_driver"},
		{"postgres without host", `{"catalog_driver": "postgres"}`, "db_host"},
		{"s3 without bucket", `{"media_driver": "s3"}`, "s3_bucket"},
		{"unknown marker", `{"marker_driver": "redis"}`, "marker_driver"},
		{"negative cooldown", `{"cooldown_seconds": -1}`, "cooldown_seconds"},
		{"quality too high", `{"image_quality": 101}`, "image_quality"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeFile(t, "config.json", tt.content))
			ve, ok := err.(*catalog.ValidationError)
			if !ok {
				t.Fatalf("expected validation error, got %v", err)
			}
			if ve.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, ve.Field)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestOpenLocal(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadConfig(writeFile(t, "config.json", `{
		"sqlite_path": "`+filepath.ToSlash(filepath.Join(dir, "db", "redrovr.db"))+`",
		"media_dir": "`+filepath.ToSlash(filepath.Join(dir, "media"))+`",
		"marker_driver": "catalog"
	}`))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	a, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer a.Close()

	if _, ok := a.Marker.(*marker.File); ok {
		t.Error("expected catalog-backed marker")
	}
	if a.Job == nil || a.Rover == nil || a.Media == nil {
		t.Fatal("expected all components to be built")
	}

	now := time.Unix(1700000000, 0)
	if err := a.Marker.SetLastRun(context.Background(), now); err != nil {
		t.Fatalf("SetLastRun failed: %v", err)
	}
	got, err := a.Catalog.LastRun(context.Background())
	if err != nil || !got.Equal(now) {
		t.Errorf("expected catalog last run %v, got %v (%v)", now, got, err)
	}
}
