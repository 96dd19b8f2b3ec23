package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("server.port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Archive.APIDomain != "campfirenow.com" {
		t.Errorf("archive.api_domain = %q", cfg.Archive.APIDomain)
	}
	if cfg.Archive.UserAgent != "Campfire Archiver" {
		t.Errorf("archive.user_agent = %q", cfg.Archive.UserAgent)
	}
	if cfg.Archive.TranscriptWorkers != 20 || cfg.Archive.UserWorkers != 10 || cfg.Archive.UploadWorkers != 10 {
		t.Errorf("worker defaults = %d/%d/%d, want 20/10/10",
			cfg.Archive.TranscriptWorkers, cfg.Archive.UserWorkers, cfg.Archive.UploadWorkers)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("database.driver = %q", cfg.Database.Driver)
	}
	if cfg.Database.ConnMaxLifetime != time.Hour {
		t.Errorf("database.conn_max_lifetime = %v", cfg.Database.ConnMaxLifetime)
	}
	if cfg.Artifact.Enabled() {
		t.Error("artifact store should be disabled by default")
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("log defaults = %s/%s", cfg.Log.Level, cfg.Log.Format)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 8080
  mode: release
archive:
  api_domain: chat.example.com
  transcript_workers: 5
artifact:
  type: s3
  bucket: my-archives
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8080 || cfg.Server.Mode != "release" {
		t.Errorf("server = %d/%s", cfg.Server.Port, cfg.Server.Mode)
	}
	if cfg.Archive.APIDomain != "chat.example.com" {
		t.Errorf("archive.api_domain = %q", cfg.Archive.APIDomain)
	}
	if cfg.Archive.TranscriptWorkers != 5 {
		t.Errorf("archive.transcript_workers = %d", cfg.Archive.TranscriptWorkers)
	}
	// Unset keys keep their defaults.
	if cfg.Archive.UserWorkers != 10 {
		t.Errorf("archive.user_workers = %d, want default 10", cfg.Archive.UserWorkers)
	}
	if !cfg.Artifact.Enabled() || cfg.Artifact.Bucket != "my-archives" {
		t.Errorf("artifact = %+v", cfg.Artifact)
	}
}

func TestDatabaseDSN(t *testing.T) {
	sqlite := &DatabaseConfig{Driver: "sqlite", Path: "./data/test.db"}
	if got := sqlite.DSN(); got != "./data/test.db" {
		t.Errorf("sqlite DSN = %q", got)
	}

	pg := &DatabaseConfig{
		Driver: "postgres", Host: "db.local", Port: 5432,
		User: "hearth", Password: "pw", Name: "hearth", SSLMode: "disable",
	}
	want := "host=db.local port=5432 user=hearth password=pw dbname=hearth sslmode=disable"
	if got := pg.DSN(); got != want {
		t.Errorf("postgres DSN = %q, want %q", got, want)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("ARCHIVE_API_DOMAIN", "relocated.example.net")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Archive.APIDomain != "relocated.example.net" {
		t.Errorf("archive.api_domain = %q, want env override", cfg.Archive.APIDomain)
	}
}
