package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFile_DefaultsWithoutFile(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	if cfg.Chunking.MaxPassageLength != 500 || cfg.Embedding.BatchSize != 10 {
		t.Fatalf("unexpected chunking defaults %+v %+v", cfg.Chunking, cfg.Embedding)
	}
	if cfg.Summarizer.Backend != "minimal" || cfg.Summarizer.BARTModel != "facebook/bart-large-cnn" {
		t.Fatalf("unexpected summarizer defaults %+v", cfg.Summarizer)
	}
	if cfg.MySQL.Enabled || cfg.Redis.Enabled || cfg.RabbitMQ.Enabled {
		t.Fatalf("external stores must be disabled by default")
	}
	if cfg.HTTPAddr() != "0.0.0.0:8080" {
		t.Fatalf("unexpected addr %s", cfg.HTTPAddr())
	}
}

func TestLoadFile_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[app]
port = 9090

[summarizer]
backend = "bart"

[mysql]
enabled = true
user = "paper"
password = "secret"
db = "docs"

[cors]
allow_origins = ["http://localhost:3000"]
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SUMMARIZER_BACKEND", "t5")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("CORS_ALLOW_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("APP_PORT", "not-a-number")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	if cfg.App.Port != 9090 {
		t.Fatalf("expected port from file, got %d", cfg.App.Port)
	}
	if cfg.Summarizer.Backend != "t5" {
		t.Fatalf("expected env override, got %q", cfg.Summarizer.Backend)
	}
	if !cfg.MySQL.Enabled || !cfg.Redis.Enabled || cfg.RabbitMQ.Enabled {
		t.Fatalf("unexpected enabled flags mysql=%v redis=%v rabbitmq=%v", cfg.MySQL.Enabled, cfg.Redis.Enabled, cfg.RabbitMQ.Enabled)
	}
	if len(cfg.CORS.AllowOrigins) != 2 || cfg.CORS.AllowOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected origins %v", cfg.CORS.AllowOrigins)
	}
	want := "paper:secret@tcp(127.0.0.1:3306)/docs?parseTime=true&loc=Local&charset=utf8mb4"
	if got := cfg.MySQLDSN(); got != want {
		t.Fatalf("MySQLDSN = %q, want %q", got, want)
	}
}

func TestLoadFile_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[app\nport = "), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatalf("expected decode error")
	}
}
