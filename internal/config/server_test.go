package config

import "testing"

func TestLoadServerDefaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://localhost:5432/lastclick?sslmode=disable")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.ClickRateLimit != 10 {
		t.Fatalf("ClickRateLimit = %d, want 10", cfg.ClickRateLimit)
	}
	if cfg.ClickRateWindowMS != 10000 {
		t.Fatalf("ClickRateWindowMS = %d, want 10000", cfg.ClickRateWindowMS)
	}
}

func TestLoadServerRequiresPostgresDSN(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")

	_, err := LoadServer()
	if err == nil {
		t.Fatal("LoadServer() expected error, got nil")
	}
}

func TestLoadServerParseTypes(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://localhost:5432/lastclick?sslmode=disable")
	t.Setenv("CRON_SECRET", "hunter2")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("CLICK_RATE_LIMIT", "3")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.CronSecret != "hunter2" {
		t.Fatalf("CronSecret = %q", cfg.CronSecret)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.ClickRateLimit != 3 {
		t.Fatalf("ClickRateLimit = %d, want 3", cfg.ClickRateLimit)
	}
}
