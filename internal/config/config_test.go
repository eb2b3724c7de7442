package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MARKETLINK_API_URL", "")
	t.Setenv("VITE_API_URL", "")
	t.Setenv("SESSION_BACKEND", "")
	t.Setenv("API_TIMEOUT", "")

	cfg := Load()

	if cfg.APIURL != DefaultAPIURL {
		t.Fatalf("APIURL = %q, want %q", cfg.APIURL, DefaultAPIURL)
	}
	if cfg.SessionBackend != "file" {
		t.Fatalf("SessionBackend = %q, want file", cfg.SessionBackend)
	}
	if cfg.APITimeout != 0 {
		t.Fatalf("APITimeout = %v, want no timeout", cfg.APITimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MARKETLINK_API_URL", "")
	t.Setenv("VITE_API_URL", "https://market.example.com/api/")
	t.Setenv("API_TIMEOUT", "5s")
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("CORS_ORIGINS", "http://a.test, ,http://b.test")

	cfg := Load()

	if cfg.APIURL != "https://market.example.com/api" {
		t.Fatalf("APIURL = %q", cfg.APIURL)
	}
	if cfg.APITimeout != 5*time.Second {
		t.Fatalf("APITimeout = %v", cfg.APITimeout)
	}
	if cfg.RedisDB != 0 {
		t.Fatalf("RedisDB should fall back to 0 on parse error, got %d", cfg.RedisDB)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("CORSOrigins = %v", cfg.CORSOrigins)
	}
}
