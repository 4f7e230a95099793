package config

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// unsetenv removes keys for the duration of the test.
func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		_ = os.Unsetenv(k)
	}
}

func TestResolveBaseURL(t *testing.T) {
	cases := map[string]string{
		"":                            FallbackBaseURL,
		"   ":                         FallbackBaseURL,
		"api.example.com":             "http://api.example.com/api",
		"https://budget.example.com/": "https://budget.example.com/api",
		"https://budget.example.com":  "https://budget.example.com/api",
		"HTTP://localhost:9000/v1/":   "http://localhost:9000/v1",
		"http://localhost:8000/api":   "http://localhost:8000/api",
		"http://%zz":                  FallbackBaseURL,
	}
	for in, want := range cases {
		if got := ResolveBaseURL(in, zerolog.Nop()); got != want {
			t.Errorf("ResolveBaseURL(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestLoadClient_Defaults(t *testing.T) {
	unsetenv(t, "TOKEN_STORE", "TOAST_TTL", "BUDGET_TOKEN_FILE")

	cfg, err := LoadClient(context.Background())
	if err != nil {
		t.Fatalf("LoadClient: %v", err)
	}
	if cfg.TokenStore != TokenStoreFile {
		t.Fatalf("expected file token store, got %q", cfg.TokenStore)
	}
	if cfg.ToastTTL != 3500*time.Millisecond {
		t.Fatalf("expected 3.5s toast, got %v", cfg.ToastTTL)
	}
	if !strings.HasSuffix(cfg.TokenFile, "session.json") {
		t.Fatalf("unexpected token file: %s", cfg.TokenFile)
	}
}

func TestLoadClient_RedisRequiresAddr(t *testing.T) {
	t.Setenv("TOKEN_STORE", "redis")
	unsetenv(t, "REDIS_ADDR")

	if _, err := LoadClient(context.Background()); err == nil {
		t.Fatalf("expected error when REDIS_ADDR is missing")
	}
}

func TestLoadClient_InvalidStore(t *testing.T) {
	t.Setenv("TOKEN_STORE", "cookie")
	if _, err := LoadClient(context.Background()); err == nil {
		t.Fatalf("expected error for unknown token store")
	}
}

func TestClientConfig_RawAPIURL(t *testing.T) {
	cfg := ClientConfig{BackendURL: "backend:8000"}
	if cfg.RawAPIURL() != "backend:8000" {
		t.Fatalf("expected BACKEN_URL fallback")
	}
	cfg.APIURL = "https://api.example.com"
	if cfg.RawAPIURL() != "https://api.example.com" {
		t.Fatalf("expected API_URL to win")
	}
}

func TestLoadServer_RejectsUnknownStore(t *testing.T) {
	t.Setenv("DEV_STORE", "sqlite")
	if _, err := LoadServer(context.Background()); err == nil {
		t.Fatalf("expected error for unknown store")
	}
}

func TestLoadServer_Postgres(t *testing.T) {
	t.Setenv("DEV_STORE", "postgres")
	t.Setenv("POSTGRES_DSN", "postgres://budget@db:5432/budget")
	cfg, err := LoadServer(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store != StorePostgres || cfg.Postgres.DSN != "postgres://budget@db:5432/budget" {
		t.Fatalf("unexpected postgres config: %+v", cfg.Postgres)
	}
	if cfg.Postgres.MaxConns != 10 {
		t.Fatalf("expected default max conns 10, got %d", cfg.Postgres.MaxConns)
	}
}
