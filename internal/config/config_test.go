package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	configViper := NewViper()
	configViper.Set("tauth.signing_secret", "secret")

	cfg, err := Load(configViper)
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if cfg.HTTPAddress != defaultHTTPAddress {
		t.Fatalf("unexpected http address %q", cfg.HTTPAddress)
	}
	if cfg.DatabaseDriver != DatabaseDriverSQLite || cfg.DatabasePath != defaultDatabasePath {
		t.Fatalf("unexpected database settings %q/%q", cfg.DatabaseDriver, cfg.DatabasePath)
	}
	if cfg.CacheDriver != CacheDriverMemory || cfg.CacheTTL != 5*time.Minute {
		t.Fatalf("unexpected cache settings %q/%v", cfg.CacheDriver, cfg.CacheTTL)
	}
	if cfg.TAuthCookieName != defaultCookieName || cfg.TAuthIssuer != defaultSessionIssuer {
		t.Fatalf("unexpected session settings %q/%q", cfg.TAuthCookieName, cfg.TAuthIssuer)
	}
	if cfg.PersistTimeout != 10*time.Second {
		t.Fatalf("unexpected persist timeout %v", cfg.PersistTimeout)
	}
	if len(cfg.AllowedOrigins) != 0 {
		t.Fatalf("expected no configured origins, got %v", cfg.AllowedOrigins)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("MODULUX_TAUTH_SIGNING_SECRET", "from-env")
	t.Setenv("MODULUX_CACHE_DRIVER", "Redis")
	t.Setenv("MODULUX_REDIS_ADDRESS", "localhost:6379")
	t.Setenv("MODULUX_CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("MODULUX_CACHE_TTL", "90s")

	cfg, err := Load(NewViper())
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if cfg.TAuthSigningKey != "from-env" {
		t.Fatalf("expected signing secret from env, got %q", cfg.TAuthSigningKey)
	}
	if cfg.CacheDriver != CacheDriverRedis || cfg.RedisAddress != "localhost:6379" {
		t.Fatalf("unexpected cache settings %q/%q", cfg.CacheDriver, cfg.RedisAddress)
	}
	if cfg.CacheTTL != 90*time.Second {
		t.Fatalf("unexpected cache ttl %v", cfg.CacheTTL)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example.com" {
		t.Fatalf("unexpected origins %v", cfg.AllowedOrigins)
	}
}

func TestLoadValidation(t *testing.T) {
	testCases := []struct {
		name     string
		settings map[string]any
		message  string
	}{
		{name: "missing secret", settings: map[string]any{}, message: "tauth.signing_secret"},
		{name: "unknown database driver", settings: map[string]any{"database.driver": "postgres"}, message: "database.driver"},
		{name: "mongo without uri", settings: map[string]any{"database.driver": "mongo"}, message: "mongo.uri"},
		{name: "redis without address", settings: map[string]any{"cache.driver": "redis"}, message: "redis.address"},
		{name: "unknown cache driver", settings: map[string]any{"cache.driver": "memcached"}, message: "cache.driver"},
		{name: "non-positive cache ttl", settings: map[string]any{"cache.ttl": "0s"}, message: "cache.ttl"},
		{name: "empty sqlite path", settings: map[string]any{"database.path": " "}, message: "database.path"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			configViper := NewViper()
			if testCase.name != "missing secret" {
				configViper.Set("tauth.signing_secret", "secret")
			}
			for key, value := range testCase.settings {
				configViper.Set(key, value)
			}
			_, err := Load(configViper)
			if err == nil || !strings.Contains(err.Error(), testCase.message) {
				t.Fatalf("expected error mentioning %q, got %v", testCase.message, err)
			}
		})
	}
}

func TestLoadClientSkipsServerSettings(t *testing.T) {
	configViper := NewViper()
	configViper.Set("api.token", "token")
	cfg, err := LoadClient(configViper)
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if cfg.APIBaseURL != defaultAPIBaseURL || cfg.APIToken != "token" {
		t.Fatalf("unexpected client settings %q/%q", cfg.APIBaseURL, cfg.APIToken)
	}

	configViper.Set("api.base_url", "")
	if _, err := LoadClient(configViper); err == nil {
		t.Fatalf("expected error for empty base url")
	}
}
