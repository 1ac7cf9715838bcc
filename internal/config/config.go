package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix = "MODULUX"

	DatabaseDriverSQLite = "sqlite"
	DatabaseDriverMongo  = "mongo"

	CacheDriverMemory = "memory"
	CacheDriverRedis  = "redis"
	CacheDriverNone   = "none"

	defaultHTTPAddress     = "0.0.0.0:8080"
	defaultDatabaseDriver  = DatabaseDriverSQLite
	defaultDatabasePath    = "modulux.db"
	defaultMongoDatabase   = "modulux"
	defaultLogLevel        = "info"
	defaultCookieName      = "app_session"
	defaultSessionIssuer   = "tauth"
	defaultCacheDriver     = CacheDriverMemory
	defaultCacheTTL        = 5 * time.Minute
	defaultPersistTimeout  = 10 * time.Second
	defaultAPIBaseURL      = "http://localhost:8080"
	defaultSessionTokenTTL = 12 * time.Hour
)

// AppConfig captures runtime configuration for the API server and the CLI.
type AppConfig struct {
	HTTPAddress     string
	AllowedOrigins  []string
	DatabaseDriver  string
	DatabasePath    string
	MongoURI        string
	MongoDatabase   string
	TAuthSigningKey string
	TAuthCookieName string
	TAuthIssuer     string
	SessionTokenTTL time.Duration
	CacheDriver     string
	CacheTTL        time.Duration
	RedisAddress    string
	RedisPassword   string
	RedisDB         int
	LogLevel        string
	PersistTimeout  time.Duration
	APIBaseURL      string
	APIToken        string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("cors.allowed_origins", []string{})
	configViper.SetDefault("database.driver", defaultDatabaseDriver)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("mongo.uri", "")
	configViper.SetDefault("mongo.database", defaultMongoDatabase)
	configViper.SetDefault("tauth.signing_secret", "")
	configViper.SetDefault("tauth.cookie_name", defaultCookieName)
	configViper.SetDefault("tauth.issuer", defaultSessionIssuer)
	configViper.SetDefault("tauth.token_ttl", defaultSessionTokenTTL)
	configViper.SetDefault("cache.driver", defaultCacheDriver)
	configViper.SetDefault("cache.ttl", defaultCacheTTL)
	configViper.SetDefault("redis.address", "")
	configViper.SetDefault("redis.password", "")
	configViper.SetDefault("redis.db", 0)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("editor.persist_timeout", defaultPersistTimeout)
	configViper.SetDefault("api.base_url", defaultAPIBaseURL)
	configViper.SetDefault("api.token", "")
}

// Load parses runtime configuration from viper and validates it for serving.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := read(configViper)
	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// LoadClient parses configuration for CLI commands that talk to a running API.
// Server-only settings are not validated.
func LoadClient(configViper *viper.Viper) (AppConfig, error) {
	cfg := read(configViper)
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		return AppConfig{}, fmt.Errorf("api.base_url is required")
	}
	if cfg.PersistTimeout <= 0 {
		return AppConfig{}, fmt.Errorf("editor.persist_timeout must be positive")
	}
	return cfg, nil
}

func read(configViper *viper.Viper) AppConfig {
	return AppConfig{
		HTTPAddress:     configViper.GetString("http.address"),
		AllowedOrigins:  normalizeList(configViper.GetStringSlice("cors.allowed_origins")),
		DatabaseDriver:  strings.ToLower(strings.TrimSpace(configViper.GetString("database.driver"))),
		DatabasePath:    configViper.GetString("database.path"),
		MongoURI:        configViper.GetString("mongo.uri"),
		MongoDatabase:   configViper.GetString("mongo.database"),
		TAuthSigningKey: configViper.GetString("tauth.signing_secret"),
		TAuthCookieName: configViper.GetString("tauth.cookie_name"),
		TAuthIssuer:     configViper.GetString("tauth.issuer"),
		SessionTokenTTL: configViper.GetDuration("tauth.token_ttl"),
		CacheDriver:     strings.ToLower(strings.TrimSpace(configViper.GetString("cache.driver"))),
		CacheTTL:        configViper.GetDuration("cache.ttl"),
		RedisAddress:    configViper.GetString("redis.address"),
		RedisPassword:   configViper.GetString("redis.password"),
		RedisDB:         configViper.GetInt("redis.db"),
		LogLevel:        configViper.GetString("log.level"),
		PersistTimeout:  configViper.GetDuration("editor.persist_timeout"),
		APIBaseURL:      configViper.GetString("api.base_url"),
		APIToken:        configViper.GetString("api.token"),
	}
}

// normalizeList splits comma-joined entries, which is how list values arrive from the environment.
func normalizeList(values []string) []string {
	normalized := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				normalized = append(normalized, trimmed)
			}
		}
	}
	return normalized
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.TAuthSigningKey) == "" {
		return fmt.Errorf("tauth.signing_secret is required")
	}
	if strings.TrimSpace(c.TAuthCookieName) == "" {
		return fmt.Errorf("tauth.cookie_name is required")
	}
	switch c.DatabaseDriver {
	case DatabaseDriverSQLite:
		if strings.TrimSpace(c.DatabasePath) == "" {
			return fmt.Errorf("database.path is required")
		}
	case DatabaseDriverMongo:
		if strings.TrimSpace(c.MongoURI) == "" {
			return fmt.Errorf("mongo.uri is required when database.driver is mongo")
		}
		if strings.TrimSpace(c.MongoDatabase) == "" {
			return fmt.Errorf("mongo.database is required when database.driver is mongo")
		}
	default:
		return fmt.Errorf("database.driver %q is not supported", c.DatabaseDriver)
	}
	switch c.CacheDriver {
	case CacheDriverMemory, CacheDriverNone:
	case CacheDriverRedis:
		if strings.TrimSpace(c.RedisAddress) == "" {
			return fmt.Errorf("redis.address is required when cache.driver is redis")
		}
	default:
		return fmt.Errorf("cache.driver %q is not supported", c.CacheDriver)
	}
	if c.CacheDriver != CacheDriverNone && c.CacheTTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}
	return nil
}
