package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	CORS       CORSConfig
	Log        LogConfig
	Catalog    CatalogConfig
	Planner    PlannerConfig
	Suggestion SuggestionConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CatalogConfig toggles the course data provider backends.
type CatalogConfig struct {
	DatabaseEnabled bool
	CacheEnabled    bool
	CacheTTL        time.Duration
	WarmWorkers     int
}

// PlannerConfig bounds schedule generation requests.
type PlannerConfig struct {
	DefaultMaxOptions   int
	MaxOptionsCap       int
	DefaultSearchBudget int
	MaxSearchBudget     int
	DefaultDeadline     time.Duration
	Workers             int
	PlanTTL             time.Duration
}

// SuggestionConfig points at the external suggestion service.
type SuggestionConfig struct {
	Enabled bool
	URL     string
	APIKey  string
	Timeout time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Catalog = CatalogConfig{
		DatabaseEnabled: v.GetBool("ENABLE_CATALOG_DB"),
		CacheEnabled:    v.GetBool("ENABLE_CATALOG_CACHE"),
		CacheTTL:        parseDuration(v.GetString("CATALOG_CACHE_TTL"), 15*time.Minute),
		WarmWorkers:     v.GetInt("CATALOG_WARM_WORKERS"),
	}

	cfg.Planner = PlannerConfig{
		DefaultMaxOptions:   v.GetInt("PLANNER_DEFAULT_MAX_OPTIONS"),
		MaxOptionsCap:       v.GetInt("PLANNER_MAX_OPTIONS_CAP"),
		DefaultSearchBudget: v.GetInt("PLANNER_DEFAULT_SEARCH_BUDGET"),
		MaxSearchBudget:     v.GetInt("PLANNER_MAX_SEARCH_BUDGET"),
		DefaultDeadline:     parseDuration(v.GetString("PLANNER_DEFAULT_DEADLINE"), 5*time.Second),
		Workers:             v.GetInt("PLANNER_WORKERS"),
		PlanTTL:             parseDuration(v.GetString("PLANNER_PLAN_TTL"), 30*time.Minute),
	}

	cfg.Suggestion = SuggestionConfig{
		Enabled: v.GetBool("ENABLE_SUGGESTIONS"),
		URL:     v.GetString("SUGGESTION_URL"),
		APIKey:  v.GetString("SUGGESTION_API_KEY"),
		Timeout: parseDuration(v.GetString("SUGGESTION_TIMEOUT"), 3*time.Second),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "course_catalog")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_CATALOG_DB", false)
	v.SetDefault("ENABLE_CATALOG_CACHE", false)
	v.SetDefault("CATALOG_CACHE_TTL", "15m")
	v.SetDefault("CATALOG_WARM_WORKERS", 2)

	v.SetDefault("PLANNER_DEFAULT_MAX_OPTIONS", 5)
	v.SetDefault("PLANNER_MAX_OPTIONS_CAP", 20)
	v.SetDefault("PLANNER_DEFAULT_SEARCH_BUDGET", 50000)
	v.SetDefault("PLANNER_MAX_SEARCH_BUDGET", 2000000)
	v.SetDefault("PLANNER_DEFAULT_DEADLINE", "5s")
	v.SetDefault("PLANNER_WORKERS", 0)
	v.SetDefault("PLANNER_PLAN_TTL", "30m")

	v.SetDefault("ENABLE_SUGGESTIONS", false)
	v.SetDefault("SUGGESTION_URL", "")
	v.SetDefault("SUGGESTION_API_KEY", "")
	v.SetDefault("SUGGESTION_TIMEOUT", "3s")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
