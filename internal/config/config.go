package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port                 string        `envconfig:"PORT" default:"8080"`
	DatabaseURL          string        `envconfig:"DATABASE_URL" required:"true"`
	DatabaseMaxOpenConns int           `envconfig:"DATABASE_MAX_OPEN_CONNS" default:"20"`
	SupabaseJWTPublicKey string        `envconfig:"SUPABASE_JWT_PUBLIC_KEY"`
	SupabaseJWKSURL      string        `envconfig:"SUPABASE_JWKS_URL"`
	SupabaseJWTSecret    string        `envconfig:"SUPABASE_JWT_SECRET"`
	SupabaseJWTAudience  string        `envconfig:"SUPABASE_JWT_AUDIENCE" default:"authenticated"`
	SupabaseJWTIssuer    string        `envconfig:"SUPABASE_JWT_ISSUER"`
	TMDBAPIKey           string        `envconfig:"TMDB_API_KEY" required:"true"`
	TMDBBaseURL          string        `envconfig:"TMDB_BASE_URL" default:"https://api.themoviedb.org/3"`
	TMDBLanguage         string        `envconfig:"TMDB_LANGUAGE" default:"ja-JP"`
	TMDBRegion           string        `envconfig:"TMDB_REGION" default:"JP"`
	CatalogCacheTTL      time.Duration `envconfig:"CATALOG_CACHE_TTL" default:"1h"`
	RedisAddr            string        `envconfig:"REDIS_ADDR"`
	StoreTimeout         time.Duration `envconfig:"STORE_TIMEOUT" default:"5s"`
	CatalogTimeout       time.Duration `envconfig:"CATALOG_TIMEOUT" default:"10s"`
	TimelineLimit        int           `envconfig:"TIMELINE_LIMIT" default:"20"`
	LogLevel             string        `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, fmt.Errorf("env error: %w", err)
	}
	if c.SupabaseJWTPublicKey == "" && c.SupabaseJWKSURL == "" && c.SupabaseJWTSecret == "" {
		return Config{}, fmt.Errorf("env error: one of SUPABASE_JWT_PUBLIC_KEY, SUPABASE_JWKS_URL or SUPABASE_JWT_SECRET is required")
	}
	return c, nil
}
