package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string   `mapstructure:"PORT"`
	Env         string   `mapstructure:"ENV"`
	DatabaseURL string   `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32    `mapstructure:"DB_MIN_CONNS"`
	JWTSecret   string   `mapstructure:"JWT_SECRET"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`

	// Visit clustering: two clinical records belong to the same visit when
	// their timestamps are within this many hours of each other. Changing it
	// changes which records merge into one visit, so it is configuration,
	// not a buried constant.
	VisitClusterWindowHours int `mapstructure:"VISIT_CLUSTER_WINDOW_HOURS"`

	// Generator collaborator (case-study narratives).
	AIAPIKey               string  `mapstructure:"AI_API_KEY"`
	AIBaseURL              string  `mapstructure:"AI_BASE_URL"`
	AIModel                string  `mapstructure:"AI_MODEL"`
	AIPromptPricePer1K     float64 `mapstructure:"AI_PROMPT_PRICE_PER_1K"`
	AICompletionPricePer1K float64 `mapstructure:"AI_COMPLETION_PRICE_PER_1K"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("VISIT_CLUSTER_WINDOW_HOURS", 12)
	v.SetDefault("AI_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("AI_MODEL", "gpt-4o")
	v.SetDefault("AI_PROMPT_PRICE_PER_1K", 0.005)
	v.SetDefault("AI_COMPLETION_PRICE_PER_1K", 0.015)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("VISIT_CLUSTER_WINDOW_HOURS")
	v.BindEnv("AI_API_KEY")
	v.BindEnv("AI_BASE_URL")
	v.BindEnv("AI_MODEL")
	v.BindEnv("AI_PROMPT_PRICE_PER_1K")
	v.BindEnv("AI_COMPLETION_PRICE_PER_1K")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: DevAuthMiddleware is active; all requests get admin access.")
		log.Println("WARNING: Set ENV=production and configure JWT_SECRET for production.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// VisitClusterWindow returns the clustering window as a duration. Values of
// zero or below fall back to the 12-hour default rather than producing a
// window that would merge nothing.
func (c *Config) VisitClusterWindow() time.Duration {
	hours := c.VisitClusterWindowHours
	if hours <= 0 {
		hours = 12
	}
	return time.Duration(hours) * time.Hour
}

// AIConfigured reports whether the generator collaborator has credentials.
// The case-study endpoints refuse to dispatch when this is false.
func (c *Config) AIConfigured() bool {
	return c.AIAPIKey != ""
}

// Validate checks that the configuration is safe to run. In production a
// JWT secret must be set so that real bearer authentication is enforced.
func (c *Config) Validate() error {
	if c.IsProduction() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.VisitClusterWindowHours < 0 {
		return fmt.Errorf("VISIT_CLUSTER_WINDOW_HOURS must not be negative, got %d", c.VisitClusterWindowHours)
	}
	if c.AIPromptPricePer1K < 0 || c.AICompletionPricePer1K < 0 {
		return fmt.Errorf("AI token prices must not be negative")
	}
	return nil
}
