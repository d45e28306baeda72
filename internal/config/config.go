package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "ARENA"

type Config struct {
	AppPort       string `mapstructure:"app-port"`
	DatabaseURL   string `mapstructure:"database-url"`
	RedisAddr     string `mapstructure:"redis-addr"`
	RedisPassword string `mapstructure:"redis-password"`
	RedisDB       int    `mapstructure:"redis-db"`

	JWTSecret string        `mapstructure:"jwt-secret"`
	JWTTTL    time.Duration `mapstructure:"jwt-ttl"`

	// empty allows any origin
	AllowedOrigin string `mapstructure:"allowed-origin"`

	LogLevel  string `mapstructure:"log-level"`
	LogFormat string `mapstructure:"log-format"`

	PDRounds           int           `mapstructure:"pd-rounds"`
	RateLimitPerMinute int           `mapstructure:"rate-limit-per-minute"`
	StatsInterval      time.Duration `mapstructure:"stats-interval"`
}

// Validate reports every violation at once.
func (c Config) Validate() error {
	var errs []string

	if c.AppPort == "" {
		errs = append(errs, "app-port must not be empty")
	}
	if c.DatabaseURL == "" {
		errs = append(errs, "database-url must not be empty")
	}
	if len(c.JWTSecret) < 16 {
		errs = append(errs, "jwt-secret must be at least 16 characters")
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, fmt.Sprintf("jwt-ttl must be positive, got %s", c.JWTTTL))
	}
	if c.RedisDB < 0 {
		errs = append(errs, fmt.Sprintf("redis-db must be >= 0, got %d", c.RedisDB))
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.LogLevel] {
		errs = append(errs, fmt.Sprintf("log-level must be one of [debug, info, warn, error], got %q", c.LogLevel))
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[c.LogFormat] {
		errs = append(errs, fmt.Sprintf("log-format must be one of [json, console], got %q", c.LogFormat))
	}
	if c.PDRounds < 1 {
		errs = append(errs, fmt.Sprintf("pd-rounds must be >= 1, got %d", c.PDRounds))
	}
	if c.RateLimitPerMinute < 0 {
		errs = append(errs, fmt.Sprintf("rate-limit-per-minute must be >= 0, got %d", c.RateLimitPerMinute))
	}
	if c.StatsInterval < 0 {
		errs = append(errs, "stats-interval must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// RedisEnabled is false when no redis address is configured.
func (c Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// NewViper loads .env (if present) and returns a viper instance reading
// ARENA_* environment variables on top of the defaults.
func NewViper() *viper.Viper {
	// .env is optional, the process env always wins
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(replacer())
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// BindFlags registers a flag per key on fs and binds them to v.
// Flags set on the command line override env and defaults.
func BindFlags(fs *pflag.FlagSet, v *viper.Viper) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringP("app-port", "p", v.GetString("app-port"), "port to listen on (env: ARENA_APP_PORT)")
	fs.String("database-url", v.GetString("database-url"), "postgres connection string (env: ARENA_DATABASE_URL)")
	fs.String("redis-addr", v.GetString("redis-addr"), "redis address, empty disables redis (env: ARENA_REDIS_ADDR)")
	fs.String("allowed-origin", v.GetString("allowed-origin"), "allowed websocket/CORS origin (env: ARENA_ALLOWED_ORIGIN)")
	fs.String("log-level", v.GetString("log-level"), "debug, info, warn or error (env: ARENA_LOG_LEVEL)")
	fs.String("log-format", v.GetString("log-format"), "json or console (env: ARENA_LOG_FORMAT)")
	fs.Int("pd-rounds", v.GetInt("pd-rounds"), "rounds per prisoner's dilemma match (env: ARENA_PD_ROUNDS)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
	})
}

// Load reads config from .env, environment and defaults, then validates it.
func Load() (Config, error) {
	return LoadFromViper(NewViper())
}

func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func replacer() *strings.Replacer {
	return strings.NewReplacer("-", "_")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app-port", "8080")
	v.SetDefault("database-url", "")
	v.SetDefault("redis-addr", "")
	v.SetDefault("redis-password", "")
	v.SetDefault("redis-db", 0)

	v.SetDefault("jwt-secret", "")
	v.SetDefault("jwt-ttl", "168h")

	v.SetDefault("allowed-origin", "")

	v.SetDefault("log-level", "info")
	v.SetDefault("log-format", "json")

	v.SetDefault("pd-rounds", 5)
	v.SetDefault("rate-limit-per-minute", 120)
	v.SetDefault("stats-interval", "1m")
}
