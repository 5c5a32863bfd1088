package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Quota accounting modes, chosen once at startup.
const (
	ModeFree = "free"
	ModePaid = "paid"
)

type Config struct {
	App       AppConfig
	Server    ServerConfig
	DB        DBConfig
	Redis     RedisConfig
	Quota     QuotaConfig
	OpenAI    OpenAIConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

type AppConfig struct {
	Name               string
	Timezone           string
	ShowUsage          bool
	ShowTimer          bool
	CORSAllowedOrigins []string
}

type ServerConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// QuotaConfig selects and parameterizes the active accounting mechanism.
// Mode "free" meters a per-identity daily usage count against DailyFreeLimit.
// Mode "paid" spends from a per-identity credit wallet: once per day the
// wallet is either reset to ResetTo (when positive) or topped up by
// DailyGrant, capped at MaxBalance.
type QuotaConfig struct {
	Mode           string
	Store          string
	DailyFreeLimit int
	InitialCredits int
	DailyGrant     int
	MaxBalance     int
	ResetTo        int
}

type OpenAIConfig struct {
	Enabled bool
	APIKey  string
	Model   string
	BaseURL string
	Org     string
	Timeout time.Duration
}

type RateLimitConfig struct {
	Enabled   bool
	MaxReqs   int
	WindowSec int
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Load .env file if it exists (ignore error if missing)
	_ = k.Load(file.Provider(".env"), dotenv.Parser())

	// Load environment variables (override .env)
	err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, "_", "."))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:      k.String("app.name"),
			Timezone:  k.String("app.timezone"),
			ShowUsage: true,
			ShowTimer: true,
		},
		Server: ServerConfig{
			Host: k.String("server.host"),
			Port: k.Int("server.port"),
		},
		DB: DBConfig{
			Host:     k.String("db.host"),
			Port:     k.Int("db.port"),
			User:     k.String("db.user"),
			Password: k.String("db.password"),
			Name:     k.String("db.name"),
			SSLMode:  k.String("db.sslmode"),
			MaxConns: int32(k.Int("db.max.conns")),
		},
		Redis: RedisConfig{
			Host:     k.String("redis.host"),
			Port:     k.Int("redis.port"),
			Password: k.String("redis.password"),
			DB:       k.Int("redis.db"),
		},
		Quota: QuotaConfig{
			Mode:           k.String("quota.mode"),
			Store:          k.String("quota.store"),
			DailyFreeLimit: k.Int("quota.daily.free.limit"),
			InitialCredits: k.Int("quota.initial.credits"),
			DailyGrant:     k.Int("quota.daily.grant"),
			MaxBalance:     k.Int("quota.max.balance"),
			ResetTo:        k.Int("quota.reset.to"),
		},
		OpenAI: OpenAIConfig{
			Enabled: k.Bool("openai.enabled"),
			APIKey:  k.String("openai.api.key"),
			Model:   k.String("openai.model"),
			BaseURL: k.String("openai.base.url"),
			Org:     k.String("openai.org"),
		},
		RateLimit: RateLimitConfig{
			Enabled:   k.Bool("ratelimit.enabled"),
			MaxReqs:   k.Int("ratelimit.max.reqs"),
			WindowSec: k.Int("ratelimit.window.sec"),
		},
		Log: LogConfig{
			Level:  k.String("log.level"),
			Format: k.String("log.format"),
		},
	}

	if k.Exists("app.show.usage") {
		cfg.App.ShowUsage = k.Bool("app.show.usage")
	}
	if k.Exists("app.show.timer") {
		cfg.App.ShowTimer = k.Bool("app.show.timer")
	}
	if origins := k.String("app.cors.origins"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.App.CORSAllowedOrigins = append(cfg.App.CORSAllowedOrigins, o)
			}
		}
	}

	// Apply defaults
	if cfg.App.Name == "" {
		cfg.App.Name = "Prompt Wizard"
	}
	if cfg.App.Timezone == "" {
		cfg.App.Timezone = "Asia/Manila"
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.DB.Host == "" {
		cfg.DB.Host = "localhost"
	}
	if cfg.DB.Port == 0 {
		cfg.DB.Port = 5432
	}
	if cfg.DB.User == "" {
		cfg.DB.User = "promptwizard"
	}
	if cfg.DB.Name == "" {
		cfg.DB.Name = "promptwizard"
	}
	if cfg.DB.SSLMode == "" {
		cfg.DB.SSLMode = "disable"
	}
	if cfg.DB.MaxConns == 0 {
		cfg.DB.MaxConns = 25
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Quota.Mode == "" {
		cfg.Quota.Mode = ModeFree
	}
	if cfg.Quota.Store == "" {
		cfg.Quota.Store = "postgres"
	}
	if !k.Exists("quota.daily.free.limit") {
		cfg.Quota.DailyFreeLimit = 10
	}
	if !k.Exists("quota.max.balance") {
		cfg.Quota.MaxBalance = 100
	}
	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = "gpt-4o-mini"
	}
	if cfg.OpenAI.BaseURL == "" {
		cfg.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.RateLimit.MaxReqs == 0 {
		cfg.RateLimit.MaxReqs = 30
	}
	if cfg.RateLimit.WindowSec == 0 {
		cfg.RateLimit.WindowSec = 60
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	// Parse durations
	timeoutStr := k.String("openai.timeout")
	if timeoutStr == "" {
		timeoutStr = "30s"
	}
	cfg.OpenAI.Timeout, err = time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("parsing openai timeout: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
