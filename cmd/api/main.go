package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/lmittmann/tint"
	goredis "github.com/redis/go-redis/v9"

	"github.com/promptwizard-app/promptwizard/internal/api"
	"github.com/promptwizard-app/promptwizard/internal/config"
	"github.com/promptwizard-app/promptwizard/internal/database"
	"github.com/promptwizard-app/promptwizard/internal/enhance"
	"github.com/promptwizard-app/promptwizard/internal/middleware"
	"github.com/promptwizard-app/promptwizard/internal/prompts"
	"github.com/promptwizard-app/promptwizard/internal/quota"
	iredis "github.com/promptwizard-app/promptwizard/internal/redis"
	"github.com/promptwizard-app/promptwizard/internal/server"
	"github.com/promptwizard-app/promptwizard/internal/timeday"
	"github.com/promptwizard-app/promptwizard/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Log)
	slog.Info("starting prompt wizard",
		"mode", cfg.Quota.Mode,
		"store", cfg.Quota.Store,
		"enhance", cfg.OpenAI.Enabled,
		"timezone", cfg.App.Timezone,
	)

	ctx := context.Background()

	clock := timeday.NewClock(cfg.App.Timezone)

	// PostgreSQL — prompt history always lives here; quota state too unless
	// the in-memory store is selected for local runs.
	pool, err := database.NewPostgresPool(ctx, cfg.DB)
	if err != nil {
		slog.Error("connecting to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.RunMigrations(cfg.DB.DSN()); err != nil {
		slog.Error("running migrations", "error", err)
		os.Exit(1)
	}

	// Quota stores
	var (
		usageStore  quota.UsageStore
		walletStore quota.WalletStore
	)
	if cfg.Quota.Store == "memory" {
		mem := quota.NewMemoryStore()
		usageStore, walletStore = mem, mem
		slog.Warn("quota state is in-memory: not shared across instances, lost on restart")
	} else {
		usageStore = quota.NewUsageRepository(pool)
		walletStore = quota.NewWalletRepository(pool)
	}

	meter := quota.NewMeter(usageStore, clock, cfg.Quota.DailyFreeLimit)
	wallet := quota.NewWallet(walletStore, clock, cfg.Quota)
	gate := quota.NewGate(cfg.Quota.Mode, meter, wallet)

	// Enhancement
	var enhanceClient *enhance.Client
	if cfg.OpenAI.Enabled {
		enhanceClient = enhance.NewClient(cfg.OpenAI)
	}
	enhanceHandler := enhance.NewHandler(enhanceClient, gate, meter, wallet)

	// Prompts
	promptRepo := prompts.NewRepository(pool)
	promptHandler := prompts.NewHandler(promptRepo)

	// Web UI
	webHandler, err := web.NewHandler(cfg.App, cfg.Quota.Mode == config.ModePaid, cfg.OpenAI.Enabled)
	if err != nil {
		slog.Error("loading web templates", "error", err)
		os.Exit(1)
	}

	// Redis burst limiter (optional)
	var (
		redisClient    *goredis.Client
		enhanceLimiter func(http.Handler) http.Handler
	)
	if cfg.RateLimit.Enabled {
		rc, err := iredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Error("connecting to redis", "error", err)
			os.Exit(1)
		}
		defer rc.Close()
		redisClient = rc
		enhanceLimiter = middleware.NewRateLimiter(rc, cfg.RateLimit.MaxReqs, cfg.RateLimit.WindowSec).Middleware
	}

	// Router
	router := api.NewRouter(pool, redisClient, api.RouterConfig{
		Mode:               cfg.Quota.Mode,
		EnhanceEnabled:     cfg.OpenAI.Enabled,
		CORSAllowedOrigins: cfg.App.CORSAllowedOrigins,
		EnhanceRateLimiter: enhanceLimiter,
	}, api.HandlerSet{
		Index:  webHandler.Index,
		Static: webHandler.Static(),

		BuildPrompt: promptHandler.Build,
		SavePrompt:  promptHandler.Save,
		ListHistory: promptHandler.History,

		Enhance:       enhanceHandler.Enhance,
		UsageStatus:   enhanceHandler.UsageStatus,
		CreditsStatus: enhanceHandler.CreditsStatus,
	})

	// Start server
	srv := server.New(cfg.Server, router)
	if err := srv.Start(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = tint.NewHandler(os.Stdout, &tint.Options{Level: level})
	}

	slog.SetDefault(slog.New(handler))
}
