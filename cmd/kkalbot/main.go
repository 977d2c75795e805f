package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/kkalbot/kkalbot/internal/api"
	"github.com/kkalbot/kkalbot/internal/config"
	"github.com/kkalbot/kkalbot/internal/ledger"
	"github.com/kkalbot/kkalbot/internal/parse"
	"github.com/kkalbot/kkalbot/internal/ratelimit"
	"github.com/kkalbot/kkalbot/internal/scheduler"
	"github.com/kkalbot/kkalbot/internal/server"
	"github.com/kkalbot/kkalbot/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("validating config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Ledger store
	store, err := ledger.OpenSQLite(cfg.Store.Path)
	if err != nil {
		slog.Error("opening ledger store", "path", cfg.Store.Path, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Engine
	engine, err := ledger.NewEngine(store, cfg.Ledger)
	if err != nil {
		slog.Error("building ledger engine", "error", err)
		os.Exit(1)
	}

	// Daily reset scheduler
	loc, err := cfg.Ledger.Location()
	if err != nil {
		slog.Error("resolving time zone", "error", err)
		os.Exit(1)
	}
	sched := scheduler.New(engine, cfg.Ledger.CutoffHour, loc)
	go sched.Run(ctx)

	// Flood guard (optional)
	var limiter *ratelimit.Limiter
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Error("pinging redis", "addr", cfg.Redis.Addr, "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		limiter = ratelimit.New(rdb, cfg.Flood.MaxPerMinute)
		slog.Info("flood guard enabled", "addr", cfg.Redis.Addr, "max_per_minute", cfg.Flood.MaxPerMinute)
	}

	// Telegram front end
	if cfg.Telegram.Token != "" {
		parser := parse.New(cfg.Ledger.Units)
		bot, err := telegram.NewBot(cfg.Telegram.Token, engine, parser, limiter)
		if err != nil {
			slog.Error("starting telegram bot", "error", err)
			os.Exit(1)
		}
		go func() {
			if err := bot.Run(ctx); err != nil {
				slog.Error("telegram bot stopped", "error", err)
				stop()
			}
		}()
	}

	// Admin HTTP surface
	router := api.NewRouter(store, api.NewHandler(engine))
	srv := server.New(cfg.Server, router)
	if err := srv.Start(ctx); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(cfg config.LogConfig) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{}
	switch cfg.Level {
	case "debug":
		opts.Level = slog.LevelDebug
	case "info":
		opts.Level = slog.LevelInfo
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
