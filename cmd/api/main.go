package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"eventure/internal/api"
	"eventure/internal/cache"
	"eventure/internal/config"
	"eventure/internal/progress"
	"eventure/internal/queue"
	"eventure/internal/service"
	"eventure/internal/source"
	"eventure/internal/source/hccg"
	"eventure/internal/source/kaohsiung"
	"eventure/internal/source/newtaipei"
	"eventure/internal/source/taichung"
	"eventure/internal/source/tainan"
	"eventure/internal/source/taipei"
	"eventure/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger = setupLogger(cfg.LogLevel)

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database")

	redis, err := cache.NewRedis(cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   cfg.Redis.Prefix,
	})
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redis.Close()

	rabbit, err := queue.NewRabbitMQ(queue.Config{
		URL:        cfg.RabbitMQ.URL,
		Exchange:   cfg.RabbitMQ.Exchange,
		RoutingKey: cfg.RabbitMQ.RoutingKey,
		QueueName:  cfg.RabbitMQ.QueueName,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", "error", err)
		os.Exit(1)
	}
	defer rabbit.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	activityStore := postgres.NewActivityStore(db)
	tagStore := postgres.NewTagStore(db)
	statusStore := postgres.NewStatusStore(db)

	registry := buildRegistry(cfg, logger)

	// Each API start opens a fresh fetch cycle.
	if err := statusStore.ResetAll(ctx, registry.Names()); err != nil {
		logger.Error("failed to reset fetch statuses", "error", err)
		os.Exit(1)
	}

	reporter := progress.NewReporter(statusStore, redis, logger)

	activityService := service.NewActivityService(activityStore, tagStore, logger)
	likeService := service.NewLikeService(activityStore, cache.NewLikeSet(redis), logger)
	fetchService := service.NewFetchService(registry, statusStore, rabbit, reporter, logger)

	server := api.NewServer(cfg.Server.Addr(), logger)
	api.NewHandlers(activityService, likeService, fetchService).Bind(server.Echo())

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func buildRegistry(cfg *config.Config, logger *slog.Logger) *source.Registry {
	clientCfg := func(baseURL string) source.Config {
		return source.Config{
			BaseURL:        baseURL,
			Timeout:        cfg.Sources.Timeout,
			MaxAttempts:    cfg.Sources.Retry.MaxAttempts,
			InitialBackoff: cfg.Sources.Retry.InitialBackoff,
			MaxBackoff:     cfg.Sources.Retry.MaxBackoff,
		}
	}

	return source.NewRegistry(
		hccg.New(clientCfg(cfg.Sources.Hccg), logger),
		taipei.New(clientCfg(cfg.Sources.Taipei), logger),
		newtaipei.New(clientCfg(cfg.Sources.NewTaipei), logger),
		taichung.New(clientCfg(cfg.Sources.Taichung), logger),
		tainan.New(clientCfg(cfg.Sources.Tainan), logger),
		kaohsiung.New(clientCfg(cfg.Sources.Kaohsiung), logger),
	)
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
