package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"blog_aggregator/internal/archive"
	"blog_aggregator/internal/config"
	"blog_aggregator/internal/loader"
	"blog_aggregator/internal/publisher"
	"blog_aggregator/internal/refresher"
	"blog_aggregator/internal/server"
	"blog_aggregator/internal/service"
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

	blogService := service.New(cfg.Blog, logger)
	logger.Info("blog sources initialized", "sources", blogService.AvailableSources())

	postLoader := loader.New(blogService, cfg.Blog.CacheTTL, logger)

	var (
		posts     refresher.PostArchive
		tags      refresher.TagArchive
		state     refresher.StateArchive
		txManager refresher.TransactionManager
	)
	if cfg.Database.Configured() {
		db, err := sqlx.Connect("postgres", cfg.Database.DSN())
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		logger.Info("connected to database")

		posts = archive.NewPostStore(db)
		tags = archive.NewTagStore(db)
		state = archive.NewRefreshStateStore(db)
		txManager = archive.NewTransactionManager(db)
	} else {
		logger.Info("no database configured, running without archive")
	}

	var events refresher.Publisher
	if cfg.RabbitMQ.Configured() {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		events = rabbitMQ
	}

	httpServer := server.New(cfg, postLoader, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if cfg.Refresh.Enabled {
		refr := refresher.New(postLoader, posts, tags, state, txManager, events, logger, cfg.Refresh)
		go func() {
			if err := refr.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("refresher error", "error", err)
			}
		}()
	}

	go func() {
		logger.Info("starting http server", "port", cfg.Server.Port)
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
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
