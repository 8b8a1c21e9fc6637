package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"famfin/internal/amqp"
	"famfin/internal/auth"
	"famfin/internal/cache"
	"famfin/internal/cli"
	apphttp "famfin/internal/http"
	"famfin/internal/log"
	"famfin/internal/services"
)

const reportCacheSize = 512

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	reports := cache.NewLRUCache[any](reportCacheSize, cfg.CacheTTL)
	cacheManager := cache.NewManager(logger)
	cacheManager.Register(reports)
	cacheManager.StartCleanup(time.Minute)

	opts := []services.Option{services.WithReportCache(reports)}

	// Exports are optional; the API keeps working without a broker.
	var events *amqp.Client
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, exports disabled", log.FieldError, err)
		} else {
			events = client
			defer events.Close()
			opts = append(opts, services.WithEvents(events))
			logger.Info("AMQP publisher ready", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled, transactions will not be exported")
	}

	svc := services.New(repo, opts...)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)

	srv, err := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.ProxyCIDRs(),
	}, svc, tokens, logger)
	if err != nil {
		logger.Error("Failed to create HTTP server", log.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cacheManager.Stop()
	})

	logger.Info("Starting famfin server",
		"port", cfg.Port,
		"rate_limit_per_minute", cfg.RateLimitPerMinute,
		"exports", events != nil)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
