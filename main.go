package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"service-orchestrator/internal/common/cache"
	"service-orchestrator/internal/common/logging"
	"service-orchestrator/internal/config"
	"service-orchestrator/internal/handlers"
	"service-orchestrator/internal/httpcall"
	"service-orchestrator/internal/orchestrator"
	"service-orchestrator/internal/services"
)

func main() {
	_ = godotenv.Load()

	logging.InitGlobalLogger()
	defer logging.MustSync()
	logger := logging.GetGlobalLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", err)
		os.Exit(1)
	}

	registry, err := services.LoadRegistry(cfg.ServicesFile)
	if err != nil {
		logger.Error("failed to load service registry", err,
			logging.String("file", cfg.ServicesFile),
		)
		os.Exit(1)
	}
	logger.Info("service registry loaded",
		logging.Int("services", len(registry.Names())),
	)

	responseCache, err := buildCache(cfg)
	if err != nil {
		logger.Error("failed to initialize cache", err)
		os.Exit(1)
	}

	client := httpcall.NewClient(httpcall.WithTimeout(cfg.HTTPTimeout))
	executor := orchestrator.NewStepExecutor(registry, client, responseCache, logger)
	orch := orchestrator.New(executor, logger)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handlers.NewRouter(orch, registry, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.HTTPTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", logging.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", err)
	}
}

// buildCache selects the step response cache backend.
func buildCache(cfg *config.Config) (cache.Cache, error) {
	if cfg.CacheBackend == config.CacheBackendRedis {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, err
		}

		return cache.NewRedisCache(client, cfg.RedisKeyPrefix), nil
	}

	return cache.NewLocalCache(cfg.CacheDefaultTTL, 10*time.Minute), nil
}
