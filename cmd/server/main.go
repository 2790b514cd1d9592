package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"garage-assistant/internal/chat"
	"garage-assistant/internal/common/config"
	"garage-assistant/internal/common/database"
	"garage-assistant/internal/common/errors"
	"garage-assistant/internal/common/logger"
	"garage-assistant/internal/gateway/genai"
	"garage-assistant/internal/gateway/transcribe"
	"garage-assistant/internal/repository"
	"garage-assistant/internal/service"
	transport "garage-assistant/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger is not up yet; configuration problems go to stderr.
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	log.Info("starting garage assistant", map[string]interface{}{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	postgres, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		log.WithError(err).Error("failed to connect to postgres", map[string]interface{}{
			"host": cfg.Database.Postgres.Host,
		})
		os.Exit(1)
	}
	defer func() { _ = postgres.Close() }()

	store := repository.NewPostgres(postgres.GetDB(), log)
	if err := store.EnsureSchema(context.Background()); err != nil {
		log.WithError(err).Error("failed to ensure database schema", nil)
		os.Exit(1)
	}

	classifier, err := genai.NewClient(&genai.Config{
		BaseURL: cfg.GenAI.BaseURL,
		APIKey:  cfg.GenAI.APIKey,
		Model:   cfg.GenAI.Model,
		Timeout: config.GetDuration(cfg.GenAI.Timeout),
	}, log)
	if err != nil {
		// ConfigurationError is fatal for the gateway instance. Fail at
		// startup rather than on the first request.
		log.WithError(err).Error("failed to build classification gateway", map[string]interface{}{
			"code": string(errors.Code(err)),
		})
		os.Exit(1)
	}

	transcriber, err := transcribe.NewClient(&transcribe.Config{
		BaseURL:     cfg.GenAI.BaseURL,
		APIKey:      cfg.GenAI.APIKey,
		Model:       cfg.GenAI.TranscriptionModel,
		DefaultMime: cfg.GenAI.DefaultAudioMime,
		Timeout:     config.GetDuration(cfg.GenAI.Timeout),
	}, log)
	if err != nil {
		log.WithError(err).Error("failed to build transcription gateway", map[string]interface{}{
			"code": string(errors.Code(err)),
		})
		os.Exit(1)
	}

	var cache *chat.ClassificationCache
	if cfg.Cache.Enabled {
		redisClient, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			log.WithError(err).Error("failed to connect to redis", map[string]interface{}{
				"address": cfg.Database.Redis.Address,
			})
			os.Exit(1)
		}
		defer func() { _ = redisClient.Close() }()
		cache = chat.NewClassificationCache(redisClient.GetClient(), config.GetDuration(cfg.Cache.TTL*1000), log)
		log.Info("classification cache enabled", map[string]interface{}{
			"ttl_seconds": cfg.Cache.TTL,
		})
	}

	manager := service.NewManager(store, log)
	orchestrator := chat.NewOrchestrator(classifier, transcriber, manager, cache, log)

	handler := transport.NewHandler(orchestrator, store, postgres, log)
	router := transport.NewRouter(handler, log)

	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      router,
		ReadTimeout:  config.GetDuration(cfg.HTTP.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.HTTP.WriteTimeout),
	}

	go func() {
		log.Info("http server listening", map[string]interface{}{
			"address": cfg.HTTP.Address,
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("http server failed", nil)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down", nil)
	ctx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.HTTP.ShutdownTimeout))
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("graceful shutdown incomplete", nil)
	}
}
